package types

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// Authority {IP, 端口} 二元组
//
// 零端口表示未指定端口，String 时省略。相等性与哈希由规范字符串形式
// 决定，IPv4 映射的 IPv6 地址统一还原为 IPv4。
type Authority struct {
	ip   netip.Addr
	port uint16
}

// ParseAuthority 解析 IPv4/IPv6 形式的 host[:port]
//
// 支持的形式：
//
//	1.2.240.1
//	1.2.240.1:8333
//	2001:db8::2
//	[2001:db8::2]
//	[2001:db8::2]:8333
//
// 端口缺省为零。主机名不做解析，返回 ErrInvalidAuthority。
func ParseAuthority(value string) (Authority, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Authority{}, fmt.Errorf("%w: empty", ErrInvalidAuthority)
	}

	// [ipv6] 或 [ipv6]:port
	if strings.HasPrefix(value, "[") {
		end := strings.IndexByte(value, ']')
		if end < 0 {
			return Authority{}, fmt.Errorf("%w: %q", ErrInvalidAuthority, value)
		}
		host, rest := value[1:end], value[end+1:]
		switch {
		case rest == "":
			return NewAuthority(host, 0)
		case strings.HasPrefix(rest, ":"):
			port, err := parsePort(rest[1:])
			if err != nil {
				return Authority{}, err
			}
			return NewAuthority(host, port)
		default:
			return Authority{}, fmt.Errorf("%w: %q", ErrInvalidAuthority, value)
		}
	}

	// 多于一个冒号：不带括号的 IPv6，没有端口
	if strings.Count(value, ":") > 1 {
		return NewAuthority(value, 0)
	}

	host, portText, found := strings.Cut(value, ":")
	if !found {
		return NewAuthority(host, 0)
	}
	port, err := parsePort(portText)
	if err != nil {
		return Authority{}, err
	}
	return NewAuthority(host, port)
}

// NewAuthority 由主机和端口构造 Authority
//
// host 可以是 [2001:db8::2]、2001:db8::2 或 1.2.240.1。
func NewAuthority(host string, port uint16) (Authority, error) {
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return Authority{}, fmt.Errorf("%w: %q", ErrInvalidAuthority, host)
	}
	return AuthorityFrom(ip, port), nil
}

// AuthorityFrom 由已解析的地址构造 Authority
func AuthorityFrom(ip netip.Addr, port uint16) Authority {
	return Authority{ip: ip.Unmap().WithZone(""), port: port}
}

// AuthorityFromNetAddr 由 net.Addr（TCP/UDP）构造 Authority
func AuthorityFromNetAddr(addr net.Addr) (Authority, error) {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return authorityFromIP(a.IP, a.Port)
	case *net.UDPAddr:
		return authorityFromIP(a.IP, a.Port)
	case nil:
		return Authority{}, fmt.Errorf("%w: nil address", ErrInvalidAuthority)
	default:
		return ParseAuthority(addr.String())
	}
}

func authorityFromIP(ip net.IP, port int) (Authority, error) {
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return Authority{}, fmt.Errorf("%w: %v", ErrInvalidAuthority, ip)
	}
	return AuthorityFrom(addr, uint16(port)), nil
}

// MustParseAuthority 解析失败时 panic，用于常量和测试
func MustParseAuthority(value string) Authority {
	a, err := ParseAuthority(value)
	if err != nil {
		panic(err)
	}
	return a
}

// IP 返回地址
func (a Authority) IP() netip.Addr {
	return a.ip
}

// Port 返回端口（未指定时为零）
func (a Authority) Port() uint16 {
	return a.port
}

// Valid 端口非零时为 true
func (a Authority) Valid() bool {
	return a.port != 0
}

// IsZero 未初始化时为 true
func (a Authority) IsZero() bool {
	return !a.ip.IsValid()
}

// Host 返回去掉端口的 Authority
func (a Authority) Host() Authority {
	return Authority{ip: a.ip}
}

// Hostname 返回 2001:db8::2 或 1.2.240.1 形式的主机文本
func (a Authority) Hostname() string {
	if !a.ip.IsValid() {
		return ""
	}
	return a.ip.String()
}

// String 返回规范形式：[2001:db8::2]:port 或 1.2.240.1:port，零端口省略
func (a Authority) String() string {
	if !a.ip.IsValid() {
		return ""
	}
	if a.port == 0 {
		return a.ip.String()
	}
	return netip.AddrPortFrom(a.ip, a.port).String()
}

// MarshalText 实现 encoding.TextMarshaler
func (a Authority) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (a *Authority) UnmarshalText(text []byte) error {
	parsed, err := ParseAuthority(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func parsePort(text string) (uint16, error) {
	port, err := strconv.ParseUint(text, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %w: %q", ErrInvalidAuthority, ErrInvalidPort, text)
	}
	return uint16(port), nil
}

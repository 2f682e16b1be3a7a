package transport

import (
	"fmt"
	"net"
	"strings"
)

// 端点协议
const (
	schemeTCP    = "tcp"
	schemeInproc = "inproc"
)

// endpoint 解析后的端点
type endpoint struct {
	scheme  string
	address string
}

// String 返回端点的 URL 形式
func (e endpoint) String() string {
	return e.scheme + "://" + e.address
}

// parseEndpoint 解析 tcp://host:port 或 inproc://name
//
// tcp 端点中 host 为 * 表示所有接口，port 为 * 表示临时端口。
func parseEndpoint(text string) (endpoint, error) {
	scheme, address, ok := strings.Cut(text, "://")
	if !ok || address == "" {
		return endpoint{}, fmt.Errorf("%w: %q", ErrInvalidEndpoint, text)
	}

	switch scheme {
	case schemeInproc:
		return endpoint{scheme: scheme, address: address}, nil
	case schemeTCP:
		host, port, err := net.SplitHostPort(address)
		if err != nil {
			return endpoint{}, fmt.Errorf("%w: %q: %v", ErrInvalidEndpoint, text, err)
		}
		if host == "*" {
			host = ""
		}
		if port == "*" {
			port = "0"
		}
		if port == "" {
			return endpoint{}, fmt.Errorf("%w: %q: missing port", ErrInvalidEndpoint, text)
		}
		return endpoint{scheme: scheme, address: net.JoinHostPort(host, port)}, nil
	default:
		return endpoint{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, scheme)
	}
}

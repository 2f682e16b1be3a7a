package transport

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/dep2p/go-zmq/internal/core/security/curve"
	transportif "github.com/dep2p/go-zmq/pkg/interfaces/transport"
	"github.com/dep2p/go-zmq/pkg/types"
)

// 问候常量
const (
	greetingSignature = "GOZMQ"
	greetingVersion   = "1"
)

// greeting 连接建立后交换的第一条消息
type greeting struct {
	mechanism string
	asServer  bool
	role      types.Role
}

func (g greeting) message() types.Message {
	server := "0"
	if g.asServer {
		server = "1"
	}
	return types.NewStringMessage(greetingSignature, greetingVersion, g.mechanism, server, g.role.String())
}

// parseGreeting 解码问候
func parseGreeting(msg types.Message) (greeting, error) {
	if len(msg) != 5 || string(msg[0]) != greetingSignature || string(msg[1]) != greetingVersion {
		return greeting{}, fmt.Errorf("%w: bad signature", ErrGreeting)
	}
	role, err := types.ParseRole(string(msg[4]))
	if err != nil {
		return greeting{}, fmt.Errorf("%w: %v", ErrGreeting, err)
	}
	mechanism := string(msg[2])
	if mechanism != transportif.MechanismNull && mechanism != transportif.MechanismCurve {
		return greeting{}, fmt.Errorf("%w: mechanism %q", ErrGreeting, mechanism)
	}
	return greeting{
		mechanism: mechanism,
		asServer:  string(msg[3]) == "1",
		role:      role,
	}, nil
}

// compatible 检查双方问候
func (g greeting) compatible(peer greeting) error {
	if !g.role.Compatible(peer.role) {
		return fmt.Errorf("%w: %s to %s", ErrIncompatibleRole, g.role, peer.role)
	}
	if g.mechanism != peer.mechanism {
		return fmt.Errorf("%w: mechanism %s to %s", ErrGreeting, g.mechanism, peer.mechanism)
	}
	if g.mechanism == transportif.MechanismCurve && g.asServer == peer.asServer {
		return fmt.Errorf("%w: both sides curve server=%t", ErrGreeting, g.asServer)
	}
	return nil
}

// bufferedConn 让后续读取先消费问候阶段已缓冲的数据
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

// peerInfo 握手结果
type peerInfo struct {
	link     link
	identity []byte
	role     types.Role
	remote   string
}

// handshake 执行问候、安全机制、认证与就绪交换
func (s *socket) handshake(conn net.Conn) (peerInfo, error) {
	opts := s.handle.opts
	sec := s.settings()

	_ = conn.SetDeadline(time.Now().Add(opts.HandshakeTimeout))

	cd := newCodec(conn, opts.MaxFrameSize)
	local := greeting{
		mechanism: sec.mechanism(),
		asServer:  sec.curveServer,
		role:      s.role,
	}
	if err := cd.WriteMessage(local.message()); err != nil {
		return peerInfo{}, fmt.Errorf("send greeting: %w", err)
	}
	msg, err := cd.ReadMessage()
	if err != nil {
		return peerInfo{}, fmt.Errorf("receive greeting: %w", err)
	}
	peer, err := parseGreeting(msg)
	if err != nil {
		return peerInfo{}, err
	}
	if err := local.compatible(peer); err != nil {
		return peerInfo{}, err
	}

	remote, err := types.AuthorityFromNetAddr(conn.RemoteAddr())
	if err != nil {
		return peerInfo{}, err
	}

	var stream net.Conn = conn
	var clientKey types.Key
	if local.mechanism == transportif.MechanismCurve {
		secured, err := curve.Handshake(&bufferedConn{Conn: conn, r: cd.Buffered()}, curve.Config{
			Server:     sec.curveServer,
			PublicKey:  sec.publicKey,
			PrivateKey: sec.privateKey,
			ServerKey:  sec.serverKey,
		})
		if err != nil {
			return peerInfo{}, err
		}
		stream = secured
		clientKey = secured.RemoteKey()
		cd = newCodec(stream, opts.MaxFrameSize)
	}

	if needsAuthentication(sec, local.mechanism) {
		if err := s.authenticate(sec, local.mechanism, remote.String(), clientKey); err != nil {
			return peerInfo{}, err
		}
	}

	// 就绪：交换身份，被拒绝的一方在这里读到连接关闭
	if err := cd.WriteMessage(types.NewMessage(sec.identity)); err != nil {
		return peerInfo{}, fmt.Errorf("send ready: %w", err)
	}
	ready, err := cd.ReadMessage()
	if err != nil {
		return peerInfo{}, fmt.Errorf("receive ready: %w", err)
	}
	if len(ready) != 1 {
		return peerInfo{}, fmt.Errorf("%w: ready has %d frames", ErrGreeting, len(ready))
	}

	_ = conn.SetDeadline(time.Time{})

	return peerInfo{
		link:     &streamLink{conn: stream, codec: cd},
		identity: ready[0],
		role:     peer.role,
		remote:   remote.String(),
	}, nil
}

// needsAuthentication CURVE 服务端总是查询，客户端不查询
//
// NULL 机制不分服务端，绑定端与连接端在设置了认证域时都会查询。
func needsAuthentication(sec security, mechanism string) bool {
	if mechanism == transportif.MechanismCurve {
		return sec.curveServer
	}
	return sec.domain != ""
}

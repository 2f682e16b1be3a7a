package zmq

import (
	"fmt"
	"time"

	transportif "github.com/dep2p/go-zmq/pkg/interfaces/transport"
	"github.com/dep2p/go-zmq/pkg/types"
)

// Socket 角色固定的消息套接字
//
// 套接字由单个所有者使用。安全设置必须在 Bind/Connect 之前完成，
// 之后调用返回 ErrSocketConfigured。
type Socket struct {
	ctx  *Context
	role types.Role
	sock transportif.Socket
}

// NewSocket 在已启动的上下文上创建套接字
//
// 上下文未启动时返回 ErrContextNotStarted；之后再启动上下文也不会
// 让该调用生效。
func NewSocket(ctx *Context, role types.Role) (*Socket, error) {
	h := ctx.Handle()
	if h == nil {
		return nil, ErrContextNotStarted
	}

	sock, err := h.Socket(role)
	if err != nil {
		return nil, fmt.Errorf("create %s socket: %w", role, err)
	}
	if ctx.opts.sendTimeout > 0 {
		sock.SetSendTimeout(ctx.opts.sendTimeout)
	}
	if ctx.opts.receiveTimeout > 0 {
		sock.SetReceiveTimeout(ctx.opts.receiveTimeout)
	}

	return &Socket{ctx: ctx, role: role, sock: sock}, nil
}

// ID 返回传输层标识
func (s *Socket) ID() uint64 {
	return s.sock.ID()
}

// Context 返回创建套接字的上下文
func (s *Socket) Context() *Context {
	return s.ctx
}

// Role 返回角色
func (s *Socket) Role() types.Role {
	return s.role
}

// ============================================================================
//                              安全设置
// ============================================================================

// SetCurveServer 作为 CURVE 服务端，使用 privateKey
func (s *Socket) SetCurveServer(privateKey types.Key) error {
	if privateKey.IsZero() {
		return ErrNoPrivateKey
	}
	return s.sock.SetCurveServer(privateKey)
}

// SetCurveClient 作为 CURVE 客户端，期望服务端公钥为 serverKey
func (s *Socket) SetCurveClient(serverKey types.Key) error {
	if serverKey.IsZero() {
		return fmt.Errorf("%w: empty server key", ErrInvalidCertificate)
	}
	return s.sock.SetCurveClient(serverKey)
}

// SetCertificate 设置本地证书，匿名证书清除本地密钥
func (s *Socket) SetCertificate(cert Certificate) error {
	return s.sock.SetCurveKeys(cert.PublicKey(), cert.PrivateKey())
}

// SetZapDomain 设置认证域
func (s *Socket) SetZapDomain(domain string) error {
	return s.sock.SetZapDomain(domain)
}

// SetIdentity 设置在对端 router 上可见的身份
func (s *Socket) SetIdentity(identity []byte) error {
	return s.sock.SetIdentity(identity)
}

// Subscribe 订阅前缀（仅 subscriber）
func (s *Socket) Subscribe(prefix []byte) error {
	return s.sock.Subscribe(prefix)
}

// SetSendTimeout 设置发送超时，零表示一直阻塞
func (s *Socket) SetSendTimeout(d time.Duration) {
	s.sock.SetSendTimeout(d)
}

// SetReceiveTimeout 设置接收超时，零表示一直阻塞
func (s *Socket) SetReceiveTimeout(d time.Duration) {
	s.sock.SetReceiveTimeout(d)
}

// ============================================================================
//                              端点与收发
// ============================================================================

// Bind 绑定端点
func (s *Socket) Bind(endpoint string) error {
	return s.sock.Bind(endpoint)
}

// Connect 连接端点
func (s *Socket) Connect(endpoint string) error {
	return s.sock.Connect(endpoint)
}

// Endpoint 返回最近一次绑定的端点
func (s *Socket) Endpoint() string {
	return s.sock.Endpoint()
}

// Send 发送一条完整消息
func (s *Socket) Send(msg types.Message) error {
	return s.sock.Send(msg)
}

// Receive 接收一条完整消息
func (s *Socket) Receive() (types.Message, error) {
	return s.sock.Receive()
}

// Close 关闭套接字，可重复调用
func (s *Socket) Close() error {
	return s.sock.Close()
}

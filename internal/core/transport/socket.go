package transport

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dep2p/go-zmq/internal/core/security/curve"
	transportif "github.com/dep2p/go-zmq/pkg/interfaces/transport"
	"github.com/dep2p/go-zmq/pkg/types"
)

// 确保实现了接口
var _ transportif.Socket = (*socket)(nil)

// security 套接字安全设置，bind/connect 之后只读
type security struct {
	curveServer bool
	serverKey   types.Key
	publicKey   types.Key
	privateKey  types.Key
	domain      string
	identity    []byte
}

// mechanism 返回套接字使用的机制
func (sec security) mechanism() string {
	if sec.curveServer || !sec.serverKey.IsZero() {
		return transportif.MechanismCurve
	}
	return transportif.MechanismNull
}

// ============================================================================
//                              socket 实现
// ============================================================================

// socket 传输层套接字
type socket struct {
	id     uint64
	role   types.Role
	handle *Handle

	// ctx 在 Close 时取消，所有后台 goroutine 以此退出
	ctx    context.Context
	cancel context.CancelFunc

	// in 所有 pipe 共享的接收队列
	in chan inbound

	// outq 负载均衡角色共享的发送队列，其他角色为 nil
	outq chan types.Message

	sendTimeout atomic.Int64
	recvTimeout atomic.Int64

	mu         sync.Mutex
	sec        security
	configured bool
	closed     bool
	endpoint   string
	pipes      map[uint64]*pipe
	order      []*pipe
	listeners  []net.Listener
	conns      map[net.Conn]struct{}
	subs       [][]byte

	// 请求/应答状态
	awaitingReply bool
	replyPipe     *pipe
	replyEnvelope types.Message

	nextPipe atomic.Uint64
	wg       sync.WaitGroup
}

func newSocket(h *Handle, id uint64, role types.Role) *socket {
	ctx, cancel := context.WithCancel(context.Background())
	s := &socket{
		id:     id,
		role:   role,
		handle: h,
		ctx:    ctx,
		cancel: cancel,
		in:     make(chan inbound, h.opts.ReceiveHighWater),
		pipes:  make(map[uint64]*pipe),
		conns:  make(map[net.Conn]struct{}),
	}
	switch role {
	case types.RolePusher, types.RoleDealer, types.RolePair, types.RoleRequester:
		s.outq = make(chan types.Message, h.opts.SendHighWater)
	}
	return s
}

// ID 返回套接字标识
func (s *socket) ID() uint64 {
	return s.id
}

// Role 返回套接字角色
func (s *socket) Role() types.Role {
	return s.role
}

// Endpoint 返回最近一次绑定的端点
func (s *socket) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// ============================================================================
//                              设置
// ============================================================================

// configure 在未 bind/connect 时修改安全设置
func (s *socket) configure(fn func(sec *security) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.configured {
		return ErrSocketConfigured
	}
	return fn(&s.sec)
}

// SetCurveServer 启用 CURVE 服务端
func (s *socket) SetCurveServer(privateKey types.Key) error {
	public, err := curve.PublicKey(privateKey)
	if err != nil {
		return err
	}
	return s.configure(func(sec *security) error {
		sec.curveServer = true
		sec.publicKey = public
		sec.privateKey = privateKey
		return nil
	})
}

// SetCurveClient 设置期望的服务端公钥
func (s *socket) SetCurveClient(serverKey types.Key) error {
	return s.configure(func(sec *security) error {
		sec.curveServer = false
		sec.serverKey = serverKey
		return nil
	})
}

// SetCurveKeys 设置本地密钥对
func (s *socket) SetCurveKeys(publicKey, privateKey types.Key) error {
	return s.configure(func(sec *security) error {
		sec.publicKey = publicKey
		sec.privateKey = privateKey
		return nil
	})
}

// SetZapDomain 设置认证域
func (s *socket) SetZapDomain(domain string) error {
	return s.configure(func(sec *security) error {
		sec.domain = domain
		return nil
	})
}

// SetIdentity 设置身份
func (s *socket) SetIdentity(identity []byte) error {
	if len(identity) > 255 {
		return fmt.Errorf("identity too long: %d bytes", len(identity))
	}
	return s.configure(func(sec *security) error {
		sec.identity = bytes.Clone(identity)
		return nil
	})
}

// Subscribe 订阅前缀，空前缀匹配全部消息
func (s *socket) Subscribe(prefix []byte) error {
	if s.role != types.RoleSubscriber {
		return ErrUnsupported
	}
	s.mu.Lock()
	s.subs = append(s.subs, bytes.Clone(prefix))
	s.mu.Unlock()
	return nil
}

// SetSendTimeout 设置发送超时
func (s *socket) SetSendTimeout(d time.Duration) {
	s.sendTimeout.Store(int64(d))
}

// SetReceiveTimeout 设置接收超时
func (s *socket) SetReceiveTimeout(d time.Duration) {
	s.recvTimeout.Store(int64(d))
}

// ============================================================================
//                              bind / connect
// ============================================================================

// Bind 绑定端点
func (s *socket) Bind(address string) error {
	ep, err := parseEndpoint(address)
	if err != nil {
		return err
	}
	if err := s.checkUsable(); err != nil {
		return err
	}

	switch ep.scheme {
	case schemeInproc:
		err = s.bindInproc(ep)
	default:
		err = s.bindTCP(ep)
	}
	if err != nil {
		return err
	}

	log.Debug("绑定端点", "socket", s.id, "role", s.role, "endpoint", s.Endpoint())
	return nil
}

// Connect 连接端点
func (s *socket) Connect(address string) error {
	ep, err := parseEndpoint(address)
	if err != nil {
		return err
	}
	if err := s.checkUsable(); err != nil {
		return err
	}

	switch ep.scheme {
	case schemeInproc:
		err = s.connectInproc(ep)
	default:
		err = s.connectTCP(ep)
	}
	if err != nil {
		return err
	}

	log.Debug("连接端点", "socket", s.id, "role", s.role, "endpoint", ep)
	return nil
}

// checkUsable 检查套接字与句柄状态，并冻结安全设置
func (s *socket) checkUsable() error {
	if s.handle.Terminated() {
		return ErrTerminated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.configured = true
	return nil
}

// settings 返回安全设置快照
func (s *socket) settings() security {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sec
}

// ============================================================================
//                              后台任务与 pipe 管理
// ============================================================================

// spawn 在套接字未关闭时启动后台 goroutine
func (s *socket) spawn(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
	return true
}

// trackConn 记录握手中的连接，套接字关闭时一并关闭
func (s *socket) trackConn(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *socket) untrackConn(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// attach 把已完成握手的 link 挂到套接字上
func (s *socket) attach(l link, identity []byte, peerRole types.Role, remote string) (*pipe, bool) {
	if len(identity) == 0 {
		id := uuid.New()
		identity = id[:]
	}

	p := &pipe{
		id:       s.nextPipe.Add(1),
		sock:     s,
		link:     l,
		identity: identity,
		peerRole: peerRole,
		remote:   remote,
		out:      make(chan types.Message, s.handle.opts.SendHighWater),
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = l.close()
		return nil, false
	}
	s.pipes[p.id] = p
	s.order = append(s.order, p)
	s.wg.Add(2)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		p.readLoop()
	}()
	go func() {
		defer s.wg.Done()
		p.writeLoop()
	}()

	log.Debug("对端已连接", "socket", s.id, "pipe", p.id, "peerRole", peerRole, "remote", remote)
	return p, true
}

// detach 移除 pipe
func (s *socket) detach(p *pipe) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pipes[p.id]; !ok {
		return
	}
	delete(s.pipes, p.id)
	for i, q := range s.order {
		if q == p {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.replyPipe == p {
		s.replyPipe = nil
	}
}

// pipeByIdentity 按身份查找 pipe
func (s *socket) pipeByIdentity(identity []byte) *pipe {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.order {
		if bytes.Equal(p.identity, identity) {
			return p
		}
	}
	return nil
}

// snapshot 返回当前所有 pipe
func (s *socket) snapshot() []*pipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*pipe(nil), s.order...)
}

// PeerCount 当前已连接的对端数量
func (s *socket) PeerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pipes)
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 关闭套接字
func (s *socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	listeners := s.listeners
	s.listeners = nil
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	pipes := append([]*pipe(nil), s.order...)
	s.mu.Unlock()

	s.cancel()
	for _, l := range listeners {
		_ = l.Close()
	}
	for _, c := range conns {
		_ = c.Close()
	}
	for _, p := range pipes {
		p.close()
	}

	s.wg.Wait()
	s.handle.release(s)

	log.Debug("套接字已关闭", "socket", s.id, "role", s.role)
	return nil
}

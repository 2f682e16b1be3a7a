package zmq

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/dep2p/go-zmq/config"
	transportif "github.com/dep2p/go-zmq/pkg/interfaces/transport"
	"github.com/dep2p/go-zmq/pkg/types"
)

// Authenticator 连接认证服务
//
// 拥有自己的 Context，只对建立在该 Context 上的套接字生效。
// 服务在 inproc://zeromq.zap.01 上应答传输层的认证查询。
type Authenticator struct {
	ctx     *Context
	worker  *Worker
	policy  *policy
	metrics *authMetrics

	mu           sync.Mutex
	pollInterval time.Duration

	// LoadPolicy 设置的默认认证域，供 Govern 使用
	domain string
	secure bool
}

// NewAuthenticator 创建认证服务，内部上下文使用给定选项
func NewAuthenticator(opts ...Option) *Authenticator {
	ctx := NewContext(opts...)
	a := &Authenticator{
		ctx:          ctx,
		policy:       newPolicy(),
		metrics:      newAuthMetrics(),
		pollInterval: ctx.opts.pollInterval,
	}
	a.worker = NewWorker("authenticator", a.serve)
	return a
}

// Context 返回认证服务所在的上下文
func (a *Authenticator) Context() *Context {
	return a.ctx
}

// Collector 返回认证判定的指标收集器
func (a *Authenticator) Collector() prometheus.Collector {
	return a.metrics.decisions
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动上下文（已启动也可以）与认证服务
func (a *Authenticator) Start() error {
	if err := a.ctx.Start(); err != nil && !errors.Is(err, ErrAlreadyStarted) {
		return err
	}
	return a.worker.Start()
}

// Stop 停止认证服务，然后停止上下文
//
// 上下文会等待其上的所有套接字关闭。
func (a *Authenticator) Stop() error {
	return multierr.Combine(a.worker.Stop(), a.ctx.Stop())
}

// ============================================================================
//                              策略
// ============================================================================

// Allow 允许地址，已被拒绝的地址保持拒绝
func (a *Authenticator) Allow(address types.Authority) {
	a.policy.classify(address, true)
}

// Deny 拒绝地址，已被允许的地址保持允许
func (a *Authenticator) Deny(address types.Authority) {
	a.policy.classify(address, false)
}

// AllowKey 允许客户端公钥，未设置任何公钥时接受所有 CURVE 客户端
func (a *Authenticator) AllowKey(publicKey types.Key) {
	a.policy.allowKey(publicKey)
}

// SetPrivateKey 设置安全套接字使用的服务端私钥
func (a *Authenticator) SetPrivateKey(privateKey types.Key) {
	a.policy.setPrivateKey(privateKey)
}

// LoadPolicy 按配置设置私钥、公钥与地址策略
//
// 拒绝列表先于允许列表生效，同时出现的地址被拒绝。
func (a *Authenticator) LoadPolicy(cfg config.AuthConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}
	privateKey, _ := cfg.PrivateKeyValue()
	keys, _ := cfg.AllowedKeyValues()
	allow, _ := cfg.AllowAuthorities()
	deny, _ := cfg.DenyAuthorities()

	if !privateKey.IsZero() {
		a.SetPrivateKey(privateKey)
	}
	for _, key := range keys {
		a.AllowKey(key)
	}
	for _, address := range deny {
		a.Deny(address)
	}
	for _, address := range allow {
		a.Allow(address)
	}

	a.mu.Lock()
	a.domain = cfg.Domain
	a.secure = cfg.Secure
	a.pollInterval = cfg.PollInterval.Duration()
	a.mu.Unlock()

	log.Debug("认证策略已加载",
		"domain", cfg.Domain,
		"secure", cfg.Secure,
		"allow", len(allow),
		"deny", len(deny),
		"keys", len(keys))
	return nil
}

// Apply 让套接字受认证服务约束
//
// secure 时套接字成为 CURVE 服务端，需要先 SetPrivateKey。存在地址策略时
// domain 不能为空。套接字必须建立在 Context() 上，否则返回
// ErrForeignContext。失败时套接字不被修改。
func (a *Authenticator) Apply(s *Socket, domain string, secure bool) error {
	if s.ctx != a.ctx {
		return ErrForeignContext
	}
	privateKey := a.policy.key()
	if secure && privateKey.IsZero() {
		return ErrNoPrivateKey
	}
	if domain == "" && a.policy.addressed() {
		return ErrDomainRequired
	}

	if secure {
		if err := s.SetCurveServer(privateKey); err != nil {
			return err
		}
	}
	if err := s.SetZapDomain(domain); err != nil {
		return err
	}
	a.policy.register(domain)
	return nil
}

// Govern 以 LoadPolicy 配置的认证域与安全模式调用 Apply
func (a *Authenticator) Govern(s *Socket) error {
	a.mu.Lock()
	domain, secure := a.domain, a.secure
	a.mu.Unlock()
	return a.Apply(s, domain, secure)
}

// ============================================================================
//                              认证服务
// ============================================================================

// serve 认证服务主循环
func (a *Authenticator) serve(w *Worker) {
	a.mu.Lock()
	poll := a.pollInterval
	a.mu.Unlock()

	sock, err := NewSocket(a.ctx, types.RoleReplier)
	if err != nil {
		log.Warn("创建认证套接字失败", "error", err)
		w.Started(false)
		return
	}
	if err := sock.Bind(transportif.ZapEndpoint); err != nil {
		log.Warn("绑定认证端点失败", "error", err)
		_ = sock.Close()
		w.Started(false)
		return
	}
	sock.SetReceiveTimeout(poll)
	w.Started(true)

	for !w.Stopped() {
		msg, err := sock.Receive()
		if errors.Is(err, ErrTimeout) {
			continue
		}
		if err != nil {
			if !errors.Is(err, ErrTerminated) {
				log.Warn("接收认证查询失败", "error", err)
			}
			break
		}

		if err := sock.Send(a.answer(msg).Message()); err != nil {
			if errors.Is(err, ErrTerminated) {
				break
			}
			log.Debug("发送认证应答失败", "error", err)
		}
	}

	w.Finished(sock.Close() == nil)
}

// answer 解码查询并作出判定
func (a *Authenticator) answer(msg types.Message) transportif.ZapReply {
	req, err := transportif.ParseZapRequest(msg)
	if err != nil {
		log.Debug("认证查询格式错误", "error", err)
		a.metrics.observe(resultError)
		return transportif.ZapReply{
			Version:    transportif.ZapVersion,
			RequestID:  req.RequestID,
			StatusCode: transportif.StatusError,
			StatusText: "Malformed request",
		}
	}

	reply, result := a.policy.decide(req)
	a.metrics.observe(result)
	log.Debug("认证判定",
		"domain", req.Domain,
		"address", req.Address,
		"mechanism", req.Mechanism,
		"status", reply.StatusCode,
		"text", reply.StatusText)
	return reply
}

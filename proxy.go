package zmq

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/dep2p/go-zmq/config"
)

// Proxy 在前端与后端套接字之间转发消息
//
// 前端受认证服务约束（auth 非 nil 时），后端供工作者连接。
// Stop 不会打断转发，必须先停止 Context。
type Proxy struct {
	ctx    *Context
	cfg    config.ProxyConfig
	auth   *Authenticator
	worker *Worker

	mu       sync.RWMutex
	frontend string
	backend  string
}

// NewProxy 创建代理，auth 可以为 nil
func NewProxy(ctx *Context, cfg config.ProxyConfig, auth *Authenticator) *Proxy {
	p := &Proxy{ctx: ctx, cfg: cfg, auth: auth}
	p.worker = NewWorker("proxy", p.run)
	return p
}

// Start 创建并绑定前后端套接字，开始转发
func (p *Proxy) Start() error {
	if err := p.cfg.Validate(); err != nil {
		return fmt.Errorf("proxy config: %w", err)
	}
	return p.worker.Start()
}

// Stop 等待转发结束
func (p *Proxy) Stop() error {
	return p.worker.Stop()
}

// Endpoints 返回实际绑定的前后端端点（已解析临时端口）
func (p *Proxy) Endpoints() (frontend, backend string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.frontend, p.backend
}

// run 代理主体
func (p *Proxy) run(w *Worker) {
	frontendRole, backendRole, _ := p.cfg.Roles()

	frontend, err := NewSocket(p.ctx, frontendRole)
	if err != nil {
		log.Warn("创建前端套接字失败", "error", err)
		w.Started(false)
		return
	}
	backend, err := NewSocket(p.ctx, backendRole)
	if err != nil {
		log.Warn("创建后端套接字失败", "error", err)
		_ = frontend.Close()
		w.Started(false)
		return
	}
	closeAll := func() error {
		return multierr.Combine(frontend.Close(), backend.Close())
	}

	if err := p.setup(frontend, backend); err != nil {
		log.Warn("代理启动失败", "error", err)
		_ = closeAll()
		w.Started(false)
		return
	}

	p.mu.Lock()
	p.frontend, p.backend = frontend.Endpoint(), backend.Endpoint()
	p.mu.Unlock()

	log.Info("代理已启动",
		"frontend", frontend.Endpoint(),
		"backend", backend.Endpoint())
	w.Started(true)

	err = w.Relay(frontend, backend)
	if err != nil {
		log.Warn("转发中断", "error", err)
	}
	closeErr := closeAll()
	w.Finished(err == nil && closeErr == nil)
}

func (p *Proxy) setup(frontend, backend *Socket) error {
	if p.auth != nil {
		if err := p.auth.Govern(frontend); err != nil {
			return fmt.Errorf("apply authenticator: %w", err)
		}
	}
	if err := frontend.Bind(p.cfg.Frontend); err != nil {
		return fmt.Errorf("bind frontend %s: %w", p.cfg.Frontend, err)
	}
	if err := backend.Bind(p.cfg.Backend); err != nil {
		return fmt.Errorf("bind backend %s: %w", p.cfg.Backend, err)
	}
	return nil
}

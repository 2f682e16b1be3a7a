package transport

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dep2p/go-zmq/internal/util/logger"
	transportif "github.com/dep2p/go-zmq/pkg/interfaces/transport"
	"github.com/dep2p/go-zmq/pkg/types"
)

var log = logger.Logger("transport")

// 确保实现了接口
var (
	_ transportif.Factory = New
	_ transportif.Handle  = (*Handle)(nil)
)

// ============================================================================
//                              Handle 实现
// ============================================================================

// Handle 传输句柄
//
// 持有 inproc 端点注册表与全部存活套接字。终止时关闭 done，
// 所有阻塞中的套接字操作返回 ErrTerminated，然后等待套接字全部关闭。
type Handle struct {
	opts transportif.Options

	mu      sync.Mutex
	sockets map[uint64]*socket
	inproc  map[string]*socket

	// live 存活套接字计数，Terminate 等待其归零
	live sync.WaitGroup

	nextID      atomic.Uint64
	terminating atomic.Bool
	termOnce    sync.Once
	done        chan struct{}
}

// New 创建传输句柄
func New(opts transportif.Options) (transportif.Handle, error) {
	defaults := transportif.DefaultOptions()
	if opts.SendHighWater <= 0 {
		opts.SendHighWater = defaults.SendHighWater
	}
	if opts.ReceiveHighWater <= 0 {
		opts.ReceiveHighWater = defaults.ReceiveHighWater
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = defaults.ReconnectInterval
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = defaults.MaxFrameSize
	}
	if opts.TerminateTimeout < 0 {
		return nil, fmt.Errorf("negative terminate timeout: %s", opts.TerminateTimeout)
	}

	log.Debug("创建传输句柄",
		"sendHWM", opts.SendHighWater,
		"recvHWM", opts.ReceiveHighWater,
		"reconnect", opts.ReconnectInterval)

	return &Handle{
		opts:    opts,
		sockets: make(map[uint64]*socket),
		inproc:  make(map[string]*socket),
		done:    make(chan struct{}),
	}, nil
}

// Socket 创建套接字
func (h *Handle) Socket(role types.Role) (transportif.Socket, error) {
	return h.newSocket(role)
}

func (h *Handle) newSocket(role types.Role) (*socket, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %d", types.ErrUnknownRole, role)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.terminating.Load() {
		return nil, ErrTerminated
	}

	s := newSocket(h, h.nextID.Add(1), role)
	h.sockets[s.id] = s
	h.live.Add(1)
	return s, nil
}

// Terminate 终止句柄
func (h *Handle) Terminate() error {
	h.termOnce.Do(func() {
		h.mu.Lock()
		h.terminating.Store(true)
		count := len(h.sockets)
		h.mu.Unlock()

		log.Debug("终止传输句柄", "sockets", count)
		close(h.done)
	})

	closed := make(chan struct{})
	go func() {
		h.live.Wait()
		close(closed)
	}()

	if h.opts.TerminateTimeout <= 0 {
		<-closed
		return nil
	}

	timer := time.NewTimer(h.opts.TerminateTimeout)
	defer timer.Stop()

	select {
	case <-closed:
		return nil
	case <-timer.C:
		return ErrTerminateTimeout
	}
}

// Terminated 是否已开始终止
func (h *Handle) Terminated() bool {
	return h.terminating.Load()
}

// Options 返回句柄参数
func (h *Handle) Options() transportif.Options {
	return h.opts
}

// ============================================================================
//                              inproc 注册表
// ============================================================================

// registerInproc 注册 inproc 端点
func (h *Handle) registerInproc(name string, s *socket) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.inproc[name]; ok {
		return fmt.Errorf("%w: inproc://%s", ErrEndpointInUse, name)
	}
	h.inproc[name] = s
	return nil
}

// lookupInproc 查找 inproc 端点
func (h *Handle) lookupInproc(name string) (*socket, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.inproc[name]
	return s, ok
}

// release 套接字关闭后移除其注册信息
func (h *Handle) release(s *socket) {
	h.mu.Lock()
	for name, bound := range h.inproc {
		if bound == s {
			delete(h.inproc, name)
		}
	}
	delete(h.sockets, s.id)
	h.mu.Unlock()

	h.live.Done()
}

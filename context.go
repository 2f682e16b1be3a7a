package zmq

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-zmq/internal/util/logger"
	transportif "github.com/dep2p/go-zmq/pkg/interfaces/transport"
)

var log = logger.Logger("zmq")

// Context 可重启的传输上下文
//
// 持有一个传输句柄。Start 与 Stop 由互斥锁串行化；
// Handle 只保证读取本身是原子的，返回后句柄可能随时失效。
type Context struct {
	mu     sync.Mutex
	opts   options
	handle atomic.Pointer[liveHandle]
}

// liveHandle 包装接口值以便原子存取
type liveHandle struct {
	transportif.Handle
}

// NewContext 创建上下文，默认未启动
func NewContext(opts ...Option) *Context {
	c := &Context{opts: newOptions(opts)}
	if c.opts.started {
		if err := c.Start(); err != nil {
			log.Warn("上下文启动失败", "error", err)
		}
	}
	return c
}

// Start 创建传输句柄
func (c *Context) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle.Load() != nil {
		return ErrAlreadyStarted
	}

	h, err := c.opts.factory(c.opts.transport)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrContextStart, err)
	}
	c.handle.Store(&liveHandle{h})

	log.Debug("上下文已启动")
	return nil
}

// Stop 终止传输句柄
//
// 阻塞中的套接字操作返回 ErrTerminated；Stop 一直等到句柄上的
// 所有套接字关闭。无论终止是否报错，句柄都会被清除。
func (c *Context) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.handle.Load()
	if live == nil {
		return nil
	}

	err := live.Terminate()
	c.handle.Store(nil)

	if err != nil {
		log.Warn("上下文终止出错", "error", err)
		return err
	}
	log.Debug("上下文已停止")
	return nil
}

// Started 句柄存活时为 true
func (c *Context) Started() bool {
	return c.handle.Load() != nil
}

// Handle 返回当前句柄，未启动时为 nil
func (c *Context) Handle() transportif.Handle {
	if live := c.handle.Load(); live != nil {
		return live.Handle
	}
	return nil
}

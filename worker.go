package zmq

import (
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ════════════════════════════════════════════════════════════════════════════
//                              工作者状态
// ════════════════════════════════════════════════════════════════════════════

// WorkerState 工作者状态
type WorkerState int32

const (
	// StateStopped 已停止
	StateStopped WorkerState = iota
	// StateStarting 正在等待工作 goroutine 确认启动
	StateStarting
	// StateRunning 运行中
	StateRunning
	// StateStopping 正在等待工作 goroutine 确认结束
	StateStopping
)

// String 返回状态名称
func (s WorkerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              Worker
// ════════════════════════════════════════════════════════════════════════════

// Worker 运行在独立 goroutine 中的后台工作者
//
// work 必须先调用一次 Started 报告启动结果；启动成功后应轮询 Stopped，
// 退出前调用一次 Finished。Start 与 Stop 阻塞到 work 确认对应的状态转换。
type Worker struct {
	name string
	work func(*Worker)

	mu    sync.Mutex
	state atomic.Int32

	// 一次性信号，每轮启动/停止后重建
	started  chan bool
	finished chan bool

	// exited 工作 goroutine 返回时关闭
	exited chan struct{}
}

// NewWorker 创建工作者
func NewWorker(name string, work func(*Worker)) *Worker {
	return &Worker{
		name:     name,
		work:     work,
		started:  make(chan bool, 1),
		finished: make(chan bool, 1),
	}
}

// Name 返回工作者名称
func (w *Worker) Name() string {
	return w.name
}

// State 返回当前状态
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// Start 启动工作 goroutine 并等待其报告启动结果
//
// 已启动时返回 ErrAlreadyStarted 且没有副作用。work 报告失败时
// 等待 goroutine 退出，状态回到 stopped，返回 ErrStartFailed。
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.State() != StateStopped {
		return ErrAlreadyStarted
	}
	w.state.Store(int32(StateStarting))

	exited := make(chan struct{})
	w.exited = exited
	go func() {
		defer close(exited)
		w.work(w)
	}()

	ok := <-w.started
	w.started = make(chan bool, 1)

	if !ok {
		<-w.finished
		<-exited
		w.finished = make(chan bool, 1)
		w.state.Store(int32(StateStopped))
		log.Debug("工作者启动失败", "worker", w.name)
		return ErrStartFailed
	}

	w.state.Store(int32(StateRunning))
	log.Debug("工作者已启动", "worker", w.name)
	return nil
}

// Stop 设置停止标志，等待工作 goroutine 报告结束并退出
//
// 已停止时返回 nil。
func (w *Worker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.State() != StateRunning {
		return nil
	}
	w.state.Store(int32(StateStopping))

	ok := <-w.finished
	<-w.exited
	w.finished = make(chan bool, 1)
	w.state.Store(int32(StateStopped))

	if !ok {
		log.Debug("工作者停止失败", "worker", w.name)
		return ErrStopFailed
	}
	log.Debug("工作者已停止", "worker", w.name)
	return nil
}

// Stopped 已请求停止（或尚未启动）时为 true
func (w *Worker) Stopped() bool {
	switch w.State() {
	case StateStopping, StateStopped:
		return true
	default:
		return false
	}
}

// Started 报告启动结果，返回 ok
//
// 失败时同时报告 Finished(true)。每轮启动只应调用一次。
func (w *Worker) Started(ok bool) bool {
	if !ok {
		w.Finished(true)
	}
	select {
	case w.started <- ok:
	default:
	}
	return ok
}

// Finished 报告结束结果，返回 ok
func (w *Worker) Finished(ok bool) bool {
	select {
	case w.finished <- ok:
	default:
	}
	return ok
}

// ════════════════════════════════════════════════════════════════════════════
//                              转发
// ════════════════════════════════════════════════════════════════════════════

// Forward 从 from 接收一条消息并原样发送到 to
func (w *Worker) Forward(from, to *Socket) error {
	msg, err := from.Receive()
	if err != nil {
		return err
	}
	return to.Send(msg)
}

// Relay 在两个套接字之间双向转发，直到上下文终止
//
// 上下文终止时返回 nil。Stop 不会打断 Relay，需要先停止上下文。
// 不能接收的一端（如 pusher）只作为发送方向。
func (w *Worker) Relay(left, right *Socket) error {
	var g errgroup.Group
	g.Go(func() error { return pump(left, right) })
	g.Go(func() error { return pump(right, left) })

	err := g.Wait()
	if errors.Is(err, ErrTerminated) {
		return nil
	}
	return err
}

// pump 单方向转发
func pump(from, to *Socket) error {
	for {
		msg, err := from.Receive()
		switch {
		case err == nil:
		case errors.Is(err, ErrTimeout):
			continue
		case errors.Is(err, ErrUnsupported):
			return nil
		default:
			return err
		}

		if err := to.Send(msg); errors.Is(err, ErrTerminated) || errors.Is(err, ErrClosed) {
			return err
		}
	}
}

package transport

import (
	"net"
	"sync"

	"github.com/dep2p/go-zmq/pkg/types"
)

// ============================================================================
//                              link 抽象
// ============================================================================

// link 到单个对端的双向消息通道
//
// readMessage 只由读 goroutine 调用，writeMessage 只由写 goroutine 调用。
type link interface {
	readMessage() (types.Message, error)
	writeMessage(msg types.Message) error
	close() error
}

// inprocLink 进程内 link，两端共享 closed
type inprocLink struct {
	send   chan<- types.Message
	recv   <-chan types.Message
	closed chan struct{}
	once   *sync.Once
}

// newInprocPair 创建一对相连的 inproc link
func newInprocPair(buffer int) (*inprocLink, *inprocLink) {
	ab := make(chan types.Message, buffer)
	ba := make(chan types.Message, buffer)
	closed := make(chan struct{})
	once := &sync.Once{}

	a := &inprocLink{send: ab, recv: ba, closed: closed, once: once}
	b := &inprocLink{send: ba, recv: ab, closed: closed, once: once}
	return a, b
}

func (l *inprocLink) readMessage() (types.Message, error) {
	// 关闭前已送达的消息优先交付
	select {
	case msg := <-l.recv:
		return msg, nil
	default:
	}

	select {
	case msg := <-l.recv:
		return msg, nil
	case <-l.closed:
		return nil, ErrClosed
	}
}

func (l *inprocLink) writeMessage(msg types.Message) error {
	select {
	case <-l.closed:
		return ErrClosed
	default:
	}

	select {
	case l.send <- msg:
		return nil
	case <-l.closed:
		return ErrClosed
	}
}

func (l *inprocLink) close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

// streamLink 基于字节流连接（TCP 或 CURVE 加密连接）的 link
type streamLink struct {
	conn  net.Conn
	codec *codec
}

func (l *streamLink) readMessage() (types.Message, error) {
	return l.codec.ReadMessage()
}

func (l *streamLink) writeMessage(msg types.Message) error {
	return l.codec.WriteMessage(msg)
}

func (l *streamLink) close() error {
	return l.conn.Close()
}

// ============================================================================
//                              pipe
// ============================================================================

// pipe 套接字与一个对端之间的连接
type pipe struct {
	id       uint64
	sock     *socket
	link     link
	identity []byte
	peerRole types.Role
	remote   string

	// out 定向发送队列（router、replier、publisher 使用）
	out chan types.Message

	done      chan struct{}
	closeOnce sync.Once
}

// inbound 从某个 pipe 收到的消息
type inbound struct {
	pipe *pipe
	msg  types.Message
}

// close 关闭 pipe 并从套接字摘除
func (p *pipe) close() {
	p.closeOnce.Do(func() {
		close(p.done)
		_ = p.link.close()
		p.sock.detach(p)
	})
}

// readLoop 把对端消息送入套接字接收队列
func (p *pipe) readLoop() {
	defer p.close()

	for {
		msg, err := p.link.readMessage()
		if err != nil {
			log.Debug("读取消息结束", "socket", p.sock.id, "pipe", p.id, "error", err)
			return
		}
		if len(msg) == 0 {
			continue
		}

		select {
		case p.sock.in <- inbound{pipe: p, msg: msg}:
		case <-p.done:
			return
		case <-p.sock.ctx.Done():
			return
		}
	}
}

// writeLoop 把发送队列中的消息写给对端
func (p *pipe) writeLoop() {
	defer p.close()

	for {
		var msg types.Message
		select {
		case msg = <-p.out:
		case msg = <-p.sock.outq:
		case <-p.done:
			return
		case <-p.sock.ctx.Done():
			return
		}

		if err := p.link.writeMessage(msg); err != nil {
			log.Debug("写入消息失败", "socket", p.sock.id, "pipe", p.id, "error", err)
			return
		}
	}
}

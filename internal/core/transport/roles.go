package transport

import (
	"bytes"
	"time"

	"github.com/dep2p/go-zmq/pkg/types"
)

// ============================================================================
//                              发送
// ============================================================================

// Send 发送一条完整消息
//
//   - pusher、dealer、pair：进入共享发送队列，由任一对端取走
//   - requester：附加空分隔帧，之后必须先 Receive
//   - replier：附加上次请求的信封，发回请求方
//   - router：首帧为目标身份，未知身份静默丢弃
//   - publisher：复制给每个对端，队列已满的对端丢弃
func (s *socket) Send(msg types.Message) error {
	if err := s.usable(); err != nil {
		return err
	}
	if len(msg) == 0 {
		return ErrEmptyMessage
	}
	msg = msg.Clone()

	switch s.role {
	case types.RolePusher, types.RoleDealer, types.RolePair:
		return s.enqueue(s.outq, msg)

	case types.RoleRequester:
		s.mu.Lock()
		if s.awaitingReply {
			s.mu.Unlock()
			return ErrState
		}
		s.mu.Unlock()

		if err := s.enqueue(s.outq, append(types.NewMessage([]byte{}), msg...)); err != nil {
			return err
		}
		s.mu.Lock()
		s.awaitingReply = true
		s.mu.Unlock()
		return nil

	case types.RoleReplier:
		s.mu.Lock()
		if !s.awaitingReply {
			s.mu.Unlock()
			return ErrState
		}
		p, envelope := s.replyPipe, s.replyEnvelope
		s.awaitingReply = false
		s.replyPipe = nil
		s.replyEnvelope = nil
		s.mu.Unlock()

		if p == nil {
			// 请求方已断开
			return nil
		}
		reply := append(envelope.Clone(), []byte{})
		return s.enqueue(p.out, append(reply, msg...))

	case types.RoleRouter:
		p := s.pipeByIdentity(msg[0])
		if p == nil || len(msg) < 2 {
			log.Debug("丢弃无法路由的消息", "socket", s.id)
			return nil
		}
		select {
		case p.out <- msg[1:]:
		default:
		}
		return nil

	case types.RolePublisher:
		for _, p := range s.snapshot() {
			select {
			case p.out <- msg:
			default:
			}
		}
		return nil

	default:
		return ErrUnsupported
	}
}

// enqueue 按发送超时把消息放入队列
func (s *socket) enqueue(queue chan types.Message, msg types.Message) error {
	select {
	case queue <- msg:
		return nil
	default:
	}

	timeout := time.Duration(s.sendTimeout.Load())
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case queue <- msg:
		return nil
	case <-expired:
		return ErrTimeout
	case <-s.ctx.Done():
		return ErrClosed
	case <-s.handle.done:
		return ErrTerminated
	}
}

// ============================================================================
//                              接收
// ============================================================================

// Receive 接收一条完整消息
func (s *socket) Receive() (types.Message, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}

	switch s.role {
	case types.RolePusher, types.RolePublisher:
		return nil, ErrUnsupported
	case types.RoleRequester:
		s.mu.Lock()
		awaiting := s.awaitingReply
		s.mu.Unlock()
		if !awaiting {
			return nil, ErrState
		}
	case types.RoleReplier:
		s.mu.Lock()
		awaiting := s.awaitingReply
		s.mu.Unlock()
		if awaiting {
			return nil, ErrState
		}
	}

	var deadline time.Time
	if timeout := time.Duration(s.recvTimeout.Load()); timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		in, err := s.dequeue(deadline)
		if err != nil {
			return nil, err
		}
		if msg, ok := s.accept(in); ok {
			return msg, nil
		}
	}
}

// dequeue 在截止时间前从接收队列取出一条消息
func (s *socket) dequeue(deadline time.Time) (inbound, error) {
	var expired <-chan time.Time
	if !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case in := <-s.in:
		return in, nil
	case <-expired:
		return inbound{}, ErrTimeout
	case <-s.ctx.Done():
		return inbound{}, ErrClosed
	case <-s.handle.done:
		return inbound{}, ErrTerminated
	}
}

// accept 按角色处理收到的消息，返回 false 表示丢弃
func (s *socket) accept(in inbound) (types.Message, bool) {
	msg := in.msg

	switch s.role {
	case types.RoleRequester:
		// 丢弃空分隔帧之前的信封
		i := delimiter(msg)
		if i < 0 {
			return nil, false
		}
		s.mu.Lock()
		s.awaitingReply = false
		s.mu.Unlock()
		return msg[i+1:], true

	case types.RoleReplier:
		i := delimiter(msg)
		if i < 0 {
			return nil, false
		}
		s.mu.Lock()
		s.awaitingReply = true
		s.replyPipe = in.pipe
		s.replyEnvelope = msg[:i]
		s.mu.Unlock()
		return msg[i+1:], true

	case types.RoleRouter:
		return append(types.NewMessage(in.pipe.identity), msg...), true

	case types.RoleSubscriber:
		return msg, s.subscribed(msg[0])

	default:
		return msg, true
	}
}

// subscribed 首帧是否匹配任一订阅前缀
func (s *socket) subscribed(topic []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, prefix := range s.subs {
		if bytes.HasPrefix(topic, prefix) {
			return true
		}
	}
	return false
}

// usable 检查终止与关闭状态
func (s *socket) usable() error {
	select {
	case <-s.handle.done:
		return ErrTerminated
	default:
	}
	select {
	case <-s.ctx.Done():
		return ErrClosed
	default:
	}
	return nil
}

// delimiter 返回第一个空帧的位置，没有时返回 -1
func delimiter(msg types.Message) int {
	for i, frame := range msg {
		if len(frame) == 0 {
			return i
		}
	}
	return -1
}

package types

// Message 原子多帧消息
//
// 发送和接收以整条消息为单位，要么全部送达，要么都不送达。
type Message [][]byte

// NewMessage 由若干帧构造消息
func NewMessage(frames ...[]byte) Message {
	return Message(frames)
}

// NewStringMessage 由字符串帧构造消息
func NewStringMessage(frames ...string) Message {
	m := make(Message, len(frames))
	for i, f := range frames {
		m[i] = []byte(f)
	}
	return m
}

// Empty 没有任何帧时为 true
func (m Message) Empty() bool {
	return len(m) == 0
}

// Size 返回所有帧的总字节数
func (m Message) Size() int {
	n := 0
	for _, f := range m {
		n += len(f)
	}
	return n
}

// Clone 深拷贝消息
func (m Message) Clone() Message {
	if m == nil {
		return nil
	}
	out := make(Message, len(m))
	for i, f := range m {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// Strings 以字符串形式返回各帧，便于日志和测试
func (m Message) Strings() []string {
	out := make([]string, len(m))
	for i, f := range m {
		out[i] = string(f)
	}
	return out
}

package transport

import (
	"bufio"
	"fmt"
	"io"

	"github.com/multiformats/go-varint"

	"github.com/dep2p/go-zmq/pkg/types"
)

// maxFrames 单条消息的帧数上限
const maxFrames = 1 << 16

// codec 消息编解码
//
// 一条消息编码为：
//
//	uvarint(帧数) { uvarint(帧长度) 帧内容 }
type codec struct {
	r        *bufio.Reader
	w        io.Writer
	maxFrame int
}

// newCodec 创建编解码器
func newCodec(rw io.ReadWriter, maxFrame int) *codec {
	return &codec{
		r:        bufio.NewReader(rw),
		w:        rw,
		maxFrame: maxFrame,
	}
}

// WriteMessage 编码并一次性写入一条消息
func (c *codec) WriteMessage(msg types.Message) error {
	if len(msg) > maxFrames {
		return fmt.Errorf("%w: %d", ErrTooManyFrames, len(msg))
	}

	size := varint.UvarintSize(uint64(len(msg)))
	for _, frame := range msg {
		if c.maxFrame > 0 && len(frame) > c.maxFrame {
			return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(frame))
		}
		size += varint.UvarintSize(uint64(len(frame))) + len(frame)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, varint.ToUvarint(uint64(len(msg)))...)
	for _, frame := range msg {
		buf = append(buf, varint.ToUvarint(uint64(len(frame)))...)
		buf = append(buf, frame...)
	}

	_, err := c.w.Write(buf)
	return err
}

// ReadMessage 读取并解码一条消息
func (c *codec) ReadMessage() (types.Message, error) {
	count, err := varint.ReadUvarint(c.r)
	if err != nil {
		return nil, err
	}
	if count > maxFrames {
		return nil, fmt.Errorf("%w: %d", ErrTooManyFrames, count)
	}

	msg := make(types.Message, 0, count)
	for i := uint64(0); i < count; i++ {
		length, err := varint.ReadUvarint(c.r)
		if err != nil {
			return nil, err
		}
		if c.maxFrame > 0 && length > uint64(c.maxFrame) {
			return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
		}
		frame := make([]byte, length)
		if _, err := io.ReadFull(c.r, frame); err != nil {
			return nil, err
		}
		msg = append(msg, frame)
	}
	return msg, nil
}

// Buffered 返回已缓冲但未解码的数据
func (c *codec) Buffered() *bufio.Reader {
	return c.r
}

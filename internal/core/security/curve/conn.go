package curve

import (
	"fmt"
	"net"
	"sync"

	"github.com/flynn/noise"

	"github.com/dep2p/go-zmq/pkg/types"
)

// maxPlaintext 单个 Noise 消息可承载的最大明文（65535 - 16 字节认证标签）
const maxPlaintext = 65535 - 16

// Conn CURVE 加密连接
type Conn struct {
	net.Conn

	send *noise.CipherState
	recv *noise.CipherState

	// remote 对端长期公钥
	remote types.Key

	readMu  sync.Mutex
	writeMu sync.Mutex

	// readBuf 上次解密后未读完的明文
	readBuf []byte
}

// RemoteKey 返回对端长期公钥
func (c *Conn) RemoteKey() types.Key {
	return c.remote
}

// Read 读取并解密
func (c *Conn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	for len(c.readBuf) == 0 {
		ciphertext, err := readFrame(c.Conn)
		if err != nil {
			return 0, err
		}
		plaintext, err := c.recv.Decrypt(nil, nil, ciphertext)
		if err != nil {
			return 0, fmt.Errorf("decrypt: %w", err)
		}
		c.readBuf = plaintext
	}

	n := copy(p, c.readBuf)
	c.readBuf = c.readBuf[n:]
	return n, nil
}

// Write 加密并写入，超出单个 Noise 消息的数据分块发送
func (c *Conn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	written := 0
	for written < len(p) {
		end := written + maxPlaintext
		if end > len(p) {
			end = len(p)
		}
		ciphertext, err := c.send.Encrypt(nil, nil, p[written:end])
		if err != nil {
			return written, fmt.Errorf("encrypt: %w", err)
		}
		if err := writeFrame(c.Conn, ciphertext); err != nil {
			return written, err
		}
		written = end
	}
	return written, nil
}

package curve

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/flynn/noise"

	"github.com/dep2p/go-zmq/internal/util/logger"
	"github.com/dep2p/go-zmq/pkg/types"
)

var log = logger.Logger("security.curve")

// prologue 绑定到握手哈希，区分其他使用 Noise 的协议
var prologue = []byte("go-zmq/curve/1")

var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256)

// Config 握手参数
type Config struct {
	// Server 服务端（响应者）为 true
	Server bool

	// PublicKey / PrivateKey 本地长期密钥对
	//
	// 服务端必须设置 PrivateKey；客户端两者都必须设置（证书）。
	PublicKey  types.Key
	PrivateKey types.Key

	// ServerKey 客户端期望的服务端公钥
	ServerKey types.Key

	// Timeout 整个握手的截止时间，零表示不设置
	Timeout time.Duration
}

// Handshake 在 conn 上执行 CURVE 握手
//
// 成功时返回加密连接；失败时不关闭 conn，由调用方处理。
func Handshake(conn net.Conn, cfg Config) (*Conn, error) {
	static, err := staticKeypair(cfg)
	if err != nil {
		return nil, err
	}

	hsCfg := noise.Config{
		CipherSuite:   cipherSuite,
		Pattern:       noise.HandshakeXK,
		Initiator:     !cfg.Server,
		Prologue:      prologue,
		StaticKeypair: static,
	}
	if !cfg.Server {
		hsCfg.PeerStatic = cfg.ServerKey.Bytes()
	}

	hs, err := noise.NewHandshakeState(hsCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	if cfg.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(cfg.Timeout))
		defer func() { _ = conn.SetDeadline(time.Time{}) }()
	}

	var send, recv *noise.CipherState
	if cfg.Server {
		send, recv, err = serverHandshake(conn, hs)
	} else {
		send, recv, err = clientHandshake(conn, hs)
	}
	if err != nil {
		log.Debug("握手失败", "server", cfg.Server, "remote", conn.RemoteAddr(), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	remote, err := types.KeyFromBytes(hs.PeerStatic())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	return &Conn{
		Conn:   conn,
		send:   send,
		recv:   recv,
		remote: remote,
	}, nil
}

// staticKeypair 校验配置并返回本地长期密钥对
func staticKeypair(cfg Config) (noise.DHKey, error) {
	if cfg.Server {
		if cfg.PrivateKey.IsZero() {
			return noise.DHKey{}, ErrPrivateKeyRequired
		}
	} else {
		if cfg.ServerKey.IsZero() {
			return noise.DHKey{}, ErrServerKeyRequired
		}
		if cfg.PrivateKey.IsZero() {
			return noise.DHKey{}, ErrClientKeyRequired
		}
	}

	public := cfg.PublicKey
	if public.IsZero() {
		derived, err := PublicKey(cfg.PrivateKey)
		if err != nil {
			return noise.DHKey{}, err
		}
		public = derived
	}
	return noise.DHKey{Private: cfg.PrivateKey.Bytes(), Public: public.Bytes()}, nil
}

// clientHandshake 客户端（发起者）
//
//  1. -> e, es
//  2. <- e, ee
//  3. -> s, se
func clientHandshake(conn net.Conn, hs *noise.HandshakeState) (*noise.CipherState, *noise.CipherState, error) {
	msg1, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("write message 1: %w", err)
	}
	if err := writeFrame(conn, msg1); err != nil {
		return nil, nil, fmt.Errorf("send message 1: %w", err)
	}

	msg2, err := readFrame(conn)
	if err != nil {
		return nil, nil, fmt.Errorf("receive message 2: %w", err)
	}
	if _, _, _, err := hs.ReadMessage(nil, msg2); err != nil {
		return nil, nil, fmt.Errorf("read message 2: %w", err)
	}

	msg3, cs1, cs2, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("write message 3: %w", err)
	}
	if err := writeFrame(conn, msg3); err != nil {
		return nil, nil, fmt.Errorf("send message 3: %w", err)
	}

	// 发起者：cs1 发送，cs2 接收
	return cs1, cs2, nil
}

// serverHandshake 服务端（响应者）
func serverHandshake(conn net.Conn, hs *noise.HandshakeState) (*noise.CipherState, *noise.CipherState, error) {
	msg1, err := readFrame(conn)
	if err != nil {
		return nil, nil, fmt.Errorf("receive message 1: %w", err)
	}
	if _, _, _, err := hs.ReadMessage(nil, msg1); err != nil {
		return nil, nil, fmt.Errorf("read message 1: %w", err)
	}

	msg2, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("write message 2: %w", err)
	}
	if err := writeFrame(conn, msg2); err != nil {
		return nil, nil, fmt.Errorf("send message 2: %w", err)
	}

	msg3, err := readFrame(conn)
	if err != nil {
		return nil, nil, fmt.Errorf("receive message 3: %w", err)
	}
	_, cs1, cs2, err := hs.ReadMessage(nil, msg3)
	if err != nil {
		return nil, nil, fmt.Errorf("read message 3: %w", err)
	}

	// 响应者与发起者相反：cs2 发送，cs1 接收
	return cs2, cs1, nil
}

// writeFrame 写入帧（2 字节长度 + 数据）
func writeFrame(w io.Writer, data []byte) error {
	buf := make([]byte, 2+len(data))
	binary.BigEndian.PutUint16(buf, uint16(len(data)))
	copy(buf[2:], data)
	_, err := w.Write(buf)
	return err
}

// readFrame 读取帧（2 字节长度 + 数据）
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	data := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

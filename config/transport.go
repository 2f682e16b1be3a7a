package config

import (
	"errors"
	"time"
)

// TransportConfig 传输层配置
type TransportConfig struct {
	// SendHighWater 每个套接字的发送队列上限（消息数）
	SendHighWater int `json:"send_high_water" yaml:"send_high_water"`

	// ReceiveHighWater 每个套接字的接收队列上限（消息数）
	ReceiveHighWater int `json:"receive_high_water" yaml:"receive_high_water"`

	// SendTimeout 发送超时，0 表示一直阻塞
	SendTimeout Duration `json:"send_timeout" yaml:"send_timeout"`

	// ReceiveTimeout 接收超时，0 表示一直阻塞
	ReceiveTimeout Duration `json:"receive_timeout" yaml:"receive_timeout"`

	// ReconnectInterval 重连间隔
	ReconnectInterval Duration `json:"reconnect_interval" yaml:"reconnect_interval"`

	// HandshakeTimeout 握手超时（含认证查询）
	HandshakeTimeout Duration `json:"handshake_timeout" yaml:"handshake_timeout"`

	// TerminateTimeout 终止时等待套接字关闭的上限，0 表示一直等待
	TerminateTimeout Duration `json:"terminate_timeout" yaml:"terminate_timeout"`

	// MaxFrameSize 单帧字节数上限
	MaxFrameSize int `json:"max_frame_size" yaml:"max_frame_size"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		SendHighWater:     1000,                            // 发送队列：1000 条消息
		ReceiveHighWater:  1000,                            // 接收队列：1000 条消息
		ReconnectInterval: Duration(100 * time.Millisecond), // 重连间隔：100 毫秒
		HandshakeTimeout:  Duration(5 * time.Second),       // 握手超时：5 秒
		MaxFrameSize:      64 << 20,                        // 单帧上限：64 MB
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	if c.SendHighWater <= 0 {
		return errors.New("send high water must be positive")
	}
	if c.ReceiveHighWater <= 0 {
		return errors.New("receive high water must be positive")
	}
	if c.SendTimeout < 0 || c.ReceiveTimeout < 0 {
		return errors.New("socket timeouts must not be negative")
	}
	if c.ReconnectInterval <= 0 {
		return errors.New("reconnect interval must be positive")
	}
	if c.HandshakeTimeout <= 0 {
		return errors.New("handshake timeout must be positive")
	}
	if c.TerminateTimeout < 0 {
		return errors.New("terminate timeout must not be negative")
	}
	if c.MaxFrameSize <= 0 {
		return errors.New("max frame size must be positive")
	}
	return nil
}

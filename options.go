package zmq

import (
	"time"

	"github.com/dep2p/go-zmq/config"
	"github.com/dep2p/go-zmq/internal/core/transport"
	transportif "github.com/dep2p/go-zmq/pkg/interfaces/transport"
)

// Option 配置选项函数
//
// 同一组选项既用于 NewContext，也用于 NewAuthenticator（传给其内部上下文）。
type Option func(*options)

// options 内部选项结构
type options struct {
	// 传输句柄工厂与参数
	factory   transportif.Factory
	transport transportif.Options

	// 新建套接字的默认超时
	sendTimeout    time.Duration
	receiveTimeout time.Duration

	// started 构造后立即启动上下文
	started bool

	// pollInterval 认证服务检查停止信号的间隔
	pollInterval time.Duration
}

func newOptions(opts []Option) options {
	o := options{
		factory:      transport.New,
		transport:    transportif.DefaultOptions(),
		pollInterval: config.DefaultAuthConfig().PollInterval.Duration(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithStarted 构造时即启动上下文
func WithStarted() Option {
	return func(o *options) {
		o.started = true
	}
}

// WithFactory 替换传输句柄工厂
func WithFactory(factory transportif.Factory) Option {
	return func(o *options) {
		if factory != nil {
			o.factory = factory
		}
	}
}

// WithTransportConfig 按配置设置传输参数与套接字默认超时
func WithTransportConfig(cfg config.TransportConfig) Option {
	return func(o *options) {
		o.transport = transportif.Options{
			SendHighWater:     cfg.SendHighWater,
			ReceiveHighWater:  cfg.ReceiveHighWater,
			ReconnectInterval: cfg.ReconnectInterval.Duration(),
			HandshakeTimeout:  cfg.HandshakeTimeout.Duration(),
			TerminateTimeout:  cfg.TerminateTimeout.Duration(),
			MaxFrameSize:      cfg.MaxFrameSize,
		}
		o.sendTimeout = cfg.SendTimeout.Duration()
		o.receiveTimeout = cfg.ReceiveTimeout.Duration()
	}
}

// WithPollInterval 设置认证服务的轮询间隔
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

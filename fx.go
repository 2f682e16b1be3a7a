package zmq

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dep2p/go-zmq/config"
)

// Module 返回 Fx 模块
//
// 需要外部提供 *config.Config；模块提供 *Authenticator、*Context 与 *Proxy，
// 并在应用生命周期中启动和停止它们。
func Module() fx.Option {
	return fx.Module("zmq",
		fx.Provide(
			ProvideAuthenticator,
			ProvideContext,
			ProvideProxy,
		),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideAuthenticator 按统一配置创建认证服务
func ProvideAuthenticator(cfg *config.Config) (*Authenticator, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	auth := NewAuthenticator(
		WithTransportConfig(cfg.Transport),
		WithPollInterval(cfg.Auth.PollInterval.Duration()),
	)
	if err := auth.LoadPolicy(cfg.Auth); err != nil {
		return nil, err
	}
	return auth, nil
}

// ProvideContext 提供认证服务所在的上下文
func ProvideContext(auth *Authenticator) *Context {
	return auth.Context()
}

// ProvideProxy 创建受认证服务约束的代理
func ProvideProxy(ctx *Context, auth *Authenticator, cfg *config.Config) *Proxy {
	proxy := config.DefaultProxyConfig()
	if cfg != nil {
		proxy = cfg.Proxy
	}
	return NewProxy(ctx, proxy, auth)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC    fx.Lifecycle
	Auth  *Authenticator
	Proxy *Proxy
}

// registerLifecycle 注册生命周期
//
// 停止时先终止上下文以结束转发，再回收代理与认证服务。
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := input.Auth.Start(); err != nil {
				return err
			}
			if err := input.Proxy.Start(); err != nil {
				return multierr.Append(err, input.Auth.Stop())
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			return multierr.Combine(
				input.Auth.Context().Stop(),
				input.Proxy.Stop(),
				input.Auth.Stop(),
			)
		},
	})
}

// NewApp 构建包含 Module 的 Fx 应用
//
// logger 为 nil 时不输出 Fx 事件日志。
func NewApp(cfg *config.Config, logger *zap.Logger, opts ...fx.Option) *fx.App {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	options := []fx.Option{
		fx.Supply(cfg),
		Module(),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
	}
	return fx.New(append(options, opts...)...)
}

package zmq

import (
	"errors"

	"github.com/dep2p/go-zmq/internal/core/transport"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrAlreadyStarted 已经启动
	ErrAlreadyStarted = errors.New("already started")

	// ErrStartFailed 工作者报告启动失败
	ErrStartFailed = errors.New("worker failed to start")

	// ErrStopFailed 工作者报告停止失败
	ErrStopFailed = errors.New("worker failed to stop")

	// ErrContextStart 无法创建传输句柄
	ErrContextStart = errors.New("context failed to start")

	// ErrContextNotStarted 上下文未启动
	ErrContextNotStarted = errors.New("context not started")

	// ────────────────────────────────────────────────────────────────────────
	// 认证配置错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNoPrivateKey 安全模式需要服务端私钥
	ErrNoPrivateKey = errors.New("secure socket requires a private key")

	// ErrDomainRequired 存在地址策略时认证域不能为空
	ErrDomainRequired = errors.New("address policy requires a zap domain")

	// ErrForeignContext 套接字不在认证服务的上下文上，查询不会到达该服务
	ErrForeignContext = errors.New("socket belongs to another context")

	// ErrInvalidCertificate 证书无效
	ErrInvalidCertificate = errors.New("invalid certificate")

	// ────────────────────────────────────────────────────────────────────────
	// 传输错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrTimeout 发送或接收超时
	ErrTimeout = transport.ErrTimeout

	// ErrTerminated 上下文正在终止
	ErrTerminated = transport.ErrTerminated

	// ErrSocketConfigured bind/connect 之后修改安全设置
	ErrSocketConfigured = transport.ErrSocketConfigured

	// ErrClosed 套接字已关闭
	ErrClosed = transport.ErrClosed

	// ErrUnsupported 角色不支持该操作
	ErrUnsupported = transport.ErrUnsupported
)

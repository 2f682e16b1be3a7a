package transport

import "errors"

// ============================================================================
//                              生命周期错误
// ============================================================================

var (
	// ErrTerminated 句柄正在终止或已终止
	ErrTerminated = errors.New("transport terminated")

	// ErrTerminateTimeout 等待套接字关闭超时
	ErrTerminateTimeout = errors.New("transport terminate timed out")

	// ErrClosed 套接字已关闭
	ErrClosed = errors.New("socket closed")
)

// ============================================================================
//                              套接字错误
// ============================================================================

var (
	// ErrTimeout 发送或接收超时
	ErrTimeout = errors.New("operation timed out")

	// ErrSocketConfigured 在 bind/connect 之后修改安全设置
	ErrSocketConfigured = errors.New("socket already bound or connected")

	// ErrUnsupported 角色不支持该操作
	ErrUnsupported = errors.New("operation not supported by socket role")

	// ErrNoPeer 没有可用的对端
	ErrNoPeer = errors.New("no peer available")

	// ErrState 请求/应答顺序错误
	ErrState = errors.New("operation not valid in current socket state")

	// ErrEmptyMessage 消息没有任何帧
	ErrEmptyMessage = errors.New("message has no frames")
)

// ============================================================================
//                              端点错误
// ============================================================================

var (
	// ErrInvalidEndpoint 无效端点
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrEndpointInUse 端点已被绑定
	ErrEndpointInUse = errors.New("endpoint already in use")

	// ErrEndpointNotFound inproc 端点未绑定
	ErrEndpointNotFound = errors.New("endpoint not found")
)

// ============================================================================
//                              协议错误
// ============================================================================

var (
	// ErrFrameTooLarge 帧超过上限
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrTooManyFrames 帧数超过上限
	ErrTooManyFrames = errors.New("too many frames")

	// ErrGreeting 问候不兼容
	ErrGreeting = errors.New("incompatible greeting")

	// ErrIncompatibleRole 对端角色不兼容
	ErrIncompatibleRole = errors.New("incompatible socket role")

	// ErrRejected 认证服务拒绝了连接
	ErrRejected = errors.New("connection rejected")
)

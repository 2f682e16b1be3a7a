// Package transport 定义消息队列传输层的协作者接口
//
// 根包只通过这些接口使用传输层：Handle 对应进程级传输句柄，
// Socket 对应原子多帧消息的套接字原语。默认实现位于
// internal/core/transport，测试可以注入自己的 Factory。
package transport

import (
	"time"

	"github.com/dep2p/go-zmq/pkg/types"
)

// ============================================================================
//                              Handle 接口
// ============================================================================

// Factory 创建传输句柄
type Factory func(opts Options) (Handle, error)

// Handle 进程级传输句柄
//
// 句柄启动后可被多个套接字并发使用。
type Handle interface {
	// Socket 在此句柄上创建指定角色的套接字
	//
	// 句柄正在终止或已终止时返回 ErrTerminated。
	Socket(role types.Role) (Socket, error)

	// Terminate 终止句柄
	//
	// 所有阻塞中的套接字操作立即返回 ErrTerminated，然后阻塞直到
	// 句柄上的每个套接字都已 Close。超过 Options.TerminateTimeout
	// 时返回错误（零值表示一直等待）。
	Terminate() error

	// Terminated 句柄已开始终止时为 true
	Terminated() bool
}

// ============================================================================
//                              Socket 接口
// ============================================================================

// Socket 套接字原语
//
// Socket 不支持多个 goroutine 并发使用，每个实例归属于创建它的
// goroutine 或某个 worker。安全相关的设置必须在 Bind/Connect 之前完成，
// 之后调用返回 ErrSocketConfigured。
type Socket interface {
	// ID 传输层分配的不透明标识
	ID() uint64

	// Role 套接字角色
	Role() types.Role

	// Bind 绑定端点，如 tcp://127.0.0.1:9000、tcp://127.0.0.1:*、inproc://name
	Bind(endpoint string) error

	// Connect 连接端点，连接断开或被拒绝后在后台重连
	Connect(endpoint string) error

	// Endpoint 返回最近一次绑定的端点（已解析临时端口）
	Endpoint() string

	// Send 发送一条完整消息
	Send(msg types.Message) error

	// Receive 接收一条完整消息
	Receive() (types.Message, error)

	// SetCurveServer 要求 CURVE 机制，并以 privateKey 作为服务端密钥
	SetCurveServer(privateKey types.Key) error

	// SetCurveClient 以 CURVE 客户端身份连接，期望服务端公钥为 serverKey
	SetCurveClient(serverKey types.Key) error

	// SetCurveKeys 设置本地密钥对，两者均为零值表示没有证书
	SetCurveKeys(publicKey, privateKey types.Key) error

	// SetZapDomain 设置认证域，空串时 NULL 连接不发起认证查询
	SetZapDomain(domain string) error

	// SetIdentity 设置在对端 router 上可见的身份
	SetIdentity(identity []byte) error

	// Subscribe 订阅前缀（仅 subscriber）
	Subscribe(prefix []byte) error

	// SetSendTimeout 发送超时，零表示一直阻塞
	SetSendTimeout(d time.Duration)

	// SetReceiveTimeout 接收超时，零表示一直阻塞
	SetReceiveTimeout(d time.Duration)

	// Close 关闭套接字，可重复调用
	Close() error
}

// ============================================================================
//                              配置
// ============================================================================

// Options 传输句柄参数
type Options struct {
	// SendHighWater 每个套接字的发送队列上限（消息数）
	SendHighWater int

	// ReceiveHighWater 每个套接字的接收队列上限（消息数）
	ReceiveHighWater int

	// ReconnectInterval 连接断开或被拒绝后的重连间隔
	ReconnectInterval time.Duration

	// HandshakeTimeout 问候与安全握手（含认证查询）的超时
	HandshakeTimeout time.Duration

	// TerminateTimeout Terminate 等待套接字关闭的上限，零表示一直等待
	TerminateTimeout time.Duration

	// MaxFrameSize 单帧字节数上限
	MaxFrameSize int
}

// DefaultOptions 返回默认参数
func DefaultOptions() Options {
	return Options{
		SendHighWater:     1000,
		ReceiveHighWater:  1000,
		ReconnectInterval: 100 * time.Millisecond,
		HandshakeTimeout:  5 * time.Second,
		MaxFrameSize:      64 << 20,
	}
}

// Package transport 实现消息队列传输层
//
// 提供 pkg/interfaces/transport 中 Handle 与 Socket 的默认实现：
//
//   - 端点：tcp://host:port（端口 * 或 0 为临时端口）与 inproc://name
//   - 角色：pair、publisher/subscriber、requester/replier、dealer/router、
//     pusher/puller
//   - 安全：NULL 与 CURVE 机制（CURVE 见 internal/core/security/curve）
//   - 认证：每个 TCP 连接在握手阶段向 inproc://zeromq.zap.01 发送认证查询
//
// # 连接握手
//
// TCP 连接建立后双方依次交换：
//
//	问候    signature, version, mechanism, as-server, role
//	CURVE   Noise XK 握手（仅 CURVE 机制）
//	认证    服务端向认证服务查询（NULL 机制仅当设置了认证域）
//	就绪    identity
//
// 任何一步失败都会关闭连接；connect 端在重连间隔后重试。
// inproc 连接不经过安全机制与认证。
//
// # 消息编码
//
// 一条消息编码为帧数（uvarint）后跟每帧的长度（uvarint）与内容，
// 使用 github.com/multiformats/go-varint。
//
// # 并发安全
//
// Handle 可并发使用。Socket 由单个所有者使用，但内部队列允许
// 一个 goroutine 发送的同时另一个 goroutine 接收。
package transport

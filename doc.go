// Package zmq 提供消息队列传输的连接认证与工作者生命周期管理
//
// 每个连接尝试都会询问认证服务是否接纳对端：依据地址白名单/黑名单，
// 以及 CURVE 加密连接上的客户端公钥白名单。包同时管理进程级传输
// 上下文、运行套接字的后台工作者，以及在两个套接字之间原样转发
// 消息的中继操作。
//
// # 快速开始
//
//	auth := zmq.NewAuthenticator()
//	auth.Deny(types.MustParseAuthority("10.0.0.1"))
//	if err := auth.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer auth.Stop()
//
//	server, _ := zmq.NewSocket(auth.Context(), types.RolePuller)
//	defer server.Close()
//	if err := auth.Apply(server, "global", false); err != nil {
//	    log.Fatal(err)
//	}
//	_ = server.Bind("tcp://127.0.0.1:9000")
//
// # 组件
//
//	┌──────────────────────────────────────────────────────────────┐
//	│  Authenticator  策略 + 认证服务（inproc://zeromq.zap.01）       │
//	│  Proxy          前端/后端中继工作者                            │
//	├──────────────────────────────────────────────────────────────┤
//	│  Worker         启动/停止握手、Forward、Relay                  │
//	│  Socket         角色固定的端点，安全设置，收发                 │
//	│  Certificate    curve25519 密钥对                              │
//	│  Context        可重启的传输句柄                               │
//	└──────────────────────────────────────────────────────────────┘
//
// # 布尔结果
//
// 所有操作以 error 报告成败，nil 表示成功。哨兵错误见 errors.go。
//
// # 生命周期
//
// Context.Stop 会让所有阻塞中的收发返回 ErrTerminated，然后等待
// 上下文中的每个套接字关闭。Worker.Stop 只设置停止标志并等待工作
// goroutine 确认结束，无法打断阻塞在 Relay 中的工作者，因此中继类
// 工作者需要先停止其 Context。
package zmq

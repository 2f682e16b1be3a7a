// Package curve 实现 CURVE 安全机制
//
// 机制建立在 Noise 协议之上（Noise_XK_25519_ChaChaPoly_SHA256）：
// 客户端事先知道服务端的长期公钥，握手结束时服务端获知客户端的
// 长期公钥，并把它作为认证查询的凭据。
//
// XK 握手流程：
//
//	<- s                 (预先消息：客户端已知服务端公钥)
//	-> e, es             (客户端发送临时公钥)
//	<- e, ee             (服务端发送临时公钥)
//	-> s, se             (客户端发送加密的长期公钥)
//
// 握手完成后，每个密文以 2 字节长度前缀写入底层连接。
package curve

// Package types 定义 go-zmq 的公共值类型
//
// 这是最底层的包，不依赖任何其他内部包。
//
// # 文件组织
//
//   - authority.go - Authority（IP + 端口）及其解析
//   - key.go       - Key（32 字节 curve 密钥）及其 Base58 文本形式
//   - message.go   - Message（原子多帧消息）
//   - role.go      - Role（套接字角色）
//   - errors.go    - 公共错误定义
package types

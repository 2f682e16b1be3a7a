// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON 与 YAML 加载配置
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Auth.Domain = "global"
//
//	// 从文件加载（按扩展名选择 JSON 或 YAML）
//	cfg, err := config.LoadFile("relay.yaml")
package config

import "fmt"

// Config 是 go-zmq 的完整配置结构
//
//   - Transport: 传输句柄参数（队列上限、重连、握手、终止）
//   - Auth: 认证策略（域、地址黑白名单、客户端公钥、服务端私钥）
//   - Proxy: 代理前后端端点与角色
//   - Log: 日志级别与格式
type Config struct {
	// Transport 传输层配置
	Transport TransportConfig `json:"transport" yaml:"transport"`

	// Auth 认证配置
	Auth AuthConfig `json:"auth" yaml:"auth"`

	// Proxy 代理配置
	Proxy ProxyConfig `json:"proxy" yaml:"proxy"`

	// Log 日志配置
	Log LogConfig `json:"log" yaml:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Transport: DefaultTransportConfig(),
		Auth:      DefaultAuthConfig(),
		Proxy:     DefaultProxyConfig(),
		Log:       DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置是否有效，如果发现无效配置则返回错误。
func (c *Config) Validate() error {
	if err := c.Transport.Validate(); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Proxy.Validate(); err != nil {
		return fmt.Errorf("proxy: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

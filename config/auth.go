package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dep2p/go-zmq/pkg/types"
)

// AuthConfig 认证配置
//
// 地址写作 IP 或 IP:port，公钥与私钥为 base58 文本。
type AuthConfig struct {
	// Domain 认证域，地址策略非空时必须设置
	Domain string `json:"domain" yaml:"domain"`

	// Secure 是否要求 CURVE 机制
	Secure bool `json:"secure" yaml:"secure"`

	// PrivateKey 服务端私钥
	PrivateKey string `json:"private_key,omitempty" yaml:"private_key,omitempty"`

	// Allow 允许的地址，非空时其余地址一律拒绝
	Allow []string `json:"allow,omitempty" yaml:"allow,omitempty"`

	// Deny 拒绝的地址
	Deny []string `json:"deny,omitempty" yaml:"deny,omitempty"`

	// AllowedKeys 允许的客户端公钥，空表示接受任意客户端
	AllowedKeys []string `json:"allowed_keys,omitempty" yaml:"allowed_keys,omitempty"`

	// PollInterval 认证服务检查停止信号的间隔
	PollInterval Duration `json:"poll_interval" yaml:"poll_interval"`
}

// DefaultAuthConfig 返回默认认证配置
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		PollInterval: Duration(100 * time.Millisecond),
	}
}

// Validate 验证认证配置
func (c AuthConfig) Validate() error {
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.Secure && c.PrivateKey == "" {
		return errors.New("secure requires a private key")
	}
	if c.Domain == "" && (len(c.Allow) > 0 || len(c.Deny) > 0) {
		return errors.New("address policy requires a domain")
	}
	if _, err := c.PrivateKeyValue(); err != nil {
		return err
	}
	if _, err := c.AllowedKeyValues(); err != nil {
		return err
	}
	if _, err := parseAuthorities(c.Allow); err != nil {
		return fmt.Errorf("allow: %w", err)
	}
	if _, err := parseAuthorities(c.Deny); err != nil {
		return fmt.Errorf("deny: %w", err)
	}
	return nil
}

// PrivateKeyValue 解析私钥，未设置时返回零值
func (c AuthConfig) PrivateKeyValue() (types.Key, error) {
	if c.PrivateKey == "" {
		return types.Key{}, nil
	}
	key, err := types.ParseKey(c.PrivateKey)
	if err != nil {
		return types.Key{}, fmt.Errorf("private key: %w", err)
	}
	return key, nil
}

// AllowedKeyValues 解析允许的客户端公钥
func (c AuthConfig) AllowedKeyValues() ([]types.Key, error) {
	keys := make([]types.Key, 0, len(c.AllowedKeys))
	for _, text := range c.AllowedKeys {
		key, err := types.ParseKey(text)
		if err != nil {
			return nil, fmt.Errorf("allowed key %q: %w", text, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// AllowAuthorities 解析允许的地址
func (c AuthConfig) AllowAuthorities() ([]types.Authority, error) {
	return parseAuthorities(c.Allow)
}

// DenyAuthorities 解析拒绝的地址
func (c AuthConfig) DenyAuthorities() ([]types.Authority, error) {
	return parseAuthorities(c.Deny)
}

func parseAuthorities(values []string) ([]types.Authority, error) {
	out := make([]types.Authority, 0, len(values))
	for _, value := range values {
		authority, err := types.ParseAuthority(value)
		if err != nil {
			return nil, err
		}
		out = append(out, authority)
	}
	return out, nil
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dep2p/go-zmq/pkg/types"
)

// ProxyConfig 代理配置
//
// 前端接受客户端连接并受认证策略约束，后端连接工作者。
type ProxyConfig struct {
	// Frontend 前端绑定端点
	Frontend string `json:"frontend" yaml:"frontend"`

	// Backend 后端绑定端点
	Backend string `json:"backend" yaml:"backend"`

	// FrontendRole 前端角色
	FrontendRole string `json:"frontend_role" yaml:"frontend_role"`

	// BackendRole 后端角色
	BackendRole string `json:"backend_role" yaml:"backend_role"`
}

// DefaultProxyConfig 返回默认代理配置
func DefaultProxyConfig() ProxyConfig {
	return ProxyConfig{
		Frontend:     "tcp://*:9000",
		Backend:      "tcp://*:9001",
		FrontendRole: types.RoleRouter.String(),
		BackendRole:  types.RoleDealer.String(),
	}
}

// Validate 验证代理配置
func (c ProxyConfig) Validate() error {
	if c.Frontend == "" || c.Backend == "" {
		return errors.New("frontend and backend endpoints are required")
	}
	if c.Frontend == c.Backend && !ephemeral(c.Frontend) {
		return errors.New("frontend and backend must differ")
	}
	frontend, backend, err := c.Roles()
	if err != nil {
		return err
	}
	if !frontend.CanReceive() || !backend.CanSend() {
		return fmt.Errorf("roles %s/%s cannot relay", frontend, backend)
	}
	return nil
}

// ephemeral 端口由系统分配的 tcp 端点
func ephemeral(endpoint string) bool {
	return strings.HasPrefix(endpoint, "tcp://") &&
		(strings.HasSuffix(endpoint, ":*") || strings.HasSuffix(endpoint, ":0"))
}

// Roles 解析前后端角色
func (c ProxyConfig) Roles() (frontend, backend types.Role, err error) {
	if frontend, err = types.ParseRole(c.FrontendRole); err != nil {
		return frontend, backend, fmt.Errorf("frontend role: %w", err)
	}
	if backend, err = types.ParseRole(c.BackendRole); err != nil {
		return frontend, backend, fmt.Errorf("backend role: %w", err)
	}
	return frontend, backend, nil
}

package types

import (
	"fmt"
	"strings"
)

// Role 套接字角色，构造时确定且不可更改
type Role int

const (
	// RoleUnknown 未知角色
	RoleUnknown Role = iota
	// RolePair 一对一双向
	RolePair
	// RolePublisher 发布端，只发送
	RolePublisher
	// RoleSubscriber 订阅端，只接收
	RoleSubscriber
	// RoleRequester 请求端，严格的发送/接收交替
	RoleRequester
	// RoleReplier 应答端，严格的接收/发送交替
	RoleReplier
	// RoleDealer 异步请求端，轮询发送、公平接收
	RoleDealer
	// RoleRouter 异步应答端，按首帧身份路由
	RoleRouter
	// RolePuller 拉取端，只接收
	RolePuller
	// RolePusher 推送端，只发送
	RolePusher
)

var roleNames = map[Role]string{
	RolePair:       "pair",
	RolePublisher:  "publisher",
	RoleSubscriber: "subscriber",
	RoleRequester:  "requester",
	RoleReplier:    "replier",
	RoleDealer:     "dealer",
	RoleRouter:     "router",
	RolePuller:     "puller",
	RolePusher:     "pusher",
}

// String 返回角色名称
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// ParseRole 按名称解析角色（不区分大小写）
func ParseRole(name string) (Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for role, n := range roleNames {
		if n == name {
			return role, nil
		}
	}
	return RoleUnknown, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// Valid 已知角色时为 true
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// CanSend 该角色是否可以发送
func (r Role) CanSend() bool {
	switch r {
	case RoleSubscriber, RolePuller, RoleUnknown:
		return false
	default:
		return r.Valid()
	}
}

// CanReceive 该角色是否可以接收
func (r Role) CanReceive() bool {
	switch r {
	case RolePublisher, RolePusher, RoleUnknown:
		return false
	default:
		return r.Valid()
	}
}

// Compatible 两个角色能否建立连接
func (r Role) Compatible(peer Role) bool {
	switch r {
	case RolePair:
		return peer == RolePair
	case RolePublisher:
		return peer == RoleSubscriber
	case RoleSubscriber:
		return peer == RolePublisher
	case RoleRequester:
		return peer == RoleReplier || peer == RoleRouter
	case RoleReplier:
		return peer == RoleRequester || peer == RoleDealer
	case RoleDealer:
		return peer == RoleReplier || peer == RoleDealer || peer == RoleRouter
	case RoleRouter:
		return peer == RoleRequester || peer == RoleDealer || peer == RoleRouter
	case RolePuller:
		return peer == RolePusher
	case RolePusher:
		return peer == RolePuller
	default:
		return false
	}
}

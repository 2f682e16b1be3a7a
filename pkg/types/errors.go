package types

import "errors"

// ============================================================================
//                              地址相关错误
// ============================================================================

var (
	// ErrInvalidAuthority 无效的地址（只接受 IP 字面量）
	ErrInvalidAuthority = errors.New("invalid authority")

	// ErrInvalidPort 无效的端口
	ErrInvalidPort = errors.New("invalid port")
)

// ============================================================================
//                              密钥相关错误
// ============================================================================

var (
	// ErrInvalidKeyLength 密钥长度无效
	ErrInvalidKeyLength = errors.New("invalid key length: must be 32 bytes")

	// ErrInvalidKeyEncoding 密钥编码无效
	ErrInvalidKeyEncoding = errors.New("invalid key encoding")
)

// ============================================================================
//                              角色相关错误
// ============================================================================

var (
	// ErrUnknownRole 未知的套接字角色
	ErrUnknownRole = errors.New("unknown socket role")
)

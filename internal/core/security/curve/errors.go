package curve

import "errors"

var (
	// ErrHandshake 握手失败
	ErrHandshake = errors.New("curve: handshake failed")

	// ErrServerKeyRequired 客户端没有设置服务端公钥
	ErrServerKeyRequired = errors.New("curve: server public key required")

	// ErrClientKeyRequired 客户端没有本地证书
	ErrClientKeyRequired = errors.New("curve: client certificate required")

	// ErrPrivateKeyRequired 服务端没有设置私钥
	ErrPrivateKeyRequired = errors.New("curve: server private key required")
)

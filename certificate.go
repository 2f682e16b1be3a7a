package zmq

import (
	"fmt"

	"github.com/dep2p/go-zmq/internal/core/security/curve"
	"github.com/dep2p/go-zmq/pkg/types"
)

// Certificate curve25519 密钥对
//
// 零值是匿名证书（没有任何密钥）。公钥非零时证书有效。
// Certificate 是可比较的值类型。
type Certificate struct {
	public  types.Key
	private types.Key
}

// NewCertificate 生成新的密钥对
func NewCertificate() (Certificate, error) {
	public, private, err := curve.GenerateKeyPair()
	if err != nil {
		return Certificate{}, fmt.Errorf("%w: %w", ErrInvalidCertificate, err)
	}
	return Certificate{public: public, private: private}, nil
}

// CertificateFromPrivateKey 由私钥推导公钥构造证书
func CertificateFromPrivateKey(private types.Key) (Certificate, error) {
	public, err := curve.PublicKey(private)
	if err != nil {
		return Certificate{}, fmt.Errorf("%w: %w", ErrInvalidCertificate, err)
	}
	return Certificate{public: public, private: private}, nil
}

// AnonymousCertificate 返回没有密钥的证书
func AnonymousCertificate() Certificate {
	return Certificate{}
}

// Valid 公钥非零时为 true
func (c Certificate) Valid() bool {
	return !c.public.IsZero()
}

// PublicKey 返回公钥
func (c Certificate) PublicKey() types.Key {
	return c.public
}

// PrivateKey 返回私钥
func (c Certificate) PrivateKey() types.Key {
	return c.private
}

// String 返回 base58 编码的公钥
func (c Certificate) String() string {
	return c.public.String()
}

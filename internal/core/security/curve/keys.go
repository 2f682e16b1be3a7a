package curve

import (
	"crypto/rand"
	"fmt"

	"github.com/flynn/noise"
	"golang.org/x/crypto/curve25519"

	"github.com/dep2p/go-zmq/pkg/types"
)

// GenerateKeyPair 生成新的 curve25519 密钥对
func GenerateKeyPair() (public, private types.Key, err error) {
	kp, err := noise.DH25519.GenerateKeypair(rand.Reader)
	if err != nil {
		return public, private, fmt.Errorf("generate keypair: %w", err)
	}
	copy(public[:], kp.Public)
	copy(private[:], kp.Private)
	return public, private, nil
}

// PublicKey 由私钥推导公钥
func PublicKey(private types.Key) (types.Key, error) {
	var public types.Key
	if private.IsZero() {
		return public, ErrPrivateKeyRequired
	}
	raw, err := curve25519.X25519(private[:], curve25519.Basepoint)
	if err != nil {
		return public, fmt.Errorf("derive public key: %w", err)
	}
	copy(public[:], raw)
	return public, nil
}

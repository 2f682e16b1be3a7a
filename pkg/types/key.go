package types

import (
	"crypto/subtle"
	"fmt"

	"github.com/mr-tron/base58"
)

// KeySize curve 密钥长度
const KeySize = 32

// Key 32 字节 curve25519 密钥（公钥或私钥）
//
// 零值表示未设置。文本形式为 Base58。
type Key [KeySize]byte

// KeyFromBytes 由原始字节构造 Key
func KeyFromBytes(raw []byte) (Key, error) {
	var k Key
	if len(raw) != KeySize {
		return k, fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(raw))
	}
	copy(k[:], raw)
	return k, nil
}

// ParseKey 解析 Base58 文本形式的密钥
func ParseKey(text string) (Key, error) {
	raw, err := base58.Decode(text)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrInvalidKeyEncoding, err)
	}
	return KeyFromBytes(raw)
}

// IsZero 未设置时为 true
func (k Key) IsZero() bool {
	var zero Key
	return subtle.ConstantTimeCompare(k[:], zero[:]) == 1
}

// Bytes 返回原始字节的副本
func (k Key) Bytes() []byte {
	out := make([]byte, KeySize)
	copy(out, k[:])
	return out
}

// String 返回 Base58 文本，零值返回空串
func (k Key) String() string {
	if k.IsZero() {
		return ""
	}
	return base58.Encode(k[:])
}

// MarshalText 实现 encoding.TextMarshaler
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，空文本得到零值
func (k *Key) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = Key{}
		return nil
	}
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	cipherKeySize   = 32
	cipherNonceSize = 24
)

// Cipher はGitHubアクセストークンの保存時暗号化を提供する。
// nacl/secretbox（XSalsa20-Poly1305）を使用し、ノンスを暗号文の先頭に
// 連結してbase64で保存する。
type Cipher struct {
	key [cipherKeySize]byte
}

// NewCipher は32バイトの鍵からCipherを生成する。
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != cipherKeySize {
		return nil, fmt.Errorf("cipher key must be %d bytes, got %d", cipherKeySize, len(key))
	}
	c := &Cipher{}
	copy(c.key[:], key)
	return c, nil
}

// Encrypt は平文を暗号化してbase64(nonce + ciphertext)を返す。
// ノンスは呼び出しごとにcrypto/randから生成する。
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	var nonce [cipherNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &c.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt はEncryptで生成された暗号文を復号する。
// 改ざんされた暗号文や別鍵の暗号文はエラーを返す。
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	if len(raw) < cipherNonceSize+secretbox.Overhead {
		return "", fmt.Errorf("ciphertext too short: %d bytes", len(raw))
	}

	var nonce [cipherNonceSize]byte
	copy(nonce[:], raw[:cipherNonceSize])

	plaintext, ok := secretbox.Open(nil, raw[cipherNonceSize:], &nonce, &c.key)
	if !ok {
		return "", fmt.Errorf("failed to authenticate ciphertext")
	}
	return string(plaintext), nil
}

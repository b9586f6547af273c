// Package security はシークレット生成とアクセストークンの暗号化を提供する。
package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// TokenPrefixUserKey はユーザースコープAPIキーのプレフィックス。
	TokenPrefixUserKey = "mk_live"
	// TokenPrefixProjectKey はプロジェクトスコープAPIキーのプレフィックス。
	TokenPrefixProjectKey = "mk_proj"

	// tokenEntropyBytes はトークンごとの乱数バイト数。
	tokenEntropyBytes = 32
)

// TokenGenerator は不透明なベアラートークンを生成するインターフェース。
type TokenGenerator interface {
	// Generate はプレフィックス付きのトークンを生成する。
	// 形式: <prefix>_<base64url(32バイトの乱数)>（パディングなし）
	Generate(prefix string) (string, error)
}

// Generator はcrypto/randを乱数源とするTokenGeneratorの実装。
type Generator struct{}

// NewGenerator はGeneratorを生成する。
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate はプレフィックス付きのトークンを生成する。
// 乱数源の枯渇以外でエラーは発生しない。
func (g *Generator) Generate(prefix string) (string, error) {
	b := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return prefix + "_" + base64.RawURLEncoding.EncodeToString(b), nil
}

// compile-time interface check
var _ TokenGenerator = (*Generator)(nil)

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// stateTTL はstateトークンの有効期間。
// OAuthの認可画面での滞在時間を考慮して10分とする。
const stateTTL = 10 * time.Minute

// StateSigner はOAuthのstateパラメータを署名付きトークンとして発行・検証する。
// stateにはリンク対象のユーザーIDを埋め込み、コールバック時に
// 改ざんされていないことをHMAC署名で保証する。
type StateSigner struct {
	secret []byte
	now    func() time.Time
}

// NewStateSigner はStateSignerを生成する。
func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// stateClaims はstateトークンのクレーム。
type stateClaims struct {
	jwt.RegisteredClaims
}

// Issue はclerkUserIDを埋め込んだ署名付きstateトークンを発行する。
// jtiにはワンタイム性を示すランダムなナンスを含む。
func (s *StateSigner) Issue(clerkUserID string) (string, error) {
	if clerkUserID == "" {
		return "", fmt.Errorf("clerk user ID is required")
	}

	now := s.now()
	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clerkUserID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state token: %w", err)
	}
	return signed, nil
}

// Verify はstateトークンを検証し、埋め込まれたclerkUserIDを返す。
// 署名不正・期限切れの場合はエラーを返す。
func (s *StateSigner) Verify(state string) (string, error) {
	token, err := jwt.ParseWithClaims(state, &stateClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return "", fmt.Errorf("failed to verify state token: %w", err)
	}

	claims, ok := token.Claims.(*stateClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("state token has no subject")
	}
	return claims.Subject, nil
}

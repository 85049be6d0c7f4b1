// Package jwt inspects session tokens that happen to be JWTs. The portal never
// verifies tokens: the backend is the only authority on session validity.
package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var ErrEmptyToken = errors.New("session token missing")

// TokenInfo describes what could be read from a stored token.
type TokenInfo struct {
	Opaque    bool      // not a JWT; nothing else is known
	Subject   string    // driver id when present
	Phone     string
	City      string
	IssuedAt  time.Time // zero when absent
	ExpiresAt time.Time // zero when absent
}

// Expired reports whether the token carries an expiry that lies before now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now)
}

// Peek decodes token claims without checking the signature. Tokens that do
// not parse as JWTs are reported as opaque, not as errors.
func Peek(token string) (TokenInfo, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return TokenInfo{}, ErrEmptyToken
	}
	if strings.Count(token, ".") != 2 {
		return TokenInfo{Opaque: true}, nil
	}

	claims := &Claims{}
	parser := jwtlib.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return TokenInfo{Opaque: true}, nil
	}

	info := TokenInfo{
		Subject: claims.Subject,
		Phone:   claims.Phone,
		City:    claims.City,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return info, nil
}

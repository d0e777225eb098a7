// Package identity adapts the external identity provider. The provider
// issues short-lived ID tokens; the backend verifies them, the client only
// reads their claims.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("identity token expired")
	ErrInvalidToken = errors.New("invalid identity token")
)

// Identity is the signed-in principal as reported by the provider.
type Identity interface {
	UID() string
	IDToken(ctx context.Context) (string, error)
}

type Claims struct {
	UID         string `json:"uid"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Mint issues a development identity token. Production tokens come from the
// hosted provider and share the same claim names.
func Mint(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Verify(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || strings.TrimSpace(claims.UID) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenIdentity wraps a token already handed out by the provider.
type TokenIdentity struct {
	token  string
	claims Claims
}

// FromToken reads the claims without checking the signature.
func FromToken(tokenString string) (*TokenIdentity, error) {
	tokenString = strings.TrimSpace(tokenString)
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.UID) == "" {
		return nil, ErrInvalidToken
	}
	return &TokenIdentity{token: tokenString, claims: claims}, nil
}

func (t *TokenIdentity) UID() string {
	return t.claims.UID
}

func (t *TokenIdentity) Claims() Claims {
	return t.claims
}

func (t *TokenIdentity) IDToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if exp := t.claims.ExpiresAt; exp != nil && time.Now().After(exp.Time) {
		return "", ErrTokenExpired
	}
	return t.token, nil
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrNoSecret  = errors.New("identity: no signing secret configured")
	ErrNoSubject  = errors.New("identity: token has no subject")
	ErrBadIssuer = errors.New("identity: unexpected issuer")
)

// Verifier checks HS256 bearer tokens and returns the subject as user id.
type Verifier struct {
	Secret []byte
	Issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{Secret: []byte(secret), Issuer: issuer}
}

// Verify implements analysis.Verifier.
func (v *Verifier) Verify(_ context.Context, token string) (string, error) {
	if len(v.Secret) == 0 {
		return "", ErrNoSecret
	}
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))

	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.Secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("identity: %w", err)
	}
	if v.Issuer != "" && !claims.VerifyIssuer(v.Issuer, true) {
		return "", ErrBadIssuer
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrNoSubject
	}
	return claims.Subject, nil
}

// Issue signs a token for userID valid for ttl.
func (v *Verifier) Issue(userID string, ttl time.Duration) (string, error) {
	if len(v.Secret) == 0 {
		return "", ErrNoSecret
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    v.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(v.Secret)
}

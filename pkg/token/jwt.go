// Package token signs and verifies bearer tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret is returned by every operation when no signing secret is configured.
	ErrMissingSecret = errors.New("token signing secret is not configured")
	// ErrInvalid covers malformed, expired and wrongly signed tokens.
	ErrInvalid = errors.New("invalid token")
)

// Claims is the token payload. It names the account and nothing else, so
// role and approval state are always re-read from the store.
type Claims struct {
	jwt.RegisteredClaims
}

// Signer issues and parses HS256 tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewSigner constructs a Signer. An empty secret is accepted and makes every
// call fail with ErrMissingSecret.
func NewSigner(secret string, ttl time.Duration, issuer string) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
}

// TTL returns the validity period of issued tokens.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Sign issues a token for subject, returning it with its issue time.
func (s *Signer) Sign(subject string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}
	issuedAt := s.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, issuedAt, nil
}

// Parse verifies signature, algorithm, issuer and expiry and returns the subject.
func (s *Signer) Parse(raw string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}

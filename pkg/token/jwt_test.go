package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	s := NewSigner("secret", time.Hour, "portal")

	raw, issuedAt, err := s.Sign("acc-1")
	require.NoError(t, err)
	assert.False(t, issuedAt.IsZero())

	subject, err := s.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", subject)
}

func TestPayloadCarriesOnlyIdentity(t *testing.T) {
	s := NewSigner("secret", time.Hour, "portal")
	raw, _, err := s.Sign("acc-1")
	require.NoError(t, err)

	mapClaims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(raw, mapClaims)
	require.NoError(t, err)

	for key := range mapClaims {
		assert.Contains(t, []string{"iss", "sub", "iat", "nbf", "exp"}, key)
	}
	assert.NotContains(t, mapClaims, "role")
}

func TestParseRejectsExpired(t *testing.T) {
	s := NewSigner("secret", time.Hour, "portal")
	base := time.Now()
	s.now = func() time.Time { return base.Add(-2 * time.Hour) }
	raw, _, err := s.Sign("acc-1")
	require.NoError(t, err)

	s.now = func() time.Time { return base }
	_, err = s.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsWrongSecretAndGarbage(t *testing.T) {
	raw, _, err := NewSigner("secret", time.Hour, "portal").Sign("acc-1")
	require.NoError(t, err)

	_, err = NewSigner("other", time.Hour, "portal").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NewSigner("secret", time.Hour, "portal").Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NewSigner("secret", time.Hour, "someone-else").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "acc-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewSigner("secret", time.Hour, "").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMissingSecretFailsClosed(t *testing.T) {
	s := NewSigner("", time.Hour, "portal")

	_, _, err := s.Sign("acc-1")
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = s.Parse("anything")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

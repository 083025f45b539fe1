// Package password derives and verifies one-way secret hashes.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the work factor used for stored account secrets.
const DefaultCost = 10

// Bcrypt hashes secrets with a fixed bcrypt cost.
type Bcrypt struct {
	cost int
	// dummy is compared against when no stored hash exists so that unknown
	// identities take as long to reject as wrong secrets.
	dummy []byte
}

// NewBcrypt builds a hasher. Costs outside bcrypt's range fall back to DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-secret"), cost)
	if err != nil {
		panic(fmt.Sprintf("password: generate dummy hash: %v", err))
	}
	return &Bcrypt{cost: cost, dummy: dummy}
}

// Cost returns the configured work factor.
func (b *Bcrypt) Cost() int {
	return b.cost
}

// Hash derives a salted hash from secret.
func (b *Bcrypt) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), b.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether secret matches hash. An empty hash is checked
// against the dummy hash and always fails.
func (b *Bcrypt) Verify(secret, hash string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(b.dummy, []byte(secret))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

package service

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/msomdec/sena-auth/internal/domain"
)

// DefaultBcryptCost is the work factor used unless configured otherwise.
const DefaultBcryptCost = 10

// maxPasswordBytes is the most bcrypt reads; longer input is cut to it.
const maxPasswordBytes = 72

// PasswordHasher produces salted one-way hashes and verifies passwords
// against them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil on a match and domain.ErrInvalidCredentials on a
	// mismatch.
	Compare(hash, password string) error
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost. Costs outside
// bcrypt's accepted range fall back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost reports the configured work factor.
func (h *BcryptHasher) Cost() int { return h.cost }

// Hash accepts passwords of any length. Only the first 72 bytes take part,
// matching how other bcrypt implementations truncate.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordBytes(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), passwordBytes(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrInvalidCredentials
	}
	return fmt.Errorf("compare password: %w", err)
}

func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

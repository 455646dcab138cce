package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for every stored password hash.
const BcryptCost = 12

// MinPasswordLength is the shortest password accepted for an admin account.
const MinPasswordLength = 8

// Hasher turns plaintext passwords into one-way hashes and checks candidates
// against them.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// BcryptHasher implements Hasher with bcrypt at BcryptCost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a Hasher using BcryptCost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: BcryptCost}
}

// NewBcryptHasherCost returns a Hasher using cost. Anything below BcryptCost
// is only meant for tests.
func NewBcryptHasherCost(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

// Hash returns a salted bcrypt hash of plain. Passwords longer than 72 bytes
// are rejected.
func (h *BcryptHasher) Hash(plain string) (string, error) {
	cost := h.cost
	if cost == 0 {
		cost = BcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plain matches hash. Malformed hashes never match.
func (h *BcryptHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

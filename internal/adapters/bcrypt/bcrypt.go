package bcrypt

// Package bcrypt implements password hashing ports with golang.org/x/crypto/bcrypt.

import (
	"errors"
	"fmt"

	"github.com/target/gatekeeper/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords. The zero value uses bcrypt.DefaultCost.
type Hasher struct {
	Cost int
}

var (
	_ ports.PasswordHasher   = Hasher{}
	_ ports.PasswordVerifier = Hasher{}
)

// Hash returns the bcrypt hash of password.
func (h Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(out), nil
}

// Verify reports whether password matches hash. Malformed hashes never match.
func (Hasher) Verify(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Package credentials wraps the password-hashing and token-generation
// primitives the account service composes. It never stores plaintext.
package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const verificationTokenBytes = 16

// Manager hashes and verifies passwords (bcrypt) and mints one-time
// verification tokens.
type Manager struct {
	cost int
}

func NewManager(cost int) *Manager {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Manager{cost: cost}
}

// HashPassword returns the bcrypt digest of a plaintext password.
func (m *Manager) HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(digest), nil
}

// VerifyPassword reports whether the plaintext matches the stored digest.
func (m *Manager) VerifyPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// GenerateVerificationToken returns a random hex token for email verification.
func (m *Manager) GenerateVerificationToken() (string, error) {
	b := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

package credentials

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	m := NewManager(bcrypt.MinCost)

	digest, err := m.HashPassword("Str0ng!pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if digest == "Str0ng!pass" {
		t.Fatal("digest must not equal the plaintext")
	}

	if !m.VerifyPassword("Str0ng!pass", digest) {
		t.Error("correct password rejected")
	}
	if m.VerifyPassword("WrongPass1!", digest) {
		t.Error("wrong password accepted")
	}
	if m.VerifyPassword("Str0ng!pass", "not-a-bcrypt-digest") {
		t.Error("malformed digest accepted")
	}
}

func TestHashPassword_DistinctSalts(t *testing.T) {
	m := NewManager(bcrypt.MinCost)

	a, err := m.HashPassword("Str0ng!pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	b, err := m.HashPassword("Str0ng!pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if a == b {
		t.Error("two digests of the same password should differ by salt")
	}
}

func TestNewManager_DefaultCost(t *testing.T) {
	m := NewManager(0)
	if m.cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want bcrypt.DefaultCost", m.cost)
	}
}

func TestGenerateVerificationToken(t *testing.T) {
	m := NewManager(bcrypt.MinCost)

	token, err := m.GenerateVerificationToken()
	if err != nil {
		t.Fatalf("GenerateVerificationToken: %v", err)
	}
	if len(token) != verificationTokenBytes*2 {
		t.Errorf("token length = %d, want %d hex chars", len(token), verificationTokenBytes*2)
	}

	other, err := m.GenerateVerificationToken()
	if err != nil {
		t.Fatalf("GenerateVerificationToken: %v", err)
	}
	if token == other {
		t.Error("two tokens should not collide")
	}
}

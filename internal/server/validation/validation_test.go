package validation

import (
	"errors"
	"testing"

	"userhub/internal/common"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"user@example.com", true},
		{"first.last+tag@sub.example.org", true},
		{"", false},
		{"plainaddress", false},
		{"@example.com", false},
		{"user@", false},
		{"user@nodot", false},
		{"user name@example.com", false},
	}
	for _, tt := range tests {
		err := Email(tt.email)
		if tt.valid && err != nil {
			t.Errorf("Email(%q) = %v, want nil", tt.email, err)
		}
		if !tt.valid {
			if err == nil {
				t.Errorf("Email(%q) = nil, want error", tt.email)
			} else if !errors.Is(err, common.ErrorValidation) {
				t.Errorf("Email(%q) = %v, want ErrorValidation", tt.email, err)
			}
		}
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"ok", "Str0ng!pass", true},
		{"too short", "S1!a", false},
		{"no uppercase", "weakpass1!", false},
		{"no lowercase", "WEAKPASS1!", false},
		{"no digit", "Weakpass!!", false},
		{"no special", "Weakpass11", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Password(tt.password)
			if tt.valid && err != nil {
				t.Fatalf("Password(%q) = %v, want nil", tt.password, err)
			}
			if !tt.valid && !errors.Is(err, common.ErrorValidation) {
				t.Fatalf("Password(%q) = %v, want ErrorValidation", tt.password, err)
			}
		})
	}
}

func TestURL(t *testing.T) {
	for _, url := range []string{
		"https://example.com",
		"http://example.com/path?q=1",
		"https://sub.example.co.uk/a/b",
	} {
		if err := URL(url); err != nil {
			t.Errorf("URL(%q) = %v, want nil", url, err)
		}
	}
	for _, url := range []string{
		"",
		"example.com",
		"ftp://example.com",
		"https://bad url.com",
	} {
		if err := URL(url); !errors.Is(err, common.ErrorValidation) {
			t.Errorf("URL(%q) = %v, want ErrorValidation", url, err)
		}
	}
}

func TestNickname(t *testing.T) {
	for _, nick := range []string{"bob", "swift_otter_42", "jean-luc", "ABC"} {
		if err := Nickname(nick); err != nil {
			t.Errorf("Nickname(%q) = %v, want nil", nick, err)
		}
	}
	for _, nick := range []string{"", "ab", "no spaces", "bad!chars", "dot.ted"} {
		if err := Nickname(nick); !errors.Is(err, common.ErrorValidation) {
			t.Errorf("Nickname(%q) = %v, want ErrorValidation", nick, err)
		}
	}
}

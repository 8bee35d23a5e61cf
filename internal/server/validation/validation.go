// Package validation checks caller-supplied account fields against the
// format and complexity rules enforced at creation and update time.
package validation

import (
	"fmt"
	"regexp"
	"unicode"

	"userhub/internal/common"
)

var (
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	urlRe      = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
	nicknameRe = regexp.MustCompile(`^[\w-]+$`)
)

const minPasswordLength = 8

// Email validates the basic shape of an email address.
func Email(email string) error {
	if !emailRe.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", common.ErrorValidation)
	}
	return nil
}

// Password enforces the complexity policy: minimum length 8 with at least
// one uppercase, one lowercase, one digit and one non-alphanumeric character.
func Password(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLength)
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	switch {
	case !upper:
		return fmt.Errorf("%w: password must contain at least one uppercase letter", common.ErrorValidation)
	case !lower:
		return fmt.Errorf("%w: password must contain at least one lowercase letter", common.ErrorValidation)
	case !digit:
		return fmt.Errorf("%w: password must contain at least one digit", common.ErrorValidation)
	case !special:
		return fmt.Errorf("%w: password must contain at least one special character", common.ErrorValidation)
	}
	return nil
}

// URL validates profile link fields (http or https only).
func URL(url string) error {
	if !urlRe.MatchString(url) {
		return fmt.Errorf("%w: invalid URL format", common.ErrorValidation)
	}
	return nil
}

// Nickname validates the handle format: word characters and dashes, at
// least three characters.
func Nickname(nickname string) error {
	if len(nickname) < 3 || !nicknameRe.MatchString(nickname) {
		return fmt.Errorf("%w: invalid nickname format", common.ErrorValidation)
	}
	return nil
}

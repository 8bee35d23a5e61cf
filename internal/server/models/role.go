package models

import "fmt"

// Role is the closed set of roles an account can hold. It is stored as a
// Postgres enum; boundary code converts incoming strings with ParseRole once
// and carries the typed value from there.
type Role string

const (
	RoleAnonymous     Role = "ANONYMOUS"
	RoleAuthenticated Role = "AUTHENTICATED"
	RoleManager       Role = "MANAGER"
	RoleAdmin         Role = "ADMIN"
)

// ParseRole converts a string into a Role, rejecting anything outside the
// four known variants.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAnonymous, RoleAuthenticated, RoleManager, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string { return string(r) }

// Package accounts holds clinic users, their sessions and the role-specific
// dashboards shown after login.
package accounts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned for a role outside the closed set below.
var ErrUnknownRole = errors.New("accounts: unknown role")

// Role is the kind of user signed in.
type Role string

const (
	RolePatient      Role = "patient"
	RolePractitioner Role = "practitioner"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RolePractitioner:
		return true
	default:
		return false
	}
}

// ParseRole normalizes s into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// User is a clinic account.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
}

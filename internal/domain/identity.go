package domain

import (
	"slices"
	"unicode/utf8"
)

const (
	AdminRole   = "admin"
	DefaultRole = "user"

	// MinPasswordLength counts characters.
	MinPasswordLength = 8
	// MaxPasswordLength counts bytes; bcrypt ignores everything past 72.
	MaxPasswordLength = 72
)

// Identity is the caller resolved from a bearer token and a store lookup.
type Identity struct {
	UserID   uint
	Username string
	Roles    []string
}

// HasRole compares role names exactly; "Admin" and "admin" are different roles.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	return slices.Contains(i.Roles, role)
}

// RequireRole is the role gate evaluated before every role-guarded operation.
func RequireRole(identity *Identity, role string) error {
	if identity == nil {
		return ErrUnauthenticated
	}
	if !identity.HasRole(role) {
		return ErrForbidden
	}
	return nil
}

func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

package domain

import (
	"errors"
	"fmt"
)

// Base kinds. Every error returned by the store and the service wraps exactly
// one of these, which is what the HTTP layer maps to a status code.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("You do not have access to this resource")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvariant       = errors.New("invariant violation")
)

var (
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrRoleNotFound       = fmt.Errorf("role %w", ErrNotFound)
	ErrUsernameTaken      = fmt.Errorf("username already taken: %w", ErrConflict)
	ErrRoleExists         = fmt.Errorf("role already exists: %w", ErrConflict)
	ErrEmptyUsername      = fmt.Errorf("username is required: %w", ErrValidation)
	ErrEmptyRoleName      = fmt.Errorf("role name is required: %w", ErrValidation)
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, ErrValidation)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes: %w", MaxPasswordLength, ErrValidation)
	ErrInvalidCredentials = fmt.Errorf("incorrect username or password: %w", ErrUnauthenticated)
	ErrWrongOldPassword   = fmt.Errorf("old password is incorrect: %w", ErrUnauthenticated)
	ErrLastAdmin          = fmt.Errorf("cannot remove the last admin user: %w", ErrInvariant)
	ErrProtectedRole      = fmt.Errorf("the %q role cannot be deleted: %w", AdminRole, ErrInvariant)
)

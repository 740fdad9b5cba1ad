package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireRole(t *testing.T) {
	t.Parallel()

	admin := &Identity{Username: "root", Roles: []string{AdminRole}}
	user := &Identity{Username: "bob", Roles: []string{DefaultRole}}
	both := &Identity{Username: "eve", Roles: []string{DefaultRole, "editor", AdminRole}}
	none := &Identity{Username: "ghost"}

	tests := []struct {
		name     string
		identity *Identity
		role     string
		want     error
	}{
		{name: "admin allowed", identity: admin, role: AdminRole},
		{name: "user denied admin", identity: user, role: AdminRole, want: ErrForbidden},
		{name: "user allowed user", identity: user, role: DefaultRole},
		{name: "multi-role allowed", identity: both, role: "editor"},
		{name: "no roles denied", identity: none, role: DefaultRole, want: ErrForbidden},
		{name: "case sensitive", identity: admin, role: "Admin", want: ErrForbidden},
		{name: "nil identity", identity: nil, role: AdminRole, want: ErrUnauthenticated},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := RequireRole(tt.identity, tt.role)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePassword("12345678"))
	assert.ErrorIs(t, ValidatePassword("1234567"), ErrWeakPassword)
	assert.ErrorIs(t, ValidatePassword(""), ErrValidation)
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("a", MaxPasswordLength+1)), ErrPasswordTooLong)

	// four characters, eight bytes
	assert.ErrorIs(t, ValidatePassword("éééé"), ErrWeakPassword)
	assert.NoError(t, ValidatePassword("éééééééé"))
	// 25 characters, 75 bytes
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("密", 25)), ErrPasswordTooLong)
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	kinds := map[error]error{
		ErrUserNotFound:       ErrNotFound,
		ErrRoleNotFound:       ErrNotFound,
		ErrUsernameTaken:      ErrConflict,
		ErrRoleExists:         ErrConflict,
		ErrWeakPassword:       ErrValidation,
		ErrInvalidCredentials: ErrUnauthenticated,
		ErrLastAdmin:          ErrInvariant,
		ErrProtectedRole:      ErrInvariant,
	}
	for err, kind := range kinds {
		assert.True(t, errors.Is(err, kind), err.Error())
	}
	assert.Equal(t, "user not found", ErrUserNotFound.Error())
}

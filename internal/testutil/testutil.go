package testutil

import (
	"context"
	"testing"

	"github.com/Skotchmaster/rbac_auth/internal/db"
	"github.com/Skotchmaster/rbac_auth/internal/hash"
	"github.com/Skotchmaster/rbac_auth/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// OpenInMemoryDB opens a migrated in-memory SQLite database that is closed
// when the test ends.
func OpenInMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err, "open test db")
	require.NoError(t, db.Migrate(gdb), "migrate test db")
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

// CreateUser inserts a user directly, creating any missing roles.
func CreateUser(t *testing.T, gdb *gorm.DB, username, password string, roles ...string) *models.User {
	t.Helper()

	hashed, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := models.User{Username: username, HashedPassword: hashed}
	for _, name := range roles {
		role := models.Role{}
		require.NoError(t, gdb.Where(models.Role{Name: name}).FirstOrCreate(&role).Error)
		user.Roles = append(user.Roles, role)
	}
	require.NoError(t, gdb.Omit("Roles.*").Create(&user).Error)
	return &user
}

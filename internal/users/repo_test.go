package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tatlico/tatlico-backend/pkg/enums"
)

func setupUserTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'analyst',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func boolPtr(v bool) *bool {
	return &v
}

func TestCreateDefaultsToActiveAnalyst(t *testing.T) {
	repo := NewRepository(setupUserTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{
		Email:        "ayse@tatlico.com",
		PasswordHash: "hash",
		FirstName:    "Ayşe",
		LastName:     "Kaya",
	})
	require.NoError(t, err)

	reloaded, err := repo.FindByEmail(ctx, "ayse@tatlico.com")
	require.NoError(t, err)
	assert.True(t, reloaded.IsActive)
	assert.Equal(t, enums.MemberRoleAnalyst, reloaded.Role)
}

func TestCreatePersistsInactiveUser(t *testing.T) {
	repo := NewRepository(setupUserTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{
		Email:        "pasif@tatlico.com",
		PasswordHash: "hash",
		FirstName:    "Deniz",
		LastName:     "Aslan",
		Role:         enums.MemberRolePartner,
		IsActive:     boolPtr(false),
	})
	require.NoError(t, err)

	reloaded, err := repo.FindByEmail(ctx, "pasif@tatlico.com")
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive, "false must survive the insert, not be swallowed by a column default")
	assert.Equal(t, enums.MemberRolePartner, reloaded.Role)
}

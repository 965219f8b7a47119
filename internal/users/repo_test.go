package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL,
  university TEXT NOT NULL,
  reputation INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *UserDTO {
	t.Helper()

	user := CreateUserDTO{
		Email:        email,
		PasswordHash: "$argon2id$test",
		Name:         "Alex Rivera",
		University:   "columbia",
	}.ToModel()
	user.ID = uuid.New()
	require.NoError(t, db.Create(user).Error)
	return FromModel(user)
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := createTestUser(t, db, "ar1234@columbia.edu")

	byEmail, err := repo.FindByEmail(ctx, "ar1234@columbia.edu")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.True(t, byEmail.IsActive)
	assert.Equal(t, 0, byEmail.Reputation)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "columbia", byID.University)
}

func TestRepositoryIncrementReputation(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "bw2001@columbia.edu")

	total, err := repo.IncrementReputation(ctx, user.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	total, err = repo.IncrementReputation(ctx, user.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, total)

	_, err = repo.IncrementReputation(ctx, uuid.New(), 5)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateLastLogin(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "cd3456@columbia.edu")
	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))

	loaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.LastLoginAt)
	assert.WithinDuration(t, at, *loaded.LastLoginAt, time.Second)
}

package database

import (
	"context"
	"fmt"
	"testing"

	"skillmarket_backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(Options{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Options{Driver: "oracle", DSN: "x"})
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = Open(Options{Driver: "sqlite"})
	assert.ErrorContains(t, err, "dsn is empty")
}

func TestAutoMigrate_CreatesSchema(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"users", "verification_codes", "password_reset_tokens", "profiles", "skills", "portfolio_items", "pending_notifications"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Profile{}, "UserID"))
	assert.NoError(t, Ping(context.Background(), db))
}

func TestOpen_TranslatesDuplicateKey(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, db.Create(&models.User{Email: "dup@example.com", PasswordHash: "x"}).Error)
	err := db.Create(&models.User{Email: "dup@example.com", PasswordHash: "y"}).Error

	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestOpen_ForeignKeysCascade(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, AutoMigrate(db))

	user := &models.User{Email: "fk@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	profile := &models.Profile{UserID: user.ID, FullName: "FK"}
	require.NoError(t, db.Create(profile).Error)
	require.NoError(t, db.Create(&models.Skill{ProfileID: profile.ID, Name: "Go"}).Error)

	require.NoError(t, db.Delete(profile).Error)

	var count int64
	require.NoError(t, db.Model(&models.Skill{}).Where("profile_id = ?", profile.ID).Count(&count).Error)
	assert.Zero(t, count)
}

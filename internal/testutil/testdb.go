package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"skillmarket_backend/database"
	"skillmarket_backend/internal/auth"
	"skillmarket_backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewTestDB открывает изолированную sqlite-базу в памяти с примененными миграциями
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Options{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err, "не удалось открыть тестовую БД")
	require.NoError(t, database.AutoMigrate(db), "не удалось применить миграции")

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// CreateUser создает пользователя; пароль в PasswordHash хешируется, если он еще не хеш
func CreateUser(t *testing.T, db *gorm.DB, email, password string, verified bool) *models.User {
	t.Helper()

	hash := password
	if !strings.HasPrefix(password, "$2a$") {
		var err error
		hash, err = auth.HashPasswordWithCost(password, bcrypt.MinCost)
		require.NoError(t, err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		IsVerified:   verified,
	}
	require.NoError(t, db.Create(user).Error, "не удалось создать пользователя %s", email)
	return user
}

// CreateVerificationCode сохраняет код подтверждения с заданным сроком жизни
func CreateVerificationCode(t *testing.T, db *gorm.DB, userID, code string, expiresAt time.Time) *models.VerificationCode {
	t.Helper()

	vc := &models.VerificationCode{UserID: userID, Code: code, ExpiresAt: expiresAt}
	require.NoError(t, db.Create(vc).Error)
	return vc
}

// CreateResetToken сохраняет токен сброса пароля
func CreateResetToken(t *testing.T, db *gorm.DB, userID, token string, expiresAt time.Time) *models.PasswordResetToken {
	t.Helper()

	rt := &models.PasswordResetToken{UserID: userID, Token: token, ExpiresAt: expiresAt}
	require.NoError(t, db.Create(rt).Error)
	return rt
}

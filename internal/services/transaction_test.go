package services

import (
	"context"
	"errors"
	"testing"

	"skillmarket_backend/internal/services/dto"
	"skillmarket_backend/pkg/apperrors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestRegister_RollsBackOnQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	f := newOutboxFixture(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := f.svc.Register(context.Background(), db, &dto.RegisterRequest{Email: "a@x.com", Password: strongPassword})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDatabaseError))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyEmail_RollsBackOnInvalidCode(t *testing.T) {
	db, mock := newMockDB(t)
	f := newOutboxFixture(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "verification_codes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "code", "expires_at"}))
	mock.ExpectRollback()

	_, err := f.svc.VerifyEmail(context.Background(), db, &dto.VerifyEmailRequest{UserID: "u1", Code: "123456"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetPassword_BeginFailure(t *testing.T) {
	db, mock := newMockDB(t)
	f := newOutboxFixture(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := f.svc.ResetPassword(context.Background(), db, &dto.ResetPasswordRequest{
		Token:       "0000000000000000000000000000000000000000000000000000000000000000",
		NewPassword: "NewPass1!",
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDatabaseError))
	assert.NoError(t, mock.ExpectationsWereMet())
}

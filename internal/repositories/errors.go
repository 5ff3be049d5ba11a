package repositories

import (
	"errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrCodeNotFound         = errors.New("verification code not found")
	ErrResetTokenNotFound   = errors.New("password reset token not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// isUniqueViolation распознает нарушение уникального ключа.
// С TranslateError GORM сам возвращает ErrDuplicatedKey, коды драйверов
// проверяются для соединений, открытых без него.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	return false
}

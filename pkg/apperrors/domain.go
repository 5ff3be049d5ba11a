package apperrors

import (
	"net/http"
)

/*
Предопределенные ошибки аккаунта, профиля и загрузок.
Значения общие для всех запросов: не вызывайте на них WithDetails,
для деталей используйте Clone().
*/

// =========================================================================
// Аккаунт
// =========================================================================

// ErrWeakPassword - пароль не проходит политику сложности.
var ErrWeakPassword = New(
	CodeWeakPassword,
	"auth",
	"Password must be at least 8 characters long and contain an uppercase letter, a lowercase letter, a digit and one of . $ @ ! % * ? &",
	http.StatusBadRequest,
)

// ErrEmailAlreadyExists - email уже зарегистрирован.
var ErrEmailAlreadyExists = New(
	CodeEmailAlreadyExists,
	"auth",
	"Email is already registered",
	http.StatusBadRequest,
)

// ErrInvalidCredentials - неизвестный email или неверный пароль.
// Одно и то же сообщение для обоих случаев.
var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusBadRequest,
)

// ErrUserNotVerified - email не подтвержден.
var ErrUserNotVerified = New(
	CodeUserNotVerified,
	"auth",
	"Account is not verified. Please check your email for the verification code",
	http.StatusForbidden,
)

// ErrInvalidCode - пары (пользователь, код) не существует.
var ErrInvalidCode = New(
	CodeInvalidCode,
	"auth",
	"Invalid verification code",
	http.StatusBadRequest,
)

// ErrCodeExpired - код найден, но срок его действия истек.
var ErrCodeExpired = New(
	CodeCodeExpired,
	"auth",
	"Verification code has expired",
	http.StatusBadRequest,
)

// ErrInvalidResetToken - токен сброса пароля не найден.
var ErrInvalidResetToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid password reset token",
	http.StatusBadRequest,
)

// ErrResetTokenExpired - токен сброса пароля просрочен.
var ErrResetTokenExpired = New(
	CodeTokenExpired,
	"auth",
	"Password reset token has expired",
	http.StatusBadRequest,
)

// ErrMissingSessionToken - запрос к защищенному ресурсу без токена.
var ErrMissingSessionToken = NewUnauthorizedError("Authorization token is required")

// ErrInvalidSessionToken - подпись неверна или срок действия истек.
var ErrInvalidSessionToken = NewForbiddenError("Invalid or expired token")

// =========================================================================
// Профиль
// =========================================================================

// ErrProfileNotFound - у пользователя нет профиля.
var ErrProfileNotFound = New(
	CodeProfileNotFound,
	"profile",
	"Profile not found",
	http.StatusNotFound,
)

// =========================================================================
// Загрузки
// =========================================================================

// ErrFileNotFound - запрошенного файла нет в хранилище.
var ErrFileNotFound = NewNotFoundError("upload", "File not found")

// ErrFileTooLarge - файл превышает максимальный размер.
var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"upload",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

// ErrInvalidFileType - MIME-тип файла не разрешен.
var ErrInvalidFileType = New(
	CodeValidationFailed,
	"upload",
	"Only image files are allowed",
	http.StatusUnsupportedMediaType,
)

// ErrTooManyFiles - превышено количество файлов в поле.
var ErrTooManyFiles = New(
	CodeLimitExceeded,
	"upload",
	"Too many files submitted",
	http.StatusBadRequest,
)

// ErrRateLimited - клиент превысил лимит запросов.
var ErrRateLimited = New(
	CodeRateLimited,
	"request",
	"Too many requests. Please slow down",
	http.StatusTooManyRequests,
)

// =========================================================================
// Фабрики для внешних зависимостей (DependencyError)
// =========================================================================

// DatabaseError оборачивает ошибку хранилища.
func DatabaseError(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "database", "Database error", http.StatusInternalServerError)
}

// NotificationError оборачивает ошибку почтового канала.
func NotificationError(err error) *AppError {
	return Wrap(err, CodeExternalServiceError, "email", "Failed to send email", http.StatusInternalServerError)
}

// StorageError оборачивает ошибку файлового хранилища.
func StorageError(err error) *AppError {
	return Wrap(err, CodeExternalServiceError, "storage", "Failed to store file", http.StatusInternalServerError)
}

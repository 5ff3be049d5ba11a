package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// Общие, не-доменные коды ошибок
const (
	// Системные ошибки (DependencyError)
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Ошибки входных данных (ValidationError)
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeLimitExceeded    ErrorCode = "LIMIT_EXCEEDED"
	CodeRateLimited      ErrorCode = "RATE_LIMITED"

	CodeNotFound ErrorCode = "NOT_FOUND"

	// Аутентификация и авторизация (AuthError)
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeUserNotVerified    ErrorCode = "USER_NOT_VERIFIED"
)

// Доменные коды аккаунта и профиля
const (
	CodeWeakPassword       ErrorCode = "WEAK_PASSWORD"
	CodeEmailAlreadyExists ErrorCode = "EMAIL_ALREADY_EXISTS"
	CodeInvalidCode        ErrorCode = "INVALID_CODE"
	CodeCodeExpired        ErrorCode = "CODE_EXPIRED"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	CodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	CodeProfileNotFound    ErrorCode = "PROFILE_NOT_FOUND"
	CodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
)

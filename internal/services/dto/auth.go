package dto

// RegisterRequest - запрос регистрации
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// RegisterResponse - ответ на регистрацию
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// VerifyEmailRequest - запрос подтверждения email кодом
type VerifyEmailRequest struct {
	UserID string `json:"userId" validate:"required,max=36"`
	Code   string `json:"code" validate:"required,verification-code"`
}

// LoginRequest - запрос входа
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse - ответ подтверждения email и входа
type SessionResponse struct {
	Message         string  `json:"message,omitempty"`
	Token           string  `json:"token"`
	UserID          string  `json:"userId"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

// ForgotPasswordRequest - запрос ссылки сброса пароля
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest - установка нового пароля по токену
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required,reset-token"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// MessageResponse - ответ с текстовым сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

package validator

import (
	"log"

	"github.com/go-playground/validator/v10"
)

const (
	verificationCodeLength = 6
	resetTokenLength       = 64
)

// registerCustomRules регистрирует кастомные функции валидации.
// Ошибка регистрации - ошибка программиста, приложение не должно стартовать.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'verification-code': ровно 6 ASCII-цифр
	mustRegister("verification-code", validateVerificationCode)

	// 'reset-token': 64 hex-символа в нижнем регистре
	mustRegister("reset-token", validateResetToken)
}

func validateVerificationCode(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // пустые значения обрабатывает 'required'
	}
	if len(value) != verificationCodeLength {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}

func validateResetToken(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if len(value) != resetTokenLength {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

package repositories

import (
	"errors"
	"time"

	"skillmarket_backend/internal/models"

	"gorm.io/gorm"
)

// TokenRepository - короткоживущие коды подтверждения и токены сброса пароля
type TokenRepository interface {
	CreateVerificationCode(db *gorm.DB, code *models.VerificationCode) error
	// FindVerificationCode ищет пару (пользователь, код) без учета срока действия
	FindVerificationCode(db *gorm.DB, userID, code string) (*models.VerificationCode, error)
	DeleteUserVerificationCodes(db *gorm.DB, userID string) error

	CreateResetToken(db *gorm.DB, token *models.PasswordResetToken) error
	FindResetToken(db *gorm.DB, token string) (*models.PasswordResetToken, error)
	DeleteResetToken(db *gorm.DB, id string) error

	// DeleteExpired удаляет просроченные коды и токены
	DeleteExpired(db *gorm.DB, now time.Time) (codes int64, tokens int64, err error)
}

type tokenRepository struct{}

func NewTokenRepository() TokenRepository {
	return &tokenRepository{}
}

func (r *tokenRepository) CreateVerificationCode(db *gorm.DB, code *models.VerificationCode) error {
	return db.Create(code).Error
}

func (r *tokenRepository) FindVerificationCode(db *gorm.DB, userID, code string) (*models.VerificationCode, error) {
	var vc models.VerificationCode
	err := db.Where("user_id = ? AND code = ?", userID, code).
		Order("expires_at DESC").
		First(&vc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return &vc, nil
}

func (r *tokenRepository) DeleteUserVerificationCodes(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.VerificationCode{}).Error
}

func (r *tokenRepository) CreateResetToken(db *gorm.DB, token *models.PasswordResetToken) error {
	return db.Create(token).Error
}

func (r *tokenRepository) FindResetToken(db *gorm.DB, token string) (*models.PasswordResetToken, error) {
	var rt models.PasswordResetToken
	if err := db.Where("token = ?", token).First(&rt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResetTokenNotFound
		}
		return nil, err
	}
	return &rt, nil
}

func (r *tokenRepository) DeleteResetToken(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.PasswordResetToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrResetTokenNotFound
	}
	return nil
}

func (r *tokenRepository) DeleteExpired(db *gorm.DB, now time.Time) (int64, int64, error) {
	codes := db.Where("expires_at <= ?", now).Delete(&models.VerificationCode{})
	if codes.Error != nil {
		return 0, 0, codes.Error
	}
	tokens := db.Where("expires_at <= ?", now).Delete(&models.PasswordResetToken{})
	if tokens.Error != nil {
		return codes.RowsAffected, 0, tokens.Error
	}
	return codes.RowsAffected, tokens.RowsAffected, nil
}

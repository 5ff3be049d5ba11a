package models

import "time"

type User struct {
	BaseModel
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	IsVerified   bool   `gorm:"default:false;not null"`

	// Relations
	Profile             *Profile             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	VerificationCodes   []VerificationCode   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	PasswordResetTokens []PasswordResetToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// VerificationCode - 6-значный код подтверждения email
type VerificationCode struct {
	BaseModel
	UserID    string    `gorm:"type:varchar(36);not null;index:idx_verification_user_code"`
	Code      string    `gorm:"type:varchar(6);not null;index:idx_verification_user_code"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (c *VerificationCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// PasswordResetToken - одноразовый токен сброса пароля
type PasswordResetToken struct {
	BaseModel
	UserID    string    `gorm:"type:varchar(36);not null;index"`
	Token     string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

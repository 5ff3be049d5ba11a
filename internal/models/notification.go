package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationKind string

const (
	NotificationVerificationCode NotificationKind = "verification_code"
	NotificationPasswordReset    NotificationKind = "password_reset"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// PendingNotification - запись outbox: письмо фиксируется в той же транзакции,
// что и данные, и доставляется после коммита
type PendingNotification struct {
	BaseModel
	Kind          NotificationKind   `gorm:"type:varchar(32);not null"`
	Recipient     string             `gorm:"type:varchar(255);not null"`
	Payload       datatypes.JSON     `gorm:"not null"`
	Status        NotificationStatus `gorm:"type:varchar(16);not null;default:'pending';index:idx_notification_due"`
	Attempts      int                `gorm:"not null;default:0"`
	LastError     string             `gorm:"type:text"`
	NextAttemptAt time.Time          `gorm:"not null;index:idx_notification_due"`
	SentAt        *time.Time
}

// VerificationPayload - данные письма с кодом подтверждения
type VerificationPayload struct {
	Code string `json:"code"`
}

// PasswordResetPayload - данные письма со ссылкой сброса
type PasswordResetPayload struct {
	ResetLink string `json:"reset_link"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel - UUID генерируется в приложении, чтобы схема была одинаковой
// для postgres, mysql и sqlite
type BaseModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// All возвращает модели для AutoMigrate в порядке зависимостей
func All() []interface{} {
	return []interface{}{
		&User{},
		&VerificationCode{},
		&PasswordResetToken{},
		&Profile{},
		&Skill{},
		&PortfolioItem{},
		&PendingNotification{},
	}
}

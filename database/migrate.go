package database

import (
	"fmt"

	"skillmarket_backend/internal/logger"
	"skillmarket_backend/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate создает или обновляет схему всех моделей
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	logger.Info("AutoMigrate completed", "tables", len(models.All()))
	return nil
}

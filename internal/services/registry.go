package services

import (
	"skillmarket_backend/internal/email"
	"skillmarket_backend/internal/storage"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService         AuthService
	ProfileService      ProfileService
	UploadService       UploadService
	NotificationService NotificationService
	EmailProvider       email.Provider
	Storage             storage.Storage
}

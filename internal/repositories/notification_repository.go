package repositories

import (
	"errors"
	"time"

	"skillmarket_backend/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository - outbox писем
type NotificationRepository interface {
	Create(db *gorm.DB, n *models.PendingNotification) error
	FindByID(db *gorm.DB, id string) (*models.PendingNotification, error)
	// FindDue возвращает pending-записи, время попытки которых наступило
	FindDue(db *gorm.DB, now time.Time, limit int) ([]models.PendingNotification, error)
	// Claim резервирует pending-запись под попытку: attempts увеличивается,
	// next_attempt_at сдвигается на leaseUntil. false - запись уже взял
	// другой отправитель или она больше не pending.
	Claim(db *gorm.DB, id string, attempts int, leaseUntil time.Time) (bool, error)
	MarkSent(db *gorm.DB, id string, sentAt time.Time) error
	// MarkFailedAttempt фиксирует неудачную попытку; при final=true запись становится failed
	MarkFailedAttempt(db *gorm.DB, id string, attempts int, lastErr string, nextAttemptAt time.Time, final bool) error
	DeleteSentBefore(db *gorm.DB, before time.Time) (int64, error)
}

type notificationRepository struct{}

func NewNotificationRepository() NotificationRepository {
	return &notificationRepository{}
}

func (r *notificationRepository) Create(db *gorm.DB, n *models.PendingNotification) error {
	if n.Status == "" {
		n.Status = models.NotificationStatusPending
	}
	return db.Create(n).Error
}

func (r *notificationRepository) FindByID(db *gorm.DB, id string) (*models.PendingNotification, error) {
	var n models.PendingNotification
	if err := db.First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) FindDue(db *gorm.DB, now time.Time, limit int) ([]models.PendingNotification, error) {
	var items []models.PendingNotification
	err := db.Where("status = ? AND next_attempt_at <= ?", models.NotificationStatusPending, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *notificationRepository) Claim(db *gorm.DB, id string, attempts int, leaseUntil time.Time) (bool, error) {
	result := db.Model(&models.PendingNotification{}).
		Where("id = ? AND status = ? AND attempts = ?", id, models.NotificationStatusPending, attempts).
		Updates(map[string]interface{}{
			"attempts":        attempts + 1,
			"next_attempt_at": leaseUntil,
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *notificationRepository) MarkSent(db *gorm.DB, id string, sentAt time.Time) error {
	result := db.Model(&models.PendingNotification{}).
		Where("id = ? AND status = ?", id, models.NotificationStatusPending).
		Updates(map[string]interface{}{
			"status":     models.NotificationStatusSent,
			"sent_at":    sentAt,
			"last_error": "",
			"updated_at": sentAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) MarkFailedAttempt(db *gorm.DB, id string, attempts int, lastErr string, nextAttemptAt time.Time, final bool) error {
	status := models.NotificationStatusPending
	if final {
		status = models.NotificationStatusFailed
	}

	result := db.Model(&models.PendingNotification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"attempts":        attempts,
			"last_error":      lastErr,
			"next_attempt_at": nextAttemptAt,
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) DeleteSentBefore(db *gorm.DB, before time.Time) (int64, error) {
	result := db.Where("status = ? AND sent_at < ?", models.NotificationStatusSent, before).
		Delete(&models.PendingNotification{})
	return result.RowsAffected, result.Error
}

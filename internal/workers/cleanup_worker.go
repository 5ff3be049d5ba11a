package workers

import (
	"context"
	"time"

	"skillmarket_backend/internal/logger"
	"skillmarket_backend/internal/repositories"

	"gorm.io/gorm"
)

const (
	cleanupInterval = 15 * time.Minute
	// sentRetention - сколько хранятся доставленные записи outbox
	sentRetention = 7 * 24 * time.Hour
)

// CleanupWorker удаляет просроченные коды, токены сброса и старые доставленные письма
type CleanupWorker struct {
	db               *gorm.DB
	tokenRepo        repositories.TokenRepository
	notificationRepo repositories.NotificationRepository
	interval         time.Duration
	now              func() time.Time
}

func NewCleanupWorker(db *gorm.DB, tokenRepo repositories.TokenRepository, notificationRepo repositories.NotificationRepository) *CleanupWorker {
	return &CleanupWorker{
		db:               db,
		tokenRepo:        tokenRepo,
		notificationRepo: notificationRepo,
		interval:         cleanupInterval,
		now:              time.Now,
	}
}

// Run блокируется до отмены ctx; первая очистка выполняется сразу
func (w *CleanupWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup worker stopped")
			return nil
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

func (w *CleanupWorker) Tick(ctx context.Context) {
	db := w.db.WithContext(ctx)
	now := w.now().UTC()

	codes, tokens, err := w.tokenRepo.DeleteExpired(db, now)
	if err != nil {
		if ctx.Err() == nil {
			logger.WorkerLog("cleanup", "delete_expired_tokens", err)
		}
		return
	}

	sent, err := w.notificationRepo.DeleteSentBefore(db, now.Add(-sentRetention))
	if err != nil {
		if ctx.Err() == nil {
			logger.WorkerLog("cleanup", "delete_sent_notifications", err)
		}
		return
	}

	if codes+tokens+sent > 0 {
		logger.WorkerLog("cleanup", "purge", nil, "codes", codes, "reset_tokens", tokens, "notifications", sent)
	}
}

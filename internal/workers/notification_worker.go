package workers

import (
	"context"
	"time"

	"skillmarket_backend/internal/logger"
	"skillmarket_backend/internal/services"

	"gorm.io/gorm"
)

const notificationBatchSize = 20

// NotificationWorker досылает письма outbox, которые не ушли сразу после коммита
type NotificationWorker struct {
	db            *gorm.DB
	notifications services.NotificationService
	interval      time.Duration
	batchSize     int
}

func NewNotificationWorker(db *gorm.DB, notifications services.NotificationService, interval time.Duration) *NotificationWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &NotificationWorker{
		db:            db,
		notifications: notifications,
		interval:      interval,
		batchSize:     notificationBatchSize,
	}
}

// Run блокируется до отмены ctx
func (w *NotificationWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Notification worker started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification worker stopped")
			return nil
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick выбирает пакеты записей, пока они заполняются целиком
func (w *NotificationWorker) Tick(ctx context.Context) {
	for ctx.Err() == nil {
		stats, err := w.notifications.DeliverDue(ctx, w.db, w.batchSize)
		if err != nil {
			if ctx.Err() == nil {
				logger.WorkerLog("notification", "deliver_due", err)
			}
			return
		}
		if stats.Sent+stats.Failed > 0 {
			logger.WorkerLog("notification", "deliver_due", nil, "sent", stats.Sent, "failed", stats.Failed)
		}
		if stats.Sent+stats.Failed+stats.Skipped < w.batchSize {
			return
		}
	}
}

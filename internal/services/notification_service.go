package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"skillmarket_backend/internal/email"
	"skillmarket_backend/internal/logger"
	"skillmarket_backend/internal/models"
	"skillmarket_backend/internal/repositories"
	"skillmarket_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationService доставляет письма аккаунта: сразу или через outbox
type NotificationService interface {
	// Enqueue записывает письмо в outbox в транзакции вызывающего
	Enqueue(db *gorm.DB, kind models.NotificationKind, recipient string, payload interface{}) (*models.PendingNotification, error)

	// Send отправляет письмо немедленно, без outbox
	Send(ctx context.Context, kind models.NotificationKind, recipient string, payload interface{}) error

	// Deliver пытается доставить запись outbox и фиксирует результат
	Deliver(ctx context.Context, db *gorm.DB, n *models.PendingNotification) error

	// DeliverDue доставляет записи, время попытки которых наступило
	DeliverDue(ctx context.Context, db *gorm.DB, limit int) (DeliveryStats, error)
}

// DeliveryStats - итог пакетной доставки
type DeliveryStats struct {
	Sent   int
	Failed int
	// Skipped - записи, которые успел занять другой отправитель
	Skipped int
}

// deliveryLease - на это время занятая запись скрыта от других отправителей;
// если процесс упал посреди отправки, запись снова станет due после lease
const deliveryLease = 5 * time.Minute

type NotificationConfig struct {
	MaxAttempts int
	// FirstRetryDelay - пауза перед тем, как запись увидит воркер;
	// за это время отрабатывает попытка сразу после коммита
	FirstRetryDelay time.Duration
	CodeTTL         time.Duration
	ResetTokenTTL   time.Duration
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	provider         email.Provider
	renderer         email.TemplateRenderer
	config           NotificationConfig
	now              func() time.Time
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	provider email.Provider,
	renderer email.TemplateRenderer,
	config NotificationConfig,
) NotificationService {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	if config.FirstRetryDelay <= 0 {
		config.FirstRetryDelay = time.Minute
	}
	if config.CodeTTL <= 0 {
		config.CodeTTL = VerificationCodeTTL
	}
	if config.ResetTokenTTL <= 0 {
		config.ResetTokenTTL = ResetTokenTTL
	}

	return &notificationService{
		notificationRepo: notificationRepo,
		provider:         provider,
		renderer:         renderer,
		config:           config,
		now:              time.Now,
	}
}

func (s *notificationService) Enqueue(db *gorm.DB, kind models.NotificationKind, recipient string, payload interface{}) (*models.PendingNotification, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.InternalError(fmt.Errorf("failed to encode notification payload: %w", err))
	}

	n := &models.PendingNotification{
		Kind:          kind,
		Recipient:     recipient,
		Payload:       datatypes.JSON(raw),
		Status:        models.NotificationStatusPending,
		NextAttemptAt: s.now().UTC().Add(s.config.FirstRetryDelay),
	}
	if err := s.notificationRepo.Create(db, n); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return n, nil
}

func (s *notificationService) Send(ctx context.Context, kind models.NotificationKind, recipient string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return apperrors.InternalError(fmt.Errorf("failed to encode notification payload: %w", err))
	}

	msg, err := s.compose(kind, recipient, raw)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.provider.Send(ctx, msg); err != nil {
		return apperrors.NotificationError(err)
	}
	return nil
}

func (s *notificationService) Deliver(ctx context.Context, db *gorm.DB, n *models.PendingNotification) error {
	_, err := s.deliver(ctx, db, n)
	return err
}

// deliver возвращает sent=false без ошибки, если запись занята другим отправителем
func (s *notificationService) deliver(ctx context.Context, db *gorm.DB, n *models.PendingNotification) (bool, error) {
	now := s.now().UTC()

	claimed, err := s.notificationRepo.Claim(db, n.ID, n.Attempts, now.Add(deliveryLease))
	if err != nil {
		return false, apperrors.DatabaseError(err)
	}
	if !claimed {
		logger.CtxDebug(ctx, "Notification already claimed", "notification_id", n.ID)
		return false, nil
	}
	attempts := n.Attempts + 1

	msg, err := s.compose(n.Kind, n.Recipient, n.Payload)
	if err != nil {
		// повтор не поможет
		if markErr := s.notificationRepo.MarkFailedAttempt(db, n.ID, attempts, err.Error(), now, true); markErr != nil {
			return false, apperrors.DatabaseError(markErr)
		}
		return false, apperrors.InternalError(err)
	}

	if sendErr := s.provider.Send(ctx, msg); sendErr != nil {
		final := attempts >= s.config.MaxAttempts
		next := now.Add(retryBackoff(attempts))

		if err := s.notificationRepo.MarkFailedAttempt(db, n.ID, attempts, sendErr.Error(), next, final); err != nil {
			return false, apperrors.DatabaseError(err)
		}
		if final {
			logger.CtxError(ctx, "Notification delivery gave up",
				"notification_id", n.ID, "kind", n.Kind, "attempts", attempts, "error", sendErr)
		}
		return false, apperrors.NotificationError(sendErr)
	}

	if err := s.notificationRepo.MarkSent(db, n.ID, now); err != nil {
		return true, apperrors.DatabaseError(err)
	}
	return true, nil
}

func (s *notificationService) DeliverDue(ctx context.Context, db *gorm.DB, limit int) (DeliveryStats, error) {
	var stats DeliveryStats

	due, err := s.notificationRepo.FindDue(db.WithContext(ctx), s.now().UTC(), limit)
	if err != nil {
		return stats, apperrors.DatabaseError(err)
	}

	for i := range due {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		sent, err := s.deliver(ctx, db.WithContext(ctx), &due[i])
		if err == nil {
			if sent {
				stats.Sent++
			} else {
				stats.Skipped++
			}
			continue
		}
		if apperrors.HasCode(err, apperrors.CodeDatabaseError) {
			return stats, err
		}
		stats.Failed++
	}
	return stats, nil
}

// compose собирает письмо по типу уведомления
func (s *notificationService) compose(kind models.NotificationKind, recipient string, payload []byte) (*email.Email, error) {
	switch kind {
	case models.NotificationVerificationCode:
		var p models.VerificationPayload
		if err := json.Unmarshal(payload, &p); err != nil || p.Code == "" {
			return nil, fmt.Errorf("invalid verification payload: %v", err)
		}
		return email.Compose(s.renderer, recipient, "Skill Market: код подтверждения", email.TemplateVerificationCode, email.TemplateData{
			"Code":         p.Code,
			"ValidMinutes": int(s.config.CodeTTL.Minutes()),
		})

	case models.NotificationPasswordReset:
		var p models.PasswordResetPayload
		if err := json.Unmarshal(payload, &p); err != nil || p.ResetLink == "" {
			return nil, fmt.Errorf("invalid password reset payload: %v", err)
		}
		return email.Compose(s.renderer, recipient, "Skill Market: сброс пароля", email.TemplatePasswordReset, email.TemplateData{
			"ResetLink":    p.ResetLink,
			"ValidMinutes": int(s.config.ResetTokenTTL.Minutes()),
		})

	default:
		return nil, fmt.Errorf("unknown notification kind: %s", kind)
	}
}

// retryBackoff: n-я неудачная попытка откладывает следующую на n² минут
func retryBackoff(attempts int) time.Duration {
	return time.Duration(attempts*attempts) * time.Minute
}

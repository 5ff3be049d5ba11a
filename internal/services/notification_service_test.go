package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"skillmarket_backend/internal/models"
	"skillmarket_backend/internal/repositories"
	"skillmarket_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func enqueueCode(t *testing.T, f *authFixture, recipient, code string) *models.PendingNotification {
	t.Helper()
	n, err := f.notifications.Enqueue(f.db, models.NotificationVerificationCode, recipient, models.VerificationPayload{Code: code})
	require.NoError(t, err)
	return n
}

func reload(t *testing.T, f *authFixture, id string) models.PendingNotification {
	t.Helper()
	var n models.PendingNotification
	require.NoError(t, f.db.First(&n, "id = ?", id).Error)
	return n
}

func TestEnqueue_DefersWorkerPickup(t *testing.T) {
	f := newOutboxFixture(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f.notifications.now = func() time.Time { return now }

	n := enqueueCode(t, f, "a@x.com", "123456")

	stored := reload(t, f, n.ID)
	assert.Equal(t, models.NotificationStatusPending, stored.Status)
	assert.Zero(t, stored.Attempts)
	assert.True(t, stored.NextAttemptAt.Equal(now.Add(time.Minute)))
	assert.JSONEq(t, `{"code":"123456"}`, string(stored.Payload))
}

func TestDeliver_RetryBackoffAndGiveUp(t *testing.T) {
	f := newOutboxFixture(t) // MaxAttempts: 3
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f.notifications.now = func() time.Time { return now }
	f.mailer.fail(errors.New("connection refused"))

	n := enqueueCode(t, f, "a@x.com", "123456")

	for attempt := 1; attempt <= 3; attempt++ {
		current := reload(t, f, n.ID)
		err := f.notifications.Deliver(context.Background(), f.db, &current)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeExternalServiceError))

		stored := reload(t, f, n.ID)
		assert.Equal(t, attempt, stored.Attempts)
		assert.Equal(t, "connection refused", stored.LastError)
		assert.True(t, stored.NextAttemptAt.Equal(now.Add(time.Duration(attempt*attempt)*time.Minute)))

		if attempt < 3 {
			assert.Equal(t, models.NotificationStatusPending, stored.Status)
		} else {
			assert.Equal(t, models.NotificationStatusFailed, stored.Status)
		}
	}
}

func TestDeliver_MarksSent(t *testing.T) {
	f := newOutboxFixture(t)
	n := enqueueCode(t, f, "a@x.com", "654321")

	require.NoError(t, f.notifications.Deliver(context.Background(), f.db, n))

	stored := reload(t, f, n.ID)
	assert.Equal(t, models.NotificationStatusSent, stored.Status)
	require.NotNil(t, stored.SentAt)

	msgs := f.mailer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Skill Market: код подтверждения", msgs[0].Subject)
	assert.Contains(t, msgs[0].Body, "654321")

	// запись уже не pending: статус не меняется, ошибки нет
	require.NoError(t, f.notifications.Deliver(context.Background(), f.db, n))
	assert.Equal(t, models.NotificationStatusSent, reload(t, f, n.ID).Status)
	assert.Len(t, f.mailer.messages(), 1)
}

func TestDeliver_SkipsRowClaimedByAnotherSender(t *testing.T) {
	f := newOutboxFixture(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f.notifications.now = func() time.Time { return now }

	n := enqueueCode(t, f, "a@x.com", "123456")
	snapshot := *n

	// другой экземпляр уже взял запись и отправляет письмо
	claimed, err := repositories.NewNotificationRepository().Claim(f.db, n.ID, 0, now.Add(deliveryLease))
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, f.notifications.Deliver(context.Background(), f.db, &snapshot))
	assert.Empty(t, f.mailer.messages())

	stored := reload(t, f, n.ID)
	assert.Equal(t, models.NotificationStatusPending, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.True(t, stored.NextAttemptAt.Equal(now.Add(deliveryLease)))
}

func TestDeliver_ConcurrentSendersDeliverOnce(t *testing.T) {
	f := newOutboxFixture(t)
	n := enqueueCode(t, f, "a@x.com", "123456")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		snapshot := *n
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.notifications.Deliver(context.Background(), f.db, &snapshot)
		}()
	}
	wg.Wait()

	assert.Len(t, f.mailer.messages(), 1)
	assert.Equal(t, models.NotificationStatusSent, reload(t, f, n.ID).Status)
}

func TestDeliver_BrokenPayloadFailsImmediately(t *testing.T) {
	f := newOutboxFixture(t)
	n := &models.PendingNotification{
		Kind:          models.NotificationPasswordReset,
		Recipient:     "a@x.com",
		Payload:       datatypes.JSON(`{}`),
		NextAttemptAt: time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(n).Error)

	err := f.notifications.Deliver(context.Background(), f.db, n)
	require.Error(t, err)

	stored := reload(t, f, n.ID)
	assert.Equal(t, models.NotificationStatusFailed, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Empty(t, f.mailer.messages())
}

func TestDeliverDue(t *testing.T) {
	f := newOutboxFixture(t)
	ctx := context.Background()

	due := enqueueCode(t, f, "due@x.com", "111111")
	later := enqueueCode(t, f, "later@x.com", "222222")
	require.NoError(t, f.db.Model(due).Update("next_attempt_at", time.Now().UTC().Add(-time.Second)).Error)

	stats, err := f.notifications.DeliverDue(ctx, f.db, 10)
	require.NoError(t, err)
	assert.Equal(t, DeliveryStats{Sent: 1}, stats)

	assert.Equal(t, models.NotificationStatusSent, reload(t, f, due.ID).Status)
	assert.Equal(t, models.NotificationStatusPending, reload(t, f, later.ID).Status)

	// неудачи считаются, но не прерывают пакет
	f.notifications.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	f.mailer.fail(errors.New("smtp down"))

	stats, err = f.notifications.DeliverDue(ctx, f.db, 10)
	require.NoError(t, err)
	assert.Equal(t, DeliveryStats{Failed: 1}, stats)
	assert.Equal(t, 1, reload(t, f, later.ID).Attempts)
}

func TestDeliverDue_StopsOnCancelledContext(t *testing.T) {
	f := newOutboxFixture(t)
	n := enqueueCode(t, f, "a@x.com", "123456")
	require.NoError(t, f.db.Model(n).Update("next_attempt_at", time.Now().UTC().Add(-time.Second)).Error)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.notifications.DeliverDue(ctx, f.db, 10)
	require.Error(t, err)
	assert.Empty(t, f.mailer.messages())
}

func TestSend_RendersResetLink(t *testing.T) {
	f := newOutboxFixture(t)
	link := "http://localhost:3000/reset-password.html?token=abc"

	err := f.notifications.Send(context.Background(), models.NotificationPasswordReset, "a@x.com", models.PasswordResetPayload{ResetLink: link})
	require.NoError(t, err)

	msgs := f.mailer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Skill Market: сброс пароля", msgs[0].Subject)
	assert.Contains(t, msgs[0].HTMLBody, link)
}

func TestRetryBackoff(t *testing.T) {
	assert.Equal(t, time.Minute, retryBackoff(1))
	assert.Equal(t, 4*time.Minute, retryBackoff(2))
	assert.Equal(t, 25*time.Minute, retryBackoff(5))
}

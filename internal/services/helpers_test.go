package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"skillmarket_backend/internal/auth"
	"skillmarket_backend/internal/config"
	"skillmarket_backend/internal/email"
	"skillmarket_backend/internal/imageprocessor"
	"skillmarket_backend/internal/models"
	"skillmarket_backend/internal/repositories"
	"skillmarket_backend/internal/storage"
	"skillmarket_backend/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeMailer запоминает письма и может имитировать недоступный SMTP
type fakeMailer struct {
	mu   sync.Mutex
	sent []email.Email
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg *email.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, *msg)
	return nil
}

func (f *fakeMailer) Validate() error { return nil }
func (f *fakeMailer) Close() error    { return nil }

func (f *fakeMailer) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeMailer) messages() []email.Email {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]email.Email(nil), f.sent...)
}

type authFixture struct {
	db            *gorm.DB
	svc           *AuthServiceImpl
	notifications *notificationService
	mailer        *fakeMailer
	tokens        *auth.TokenManager
}

func newAuthFixture(t *testing.T, mode string) *authFixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	mailer := &fakeMailer{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	notifications := NewNotificationService(
		repositories.NewNotificationRepository(),
		mailer,
		email.NewTemplateManager(),
		NotificationConfig{MaxAttempts: 3},
	).(*notificationService)

	svc := NewAuthService(
		repositories.NewUserRepository(),
		repositories.NewTokenRepository(),
		repositories.NewProfileRepository(),
		notifications,
		tokens,
		AuthConfig{DeliveryMode: mode, PublicURL: "http://localhost:3000/"},
	)

	return &authFixture{db: db, svc: svc, notifications: notifications, mailer: mailer, tokens: tokens}
}

func newOutboxFixture(t *testing.T) *authFixture {
	return newAuthFixture(t, config.DeliveryModeOutbox)
}

// codeFor возвращает последний код подтверждения пользователя
func codeFor(t *testing.T, db *gorm.DB, userID string) string {
	t.Helper()
	var vc models.VerificationCode
	require.NoError(t, db.Where("user_id = ?", userID).Order("created_at DESC").First(&vc).Error)
	return vc.Code
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func newProfileFixture(t *testing.T) (*gorm.DB, ProfileService, string) {
	t.Helper()

	db := testutil.NewTestDB(t)
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(storage.Config{BasePath: dir})
	require.NoError(t, err)

	uploads := NewUploadService(local, imageprocessor.NewProcessor(85, 1200), GetDefaultUploadConfig())
	svc := NewProfileService(repositories.NewUserRepository(), repositories.NewProfileRepository(), uploads)
	return db, svc, dir
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// fileHeaders собирает multipart-форму и возвращает заголовки файлов поля
func fileHeaders(t *testing.T, field string, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File[field]
}

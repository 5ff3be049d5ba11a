package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"skillmarket_backend/internal/auth"
	"skillmarket_backend/internal/config"
	"skillmarket_backend/internal/logger"
	"skillmarket_backend/internal/models"
	"skillmarket_backend/internal/repositories"
	"skillmarket_backend/internal/services/dto"
	"skillmarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const (
	VerificationCodeTTL = 10 * time.Minute
	ResetTokenTTL       = 30 * time.Minute
)

// Ответ на запрос сброса одинаков для существующих и несуществующих email
const passwordResetAck = "If a user with this email exists, a password reset link has been sent."

type AuthService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	VerifyEmail(ctx context.Context, db *gorm.DB, req *dto.VerifyEmailRequest) (*dto.SessionResponse, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.SessionResponse, error)
	RequestPasswordReset(ctx context.Context, db *gorm.DB, req *dto.ForgotPasswordRequest) (*dto.MessageResponse, error)
	ResetPassword(ctx context.Context, db *gorm.DB, req *dto.ResetPasswordRequest) (*dto.MessageResponse, error)
}

type AuthConfig struct {
	// DeliveryMode: config.DeliveryModeOutbox или config.DeliveryModeInline
	DeliveryMode string
	// PublicURL - адрес фронтенда для ссылки сброса пароля
	PublicURL string
}

type AuthServiceImpl struct {
	userRepo      repositories.UserRepository
	tokenRepo     repositories.TokenRepository
	profileRepo   repositories.ProfileRepository
	notifications NotificationService
	tokens        *auth.TokenManager
	config        AuthConfig
	now           func() time.Time
}

func NewAuthService(
	userRepo repositories.UserRepository,
	tokenRepo repositories.TokenRepository,
	profileRepo repositories.ProfileRepository,
	notifications NotificationService,
	tokens *auth.TokenManager,
	cfg AuthConfig,
) *AuthServiceImpl {
	if cfg.DeliveryMode == "" {
		cfg.DeliveryMode = config.DeliveryModeInline
	}
	return &AuthServiceImpl{
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		profileRepo:   profileRepo,
		notifications: notifications,
		tokens:        tokens,
		config:        cfg,
		now:           time.Now,
	}
}

// Register - регистрация нового пользователя
func (s *AuthServiceImpl) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := normalizeEmail(req.Email)

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.DatabaseError(tx.Error)
	}
	defer tx.Rollback()

	exists, err := s.userRepo.ExistsByEmail(tx, email)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	if !auth.ValidatePassword(req.Password) {
		return nil, apperrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		IsVerified:   false,
	}
	if err := s.userRepo.Create(tx, user); err != nil {
		// проигранная гонка с параллельной регистрацией
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.DatabaseError(err)
	}

	code, err := auth.GenerateVerificationCode()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.tokenRepo.CreateVerificationCode(tx, &models.VerificationCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: s.now().UTC().Add(VerificationCodeTTL),
	}); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	pending, err := s.notify(ctx, tx, models.NotificationVerificationCode, email, models.VerificationPayload{Code: code})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	s.deliverAfterCommit(ctx, db, pending)

	logger.CtxInfo(ctx, "User registered", "user_id", user.ID)
	return &dto.RegisterResponse{
		Message: "User registered successfully. Please check your email.",
		UserID:  user.ID,
	}, nil
}

// VerifyEmail - подтверждение email кодом
func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, db *gorm.DB, req *dto.VerifyEmailRequest) (*dto.SessionResponse, error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.DatabaseError(tx.Error)
	}
	defer tx.Rollback()

	vc, err := s.tokenRepo.FindVerificationCode(tx, req.UserID, req.Code)
	if err != nil {
		if errors.Is(err, repositories.ErrCodeNotFound) {
			return nil, apperrors.ErrInvalidCode
		}
		return nil, apperrors.DatabaseError(err)
	}
	// просроченный код остается в БД, его удаляет CleanupWorker
	if vc.IsExpired(s.now()) {
		return nil, apperrors.ErrCodeExpired
	}

	user, err := s.userRepo.FindByID(tx, req.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCode
		}
		return nil, apperrors.DatabaseError(err)
	}

	if err := s.userRepo.MarkVerified(tx, user.ID); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if err := s.tokenRepo.DeleteUserVerificationCodes(tx, user.ID); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return &dto.SessionResponse{
		Message:         "Email verified successfully",
		Token:           token,
		UserID:          user.ID,
		ProfileImageURL: nil,
	}, nil
}

// Login - аутентификация пользователя
func (s *AuthServiceImpl) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.SessionResponse, error) {
	db = db.WithContext(ctx)

	user, err := s.userRepo.FindByEmail(db, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// сравнение с фиктивным хешем выравнивает время ответа
			auth.CheckPasswordHash(req.Password, dummyPasswordHash())
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.DatabaseError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, apperrors.ErrUserNotVerified
	}

	imageURL, err := s.profileRepo.FindImageURL(db, user.ID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.SessionResponse{
		Token:           token,
		UserID:          user.ID,
		ProfileImageURL: imageURL,
	}, nil
}

// RequestPasswordReset - выдача токена сброса пароля
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, db *gorm.DB, req *dto.ForgotPasswordRequest) (*dto.MessageResponse, error) {
	ack := &dto.MessageResponse{Message: passwordResetAck}
	email := normalizeEmail(req.Email)

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.DatabaseError(tx.Error)
	}
	defer tx.Rollback()

	user, err := s.userRepo.FindByEmail(tx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ack, nil
		}
		return nil, apperrors.DatabaseError(err)
	}

	token, err := auth.GenerateResetToken()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.tokenRepo.CreateResetToken(tx, &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: s.now().UTC().Add(ResetTokenTTL),
	}); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	pending, err := s.notify(ctx, tx, models.NotificationPasswordReset, user.Email, models.PasswordResetPayload{
		ResetLink: s.resetLink(token),
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	s.deliverAfterCommit(ctx, db, pending)
	return ack, nil
}

// ResetPassword - установка нового пароля по токену
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, db *gorm.DB, req *dto.ResetPasswordRequest) (*dto.MessageResponse, error) {
	if !auth.ValidatePassword(req.NewPassword) {
		return nil, apperrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.DatabaseError(tx.Error)
	}
	defer tx.Rollback()

	rt, err := s.tokenRepo.FindResetToken(tx, req.Token)
	if err != nil {
		if errors.Is(err, repositories.ErrResetTokenNotFound) {
			return nil, apperrors.ErrInvalidResetToken
		}
		return nil, apperrors.DatabaseError(err)
	}
	if rt.IsExpired(s.now()) {
		return nil, apperrors.ErrResetTokenExpired
	}

	if err := s.userRepo.UpdatePassword(tx, rt.UserID, hash); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidResetToken
		}
		return nil, apperrors.DatabaseError(err)
	}
	if err := s.tokenRepo.DeleteResetToken(tx, rt.ID); err != nil {
		// токен уже использован параллельным запросом
		if errors.Is(err, repositories.ErrResetTokenNotFound) {
			return nil, apperrors.ErrInvalidResetToken
		}
		return nil, apperrors.DatabaseError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	logger.CtxInfo(ctx, "Password reset", "user_id", rt.UserID)
	return &dto.MessageResponse{Message: "Password changed successfully. You can now log in."}, nil
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ МЕТОДЫ
// ============================================

// notify в режиме inline отправляет письмо внутри транзакции (ошибка откатывает ее),
// в режиме outbox добавляет запись в ту же транзакцию
func (s *AuthServiceImpl) notify(ctx context.Context, tx *gorm.DB, kind models.NotificationKind, recipient string, payload interface{}) (*models.PendingNotification, error) {
	if s.config.DeliveryMode == config.DeliveryModeInline {
		return nil, s.notifications.Send(ctx, kind, recipient, payload)
	}
	return s.notifications.Enqueue(tx, kind, recipient, payload)
}

// deliverAfterCommit делает первую попытку доставки; неудачу подхватит NotificationWorker
func (s *AuthServiceImpl) deliverAfterCommit(ctx context.Context, db *gorm.DB, pending *models.PendingNotification) {
	if pending == nil {
		return
	}
	if err := s.notifications.Deliver(ctx, db.WithContext(ctx), pending); err != nil {
		logger.CtxWarn(ctx, "Notification delivery deferred to retry worker",
			"notification_id", pending.ID, "kind", pending.Kind, "error", err)
	}
}

func (s *AuthServiceImpl) resetLink(token string) string {
	return strings.TrimRight(s.config.PublicURL, "/") + "/reset-password.html?token=" + url.QueryEscape(token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

func dummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("Dummy.Password1")
	})
	return dummyHash
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"skillmarket_backend/database"
	"skillmarket_backend/internal/auth"
	"skillmarket_backend/internal/config"
	"skillmarket_backend/internal/email"
	"skillmarket_backend/internal/handlers"
	"skillmarket_backend/internal/imageprocessor"
	"skillmarket_backend/internal/logger"
	"skillmarket_backend/internal/middleware"
	"skillmarket_backend/internal/repositories"
	"skillmarket_backend/internal/routes"
	"skillmarket_backend/internal/services"
	"skillmarket_backend/internal/storage"
	"skillmarket_backend/internal/validator"
	"skillmarket_backend/internal/workers"
	"skillmarket_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// App - собранное приложение: пул БД, сервисы, роутер и фоновые воркеры
type App struct {
	cfg      *config.Config
	db       *gorm.DB
	router   *gin.Engine
	services *services.ServiceContainer

	notificationWorker *workers.NotificationWorker
	cleanupWorker      *workers.CleanupWorker
}

// New открывает БД, применяет миграции и собирает зависимости
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	apperrors.SetDebug(cfg.IsDevelopment())
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Open(database.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute,
		LogQueries:      cfg.Database.LogQueries,
	})
	if err != nil {
		return nil, err
	}
	if err := database.Ping(ctx, gormDB); err != nil {
		_ = database.Close(gormDB)
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	if err := database.AutoMigrate(gormDB); err != nil {
		_ = database.Close(gormDB)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("Database connected")

	a, err := assemble(ctx, cfg, gormDB)
	if err != nil {
		_ = database.Close(gormDB)
		return nil, err
	}
	return a, nil
}

func assemble(ctx context.Context, cfg *config.Config, gormDB *gorm.DB) (*App, error) {
	storageInstance, err := storage.NewStorage(ctx, storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	emailProvider, err := newEmailProvider(cfg)
	if err != nil {
		return nil, err
	}

	templates := email.NewTemplateManager()
	if cfg.Email.TemplatesDir != "" {
		if err := templates.LoadTemplates(cfg.Email.TemplatesDir); err != nil {
			return nil, fmt.Errorf("failed to load email templates: %w", err)
		}
	}

	// 1. Сервисы
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.TokenTTL())
	container := initializeServices(cfg, storageInstance, emailProvider, templates, tokens)

	// 2. Хэндлеры
	appHandlers := initializeHandlers(cfg, container)

	// 3. Gin
	router := initializeGinRouter(cfg, gormDB)
	routes.RegisterRoutes(router, appHandlers, routes.Middlewares{
		Auth:      middleware.AuthMiddleware(tokens),
		RateLimit: rateLimitHandler(cfg.Server.RateLimitPerMinute),
	})

	return &App{
		cfg:                cfg,
		db:                 gormDB,
		router:             router,
		services:           container,
		notificationWorker: workers.NewNotificationWorker(gormDB, container.NotificationService, cfg.RetryInterval()),
		cleanupWorker:      workers.NewCleanupWorker(gormDB, repositories.NewTokenRepository(), repositories.NewNotificationRepository()),
	}, nil
}

func newEmailProvider(cfg *config.Config) (email.Provider, error) {
	if !cfg.SMTPConfigured() {
		logger.Warn("SMTP is not configured, emails are written to the log")
		return email.NewLogProvider(logger.GetLogger()), nil
	}

	provider, err := email.NewSMTPProvider(email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize smtp provider: %w", err)
	}
	return provider, nil
}

func initializeServices(
	cfg *config.Config,
	storageInstance storage.Storage,
	emailProvider email.Provider,
	templates email.TemplateRenderer,
	tokens *auth.TokenManager,
) *services.ServiceContainer {
	// --- Репозитории ---
	userRepo := repositories.NewUserRepository()
	tokenRepo := repositories.NewTokenRepository()
	profileRepo := repositories.NewProfileRepository()
	notificationRepo := repositories.NewNotificationRepository()

	// --- Сервисы ---
	uploadService := services.NewUploadService(
		storageInstance,
		imageprocessor.NewProcessor(cfg.Upload.ImageQuality, cfg.Upload.MaxImageWidth),
		&services.UploadConfig{
			MaxFileSize:        cfg.Upload.MaxSize,
			AllowedTypes:       cfg.Upload.AllowedTypes,
			MaxPortfolioImages: cfg.Upload.MaxPortfolioImages,
		},
	)
	notificationService := services.NewNotificationService(notificationRepo, emailProvider, templates, services.NotificationConfig{
		MaxAttempts: cfg.Email.MaxAttempts,
	})
	authService := services.NewAuthService(userRepo, tokenRepo, profileRepo, notificationService, tokens, services.AuthConfig{
		DeliveryMode: cfg.Email.DeliveryMode,
		PublicURL:    cfg.App.PublicURL,
	})
	profileService := services.NewProfileService(userRepo, profileRepo, uploadService)

	return &services.ServiceContainer{
		AuthService:         authService,
		ProfileService:      profileService,
		UploadService:       uploadService,
		NotificationService: notificationService,
		EmailProvider:       emailProvider,
		Storage:             storageInstance,
	}
}

func initializeHandlers(cfg *config.Config, container *services.ServiceContainer) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New())

	// все файлы формы плюс запас на текстовые поля
	maxBody := cfg.Upload.MaxSize*int64(cfg.Upload.MaxPortfolioImages+1) + 1<<20

	return &handlers.AppHandlers{
		AuthHandler:    handlers.NewAuthHandler(baseHandler, container.AuthService),
		ProfileHandler: handlers.NewProfileHandler(baseHandler, container.ProfileService, maxBody),
		FileHandler:    handlers.NewFileHandler(baseHandler, container.Storage),
		HealthHandler:  handlers.NewHealthHandler(baseHandler),
	}
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	router.Use(middleware.DBMiddleware(db))
	router.MaxMultipartMemory = 8 << 20
	return router
}

func rateLimitHandler(perMinute int) gin.HandlerFunc {
	limiter := middleware.NewRateLimiter(perMinute)
	if limiter == nil {
		return nil
	}
	return limiter.Handler()
}

// Handler - корневой http.Handler (используется в тестах)
func (a *App) Handler() http.Handler {
	return a.router
}

// Run запускает HTTP сервер и воркеры; возвращается после отмены ctx и graceful shutdown
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Address(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if a.cfg.Email.DeliveryMode == config.DeliveryModeOutbox {
		g.Go(func() error { return a.notificationWorker.Run(gctx) })
	}
	g.Go(func() error { return a.cleanupWorker.Run(gctx) })

	return g.Wait()
}

// Close освобождает ресурсы после Run
func (a *App) Close() error {
	return errors.Join(
		a.services.EmailProvider.Close(),
		database.Close(a.db),
	)
}

// @title           Skill Market API
// @version         1.0
// @description     API маркетплейса специалистов: регистрация, подтверждение email, профили и портфолио.
// @host            localhost:4000
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

//go:generate go run github.com/swaggo/swag/cmd/swag init -g cmd/web/main.go -d ../.. -o ../../docs

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"skillmarket_backend/internal/app"
	"skillmarket_backend/internal/config"
	"skillmarket_backend/internal/logger"
)

func main() {
	logger.Init("development")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}

	logger.Setup(cfg.Server.Env, logger.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application", "error", err)
	}

	runErr := application.Run(ctx)
	if err := application.Close(); err != nil {
		logger.Error("Failed to release resources", "error", err)
	}
	if runErr != nil {
		logger.Error("Server stopped with error", "error", runErr)
		os.Exit(1)
	}
	logger.Info("Server exited")
}

package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log      *slog.Logger
	mu       sync.RWMutex
	fileSink *lumberjack.Logger
)

// FileOptions - настройки ротации файла логов (lumberjack)
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init инициализирует глобальный логгер только со stdout
// env: "development" или "production"
func Init(env string) {
	Setup(env, FileOptions{})
}

// Setup инициализирует логгер; при непустом opts.Path логи дублируются в файл с ротацией
func Setup(env string, opts FileOptions) {
	var out io.Writer = os.Stdout

	mu.Lock()
	defer mu.Unlock()

	if fileSink != nil {
		_ = fileSink.Close()
		fileSink = nil
	}
	if opts.Path != "" {
		fileSink = &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, fileSink)
	}

	log = slog.New(newHandler(env, out))
	slog.SetDefault(log)
}

func newHandler(env string, out io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	}

	switch env {
	case "development":
		opts.Level = slog.LevelDebug
		return slog.NewTextHandler(out, opts)
	case "test":
		opts.Level = slog.LevelWarn
		opts.AddSource = false
		return slog.NewTextHandler(out, opts)
	default:
		return slog.NewJSONHandler(out, opts)
	}
}

// Close закрывает файл логов, если он открыт
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if fileSink == nil {
		return nil
	}
	err := fileSink.Close()
	fileSink = nil
	return err
}

// GetLogger возвращает глобальный логгер
func GetLogger() *slog.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l == nil {
		Init("development")
		mu.RLock()
		l = log
		mu.RUnlock()
	}
	return l
}

// ============================================
// Convenience функции
// ============================================

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// Fatal логирует ошибку и завершает программу
func Fatal(msg string, args ...any) {
	GetLogger().Error(msg, args...)
	_ = Close()
	os.Exit(1)
}

// With создает новый логгер с дополнительными полями
func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

// WorkerLog логирует итерацию фонового воркера
func WorkerLog(worker, operation string, err error, args ...any) {
	fields := append([]any{"worker", worker, "operation", operation}, args...)

	if err != nil {
		fields = append(fields, "error", err.Error())
		GetLogger().Error("worker operation failed", fields...)
		return
	}
	GetLogger().Debug("worker operation completed", fields...)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DeliveryModeOutbox = "outbox"
	DeliveryModeInline = "inline"
)

type Config struct {
	Server struct {
		Host               string   `yaml:"host"`
		Port               int      `yaml:"port"`
		Env                string   `yaml:"env"`
		ShutdownTimeout    int      `yaml:"shutdown_timeout"` // seconds
		RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
		CORSOrigins        []string `yaml:"cors_origins"`
	} `yaml:"server"`

	App struct {
		PublicURL string `yaml:"public_url"` // base for links in emails
	} `yaml:"app"`

	Database struct {
		Driver          string `yaml:"driver"` // postgres, mysql, sqlite
		DSN             string `yaml:"url"`
		MaxOpenConns    int    `yaml:"max_open_conns"`
		MaxIdleConns    int    `yaml:"max_idle_conns"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // minutes
		LogQueries      bool   `yaml:"log_queries"`
	} `yaml:"database"`

	Email struct {
		SMTPHost      string `yaml:"smtp_host"`
		SMTPPort      int    `yaml:"smtp_port"`
		SMTPUsername  string `yaml:"smtp_user"`
		SMTPPassword  string `yaml:"smtp_password"`
		FromEmail     string `yaml:"from_email"`
		FromName      string `yaml:"from_name"`
		TemplatesDir  string `yaml:"templates_dir"`
		DeliveryMode  string `yaml:"delivery_mode"`  // inline (default), outbox
		MaxAttempts   int    `yaml:"max_attempts"`   // outbox retries
		RetryInterval int    `yaml:"retry_interval"` // seconds
	} `yaml:"email"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Storage struct {
		Type      string `yaml:"type"`      // local, s3
		BasePath  string `yaml:"base_path"` // For local storage
		BaseURL   string `yaml:"base_url"`  // Public URL base
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Endpoint  string `yaml:"endpoint"` // MinIO, R2 or other S3-compatible
	} `yaml:"storage"`

	Upload struct {
		MaxSize            int64    `yaml:"max_size"` // bytes per file
		AllowedTypes       []string `yaml:"allowed_types"`
		ImageQuality       int      `yaml:"image_quality"`
		MaxImageWidth      int      `yaml:"max_image_width"`
		MaxPortfolioImages int      `yaml:"max_portfolio_images"`
	} `yaml:"upload"`

	Log struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	var cfg Config

	cfg.Server.Host = ""
	cfg.Server.Port = 3000
	cfg.Server.Env = "development"
	cfg.Server.ShutdownTimeout = 10
	cfg.Server.RateLimitPerMinute = 60
	cfg.Server.CORSOrigins = []string{"*"}

	cfg.App.PublicURL = "http://localhost:3000"

	cfg.Database.Driver = "postgres"
	cfg.Database.MaxOpenConns = 20
	cfg.Database.MaxIdleConns = 5
	cfg.Database.ConnMaxLifetime = 30

	cfg.Email.SMTPHost = "smtp.gmail.com"
	cfg.Email.SMTPPort = 587
	cfg.Email.FromName = "Skill Market"
	cfg.Email.DeliveryMode = DeliveryModeInline
	cfg.Email.MaxAttempts = 5
	cfg.Email.RetryInterval = 30

	cfg.JWT.TTL = 60

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"
	cfg.Storage.BaseURL = "/uploads"

	cfg.Upload.MaxSize = 10 * 1024 * 1024 // 10MB
	cfg.Upload.AllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	cfg.Upload.ImageQuality = 85
	cfg.Upload.MaxImageWidth = 1200
	cfg.Upload.MaxPortfolioImages = 8

	cfg.Log.MaxSizeMB = 50
	cfg.Log.MaxBackups = 5
	cfg.Log.MaxAgeDays = 28

	return &cfg
}

// LoadConfig читает YAML (если файл есть), затем накладывает переменные окружения.
// CONFIG_PATH задает путь к файлу, по умолчанию config/config.yaml.
func LoadConfig() (*Config, error) {
	cfg := Default()

	configPath := os.Getenv("CONFIG_PATH")
	explicit := configPath != ""
	if !explicit {
		configPath = "config/config.yaml"
	}

	// файл необязателен, если путь не задан явно
	if err := cfg.loadFile(configPath); err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file at %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file at %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Server.Env, "SERVER_ENV")
	setString(&c.App.PublicURL, "APP_PUBLIC_URL")
	setString(&c.JWT.Secret, "JWT_SECRET")

	setString(&c.Email.SMTPHost, "SMTP_HOST")
	setString(&c.Email.SMTPUsername, "EMAIL_USER")
	setString(&c.Email.SMTPPassword, "EMAIL_PASS")
	setString(&c.Email.FromEmail, "EMAIL_FROM")
	setString(&c.Email.DeliveryMode, "EMAIL_DELIVERY_MODE")
	setString(&c.Email.TemplatesDir, "TEMPLATES_DIR")

	setString(&c.Storage.Type, "STORAGE_TYPE")
	setString(&c.Storage.BasePath, "STORAGE_BASE_PATH")
	setString(&c.Storage.BaseURL, "STORAGE_BASE_URL")
	setString(&c.Storage.Bucket, "S3_BUCKET")
	setString(&c.Storage.Region, "S3_REGION")
	setString(&c.Storage.AccessKey, "S3_ACCESS_KEY")
	setString(&c.Storage.SecretKey, "S3_SECRET_KEY")
	setString(&c.Storage.Endpoint, "S3_ENDPOINT")

	setString(&c.Log.File, "LOG_FILE")

	for _, item := range []struct {
		target *int
		key    string
	}{
		{&c.Server.Port, "SERVER_PORT"},
		{&c.Server.Port, "PORT"},
		{&c.Email.SMTPPort, "SMTP_PORT"},
		{&c.JWT.TTL, "JWT_TTL"},
		{&c.Server.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE"},
	} {
		if err := setInt(item.target, item.key); err != nil {
			return err
		}
	}

	if c.Email.FromEmail == "" {
		c.Email.FromEmail = c.Email.SMTPUsername
	}
	return nil
}

// Validate проверяет обязательные поля и допустимые значения
func (c *Config) Validate() error {
	var errs []error

	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database url is required (DATABASE_URL)"))
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver: %q", c.Database.Driver))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt secret is required (JWT_SECRET)"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, fmt.Errorf("jwt ttl must be positive, got %d", c.JWT.TTL))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	switch c.Email.DeliveryMode {
	case DeliveryModeOutbox, DeliveryModeInline:
	default:
		errs = append(errs, fmt.Errorf("unsupported email delivery mode: %q", c.Email.DeliveryMode))
	}
	switch c.Storage.Type {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("bucket is required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage type: %q", c.Storage.Type))
	}

	return errors.Join(errs...)
}

// IsDevelopment - включает подробные ошибки и текстовые логи
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// SMTPConfigured - заданы ли учетные данные почты
func (c *Config) SMTPConfigured() bool {
	return c.Email.SMTPHost != "" && c.Email.SMTPUsername != "" && c.Email.SMTPPassword != ""
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.TTL) * time.Minute
}

func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.Email.RetryInterval) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}

func setString(target *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*target = strings.TrimSpace(v)
	}
}

func setInt(target *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = n
	return nil
}

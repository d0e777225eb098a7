package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                   string
	DatabaseURL            string
	IdentitySecret         string
	Environment            string
	AllowedOrigins         []string
	UPIMockMode            bool
	EmailFrom              string
	EmailEnabled           bool
	SMTPHost               string
	SMTPPort               int
	SMTPUser               string
	SMTPPassword           string
	SMTPUseTLS             bool
	RunMigrations          bool
	MigrationsDir          string
	MaxBodyBytes           int64
	RateLimitPerMinute     int
	PaydayReminderInterval time.Duration
	MetricsEnabled         bool
}

// ClientConfig configures the CLI.
type ClientConfig struct {
	APIURL      string
	TokenFile   string
	HTTPTimeout time.Duration
}

// LoadEnvFiles reads .env files into the process environment. Variables that
// are already set win. Missing files are ignored.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func Load() Config {
	return Config{
		Addr:                   getEnv("APP_ADDR", ":8000"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		IdentitySecret:         getEnv("IDENTITY_SECRET", ""),
		Environment:            getEnv("APP_ENV", "development"),
		AllowedOrigins:         getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		UPIMockMode:            getEnvBool("UPI_MOCK_MODE", true),
		EmailFrom:              getEnv("EMAIL_FROM", "no-reply@earnedpay.local"),
		EmailEnabled:           getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               getEnvInt("SMTP_PORT", 587),
		SMTPUser:               getEnv("SMTP_USER", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:             getEnvBool("SMTP_USE_TLS", true),
		RunMigrations:          getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:          getEnv("MIGRATIONS_DIR", "migrations"),
		MaxBodyBytes:           int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:     getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		PaydayReminderInterval: getEnvDuration("PAYDAY_REMINDER_INTERVAL", 24*time.Hour),
		MetricsEnabled:         getEnvBool("METRICS_ENABLED", true),
	}
}

func LoadClient() ClientConfig {
	return ClientConfig{
		APIURL:      getEnv("EARNEDPAY_API_URL", "http://localhost:8000"),
		TokenFile:   getEnv("EARNEDPAY_TOKEN_FILE", ""),
		HTTPTimeout: getEnvDuration("EARNEDPAY_HTTP_TIMEOUT", 0),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.IdentitySecret) == "" {
		return fmt.Errorf("IDENTITY_SECRET is required")
	}
	if c.IsProduction() {
		if len(c.IdentitySecret) < 32 {
			return fmt.Errorf("IDENTITY_SECRET must be at least 32 characters in production")
		}
		if c.UPIMockMode {
			return fmt.Errorf("UPI_MOCK_MODE must be disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}

func (c ClientConfig) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("EARNEDPAY_API_URL is required")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("EARNEDPAY_HTTP_TIMEOUT must not be negative")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL     string
	HTTPAddr        string
	LogLevel        string
	Environment     string
	AutoMigrate     bool
	TelegramToken   string // Empty disables the moderation bot
	ModeratorChatID int64  // Telegram id allowed to moderate; receives alerts and digests
	ModeratorUserID int64  // Platform user recorded as reviewer for bot actions
	KafkaBroker     string // Empty disables event publishing
	KafkaTopic      string
	CronSpecDigest  string
	DigestMinAge    time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.AutoMigrate = true
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		cfg.AutoMigrate, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTO_MIGRATE: %w", err)
		}
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		cfg.ModeratorChatID, err = requireInt64("MODERATOR_CHAT_ID")
		if err != nil {
			return nil, err
		}
		cfg.ModeratorUserID, err = requireInt64("MODERATOR_USER_ID")
		if err != nil {
			return nil, err
		}
	}

	cfg.KafkaBroker = os.Getenv("KAFKA_BROKER")
	cfg.KafkaTopic = os.Getenv("KAFKA_TOPIC")
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = "alumni-events"
	}

	cfg.CronSpecDigest = os.Getenv("CRON_SPEC_REVIEW_DIGEST")
	if cfg.CronSpecDigest == "" {
		cfg.CronSpecDigest = "0 9 * * *" // Default: 9 AM daily
	}

	cfg.DigestMinAge = 24 * time.Hour
	if v := os.Getenv("REVIEW_DIGEST_MIN_AGE"); v != "" {
		cfg.DigestMinAge, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REVIEW_DIGEST_MIN_AGE: %w", err)
		}
		if cfg.DigestMinAge < 0 {
			return nil, fmt.Errorf("invalid REVIEW_DIGEST_MIN_AGE: must not be negative")
		}
	}

	return cfg, nil
}

// TelegramEnabled reports whether the moderation bot should start.
func (c *AppConfig) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// KafkaEnabled reports whether lifecycle events should be published.
func (c *AppConfig) KafkaEnabled() bool {
	return c.KafkaBroker != ""
}

func requireInt64(key string) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, fmt.Errorf("%s is not set", key)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

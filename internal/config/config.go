// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Supported storage drivers and cache backends.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	DatabaseDriver   string  `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabasePath     string  `envconfig:"DATABASE_PATH" default:"./data/simples.sqlite"`
	LogLevel         string  `envconfig:"LOG_LEVEL" default:"info"`
	AllowedUsers     []int64 `envconfig:"ALLOWED_USERS"`
	OwnerID          int64   `envconfig:"OWNER_ID"`

	ConfirmTimeout   time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"60s"`
	SplatoonCooldown time.Duration `envconfig:"SPLATOON_COOLDOWN" default:"60s"`
	SplatoonBaseURL  string        `envconfig:"SPLATOON_BASE_URL" default:"https://splatoon2.ink"`
	RefreshInterval  time.Duration `envconfig:"SCHEDULE_REFRESH_INTERVAL" default:"0s"`

	CacheBackend   string `envconfig:"CACHE_BACKEND" default:"file"`
	CacheDir       string `envconfig:"CACHE_DIR" default:"./resources/.cache"`
	RedisAddr      string `envconfig:"REDIS_ADDR"`
	CacheKeyPrefix string `envconfig:"CACHE_KEY_PREFIX" default:"neubott:"`

	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	switch c.DatabaseDriver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q, use: sqlite, mysql", c.DatabaseDriver)
	}
	switch c.CacheBackend {
	case CacheFile:
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q, use: file, redis", c.CacheBackend)
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("CONFIRM_TIMEOUT must be positive")
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("SCHEDULE_REFRESH_INTERVAL must not be negative")
	}
	return nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	return slices.Contains(c.AllowedUsers, userID)
}

// IsOwner reports whether userID is the configured bot owner.
func (c *Config) IsOwner(userID int64) bool {
	return c.OwnerID != 0 && c.OwnerID == userID
}

package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/JustinTDCT/CineSweep/internal/scheduler"
)

// DefaultJWTSecret is the placeholder shipped in Load; serving with it is refused.
const DefaultJWTSecret = "change-me-in-production"

var (
	ErrUnknownSetting = errors.New("unknown setting")
	ErrInsecureSecret = errors.New("JWT_SECRET is empty or still the default; set a private value")
)

type Config struct {
	Port              int
	DatabaseURL       string
	RedisAddr         string
	JWTSecret         string
	APIKeyHash        string
	RetentionSchedule string
	LogLevel          string
	LogFormat         string
	MetricsPath       string
	DeleteRatePerMin  int
	StatusTTL         time.Duration
}

func Load() *Config {
	return &Config{
		Port:              envInt("PORT", 8080),
		DatabaseURL:       env("DATABASE_URL", "postgres://cinesweep:cinesweep@db:5432/cinesweep?sslmode=disable"),
		RedisAddr:         env("REDIS_ADDR", "redis:6379"),
		JWTSecret:         env("JWT_SECRET", DefaultJWTSecret),
		APIKeyHash:        env("API_KEY_HASH", ""),
		RetentionSchedule: env("RETENTION_SCHEDULE", "0 3 * * *"),
		LogLevel:          env("LOG_LEVEL", "info"),
		LogFormat:         env("LOG_FORMAT", "json"),
		MetricsPath:       env("METRICS_PATH", "/metrics"),
		DeleteRatePerMin:  envInt("DELETE_RATE_PER_MINUTE", 30),
		StatusTTL:         envDuration("STATUS_TTL", 7*24*time.Hour),
	}
}

// MergeFromDB overlays operator settings stored in the settings table.
// A failing query leaves the environment values in place, and so does a
// stored value that does not validate.
func (c *Config) MergeFromDB(ctx context.Context, db *sql.DB, log *zap.Logger) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		log.Warn("config: skipping DB merge", zap.Error(err))
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		if err := ValidateSetting(key, value); err != nil {
			if !errors.Is(err, ErrUnknownSetting) {
				log.Warn("config: ignoring stored setting", zap.String("key", key), zap.Error(err))
			}
			continue
		}
		switch key {
		case "retention_schedule":
			c.RetentionSchedule = value
		case "log_level":
			c.LogLevel = value
		case "delete_rate_per_minute":
			c.DeleteRatePerMin = cast.ToInt(value)
		case "status_ttl":
			c.StatusTTL = cast.ToDuration(value)
		}
	}
}

// ValidateSetting checks a value for one of the operator settings that
// MergeFromDB applies.
func ValidateSetting(key, value string) error {
	switch key {
	case "retention_schedule":
		return scheduler.Validate(value)
	case "log_level":
		if _, err := zap.ParseAtomicLevel(value); err != nil {
			return fmt.Errorf("invalid log_level %q: %w", value, err)
		}
	case "delete_rate_per_minute":
		if v, err := cast.ToIntE(value); err != nil || v <= 0 {
			return fmt.Errorf("delete_rate_per_minute must be a positive integer, got %q", value)
		}
	case "status_ttl":
		if v, err := cast.ToDurationE(value); err != nil || v <= 0 {
			return fmt.Errorf("status_ttl must be a positive duration, got %q", value)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	return nil
}

// CheckJWTSecret refuses an empty secret and the shipped default.
func (c *Config) CheckJWTSecret() error {
	if c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret {
		return ErrInsecureSecret
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := cast.ToDurationE(v); err == nil {
			return d
		}
	}
	return fallback
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const placeholderMarker = "__PUT_YOUR_"

// ErrMissingSecretKey means the processor credentials were never filled in.
var ErrMissingSecretKey = errors.New("STRIPE_SECRET_KEY is not configured")

type Config struct {
	Port                     string
	Env                      string
	StripeSecretKey          string
	RootURL                  string
	LogLevel                 string
	LogFormat                string
	AllowedOrigins           string
	RequestTransfersOnCreate bool
	BreakerMaxFailures       uint32
	BreakerOpenTimeout       time.Duration
	IdempotencyTTL           time.Duration
	ShutdownTimeout          time.Duration
}

// LoadConfig reads the given .env files (".env" when none are named) and then
// the environment. Variables already set in the environment win.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// Missing .env files are normal in production.
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Warn("No .env file found, relying on System Env Variables", "files", envFiles)
	}

	cfg := &Config{
		Port:                     getEnv("PORT", "3000"),
		Env:                      getEnv("ENV", "development"),
		StripeSecretKey:          strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY")),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		LogFormat:                getEnv("LOG_FORMAT", "json"),
		AllowedOrigins:           getEnv("ALLOWED_ORIGINS", "*"),
		RequestTransfersOnCreate: true,
		BreakerMaxFailures:       5,
		BreakerOpenTimeout:       30 * time.Second,
		IdempotencyTTL:           24 * time.Hour,
		ShutdownTimeout:          10 * time.Second,
	}

	if cfg.StripeSecretKey == "" || strings.Contains(cfg.StripeSecretKey, placeholderMarker) {
		return nil, ErrMissingSecretKey
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT value %q", cfg.Port)
	}

	cfg.RootURL = strings.TrimRight(getEnv("ROOT_URL", "http://localhost:"+cfg.Port), "/")

	if cfg.RequestTransfersOnCreate, err = parseBool("REQUEST_TRANSFERS_ON_CREATE", cfg.RequestTransfersOnCreate); err != nil {
		return nil, err
	}
	if cfg.BreakerMaxFailures, err = parseUint32("BREAKER_MAX_FAILURES", cfg.BreakerMaxFailures); err != nil {
		return nil, err
	}
	if cfg.BreakerOpenTimeout, err = parseDuration("BREAKER_OPEN_TIMEOUT", cfg.BreakerOpenTimeout); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = parseDuration("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = parseDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Helper to get env with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return b, nil
}

func parseUint32(key string, fallback uint32) (uint32, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s value %q", key, v)
	}
	return uint32(n), nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

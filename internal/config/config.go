package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL      string
	DBMaxConns       int32
	Port             string
	AppEnv           string
	LogLevel         string
	JWTSecret        string
	TokenTTL         time.Duration
	RateLimitSearch  RateLimitConfig
	SearchTimeout    time.Duration
	SearchLogWorkers int
	PhoneRegion      string
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Port:          getEnv("PORT", "8080"),
		AppEnv:        getEnv("APP_ENV", "local"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret"),
		TokenTTL:      parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),
		SearchTimeout: parseDuration(getEnv("SEARCH_TIMEOUT", "5s"), 5*time.Second),
		PhoneRegion:   strings.ToUpper(getEnv("PHONE_REGION", "US")),
	}

	maxConns, err := parsePositiveInt(getEnv("DB_MAX_CONNS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS value: %w", err)
	}
	cfg.DBMaxConns = int32(maxConns)

	workers, err := parsePositiveInt(getEnv("SEARCH_LOG_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_LOG_WORKERS value: %w", err)
	}
	cfg.SearchLogWorkers = workers

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_SEARCH", "60/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SEARCH value: %w", err)
	}
	cfg.RateLimitSearch = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func parsePositiveInt(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", value)
	}
	if n <= 0 || n > 1<<16 {
		return 0, fmt.Errorf("out of range: %d", n)
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

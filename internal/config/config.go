package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Instrument InstrumentConfig
	Anomaly    AnomalyConfig
	RateLimit  RateLimitConfig
	Redirect   RedirectConfig
	Throttle   ThrottleConfig
	Logger     LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// InstrumentConfig holds the payment instrument management backend
// configuration
type InstrumentConfig struct {
	Backend    string // "pims" or "mock"
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// AnomalyConfig holds blocklist refresh configuration
type AnomalyConfig struct {
	Enabled         bool
	RefreshInterval time.Duration
}

// RateLimitConfig holds card-testing detector thresholds
type RateLimitConfig struct {
	WarmupMinimum            int64
	DimensionMinimum         int64
	FailureThreshold         float64
	BaselineFailureThreshold float64
	WhitelistedAccounts      []string
	PruneInterval            time.Duration
}

// RedirectConfig holds redirection service configuration
type RedirectConfig struct {
	BaseURL string
}

// ThrottleConfig holds per-instance HTTP request throttling
type ThrottleConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "payment_experience"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Instrument: InstrumentConfig{
			Backend:    getEnv("INSTRUMENT_BACKEND", "mock"),
			BaseURL:    getEnv("INSTRUMENT_BASE_URL", ""),
			Timeout:    getEnvAsDuration("INSTRUMENT_TIMEOUT", 30*time.Second),
			MaxRetries: getEnvAsInt("INSTRUMENT_MAX_RETRIES", 2),
		},
		Anomaly: AnomalyConfig{
			Enabled:         getEnvAsBool("ANOMALY_ENABLED", true),
			RefreshInterval: getEnvAsDuration("ANOMALY_REFRESH_INTERVAL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			WarmupMinimum:            int64(getEnvAsInt("RATELIMIT_WARMUP_MINIMUM", 100)),
			DimensionMinimum:         int64(getEnvAsInt("RATELIMIT_DIMENSION_MINIMUM", 6)),
			FailureThreshold:         getEnvAsFloat("RATELIMIT_FAILURE_THRESHOLD", 0.85),
			BaselineFailureThreshold: getEnvAsFloat("RATELIMIT_BASELINE_FAILURE_THRESHOLD", 0.85),
			WhitelistedAccounts:      getEnvAsSlice("RATELIMIT_WHITELISTED_ACCOUNTS", []string{"8e342cdc-771b-4b19-84a0-bef4c44911f7"}),
			PruneInterval:            getEnvAsDuration("RATELIMIT_PRUNE_INTERVAL", 30*time.Minute),
		},
		Redirect: RedirectConfig{
			BaseURL: getEnv("REDIRECT_BASE_URL", ""),
		},
		Throttle: ThrottleConfig{
			RequestsPerSecond: getEnvAsFloat("THROTTLE_RPS", 100),
			Burst:             getEnvAsInt("THROTTLE_BURST", 200),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	// Validate required fields. The database password may instead be
	// resolved through the secret manager at startup.
	if cfg.Redirect.BaseURL == "" {
		return nil, fmt.Errorf("REDIRECT_BASE_URL is required")
	}
	if cfg.RateLimit.FailureThreshold <= 0 || cfg.RateLimit.FailureThreshold > 1 {
		return nil, fmt.Errorf("RATELIMIT_FAILURE_THRESHOLD must be in (0, 1], got %v", cfg.RateLimit.FailureThreshold)
	}
	if cfg.RateLimit.BaselineFailureThreshold <= 0 || cfg.RateLimit.BaselineFailureThreshold > 1 {
		return nil, fmt.Errorf("RATELIMIT_BASELINE_FAILURE_THRESHOLD must be in (0, 1], got %v", cfg.RateLimit.BaselineFailureThreshold)
	}
	if cfg.Anomaly.RefreshInterval <= 0 {
		return nil, fmt.Errorf("ANOMALY_REFRESH_INTERVAL must be positive")
	}
	if cfg.Instrument.Backend == "pims" && cfg.Instrument.BaseURL == "" {
		return nil, fmt.Errorf("INSTRUMENT_BASE_URL is required when INSTRUMENT_BACKEND=pims")
	}

	return cfg, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

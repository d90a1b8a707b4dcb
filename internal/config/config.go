// Package config centralises configuration parsing for the tasknest service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration values.
type Config struct {
	HTTPAddress string

	// PostgresURL selects the hosted backend. When empty the service
	// falls back to the file-backed local store.
	PostgresURL       string
	LocalStorePath    string
	LocalStoreLatency time.Duration // Simulated backend latency in local mode.

	KafkaBrokers       []string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	GeminiAPIKey string
	GeminiModel  string
}

// UsePostgres reports whether the hosted backend is configured.
func (c Config) UsePostgres() bool { return c.PostgresURL != "" }

// Load reads environment variables into Config, applying sensible defaults
// for local dev.
func Load() Config {
	cfg := Config{
		HTTPAddress:        getEnv("HTTP_ADDRESS", ":8080"),
		PostgresURL:        getEnv("POSTGRES_URL", ""),
		LocalStorePath:     getEnv("LOCAL_STORE_PATH", ".tasknest.db"),
		LocalStoreLatency:  getDurationEnv("LOCAL_STORE_LATENCY", 0),
		OutboxPollInterval: getDurationEnv("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    getIntEnv("OUTBOX_BATCH_SIZE", 25),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:          getEnv("JWT_ISSUER", "tasknest"),
		JWTTTL:             getDurationEnv("JWT_TTL", 24*time.Hour),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", ""),
	}

	brokers := getEnv("KAFKA_BROKERS", "kafka:9092")
	cfg.KafkaBrokers = splitAndTrim(brokers)
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// Package config reads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port           string
	PostgresURL    string
	RedisAddr      string
	KafkaBrokers   []string
	JWTSecret      string
	TokenTTL       time.Duration
	PublicBaseURL  string
	CORSOrigins    []string
	ServiceVersion string
	OTLPEndpoint   string
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load reads the API settings. An empty POSTGRES_URL selects the in-memory
// store and an empty KAFKA_BROKERS disables event publishing.
func Load() (Config, error) {
	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	if ttl <= 0 {
		return Config{}, errors.New("TOKEN_TTL must be positive")
	}

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       ttl,
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
		ServiceVersion: getEnv("SERVICE_VERSION", "0.1.0"),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET environment variable is required")
	}
	return cfg, nil
}

// Package config loads client configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkraev/docquery/internal/tokenstore"
)

// Config is the full configuration surface of the client.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	TokenFile      string
	Debug          bool
}

// Load reads configuration from the environment, with an optional .env file.
func Load() (Config, error) {
	// best-effort: absence of .env is the normal case
	_ = godotenv.Load()

	cfg := Config{}
	cfg.APIBaseURL = envOrDefault("DOCQUERY_API_URL", "http://localhost:8000/api")
	cfg.TokenFile = envOrDefault("DOCQUERY_TOKEN_FILE", tokenstore.DefaultPath())
	cfg.Debug = os.Getenv("DOCQUERY_DEBUG") != ""

	reqTimeout, err := parseDurationEnv("DOCQUERY_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse DOCQUERY_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = reqTimeout

	// uploads tolerate larger payload latency than plain API calls
	upTimeout, err := parseDurationEnv("DOCQUERY_UPLOAD_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse DOCQUERY_UPLOAD_TIMEOUT: %w", err)
	}
	cfg.UploadTimeout = upTimeout

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

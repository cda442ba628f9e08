// Package config loads application configuration from environment variables.
//
// Configuration is read once at boot and treated as immutable afterwards —
// there is no runtime reloading. A missing JWT_SECRET is a fatal boot error
// here, never a per-request error: a server that cannot sign or verify
// tokens must not start at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the server.
type Config struct {
	// Server
	Port   int
	DBPath string

	// Auth
	JWTSecret  string
	TokenTTL   time.Duration // token lifetime, default 7 days
	BcryptCost int

	// Rate limiting (per client IP)
	RateLimit  int           // max requests per window
	RateWindow time.Duration // window size

	// Logging
	LogLevel string // "debug", "info", "warn", "error"
}

// Load reads configuration from the environment.
//
// Required: JWT_SECRET. Everything else has a default suitable for local
// development.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: required environment variable JWT_SECRET is not set")
	}

	var err error
	cfg.Port, err = getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.DBPath = getEnvString("DB_PATH", "data/bookline.db")

	cfg.TokenTTL, err = getEnvDuration("TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, err
	}

	cfg.RateLimit, err = getEnvInt("RATE_LIMIT", 100)
	if err != nil {
		return nil, err
	}
	cfg.RateWindow, err = getEnvDuration("RATE_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, v)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be a duration like \"15m\" or \"168h\", got %q", key, v)
	}
	return d, nil
}

// Package config loads process configuration from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	Port           string `validate:"required,numeric"`
	Storage        string `validate:"oneof=memory sqlite"`
	DatabasePath   string `validate:"required_if=Storage sqlite"`
	JWTSecret      string `validate:"min=32"`
	BcryptCost     int    `validate:"min=4,max=14"`
	SeedFile       string `validate:"omitempty,file"`
	SeedDemo       bool
	DebugEndpoints bool
	CookieSecure   bool
	LogLevel       slog.Level
	StatusRefresh  time.Duration `validate:"min=100ms"`
}

var configValidator = validator.New()

// Load reads an optional .env file, then the environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:           envOrDefault(getenv, "PORT", "8080"),
		Storage:        envOrDefault(getenv, "STORAGE", StorageMemory),
		DatabasePath:   envOrDefault(getenv, "DATABASE_PATH", ":memory:"),
		JWTSecret:      getenv("JWT_SECRET"),
		BcryptCost:     12,
		SeedFile:       getenv("SEED_FILE"),
		SeedDemo:       getenv("SEED_DEMO") == "true",
		DebugEndpoints: getenv("DEBUG_ENDPOINTS") == "true",
		// Default to secure cookies; disable only for local development.
		CookieSecure:  getenv("COOKIE_SECURE") != "false",
		LogLevel:      slog.LevelInfo,
		StatusRefresh: 2 * time.Second,
	}

	if v := getenv("BCRYPT_COST"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = parsed
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	if v := getenv("STATUS_REFRESH"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STATUS_REFRESH: %w", err)
		}
		cfg.StatusRefresh = d
	}

	if cfg.JWTSecret == "" {
		// Sessions never outlive the process, so a per-process secret is enough.
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.JWTSecret = secret
		slog.Warn("JWT_SECRET not set, using a random per-process secret")
	}

	if err := configValidator.Struct(cfg); err != nil {
		return nil, describe(err)
	}
	return cfg, nil
}

// describe turns the first validation failure into a readable error.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("invalid config: %w", err)
	}
	first := verrs[0]
	switch first.Tag() {
	case "min", "max":
		return fmt.Errorf("invalid config: %s must satisfy %s=%s", first.Field(), first.Tag(), first.Param())
	case "oneof":
		return fmt.Errorf("invalid config: %s must be one of [%s], got %v", first.Field(), first.Param(), first.Value())
	case "file":
		return fmt.Errorf("invalid config: %s %q does not exist", first.Field(), first.Value())
	default:
		return fmt.Errorf("invalid config: %s failed %s", first.Field(), first.Tag())
	}
}

func envOrDefault(getenv func(string) string, key, defaultVal string) string {
	if val := getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

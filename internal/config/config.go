package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vytor/deckflash/internal/logger"
)

type Config struct {
	Addr               string
	DBPath             string
	LogLevel           string
	LogColors          bool
	DefaultQuizSize    int
	MaxQuizSize        int
	DuplicateThreshold float64
	DuplicateLimit     int
	RandomSeed         uint64
	ShutdownTimeout    time.Duration
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:               envOr("ADDR", ":8080"),
		DBPath:             envOr("DB_PATH", "file:deckflash.db"),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		LogColors:          envBoolOr("LOG_COLORS", true),
		DefaultQuizSize:    envIntOr("DEFAULT_QUIZ_SIZE", 10),
		MaxQuizSize:        envIntOr("MAX_QUIZ_SIZE", 100),
		DuplicateThreshold: envFloatOr("DUPLICATE_THRESHOLD", 0.6),
		DuplicateLimit:     envIntOr("DUPLICATE_LIMIT", 10),
		RandomSeed:         envUint64Or("RANDOM_SEED", 0),
		ShutdownTimeout:    time.Duration(envIntOr("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if _, ok := logger.LookupLevel(c.LogLevel); !ok {
		return fmt.Errorf("LOG_LEVEL %q is not one of DEBUG, INFO, WARN, ERROR", c.LogLevel)
	}
	if c.DefaultQuizSize <= 0 {
		return fmt.Errorf("DEFAULT_QUIZ_SIZE must be positive, got %d", c.DefaultQuizSize)
	}
	if c.MaxQuizSize <= 0 {
		return fmt.Errorf("MAX_QUIZ_SIZE must be positive, got %d", c.MaxQuizSize)
	}
	if c.DefaultQuizSize > c.MaxQuizSize {
		return fmt.Errorf("DEFAULT_QUIZ_SIZE (%d) cannot exceed MAX_QUIZ_SIZE (%d)", c.DefaultQuizSize, c.MaxQuizSize)
	}
	if c.DuplicateThreshold <= 0 || c.DuplicateThreshold > 1 {
		return fmt.Errorf("DUPLICATE_THRESHOLD must be in (0,1], got %v", c.DuplicateThreshold)
	}
	if c.DuplicateLimit <= 0 {
		return fmt.Errorf("DUPLICATE_LIMIT must be positive, got %d", c.DuplicateLimit)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envUint64Or(key string, def uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			return u
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("invalid value for %s=%q, using default %t", key, v, def)
	}
	return def
}

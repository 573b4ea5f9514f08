package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseURL     string
	InputDir        string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	LocalUTCOffset  int // whole hours, e.g. 9 for KST
	ShutdownTimeout time.Duration
	DryRun          bool
}

// Load reads configuration from environment variables (optionally .env),
// applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		InputDir:    envOrDefault("INPUT_DIR", "data/raw"),
		HTTPAddr:    envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogFormat:   envOrDefault("LOG_FORMAT", "json"),
	}

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	// Dry runs never touch the database, so the URL may be omitted there.
	if cfg.DatabaseURL == "" && !cfg.DryRun {
		return nil, errors.New("DATABASE_URL is required")
	}

	offset, err := parseLocalUTCOffset()
	if err != nil {
		return nil, err
	}
	cfg.LocalUTCOffset = offset

	cfg.ShutdownTimeout = 10 * time.Second
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q", v)
		}
		cfg.ShutdownTimeout = d
	}

	return cfg, nil
}

// parseLocalUTCOffset reads the fixed civil offset of the monitoring region
// in whole hours. Defaults to +9 (KST); the region has no DST.
func parseLocalUTCOffset() (int, error) {
	v := strings.TrimSpace(os.Getenv("LOCAL_UTC_OFFSET"))
	if v == "" {
		return 9, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < -12 || n > 14 {
		return 0, fmt.Errorf("invalid LOCAL_UTC_OFFSET %q", v)
	}
	return n, nil
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

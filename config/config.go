// Package config loads service configuration from environment variables,
// with optional .env file support.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the application configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int
	// StoreDriver selects the persistence backend (memory, sqlite, postgres).
	StoreDriver string
	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string
	// PostgresURL is the connection string for the postgres driver.
	PostgresURL string
	// AllowNegative permits account balances below zero.
	AllowNegative bool
	// SweepInterval is how often the background reconciler runs.
	// Zero disables it.
	SweepInterval time.Duration
}

// Load loads configuration from environment variables. A .env file in the
// current directory is applied first when present. An optional custom path
// may be given.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	port, err := parseIntEnv("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	sweep, err := parseDurationEnv("SWEEP_INTERVAL", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	config := &Config{
		Port:          port,
		StoreDriver:   getEnvOrDefault("STORE_DRIVER", DriverMemory),
		SQLitePath:    getEnvOrDefault("SQLITE_PATH", "./data/finance.db"),
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		AllowNegative: os.Getenv("ALLOW_NEGATIVE") == "true",
		SweepInterval: sweep,
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required with STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER: %q", c.StoreDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

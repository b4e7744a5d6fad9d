// Package config reads service configuration from the environment, after
// loading an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds everything main needs to wire the service.
type Config struct {
	Port            string
	LogLevel        string
	Store           string
	AuthDisabled    bool
	ShutdownTimeout time.Duration
	DB              Database
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// DSN builds a libpq-compatible connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("can't load .env file", "error", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables, falling back to
// local-development defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Store:    strings.ToLower(getEnv("STORE", StoreMemory)),
		DB: Database{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "eventcheckin"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}

	authDisabled, err := strconv.ParseBool(getEnv("AUTH_DISABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("AUTH_DISABLED: %w", err)
	}
	cfg.AuthDisabled = authDisabled

	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "20"), 10, 32)
	if err != nil {
		return Config{}, fmt.Errorf("DB_MAX_CONNS: %w", err)
	}
	cfg.DB.MaxConns = int32(maxConns)

	cfg.ShutdownTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate rejects unusable settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreMemory, StorePostgres)
	}
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.DB.MaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

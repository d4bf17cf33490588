// Package common provides shared utilities for Foliotrack
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Foliotrack.
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Auth        AuthConfig    `toml:"auth"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds SurrealDB connection configuration.
type StorageConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ClientsConfig holds API client configurations.
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds EODHD API configuration.
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration.
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// AuthConfig holds JWT validation configuration. Token issuance is handled
// by an external identity service; this server only validates.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Address:   "ws://localhost:8000/rpc",
			Namespace: "foliotrack",
			Database:  "foliotrack",
			Username:  "root",
			Password:  "root",
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FOLIO_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FOLIO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if addr := os.Getenv("FOLIO_STORAGE_ADDRESS"); addr != "" {
		config.Storage.Address = addr
	}
	if ns := os.Getenv("FOLIO_STORAGE_NAMESPACE"); ns != "" {
		config.Storage.Namespace = ns
	}
	if db := os.Getenv("FOLIO_STORAGE_DATABASE"); db != "" {
		config.Storage.Database = db
	}
	if user := os.Getenv("FOLIO_STORAGE_USERNAME"); user != "" {
		config.Storage.Username = user
	}
	if pass := os.Getenv("FOLIO_STORAGE_PASSWORD"); pass != "" {
		config.Storage.Password = pass
	}

	if key := os.Getenv("EODHD_API_KEY"); key != "" {
		config.Clients.EODHD.APIKey = key
	}

	if v := os.Getenv("FOLIO_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("FOLIO_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// Package config provides configuration management for the messaging server.
// It loads settings from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the messaging server.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Translator TranslatorConfig
	Pipeline   PipelineConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver   string // mysql, postgres, sqlite3
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Prefix   string // Table prefix (default: "msg_")
}

// TranslatorConfig holds translation provider configuration.
type TranslatorConfig struct {
	Endpoint string // Provider translate endpoint URL
	APIKey   string // Bearer credential; empty disables translation (messages fail)
	TimeoutS int    // Request timeout in seconds
}

// PipelineConfig holds orchestrator configuration.
type PipelineConfig struct {
	BatchSize      int // Sweep batch size
	SweepInterval  int // Sweep interval in seconds
	StaleAfterSecs int // Minimum pending age before sweep picks a message up
}

// Load loads configuration from environment variables.
// Follows 12-factor app principles - configuration via environment.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "mysql"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 3306),
			User:     getEnv("DB_USER", "messaging"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "clientdesk"),
			Prefix:   getEnv("DB_PREFIX", "msg_"),
		},
		Translator: TranslatorConfig{
			Endpoint: getEnv("TRANSLATOR_ENDPOINT", "https://api.deepl.com/v2/translate"),
			APIKey:   getEnv("TRANSLATOR_API_KEY", ""),
			TimeoutS: getEnvInt("TRANSLATOR_TIMEOUT", 10),
		},
		Pipeline: PipelineConfig{
			BatchSize:      getEnvInt("PIPELINE_BATCH_SIZE", 100),
			SweepInterval:  getEnvInt("PIPELINE_SWEEP_INTERVAL", 60),
			StaleAfterSecs: getEnvInt("PIPELINE_STALE_AFTER", 30),
		},
	}

	// Validate required fields
	if cfg.Database.Password == "" && cfg.Database.Driver != "sqlite3" {
		return nil, fmt.Errorf("DB_PASSWORD environment variable is required")
	}

	return cfg, nil
}

// GetDSN returns the database connection string based on driver.
func (c *DatabaseConfig) GetDSN() string {
	switch strings.ToLower(c.Driver) {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.Port, c.User, c.Password, c.Database)
	case "sqlite3":
		return c.Database // SQLite uses file path as DSN
	default:
		return ""
	}
}

// getEnv retrieves environment variable or returns default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves environment variable as integer or returns default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

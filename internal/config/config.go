// Package config provides application configuration.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// Server settings
	Port string
	Host string

	// Database settings
	DBPath string

	// Facade API key; empty disables authentication (development only)
	APIKey string

	// Secret used to encrypt persisted broker credentials
	EncryptionSecret string

	// Brokerage API settings
	BrokerBaseURL  string
	BrokerClientID string

	// How far back incremental syncs look for investment-account
	// transactions, in days
	SyncLookbackDays int

	// Logging
	LogLevel string

	// Environment
	IsDevelopment bool
}

// New creates a Config from environment variables or defaults. A .env file
// in the working directory is loaded first if present.
func New() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Host:             getEnv("HOST", "localhost"),
		DBPath:           getEnv("DB_PATH", filepath.Join("data", "wealthlink.db")),
		APIKey:           getEnv("API_KEY", ""),
		EncryptionSecret: getEnv("ENCRYPTION_SECRET", "change-me-in-production-32chars!"),
		BrokerBaseURL:    getEnv("BROKER_BASE_URL", "https://trade-service.wealthsimple.com"),
		BrokerClientID:   getEnv("BROKER_CLIENT_ID", ""),
		SyncLookbackDays: getEnvInt("SYNC_LOOKBACK_DAYS", 90),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		IsDevelopment:    getEnv("ENV", "development") == "development",
	}
}

// Address returns the full address to bind the server to.
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

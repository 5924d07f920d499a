package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath       string
	LogLevel           string
	Port               int
	DevMode            bool
	DefaultCurrency    string
	PendingSweepCron   string // cron spec for the stale-pending sweep job
	PendingTTLMinutes  int    // age after which a pending transaction is failed
	LedgerRetryLimit   int    // optimistic concurrency retry attempts
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnvAsInt("PORT", 8080),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		DatabasePath:      getEnv("DATABASE_PATH", "./data/corebank.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DefaultCurrency:   getEnv("DEFAULT_CURRENCY", "USD"),
		PendingSweepCron:  getEnv("PENDING_SWEEP_CRON", "0 */10 * * * *"),
		PendingTTLMinutes: getEnvAsInt("PENDING_TTL_MINUTES", 30),
		LedgerRetryLimit:  getEnvAsInt("LEDGER_RETRY_LIMIT", 3),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.LedgerRetryLimit < 1 {
		return fmt.Errorf("LEDGER_RETRY_LIMIT must be at least 1")
	}
	if c.PendingTTLMinutes < 1 {
		return fmt.Errorf("PENDING_TTL_MINUTES must be at least 1")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

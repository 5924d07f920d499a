package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "./data/corebank.db", cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.Equal(t, 30, cfg.PendingTTLMinutes)
	assert.Equal(t, 3, cfg.LedgerRetryLimit)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("DEFAULT_CURRENCY", "EUR")
	t.Setenv("LEDGER_RETRY_LIMIT", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "EUR", cfg.DefaultCurrency)
	assert.Equal(t, 5, cfg.LedgerRetryLimit)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("DEV_MODE", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DevMode)
}

func TestValidate(t *testing.T) {
	cfg := &Config{DatabasePath: "x.db", LedgerRetryLimit: 1, PendingTTLMinutes: 1}
	assert.NoError(t, cfg.Validate())

	cfg.DatabasePath = ""
	assert.Error(t, cfg.Validate())

	cfg.DatabasePath = "x.db"
	cfg.LedgerRetryLimit = 0
	assert.Error(t, cfg.Validate())

	cfg.LedgerRetryLimit = 1
	cfg.PendingTTLMinutes = 0
	assert.Error(t, cfg.Validate())
}

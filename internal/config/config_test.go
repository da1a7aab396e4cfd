package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantcore/analytics-core/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.DispatcherTimeoutSeconds)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.Equal(t, 0.15, cfg.PaperStopLossPct)
}

func TestLoad_RateLimitOverrideParsed(t *testing.T) {
	t.Setenv("CORE_RATE_LIMIT_STOOQ_RPS", "2.5")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.RateLimitOverrides["stooq"])
}

func TestLoad_UnrecognizedKeyRejected(t *testing.T) {
	t.Setenv("CORE_NOT_A_REAL_KEY", "1")
	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_RNGSeedOverride(t *testing.T) {
	t.Setenv("CORE_RNG_SEED", "777")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(777), cfg.RNGSeed)
}


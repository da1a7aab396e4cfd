// Package config loads runtime configuration for the analytics core from
// environment variables (optionally seeded by a .env file), matching the
// recognized-key map documented for cache TTL tiers, dispatcher sizing,
// provider rate limits, retry policy, backtest/paper-trading defaults, and
// the deterministic RNG seed. An unrecognized key fails loading outright
// rather than being silently ignored.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every tunable the core components accept at construction.
type Config struct {
	CacheTTLIntraday int // seconds
	CacheTTLEOD int
	CacheTTLFundamental int
	CacheTTLReference int

	DispatcherTimeoutSeconds int
	DispatcherWorkerPoolSize int // 0 = auto-detect from CPU count

	RateLimitDefaultRPS float64
	RateLimitOverrides map[string]float64 // provider -> requests_per_second

	RetryMaxAttempts int
	RetryBackoffBaseMS int

	BacktestDefaultCommissionBps float64
	BacktestDefaultSlippageBps float64

	PaperStopLossPct float64
	PaperPyramidLevels int

	RNGSeed int64

	LogLevel string
	Port int
}

// recognizedKeys is the full set of environment variables this package
// reads. Anything else present in the environment with the CORE_ prefix is
// almost certainly a typo'd key that would otherwise be silently ignored.
var recognizedKeys = map[string]bool{
	"CORE_CACHE_TTL_INTRADAY_SECONDS": true,
	"CORE_CACHE_TTL_EOD_SECONDS": true,
	"CORE_CACHE_TTL_FUNDAMENTAL_SECONDS": true,
	"CORE_CACHE_TTL_REFERENCE_SECONDS": true,
	"CORE_DISPATCHER_TIMEOUT_SECONDS": true,
	"CORE_DISPATCHER_WORKER_POOL_SIZE": true,
	"CORE_RATE_LIMIT_DEFAULT_RPS": true,
	"CORE_RETRY_MAX_ATTEMPTS": true,
	"CORE_RETRY_BACKOFF_BASE_MS": true,
	"CORE_BACKTEST_COMMISSION_BPS": true,
	"CORE_BACKTEST_SLIPPAGE_BPS": true,
	"CORE_PAPER_STOP_LOSS_PCT": true,
	"CORE_PAPER_PYRAMID_LEVELS": true,
	"CORE_RNG_SEED": true,
	"CORE_LOG_LEVEL": true,
	"CORE_PORT": true,
	"CORE_DATA_DIR": true,
	"CORE_DEV_MODE": true,
	"CORE_ARCHIVE_BUCKET": true,
	"CORE_ARCHIVE_REGION": true,
	"CORE_ARCHIVE_ENDPOINT": true,
}

// rateLimitPrefix namespaces per-provider overrides:
// CORE_RATE_LIMIT_<PROVIDER>_RPS=5 sets rate_limit.<provider>.requests_per_second.
const rateLimitPrefix = "CORE_RATE_LIMIT_"
const rateLimitSuffix = "_RPS"

// Load reads .env (if present) then the environment, rejecting any CORE_*
// key that isn't recognized. godotenv.Load returning an error because
// no .env file exists is not itself a failure.
func Load() (*Config, error) {
	_ = godotenv.Load()

	if err := rejectUnknownKeys(); err != nil {
		return nil, err
	}

	cfg := &Config{
		CacheTTLIntraday: getEnvAsInt("CORE_CACHE_TTL_INTRADAY_SECONDS", 60),
		CacheTTLEOD: getEnvAsInt("CORE_CACHE_TTL_EOD_SECONDS", 6*3600),
		CacheTTLFundamental: getEnvAsInt("CORE_CACHE_TTL_FUNDAMENTAL_SECONDS", 24*3600),
		CacheTTLReference: getEnvAsInt("CORE_CACHE_TTL_REFERENCE_SECONDS", 7*24*3600),

		DispatcherTimeoutSeconds: getEnvAsInt("CORE_DISPATCHER_TIMEOUT_SECONDS", 60),
		DispatcherWorkerPoolSize: getEnvAsInt("CORE_DISPATCHER_WORKER_POOL_SIZE", 0),

		RateLimitDefaultRPS: getEnvAsFloat("CORE_RATE_LIMIT_DEFAULT_RPS", 5.0),
		RateLimitOverrides: loadRateLimitOverrides(),

		RetryMaxAttempts: getEnvAsInt("CORE_RETRY_MAX_ATTEMPTS", 3),
		RetryBackoffBaseMS: getEnvAsInt("CORE_RETRY_BACKOFF_BASE_MS", 500),

		BacktestDefaultCommissionBps: getEnvAsFloat("CORE_BACKTEST_COMMISSION_BPS", 0),
		BacktestDefaultSlippageBps: getEnvAsFloat("CORE_BACKTEST_SLIPPAGE_BPS", 5),

		PaperStopLossPct: getEnvAsFloat("CORE_PAPER_STOP_LOSS_PCT", 0.15),
		PaperPyramidLevels: getEnvAsInt("CORE_PAPER_PYRAMID_LEVELS", 2),

		RNGSeed: int64(getEnvAsInt("CORE_RNG_SEED", 42)),

		LogLevel: getEnv("CORE_LOG_LEVEL", "info"),
		Port: getEnvAsInt("CORE_PORT", 8001),
	}

	return cfg, nil
}

// rejectUnknownKeys scans the process environment for CORE_-prefixed keys
// not present in recognizedKeys (directly, or as a rate-limit override).
func rejectUnknownKeys() error {
	for _, kv := range os.Environ() {
		key := kv[:strings.IndexByte(kv, '=')]
		if !strings.HasPrefix(key, "CORE_") {
			continue
		}
		if recognizedKeys[key] {
			continue
		}
		if strings.HasPrefix(key, rateLimitPrefix) && strings.HasSuffix(key, rateLimitSuffix) {
			continue
		}
		return fmt.Errorf("config: unrecognized key %q", key)
	}
	return nil
}

func loadRateLimitOverrides() map[string]float64 {
	overrides := make(map[string]float64)
	for _, kv := range os.Environ() {
		eq := strings.IndexByte(kv, '=')
		key, val := kv[:eq], kv[eq+1:]
		if !strings.HasPrefix(key, rateLimitPrefix) || !strings.HasSuffix(key, rateLimitSuffix) {
			continue
		}
		provider := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(key, rateLimitPrefix), rateLimitSuffix))
		if rps, err := strconv.ParseFloat(val, 64); err == nil {
			overrides[provider] = rps
		}
	}
	return overrides
}

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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// Package datafetcher provides uniform, cached, retried access to upstream
// market/fundamental/macro data across heterogeneous providers.
// The core never mutates upstream payloads; providers normalize raw feeds into
// the internal schemas, and this package layers caching, fallback, retry, and
// rate control on top of whatever Provider a deployment wires in.
package datafetcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantcore/analytics-core/internal/core/types"
)

// Provider is one upstream capability source. A single provider may implement
// any subset of these methods; a Fetcher is built from an ordered fallback
// chain of providers per capability.
type Provider interface {
	Name() string
	PriceHistory(ctx context.Context, ticker types.Ticker, interval types.Interval, period time.Duration) (*types.PriceSeries, error)
	Quote(ctx context.Context, ticker types.Ticker) (*types.Quote, error)
	Fundamentals(ctx context.Context, ticker types.Ticker, periodType types.PeriodType, asOf *time.Time) ([]types.FundamentalSnapshot, error)
	OptionsChain(ctx context.Context, ticker types.Ticker, expiry *time.Time) (*types.OptionsChain, error)
	Filings(ctx context.Context, ticker types.Ticker, formTypes []string, from, to time.Time) ([]types.FilingRef, error)
	MacroSeries(ctx context.Context, seriesID string, from, to time.Time) (*types.TimeSeries, error)
}

// Config controls retry/rate-limit defaults.
type Config struct {
	MaxAttempts int
	BackoffBaseMS int
}

// DefaultConfig returns the out-of-the-box retry/rate-limit defaults.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, BackoffBaseMS: 500}
}

// Fetcher is the DataFetcher capability surface, composed of a
// priority-ordered provider chain per capability, a TTL cache, and a
// per-provider rate limiter.
type Fetcher struct {
	providers []Provider
	cache *Cache
	limiters *LimiterSet
	cfg Config
	log zerolog.Logger
}

// New builds a Fetcher. Providers are tried in the given order for every
// capability they implement — providers earlier in the slice take priority.
func New(providers []Provider, cache *Cache, limiters *LimiterSet, cfg Config, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		providers: providers,
		cache: cache,
		limiters: limiters,
		cfg: cfg,
		log: log.With().Str("component", "datafetcher").Logger(),
	}
}

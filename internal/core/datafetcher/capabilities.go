package datafetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/quantcore/analytics-core/internal/core/types"
)

func cacheKey(capability string, parts...any) string {
	key := capability
	for _, p := range parts {
		key += fmt.Sprintf("|%v", p)
	}
	return key
}

// PriceHistory implements the price_history capability: cache lookup,
// then the fallback chain of providers that implement PriceHistory, each
// attempt retried per Config, first non-error result wins.
func (f *Fetcher) PriceHistory(ctx context.Context, ticker types.Ticker, interval types.Interval, period time.Duration) (*types.PriceSeries, bool, error) {
	key := cacheKey("price_history", ticker, interval, period)
	if entry, ok := f.cache.Get(key, time.Now()); ok {
		var series types.PriceSeries
		if err := Decode(entry, &series); err == nil {
			return &series, true, nil
		}
	}

	var lastErr error
	for _, p := range f.providers {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if err := f.limiters.Wait(ctx, p.Name()); err != nil {
			return nil, false, err
		}

		series, err := withRetry(ctx, f.cfg, func(ctx context.Context) (*types.PriceSeries, error) {
			return p.PriceHistory(ctx, ticker, interval, period)
		})
		if err != nil {
			lastErr = err
			f.log.Warn().Err(err).Str("provider", p.Name()).Str("ticker", string(ticker)).Msg("provider failed, trying fallback")
			continue
		}

		ttl := types.TierEOD.DefaultTTL()
		_ = f.cache.Put(p.Name(), key, series, ttl, time.Now())
		return series, false, nil
	}
	if lastErr == nil {
		lastErr = ErrNotFound
	}
	return nil, false, lastErr
}

// Quote implements the quote capability with an intraday TTL tier.
func (f *Fetcher) Quote(ctx context.Context, ticker types.Ticker) (*types.Quote, bool, error) {
	key := cacheKey("quote", ticker)
	if entry, ok := f.cache.Get(key, time.Now()); ok {
		var q types.Quote
		if err := Decode(entry, &q); err == nil {
			return &q, true, nil
		}
	}

	var lastErr error
	for _, p := range f.providers {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if err := f.limiters.Wait(ctx, p.Name()); err != nil {
			return nil, false, err
		}

		q, err := withRetry(ctx, f.cfg, func(ctx context.Context) (*types.Quote, error) {
			return p.Quote(ctx, ticker)
		})
		if err != nil {
			lastErr = err
			continue
		}
		_ = f.cache.Put(p.Name(), key, q, types.TierIntraday.DefaultTTL(), time.Now())
		return q, false, nil
	}
	if lastErr == nil {
		lastErr = ErrNotFound
	}
	return nil, false, lastErr
}

// Fundamentals implements the fundamentals capability with a 24h TTL tier and
// an as-of filter for point-in-time requests.
func (f *Fetcher) Fundamentals(ctx context.Context, ticker types.Ticker, periodType types.PeriodType, asOf *time.Time) ([]types.FundamentalSnapshot, bool, error) {
	key := cacheKey("fundamentals", ticker, periodType, asOf)
	if entry, ok := f.cache.Get(key, time.Now()); ok {
		var snaps []types.FundamentalSnapshot
		if err := Decode(entry, &snaps); err == nil {
			return snaps, true, nil
		}
	}

	var lastErr error
	for _, p := range f.providers {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if err := f.limiters.Wait(ctx, p.Name()); err != nil {
			return nil, false, err
		}

		snaps, err := withRetry(ctx, f.cfg, func(ctx context.Context) ([]types.FundamentalSnapshot, error) {
			return p.Fundamentals(ctx, ticker, periodType, asOf)
		})
		if err != nil {
			lastErr = err
			continue
		}
		_ = f.cache.Put(p.Name(), key, snaps, types.TierFundamental.DefaultTTL(), time.Now())
		return snaps, false, nil
	}
	if lastErr == nil {
		lastErr = ErrNotFound
	}
	return nil, false, lastErr
}

// OptionsChain implements the options_chain capability with a reference-data TTL.
func (f *Fetcher) OptionsChain(ctx context.Context, ticker types.Ticker, expiry *time.Time) (*types.OptionsChain, bool, error) {
	key := cacheKey("options_chain", ticker, expiry)
	if entry, ok := f.cache.Get(key, time.Now()); ok {
		var chain types.OptionsChain
		if err := Decode(entry, &chain); err == nil {
			return &chain, true, nil
		}
	}

	var lastErr error
	for _, p := range f.providers {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if err := f.limiters.Wait(ctx, p.Name()); err != nil {
			return nil, false, err
		}
		chain, err := withRetry(ctx, f.cfg, func(ctx context.Context) (*types.OptionsChain, error) {
			return p.OptionsChain(ctx, ticker, expiry)
		})
		if err != nil {
			lastErr = err
			continue
		}
		_ = f.cache.Put(p.Name(), key, chain, types.TierReference.DefaultTTL(), time.Now())
		return chain, false, nil
	}
	if lastErr == nil {
		lastErr = ErrNotFound
	}
	return nil, false, lastErr
}

// Filings implements the filings capability with a reference-data TTL.
func (f *Fetcher) Filings(ctx context.Context, ticker types.Ticker, formTypes []string, from, to time.Time) ([]types.FilingRef, bool, error) {
	key := cacheKey("filings", ticker, formTypes, from, to)
	if entry, ok := f.cache.Get(key, time.Now()); ok {
		var refs []types.FilingRef
		if err := Decode(entry, &refs); err == nil {
			return refs, true, nil
		}
	}

	var lastErr error
	for _, p := range f.providers {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if err := f.limiters.Wait(ctx, p.Name()); err != nil {
			return nil, false, err
		}
		refs, err := withRetry(ctx, f.cfg, func(ctx context.Context) ([]types.FilingRef, error) {
			return p.Filings(ctx, ticker, formTypes, from, to)
		})
		if err != nil {
			lastErr = err
			continue
		}
		_ = f.cache.Put(p.Name(), key, refs, types.TierReference.DefaultTTL(), time.Now())
		return refs, false, nil
	}
	if lastErr == nil {
		lastErr = ErrNotFound
	}
	return nil, false, lastErr
}

// MacroSeries implements the macro_series capability with a reference-data TTL.
func (f *Fetcher) MacroSeries(ctx context.Context, seriesID string, from, to time.Time) (*types.TimeSeries, bool, error) {
	key := cacheKey("macro_series", seriesID, from, to)
	if entry, ok := f.cache.Get(key, time.Now()); ok {
		var ts types.TimeSeries
		if err := Decode(entry, &ts); err == nil {
			return &ts, true, nil
		}
	}

	var lastErr error
	for _, p := range f.providers {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if err := f.limiters.Wait(ctx, p.Name()); err != nil {
			return nil, false, err
		}
		ts, err := withRetry(ctx, f.cfg, func(ctx context.Context) (*types.TimeSeries, error) {
			return p.MacroSeries(ctx, seriesID, from, to)
		})
		if err != nil {
			lastErr = err
			continue
		}
		_ = f.cache.Put(p.Name(), key, ts, types.TierReference.DefaultTTL(), time.Now())
		return ts, false, nil
	}
	if lastErr == nil {
		lastErr = ErrNotFound
	}
	return nil, false, lastErr
}

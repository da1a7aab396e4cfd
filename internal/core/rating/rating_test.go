package rating_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantcore/analytics-core/internal/core/datafetcher"
	"github.com/quantcore/analytics-core/internal/core/rating"
	"github.com/quantcore/analytics-core/internal/core/types"
)

type fakeProvider struct {
	bars  []types.Bar
	snaps []types.FundamentalSnapshot
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) PriceHistory(ctx context.Context, ticker types.Ticker, interval types.Interval, period time.Duration) (*types.PriceSeries, error) {
	return &types.PriceSeries{Ticker: ticker, Interval: interval, Bars: f.bars}, nil
}

func (f *fakeProvider) Quote(ctx context.Context, ticker types.Ticker) (*types.Quote, error) {
	return nil, datafetcher.ErrNotFound
}

func (f *fakeProvider) Fundamentals(ctx context.Context, ticker types.Ticker, periodType types.PeriodType, asOf *time.Time) ([]types.FundamentalSnapshot, error) {
	return f.snaps, nil
}

func (f *fakeProvider) OptionsChain(ctx context.Context, ticker types.Ticker, expiry *time.Time) (*types.OptionsChain, error) {
	return nil, datafetcher.ErrNotFound
}

func (f *fakeProvider) Filings(ctx context.Context, ticker types.Ticker, formTypes []string, from, to time.Time) ([]types.FilingRef, error) {
	return nil, datafetcher.ErrNotFound
}

func (f *fakeProvider) MacroSeries(ctx context.Context, seriesID string, from, to time.Time) (*types.TimeSeries, error) {
	return nil, datafetcher.ErrNotFound
}

func newFetcher(p datafetcher.Provider) *datafetcher.Fetcher {
	return datafetcher.New([]datafetcher.Provider{p}, datafetcher.NewCache(0), datafetcher.NewLimiterSet(100, 10), datafetcher.DefaultConfig(), zerolog.Nop())
}

func buildBars(n int, start time.Time) []types.Bar {
	bars := make([]types.Bar, 0, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += 0.1
		bars = append(bars, types.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      price, High: price * 1.01, Low: price * 0.99, Close: price, AdjClose: price, Volume: 1000,
		})
	}
	return bars
}

func TestRate_FullPITFundamentalsAndMomentum(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := asOf.AddDate(-2, 0, 0)
	bars := buildBars(400, start)

	rev, eps, ni, ta, te, td, fcf, shares, price := 1000.0, 2.0, 100.0, 5000.0, 2000.0, 1000.0, 120.0, 50.0, 40.0
	priorRev, priorEPS := 900.0, 1.8

	snaps := []types.FundamentalSnapshot{
		{Ticker: "AAA", PeriodEnding: asOf.AddDate(0, -1, 0), PeriodType: types.PeriodQuarterly, Revenue: &rev, EPS: &eps, NetIncome: &ni, TotalAssets: &ta, TotalEquity: &te, TotalDebt: &td, FreeCashFlow: &fcf, SharesOut: &shares, PriceAtPeriod: &price},
		{Ticker: "AAA", PeriodEnding: asOf.AddDate(-1, -1, 0), PeriodType: types.PeriodQuarterly, Revenue: &priorRev, EPS: &priorEPS, NetIncome: &ni, TotalAssets: &ta, TotalEquity: &te, TotalDebt: &td, FreeCashFlow: &fcf, SharesOut: &shares, PriceAtPeriod: &price},
		{Ticker: "AAA", PeriodEnding: asOf.AddDate(0, 3, 0), PeriodType: types.PeriodQuarterly, Revenue: &rev, EPS: &eps}, // future period, must not leak
	}

	engine := rating.New(newFetcher(&fakeProvider{bars: bars, snaps: snaps}), zerolog.Nop())
	score, err := engine.Rate(context.Background(), "AAA", asOf)
	require.NoError(t, err)

	assert.Equal(t, types.Ticker("AAA"), score.Ticker)
	for _, dc := range score.DataCompleteness {
		if dc.Group == "valuation" || dc.Group == "growth" || dc.Group == "profitability" {
			assert.True(t, dc.PITFaithful, "group %s should be PIT-faithful", dc.Group)
		}
		if dc.Group == "momentum" {
			assert.True(t, dc.PITFaithful)
		}
	}
}

func TestRate_NoFundamentalsProviderDeclaresIncompleteness(t *testing.T) {
	asOf := time.Now()
	start := asOf.AddDate(-2, 0, 0)
	bars := buildBars(300, start)

	engine := rating.New(newFetcher(&fakeProvider{bars: bars}), zerolog.Nop())
	score, err := engine.Rate(context.Background(), "BBB", asOf)
	require.NoError(t, err)

	for _, dc := range score.DataCompleteness {
		if dc.Group == "valuation" {
			assert.False(t, dc.PITFaithful)
			assert.NotEmpty(t, dc.Note)
		}
	}
}

func TestRate_FutureFundamentalSnapshotNeverLeaksIntoPastRating(t *testing.T) {
	asOf := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	start := asOf.AddDate(-2, 0, 0)
	bars := buildBars(300, start)

	futureRev, futureEPS := 9999.0, 99.0
	snaps := []types.FundamentalSnapshot{
		{Ticker: "CCC", PeriodEnding: asOf.AddDate(1, 0, 0), PeriodType: types.PeriodQuarterly, Revenue: &futureRev, EPS: &futureEPS},
	}

	engine := rating.New(newFetcher(&fakeProvider{bars: bars, snaps: snaps}), zerolog.Nop())
	score, err := engine.Rate(context.Background(), "CCC", asOf)
	require.NoError(t, err)

	for _, dc := range score.DataCompleteness {
		if dc.Group == "valuation" {
			assert.False(t, dc.PITFaithful, "a future-only snapshot must not be treated as PIT data")
		}
	}
}

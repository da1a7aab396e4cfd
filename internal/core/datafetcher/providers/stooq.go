// Package providers holds concrete DataFetcher providers. Upstream data
// providers are out of the core's scope; these are thin HTTP adapters
// that satisfy the datafetcher.Provider interface against a free feed.
package providers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantcore/analytics-core/internal/core/datafetcher"
	"github.com/quantcore/analytics-core/internal/core/types"
)

// StooqProvider fetches free daily OHLCV data from stooq.com's CSV endpoint.
// It implements price_history and quote (quote derived from the latest bar);
// it does not implement fundamentals/options/filings/macro, which other
// providers in the fallback chain must supply.
type StooqProvider struct {
	httpClient *http.Client
	baseURL string
	log zerolog.Logger
}

// NewStooqProvider builds a StooqProvider with a bounded-timeout HTTP client,
// a sane default for free third-party APIs with no documented SLA.
func NewStooqProvider(log zerolog.Logger) *StooqProvider {
	return &StooqProvider{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL: "https://stooq.com/q/d/l",
		log: log.With().Str("provider", "stooq").Logger(),
	}
}

func (p *StooqProvider) Name() string { return "stooq" }

func (p *StooqProvider) PriceHistory(ctx context.Context, ticker types.Ticker, interval types.Interval, period time.Duration) (*types.PriceSeries, error) {
	if interval != types.Interval1Day {
		return nil, fmt.Errorf("%w: stooq only serves daily bars", datafetcher.ErrUpstream)
	}

	symbol := strings.ToLower(string(ticker))
	url := fmt.Sprintf("%s/?s=%s&i=d", p.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", datafetcher.ErrUpstream, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", datafetcher.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, datafetcher.ErrRateLimited
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, datafetcher.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: stooq returned status %d", datafetcher.ErrUpstream, resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", datafetcher.ErrParse, err)
	}
	if len(rows) < 2 {
		return nil, datafetcher.ErrNotFound
	}

	cutoff := time.Now().Add(-period)
	series := &types.PriceSeries{Ticker: ticker, Interval: types.Interval1Day}
	for _, row := range rows[1:] { // header: Date,Open,High,Low,Close,Volume
		if len(row) < 6 {
			continue
		}
		bar, err := parseStooqRow(row)
		if err != nil {
			continue // a single malformed row doesn't invalidate the series
		}
		if bar.Timestamp.Before(cutoff) {
			continue
		}
		series.Bars = append(series.Bars, bar)
	}

	if len(series.Bars) == 0 {
		return nil, datafetcher.ErrNotFound
	}
	return series, nil
}

func parseStooqRow(row []string) (types.Bar, error) {
	ts, err := time.Parse("2006-01-02", row[0])
	if err != nil {
		return types.Bar{}, err
	}
	open, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return types.Bar{}, err
	}
	high, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return types.Bar{}, err
	}
	low, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return types.Bar{}, err
	}
	closeVal, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return types.Bar{}, err
	}
	volume, _ := strconv.ParseFloat(row[5], 64)

	return types.Bar{
		Timestamp: ts,
		Open: open,
		High: high,
		Low: low,
		Close: closeVal,
		AdjClose: closeVal,
		Volume: volume,
	}, nil
}

func (p *StooqProvider) Quote(ctx context.Context, ticker types.Ticker) (*types.Quote, error) {
	series, err := p.PriceHistory(ctx, ticker, types.Interval1Day, 5*24*time.Hour)
	if err != nil {
		return nil, err
	}
	last := series.Bars[len(series.Bars)-1]
	return &types.Quote{Ticker: ticker, Price: last.Close, FetchedAt: time.Now()}, nil
}

func (p *StooqProvider) Fundamentals(ctx context.Context, ticker types.Ticker, periodType types.PeriodType, asOf *time.Time) ([]types.FundamentalSnapshot, error) {
	return nil, fmt.Errorf("%w: stooq does not serve fundamentals", datafetcher.ErrNotFound)
}

func (p *StooqProvider) OptionsChain(ctx context.Context, ticker types.Ticker, expiry *time.Time) (*types.OptionsChain, error) {
	return nil, fmt.Errorf("%w: stooq does not serve options chains", datafetcher.ErrNotFound)
}

func (p *StooqProvider) Filings(ctx context.Context, ticker types.Ticker, formTypes []string, from, to time.Time) ([]types.FilingRef, error) {
	return nil, fmt.Errorf("%w: stooq does not serve filings", datafetcher.ErrNotFound)
}

func (p *StooqProvider) MacroSeries(ctx context.Context, seriesID string, from, to time.Time) (*types.TimeSeries, error) {
	return nil, fmt.Errorf("%w: stooq does not serve macro series", datafetcher.ErrNotFound)
}

package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/quantcore/analytics-core/internal/core/datafetcher"
	"github.com/quantcore/analytics-core/internal/core/types"
)

// wsTick is the wire shape of a single streamed quote update.
type wsTick struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
}

// StreamingQuoteProvider maintains a single long-lived websocket connection
// to a streaming quote feed and serves Quote() from an in-memory last-tick
// table, so callers never block on network I/O per request. It implements
// only the quote capability; price_history/fundamentals/options/filings/macro
// fall through to ErrNotFound so the fallback chain defers to other providers.
type StreamingQuoteProvider struct {
	url string
	log zerolog.Logger

	mu    sync.RWMutex
	last  map[types.Ticker]types.Quote
	ready chan struct{}
	once  sync.Once
}

// NewStreamingQuoteProvider builds a provider around a websocket URL. Run
// must be called (typically from a background goroutine owned by the
// deployment's main) before Quote() will return live data.
func NewStreamingQuoteProvider(url string, log zerolog.Logger) *StreamingQuoteProvider {
	return &StreamingQuoteProvider{
		url:   url,
		log:   log.With().Str("provider", "ws-quote").Logger(),
		last:  make(map[types.Ticker]types.Quote),
		ready: make(chan struct{}),
	}
}

func (p *StreamingQuoteProvider) Name() string { return "ws-quote" }

// Run connects and reads ticks until ctx is cancelled, reconnecting with a
// fixed backoff on disconnect. It is meant to run for the lifetime of the
// process in its own goroutine.
func (p *StreamingQuoteProvider) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.runOnce(ctx); err != nil {
			p.log.Warn().Err(err).Msg("stream disconnected, reconnecting")
		}
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *StreamingQuoteProvider) runOnce(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, p.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", datafetcher.ErrUpstream, err)
	}
	defer conn.CloseNow()

	p.once.Do(func() { close(p.ready) })

	for {
		var tick wsTick
		if err := wsjson.Read(ctx, conn, &tick); err != nil {
			return fmt.Errorf("%w: %v", datafetcher.ErrUpstream, err)
		}
		p.mu.Lock()
		p.last[types.Ticker(tick.Ticker)] = types.Quote{
			Ticker:    types.Ticker(tick.Ticker),
			Price:     tick.Price,
			FetchedAt: time.Now(),
		}
		p.mu.Unlock()
	}
}

func (p *StreamingQuoteProvider) Quote(ctx context.Context, ticker types.Ticker) (*types.Quote, error) {
	p.mu.RLock()
	q, ok := p.last[ticker]
	p.mu.RUnlock()
	if !ok {
		return nil, datafetcher.ErrNotFound
	}
	return &q, nil
}

func (p *StreamingQuoteProvider) PriceHistory(ctx context.Context, ticker types.Ticker, interval types.Interval, period time.Duration) (*types.PriceSeries, error) {
	return nil, fmt.Errorf("%w: ws-quote does not serve history", datafetcher.ErrNotFound)
}

func (p *StreamingQuoteProvider) Fundamentals(ctx context.Context, ticker types.Ticker, periodType types.PeriodType, asOf *time.Time) ([]types.FundamentalSnapshot, error) {
	return nil, fmt.Errorf("%w: ws-quote does not serve fundamentals", datafetcher.ErrNotFound)
}

func (p *StreamingQuoteProvider) OptionsChain(ctx context.Context, ticker types.Ticker, expiry *time.Time) (*types.OptionsChain, error) {
	return nil, fmt.Errorf("%w: ws-quote does not serve options chains", datafetcher.ErrNotFound)
}

func (p *StreamingQuoteProvider) Filings(ctx context.Context, ticker types.Ticker, formTypes []string, from, to time.Time) ([]types.FilingRef, error) {
	return nil, fmt.Errorf("%w: ws-quote does not serve filings", datafetcher.ErrNotFound)
}

func (p *StreamingQuoteProvider) MacroSeries(ctx context.Context, seriesID string, from, to time.Time) (*types.TimeSeries, error) {
	return nil, fmt.Errorf("%w: ws-quote does not serve macro series", datafetcher.ErrNotFound)
}

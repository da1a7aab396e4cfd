package types

import "time"

// Ticker is an opaque symbol string, unique within a market namespace.
// Crypto pairs use a "-USD"-style suffix convention; everything else is a bare
// equity/ETF symbol. The core never interprets ticker structure beyond this.
type Ticker string

// Interval names the bar granularity of a PriceSeries.
type Interval string

const (
	Interval1Day  Interval = "1d"
	Interval1Hour Interval = "1h"
	Interval5Min  Interval = "5m"
)

// Bar is one OHLCV observation.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	AdjClose  float64
	Volume    float64
}

// PriceSeries is an ordered, strictly-monotonic sequence of bars for one
// (ticker, interval, period). Missing bars are never interpolated; they are
// simply absent from Bars.
type PriceSeries struct {
	Ticker   Ticker
	Interval Interval
	Bars     []Bar
}

// Closes extracts the adjusted close column, the series NumericKit operates on.
func (p PriceSeries) Closes() []float64 {
	out := make([]float64, len(p.Bars))
	for i, b := range p.Bars {
		out[i] = b.AdjClose
	}
	return out
}

func (p PriceSeries) Highs() []float64 {
	out := make([]float64, len(p.Bars))
	for i, b := range p.Bars {
		out[i] = b.High
	}
	return out
}

func (p PriceSeries) Lows() []float64 {
	out := make([]float64, len(p.Bars))
	for i, b := range p.Bars {
		out[i] = b.Low
	}
	return out
}

// Quote is a point-in-time price snapshot.
type Quote struct {
	Ticker    Ticker
	Price     float64
	FetchedAt time.Time
}

// PeriodType distinguishes quarterly from annual fundamentals.
type PeriodType string

const (
	PeriodQuarterly PeriodType = "quarterly"
	PeriodAnnual    PeriodType = "annual"
)

// FundamentalSnapshot is keyed by (ticker, period_ending) and immutable once
// recorded. Line items are nullable: a nil pointer means "not reported", never 0.
type FundamentalSnapshot struct {
	Ticker        Ticker
	PeriodEnding  time.Time
	PeriodType    PeriodType
	Revenue       *float64
	NetIncome     *float64
	EPS           *float64
	TotalAssets   *float64
	TotalEquity   *float64
	TotalDebt     *float64
	FreeCashFlow  *float64
	SharesOut     *float64
	PriceAtPeriod *float64 // close price as-of period_ending, for ratio computation
}

// FilingRef references a regulatory filing (10-K, 10-Q, 13F, ...).
type FilingRef struct {
	Ticker   Ticker
	FormType string
	Filed    time.Time
	URL      string
}

// OptionsChain is a generic record set for a single expiry.
type OptionsChain struct {
	Ticker  Ticker
	Expiry  time.Time
	Calls   []OptionContract
	Puts    []OptionContract
}

// OptionContract is one strike on one side of an options chain.
type OptionContract struct {
	Strike       float64
	Bid          float64
	Ask          float64
	OpenInterest int64
	ImpliedVol   *float64
}

// TimeSeries is a generic labeled numeric series (used for macro series).
type TimeSeries struct {
	SeriesID string
	Points   []TimeSeriesPoint
}

type TimeSeriesPoint struct {
	Timestamp time.Time
	Value     *float64
}

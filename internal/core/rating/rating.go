// Package rating implements the RatingEngine: the point-in-time wrapper
// around the composite multi-factor score. It consults the DataFetcher with
// an as-of filter so that a historical rating never leaks data that would
// not have been known on that date, and reports per-group whether the
// inputs used were PIT-faithful or substituted from current data.
package rating

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantcore/analytics-core/internal/core/datafetcher"
	"github.com/quantcore/analytics-core/internal/core/numerickit"
	"github.com/quantcore/analytics-core/internal/core/signals"
	"github.com/quantcore/analytics-core/internal/core/types"
)

// priceHistoryLookback is the window pulled to compute momentum factors,
// wide enough to cover a 200-day SMA plus the 14-day RSI warmup.
const priceHistoryLookback = 400 * 24 * time.Hour

// Engine computes PIT composite ratings by consulting a Fetcher for both
// fundamentals and price history, as-of a caller-supplied date.
type Engine struct {
	fetcher *datafetcher.Fetcher
	log zerolog.Logger
}

// New builds a rating Engine over an existing Fetcher.
func New(fetcher *datafetcher.Fetcher, log zerolog.Logger) *Engine {
	return &Engine{fetcher: fetcher, log: log.With().Str("component", "rating_engine").Logger()}
}

// Rate computes a composite score for ticker as-of asOf. When asOf is
// the zero value, "now" is assumed and every group is treated as current
// data, not a PIT substitution (there is nothing to leak into the present).
func (e *Engine) Rate(ctx context.Context, ticker types.Ticker, asOf time.Time) (types.CompositeScore, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}

	in := signals.FactorInputs{Ticker: ticker, AsOf: asOf}

	fundamentalsFaithful, fundamentalsNote := e.fillFundamentals(ctx, &in, asOf)
	momentumFaithful, momentumNote := e.fillMomentum(ctx, &in, asOf)

	score := signals.CompositeRating(in)
	annotateCompleteness(score.DataCompleteness, map[string]string{
		"valuation": fundamentalsNote,
		"growth": fundamentalsNote,
		"profitability": fundamentalsNote,
	}, fundamentalsFaithful)
	annotateCompleteness(score.DataCompleteness, map[string]string{
		"momentum": momentumNote,
	}, momentumFaithful)

	return score, nil
}

// annotateCompleteness overrides the PITFaithful/Note fields CompositeRating
// produced for the named groups, since only the caller (here) knows whether
// the underlying provider actually honored the as-of filter.
func annotateCompleteness(completeness []types.DataCompleteness, notes map[string]string, faithful bool) {
	for i := range completeness {
		note, ok := notes[completeness[i].Group]
		if !ok || completeness[i].Note != "" {
			continue // group already flagged unavailable by CompositeRating itself
		}
		completeness[i].PITFaithful = faithful
		if !faithful {
			completeness[i].Note = note
		}
	}
}

// fillFundamentals populates the valuation/growth/profitability inputs from
// the most recent FundamentalSnapshot whose PeriodEnding is on or before
// asOf. A snapshot the provider returns but reports no PeriodEnding <= asOf
// for is current-as-proxy contamination and is rejected rather than used,
// per the transparency invariant.
func (e *Engine) fillFundamentals(ctx context.Context, in *signals.FactorInputs, asOf time.Time) (faithful bool, note string) {
	snaps, _, err := e.fetcher.Fundamentals(ctx, in.Ticker, types.PeriodQuarterly, &asOf)
	if err != nil || len(snaps) == 0 {
		return false, "no PIT fundamentals available from any provider for this as-of date"
	}

	var latest *types.FundamentalSnapshot
	for i := range snaps {
		s := &snaps[i]
		if s.PeriodEnding.After(asOf) {
			continue // would leak a not-yet-reported period
		}
		if latest == nil || s.PeriodEnding.After(latest.PeriodEnding) {
			latest = s
		}
	}
	if latest == nil {
		return false, "provider returned fundamentals but none with a period ending on or before the as-of date"
	}

	if latest.Revenue != nil && latest.PriceAtPeriod != nil {
		revYoY := growthRate(snaps, latest, func(s *types.FundamentalSnapshot) *float64 { return s.Revenue })
		in.RevenueYoY = revYoY
	}
	if latest.EPS != nil {
		epsYoY := growthRate(snaps, latest, func(s *types.FundamentalSnapshot) *float64 { return s.EPS })
		in.EPSYoY = epsYoY
	}
	if latest.NetIncome != nil && latest.Revenue != nil && *latest.Revenue != 0 {
		margin := *latest.NetIncome / *latest.Revenue
		in.NetMargin = &margin
	}
	if latest.NetIncome != nil && latest.TotalEquity != nil && *latest.TotalEquity != 0 {
		roe := *latest.NetIncome / *latest.TotalEquity
		in.ROE = &roe
	}
	if latest.NetIncome != nil && latest.TotalAssets != nil && *latest.TotalAssets != 0 {
		roa := *latest.NetIncome / *latest.TotalAssets
		in.ROA = &roa
	}
	if latest.FreeCashFlow != nil {
		positive := *latest.FreeCashFlow > 0
		in.FCFPositive = &positive
	}
	if latest.PriceAtPeriod != nil && latest.EPS != nil && *latest.EPS != 0 {
		pe := *latest.PriceAtPeriod / *latest.EPS
		in.PE = &pe
	}
	if latest.PriceAtPeriod != nil && latest.TotalEquity != nil && latest.SharesOut != nil && *latest.SharesOut != 0 {
		bvps := *latest.TotalEquity / *latest.SharesOut
		if bvps != 0 {
			pb := *latest.PriceAtPeriod / bvps
			in.PB = &pb
		}
	}
	if latest.PriceAtPeriod != nil && latest.Revenue != nil && latest.SharesOut != nil && *latest.SharesOut != 0 {
		revPerShare := *latest.Revenue / *latest.SharesOut
		if revPerShare != 0 {
			ps := *latest.PriceAtPeriod / revPerShare
			in.PS = &ps
		}
	}

	return true, ""
}

// growthRate finds the prior-year snapshot (same quarter, ~4 periods back)
// and computes year-over-year growth for the field extracted by get.
func growthRate(snaps []types.FundamentalSnapshot, latest *types.FundamentalSnapshot, get func(*types.FundamentalSnapshot) *float64) *float64 {
	curr := get(latest)
	if curr == nil {
		return nil
	}
	targetEnding := latest.PeriodEnding.AddDate(-1, 0, 0)
	var prior *types.FundamentalSnapshot
	for i := range snaps {
		s := &snaps[i]
		if s == latest {
			continue
		}
		delta := s.PeriodEnding.Sub(targetEnding)
		if delta < 0 {
			delta = -delta
		}
		if delta > 45*24*time.Hour {
			continue
		}
		prior = s
	}
	if prior == nil {
		return nil
	}
	priorVal := get(prior)
	if priorVal == nil || *priorVal == 0 {
		return nil
	}
	rate := (*curr - *priorVal) / absFloat(*priorVal)
	return &rate
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// fillMomentum populates the momentum inputs from daily closes filtered to
// bars at or before asOf. Price history is filtered client-side rather than
// trusted to the provider, since historical OHLC bars are immutable once
// recorded and do not carry the same PIT-contamination risk fundamentals do.
func (e *Engine) fillMomentum(ctx context.Context, in *signals.FactorInputs, asOf time.Time) (faithful bool, note string) {
	series, _, err := e.fetcher.PriceHistory(ctx, in.Ticker, types.Interval1Day, priceHistoryLookback)
	if err != nil || series == nil {
		return false, "no price history available from any provider for this as-of date"
	}

	var closes []float64
	for _, b := range series.Bars {
		if b.Timestamp.After(asOf) {
			break
		}
		closes = append(closes, b.Close)
	}
	if len(closes) < 20 {
		return false, "insufficient PIT-filtered price history for momentum factors"
	}

	mom := signals.Momentum(in.Ticker, closes)
	in.RSI14 = mom.RSI14

	for _, spec := range []struct {
		days int
		dst **float64
	}{
		{63, &in.Return3M},
		{126, &in.Return6M},
		{252, &in.Return12M},
	} {
		if len(closes) <= spec.days {
			continue
		}
		ret := (closes[len(closes)-1] - closes[len(closes)-1-spec.days]) / closes[len(closes)-1-spec.days]
		v := ret
		*spec.dst = &v
	}

	if len(closes) >= 200 {
		sma := numerickit.Mean(closes[len(closes)-200:])
		if sma > numerickit.Epsilon {
			ratio := (closes[len(closes)-1] - sma) / sma
			in.PriceVsSMA200 = &ratio
		}
	}

	return true, ""
}

// Package signals implements the SignalModules: momentum scoring, the
// multi-factor composite rating, correlation/regime detection, pairs
// cointegration, and signal fusion.
package signals

import (
	"github.com/quantcore/analytics-core/internal/core/numerickit"
	"github.com/quantcore/analytics-core/internal/core/types"
)

// MomentumResult is the output of a single-ticker momentum scan.
type MomentumResult struct {
	Ticker types.Ticker
	RSI14 *float64
	MACDHist *float64
	PriceVsSMA50 *float64 // (price - sma50) / sma50, nil if insufficient history
	Composite float64 // -1..1, blended momentum score
}

// Momentum computes a blended momentum score from a daily close series.
// A component is left out of the blend (never NaN) when the series is too
// short for that indicator, rather than failing the whole calculation; the
// composite is 0 when no component is available.
func Momentum(ticker types.Ticker, closes []float64) MomentumResult {
	result := MomentumResult{Ticker: ticker}

	var rsiComponent, macdComponent, smaComponent float64
	var rsiWeight, macdWeight, smaWeight float64

	if rsi, err := numerickit.RSI(closes, 14); err == nil && len(rsi) > 0 {
		last := rsi[len(rsi)-1]
		result.RSI14 = &last
		// Map RSI's 0-100 scale to a -1..1 signal centered at the neutral 50.
		rsiComponent = (last - 50) / 50
		rsiWeight = 1
	}

	if macd, err := numerickit.MACD(closes, 12, 26, 9); err == nil && len(macd.Histogram) > 0 {
		last := macd.Histogram[len(macd.Histogram)-1]
		result.MACDHist = &last
		macdComponent = clampUnit(last)
		macdWeight = 1
	}

	if len(closes) >= 50 {
		sma := numerickit.Mean(closes[len(closes)-50:])
		if sma > numerickit.Epsilon {
			price := closes[len(closes)-1]
			ratio := (price - sma) / sma
			result.PriceVsSMA50 = &ratio
			smaComponent = clampUnit(ratio * 5) // amplify a +/-20% deviation to +/-1
			smaWeight = 1
		}
	}

	totalWeight := rsiWeight + macdWeight + smaWeight
	if totalWeight > 0 {
		result.Composite = (rsiComponent*rsiWeight + macdComponent*macdWeight + smaComponent*smaWeight) / totalWeight
	}
	return result
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

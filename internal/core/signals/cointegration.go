package signals

import (
	"math"

	"github.com/quantcore/analytics-core/internal/core/numerickit"
	"github.com/quantcore/analytics-core/internal/core/types"
)

// adfCriticalValue5pct is the fixed large-sample 5% Dickey-Fuller critical
// value for a regression with a constant, applied to the Engle-Granger
// residual spread. NumericKit
// does not carry a tabulated ADF response-surface distribution, so the
// p-value below is a monotonic approximation against this single threshold
// rather than an exact lookup.
const adfCriticalValue5pct = -2.86

// Cointegration runs the Engle-Granger test on two price series:
// estimate the hedge ratio via OLS of a on b, then test the OLS residual
// spread for stationarity via a Dickey-Fuller regression with no lagged
// difference terms.
func Cointegration(tickerA, tickerB types.Ticker, pricesA, pricesB []float64) (*types.CointegrationResult, error) {
	_, hedgeRatio, residuals, err := numerickit.SimpleOLS(pricesA, pricesB)
	if err != nil {
		return nil, err
	}

	_, pValue := adfTestStatistic(residuals)
	cointegrated := pValue < 0.05

	halfLife := numerickit.HalfLifeOfMeanReversion(residuals)

	var z float64
	if len(residuals) > 0 {
		mean := numerickit.Mean(residuals)
		std := numerickit.StdDev(residuals)
		if zp := numerickit.ZScore(residuals[len(residuals)-1], mean, std); zp != nil {
			z = *zp
		}
	}

	signal := types.SignalNoTrade
	if cointegrated {
		switch {
		case z < -2:
			signal = types.SignalLongSpread
		case z > 2:
			signal = types.SignalShortSpread
		case math.Abs(z) < 0.5:
			signal = types.SignalClose
		default:
			signal = types.SignalHold
		}
	}

	return &types.CointegrationResult{
		TickerA: tickerA,
		TickerB: tickerB,
		Cointegrated: cointegrated,
		PValue: pValue,
		HedgeRatio: hedgeRatio,
		HalfLifeDays: halfLife,
		CurrentZScore: z,
		Signal: signal,
	}, nil
}

// adfTestStatistic runs delta_r[t] = c + gamma * r[t-1] + e[t] on the residual
// spread and maps the resulting t-statistic to an approximate p-value
// against the fixed 5% critical value.
func adfTestStatistic(residuals []float64) (statistic, pValue float64) {
	if len(residuals) < 4 {
		return 0, 1.0
	}
	lagged := residuals[:len(residuals)-1]
	deltas := make([]float64, len(residuals)-1)
	for i := 1; i < len(residuals); i++ {
		deltas[i-1] = residuals[i] - residuals[i-1]
	}

	_, gamma, resid, err := numerickit.SimpleOLS(deltas, lagged)
	if err != nil {
		return 0, 1.0
	}

	se := standardErrorOfSlope(lagged, resid)
	if se <= numerickit.Epsilon {
		return 0, 1.0
	}
	t := gamma / se
	if t >= 0 {
		return t, 1.0
	}

	ratio := t / adfCriticalValue5pct
	var p float64
	if ratio > 1 {
		p = 0.05 / ratio
	} else {
		p = 0.05 + (1-ratio)*0.5
	}
	if p > 1 {
		p = 1
	}
	if p < 0.0001 {
		p = 0.0001
	}
	return t, p
}

func standardErrorOfSlope(x, residuals []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	meanX := numerickit.Mean(x)
	var ssx float64
	for _, v := range x {
		d := v - meanX
		ssx += d * d
	}
	if ssx <= numerickit.Epsilon {
		return 0
	}

	var sse float64
	for _, r := range residuals {
		sse += r * r
	}
	dof := float64(len(x) - 2)
	if dof <= 0 {
		return 0
	}
	variance := sse / dof
	return math.Sqrt(variance / ssx)
}

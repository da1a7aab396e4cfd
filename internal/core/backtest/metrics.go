// Package backtest implements the BacktestEngine: strategy abstraction,
// bar-by-bar simulation, performance metrics, parameter optimization, and
// walk-forward analysis.
package backtest

import (
	"math"

	"github.com/quantcore/analytics-core/internal/core/numerickit"
)

// Metrics is the "Metrics" report of a completed run.
type Metrics struct {
	TotalReturn float64
	CAGR float64
	Sharpe *float64
	Sortino *float64
	Calmar *float64
	MaxDrawdown float64
	MaxDrawdownBars int
	WinRate float64
	AverageWin float64
	AverageLoss float64
	ProfitFactor *float64
	NumTrades int
	AverageHoldingBars float64
	ExposureFraction float64
	MaxConsecutiveWins int
	MaxConsecutiveLosses int
	Alpha *float64
	Beta *float64
	InformationRatio *float64
	MonthlyReturns map[string]float64
}

const tradingDaysPerYear = 252

// SharpeRatio is the annualized Sharpe ratio of a periodic-return series, nil
// when there is no variance to divide by.
func SharpeRatio(returns []float64, riskFreeRate float64) *float64 {
	if len(returns) < 2 {
		return nil
	}
	std := numerickit.StdDev(returns)
	if std <= numerickit.Epsilon {
		return nil
	}
	mean := numerickit.Mean(returns)
	periodicRF := riskFreeRate / tradingDaysPerYear
	sharpe := (mean - periodicRF) / std * math.Sqrt(tradingDaysPerYear)
	return &sharpe
}

// SortinoRatio is like Sharpe but penalizes only downside deviation.
func SortinoRatio(returns []float64, riskFreeRate float64) *float64 {
	if len(returns) < 2 {
		return nil
	}
	periodicRF := riskFreeRate / tradingDaysPerYear
	var downside []float64
	for _, r := range returns {
		if r < periodicRF {
			downside = append(downside, r-periodicRF)
		}
	}
	if len(downside) == 0 {
		return nil
	}
	var sumSq float64
	for _, d := range downside {
		sumSq += d * d
	}
	downsideDev := math.Sqrt(sumSq / float64(len(returns)))
	if downsideDev <= numerickit.Epsilon {
		return nil
	}
	mean := numerickit.Mean(returns)
	sortino := (mean - periodicRF) / downsideDev * math.Sqrt(tradingDaysPerYear)
	return &sortino
}

// CalmarRatio is CAGR divided by max drawdown, nil if there was no drawdown.
func CalmarRatio(cagr, maxDrawdown float64) *float64 {
	if maxDrawdown <= numerickit.Epsilon {
		return nil
	}
	calmar := cagr / maxDrawdown
	return &calmar
}

// MaxDrawdown computes the maximum peak-to-trough decline and its duration
// in bars, over an equity curve.
func MaxDrawdown(equity []float64) (pct float64, durationBars int) {
	if len(equity) < 2 {
		return 0, 0
	}
	peak := equity[0]
	peakIdx := 0
	maxDD := 0.0
	maxDur := 0

	for i, v := range equity {
		if v > peak {
			peak = v
			peakIdx = i
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > maxDD {
				maxDD = dd
				maxDur = i - peakIdx
			}
		}
	}
	return maxDD, maxDur
}

// CAGR computes the compound annual growth rate from start/end equity over
// the given number of trading days.
func CAGR(startEquity, endEquity float64, tradingDays int) float64 {
	if startEquity <= 0 || tradingDays <= 0 {
		return 0
	}
	years := float64(tradingDays) / tradingDaysPerYear
	if years <= 0 {
		return 0
	}
	return math.Pow(endEquity/startEquity, 1/years) - 1
}

// AlphaBeta computes alpha/beta of a strategy's returns vs a benchmark's
// returns via simple linear regression, nil when the benchmark has no
// variance to regress against.
func AlphaBeta(strategyReturns, benchmarkReturns []float64) (alpha, beta *float64) {
	intercept, slope, _, err := numerickit.SimpleOLS(strategyReturns, benchmarkReturns)
	if err != nil {
		return nil, nil
	}
	return &intercept, &slope
}

// InformationRatio is excess return over a benchmark divided by the
// tracking error (std of the excess-return series).
func InformationRatio(strategyReturns, benchmarkReturns []float64) *float64 {
	n := len(strategyReturns)
	if len(benchmarkReturns) < n {
		n = len(benchmarkReturns)
	}
	if n == 0 {
		return nil
	}
	excess := make([]float64, n)
	for i := 0; i < n; i++ {
		excess[i] = strategyReturns[i] - benchmarkReturns[i]
	}
	std := numerickit.StdDev(excess)
	if std <= numerickit.Epsilon {
		return nil
	}
	ir := numerickit.Mean(excess) / std * math.Sqrt(tradingDaysPerYear)
	return &ir
}

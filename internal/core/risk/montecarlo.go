// Package risk implements the RiskEngine: Monte Carlo GBM and bootstrap
// simulation, VaR/CVaR, and deterministic scenario analysis.
package risk

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantcore/analytics-core/internal/core/numerickit"
)

// SimulationConfig controls a Monte Carlo run.
type SimulationConfig struct {
	Paths int
	Steps int
	Seed int64
}

// GBMParams holds the drift/volatility estimated from historical log
// returns, or overridden directly for scenario analysis.
type GBMParams struct {
	Mu float64
	Sigma float64
}

// EstimateGBMParams computes daily drift and volatility from a historical
// log-return series.
func EstimateGBMParams(logReturns []float64) GBMParams {
	return GBMParams{
		Mu: numerickit.Mean(logReturns),
		Sigma: numerickit.StdDev(logReturns),
	}
}

// SimulateGBM runs cfg.Paths geometric Brownian motion paths of cfg.Steps
// daily steps starting from spot, deterministic given cfg.Seed.
func SimulateGBM(spot float64, params GBMParams, cfg SimulationConfig) [][]float64 {
	rng := rand.New(rand.NewSource(cfg.Seed))
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}

	const dt = 1.0
	drift := (params.Mu - params.Sigma*params.Sigma/2) * dt
	volStep := params.Sigma * math.Sqrt(dt)

	paths := make([][]float64, cfg.Paths)
	for p := 0; p < cfg.Paths; p++ {
		path := make([]float64, cfg.Steps+1)
		path[0] = spot
		for s := 1; s <= cfg.Steps; s++ {
			z := normal.Rand()
			path[s] = path[s-1] * math.Exp(drift+volStep*z)
		}
		paths[p] = path
	}
	return paths
}

// SimulateBootstrap samples cfg.Paths paths of cfg.Steps steps with
// replacement from historicalLogReturns, preserving empirical skew and
// kurtosis rather than assuming normality.
func SimulateBootstrap(spot float64, historicalLogReturns []float64, cfg SimulationConfig) [][]float64 {
	rng := rand.New(rand.NewSource(cfg.Seed))

	paths := make([][]float64, cfg.Paths)
	for p := 0; p < cfg.Paths; p++ {
		path := make([]float64, cfg.Steps+1)
		path[0] = spot
		for s := 1; s <= cfg.Steps; s++ {
			r := historicalLogReturns[rng.Intn(len(historicalLogReturns))]
			path[s] = path[s-1] * math.Exp(r)
		}
		paths[p] = path
	}
	return paths
}

// TerminalValues extracts the last price of every simulated path.
func TerminalValues(paths [][]float64) []float64 {
	out := make([]float64, len(paths))
	for i, p := range paths {
		out[i] = p[len(p)-1]
	}
	return out
}

// SimulationOutputs is the "Outputs" summary of a terminal-value
// distribution.
type SimulationOutputs struct {
	Percentiles map[float64]float64
	ProbabilityProfit float64
	ExpectedReturn float64
	Worst1Pct float64
	Worst5Pct float64
}

// SummarizeTerminalValues builds the Outputs block from a spot price
// and a terminal-value distribution.
func SummarizeTerminalValues(spot float64, terminal []float64) SimulationOutputs {
	percentiles := numerickit.Percentiles(terminal, []float64{0.01, 0.05, 0.10, 0.25, 0.50, 0.75, 0.90, 0.95, 0.99})

	var profitable float64
	var totalReturn float64
	for _, v := range terminal {
		ret := (v - spot) / spot
		totalReturn += ret
		if ret > 0 {
			profitable++
		}
	}
	n := float64(len(terminal))

	return SimulationOutputs{
		Percentiles: percentiles,
		ProbabilityProfit: profitable / n,
		ExpectedReturn: totalReturn / n,
		Worst1Pct: percentiles[0.01],
		Worst5Pct: percentiles[0.05],
	}
}

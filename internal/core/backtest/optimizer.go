package backtest

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/quantcore/analytics-core/internal/core/numerickit"
	"github.com/quantcore/analytics-core/internal/core/types"
)

// ParamRange is one named parameter's candidate values for grid search, or
// its [min,max] bounds for random search.
type ParamRange struct {
	Name string
	Values []float64 // grid search
	Min float64 // random search
	Max float64
}

// ScoreMetric selects which metric the optimizer maximizes.
type ScoreMetric string

const (
	ScoreSharpe ScoreMetric = "sharpe"
	ScoreTotalReturn ScoreMetric = "total_return"
	ScoreCalmar ScoreMetric = "calmar"
)

// IsDegenerate is implemented by strategies whose parameter combinations can
// be invalid (e.g. SMACrossover's fast >= slow); the optimizer skips these
// silently per Failure semantics.
type IsDegenerate interface {
	IsDegenerate() bool
}

func paramKey(params map[string]float64) string {
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%g", n, params[n])
	}
	return strings.Join(parts, ",")
}

func scoreOf(run *types.BacktestRun, metric ScoreMetric) (float64, bool) {
	v, ok := run.Metrics[string(metric)]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// GridSearch enumerates the Cartesian product of ranges' Values and returns
// the best-scoring combination plus a heatmap of every evaluated tuple.
func GridSearch(ctx context.Context, engine *Engine, strategyFactory func(params map[string]float64) Strategy, ticker types.Ticker, series types.PriceSeries, ranges []ParamRange, metric ScoreMetric) (types.OptimizationResult, error) {
	combos := cartesianProduct(ranges)
	return runOptimization(ctx, engine, strategyFactory, ticker, series, combos, metric)
}

// RandomSearch samples n parameter tuples uniformly from ranges' [Min,Max]
// bounds, deterministic given seed.
func RandomSearch(ctx context.Context, engine *Engine, strategyFactory func(params map[string]float64) Strategy, ticker types.Ticker, series types.PriceSeries, ranges []ParamRange, n int, seed int64, metric ScoreMetric) (types.OptimizationResult, error) {
	rng := rand.New(rand.NewSource(seed))
	combos := make([]map[string]float64, 0, n)
	for i := 0; i < n; i++ {
		combo := make(map[string]float64, len(ranges))
		for _, r := range ranges {
			combo[r.Name] = r.Min + rng.Float64()*(r.Max-r.Min)
		}
		combos = append(combos, combo)
	}
	return runOptimization(ctx, engine, strategyFactory, ticker, series, combos, metric)
}

func cartesianProduct(ranges []ParamRange) []map[string]float64 {
	combos := []map[string]float64{{}}
	for _, r := range ranges {
		var next []map[string]float64
		for _, combo := range combos {
			for _, v := range r.Values {
				clone := make(map[string]float64, len(combo)+1)
				for k, cv := range combo {
					clone[k] = cv
				}
				clone[r.Name] = v
				next = append(next, clone)
			}
		}
		combos = next
	}
	return combos
}

type evaluatedCombo struct {
	params map[string]float64
	score float64
	trades int
}

func runOptimization(ctx context.Context, engine *Engine, strategyFactory func(params map[string]float64) Strategy, ticker types.Ticker, series types.PriceSeries, combos []map[string]float64, metric ScoreMetric) (types.OptimizationResult, error) {
	result := types.OptimizationResult{Heatmap: make(map[string]float64)}
	var evaluated []evaluatedCombo

	for _, params := range combos {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		strategy := strategyFactory(params)
		if degenerate, ok := strategy.(IsDegenerate); ok && degenerate.IsDegenerate() {
			result.Skipped++
			continue
		}

		run, err := engine.Run(ctx, strategy.Name(), strategy, ticker, series)
		if err != nil {
			result.Skipped++
			continue
		}
		result.Evaluated++

		score, ok := scoreOf(run, metric)
		if !ok {
			result.Skipped++
			continue
		}
		result.Heatmap[paramKey(params)] = score

		numTrades := 0
		if v := run.Metrics["num_trades"]; v != nil {
			numTrades = int(*v)
		}
		evaluated = append(evaluated, evaluatedCombo{params: params, score: score, trades: numTrades})
	}

	if len(evaluated) == 0 {
		return result, nil
	}

	sort.Slice(evaluated, func(i, j int) bool {
		a, b := evaluated[i], evaluated[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.trades != b.trades {
			return a.trades < b.trades
		}
		return paramKey(a.params) < paramKey(b.params)
	})

	best := evaluated[0]
	result.BestParams = best.params
	result.BestScore = best.score

	topN := len(evaluated) / 10
	if topN < 1 {
		topN = 1
	}
	topScores := make([]float64, topN)
	for i := 0; i < topN; i++ {
		topScores[i] = evaluated[i].score
	}
	mean := numerickit.Mean(topScores)
	if mean != 0 {
		result.Stability = numerickit.StdDev(topScores) / mean
	}

	return result, nil
}

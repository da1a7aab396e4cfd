package backtest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantcore/analytics-core/internal/core/backtest"
	"github.com/quantcore/analytics-core/internal/core/types"
)

func buildSeries(closes []float64) types.PriceSeries {
	series := types.PriceSeries{Ticker: "TEST", Interval: types.Interval1Day}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		series.Bars = append(series.Bars, types.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c, High: c * 1.01, Low: c * 0.99, Close: c, AdjClose: c, Volume: 1000,
		})
	}
	return series
}

func TestEngine_SMACrossover_ProducesTradesAndMetrics(t *testing.T) {
	closes := make([]float64, 0, 120)
	price := 100.0
	for i := 0; i < 120; i++ {
		if i%20 < 10 {
			price += 1
		} else {
			price -= 1
		}
		closes = append(closes, price)
	}
	series := buildSeries(closes)

	engine := backtest.NewEngine(backtest.DefaultEngineConfig())
	strategy := backtest.NewSMACrossover(map[string]float64{"fast": 5, "slow": 20})

	run, err := engine.Run(context.Background(), "sma_crossover", strategy, "TEST", series)
	require.NoError(t, err)
	assert.Len(t, run.Equity, len(closes))
	require.NotNil(t, run.Metrics["total_return"])
}

func TestEngine_NoActionsProducesFlatEquity(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100}
	series := buildSeries(closes)
	engine := backtest.NewEngine(backtest.DefaultEngineConfig())

	strategy := backtest.NewMomentumThreshold(map[string]float64{"lookback": 100, "threshold": 0.5})
	run, err := engine.Run(context.Background(), "momentum_threshold", strategy, "TEST", series)
	require.NoError(t, err)
	for _, e := range run.Equity {
		assert.Equal(t, backtest.DefaultEngineConfig().InitialCash, e.Equity)
	}
}

func TestSMACrossover_DegenerateParamsDetected(t *testing.T) {
	s := backtest.NewSMACrossover(map[string]float64{"fast": 20, "slow": 5})
	assert.True(t, s.IsDegenerate())
}

func TestGridSearch_SkipsDegenerateCombinations(t *testing.T) {
	closes := make([]float64, 0, 80)
	price := 100.0
	for i := 0; i < 80; i++ {
		price += float64(i%7) - 3
		closes = append(closes, price)
	}
	series := buildSeries(closes)
	engine := backtest.NewEngine(backtest.DefaultEngineConfig())

	ranges := []backtest.ParamRange{
		{Name: "fast", Values: []float64{5, 10}},
		{Name: "slow", Values: []float64{5, 10}},
	}
	result, err := backtest.GridSearch(context.Background(), engine, func(p map[string]float64) backtest.Strategy {
		return backtest.NewSMACrossover(p)
	}, "TEST", series, ranges, backtest.ScoreTotalReturn)

	require.NoError(t, err)
	assert.Greater(t, result.Skipped, 0)
}

package backtest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quantcore/analytics-core/internal/core/numerickit"
	"github.com/quantcore/analytics-core/internal/core/types"
)

// WalkForwardConfig controls rolling train/test window sizing.
type WalkForwardConfig struct {
	TrainMonths int
	TestMonths int
	Ranges []ParamRange
	Metric ScoreMetric
}

// RunWalkForward rolls train/test windows of TrainMonths/TestMonths across
// series (step = TestMonths), optimizing on each train window and applying
// the winning parameters to the adjacent test window, then flags
// overfitting per documented thresholds.
func RunWalkForward(ctx context.Context, engine *Engine, strategyFactory func(params map[string]float64) Strategy, ticker types.Ticker, series types.PriceSeries, cfg WalkForwardConfig) (*types.WalkForwardResult, error) {
	bars := series.Bars
	if len(bars) == 0 {
		return nil, nil
	}

	result := &types.WalkForwardResult{RunID: uuid.NewString()}
	trainSpan := monthsToDuration(cfg.TrainMonths)
	testSpan := monthsToDuration(cfg.TestMonths)

	cursor := bars[0].Timestamp
	windowIdx := 0
	var isSharpes, oosSharpes []float64

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		trainStart := cursor
		trainEnd := trainStart.Add(trainSpan)
		testStart := trainEnd
		testEnd := testStart.Add(testSpan)
		if testEnd.After(bars[len(bars)-1].Timestamp) {
			break
		}

		trainSeries := sliceByTime(series, trainStart, trainEnd)
		testSeries := sliceByTime(series, testStart, testEnd)
		if len(trainSeries.Bars) == 0 || len(testSeries.Bars) == 0 {
			cursor = cursor.Add(testSpan)
			windowIdx++
			continue
		}

		opt, err := GridSearch(ctx, engine, strategyFactory, ticker, trainSeries, cfg.Ranges, cfg.Metric)
		if err != nil {
			return nil, err
		}
		if opt.BestParams == nil {
			cursor = cursor.Add(testSpan)
			windowIdx++
			continue
		}

		trainStrategy := strategyFactory(opt.BestParams)
		trainRun, err := engine.Run(ctx, trainStrategy.Name(), trainStrategy, ticker, trainSeries)
		if err != nil {
			return nil, err
		}
		isScore, _ := scoreOf(trainRun, cfg.Metric)

		testStrategy := strategyFactory(opt.BestParams)
		testRun, err := engine.Run(ctx, testStrategy.Name(), testStrategy, ticker, testSeries)
		if err != nil {
			return nil, err
		}
		oosScore, _ := scoreOf(testRun, cfg.Metric)

		result.Windows = append(result.Windows, types.WalkForwardWindow{
			RunID: result.RunID,
			WindowIndex: windowIdx,
			TrainStart: trainStart,
			TrainEnd: trainEnd,
			TestStart: testStart,
			TestEnd: testEnd,
			BestParams: opt.BestParams,
			InSampleScore: isScore,
			OutOfSampleScore: oosScore,
		})
		result.OOSEquityCurve = append(result.OOSEquityCurve, testRun.Equity...)

		if sharpe := testRun.Metrics["sharpe"]; sharpe != nil {
			oosSharpes = append(oosSharpes, *sharpe)
		}
		if sharpe := trainRun.Metrics["sharpe"]; sharpe != nil {
			isSharpes = append(isSharpes, *sharpe)
		}

		cursor = cursor.Add(testSpan)
		windowIdx++
	}

	if len(isSharpes) > 0 && len(oosSharpes) > 0 {
		result.AvgISSharpe = numerickit.Mean(isSharpes)
		result.AvgOOSSharpe = numerickit.Mean(oosSharpes)
		degradation := 1.0
		if result.AvgISSharpe != 0 {
			degradation = result.AvgOOSSharpe / result.AvgISSharpe
		}
		result.OverfitFlag = result.AvgOOSSharpe < 0.5*result.AvgISSharpe || degradation < 0.5
	}

	return result, nil
}

func monthsToDuration(months int) time.Duration {
	return time.Duration(months) * 30 * 24 * time.Hour
}

func sliceByTime(series types.PriceSeries, start, end time.Time) types.PriceSeries {
	out := types.PriceSeries{Ticker: series.Ticker, Interval: series.Interval}
	for _, b := range series.Bars {
		if !b.Timestamp.Before(start) && b.Timestamp.Before(end) {
			out.Bars = append(out.Bars, b)
		}
	}
	return out
}

// Package wiring builds the ModuleRegistry: every SignalModules, RiskEngine,
// BacktestEngine, PaperTrader, and RatingEngine capability dispatch() can
// reach, registered once at process start. Neither
// cmd/server nor cmd/cli hold this wiring directly so both entry points
// register the identical capability surface.
package wiring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantcore/analytics-core/internal/archive"
	"github.com/quantcore/analytics-core/internal/core/backtest"
	"github.com/quantcore/analytics-core/internal/core/dispatcher"
	"github.com/quantcore/analytics-core/internal/core/numerickit"
	"github.com/quantcore/analytics-core/internal/core/papertrader"
	"github.com/quantcore/analytics-core/internal/core/rating"
	"github.com/quantcore/analytics-core/internal/core/registry"
	"github.com/quantcore/analytics-core/internal/core/risk"
	"github.com/quantcore/analytics-core/internal/core/signals"
	"github.com/quantcore/analytics-core/internal/core/types"
	"github.com/quantcore/analytics-core/internal/core/datafetcher"
)

// Deps collects the long-lived components capability handlers close over.
type Deps struct {
	Fetcher *datafetcher.Fetcher
	Rating *rating.Engine
	PaperTrader *papertrader.Store
	BacktestReg *backtest.Registry
	Archive *archive.Store // optional; nil disables archival entirely
	Log zerolog.Logger
}

// Build registers every module_id/capability_id pair this package knows
// about against a fresh Registry.
func Build(deps Deps) *registry.Registry {
	reg := registry.New(deps.Log)

	registerNumericKit(reg)
	registerRating(reg, deps)
	registerRegime(reg, deps)
	registerCointegration(reg, deps)
	registerFusion(reg)
	registerRisk(reg, deps)
	registerBacktest(reg, deps)
	registerPaperTrader(reg, deps)

	return reg
}

func closesFromParam(p dispatcher.Params, key string) ([]float64, error) {
	raw, ok := p[key]
	if !ok {
		return nil, fmt.Errorf("missing required parameter %q", key)
	}
	anySlice, ok := raw.([]any)
	if !ok {
		if fs, ok := raw.([]float64); ok {
			return fs, nil
		}
		return nil, fmt.Errorf("parameter %q: expected array of numbers, got %T", key, raw)
	}
	out := make([]float64, 0, len(anySlice))
	for _, v := range anySlice {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("parameter %q: array element is not a number (%T)", key, v)
		}
		out = append(out, f)
	}
	return out, nil
}

func invalidArg(err error) types.Result {
	return types.Err(types.NewFailure(types.KindInvalidArgument, err.Error(), nil))
}

func degenerate(msg string) types.Result {
	return types.Err(types.NewFailure(types.KindDegenerate, msg, nil))
}

// registerNumericKit exposes the pure statistical primitives directly so
// thin clients can exercise them without standing up a full signal module.
func registerNumericKit(reg *registry.Registry) {
	reg.RegisterModule("numerickit",
		registry.Capability{
			ID: "rsi",
			ParamSchema: []string{"series", "period"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				series, err := closesFromParam(p, "series")
				if err != nil {
					return invalidArg(err)
				}
				period := p.IntOr("period", 14)
				out, err := numerickit.RSI(series, period)
				if err != nil {
					return degenerate(err.Error())
				}
				return types.Ok(out, &types.Meta{})
			},
		},
		registry.Capability{
			ID: "macd",
			ParamSchema: []string{"series", "fast", "slow", "signal"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				series, err := closesFromParam(p, "series")
				if err != nil {
					return invalidArg(err)
				}
				out, err := numerickit.MACD(series, p.IntOr("fast", 12), p.IntOr("slow", 26), p.IntOr("signal", 9))
				if err != nil {
					return degenerate(err.Error())
				}
				return types.Ok(out, &types.Meta{})
			},
		},
		registry.Capability{
			ID: "bollinger",
			ParamSchema: []string{"series", "period", "k"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				series, err := closesFromParam(p, "series")
				if err != nil {
					return invalidArg(err)
				}
				out, err := numerickit.Bollinger(series, p.IntOr("period", 20), p.FloatOr("k", 2))
				if err != nil {
					return degenerate(err.Error())
				}
				return types.Ok(out, &types.Meta{})
			},
		},
		registry.Capability{
			ID: "correlation",
			ParamSchema: []string{"a", "b"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				a, err := closesFromParam(p, "a")
				if err != nil {
					return invalidArg(err)
				}
				b, err := closesFromParam(p, "b")
				if err != nil {
					return invalidArg(err)
				}
				c := numerickit.Correlation(a, b)
				return types.Ok(map[string]any{"correlation": c}, &types.Meta{})
			},
		},
		registry.Capability{
			ID: "ols",
			ParamSchema: []string{"y", "x"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				y, err := closesFromParam(p, "y")
				if err != nil {
					return invalidArg(err)
				}
				x, err := closesFromParam(p, "x")
				if err != nil {
					return invalidArg(err)
				}
				out, err := numerickit.OLS(y, [][]float64{x})
				if err != nil {
					return degenerate(err.Error())
				}
				return types.Ok(out, &types.Meta{})
			},
		},
	)
}

// registerRating wires the /multi-factor composite capability.
func registerRating(reg *registry.Registry, deps Deps) {
	reg.RegisterModule("composite_rating",
		registry.Capability{
			ID: "rate",
			ParamSchema: []string{"ticker", "as_of"},
			DefaultCache: cacheTier(types.TierEOD),
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				ticker, err := p.Ticker("ticker")
				if err != nil {
					return invalidArg(err)
				}
				asOf := time.Now().UTC()
				if t := p.TimeOrNil("as_of"); t != nil {
					asOf = *t
				}
				score, err := deps.Rating.Rate(ctx, ticker, asOf)
				if err != nil {
					return types.Err(types.AsFailure(err))
				}
				return types.Ok(score, &types.Meta{})
			},
		},
	)
}

func cacheTier(t types.CacheTier) *types.CacheTier { return &t }

// registerRegime wires correlation anomaly/regime capabilities.
func registerRegime(reg *registry.Registry, deps Deps) {
	reg.RegisterModule("correlation_anomaly",
		registry.Capability{
			ID: "scan",
			ParamSchema: []string{"ticker_a", "ticker_b", "returns_a", "returns_b"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				ta, err := p.Ticker("ticker_a")
				if err != nil {
					return invalidArg(err)
				}
				tb, err := p.Ticker("ticker_b")
				if err != nil {
					return invalidArg(err)
				}
				a, err := closesFromParam(p, "returns_a")
				if err != nil {
					return invalidArg(err)
				}
				b, err := closesFromParam(p, "returns_b")
				if err != nil {
					return invalidArg(err)
				}
				pair := signals.DetectBreakdown(ta, tb, a, b, signals.DefaultBreakdownConfig())
				return types.Ok(pair, &types.Meta{})
			},
		},
		registry.Capability{
			ID: "regime",
			ParamSchema: []string{"returns"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				rawMap, ok := raw["returns"].(map[string]any)
				if !ok {
					return invalidArg(fmt.Errorf("missing required parameter %q", "returns"))
				}
				returns := make(map[types.Ticker][]float64, len(rawMap))
				for k, v := range rawMap {
					series, err := closesFromParam(dispatcher.Params{"_": v}, "_")
					if err != nil {
						return invalidArg(err)
					}
					returns[types.Ticker(k)] = series
				}
				return types.Ok(signals.ClassifyRegime(returns), &types.Meta{})
			},
		},
	)
}

// registerCointegration wires Engle-Granger pairs testing.
func registerCointegration(reg *registry.Registry, deps Deps) {
	reg.RegisterModule("cointegration_pairs",
		registry.Capability{
			ID: "run",
			ParamSchema: []string{"ticker_a", "ticker_b", "prices_a", "prices_b"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				ta, err := p.Ticker("ticker_a")
				if err != nil {
					return invalidArg(err)
				}
				tb, err := p.Ticker("ticker_b")
				if err != nil {
					return invalidArg(err)
				}
				pa, err := closesFromParam(p, "prices_a")
				if err != nil {
					return invalidArg(err)
				}
				pb, err := closesFromParam(p, "prices_b")
				if err != nil {
					return invalidArg(err)
				}
				out, err := signals.Cointegration(ta, tb, pa, pb)
				if err != nil {
					return degenerate(err.Error())
				}
				return types.Ok(out, &types.Meta{})
			},
		},
	)
}

// registerFusion wires signal fusion.
func registerFusion(reg *registry.Registry) {
	reg.RegisterModule("signal_fusion",
		registry.Capability{
			ID: "run",
			ParamSchema: []string{"ticker", "components"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				ticker, err := p.Ticker("ticker")
				if err != nil {
					return invalidArg(err)
				}
				rawComponents, ok := raw["components"].([]any)
				if !ok {
					return invalidArg(fmt.Errorf("parameter %q: expected array", "components"))
				}
				components := make([]types.FusionComponent, 0, len(rawComponents))
				for _, c := range rawComponents {
					cm, ok := c.(map[string]any)
					if !ok {
						return invalidArg(fmt.Errorf("component entry is not an object"))
					}
					cp := dispatcher.Params(cm)
					score, err := cp.Float("score")
					if err != nil {
						return invalidArg(err)
					}
					confidence, err := cp.Float("confidence")
					if err != nil {
						return invalidArg(err)
					}
					components = append(components, types.FusionComponent{
						Name: cp.StringOr("name", ""),
						Score: score,
						Confidence: confidence,
						UpdatedAt: time.Now().UTC(),
					})
				}
				return types.Ok(signals.Fuse(ticker, components), &types.Meta{})
			},
		},
	)
}

// registerRisk wires Monte Carlo, VaR/CVaR, and scenario capabilities.
func registerRisk(reg *registry.Registry, deps Deps) {
	reg.RegisterModule("monte_carlo",
		registry.Capability{
			ID: "run",
			ParamSchema: []string{"spot", "log_returns", "paths", "steps", "seed", "bootstrap"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				spot, err := p.Float("spot")
				if err != nil {
					return invalidArg(err)
				}
				logReturns, err := closesFromParam(p, "log_returns")
				if err != nil {
					return invalidArg(err)
				}
				cfg := risk.SimulationConfig{
					Paths: p.IntOr("paths", 10000),
					Steps: p.IntOr("steps", 252),
					Seed: int64(p.IntOr("seed", 1)),
				}
				params := risk.EstimateGBMParams(logReturns)
				var paths [][]float64
				if p.BoolOr("bootstrap", false) {
					paths = risk.SimulateBootstrap(spot, logReturns, cfg)
				} else {
					paths = risk.SimulateGBM(spot, params, cfg)
				}
				terminal := risk.TerminalValues(paths)
				outputs := risk.SummarizeTerminalValues(spot, terminal)
				return types.Ok(outputs, &types.Meta{})
			},
		},
		registry.Capability{
			ID: "var_cvar",
			ParamSchema: []string{"spot", "terminal_values", "confidence"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				spot, err := p.Float("spot")
				if err != nil {
					return invalidArg(err)
				}
				terminal, err := closesFromParam(p, "terminal_values")
				if err != nil {
					return invalidArg(err)
				}
				out := risk.ComputeVaRCVaR(spot, terminal, p.FloatOr("confidence", 0.95))
				return types.Ok(out, &types.Meta{})
			},
		},
		registry.Capability{
			ID: "scenarios",
			ParamSchema: []string{"spot", "log_returns", "paths", "steps", "seed"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				spot, err := p.Float("spot")
				if err != nil {
					return invalidArg(err)
				}
				logReturns, err := closesFromParam(p, "log_returns")
				if err != nil {
					return invalidArg(err)
				}
				cfg := risk.SimulationConfig{
					Paths: p.IntOr("paths", 10000),
					Steps: p.IntOr("steps", 252),
					Seed: int64(p.IntOr("seed", 1)),
				}
				base := risk.EstimateGBMParams(logReturns)
				sigmaMu := base.Sigma
				if n := float64(len(logReturns)); n > 0 {
					sigmaMu = base.Sigma / math.Sqrt(n)
				}
				scenarios := risk.RunScenarios(spot, base, sigmaMu, cfg)
				return types.Ok(scenarios, &types.Meta{})
			},
		},
	)
}

// registerBacktest wires strategy execution, optimization, and
// walk-forward capabilities against the built-in strategy registry.
func registerBacktest(reg *registry.Registry, deps Deps) {
	engine := backtest.NewEngine(backtest.DefaultEngineConfig())

	seriesFromParam := func(p dispatcher.Params) (types.PriceSeries, error) {
		rawBars, ok := p["bars"].([]any)
		if !ok {
			return types.PriceSeries{}, fmt.Errorf("missing required parameter %q", "bars")
		}
		bars := make([]types.Bar, 0, len(rawBars))
		for _, rb := range rawBars {
			bm, ok := rb.(map[string]any)
			if !ok {
				return types.PriceSeries{}, fmt.Errorf("bar entry is not an object")
			}
			bp := dispatcher.Params(bm)
			ts, err := bp.Time("timestamp")
			if err != nil {
				return types.PriceSeries{}, err
			}
			open, _ := bp.Float("open")
			high, _ := bp.Float("high")
			low, _ := bp.Float("low")
			closeV, err := bp.Float("close")
			if err != nil {
				return types.PriceSeries{}, err
			}
			volume, _ := bp.Float("volume")
			bars = append(bars, types.Bar{Timestamp: ts, Open: open, High: high, Low: low, Close: closeV, Volume: volume})
		}
		return types.PriceSeries{Ticker: types.Ticker(p.StringOr("ticker", "")), Interval: types.Interval1Day, Bars: bars}, nil
	}

	paramsFromRaw := func(raw map[string]any) map[string]float64 {
		out := make(map[string]float64, len(raw))
		for k, v := range raw {
			if f, ok := v.(float64); ok {
				out[k] = f
			}
		}
		return out
	}

	reg.RegisterModule("backtest_run",
		registry.Capability{
			ID: "run",
			ParamSchema: []string{"ticker", "bars", "strategy", "strategy_params"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				series, err := seriesFromParam(p)
				if err != nil {
					return invalidArg(err)
				}
				strategyParams, _ := raw["strategy_params"].(map[string]any)
				strategy, ok := deps.BacktestReg.Build(p.StringOr("strategy", "sma_crossover"), paramsFromRaw(strategyParams))
				if !ok {
					return types.Err(types.NewFailure(types.KindInvalidArgument, "unknown strategy", nil))
				}
				run, err := engine.Run(ctx, p.StringOr("strategy", "sma_crossover"), strategy, types.Ticker(p.StringOr("ticker", "")), series)
				if err != nil {
					return types.Err(types.AsFailure(err))
				}
				if err := deps.Archive.ArchiveBacktestRun(ctx, run.StrategyID, run.ID, run); err != nil {
					deps.Log.Warn().Err(err).Str("run_id", run.ID).Msg("failed to archive backtest run")
				}
				return types.Ok(run, &types.Meta{})
			},
		},
	)

	reg.RegisterModule("backtest_optimize",
		registry.Capability{
			ID: "grid_search",
			ParamSchema: []string{"ticker", "bars", "strategy", "ranges", "metric"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				series, err := seriesFromParam(p)
				if err != nil {
					return invalidArg(err)
				}
				ranges, err := rangesFromParam(raw)
				if err != nil {
					return invalidArg(err)
				}
				name := p.StringOr("strategy", "sma_crossover")
				factory := func(params map[string]float64) backtest.Strategy {
					s, _ := deps.BacktestReg.Build(name, params)
					return s
				}
				out, err := backtest.GridSearch(ctx, engine, factory, types.Ticker(p.StringOr("ticker", "")), series, ranges, backtest.ScoreMetric(p.StringOr("metric", string(backtest.ScoreSharpe))))
				if err != nil {
					return types.Err(types.AsFailure(err))
				}
				return types.Ok(out, &types.Meta{})
			},
		},
		registry.Capability{
			ID: "random_search",
			ParamSchema: []string{"ticker", "bars", "strategy", "ranges", "metric", "n", "seed"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				series, err := seriesFromParam(p)
				if err != nil {
					return invalidArg(err)
				}
				ranges, err := rangesFromParam(raw)
				if err != nil {
					return invalidArg(err)
				}
				name := p.StringOr("strategy", "sma_crossover")
				factory := func(params map[string]float64) backtest.Strategy {
					s, _ := deps.BacktestReg.Build(name, params)
					return s
				}
				out, err := backtest.RandomSearch(ctx, engine, factory, types.Ticker(p.StringOr("ticker", "")), series, ranges,
					p.IntOr("n", 50), int64(p.IntOr("seed", 1)), backtest.ScoreMetric(p.StringOr("metric", string(backtest.ScoreSharpe))))
				if err != nil {
					return types.Err(types.AsFailure(err))
				}
				return types.Ok(out, &types.Meta{})
			},
		},
	)

	reg.RegisterModule("backtest_walkforward",
		registry.Capability{
			ID: "run",
			ParamSchema: []string{"ticker", "bars", "strategy", "ranges", "metric", "train_months", "test_months"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				series, err := seriesFromParam(p)
				if err != nil {
					return invalidArg(err)
				}
				ranges, err := rangesFromParam(raw)
				if err != nil {
					return invalidArg(err)
				}
				name := p.StringOr("strategy", "sma_crossover")
				factory := func(params map[string]float64) backtest.Strategy {
					s, _ := deps.BacktestReg.Build(name, params)
					return s
				}
				cfg := backtest.WalkForwardConfig{
					TrainMonths: p.IntOr("train_months", 6),
					TestMonths: p.IntOr("test_months", 2),
					Ranges: ranges,
					Metric: backtest.ScoreMetric(p.StringOr("metric", string(backtest.ScoreSharpe))),
				}
				out, err := backtest.RunWalkForward(ctx, engine, factory, types.Ticker(p.StringOr("ticker", "")), series, cfg)
				if err != nil {
					return types.Err(types.AsFailure(err))
				}
				return types.Ok(out, &types.Meta{})
			},
		},
	)
}

func rangesFromParam(raw map[string]any) ([]backtest.ParamRange, error) {
	rawRanges, ok := raw["ranges"].([]any)
	if !ok {
		return nil, fmt.Errorf("missing required parameter %q", "ranges")
	}
	out := make([]backtest.ParamRange, 0, len(rawRanges))
	for _, r := range rawRanges {
		rm, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("range entry is not an object")
		}
		rp := dispatcher.Params(rm)
		pr := backtest.ParamRange{Name: rp.StringOr("name", "")}
		if values, err := closesFromParam(rp, "values"); err == nil {
			pr.Values = values
		}
		pr.Min = rp.FloatOr("min", 0)
		pr.Max = rp.FloatOr("max", 0)
		out = append(out, pr)
	}
	return out, nil
}

// registerPaperTrader wires the persistent-portfolio rebalance
// capability. Equities are the only instrument class the core tracks
// directly; classOf defaults every ticker to equity commission/slippage.
func registerPaperTrader(reg *registry.Registry, deps Deps) {
	classOf := func(types.Ticker) papertrader.InstrumentClass { return papertrader.InstrumentEquity }

	reg.RegisterModule("paper_trader",
		registry.Capability{
			ID: "rebalance",
			ParamSchema: []string{"portfolio_id", "candidates", "live_prices", "client_request_id"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				portfolioID, err := p.String("portfolio_id")
				if err != nil {
					return invalidArg(err)
				}
				rawCandidates, ok := raw["candidates"].([]any)
				if !ok {
					return invalidArg(fmt.Errorf("missing required parameter %q", "candidates"))
				}
				candidates := make([]papertrader.ScoredCandidate, 0, len(rawCandidates))
				for _, c := range rawCandidates {
					cm, ok := c.(map[string]any)
					if !ok {
						return invalidArg(fmt.Errorf("candidate entry is not an object"))
					}
					cp := dispatcher.Params(cm)
					ticker, err := cp.Ticker("ticker")
					if err != nil {
						return invalidArg(err)
					}
					candidates = append(candidates, papertrader.ScoredCandidate{
						Ticker: ticker,
						Composite: cp.FloatOr("composite", 0),
						Rating: types.Rating(cp.StringOr("rating", string(types.RatingHold))),
					})
				}
				rawPrices, ok := raw["live_prices"].(map[string]any)
				if !ok {
					return invalidArg(fmt.Errorf("missing required parameter %q", "live_prices"))
				}
				livePrices := make(map[types.Ticker]float64, len(rawPrices))
				for k, v := range rawPrices {
					f, ok := v.(float64)
					if !ok {
						return invalidArg(fmt.Errorf("live_prices[%q]: expected number", k))
					}
					livePrices[types.Ticker(k)] = f
				}
				now := time.Now().UTC()
				portfolio, plan, err := deps.PaperTrader.Rebalance(ctx, portfolioID, candidates, livePrices, classOf, papertrader.DefaultRebalanceConfig(), now)
				if err != nil {
					return types.Err(types.AsFailure(err))
				}
				if n := len(portfolio.Equity); n > 0 {
					if err := deps.Archive.ArchiveEquitySnapshot(ctx, portfolioID, now, portfolio.Equity[n-1]); err != nil {
						deps.Log.Warn().Err(err).Str("portfolio_id", portfolioID).Msg("failed to archive equity snapshot")
					}
				}
				return types.Ok(map[string]any{"portfolio": portfolio, "plan": plan}, &types.Meta{})
			},
		},
		registry.Capability{
			ID: "load",
			ParamSchema: []string{"portfolio_id"},
			Handler: func(ctx context.Context, raw map[string]any) types.Result {
				p := dispatcher.Params(raw)
				portfolioID, err := p.String("portfolio_id")
				if err != nil {
					return invalidArg(err)
				}
				portfolio, err := deps.PaperTrader.Load(ctx, portfolioID)
				if err != nil {
					return types.Err(types.AsFailure(err))
				}
				return types.Ok(portfolio, &types.Meta{})
			},
		},
	)
}

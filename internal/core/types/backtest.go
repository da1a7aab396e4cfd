package types

import "time"

// Side is the direction of a Trade.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Trade is one round-trip (or open) position taken during a backtest or live
// paper-trading run. Lifecycle: open -> closed, with exit fields set atomically.
type Trade struct {
	RunID      string
	EntryTime  time.Time
	ExitTime   *time.Time
	Side       Side
	Qty        float64
	EntryPrice float64
	ExitPrice  *float64
	PnL        *float64
	ReturnPct  *float64
}

// Closed reports whether the trade's exit fields have been set.
func (t Trade) Closed() bool {
	return t.ExitTime != nil && t.ExitPrice != nil
}

// EquityPoint is one sample of a BacktestRun's or Portfolio's equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// BacktestRun is created once and never mutated; trades and equity curve
// points are appended to it as the simulation progresses.
type BacktestRun struct {
	ID         string
	StrategyID string
	Ticker     Ticker
	Params     map[string]float64
	StartDate  time.Time
	EndDate    time.Time
	CreatedAt  time.Time
	Trades     []Trade
	Equity     []EquityPoint
	Metrics    map[string]*float64 // nil value means "undefined for this run" (e.g. zero trades)
}

// WalkForwardWindow is one rolling train/test slice of a walk-forward run.
type WalkForwardWindow struct {
	RunID            string
	WindowIndex      int
	TrainStart       time.Time
	TrainEnd         time.Time
	TestStart        time.Time
	TestEnd          time.Time
	BestParams       map[string]float64
	InSampleScore    float64
	OutOfSampleScore float64
}

// WalkForwardResult aggregates all windows plus the concatenated OOS curve.
type WalkForwardResult struct {
	RunID          string
	Windows        []WalkForwardWindow
	OOSEquityCurve []EquityPoint
	OverfitFlag    bool
	AvgISSharpe    float64
	AvgOOSSharpe   float64
}

// OptimizationResult is the outcome of a grid/random parameter search.
type OptimizationResult struct {
	BestParams map[string]float64
	BestScore  float64
	Heatmap    map[string]float64 // serialized param-tuple key -> score
	Stability  float64            // std of top 10% / mean
	Evaluated  int
	Skipped    int // degenerate combinations (e.g. fast >= slow), failed runs, and runs with no score
}

package backtest

import "github.com/quantcore/analytics-core/internal/core/types"

// ActionKind is a Strategy's decision at one bar.
type ActionKind string

const (
	ActionBuy ActionKind = "BUY"
	ActionSell ActionKind = "SELL"
	ActionHold ActionKind = "HOLD"
)

// Action is a Strategy's output at one bar, with an optional target quantity
// (nil lets the engine size the order from available cash/position).
type Action struct {
	Kind ActionKind
	TargetQty *float64
}

// Context carries per-run mutable state a Strategy can read: the bars seen
// so far (no lookahead — only closed bars up to and including the current
// one), and the current simulated position.
type Context struct {
	Bars []types.Bar
	PositionQty float64
	AvgEntryPrice float64
	Parameters map[string]float64
}

// Strategy is the "Strategy abstraction": named parameters plus an
// initialize/on_bar contract. Implementations must not look beyond the bar
// passed to OnBar.
type Strategy interface {
	Name() string
	Initialize(ctx *Context)
	OnBar(bar types.Bar, ctx *Context) Action
}

// Registry holds named Strategy constructors so BacktestRun params can
// select a strategy by name.
type Registry struct {
	factories map[string]func(params map[string]float64) Strategy
}

// NewRegistry builds a Registry preloaded with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]func(params map[string]float64) Strategy)}
	r.Register("sma_crossover", func(p map[string]float64) Strategy { return NewSMACrossover(p) })
	r.Register("rsi_mean_reversion", func(p map[string]float64) Strategy { return NewRSIMeanReversion(p) })
	r.Register("bollinger_breakout", func(p map[string]float64) Strategy { return NewBollingerBreakout(p) })
	r.Register("macd_signal", func(p map[string]float64) Strategy { return NewMACDSignal(p) })
	r.Register("momentum_threshold", func(p map[string]float64) Strategy { return NewMomentumThreshold(p) })
	r.Register("pairs_trading", func(p map[string]float64) Strategy { return NewPairsTrading(p) })
	return r
}

// Register adds or overwrites a named strategy factory.
func (r *Registry) Register(name string, factory func(params map[string]float64) Strategy) {
	r.factories[name] = factory
}

// Build instantiates a registered strategy by name with the given
// parameters. ok is false for an unregistered name.
func (r *Registry) Build(name string, params map[string]float64) (Strategy, bool) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, false
	}
	return factory(params), true
}

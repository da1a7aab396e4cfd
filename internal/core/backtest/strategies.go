package backtest

import (
	"github.com/quantcore/analytics-core/internal/core/numerickit"
	"github.com/quantcore/analytics-core/internal/core/types"
)

func closesOf(bars []types.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// SMACrossover buys when the fast SMA crosses above the slow SMA and sells
// on the reverse cross. Degenerate params (fast >= slow, or a non-positive
// period) are accepted at construction and reported by IsDegenerate, so the
// optimizer can detect and skip them; OnBar always holds for them.
type SMACrossover struct {
	fast, slow int
}

func NewSMACrossover(p map[string]float64) *SMACrossover {
	return &SMACrossover{fast: int(p["fast"]), slow: int(p["slow"])}
}

func (s *SMACrossover) Name() string { return "sma_crossover" }

func (s *SMACrossover) Initialize(ctx *Context) {}

func (s *SMACrossover) IsDegenerate() bool { return s.fast <= 0 || s.slow <= 0 || s.fast >= s.slow }

func (s *SMACrossover) OnBar(bar types.Bar, ctx *Context) Action {
	if s.IsDegenerate() || len(ctx.Bars) < s.slow+1 {
		return Action{Kind: ActionHold}
	}
	closes := closesOf(ctx.Bars)
	fastNow := numerickit.Mean(closes[len(closes)-s.fast:])
	slowNow := numerickit.Mean(closes[len(closes)-s.slow:])
	fastPrev := numerickit.Mean(closes[len(closes)-1-s.fast: len(closes)-1])
	slowPrev := numerickit.Mean(closes[len(closes)-1-s.slow: len(closes)-1])

	crossedUp := fastPrev <= slowPrev && fastNow > slowNow
	crossedDown := fastPrev >= slowPrev && fastNow < slowNow

	switch {
	case crossedUp && ctx.PositionQty <= 0:
		return Action{Kind: ActionBuy}
	case crossedDown && ctx.PositionQty > 0:
		return Action{Kind: ActionSell}
	default:
		return Action{Kind: ActionHold}
	}
}

// RSIMeanReversion buys when RSI drops below an oversold threshold and sells
// when it rises above an overbought threshold.
type RSIMeanReversion struct {
	period int
	oversold, overbought float64
}

func NewRSIMeanReversion(p map[string]float64) *RSIMeanReversion {
	period := int(p["period"])
	if period <= 0 {
		period = 14
	}
	oversold := p["oversold"]
	if oversold <= 0 {
		oversold = 30
	}
	overbought := p["overbought"]
	if overbought <= 0 {
		overbought = 70
	}
	return &RSIMeanReversion{period: period, oversold: oversold, overbought: overbought}
}

func (s *RSIMeanReversion) Name() string { return "rsi_mean_reversion" }
func (s *RSIMeanReversion) Initialize(ctx *Context) {}

func (s *RSIMeanReversion) OnBar(bar types.Bar, ctx *Context) Action {
	closes := closesOf(ctx.Bars)
	rsi, err := numerickit.RSI(closes, s.period)
	if err != nil || len(rsi) == 0 {
		return Action{Kind: ActionHold}
	}
	last := rsi[len(rsi)-1]
	switch {
	case last < s.oversold && ctx.PositionQty <= 0:
		return Action{Kind: ActionBuy}
	case last > s.overbought && ctx.PositionQty > 0:
		return Action{Kind: ActionSell}
	default:
		return Action{Kind: ActionHold}
	}
}

// BollingerBreakout buys when price closes above the upper band and sells
// when it closes back below the middle band.
type BollingerBreakout struct {
	period int
	k float64
}

func NewBollingerBreakout(p map[string]float64) *BollingerBreakout {
	period := int(p["period"])
	if period <= 0 {
		period = 20
	}
	k := p["k"]
	if k <= 0 {
		k = 2.0
	}
	return &BollingerBreakout{period: period, k: k}
}

func (s *BollingerBreakout) Name() string { return "bollinger_breakout" }
func (s *BollingerBreakout) Initialize(ctx *Context) {}

func (s *BollingerBreakout) OnBar(bar types.Bar, ctx *Context) Action {
	closes := closesOf(ctx.Bars)
	bands, err := numerickit.Bollinger(closes, s.period, s.k)
	if err != nil || len(bands.Upper) == 0 {
		return Action{Kind: ActionHold}
	}
	price := closes[len(closes)-1]
	upper := bands.Upper[len(bands.Upper)-1]
	middle := bands.Middle[len(bands.Middle)-1]

	switch {
	case price > upper && ctx.PositionQty <= 0:
		return Action{Kind: ActionBuy}
	case price < middle && ctx.PositionQty > 0:
		return Action{Kind: ActionSell}
	default:
		return Action{Kind: ActionHold}
	}
}

// MACDSignal buys on a bullish MACD/signal-line cross and sells on a
// bearish cross.
type MACDSignal struct {
	fast, slow, signal int
}

func NewMACDSignal(p map[string]float64) *MACDSignal {
	fast, slow, signal := int(p["fast"]), int(p["slow"]), int(p["signal"])
	if fast <= 0 {
		fast = 12
	}
	if slow <= 0 {
		slow = 26
	}
	if signal <= 0 {
		signal = 9
	}
	return &MACDSignal{fast: fast, slow: slow, signal: signal}
}

func (s *MACDSignal) Name() string { return "macd_signal" }
func (s *MACDSignal) Initialize(ctx *Context) {}

func (s *MACDSignal) OnBar(bar types.Bar, ctx *Context) Action {
	closes := closesOf(ctx.Bars)
	macd, err := numerickit.MACD(closes, s.fast, s.slow, s.signal)
	if err != nil || len(macd.Histogram) < 2 {
		return Action{Kind: ActionHold}
	}
	last := macd.Histogram[len(macd.Histogram)-1]
	prev := macd.Histogram[len(macd.Histogram)-2]

	switch {
	case prev <= 0 && last > 0 && ctx.PositionQty <= 0:
		return Action{Kind: ActionBuy}
	case prev >= 0 && last < 0 && ctx.PositionQty > 0:
		return Action{Kind: ActionSell}
	default:
		return Action{Kind: ActionHold}
	}
}

// MomentumThreshold buys when trailing N-bar return exceeds a threshold and
// sells when it falls below the negative of that threshold.
type MomentumThreshold struct {
	lookback int
	threshold float64
}

func NewMomentumThreshold(p map[string]float64) *MomentumThreshold {
	lookback := int(p["lookback"])
	if lookback <= 0 {
		lookback = 20
	}
	threshold := p["threshold"]
	if threshold <= 0 {
		threshold = 0.05
	}
	return &MomentumThreshold{lookback: lookback, threshold: threshold}
}

func (s *MomentumThreshold) Name() string { return "momentum_threshold" }
func (s *MomentumThreshold) Initialize(ctx *Context) {}

func (s *MomentumThreshold) OnBar(bar types.Bar, ctx *Context) Action {
	if len(ctx.Bars) < s.lookback+1 {
		return Action{Kind: ActionHold}
	}
	closes := closesOf(ctx.Bars)
	ret := (closes[len(closes)-1] - closes[len(closes)-1-s.lookback]) / closes[len(closes)-1-s.lookback]

	switch {
	case ret > s.threshold && ctx.PositionQty <= 0:
		return Action{Kind: ActionBuy}
	case ret < -s.threshold && ctx.PositionQty > 0:
		return Action{Kind: ActionSell}
	default:
		return Action{Kind: ActionHold}
	}
}

// PairsTrading trades a precomputed hedge-ratio spread series (the engine's
// "price" input is the spread itself, not a single instrument's price — the
// caller builds that series from two legs via NumericKit's OLS hedge ratio
// before invoking the engine). Enters on |z| > entryZ, exits on |z| < exitZ.
type PairsTrading struct {
	lookback int
	entryZ, exitZ float64
}

func NewPairsTrading(p map[string]float64) *PairsTrading {
	lookback := int(p["lookback"])
	if lookback <= 0 {
		lookback = 60
	}
	entryZ := p["entry_z"]
	if entryZ <= 0 {
		entryZ = 2.0
	}
	exitZ := p["exit_z"]
	if exitZ <= 0 {
		exitZ = 0.5
	}
	return &PairsTrading{lookback: lookback, entryZ: entryZ, exitZ: exitZ}
}

func (s *PairsTrading) Name() string { return "pairs_trading" }
func (s *PairsTrading) Initialize(ctx *Context) {}

func (s *PairsTrading) OnBar(bar types.Bar, ctx *Context) Action {
	if len(ctx.Bars) < s.lookback+1 {
		return Action{Kind: ActionHold}
	}
	spread := closesOf(ctx.Bars)
	window := spread[len(spread)-s.lookback:]
	mean := numerickit.Mean(window)
	std := numerickit.StdDev(window)
	z := numerickit.ZScore(spread[len(spread)-1], mean, std)
	if z == nil {
		return Action{Kind: ActionHold}
	}

	switch {
	case *z < -s.entryZ && ctx.PositionQty <= 0:
		return Action{Kind: ActionBuy}
	case *z > s.entryZ && ctx.PositionQty >= 0:
		return Action{Kind: ActionSell}
	case absF(*z) < s.exitZ && ctx.PositionQty != 0:
		if ctx.PositionQty > 0 {
			return Action{Kind: ActionSell}
		}
		return Action{Kind: ActionBuy}
	default:
		return Action{Kind: ActionHold}
	}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

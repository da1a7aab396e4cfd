package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantcore/analytics-core/internal/core/types"
)

// EngineConfig controls execution costs and fill timing.
type EngineConfig struct {
	CommissionBps float64
	SlippageBps float64
	CloseFill bool // false = next-bar-open fill (default), true = close-fill
	InitialCash float64
}

// DefaultEngineConfig matches the documented defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{CommissionBps: 0, SlippageBps: 5, InitialCash: 100000}
}

// Engine runs one Strategy against one PriceSeries bar-by-bar.
type Engine struct {
	cfg EngineConfig
}

// NewEngine builds an Engine with the given cost/fill configuration.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// runState is the engine's mutable position/cash/trade-log bookkeeping,
// threaded through execute() one action at a time.
type runState struct {
	cash float64
	positionQty float64
	avgEntry float64
	openTrade *types.Trade
}

// Run simulates strategy against series bar-by-bar, applying actions at the
// next bar's open unless CloseFill is set.
// Cancellation is checked between bars.
func (e *Engine) Run(ctx context.Context, strategyID string, strategy Strategy, ticker types.Ticker, series types.PriceSeries) (*types.BacktestRun, error) {
	bars := series.Bars
	if len(bars) == 0 {
		return nil, fmt.Errorf("backtest: empty price series")
	}

	run := &types.BacktestRun{
		ID: uuid.NewString(),
		StrategyID: strategyID,
		Ticker: ticker,
		StartDate: bars[0].Timestamp,
		EndDate: bars[len(bars)-1].Timestamp,
		Metrics: make(map[string]*float64),
	}

	simCtx := &Context{}
	strategy.Initialize(simCtx)

	state := &runState{cash: e.cfg.InitialCash}
	var pending *Action
	equity := make([]float64, 0, len(bars))

	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if pending != nil {
			e.execute(run, state, *pending, bar.Open, bar.Timestamp)
			pending = nil
		}

		simCtx.Bars = append(simCtx.Bars, bar)
		simCtx.PositionQty = state.positionQty
		simCtx.AvgEntryPrice = state.avgEntry

		action := strategy.OnBar(bar, simCtx)
		if action.Kind != ActionHold {
			if e.cfg.CloseFill {
				e.execute(run, state, action, bar.Close, bar.Timestamp)
			} else if i < len(bars)-1 {
				a := action
				pending = &a
			}
		}

		markValue := state.cash + state.positionQty*bar.Close
		equity = append(equity, markValue)
		run.Equity = append(run.Equity, types.EquityPoint{Timestamp: bar.Timestamp, Equity: markValue})
	}

	if state.openTrade != nil && !state.openTrade.Closed() {
		last := bars[len(bars)-1]
		exitPrice := applySlippage(last.Close, e.cfg.SlippageBps, state.positionQty > 0)
		closeTrade(state.openTrade, last.Timestamp, exitPrice)
		run.Trades[len(run.Trades)-1] = *state.openTrade
	}

	e.populateMetrics(run, equity)
	return run, nil
}

// execute applies one Action at a known fill price, updating cash/position
// and the trade log. BUY with no open position (or a short position) opens
// or flips a long; SELL with no open position (or a long) opens or flips a
// short — mirroring a simple fully-invested single-instrument account.
func (e *Engine) execute(run *types.BacktestRun, state *runState, action Action, price float64, ts time.Time) {
	switch action.Kind {
	case ActionBuy:
		if state.positionQty < 0 {
			e.closePosition(run, state, price, ts)
		}
		if state.positionQty <= 0 {
			e.openPosition(run, state, types.SideLong, price, ts)
		}
	case ActionSell:
		if state.positionQty > 0 {
			e.closePosition(run, state, price, ts)
		}
		if state.positionQty >= 0 {
			e.openPosition(run, state, types.SideShort, price, ts)
		}
	}
}

func (e *Engine) openPosition(run *types.BacktestRun, state *runState, side types.Side, price float64, ts time.Time) {
	isShort := side == types.SideShort
	fillPrice := applySlippage(price, e.cfg.SlippageBps, isShort)
	qty := allocationQty(state.cash, fillPrice, e.cfg.CommissionBps)
	if qty <= 0 {
		return
	}

	cost := qty * fillPrice * (1 + e.cfg.CommissionBps/10000)
	if isShort {
		state.cash += qty * fillPrice * (1 - e.cfg.CommissionBps/10000)
		state.positionQty = -qty
	} else {
		if cost > state.cash {
			return
		}
		state.cash -= cost
		state.positionQty = qty
	}
	state.avgEntry = fillPrice

	trade := types.Trade{
		RunID: run.ID,
		EntryTime: ts,
		Side: side,
		Qty: qty,
		EntryPrice: fillPrice,
	}
	run.Trades = append(run.Trades, trade)
	state.openTrade = &run.Trades[len(run.Trades)-1]
}

func (e *Engine) closePosition(run *types.BacktestRun, state *runState, price float64, ts time.Time) {
	if state.openTrade == nil {
		state.positionQty = 0
		return
	}
	isShort := state.positionQty < 0
	fillPrice := applySlippage(price, e.cfg.SlippageBps, !isShort)
	closeTrade(state.openTrade, ts, fillPrice)
	run.Trades[len(run.Trades)-1] = *state.openTrade

	qty := state.openTrade.Qty
	if isShort {
		state.cash -= fillPrice * qty * (1 + e.cfg.CommissionBps/10000)
	} else {
		state.cash += fillPrice * qty * (1 - e.cfg.CommissionBps/10000)
	}
	state.positionQty = 0
	state.avgEntry = 0
	state.openTrade = nil
}

func closeTrade(t *types.Trade, exitTime time.Time, exitPrice float64) {
	t.ExitTime = &exitTime
	t.ExitPrice = &exitPrice

	var pnl float64
	if t.Side == types.SideShort {
		pnl = (t.EntryPrice - exitPrice) * t.Qty
	} else {
		pnl = (exitPrice - t.EntryPrice) * t.Qty
	}
	t.PnL = &pnl

	if t.EntryPrice > 0 {
		ret := pnl / (t.EntryPrice * t.Qty)
		t.ReturnPct = &ret
	}
}

// applySlippage nudges a market-order fill against the trader: buys fill
// slightly higher (including short covers), sells slightly lower (including
// closing a long). adverse marks a sell.
func applySlippage(price, slippageBps float64, adverse bool) float64 {
	factor := 1 + slippageBps/10000
	if adverse {
		factor = 1 - slippageBps/10000
	}
	return price * factor
}

// allocationQty sizes a position to fully deploy available cash at price,
// net of commission, rounded down to whole shares (no fractional shares in
// the basic engine).
func allocationQty(cash, price, commissionBps float64) float64 {
	if price <= 0 {
		return 0
	}
	effectivePrice := price * (1 + commissionBps/10000)
	qty := float64(int(cash / effectivePrice))
	return qty
}

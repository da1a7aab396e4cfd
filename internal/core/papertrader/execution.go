package papertrader

import (
	"fmt"
	"time"

	"github.com/quantcore/analytics-core/internal/core/types"
)

// InstrumentClass selects the commission model applied to an order.
type InstrumentClass string

const (
	InstrumentEquity InstrumentClass = "equity"
	InstrumentCrypto InstrumentClass = "crypto"
)

// CommissionBps returns the commission rate for an instrument class: 0 for
// equities, 10 bps for crypto.
func (c InstrumentClass) CommissionBps() float64 {
	if c == InstrumentCrypto {
		return 10
	}
	return 0
}

const slippageBps = 5.0 // market-order slippage

// ApplyPlan executes every action in plan against portfolio in priority
// order, mutating a copy and returning it. Cash never goes negative: a BUY
// that would overdraw cash is skipped rather than partially filled. Returns an error only on a structural
// inconsistency (e.g. a SELL for a ticker with no position).
func ApplyPlan(portfolio types.Portfolio, plan types.RebalancePlan, livePrices map[types.Ticker]float64, classOf func(types.Ticker) InstrumentClass, now time.Time) (types.Portfolio, error) {
	positions := make(map[types.Ticker]types.Position, len(portfolio.Positions))
	for t, p := range portfolio.Positions {
		positions[t] = p
	}
	portfolio.Positions = positions

	for _, action := range plan.Actions {
		price, ok := livePrices[action.Ticker]
		if !ok {
			continue // no live quote: skip this action rather than guess a price
		}
		class := InstrumentEquity
		if classOf != nil {
			class = classOf(action.Ticker)
		}

		switch action.Kind {
		case types.ActionSell:
			if err := applySell(&portfolio, action, price, class, now); err != nil {
				return portfolio, err
			}
		case types.ActionBuy:
			applyBuy(&portfolio, action, price, class, now)
		}
	}

	equity := portfolio.EquityAt(livePrices)
	portfolio.Equity = append(portfolio.Equity, types.EquityPoint{Timestamp: now, Equity: equity})
	return portfolio, nil
}

func applySell(portfolio *types.Portfolio, action types.RebalanceAction, price float64, class InstrumentClass, now time.Time) error {
	pos, ok := portfolio.Positions[action.Ticker]
	if !ok || pos.Qty == 0 {
		return fmt.Errorf("papertrader: sell action for %s with no position", action.Ticker)
	}

	qty := action.Qty
	if qty <= 0 || qty > pos.Qty {
		qty = pos.Qty // 0 means "sell all"
	}

	fillPrice := price * (1 - slippageBps/10000)
	proceeds := qty * fillPrice * (1 - class.CommissionBps()/10000)
	portfolio.Cash += proceeds

	pnl := (fillPrice - pos.AvgCost) * qty
	exitTime := now

	portfolio.TradeLog = append(portfolio.TradeLog, types.Trade{
		RunID: portfolio.ID,
		EntryTime: now,
		ExitTime: &exitTime,
		Side: types.SideLong,
		Qty: qty,
		EntryPrice: pos.AvgCost,
		ExitPrice: &fillPrice,
		PnL: &pnl,
	})

	pos.Qty -= qty
	if pos.Qty <= 0 {
		delete(portfolio.Positions, action.Ticker)
	} else {
		portfolio.Positions[action.Ticker] = pos
	}
	return nil
}

func applyBuy(portfolio *types.Portfolio, action types.RebalanceAction, price float64, class InstrumentClass, now time.Time) {
	qty := action.Qty
	if qty <= 0 {
		return
	}

	fillPrice := price * (1 + slippageBps/10000)
	cost := qty * fillPrice * (1 + class.CommissionBps()/10000)
	if cost > portfolio.Cash {
		return // insufficient cash: skip the buy rather than shrink it
	}

	portfolio.Cash -= cost

	existing, held := portfolio.Positions[action.Ticker]
	newQty := qty
	newAvgCost := fillPrice
	pyramidLevel := 0
	if held {
		newQty = existing.Qty + qty
		newAvgCost = (existing.AvgCost*existing.Qty + fillPrice*qty) / newQty
		pyramidLevel = existing.PyramidLevel
		if action.Reason == "pyramid_1" {
			pyramidLevel = 1
		} else if action.Reason == "pyramid_2" {
			pyramidLevel = 2
		}
	}

	portfolio.Positions[action.Ticker] = types.Position{
		PortfolioID: portfolio.ID,
		Ticker: action.Ticker,
		Qty: newQty,
		AvgCost: newAvgCost,
		PyramidLevel: pyramidLevel,
	}
}

package backtest

import (
	"github.com/quantcore/analytics-core/internal/core/numerickit"
	"github.com/quantcore/analytics-core/internal/core/types"
)

// populateMetrics fills run.Metrics from the completed equity curve and
// trade log. A run with zero trades leaves ratio-based
// metrics (Sharpe, profit factor, etc.) undefined (nil) rather than zero,
// since zero is a misleading value for "no signal."
func (e *Engine) populateMetrics(run *types.BacktestRun, equity []float64) {
	set := func(name string, v *float64) { run.Metrics[name] = v }
	setVal := func(name string, v float64) { run.Metrics[name] = &v }

	if len(equity) < 2 {
		return
	}

	returns := numerickit.SimpleReturns(equity)
	totalReturn := (equity[len(equity)-1] - equity[0]) / equity[0]
	cagr := CAGR(equity[0], equity[len(equity)-1], len(equity))
	maxDD, maxDDBars := MaxDrawdown(equity)

	setVal("total_return", totalReturn)
	setVal("cagr", cagr)
	setVal("max_drawdown", maxDD)
	setVal("max_drawdown_bars", float64(maxDDBars))
	set("sharpe", SharpeRatio(returns, 0))
	set("sortino", SortinoRatio(returns, 0))
	set("calmar", CalmarRatio(cagr, maxDD))

	closed := make([]types.Trade, 0, len(run.Trades))
	for _, t := range run.Trades {
		if t.Closed() {
			closed = append(closed, t)
		}
	}
	setVal("num_trades", float64(len(closed)))
	if len(closed) == 0 {
		return
	}

	var wins, losses int
	var sumWin, sumLoss, sumHoldingBars float64
	var maxConsecWins, maxConsecLosses, curWins, curLosses int

	for _, t := range closed {
		pnl := 0.0
		if t.PnL != nil {
			pnl = *t.PnL
		}
		holdingBars := t.ExitTime.Sub(t.EntryTime).Hours() / 24
		sumHoldingBars += holdingBars

		if pnl > 0 {
			wins++
			sumWin += pnl
			curWins++
			curLosses = 0
		} else if pnl < 0 {
			losses++
			sumLoss += -pnl
			curLosses++
			curWins = 0
		}
		if curWins > maxConsecWins {
			maxConsecWins = curWins
		}
		if curLosses > maxConsecLosses {
			maxConsecLosses = curLosses
		}
	}

	setVal("win_rate", float64(wins)/float64(len(closed)))
	if wins > 0 {
		setVal("average_win", sumWin/float64(wins))
	}
	if losses > 0 {
		setVal("average_loss", sumLoss/float64(losses))
	}
	if sumLoss > numerickit.Epsilon {
		pf := sumWin / sumLoss
		set("profit_factor", &pf)
	}
	setVal("average_holding_bars", sumHoldingBars/float64(len(closed)))
	setVal("max_consecutive_wins", float64(maxConsecWins))
	setVal("max_consecutive_losses", float64(maxConsecLosses))

	var exposedBars int
	for i := 1; i < len(equity); i++ {
		if equity[i] != equity[i-1] {
			exposedBars++
		}
	}
	setVal("exposure_fraction", float64(exposedBars)/float64(len(equity)-1))
}

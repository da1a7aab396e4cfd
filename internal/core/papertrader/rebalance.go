// Package papertrader implements the PaperTrader: persistent Portfolio
// state, the top-N/pyramid/stop-loss rebalance rule, and atomic per-
// rebalance persistence with per-portfolio write serialization.
package papertrader

import (
	"sort"
	"time"

	"github.com/quantcore/analytics-core/internal/core/types"
)

// RebalanceConfig controls the rebalance rule's tunables.
type RebalanceConfig struct {
	TopN int
	TargetWeight float64
	MinScoreThreshold types.Rating
	PyramidTrigger1 float64 // +15% default
	PyramidTrigger2 float64 // +30% default
	PyramidSize float64 // 50% of current size, both triggers
	StopLossPct float64 // -15% default
}

// DefaultRebalanceConfig matches the documented defaults.
func DefaultRebalanceConfig() RebalanceConfig {
	return RebalanceConfig{
		TopN: 10,
		TargetWeight: 0.15,
		MinScoreThreshold: types.RatingBuy,
		PyramidTrigger1: 0.15,
		PyramidTrigger2: 0.30,
		PyramidSize: 0.50,
		StopLossPct: 0.15,
	}
}

// ScoredCandidate is one universe entry's composite score, used to rank the
// top-N selection.
type ScoredCandidate struct {
	Ticker types.Ticker
	Composite float64
	Rating types.Rating
}

// ratingRank orders ratings worst-to-best for the min-score-threshold gate.
var ratingRank = map[types.Rating]int{
	types.RatingStrongSell: 0,
	types.RatingSell: 1,
	types.RatingHold: 2,
	types.RatingBuy: 3,
	types.RatingStrongBuy: 4,
}

// BuildRebalancePlan computes the rebalance actions for one portfolio
// in the documented order: stop-losses first (checked against every
// existing holding, regardless of the new top-N), then exits from names
// falling out of the top-N, then new-entry buys, then pyramid adds. Actions
// are returned in this fixed priority order so a caller applying them
// sequentially never oversells cash meant for a higher-priority action.
func BuildRebalancePlan(portfolio types.Portfolio, candidates []ScoredCandidate, livePrices map[types.Ticker]float64, cfg RebalanceConfig) types.RebalancePlan {
	plan := types.RebalancePlan{PortfolioID: portfolio.ID}

	stopLossed := make(map[types.Ticker]bool)
	for ticker, pos := range portfolio.Positions {
		price, ok := livePrices[ticker]
		if !ok || pos.Qty == 0 {
			continue
		}
		if price <= pos.AvgCost*(1-cfg.StopLossPct) {
			plan.Actions = append(plan.Actions, types.RebalanceAction{
				Ticker: ticker, Kind: types.ActionSell, Reason: "stop_loss",
			})
			stopLossed[ticker] = true
		}
	}

	topN := selectTopN(candidates, cfg)
	topSet := make(map[types.Ticker]bool, len(topN))
	for _, c := range topN {
		topSet[c.Ticker] = true
	}

	for ticker := range portfolio.Positions {
		if stopLossed[ticker] {
			continue
		}
		if !topSet[ticker] {
			plan.Actions = append(plan.Actions, types.RebalanceAction{
				Ticker: ticker, Kind: types.ActionSell, Reason: "sell_not_top_n",
			})
		}
	}

	equity := portfolio.EquityAt(livePrices)
	for _, c := range topN {
		if stopLossed[c.Ticker] {
			continue
		}
		if _, held := portfolio.Positions[c.Ticker]; held {
			continue
		}
		price, ok := livePrices[c.Ticker]
		if !ok || price <= 0 {
			continue
		}
		allocation := cfg.TargetWeight * equity
		qty := float64(int(allocation / price))
		if qty <= 0 {
			continue
		}
		plan.Actions = append(plan.Actions, types.RebalanceAction{
			Ticker: c.Ticker, Kind: types.ActionBuy, Qty: qty, Reason: "new_top_n",
		})
	}

	for ticker, pos := range portfolio.Positions {
		if stopLossed[ticker] || !topSet[ticker] || pos.Qty == 0 {
			continue
		}
		price, ok := livePrices[ticker]
		if !ok {
			continue
		}
		gainPct := (price - pos.AvgCost) / pos.AvgCost

		switch {
		case pos.PyramidLevel == 0 && gainPct >= cfg.PyramidTrigger1:
			plan.Actions = append(plan.Actions, types.RebalanceAction{
				Ticker: ticker, Kind: types.ActionBuy, Qty: float64(int(pos.Qty * cfg.PyramidSize)), Reason: "pyramid_1",
			})
		case pos.PyramidLevel == 1 && gainPct >= cfg.PyramidTrigger2:
			plan.Actions = append(plan.Actions, types.RebalanceAction{
				Ticker: ticker, Kind: types.ActionBuy, Qty: float64(int(pos.Qty * cfg.PyramidSize)), Reason: "pyramid_2",
			})
		}
	}

	plan.GeneratedAt = time.Now()
	return plan
}

// selectTopN filters candidates at or above the minimum rating threshold,
// ranks by composite score, and takes the top N.
func selectTopN(candidates []ScoredCandidate, cfg RebalanceConfig) []ScoredCandidate {
	minRank := ratingRank[cfg.MinScoreThreshold]
	filtered := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if ratingRank[c.Rating] >= minRank {
			filtered = append(filtered, c)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Composite != filtered[j].Composite {
			return filtered[i].Composite > filtered[j].Composite
		}
		return filtered[i].Ticker < filtered[j].Ticker
	})

	if len(filtered) > cfg.TopN {
		filtered = filtered[:cfg.TopN]
	}
	return filtered
}

package signals

import (
	"sort"

	"github.com/quantcore/analytics-core/internal/core/types"
)

// Fuse combines up to four sub-signals into one weighted-mean
// composite, weights proportional to each component's confidence.
// Components are returned most recently updated first; that order does not
// change the composite, and no recency tie-break is applied.
func Fuse(ticker types.Ticker, components []types.FusionComponent) types.FusionResult {
	if len(components) == 0 {
		return types.FusionResult{Ticker: ticker, Direction: "neutral"}
	}

	ordered := make([]types.FusionComponent, len(components))
	copy(ordered, components)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].UpdatedAt.After(ordered[j].UpdatedAt)
	})

	var weightedSum, weightSum float64
	for _, c := range ordered {
		weightedSum += c.Score * c.Confidence
		weightSum += c.Confidence
	}

	var composite, confidence float64
	if weightSum > 0 {
		composite = weightedSum / weightSum
		confidence = weightSum / float64(len(ordered))
	}

	direction := "neutral"
	switch {
	case composite > 0.1:
		direction = "bullish"
	case composite < -0.1:
		direction = "bearish"
	}

	return types.FusionResult{
		Ticker: ticker,
		Composite: composite,
		Direction: direction,
		Confidence: confidence,
		Components: ordered,
	}
}

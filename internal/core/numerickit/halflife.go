package numerickit

import "math"

// HalfLifeOfMeanReversion estimates the Ornstein-Uhlenbeck half-life of a
// spread series via OLS of delta-s on lagged s: ds[t] = alpha + beta*s[t-1].
// Returns nil when the spread is not mean-reverting (beta >= 0).
func HalfLifeOfMeanReversion(spread []float64) *float64 {
	if len(spread) < 3 {
		return nil
	}
	lagged := spread[:len(spread)-1]
	delta := make([]float64, len(spread)-1)
	for i := 1; i < len(spread); i++ {
		delta[i-1] = spread[i] - spread[i-1]
	}

	_, beta, _, err := SimpleOLS(delta, lagged)
	if err != nil || beta >= 0 {
		return nil
	}

	halfLife := -math.Ln2 / beta
	return &halfLife
}

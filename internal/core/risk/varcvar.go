package risk

import "github.com/quantcore/analytics-core/internal/core/numerickit"

// VarCvarResult is one confidence level's "VaR / CVaR" report, in both
// absolute (price) and percentage (return) terms.
type VarCvarResult struct {
	Confidence float64
	VaRAbs float64
	VaRPct float64
	CVaRAbs float64
	CVaRPct float64
}

// ComputeVaRCVaR computes VaR and CVaR at the given confidence level from a
// spot price and a simulated terminal-value distribution.
// VaR_alpha is the percentile of loss at alpha; CVaR_alpha is the mean
// of losses at or beyond VaR_alpha.
func ComputeVaRCVaR(spot float64, terminal []float64, confidence float64) VarCvarResult {
	losses := make([]float64, len(terminal))
	for i, v := range terminal {
		losses[i] = spot - v // positive = a loss
	}

	lossPercentile := numerickit.Percentile(losses, confidence)

	var tailSum, tailCount float64
	for _, l := range losses {
		if l >= lossPercentile {
			tailSum += l
			tailCount++
		}
	}
	cvarAbs := lossPercentile
	if tailCount > 0 {
		cvarAbs = tailSum / tailCount
	}

	return VarCvarResult{
		Confidence: confidence,
		VaRAbs: lossPercentile,
		VaRPct: lossPercentile / spot,
		CVaRAbs: cvarAbs,
		CVaRPct: cvarAbs / spot,
	}
}

// StandardConfidenceLevels are the documented alpha values.
var StandardConfidenceLevels = []float64{0.95, 0.99}

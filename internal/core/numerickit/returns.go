// Package numerickit provides pure numeric functions over price and return
// series: no I/O, no upstream calls. Every boundary case returns an explicit
// structured null (a nil pointer or an error) rather than NaN, so a broken
// input can never silently contaminate a downstream aggregate.
package numerickit

import "math"

// Epsilon is the tolerance below which a standard deviation is treated as
// zero-variance for z-score and correlation purposes.
const Epsilon = 1e-12

// SimpleReturns produces length(series)-1 simple returns:
// r[i] = (p[i+1] - p[i]) / p[i].
func SimpleReturns(series []float64) []float64 {
	if len(series) < 2 {
		return []float64{}
	}
	out := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1]
		if prev == 0 {
			out[i-1] = 0
			continue
		}
		out[i-1] = (series[i] - prev) / prev
	}
	return out
}

// LogReturns produces length(series)-1 log returns: r[i] = ln(p[i+1]/p[i]).
// Non-positive adjacent prices produce a 0 entry rather than -Inf/NaN, since a
// non-positive price is itself a data defect NumericKit does not interpolate.
func LogReturns(series []float64) []float64 {
	if len(series) < 2 {
		return []float64{}
	}
	out := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		if prev <= 0 || cur <= 0 {
			out[i-1] = 0
			continue
		}
		out[i-1] = math.Log(cur / prev)
	}
	return out
}

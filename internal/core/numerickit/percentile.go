package numerickit

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Percentile computes the q-th quantile (q in [0,1]) of series using linear
// interpolation between order statistics (gonum's stat.LinInterp).
func Percentile(series []float64, q float64) float64 {
	if len(series) == 0 {
		return 0
	}
	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.LinInterp, sorted, nil)
}

// Percentiles computes several quantiles at once against a single sorted copy.
func Percentiles(series []float64, qs []float64) map[float64]float64 {
	out := make(map[float64]float64, len(qs))
	if len(series) == 0 {
		for _, q := range qs {
			out[q] = 0
		}
		return out
	}
	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)
	for _, q := range qs {
		out[q] = stat.Quantile(q, stat.LinInterp, sorted, nil)
	}
	return out
}

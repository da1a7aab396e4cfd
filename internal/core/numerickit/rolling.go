package numerickit

import "math"

// Window is one fixed-size slice view produced by Rolling. Partial windows at
// the start of the series are never emitted.
type Window struct {
	Index int       // index into the source series of the window's last element
	Data  []float64
}

// Rolling produces the lazy (here: eagerly materialized, since the source is
// always in-memory) sequence of size-`window` windows over series. The first
// emitted window ends at index window-1; there is no partial warm-up window.
func Rolling(series []float64, window int) []Window {
	if window <= 0 || len(series) < window {
		return nil
	}
	out := make([]Window, 0, len(series)-window+1)
	for end := window - 1; end < len(series); end++ {
		start := end - window + 1
		w := make([]float64, window)
		copy(w, series[start:end+1])
		out = append(out, Window{Index: end, Data: w})
	}
	return out
}

// Mean of a slice; returns 0 for an empty slice (callers that need a null
// must check length themselves, since Mean alone cannot be degenerate).
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// StdDev is the sample standard deviation (n-1 denominator), matching
// gonum/stat.StdDev's convention. Returns 0 for fewer than 2 points.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	m := Mean(data)
	var ss float64
	for _, v := range data {
		d := v - m
		ss += d * d
	}
	variance := ss / float64(len(data)-1)
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

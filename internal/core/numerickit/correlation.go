package numerickit

import "gonum.org/v1/gonum/stat"

// Correlation is the Pearson correlation coefficient between a and b.
// Returns nil (undefined) when either series has zero variance or the
// lengths disagree — never a bogus 1.0 or 0.0 sentinel.
func Correlation(a, b []float64) *float64 {
	if len(a) != len(b) || len(a) < 2 {
		return nil
	}
	if StdDev(a) <= Epsilon || StdDev(b) <= Epsilon {
		return nil
	}
	c := stat.Correlation(a, b, nil)
	return &c
}

// RollingCorrelationPoint pairs a short-window and long-window correlation
// sample at the same series index.
type RollingCorrelationPoint struct {
	Index int
	Short *float64
	Long *float64
}

// RollingCorrelation computes paired short/long window rolling correlations
// of a against b. Points before the long window has warmed up are
// omitted entirely, matching Rolling's no-partial-window contract.
func RollingCorrelation(a, b []float64, windowShort, windowLong int) []RollingCorrelationPoint {
	if windowShort <= 0 || windowLong <= 0 || windowShort > windowLong {
		return nil
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < windowLong {
		return nil
	}
	out := make([]RollingCorrelationPoint, 0, n-windowLong+1)
	for end := windowLong - 1; end < n; end++ {
		shortStart := end - windowShort + 1
		longStart := end - windowLong + 1
		shortCorr := Correlation(a[shortStart:end+1], b[shortStart:end+1])
		longCorr := Correlation(a[longStart:end+1], b[longStart:end+1])
		out = append(out, RollingCorrelationPoint{Index: end, Short: shortCorr, Long: longCorr})
	}
	return out
}

// ZScore standardizes x against a reference mean/std. Returns nil when std is
// at or below Epsilon, since the result would be degenerate.
func ZScore(x, mean, std float64) *float64 {
	if std <= Epsilon {
		return nil
	}
	z := (x - mean) / std
	return &z
}

// Covariance between two equal-length series.
func Covariance(a, b []float64) *float64 {
	if len(a) != len(b) || len(a) < 2 {
		return nil
	}
	c := stat.Covariance(a, b, nil)
	return &c
}

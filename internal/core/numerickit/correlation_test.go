package numerickit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelation_ConstantSeriesIsNull(t *testing.T) {
	a := []float64{1, 1, 1, 1}
	b := []float64{1, 2, 3, 4}
	assert.Nil(t, Correlation(a, b), "constant series must yield null, not 1.0")
}

func TestCorrelation_PerfectPositive(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{2, 4, 6, 8, 10}
	c := Correlation(a, b)
	require.NotNil(t, c)
	assert.InDelta(t, 1.0, *c, 1e-9)
}

func TestCorrelation_Bounded(t *testing.T) {
	a := []float64{1, 5, 2, 8, 3, 9, 1, 4}
	b := []float64{4, 1, 7, 2, 6, 0, 9, 3}
	c := Correlation(a, b)
	require.NotNil(t, c)
	assert.GreaterOrEqual(t, *c, -1.0)
	assert.LessOrEqual(t, *c, 1.0)
}

func TestZScore_NullBelowEpsilon(t *testing.T) {
	assert.Nil(t, ZScore(1.0, 0.5, 0))
	assert.Nil(t, ZScore(1.0, 0.5, 1e-13))
}

func TestZScore_Computed(t *testing.T) {
	z := ZScore(3.0, 1.0, 2.0)
	require.NotNil(t, z)
	assert.InDelta(t, 1.0, *z, 1e-9)
}

func TestRollingCorrelation_NoPartialWindow(t *testing.T) {
	a := make([]float64, 10)
	b := make([]float64, 10)
	for i := range a {
		a[i] = float64(i)
		b[i] = float64(i) * 2
	}
	points := RollingCorrelation(a, b, 3, 5)
	require.NotEmpty(t, points)
	assert.Equal(t, 4, points[0].Index) // long window warms up at index 4
}

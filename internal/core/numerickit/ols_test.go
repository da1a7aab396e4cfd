package numerickit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOLS_RecoversKnownSlope(t *testing.T) {
	x := make([][]float64, 20)
	y := make([]float64, 20)
	for i := 0; i < 20; i++ {
		xi := float64(i)
		x[i] = []float64{xi}
		y[i] = 3.0 + 2.0*xi
	}
	res, err := OLS(y, x)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, res.Intercept, 1e-6)
	assert.InDelta(t, 2.0, res.Coefficients[0], 1e-6)
	assert.InDelta(t, 1.0, res.RSquared, 1e-6)
}

func TestOLS_DegenerateInsufficientObservations(t *testing.T) {
	x := [][]float64{{1, 2}}
	y := []float64{1}
	_, err := OLS(y, x)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestHalfLife_NonMeanRevertingIsNull(t *testing.T) {
	trending := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	assert.Nil(t, HalfLifeOfMeanReversion(trending))
}

func TestHalfLife_MeanRevertingHasPositiveHalfLife(t *testing.T) {
	spread := make([]float64, 200)
	val := 2.0
	for i := range spread {
		val += -0.3*val + 0.01*float64(i%3-1)
		spread[i] = val
	}
	hl := HalfLifeOfMeanReversion(spread)
	require.NotNil(t, hl)
	assert.Greater(t, *hl, 0.0)
}

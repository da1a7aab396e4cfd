package numerickit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleReturns_Length(t *testing.T) {
	series := []float64{100, 102, 101, 105}
	returns := SimpleReturns(series)
	require.Len(t, returns, len(series)-1)
	assert.InDelta(t, 0.02, returns[0], 1e-9)
}

func TestSimpleReturns_TooShort(t *testing.T) {
	assert.Empty(t, SimpleReturns([]float64{100}))
	assert.Empty(t, SimpleReturns(nil))
}

func TestLogReturns_MatchesExpected(t *testing.T) {
	series := []float64{100, 110}
	returns := LogReturns(series)
	require.Len(t, returns, 1)
	assert.InDelta(t, 0.09531, returns[0], 1e-4)
}

func TestLogReturns_NonPositivePrice(t *testing.T) {
	series := []float64{100, -5}
	returns := LogReturns(series)
	require.Len(t, returns, 1)
	assert.Equal(t, 0.0, returns[0])
}

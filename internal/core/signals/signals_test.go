package signals_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantcore/analytics-core/internal/core/signals"
	"github.com/quantcore/analytics-core/internal/core/types"
)

func ptr(v float64) *float64 { return &v }

func TestCompositeRating_MissingGroupsRenormalize(t *testing.T) {
	in := signals.FactorInputs{
		Ticker:    "AAPL",
		AsOf:      time.Now(),
		PE:        ptr(15),
		NetMargin: ptr(0.2),
	}
	score := signals.CompositeRating(in)

	require.Contains(t, score.PerFactor, "valuation")
	require.Contains(t, score.PerFactor, "growth")
	assert.Nil(t, score.PerFactor["growth"].Grade)
	assert.NotNil(t, score.PerFactor["valuation"].Grade)

	var incomplete int
	for _, c := range score.DataCompleteness {
		if !c.PITFaithful {
			incomplete++
		}
	}
	assert.Greater(t, incomplete, 0)
}

func TestClassifyRegime_HighCorrelation(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	returns := map[types.Ticker][]float64{
		"A": series,
		"B": series,
	}
	assert.Equal(t, types.RegimeHighCorrelation, signals.ClassifyRegime(returns))
}

func TestMomentum_ShortSeriesDegradesGracefully(t *testing.T) {
	result := signals.Momentum("AAPL", []float64{100, 101, 99})
	assert.Nil(t, result.RSI14)
	assert.Nil(t, result.PriceVsSMA50)
}

func TestFuse_WeightsByConfidence(t *testing.T) {
	now := time.Now()
	result := signals.Fuse("AAPL", []types.FusionComponent{
		{Name: "technical", Score: 1.0, Confidence: 0.9, UpdatedAt: now},
		{Name: "fundamental", Score: -1.0, Confidence: 0.1, UpdatedAt: now},
	})
	assert.Equal(t, "bullish", result.Direction)
	assert.Greater(t, result.Composite, 0.0)
}

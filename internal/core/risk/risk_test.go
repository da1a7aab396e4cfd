package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantcore/analytics-core/internal/core/risk"
)

func TestSimulateGBM_DeterministicGivenSeed(t *testing.T) {
	params := risk.GBMParams{Mu: 0.0003, Sigma: 0.02}
	cfg := risk.SimulationConfig{Paths: 100, Steps: 50, Seed: 42}

	first := risk.SimulateGBM(100, params, cfg)
	second := risk.SimulateGBM(100, params, cfg)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestSimulateBootstrap_StaysWithinHistoricalSupport(t *testing.T) {
	hist := []float64{-0.01, 0.0, 0.01}
	cfg := risk.SimulationConfig{Paths: 10, Steps: 20, Seed: 7}
	paths := risk.SimulateBootstrap(100, hist, cfg)
	require.Len(t, paths, 10)
	for _, p := range paths {
		assert.Len(t, p, 21)
	}
}

func TestComputeVaRCVaR_CVaRExceedsVaR(t *testing.T) {
	terminal := []float64{80, 85, 90, 95, 100, 105, 110, 115, 120, 70}
	result := risk.ComputeVaRCVaR(100, terminal, 0.95)
	assert.GreaterOrEqual(t, result.CVaRAbs, result.VaRAbs)
}

func TestRunScenarios_BullHasHigherExpectedReturnThanCrash(t *testing.T) {
	base := risk.GBMParams{Mu: 0.0003, Sigma: 0.02}
	cfg := risk.SimulationConfig{Paths: 500, Steps: 60, Seed: 1}
	results := risk.RunScenarios(100, base, 0.0001, cfg)

	byName := make(map[risk.ScenarioName]risk.ScenarioResult)
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.Greater(t, byName[risk.ScenarioBull].Outputs.ExpectedReturn, byName[risk.ScenarioCrash].Outputs.ExpectedReturn)
}

package risk

// ScenarioName identifies one of the deterministic scenarios.
type ScenarioName string

const (
	ScenarioBull ScenarioName = "bull"
	ScenarioBase ScenarioName = "base"
	ScenarioBear ScenarioName = "bear"
	ScenarioCrash ScenarioName = "crash"
)

// ScenarioResult is one scenario's simulated terminal-value summary.
type ScenarioResult struct {
	Name ScenarioName
	Params GBMParams
	Outputs SimulationOutputs
}

// RunScenarios applies the drift/vol modifiers to the base GBM
// estimate and runs all four deterministic scenarios. sigmaMu is the
// standard error of the mean drift estimate (sigma / sqrt(n)).
func RunScenarios(spot float64, base GBMParams, sigmaMu float64, cfg SimulationConfig) []ScenarioResult {
	scenarios := []struct {
		name ScenarioName
		muOffset float64
		volFactor float64
	}{
		{ScenarioBull, 2 * sigmaMu, 0.5},
		{ScenarioBase, 0, 1.0},
		{ScenarioBear, -2 * sigmaMu, 1.5},
		{ScenarioCrash, -3 * sigmaMu, 2.0},
	}

	results := make([]ScenarioResult, 0, len(scenarios))
	for i, s := range scenarios {
		params := GBMParams{Mu: base.Mu + s.muOffset, Sigma: base.Sigma * s.volFactor}
		scenarioCfg := cfg
		scenarioCfg.Seed = cfg.Seed + int64(i) // distinct, still deterministic per scenario
		paths := SimulateGBM(spot, params, scenarioCfg)
		terminal := TerminalValues(paths)
		results = append(results, ScenarioResult{
			Name: s.name,
			Params: params,
			Outputs: SummarizeTerminalValues(spot, terminal),
		})
	}
	return results
}

package signals

import (
	"math"
	"sort"

	"github.com/quantcore/analytics-core/internal/core/numerickit"
	"github.com/quantcore/analytics-core/internal/core/types"
)

// BreakdownConfig controls the correlation breakdown detector.
type BreakdownConfig struct {
	ShortWindow int
	LongWindow int
	Lookback int
}

// DefaultBreakdownConfig returns the out-of-the-box window sizing.
func DefaultBreakdownConfig() BreakdownConfig {
	return BreakdownConfig{ShortWindow: 20, LongWindow: 60, Lookback: 252}
}

// DetectBreakdown flags a correlation-regime anomaly between two return
// series. Returns nil when there isn't enough history to compute both
// rolling windows or a usable z-score.
func DetectBreakdown(tickerA, tickerB types.Ticker, a, b []float64, cfg BreakdownConfig) *types.CorrelationPair {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n > cfg.Lookback {
		a = a[n-cfg.Lookback:]
		b = b[n-cfg.Lookback:]
		n = cfg.Lookback
	}
	if n < cfg.LongWindow+1 {
		return nil
	}

	points := numerickit.RollingCorrelation(a, b, cfg.ShortWindow, cfg.LongWindow)
	if len(points) == 0 {
		return nil
	}

	last := points[len(points)-1]
	if last.Short == nil || last.Long == nil {
		return nil
	}

	var history []float64
	for _, p := range points {
		if p.Short != nil {
			history = append(history, *p.Short)
		}
	}
	if len(history) < 2 {
		return nil
	}

	mean := numerickit.Mean(history)
	std := numerickit.StdDev(history)
	z := numerickit.ZScore(*last.Short, mean, std)
	if z == nil {
		return nil
	}

	pair := &types.CorrelationPair{
		TickerA: tickerA,
		TickerB: tickerB,
		WindowShort: cfg.ShortWindow,
		WindowLong: cfg.LongWindow,
		CurrentCorr: *last.Short,
		HistoricalMean: mean,
		HistoricalStd: std,
		ZScore: *z,
		Severity: types.SeverityNormal,
		Direction: "narrowing",
	}
	if *last.Short > *last.Long {
		pair.Direction = "widening"
	}

	deviation := math.Abs(*last.Short - *last.Long)
	if math.Abs(*z) > 2.0 && deviation > 0.3 {
		pair.Severity = types.SeverityMedium
		if deviation > 0.5 {
			pair.Severity = types.SeverityHigh
		}
	}
	return pair
}

// MatrixScan computes the matrix scan over all C(n,2) pairs of a
// universe's return series and returns the top-K ranked by |z|. Pairs with
// no usable z-score (insufficient history) are excluded rather than ranked
// as zero, which would bias them to the bottom incorrectly.
func MatrixScan(returns map[types.Ticker][]float64, cfg BreakdownConfig, topK int) []types.CorrelationPair {
	tickers := make([]types.Ticker, 0, len(returns))
	for t := range returns {
		tickers = append(tickers, t)
	}
	sort.Slice(tickers, func(i, j int) bool { return tickers[i] < tickers[j] })

	var scans []types.CorrelationPair
	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			pair := DetectBreakdown(tickers[i], tickers[j], returns[tickers[i]], returns[tickers[j]], cfg)
			if pair == nil {
				continue
			}
			scans = append(scans, *pair)
		}
	}

	sort.Slice(scans, func(i, j int) bool {
		return math.Abs(scans[i].ZScore) > math.Abs(scans[j].ZScore)
	})
	if topK > 0 && len(scans) > topK {
		scans = scans[:topK]
	}
	return scans
}

// ClassifyRegime buckets the average pairwise current correlation of a
// universe into the regime bands.
func ClassifyRegime(returns map[types.Ticker][]float64) types.Regime {
	tickers := make([]types.Ticker, 0, len(returns))
	for t := range returns {
		tickers = append(tickers, t)
	}

	var sum, n float64
	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			c := numerickit.Correlation(returns[tickers[i]], returns[tickers[j]])
			if c == nil {
				continue
			}
			sum += *c
			n++
		}
	}
	if n == 0 {
		return types.RegimeNormal
	}

	avg := sum / n
	switch {
	case avg > 0.7:
		return types.RegimeHighCorrelation
	case avg >= 0.4:
		return types.RegimeNormal
	case avg >= 0.1:
		return types.RegimeLow
	default:
		return types.RegimeDecorrelated
	}
}

// PairsArbitrageSignal reports the pairs-arbitrage actionability of
// two correlated return/price-ratio series.
type PairsArbitrageSignal struct {
	Actionable bool
	Confidence string // "" | "HIGH"
	CombinedZ *float64
}

// PairsArbitrage combines a correlation z-score and a price-ratio z-score
// into one actionability signal, gated on a minimum historical correlation.
func PairsArbitrage(tickerA, tickerB types.Ticker, returnsA, returnsB, priceRatio []float64, cfg BreakdownConfig) PairsArbitrageSignal {
	histCorr := numerickit.Correlation(returnsA, returnsB)
	if histCorr == nil || *histCorr <= 0.6 {
		return PairsArbitrageSignal{}
	}

	breakdown := DetectBreakdown(tickerA, tickerB, returnsA, returnsB, cfg)
	if breakdown == nil {
		return PairsArbitrageSignal{}
	}

	ratioMean := numerickit.Mean(priceRatio)
	ratioStd := numerickit.StdDev(priceRatio)
	ratioZ := numerickit.ZScore(priceRatio[len(priceRatio)-1], ratioMean, ratioStd)
	if ratioZ == nil {
		return PairsArbitrageSignal{}
	}

	combined := (breakdown.ZScore + *ratioZ) / 2
	signal := PairsArbitrageSignal{CombinedZ: &combined}
	if math.Abs(combined) > 3 {
		signal.Actionable = true
		if math.Abs(combined) > 4 {
			signal.Confidence = "HIGH"
		}
	}
	return signal
}

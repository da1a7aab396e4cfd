package signals

import (
	"time"

	"github.com/quantcore/analytics-core/internal/core/types"
)

// FactorWeights are the default factor-group weights. CompositeRating
// renormalizes them over whichever groups have a grade for a given as-of
// date rather than using these verbatim.
var FactorWeights = map[string]float64{
	"valuation": 0.15,
	"growth": 0.20,
	"profitability": 0.20,
	"momentum": 0.20,
	"revisions": 0.25,
}

// FactorInputs holds the PIT-filtered raw numbers a composite rating needs.
// Any field may be nil when the data provider cannot supply it as-of the
// requested date.
type FactorInputs struct {
	Ticker types.Ticker
	AsOf time.Time

	// Valuation
	PE, PB, PS *float64

	// Growth
	RevenueYoY, EPSYoY *float64

	// Profitability
	NetMargin, ROE, ROA *float64
	FCFPositive *bool

	// Momentum
	Return3M, Return6M, Return12M *float64
	RSI14 *float64
	PriceVsSMA200 *float64

	// Revisions / catalyst
	EarningsSurprisePattern *float64 // normalized -1..1, positive = beat streak
	AnalystNetUpgrades *float64 // upgrades minus downgrades, normalized -1..1
}

// gradedGroup binds a grouped grade (0-5 scale, nil when unavailable) and
// a PIT-faithfulness note for one factor group.
type gradedGroup struct {
	grade *float64
	pitFaithful bool
	note string
}

// CompositeRating computes the multi-factor composite from PIT
// filtered inputs, renormalizing weights over available groups when one or
// more is missing data.
func CompositeRating(in FactorInputs) types.CompositeScore {
	groups := map[string]gradedGroup{
		"valuation": gradeValuation(in),
		"growth": gradeGrowth(in),
		"profitability": gradeProfitability(in),
		"momentum": gradeMomentum(in),
		"revisions": gradeRevisions(in),
	}

	var weightedSum, weightSum float64
	perFactor := make(map[string]types.FactorScore, len(groups))
	var completeness []types.DataCompleteness

	for name, g := range groups {
		perFactor[name] = types.FactorScore{
			FactorName: name,
			Grade: g.grade,
		}
		completeness = append(completeness, types.DataCompleteness{
			Group: name,
			PITFaithful: g.pitFaithful,
			Note: g.note,
		})
		if g.grade == nil {
			continue
		}
		w := FactorWeights[name]
		weightedSum += w * (*g.grade)
		weightSum += w
	}

	var composite float64
	if weightSum > 0 {
		composite = weightedSum / weightSum
	}

	return types.CompositeScore{
		Ticker: in.Ticker,
		AsOf: in.AsOf,
		Composite: composite,
		PerFactor: perFactor,
		Rating: types.RatingFromComposite(composite),
		DataCompleteness: completeness,
	}
}

func gradeValuation(in FactorInputs) gradedGroup {
	if in.PE == nil && in.PB == nil && in.PS == nil {
		return gradedGroup{note: "no PIT valuation data available"}
	}
	var sum, n float64
	if in.PE != nil {
		sum += gradeLowerIsBetter(*in.PE, []float64{10, 15, 20, 30})
		n++
	}
	if in.PB != nil {
		sum += gradeLowerIsBetter(*in.PB, []float64{1, 2, 3, 5})
		n++
	}
	if in.PS != nil {
		sum += gradeLowerIsBetter(*in.PS, []float64{1, 2, 4, 8})
		n++
	}
	grade := sum / n
	return gradedGroup{grade: &grade, pitFaithful: true}
}

func gradeGrowth(in FactorInputs) gradedGroup {
	if in.RevenueYoY == nil && in.EPSYoY == nil {
		return gradedGroup{note: "no PIT growth data available"}
	}
	var sum, n float64
	if in.RevenueYoY != nil {
		sum += gradeHigherIsBetter(*in.RevenueYoY, []float64{-0.05, 0.0, 0.1, 0.2})
		n++
	}
	if in.EPSYoY != nil {
		sum += gradeHigherIsBetter(*in.EPSYoY, []float64{-0.05, 0.0, 0.1, 0.2})
		n++
	}
	grade := sum / n
	return gradedGroup{grade: &grade, pitFaithful: true}
}

func gradeProfitability(in FactorInputs) gradedGroup {
	if in.NetMargin == nil && in.ROE == nil && in.ROA == nil {
		return gradedGroup{note: "no PIT profitability data available"}
	}
	var sum, n float64
	if in.NetMargin != nil {
		sum += gradeHigherIsBetter(*in.NetMargin, []float64{0, 0.05, 0.1, 0.2})
		n++
	}
	if in.ROE != nil {
		sum += gradeHigherIsBetter(*in.ROE, []float64{0, 0.05, 0.1, 0.15})
		n++
	}
	if in.ROA != nil {
		sum += gradeHigherIsBetter(*in.ROA, []float64{0, 0.02, 0.05, 0.1})
		n++
	}
	if in.FCFPositive != nil {
		if *in.FCFPositive {
			sum += 5
		} else {
			sum += 1
		}
		n++
	}
	grade := sum / n
	return gradedGroup{grade: &grade, pitFaithful: true}
}

func gradeMomentum(in FactorInputs) gradedGroup {
	if in.Return3M == nil && in.Return6M == nil && in.Return12M == nil && in.RSI14 == nil && in.PriceVsSMA200 == nil {
		return gradedGroup{note: "no PIT momentum data available"}
	}
	var sum, n float64
	for _, r := range []*float64{in.Return3M, in.Return6M, in.Return12M} {
		if r != nil {
			sum += gradeHigherIsBetter(*r, []float64{-0.1, 0.0, 0.1, 0.25})
			n++
		}
	}
	if in.RSI14 != nil {
		sum += gradeHigherIsBetter(*in.RSI14, []float64{30, 45, 55, 70})
		n++
	}
	if in.PriceVsSMA200 != nil {
		sum += gradeHigherIsBetter(*in.PriceVsSMA200, []float64{-0.1, 0, 0.05, 0.15})
		n++
	}
	grade := sum / n
	return gradedGroup{grade: &grade, pitFaithful: true}
}

func gradeRevisions(in FactorInputs) gradedGroup {
	if in.EarningsSurprisePattern == nil && in.AnalystNetUpgrades == nil {
		return gradedGroup{note: "no PIT revisions/catalyst data available"}
	}
	var sum, n float64
	if in.EarningsSurprisePattern != nil {
		sum += gradeHigherIsBetter(*in.EarningsSurprisePattern, []float64{-0.5, -0.1, 0.1, 0.5})
		n++
	}
	if in.AnalystNetUpgrades != nil {
		sum += gradeHigherIsBetter(*in.AnalystNetUpgrades, []float64{-0.5, -0.1, 0.1, 0.5})
		n++
	}
	grade := sum / n
	return gradedGroup{grade: &grade, pitFaithful: true}
}

// gradeHigherIsBetter maps v onto a 0-5 scale against four ascending
// thresholds (grade increases as v crosses each band).
func gradeHigherIsBetter(v float64, thresholds []float64) float64 {
	grade := 0.0
	for _, t := range thresholds {
		if v >= t {
			grade++
		}
	}
	return grade + 1 // 1..5
}

// gradeLowerIsBetter is the inverse banding used for valuation ratios, where
// a lower multiple is preferable.
func gradeLowerIsBetter(v float64, thresholds []float64) float64 {
	grade := 5.0
	for _, t := range thresholds {
		if v > t {
			grade--
		}
	}
	if grade < 1 {
		grade = 1
	}
	return grade
}

package elasticity

import (
	"math"

	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/mathutil"
)

// Range is an inclusive achievement band of the curve.
type Range struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Ranges are the canonical bands, aligned with the default quarterly tiers.
var Ranges = []Range{
	{Name: "0-40%", Start: 0, End: 40},
	{Name: "41-70%", Start: 41, End: 70},
	{Name: "71-89%", Start: 71, End: 89},
	{Name: "90-99%", Start: 90, End: 99},
	{Name: "100-104%", Start: 100, End: 104},
	{Name: "105-114%", Start: 105, End: 114},
	{Name: "115-129%", Start: 115, End: 129},
	{Name: "≥130%", Start: 130, End: 200},
}

// RangeResult is the payout slope over one band and the revenue it buys.
type RangeResult struct {
	Range
	// Elasticity is the payout change per achievement point.
	Elasticity float64 `json:"elasticity"`
	// RevenuePerPoint is the revenue of one achievement point at target.
	RevenuePerPoint float64 `json:"revenuePerPoint"`
	// ROI is revenue per euro of additional payout; 0 when the band is flat.
	ROI float64 `json:"roi"`
	// Points is the number of curve points inside the band.
	Points int `json:"points"`
}

// Slope returns the payout change per achievement point between the first
// and last curve points inside r. Bands with fewer than two points are flat.
func (c Curve) Slope(r Range) (slope float64, points int) {
	first, last := -1, -1
	for i, p := range c {
		if p.Achievement < r.Start || p.Achievement > r.End {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
		points++
	}
	if points < 2 {
		return 0, points
	}

	diff := c[last].Achievement - c[first].Achievement
	if diff <= 0 {
		return 0, points
	}
	return (c[last].TotalExcludingContinuity - c[first].TotalExcludingContinuity) / float64(diff), points
}

// RangeElasticity measures every canonical band of the curve against the
// revenue value of one achievement point of yearlyTarget.
func RangeElasticity(c Curve, yearlyTarget float64) []RangeResult {
	out := make([]RangeResult, 0, len(Ranges))
	for _, r := range Ranges {
		slope, n := c.Slope(r)
		res := RangeResult{Range: r, Points: n}
		if n >= 2 {
			res.Elasticity = slope
			res.RevenuePerPoint = yearlyTarget / constants.PercentageMultiplier
			if res.RevenuePerPoint > 0 {
				res.ROI = mathutil.SafeDivide(res.RevenuePerPoint, slope)
			}
		}
		out = append(out, res)
	}
	return out
}

// Insight summarizes where the curve is steepest and the achievement level
// that yields the most payout per point.
type Insight struct {
	Slopes []RangeResult `json:"slopes"`
	// Steepest is nil when no band has a non-negative slope.
	Steepest *RangeResult `json:"steepest,omitempty"`
	// OptimalAchievement is never below the 90% entry threshold.
	OptimalAchievement int `json:"optimalAchievement"`
}

// optimalFloor is the lowest achievement ever recommended as a target.
const optimalFloor = 90

// Analyze derives the elasticity insight for a curve.
func Analyze(c Curve) Insight {
	var in Insight
	for _, r := range Ranges {
		slope, n := c.Slope(r)
		if n < 2 {
			continue
		}
		in.Slopes = append(in.Slopes, RangeResult{Range: r, Elasticity: slope, Points: n})
	}

	// Later bands win ties; a band must at least match a flat slope.
	best := 0.0
	for i := range in.Slopes {
		if best > in.Slopes[i].Elasticity {
			continue
		}
		best = in.Slopes[i].Elasticity
		in.Steepest = &in.Slopes[i]
	}

	optimal, bestRatio := 0, 0.0
	for _, p := range c {
		if p.Achievement <= 0 {
			continue
		}
		if ratio := p.TotalExcludingContinuity / float64(p.Achievement); ratio > bestRatio {
			optimal, bestRatio = p.Achievement, ratio
		}
	}
	in.OptimalAchievement = int(math.Max(optimalFloor, float64(optimal)))
	return in
}

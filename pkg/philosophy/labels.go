package philosophy

import (
	"strings"

	"github.com/iwvelando/payout-elasticity/pkg/elasticity"
)

// Typicality places a metric relative to its usual industry range.
type Typicality string

const (
	Below   Typicality = "below"
	Typical Typicality = "typical"
	Above   Typicality = "above"
)

// Text returns the parenthesised description used in reports.
func (t Typicality) Text() string {
	switch t {
	case Below:
		return "(below typical range)"
	case Above:
		return "(above typical range)"
	default:
		return "(within typical range)"
	}
}

// TypicalRange is an inclusive band of usual values.
type TypicalRange struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Classify reports where v lies relative to the range.
func (r TypicalRange) Classify(v float64) Typicality {
	switch {
	case v < r.Lower:
		return Below
	case v > r.Upper:
		return Above
	default:
		return Typical
	}
}

// Industry ranges for the scored metrics.
var (
	TypicalMultiple     = TypicalRange{Lower: 2, Upper: 3}
	TypicalRelativeSize = TypicalRange{Lower: 1, Upper: 3}
	TypicalPayMix       = TypicalRange{Lower: 15, Upper: 35}
	TypicalBelowShare   = TypicalRange{Lower: 20, Upper: 40}
	TypicalAtShare      = TypicalRange{Lower: 10, Upper: 25}
	TypicalAboveShare   = TypicalRange{Lower: 40, Upper: 60}
	TypicalTargetJump   = TypicalRange{Lower: 10, Upper: 20}
)

// Label cut points shared by every rubric.
const (
	labelLowMax  = 3
	labelMidMax  = 5
	labelHighMax = 7
)

func band(score int, labels [4]string) string {
	switch {
	case score <= labelLowMax:
		return labels[0]
	case score <= labelMidMax:
		return labels[1]
	case score <= labelHighMax:
		return labels[2]
	default:
		return labels[3]
	}
}

// SizeOfPrizeLabel names the band of a size-of-prize score.
func SizeOfPrizeLabel(score int) string {
	return band(score, [4]string{"Limited", "Moderate", "Substantial", "Exceptional"})
}

// DistributionLabel names the band of a distribution score.
func DistributionLabel(score int) string {
	return band(score, [4]string{"Imbalanced", "Somewhat Balanced", "Well Balanced", "Optimally Balanced"})
}

// PsychologyLabel names the band of a psychology score.
func PsychologyLabel(score int) string {
	return band(score, [4]string{"Weak", "Moderate", "Effective", "Highly Effective"})
}

// NearMissLabel names the band of a near-miss score.
func NearMissLabel(score int) string {
	return band(score, [4]string{"Weak", "Moderate", "Strong", "Very Strong"})
}

// PsychDistanceLabel names the band of a psychological distance score.
func PsychDistanceLabel(score int) string {
	return band(score, [4]string{"Poor", "Moderate", "Good", "Optimal"})
}

// SizeOfPrizeDescription explains a size-of-prize score in a sentence.
func SizeOfPrizeDescription(score int) string {
	return band(score, [4]string{
		"Limited overall compensation potential that may not strongly motivate exceptional performance",
		"Moderate compensation package that provides reasonable incentives for achievement",
		"Substantial compensation package with strong incentives for high performance",
		"Exceptional compensation potential that creates powerful incentives for outstanding performance",
	})
}

// DistributionDescription explains a distribution score in a sentence.
func DistributionDescription(score int) string {
	return band(score, [4]string{
		"Imbalanced allocation between below-target, at-target, and above-target performance",
		"Somewhat balanced reward distribution across performance levels",
		"Well-balanced reward distribution that supports multiple performance scenarios",
		"Optimally balanced distribution that creates the perfect tension between support and stretch",
	})
}

// PsychologyDescription explains a psychology score in a sentence.
func PsychologyDescription(score int) string {
	return band(score, [4]string{
		"Limited use of psychological motivators to drive desired behaviors",
		"Moderate implementation of behavioral psychology principles",
		"Effective use of psychological mechanisms to drive target achievement",
		"Sophisticated implementation of behavioral psychology principles for maximum motivation",
	})
}

// Area is one of the three top-level scorecard dimensions.
type Area string

const (
	AreaSizeOfPrize  Area = "sizeOfPrize"
	AreaDistribution Area = "distribution"
	AreaPsychology   Area = "psychology"
)

// ImprovementArea returns the lowest scoring dimension. Ties prefer size of
// prize, then distribution.
func ImprovementArea(m Metrics) Area {
	lowest := min(m.SizeOfPrize.Score, m.Distribution.Score, m.Psychology.Score)
	switch lowest {
	case m.SizeOfPrize.Score:
		return AreaSizeOfPrize
	case m.Distribution.Score:
		return AreaDistribution
	default:
		return AreaPsychology
	}
}

// Advice returns the improvement sentence for an area.
func (a Area) Advice() string {
	switch a {
	case AreaSizeOfPrize:
		return "Enhancing the overall incentive potential would provide the greatest improvement."
	case AreaDistribution:
		return "Rebalancing the distribution of rewards across achievement levels would optimize the model."
	default:
		return "Strengthening the psychological mechanisms, especially around target achievement, would make the model more effective."
	}
}

// DistributionComparison describes the distribution against industry
// benchmarks.
func DistributionComparison(d Distribution) string {
	if d.BelowTypicality == Typical && d.AtTypicality == Typical && d.AboveTypicality == Typical {
		return "well aligned with industry benchmarks"
	}

	var issues []string
	switch d.BelowTypicality {
	case Below:
		issues = append(issues, "less support below target")
	case Above:
		issues = append(issues, "more support below target")
	}
	switch d.AtTypicality {
	case Below:
		issues = append(issues, "weaker target incentive")
	case Above:
		issues = append(issues, "stronger target incentive")
	}
	switch d.AboveTypicality {
	case Below:
		issues = append(issues, "less upside potential")
	case Above:
		issues = append(issues, "more upside potential")
	}
	if len(issues) == 0 {
		return "generally aligned with industry benchmarks"
	}
	return "notable for " + strings.Join(issues, " and ") + " compared to typical models"
}

// Increment is the payout gained by the last achievement point.
type Increment struct {
	Achievement int     `json:"achievement"`
	Payout      float64 `json:"payout"`
}

// Increments returns the one-point payout increase at every level from
// from to to inclusive. Missing neighbours yield 0.
func Increments(c elasticity.Curve, from, to int) []Increment {
	var out []Increment
	for a := from; a <= to; a++ {
		inc := Increment{Achievement: a}
		curr, errCurr := c.At(a)
		prev, errPrev := c.At(a - 1)
		if errCurr == nil && errPrev == nil {
			inc.Payout = curr.TotalExcludingContinuity - prev.TotalExcludingContinuity
		}
		out = append(out, inc)
	}
	return out
}

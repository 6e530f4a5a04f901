// Package philosophy scores a compensation plan's design against common
// incentive heuristics: how big the prize is, how it is spread across
// performance levels and how well thresholds pull people towards target.
package philosophy

import (
	"math"
	"sort"

	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/elasticity"
	"github.com/iwvelando/payout-elasticity/pkg/mathutil"
	"github.com/iwvelando/payout-elasticity/pkg/risk"
)

// Score bounds and the neutral starting score of every rubric.
const (
	MinScore     = 1
	MaxScore     = 10
	NeutralScore = 5
)

// Size-of-prize rubric. The target multiple is max payout over target payout;
// the payout percentage is target payout as a percent of yearly revenue
// target.
const (
	MultipleVeryLow     = 1.5
	MultipleLow         = 2.0
	MultipleGoodMax     = 3.0
	PayoutPercentHigh   = 5.0
	PayoutPercentLow    = 1.0
	PayoutPercentGoodLo = 1.5
	PayoutPercentGoodHi = 3.0
)

// Distribution rubric, in percent of max payout.
const (
	BelowShareVeryLow = 15.0
	BelowShareLow     = 25.0
	BelowShareHigh    = 50.0
	BelowShareGoodMax = 40.0
	AtShareLow        = 10.0
	AtShareGoodLo     = 15.0
	AtShareGoodHi     = 25.0
	AboveShareVeryLow = 30.0
	AboveShareLow     = 40.0
	AboveShareGoodMax = 60.0
)

// Near-miss rubric on the 99% to 100% payout jump, in percent.
const (
	JumpStrong   = 15.0
	JumpModerate = 10.0
	JumpWeak     = 5.0
)

// Psychological distance rubric on the average gap between threshold points.
const (
	GapVeryNarrow = 5.0
	GapGoodLo     = 10.0
	GapGoodHi     = 15.0
	GapVeryWide   = 25.0
)

// ThresholdPoints are the achievement levels whose spacing is scored.
var ThresholdPoints = []int{90, 100, 105, 115, 130}

// Jump is the payout change between two achievement levels.
type Jump struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Change float64 `json:"change"`
	// Percentage is Change relative to the payout at From; 0 when that is 0.
	Percentage float64 `json:"percentage"`
}

// SizeOfPrize describes the overall incentive potential.
type SizeOfPrize struct {
	Score                  int        `json:"score"`
	Label                  string     `json:"label"`
	MaxPotential           float64    `json:"maxPotential"`
	TargetPayout           float64    `json:"targetPayout"`
	TargetMultiple         float64    `json:"targetMultiple"`
	RelativeSizePercent    float64    `json:"relativeSizePercentage"`
	MultipleTypicality     Typicality `json:"targetMultipleTypicality"`
	RelativeSizeTypicality Typicality `json:"relativeSizeTypicality"`
}

// PayMix relates target variable pay to base salary.
type PayMix struct {
	BaseSalary     float64    `json:"baseSalary"`
	TargetVariable float64    `json:"targetVariable"`
	TargetTotal    float64    `json:"targetTotal"`
	Ratio          float64    `json:"ratio"`
	Typicality     Typicality `json:"typicality"`
}

// Distribution describes how max payout splits across performance levels.
type Distribution struct {
	Score            int        `json:"score"`
	Label            string     `json:"label"`
	BelowTargetShare float64    `json:"belowTargetShare"`
	AtTargetShare    float64    `json:"atTargetShare"`
	AboveTargetShare float64    `json:"aboveTargetShare"`
	BelowTypicality  Typicality `json:"belowTargetTypicality"`
	AtTypicality     Typicality `json:"atTargetTypicality"`
	AboveTypicality  Typicality `json:"aboveTargetTypicality"`
}

// NearMiss describes the pull of the 100% threshold.
type NearMiss struct {
	Score                int        `json:"score"`
	Label                string     `json:"label"`
	TargetJump           float64    `json:"targetJump"`
	TargetJumpPercentage float64    `json:"targetJumpPercentage"`
	TargetJumpTypicality Typicality `json:"targetJumpTypicality"`
	IsTargetJumpPrimary  bool       `json:"isTargetJumpPrimary"`
	PrimaryJump          Jump       `json:"primaryJump"`
	// Jumps are sorted by Change, largest first.
	Jumps []Jump `json:"jumps"`
}

// PsychDistance describes the spacing of achievement thresholds.
type PsychDistance struct {
	Score         int     `json:"score"`
	Label         string  `json:"label"`
	AvgGap        float64 `json:"avgGap"`
	ThresholdGaps []int   `json:"thresholdGaps"`
}

// Psychology combines near-miss pull and threshold spacing.
type Psychology struct {
	Score         int           `json:"score"`
	Label         string        `json:"label"`
	NearMiss      NearMiss      `json:"nearMiss"`
	PsychDistance PsychDistance `json:"psychDistance"`
}

// Metrics is the full philosophy scorecard of a plan.
type Metrics struct {
	SizeOfPrize  SizeOfPrize  `json:"sizeOfPrize"`
	PayMix       PayMix       `json:"payMix"`
	Distribution Distribution `json:"distribution"`
	Psychology   Psychology   `json:"psychology"`
	// RadarData is ordered as RadarAxes.
	RadarData           [6]float64  `json:"radarData"`
	RiskRating          risk.Rating `json:"riskRating"`
	ContinuityThreshold float64     `json:"continuityThreshold"`
}

// RadarAxes names the dimensions of Metrics.RadarData.
var RadarAxes = [6]string{
	"Size of Prize",
	"Below Target Support",
	"At Target Incentive",
	"Above Target Stretch",
	"Near-Miss Psychology",
	"Psychological Distance",
}

// Compute scores the plan behind curve. Every ratio with a zero denominator
// resolves to 0.
func Compute(curve elasticity.Curve, assessment risk.Assessment, baseSalary, yearlyTarget, continuityThreshold float64) Metrics {
	p90 := curve.Total(90)
	p95 := curve.Total(95)
	p99 := curve.Total(99)
	p100 := curve.Total(constants.TargetAchievement)
	p105 := curve.Total(105)
	p115 := curve.Total(115)
	maxPayout := 0.0
	if len(curve) > 0 {
		maxPayout = curve[len(curve)-1].TotalExcludingContinuity
	}

	targetMultiple := 0.0
	if p100 > 0 {
		targetMultiple = maxPayout / p100
	}
	payoutPercent := 0.0
	if yearlyTarget > 0 {
		payoutPercent = p100 / yearlyTarget * constants.PercentageMultiplier
	}

	jumps := []Jump{
		{From: 95, To: 100, Change: p100 - p95},
		{From: 99, To: 100, Change: p100 - p99},
		{From: 100, To: 105, Change: p105 - p100},
		{From: 105, To: 115, Change: p115 - p105},
	}
	sort.SliceStable(jumps, func(i, j int) bool { return jumps[i].Change > jumps[j].Change })
	for i := range jumps {
		if from := curve.Total(jumps[i].From); from > 0 {
			jumps[i].Percentage = jumps[i].Change / from * constants.PercentageMultiplier
		}
	}
	primary := jumps[0]
	targetPrimary := primary.From == 99 && primary.To == constants.TargetAchievement

	targetJump := p100 - p99
	targetJumpPercent := 0.0
	if p99 > 0 {
		targetJumpPercent = targetJump / p99 * constants.PercentageMultiplier
	}

	gaps := make([]int, 0, len(ThresholdPoints)-1)
	for i := 1; i < len(ThresholdPoints); i++ {
		gaps = append(gaps, ThresholdPoints[i]-ThresholdPoints[i-1])
	}
	avgGap := 0.0
	if len(gaps) > 0 {
		total := 0
		for _, g := range gaps {
			total += g
		}
		avgGap = float64(total) / float64(len(gaps))
	}

	var belowShare, atShare, aboveShare float64
	if maxPayout > 0 {
		belowShare = mathutil.CalculatePercentage(p90, maxPayout)
		atShare = mathutil.CalculatePercentage(p100-p90, maxPayout)
		aboveShare = mathutil.CalculatePercentage(maxPayout-p100, maxPayout)
	}
	payMixRatio := 0.0
	if baseSalary > 0 {
		payMixRatio = p100 / baseSalary * constants.PercentageMultiplier
	}

	prize := clamp(sizeOfPrizeScore(targetMultiple, payoutPercent))
	dist := clamp(distributionScore(belowShare, atShare, aboveShare))
	nearMiss := clamp(nearMissScore(targetJumpPercent, targetPrimary))
	distance := clamp(psychDistanceScore(avgGap))
	psych := int(math.Round(float64(nearMiss+distance) / 2))

	return Metrics{
		SizeOfPrize: SizeOfPrize{
			Score:                  prize,
			Label:                  SizeOfPrizeLabel(prize),
			MaxPotential:           maxPayout,
			TargetPayout:           p100,
			TargetMultiple:         targetMultiple,
			RelativeSizePercent:    payoutPercent,
			MultipleTypicality:     TypicalMultiple.Classify(targetMultiple),
			RelativeSizeTypicality: TypicalRelativeSize.Classify(payoutPercent),
		},
		PayMix: PayMix{
			BaseSalary:     baseSalary,
			TargetVariable: p100,
			TargetTotal:    baseSalary + p100,
			Ratio:          payMixRatio,
			Typicality:     TypicalPayMix.Classify(payMixRatio),
		},
		Distribution: Distribution{
			Score:            dist,
			Label:            DistributionLabel(dist),
			BelowTargetShare: belowShare,
			AtTargetShare:    atShare,
			AboveTargetShare: aboveShare,
			BelowTypicality:  TypicalBelowShare.Classify(belowShare),
			AtTypicality:     TypicalAtShare.Classify(atShare),
			AboveTypicality:  TypicalAboveShare.Classify(aboveShare),
		},
		Psychology: Psychology{
			Score: psych,
			Label: PsychologyLabel(psych),
			NearMiss: NearMiss{
				Score:                nearMiss,
				Label:                NearMissLabel(nearMiss),
				TargetJump:           targetJump,
				TargetJumpPercentage: targetJumpPercent,
				TargetJumpTypicality: TypicalTargetJump.Classify(targetJumpPercent),
				IsTargetJumpPrimary:  targetPrimary,
				PrimaryJump:          primary,
				Jumps:                jumps,
			},
			PsychDistance: PsychDistance{
				Score:         distance,
				Label:         PsychDistanceLabel(distance),
				AvgGap:        avgGap,
				ThresholdGaps: gaps,
			},
		},
		RadarData: [6]float64{
			float64(prize),
			math.Min(MaxScore, belowShare/5),
			math.Min(MaxScore, atShare/3),
			math.Min(MaxScore, aboveShare/6),
			float64(nearMiss),
			float64(distance),
		},
		RiskRating:          assessment.Rating,
		ContinuityThreshold: continuityThreshold,
	}
}

func sizeOfPrizeScore(multiple, payoutPercent float64) int {
	score := NeutralScore
	switch {
	case multiple < MultipleVeryLow:
		score -= 2
	case multiple < MultipleLow:
		score--
	}
	switch {
	case multiple >= MultipleLow && multiple <= MultipleGoodMax:
		score += 2
	case multiple > MultipleGoodMax:
		score++
	}
	switch {
	case payoutPercent > PayoutPercentHigh:
		score--
	case payoutPercent < PayoutPercentLow:
		score--
	case payoutPercent >= PayoutPercentGoodLo && payoutPercent <= PayoutPercentGoodHi:
		score++
	}
	return score
}

func distributionScore(below, at, above float64) int {
	score := NeutralScore
	switch {
	case below < BelowShareVeryLow:
		score -= 2
	case below < BelowShareLow:
		score--
	case below > BelowShareHigh:
		score -= 2
	case below <= BelowShareGoodMax:
		score++
	}
	switch {
	case at < AtShareLow:
		score--
	case at >= AtShareGoodLo && at <= AtShareGoodHi:
		score++
	}
	switch {
	case above < AboveShareVeryLow:
		score -= 2
	case above < AboveShareLow:
		score--
	case above <= AboveShareGoodMax:
		score += 2
	}
	return score
}

func nearMissScore(jumpPercent float64, targetPrimary bool) int {
	score := NeutralScore
	switch {
	case jumpPercent >= JumpStrong:
		score += 2
	case jumpPercent >= JumpModerate:
		score++
	case jumpPercent < JumpWeak:
		score -= 2
	default:
		score--
	}
	if targetPrimary {
		score++
	}
	return score
}

func psychDistanceScore(avgGap float64) int {
	score := NeutralScore
	switch {
	case avgGap >= GapGoodLo && avgGap <= GapGoodHi:
		score += 2
	case avgGap < GapVeryNarrow:
		score -= 2
	case avgGap < GapGoodLo:
		score--
	case avgGap > GapVeryWide:
		score -= 2
	default:
		score--
	}
	return score
}

func clamp(score int) int {
	return mathutil.Clamp(score, MinScore, MaxScore)
}

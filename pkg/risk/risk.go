// Package risk estimates what a compensation plan costs the business at
// low, target and high performance and rates the exposure.
package risk

import (
	"fmt"

	"github.com/iwvelando/payout-elasticity/pkg/compensation"
	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/mathutil"
)

// Rating classifies the compensation-to-profit exposure of a plan.
type Rating string

const (
	RatingLow    Rating = "Low"
	RatingMedium Rating = "Medium"
	RatingHigh   Rating = "High"
)

// Recommendation returns the canned advice for a rating.
func (r Rating) Recommendation() string {
	switch r {
	case RatingHigh:
		return "The current compensation structure presents significant financial risk at high achievement levels. " +
			"Consider capping bonuses or implementing a declining rate structure for achievements above 130%."
	case RatingMedium:
		return "The compensation structure is moderately risky at target achievement. " +
			"Consider optimizing the threshold levels to better align with business margins."
	default:
		return "The compensation structure is well balanced with good alignment between performance and payout. " +
			"The risk to company profitability is minimal even at high achievement levels."
	}
}

// Scenario identifies one of the three canonical performance levels.
type Scenario string

const (
	ScenarioLow    Scenario = "low"
	ScenarioTarget Scenario = "target"
	ScenarioHigh   Scenario = "high"
)

// Params holds the assumptions of the risk model.
type Params struct {
	// LowLevel, TargetLevel and HighLevel are uniform achievement percents.
	LowLevel    float64 `json:"lowLevel"`
	TargetLevel float64 `json:"targetLevel"`
	HighLevel   float64 `json:"highLevel"`
	// BaseMonthlySales is the monthly sales volume at 100% achievement.
	BaseMonthlySales float64 `json:"baseMonthlySales"`
	// ProfitMargin is the fraction of revenue kept as profit.
	ProfitMargin float64 `json:"profitMargin"`
	// HighThreshold is the high-scenario payout-to-profit percent above
	// which a plan rates High.
	HighThreshold float64 `json:"highThreshold"`
	// MediumThreshold is the target-scenario payout-to-profit percent above
	// which a plan rates Medium.
	MediumThreshold float64 `json:"mediumThreshold"`
	// LadderLevels are the achievement percents reported by Ladder.
	LadderLevels []float64 `json:"ladderLevels"`
}

// Default risk model assumptions.
const (
	DefaultLowLevel         = 80.0
	DefaultTargetLevel      = 100.0
	DefaultHighLevel        = 150.0
	DefaultBaseMonthlySales = 20000.0
	DefaultProfitMargin     = 0.3
	DefaultHighThreshold    = 30.0
	DefaultMediumThreshold  = 20.0
)

// DefaultParams returns the standard risk model.
func DefaultParams() Params {
	return Params{
		LowLevel:         DefaultLowLevel,
		TargetLevel:      DefaultTargetLevel,
		HighLevel:        DefaultHighLevel,
		BaseMonthlySales: DefaultBaseMonthlySales,
		ProfitMargin:     DefaultProfitMargin,
		HighThreshold:    DefaultHighThreshold,
		MediumThreshold:  DefaultMediumThreshold,
		LadderLevels:     []float64{80, 90, 100, 110, 120, 150},
	}
}

// Validate rejects assumptions the model cannot evaluate.
func (p Params) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"low level", p.LowLevel},
		{"target level", p.TargetLevel},
		{"high level", p.HighLevel},
		{"base monthly sales", p.BaseMonthlySales},
		{"profit margin", p.ProfitMargin},
		{"high threshold", p.HighThreshold},
		{"medium threshold", p.MediumThreshold},
	}
	for _, f := range fields {
		if !mathutil.IsFinite(f.value) {
			return fmt.Errorf("%w: risk %s must be a finite number", compensation.ErrInvalidInput, f.name)
		}
	}
	for _, v := range p.LadderLevels {
		if !mathutil.IsFinite(v) {
			return fmt.Errorf("%w: risk ladder level must be a finite number", compensation.ErrInvalidInput)
		}
	}
	return nil
}

// ScenarioResult is the plan cost at one uniform achievement level.
type ScenarioResult struct {
	Scenario    Scenario `json:"scenario"`
	Achievement float64  `json:"achievement"`
	Payout      float64  `json:"payout"`
	Revenue     float64  `json:"revenue"`
	Profit      float64  `json:"profit"`
	// CompRatio is payout as a percent of profit; 0 when profit is 0.
	CompRatio float64 `json:"compRatio"`
}

// Assessment is the outcome of the three-scenario model.
type Assessment struct {
	Low            ScenarioResult `json:"low"`
	Target         ScenarioResult `json:"target"`
	High           ScenarioResult `json:"high"`
	Rating         Rating         `json:"riskRating"`
	Recommendation string         `json:"recommendation"`
}

// Assess runs the default risk model for a plan and a yearly revenue target.
func Assess(cfg compensation.Config, fte, yearlyTarget float64) (Assessment, error) {
	return AssessWith(DefaultParams(), cfg, fte, yearlyTarget)
}

// AssessWith runs the risk model with explicit assumptions.
func AssessWith(p Params, cfg compensation.Config, fte, yearlyTarget float64) (Assessment, error) {
	if err := p.Validate(); err != nil {
		return Assessment{}, err
	}
	if err := ValidateYearlyTarget(yearlyTarget); err != nil {
		return Assessment{}, err
	}

	var a Assessment
	var err error
	if a.Low, err = scenario(p, cfg, fte, yearlyTarget, ScenarioLow, p.LowLevel); err != nil {
		return Assessment{}, err
	}
	if a.Target, err = scenario(p, cfg, fte, yearlyTarget, ScenarioTarget, p.TargetLevel); err != nil {
		return Assessment{}, err
	}
	if a.High, err = scenario(p, cfg, fte, yearlyTarget, ScenarioHigh, p.HighLevel); err != nil {
		return Assessment{}, err
	}

	a.Rating = Classify(p, a.Target.CompRatio, a.High.CompRatio)
	a.Recommendation = a.Rating.Recommendation()
	return a, nil
}

// Classify rates a plan from its target and high scenario payout-to-profit
// percents. Both comparisons are strict.
func Classify(p Params, targetRatio, highRatio float64) Rating {
	switch {
	case highRatio > p.HighThreshold:
		return RatingHigh
	case targetRatio > p.MediumThreshold:
		return RatingMedium
	default:
		return RatingLow
	}
}

// LadderStep is the total payout at one uniform achievement level.
type LadderStep struct {
	Achievement float64 `json:"achievement"`
	Payout      float64 `json:"payout"`
}

// Ladder returns the total payout at every ladder level of p.
func Ladder(p Params, cfg compensation.Config, fte float64) ([]LadderStep, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := make([]LadderStep, 0, len(p.LadderLevels))
	for _, level := range p.LadderLevels {
		b, err := compensation.TotalPayout(cfg, uniform(p, level), fte)
		if err != nil {
			return nil, err
		}
		out = append(out, LadderStep{Achievement: level, Payout: b.TotalPayout})
	}
	return out, nil
}

// ValidateYearlyTarget rejects negative or non-numeric revenue targets.
func ValidateYearlyTarget(yearlyTarget float64) error {
	if !mathutil.IsFinite(yearlyTarget) || yearlyTarget < 0 {
		return fmt.Errorf("%w: yearly target %v must be a non-negative number", compensation.ErrInvalidInput, yearlyTarget)
	}
	return nil
}

func scenario(p Params, cfg compensation.Config, fte, yearlyTarget float64, s Scenario, level float64) (ScenarioResult, error) {
	b, err := compensation.TotalPayout(cfg, uniform(p, level), fte)
	if err != nil {
		return ScenarioResult{}, err
	}
	revenue := yearlyTarget * (level / constants.PercentageMultiplier)
	profit := revenue * p.ProfitMargin
	ratio := 0.0
	if profit != 0 {
		ratio = b.TotalPayout / profit * constants.PercentageMultiplier
	}
	return ScenarioResult{
		Scenario:    s,
		Achievement: level,
		Payout:      b.TotalPayout,
		Revenue:     revenue,
		Profit:      profit,
		CompRatio:   ratio,
	}, nil
}

func uniform(p Params, level float64) compensation.Trajectory {
	return compensation.Uniform(level, p.BaseMonthlySales*(level/constants.PercentageMultiplier))
}

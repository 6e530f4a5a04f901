package philosophy

import (
	"fmt"
	"math"
	"slices"

	"github.com/iwvelando/payout-elasticity/pkg/compensation"
	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/mathutil"
	"github.com/iwvelando/payout-elasticity/pkg/tier"
)

// Goal selects which recommendations matter to the plan owner.
type Goal string

const (
	GoalOverall       Goal = "overall"
	GoalTarget        Goal = "target"
	GoalTopPerformers Goal = "topPerformers"
	GoalBalance       Goal = "balance"
)

// ParseGoal maps a goal name onto a Goal; empty means overall.
func ParseGoal(s string) (Goal, error) {
	switch g := Goal(s); g {
	case "":
		return GoalOverall, nil
	case GoalOverall, GoalTarget, GoalTopPerformers, GoalBalance:
		return g, nil
	default:
		return "", fmt.Errorf("%w: unknown goal focus %q", compensation.ErrInvalidInput, s)
	}
}

// Kind groups recommendations by the dimension they improve.
type Kind string

const (
	KindSizeOfPrize  Kind = "sizeOfPrize"
	KindDistribution Kind = "distribution"
	KindPsychology   Kind = "psychology"
	KindStructure    Kind = "structure"
)

// Explanation describes what recommendations of this kind aim for.
func (k Kind) Explanation() string {
	switch k {
	case KindSizeOfPrize:
		return "This recommendation is designed to improve the overall compensation opportunity, creating stronger motivation for high performance."
	case KindDistribution:
		return "This recommendation helps balance the compensation available across different performance levels to better match your business objectives."
	case KindPsychology:
		return "This recommendation enhances the psychological mechanisms that drive motivation and target achievement behaviors."
	case KindStructure:
		return "This recommendation improves the fundamental structure of the compensation model to better align with compensation best practices."
	default:
		return "This recommendation is designed to optimize your compensation model."
	}
}

// Field identifies the plan setting a Change edits.
type Field string

const (
	// FieldCommissionRate is a commission tier rate in percent.
	FieldCommissionRate     Field = "commissionRate"
	FieldQuarterlyThreshold Field = "quarterlyThreshold"
	FieldQuarterlyUpTo      Field = "quarterlyUpTo"
	FieldQuarterlyBonus     Field = "quarterlyBonus"
	// FieldRollingAverage treats a non-zero NewValue as enabled.
	FieldRollingAverage Field = "rollingAverage"
)

// Change is one edit to a plan. Tier indexes the schedule in sorted order
// and is ignored for FieldRollingAverage.
type Change struct {
	Field    Field   `json:"field"`
	Tier     int     `json:"tier"`
	OldValue float64 `json:"oldValue"`
	NewValue float64 `json:"newValue"`
}

// Describe renders the change for people, with tiers numbered from 1.
func (c Change) Describe() string {
	switch c.Field {
	case FieldCommissionRate:
		return fmt.Sprintf("Commission Tier %d: %g%% → %.1f%%", c.Tier+1, c.OldValue, c.NewValue)
	case FieldQuarterlyThreshold:
		return fmt.Sprintf("Q-Bonus Threshold %d: %g%% → %g%%", c.Tier+1, c.OldValue, c.NewValue)
	case FieldQuarterlyUpTo:
		return fmt.Sprintf("Q-Bonus Upper Limit %d: %g%% → %g%%", c.Tier+1, c.OldValue, c.NewValue)
	case FieldQuarterlyBonus:
		return fmt.Sprintf("Q-Bonus Amount %d: %.2f → %.2f", c.Tier+1, c.OldValue, c.NewValue)
	case FieldRollingAverage:
		return fmt.Sprintf("3-Month Rolling Average: %s → %s", enabled(c.OldValue), enabled(c.NewValue))
	default:
		return fmt.Sprintf("%s %d: %g → %g", c.Field, c.Tier+1, c.OldValue, c.NewValue)
	}
}

func enabled(v float64) string {
	if v != 0 {
		return "Enabled"
	}
	return "Disabled"
}

// Impact is the expected effect size of a recommendation.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Recommendation is a suggested plan adjustment with its rationale.
type Recommendation struct {
	Title     string   `json:"title"`
	Impact    Impact   `json:"impact"`
	Reasoning string   `json:"reasoning"`
	Kind      Kind     `json:"type"`
	Changes   []Change `json:"changes"`

	atTarget    bool
	aboveTarget bool
}

// Recommendation trigger levels.
const (
	recommendScoreMax      = 4
	upsideMultipleMin      = 1.5
	aboveShareMin          = 30.0
	belowShareMin          = 20.0
	belowShareMax          = 50.0
	gapTooWide             = 20.0
	gapTooNarrow           = 5.0
	maxTopCommissionRate   = 10.0
	minEntryThreshold      = 70.0
	entryThresholdDecrease = 15.0
)

// Recommend derives plan adjustments from a scorecard and keeps those that
// serve goal. Changes reference cfg's current values; tiers a
// recommendation needs but cfg does not have cause it to be skipped.
//
// Goals select by tag, not by title. GoalTarget keeps every psychology
// recommendation plus the at-target distribution shifts, so "Strengthen
// target achievement incentives" is included for it.
func Recommend(m Metrics, cfg compensation.Config, goal Goal) []Recommendation {
	comm := cfg.CommissionTiers.Tiers()
	q := cfg.QuarterlyTiers.Tiers()
	var recs []Recommendation

	if m.SizeOfPrize.Score <= recommendScoreMax && m.SizeOfPrize.TargetMultiple < upsideMultipleMin &&
		len(comm) >= constants.CommissionTierCount && len(q) >= constants.QuarterlyTierCount {
		rate := comm[2].Value * constants.PercentageMultiplier
		recs = append(recs, Recommendation{
			Title:  "Increase upside potential",
			Impact: ImpactMedium,
			Reasoning: fmt.Sprintf("The current model has limited upside with only a %.1fx multiple from target to maximum payout. "+
				"Increasing the commission rates and/or bonuses for high achievement would create stronger incentives for top performance.",
				m.SizeOfPrize.TargetMultiple),
			Kind: KindSizeOfPrize,
			Changes: []Change{
				{Field: FieldCommissionRate, Tier: 2, OldValue: rate, NewValue: math.Min(maxTopCommissionRate, rate*1.33)},
				{Field: FieldQuarterlyBonus, Tier: 4, OldValue: q[4].Value, NewValue: q[4].Value * 1.25},
			},
		})
	}

	if m.Distribution.AboveTargetShare < aboveShareMin && len(q) >= constants.QuarterlyTierCount {
		recs = append(recs, Recommendation{
			Title:  "Enhance above-target incentives",
			Impact: ImpactMedium,
			Reasoning: fmt.Sprintf("Only %.1f%% of potential compensation is available above target, limiting motivation for exceptional performance. "+
				"Increasing rewards for achievements above 105%% would create stronger incentives for top performers.",
				m.Distribution.AboveTargetShare),
			Kind: KindDistribution,
			Changes: []Change{
				{Field: FieldQuarterlyBonus, Tier: 3, OldValue: q[3].Value, NewValue: q[3].Value * 1.2},
				{Field: FieldQuarterlyBonus, Tier: 4, OldValue: q[4].Value, NewValue: q[4].Value * 1.3},
			},
			aboveTarget: true,
		})
	}

	switch below := m.Distribution.BelowTargetShare; {
	case below < belowShareMin && len(q) >= 1:
		recs = append(recs, Recommendation{
			Title:  "Improve below-target support",
			Impact: ImpactMedium,
			Reasoning: fmt.Sprintf("Only %.1f%% of potential compensation is available below target, creating high stress and potentially punitive environment. "+
				"Adding a lower tier commission and/or quarterly bonus would provide better support for people having difficult periods.", below),
			Kind: KindDistribution,
			Changes: []Change{
				{Field: FieldQuarterlyThreshold, Tier: 0, OldValue: q[0].Lower, NewValue: math.Max(minEntryThreshold, q[0].Lower-entryThresholdDecrease)},
				{Field: FieldQuarterlyBonus, Tier: 0, OldValue: q[0].Value, NewValue: q[0].Value * 0.7},
			},
		})
	case below > belowShareMax && len(q) >= 2:
		recs = append(recs, Recommendation{
			Title:  "Strengthen target achievement incentives",
			Impact: ImpactHigh,
			Reasoning: fmt.Sprintf("%.1f%% of potential compensation is available below target, which may reduce motivation to reach 100%%. "+
				"Shifting some compensation from below-target to at-target would create stronger incentives to reach the full goal.", below),
			Kind: KindDistribution,
			Changes: []Change{
				{Field: FieldQuarterlyBonus, Tier: 0, OldValue: q[0].Value, NewValue: q[0].Value * 0.8},
				{Field: FieldQuarterlyBonus, Tier: 1, OldValue: q[1].Value, NewValue: q[1].Value * 1.3},
			},
			atTarget: true,
		})
	}

	if m.Psychology.NearMiss.Score <= recommendScoreMax && len(q) >= 3 {
		recs = append(recs, Recommendation{
			Title:  "Enhance target achievement incentive",
			Impact: ImpactHigh,
			Reasoning: fmt.Sprintf("The current payout increase at 100%% achievement is only %.1f%%, creating weak psychological tension. "+
				"Creating a significant but graduated increase around 100%% would create a stronger psychological incentive to reach target.",
				m.Psychology.NearMiss.TargetJumpPercentage),
			Kind: KindPsychology,
			Changes: []Change{
				{Field: FieldQuarterlyThreshold, Tier: 1, OldValue: q[1].Lower, NewValue: constants.TargetAchievement},
				{Field: FieldQuarterlyUpTo, Tier: 1, OldValue: q[1].Upper, NewValue: 102},
				{Field: FieldQuarterlyBonus, Tier: 1, OldValue: q[1].Value, NewValue: q[1].Value * 1.25},
			},
			atTarget: true,
		})
	}

	if d := m.Psychology.PsychDistance; d.Score <= recommendScoreMax && len(q) >= 4 {
		switch {
		case d.AvgGap > gapTooWide:
			recs = append(recs, Recommendation{
				Title:  "Optimize threshold spacing",
				Impact: ImpactMedium,
				Reasoning: fmt.Sprintf("The current average gap between thresholds (%.1f%%) is too wide, potentially making higher levels feel unattainable. "+
					"Adding intermediate thresholds would create a more motivating ladder of achievement.", d.AvgGap),
				Kind: KindPsychology,
				Changes: []Change{
					{Field: FieldQuarterlyThreshold, Tier: 2, OldValue: q[2].Lower, NewValue: math.Round((q[1].Lower + q[2].Lower) / 2)},
					{Field: FieldQuarterlyUpTo, Tier: 2, OldValue: q[2].Upper, NewValue: q[3].Lower - 1},
					{Field: FieldQuarterlyBonus, Tier: 2, OldValue: q[2].Value, NewValue: math.Round((q[1].Value + q[3].Value) / 2)},
				},
			})
		case d.AvgGap < gapTooNarrow:
			recs = append(recs, Recommendation{
				Title:  "Optimize threshold spacing",
				Impact: ImpactLow,
				Reasoning: fmt.Sprintf("The current average gap between thresholds (%.1f%%) is too narrow, potentially making threshold achievements feel trivial. "+
					"Spacing thresholds further apart would create more meaningful achievement milestones.", d.AvgGap),
				Kind: KindPsychology,
				Changes: []Change{
					{Field: FieldQuarterlyThreshold, Tier: 2, OldValue: q[2].Lower, NewValue: q[2].Lower + 5},
					{Field: FieldQuarterlyThreshold, Tier: 3, OldValue: q[3].Lower, NewValue: q[3].Lower + 10},
				},
			})
		}
	}

	if !cfg.UseRollingAverage {
		recs = append(recs, Recommendation{
			Title:  "Implement 3-month rolling average",
			Impact: ImpactMedium,
			Reasoning: "Using monthly sales data without averaging can lead to incentive for end-of-month or end-of-quarter sales manipulation. " +
				"A 3-month rolling average would smooth out performance and reduce undesirable sales tactics.",
			Kind:    KindStructure,
			Changes: []Change{{Field: FieldRollingAverage, OldValue: 0, NewValue: 1}},
		})
	}

	return slices.DeleteFunc(recs, func(r Recommendation) bool { return !r.serves(goal) })
}

func (r Recommendation) serves(goal Goal) bool {
	switch goal {
	case GoalOverall, "":
		return true
	case GoalTarget:
		return r.Kind == KindPsychology || r.atTarget
	case GoalTopPerformers:
		return r.Kind == KindSizeOfPrize || (r.Kind == KindDistribution && r.aboveTarget)
	case GoalBalance:
		return r.Kind == KindDistribution || r.Kind == KindStructure
	default:
		return false
	}
}

// Apply returns a new configuration with changes applied in order. Tier
// indexes refer to cfg's sorted tiers; the edited schedules are re-sorted
// and the result is validated. cfg itself is never modified.
func Apply(cfg compensation.Config, changes []Change) (compensation.Config, error) {
	comm := cfg.CommissionTiers.Tiers()
	q := cfg.QuarterlyTiers.Tiers()
	out := cfg

	for i, c := range changes {
		if !mathutil.IsFinite(c.NewValue) {
			return compensation.Config{}, fmt.Errorf("%w: change %d has a non-numeric value", compensation.ErrInvalidConfiguration, i+1)
		}
		switch c.Field {
		case FieldRollingAverage:
			out.UseRollingAverage = c.NewValue != 0
			continue
		case FieldCommissionRate:
			if c.Tier < 0 || c.Tier >= len(comm) {
				return compensation.Config{}, tierError(i, c, len(comm))
			}
			comm[c.Tier].Value = c.NewValue / constants.PercentageMultiplier
			continue
		}

		if c.Tier < 0 || c.Tier >= len(q) {
			return compensation.Config{}, tierError(i, c, len(q))
		}
		switch c.Field {
		case FieldQuarterlyThreshold:
			q[c.Tier].Lower = c.NewValue
		case FieldQuarterlyUpTo:
			q[c.Tier].Upper = c.NewValue
		case FieldQuarterlyBonus:
			q[c.Tier].Value = c.NewValue
		default:
			return compensation.Config{}, fmt.Errorf("%w: change %d has unknown field %q", compensation.ErrInvalidConfiguration, i+1, c.Field)
		}
	}

	var err error
	if out.CommissionTiers, err = tier.NewSchedule(tier.Accumulate, comm); err != nil {
		return compensation.Config{}, fmt.Errorf("%w: commission tiers: %w", compensation.ErrInvalidConfiguration, err)
	}
	if out.QuarterlyTiers, err = tier.NewSchedule(tier.Step, q); err != nil {
		return compensation.Config{}, fmt.Errorf("%w: quarterly tiers: %w", compensation.ErrInvalidConfiguration, err)
	}
	if err := out.Validate(); err != nil {
		return compensation.Config{}, err
	}
	return out, nil
}

// ApplyAll applies the changes of every recommendation in order.
func ApplyAll(cfg compensation.Config, recs []Recommendation) (compensation.Config, error) {
	var changes []Change
	for _, r := range recs {
		changes = append(changes, r.Changes...)
	}
	return Apply(cfg, changes)
}

func tierError(i int, c Change, n int) error {
	return fmt.Errorf("%w: change %d targets %s tier %d but the schedule has %d tiers",
		compensation.ErrInvalidConfiguration, i+1, c.Field, c.Tier+1, n)
}

// ProjectRadar estimates the radar profile after acting on goal.
func ProjectRadar(radar [6]float64, goal Goal) [6]float64 {
	out := radar
	switch goal {
	case GoalTarget:
		out[2] = math.Min(MaxScore, radar[2]*1.3)
		out[4] = math.Min(MaxScore, radar[4]*1.3)
	case GoalTopPerformers:
		out[0] = math.Min(MaxScore, radar[0]*1.2)
		out[3] = math.Min(MaxScore, radar[3]*1.4)
	case GoalBalance:
		out[1] = math.Min(MaxScore, radar[1]*1.3)
		for i, v := range out {
			if v < 4 {
				out[i] = math.Min(MaxScore, v*1.2)
			}
		}
	default:
		lowest := slices.Min(radar[:])
		for i, v := range out {
			if v == lowest {
				out[i] = math.Min(MaxScore, v*1.3)
			}
		}
	}
	return out
}

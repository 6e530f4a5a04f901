package compensation

import (
	"math"

	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/mathutil"
	"github.com/iwvelando/payout-elasticity/pkg/tier"
)

// Breakdown is the full-year payout derived from a Config and a Trajectory.
type Breakdown struct {
	QuarterlyBonuses     [constants.QuartersPerYear]float64 `json:"quarterlyBonuses"`
	ContinuityBonuses    [constants.QuartersPerYear]float64 `json:"continuityBonuses"`
	Commissions          [constants.MonthsPerYear]float64   `json:"commissions"`
	TotalQuarterlyBonus  float64                            `json:"totalQuarterlyBonus"`
	TotalContinuityBonus float64                            `json:"totalContinuityBonus"`
	TotalCommission      float64                            `json:"totalCommission"`
	TotalPayout          float64                            `json:"totalPayout"`
	AverageAchievement   float64                            `json:"avgAchievement"`
	YearlyRevenue        float64                            `json:"yearlyRevenue"`
}

// TotalPayout computes the full-year breakdown. The configuration, FTE and
// trajectory are validated up front and any error rejects the whole
// calculation.
func TotalPayout(cfg Config, traj Trajectory, fte float64) (Breakdown, error) {
	if err := cfg.Validate(); err != nil {
		return Breakdown{}, err
	}
	if err := ValidateFTE(fte); err != nil {
		return Breakdown{}, err
	}
	if err := traj.Validate(); err != nil {
		return Breakdown{}, err
	}
	return totalPayout(cfg, traj, fte), nil
}

func totalPayout(cfg Config, traj Trajectory, fte float64) Breakdown {
	var b Breakdown
	q := traj.QuarterlyAchievements

	for i, a := range q {
		b.QuarterlyBonuses[i] = stepBonus(a, fte, cfg.QuarterlyTiers)
	}
	for i := 1; i < len(q); i++ {
		b.ContinuityBonuses[i] = continuityBonus(q[i-1], q[i], fte, cfg.ContinuityThreshold, cfg.ContinuityTiers)
	}
	b.Commissions = monthlyCommissions(cfg, traj.MonthlySales, fte)

	b.TotalQuarterlyBonus = mathutil.Sum(b.QuarterlyBonuses[:])
	b.TotalContinuityBonus = mathutil.Sum(b.ContinuityBonuses[:])
	b.TotalCommission = mathutil.Sum(b.Commissions[:])
	b.TotalPayout = b.TotalQuarterlyBonus + b.TotalContinuityBonus + b.TotalCommission
	b.AverageAchievement = mathutil.Mean(q[:])
	b.YearlyRevenue = mathutil.Sum(traj.MonthlySales[:])
	return b
}

// YearCommission returns the summed commission for a full year of monthly
// sales, with the rolling average taking its lookback from year itself.
func YearCommission(cfg Config, year [constants.MonthsPerYear]float64, fte float64) float64 {
	c := monthlyCommissions(cfg, year, fte)
	return mathutil.Sum(c[:])
}

// QuarterlyBonusFor is the unchecked quarterly bonus lookup for callers that
// already validated cfg.
func QuarterlyBonusFor(cfg Config, achievement, fte float64) float64 {
	return stepBonus(achievement, fte, cfg.QuarterlyTiers)
}

func monthlyCommissions(cfg Config, year [constants.MonthsPerYear]float64, fte float64) [constants.MonthsPerYear]float64 {
	var out [constants.MonthsPerYear]float64
	for m, sales := range year {
		// month is always in range and sales are validated by the callers
		value, _ := SmoothedSales(sales, cfg.UseRollingAverage, m, cfg.PreviousMonths, year)
		out[m] = commission(value, fte, cfg.CommissionTiers)
	}
	return out
}

// DefaultConfig returns the reference plan: three marginal commission
// tiers, five quarterly bonus steps and four continuity steps above a 100%
// threshold, with the rolling average enabled.
func DefaultConfig() Config {
	inf := math.Inf(1)
	return Config{
		CommissionTiers: tier.MustNewSchedule(tier.Accumulate, []tier.Tier{
			{Lower: 10000, Upper: 25000, Value: 0.02},
			{Lower: 25000, Upper: 40000, Value: 0.04},
			{Lower: 40000, Upper: inf, Value: 0.06},
		}),
		QuarterlyTiers: tier.MustNewSchedule(tier.Step, []tier.Tier{
			{Lower: 90, Upper: 99, Value: 1200},
			{Lower: 100, Upper: 104, Value: 1600},
			{Lower: 105, Upper: 114, Value: 2000},
			{Lower: 115, Upper: 129, Value: 2400},
			{Lower: 130, Upper: inf, Value: 2800},
		}),
		ContinuityTiers: tier.MustNewSchedule(tier.Step, []tier.Tier{
			{Lower: 100, Upper: 104, Value: 400},
			{Lower: 105, Upper: 114, Value: 500},
			{Lower: 115, Upper: 129, Value: 600},
			{Lower: 130, Upper: inf, Value: 750},
		}),
		ContinuityThreshold: 100,
		UseRollingAverage:   true,
		PreviousMonths:      [constants.SeedMonths]float64{18000, 19000},
	}
}

// DefaultTrajectory returns the reference performance year used by the
// default profile.
func DefaultTrajectory() Trajectory {
	return Trajectory{
		QuarterlyAchievements: [constants.QuartersPerYear]float64{95, 105, 110, 120},
		MonthlySales: [constants.MonthsPerYear]float64{
			20000, 22000, 25000, 28000, 30000, 32000,
			35000, 28000, 30000, 32000, 35000, 40000,
		},
	}
}

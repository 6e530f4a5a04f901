// Package elasticity sweeps a compensation plan across uniform achievement
// levels and measures how strongly payout responds to performance.
package elasticity

import (
	"errors"
	"fmt"

	"github.com/iwvelando/payout-elasticity/pkg/compensation"
	"github.com/iwvelando/payout-elasticity/pkg/constants"
)

// ErrOutOfRange is returned when a curve is queried outside 0..200 percent.
var ErrOutOfRange = errors.New("achievement out of range")

// Point is the payout at one integer achievement level. Continuity bonuses
// are excluded since they depend on quarter-to-quarter history.
type Point struct {
	Achievement              int     `json:"achievement"`
	Commission               float64 `json:"commission"`
	QuarterlyBonus           float64 `json:"quarterlyBonus"`
	TotalExcludingContinuity float64 `json:"totalExcludingContinuity"`
}

// Curve holds one Point per integer achievement percent from 0 to 200.
type Curve []Point

// At returns the point for the given achievement percent.
func (c Curve) At(achievement int) (Point, error) {
	if achievement < constants.MinAchievement || achievement > constants.MaxAchievement || achievement >= len(c) {
		return Point{}, fmt.Errorf("%w: %d is outside %d..%d", ErrOutOfRange,
			achievement, constants.MinAchievement, constants.MaxAchievement)
	}
	return c[achievement], nil
}

// Total returns TotalExcludingContinuity at achievement, or 0 when the level
// is not on the curve.
func (c Curve) Total(achievement int) float64 {
	p, err := c.At(achievement)
	if err != nil {
		return 0
	}
	return p.TotalExcludingContinuity
}

// Normalize rescales each month's sales to what it would have been at 100%
// of its quarter's achievement. Months of a quarter with non-positive
// achievement are left as is.
func Normalize(traj compensation.Trajectory) [constants.MonthsPerYear]float64 {
	var out [constants.MonthsPerYear]float64
	for m, sales := range traj.MonthlySales {
		factor := traj.QuarterlyAchievements[compensation.QuarterOf(m)] / constants.PercentageMultiplier
		if factor > 0 {
			out[m] = sales / factor
		} else {
			out[m] = sales
		}
	}
	return out
}

// Simulate builds the payout curve for the trajectory's normalized sales
// scaled uniformly from 0% to 200%. The quarterly bonus at each level counts
// all four quarters.
func Simulate(cfg compensation.Config, traj compensation.Trajectory, fte float64) (Curve, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := compensation.ValidateFTE(fte); err != nil {
		return nil, err
	}
	if err := traj.Validate(); err != nil {
		return nil, err
	}

	normalized := Normalize(traj)
	curve := make(Curve, 0, constants.MaxAchievement+1)
	for a := constants.MinAchievement; a <= constants.MaxAchievement; a++ {
		curve = append(curve, point(cfg, normalized, fte, a))
	}
	return curve, nil
}

func point(cfg compensation.Config, normalized [constants.MonthsPerYear]float64, fte float64, a int) Point {
	level := float64(a)
	var scaled [constants.MonthsPerYear]float64
	for m, n := range normalized {
		scaled[m] = n * level / constants.PercentageMultiplier
	}

	bonus := compensation.QuarterlyBonusFor(cfg, level, fte) * constants.QuartersPerYear
	commission := compensation.YearCommission(cfg, scaled, fte)
	return Point{
		Achievement:              a,
		Commission:               commission,
		QuarterlyBonus:           bonus,
		TotalExcludingContinuity: bonus + commission,
	}
}

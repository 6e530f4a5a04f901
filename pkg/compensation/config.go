// Package compensation computes commission, quarterly bonus and continuity
// bonus payouts over a plan year. Every function is pure: configuration and
// performance are passed explicitly and never mutated.
package compensation

import (
	"errors"
	"fmt"

	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/mathutil"
	"github.com/iwvelando/payout-elasticity/pkg/tier"
)

var (
	// ErrInvalidConfiguration is returned when a Config cannot be used for a calculation.
	ErrInvalidConfiguration = errors.New("invalid compensation configuration")

	// ErrInvalidInput is returned when a performance input (FTE, sales,
	// achievement, month index) is outside its domain.
	ErrInvalidInput = errors.New("invalid compensation input")
)

// Config is the immutable bundle of rules a payout is computed from.
type Config struct {
	// CommissionTiers holds marginal rates as fractions (0.02 for 2%).
	CommissionTiers tier.Schedule
	// QuarterlyTiers maps quarterly achievement percent to a flat bonus.
	QuarterlyTiers tier.Schedule
	// ContinuityTiers maps current-quarter achievement percent to a flat bonus,
	// paid only when both quarters reach ContinuityThreshold.
	ContinuityTiers     tier.Schedule
	ContinuityThreshold float64

	UseRollingAverage bool
	// PreviousMonths are the two sales values preceding January, oldest first.
	PreviousMonths [constants.SeedMonths]float64
}

// Validate checks every schedule and scalar of the configuration.
func (c Config) Validate() error {
	if c.CommissionTiers.Mode() != tier.Accumulate {
		return fmt.Errorf("%w: commission tiers must use %s mode", ErrInvalidConfiguration, tier.Accumulate)
	}
	if err := c.CommissionTiers.Validate(); err != nil {
		return fmt.Errorf("%w: commission tiers: %w", ErrInvalidConfiguration, err)
	}
	if c.QuarterlyTiers.Mode() != tier.Step {
		return fmt.Errorf("%w: quarterly tiers must use %s mode", ErrInvalidConfiguration, tier.Step)
	}
	if err := c.QuarterlyTiers.Validate(); err != nil {
		return fmt.Errorf("%w: quarterly tiers: %w", ErrInvalidConfiguration, err)
	}
	if c.ContinuityTiers.Mode() != tier.Step {
		return fmt.Errorf("%w: continuity tiers must use %s mode", ErrInvalidConfiguration, tier.Step)
	}
	if err := c.ContinuityTiers.Validate(); err != nil {
		return fmt.Errorf("%w: continuity tiers: %w", ErrInvalidConfiguration, err)
	}
	if !finite(c.ContinuityThreshold) {
		return fmt.Errorf("%w: continuity threshold must be a finite number", ErrInvalidConfiguration)
	}
	for i, v := range c.PreviousMonths {
		if !finite(v) {
			return fmt.Errorf("%w: previous month %d sales must be a finite number", ErrInvalidConfiguration, i+1)
		}
	}
	return nil
}

// WithRollingAverage returns a copy of c with the rolling-average flag set.
func (c Config) WithRollingAverage(enabled bool) Config {
	c.UseRollingAverage = enabled
	return c
}

// Trajectory is a year of performance: four quarterly achievement
// percentages and twelve monthly sales values. Month m belongs to quarter
// m/3.
type Trajectory struct {
	QuarterlyAchievements [constants.QuartersPerYear]float64 `json:"quarterlyAchievements"`
	MonthlySales          [constants.MonthsPerYear]float64   `json:"monthlySales"`
}

// Validate rejects non-numeric achievements or sales.
func (t Trajectory) Validate() error {
	for i, a := range t.QuarterlyAchievements {
		if !finite(a) {
			return fmt.Errorf("%w: quarter %d achievement must be a finite number", ErrInvalidInput, i+1)
		}
	}
	total := 0.0
	for i, s := range t.MonthlySales {
		if !finite(s) {
			return fmt.Errorf("%w: month %d sales must be a finite number", ErrInvalidInput, i+1)
		}
		total += s
	}
	if !finite(total) {
		return fmt.Errorf("%w: yearly sales must be a finite number", ErrInvalidInput)
	}
	return nil
}

// Uniform returns a trajectory with every quarter at achievement and every
// month at sales.
func Uniform(achievement, sales float64) Trajectory {
	var t Trajectory
	for i := range t.QuarterlyAchievements {
		t.QuarterlyAchievements[i] = achievement
	}
	for i := range t.MonthlySales {
		t.MonthlySales[i] = sales
	}
	return t
}

// QuarterOf returns the quarter index (0..3) that month m (0..11) belongs to.
func QuarterOf(month int) int {
	return month / constants.MonthsPerQuarter
}

// ValidateFTE rejects FTE values outside [0, 1].
func ValidateFTE(fte float64) error {
	if !finite(fte) || fte < 0 || fte > 1 {
		return fmt.Errorf("%w: fte %v must be between 0 and 1", ErrInvalidInput, fte)
	}
	return nil
}

func finite(v float64) bool {
	return mathutil.IsFinite(v)
}

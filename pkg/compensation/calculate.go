package compensation

import (
	"fmt"

	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/tier"
)

// SmoothedSales returns the sales value commission is evaluated on for the
// given month. With the rolling average enabled it is the mean of the month
// and the two months before it, where months before January come from seeds.
func SmoothedSales(sales float64, useRollingAverage bool, month int,
	seeds [constants.SeedMonths]float64, year [constants.MonthsPerYear]float64) (float64, error) {
	if month < 0 || month >= constants.MonthsPerYear {
		return 0, fmt.Errorf("%w: month index %d must be between 0 and %d", ErrInvalidInput, month, constants.MonthsPerYear-1)
	}
	if !finite(sales) {
		return 0, fmt.Errorf("%w: sales must be a finite number", ErrInvalidInput)
	}
	if !useRollingAverage {
		return sales, nil
	}

	switch month {
	case 0:
		return (sales + seeds[0] + seeds[1]) / constants.RollingAverageWindow, nil
	case 1:
		return (sales + seeds[1] + year[0]) / constants.RollingAverageWindow, nil
	default:
		return (sales + year[month-1] + year[month-2]) / constants.RollingAverageWindow, nil
	}
}

// Commission returns the commission earned for one month. Employees at or
// below the FTE floor earn no commission regardless of sales; above it the
// amount is not scaled by FTE.
func Commission(sales, fte float64, useRollingAverage bool, month int,
	seeds [constants.SeedMonths]float64, year [constants.MonthsPerYear]float64, tiers tier.Schedule) (float64, error) {
	if err := ValidateFTE(fte); err != nil {
		return 0, err
	}
	if tiers.Mode() != tier.Accumulate {
		return 0, fmt.Errorf("%w: commission tiers must use %s mode", ErrInvalidConfiguration, tier.Accumulate)
	}
	if err := tiers.Validate(); err != nil {
		return 0, fmt.Errorf("%w: commission tiers: %w", ErrInvalidConfiguration, err)
	}

	value, err := SmoothedSales(sales, useRollingAverage, month, seeds, year)
	if err != nil {
		return 0, err
	}
	return commission(value, fte, tiers), nil
}

// QuarterlyBonus returns the flat quarterly bonus for an achievement
// percentage, scaled by FTE. There is no FTE floor.
func QuarterlyBonus(achievement, fte float64, tiers tier.Schedule) (float64, error) {
	if err := ValidateFTE(fte); err != nil {
		return 0, err
	}
	if !finite(achievement) {
		return 0, fmt.Errorf("%w: achievement must be a finite number", ErrInvalidInput)
	}
	if err := validateStep("quarterly", tiers); err != nil {
		return 0, err
	}
	return stepBonus(achievement, fte, tiers), nil
}

// ContinuityBonus returns the bonus for sustaining achievement over two
// consecutive quarters. Both quarters must reach threshold; the amount is
// looked up on the current quarter. The first quarter of a year has no
// predecessor and is handled by the caller.
func ContinuityBonus(prev, curr, fte, threshold float64, tiers tier.Schedule) (float64, error) {
	if err := ValidateFTE(fte); err != nil {
		return 0, err
	}
	if !finite(prev) || !finite(curr) {
		return 0, fmt.Errorf("%w: achievement must be a finite number", ErrInvalidInput)
	}
	if !finite(threshold) {
		return 0, fmt.Errorf("%w: continuity threshold must be a finite number", ErrInvalidConfiguration)
	}
	if err := validateStep("continuity", tiers); err != nil {
		return 0, err
	}
	return continuityBonus(prev, curr, fte, threshold, tiers), nil
}

func validateStep(name string, tiers tier.Schedule) error {
	if tiers.Mode() != tier.Step {
		return fmt.Errorf("%w: %s tiers must use %s mode", ErrInvalidConfiguration, name, tier.Step)
	}
	if err := tiers.Validate(); err != nil {
		return fmt.Errorf("%w: %s tiers: %w", ErrInvalidConfiguration, name, err)
	}
	return nil
}

// Unchecked kernels below assume validated inputs; the elasticity sweep
// calls them thousands of times per curve.

func commission(value, fte float64, tiers tier.Schedule) float64 {
	if fte <= constants.CommissionFTEFloor {
		return 0
	}
	return tiers.Evaluate(value)
}

func stepBonus(achievement, fte float64, tiers tier.Schedule) float64 {
	return tiers.Evaluate(achievement) * fte
}

func continuityBonus(prev, curr, fte, threshold float64, tiers tier.Schedule) float64 {
	if prev < threshold || curr < threshold {
		return 0
	}
	return tiers.Evaluate(curr) * fte
}

// Package tier evaluates piecewise threshold schedules. A schedule either
// accumulates a marginal rate over every band below the input (commission)
// or returns the flat amount of the single band containing the input
// (quarterly and continuity bonuses).
package tier

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidSchedule is returned when tiers cannot form a usable schedule.
var ErrInvalidSchedule = errors.New("invalid tier schedule")

// Mode selects how a Schedule turns an input into a value.
type Mode int

const (
	// Accumulate sums Value*(min(x, Upper)-Lower) over every tier with Lower < x.
	Accumulate Mode = iota
	// Step returns the Value of the first tier with Lower <= x <= Upper.
	Step
)

func (m Mode) String() string {
	switch m {
	case Accumulate:
		return "accumulate"
	case Step:
		return "step"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Tier is one band of a schedule. Upper is math.Inf(1) for an open band.
// Value is a marginal rate (fraction) in Accumulate mode and a flat amount in
// Step mode.
type Tier struct {
	Lower float64
	Upper float64
	Value float64
}

// Unbounded reports whether the tier has no upper limit.
func (t Tier) Unbounded() bool {
	return math.IsInf(t.Upper, 1)
}

// Contains reports whether x falls inside the tier, both bounds inclusive.
func (t Tier) Contains(x float64) bool {
	return x >= t.Lower && x <= t.Upper
}

// Schedule is an immutable, validated set of tiers sorted ascending by Lower.
// The zero value holds no tiers and fails Validate.
type Schedule struct {
	mode  Mode
	tiers []Tier
}

// NewSchedule copies tiers, sorts them by Lower (stable, so equal lower
// bounds keep declaration order) and validates the result.
func NewSchedule(mode Mode, tiers []Tier) (Schedule, error) {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Lower < sorted[j].Lower
	})

	s := Schedule{mode: mode, tiers: sorted}
	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// MustNewSchedule is NewSchedule for literal schedules; it panics on error.
func MustNewSchedule(mode Mode, tiers []Tier) Schedule {
	s, err := NewSchedule(mode, tiers)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks the structural invariants of the schedule.
func (s Schedule) Validate() error {
	if s.mode != Accumulate && s.mode != Step {
		return fmt.Errorf("%w: unsupported mode %s", ErrInvalidSchedule, s.mode)
	}
	if len(s.tiers) == 0 {
		return fmt.Errorf("%w: no tiers", ErrInvalidSchedule)
	}

	for i, t := range s.tiers {
		if math.IsNaN(t.Lower) || math.IsNaN(t.Upper) || math.IsNaN(t.Value) {
			return fmt.Errorf("%w: tier %d has a non-numeric bound or value", ErrInvalidSchedule, i+1)
		}
		if math.IsInf(t.Lower, 0) {
			return fmt.Errorf("%w: tier %d lower bound must be finite", ErrInvalidSchedule, i+1)
		}
		if math.IsInf(t.Value, 0) {
			return fmt.Errorf("%w: tier %d value must be finite", ErrInvalidSchedule, i+1)
		}
		if t.Upper < t.Lower {
			return fmt.Errorf("%w: tier %d upper bound %.2f is below lower bound %.2f",
				ErrInvalidSchedule, i+1, t.Upper, t.Lower)
		}
		if i == 0 {
			continue
		}

		prev := s.tiers[i-1]
		switch s.mode {
		case Accumulate:
			if prev.Upper != t.Lower {
				return fmt.Errorf("%w: tier %d ends at %.2f but tier %d starts at %.2f",
					ErrInvalidSchedule, i, prev.Upper, i+1, t.Lower)
			}
		case Step:
			if prev.Upper > t.Lower {
				return fmt.Errorf("%w: tier %d (up to %.2f) overlaps tier %d (from %.2f)",
					ErrInvalidSchedule, i, prev.Upper, i+1, t.Lower)
			}
		}
	}

	if last := s.tiers[len(s.tiers)-1]; !last.Unbounded() {
		return fmt.Errorf("%w: top tier must be unbounded, got upper bound %.2f", ErrInvalidSchedule, last.Upper)
	}
	return nil
}

// Mode returns the evaluation mode.
func (s Schedule) Mode() Mode {
	return s.mode
}

// Len returns the number of tiers.
func (s Schedule) Len() int {
	return len(s.tiers)
}

// Tiers returns a copy of the sorted tiers.
func (s Schedule) Tiers() []Tier {
	out := make([]Tier, len(s.tiers))
	copy(out, s.tiers)
	return out
}

// Tier returns the i-th tier in sorted order.
func (s Schedule) Tier(i int) (Tier, bool) {
	if i < 0 || i >= len(s.tiers) {
		return Tier{}, false
	}
	return s.tiers[i], true
}

// Lowers returns the sorted lower bounds.
func (s Schedule) Lowers() []float64 {
	out := make([]float64, len(s.tiers))
	for i, t := range s.tiers {
		out[i] = t.Lower
	}
	return out
}

// Evaluate applies the schedule to x according to its mode.
func (s Schedule) Evaluate(x float64) float64 {
	if s.mode == Step {
		return s.lookup(x)
	}
	return s.accumulate(x)
}

// Contributions returns the per-tier marginal contributions to an
// Accumulate evaluation of x, in sorted tier order. In Step mode only the
// matching tier is non-zero.
func (s Schedule) Contributions(x float64) []float64 {
	out := make([]float64, len(s.tiers))
	if s.mode == Step {
		for i, t := range s.tiers {
			if t.Contains(x) {
				out[i] = t.Value
				break
			}
		}
		return out
	}
	for i, t := range s.tiers {
		out[i] = marginal(t, x)
	}
	return out
}

func (s Schedule) accumulate(x float64) float64 {
	total := 0.0
	for _, t := range s.tiers {
		total += marginal(t, x)
	}
	return total
}

func (s Schedule) lookup(x float64) float64 {
	for _, t := range s.tiers {
		if t.Contains(x) {
			return t.Value
		}
	}
	return 0
}

func marginal(t Tier, x float64) float64 {
	if x <= t.Lower {
		return 0
	}
	return (math.Min(x, t.Upper) - t.Lower) * t.Value
}

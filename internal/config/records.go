package config

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/payout-elasticity/pkg/compensation"
	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/tier"
)

var (
	// ErrUnknownStructure is returned when a named payout structure is not configured.
	ErrUnknownStructure = errors.New("unknown payout structure")

	// ErrUnknownProfile is returned when a named performance profile is not configured.
	ErrUnknownProfile = errors.New("unknown performance profile")
)

// CommissionThreshold is one commission tier of a saved structure.
// Percentage is the marginal rate in percent.
type CommissionThreshold struct {
	Threshold  float64  `yaml:"threshold" json:"threshold"`
	UpTo       *float64 `yaml:"upTo" json:"upTo"`
	Percentage float64  `yaml:"percentage" json:"percentage"`
}

// BonusThreshold is one quarterly or continuity tier of a saved structure.
type BonusThreshold struct {
	Threshold float64  `yaml:"threshold" json:"threshold"`
	UpTo      *float64 `yaml:"upTo" json:"upTo"`
	Bonus     float64  `yaml:"bonus" json:"bonus"`
}

// PayoutStructure is a named, saved compensation plan. A nil UpTo is an open
// band; the tier with the highest threshold in every list is open regardless.
type PayoutStructure struct {
	Name                 string                `yaml:"name" json:"name"`
	UseRollingAverage    bool                  `yaml:"useRollingAverage" json:"useRollingAverage"`
	PreviousMonths       []float64             `yaml:"previousMonths" json:"previousMonths"`
	CommissionThresholds []CommissionThreshold `yaml:"commissionThresholds" json:"commissionThresholds"`
	QuarterlyThresholds  []BonusThreshold      `yaml:"quarterlyThresholds" json:"quarterlyThresholds"`
	ContinuityThreshold  float64               `yaml:"continuityThreshold" json:"continuityThreshold"`
	ContinuityThresholds []BonusThreshold      `yaml:"continuityThresholds" json:"continuityThresholds"`
	// QuarterlyWeights are kept for round-tripping saved records; no
	// calculation reads them.
	QuarterlyWeights []float64 `yaml:"quarterlyWeights,omitempty" json:"quarterlyWeights,omitempty"`
}

// PerformanceProfile is a named, saved year of performance. A nil
// YearlyTarget means the sum of MonthlySales.
type PerformanceProfile struct {
	Name                  string    `yaml:"name" json:"name"`
	FTE                   float64   `yaml:"fte" json:"fte"`
	QuarterlyAchievements []float64 `yaml:"quarterlyAchievements" json:"quarterlyAchievements"`
	MonthlySales          []float64 `yaml:"monthlySales" json:"monthlySales"`
	YearlyTarget          *float64  `yaml:"yearlyTarget,omitempty" json:"yearlyTarget,omitempty"`
}

// ToConfig converts the record into an engine configuration. Tier counts are
// fixed at 3 commission, 5 quarterly and 4 continuity tiers.
func (s PayoutStructure) ToConfig() (compensation.Config, error) {
	if len(s.CommissionThresholds) != constants.CommissionTierCount {
		return compensation.Config{}, s.countError("commission", len(s.CommissionThresholds), constants.CommissionTierCount)
	}
	if len(s.QuarterlyThresholds) != constants.QuarterlyTierCount {
		return compensation.Config{}, s.countError("quarterly", len(s.QuarterlyThresholds), constants.QuarterlyTierCount)
	}
	if len(s.ContinuityThresholds) != constants.ContinuityTierCount {
		return compensation.Config{}, s.countError("continuity", len(s.ContinuityThresholds), constants.ContinuityTierCount)
	}
	if len(s.PreviousMonths) != constants.SeedMonths {
		return compensation.Config{}, s.countError("previous month", len(s.PreviousMonths), constants.SeedMonths)
	}

	comm := make([]tier.Tier, len(s.CommissionThresholds))
	for i, t := range s.CommissionThresholds {
		comm[i] = tier.Tier{
			Lower: t.Threshold,
			Upper: upper(t.UpTo),
			Value: t.Percentage / constants.PercentageMultiplier,
		}
	}
	openLast(comm)

	cfg := compensation.Config{
		ContinuityThreshold: s.ContinuityThreshold,
		UseRollingAverage:   s.UseRollingAverage,
	}
	copy(cfg.PreviousMonths[:], s.PreviousMonths)

	var err error
	if cfg.CommissionTiers, err = tier.NewSchedule(tier.Accumulate, comm); err != nil {
		return compensation.Config{}, fmt.Errorf("%w: structure %q commission tiers: %w", compensation.ErrInvalidConfiguration, s.Name, err)
	}
	if cfg.QuarterlyTiers, err = tier.NewSchedule(tier.Step, bonusTiers(s.QuarterlyThresholds)); err != nil {
		return compensation.Config{}, fmt.Errorf("%w: structure %q quarterly tiers: %w", compensation.ErrInvalidConfiguration, s.Name, err)
	}
	if cfg.ContinuityTiers, err = tier.NewSchedule(tier.Step, bonusTiers(s.ContinuityThresholds)); err != nil {
		return compensation.Config{}, fmt.Errorf("%w: structure %q continuity tiers: %w", compensation.ErrInvalidConfiguration, s.Name, err)
	}
	if err := cfg.Validate(); err != nil {
		return compensation.Config{}, fmt.Errorf("structure %q: %w", s.Name, err)
	}
	return cfg, nil
}

func (s PayoutStructure) countError(what string, got, want int) error {
	return fmt.Errorf("%w: structure %q has %d %s values, expected %d",
		compensation.ErrInvalidConfiguration, s.Name, got, what, want)
}

func bonusTiers(in []BonusThreshold) []tier.Tier {
	out := make([]tier.Tier, len(in))
	for i, t := range in {
		out[i] = tier.Tier{Lower: t.Threshold, Upper: upper(t.UpTo), Value: t.Bonus}
	}
	openLast(out)
	return out
}

// openLast sorts tiers by lower bound and opens the highest one. Records may
// list tiers in any order.
func openLast(tiers []tier.Tier) {
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Lower < tiers[j].Lower })
	if n := len(tiers); n > 0 {
		tiers[n-1].Upper = math.Inf(1)
	}
}

func upper(upTo *float64) float64 {
	if upTo == nil {
		return math.Inf(1)
	}
	return *upTo
}

// FromConfig builds a record from an engine configuration. Open bands get a
// nil UpTo.
func FromConfig(name string, cfg compensation.Config, weights []float64) PayoutStructure {
	s := PayoutStructure{
		Name:                name,
		UseRollingAverage:   cfg.UseRollingAverage,
		PreviousMonths:      append([]float64(nil), cfg.PreviousMonths[:]...),
		ContinuityThreshold: cfg.ContinuityThreshold,
		QuarterlyWeights:    append([]float64(nil), weights...),
	}
	for _, t := range cfg.CommissionTiers.Tiers() {
		s.CommissionThresholds = append(s.CommissionThresholds, CommissionThreshold{
			Threshold:  t.Lower,
			UpTo:       boundOf(t),
			Percentage: t.Value * constants.PercentageMultiplier,
		})
	}
	s.QuarterlyThresholds = fromBonusTiers(cfg.QuarterlyTiers)
	s.ContinuityThresholds = fromBonusTiers(cfg.ContinuityTiers)
	return s
}

func fromBonusTiers(s tier.Schedule) []BonusThreshold {
	tiers := s.Tiers()
	out := make([]BonusThreshold, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, BonusThreshold{Threshold: t.Lower, UpTo: boundOf(t), Bonus: t.Value})
	}
	return out
}

func boundOf(t tier.Tier) *float64 {
	if t.Unbounded() {
		return nil
	}
	v := t.Upper
	return &v
}

// ToTrajectory converts the record into an engine trajectory and validates
// the FTE.
func (p PerformanceProfile) ToTrajectory() (compensation.Trajectory, error) {
	var traj compensation.Trajectory
	if len(p.QuarterlyAchievements) != constants.QuartersPerYear {
		return traj, fmt.Errorf("%w: profile %q has %d quarterly achievements, expected %d",
			compensation.ErrInvalidInput, p.Name, len(p.QuarterlyAchievements), constants.QuartersPerYear)
	}
	if len(p.MonthlySales) != constants.MonthsPerYear {
		return traj, fmt.Errorf("%w: profile %q has %d monthly sales, expected %d",
			compensation.ErrInvalidInput, p.Name, len(p.MonthlySales), constants.MonthsPerYear)
	}
	if err := compensation.ValidateFTE(p.FTE); err != nil {
		return traj, fmt.Errorf("profile %q: %w", p.Name, err)
	}
	copy(traj.QuarterlyAchievements[:], p.QuarterlyAchievements)
	copy(traj.MonthlySales[:], p.MonthlySales)
	if err := traj.Validate(); err != nil {
		return compensation.Trajectory{}, fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return traj, nil
}

// Target returns the yearly revenue target of the profile.
func (p PerformanceProfile) Target() float64 {
	if p.YearlyTarget != nil {
		return *p.YearlyTarget
	}
	total := 0.0
	for _, s := range p.MonthlySales {
		total += s
	}
	return total
}

// DefaultStructureName and DefaultProfileName name the built-in records.
const (
	DefaultStructureName = "Default"
	DefaultProfileName   = "Default"
)

// DefaultStructure returns the built-in payout structure.
func DefaultStructure() PayoutStructure {
	return FromConfig(DefaultStructureName, compensation.DefaultConfig(), []float64{25, 25, 25, 25})
}

// DefaultProfile returns the built-in performance profile.
func DefaultProfile() PerformanceProfile {
	traj := compensation.DefaultTrajectory()
	return PerformanceProfile{
		Name:                  DefaultProfileName,
		FTE:                   1,
		QuarterlyAchievements: append([]float64(nil), traj.QuarterlyAchievements[:]...),
		MonthlySales:          append([]float64(nil), traj.MonthlySales[:]...),
	}
}

package scenario

import (
	"github.com/iwvelando/payout-elasticity/internal/config"
	"github.com/iwvelando/payout-elasticity/pkg/compensation"
	"github.com/iwvelando/payout-elasticity/pkg/elasticity"
	"github.com/iwvelando/payout-elasticity/pkg/philosophy"
	"github.com/iwvelando/payout-elasticity/pkg/risk"
)

// Snapshot is the full evaluation of one plan under one profile.
type Snapshot struct {
	Breakdown  compensation.Breakdown `json:"breakdown"`
	Curve      elasticity.Curve       `json:"curve"`
	Assessment risk.Assessment        `json:"risk"`
	Metrics    philosophy.Metrics     `json:"metrics"`
}

// Delta is modified minus baseline for the headline figures.
type Delta struct {
	TotalPayout       float64 `json:"totalPayout"`
	TargetPayout      float64 `json:"targetPayout"`
	MaxPayout         float64 `json:"maxPayout"`
	SizeOfPrizeScore  int     `json:"sizeOfPrizeScore"`
	DistributionScore int     `json:"distributionScore"`
	PsychologyScore   int     `json:"psychologyScore"`
}

// WhatIfResult compares a plan before and after a set of changes.
type WhatIfResult struct {
	Baseline Snapshot               `json:"baseline"`
	Modified Snapshot               `json:"modified"`
	Config   config.PayoutStructure `json:"config"`
	Delta    Delta                  `json:"delta"`
}

// Evaluate computes a snapshot of cfg under profile.
func Evaluate(cfg compensation.Config, profile config.PerformanceProfile, baseSalary float64) (Snapshot, error) {
	traj, err := profile.ToTrajectory()
	if err != nil {
		return Snapshot{}, err
	}
	breakdown, err := compensation.TotalPayout(cfg, traj, profile.FTE)
	if err != nil {
		return Snapshot{}, err
	}
	curve, err := elasticity.Simulate(cfg, traj, profile.FTE)
	if err != nil {
		return Snapshot{}, err
	}
	target := profile.Target()
	assessment, err := risk.Assess(cfg, profile.FTE, target)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Breakdown:  breakdown,
		Curve:      curve,
		Assessment: assessment,
		Metrics:    philosophy.Compute(curve, assessment, baseSalary, target, cfg.ContinuityThreshold),
	}, nil
}

// WhatIf evaluates structure before and after applying changes. The
// structure itself is left as it was; the modified plan is returned as a new
// record named after the input structure.
func WhatIf(structure config.PayoutStructure, profile config.PerformanceProfile, baseSalary float64, changes []philosophy.Change) (WhatIfResult, error) {
	baseCfg, err := structure.ToConfig()
	if err != nil {
		return WhatIfResult{}, err
	}
	modCfg, err := philosophy.Apply(baseCfg, changes)
	if err != nil {
		return WhatIfResult{}, err
	}

	baseline, err := Evaluate(baseCfg, profile, baseSalary)
	if err != nil {
		return WhatIfResult{}, err
	}
	modified, err := Evaluate(modCfg, profile, baseSalary)
	if err != nil {
		return WhatIfResult{}, err
	}

	return WhatIfResult{
		Baseline: baseline,
		Modified: modified,
		Config:   config.FromConfig(structure.Name, modCfg, structure.QuarterlyWeights),
		Delta: Delta{
			TotalPayout:       modified.Breakdown.TotalPayout - baseline.Breakdown.TotalPayout,
			TargetPayout:      modified.Metrics.SizeOfPrize.TargetPayout - baseline.Metrics.SizeOfPrize.TargetPayout,
			MaxPayout:         modified.Metrics.SizeOfPrize.MaxPotential - baseline.Metrics.SizeOfPrize.MaxPotential,
			SizeOfPrizeScore:  modified.Metrics.SizeOfPrize.Score - baseline.Metrics.SizeOfPrize.Score,
			DistributionScore: modified.Metrics.Distribution.Score - baseline.Metrics.Distribution.Score,
			PsychologyScore:   modified.Metrics.Psychology.Score - baseline.Metrics.Psychology.Score,
		},
	}, nil
}

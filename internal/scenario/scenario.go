// Package scenario compares payout structures across performance profiles
// and projects the effect of plan changes.
package scenario

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/iwvelando/payout-elasticity/internal/config"
	"github.com/iwvelando/payout-elasticity/pkg/compensation"
	"github.com/iwvelando/payout-elasticity/pkg/elasticity"
	"go.uber.org/zap"
)

// Result is the outcome of one structure applied to one profile.
type Result struct {
	Structure string                 `json:"structureName"`
	Profile   string                 `json:"performanceName"`
	Breakdown compensation.Breakdown `json:"results"`
	Curve     elasticity.Curve       `json:"elasticity"`
}

// ElasticityResult is the curve of one structure under a shared profile.
type ElasticityResult struct {
	Structure string           `json:"structureName"`
	Curve     elasticity.Curve `json:"elasticity"`
}

// Runner evaluates comparisons on a bounded set of goroutines.
type Runner struct {
	logger  *zap.Logger
	workers int
}

// NewRunner creates a runner. workers <= 0 means one per CPU.
func NewRunner(logger *zap.Logger, workers int) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{logger: logger, workers: workers}
}

type pair struct {
	structure config.PayoutStructure
	profile   config.PerformanceProfile
}

// Compare evaluates every structure against every profile. Results are
// ordered structure-major, matching the input order. The first failing pair
// aborts the comparison.
func (r *Runner) Compare(ctx context.Context, structures []config.PayoutStructure, profiles []config.PerformanceProfile) ([]Result, error) {
	if len(structures) == 0 || len(profiles) == 0 {
		return nil, fmt.Errorf("%w: at least one structure and one profile are required", compensation.ErrInvalidInput)
	}

	pairs := make([]pair, 0, len(structures)*len(profiles))
	for _, s := range structures {
		for _, p := range profiles {
			pairs = append(pairs, pair{structure: s, profile: p})
		}
	}

	results := make([]Result, len(pairs))
	err := r.run(ctx, len(pairs), func(i int) error {
		res, err := evaluate(pairs[i].structure, pairs[i].profile)
		if err != nil {
			return err
		}
		results[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("scenario comparison finished",
		zap.String("op", "scenario.Compare"),
		zap.Int("structures", len(structures)),
		zap.Int("profiles", len(profiles)),
	)
	return results, nil
}

// CompareElasticity simulates every structure under one profile.
func (r *Runner) CompareElasticity(ctx context.Context, structures []config.PayoutStructure, profile config.PerformanceProfile) ([]ElasticityResult, error) {
	traj, err := profile.ToTrajectory()
	if err != nil {
		return nil, err
	}

	results := make([]ElasticityResult, len(structures))
	err = r.run(ctx, len(structures), func(i int) error {
		cfg, err := structures[i].ToConfig()
		if err != nil {
			return err
		}
		curve, err := elasticity.Simulate(cfg, traj, profile.FTE)
		if err != nil {
			return fmt.Errorf("structure %q: %w", structures[i].Name, err)
		}
		results[i] = ElasticityResult{Structure: structures[i].Name, Curve: curve}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func evaluate(s config.PayoutStructure, p config.PerformanceProfile) (Result, error) {
	cfg, err := s.ToConfig()
	if err != nil {
		return Result{}, err
	}
	traj, err := p.ToTrajectory()
	if err != nil {
		return Result{}, err
	}
	breakdown, err := compensation.TotalPayout(cfg, traj, p.FTE)
	if err != nil {
		return Result{}, fmt.Errorf("structure %q, profile %q: %w", s.Name, p.Name, err)
	}
	curve, err := elasticity.Simulate(cfg, traj, p.FTE)
	if err != nil {
		return Result{}, fmt.Errorf("structure %q, profile %q: %w", s.Name, p.Name, err)
	}
	return Result{Structure: s.Name, Profile: p.Name, Breakdown: breakdown, Curve: curve}, nil
}

// run calls fn for 0..n-1 with at most r.workers calls in flight. It stops
// scheduling once ctx is done or a call fails and returns the first error.
func (r *Runner) run(ctx context.Context, n int, fn func(i int) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	sem := make(chan struct{}, r.workers)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := fn(idx); err != nil {
				fail(err)
			}
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// Package analysis assembles the full report for one payout structure and
// one performance profile, memoizing results in a cache.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/iwvelando/payout-elasticity/internal/cache"
	"github.com/iwvelando/payout-elasticity/internal/config"
	"github.com/iwvelando/payout-elasticity/pkg/compensation"
	"github.com/iwvelando/payout-elasticity/pkg/elasticity"
	"github.com/iwvelando/payout-elasticity/pkg/philosophy"
	"github.com/iwvelando/payout-elasticity/pkg/risk"
	"github.com/iwvelando/payout-elasticity/pkg/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Achievement window of the near-miss increment chart.
const (
	IncrementFrom = 90
	IncrementTo   = 105
)

const cacheNamespace = "analysis"

var tracer = otel.Tracer("payout-elasticity/analysis")

// Request is everything a report depends on.
type Request struct {
	Structure  config.PayoutStructure    `json:"structure"`
	Profile    config.PerformanceProfile `json:"profile"`
	BaseSalary float64                   `json:"baseSalary"`
	GoalFocus  string                    `json:"goalFocus"`
}

// Report is the complete analysis of a plan under a profile.
type Report struct {
	Structure    string  `json:"structure"`
	Profile      string  `json:"profile"`
	FTE          float64 `json:"fte"`
	YearlyTarget float64 `json:"yearlyTarget"`

	Breakdown compensation.Breakdown   `json:"breakdown"`
	Curve     elasticity.Curve         `json:"curve"`
	Ranges    []elasticity.RangeResult `json:"ranges"`
	Insight   elasticity.Insight       `json:"insight"`
	ROI       elasticity.ROISummary    `json:"roi"`

	Risk   risk.Assessment   `json:"risk"`
	Ladder []risk.LadderStep `json:"ladder"`

	Metrics                philosophy.Metrics          `json:"metrics"`
	ImprovementArea        philosophy.Area             `json:"improvementArea"`
	DistributionComparison string                      `json:"distributionComparison"`
	Increments             []philosophy.Increment      `json:"increments"`
	GoalFocus              philosophy.Goal             `json:"goalFocus"`
	Recommendations        []philosophy.Recommendation `json:"recommendations"`
	ProjectedRadar         [6]float64                  `json:"projectedRadar"`
}

// Build computes a report without caching.
func Build(req Request) (*Report, error) {
	goal, err := philosophy.ParseGoal(req.GoalFocus)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateBaseSalary(req.BaseSalary); err != nil {
		return nil, fmt.Errorf("%w: %v", compensation.ErrInvalidInput, err)
	}
	cfg, err := req.Structure.ToConfig()
	if err != nil {
		return nil, err
	}
	traj, err := req.Profile.ToTrajectory()
	if err != nil {
		return nil, err
	}
	fte := req.Profile.FTE
	target := req.Profile.Target()

	breakdown, err := compensation.TotalPayout(cfg, traj, fte)
	if err != nil {
		return nil, err
	}
	curve, err := elasticity.Simulate(cfg, traj, fte)
	if err != nil {
		return nil, err
	}
	assessment, err := risk.Assess(cfg, fte, target)
	if err != nil {
		return nil, err
	}
	ladder, err := risk.Ladder(risk.DefaultParams(), cfg, fte)
	if err != nil {
		return nil, err
	}

	metrics := philosophy.Compute(curve, assessment, req.BaseSalary, target, cfg.ContinuityThreshold)
	recs := philosophy.Recommend(metrics, cfg, goal)
	if recs == nil {
		recs = []philosophy.Recommendation{}
	}

	return &Report{
		Structure:              req.Structure.Name,
		Profile:                req.Profile.Name,
		FTE:                    fte,
		YearlyTarget:           target,
		Breakdown:              breakdown,
		Curve:                  curve,
		Ranges:                 elasticity.RangeElasticity(curve, target),
		Insight:                elasticity.Analyze(curve),
		ROI:                    elasticity.ROI(curve, target),
		Risk:                   assessment,
		Ladder:                 ladder,
		Metrics:                metrics,
		ImprovementArea:        philosophy.ImprovementArea(metrics),
		DistributionComparison: philosophy.DistributionComparison(metrics.Distribution),
		Increments:             philosophy.Increments(curve, IncrementFrom, IncrementTo),
		GoalFocus:              goal,
		Recommendations:        recs,
		ProjectedRadar:         philosophy.ProjectRadar(metrics.RadarData, goal),
	}, nil
}

// Service builds reports and memoizes them.
type Service struct {
	logger *zap.Logger
	cache  cache.Cache
	ttl    time.Duration
}

// NewService creates a service. A nil cache disables memoization.
func NewService(logger *zap.Logger, c cache.Cache, ttl time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{logger: logger, cache: c, ttl: ttl}
}

// Run returns the report for req, from cache when possible. Cache failures
// are logged and otherwise ignored.
func (s *Service) Run(ctx context.Context, req Request) (*Report, error) {
	ctx, span := tracer.Start(ctx, "analysis.Run", trace.WithAttributes(
		attribute.String("structure", req.Structure.Name),
		attribute.String("profile", req.Profile.Name),
	))
	defer span.End()

	key, err := cache.Key(cacheNamespace, req)
	if err != nil {
		return nil, err
	}

	if data, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("analysis cache read failed",
			zap.String("op", "analysis.Run"),
			zap.Error(err),
		)
	} else if data != nil {
		var report Report
		if err := json.Unmarshal(data, &report); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			s.logger.Debug("analysis served from cache",
				zap.String("op", "analysis.Run"),
				zap.String("structure", req.Structure.Name),
				zap.String("profile", req.Profile.Name),
			)
			return &report, nil
		}
		s.logger.Warn("discarding unreadable cached analysis",
			zap.String("op", "analysis.Run"),
			zap.String("key", key),
		)
	}

	start := time.Now()
	report, err := Build(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("analysis of structure %q with profile %q failed: %w",
			req.Structure.Name, req.Profile.Name, err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	if data, err := json.Marshal(report); err != nil {
		s.logger.Warn("failed to encode analysis for cache",
			zap.String("op", "analysis.Run"),
			zap.Error(err),
		)
	} else if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("analysis cache write failed",
			zap.String("op", "analysis.Run"),
			zap.Error(err),
		)
	}

	s.logger.Info("analysis computed",
		zap.String("op", "analysis.Run"),
		zap.String("structure", report.Structure),
		zap.String("profile", report.Profile),
		zap.Float64("totalPayout", report.Breakdown.TotalPayout),
		zap.String("riskRating", string(report.Risk.Rating)),
		zap.Duration("duration", time.Since(start)),
	)
	return report, nil
}

// FromConfiguration builds the request named by the configuration's
// analysis block.
func FromConfiguration(c *config.Configuration) (Request, error) {
	s, err := c.Structure(c.Analysis.Structure)
	if err != nil {
		return Request{}, err
	}
	p, err := c.Profile(c.Analysis.Profile)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Structure:  s,
		Profile:    p,
		BaseSalary: c.Analysis.BaseSalary,
		GoalFocus:  c.Analysis.GoalFocus,
	}, nil
}

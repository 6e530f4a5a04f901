package philosophy

import (
	"math"
	"testing"

	"github.com/iwvelando/payout-elasticity/pkg/compensation"
	"github.com/iwvelando/payout-elasticity/pkg/elasticity"
	"github.com/iwvelando/payout-elasticity/pkg/mathutil"
	"github.com/iwvelando/payout-elasticity/pkg/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yearlyTarget = 357000.0

func defaultMetrics(t *testing.T) (Metrics, elasticity.Curve) {
	t.Helper()
	cfg := compensation.DefaultConfig()
	curve, err := elasticity.Simulate(cfg, compensation.DefaultTrajectory(), 1)
	require.NoError(t, err)
	assessment, err := risk.Assess(cfg, 1, yearlyTarget)
	require.NoError(t, err)
	return Compute(curve, assessment, 50000, yearlyTarget, cfg.ContinuityThreshold), curve
}

func TestComputeDefaultPlan(t *testing.T) {
	m, _ := defaultMetrics(t)

	assert.Equal(t, 2.80, mathutil.Round(m.SizeOfPrize.TargetMultiple))
	assert.Equal(t, 3.05, mathutil.Round(m.SizeOfPrize.RelativeSizePercent))
	assert.Equal(t, 7, m.SizeOfPrize.Score)
	assert.Equal(t, "Substantial", m.SizeOfPrize.Label)
	assert.Equal(t, Typical, m.SizeOfPrize.MultipleTypicality)
	assert.Equal(t, Above, m.SizeOfPrize.RelativeSizeTypicality)

	assert.Equal(t, 27.16, mathutil.Round(m.Distribution.BelowTargetShare))
	assert.Equal(t, 8.62, mathutil.Round(m.Distribution.AtTargetShare))
	assert.Equal(t, 64.23, mathutil.Round(m.Distribution.AboveTargetShare))
	assert.Equal(t, 5, m.Distribution.Score)
	assert.Equal(t, "Somewhat Balanced", m.Distribution.Label)

	nm := m.Psychology.NearMiss
	assert.Equal(t, 18.63, mathutil.Round(nm.TargetJumpPercentage))
	assert.Equal(t, 1710.15, mathutil.Round(nm.TargetJump))
	assert.False(t, nm.IsTargetJumpPrimary)
	assert.Equal(t, 105, nm.PrimaryJump.From)
	assert.Equal(t, 115, nm.PrimaryJump.To)
	assert.Equal(t, 7, nm.Score)
	assert.Equal(t, "Strong", nm.Label)
	require.Len(t, nm.Jumps, 4)
	for i := 1; i < len(nm.Jumps); i++ {
		assert.GreaterOrEqual(t, nm.Jumps[i-1].Change, nm.Jumps[i].Change)
	}

	pd := m.Psychology.PsychDistance
	assert.Equal(t, 10.0, pd.AvgGap)
	assert.Equal(t, []int{10, 5, 10, 15}, pd.ThresholdGaps)
	assert.Equal(t, 7, pd.Score)
	assert.Equal(t, "Good", pd.Label)

	assert.Equal(t, 7, m.Psychology.Score)
	assert.Equal(t, "Effective", m.Psychology.Label)

	assert.Equal(t, 21.78, mathutil.Round(m.PayMix.Ratio))
	assert.Equal(t, Typical, m.PayMix.Typicality)
	assert.Equal(t, 50000+m.SizeOfPrize.TargetPayout, m.PayMix.TargetTotal)

	assert.Equal(t, risk.RatingLow, m.RiskRating)
	assert.Equal(t, 100.0, m.ContinuityThreshold)
}

func TestComputeRadar(t *testing.T) {
	m, _ := defaultMetrics(t)
	assert.Equal(t, 7.0, m.RadarData[0])
	assert.Equal(t, 5.43, mathutil.Round(m.RadarData[1]))
	assert.Equal(t, 2.87, mathutil.Round(m.RadarData[2]))
	assert.Equal(t, 10.0, m.RadarData[3], "above-target axis is capped")
	assert.Equal(t, 7.0, m.RadarData[4])
	assert.Equal(t, 7.0, m.RadarData[5])
}

func TestComputeZeroGuards(t *testing.T) {
	m := Compute(nil, risk.Assessment{}, 0, 0, 100)

	assert.Equal(t, 0.0, m.SizeOfPrize.TargetMultiple)
	assert.Equal(t, 0.0, m.SizeOfPrize.RelativeSizePercent)
	assert.Equal(t, 0.0, m.Distribution.BelowTargetShare)
	assert.Equal(t, 0.0, m.Psychology.NearMiss.TargetJumpPercentage)
	assert.Equal(t, 0.0, m.PayMix.Ratio)
	for _, j := range m.Psychology.NearMiss.Jumps {
		assert.Equal(t, 0.0, j.Percentage)
	}
	for _, v := range m.RadarData {
		assert.False(t, math.IsNaN(v))
	}

	assert.Equal(t, 2, m.SizeOfPrize.Score)
	assert.Equal(t, MinScore, m.Distribution.Score, "raw score 0 is clamped")
	assert.Equal(t, 3, m.Psychology.NearMiss.Score)
	assert.Equal(t, 5, m.Psychology.Score)
}

func TestComputeTargetJumpPrimary(t *testing.T) {
	// A curve that is flat except for a cliff at 100%.
	c := make(elasticity.Curve, 201)
	for i := range c {
		total := 1000.0
		if i >= 100 {
			total = 1200
		}
		c[i] = elasticity.Point{Achievement: i, TotalExcludingContinuity: total}
	}
	m := Compute(c, risk.Assessment{}, 0, 0, 100)

	// 95->100 and 99->100 tie; the stable sort keeps 95->100 first.
	assert.Equal(t, 95, m.Psychology.NearMiss.PrimaryJump.From)
	assert.False(t, m.Psychology.NearMiss.IsTargetJumpPrimary)
	assert.Equal(t, 20.0, m.Psychology.NearMiss.TargetJumpPercentage)
}

func TestScoreRubrics(t *testing.T) {
	t.Run("size of prize", func(t *testing.T) {
		tests := []struct {
			multiple, percent float64
			want              int
		}{
			{1.0, 2.0, 4},
			{1.5, 0.5, 3},
			{1.9, 6.0, 3},
			{2.0, 2.0, 8},
			{3.0, 1.2, 7},
			{3.5, 3.0, 7},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.want, sizeOfPrizeScore(tt.multiple, tt.percent), "multiple %v percent %v", tt.multiple, tt.percent)
		}
	})

	t.Run("distribution", func(t *testing.T) {
		tests := []struct {
			below, at, above float64
			want             int
		}{
			{10, 5, 20, 0},
			{20, 12, 35, 3},
			{30, 20, 50, 9},
			{45, 10, 45, 7},
			{55, 30, 65, 3},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.want, distributionScore(tt.below, tt.at, tt.above), "%v/%v/%v", tt.below, tt.at, tt.above)
		}
	})

	t.Run("near miss", func(t *testing.T) {
		assert.Equal(t, 7, nearMissScore(15, false))
		assert.Equal(t, 8, nearMissScore(20, true))
		assert.Equal(t, 6, nearMissScore(10, false))
		assert.Equal(t, 4, nearMissScore(7.5, false))
		assert.Equal(t, 3, nearMissScore(4.99, false))
	})

	t.Run("psychological distance", func(t *testing.T) {
		assert.Equal(t, 7, psychDistanceScore(10))
		assert.Equal(t, 7, psychDistanceScore(15))
		assert.Equal(t, 3, psychDistanceScore(4))
		assert.Equal(t, 4, psychDistanceScore(8))
		assert.Equal(t, 4, psychDistanceScore(20))
		assert.Equal(t, 3, psychDistanceScore(30))
	})
}

func TestLabels(t *testing.T) {
	tests := []struct {
		score                                        int
		prize, dist, psych, nearMiss, distance string
	}{
		{1, "Limited", "Imbalanced", "Weak", "Weak", "Poor"},
		{3, "Limited", "Imbalanced", "Weak", "Weak", "Poor"},
		{4, "Moderate", "Somewhat Balanced", "Moderate", "Moderate", "Moderate"},
		{6, "Substantial", "Well Balanced", "Effective", "Strong", "Good"},
		{7, "Substantial", "Well Balanced", "Effective", "Strong", "Good"},
		{8, "Exceptional", "Optimally Balanced", "Highly Effective", "Very Strong", "Optimal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.prize, SizeOfPrizeLabel(tt.score))
		assert.Equal(t, tt.dist, DistributionLabel(tt.score))
		assert.Equal(t, tt.psych, PsychologyLabel(tt.score))
		assert.Equal(t, tt.nearMiss, NearMissLabel(tt.score))
		assert.Equal(t, tt.distance, PsychDistanceLabel(tt.score))
	}

	assert.Contains(t, SizeOfPrizeDescription(2), "Limited")
	assert.Contains(t, DistributionDescription(9), "Optimally balanced")
	assert.Contains(t, PsychologyDescription(6), "Effective use")
}

func TestTypicality(t *testing.T) {
	r := TypicalRange{Lower: 10, Upper: 20}
	assert.Equal(t, Below, r.Classify(9.99))
	assert.Equal(t, Typical, r.Classify(10))
	assert.Equal(t, Typical, r.Classify(20))
	assert.Equal(t, Above, r.Classify(20.01))
	assert.Equal(t, "(within typical range)", Typical.Text())
	assert.Equal(t, "(below typical range)", Below.Text())
}

func TestImprovementAreaAndComparison(t *testing.T) {
	m, _ := defaultMetrics(t)
	assert.Equal(t, AreaDistribution, ImprovementArea(m))
	assert.Equal(t, "notable for weaker target incentive and more upside potential compared to typical models",
		DistributionComparison(m.Distribution))

	m.Distribution.Score = 7
	m.SizeOfPrize.Score = 7
	m.Psychology.Score = 7
	assert.Equal(t, AreaSizeOfPrize, ImprovementArea(m), "ties prefer size of prize")

	aligned := Distribution{BelowTypicality: Typical, AtTypicality: Typical, AboveTypicality: Typical}
	assert.Equal(t, "well aligned with industry benchmarks", DistributionComparison(aligned))
}

func TestIncrements(t *testing.T) {
	_, curve := defaultMetrics(t)
	inc := Increments(curve, 90, 105)
	require.Len(t, inc, 16)
	assert.Equal(t, 90, inc[0].Achievement)
	assert.Equal(t, 4888.80, mathutil.Round(inc[0].Payout))
	assert.Equal(t, 1710.15, mathutil.Round(inc[10].Payout))

	edge := Increments(curve, 0, 0)
	assert.Equal(t, 0.0, edge[0].Payout, "no point below 0%")
}

func TestParseGoal(t *testing.T) {
	for _, s := range []string{"overall", "target", "topPerformers", "balance"} {
		g, err := ParseGoal(s)
		require.NoError(t, err)
		assert.Equal(t, Goal(s), g)
	}
	g, err := ParseGoal("")
	require.NoError(t, err)
	assert.Equal(t, GoalOverall, g)

	_, err = ParseGoal("everything")
	assert.ErrorIs(t, err, compensation.ErrInvalidInput)
}

func weakMetrics() Metrics {
	var m Metrics
	m.SizeOfPrize.Score = 3
	m.SizeOfPrize.TargetMultiple = 1.2
	m.Distribution.AboveTargetShare = 25
	m.Distribution.BelowTargetShare = 55
	m.Psychology.NearMiss.Score = 3
	m.Psychology.PsychDistance.Score = 3
	m.Psychology.PsychDistance.AvgGap = 25
	return m
}

func titles(recs []Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Title)
	}
	return out
}

func TestRecommendDefaultPlanIsQuiet(t *testing.T) {
	m, _ := defaultMetrics(t)
	assert.Empty(t, Recommend(m, compensation.DefaultConfig(), GoalOverall))

	recs := Recommend(m, compensation.DefaultConfig().WithRollingAverage(false), GoalOverall)
	require.Len(t, recs, 1)
	assert.Equal(t, KindStructure, recs[0].Kind)
	assert.Equal(t, FieldRollingAverage, recs[0].Changes[0].Field)
}

func TestRecommendGoalFilter(t *testing.T) {
	m := weakMetrics()
	cfg := compensation.DefaultConfig().WithRollingAverage(false)

	tests := []struct {
		goal Goal
		want []string
	}{
		{GoalOverall, []string{
			"Increase upside potential",
			"Enhance above-target incentives",
			"Strengthen target achievement incentives",
			"Enhance target achievement incentive",
			"Optimize threshold spacing",
			"Implement 3-month rolling average",
		}},
		{GoalTarget, []string{
			"Strengthen target achievement incentives",
			"Enhance target achievement incentive",
			"Optimize threshold spacing",
		}},
		{GoalTopPerformers, []string{
			"Increase upside potential",
			"Enhance above-target incentives",
		}},
		{GoalBalance, []string{
			"Enhance above-target incentives",
			"Strengthen target achievement incentives",
			"Implement 3-month rolling average",
		}},
		{Goal("unknown"), []string{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.goal), func(t *testing.T) {
			assert.Equal(t, tt.want, titles(Recommend(m, cfg, tt.goal)))
		})
	}
}

func TestRecommendChangeValues(t *testing.T) {
	m := weakMetrics()
	recs := Recommend(m, compensation.DefaultConfig(), GoalOverall)
	require.NotEmpty(t, recs)

	upside := recs[0]
	require.Len(t, upside.Changes, 2)
	assert.Equal(t, FieldCommissionRate, upside.Changes[0].Field)
	assert.Equal(t, 2, upside.Changes[0].Tier)
	assert.InDelta(t, 6.0, upside.Changes[0].OldValue, 1e-9)
	assert.InDelta(t, 7.98, upside.Changes[0].NewValue, 1e-9)
	assert.Equal(t, 3500.0, upside.Changes[1].NewValue)

	var spacing Recommendation
	for _, r := range recs {
		if r.Title == "Optimize threshold spacing" {
			spacing = r
		}
	}
	require.Len(t, spacing.Changes, 3)
	assert.Equal(t, 103.0, spacing.Changes[0].NewValue)
	assert.Equal(t, 114.0, spacing.Changes[1].NewValue)
	assert.Equal(t, 2000.0, spacing.Changes[2].NewValue)
}

func TestRecommendBelowTargetSupport(t *testing.T) {
	var m Metrics
	m.SizeOfPrize.Score = 7
	m.Distribution.AboveTargetShare = 50
	m.Distribution.BelowTargetShare = 10
	m.Psychology.NearMiss.Score = 7
	m.Psychology.PsychDistance.Score = 3
	m.Psychology.PsychDistance.AvgGap = 4

	recs := Recommend(m, compensation.DefaultConfig(), GoalOverall)
	require.Len(t, recs, 2)
	assert.Equal(t, "Improve below-target support", recs[0].Title)
	assert.Equal(t, 75.0, recs[0].Changes[0].NewValue)
	assert.InDelta(t, 840.0, recs[0].Changes[1].NewValue, 1e-9)
	assert.Equal(t, ImpactLow, recs[1].Impact)
}

func TestApply(t *testing.T) {
	cfg := compensation.DefaultConfig()
	recs := Recommend(weakMetrics(), cfg, GoalTopPerformers)
	require.Len(t, recs, 2)

	updated, err := ApplyAll(cfg, recs)
	require.NoError(t, err)

	top, _ := updated.CommissionTiers.Tier(2)
	assert.InDelta(t, 0.0798, top.Value, 1e-12)
	q4, _ := updated.QuarterlyTiers.Tier(3)
	assert.InDelta(t, 2880.0, q4.Value, 1e-9)
	q5, _ := updated.QuarterlyTiers.Tier(4)
	assert.InDelta(t, 3640.0, q5.Value, 1e-9)

	// The input is untouched.
	orig, _ := cfg.QuarterlyTiers.Tier(4)
	assert.Equal(t, 2800.0, orig.Value)
	origRate, _ := cfg.CommissionTiers.Tier(2)
	assert.Equal(t, 0.06, origRate.Value)
}

func TestApplyRollingAverage(t *testing.T) {
	cfg := compensation.DefaultConfig().WithRollingAverage(false)
	updated, err := Apply(cfg, []Change{{Field: FieldRollingAverage, OldValue: 0, NewValue: 1}})
	require.NoError(t, err)
	assert.True(t, updated.UseRollingAverage)
	assert.False(t, cfg.UseRollingAverage)
}

func TestApplyRejects(t *testing.T) {
	cfg := compensation.DefaultConfig()

	tests := []struct {
		name   string
		change Change
	}{
		{"Bounded top tier", Change{Field: FieldQuarterlyUpTo, Tier: 4, NewValue: 150}},
		{"Overlapping tiers", Change{Field: FieldQuarterlyThreshold, Tier: 2, NewValue: 100}},
		{"Tier out of range", Change{Field: FieldQuarterlyBonus, Tier: 9, NewValue: 1}},
		{"Negative tier", Change{Field: FieldCommissionRate, Tier: -1, NewValue: 1}},
		{"NaN value", Change{Field: FieldQuarterlyBonus, Tier: 0, NewValue: math.NaN()}},
		{"Unknown field", Change{Field: Field("continuityBonus"), Tier: 0, NewValue: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(cfg, []Change{tt.change})
			assert.ErrorIs(t, err, compensation.ErrInvalidConfiguration)
		})
	}
}

func TestChangeDescribe(t *testing.T) {
	assert.Equal(t, "Commission Tier 3: 6% → 8.0%", Change{Field: FieldCommissionRate, Tier: 2, OldValue: 6, NewValue: 7.98}.Describe())
	assert.Equal(t, "Q-Bonus Threshold 1: 90% → 75%", Change{Field: FieldQuarterlyThreshold, Tier: 0, OldValue: 90, NewValue: 75}.Describe())
	assert.Equal(t, "3-Month Rolling Average: Disabled → Enabled", Change{Field: FieldRollingAverage, NewValue: 1}.Describe())
}

func TestProjectRadar(t *testing.T) {
	radar := [6]float64{7, 5, 2, 10, 7, 7}

	overall := ProjectRadar(radar, GoalOverall)
	assert.InDelta(t, 2.6, overall[2], 1e-9)
	assert.Equal(t, 7.0, overall[0])

	target := ProjectRadar(radar, GoalTarget)
	assert.InDelta(t, 2.6, target[2], 1e-9)
	assert.InDelta(t, 9.1, target[4], 1e-9)

	top := ProjectRadar(radar, GoalTopPerformers)
	assert.InDelta(t, 8.4, top[0], 1e-9)
	assert.Equal(t, 10.0, top[3], "capped at the maximum score")

	balance := ProjectRadar(radar, GoalBalance)
	assert.InDelta(t, 6.5, balance[1], 1e-9)
	assert.InDelta(t, 2.4, balance[2], 1e-9)

	assert.Equal(t, [6]float64{7, 5, 2, 10, 7, 7}, radar)
}

func TestKindExplanation(t *testing.T) {
	assert.Contains(t, KindStructure.Explanation(), "fundamental structure")
	assert.Contains(t, Kind("other").Explanation(), "optimize")
}

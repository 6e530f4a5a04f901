package elasticity

import (
	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/mathutil"
)

// ROIStep is the achievement spacing of the ROI sweep.
const ROIStep = 10

// ROIPoint compares revenue and payout at one achievement level.
type ROIPoint struct {
	Achievement int     `json:"achievement"`
	Revenue     float64 `json:"revenue"`
	Payout      float64 `json:"payout"`
	// ROI is revenue per euro of payout; 0 when nothing is paid.
	ROI float64 `json:"roi"`
}

// ROISummary is the return on compensation around target achievement.
type ROISummary struct {
	Points []ROIPoint `json:"points"`
	// TargetROI is revenue per euro of payout at 100%.
	TargetROI float64 `json:"targetRoi"`
	// MarginalRevenue and MarginalCompensation are per achievement point,
	// measured across the neighbours of the target sample.
	MarginalRevenue      float64 `json:"marginalRevenue"`
	MarginalCompensation float64 `json:"marginalCompensation"`
}

// ROI samples the curve every ROIStep percent and values each level against
// yearlyTarget.
func ROI(c Curve, yearlyTarget float64) ROISummary {
	var s ROISummary
	for a := constants.MinAchievement; a <= constants.MaxAchievement; a += ROIStep {
		p, err := c.At(a)
		if err != nil {
			continue
		}
		revenue := yearlyTarget * (float64(a) / constants.PercentageMultiplier)
		roi := 0.0
		if p.TotalExcludingContinuity > 0 {
			roi = revenue / p.TotalExcludingContinuity
		}
		s.Points = append(s.Points, ROIPoint{
			Achievement: a,
			Revenue:     revenue,
			Payout:      p.TotalExcludingContinuity,
			ROI:         roi,
		})
	}

	target := -1
	for i, p := range s.Points {
		if p.Achievement == constants.TargetAchievement {
			target = i
			s.TargetROI = p.ROI
			break
		}
	}
	if target > 0 && target < len(s.Points)-1 {
		prev, next := s.Points[target-1], s.Points[target+1]
		span := float64(next.Achievement - prev.Achievement)
		s.MarginalRevenue = mathutil.SafeDivide(next.Revenue-prev.Revenue, span)
		s.MarginalCompensation = mathutil.SafeDivide(next.Payout-prev.Payout, span)
	}
	return s
}

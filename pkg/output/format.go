// Package output provides utilities for formatting and displaying analysis results.
package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/iwvelando/payout-elasticity/internal/analysis"
	"github.com/iwvelando/payout-elasticity/internal/scenario"
	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders report in the named output format.
func Write(w io.Writer, outputFormat string, report *analysis.Report) error {
	switch outputFormat {
	case constants.OutputFormatJSON:
		return JSONFormat(w, report)
	case constants.OutputFormatPretty:
		return PrettyFormat(w, report)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// JSONFormat writes v as indented JSON.
func JSONFormat(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, r *analysis.Report) error {
	var buf bytes.Buffer
	p := message.NewPrinter(language.German)

	fmt.Fprintf(&buf, "--- Payout analysis for structure %s, profile %s ---\n", r.Structure, r.Profile)
	_, _ = p.Fprintf(&buf, "FTE %.2f | yearly target %s | yearly revenue %s\n\n",
		r.FTE, format.Currency(r.YearlyTarget), format.Currency(r.Breakdown.YearlyRevenue))

	fmt.Fprintf(&buf, "Quarter | Quarterly bonus | Continuity bonus | Commission\n")
	fmt.Fprintf(&buf, "_______ | _______________ | ________________ | __________\n")
	for q := 0; q < constants.QuartersPerYear; q++ {
		var commission float64
		for m := q * constants.MonthsPerQuarter; m < (q+1)*constants.MonthsPerQuarter; m++ {
			commission += r.Breakdown.Commissions[m]
		}
		fmt.Fprintf(&buf, "Q%d      | %s | %s | %s\n", q+1,
			format.Currency(r.Breakdown.QuarterlyBonuses[q]),
			format.Currency(r.Breakdown.ContinuityBonuses[q]),
			format.Currency(commission))
	}
	fmt.Fprintf(&buf, "Total   | %s | %s | %s\n",
		format.Currency(r.Breakdown.TotalQuarterlyBonus),
		format.Currency(r.Breakdown.TotalContinuityBonus),
		format.Currency(r.Breakdown.TotalCommission))
	fmt.Fprintf(&buf, "Total payout: %s (average achievement %s)\n\n",
		format.Currency(r.Breakdown.TotalPayout), format.Percent(r.Breakdown.AverageAchievement))

	fmt.Fprintf(&buf, "Range     | Elasticity | Revenue per point | ROI\n")
	fmt.Fprintf(&buf, "_____     | __________ | _________________ | ___\n")
	for _, rr := range r.Ranges {
		_, _ = p.Fprintf(&buf, "%-9s | %.2f | %s | %.2f\n", rr.Name, rr.Elasticity,
			format.Currency(rr.RevenuePerPoint), rr.ROI)
	}
	if r.Insight.Steepest != nil {
		fmt.Fprintf(&buf, "Steepest range: %s\n", r.Insight.Steepest.Name)
	}
	fmt.Fprintf(&buf, "Optimal achievement: %d%%\n", r.Insight.OptimalAchievement)
	_, _ = p.Fprintf(&buf, "ROI at target: %.2f | marginal revenue %s | marginal compensation %s\n\n",
		r.ROI.TargetROI, format.Currency(r.ROI.MarginalRevenue), format.Currency(r.ROI.MarginalCompensation))

	fmt.Fprintf(&buf, "Scenario | Achievement | Payout | Revenue | Comp ratio\n")
	fmt.Fprintf(&buf, "________ | ___________ | ______ | _______ | __________\n")
	for _, s := range []struct {
		name  string
		level float64
		pay   float64
		rev   float64
		ratio float64
	}{
		{"low", r.Risk.Low.Achievement, r.Risk.Low.Payout, r.Risk.Low.Revenue, r.Risk.Low.CompRatio},
		{"target", r.Risk.Target.Achievement, r.Risk.Target.Payout, r.Risk.Target.Revenue, r.Risk.Target.CompRatio},
		{"high", r.Risk.High.Achievement, r.Risk.High.Payout, r.Risk.High.Revenue, r.Risk.High.CompRatio},
	} {
		fmt.Fprintf(&buf, "%-8s | %s | %s | %s | %s\n", s.name, format.Percent(s.level),
			format.Currency(s.pay), format.Currency(s.rev), format.Percent(s.ratio))
	}
	fmt.Fprintf(&buf, "Risk: %s. %s\n", r.Risk.Rating, r.Risk.Recommendation)
	ladder := make([]string, len(r.Ladder))
	for i, step := range r.Ladder {
		ladder[i] = fmt.Sprintf("%s → %s", format.Percent(step.Achievement), format.Currency(step.Payout))
	}
	fmt.Fprintf(&buf, "Ladder: %s\n\n", strings.Join(ladder, ", "))

	m := r.Metrics
	fmt.Fprintf(&buf, "Size of prize: %d/10 (%s), target multiple %s\n",
		m.SizeOfPrize.Score, m.SizeOfPrize.Label, format.Ratio(m.SizeOfPrize.TargetMultiple))
	fmt.Fprintf(&buf, "Distribution:  %d/10 (%s), %s\n",
		m.Distribution.Score, m.Distribution.Label, r.DistributionComparison)
	fmt.Fprintf(&buf, "Psychology:    %d/10 (%s)\n", m.Psychology.Score, m.Psychology.Label)
	fmt.Fprintf(&buf, "Pay mix: %s variable of base %s\n",
		format.Percent(m.PayMix.Ratio), format.Currency(m.PayMix.BaseSalary))
	fmt.Fprintf(&buf, "Improvement area: %s. %s\n", r.ImprovementArea, r.ImprovementArea.Advice())

	if len(r.Recommendations) > 0 {
		fmt.Fprintf(&buf, "\nRecommendations (%s):\n", r.GoalFocus)
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&buf, "- [%s] %s: %s\n", rec.Impact, rec.Title, rec.Reasoning)
			for _, c := range rec.Changes {
				fmt.Fprintf(&buf, "    %s\n", c.Describe())
			}
		}
	}

	_, err := buf.WriteTo(w)
	return err
}

// PrettyComparison outputs one line per structure and profile pair.
func PrettyComparison(w io.Writer, results []scenario.Result) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Structure | Profile | Commission | Quarterly | Continuity | Total | At target\n")
	fmt.Fprintf(&buf, "_________ | _______ | __________ | _________ | __________ | _____ | _________\n")
	for _, res := range results {
		fmt.Fprintf(&buf, "%s | %s | %s | %s | %s | %s | %s\n", res.Structure, res.Profile,
			format.Currency(res.Breakdown.TotalCommission),
			format.Currency(res.Breakdown.TotalQuarterlyBonus),
			format.Currency(res.Breakdown.TotalContinuityBonus),
			format.Currency(res.Breakdown.TotalPayout),
			format.Currency(res.Curve.Total(constants.TargetAchievement)))
	}
	_, err := buf.WriteTo(w)
	return err
}

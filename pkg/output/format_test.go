package output

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/iwvelando/payout-elasticity/internal/analysis"
	"github.com/iwvelando/payout-elasticity/internal/config"
	"github.com/iwvelando/payout-elasticity/internal/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultReport(t *testing.T) *analysis.Report {
	t.Helper()
	report, err := analysis.Build(analysis.Request{
		Structure:  config.DefaultStructure(),
		Profile:    config.DefaultProfile(),
		BaseSalary: 50000,
	})
	require.NoError(t, err)
	return report
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrettyFormat(&buf, defaultReport(t)))
	out := buf.String()

	for _, want := range []string{
		"--- Payout analysis for structure Default, profile Default ---",
		"yearly target €357.000,00",
		"Quarter | Quarterly bonus | Continuity bonus | Commission",
		"Total payout: €14.060,00",
		"Steepest range: ≥130%",
		"Optimal achievement: 200%",
		"Risk: Low.",
		"Ladder: 80,0% → €1.493,33",
		"€19.050,00",
		"Size of prize: 7/10",
		"Distribution:  5/10",
		"Improvement area: distribution.",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Recommendations")
}

func TestPrettyFormatRecommendations(t *testing.T) {
	structure := config.DefaultStructure()
	structure.UseRollingAverage = false
	report, err := analysis.Build(analysis.Request{
		Structure: structure,
		Profile:   config.DefaultProfile(),
		GoalFocus: "balance",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PrettyFormat(&buf, report))
	assert.Contains(t, buf.String(), "Recommendations (balance):")
	assert.Contains(t, buf.String(), "3-Month Rolling Average: Disabled → Enabled")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONFormat(&buf, defaultReport(t)))

	var decoded struct {
		Structure string `json:"structure"`
		Breakdown struct {
			TotalPayout float64 `json:"totalPayout"`
		} `json:"breakdown"`
		Curve []json.RawMessage `json:"curve"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "Default", decoded.Structure)
	assert.InDelta(t, 14060.0, decoded.Breakdown.TotalPayout, 0.005)
	assert.Len(t, decoded.Curve, 201)
}

func TestWrite(t *testing.T) {
	report := defaultReport(t)

	var pretty, encoded bytes.Buffer
	require.NoError(t, Write(&pretty, "pretty", report))
	require.NoError(t, Write(&encoded, "json", report))
	assert.Contains(t, pretty.String(), "Total payout")
	assert.True(t, json.Valid(encoded.Bytes()))

	assert.Error(t, Write(&pretty, "csv", report))
	assert.Error(t, Write(failingWriter{}, "pretty", report))
	assert.Error(t, Write(failingWriter{}, "json", report))
}

func TestPrettyComparison(t *testing.T) {
	results, err := scenario.NewRunner(nil, 1).Compare(context.Background(),
		[]config.PayoutStructure{config.DefaultStructure()},
		[]config.PerformanceProfile{config.DefaultProfile()})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PrettyComparison(&buf, results))
	assert.Contains(t, buf.String(), "Default | Default |")
	assert.Contains(t, buf.String(), "€14.060,00")
	assert.Contains(t, buf.String(), "€10.888,40")
}

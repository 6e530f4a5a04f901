package server

import (
	"bytes"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/iwvelando/payout-elasticity/internal/cache"
	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const uploadYAML = `
analysis:
  baseSalary: 50000
profiles:
  - name: Steady
    fte: 1
    quarterlyAchievements: [95, 105, 110, 120]
    monthlySales: [20000, 22000, 25000, 28000, 30000, 32000, 35000, 28000, 30000, 32000, 35000, 40000]
  - name: Part-time
    fte: 0.6
    quarterlyAchievements: [100, 100, 100, 100]
    monthlySales: [10000, 10000, 10000, 10000, 10000, 10000, 10000, 10000, 10000, 10000, 10000, 10000]
`

func newTestHandler(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return NewHandler(opts)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func performUpload(t *testing.T, h http.Handler, contents string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	part, err := writer.CreateFormFile("file", "config.yaml")
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	h := newTestHandler(Options{Cache: cache.NewLRUCache(4)})

	rr := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	decodeBody(t, rr, &resp)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "ok", resp["cache"])
	assert.Len(t, rr.Header().Get(RequestIDHeader), 36, "a UUID is generated")
	assert.NotEmpty(t, rr.Header().Get(TraceIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	h := newTestHandler(Options{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
}

func TestVersion(t *testing.T) {
	var resp map[string]string

	decodeBody(t, do(t, newTestHandler(Options{}), http.MethodGet, "/api/version", ""), &resp)
	assert.Equal(t, "dev", resp["version"])

	decodeBody(t, do(t, newTestHandler(Options{Version: " v1.2.0 "}), http.MethodGet, "/api/version", ""), &resp)
	assert.Equal(t, "v1.2.0", resp["version"])
}

func TestPayout(t *testing.T) {
	h := newTestHandler(Options{})

	rr := do(t, h, http.MethodPost, "/api/payout", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp payoutResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "Default", resp.Structure)
	assert.Equal(t, "Default", resp.Profile)
	assert.InDelta(t, 14060.0, resp.Results.TotalPayout, 0.005)
	assert.Equal(t, 0.0, resp.Results.ContinuityBonuses[0])
}

func TestPayoutErrors(t *testing.T) {
	h := newTestHandler(Options{})

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"Malformed JSON", http.MethodPost, `{"profile":`, http.StatusBadRequest},
		{"FTE above one", http.MethodPost, `{"profile":{"name":"Over","fte":2,"quarterlyAchievements":[100,100,100,100],"monthlySales":[1,1,1,1,1,1,1,1,1,1,1,1]}}`, http.StatusUnprocessableEntity},
		{"Short sales year", http.MethodPost, `{"profile":{"name":"Short","fte":1,"quarterlyAchievements":[100,100,100,100],"monthlySales":[1,2,3]}}`, http.StatusUnprocessableEntity},
		{"Yearly sales overflow", http.MethodPost, `{"profile":{"name":"Huge","fte":1,"quarterlyAchievements":[100,100,100,100],"monthlySales":[1e308,1e308,1e308,1e308,1e308,1e308,1e308,1e308,1e308,1e308,1e308,1e308]}}`, http.StatusUnprocessableEntity},
		{"Too few commission tiers", http.MethodPost, `{"structure":{"name":"Thin","commissionThresholds":[{"threshold":0,"percentage":1}]}}`, http.StatusUnprocessableEntity},
		{"Wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, tt.method, "/api/payout", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			if tt.status != http.StatusMethodNotAllowed {
				var resp errorResponse
				decodeBody(t, rr, &resp)
				assert.NotEmpty(t, resp.Error)
			}
		})
	}
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	h := &handler{logger: zap.NewNop()}
	rr := httptest.NewRecorder()

	h.writeJSON(rr, http.StatusOK, map[string]float64{"total": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp errorResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "internal server error", resp.Error)
}

func TestRequestTooLarge(t *testing.T) {
	h := newTestHandler(Options{MaxUploadSize: 16})
	rr := do(t, h, http.MethodPost, "/api/payout", `{"structure":{"name":"`+strings.Repeat("x", 64)+`"}}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestElasticity(t *testing.T) {
	rr := do(t, newTestHandler(Options{}), http.MethodPost, "/api/elasticity", "{}")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp elasticityResponse
	decodeBody(t, rr, &resp)
	assert.Len(t, resp.Curve, 201)
	assert.InDelta(t, 10888.40, resp.Curve[100].TotalExcludingContinuity, 0.005)
	assert.Len(t, resp.Ranges, 8)
	require.NotNil(t, resp.Insight.Steepest)
	assert.Equal(t, "≥130%", resp.Insight.Steepest.Name)
	assert.InDelta(t, 32.79, resp.ROI.TargetROI, 0.005)
}

func TestRisk(t *testing.T) {
	rr := do(t, newTestHandler(Options{}), http.MethodPost, "/api/risk", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp riskResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "Low", string(resp.Assessment.Rating))
	assert.NotEmpty(t, resp.Assessment.Recommendation)
	require.Len(t, resp.Ladder, 6)
	assert.InDelta(t, 19050.0, resp.Ladder[5].Payout, 0.005)

	bad := do(t, newTestHandler(Options{}), http.MethodPost, "/api/risk", `{"profile":{"name":"Neg","fte":-1}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)
}

func TestAnalysis(t *testing.T) {
	lru := cache.NewLRUCache(8)
	h := newTestHandler(Options{Cache: lru, CacheTTL: time.Minute})

	body := `{"baseSalary": 50000, "goalFocus": "overall"}`
	first := do(t, h, http.MethodPost, "/api/analysis", body)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	size, _ := lru.Stats()
	assert.Equal(t, 1, size)

	second := do(t, h, http.MethodPost, "/api/analysis", body)
	require.Equal(t, http.StatusOK, second.Code)
	size, _ = lru.Stats()
	assert.Equal(t, 1, size, "the repeated request is served from cache")
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	var resp struct {
		Breakdown struct {
			TotalPayout float64 `json:"totalPayout"`
		} `json:"breakdown"`
		Metrics struct {
			PayMix struct {
				Ratio float64 `json:"ratio"`
			} `json:"payMix"`
		} `json:"metrics"`
		ImprovementArea string            `json:"improvementArea"`
		Recommendations []json.RawMessage `json:"recommendations"`
	}
	decodeBody(t, first, &resp)
	assert.InDelta(t, 14060.0, resp.Breakdown.TotalPayout, 0.005)
	assert.InDelta(t, 21.78, resp.Metrics.PayMix.Ratio, 0.005)
	assert.Equal(t, "distribution", resp.ImprovementArea)
	assert.NotNil(t, resp.Recommendations)

	rr := do(t, h, http.MethodPost, "/api/analysis", `{"goalFocus": "fame"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestAnalysisUpload(t *testing.T) {
	h := newTestHandler(Options{})

	t.Run("First profile", func(t *testing.T) {
		rr := performUpload(t, h, uploadYAML, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp struct {
			Report struct {
				Structure string `json:"structure"`
				Profile   string `json:"profile"`
				Breakdown struct {
					TotalPayout float64 `json:"totalPayout"`
				} `json:"breakdown"`
			} `json:"report"`
			Warnings []string `json:"warnings"`
			Duration string   `json:"duration"`
		}
		decodeBody(t, rr, &resp)
		assert.Equal(t, "Default", resp.Report.Structure)
		assert.Equal(t, "Steady", resp.Report.Profile)
		assert.InDelta(t, 14060.0, resp.Report.Breakdown.TotalPayout, 0.005)
		require.Len(t, resp.Warnings, 1)
		assert.Contains(t, resp.Warnings[0], "Part-time")
		assert.NotEmpty(t, resp.Duration)
	})

	t.Run("Profile override", func(t *testing.T) {
		rr := performUpload(t, h, uploadYAML, map[string]string{"profile": "Part-time"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp struct {
			Report struct {
				Profile   string `json:"profile"`
				Breakdown struct {
					TotalCommission float64 `json:"totalCommission"`
					TotalPayout     float64 `json:"totalPayout"`
				} `json:"breakdown"`
			} `json:"report"`
		}
		decodeBody(t, rr, &resp)
		assert.Equal(t, "Part-time", resp.Report.Profile)
		assert.Equal(t, 0.0, resp.Report.Breakdown.TotalCommission)
		// 4 x 1600 x 0.6 quarterly plus 3 x 400 x 0.6 continuity.
		assert.InDelta(t, 4560.0, resp.Report.Breakdown.TotalPayout, 1e-6)
	})

	t.Run("Unknown profile", func(t *testing.T) {
		rr := performUpload(t, h, uploadYAML, map[string]string{"profile": "ghost"})
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		rr := performUpload(t, h, "profiles: [", nil)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		var resp errorResponse
		decodeBody(t, rr, &resp)
		assert.Contains(t, resp.Error, "error reading config data")
	})
}

func TestAnalysisUploadMissingFile(t *testing.T) {
	h := newTestHandler(Options{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var resp errorResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "missing configuration file", resp.Error)
}

func TestAnalysisUploadTooLarge(t *testing.T) {
	h := newTestHandler(Options{MaxUploadSize: 64})

	rr := performUpload(t, h, strings.Repeat("a", 128), nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	var resp errorResponse
	decodeBody(t, rr, &resp)
	assert.Contains(t, resp.Error, "upload exceeds limit")
}

func TestCompare(t *testing.T) {
	h := newTestHandler(Options{Workers: 2})

	body := `{"structures": [
		{"name": "Base"},
		{"name": "Lean"}
	]}`
	rr := do(t, h, http.MethodPost, "/api/compare", body)
	// Structures without tiers are rejected as a whole.
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	full, err := json.Marshal(map[string]any{
		"structures": []any{defaultStructureJSON(t, "Base"), defaultStructureJSON(t, "Copy")},
	})
	require.NoError(t, err)
	rr = do(t, h, http.MethodPost, "/api/compare", string(full))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var results []struct {
		Structure string `json:"structureName"`
		Profile   string `json:"performanceName"`
		Results   struct {
			TotalPayout float64 `json:"totalPayout"`
		} `json:"results"`
		Elasticity []json.RawMessage `json:"elasticity"`
	}
	decodeBody(t, rr, &results)
	require.Len(t, results, 2)
	assert.Equal(t, "Base", results[0].Structure)
	assert.Equal(t, "Copy", results[1].Structure)
	assert.Equal(t, "Default", results[0].Profile)
	assert.InDelta(t, 14060.0, results[1].Results.TotalPayout, 0.005)
	assert.Len(t, results[0].Elasticity, 201)

	rr = do(t, h, http.MethodPost, "/api/compare", `{"structures": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

// defaultStructureJSON round-trips the built-in structure through the payout
// endpoint's own encoding under a new name.
func defaultStructureJSON(t *testing.T, name string) map[string]any {
	t.Helper()
	rr := do(t, newTestHandler(Options{}), http.MethodPost, "/api/recommendations/apply",
		`{"changes":[{"field":"rollingAverage","newValue":1}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Config map[string]any `json:"config"`
	}
	decodeBody(t, rr, &resp)
	resp.Config["name"] = name
	return resp.Config
}

func TestApply(t *testing.T) {
	h := newTestHandler(Options{})

	rr := do(t, h, http.MethodPost, "/api/recommendations/apply",
		`{"baseSalary": 50000, "changes": [{"field": "quarterlyBonus", "tier": 1, "oldValue": 1600, "newValue": 2000}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Config struct {
			Name                string `json:"name"`
			QuarterlyThresholds []struct {
				Bonus float64 `json:"bonus"`
			} `json:"quarterlyThresholds"`
		} `json:"config"`
		Delta struct {
			TotalPayout  float64 `json:"totalPayout"`
			TargetPayout float64 `json:"targetPayout"`
		} `json:"delta"`
	}
	decodeBody(t, rr, &resp)
	assert.Equal(t, "Default", resp.Config.Name)
	require.Len(t, resp.Config.QuarterlyThresholds, constants.QuarterlyTierCount)
	assert.Equal(t, 2000.0, resp.Config.QuarterlyThresholds[1].Bonus)
	assert.InDelta(t, 1600.0, resp.Delta.TargetPayout, 1e-6)
	assert.Equal(t, 0.0, resp.Delta.TotalPayout)

	fromRecs := do(t, h, http.MethodPost, "/api/recommendations/apply",
		`{"recommendations": [{"title": "t", "changes": [{"field": "quarterlyBonus", "tier": 1, "newValue": 2000}]}]}`)
	require.Equal(t, http.StatusOK, fromRecs.Code, fromRecs.Body.String())

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"No changes", `{}`, http.StatusBadRequest},
		{"Negative salary", `{"baseSalary": -1, "changes": [{"field": "rollingAverage", "newValue": 1}]}`, http.StatusUnprocessableEntity},
		{"Tier out of range", `{"changes": [{"field": "quarterlyBonus", "tier": 9, "newValue": 1}]}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, do(t, h, http.MethodPost, "/api/recommendations/apply", tt.body).Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(Options{})
	req := httptest.NewRequest(http.MethodOptions, "/api/analysis", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverer(t *testing.T) {
	h := &handler{logger: zap.NewNop()}
	panicky := h.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	panicky.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp errorResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "internal server error", resp.Error)
}

package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/iwvelando/payout-elasticity/internal/analysis"
	"github.com/iwvelando/payout-elasticity/internal/cache"
	"github.com/iwvelando/payout-elasticity/internal/config"
	"github.com/iwvelando/payout-elasticity/internal/scenario"
	"github.com/iwvelando/payout-elasticity/pkg/compensation"
	"github.com/iwvelando/payout-elasticity/pkg/constants"
	"github.com/iwvelando/payout-elasticity/pkg/elasticity"
	"github.com/iwvelando/payout-elasticity/pkg/philosophy"
	"github.com/iwvelando/payout-elasticity/pkg/risk"
	"github.com/iwvelando/payout-elasticity/pkg/tier"
	"github.com/iwvelando/payout-elasticity/pkg/validation"
	"go.uber.org/zap"
)

// Options configures the API handler.
type Options struct {
	Logger        *zap.Logger
	MaxUploadSize int64
	Version       string

	// Cache memoizes analyses; nil disables memoization.
	Cache    cache.Cache
	CacheTTL time.Duration

	// Workers bounds concurrent evaluations in comparisons; 0 means one per CPU.
	Workers int

	// AllowedOrigins lists browser origins allowed by CORS; empty allows any.
	AllowedOrigins []string
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	cache         cache.Cache
	analysis      *analysis.Service
	runner        *scenario.Runner
}

// NewHandler constructs the HTTP handler that serves the payout API.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	c := opts.Cache
	if c == nil {
		c = cache.Nop{}
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		cache:         c,
		analysis:      analysis.NewService(logger, c, opts.CacheTTL),
		runner:        scenario.NewRunner(logger, opts.Workers),
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(h.recoverer)
	r.Use(tracing)
	r.Use(h.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, TraceIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Post("/payout", h.handlePayout)
		r.Post("/elasticity", h.handleElasticity)
		r.Post("/risk", h.handleRisk)
		r.Post("/analysis", h.handleAnalysis)
		r.Post("/analysis/upload", h.handleAnalysisUpload)
		r.Post("/compare", h.handleCompare)
		r.Post("/recommendations/apply", h.handleApply)
	})

	return r
}

// planRequest names a structure and a profile; either may be omitted to use
// the built-in default.
type planRequest struct {
	Structure *config.PayoutStructure    `json:"structure,omitempty"`
	Profile   *config.PerformanceProfile `json:"profile,omitempty"`
}

func (p planRequest) resolve() (config.PayoutStructure, config.PerformanceProfile) {
	return resolve(p.Structure, p.Profile)
}

func resolve(s *config.PayoutStructure, p *config.PerformanceProfile) (config.PayoutStructure, config.PerformanceProfile) {
	structure := config.DefaultStructure()
	if s != nil {
		structure = *s
	}
	profile := config.DefaultProfile()
	if p != nil {
		profile = *p
	}
	return structure, profile
}

type analysisRequest struct {
	Structure  *config.PayoutStructure    `json:"structure,omitempty"`
	Profile    *config.PerformanceProfile `json:"profile,omitempty"`
	BaseSalary float64                    `json:"baseSalary"`
	GoalFocus  string                     `json:"goalFocus,omitempty"`
}

type compareRequest struct {
	Structures []config.PayoutStructure    `json:"structures"`
	Profiles   []config.PerformanceProfile `json:"profiles,omitempty"`
}

type applyRequest struct {
	Structure       *config.PayoutStructure     `json:"structure,omitempty"`
	Profile         *config.PerformanceProfile  `json:"profile,omitempty"`
	BaseSalary      float64                     `json:"baseSalary"`
	Changes         []philosophy.Change         `json:"changes,omitempty"`
	Recommendations []philosophy.Recommendation `json:"recommendations,omitempty"`
}

type payoutResponse struct {
	Structure string                 `json:"structureName"`
	Profile   string                 `json:"performanceName"`
	Results   compensation.Breakdown `json:"results"`
}

type elasticityResponse struct {
	Structure string                   `json:"structureName"`
	Profile   string                   `json:"performanceName"`
	Curve     elasticity.Curve         `json:"elasticity"`
	Ranges    []elasticity.RangeResult `json:"ranges"`
	Insight   elasticity.Insight       `json:"insight"`
	ROI       elasticity.ROISummary    `json:"roi"`
}

type riskResponse struct {
	Structure  string            `json:"structureName"`
	Profile    string            `json:"performanceName"`
	Assessment risk.Assessment   `json:"assessment"`
	Ladder     []risk.LadderStep `json:"ladder"`
}

type uploadResponse struct {
	Report   *analysis.Report `json:"report"`
	Warnings []string         `json:"warnings,omitempty"`
	Duration string           `json:"duration"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "cache": "ok"}
	if err := h.cache.Ping(r.Context()); err != nil {
		h.logger.Warn("cache health check failed",
			zap.String("op", "server.handleHealth"),
			zap.Error(err),
		)
		status["cache"] = err.Error()
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handlePayout(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePayout"
	var req planRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	s, p := req.resolve()

	cfg, traj, err := plan(s, p)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	breakdown, err := compensation.TotalPayout(cfg, traj, p.FTE)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, payoutResponse{Structure: s.Name, Profile: p.Name, Results: breakdown})
}

func (h *handler) handleElasticity(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleElasticity"
	var req planRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	s, p := req.resolve()

	cfg, traj, err := plan(s, p)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	curve, err := elasticity.Simulate(cfg, traj, p.FTE)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	target := p.Target()
	h.writeJSON(w, http.StatusOK, elasticityResponse{
		Structure: s.Name,
		Profile:   p.Name,
		Curve:     curve,
		Ranges:    elasticity.RangeElasticity(curve, target),
		Insight:   elasticity.Analyze(curve),
		ROI:       elasticity.ROI(curve, target),
	})
}

func (h *handler) handleRisk(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRisk"
	var req planRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	s, p := req.resolve()

	cfg, err := s.ToConfig()
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	if err := compensation.ValidateFTE(p.FTE); err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	assessment, err := risk.Assess(cfg, p.FTE, p.Target())
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	ladder, err := risk.Ladder(risk.DefaultParams(), cfg, p.FTE)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, riskResponse{Structure: s.Name, Profile: p.Name, Assessment: assessment, Ladder: ladder})
}

func (h *handler) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAnalysis"
	var req analysisRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	s, p := resolve(req.Structure, req.Profile)

	report, err := h.analysis.Run(r.Context(), analysis.Request{
		Structure:  s,
		Profile:    p,
		BaseSalary: req.BaseSalary,
		GoalFocus:  req.GoalFocus,
	})
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *handler) handleAnalysisUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAnalysisUpload"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	cfg, err := config.LoadConfigurationFromReader(file)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if name := r.FormValue("structure"); name != "" {
		cfg.Analysis.Structure = name
	}
	if name := r.FormValue("profile"); name != "" {
		cfg.Analysis.Profile = name
	}
	warnings := cfg.ValidateConfiguration()

	req, err := analysis.FromConfiguration(cfg)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	report, err := h.analysis.Run(r.Context(), req)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, uploadResponse{
		Report:   report,
		Warnings: warnings,
		Duration: time.Since(start).String(),
	})
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	var req compareRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if len(req.Profiles) == 0 {
		req.Profiles = []config.PerformanceProfile{config.DefaultProfile()}
	}

	results, err := h.runner.Compare(r.Context(), req.Structures, req.Profiles)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, results)
}

func (h *handler) handleApply(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleApply"
	var req applyRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	s, p := resolve(req.Structure, req.Profile)

	changes := append([]philosophy.Change(nil), req.Changes...)
	for _, rec := range req.Recommendations {
		changes = append(changes, rec.Changes...)
	}
	if len(changes) == 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "no changes to apply", op)
		return
	}
	if err := validation.ValidateBaseSalary(req.BaseSalary); err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}

	result, err := scenario.WhatIf(s, p, req.BaseSalary, changes)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	h.logger.Info("recommendations applied",
		zap.String("op", op),
		zap.String("structure", s.Name),
		zap.Int("changes", len(changes)),
		zap.Float64("totalPayoutDelta", result.Delta.TotalPayout),
	)
	h.writeJSON(w, http.StatusOK, result)
}

func plan(s config.PayoutStructure, p config.PerformanceProfile) (compensation.Config, compensation.Trajectory, error) {
	cfg, err := s.ToConfig()
	if err != nil {
		return compensation.Config{}, compensation.Trajectory{}, err
	}
	traj, err := p.ToTrajectory()
	if err != nil {
		return compensation.Config{}, compensation.Trajectory{}, err
	}
	return cfg, traj, nil
}

// decode reads a JSON body into v. An empty body leaves v untouched. It
// writes the error response itself and reports whether to continue.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any, op string) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if err := json.Unmarshal(body, v); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// statusFor maps engine and configuration errors onto 422 and anything else
// onto 500.
func statusFor(err error) int {
	for _, target := range []error{
		compensation.ErrInvalidInput,
		compensation.ErrInvalidConfiguration,
		tier.ErrInvalidSchedule,
		elasticity.ErrOutOfRange,
		config.ErrUnknownStructure,
		config.ErrUnknownProfile,
	} {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("payout request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

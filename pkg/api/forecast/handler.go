// Package forecast exposes the cash-flow forecast engine over HTTP.
package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"construction_forecast/pkg/core/config"
	coreforecast "construction_forecast/pkg/core/forecast"
	"construction_forecast/pkg/core/metrics"
	"construction_forecast/pkg/core/pipeline"
	"construction_forecast/pkg/core/store"
)

// Handler serves the forecast endpoints. The orchestrator builds a
// fresh engine per run; the handler only carries immutable policy and
// the shared store/cache clients.
type Handler struct {
	policy config.Policy
	orch   *pipeline.Orchestrator
	repo   *store.ForecastRepo // nil disables persistence
	cache  *store.ResultCache  // nil disables caching
	log    *zap.Logger
}

// NewHandler wires the forecast endpoints.
func NewHandler(policy config.Policy, repo *store.ForecastRepo, cache *store.ResultCache, log *zap.Logger) *Handler {
	var sink coreforecast.ForecastSink
	if repo != nil {
		sink = repo
	}
	return &Handler{
		policy: policy,
		orch:   pipeline.New(policy, sink, log),
		repo:   repo,
		cache:  cache,
		log:    log,
	}
}

// GenerateResponse is the payload of POST /api/forecast/generate.
type GenerateResponse struct {
	Forecasts []coreforecast.MonthlyRecord `json:"forecasts"`
	Metrics   metrics.Metrics              `json:"metrics"`

	// Persistence outcome. A failed save does not fail the request: the
	// forecast is valid and the caller may retry the save alone.
	Persisted    bool   `json:"persisted"`
	PersistError string `json:"persist_error,omitempty"`
}

// CompareResponse is the payload of POST /api/forecast/compare.
type CompareResponse struct {
	Scenarios []metrics.CurveScenario `json:"scenarios"`
}

// LoadResponse is the payload of GET /api/forecast/load.
type LoadResponse struct {
	Assumptions coreforecast.Assumptions     `json:"assumptions"`
	Forecasts   []coreforecast.MonthlyRecord `json:"forecasts"`
}

func cors(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

// HandleGenerate computes a forecast, optionally persists it, and caches
// the response.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}

	var asm coreforecast.Assumptions
	if err := json.NewDecoder(r.Body).Decode(&asm); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var cacheKey string
	if h.cache != nil {
		cacheKey = h.cache.Key(asm)
		if payload, ok := h.cache.Get(r.Context(), cacheKey); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(payload))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.orch.Run(ctx, asm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := GenerateResponse{
		Forecasts: res.Forecasts,
		Metrics:   res.Metrics,
		Persisted: res.Persisted,
	}
	if res.PersistErr != nil {
		resp.PersistError = res.PersistErr.Error()
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if h.cache != nil && res.PersistErr == nil {
		if err := h.cache.Set(r.Context(), cacheKey, string(payload)); err != nil {
			h.log.Warn("forecast cache write failed", zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// HandleCompare reruns the assumptions under every curve family.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}

	var asm coreforecast.Assumptions
	if err := json.NewDecoder(r.Body).Decode(&asm); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if asm.CurveSteepness == 0 {
		asm.CurveSteepness = h.policy.CurveSteepness
	}

	scenarios, err := metrics.CompareCurves(asm, h.policy.CostSplit, metrics.Options{
		AnnualDiscountRate: h.policy.AnnualDiscountRate,
		InitialInvestment:  asm.InitialInvestment,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CompareResponse{Scenarios: scenarios})
}

// HandleLoad returns the last persisted run for a project.
func (h *Handler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}

	if h.repo == nil {
		http.Error(w, "persistence not configured", http.StatusServiceUnavailable)
		return
	}
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		http.Error(w, "project_id is required", http.StatusBadRequest)
		return
	}

	asm, series, err := h.repo.LoadLatest(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, store.ErrNoRun) {
			http.Error(w, "no forecast for project "+projectID, http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoadResponse{Assumptions: asm, Forecasts: series})
}

// Package pipeline runs the end-to-end forecast flow for one request:
// generate the monthly series, derive the summary metrics, then
// optionally persist. Computation and persistence are strictly
// two-phase; a failed save is reported alongside an intact result.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"construction_forecast/pkg/core/config"
	"construction_forecast/pkg/core/forecast"
	"construction_forecast/pkg/core/metrics"
)

// Result is the outcome of one orchestrated run.
type Result struct {
	Forecasts []forecast.MonthlyRecord
	Metrics   metrics.Metrics

	Persisted  bool
	PersistErr error // non-nil when the save failed; the result stands
}

// Orchestrator wires policy, engine and sink together. It is stateless
// across runs: each Run constructs a fresh engine.
type Orchestrator struct {
	policy config.Policy
	sink   forecast.ForecastSink
	log    *zap.Logger
}

// New creates an orchestrator. A nil sink disables persistence.
func New(policy config.Policy, sink forecast.ForecastSink, log *zap.Logger) *Orchestrator {
	return &Orchestrator{policy: policy, sink: sink, log: log}
}

// Run executes the full flow. A computation error aborts the run with
// no partial series; a persistence error is carried in the result so
// the caller can retry the save without recomputing.
func (o *Orchestrator) Run(ctx context.Context, asm forecast.Assumptions) (*Result, error) {
	if asm.CurveSteepness == 0 {
		asm.CurveSteepness = o.policy.CurveSteepness
	}

	engine := forecast.NewEngine(o.policy.CostSplit, o.sink)
	series, err := engine.Generate(asm)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Forecasts: series,
		Metrics: metrics.Analyze(series, metrics.Options{
			AnnualDiscountRate: o.policy.AnnualDiscountRate,
			InitialInvestment:  asm.InitialInvestment,
		}),
	}

	if asm.ProjectID != "" && o.sink != nil {
		if err := engine.SaveForecast(ctx, asm.ProjectID, asm, series); err != nil {
			o.log.Warn("forecast save failed",
				zap.String("project_id", asm.ProjectID), zap.Error(err))
			res.PersistErr = err
		} else {
			res.Persisted = true
		}
	}

	return res, nil
}

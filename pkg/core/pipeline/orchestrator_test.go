package pipeline_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"construction_forecast/pkg/core/config"
	"construction_forecast/pkg/core/curve"
	"construction_forecast/pkg/core/forecast"
	"construction_forecast/pkg/core/pipeline"
)

type memorySink struct {
	projectID string
	rows      int
	err       error
}

func (s *memorySink) SaveRun(ctx context.Context, projectID string, asm forecast.Assumptions, series []forecast.MonthlyRecord) error {
	if s.err != nil {
		return s.err
	}
	s.projectID = projectID
	s.rows = len(series)
	return nil
}

func testAssumptions() forecast.Assumptions {
	return forecast.Assumptions{
		ProjectID:       "P-100",
		ContractPrice:   1200,
		PeriodMonths:    12,
		StartDate:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ProfitMargin:    0.2,
		PeriodInvoicing: 1,
		CurveType:       curve.Linear,
	}
}

func TestRun_ComputesAndPersists(t *testing.T) {
	sink := &memorySink{}
	orch := pipeline.New(config.Default(), sink, zap.NewNop())

	res, err := orch.Run(context.Background(), testAssumptions())
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Forecasts) != 12 {
		t.Errorf("got %d months, want 12", len(res.Forecasts))
	}
	if math.Abs(res.Metrics.GrossMargin-20) > 1e-6 {
		t.Errorf("gross margin %v, want 20", res.Metrics.GrossMargin)
	}
	if !res.Persisted || res.PersistErr != nil {
		t.Errorf("persist outcome %v/%v, want success", res.Persisted, res.PersistErr)
	}
	if sink.projectID != "P-100" || sink.rows != 12 {
		t.Errorf("sink saw %q with %d rows", sink.projectID, sink.rows)
	}
}

func TestRun_SaveFailureKeepsResult(t *testing.T) {
	sinkErr := errors.New("db down")
	orch := pipeline.New(config.Default(), &memorySink{err: sinkErr}, zap.NewNop())

	res, err := orch.Run(context.Background(), testAssumptions())
	if err != nil {
		t.Fatalf("computation should succeed: %v", err)
	}
	if !errors.Is(res.PersistErr, sinkErr) {
		t.Errorf("persist error %v, want %v", res.PersistErr, sinkErr)
	}
	if res.Persisted {
		t.Error("marked persisted despite sink failure")
	}
	if len(res.Forecasts) != 12 {
		t.Errorf("failed save corrupted the series: %d rows", len(res.Forecasts))
	}
}

func TestRun_NoProjectSkipsPersistence(t *testing.T) {
	sink := &memorySink{}
	orch := pipeline.New(config.Default(), sink, zap.NewNop())

	asm := testAssumptions()
	asm.ProjectID = ""

	res, err := orch.Run(context.Background(), asm)
	if err != nil {
		t.Fatal(err)
	}
	if res.Persisted || sink.rows != 0 {
		t.Error("persisted a run without a project ID")
	}
}

func TestRun_InvalidAssumptionsAbort(t *testing.T) {
	orch := pipeline.New(config.Default(), nil, zap.NewNop())

	asm := testAssumptions()
	asm.PeriodMonths = 0

	if _, err := orch.Run(context.Background(), asm); err == nil {
		t.Error("expected error for invalid assumptions")
	}
}

func TestRun_DefaultsSteepnessFromPolicy(t *testing.T) {
	orch := pipeline.New(config.Default(), nil, zap.NewNop())

	asm := testAssumptions()
	asm.ProjectID = ""
	asm.CurveType = curve.SCurve
	asm.CurveSteepness = 0

	res, err := orch.Run(context.Background(), asm)
	if err != nil {
		t.Fatal(err)
	}

	// Default steepness 10 gives the same series as asking for it.
	asm.CurveSteepness = 10.0
	explicit, err := orch.Run(context.Background(), asm)
	if err != nil {
		t.Fatal(err)
	}
	for i := range res.Forecasts {
		if res.Forecasts[i].Revenue != explicit.Forecasts[i].Revenue {
			t.Fatalf("month %d: defaulted steepness diverges from explicit", i+1)
		}
	}
}

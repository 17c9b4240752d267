package forecast

import (
	"context"
	"fmt"

	"construction_forecast/pkg/core/curve"
)

// ForecastSink receives a fully computed series for storage. The engine
// never calls it mid-computation: persistence is a separate phase after
// the series exists, so a failed save leaves the forecast intact.
type ForecastSink interface {
	SaveRun(ctx context.Context, projectID string, asm Assumptions, series []MonthlyRecord) error
}

// Engine orchestrates one forecast run. Construct a fresh engine per
// request; it holds no accumulators of its own, so concurrent runs for
// different projects cannot see each other's state.
type Engine struct {
	split CostSplit
	sink  ForecastSink
}

// NewEngine builds an engine with the given disbursement split. A nil
// sink disables persistence.
func NewEngine(split CostSplit, sink ForecastSink) *Engine {
	return &Engine{split: split, sink: sink}
}

// Generate produces the complete monthly series for the assumptions.
// The series covers the construction period plus a tail long enough for
// every lagged collection, payment and the retention lump sum to land
// inside it. Deterministic: identical assumptions yield an identical
// series.
func (e *Engine) Generate(asm Assumptions) ([]MonthlyRecord, error) {
	calc, err := NewCalculator(asm, e.split)
	if err != nil {
		return nil, err
	}

	increments, err := curve.Generate(asm.PeriodMonths, asm.CurveType, asm.CurveSteepness)
	if err != nil {
		return nil, err
	}

	total := asm.PeriodMonths + tailMonths(asm)
	series := make([]MonthlyRecord, 0, total)

	var state CumulativeState
	for m := 1; m <= total; m++ {
		increment := 0.0
		if m <= asm.PeriodMonths {
			increment = increments[m-1]
		}
		rec, next := calc.MonthStep(m, increment, state)
		series = append(series, rec)
		state = next
	}
	return series, nil
}

// SaveForecast hands an already-computed series to the configured sink.
// The caller decides whether to retry; the engine imposes no policy.
func (e *Engine) SaveForecast(ctx context.Context, projectID string, asm Assumptions, series []MonthlyRecord) error {
	if e.sink == nil {
		return fmt.Errorf("forecast: no sink configured")
	}
	return e.sink.SaveRun(ctx, projectID, asm, series)
}

// tailMonths is how far past the construction period cash events can
// still occur.
func tailMonths(asm Assumptions) int {
	tail := asm.RetentionPeriod
	if asm.PeriodReceivable > tail {
		tail = asm.PeriodReceivable
	}
	if asm.PaymentSubcontract > tail {
		tail = asm.PaymentSubcontract
	}
	if asm.PaymentMaterial > tail {
		tail = asm.PaymentMaterial
	}
	return tail
}

package metrics

import (
	"construction_forecast/pkg/core/curve"
	"construction_forecast/pkg/core/forecast"
)

// CurveScenario is one row of the curve comparison table.
type CurveScenario struct {
	Curve     curve.Type `json:"curve"`
	Metrics   Metrics    `json:"metrics"`
	FinalCash float64    `json:"final_cash"`
}

// CompareCurves reruns the same assumptions under every curve family and
// summarizes each outcome, so the scheduling shapes can be weighed
// side by side.
func CompareCurves(asm forecast.Assumptions, split forecast.CostSplit, opts Options) ([]CurveScenario, error) {
	results := make([]CurveScenario, 0, len(curve.Types()))

	for _, ct := range curve.Types() {
		scenario := asm
		scenario.CurveType = ct

		engine := forecast.NewEngine(split, nil)
		series, err := engine.Generate(scenario)
		if err != nil {
			return nil, err
		}

		results = append(results, CurveScenario{
			Curve:     ct,
			Metrics:   Analyze(series, opts),
			FinalCash: series[len(series)-1].CumulativeCash,
		})
	}
	return results, nil
}

// Package curve generates monthly progress profiles for a construction
// schedule. Each profile is a sequence of per-month completion fractions
// that sums to exactly 1.0.
package curve

import (
	"fmt"
	"math"
)

// Type selects the progress-over-time profile.
type Type string

const (
	Linear      Type = "LINEAR"
	SCurve      Type = "S_CURVE"
	FrontLoaded Type = "FRONT_LOADED"
	BackLoaded  Type = "BACK_LOADED"
)

// DefaultSteepness is the logistic k applied when the caller supplies no
// steepness for an S-curve.
const DefaultSteepness = 10.0

// Generate returns totalMonths per-month progress increments for the given
// curve family. The raw increments are renormalized so they sum to exactly
// 1.0; this is what guarantees cumulative revenue lands on the contract
// price at completion regardless of curve-shape rounding.
func Generate(totalMonths int, curveType Type, steepness float64) ([]float64, error) {
	if totalMonths <= 0 {
		return nil, fmt.Errorf("curve: totalMonths must be positive, got %d", totalMonths)
	}

	increments := make([]float64, totalMonths)

	switch curveType {
	case Linear:
		share := 1.0 / float64(totalMonths)
		for m := range increments {
			increments[m] = share
		}

	case SCurve:
		// Logistic cumulative f(t) = 1 / (1 + e^{-k(t-0.5)}) sampled at
		// month boundaries t = m/N; each increment is the difference of
		// consecutive cumulative values.
		k := steepness
		if k == 0 {
			k = DefaultSteepness
		}
		logistic := func(t float64) float64 {
			return 1.0 / (1.0 + math.Exp(-k*(t-0.5)))
		}
		prev := logistic(0)
		for m := 1; m <= totalMonths; m++ {
			cum := logistic(float64(m) / float64(totalMonths))
			increments[m-1] = cum - prev
			prev = cum
		}

	case FrontLoaded:
		// Cumulative sqrt(t): fast start, slow finish.
		prev := 0.0
		for m := 1; m <= totalMonths; m++ {
			cum := math.Sqrt(float64(m) / float64(totalMonths))
			increments[m-1] = cum - prev
			prev = cum
		}

	case BackLoaded:
		// Cumulative t^2: slow start, fast finish.
		prev := 0.0
		for m := 1; m <= totalMonths; m++ {
			t := float64(m) / float64(totalMonths)
			cum := t * t
			increments[m-1] = cum - prev
			prev = cum
		}

	default:
		return nil, fmt.Errorf("curve: unknown curve type %q", curveType)
	}

	normalize(increments)
	return increments, nil
}

// normalize rescales the increments to sum to exactly 1.0. The final
// increment absorbs any residual floating-point error so the running sum
// is exact at the last month.
func normalize(increments []float64) {
	total := 0.0
	for _, v := range increments {
		total += v
	}
	for i := range increments {
		increments[i] /= total
	}

	sum := 0.0
	for _, v := range increments[:len(increments)-1] {
		sum += v
	}
	increments[len(increments)-1] = 1.0 - sum
}

// Types lists every supported curve family, in presentation order.
func Types() []Type {
	return []Type{Linear, SCurve, FrontLoaded, BackLoaded}
}

package curve_test

import (
	"math"
	"testing"

	"construction_forecast/pkg/core/curve"
)

func TestGenerate_IncrementsSumToOne(t *testing.T) {
	months := []int{1, 6, 12, 24, 36}

	for _, ct := range curve.Types() {
		for _, n := range months {
			increments, err := curve.Generate(n, ct, 0)
			if err != nil {
				t.Fatalf("%s n=%d: unexpected error: %v", ct, n, err)
			}
			if len(increments) != n {
				t.Fatalf("%s n=%d: got %d increments", ct, n, len(increments))
			}

			sum := 0.0
			for _, v := range increments {
				if v < 0 {
					t.Errorf("%s n=%d: negative increment %v", ct, n, v)
				}
				sum += v
			}
			if math.Abs(sum-1.0) > 1e-9 {
				t.Errorf("%s n=%d: increments sum to %v, want 1.0", ct, n, sum)
			}
		}
	}
}

func TestGenerate_Linear(t *testing.T) {
	increments, err := curve.Generate(12, curve.Linear, 0)
	if err != nil {
		t.Fatal(err)
	}
	for m, v := range increments {
		if math.Abs(v-1.0/12.0) > 1e-12 {
			t.Errorf("month %d: got %v, want 1/12", m+1, v)
		}
	}
}

func TestGenerate_SCurveShape(t *testing.T) {
	// Middle months must outpace the edges: slow start, fast middle,
	// slow finish.
	increments, err := curve.Generate(12, curve.SCurve, 10.0)
	if err != nil {
		t.Fatal(err)
	}
	mid := increments[5]
	if mid <= increments[0] {
		t.Errorf("mid increment %v not greater than first %v", mid, increments[0])
	}
	if mid <= increments[11] {
		t.Errorf("mid increment %v not greater than last %v", mid, increments[11])
	}
}

func TestGenerate_FrontAndBackLoading(t *testing.T) {
	front, err := curve.Generate(12, curve.FrontLoaded, 0)
	if err != nil {
		t.Fatal(err)
	}
	if front[0] <= front[11] {
		t.Errorf("front-loaded: first %v should exceed last %v", front[0], front[11])
	}

	back, err := curve.Generate(12, curve.BackLoaded, 0)
	if err != nil {
		t.Fatal(err)
	}
	if back[0] >= back[11] {
		t.Errorf("back-loaded: first %v should be below last %v", back[0], back[11])
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	if _, err := curve.Generate(0, curve.Linear, 0); err == nil {
		t.Error("expected error for zero months")
	}
	if _, err := curve.Generate(-3, curve.Linear, 0); err == nil {
		t.Error("expected error for negative months")
	}
	if _, err := curve.Generate(12, curve.Type("EXPONENTIAL"), 0); err == nil {
		t.Error("expected error for unknown curve type")
	}
}

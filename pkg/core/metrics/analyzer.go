// Package metrics derives investment-appraisal figures (NPV, IRR, ROI,
// payback, break-even, cash shortfall) from a forecast time series.
package metrics

import (
	"math"

	"construction_forecast/pkg/core/forecast"
)

// Options control discounting and the investment base.
type Options struct {
	AnnualDiscountRate float64 // e.g. 0.10
	InitialInvestment  float64 // million KRW, cash out at month 0
}

// Metrics is the summary derived once from a full series. Month indexes
// of 0 mean "never" / "not applicable".
type Metrics struct {
	NPV float64 `json:"npv"`

	// IRR is the annualized internal rate of return in percent. It is
	// only meaningful when IRRDefined is true; Newton-Raphson cannot
	// guarantee a root for series with multiple sign changes, and a
	// non-converging iteration is reported as undefined rather than as
	// a fabricated number.
	IRR        float64 `json:"irr"`
	IRRDefined bool    `json:"irr_defined"`

	ROI         float64 `json:"roi"`          // percent
	GrossMargin float64 `json:"gross_margin"` // percent

	PaybackMonth   int `json:"payback_month"`
	BreakEvenMonth int `json:"break_even_month"`

	MaxCashShortfall      float64 `json:"max_cash_shortfall"` // non-negative
	MaxCashShortfallMonth int     `json:"max_cash_shortfall_month"`
}

const (
	irrInitialGuess  = 0.1
	irrTolerance     = 1e-3
	irrMaxIterations = 100
)

// Analyze computes the full metric set from a monthly series.
func Analyze(series []forecast.MonthlyRecord, opts Options) Metrics {
	var m Metrics
	if len(series) == 0 {
		return m
	}

	monthlyRate := MonthlyRate(opts.AnnualDiscountRate)

	// Month-0 outflow followed by the monthly net cash flows.
	flows := make([]float64, 0, len(series)+1)
	flows = append(flows, -opts.InitialInvestment)
	for _, rec := range series {
		flows = append(flows, rec.NetCashFlow)
	}

	// 1. NPV at the policy discount rate
	m.NPV = netPresentValue(flows, monthlyRate)

	// 2. IRR via guarded Newton-Raphson, annualized for reporting
	if r, ok := internalRateOfReturn(flows); ok {
		m.IRR = (math.Pow(1+r, 12) - 1) * 100
		m.IRRDefined = true
	}

	// 3. ROI on total cash movements
	var totalIn, totalOut float64
	for _, rec := range series {
		totalIn += rec.ReceivedAmount + rec.RetentionReceived
		totalOut += rec.SubcontractPayment + rec.MaterialPayment + rec.OtherPayment
	}
	if denom := totalOut + opts.InitialInvestment; denom != 0 {
		m.ROI = (totalIn - totalOut - opts.InitialInvestment) / denom * 100
	}

	// 4. Gross margin from the final cumulative row
	last := series[len(series)-1]
	if last.CumulativeRevenue != 0 {
		m.GrossMargin = last.CumulativeProfit / last.CumulativeRevenue * 100
	}

	// 5. Payback: first month cumulative net cash (seeded with the
	// initial investment) turns non-negative
	cum := -opts.InitialInvestment
	for _, rec := range series {
		cum += rec.NetCashFlow
		if cum >= 0 {
			m.PaybackMonth = rec.Month
			break
		}
	}

	// 6. Break-even: first month cumulative profit turns non-negative
	for _, rec := range series {
		if rec.CumulativeProfit >= 0 {
			m.BreakEvenMonth = rec.Month
			break
		}
	}

	// 7. Deepest cash trough
	for _, rec := range series {
		if rec.CumulativeCash < 0 && -rec.CumulativeCash > m.MaxCashShortfall {
			m.MaxCashShortfall = -rec.CumulativeCash
			m.MaxCashShortfallMonth = rec.Month
		}
	}

	return m
}

// MonthlyRate converts an annual discount rate to its compounding-
// equivalent monthly rate.
func MonthlyRate(annual float64) float64 {
	return math.Pow(1+annual, 1.0/12.0) - 1
}

// netPresentValue discounts flows[t] back t periods. flows[0] is the
// month-0 amount and is not discounted.
func netPresentValue(flows []float64, rate float64) float64 {
	npv := 0.0
	for t, f := range flows {
		npv += f / math.Pow(1+rate, float64(t))
	}
	return npv
}

// npvDerivative is d(NPV)/d(rate) for the Newton step.
func npvDerivative(flows []float64, rate float64) float64 {
	d := 0.0
	for t, f := range flows {
		if t == 0 {
			continue
		}
		d -= float64(t) * f / math.Pow(1+rate, float64(t+1))
	}
	return d
}

// internalRateOfReturn solves NPV(r) = 0 with Newton-Raphson. Returns
// false when the iteration diverges, stalls, or exhausts the cap without
// meeting the tolerance.
func internalRateOfReturn(flows []float64) (float64, bool) {
	r := irrInitialGuess
	for i := 0; i < irrMaxIterations; i++ {
		f := netPresentValue(flows, r)
		if math.Abs(f) < irrTolerance {
			return r, true
		}

		d := npvDerivative(flows, r)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return 0, false
		}

		next := r - f/d
		if next <= -1 || math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, false
		}
		r = next
	}
	return 0, false
}

package forecast

import (
	"fmt"
	"math"
	"time"
)

// CostSplit divides each month's incurred cost into disbursement
// categories. Shares must sum to 1.
type CostSplit struct {
	Subcontract float64 `yaml:"subcontract"`
	Material    float64 `yaml:"material"`
	Other       float64 `yaml:"other"`
}

// DefaultCostSplit is the standard 60/30/10 policy split.
var DefaultCostSplit = CostSplit{Subcontract: 0.60, Material: 0.30, Other: 0.10}

// Validate checks the split shares.
func (s CostSplit) Validate() error {
	if s.Subcontract < 0 || s.Material < 0 || s.Other < 0 {
		return fmt.Errorf("forecast: cost split shares cannot be negative: %+v", s)
	}
	if sum := s.Subcontract + s.Material + s.Other; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("forecast: cost split shares must sum to 1, got %v", sum)
	}
	return nil
}

// Calculator computes one month of the cash-flow projection at a time.
// It owns the lag schedules (which future month each invoice and cost
// share pays out in), so it must be constructed fresh for every run.
type Calculator struct {
	asm   Assumptions
	split CostSplit

	receiptDue     map[int]float64 // month -> net invoice cash arriving
	subcontractDue map[int]float64 // month -> subcontract payment due
	materialDue    map[int]float64 // month -> material payment due
}

// NewCalculator validates the inputs and prepares a per-run calculator.
func NewCalculator(asm Assumptions, split CostSplit) (*Calculator, error) {
	if err := asm.Validate(); err != nil {
		return nil, err
	}
	if err := split.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{
		asm:            asm,
		split:          split,
		receiptDue:     make(map[int]float64),
		subcontractDue: make(map[int]float64),
		materialDue:    make(map[int]float64),
	}, nil
}

// MonthStep computes the record for one month given that month's progress
// increment and the cumulative state carried from the previous month.
// Months after the construction period take a zero increment and only
// settle lagged cash events.
func (c *Calculator) MonthStep(month int, increment float64, prev CumulativeState) (MonthlyRecord, CumulativeState) {
	state := prev

	// 1. Percentage-of-completion revenue recognition
	revenue := c.asm.ContractPrice * increment
	cost := revenue * c.asm.CostRatio()
	profit := revenue - cost

	state.Progress += increment
	state.Revenue += revenue
	state.Cost += cost
	state.Profit += profit

	rec := MonthlyRecord{
		Month:                  month,
		Date:                   monthDate(c.asm.StartDate, month),
		ProgressRate:           increment * 100,
		CumulativeProgressRate: state.Progress * 100,
		Revenue:                revenue,
		Cost:                   cost,
		Profit:                 profit,
		CumulativeRevenue:      state.Revenue,
		CumulativeCost:         state.Cost,
		CumulativeProfit:       state.Profit,
	}

	// 2. Invoicing: bill the uninvoiced revenue slice on the billing
	// cadence, and always at the final construction month to capture the
	// remainder. Retention is withheld at invoicing time.
	inConstruction := month <= c.asm.PeriodMonths
	if inConstruction && (month%c.asm.PeriodInvoicing == 0 || month == c.asm.PeriodMonths) {
		slice := state.Revenue - state.Invoiced
		if slice > 0 {
			withheld := slice * c.asm.RetentionRate
			net := slice - withheld

			rec.InvoiceAmount = net
			state.Invoiced = state.Revenue
			state.RetentionWithheld += withheld

			// Cash for this invoice arrives after the receivable lag.
			c.receiptDue[month+c.asm.PeriodReceivable] += net
		}
	}

	// 3. Collections: cash due this month belongs to the invoice raised
	// PeriodReceivable months ago, never to this month's invoice.
	rec.ReceivedAmount = c.receiptDue[month]
	delete(c.receiptDue, month)

	// 4. Retention release: one lump sum after the defect-liability
	// period, never amortized.
	if month == c.asm.PeriodMonths+c.asm.RetentionPeriod {
		rec.RetentionReceived = state.RetentionWithheld
	}

	// 5. Disbursements: split this month's cost and schedule each share
	// after its own payment lag. The residual share is paid immediately.
	if cost > 0 {
		c.subcontractDue[month+c.asm.PaymentSubcontract] += cost * c.split.Subcontract
		c.materialDue[month+c.asm.PaymentMaterial] += cost * c.split.Material
		rec.OtherPayment = cost * c.split.Other
	}
	rec.SubcontractPayment = c.subcontractDue[month]
	delete(c.subcontractDue, month)
	rec.MaterialPayment = c.materialDue[month]
	delete(c.materialDue, month)

	// 6. Net cash flow
	rec.NetCashFlow = rec.ReceivedAmount + rec.RetentionReceived -
		rec.SubcontractPayment - rec.MaterialPayment - rec.OtherPayment
	state.Cash += rec.NetCashFlow
	rec.CumulativeCash = state.Cash

	return rec, state
}

// monthDate places month m (1-based) on the calendar.
func monthDate(start time.Time, month int) time.Time {
	return start.AddDate(0, month-1, 0)
}

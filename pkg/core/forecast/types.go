// Package forecast turns a set of contractual assumptions into a
// month-by-month projection of progress, revenue, cost, profit and cash
// movements for one construction project.
//
// All money fields are expressed in million KRW. The cost ratio is always
// derived as 1 - profit margin so the two can never disagree.
package forecast

import (
	"fmt"
	"time"

	"construction_forecast/pkg/core/curve"
)

// Assumptions are the contractual inputs for one forecast run. They are
// treated as immutable for the duration of the run.
type Assumptions struct {
	ProjectID string `json:"project_id,omitempty"`

	ContractPrice float64   `json:"contract_price"` // million KRW
	PeriodMonths  int       `json:"period_months"`
	StartDate     time.Time `json:"start_date"`

	ProfitMargin float64 `json:"profit_margin"` // fraction of revenue

	PeriodInvoicing  int `json:"period_invoicing"`  // billing cadence, months
	PeriodReceivable int `json:"period_receivable"` // invoice-to-cash lag, months

	RetentionRate   float64 `json:"retention_rate"`   // fraction withheld per invoice
	RetentionPeriod int     `json:"retention_period"` // months after completion

	PaymentSubcontract int `json:"payment_subcontract"` // cost-to-cash lag, months
	PaymentMaterial    int `json:"payment_material"`    // cost-to-cash lag, months

	CurveType      curve.Type `json:"curve_type"`
	CurveSteepness float64    `json:"curve_steepness,omitempty"`

	// InitialInvestment seeds the payback and ROI calculations; zero for
	// projects funded entirely out of progress billing.
	InitialInvestment float64 `json:"initial_investment,omitempty"`
}

// CostRatio is the cost share of each revenue unit.
func (a Assumptions) CostRatio() float64 {
	return 1.0 - a.ProfitMargin
}

// Validate rejects configurations that would make the projection
// meaningless. It runs before any computation; nothing is clamped or
// silently defaulted.
func (a Assumptions) Validate() error {
	if a.ContractPrice <= 0 {
		return fmt.Errorf("forecast: contract price must be positive, got %v", a.ContractPrice)
	}
	if a.PeriodMonths <= 0 {
		return fmt.Errorf("forecast: construction period must be positive, got %d", a.PeriodMonths)
	}
	if a.ProfitMargin < 0 || a.ProfitMargin > 1 {
		return fmt.Errorf("forecast: profit margin must be in [0,1], got %v", a.ProfitMargin)
	}
	if a.PeriodInvoicing < 1 {
		return fmt.Errorf("forecast: invoicing period must be at least 1 month, got %d", a.PeriodInvoicing)
	}
	if a.PeriodReceivable < 0 {
		return fmt.Errorf("forecast: receivable period cannot be negative, got %d", a.PeriodReceivable)
	}
	if a.RetentionRate < 0 || a.RetentionRate > 1 {
		return fmt.Errorf("forecast: retention rate must be in [0,1], got %v", a.RetentionRate)
	}
	if a.RetentionPeriod < 0 {
		return fmt.Errorf("forecast: retention period cannot be negative, got %d", a.RetentionPeriod)
	}
	if a.PaymentSubcontract < 0 || a.PaymentMaterial < 0 {
		return fmt.Errorf("forecast: payment lags cannot be negative, got %d/%d",
			a.PaymentSubcontract, a.PaymentMaterial)
	}
	if a.InitialInvestment < 0 {
		return fmt.Errorf("forecast: initial investment cannot be negative, got %v", a.InitialInvestment)
	}
	return nil
}

// MonthlyRecord is one row of the forecast time series.
type MonthlyRecord struct {
	Month int       `json:"month"`
	Date  time.Time `json:"date"`

	ProgressRate           float64 `json:"progress_rate"`            // percent, this month
	CumulativeProgressRate float64 `json:"cumulative_progress_rate"` // percent

	Revenue           float64 `json:"revenue"`
	Cost              float64 `json:"cost"`
	Profit            float64 `json:"profit"`
	CumulativeRevenue float64 `json:"cumulative_revenue"`
	CumulativeCost    float64 `json:"cumulative_cost"`
	CumulativeProfit  float64 `json:"cumulative_profit"`

	InvoiceAmount      float64 `json:"invoice_amount"` // net of retention
	ReceivedAmount     float64 `json:"received_amount"`
	RetentionReceived  float64 `json:"retention_received"`
	SubcontractPayment float64 `json:"subcontract_payment"`
	MaterialPayment    float64 `json:"material_payment"`
	OtherPayment       float64 `json:"other_payment"`
	NetCashFlow        float64 `json:"net_cash_flow"`
	CumulativeCash     float64 `json:"cumulative_cash"`
}

// CumulativeState carries the running totals between month steps. A step
// receives the previous state by value and returns the next one, so the
// running-sum invariants are checkable per step and no totals can leak
// across forecast runs.
type CumulativeState struct {
	Progress float64 // fraction complete
	Revenue  float64
	Cost     float64
	Profit   float64
	Cash     float64

	Invoiced          float64 // revenue already billed, gross of retention
	RetentionWithheld float64
}

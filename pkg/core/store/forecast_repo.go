package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"construction_forecast/pkg/core/forecast"
)

// ForecastRepo stores forecast runs: one assumptions row per run plus
// one row per forecast month, written in a single transaction.
//
// Schema assumption (migrations managed elsewhere):
//
//	CREATE TABLE IF NOT EXISTS forecast_assumptions (
//	  run_id           UUID,
//	  project_id       TEXT,
//	  effective_from   DATE,
//	  assumptions_json JSONB,
//	  created_at       TIMESTAMPTZ,
//	  PRIMARY KEY (project_id, effective_from)
//	);
//
//	CREATE TABLE IF NOT EXISTS forecast_months (
//	  project_id TEXT,
//	  month      INT,
//	  run_id     UUID,
//	  forecast_date DATE,
//	  progress_rate DOUBLE PRECISION,
//	  cumulative_progress_rate DOUBLE PRECISION,
//	  revenue DOUBLE PRECISION, cost DOUBLE PRECISION, profit DOUBLE PRECISION,
//	  cumulative_revenue DOUBLE PRECISION, cumulative_cost DOUBLE PRECISION,
//	  cumulative_profit DOUBLE PRECISION,
//	  invoice_amount DOUBLE PRECISION, received_amount DOUBLE PRECISION,
//	  retention_received DOUBLE PRECISION,
//	  subcontract_payment DOUBLE PRECISION, material_payment DOUBLE PRECISION,
//	  other_payment DOUBLE PRECISION,
//	  net_cash_flow DOUBLE PRECISION, cumulative_cash DOUBLE PRECISION,
//	  PRIMARY KEY (project_id, month)
//	);
type ForecastRepo struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

// NewForecastRepo creates a repository backed by the given pool.
func NewForecastRepo(db *pgxpool.Pool, log *zap.Logger) *ForecastRepo {
	return &ForecastRepo{db: db, log: log}
}

const upsertAssumptions = `
	INSERT INTO forecast_assumptions (run_id, project_id, effective_from, assumptions_json, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (project_id, effective_from)
	DO UPDATE SET
		run_id = EXCLUDED.run_id,
		assumptions_json = EXCLUDED.assumptions_json,
		created_at = EXCLUDED.created_at;
`

const upsertMonth = `
	INSERT INTO forecast_months (
		project_id, month, run_id, forecast_date,
		progress_rate, cumulative_progress_rate,
		revenue, cost, profit,
		cumulative_revenue, cumulative_cost, cumulative_profit,
		invoice_amount, received_amount, retention_received,
		subcontract_payment, material_payment, other_payment,
		net_cash_flow, cumulative_cash
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	ON CONFLICT (project_id, month)
	DO UPDATE SET
		run_id = EXCLUDED.run_id,
		forecast_date = EXCLUDED.forecast_date,
		progress_rate = EXCLUDED.progress_rate,
		cumulative_progress_rate = EXCLUDED.cumulative_progress_rate,
		revenue = EXCLUDED.revenue,
		cost = EXCLUDED.cost,
		profit = EXCLUDED.profit,
		cumulative_revenue = EXCLUDED.cumulative_revenue,
		cumulative_cost = EXCLUDED.cumulative_cost,
		cumulative_profit = EXCLUDED.cumulative_profit,
		invoice_amount = EXCLUDED.invoice_amount,
		received_amount = EXCLUDED.received_amount,
		retention_received = EXCLUDED.retention_received,
		subcontract_payment = EXCLUDED.subcontract_payment,
		material_payment = EXCLUDED.material_payment,
		other_payment = EXCLUDED.other_payment,
		net_cash_flow = EXCLUDED.net_cash_flow,
		cumulative_cash = EXCLUDED.cumulative_cash;
`

// SaveRun writes the assumptions and every monthly row atomically.
// Implements forecast.ForecastSink.
func (r *ForecastRepo) SaveRun(ctx context.Context, projectID string, asm forecast.Assumptions, series []forecast.MonthlyRecord) error {
	asmJSON, err := json.Marshal(asm)
	if err != nil {
		return &StoreError{Op: "marshal assumptions", Err: err}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return &StoreError{Op: "begin tx", Err: err}
	}
	defer tx.Rollback(ctx)

	runID := uuid.New()
	now := time.Now()

	// Stale rows from a longer previous run would otherwise survive the
	// per-month upserts.
	if _, err := tx.Exec(ctx, `DELETE FROM forecast_months WHERE project_id = $1`, projectID); err != nil {
		return &StoreError{Op: "clear previous run", Err: err}
	}

	if _, err := tx.Exec(ctx, upsertAssumptions,
		runID, projectID, asm.StartDate, asmJSON, now); err != nil {
		return &StoreError{Op: "save assumptions", Err: err}
	}

	batch := &pgx.Batch{}
	for _, rec := range series {
		batch.Queue(upsertMonth,
			projectID, rec.Month, runID, rec.Date,
			rec.ProgressRate, rec.CumulativeProgressRate,
			rec.Revenue, rec.Cost, rec.Profit,
			rec.CumulativeRevenue, rec.CumulativeCost, rec.CumulativeProfit,
			rec.InvoiceAmount, rec.ReceivedAmount, rec.RetentionReceived,
			rec.SubcontractPayment, rec.MaterialPayment, rec.OtherPayment,
			rec.NetCashFlow, rec.CumulativeCash,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return &StoreError{Op: "save monthly rows", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &StoreError{Op: "commit", Err: err}
	}

	r.log.Info("forecast run saved",
		zap.String("project_id", projectID),
		zap.String("run_id", runID.String()),
		zap.Int("months", len(series)))
	return nil
}

// ErrNoRun reports that a project has no persisted forecast.
var ErrNoRun = pgx.ErrNoRows

// LoadLatest returns the most recent persisted run for a project.
func (r *ForecastRepo) LoadLatest(ctx context.Context, projectID string) (forecast.Assumptions, []forecast.MonthlyRecord, error) {
	var asm forecast.Assumptions

	var asmJSON []byte
	err := r.db.QueryRow(ctx, `
		SELECT assumptions_json FROM forecast_assumptions
		WHERE project_id = $1
		ORDER BY effective_from DESC
		LIMIT 1`, projectID).Scan(&asmJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return asm, nil, ErrNoRun
		}
		return asm, nil, &StoreError{Op: "load assumptions", Err: err}
	}
	if err := json.Unmarshal(asmJSON, &asm); err != nil {
		return asm, nil, &StoreError{Op: "unmarshal assumptions", Err: err}
	}

	rows, err := r.db.Query(ctx, `
		SELECT month, forecast_date,
			progress_rate, cumulative_progress_rate,
			revenue, cost, profit,
			cumulative_revenue, cumulative_cost, cumulative_profit,
			invoice_amount, received_amount, retention_received,
			subcontract_payment, material_payment, other_payment,
			net_cash_flow, cumulative_cash
		FROM forecast_months
		WHERE project_id = $1
		ORDER BY month`, projectID)
	if err != nil {
		return asm, nil, &StoreError{Op: "load monthly rows", Err: err}
	}
	defer rows.Close()

	var series []forecast.MonthlyRecord
	for rows.Next() {
		var rec forecast.MonthlyRecord
		if err := rows.Scan(
			&rec.Month, &rec.Date,
			&rec.ProgressRate, &rec.CumulativeProgressRate,
			&rec.Revenue, &rec.Cost, &rec.Profit,
			&rec.CumulativeRevenue, &rec.CumulativeCost, &rec.CumulativeProfit,
			&rec.InvoiceAmount, &rec.ReceivedAmount, &rec.RetentionReceived,
			&rec.SubcontractPayment, &rec.MaterialPayment, &rec.OtherPayment,
			&rec.NetCashFlow, &rec.CumulativeCash,
		); err != nil {
			return asm, nil, &StoreError{Op: "scan monthly row", Err: err}
		}
		series = append(series, rec)
	}
	if err := rows.Err(); err != nil {
		return asm, nil, &StoreError{Op: "iterate monthly rows", Err: err}
	}

	return asm, series, nil
}

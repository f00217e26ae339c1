// Package postgres persists optimization cycle reports. The optimizer core
// stays stateless; this store exists for operators who want cycle history.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/adveralabs/adpilot/internal/optimizer"
)

// ReportRepo implements optimizer.ReportStore against PostgreSQL.
type ReportRepo struct{ db *sql.DB }

// NewReportRepo creates a Postgres-backed cycle report store.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// SaveReport inserts one cycle report. Allocations and apply results are
// stored as JSON documents.
func (r *ReportRepo) SaveReport(ctx context.Context, report *optimizer.CycleReport) error {
	allocations, err := json.Marshal(report.Allocations)
	if err != nil {
		return fmt.Errorf("marshal allocations: %w", err)
	}
	applyResults, err := json.Marshal(report.ApplyResults)
	if err != nil {
		return fmt.Errorf("marshal apply results: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO optimization_cycles
			(id, account_id, status, arms_processed, allocations, apply_results,
			 updated_count, failed_count, pending_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, report.ID, report.AccountID, string(report.Status), report.ArmsProcessed,
		allocations, applyResults,
		report.Updated, report.Failed, report.Pending, report.Timestamp)
	if err != nil {
		return fmt.Errorf("save cycle report: %w", err)
	}
	return nil
}

// ListReports returns the most recent cycle reports for an account, newest
// first.
func (r *ReportRepo) ListReports(ctx context.Context, accountID string, limit int) ([]optimizer.CycleReport, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, status, arms_processed, allocations, apply_results,
		       updated_count, failed_count, pending_count, created_at
		FROM optimization_cycles
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list cycle reports: %w", err)
	}
	defer rows.Close()

	var out []optimizer.CycleReport
	for rows.Next() {
		var (
			report       optimizer.CycleReport
			status       string
			allocations  []byte
			applyResults []byte
		)
		if err := rows.Scan(
			&report.ID, &report.AccountID, &status, &report.ArmsProcessed,
			&allocations, &applyResults,
			&report.Updated, &report.Failed, &report.Pending, &report.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan cycle report: %w", err)
		}
		report.Status = optimizer.CycleStatus(status)
		if err := json.Unmarshal(allocations, &report.Allocations); err != nil {
			return nil, fmt.Errorf("unmarshal allocations for %s: %w", report.ID, err)
		}
		if err := json.Unmarshal(applyResults, &report.ApplyResults); err != nil {
			return nil, fmt.Errorf("unmarshal apply results for %s: %w", report.ID, err)
		}
		out = append(out, report)
	}
	return out, rows.Err()
}

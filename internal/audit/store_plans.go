package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medley/internal/plan"
	"medley/internal/services"
)

// InsertPlan appends a plan record with status Pending inside the caller's
// transaction.
func (s *Store) InsertPlan(ctx context.Context, tx *sql.Tx, p *plan.Plan) (PlanRecord, error) {
	ctx = ensureContext(ctx)
	planJSON, err := json.Marshal(p)
	if err != nil {
		return PlanRecord{}, fmt.Errorf("marshal plan: %w", err)
	}

	now := time.Now().UTC()
	record := PlanRecord{
		ID:            uuid.NewString(),
		FilePath:      p.Path,
		PolicyVersion: p.PolicyVersion,
		PlanJSON:      string(planJSON),
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO plans (id, file_path, policy_version, plan_json, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.FilePath,
		record.PolicyVersion,
		record.PlanJSON,
		record.Status,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return PlanRecord{}, fmt.Errorf("insert plan: %w", err)
	}
	return record, nil
}

// UpdatePlanStatus moves a plan record to the next status inside the
// caller's transaction, enforcing the transition table.
func (s *Store) UpdatePlanStatus(ctx context.Context, tx *sql.Tx, id string, next Status) error {
	ctx = ensureContext(ctx)
	var current Status
	err := tx.QueryRowContext(ctx, `SELECT status FROM plans WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return services.Wrap(services.ErrNotFound, "audit", "update plan",
			fmt.Sprintf("plan %s", id), nil)
	}
	if err != nil {
		return fmt.Errorf("read plan status: %w", err)
	}
	if err := ValidateTransition(current, next); err != nil {
		return err
	}

	_, err = tx.ExecContext(
		ctx,
		`UPDATE plans SET status = ?, updated_at = ? WHERE id = ?`,
		next,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update plan status: %w", err)
	}
	return nil
}

// GetPlan returns one plan record by id.
func (s *Store) GetPlan(ctx context.Context, id string) (PlanRecord, error) {
	ctx = ensureContext(ctx)
	var record PlanRecord
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(
			ctx,
			`SELECT id, file_path, policy_version, plan_json, status, created_at, updated_at
             FROM plans WHERE id = ?`,
			id,
		)
		return scanPlan(row, &record)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return PlanRecord{}, services.Wrap(services.ErrNotFound, "audit", "get plan",
			fmt.Sprintf("plan %s", id), nil)
	}
	if err != nil {
		return PlanRecord{}, fmt.Errorf("get plan: %w", err)
	}
	return record, nil
}

// PlansForFile returns the plan records for a file, newest first.
func (s *Store) PlansForFile(ctx context.Context, filePath string) ([]PlanRecord, error) {
	return s.queryPlans(ctx,
		`SELECT id, file_path, policy_version, plan_json, status, created_at, updated_at
         FROM plans WHERE file_path = ? ORDER BY created_at DESC`,
		filePath)
}

// RecentPlans returns the newest plan records up to limit.
func (s *Store) RecentPlans(ctx context.Context, limit int) ([]PlanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryPlans(ctx,
		`SELECT id, file_path, policy_version, plan_json, status, created_at, updated_at
         FROM plans ORDER BY created_at DESC LIMIT ?`,
		limit)
}

// DecodePlan unmarshals the stored plan JSON.
func (r PlanRecord) DecodePlan() (*plan.Plan, error) {
	var p plan.Plan
	if err := json.Unmarshal([]byte(r.PlanJSON), &p); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", r.ID, err)
	}
	return &p, nil
}

func (s *Store) queryPlans(ctx context.Context, query string, args ...any) ([]PlanRecord, error) {
	ctx = ensureContext(ctx)
	var records []PlanRecord
	err := retryOnBusy(ctx, func() error {
		records = records[:0]
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var record PlanRecord
			if err := scanPlan(rows, &record); err != nil {
				return err
			}
			records = append(records, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner, record *PlanRecord) error {
	var createdAt, updatedAt string
	if err := row.Scan(
		&record.ID,
		&record.FilePath,
		&record.PolicyVersion,
		&record.PlanJSON,
		&record.Status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return err
	}
	record.CreatedAt = parseTime(createdAt)
	record.UpdatedAt = parseTime(updatedAt)
	return nil
}

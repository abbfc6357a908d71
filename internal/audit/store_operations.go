package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medley/internal/services"
)

// InsertOperation appends an operation record with status Pending inside
// the caller's transaction.
func (s *Store) InsertOperation(ctx context.Context, tx *sql.Tx, op Operation) (Operation, error) {
	ctx = ensureContext(ctx)
	if op.FilePath == "" {
		return Operation{}, services.Wrap(services.ErrValidation, "audit", "insert operation",
			"file path is required", nil)
	}

	now := time.Now().UTC()
	op.ID = uuid.NewString()
	op.Status = StatusPending
	op.CreatedAt = now
	op.UpdatedAt = now

	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO operations (id, plan_id, file_path, phase, action, status, error, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID,
		nullableString(op.PlanID),
		op.FilePath,
		op.Phase,
		op.Action,
		op.Status,
		nullableString(op.Error),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return Operation{}, fmt.Errorf("insert operation: %w", err)
	}
	return op, nil
}

// UpdateOperationStatus moves an operation to the next status inside the
// caller's transaction, enforcing the transition table. errMessage is stored
// alongside Failed and RolledBack statuses.
func (s *Store) UpdateOperationStatus(ctx context.Context, tx *sql.Tx, id string, next Status, errMessage string) error {
	ctx = ensureContext(ctx)
	var current Status
	err := tx.QueryRowContext(ctx, `SELECT status FROM operations WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return services.Wrap(services.ErrNotFound, "audit", "update operation",
			fmt.Sprintf("operation %s", id), nil)
	}
	if err != nil {
		return fmt.Errorf("read operation status: %w", err)
	}
	if err := ValidateTransition(current, next); err != nil {
		return err
	}

	_, err = tx.ExecContext(
		ctx,
		`UPDATE operations SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		next,
		nullableString(errMessage),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update operation status: %w", err)
	}
	return nil
}

// OperationsForFile returns the operations recorded for a file, newest
// first.
func (s *Store) OperationsForFile(ctx context.Context, filePath string) ([]Operation, error) {
	return s.queryOperations(ctx,
		`SELECT id, plan_id, file_path, phase, action, status, error, created_at, updated_at
         FROM operations WHERE file_path = ? ORDER BY created_at DESC`,
		filePath)
}

// OperationsBetween returns operations created within [from, to), oldest
// first.
func (s *Store) OperationsBetween(ctx context.Context, from, to time.Time) ([]Operation, error) {
	return s.queryOperations(ctx,
		`SELECT id, plan_id, file_path, phase, action, status, error, created_at, updated_at
         FROM operations WHERE created_at >= ? AND created_at < ? ORDER BY created_at ASC`,
		formatTime(from), formatTime(to))
}

// RecentOperations returns the newest operations up to limit.
func (s *Store) RecentOperations(ctx context.Context, limit int) ([]Operation, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryOperations(ctx,
		`SELECT id, plan_id, file_path, phase, action, status, error, created_at, updated_at
         FROM operations ORDER BY created_at DESC LIMIT ?`,
		limit)
}

func (s *Store) queryOperations(ctx context.Context, query string, args ...any) ([]Operation, error) {
	ctx = ensureContext(ctx)
	var ops []Operation
	err := retryOnBusy(ctx, func() error {
		ops = ops[:0]
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				op        Operation
				planID    sql.NullString
				errColumn sql.NullString
				createdAt string
				updatedAt string
			)
			if err := rows.Scan(
				&op.ID,
				&planID,
				&op.FilePath,
				&op.Phase,
				&op.Action,
				&op.Status,
				&errColumn,
				&createdAt,
				&updatedAt,
			); err != nil {
				return err
			}
			op.PlanID = planID.String
			op.Error = errColumn.String
			op.CreatedAt = parseTime(createdAt)
			op.UpdatedAt = parseTime(updatedAt)
			ops = append(ops, op)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	return ops, nil
}

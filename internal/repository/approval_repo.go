package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pmforge/changeflow/internal/domain/entity"
	"github.com/pmforge/changeflow/pkg/database"
	"go.uber.org/zap"
)

// ApprovalRepository handles approval record database operations
type ApprovalRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *database.DB, logger *zap.Logger) *ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new approval record
func (r *ApprovalRepository) Create(ctx context.Context, record *entity.ApprovalRecord) error {
	query := `
		INSERT INTO approval_records (
			request_id, approver_name, approver_role, step_number, due_date, status, comment
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(ctx).ExecContext(ctx, query,
		record.RequestID,
		record.ApproverName,
		record.ApproverRole,
		record.StepNumber,
		record.DueDate,
		record.Status,
		record.Comment,
	)
	if err != nil {
		r.logger.Error("Failed to create approval record", zap.Error(err))
		return fmt.Errorf("failed to create approval record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// GetByRequestID retrieves all approval records for a change request,
// ordered by step number
func (r *ApprovalRepository) GetByRequestID(ctx context.Context, requestID int64) ([]entity.ApprovalRecord, error) {
	query := `
		SELECT id, request_id, approver_name, approver_role, step_number,
			due_date, status, decided_at, comment, created_at
		FROM approval_records
		WHERE request_id = ?
		ORDER BY step_number ASC, id ASC
	`

	rows, err := r.db.Exec(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get approval records", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval records: %w", err)
	}
	defer rows.Close()

	var records []entity.ApprovalRecord
	for rows.Next() {
		var record entity.ApprovalRecord
		var decidedAt sql.NullTime

		err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.ApproverName,
			&record.ApproverRole,
			&record.StepNumber,
			&record.DueDate,
			&record.Status,
			&decidedAt,
			&record.Comment,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}

		if decidedAt.Valid {
			record.DecidedAt = &decidedAt.Time
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

// ListOverduePending returns open approvals whose due date has passed
func (r *ApprovalRepository) ListOverduePending(ctx context.Context, asOf time.Time, limit int) ([]entity.ApprovalRecord, error) {
	query := `
		SELECT id, request_id, approver_name, approver_role, step_number,
			due_date, status, decided_at, comment, created_at
		FROM approval_records
		WHERE status = ? AND due_date < ?
		ORDER BY due_date ASC
		LIMIT ?
	`

	rows, err := r.db.Exec(ctx).QueryContext(ctx, query, entity.ApprovalStatusPending, asOf, limit)
	if err != nil {
		r.logger.Error("Failed to list overdue approvals", zap.Error(err))
		return nil, fmt.Errorf("failed to list overdue approvals: %w", err)
	}
	defer rows.Close()

	var records []entity.ApprovalRecord
	for rows.Next() {
		var record entity.ApprovalRecord
		var decidedAt sql.NullTime

		err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.ApproverName,
			&record.ApproverRole,
			&record.StepNumber,
			&record.DueDate,
			&record.Status,
			&decidedAt,
			&record.Comment,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}

		if decidedAt.Valid {
			record.DecidedAt = &decidedAt.Time
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

// MarkOverdue flips a pending approval to overdue
func (r *ApprovalRepository) MarkOverdue(ctx context.Context, id int64) error {
	query := `UPDATE approval_records SET status = ? WHERE id = ? AND status = ?`

	_, err := r.db.Exec(ctx).ExecContext(ctx, query, entity.ApprovalStatusOverdue, id, entity.ApprovalStatusPending)
	if err != nil {
		r.logger.Error("Failed to mark approval overdue", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark approval overdue: %w", err)
	}

	return nil
}

// UpdateStatus records an approver's decision on a single step
func (r *ApprovalRepository) UpdateStatus(ctx context.Context, id int64, status, comment string) error {
	query := `
		UPDATE approval_records
		SET status = ?, comment = ?, decided_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Exec(ctx).ExecContext(ctx, query, status, comment, id)
	if err != nil {
		r.logger.Error("Failed to update approval status",
			zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update approval status: %w", err)
	}

	return nil
}

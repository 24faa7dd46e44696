package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pmforge/changeflow/internal/domain/entity"
	"github.com/pmforge/changeflow/pkg/database"
	"go.uber.org/zap"
)

// ChangeRequestRepository handles change request database operations
type ChangeRequestRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewChangeRequestRepository creates a new change request repository
func NewChangeRequestRepository(db *database.DB, logger *zap.Logger) *ChangeRequestRepository {
	return &ChangeRequestRepository{
		db:     db,
		logger: logger,
	}
}

const changeRequestColumns = `
	id, request_number, title, description, justification, status, priority,
	requested_by, department, estimated_cost_impact, actual_cost_impact,
	estimated_schedule_days, actual_schedule_days,
	submission_time, approval_time, closed_at, created_at, updated_at
`

// Create inserts a new change request
func (r *ChangeRequestRepository) Create(ctx context.Context, request *entity.ChangeRequest) error {
	query := `
		INSERT INTO change_requests (
			request_number, title, description, justification, status, priority,
			requested_by, department, estimated_cost_impact, actual_cost_impact,
			estimated_schedule_days, actual_schedule_days, submission_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(ctx).ExecContext(ctx, query,
		request.RequestNumber,
		request.Title,
		request.Description,
		request.Justification,
		request.Status,
		request.Priority,
		request.RequestedBy,
		request.Department,
		request.EstimatedCostImpact,
		request.ActualCostImpact,
		request.EstimatedScheduleDays,
		request.ActualScheduleDays,
		request.SubmissionTime,
	)
	if err != nil {
		r.logger.Error("Failed to create change request", zap.Error(err))
		return fmt.Errorf("failed to create change request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	request.ID = id
	return nil
}

// GetByID retrieves a change request by ID
func (r *ChangeRequestRepository) GetByID(ctx context.Context, id int64) (*entity.ChangeRequest, error) {
	query := `SELECT ` + changeRequestColumns + ` FROM change_requests WHERE id = ?`

	request, err := r.scanRequest(r.db.Exec(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("change request %d not found", id)
	}
	if err != nil {
		r.logger.Error("Failed to get change request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get change request: %w", err)
	}

	return request, nil
}

// GetByRequestNumber retrieves a change request by its human-facing number
func (r *ChangeRequestRepository) GetByRequestNumber(ctx context.Context, number string) (*entity.ChangeRequest, error) {
	query := `SELECT ` + changeRequestColumns + ` FROM change_requests WHERE request_number = ?`

	request, err := r.scanRequest(r.db.Exec(ctx).QueryRowContext(ctx, query, number))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get change request", zap.String("request_number", number), zap.Error(err))
		return nil, fmt.Errorf("failed to get change request: %w", err)
	}

	return request, nil
}

// UpdateStatus updates the status of a change request
func (r *ChangeRequestRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE change_requests SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := r.db.Exec(ctx).ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update status",
			zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update status: %w", err)
	}

	return nil
}

// UpdateActuals records the measured cost and schedule impact
func (r *ChangeRequestRepository) UpdateActuals(ctx context.Context, id int64, costImpact float64, scheduleDays int) error {
	query := `
		UPDATE change_requests
		SET actual_cost_impact = ?, actual_schedule_days = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Exec(ctx).ExecContext(ctx, query, costImpact, scheduleDays, id)
	if err != nil {
		r.logger.Error("Failed to update actuals", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update actuals: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *ChangeRequestRepository) scanRequest(row rowScanner) (*entity.ChangeRequest, error) {
	var request entity.ChangeRequest
	var submissionTime, approvalTime, closedAt sql.NullTime

	err := row.Scan(
		&request.ID,
		&request.RequestNumber,
		&request.Title,
		&request.Description,
		&request.Justification,
		&request.Status,
		&request.Priority,
		&request.RequestedBy,
		&request.Department,
		&request.EstimatedCostImpact,
		&request.ActualCostImpact,
		&request.EstimatedScheduleDays,
		&request.ActualScheduleDays,
		&submissionTime,
		&approvalTime,
		&closedAt,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if submissionTime.Valid {
		request.SubmissionTime = submissionTime.Time
	}
	if approvalTime.Valid {
		request.ApprovalTime = &approvalTime.Time
	}
	if closedAt.Valid {
		request.ClosedAt = &closedAt.Time
	}

	return &request, nil
}

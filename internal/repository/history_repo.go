package repository

import (
	"context"
	"fmt"

	"github.com/pmforge/changeflow/internal/domain/entity"
	"github.com/pmforge/changeflow/pkg/database"
	"go.uber.org/zap"
)

// HistoryRepository handles the change request audit trail
type HistoryRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *database.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history row
func (r *HistoryRepository) Create(ctx context.Context, history *entity.ChangeHistory) error {
	query := `
		INSERT INTO change_history (
			request_id, previous_status, new_status, action, actor_id, action_data
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(ctx).ExecContext(ctx, query,
		history.RequestID,
		history.PreviousStatus,
		history.NewStatus,
		history.Action,
		history.ActorID,
		history.ActionData,
	)
	if err != nil {
		r.logger.Error("Failed to create history", zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// GetByRequestID retrieves the audit trail for a change request, oldest first
func (r *HistoryRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.ChangeHistory, error) {
	query := `
		SELECT id, request_id, previous_status, new_status, action, actor_id, action_data, created_at
		FROM change_history
		WHERE request_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Exec(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.ChangeHistory
	for rows.Next() {
		var entry entity.ChangeHistory
		err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.PreviousStatus,
			&entry.NewStatus,
			&entry.Action,
			&entry.ActorID,
			&entry.ActionData,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pmforge/changeflow/internal/domain/entity"
	"github.com/pmforge/changeflow/pkg/database"
	"go.uber.org/zap"
)

// AnalysisRepository handles impact analysis database operations
type AnalysisRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *database.DB, logger *zap.Logger) *AnalysisRepository {
	return &AnalysisRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new impact analysis. List fields are stored as JSON.
func (r *AnalysisRepository) Create(ctx context.Context, analysis *entity.ImpactAnalysis) error {
	workItems, err := json.Marshal(analysis.AffectedWorkItems)
	if err != nil {
		return fmt.Errorf("failed to marshal work items: %w", err)
	}
	riskNotes, err := json.Marshal(analysis.RiskNotes)
	if err != nil {
		return fmt.Errorf("failed to marshal risk notes: %w", err)
	}

	query := `
		INSERT INTO impact_analyses (
			request_id, total_cost_impact, schedule_impact_days, affects_critical_path,
			affected_work_items, summary, risk_notes, prepared_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(ctx).ExecContext(ctx, query,
		analysis.RequestID,
		analysis.TotalCostImpact,
		analysis.ScheduleImpactDays,
		analysis.AffectsCriticalPath,
		string(workItems),
		analysis.Summary,
		string(riskNotes),
		analysis.PreparedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create impact analysis", zap.Error(err))
		return fmt.Errorf("failed to create impact analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	analysis.ID = id
	return nil
}

// GetLatestByRequestID retrieves the most recent impact analysis for a request.
// Returns nil when none exists yet.
func (r *AnalysisRepository) GetLatestByRequestID(ctx context.Context, requestID int64) (*entity.ImpactAnalysis, error) {
	query := `
		SELECT id, request_id, total_cost_impact, schedule_impact_days, affects_critical_path,
			affected_work_items, summary, risk_notes, prepared_by, created_at
		FROM impact_analyses
		WHERE request_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var analysis entity.ImpactAnalysis
	var workItems, riskNotes string

	err := r.db.Exec(ctx).QueryRowContext(ctx, query, requestID).Scan(
		&analysis.ID,
		&analysis.RequestID,
		&analysis.TotalCostImpact,
		&analysis.ScheduleImpactDays,
		&analysis.AffectsCriticalPath,
		&workItems,
		&analysis.Summary,
		&riskNotes,
		&analysis.PreparedBy,
		&analysis.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get impact analysis", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get impact analysis: %w", err)
	}

	if err := json.Unmarshal([]byte(workItems), &analysis.AffectedWorkItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal work items: %w", err)
	}
	if err := json.Unmarshal([]byte(riskNotes), &analysis.RiskNotes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal risk notes: %w", err)
	}

	return &analysis, nil
}

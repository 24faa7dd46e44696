package port

import (
	"context"

	"github.com/pmforge/changeflow/internal/domain/entity"
)

// ChangeRequestRepository defines persistence operations for ChangeRequest.
// Implementations own all mutation of the request; the workflow engine only
// ever sees read-only snapshots.
type ChangeRequestRepository interface {
	Create(ctx context.Context, request *entity.ChangeRequest) error
	GetByID(ctx context.Context, id int64) (*entity.ChangeRequest, error)
	// GetByRequestNumber returns nil, nil when no request carries the number
	GetByRequestNumber(ctx context.Context, number string) (*entity.ChangeRequest, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateActuals(ctx context.Context, id int64, costImpact float64, scheduleDays int) error
}

// ApprovalRepository defines persistence operations for ApprovalRecord
type ApprovalRepository interface {
	Create(ctx context.Context, record *entity.ApprovalRecord) error
	GetByRequestID(ctx context.Context, requestID int64) ([]entity.ApprovalRecord, error)
	UpdateStatus(ctx context.Context, id int64, status, comment string) error
}

// HistoryRepository defines persistence operations for the audit trail
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.ChangeHistory) error
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.ChangeHistory, error)
}

type AnalysisRepository interface {
	Create(ctx context.Context, analysis *entity.ImpactAnalysis) error
	GetLatestByRequestID(ctx context.Context, requestID int64) (*entity.ImpactAnalysis, error)
}

// TransactionManager runs a function within a storage transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

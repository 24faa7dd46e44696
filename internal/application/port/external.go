package port

import (
	"context"

	"github.com/pmforge/changeflow/internal/domain/entity"
)

// Notifier delivers workflow notifications. Called only from rule
// side-effect procedures; retry policy belongs to the implementation.
type Notifier interface {
	// NotifyApprovers asks the listed roles or approvers to act on the request
	NotifyApprovers(ctx context.Context, request *entity.ChangeRequest, recipients []string, message string) error

	// NotifyRequester informs the requester of a lifecycle outcome
	NotifyRequester(ctx context.Context, request *entity.ChangeRequest, message string) error
}

// RecordExporter writes a change-record document for a closed request
type RecordExporter interface {
	Export(ctx context.Context, request *entity.ChangeRequest) (path string, err error)
}

// ImpactAssessor drafts an impact analysis from request fields and any
// supporting document text
type ImpactAssessor interface {
	Assess(ctx context.Context, request *entity.ChangeRequest, supportingText string) (*entity.ImpactAnalysis, error)
}

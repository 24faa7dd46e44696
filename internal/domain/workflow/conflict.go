package workflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/pmforge/changeflow/internal/domain/entity"
	"go.uber.org/zap"
)

// DefaultConflictWindow is the span within which two independent approval
// decisions are considered concurrent. Fixed for now; product owners may
// want this configurable per organization.
const DefaultConflictWindow = 5 * time.Minute

// Resolution values derived from a batch of approval decisions
const (
	ResolutionApprove = "approve"
	ResolutionReject  = "reject"
	ResolutionPending = "pending"
)

// ApprovalDecision is one timestamped decision collected by the caller
type ApprovalDecision struct {
	ApproverID string    `json:"approver_id"`
	Decision   string    `json:"decision"` // approve or reject
	Timestamp  time.Time `json:"timestamp"`
}

// ConflictResolution reports detected concurrency conflicts and the single
// derived outcome
type ConflictResolution struct {
	Conflicts  []string `json:"conflicts"`
	Resolution string   `json:"resolution"`
}

// ConflictResolver derives a single outcome from concurrently collected
// approval decisions. It is a pure function over an already-collected batch;
// real-time serialization of decision writes belongs to the persistence
// layer.
type ConflictResolver struct {
	window time.Duration
	logger *zap.Logger
}

// NewConflictResolver creates a resolver using the default conflict window
func NewConflictResolver(logger *zap.Logger) *ConflictResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictResolver{
		window: DefaultConflictWindow,
		logger: logger,
	}
}

// Resolve sorts decisions by timestamp, reports each adjacent pair decided
// within the conflict window, and derives the outcome: any reject wins
// outright; unanimous approval wins only once every pending approver has
// responded; anything else stays pending.
func (cr *ConflictResolver) Resolve(request *entity.ChangeRequest, decisions []ApprovalDecision) ConflictResolution {
	result := ConflictResolution{Conflicts: []string{}, Resolution: ResolutionPending}
	if len(decisions) == 0 {
		return result
	}

	sorted := append([]ApprovalDecision(nil), decisions...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	// Pairwise, not transitive: three decisions each within the window of
	// their neighbor produce two conflict entries.
	for i := 1; i < len(sorted); i++ {
		delta := sorted[i].Timestamp.Sub(sorted[i-1].Timestamp)
		if delta < cr.window {
			result.Conflicts = append(result.Conflicts,
				fmt.Sprintf("concurrent decisions by %s and %s within %s",
					sorted[i-1].ApproverID, sorted[i].ApproverID, delta.Round(time.Second)))
		}
	}

	rejected := false
	approvals := 0
	for _, d := range sorted {
		switch d.Decision {
		case ResolutionReject:
			rejected = true
		case ResolutionApprove:
			approvals++
		}
	}

	switch {
	case rejected:
		// A single rejection vetoes unanimous approval.
		result.Resolution = ResolutionReject
	case approvals == len(sorted) && len(sorted) == len(request.PendingApprovals):
		result.Resolution = ResolutionApprove
	default:
		result.Resolution = ResolutionPending
	}

	if len(result.Conflicts) > 0 {
		cr.logger.Warn("Concurrent approval decisions detected",
			zap.Int64("request_id", request.ID),
			zap.Int("conflicts", len(result.Conflicts)),
			zap.String("resolution", result.Resolution))
	}

	return result
}

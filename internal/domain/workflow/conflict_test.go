package workflow

import (
	"testing"
	"time"

	"github.com/pmforge/changeflow/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithPendingApprovals(n int) *entity.ChangeRequest {
	req := &entity.ChangeRequest{ID: 7, Status: string(StateApprovalPending)}
	for i := 0; i < n; i++ {
		req.PendingApprovals = append(req.PendingApprovals, entity.ApprovalRecord{
			ApproverName: string(rune('A' + i)),
			StepNumber:   i + 1,
			Status:       entity.ApprovalStatusPending,
		})
	}
	return req
}

func TestConflictResolver_RejectOverridesWithinWindow(t *testing.T) {
	resolver := NewConflictResolver(nil)
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	result := resolver.Resolve(requestWithPendingApprovals(2), []ApprovalDecision{
		{ApproverID: "A", Decision: ResolutionApprove, Timestamp: t0},
		{ApproverID: "B", Decision: ResolutionReject, Timestamp: t0.Add(time.Minute)},
	})

	assert.Equal(t, ResolutionReject, result.Resolution)
	require.Len(t, result.Conflicts, 1)
	assert.Contains(t, result.Conflicts[0], "A")
	assert.Contains(t, result.Conflicts[0], "B")
}

func TestConflictResolver_UnanimousApprovalOutsideWindow(t *testing.T) {
	resolver := NewConflictResolver(nil)
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	result := resolver.Resolve(requestWithPendingApprovals(2), []ApprovalDecision{
		{ApproverID: "A", Decision: ResolutionApprove, Timestamp: t0},
		{ApproverID: "B", Decision: ResolutionApprove, Timestamp: t0.Add(10 * time.Minute)},
	})

	assert.Equal(t, ResolutionApprove, result.Resolution)
	assert.Empty(t, result.Conflicts)
}

func TestConflictResolver_IncompleteApprovalsStayPending(t *testing.T) {
	resolver := NewConflictResolver(nil)
	t0 := time.Now()

	// Two approvals collected, three approvers required.
	result := resolver.Resolve(requestWithPendingApprovals(3), []ApprovalDecision{
		{ApproverID: "A", Decision: ResolutionApprove, Timestamp: t0},
		{ApproverID: "B", Decision: ResolutionApprove, Timestamp: t0.Add(20 * time.Minute)},
	})

	assert.Equal(t, ResolutionPending, result.Resolution)
}

func TestConflictResolver_PairwiseNotTransitive(t *testing.T) {
	resolver := NewConflictResolver(nil)
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// Three decisions, each within 5 minutes of its neighbor: two conflict
	// entries, not three.
	result := resolver.Resolve(requestWithPendingApprovals(3), []ApprovalDecision{
		{ApproverID: "C", Decision: ResolutionApprove, Timestamp: t0.Add(8 * time.Minute)},
		{ApproverID: "A", Decision: ResolutionApprove, Timestamp: t0},
		{ApproverID: "B", Decision: ResolutionApprove, Timestamp: t0.Add(4 * time.Minute)},
	})

	assert.Len(t, result.Conflicts, 2)
}

func TestConflictResolver_SingleRejectVetoesUnanimousApproval(t *testing.T) {
	resolver := NewConflictResolver(nil)
	t0 := time.Now()

	result := resolver.Resolve(requestWithPendingApprovals(3), []ApprovalDecision{
		{ApproverID: "A", Decision: ResolutionApprove, Timestamp: t0},
		{ApproverID: "B", Decision: ResolutionApprove, Timestamp: t0.Add(10 * time.Minute)},
		{ApproverID: "C", Decision: ResolutionReject, Timestamp: t0.Add(20 * time.Minute)},
	})

	assert.Equal(t, ResolutionReject, result.Resolution)
}

func TestConflictResolver_NoDecisions(t *testing.T) {
	resolver := NewConflictResolver(nil)

	result := resolver.Resolve(requestWithPendingApprovals(2), nil)

	assert.Equal(t, ResolutionPending, result.Resolution)
	assert.Empty(t, result.Conflicts)
}

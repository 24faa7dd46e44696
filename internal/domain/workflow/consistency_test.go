package workflow

import (
	"testing"
	"time"

	"github.com/pmforge/changeflow/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsistencyChecker_CostDiscrepancy(t *testing.T) {
	checker := NewConsistencyChecker(nil)
	request := &entity.ChangeRequest{ID: 1, EstimatedCostImpact: 10000, Priority: entity.PriorityMedium}

	report := checker.Check(request, &entity.ImpactAnalysis{TotalCostImpact: 20000})
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "cost impact")
	assert.Len(t, report.Recommendations, 1)
	assert.False(t, report.CanProceed)

	// Delta of 4000 is within the 5000 tolerance.
	report = checker.Check(request, &entity.ImpactAnalysis{TotalCostImpact: 14000})
	assert.Empty(t, report.Issues)
	assert.True(t, report.CanProceed)
}

func TestConsistencyChecker_ScheduleDiscrepancy(t *testing.T) {
	checker := NewConsistencyChecker(nil)
	request := &entity.ChangeRequest{EstimatedScheduleDays: 10, Priority: entity.PriorityMedium}

	report := checker.Check(request, &entity.ImpactAnalysis{ScheduleImpactDays: 20})
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "schedule impact")

	report = checker.Check(request, &entity.ImpactAnalysis{ScheduleImpactDays: 14})
	assert.Empty(t, report.Issues)
}

func TestConsistencyChecker_CriticalPathLowPriority(t *testing.T) {
	checker := NewConsistencyChecker(nil)
	request := &entity.ChangeRequest{Priority: entity.PriorityLow}

	report := checker.Check(request, &entity.ImpactAnalysis{AffectsCriticalPath: true})
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "critical path")

	request.Priority = entity.PriorityHigh
	report = checker.Check(request, &entity.ImpactAnalysis{AffectsCriticalPath: true})
	assert.Empty(t, report.Issues)
}

func TestConsistencyChecker_OverdueApprovalsWithoutAnalysis(t *testing.T) {
	checker := NewConsistencyChecker(nil)
	request := &entity.ChangeRequest{
		Priority: entity.PriorityMedium,
		PendingApprovals: []entity.ApprovalRecord{
			{ApproverName: "A", Status: entity.ApprovalStatusPending, DueDate: time.Now().Add(-48 * time.Hour)},
			{ApproverName: "B", Status: entity.ApprovalStatusPending, DueDate: time.Now().Add(48 * time.Hour)},
			{ApproverName: "C", Status: entity.ApprovalStatusApproved, DueDate: time.Now().Add(-48 * time.Hour)},
		},
	}

	report := checker.Check(request, nil)

	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "1 approval(s)")
	assert.Len(t, report.Recommendations, 1)
	assert.False(t, report.CanProceed)
}

func TestConsistencyChecker_IssuesAndRecommendationsPaired(t *testing.T) {
	checker := NewConsistencyChecker(nil)
	request := &entity.ChangeRequest{
		EstimatedCostImpact:   1000,
		EstimatedScheduleDays: 1,
		Priority:              entity.PriorityLow,
		PendingApprovals: []entity.ApprovalRecord{
			{Status: entity.ApprovalStatusPending, DueDate: time.Now().Add(-time.Hour)},
		},
	}
	analysis := &entity.ImpactAnalysis{
		TotalCostImpact:     20000,
		ScheduleImpactDays:  30,
		AffectsCriticalPath: true,
	}

	report := checker.Check(request, analysis)

	assert.Len(t, report.Issues, 4)
	assert.Len(t, report.Recommendations, 4)
	assert.False(t, report.CanProceed)
}

package workflow

import (
	"fmt"
	"math"
	"time"

	"github.com/pmforge/changeflow/internal/domain/entity"
	"go.uber.org/zap"
)

// Discrepancy thresholds between self-reported estimates and the detailed
// impact analysis
const (
	costDiscrepancyLimit     = 5000.0
	scheduleDiscrepancyLimit = 5 // days
)

// ConsistencyReport lists detected issues with paired recommendations.
// CanProceed is advisory aggregation only; the engine does not enforce it.
type ConsistencyReport struct {
	Issues          []string `json:"issues"`
	CanProceed      bool     `json:"can_proceed"`
	Recommendations []string `json:"recommendations"`
}

// ConsistencyChecker cross-validates a change request's own estimates
// against a detailed impact analysis and flags overdue approvals
type ConsistencyChecker struct {
	logger *zap.Logger
}

// NewConsistencyChecker creates a new consistency checker
func NewConsistencyChecker(logger *zap.Logger) *ConsistencyChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsistencyChecker{logger: logger}
}

// Check evaluates the request against the analysis (which may be nil) and
// the current clock. Each flagged issue carries a paired recommendation.
func (cc *ConsistencyChecker) Check(request *entity.ChangeRequest, analysis *entity.ImpactAnalysis) ConsistencyReport {
	report := ConsistencyReport{Issues: []string{}, Recommendations: []string{}}

	if analysis != nil {
		costDelta := math.Abs(request.EstimatedCostImpact - analysis.TotalCostImpact)
		if costDelta > costDiscrepancyLimit {
			report.Issues = append(report.Issues,
				fmt.Sprintf("estimated cost impact %.2f differs from analyzed cost impact %.2f by %.2f",
					request.EstimatedCostImpact, analysis.TotalCostImpact, costDelta))
			report.Recommendations = append(report.Recommendations,
				"Reconcile the cost estimate with the impact analysis before approval")
		}

		scheduleDelta := request.EstimatedScheduleDays - analysis.ScheduleImpactDays
		if scheduleDelta < 0 {
			scheduleDelta = -scheduleDelta
		}
		if scheduleDelta > scheduleDiscrepancyLimit {
			report.Issues = append(report.Issues,
				fmt.Sprintf("estimated schedule impact %d days differs from analyzed impact %d days",
					request.EstimatedScheduleDays, analysis.ScheduleImpactDays))
			report.Recommendations = append(report.Recommendations,
				"Review the schedule estimate against the detailed analysis")
		}

		if analysis.AffectsCriticalPath && request.Priority == entity.PriorityLow {
			report.Issues = append(report.Issues,
				"change affects the critical path but is marked low priority")
			report.Recommendations = append(report.Recommendations,
				"Raise the priority or document why a critical-path change can wait")
		}
	}

	now := time.Now()
	overdue := 0
	for i := range request.PendingApprovals {
		if request.PendingApprovals[i].IsOverdue(now) {
			overdue++
		}
	}
	if overdue > 0 {
		report.Issues = append(report.Issues,
			fmt.Sprintf("%d approval(s) past due date and still pending", overdue))
		report.Recommendations = append(report.Recommendations,
			"Send reminders to overdue approvers or escalate")
	}

	report.CanProceed = len(report.Issues) == 0

	if !report.CanProceed {
		cc.logger.Info("Consistency issues detected",
			zap.Int64("request_id", request.ID),
			zap.Int("issues", len(report.Issues)))
	}
	return report
}

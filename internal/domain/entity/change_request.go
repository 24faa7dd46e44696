package entity

import "time"

// ChangeRequest represents a single change request moving through the
// approval lifecycle. The workflow engine only reads it; persistence owns
// all mutation.
type ChangeRequest struct {
	ID                    int64            `json:"id"`
	RequestNumber         string           `json:"request_number"`
	Title                 string           `json:"title"`
	Description           string           `json:"description"`
	Justification         string           `json:"justification"`
	Status                string           `json:"status"` // workflow.State as string
	Priority              string           `json:"priority"`
	RequestedBy           string           `json:"requested_by"`
	Department            string           `json:"department"`
	EstimatedCostImpact   float64          `json:"estimated_cost_impact"`
	ActualCostImpact      float64          `json:"actual_cost_impact"`
	EstimatedScheduleDays int              `json:"estimated_schedule_impact_days"`
	ActualScheduleDays    int              `json:"actual_schedule_impact_days"`
	PendingApprovals      []ApprovalRecord `json:"pending_approvals"`
	SubmissionTime        time.Time        `json:"submission_time"`
	ApprovalTime          *time.Time       `json:"approval_time,omitempty"`
	ClosedAt              *time.Time       `json:"closed_at,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// ApprovalRecord represents one step in the approval chain of a change request.
type ApprovalRecord struct {
	ID           int64      `json:"id"`
	RequestID    int64      `json:"request_id"`
	ApproverName string     `json:"approver_name"`
	ApproverRole string     `json:"approver_role"`
	StepNumber   int        `json:"step_number"`
	DueDate      time.Time  `json:"due_date"`
	Status       string     `json:"status"` // pending, waiting, overdue, approved, rejected
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	Comment      string     `json:"comment,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsDecided returns true once the approver has recorded a decision.
func (a *ApprovalRecord) IsDecided() bool {
	return a.Status == ApprovalStatusApproved || a.Status == ApprovalStatusRejected
}

// IsOverdue returns true if the approval is still open past its due date.
func (a *ApprovalRecord) IsOverdue(now time.Time) bool {
	return a.Status == ApprovalStatusPending && a.DueDate.Before(now)
}

// ImpactAnalysis holds the detailed impact assessment attached to a change
// request, either authored by an analyst or drafted by the AI assessor.
type ImpactAnalysis struct {
	ID                  int64     `json:"id"`
	RequestID           int64     `json:"request_id"`
	TotalCostImpact     float64   `json:"total_cost_impact"`
	ScheduleImpactDays  int       `json:"schedule_impact_days"`
	AffectsCriticalPath bool      `json:"affects_critical_path"`
	AffectedWorkItems   []string  `json:"affected_work_items,omitempty"`
	Summary             string    `json:"summary"`
	RiskNotes           []string  `json:"risk_notes,omitempty"`
	PreparedBy          string    `json:"prepared_by"`
	CreatedAt           time.Time `json:"created_at"`
}

// ChangeHistory is one row of the audit trail for a change request.
type ChangeHistory struct {
	ID             int64     `json:"id"`
	RequestID      int64     `json:"request_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Action         string    `json:"action"`
	ActorID        string    `json:"actor_id"`
	ActionData     string    `json:"action_data"` // JSON blob
	CreatedAt      time.Time `json:"created_at"`
}

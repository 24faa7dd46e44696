package workflow

import (
	"github.com/pmforge/changeflow/internal/domain/entity"
	"go.uber.org/zap"
)

// Escalation roles
const (
	RoleProjectManager      = "Project Manager"
	RoleEngineeringDirector = "Engineering Director"
	RoleOperationsManager   = "Operations Manager"
	RoleExecutiveDirector   = "Executive Director"
	RoleDepartmentHead      = "Department Head"
	ApprovalEmergency       = "Emergency Approval Authority"
	ApprovalExecutive       = "Executive Approval"
)

// executiveCostThreshold is the cost impact above which an emergency change
// additionally requires executive sign-off
const executiveCostThreshold = 50000.0

// EscalationPlan names who to involve and how fast they must respond
type EscalationPlan struct {
	EscalationPath    []string `json:"escalation_path"`
	RequiredApprovals []string `json:"required_approvals"`
	Timeframe         string   `json:"timeframe"`
}

// EscalationPlanner derives an escalation chain from a request's priority
// and cost magnitude
type EscalationPlanner struct {
	logger *zap.Logger
}

// NewEscalationPlanner creates a new escalation planner
func NewEscalationPlanner(logger *zap.Logger) *EscalationPlanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscalationPlanner{logger: logger}
}

// Plan computes the escalation path, required approval roles and response
// budget for the request
func (ep *EscalationPlanner) Plan(request *entity.ChangeRequest) EscalationPlan {
	plan := EscalationPlan{
		EscalationPath:    []string{},
		RequiredApprovals: []string{},
		Timeframe:         "24 hours",
	}

	switch request.Priority {
	case entity.PriorityEmergency:
		plan.EscalationPath = []string{RoleProjectManager, RoleEngineeringDirector, RoleOperationsManager}
		plan.RequiredApprovals = []string{ApprovalEmergency}
		plan.Timeframe = "4 hours"
		if request.EstimatedCostImpact > executiveCostThreshold {
			plan.EscalationPath = append(plan.EscalationPath, RoleExecutiveDirector)
			plan.RequiredApprovals = append(plan.RequiredApprovals, ApprovalExecutive)
			plan.Timeframe = "2 hours"
		}
		ep.logger.Info("Emergency escalation planned",
			zap.Int64("request_id", request.ID),
			zap.Float64("cost_impact", request.EstimatedCostImpact),
			zap.String("timeframe", plan.Timeframe))
	case entity.PriorityCritical:
		plan.EscalationPath = []string{RoleProjectManager, RoleDepartmentHead}
		plan.Timeframe = "12 hours"
	}

	return plan
}

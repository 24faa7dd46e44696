package workflow

import (
	"testing"

	"github.com/pmforge/changeflow/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscalationPlanner_EmergencyHighCost(t *testing.T) {
	planner := NewEscalationPlanner(nil)

	plan := planner.Plan(&entity.ChangeRequest{
		Priority:            entity.PriorityEmergency,
		EstimatedCostImpact: 60000,
	})

	require.Len(t, plan.EscalationPath, 4)
	assert.Equal(t, RoleExecutiveDirector, plan.EscalationPath[3])
	assert.Equal(t, []string{ApprovalEmergency, ApprovalExecutive}, plan.RequiredApprovals)
	assert.Equal(t, "2 hours", plan.Timeframe)
}

func TestEscalationPlanner_EmergencyLowCost(t *testing.T) {
	planner := NewEscalationPlanner(nil)

	plan := planner.Plan(&entity.ChangeRequest{
		Priority:            entity.PriorityEmergency,
		EstimatedCostImpact: 1000,
	})

	assert.Equal(t, []string{RoleProjectManager, RoleEngineeringDirector, RoleOperationsManager}, plan.EscalationPath)
	assert.Equal(t, []string{ApprovalEmergency}, plan.RequiredApprovals)
	assert.Equal(t, "4 hours", plan.Timeframe)
}

func TestEscalationPlanner_Critical(t *testing.T) {
	planner := NewEscalationPlanner(nil)

	plan := planner.Plan(&entity.ChangeRequest{Priority: entity.PriorityCritical})

	assert.Equal(t, []string{RoleProjectManager, RoleDepartmentHead}, plan.EscalationPath)
	assert.Empty(t, plan.RequiredApprovals)
	assert.Equal(t, "12 hours", plan.Timeframe)
}

func TestEscalationPlanner_DefaultPriorities(t *testing.T) {
	planner := NewEscalationPlanner(nil)

	for _, priority := range []string{entity.PriorityLow, entity.PriorityMedium, entity.PriorityHigh} {
		plan := planner.Plan(&entity.ChangeRequest{Priority: priority})

		assert.Empty(t, plan.EscalationPath, priority)
		assert.Empty(t, plan.RequiredApprovals, priority)
		assert.Equal(t, "24 hours", plan.Timeframe, priority)
	}
}

package workflow

import (
	"testing"

	"github.com/pmforge/changeflow/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestProgress_FirstAndLastStates(t *testing.T) {
	report := Progress(&entity.ChangeRequest{Status: string(StateDraft)})
	assert.Equal(t, 0, report.ProgressPercentage)
	assert.Empty(t, report.CompletedSteps)
	assert.Len(t, report.NextSteps, 10)

	report = Progress(&entity.ChangeRequest{Status: string(StateClosure)})
	assert.Equal(t, 100, report.ProgressPercentage)
	assert.Len(t, report.CompletedSteps, 10)
	assert.Empty(t, report.NextSteps)
}

func TestProgress_MidPath(t *testing.T) {
	report := Progress(&entity.ChangeRequest{Status: string(StateApproved)})

	assert.Equal(t, StateApproved, report.CurrentStep)
	assert.Equal(t, []State{
		StateDraft, StateValidation, StateImpactAnalysis, StateTechnicalReview,
		StateApprovalRouting, StateApprovalPending,
	}, report.CompletedSteps)
	assert.Equal(t, []State{
		StateImplementationPlanning, StateImplementation, StateVerification, StateClosure,
	}, report.NextSteps)
	// index 6 of 10
	assert.Equal(t, 60, report.ProgressPercentage)
}

func TestProgress_StateOutsideOrderingReportsZero(t *testing.T) {
	for _, status := range []State{StateRejected, StateCancelled} {
		report := Progress(&entity.ChangeRequest{Status: string(status)})

		assert.Equal(t, 0, report.ProgressPercentage, string(status))
		assert.Empty(t, report.CompletedSteps)
		assert.Equal(t, ReferenceOrdering(), report.NextSteps)
	}
}

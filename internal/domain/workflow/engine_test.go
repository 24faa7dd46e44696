package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/pmforge/changeflow/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() *Context {
	return &Context{
		User: User{
			ID:          "u-1",
			Role:        "requester",
			Permissions: []string{"change_submit"},
		},
		Request: &entity.ChangeRequest{
			ID:       1,
			Title:    "Swap load balancer",
			Status:   string(StateDraft),
			Priority: entity.PriorityMedium,
		},
	}
}

func TestEngine_Validate_NoMatchingRule(t *testing.T) {
	engine := NewEngine(nil, nil)

	result := engine.Validate(StateDraft, StateApproved, ActionApprove, testContext())

	assert.False(t, result.OK)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no transition rule defined")
	assert.Contains(t, result.Errors[0], "draft")
	assert.Contains(t, result.Errors[0], "approved")
}

func TestEngine_Validate_NilContext(t *testing.T) {
	engine := NewEngine([]TransitionRule{
		{From: StateDraft, To: StateValidation, Action: ActionSubmit},
	}, nil)

	for _, wctx := range []*Context{nil, {}} {
		result := engine.Validate(StateDraft, StateValidation, ActionSubmit, wctx)
		assert.False(t, result.OK)
		require.Len(t, result.Errors, 1)
	}
}

func TestEngine_Validate_InvalidStates(t *testing.T) {
	engine := NewEngine(nil, nil)

	result := engine.Validate(State("bogus"), StateValidation, ActionSubmit, testContext())
	assert.False(t, result.OK)
	assert.Contains(t, result.Errors[0], "invalid source state")

	result = engine.Validate(StateDraft, State("bogus"), ActionSubmit, testContext())
	assert.False(t, result.OK)
	assert.Contains(t, result.Errors[0], "invalid target state")
}

func TestEngine_Validate_GuardFailureSkipsOnlyThatRule(t *testing.T) {
	secondValidated := false
	engine := NewEngine([]TransitionRule{
		{
			From: StateDraft, To: StateValidation, Action: ActionSubmit,
			Guard: func(*Context) bool { return false },
			Validate: func(*Context) []string {
				t.Fatal("validations must not run after a guard failure")
				return nil
			},
		},
		{
			From: StateDraft, To: StateValidation, Action: ActionSubmit,
			Validate: func(*Context) []string {
				secondValidated = true
				return []string{"title too vague"}
			},
		},
	}, nil)

	result := engine.Validate(StateDraft, StateValidation, ActionSubmit, testContext())

	assert.False(t, result.OK)
	assert.True(t, secondValidated, "other matching rules must still be evaluated")
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "guard condition failed")
	assert.Equal(t, "title too vague", result.Errors[1])
}

func TestEngine_Validate_AllMatchingRulesMustPass(t *testing.T) {
	engine := NewEngine([]TransitionRule{
		{From: StateDraft, To: StateValidation, Action: ActionSubmit,
			Validate: func(*Context) []string { return nil }},
		{From: StateDraft, To: StateValidation, Action: ActionSubmit,
			Validate: func(*Context) []string { return []string{"missing justification"} }},
	}, nil)

	result := engine.Validate(StateDraft, StateValidation, ActionSubmit, testContext())

	assert.False(t, result.OK)
	assert.Equal(t, []string{"missing justification"}, result.Errors)
}

func TestEngine_Validate_Idempotent(t *testing.T) {
	engine := NewEngine([]TransitionRule{
		{From: StateDraft, To: StateValidation, Action: ActionSubmit,
			Validate: func(*Context) []string { return []string{"nope"} }},
	}, nil)
	wctx := testContext()

	first := engine.Validate(StateDraft, StateValidation, ActionSubmit, wctx)
	second := engine.Validate(StateDraft, StateValidation, ActionSubmit, wctx)

	assert.Equal(t, first, second)
}

func TestEngine_Execute_InvalidLeavesStatusUnchanged(t *testing.T) {
	ran := false
	engine := NewEngine([]TransitionRule{
		{From: StateDraft, To: StateValidation, Action: ActionSubmit,
			Validate:   func(*Context) []string { return []string{"blocked"} },
			SideEffect: func(context.Context, *Context) error { ran = true; return nil }},
	}, nil)

	result := engine.Execute(context.Background(), StateDraft, StateValidation, ActionSubmit, testContext())

	assert.False(t, result.Success)
	assert.Equal(t, StateDraft, result.NewStatus)
	assert.Equal(t, []string{"blocked"}, result.Errors)
	assert.False(t, ran, "side effects must not run on validation failure")
	assert.Empty(t, result.SideEffectsRun)
}

func TestEngine_Execute_UndefinedTripleLeavesStatusUnchanged(t *testing.T) {
	engine := NewEngine(nil, nil)

	result := engine.Execute(context.Background(), StateDraft, StateClosure, ActionVerify, testContext())

	assert.False(t, result.Success)
	assert.Equal(t, StateDraft, result.NewStatus)
	require.Len(t, result.Errors, 1)
}

func TestEngine_Execute_SideEffectsRunSequentiallyInOrder(t *testing.T) {
	var order []string
	engine := NewEngine([]TransitionRule{
		{From: StateDraft, To: StateValidation, Action: ActionSubmit, Name: "notify",
			SideEffect: func(context.Context, *Context) error {
				order = append(order, "notify")
				return nil
			}},
		{From: StateDraft, To: StateValidation, Action: ActionSubmit, Name: "audit",
			SideEffect: func(context.Context, *Context) error {
				order = append(order, "audit")
				return nil
			}},
	}, nil)

	result := engine.Execute(context.Background(), StateDraft, StateValidation, ActionSubmit, testContext())

	assert.True(t, result.Success)
	assert.Equal(t, StateValidation, result.NewStatus)
	assert.Equal(t, []string{"notify", "audit"}, order)
	assert.Equal(t, []string{"notify", "audit"}, result.SideEffectsRun)
}

func TestEngine_Execute_SideEffectFailureIsNotRolledBack(t *testing.T) {
	engine := NewEngine([]TransitionRule{
		{From: StateDraft, To: StateValidation, Action: ActionSubmit, Name: "first",
			SideEffect: func(context.Context, *Context) error { return nil }},
		{From: StateDraft, To: StateValidation, Action: ActionSubmit, Name: "second",
			SideEffect: func(context.Context, *Context) error { return errors.New("smtp down") }},
	}, nil)

	result := engine.Execute(context.Background(), StateDraft, StateValidation, ActionSubmit, testContext())

	assert.False(t, result.Success)
	assert.Equal(t, StateDraft, result.NewStatus)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "second")
	assert.Contains(t, result.Errors[0], "smtp down")
	// the first effect completed and stays completed
	assert.Equal(t, []string{"first"}, result.SideEffectsRun)
}

func TestEngine_AvailableActions_OnlyFromCurrentState(t *testing.T) {
	engine := NewEngine([]TransitionRule{
		{From: StateDraft, To: StateValidation, Action: ActionSubmit},
		{From: StateDraft, To: StateCancelled, Action: ActionCancel,
			Validate: func(*Context) []string { return []string{"only the requester may cancel"} }},
		{From: StateValidation, To: StateImpactAnalysis, Action: ActionCompleteValidation},
	}, nil)

	actions := engine.AvailableActions(StateDraft, testContext())

	require.Len(t, actions, 2)
	for _, a := range actions {
		assert.NotEqual(t, ActionCompleteValidation, a.Action)
	}

	assert.Equal(t, ActionSubmit, actions[0].Action)
	assert.True(t, actions[0].Enabled)
	assert.Empty(t, actions[0].Reason)
	assert.Equal(t, "Submit for validation", actions[0].Description)

	assert.Equal(t, ActionCancel, actions[1].Action)
	assert.False(t, actions[1].Enabled)
	assert.Equal(t, "only the requester may cancel", actions[1].Reason)
}

func TestEngine_AvailableActions_DescriptionFallsBackToName(t *testing.T) {
	engine := NewEngine([]TransitionRule{
		{From: StateDraft, To: StateValidation, Action: Action("defrost")},
	}, nil)

	actions := engine.AvailableActions(StateDraft, testContext())

	require.Len(t, actions, 1)
	assert.Equal(t, "defrost", actions[0].Description)
}

func TestEngine_AvailableActions_SharedTripleReportedOnce(t *testing.T) {
	engine := NewEngine([]TransitionRule{
		{From: StateDraft, To: StateValidation, Action: ActionSubmit},
		{From: StateDraft, To: StateValidation, Action: ActionSubmit,
			Validate: func(*Context) []string { return []string{"incomplete form"} }},
	}, nil)

	actions := engine.AvailableActions(StateDraft, testContext())

	require.Len(t, actions, 1)
	assert.False(t, actions[0].Enabled)
	assert.Equal(t, "incomplete form", actions[0].Reason)
}

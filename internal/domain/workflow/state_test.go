package workflow

import "testing"

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StateValidation, false},
		{StateImpactAnalysis, false},
		{StateTechnicalReview, false},
		{StateApprovalRouting, false},
		{StateApprovalPending, false},
		{StateApproved, false},
		{StateImplementationPlanning, false},
		{StateImplementation, false},
		{StateVerification, false},
		{StateClosure, true},
		{StateRejected, true},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"valid state", StateDraft, true},
		{"valid state", StateClosure, true},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	if got := StateDraft.String(); got != "draft" {
		t.Errorf("State.String() = %v, want %v", got, "draft")
	}
}

func TestReferenceOrdering_ExcludesTerminalBranches(t *testing.T) {
	ordering := ReferenceOrdering()
	if len(ordering) != 11 {
		t.Fatalf("reference ordering has %d states, want 11", len(ordering))
	}
	for _, s := range ordering {
		if s == StateRejected || s == StateCancelled {
			t.Errorf("reference ordering must not contain %s", s)
		}
	}
	if ordering[0] != StateDraft {
		t.Errorf("ordering starts at %s, want draft", ordering[0])
	}
	if ordering[len(ordering)-1] != StateClosure {
		t.Errorf("ordering ends at %s, want closure", ordering[len(ordering)-1])
	}
}

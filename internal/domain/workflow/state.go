package workflow

// State represents a workflow state in the change request lifecycle
type State string

const (
	StateDraft                  State = "draft"
	StateValidation             State = "validation"
	StateImpactAnalysis         State = "impact_analysis"
	StateTechnicalReview        State = "technical_review"
	StateApprovalRouting        State = "approval_routing"
	StateApprovalPending        State = "approval_pending"
	StateApproved               State = "approved"
	StateImplementationPlanning State = "implementation_planning"
	StateImplementation         State = "implementation"
	StateVerification           State = "verification"
	StateClosure                State = "closure"
	StateRejected               State = "rejected"
	StateCancelled              State = "cancelled"
)

var validStates = map[State]bool{
	StateDraft:                  true,
	StateValidation:             true,
	StateImpactAnalysis:         true,
	StateTechnicalReview:        true,
	StateApprovalRouting:        true,
	StateApprovalPending:        true,
	StateApproved:               true,
	StateImplementationPlanning: true,
	StateImplementation:         true,
	StateVerification:           true,
	StateClosure:                true,
	StateRejected:               true,
	StateCancelled:              true,
}

// Terminal on the standard path. cancelled still has a defined reopening
// transition back to draft.
var terminalStates = map[State]bool{
	StateClosure:   true,
	StateRejected:  true,
	StateCancelled: true,
}

// referenceOrdering is the linear happy path used by Progress. rejected and
// cancelled are not positioned on this scale.
var referenceOrdering = []State{
	StateDraft,
	StateValidation,
	StateImpactAnalysis,
	StateTechnicalReview,
	StateApprovalRouting,
	StateApprovalPending,
	StateApproved,
	StateImplementationPlanning,
	StateImplementation,
	StateVerification,
	StateClosure,
}

// IsTerminal returns true if the state ends the standard path
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a member of the closed state set
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

package workflow

import "errors"

var (
	// ErrNilContext is returned when an engine call is made without a
	// context or without a change request snapshot
	ErrNilContext = errors.New("workflow context with change request is required")

	// ErrInvalidState is returned when a state is not a member of the
	// closed state set
	ErrInvalidState = errors.New("invalid workflow state")

	// ErrSideEffectFailed wraps a failure raised inside a rule's
	// side-effect procedure during Execute
	ErrSideEffectFailed = errors.New("side effect failed")
)

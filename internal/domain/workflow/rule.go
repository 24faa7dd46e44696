package workflow

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a rule is eligible to apply for this call
type GuardFunc func(wctx *Context) bool

// ValidateFunc returns human-readable error strings blocking the transition.
// An empty result means the rule's validations pass.
type ValidateFunc func(wctx *Context) []string

// SideEffectFunc runs an external action after a transition is confirmed
// valid. Side effects may perform I/O and must honor ctx.
type SideEffectFunc func(ctx context.Context, wctx *Context) error

// TransitionRule binds a (from, to, action) triple to optional guard,
// validation and side-effect logic. Rules are immutable once registered.
// Multiple rules may share the same triple; every matching rule's
// validations must pass for the transition to be valid.
type TransitionRule struct {
	From   State
	To     State
	Action Action

	// Name identifies the rule in logs and in ExecutionResult.SideEffectsRun.
	// Optional; falls back to the triple.
	Name string

	Guard      GuardFunc
	Validate   ValidateFunc
	SideEffect SideEffectFunc
}

// label returns the rule's name, or the triple when unnamed.
func (r TransitionRule) label() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("%s->%s:%s", r.From, r.To, r.Action)
}

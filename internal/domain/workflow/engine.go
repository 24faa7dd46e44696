package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Engine evaluates change request transitions against a fixed rule table.
// It holds no mutable state: the rule table is copied at construction and
// the engine is safe for concurrent use as long as each call gets its own
// Context and change request snapshot.
type Engine struct {
	rules  []TransitionRule
	logger *zap.Logger
}

// ValidationResult is the verdict for a candidate transition
type ValidationResult struct {
	OK       bool     `json:"ok"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ExecutionResult reports the outcome of executing a transition
type ExecutionResult struct {
	Success        bool     `json:"success"`
	NewStatus      State    `json:"new_status"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
	SideEffectsRun []string `json:"side_effects_run"`
}

// ActionAvailability describes one action a caller could request from the
// current state, and why it is blocked if it is not enabled
type ActionAvailability struct {
	Action      Action `json:"action"`
	To          State  `json:"to"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	Reason      string `json:"reason,omitempty"`
}

// NewEngine creates an engine over a copy of the given rule table
func NewEngine(rules []TransitionRule, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		rules:  append([]TransitionRule(nil), rules...),
		logger: logger,
	}
}

// matchingRules returns every rule for the exact (from, to, action) triple,
// in registration order
func (e *Engine) matchingRules(from, to State, action Action) []TransitionRule {
	var matched []TransitionRule
	for _, r := range e.rules {
		if r.From == from && r.To == to && r.Action == action {
			matched = append(matched, r)
		}
	}
	return matched
}

// Validate checks whether the (from, to, action) transition is permitted for
// the given context. It is a pure function of its inputs and runs no side
// effects. Absence of any matching rule is a validation failure, not an error.
func (e *Engine) Validate(from, to State, action Action, wctx *Context) ValidationResult {
	result := ValidationResult{Errors: []string{}, Warnings: []string{}}

	if wctx == nil || wctx.Request == nil {
		result.Errors = append(result.Errors, ErrNilContext.Error())
		return result
	}
	if !from.IsValid() {
		result.Errors = append(result.Errors, fmt.Sprintf("invalid source state: %s", from))
		return result
	}
	if !to.IsValid() {
		result.Errors = append(result.Errors, fmt.Sprintf("invalid target state: %s", to))
		return result
	}

	matched := e.matchingRules(from, to, action)
	if len(matched) == 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("no transition rule defined for %s -> %s via %s", from, to, action))
		return result
	}

	for _, rule := range matched {
		// A failed guard blocks this rule's validations only; other
		// matching rules are still evaluated independently.
		if rule.Guard != nil && !rule.Guard(wctx) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("guard condition failed for %s -> %s via %s", from, to, action))
			continue
		}
		if rule.Validate != nil {
			result.Errors = append(result.Errors, rule.Validate(wctx)...)
		}
	}

	result.OK = len(result.Errors) == 0
	return result
}

// Execute validates the transition and, when valid, runs the side effects of
// every matching rule strictly in registration order, each awaited to
// completion before the next. Side effects are not transactional: when one
// fails, effects already run are not rolled back and the caller must treat
// the request as needing manual reconciliation.
func (e *Engine) Execute(ctx context.Context, from, to State, action Action, wctx *Context) ExecutionResult {
	result := ExecutionResult{
		NewStatus:      from,
		Errors:         []string{},
		Warnings:       []string{},
		SideEffectsRun: []string{},
	}

	validation := e.Validate(from, to, action, wctx)
	result.Warnings = validation.Warnings
	if !validation.OK {
		result.Errors = validation.Errors
		e.logger.Debug("Transition rejected",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
			zap.String("action", action.String()),
			zap.Strings("errors", validation.Errors))
		return result
	}

	for _, rule := range e.matchingRules(from, to, action) {
		if rule.SideEffect == nil {
			continue
		}
		if err := rule.SideEffect(ctx, wctx); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: %s: %v", ErrSideEffectFailed.Error(), rule.label(), err))
			e.logger.Error("Side effect failed, transition aborted without rollback",
				zap.String("rule", rule.label()),
				zap.Strings("side_effects_run", result.SideEffectsRun),
				zap.Error(err))
			return result
		}
		result.SideEffectsRun = append(result.SideEffectsRun, rule.label())
	}

	result.Success = true
	result.NewStatus = to
	e.logger.Info("Transition executed",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.String("action", action.String()),
		zap.Int("side_effects", len(result.SideEffectsRun)))
	return result
}

// AvailableActions reports, for every rule leaving the current state, whether
// the action would pass validation right now and the first blocking reason if
// not. It is read-only introspection; callers must still re-validate at
// execution time because the context may change in between.
func (e *Engine) AvailableActions(current State, wctx *Context) []ActionAvailability {
	var out []ActionAvailability
	seen := make(map[string]bool)

	for _, rule := range e.rules {
		if rule.From != current {
			continue
		}
		key := string(rule.Action) + "|" + string(rule.To)
		if seen[key] {
			continue
		}
		seen[key] = true

		availability := ActionAvailability{
			Action:      rule.Action,
			To:          rule.To,
			Description: rule.Action.Describe(),
		}
		validation := e.Validate(rule.From, rule.To, rule.Action, wctx)
		availability.Enabled = validation.OK
		if !validation.OK && len(validation.Errors) > 0 {
			availability.Reason = validation.Errors[0]
		}
		out = append(out, availability)
	}

	return out
}

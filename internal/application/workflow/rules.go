package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pmforge/changeflow/internal/application/port"
	"github.com/pmforge/changeflow/internal/domain/entity"
	domainwf "github.com/pmforge/changeflow/internal/domain/workflow"
	"go.uber.org/zap"
)

// ExportRuleName identifies the closure rule that writes the change record.
// The service watches for it in ExecutionResult.SideEffectsRun to emit the
// record-exported event.
const ExportRuleName = "export-record"

// RuleDeps carries the collaborators rule side effects are allowed to call.
// The engine itself never touches them outside a confirmed-valid Execute.
type RuleDeps struct {
	Notifier port.Notifier
	Exporter port.RecordExporter
	Planner  *domainwf.EscalationPlanner
	Logger   *zap.Logger
}

// BuildChangeRequestRules assembles the full transition table for the change
// request lifecycle: the linear happy path, the emergency fast-track,
// escalation re-routing, cancellation and reopening. The table is plain data;
// adding a transition means appending a rule, never touching dispatch logic.
func BuildChangeRequestRules(deps RuleDeps) []domainwf.TransitionRule {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	planner := deps.Planner
	if planner == nil {
		planner = domainwf.NewEscalationPlanner(logger)
	}

	rules := []domainwf.TransitionRule{
		{
			From: domainwf.StateDraft, To: domainwf.StateValidation, Action: domainwf.ActionSubmit,
			Name:     "submit",
			Guard:    permissionGuard(domainwf.ActionSubmit),
			Validate: validateDraftComplete,
			SideEffect: func(ctx context.Context, wctx *domainwf.Context) error {
				return deps.Notifier.NotifyApprovers(ctx, wctx.Request,
					[]string{"Change Coordinator"},
					fmt.Sprintf("Change request %s submitted for validation", wctx.Request.RequestNumber))
			},
		},
		{
			From: domainwf.StateValidation, To: domainwf.StateImpactAnalysis, Action: domainwf.ActionCompleteValidation,
			Name:     "complete-validation",
			Guard:    permissionGuard(domainwf.ActionCompleteValidation),
			Validate: validateEstimatesPresent,
		},
		{
			From: domainwf.StateImpactAnalysis, To: domainwf.StateTechnicalReview, Action: domainwf.ActionCompleteAnalysis,
			Name:  "complete-analysis",
			Guard: permissionGuard(domainwf.ActionCompleteAnalysis),
			Validate: func(wctx *domainwf.Context) []string {
				if wctx.ImpactAnalysis == nil {
					return []string{"a detailed impact analysis must be attached before technical review"}
				}
				return nil
			},
		},
		{
			From: domainwf.StateTechnicalReview, To: domainwf.StateApprovalRouting, Action: domainwf.ActionCompleteReview,
			Name:  "complete-review",
			Guard: permissionGuard(domainwf.ActionCompleteReview),
		},
		{
			From: domainwf.StateApprovalRouting, To: domainwf.StateApprovalPending, Action: domainwf.ActionRouteApprovals,
			Name:     "route-approvals",
			Guard:    permissionGuard(domainwf.ActionRouteApprovals),
			Validate: validateApprovalChain,
			SideEffect: func(ctx context.Context, wctx *domainwf.Context) error {
				recipients := make([]string, 0, len(wctx.Request.PendingApprovals))
				for _, rec := range wctx.Request.PendingApprovals {
					recipients = append(recipients, rec.ApproverName)
				}
				return deps.Notifier.NotifyApprovers(ctx, wctx.Request, recipients,
					fmt.Sprintf("Change request %s awaits your approval", wctx.Request.RequestNumber))
			},
		},
		{
			From: domainwf.StateApprovalPending, To: domainwf.StateApproved, Action: domainwf.ActionApprove,
			Name:     "approve",
			Guard:    permissionGuard(domainwf.ActionApprove),
			Validate: validateApproverEligible,
			SideEffect: func(ctx context.Context, wctx *domainwf.Context) error {
				return deps.Notifier.NotifyRequester(ctx, wctx.Request,
					fmt.Sprintf("Change request %s has been approved", wctx.Request.RequestNumber))
			},
		},
		{
			From: domainwf.StateApprovalPending, To: domainwf.StateRejected, Action: domainwf.ActionReject,
			Name:  "reject",
			Guard: permissionGuard(domainwf.ActionReject),
			Validate: func(wctx *domainwf.Context) []string {
				errs := validateApproverEligible(wctx)
				if reason, _ := wctx.Metadata["reason"].(string); strings.TrimSpace(reason) == "" {
					errs = append(errs, "a rejection reason is required")
				}
				return errs
			},
			SideEffect: func(ctx context.Context, wctx *domainwf.Context) error {
				reason, _ := wctx.Metadata["reason"].(string)
				return deps.Notifier.NotifyRequester(ctx, wctx.Request,
					fmt.Sprintf("Change request %s was rejected: %s", wctx.Request.RequestNumber, reason))
			},
		},

		// Emergency fast-track straight from draft to approved. Restricted to
		// emergency-priority requests decided by holders of the emergency
		// approval permission.
		{
			From: domainwf.StateDraft, To: domainwf.StateApproved, Action: domainwf.ActionApprove,
			Name: "fast-track-approve",
			Guard: func(wctx *domainwf.Context) bool {
				return wctx.Request.Priority == entity.PriorityEmergency &&
					wctx.User.HasPermission("change_approve_emergency")
			},
			Validate: func(wctx *domainwf.Context) []string {
				var errs []string
				if !strings.Contains(wctx.Request.Justification, "EMERGENCY") {
					errs = append(errs, "emergency fast-track requires an EMERGENCY justification")
				}
				if strings.TrimSpace(wctx.Request.Title) == "" {
					errs = append(errs, "title is required")
				}
				return errs
			},
			SideEffect: func(ctx context.Context, wctx *domainwf.Context) error {
				plan := planner.Plan(wctx.Request)
				logger.Warn("Emergency fast-track executed",
					zap.Int64("request_id", wctx.Request.ID),
					zap.String("approved_by", wctx.User.ID),
					zap.String("timeframe", plan.Timeframe))
				return deps.Notifier.NotifyApprovers(ctx, wctx.Request, plan.EscalationPath,
					fmt.Sprintf("EMERGENCY change %s fast-track approved by %s; respond within %s",
						wctx.Request.RequestNumber, wctx.User.ID, plan.Timeframe))
			},
		},

		// Escalation re-routes a stuck approval back to routing with an
		// expedited chain.
		{
			From: domainwf.StateApprovalPending, To: domainwf.StateApprovalRouting, Action: domainwf.ActionEscalate,
			Name:     "escalate",
			Guard:    permissionGuard(domainwf.ActionEscalate),
			Validate: validateEscalationJustified,
			SideEffect: func(ctx context.Context, wctx *domainwf.Context) error {
				plan := planner.Plan(wctx.Request)
				recipients := plan.EscalationPath
				if len(recipients) == 0 {
					recipients = []string{domainwf.RoleProjectManager}
				}
				return deps.Notifier.NotifyApprovers(ctx, wctx.Request, recipients,
					fmt.Sprintf("Change request %s escalated; response expected within %s",
						wctx.Request.RequestNumber, plan.Timeframe))
			},
		},

		{
			From: domainwf.StateApproved, To: domainwf.StateImplementationPlanning, Action: domainwf.ActionPlanImplementation,
			Name:  "plan-implementation",
			Guard: permissionGuard(domainwf.ActionPlanImplementation),
		},
		{
			From: domainwf.StateImplementationPlanning, To: domainwf.StateImplementation, Action: domainwf.ActionStartWork,
			Name:  "start-work",
			Guard: permissionGuard(domainwf.ActionStartWork),
		},
		{
			From: domainwf.StateImplementation, To: domainwf.StateVerification, Action: domainwf.ActionCompleteWork,
			Name:  "complete-work",
			Guard: permissionGuard(domainwf.ActionCompleteWork),
			Validate: func(wctx *domainwf.Context) []string {
				if wctx.Request.ActualCostImpact == 0 && wctx.Request.ActualScheduleDays == 0 {
					return []string{"actual cost and schedule impact must be recorded before verification"}
				}
				return nil
			},
		},

		// Two rules share the closure triple: the record export must finish
		// before the closure notice goes out.
		{
			From: domainwf.StateVerification, To: domainwf.StateClosure, Action: domainwf.ActionVerify,
			Name:  ExportRuleName,
			Guard: permissionGuard(domainwf.ActionVerify),
			SideEffect: func(ctx context.Context, wctx *domainwf.Context) error {
				if deps.Exporter == nil {
					return nil
				}
				path, err := deps.Exporter.Export(ctx, wctx.Request)
				if err != nil {
					return err
				}
				logger.Info("Change record exported",
					zap.Int64("request_id", wctx.Request.ID),
					zap.String("path", path))
				return nil
			},
		},
		{
			From: domainwf.StateVerification, To: domainwf.StateClosure, Action: domainwf.ActionVerify,
			Name: "closure-notice",
			SideEffect: func(ctx context.Context, wctx *domainwf.Context) error {
				return deps.Notifier.NotifyRequester(ctx, wctx.Request,
					fmt.Sprintf("Change request %s is verified and closed", wctx.Request.RequestNumber))
			},
		},

		// Reopening a cancelled request restarts it as a draft.
		{
			From: domainwf.StateCancelled, To: domainwf.StateDraft, Action: domainwf.ActionReopen,
			Name:  "reopen",
			Guard: requesterOrAdminGuard,
		},
	}

	// Cancellation is allowed from every non-terminal state.
	for _, from := range []domainwf.State{
		domainwf.StateDraft,
		domainwf.StateValidation,
		domainwf.StateImpactAnalysis,
		domainwf.StateTechnicalReview,
		domainwf.StateApprovalRouting,
		domainwf.StateApprovalPending,
		domainwf.StateApproved,
		domainwf.StateImplementationPlanning,
		domainwf.StateImplementation,
		domainwf.StateVerification,
	} {
		rule := domainwf.TransitionRule{
			From: from, To: domainwf.StateCancelled, Action: domainwf.ActionCancel,
			Name:  "cancel-" + string(from),
			Guard: requesterOrAdminGuard,
		}
		if from == domainwf.StateApprovalPending {
			rule.SideEffect = func(ctx context.Context, wctx *domainwf.Context) error {
				recipients := make([]string, 0, len(wctx.Request.PendingApprovals))
				for _, rec := range wctx.Request.PendingApprovals {
					recipients = append(recipients, rec.ApproverName)
				}
				return deps.Notifier.NotifyApprovers(ctx, wctx.Request, recipients,
					fmt.Sprintf("Change request %s was cancelled; no further action needed", wctx.Request.RequestNumber))
			}
		}
		rules = append(rules, rule)
	}

	return rules
}

// permissionGuard gates a rule on the static action permission table
func permissionGuard(action domainwf.Action) domainwf.GuardFunc {
	return func(wctx *domainwf.Context) bool {
		return domainwf.CanUserPerformAction(action, wctx.User.Permissions)
	}
}

// requesterOrAdminGuard allows the original requester or an administrator
func requesterOrAdminGuard(wctx *domainwf.Context) bool {
	return wctx.User.ID == wctx.Request.RequestedBy || wctx.User.HasPermission("change_admin")
}

func validateDraftComplete(wctx *domainwf.Context) []string {
	var errs []string
	req := wctx.Request
	if strings.TrimSpace(req.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		errs = append(errs, "description is required")
	}
	if strings.TrimSpace(req.Justification) == "" {
		errs = append(errs, "justification is required")
	}
	if !entity.IsValidPriority(req.Priority) {
		errs = append(errs, fmt.Sprintf("unknown priority %q", req.Priority))
	}
	return errs
}

func validateEstimatesPresent(wctx *domainwf.Context) []string {
	var errs []string
	if wctx.Request.EstimatedCostImpact < 0 {
		errs = append(errs, "estimated cost impact must not be negative")
	}
	if wctx.Request.EstimatedCostImpact == 0 && wctx.Request.EstimatedScheduleDays == 0 {
		errs = append(errs, "cost or schedule impact estimate is required before impact analysis")
	}
	return errs
}

func validateApprovalChain(wctx *domainwf.Context) []string {
	var errs []string
	if len(wctx.Request.PendingApprovals) == 0 {
		errs = append(errs, "at least one approver must be assigned")
	}
	for _, rec := range wctx.Request.PendingApprovals {
		if rec.DueDate.IsZero() {
			errs = append(errs, fmt.Sprintf("approval step %d has no due date", rec.StepNumber))
		}
	}
	return errs
}

// validateApproverEligible requires the caller to be one of the request's
// undecided approvers with a non-stale approval record
func validateApproverEligible(wctx *domainwf.Context) []string {
	now := time.Now()
	for i := range wctx.Request.PendingApprovals {
		rec := &wctx.Request.PendingApprovals[i]
		if rec.ApproverName != wctx.User.ID {
			continue
		}
		if rec.IsDecided() {
			return []string{fmt.Sprintf("approver %s has already decided step %d", wctx.User.ID, rec.StepNumber)}
		}
		if rec.IsOverdue(now) {
			return []string{fmt.Sprintf("approval step %d is stale; escalate or re-route before deciding", rec.StepNumber)}
		}
		return nil
	}
	return []string{fmt.Sprintf("user %s is not a pending approver for this request", wctx.User.ID)}
}

func validateEscalationJustified(wctx *domainwf.Context) []string {
	if wctx.Request.Priority == entity.PriorityCritical || wctx.Request.Priority == entity.PriorityEmergency {
		return nil
	}
	now := time.Now()
	for i := range wctx.Request.PendingApprovals {
		if wctx.Request.PendingApprovals[i].IsOverdue(now) {
			return nil
		}
	}
	return []string{"escalation requires critical/emergency priority or an overdue approval"}
}

package workflow

// Action represents an operation a caller can request on a change request
type Action string

const (
	ActionSubmit             Action = "submit"
	ActionCompleteValidation Action = "complete_validation"
	ActionCompleteAnalysis   Action = "complete_analysis"
	ActionCompleteReview     Action = "complete_review"
	ActionRouteApprovals     Action = "route_approvals"
	ActionApprove            Action = "approve"
	ActionReject             Action = "reject"
	ActionEscalate           Action = "escalate"
	ActionPlanImplementation Action = "plan_implementation"
	ActionStartWork          Action = "start_work"
	ActionCompleteWork       Action = "complete_work"
	ActionVerify             Action = "verify"
	ActionCancel             Action = "cancel"
	ActionReopen             Action = "reopen"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// actionDescriptions maps each action to the text shown to callers. An
// unmapped action falls back to its enum name.
var actionDescriptions = map[Action]string{
	ActionSubmit:             "Submit for validation",
	ActionCompleteValidation: "Complete validation",
	ActionCompleteAnalysis:   "Complete impact analysis",
	ActionCompleteReview:     "Complete technical review",
	ActionRouteApprovals:     "Route to approvers",
	ActionApprove:            "Approve change request",
	ActionReject:             "Reject change request",
	ActionEscalate:           "Escalate for expedited handling",
	ActionPlanImplementation: "Plan implementation",
	ActionStartWork:          "Start implementation",
	ActionCompleteWork:       "Complete implementation",
	ActionVerify:             "Verify and close",
	ActionCancel:             "Cancel change request",
	ActionReopen:             "Reopen as draft",
}

// Describe returns the display text for the action
func (a Action) Describe() string {
	if desc, ok := actionDescriptions[a]; ok {
		return desc
	}
	return string(a)
}

// actionPermissions maps each action to the permission strings that allow it.
// Holding any one of the listed permissions is sufficient. This table mirrors
// the platform permission catalog and must be kept in sync with it.
var actionPermissions = map[Action][]string{
	ActionSubmit:             {"change_submit"},
	ActionCompleteValidation: {"change_validate"},
	ActionCompleteAnalysis:   {"change_analyze"},
	ActionCompleteReview:     {"change_review"},
	ActionRouteApprovals:     {"change_route"},
	ActionApprove:            {"change_approve", "change_approve_emergency"},
	ActionReject:             {"change_approve"},
	ActionEscalate:           {"change_escalate", "change_approve"},
	ActionPlanImplementation: {"change_implement"},
	ActionStartWork:          {"change_implement"},
	ActionCompleteWork:       {"change_implement"},
	ActionVerify:             {"change_verify"},
	ActionCancel:             {"change_submit", "change_admin"},
	ActionReopen:             {"change_submit", "change_admin"},
}

// RequiredPermissions returns the permissions that allow the action.
// The returned slice must not be modified.
func (a Action) RequiredPermissions() []string {
	return actionPermissions[a]
}

// CanUserPerformAction reports whether any of the user's permissions matches
// one required by the action. Actions absent from the table require no
// permission.
func CanUserPerformAction(action Action, userPermissions []string) bool {
	required, ok := actionPermissions[action]
	if !ok {
		return true
	}
	for _, need := range required {
		for _, have := range userPermissions {
			if have == need {
				return true
			}
		}
	}
	return false
}

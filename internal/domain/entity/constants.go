package entity

// Priority levels for a change request
const (
	PriorityLow       = "low"
	PriorityMedium    = "medium"
	PriorityHigh      = "high"
	PriorityCritical  = "critical"
	PriorityEmergency = "emergency"
)

// Approval record statuses
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusWaiting  = "waiting"
	ApprovalStatusOverdue  = "overdue"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// History action types
const (
	ActionTypeTransition = "TRANSITION"
	ActionTypeAPI        = "API"
	ActionTypeSystem     = "SYSTEM"
)

var validPriorities = map[string]bool{
	PriorityLow:       true,
	PriorityMedium:    true,
	PriorityHigh:      true,
	PriorityCritical:  true,
	PriorityEmergency: true,
}

// IsValidPriority reports whether p is one of the defined priority levels.
func IsValidPriority(p string) bool {
	return validPriorities[p]
}

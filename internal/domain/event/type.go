package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestSubmitted Type = "request.submitted"
	TypeRequestApproved  Type = "request.approved"
	TypeRequestRejected  Type = "request.rejected"
	TypeRequestCancelled Type = "request.cancelled"
	TypeRequestEscalated Type = "request.escalated"
	TypeStatusChanged    Type = "request.status_changed"
	TypeAnalysisDrafted  Type = "analysis.drafted"
	TypeRecordExported   Type = "record.exported"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestSubmitted,
		TypeRequestApproved,
		TypeRequestRejected,
		TypeRequestCancelled,
		TypeRequestEscalated,
		TypeStatusChanged,
		TypeAnalysisDrafted,
		TypeRecordExported:
		return true
	default:
		return false
	}
}

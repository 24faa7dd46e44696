package event

import (
	"testing"
	"time"
)

func TestType_String(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      string
	}{
		{"request submitted", TypeRequestSubmitted, "request.submitted"},
		{"request approved", TypeRequestApproved, "request.approved"},
		{"request rejected", TypeRequestRejected, "request.rejected"},
		{"request escalated", TypeRequestEscalated, "request.escalated"},
		{"status changed", TypeStatusChanged, "request.status_changed"},
		{"record exported", TypeRecordExported, "record.exported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.String(); got != tt.want {
				t.Errorf("Type.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"valid - submitted", TypeRequestSubmitted, true},
		{"valid - analysis drafted", TypeAnalysisDrafted, true},
		{"invalid - unknown", Type("request.unknown"), false},
		{"invalid - empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeRequestSubmitted, 42, map[string]interface{}{"actor": "u-1"})

	if evt.ID == "" {
		t.Error("NewEvent() must assign an ID")
	}
	if evt.CorrelationID == "" {
		t.Error("NewEvent() must assign a correlation ID")
	}
	if evt.RequestID != 42 {
		t.Errorf("RequestID = %d, want 42", evt.RequestID)
	}
	if time.Since(evt.Timestamp) > time.Minute {
		t.Error("Timestamp not set to now")
	}
	if evt.GetPayloadString("actor") != "u-1" {
		t.Errorf("GetPayloadString() = %q", evt.GetPayloadString("actor"))
	}
}

func TestEvent_WithPayloadIsImmutable(t *testing.T) {
	evt := NewEvent(TypeStatusChanged, 1, map[string]interface{}{"from": "draft"})

	enriched := evt.WithPayload("to", "validation")

	if _, ok := evt.Payload["to"]; ok {
		t.Error("WithPayload() mutated the original event")
	}
	if enriched.GetPayloadString("to") != "validation" {
		t.Error("WithPayload() did not add the key to the copy")
	}
	if enriched.ID != evt.ID || enriched.CorrelationID != evt.CorrelationID {
		t.Error("WithPayload() must preserve identity fields")
	}
}

func TestEvent_PayloadAccessors(t *testing.T) {
	evt := NewEvent(TypeStatusChanged, 1, map[string]interface{}{
		"count":  3,
		"amount": 12.5,
	})

	if got := evt.GetPayloadInt("count"); got != 3 {
		t.Errorf("GetPayloadInt() = %d, want 3", got)
	}
	if got := evt.GetPayloadFloat("amount"); got != 12.5 {
		t.Errorf("GetPayloadFloat() = %v, want 12.5", got)
	}
	if got := evt.GetPayloadString("missing"); got != "" {
		t.Errorf("GetPayloadString(missing) = %q, want empty", got)
	}
}

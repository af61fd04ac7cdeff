package audit

import "time"

type EventType string

const (
	EventTypeCallTagged        EventType = "call_tagged"
	EventTypeSaveFailed        EventType = "save_failed"
	EventTypeWorkflowAbandoned EventType = "workflow_abandoned"
	EventTypeFollowUpScheduled EventType = "followup_scheduled"
	EventTypeCallInitiated     EventType = "call_initiated"
	EventTypePolicyOverridden  EventType = "policy_overridden"
)

// Event is one entry in the workflow audit trail. The QA review dashboard
// reads these to reconstruct what an agent did on a call.
type Event struct {
	ID      string    `json:"id"`
	Type    EventType `json:"type"`
	AgentID string    `json:"agentId,omitempty"`

	CallID       string `json:"callId,omitempty"`
	RecordID     string `json:"recordId,omitempty"`
	CustomerID   string `json:"customerId,omitempty"`
	CallerNumber string `json:"callerNumber,omitempty"`

	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

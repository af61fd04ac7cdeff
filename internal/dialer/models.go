package dialer

import "time"

type Status string

const (
	StatusQueued      Status = "queued"
	StatusInProgress  Status = "in-progress"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusHungup      Status = "hungup"
	StatusTransferred Status = "transferred"
	StatusUnknown     Status = "unknown"
)

// InitiateRequest starts an outbound call. To is mandatory; at least one of
// From or AgentID is mandatory.
type InitiateRequest struct {
	To       string            `json:"to"`
	From     string            `json:"from,omitempty"`
	AgentID  string            `json:"agentId,omitempty"`
	ClientID string            `json:"clientId,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`

	// OverridePolicy lets privileged roles dial past a policy block. Set by
	// the HTTP layer after a role check, never by the agent directly.
	OverridePolicy bool `json:"-"`
}

type InitiateResult struct {
	CallID   string `json:"callId"`
	Status   Status `json:"status"`
	QueueID  string `json:"dialerQueueId,omitempty"`
	Provider string `json:"provider"`
}

// Transition is one entry in a call's append-only status audit trail.
type Transition struct {
	Status Status    `json:"status"`
	At     time.Time `json:"at"`
}

type CallStatus struct {
	CallID  string `json:"callId"`
	Status  Status `json:"status"`
	QueueID string `json:"dialerQueueId,omitempty"`

	To      string `json:"to,omitempty"`
	From    string `json:"from,omitempty"`
	AgentID string `json:"agentId,omitempty"`

	QueuedAt  *time.Time `json:"queuedAt,omitempty"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`

	DurationSeconds int `json:"duration"`

	// Target is set when the call was transferred.
	Target string `json:"target,omitempty"`

	History []Transition `json:"history,omitempty"`
}

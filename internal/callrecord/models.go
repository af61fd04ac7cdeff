package callrecord

import "time"

// Classification enums. Values are the display strings the CRM screens use;
// keep them stable, they appear verbatim in saved records.

type CommunicationMode string

const (
	ModeCall     CommunicationMode = "Call"
	ModeEmail    CommunicationMode = "Email"
	ModeWhatsApp CommunicationMode = "WhatsApp"
	ModeSMS      CommunicationMode = "SMS"
)

// InteractionType is the QRC classification plus follow-up.
type InteractionType string

const (
	TypeQuery     InteractionType = "Query"
	TypeRequest   InteractionType = "Request"
	TypeComplaint InteractionType = "Complaint"
	TypeFollowUp  InteractionType = "Follow-up"
)

type Resolution string

const (
	ResolutionPending    Resolution = "Pending"
	ResolutionInProgress Resolution = "In Progress"
	ResolutionResolved   Resolution = "Resolved"
	ResolutionEscalated  Resolution = "Escalated"
)

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// CallRecord is an immutable, finalized tagging result. Once appended it is
// never mutated or removed; the only derived object created afterward is a
// follow-up reminder.
type CallRecord struct {
	ID     string `json:"id"`
	CallID string `json:"callId,omitempty"`

	// CustomerID is empty when the call was tagged without a resolved identity.
	CustomerID   string `json:"customerId,omitempty"`
	CallerNumber string `json:"callerNumber"`
	AgentID      string `json:"agentId,omitempty"`

	Timestamp time.Time `json:"timestamp"`
	Duration  string    `json:"duration"`
	Status    string    `json:"status"`

	CommunicationMode CommunicationMode `json:"communicationMode"`
	Type              InteractionType   `json:"type"`
	Resolution        Resolution        `json:"resolution"`
	Reason            string            `json:"reason"`
	Tag               string            `json:"tag"`
	Priority          Priority          `json:"priority"`
	Notes             string            `json:"notes,omitempty"`

	FollowUpRequired bool   `json:"followUpRequired"`
	FollowUpDate     string `json:"followUpDate,omitempty"` // YYYY-MM-DD
	FollowUpTime     string `json:"followUpTime,omitempty"` // HH:MM
}

// StatusCompleted is the only status a finalized record carries.
const StatusCompleted = "completed"

// ListQuery filters the paged call history.
type ListQuery struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`

	From      time.Time `json:"from,omitempty"`
	To        time.Time `json:"to,omitempty"`
	Status    string    `json:"status,omitempty"`
	AgentID   string    `json:"agentId,omitempty"`
	Direction string    `json:"direction,omitempty"`
	Search    string    `json:"search,omitempty"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type Page struct {
	Records    []CallRecord `json:"calls"`
	Pagination Pagination   `json:"pagination"`
}

package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// TaggingSummaryRequest requests aggregated call-tagging metrics for the
// QA dashboard.

type TaggingSummaryRequest struct {
	Range   TimeRange `json:"range"`
	AgentID string    `json:"agent_id,omitempty"`
}

type TaggingSummary struct {
	AgentID string `json:"agent_id,omitempty"`

	TotalCalls int `json:"total_calls"`

	ByType       map[string]int `json:"by_type"`
	ByResolution map[string]int `json:"by_resolution"`
	ByPriority   map[string]int `json:"by_priority"`

	FollowUpsRequested int `json:"follow_ups_requested"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`
}

// WorkflowQualityRequest measures how often the tagging workflow completes
// cleanly. Derived from the immutable audit trail.

type WorkflowQualityRequest struct {
	Range   TimeRange `json:"range"`
	AgentID string    `json:"agent_id,omitempty"`
}

type WorkflowQuality struct {
	AgentID string `json:"agent_id,omitempty"`

	Tagged      int `json:"tagged"`
	SaveFailed  int `json:"save_failed"`
	Abandoned   int `json:"abandoned"`
	FollowUps   int `json:"follow_ups"`
	DialsPlaced int `json:"dials_placed"`

	// SaveFailureRate is save_failed / (tagged + save_failed).
	SaveFailureRate float64 `json:"save_failure_rate"`
	AbandonRate     float64 `json:"abandon_rate"`
}

// CollectionsSummaryRequest aggregates the receivable ledger and promise
// outcomes. Spend what was charged, collect what was paid.

type CollectionsSummaryRequest struct {
	Range     TimeRange `json:"range"`
	AccountID string    `json:"account_id,omitempty"`
}

type CollectionsSummary struct {
	AccountID string `json:"account_id,omitempty"`
	Currency  string `json:"currency"`

	ChargedMinor   int64 `json:"charged_minor"`
	CollectedMinor int64 `json:"collected_minor"`
	WaivedMinor    int64 `json:"waived_minor"`
	NetDeltaMinor  int64 `json:"net_delta_minor"`

	PromisesMade   int `json:"promises_made"`
	PromisesKept   int `json:"promises_kept"`
	PromisesBroken int `json:"promises_broken"`

	PromiseKeepRate float64 `json:"promise_keep_rate"`
}

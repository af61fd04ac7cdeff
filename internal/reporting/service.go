package reporting

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/welleazyhts/p360-callcenter/internal/audit"
	"github.com/welleazyhts/p360-callcenter/internal/billing"
	"github.com/welleazyhts/p360-callcenter/internal/callrecord"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
// Implementations should query immutable sources (call records, audit
// trail, billing ledger); summaries must never write.
type Repository interface {
	ListRecords(ctx context.Context, from, to time.Time, agentID string) ([]callrecord.CallRecord, error)
	ListEvents(ctx context.Context, from, to time.Time, agentID string) ([]audit.Event, error)
	ListLedger(ctx context.Context, from, to time.Time, accountID string) ([]billing.LedgerEntry, error)
	ListPromises(ctx context.Context, from, to time.Time, accountID string) ([]billing.PromiseToPay, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) TaggingSummary(ctx context.Context, req TaggingSummaryRequest) (TaggingSummary, error) {
	if err := s.check(req.Range); err != nil {
		return TaggingSummary{}, err
	}

	rows, err := s.repo.ListRecords(ctx, req.Range.From, req.Range.To, req.AgentID)
	if err != nil {
		return TaggingSummary{}, err
	}

	out := TaggingSummary{
		AgentID:      req.AgentID,
		ByType:       make(map[string]int),
		ByResolution: make(map[string]int),
		ByPriority:   make(map[string]int),
	}
	for _, r := range rows {
		out.TotalCalls++
		if r.Type != "" {
			out.ByType[string(r.Type)]++
		}
		if r.Resolution != "" {
			out.ByResolution[string(r.Resolution)]++
		}
		if r.Priority != "" {
			out.ByPriority[string(r.Priority)]++
		}
		if r.FollowUpRequired {
			out.FollowUpsRequested++
		}
		out.TotalDurationSeconds += durationSeconds(r.Duration)
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}

func (s *Service) WorkflowQuality(ctx context.Context, req WorkflowQualityRequest) (WorkflowQuality, error) {
	if err := s.check(req.Range); err != nil {
		return WorkflowQuality{}, err
	}

	events, err := s.repo.ListEvents(ctx, req.Range.From, req.Range.To, req.AgentID)
	if err != nil {
		return WorkflowQuality{}, err
	}

	out := WorkflowQuality{AgentID: req.AgentID}
	for _, e := range events {
		switch e.Type {
		case audit.EventTypeCallTagged:
			out.Tagged++
		case audit.EventTypeSaveFailed:
			out.SaveFailed++
		case audit.EventTypeWorkflowAbandoned:
			out.Abandoned++
		case audit.EventTypeFollowUpScheduled:
			out.FollowUps++
		case audit.EventTypeCallInitiated:
			out.DialsPlaced++
		case audit.EventTypePolicyOverridden:
			// visible in the trail, not a quality signal
		}
	}
	if n := out.Tagged + out.SaveFailed; n > 0 {
		out.SaveFailureRate = float64(out.SaveFailed) / float64(n)
	}
	if n := out.Tagged + out.SaveFailed + out.Abandoned; n > 0 {
		out.AbandonRate = float64(out.Abandoned) / float64(n)
	}
	return out, nil
}

func (s *Service) CollectionsSummary(ctx context.Context, req CollectionsSummaryRequest) (CollectionsSummary, error) {
	if err := s.check(req.Range); err != nil {
		return CollectionsSummary{}, err
	}

	ledger, err := s.repo.ListLedger(ctx, req.Range.From, req.Range.To, req.AccountID)
	if err != nil {
		return CollectionsSummary{}, err
	}
	promises, err := s.repo.ListPromises(ctx, req.Range.From, req.Range.To, req.AccountID)
	if err != nil {
		return CollectionsSummary{}, err
	}

	out := CollectionsSummary{AccountID: req.AccountID}
	for _, e := range ledger {
		if out.Currency == "" {
			out.Currency = e.Currency
		}
		switch e.Type {
		case billing.EntryTypeCharge:
			out.ChargedMinor += e.AmountMinor
		case billing.EntryTypePayment:
			out.CollectedMinor += -e.AmountMinor
		case billing.EntryTypeWaiver:
			out.WaivedMinor += -e.AmountMinor
		case billing.EntryTypeAdjustment:
			// adjustments only move the net
		}
		out.NetDeltaMinor += e.AmountMinor
	}

	var settled int
	for _, p := range promises {
		out.PromisesMade++
		switch p.Status {
		case billing.PromiseStatusKept:
			out.PromisesKept++
			settled++
		case billing.PromiseStatusBroken:
			out.PromisesBroken++
			settled++
		case billing.PromiseStatusOpen:
		}
	}
	if settled > 0 {
		out.PromiseKeepRate = float64(out.PromisesKept) / float64(settled)
	}
	if out.Currency == "" {
		out.Currency = "UNKNOWN"
	}
	return out, nil
}

func (s *Service) check(r TimeRange) error {
	if r.From.IsZero() || r.To.IsZero() || !r.To.After(r.From) {
		return ErrInvalidRequest
	}
	if s.repo == nil {
		return errors.New("reporting: repository not configured")
	}
	return nil
}

// durationSeconds parses the display form produced on session end
// ("45s", "2m 5s"). Unparseable values count as zero.
func durationSeconds(d string) int {
	parsed, err := time.ParseDuration(strings.ReplaceAll(d, " ", ""))
	if err != nil {
		return 0
	}
	return int(parsed.Seconds())
}

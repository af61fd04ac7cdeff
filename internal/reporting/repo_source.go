package reporting

import (
	"context"
	"time"

	"github.com/welleazyhts/p360-callcenter/internal/audit"
	"github.com/welleazyhts/p360-callcenter/internal/billing"
	"github.com/welleazyhts/p360-callcenter/internal/callrecord"
)

// SourceRepo reads summaries straight from the live stores instead of a
// dedicated reporting table. Ledger and promise queries need an account id;
// the billing repository has no cross-account scan.
type SourceRepo struct {
	Records interface {
		List(ctx context.Context) ([]callrecord.CallRecord, error)
	}
	Events interface {
		Events(ctx context.Context) ([]audit.Event, error)
	}
	Billing billing.Repository
}

func (r *SourceRepo) ListRecords(ctx context.Context, from, to time.Time, agentID string) ([]callrecord.CallRecord, error) {
	if r.Records == nil {
		return nil, nil
	}
	all, err := r.Records.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]callrecord.CallRecord, 0, len(all))
	for _, rec := range all {
		if !inRange(rec.Timestamp, from, to) {
			continue
		}
		if agentID != "" && rec.AgentID != agentID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *SourceRepo) ListEvents(ctx context.Context, from, to time.Time, agentID string) ([]audit.Event, error) {
	if r.Events == nil {
		return nil, nil
	}
	all, err := r.Events.Events(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]audit.Event, 0, len(all))
	for _, e := range all {
		if !inRange(e.CreatedAt, from, to) {
			continue
		}
		if agentID != "" && e.AgentID != agentID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SourceRepo) ListLedger(ctx context.Context, from, to time.Time, accountID string) ([]billing.LedgerEntry, error) {
	if r.Billing == nil || accountID == "" {
		return nil, nil
	}
	all, err := r.Billing.Entries(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]billing.LedgerEntry, 0, len(all))
	for _, e := range all {
		if inRange(e.CreatedAt, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *SourceRepo) ListPromises(ctx context.Context, from, to time.Time, accountID string) ([]billing.PromiseToPay, error) {
	if r.Billing == nil || accountID == "" {
		return nil, nil
	}
	all, err := r.Billing.Promises(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]billing.PromiseToPay, 0, len(all))
	for _, p := range all {
		if inRange(p.CreatedAt, from, to) {
			out = append(out, p)
		}
	}
	return out, nil
}

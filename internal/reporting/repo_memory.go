package reporting

import (
	"context"
	"sync"
	"time"

	"github.com/welleazyhts/p360-callcenter/internal/audit"
	"github.com/welleazyhts/p360-callcenter/internal/billing"
	"github.com/welleazyhts/p360-callcenter/internal/callrecord"
)

// MemoryRepo is a simple in-memory reporting repository for tests and
// deployments without a database. Filtering happens on read; the half-open
// range is [from, to).
type MemoryRepo struct {
	mu sync.Mutex

	Records  []callrecord.CallRecord
	Events   []audit.Event
	Ledger   []billing.LedgerEntry
	Promises []billing.PromiseToPay
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListRecords(ctx context.Context, from, to time.Time, agentID string) ([]callrecord.CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]callrecord.CallRecord, 0)
	for _, rec := range r.Records {
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

func (r *MemoryRepo) ListEvents(ctx context.Context, from, to time.Time, agentID string) ([]audit.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Event, 0)
	for _, e := range r.Events {
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

func (r *MemoryRepo) ListLedger(ctx context.Context, from, to time.Time, accountID string) ([]billing.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]billing.LedgerEntry, 0)
	for _, e := range r.Ledger {
		if !inRange(e.CreatedAt, from, to) {
			continue
		}
		if accountID != "" && e.AccountID != accountID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *MemoryRepo) ListPromises(ctx context.Context, from, to time.Time, accountID string) ([]billing.PromiseToPay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]billing.PromiseToPay, 0)
	for _, p := range r.Promises {
		if !inRange(p.CreatedAt, from, to) {
			continue
		}
		if accountID != "" && p.AccountID != accountID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func inRange(t, from, to time.Time) bool {
	if t.IsZero() {
		return true
	}
	return !t.Before(from) && t.Before(to)
}

package callrecord

import (
	"context"
	"sync"
)

// MemoryRepo is the in-process append-only call log. Records live for the
// process lifetime; the CRM backend is the only durable store.
type MemoryRepo struct {
	mu      sync.Mutex
	records []CallRecord
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, rec CallRecord) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]CallRecord, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, len(r.records))
	copy(out, r.records)
	return out, nil
}

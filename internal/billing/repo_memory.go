package billing

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is the in-memory repository used in tests and when no
// database is configured.
type MemoryRepo struct {
	mu       sync.Mutex
	accounts map[string]Account
	entries  map[string][]LedgerEntry
	promises map[string][]PromiseToPay
	byKey    map[string]LedgerEntry // account_id + "\x00" + idempotency_key
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		accounts: make(map[string]Account),
		entries:  make(map[string][]LedgerEntry),
		promises: make(map[string][]PromiseToPay),
		byKey:    make(map[string]LedgerEntry),
	}
}

func (r *MemoryRepo) CreateAccount(ctx context.Context, a Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.ID] = a
	return nil
}

func (r *MemoryRepo) Account(ctx context.Context, id string) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) SetAccountStatus(ctx context.Context, id string, status AccountStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = at
	r.accounts[id] = a
	return nil
}

func (r *MemoryRepo) Post(ctx context.Context, e LedgerEntry) (LedgerEntry, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := e.AccountID + "\x00" + e.IdempotencyKey
	if existing, ok := r.byKey[key]; ok {
		return existing, true, nil
	}
	r.byKey[key] = e
	r.entries[e.AccountID] = append(r.entries[e.AccountID], e)
	return e, false, nil
}

func (r *MemoryRepo) Entries(ctx context.Context, accountID string) ([]LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LedgerEntry, len(r.entries[accountID]))
	copy(out, r.entries[accountID])
	return out, nil
}

func (r *MemoryRepo) SavePromise(ctx context.Context, p PromiseToPay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promises[p.AccountID] = append(r.promises[p.AccountID], p)
	return nil
}

func (r *MemoryRepo) Promises(ctx context.Context, accountID string) ([]PromiseToPay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PromiseToPay, len(r.promises[accountID]))
	copy(out, r.promises[accountID])
	return out, nil
}

func (r *MemoryRepo) SetPromiseStatus(ctx context.Context, id string, status PromiseStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for acct, list := range r.promises {
		for i, p := range list {
			if p.ID == id {
				list[i].Status = status
				r.promises[acct] = list
				return nil
			}
		}
	}
	return ErrNotFound
}

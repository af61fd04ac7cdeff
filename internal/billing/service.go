package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists accounts, ledger entries, and promises.
//
// Post must be idempotent on (account_id, idempotency_key): when an entry
// with the same key already exists it returns that entry with dup=true and
// writes nothing.
type Repository interface {
	CreateAccount(ctx context.Context, a Account) error
	Account(ctx context.Context, id string) (Account, error)
	SetAccountStatus(ctx context.Context, id string, status AccountStatus, at time.Time) error

	Post(ctx context.Context, e LedgerEntry) (entry LedgerEntry, dup bool, err error)
	Entries(ctx context.Context, accountID string) ([]LedgerEntry, error)

	SavePromise(ctx context.Context, p PromiseToPay) error
	Promises(ctx context.Context, accountID string) ([]PromiseToPay, error)
	SetPromiseStatus(ctx context.Context, id string, status PromiseStatus) error
}

var (
	ErrNotFound        = errors.New("billing: not found")
	ErrInvalidArgument = errors.New("billing: invalid argument")
	ErrAccountFrozen   = errors.New("billing: account frozen")
	ErrOverpayment     = errors.New("billing: payment exceeds outstanding amount")
)

// Service provides receivable operations over a debtor account.
//
// Money invariants:
// - No balance changes without a ledger entry
// - The ledger is append-only
// - Posting is idempotent per idempotency key
type Service struct {
	repo  Repository
	fees  FeeRepository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// WithClock injects a deterministic clock for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// OpenAccount creates an active receivable account for a customer.
func (s *Service) OpenAccount(ctx context.Context, customerID, currency string) (Account, error) {
	if customerID == "" || currency == "" {
		return Account{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	a := Account{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Currency:   currency,
		Status:     AccountStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateAccount(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// Freeze stops all postings to the account until Unfreeze. Used while a
// dispute or legal hold is in progress.
func (s *Service) Freeze(ctx context.Context, accountID string) error {
	return s.repo.SetAccountStatus(ctx, accountID, AccountStatusFrozen, s.clock().UTC())
}

func (s *Service) Unfreeze(ctx context.Context, accountID string) error {
	return s.repo.SetAccountStatus(ctx, accountID, AccountStatusActive, s.clock().UTC())
}

type PostRequest struct {
	AmountMinor    int64      `json:"amount_minor"`
	Currency       string     `json:"currency"`
	ExternalRef    string     `json:"external_ref,omitempty"`
	IdempotencyKey string     `json:"idempotency_key"`
	DueDate        *time.Time `json:"due_date,omitempty"`
}

// Charge posts new debt against the account. DueDate is required; it feeds
// days-past-due.
func (s *Service) Charge(ctx context.Context, accountID string, req PostRequest) (LedgerEntry, Balance, error) {
	if req.DueDate == nil {
		return LedgerEntry{}, Balance{}, ErrInvalidArgument
	}
	return s.post(ctx, accountID, EntryTypeCharge, req.AmountMinor, req)
}

// Payment posts money received. A payment larger than the outstanding
// amount is rejected; collections never holds customer credit.
func (s *Service) Payment(ctx context.Context, accountID string, req PostRequest) (LedgerEntry, Balance, error) {
	bal, err := s.Outstanding(ctx, accountID)
	if err != nil {
		return LedgerEntry{}, Balance{}, err
	}
	if req.AmountMinor > bal.OutstandingMinor {
		return LedgerEntry{}, Balance{}, ErrOverpayment
	}
	return s.post(ctx, accountID, EntryTypePayment, -req.AmountMinor, req)
}

// Waive writes off part of the debt. Same bound as Payment.
func (s *Service) Waive(ctx context.Context, accountID string, req PostRequest) (LedgerEntry, Balance, error) {
	bal, err := s.Outstanding(ctx, accountID)
	if err != nil {
		return LedgerEntry{}, Balance{}, err
	}
	if req.AmountMinor > bal.OutstandingMinor {
		return LedgerEntry{}, Balance{}, ErrOverpayment
	}
	return s.post(ctx, accountID, EntryTypeWaiver, -req.AmountMinor, req)
}

func (s *Service) post(ctx context.Context, accountID string, typ EntryType, signedAmount int64, req PostRequest) (LedgerEntry, Balance, error) {
	if accountID == "" || req.Currency == "" || req.IdempotencyKey == "" || req.AmountMinor <= 0 {
		return LedgerEntry{}, Balance{}, ErrInvalidArgument
	}

	a, err := s.repo.Account(ctx, accountID)
	if err != nil {
		return LedgerEntry{}, Balance{}, err
	}
	if a.Status == AccountStatusFrozen {
		return LedgerEntry{}, Balance{}, ErrAccountFrozen
	}
	if a.Currency != req.Currency {
		return LedgerEntry{}, Balance{}, ErrInvalidArgument
	}

	entry := LedgerEntry{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		Type:           typ,
		AmountMinor:    signedAmount,
		Currency:       req.Currency,
		ExternalRef:    req.ExternalRef,
		IdempotencyKey: req.IdempotencyKey,
		DueDate:        req.DueDate,
		CreatedAt:      s.clock().UTC(),
	}
	stored, _, err := s.repo.Post(ctx, entry)
	if err != nil {
		return LedgerEntry{}, Balance{}, err
	}

	bal, err := s.Outstanding(ctx, accountID)
	if err != nil {
		return LedgerEntry{}, Balance{}, err
	}
	return stored, bal, nil
}

// Outstanding derives the receivable position from the ledger.
func (s *Service) Outstanding(ctx context.Context, accountID string) (Balance, error) {
	a, err := s.repo.Account(ctx, accountID)
	if err != nil {
		return Balance{}, err
	}
	entries, err := s.repo.Entries(ctx, accountID)
	if err != nil {
		return Balance{}, err
	}
	var sum int64
	for _, e := range entries {
		sum += e.AmountMinor
	}
	return Balance{
		AccountID:        accountID,
		Currency:         a.Currency,
		OutstandingMinor: sum,
		AsOf:             s.clock().UTC(),
	}, nil
}

// DaysPastDue walks charges oldest-first, consumes payments and waivers
// against them, and reports how many days the oldest uncovered charge has
// been overdue. Zero means current.
func (s *Service) DaysPastDue(ctx context.Context, accountID string) (int, error) {
	entries, err := s.repo.Entries(ctx, accountID)
	if err != nil {
		return 0, err
	}

	var credit int64
	for _, e := range entries {
		if e.AmountMinor < 0 {
			credit += -e.AmountMinor
		}
	}

	now := s.clock().UTC()
	for _, e := range entries {
		if e.Type != EntryTypeCharge {
			continue
		}
		if credit >= e.AmountMinor {
			credit -= e.AmountMinor
			continue
		}
		if e.DueDate == nil || !e.DueDate.Before(now) {
			return 0, nil
		}
		return int(now.Sub(*e.DueDate).Hours() / 24), nil
	}
	return 0, nil
}

// RecordPromise captures a promise-to-pay from a tagged call.
func (s *Service) RecordPromise(ctx context.Context, accountID, callID string, amountMinor int64, promisedFor time.Time) (PromiseToPay, error) {
	if accountID == "" || amountMinor <= 0 || promisedFor.IsZero() {
		return PromiseToPay{}, ErrInvalidArgument
	}
	a, err := s.repo.Account(ctx, accountID)
	if err != nil {
		return PromiseToPay{}, err
	}
	p := PromiseToPay{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		CallID:      callID,
		AmountMinor: amountMinor,
		Currency:    a.Currency,
		PromisedFor: promisedFor.UTC(),
		Status:      PromiseStatusOpen,
		CreatedAt:   s.clock().UTC(),
	}
	if err := s.repo.SavePromise(ctx, p); err != nil {
		return PromiseToPay{}, err
	}
	return p, nil
}

// ReviewPromises marks open promises whose date has passed as broken and
// returns the promises in their updated state.
func (s *Service) ReviewPromises(ctx context.Context, accountID string) ([]PromiseToPay, error) {
	promises, err := s.repo.Promises(ctx, accountID)
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()
	for i, p := range promises {
		if p.Status == PromiseStatusOpen && p.PromisedFor.Before(now) {
			if err := s.repo.SetPromiseStatus(ctx, p.ID, PromiseStatusBroken); err != nil {
				return nil, err
			}
			promises[i].Status = PromiseStatusBroken
		}
	}
	return promises, nil
}

// KeepPromise marks a promise kept. Callers post the matching payment
// separately; a promise is not money.
func (s *Service) KeepPromise(ctx context.Context, promiseID string) error {
	if promiseID == "" {
		return ErrInvalidArgument
	}
	return s.repo.SetPromiseStatus(ctx, promiseID, PromiseStatusKept)
}

package billing

import "time"

// Account is a debtor's receivable account.
// Invariant: the outstanding amount is derived from immutable ledger entries.
// No code should ever mutate a balance without posting a ledger entry.
type Account struct {
	ID         string `json:"id" db:"id"`
	CustomerID string `json:"customer_id" db:"customer_id"`
	Currency   string `json:"currency" db:"currency"`

	Status AccountStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusFrozen  AccountStatus = "frozen"
	AccountStatusSettled AccountStatus = "settled"
)

// LedgerEntry is an immutable append-only posting against an account.
// Charges are positive (debt owed), payments and waivers are negative.
type LedgerEntry struct {
	ID        string `json:"id" db:"id"`
	AccountID string `json:"account_id" db:"account_id"`

	Type EntryType `json:"type" db:"type"`

	// AmountMinor is the signed amount in minor units (e.g. paise).
	AmountMinor int64  `json:"amount_minor" db:"amount_minor"`
	Currency    string `json:"currency" db:"currency"`

	// ExternalRef is optional: call_id, invoice_id, payment gateway ref.
	ExternalRef string `json:"external_ref,omitempty" db:"external_ref"`

	// IdempotencyKey is required for safe retries of posting operations.
	IdempotencyKey string `json:"idempotency_key" db:"idempotency_key"`

	// DueDate is set on charges; it drives days-past-due.
	DueDate *time.Time `json:"due_date,omitempty" db:"due_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EntryType string

const (
	EntryTypeCharge     EntryType = "charge"
	EntryTypePayment    EntryType = "payment"
	EntryTypeAdjustment EntryType = "adjustment"
	EntryTypeWaiver     EntryType = "waiver"
)

// PromiseToPay records a commitment captured on a tagged collections call.
// It is not money; a kept promise still needs a payment posting.
type PromiseToPay struct {
	ID        string `json:"id" db:"id"`
	AccountID string `json:"account_id" db:"account_id"`
	CallID    string `json:"call_id,omitempty" db:"call_id"`

	AmountMinor int64     `json:"amount_minor" db:"amount_minor"`
	Currency    string    `json:"currency" db:"currency"`
	PromisedFor time.Time `json:"promised_for" db:"promised_for"`

	Status PromiseStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type PromiseStatus string

const (
	PromiseStatusOpen   PromiseStatus = "open"
	PromiseStatusKept   PromiseStatus = "kept"
	PromiseStatusBroken PromiseStatus = "broken"
)

// Balance is the derived receivable position of an account.
type Balance struct {
	AccountID        string    `json:"account_id"`
	Currency         string    `json:"currency"`
	OutstandingMinor int64     `json:"outstanding_minor"`
	AsOf             time.Time `json:"as_of"`
}

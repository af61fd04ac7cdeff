package billing

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/welleazyhts/p360-callcenter/pkg/utils"
)

// PostgresRepo persists the receivable ledger in Postgres.
//
// Assumes the following tables exist:
// - billing_accounts
// - billing_ledger (immutable append-only)
// - billing_promises
//
// It also assumes an idempotency constraint:
// UNIQUE (account_id, idempotency_key) on billing_ledger.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) CreateAccount(ctx context.Context, a Account) error {
	const q = `
INSERT INTO billing_accounts (id, customer_id, currency, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
	_, err := r.db.ExecContext(ctx, q, a.ID, a.CustomerID, a.Currency, string(a.Status), a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *PostgresRepo) Account(ctx context.Context, id string) (Account, error) {
	const q = `
SELECT id, customer_id, currency, status, created_at, updated_at
FROM billing_accounts
WHERE id = $1
`
	var a Account
	var status string
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.CustomerID, &a.Currency, &status, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	a.Status = AccountStatus(status)
	return a, nil
}

func (r *PostgresRepo) SetAccountStatus(ctx context.Context, id string, status AccountStatus, at time.Time) error {
	const q = `
UPDATE billing_accounts SET status = $2, updated_at = $3 WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, id, string(status), at)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Post inserts the entry unless one already exists for the idempotency key.
// The lookup and insert run in one transaction with the account row locked,
// serializing concurrent postings per account.
func (r *PostgresRepo) Post(ctx context.Context, e LedgerEntry) (LedgerEntry, bool, error) {
	var out LedgerEntry
	var dup bool

	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const lock = `SELECT id FROM billing_accounts WHERE id = $1 FOR UPDATE`
		var id string
		if err := tx.QueryRowContext(ctx, lock, e.AccountID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		const find = `
SELECT id, account_id, type, amount_minor, currency, external_ref, idempotency_key, due_date, created_at
FROM billing_ledger
WHERE account_id = $1 AND idempotency_key = $2
`
		var existing LedgerEntry
		var typ string
		err := tx.QueryRowContext(ctx, find, e.AccountID, e.IdempotencyKey).Scan(
			&existing.ID, &existing.AccountID, &typ, &existing.AmountMinor,
			&existing.Currency, &existing.ExternalRef, &existing.IdempotencyKey,
			&existing.DueDate, &existing.CreatedAt,
		)
		switch {
		case err == nil:
			existing.Type = EntryType(typ)
			out, dup = existing, true
			return nil
		case errors.Is(err, sql.ErrNoRows):
			// fall through to insert
		default:
			return err
		}

		const ins = `
INSERT INTO billing_ledger (id, account_id, type, amount_minor, currency, external_ref, idempotency_key, due_date, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`
		if _, err := tx.ExecContext(ctx, ins,
			e.ID, e.AccountID, string(e.Type), e.AmountMinor, e.Currency,
			e.ExternalRef, e.IdempotencyKey, e.DueDate, e.CreatedAt,
		); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return LedgerEntry{}, false, err
	}
	return out, dup, nil
}

func (r *PostgresRepo) Entries(ctx context.Context, accountID string) ([]LedgerEntry, error) {
	const q = `
SELECT id, account_id, type, amount_minor, currency, external_ref, idempotency_key, due_date, created_at
FROM billing_ledger
WHERE account_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.db.QueryContext(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LedgerEntry, 0)
	for rows.Next() {
		var e LedgerEntry
		var typ string
		if err := rows.Scan(
			&e.ID, &e.AccountID, &typ, &e.AmountMinor, &e.Currency,
			&e.ExternalRef, &e.IdempotencyKey, &e.DueDate, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Type = EntryType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) SavePromise(ctx context.Context, p PromiseToPay) error {
	const q = `
INSERT INTO billing_promises (id, account_id, call_id, amount_minor, currency, promised_for, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := r.db.ExecContext(ctx, q,
		p.ID, p.AccountID, p.CallID, p.AmountMinor, p.Currency, p.PromisedFor, string(p.Status), p.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) Promises(ctx context.Context, accountID string) ([]PromiseToPay, error) {
	const q = `
SELECT id, account_id, call_id, amount_minor, currency, promised_for, status, created_at
FROM billing_promises
WHERE account_id = $1
ORDER BY promised_for ASC, id ASC
`
	rows, err := r.db.QueryContext(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PromiseToPay, 0)
	for rows.Next() {
		var p PromiseToPay
		var status string
		if err := rows.Scan(
			&p.ID, &p.AccountID, &p.CallID, &p.AmountMinor, &p.Currency,
			&p.PromisedFor, &status, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		p.Status = PromiseStatus(status)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) SetPromiseStatus(ctx context.Context, id string, status PromiseStatus) error {
	const q = `
UPDATE billing_promises SET status = $2 WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, id, string(status))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

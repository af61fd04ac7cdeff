package billing

import (
	"context"
	"errors"
	"time"
)

// Late fee schedules are effective-dated: a schedule applies only within its
// [EffectiveFrom, EffectiveTo) window, and the most recently effective active
// row wins. Amounts are in minor units.

type ScheduleStatus string

const (
	ScheduleStatusActive   ScheduleStatus = "active"
	ScheduleStatusArchived ScheduleStatus = "archived"
)

// FeeSchedule defines how late fees accrue on an overdue account.
type FeeSchedule struct {
	ID       string `json:"id" db:"id"`
	Currency string `json:"currency" db:"currency"`

	// GraceDays past due before any fee accrues.
	GraceDays int `json:"grace_days" db:"grace_days"`

	// RatePerDayBasisPoints is charged on the outstanding amount for each
	// chargeable day (10000 bps = 100%).
	RatePerDayBasisPoints int64 `json:"rate_per_day_bps" db:"rate_per_day_bps"`

	// CapMinor bounds a single accrual. Zero means uncapped.
	CapMinor int64 `json:"cap_minor,omitempty" db:"cap_minor"`

	EffectiveFrom time.Time  `json:"effective_from" db:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty" db:"effective_to"`

	Status ScheduleStatus `json:"status" db:"status"`
}

// FeeRepository abstracts fee schedule persistence.
type FeeRepository interface {
	FindFeeSchedule(ctx context.Context, currency string, at time.Time) (FeeSchedule, bool, error)
}

var ErrNoFeeSchedule = errors.New("billing: no fee schedule")

// LateFee is the computed accrual for an account at a point in time.
type LateFee struct {
	AccountID string `json:"account_id"`
	Currency  string `json:"currency"`

	DaysPastDue    int `json:"days_past_due"`
	ChargeableDays int `json:"chargeable_days"`

	RatePerDayBasisPoints int64 `json:"rate_per_day_bps"`
	FeeMinor              int64 `json:"fee_minor"`
}

// WithFeeSchedules enables late fee quoting and accrual.
func (s *Service) WithFeeSchedules(repo FeeRepository) *Service {
	s.fees = repo
	return s
}

// QuoteLateFee computes the fee an overdue account would accrue today
// without posting anything. Accounts inside the grace window quote zero.
func (s *Service) QuoteLateFee(ctx context.Context, accountID string) (LateFee, error) {
	if accountID == "" {
		return LateFee{}, ErrInvalidArgument
	}
	if s.fees == nil {
		return LateFee{}, ErrNoFeeSchedule
	}

	a, err := s.repo.Account(ctx, accountID)
	if err != nil {
		return LateFee{}, err
	}
	bal, err := s.Outstanding(ctx, accountID)
	if err != nil {
		return LateFee{}, err
	}
	dpd, err := s.DaysPastDue(ctx, accountID)
	if err != nil {
		return LateFee{}, err
	}

	sched, ok, err := s.fees.FindFeeSchedule(ctx, a.Currency, s.clock().UTC())
	if err != nil {
		return LateFee{}, err
	}
	if !ok {
		return LateFee{}, ErrNoFeeSchedule
	}

	days := chargeableDays(dpd, sched.GraceDays)
	fee := accruedFeeMinor(bal.OutstandingMinor, sched.RatePerDayBasisPoints, days, sched.CapMinor)

	return LateFee{
		AccountID:             accountID,
		Currency:              a.Currency,
		DaysPastDue:           dpd,
		ChargeableDays:        days,
		RatePerDayBasisPoints: sched.RatePerDayBasisPoints,
		FeeMinor:              fee,
	}, nil
}

// AccrueLateFee posts the quoted fee as an adjustment entry. A zero quote
// posts nothing. Idempotent per key, same as any other posting.
func (s *Service) AccrueLateFee(ctx context.Context, accountID, idempotencyKey string) (LateFee, error) {
	fee, err := s.QuoteLateFee(ctx, accountID)
	if err != nil {
		return LateFee{}, err
	}
	if fee.FeeMinor == 0 {
		return fee, nil
	}
	_, _, err = s.post(ctx, accountID, EntryTypeAdjustment, fee.FeeMinor, PostRequest{
		AmountMinor:    fee.FeeMinor,
		Currency:       fee.Currency,
		ExternalRef:    "late_fee",
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return LateFee{}, err
	}
	return fee, nil
}

func chargeableDays(daysPastDue, graceDays int) int {
	if graceDays < 0 {
		graceDays = 0
	}
	d := daysPastDue - graceDays
	if d < 0 {
		return 0
	}
	return d
}

func accruedFeeMinor(outstandingMinor, ratePerDayBps int64, days int, capMinor int64) int64 {
	if outstandingMinor <= 0 || ratePerDayBps <= 0 || days <= 0 {
		return 0
	}
	fee := outstandingMinor * ratePerDayBps * int64(days) / 10000
	if capMinor > 0 && fee > capMinor {
		fee = capMinor
	}
	return fee
}

// FeeMemoryRepo is an in-memory schedule repository for tests and early
// development. The most recently effective active row for the currency wins.
type FeeMemoryRepo struct {
	Schedules []FeeSchedule
}

func (r *FeeMemoryRepo) FindFeeSchedule(ctx context.Context, currency string, at time.Time) (FeeSchedule, bool, error) {
	_ = ctx

	var best FeeSchedule
	found := false

	for _, sch := range r.Schedules {
		if sch.Currency != currency {
			continue
		}
		if sch.Status != ScheduleStatusActive {
			continue
		}
		if at.Before(sch.EffectiveFrom) {
			continue
		}
		if sch.EffectiveTo != nil && !at.Before(*sch.EffectiveTo) {
			continue
		}
		if !found || sch.EffectiveFrom.After(best.EffectiveFrom) {
			best = sch
			found = true
		}
	}

	return best, found, nil
}

package billing

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestChargeableDays(t *testing.T) {
	if got := chargeableDays(10, 5); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := chargeableDays(3, 5); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := chargeableDays(10, 0); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	if got := chargeableDays(10, -1); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
}

func TestAccruedFeeMinor(t *testing.T) {
	// 100000 minor at 50 bps/day for 4 days = 2000
	if got := accruedFeeMinor(100_000, 50, 4, 0); got != 2000 {
		t.Fatalf("expected 2000, got %d", got)
	}
	// cap applies
	if got := accruedFeeMinor(100_000, 50, 4, 1500); got != 1500 {
		t.Fatalf("expected 1500, got %d", got)
	}
	if got := accruedFeeMinor(0, 50, 4, 0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := accruedFeeMinor(100_000, 50, 0, 0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestFeeScheduleEffectiveWindow(t *testing.T) {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	may := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	repo := &FeeMemoryRepo{Schedules: []FeeSchedule{
		{ID: "old", Currency: "INR", RatePerDayBasisPoints: 25, EffectiveFrom: jan, EffectiveTo: &may, Status: ScheduleStatusActive},
		{ID: "new", Currency: "INR", RatePerDayBasisPoints: 50, EffectiveFrom: mar, Status: ScheduleStatusActive},
		{ID: "archived", Currency: "INR", RatePerDayBasisPoints: 99, EffectiveFrom: jan, Status: ScheduleStatusArchived},
		{ID: "usd", Currency: "USD", RatePerDayBasisPoints: 10, EffectiveFrom: jan, Status: ScheduleStatusActive},
	}}

	sch, ok, err := repo.FindFeeSchedule(context.Background(), "INR", jan.AddDate(0, 1, 0))
	if err != nil || !ok {
		t.Fatalf("find: ok=%v err=%v", ok, err)
	}
	if sch.ID != "old" {
		t.Fatalf("expected old schedule in February, got %q", sch.ID)
	}

	sch, ok, _ = repo.FindFeeSchedule(context.Background(), "INR", mar.AddDate(0, 1, 0))
	if !ok || sch.ID != "new" {
		t.Fatalf("expected new schedule in April, got %q (ok=%v)", sch.ID, ok)
	}

	_, ok, _ = repo.FindFeeSchedule(context.Background(), "EUR", mar)
	if ok {
		t.Fatal("expected no EUR schedule")
	}
}

func TestQuoteAndAccrueLateFee(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)
	svc.WithFeeSchedules(&FeeMemoryRepo{Schedules: []FeeSchedule{{
		ID:                    "sched-1",
		Currency:              "INR",
		GraceDays:             3,
		RatePerDayBasisPoints: 50,
		EffectiveFrom:         now.AddDate(0, -1, 0),
		Status:                ScheduleStatusActive,
	}}})
	a := openTestAccount(t, svc)

	// Charge fell due 10 days ago; 3 grace days leave 7 chargeable.
	due := now.AddDate(0, 0, -10)
	if _, _, err := svc.Charge(context.Background(), a.ID, PostRequest{
		AmountMinor:    100_000,
		Currency:       "INR",
		IdempotencyKey: "inv-1",
		DueDate:        &due,
	}); err != nil {
		t.Fatalf("charge: %v", err)
	}

	fee, err := svc.QuoteLateFee(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if fee.DaysPastDue != 10 || fee.ChargeableDays != 7 {
		t.Fatalf("days = %d/%d, want 10/7", fee.DaysPastDue, fee.ChargeableDays)
	}
	if fee.FeeMinor != 3500 {
		t.Fatalf("fee = %d, want 3500", fee.FeeMinor)
	}

	accrued, err := svc.AccrueLateFee(context.Background(), a.ID, "latefee-2026-03-20")
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if accrued.FeeMinor != 3500 {
		t.Fatalf("accrued = %d, want 3500", accrued.FeeMinor)
	}

	bal, err := svc.Outstanding(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("outstanding: %v", err)
	}
	if bal.OutstandingMinor != 103_500 {
		t.Fatalf("outstanding = %d, want 103500", bal.OutstandingMinor)
	}

	// Same key posts nothing new.
	if _, err := svc.AccrueLateFee(context.Background(), a.ID, "latefee-2026-03-20"); err != nil {
		t.Fatalf("accrue again: %v", err)
	}
	bal, _ = svc.Outstanding(context.Background(), a.ID)
	if bal.OutstandingMinor != 103_500 {
		t.Fatalf("outstanding after replay = %d, want 103500", bal.OutstandingMinor)
	}
}

func TestQuoteLateFeeWithinGraceIsZero(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)
	svc.WithFeeSchedules(&FeeMemoryRepo{Schedules: []FeeSchedule{{
		ID:                    "sched-1",
		Currency:              "INR",
		GraceDays:             5,
		RatePerDayBasisPoints: 50,
		EffectiveFrom:         now.AddDate(0, -1, 0),
		Status:                ScheduleStatusActive,
	}}})
	a := openTestAccount(t, svc)

	due := now.AddDate(0, 0, -2)
	if _, _, err := svc.Charge(context.Background(), a.ID, PostRequest{
		AmountMinor:    100_000,
		Currency:       "INR",
		IdempotencyKey: "inv-1",
		DueDate:        &due,
	}); err != nil {
		t.Fatalf("charge: %v", err)
	}

	fee, err := svc.QuoteLateFee(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if fee.FeeMinor != 0 {
		t.Fatalf("fee = %d, want 0 inside grace window", fee.FeeMinor)
	}

	// A zero quote must not post.
	if _, err := svc.AccrueLateFee(context.Background(), a.ID, "latefee-1"); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	entries, _ := svc.repo.Entries(context.Background(), a.ID)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
}

func TestQuoteLateFeeWithoutSchedules(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)
	a := openTestAccount(t, svc)

	if _, err := svc.QuoteLateFee(context.Background(), a.ID); !errors.Is(err, ErrNoFeeSchedule) {
		t.Fatalf("expected ErrNoFeeSchedule, got %v", err)
	}
}

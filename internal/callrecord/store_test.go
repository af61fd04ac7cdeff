package callrecord

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeScheduler struct {
	calls []CallRecord
	err   error
}

func (f *fakeScheduler) Schedule(ctx context.Context, rec CallRecord) error {
	f.calls = append(f.calls, rec)
	return f.err
}

type failingRemote struct{}

func (failingRemote) ListCalls(ctx context.Context, q ListQuery) (Page, error) {
	return Page{}, errors.New("backend unreachable")
}

func newTestStore(sched FollowUpScheduler, opts ...StoreOption) *Store {
	clock := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	opts = append(opts, WithClock(func() time.Time { return clock }))
	return NewStore(NewMemoryRepo(), sched, nil, opts...)
}

func TestAppendAssignsIdentityAndStatus(t *testing.T) {
	store := newTestStore(&fakeScheduler{})

	rec, err := store.Append(context.Background(), CallRecord{
		CallerNumber: "+91 98765 43210",
		Reason:       "Policy Inquiry",
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if rec.Status != StatusCompleted {
		t.Fatalf("expected completed status, got %s", rec.Status)
	}
	if rec.Timestamp.IsZero() {
		t.Fatalf("expected timestamp")
	}
	if rec.Duration != "0s" {
		t.Fatalf("expected default duration, got %s", rec.Duration)
	}
}

func TestAppendRejectsMissingCaller(t *testing.T) {
	store := newTestStore(&fakeScheduler{})
	_, err := store.Append(context.Background(), CallRecord{})
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestHistoryPreservesInsertionOrder(t *testing.T) {
	store := newTestStore(&fakeScheduler{})

	r1, _ := store.Append(context.Background(), CallRecord{CallerNumber: "111", Reason: "first"})
	r2, _ := store.Append(context.Background(), CallRecord{CallerNumber: "222", Reason: "second"})

	hist, err := store.History(context.Background())
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(hist) != 2 || hist[0].ID != r1.ID || hist[1].ID != r2.ID {
		t.Fatalf("unexpected order: %+v", hist)
	}

	// Mutating the returned slice must not affect the log.
	hist[0].Reason = "tampered"
	again, _ := store.History(context.Background())
	if again[0].Reason != "first" {
		t.Fatalf("log entry mutated through read copy")
	}
}

func TestConditionalScheduling(t *testing.T) {
	cases := []struct {
		name string
		rec  CallRecord
		want bool
	}{
		{"all fields set", CallRecord{CallerNumber: "1", FollowUpRequired: true, FollowUpDate: "2026-02-02", FollowUpTime: "10:00"}, true},
		{"flag missing", CallRecord{CallerNumber: "1", FollowUpDate: "2026-02-02", FollowUpTime: "10:00"}, false},
		{"date missing", CallRecord{CallerNumber: "1", FollowUpRequired: true, FollowUpTime: "10:00"}, false},
		{"time missing", CallRecord{CallerNumber: "1", FollowUpRequired: true, FollowUpDate: "2026-02-02"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sched := &fakeScheduler{}
			store := newTestStore(sched)
			if _, err := store.Append(context.Background(), tc.rec); err != nil {
				t.Fatalf("append failed: %v", err)
			}
			if got := len(sched.calls) == 1; got != tc.want {
				t.Fatalf("scheduler invoked=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestSchedulingFailureKeepsRecord(t *testing.T) {
	sched := &fakeScheduler{err: errors.New("bad date")}
	store := newTestStore(sched)

	_, err := store.Append(context.Background(), CallRecord{
		CallerNumber:     "+91 98765 43210",
		FollowUpRequired: true,
		FollowUpDate:     "2026-02-30",
		FollowUpTime:     "10:00",
	})
	if err == nil {
		t.Fatalf("expected scheduling failure to propagate")
	}
	hist, _ := store.History(context.Background())
	if len(hist) != 1 {
		t.Fatalf("record should stay appended, got %d records", len(hist))
	}
}

func TestHistoryForFiltersByIdentity(t *testing.T) {
	store := newTestStore(&fakeScheduler{})
	store.Append(context.Background(), CallRecord{CallerNumber: "111", CustomerID: "CUST-1"})
	store.Append(context.Background(), CallRecord{CallerNumber: "222", CustomerID: "CUST-2"})
	store.Append(context.Background(), CallRecord{CallerNumber: "111"})

	got, err := store.HistoryFor(context.Background(), "CUST-1", "111")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matching records, got %d", len(got))
	}
}

func TestListPagedFallbackIsDeterministic(t *testing.T) {
	store := newTestStore(&fakeScheduler{}, WithRemote(failingRemote{}))

	q := ListQuery{Page: 2, Limit: 10}
	first, err := store.ListPaged(context.Background(), q)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	second, err := store.ListPaged(context.Background(), q)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if first.Pagination.Total != second.Pagination.Total {
		t.Fatalf("total changed between calls: %d vs %d", first.Pagination.Total, second.Pagination.Total)
	}
	if len(first.Records) != len(second.Records) {
		t.Fatalf("page size changed between calls")
	}
	for i := range first.Records {
		if first.Records[i].CallID != second.Records[i].CallID {
			t.Fatalf("record %d call id changed: %s vs %s", i, first.Records[i].CallID, second.Records[i].CallID)
		}
	}
}

func TestListPagedLastPageIsShort(t *testing.T) {
	page := SyntheticPage(14, 10) // 137 total -> last page has 7
	if len(page.Records) != 7 {
		t.Fatalf("expected 7 records on the last page, got %d", len(page.Records))
	}
	if p := SyntheticPage(15, 10); len(p.Records) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(p.Records))
	}
}

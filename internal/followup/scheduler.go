package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/welleazyhts/p360-callcenter/internal/callrecord"

	"github.com/google/uuid"
)

const StatusScheduled = "scheduled"

// Reminder is derived from a call record tagged with a future follow-up
// commitment. CallID is a non-owning back-reference.
type Reminder struct {
	ID          string    `json:"id"`
	CallID      string    `json:"callId"`
	CustomerID  string    `json:"customerId,omitempty"`
	ScheduledAt time.Time `json:"scheduledDateTime"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes,omitempty"`
	Status      string    `json:"status"`
}

// Store persists reminders so they survive past the call that created them.
type Store interface {
	Save(ctx context.Context, r Reminder) error
	List(ctx context.Context) ([]Reminder, error)
}

var ErrBadSchedule = errors.New("followup: invalid follow-up date/time")

// Scheduler turns a tagged record into a scheduled reminder.
//
// It fails loudly when the date/time pair cannot be parsed; a silently
// dropped follow-up is a business-visible failure.
type Scheduler struct {
	store Store
	loc   *time.Location
}

func NewScheduler(store Store) *Scheduler {
	return &Scheduler{store: store, loc: time.UTC}
}

// WithLocation sets the timezone follow-up times are entered in.
func (s *Scheduler) WithLocation(loc *time.Location) *Scheduler {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// ScheduleReminder builds, persists, and returns the reminder.
func (s *Scheduler) ScheduleReminder(ctx context.Context, rec callrecord.CallRecord) (Reminder, error) {
	at, err := CombineDateTime(rec.FollowUpDate, rec.FollowUpTime, s.loc)
	if err != nil {
		return Reminder{}, err
	}

	r := Reminder{
		ID:          uuid.NewString(),
		CallID:      rec.ID,
		CustomerID:  rec.CustomerID,
		ScheduledAt: at,
		Reason:      rec.Reason,
		Notes:       rec.Notes,
		Status:      StatusScheduled,
	}

	if s.store != nil {
		if err := s.store.Save(ctx, r); err != nil {
			return Reminder{}, fmt.Errorf("save reminder: %w", err)
		}
	}
	return r, nil
}

// Schedule satisfies callrecord.FollowUpScheduler.
func (s *Scheduler) Schedule(ctx context.Context, rec callrecord.CallRecord) error {
	_, err := s.ScheduleReminder(ctx, rec)
	return err
}

// CombineDateTime merges a YYYY-MM-DD date and an HH:MM time into one
// timestamp in the given location.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	at, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q %q", ErrBadSchedule, date, clock)
	}
	return at, nil
}

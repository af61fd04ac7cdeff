package tagging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/welleazyhts/p360-callcenter/internal/audit"
	"github.com/welleazyhts/p360-callcenter/internal/callrecord"
	"github.com/welleazyhts/p360-callcenter/internal/directory"
	"github.com/welleazyhts/p360-callcenter/internal/followup"
	"github.com/welleazyhts/p360-callcenter/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	workflow  *Workflow
	sessions  *session.Manager
	records   *callrecord.MemoryRepo
	reminders *followup.MemoryStore
	audits    *audit.MemoryRepo
}

type failingRepo struct{}

func (failingRepo) Append(ctx context.Context, rec callrecord.CallRecord) error {
	return errors.New("backend rejected save")
}

func (failingRepo) List(ctx context.Context) ([]callrecord.CallRecord, error) {
	return nil, nil
}

func newEnv(t *testing.T, cfg Config, repo callrecord.Repository) *env {
	t.Helper()

	e := &env{
		sessions:  session.NewManager(),
		records:   callrecord.NewMemoryRepo(),
		reminders: followup.NewMemoryStore(),
		audits:    audit.NewMemoryRepo(),
	}
	if repo == nil {
		repo = e.records
	}

	sched := followup.NewScheduler(e.reminders)
	store := callrecord.NewStore(repo, sched, nil)
	dir := directory.NewService(directory.NewMemoryRepo(directory.SeedPeople()), nil)

	e.workflow = NewWorkflow(e.sessions, dir, store, audit.NewService(e.audits), nil, cfg)
	return e
}

func TestEndToEndKnownCustomerWithFollowUp(t *testing.T) {
	e := newEnv(t, Config{}, nil)
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	st, err := e.workflow.OpenFrom(context.Background(), "+91 98765 43210")
	require.NoError(t, err)
	require.True(t, st.Lookup.Found)
	assert.Equal(t, "Rajesh Kumar", st.Lookup.Person.Name)
	assert.Equal(t, "rajesh.kumar@example.com", st.Lookup.Person.Email)

	res, err := e.workflow.Submit(context.Background(), Form{
		CommunicationMode: callrecord.ModeCall,
		Type:              callrecord.TypeFollowUp,
		Resolution:        callrecord.ResolutionPending,
		Reason:            "Payment Promise",
		Priority:          callrecord.PriorityHigh,
		FollowUpRequired:  true,
		FollowUpDate:      tomorrow,
		FollowUpTime:      "10:00",
	})
	require.NoError(t, err)
	require.True(t, res.Saved)

	recs, err := e.records.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Payment Promise", recs[0].Reason)
	assert.Equal(t, st.Lookup.Person.ID, recs[0].CustomerID)
	assert.Equal(t, tomorrow, recs[0].FollowUpDate)
	assert.Equal(t, "10:00", recs[0].FollowUpTime)
	assert.Equal(t, callrecord.StatusCompleted, recs[0].Status)

	rems, err := e.reminders.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rems, 1)
	want, err := followup.CombineDateTime(tomorrow, "10:00", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, want, rems[0].ScheduledAt)
	assert.Equal(t, recs[0].ID, rems[0].CallID)

	// Session is finalized and cleared.
	_, active := e.sessions.Active()
	assert.False(t, active)
	_, open := e.workflow.Current()
	assert.False(t, open)
}

func TestSubmitWithoutFollowUpSchedulesNothing(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	_, err := e.workflow.OpenFrom(context.Background(), "+1 555 000 1111")
	require.NoError(t, err)

	res, err := e.workflow.Submit(context.Background(), Form{
		CommunicationMode: callrecord.ModeCall,
		Type:              callrecord.TypeQuery,
		Resolution:        callrecord.ResolutionResolved,
		Reason:            "General Inquiry",
		Priority:          callrecord.PriorityLow,
	})
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Empty(t, res.Record.CustomerID, "unknown caller saves with no identity")

	rems, _ := e.reminders.List(context.Background())
	assert.Empty(t, rems)
}

func TestLegacySaveFailureClosesAnyway(t *testing.T) {
	e := newEnv(t, Config{SurfaceSaveFailure: false}, failingRepo{})

	var callback *Result
	e.workflow.OnComplete(func(r Result) { callback = &r })

	_, err := e.workflow.OpenFrom(context.Background(), "+91 98765 43210")
	require.NoError(t, err)

	res, err := e.workflow.Submit(context.Background(), Form{Reason: "Policy Inquiry"})
	require.NoError(t, err, "legacy policy swallows the save failure")
	assert.False(t, res.Saved)
	assert.Equal(t, "Policy Inquiry", res.Record.Reason)

	require.NotNil(t, callback, "completion callback still fires with the unsaved form")
	assert.False(t, callback.Saved)

	_, open := e.workflow.Current()
	assert.False(t, open, "dialog closes regardless of backend failure")

	// The failure is observable in the audit trail.
	events, _ := e.audits.List(context.Background())
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventTypeSaveFailed, events[0].Type)
}

func TestSurfacedSaveFailureKeepsWorkflowOpen(t *testing.T) {
	e := newEnv(t, Config{SurfaceSaveFailure: true}, failingRepo{})

	_, err := e.workflow.OpenFrom(context.Background(), "+91 98765 43210")
	require.NoError(t, err)

	_, err = e.workflow.Submit(context.Background(), Form{Reason: "Policy Inquiry"})
	require.Error(t, err)

	_, open := e.workflow.Current()
	assert.True(t, open, "workflow stays open for a retry")
}

func TestSchedulingFailurePropagatesButRecordIsSaved(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	_, err := e.workflow.OpenFrom(context.Background(), "+91 98765 43210")
	require.NoError(t, err)

	_, err = e.workflow.Submit(context.Background(), Form{
		Reason:           "Payment Promise",
		FollowUpRequired: true,
		FollowUpDate:     "2026-02-30", // impossible date
		FollowUpTime:     "10:00",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, followup.ErrBadSchedule)

	recs, _ := e.records.List(context.Background())
	assert.Len(t, recs, 1, "record stays appended even when the reminder failed")
}

func TestAbandonDropsSessionAndSavesNothing(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	_, err := e.workflow.Open(context.Background())
	require.NoError(t, err)

	require.NoError(t, e.workflow.Abandon(context.Background()))

	recs, _ := e.records.List(context.Background())
	assert.Empty(t, recs)
	_, active := e.sessions.Active()
	assert.False(t, active)

	events, _ := e.audits.List(context.Background())
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventTypeWorkflowAbandoned, events[0].Type)
}

func TestOpenWhileOpenIsRejected(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	_, err := e.workflow.Open(context.Background())
	require.NoError(t, err)

	_, err = e.workflow.Open(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyOpen)
}

func TestPriorInteractionsShownForRepeatCaller(t *testing.T) {
	e := newEnv(t, Config{}, nil)

	_, err := e.workflow.OpenFrom(context.Background(), "+91 98765 43210")
	require.NoError(t, err)
	_, err = e.workflow.Submit(context.Background(), Form{Reason: "Policy Inquiry"})
	require.NoError(t, err)

	st, err := e.workflow.OpenFrom(context.Background(), "+91 98765 43210")
	require.NoError(t, err)
	require.Len(t, st.PriorCalls, 1)
	assert.Equal(t, "Policy Inquiry", st.PriorCalls[0].Reason)
}

func TestSubmitWithoutOpen(t *testing.T) {
	e := newEnv(t, Config{}, nil)
	_, err := e.workflow.Submit(context.Background(), Form{})
	assert.ErrorIs(t, err, ErrNotOpen)
}

package tagging

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/welleazyhts/p360-callcenter/internal/audit"
	"github.com/welleazyhts/p360-callcenter/internal/callrecord"
	"github.com/welleazyhts/p360-callcenter/internal/directory"
	"github.com/welleazyhts/p360-callcenter/internal/session"
)

var (
	ErrNotOpen     = errors.New("tagging: no workflow in progress")
	ErrAlreadyOpen = errors.New("tagging: a workflow is already in progress")
)

type Config struct {
	// SurfaceSaveFailure controls the save-failure policy. When false the
	// workflow reproduces the legacy front-end: log the failure, hand the
	// unsaved form to the completion callback, and close anyway. When true
	// the error is returned and the workflow stays open for a retry.
	SurfaceSaveFailure bool
}

// Form carries the classification the agent filled in.
type Form struct {
	CommunicationMode callrecord.CommunicationMode `json:"communicationMode"`
	Type              callrecord.InteractionType   `json:"type"`
	Resolution        callrecord.Resolution        `json:"resolution"`
	Reason            string                       `json:"reason"`
	Tag               string                       `json:"tag"`
	Priority          callrecord.Priority          `json:"priority"`
	Notes             string                       `json:"notes,omitempty"`

	FollowUpRequired bool   `json:"followUpRequired"`
	FollowUpDate     string `json:"followUpDate,omitempty"`
	FollowUpTime     string `json:"followUpTime,omitempty"`
}

// State is what the tagging screen renders after opening: the live session,
// the caller resolution, and the caller's prior interactions.
type State struct {
	Session    session.Session         `json:"session"`
	Lookup     directory.LookupResult  `json:"lookup"`
	PriorCalls []callrecord.CallRecord `json:"priorCalls"`
}

// Result is handed to the completion callback on submit. Saved reports
// whether the record actually reached the store.
type Result struct {
	Record callrecord.CallRecord `json:"record"`
	Saved  bool                  `json:"saved"`
}

// Workflow is the shared shape behind the lead, debtor, service-ticket, and
// QA tagging screens: capture -> lookup -> classify -> save -> follow-up.
//
// One workflow instance serves one agent; steps within it are strictly
// sequential. Opening while another tagging is in progress is rejected
// rather than silently discarding the prior session.
type Workflow struct {
	sessions *session.Manager
	dir      *directory.Service
	store    *callrecord.Store
	audit    *audit.Service
	log      *slog.Logger
	cfg      Config

	onComplete func(Result)

	mu    sync.Mutex
	state *State
}

func NewWorkflow(sessions *session.Manager, dir *directory.Service, store *callrecord.Store, auditSvc *audit.Service, log *slog.Logger, cfg Config) *Workflow {
	if log == nil {
		log = slog.Default()
	}
	return &Workflow{
		sessions: sessions,
		dir:      dir,
		store:    store,
		audit:    auditSvc,
		log:      log,
		cfg:      cfg,
	}
}

// OnComplete registers the completion callback invoked on every submit,
// saved or not. The workflow never blocks the agent on a backend failure
// unless configured to surface it.
func (w *Workflow) OnComplete(f func(Result)) { w.onComplete = f }

// Open captures an incoming call from the simulation pool and resolves the
// caller.
func (w *Workflow) Open(ctx context.Context) (State, error) {
	return w.open(ctx, "")
}

// OpenFrom starts the workflow for a caller number delivered by telephony
// middleware (webhook path).
func (w *Workflow) OpenFrom(ctx context.Context, callerNumber string) (State, error) {
	if callerNumber == "" {
		return State{}, errors.New("tagging: caller number required")
	}
	return w.open(ctx, callerNumber)
}

func (w *Workflow) open(ctx context.Context, callerNumber string) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != nil {
		return State{}, ErrAlreadyOpen
	}

	var sess session.Session
	if callerNumber == "" {
		sess = w.sessions.CaptureIncoming()
	} else {
		sess = w.sessions.CaptureFrom(callerNumber)
	}

	res := w.dir.Lookup(ctx, sess.CallerNumber)

	var prior []callrecord.CallRecord
	customerID := ""
	if res.Found {
		customerID = res.Person.ID
	}
	prior, err := w.store.HistoryFor(ctx, customerID, sess.CallerNumber)
	if err != nil {
		// Prior interactions are advisory; an empty panel beats a blocked capture.
		w.log.Warn("prior interactions unavailable", "err", err)
		prior = nil
	}

	st := State{Session: sess, Lookup: res, PriorCalls: prior}
	w.state = &st
	return st, nil
}

// Current returns the in-progress state, if any.
func (w *Workflow) Current() (State, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == nil {
		return State{}, false
	}
	return *w.state, true
}

// Submit finalizes the session and appends the tagged record.
//
// Save failure follows Config.SurfaceSaveFailure. A follow-up scheduling
// failure always propagates: the record was appended but the promised
// reminder does not exist, and that must not be invisible.
func (w *Workflow) Submit(ctx context.Context, form Form) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == nil {
		return Result{}, ErrNotOpen
	}

	st := w.state
	if ended := w.sessions.End(); ended != nil {
		// Keep the finalized session on the state so a retried submit after a
		// surfaced save failure still carries the real duration.
		st.Session = *ended
	}

	rec := callrecord.CallRecord{
		CallerNumber:      st.Session.CallerNumber,
		CallID:            st.Session.CallID,
		CommunicationMode: form.CommunicationMode,
		Type:              form.Type,
		Resolution:        form.Resolution,
		Reason:            form.Reason,
		Tag:               form.Tag,
		Priority:          form.Priority,
		Notes:             form.Notes,
		FollowUpRequired:  form.FollowUpRequired,
		FollowUpDate:      form.FollowUpDate,
		FollowUpTime:      form.FollowUpTime,
	}
	if st.Lookup.Found {
		rec.CustomerID = st.Lookup.Person.ID
	}
	rec.Duration = st.Session.Duration

	saved, err := w.store.Append(ctx, rec)
	if err != nil && saved.ID != "" {
		// Appended, but the follow-up reminder was not produced.
		w.state = nil
		w.complete(Result{Record: saved, Saved: true})
		return Result{Record: saved, Saved: true}, err
	}
	if err != nil {
		w.auditEvent(ctx, audit.EventTypeSaveFailed, rec, err.Error())
		if w.cfg.SurfaceSaveFailure {
			// Workflow stays open; the agent can resubmit the same form.
			w.log.Error("call record save failed", "caller", rec.CallerNumber, "err", err)
			return Result{}, err
		}
		// Legacy behavior: never block the agent. The unsaved form goes to
		// the completion callback and the dialog closes.
		w.log.Error("call record save failed, closing anyway", "caller", rec.CallerNumber, "err", err)
		w.state = nil
		res := Result{Record: rec, Saved: false}
		w.complete(res)
		return res, nil
	}

	w.auditEvent(ctx, audit.EventTypeCallTagged, saved, "")
	if saved.FollowUpRequired && saved.FollowUpDate != "" && saved.FollowUpTime != "" {
		w.auditEvent(ctx, audit.EventTypeFollowUpScheduled, saved, "")
	}

	w.state = nil
	res := Result{Record: saved, Saved: true}
	w.complete(res)
	return res, nil
}

// Abandon closes the workflow without saving. The captured session is
// dropped without finalizing; no call record is created.
func (w *Workflow) Abandon(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == nil {
		return ErrNotOpen
	}

	rec := callrecord.CallRecord{
		CallID:       w.state.Session.CallID,
		CallerNumber: w.state.Session.CallerNumber,
	}
	w.sessions.Abandon()
	w.state = nil
	w.auditEvent(ctx, audit.EventTypeWorkflowAbandoned, rec, "")
	return nil
}

func (w *Workflow) complete(res Result) {
	if w.onComplete != nil {
		w.onComplete(res)
	}
}

func (w *Workflow) auditEvent(ctx context.Context, typ audit.EventType, rec callrecord.CallRecord, msg string) {
	if w.audit == nil {
		return
	}
	if err := w.audit.Append(ctx, audit.Event{
		Type:         typ,
		AgentID:      rec.AgentID,
		CallID:       rec.CallID,
		RecordID:     rec.ID,
		CustomerID:   rec.CustomerID,
		CallerNumber: rec.CallerNumber,
		Message:      msg,
	}); err != nil {
		w.log.Warn("audit append failed", "type", typ, "err", err)
	}
}

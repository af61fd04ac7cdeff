package dialer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Provider is the remote dialing boundary, typically the CRM backend's
// telephony bridge. All Dialer operations try the provider first and fall
// back to the in-memory mock lifecycle when it fails.
type Provider interface {
	Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error)
	Status(ctx context.Context, callID string) (CallStatus, error)
	Hangup(ctx context.Context, callID string) error
	Transfer(ctx context.Context, callID, target string) error
}

var (
	ErrInvalidRequest = errors.New("dialer: invalid request")
	ErrCallNotFound   = errors.New("dialer: call not found")
	ErrPolicyBlocked  = errors.New("dialer: blocked by dial policy")
)

// Dialer initiates and controls outbound calls.
//
// Side effects of the fallback path are confined to the in-memory map and
// its timers; no external I/O occurs once the provider has failed.
type Dialer struct {
	provider Provider
	policy   *Policy
	mock     *mockExchange

	log *slog.Logger
}

type Option func(*Dialer)

// WithProvider wires the remote dialing backend.
func WithProvider(p Provider) Option {
	return func(d *Dialer) { d.provider = p }
}

// WithPolicy enables pre-dial policy evaluation.
func WithPolicy(p *Policy) Option {
	return func(d *Dialer) { d.policy = p }
}

// WithMockDelays tunes the mock lifecycle (queued -> in-progress -> completed).
func WithMockDelays(queued, progress time.Duration) Option {
	return func(d *Dialer) {
		d.mock.queuedDelay = queued
		d.mock.progressDelay = progress
	}
}

func WithClock(clock func() time.Time) Option {
	return func(d *Dialer) { d.mock.clock = clock }
}

func New(log *slog.Logger, opts ...Option) *Dialer {
	if log == nil {
		log = slog.Default()
	}
	d := &Dialer{
		mock: newMockExchange(),
		log:  log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Initiate validates, checks policy, and starts an outbound call. Validation
// and policy failures happen before any network call or state creation.
func (d *Dialer) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	if req.To == "" {
		return InitiateResult{}, fmt.Errorf("%w: to is required", ErrInvalidRequest)
	}
	if req.From == "" && req.AgentID == "" {
		return InitiateResult{}, fmt.Errorf("%w: one of from or agentId is required", ErrInvalidRequest)
	}

	if d.policy != nil && !req.OverridePolicy {
		if err := d.policy.Evaluate(req); err != nil {
			return InitiateResult{}, err
		}
	}

	if d.provider != nil {
		res, err := d.provider.Initiate(ctx, req)
		if err == nil {
			return res, nil
		}
		d.log.Warn("remote dial failed, falling back to mock lifecycle", "to", req.To, "err", err)
	}

	return d.mock.initiate(req), nil
}

// Status resolves a call's current state. Unknown ids resolve to a sentinel
// unknown status rather than an error; status polling must stay tolerant.
func (d *Dialer) Status(ctx context.Context, callID string) (CallStatus, error) {
	if callID == "" {
		return CallStatus{}, fmt.Errorf("%w: callId is required", ErrInvalidRequest)
	}

	if d.provider != nil {
		st, err := d.provider.Status(ctx, callID)
		if err == nil {
			return st, nil
		}
		d.log.Debug("remote status failed, reading mock state", "call_id", callID, "err", err)
	}

	if st, ok := d.mock.status(callID); ok {
		return st, nil
	}
	return CallStatus{CallID: callID, Status: StatusUnknown}, nil
}

// Hangup terminates a call. Unlike Status, an unknown id is an error: the
// agent asked for an action on a call that does not exist.
func (d *Dialer) Hangup(ctx context.Context, callID string) (CallStatus, error) {
	if callID == "" {
		return CallStatus{}, fmt.Errorf("%w: callId is required", ErrInvalidRequest)
	}

	if d.provider != nil {
		if err := d.provider.Hangup(ctx, callID); err == nil {
			return d.Status(ctx, callID)
		}
	}

	return d.mock.terminate(callID, StatusHungup, "")
}

// Transfer redirects a call to a new target. Same tolerance rules as Hangup.
func (d *Dialer) Transfer(ctx context.Context, callID, target string) (CallStatus, error) {
	if callID == "" || target == "" {
		return CallStatus{}, fmt.Errorf("%w: callId and target are required", ErrInvalidRequest)
	}

	if d.provider != nil {
		if err := d.provider.Transfer(ctx, callID, target); err == nil {
			return d.Status(ctx, callID)
		}
	}

	return d.mock.terminate(callID, StatusTransferred, target)
}

package dialer

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// mockExchange simulates a dialing backend entirely in memory. State
// transitions run on timers along a fixed forward path:
//
//	queued -> in-progress -> completed
//
// Every transition is guarded by the expected prior status, so a timer that
// fires after an explicit hangup or transfer is a no-op; a terminated call
// is never resurrected to completed.
type mockExchange struct {
	mu    sync.Mutex
	calls map[string]*mockCall

	queuedDelay   time.Duration
	progressDelay time.Duration
	clock         func() time.Time
}

type mockCall struct {
	CallStatus
}

func newMockExchange() *mockExchange {
	return &mockExchange{
		calls:         map[string]*mockCall{},
		queuedDelay:   2 * time.Second,
		progressDelay: 30 * time.Second,
		clock:         time.Now,
	}
}

func (m *mockExchange) initiate(req InitiateRequest) InitiateResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	callID := uuid.NewString()
	queueID := fmt.Sprintf("mockq-%s", uuid.NewString()[:8])

	c := &mockCall{CallStatus: CallStatus{
		CallID:   callID,
		Status:   StatusQueued,
		QueueID:  queueID,
		To:       req.To,
		From:     req.From,
		AgentID:  req.AgentID,
		QueuedAt: &now,
		History:  []Transition{{Status: StatusQueued, At: now}},
	}}
	m.calls[callID] = c

	time.AfterFunc(m.queuedDelay, func() {
		m.advance(callID, StatusQueued, StatusInProgress)
	})
	time.AfterFunc(m.queuedDelay+m.progressDelay, func() {
		m.advance(callID, StatusInProgress, StatusCompleted)
	})

	return InitiateResult{CallID: callID, Status: StatusQueued, QueueID: queueID, Provider: "mock"}
}

// advance applies a timer-driven transition iff the call still holds the
// expected prior status.
func (m *mockExchange) advance(callID string, from, to Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.calls[callID]
	if !ok || c.Status != from {
		return
	}

	now := m.clock()
	c.Status = to
	switch to {
	case StatusInProgress:
		c.StartTime = &now
	case StatusCompleted:
		c.EndTime = &now
		if c.StartTime != nil {
			c.DurationSeconds = int(now.Sub(*c.StartTime).Seconds())
		}
	}
	c.History = append(c.History, Transition{Status: to, At: now})
}

func (m *mockExchange) status(callID string) (CallStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.calls[callID]
	if !ok {
		return CallStatus{}, false
	}
	return c.snapshot(), true
}

// terminate ends a call early via hangup or transfer. The call must exist.
func (m *mockExchange) terminate(callID string, to Status, target string) (CallStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.calls[callID]
	if !ok {
		return CallStatus{}, fmt.Errorf("%w: %s", ErrCallNotFound, callID)
	}

	now := m.clock()
	c.Status = to
	c.EndTime = &now
	if c.StartTime != nil {
		c.DurationSeconds = int(now.Sub(*c.StartTime).Seconds())
	}
	if target != "" {
		c.Target = target
	}
	c.History = append(c.History, Transition{Status: to, At: now})
	return c.snapshot(), nil
}

func (c *mockCall) snapshot() CallStatus {
	out := c.CallStatus
	out.History = make([]Transition, len(c.History))
	copy(out.History, c.History)
	return out
}

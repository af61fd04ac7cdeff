package session

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusIncoming Status = "incoming"
	StatusEnded    Status = "ended"
)

// Session is one telephony interaction currently being handled by an agent.
type Session struct {
	CallID       string     `json:"callId"`
	CallerNumber string     `json:"callerNumber"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	Status       Status     `json:"status"`
	Duration     string     `json:"duration,omitempty"`
}

// Manager owns at most one active inbound session. Starting a new capture
// unconditionally replaces any prior active session without finalizing it;
// the caller is expected to End() before re-capturing if the previous call
// matters.
//
// State machine: (none) -> incoming -> ended -> (none). End is the only way
// out of incoming.
type Manager struct {
	mu     sync.Mutex
	active *Session

	clock func() time.Time
	pool  []string
	rng   *rand.Rand
}

// simulationPool stands in for telephony middleware in local mode.
var simulationPool = []string{
	"+91 98765 43210",
	"+91 91234 56789",
	"+91 99887 76655",
	"+91 90011 22334",
	"+91 98220 01122",
}

func NewManager() *Manager {
	return &Manager{
		clock: time.Now,
		pool:  simulationPool,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithClock overrides the time source. Test hook.
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	m.clock = clock
	return m
}

// CaptureIncoming simulates an incoming call by picking a caller from the
// fixed pool. The new session replaces any active one.
func (m *Manager) CaptureIncoming() Session {
	m.mu.Lock()
	number := m.pool[m.rng.Intn(len(m.pool))]
	m.mu.Unlock()
	return m.CaptureFrom(number)
}

// CaptureFrom installs an inbound session for a known caller number, as
// delivered by a telephony webhook.
func (m *Manager) CaptureFrom(number string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Session{
		CallID:       uuid.NewString(),
		CallerNumber: number,
		StartTime:    m.clock(),
		Status:       StatusIncoming,
	}
	m.active = &s
	return s
}

// Active returns a copy of the active session, if any.
func (m *Manager) Active() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Session{}, false
	}
	return *m.active, true
}

// DurationSoFar reports elapsed time on the active session, formatted as
// minutes and seconds ("4m 32s") or seconds alone under one minute. It
// returns "0s" when nothing is active.
func (m *Manager) DurationSoFar() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return FormatDuration(0)
	}
	return FormatDuration(m.clock().Sub(m.active.StartTime))
}

// End finalizes the active session: stamps the end time, computes the final
// duration, and clears the active slot. Returns nil when nothing is active.
func (m *Manager) End() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}

	now := m.clock()
	s := *m.active
	s.EndTime = &now
	s.Duration = FormatDuration(now.Sub(s.StartTime))
	s.Status = StatusEnded
	m.active = nil
	return &s
}

// Abandon drops the active session without finalizing it and reports whether
// one existed. This makes the close-without-save path explicit instead of a
// silent leak.
func (m *Manager) Abandon() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	had := m.active != nil
	m.active = nil
	return had
}

// FormatDuration renders a duration the way the call screens display it.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Seconds())
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}

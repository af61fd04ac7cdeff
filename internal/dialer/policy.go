package dialer

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/welleazyhts/p360-callcenter/internal/directory"
)

// Policy gates outbound dialing. Checks run in order:
//
//  1. do-not-call list (exact match on normalized number)
//  2. calling-hours window [StartHour, EndHour) in Location
//
// Supervisors and admins may dial past a block via InitiateRequest.OverridePolicy.
type Policy struct {
	StartHour int
	EndHour   int
	Location  *time.Location

	mu  sync.Mutex
	dnc map[string]struct{}

	clock func() time.Time
}

func NewPolicy(startHour, endHour int, loc *time.Location) *Policy {
	if loc == nil {
		loc = time.Local
	}
	return &Policy{
		StartHour: startHour,
		EndHour:   endHour,
		Location:  loc,
		dnc:       map[string]struct{}{},
		clock:     time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (p *Policy) WithClock(clock func() time.Time) *Policy {
	p.clock = clock
	return p
}

// BlockNumber adds a number to the do-not-call list.
func (p *Policy) BlockNumber(number string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dnc[directory.Normalize(number)] = struct{}{}
}

func (p *Policy) Evaluate(req InitiateRequest) error {
	p.mu.Lock()
	_, blocked := p.dnc[directory.Normalize(req.To)]
	p.mu.Unlock()
	if blocked {
		return fmt.Errorf("%w: %s is on the do-not-call list", ErrPolicyBlocked, maskNumber(req.To))
	}

	if p.StartHour != p.EndHour {
		hour := p.clock().In(p.Location).Hour()
		if hour < p.StartHour || hour >= p.EndHour {
			return fmt.Errorf("%w: outside calling window %02d:00-%02d:00", ErrPolicyBlocked, p.StartHour, p.EndHour)
		}
	}
	return nil
}

// maskNumber keeps the last 4 digits for logs and error messages.
func maskNumber(number string) string {
	digits := directory.Normalize(number)
	if len(digits) <= 4 {
		return digits
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

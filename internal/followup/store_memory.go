package followup

import (
	"context"
	"sync"
)

// MemoryStore keeps reminders for the process lifetime.
type MemoryStore struct {
	mu        sync.Mutex
	reminders []Reminder
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Save(ctx context.Context, r Reminder) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminders = append(s.reminders, r)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Reminder, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reminder, len(s.reminders))
	copy(out, s.reminders)
	return out, nil
}

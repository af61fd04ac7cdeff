package audit

import (
	"context"
	"testing"
)

func TestAppendAssignsDefaults(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	err := svc.Append(context.Background(), Event{Type: EventTypeCallTagged, AgentID: "a1"})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	events, err := svc.Events(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID == "" || events[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be assigned: %+v", events[0])
	}
}

func TestAppendRejectsMissingType(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.Append(context.Background(), Event{}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

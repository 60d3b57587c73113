package jobs

import "testing"

// TestEventBusSince verifies incremental event reads by sequence.
func TestEventBusSince(t *testing.T) {
	bus := NewEventBus(3)
	bus.Publish(Event{Type: EventTypeStatus, Message: "1"})
	bus.Publish(Event{Type: EventTypeProgress, Message: "2"})
	bus.Publish(Event{Type: EventTypeResult, Message: "3"})

	events := bus.Since(1)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Seq != 2 || events[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", events)
	}
}

// TestEventBusCapsHistory verifies buffer limit trimming behavior.
func TestEventBusCapsHistory(t *testing.T) {
	bus := NewEventBus(2)
	bus.Publish(Event{Message: "1"})
	bus.Publish(Event{Message: "2"})
	bus.Publish(Event{Message: "3"})

	events := bus.Since(0)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Message != "2" || events[1].Message != "3" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

// TestEventBusPreservesAttemptFields verifies retrieval progress payloads.
func TestEventBusPreservesAttemptFields(t *testing.T) {
	bus := NewEventBus(10)
	bus.Publish(Event{
		Type:        EventTypeProgress,
		Message:     "retrieval attempt",
		Attempt:     2,
		MaxAttempts: 3,
		WorkDir:     "/workspace/work_20240315_103000",
	})

	events := bus.Since(0)
	if len(events) != 1 {
		t.Fatalf("len = %d, want 1", len(events))
	}
	got := events[0]
	if got.Attempt != 2 || got.MaxAttempts != 3 {
		t.Fatalf("attempt fields = %d/%d, want 2/3", got.Attempt, got.MaxAttempts)
	}
	if got.WorkDir != "/workspace/work_20240315_103000" {
		t.Fatalf("work dir = %q", got.WorkDir)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("timestamp should be assigned on publish")
	}
}

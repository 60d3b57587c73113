package jobs

import (
	"sync"
	"time"

	"remote-transcriber/internal/domain"
)

// EventType identifies the kind of job event.
type EventType string

const (
	// EventTypeStatus signals a job status transition.
	EventTypeStatus EventType = "status"
	// EventTypeLog carries the outcome of one remote command.
	EventTypeLog EventType = "log"
	// EventTypeProgress carries remote status lines and retrieval attempts.
	EventTypeProgress EventType = "progress"
	// EventTypeResult signals that artifacts landed on local disk.
	EventTypeResult EventType = "result"
	// EventTypeError signals a failure.
	EventTypeError EventType = "error"
)

// Event is a single entry in the job event stream.
type Event struct {
	Seq         int64            `json:"seq"`
	Timestamp   time.Time        `json:"timestamp"`
	JobID       string           `json:"jobId,omitempty"`
	Type        EventType        `json:"type"`
	Status      domain.JobStatus `json:"status,omitempty"`
	Message     string           `json:"message,omitempty"`
	Command     string           `json:"command,omitempty"`
	Args        []string         `json:"args,omitempty"`
	ExitCode    int              `json:"exitCode,omitempty"`
	Stdout      string           `json:"stdout,omitempty"`
	Stderr      string           `json:"stderr,omitempty"`
	WorkDir     string           `json:"workDir,omitempty"`
	ArtifactDir string           `json:"artifactDir,omitempty"`
	Attempt     int              `json:"attempt,omitempty"`
	MaxAttempts int              `json:"maxAttempts,omitempty"`
}

// EventBus is a bounded, ordered in-memory event stream.
type EventBus struct {
	mu        sync.Mutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bus retaining up to maxEvents entries.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}
	return &EventBus{maxEvents: maxEvents}
}

// Publish appends one event, assigning its sequence number.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		overflow := len(b.events) - b.maxEvents
		kept := make([]Event, b.maxEvents)
		copy(kept, b.events[overflow:])
		b.events = kept
	}
	return event
}

// Since returns all retained events with sequence greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

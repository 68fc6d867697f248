package audit

import "time"

// EventType is the terminal outcome of one tool-invocation attempt.
type EventType string

const (
	EventApproved EventType = "approved"
	EventRejected EventType = "rejected"
	EventExecuted EventType = "executed"
)

// Event is one audit record. Field names match the Valet frontend's audit
// log schema.
type Event struct {
	Type      EventType `json:"type"`
	Command   string    `json:"command"`
	Reason    string    `json:"reason,omitempty"`
	ExitCode  *int      `json:"exitCode,omitempty"`
	RunID     string    `json:"runId,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// NewEvent stamps a record with the current UTC time.
func NewEvent(t EventType, command, reason string) Event {
	return Event{
		Type:      t,
		Command:   command,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Sink receives audit events. The gateway calls it at most once per
// terminal outcome per attempt and treats delivery as best effort:
// a failing sink must never fail the governed operation.
type Sink interface {
	Emit(Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event) error

func (f SinkFunc) Emit(e Event) error { return f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) error { return nil })

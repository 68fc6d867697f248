package agent

import "context"

// Request describes one interaction with the assistant runtime.
type Request struct {
	SessionID string
	Prompt    string
}

// ToolCall is a request from the assistant to invoke the governed CLI.
// Command is the full command line, e.g. "mo clean --verbose".
type ToolCall struct {
	ID      string
	Command string
}

// Event is one item of an interaction stream. Payload is opaque to the
// gateway and forwarded unchanged; ToolCall, when set, is intercepted and
// validated before the event is forwarded.
type Event struct {
	ToolCall *ToolCall
	Payload  any
}

// Stream is one in-flight interaction.
type Stream interface {
	// Events returns the upstream event channel. The channel is closed when
	// the upstream completes or fails; Err reports the terminal error.
	Events() <-chan Event

	// Err is valid once the Events channel is closed.
	Err() error

	// Close releases upstream resources. Safe to call more than once.
	Close() error
}

// Runtime produces interaction streams. Implementations wrap the actual
// assistant process; the gateway never interprets its payloads.
type Runtime interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/valet-app/molegate/internal/audit"
	"github.com/valet-app/molegate/internal/command"
	"github.com/valet-app/molegate/internal/policy"
)

// ValidationHook is invoked synchronously for every tool call observed on
// the stream, before the call may proceed. It evaluates the command and
// returns the resulting decision; a returned error rejects the call
// outright. policy.(*Engine).Evaluate satisfies this signature.
type ValidationHook func(cmd string) (policy.Decision, error)

// Supervisor is the bounded execution wrapper: it drives one upstream
// interaction at a time, gates every tool call through the validation hook
// in strict stream order, and races the whole interaction against a single
// deadline.
type Supervisor struct {
	runtime  Runtime
	hook     ValidationHook
	sink     audit.Sink
	deadline time.Duration
	newRunID func() string
}

func NewSupervisor(runtime Runtime, hook ValidationHook, sink audit.Sink, deadline time.Duration) *Supervisor {
	if sink == nil {
		sink = audit.Discard
	}
	return &Supervisor{
		runtime:  runtime,
		hook:     hook,
		sink:     sink,
		deadline: deadline,
		newRunID: uuid.NewString,
	}
}

// RunBounded drives one interaction to completion under the supervisor's
// deadline. Every upstream event that passes validation is handed to
// forward, in stream order, on the calling goroutine — a later tool call is
// never validated before an earlier one has been decided.
//
// The return value is nil on normal completion, *TimeoutError when the
// deadline elapses, *ConfirmationRequiredError or a validation error
// (*command.SecurityViolationError, *command.ValidationError) when a tool
// call is denied, and the upstream error unchanged when the runtime itself
// fails. The deadline timer is stopped on every one of those paths.
func (s *Supervisor) RunBounded(ctx context.Context, req Request, forward func(Event)) error {
	stream, err := s.runtime.Stream(ctx, req)
	if err != nil {
		return fmt.Errorf("starting upstream stream: %w", err)
	}
	defer stream.Close()

	runID := s.newRunID()
	timer := time.NewTimer(s.deadline)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timer.C:
			return &TimeoutError{Deadline: s.deadline}

		case event, ok := <-stream.Events():
			if !ok {
				return stream.Err()
			}
			if event.ToolCall != nil {
				if err := s.gate(event.ToolCall, runID); err != nil {
					return err
				}
			}
			if forward != nil {
				forward(event)
			}
		}
	}
}

// gate runs one tool call through the hook and emits the matching audit
// event. Audit delivery is best effort: a failing sink never fails the call.
func (s *Supervisor) gate(call *ToolCall, runID string) error {
	decision, err := s.hook(call.Command)
	if err != nil {
		s.emit(audit.EventRejected, call.Command, rejectReason(err), runID)
		return err
	}
	if !decision.Allowed {
		return &ConfirmationRequiredError{Command: call.Command, Decision: decision}
	}
	s.emit(audit.EventApproved, call.Command, "", runID)
	return nil
}

func (s *Supervisor) emit(t audit.EventType, cmd, reason, runID string) {
	event := audit.NewEvent(t, cmd, reason)
	event.RunID = runID
	_ = s.sink.Emit(event)
}

// rejectReason extracts the specific validator reason so audit records and
// user-facing messages carry it instead of a generic failure string.
func rejectReason(err error) string {
	var sec *command.SecurityViolationError
	if errors.As(err, &sec) {
		return sec.Reason
	}
	var val *command.ValidationError
	if errors.As(err, &val) {
		return val.Reason
	}
	return err.Error()
}

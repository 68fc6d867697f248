package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/valet-app/molegate/internal/audit"
	"github.com/valet-app/molegate/internal/command"
	"github.com/valet-app/molegate/internal/ledger"
	"github.com/valet-app/molegate/internal/policy"
)

// recordingSink captures emitted audit events in order.
type recordingSink struct {
	events []audit.Event
}

func (s *recordingSink) Emit(e audit.Event) error {
	s.events = append(s.events, e)
	return nil
}

func newTestHook() ValidationHook {
	engine := policy.NewEngine(policy.DefaultPolicy(), ledger.New())
	return engine.Evaluate
}

func toolEvent(cmd string) Event {
	return Event{ToolCall: &ToolCall{ID: "t1", Command: cmd}}
}

func textEvent(text string) Event {
	return Event{Payload: text}
}

func TestRunBounded_ForwardsAndApproves(t *testing.T) {
	script := &Script{Events: []Event{
		textEvent("checking disk usage"),
		toolEvent("mo status"),
		toolEvent("mo clean --dry-run"),
		textEvent("done"),
	}}
	sink := &recordingSink{}
	sup := NewSupervisor(script, newTestHook(), sink, time.Second)

	var forwarded []Event
	err := sup.RunBounded(context.Background(), Request{Prompt: "clean up"}, func(e Event) {
		forwarded = append(forwarded, e)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(forwarded) != 4 {
		t.Fatalf("expected 4 forwarded events, got %d", len(forwarded))
	}
	if len(sink.events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(sink.events))
	}
	for _, e := range sink.events {
		if e.Type != audit.EventApproved {
			t.Errorf("expected approved audit event, got %+v", e)
		}
		if e.RunID == "" {
			t.Error("expected a run id on the audit event")
		}
	}
	if sink.events[0].Command != "mo status" || sink.events[1].Command != "mo clean --dry-run" {
		t.Errorf("audit events out of stream order: %+v", sink.events)
	}
}

func TestRunBounded_ConfirmationRequiredAborts(t *testing.T) {
	script := &Script{Events: []Event{
		toolEvent("mo clean"),
		textEvent("never reached"),
	}}
	sink := &recordingSink{}
	sup := NewSupervisor(script, newTestHook(), sink, time.Second)

	var forwarded []Event
	err := sup.RunBounded(context.Background(), Request{}, func(e Event) {
		forwarded = append(forwarded, e)
	})

	var confirm *ConfirmationRequiredError
	if !errors.As(err, &confirm) {
		t.Fatalf("expected ConfirmationRequiredError, got %v", err)
	}
	if confirm.Command != "mo clean" {
		t.Errorf("unexpected command on error: %q", confirm.Command)
	}
	if !confirm.Decision.RequiresDryRun || confirm.Decision.DryRunCommand != "mo clean --dry-run" {
		t.Errorf("expected the dry-run preview to travel with the error, got %+v", confirm.Decision)
	}
	if len(forwarded) != 0 {
		t.Errorf("denied tool call must not be forwarded, got %d events", len(forwarded))
	}
}

func TestRunBounded_SecurityViolationRejectedAndAudited(t *testing.T) {
	script := &Script{Events: []Event{
		toolEvent("mo status; rm -rf /"),
	}}
	sink := &recordingSink{}
	sup := NewSupervisor(script, newTestHook(), sink, time.Second)

	err := sup.RunBounded(context.Background(), Request{}, nil)

	var sec *command.SecurityViolationError
	if !errors.As(err, &sec) {
		t.Fatalf("expected SecurityViolationError, got %v", err)
	}
	if len(sink.events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(sink.events))
	}
	if sink.events[0].Type != audit.EventRejected {
		t.Errorf("expected rejected audit event, got %+v", sink.events[0])
	}
	if sink.events[0].Reason != command.ReasonShellOperators {
		t.Errorf("expected specific rejection reason, got %q", sink.events[0].Reason)
	}
}

func TestRunBounded_HangingStreamTimesOut(t *testing.T) {
	script := &Script{Hang: true}
	sup := NewSupervisor(script, newTestHook(), audit.Discard, 50*time.Millisecond)

	start := time.Now()
	err := sup.RunBounded(context.Background(), Request{}, nil)
	elapsed := time.Since(start)

	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeout.Deadline != 50*time.Millisecond {
		t.Errorf("expected the configured deadline on the error, got %s", timeout.Deadline)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("returned before the deadline: %s", elapsed)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("returned long after the deadline: %s", elapsed)
	}
}

func TestRunBounded_CompletesBeforeDeadline(t *testing.T) {
	script := &Script{Events: []Event{toolEvent("mo status")}}
	sup := NewSupervisor(script, newTestHook(), audit.Discard, time.Second)

	if err := sup.RunBounded(context.Background(), Request{}, nil); err != nil {
		t.Fatalf("completing run must never time out: %v", err)
	}
}

func TestRunBounded_UpstreamErrorPropagates(t *testing.T) {
	upstream := errors.New("assistant process exited")
	script := &Script{
		Events: []Event{textEvent("partial")},
		Fail:   upstream,
	}
	sup := NewSupervisor(script, newTestHook(), audit.Discard, time.Second)

	err := sup.RunBounded(context.Background(), Request{}, nil)
	if !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error unchanged, got %v", err)
	}
}

func TestRunBounded_ContextCancellation(t *testing.T) {
	script := &Script{Hang: true}
	sup := NewSupervisor(script, newTestHook(), audit.Discard, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := sup.RunBounded(ctx, Request{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// Validation must observe tool calls strictly in stream order, even when the
// upstream produces them back to back.
func TestRunBounded_SequentialValidationOrder(t *testing.T) {
	script := &Script{Events: []Event{
		toolEvent("mo status"),
		toolEvent("mo list"),
		toolEvent("mo info"),
	}}

	var seen []string
	hook := func(cmd string) (policy.Decision, error) {
		seen = append(seen, cmd)
		return policy.Decision{Allowed: true, Classification: policy.ClassificationSafe}, nil
	}
	sup := NewSupervisor(script, hook, audit.Discard, time.Second)

	if err := sup.RunBounded(context.Background(), Request{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"mo status", "mo list", "mo info"}
	if len(seen) != len(want) {
		t.Fatalf("expected %d validations, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("validation %d: expected %q, got %q", i, want[i], seen[i])
		}
	}
}

func TestRunBounded_AuditFailureDoesNotAbort(t *testing.T) {
	script := &Script{Events: []Event{toolEvent("mo status")}}
	failing := audit.SinkFunc(func(audit.Event) error {
		return errors.New("disk full")
	})
	sup := NewSupervisor(script, newTestHook(), failing, time.Second)

	if err := sup.RunBounded(context.Background(), Request{}, nil); err != nil {
		t.Fatalf("a failing audit sink must not fail the run: %v", err)
	}
}

package policy

import (
	"errors"
	"testing"

	"github.com/valet-app/molegate/internal/command"
	"github.com/valet-app/molegate/internal/ledger"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultPolicy(), ledger.New())
}

func TestEngine_SafeCommandAllowed(t *testing.T) {
	engine := newTestEngine()

	decision, err := engine.Evaluate("mo status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected allowed decision, got %+v", decision)
	}
	if decision.Classification != ClassificationSafe {
		t.Errorf("expected classification safe, got %s", decision.Classification)
	}
	if decision.RequiresConfirmation {
		t.Errorf("safe command must not require confirmation")
	}
}

func TestEngine_DestructiveCapableRequiresDryRunAndConfirmation(t *testing.T) {
	engine := newTestEngine()

	decision, err := engine.Evaluate("mo clean")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Errorf("expected denied decision, got %+v", decision)
	}
	if decision.Classification != ClassificationDestructive {
		t.Errorf("expected classification destructive, got %s", decision.Classification)
	}
	if !decision.RequiresConfirmation || !decision.RequiresDryRun {
		t.Errorf("expected confirmation and dry-run required, got %+v", decision)
	}
	if decision.DryRunCommand != "mo clean --dry-run" {
		t.Errorf("expected dry-run command %q, got %q", "mo clean --dry-run", decision.DryRunCommand)
	}
	if decision.Reason != ReasonDryRunConfirmation {
		t.Errorf("expected reason %q, got %q", ReasonDryRunConfirmation, decision.Reason)
	}
}

func TestEngine_DryRunOfCapableDestructiveIsAllowed(t *testing.T) {
	engine := newTestEngine()

	decision, err := engine.Evaluate("mo clean --dry-run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected allowed decision, got %+v", decision)
	}
	if decision.Classification != ClassificationSafe {
		t.Errorf("expected classification safe, got %s", decision.Classification)
	}
}

func TestEngine_MalformedDryRunFlagStaysDestructive(t *testing.T) {
	engine := newTestEngine()

	decision, err := engine.Evaluate("mo clean --dry-run=false")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Errorf("expected denied decision, got %+v", decision)
	}
	if decision.Classification != ClassificationDestructive {
		t.Errorf("expected classification destructive, got %s", decision.Classification)
	}
	// The generated preview must strip the malformed token.
	if decision.DryRunCommand != "mo clean --dry-run" {
		t.Errorf("expected dry-run command %q, got %q", "mo clean --dry-run", decision.DryRunCommand)
	}
}

func TestEngine_DestructiveIncapableRequiresConfirmationOnly(t *testing.T) {
	engine := newTestEngine()

	decision, err := engine.Evaluate("mo reset")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Errorf("expected denied decision, got %+v", decision)
	}
	if !decision.RequiresConfirmation {
		t.Errorf("expected confirmation required, got %+v", decision)
	}
	if decision.RequiresDryRun || decision.DryRunCommand != "" {
		t.Errorf("incapable subcommand must not ask for a dry-run, got %+v", decision)
	}
	if decision.Reason != ReasonConfirmation {
		t.Errorf("expected reason %q, got %q", ReasonConfirmation, decision.Reason)
	}
}

func TestEngine_UnknownCommandGated(t *testing.T) {
	engine := newTestEngine()

	decision, err := engine.Evaluate("mo frobnicate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Errorf("expected denied decision, got %+v", decision)
	}
	if decision.Classification != ClassificationNeedsConfirmation {
		t.Errorf("expected classification requires-confirmation, got %s", decision.Classification)
	}
	if !decision.RequiresConfirmation {
		t.Errorf("expected confirmation required, got %+v", decision)
	}
}

func TestEngine_GrantThenRevoke(t *testing.T) {
	engine := newTestEngine()

	engine.Ledger().Grant("mo clean", nil)

	decision, err := engine.Evaluate("mo clean")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected granted command to be allowed, got %+v", decision)
	}
	if decision.Classification != ClassificationDestructive {
		t.Errorf("approval must not change the classification, got %s", decision.Classification)
	}

	engine.Ledger().Revoke("mo clean")

	decision, err = engine.Evaluate("mo clean")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Errorf("expected revoked command to be denied again, got %+v", decision)
	}
	if !decision.RequiresConfirmation || !decision.RequiresDryRun {
		t.Errorf("expected the full unapproved decision back, got %+v", decision)
	}
}

func TestEngine_GrantCoversNormalizedVariants(t *testing.T) {
	engine := newTestEngine()

	engine.Ledger().Grant("MO   CLEAN", nil)

	decision, err := engine.Evaluate("mo clean")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("grant keyed on normalized form must cover equivalent spellings, got %+v", decision)
	}
}

func TestEngine_GrantOnUnknownCommand(t *testing.T) {
	engine := newTestEngine()

	engine.Ledger().Grant("mo frobnicate", nil)

	decision, err := engine.Evaluate("mo frobnicate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected granted unknown command to be allowed, got %+v", decision)
	}
}

func TestEngine_ValidationErrorsPropagate(t *testing.T) {
	engine := newTestEngine()

	_, err := engine.Evaluate("rm -rf /")
	var sec *command.SecurityViolationError
	if !errors.As(err, &sec) {
		t.Fatalf("expected SecurityViolationError, got %v", err)
	}
	if sec.Reason != command.ReasonNotAllowedProgram {
		t.Errorf("expected reason %q, got %q", command.ReasonNotAllowedProgram, sec.Reason)
	}

	_, err = engine.Evaluate("mo Clean")
	var val *command.ValidationError
	if !errors.As(err, &val) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

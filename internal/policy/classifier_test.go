package policy

import (
	"testing"

	"github.com/valet-app/molegate/internal/command"
)

func mustValidate(t *testing.T, raw string) *command.Validated {
	t.Helper()
	v, err := command.Validate(raw, "mo")
	if err != nil {
		t.Fatalf("command %q: unexpected validation error: %v", raw, err)
	}
	return v
}

func TestClassifier_Classify(t *testing.T) {
	classifier := NewClassifier(DefaultPolicy())

	tests := []struct {
		raw      string
		expected Classification
	}{
		{"mo status", ClassificationSafe},
		{"mo list --verbose", ClassificationSafe},
		{"mo clean", ClassificationDestructive},
		{"mo uninstall \"Google Chrome\"", ClassificationDestructive},
		// A genuine dry-run of a capable destructive subcommand is safe.
		{"mo clean --dry-run", ClassificationSafe},
		{"mo clean -n", ClassificationSafe},
		// --dry-run=<value> is never dry-run.
		{"mo clean --dry-run=false", ClassificationDestructive},
		{"mo clean --dry-run=true", ClassificationDestructive},
		// Unknown subcommands are conservatively gated.
		{"mo frobnicate", ClassificationNeedsConfirmation},
		{"mo backup --all", ClassificationNeedsConfirmation},
	}

	for _, tt := range tests {
		got := classifier.Classify(mustValidate(t, tt.raw))
		if got != tt.expected {
			t.Errorf("command %q: expected %s, got %s", tt.raw, tt.expected, got)
		}
	}
}

// Dry-run capability belongs to the subcommand. A destructive subcommand
// without a preview mode stays destructive even when a dry-run-shaped flag
// is present.
func TestClassifier_FlagDoesNotConferCapability(t *testing.T) {
	classifier := NewClassifier(DefaultPolicy())

	tests := []string{
		"mo reset --dry-run",
		"mo optimize -n",
	}

	for _, raw := range tests {
		got := classifier.Classify(mustValidate(t, raw))
		if got != ClassificationDestructive {
			t.Errorf("command %q: expected %s, got %s", raw, ClassificationDestructive, got)
		}
	}
}

func TestClassifier_DryRunCapable(t *testing.T) {
	classifier := NewClassifier(DefaultPolicy())

	tests := []struct {
		subcommand string
		expected   bool
	}{
		{"clean", true},
		{"uninstall", true},
		{"reset", false},
		{"optimize", false},
		{"status", false},
	}

	for _, tt := range tests {
		if got := classifier.DryRunCapable(tt.subcommand); got != tt.expected {
			t.Errorf("subcommand %q: expected %v, got %v", tt.subcommand, tt.expected, got)
		}
	}
}

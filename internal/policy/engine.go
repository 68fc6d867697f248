package policy

import (
	"github.com/valet-app/molegate/internal/command"
	"github.com/valet-app/molegate/internal/ledger"
)

// Engine combines the validator, the classifier, and the approval ledger
// into executable decisions. The engine owns the classification rules; the
// ledger owns consent state and is only queried here.
type Engine struct {
	policy     *Policy
	classifier *Classifier
	ledger     *ledger.Ledger
}

func NewEngine(p *Policy, l *ledger.Ledger) *Engine {
	return &Engine{
		policy:     p,
		classifier: NewClassifier(p),
		ledger:     l,
	}
}

// Policy returns the engine's policy (for inspection/testing).
func (e *Engine) Policy() *Policy {
	return e.policy
}

// Ledger returns the approval ledger the engine consults.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Evaluate validates and classifies one raw command and returns the
// resulting decision. Validation failures come back as
// *command.SecurityViolationError or *command.ValidationError; a decision
// that merely requires confirmation is not an error — the signal travels on
// the Decision itself so callers can present it to a human.
//
// Approval is re-checked on every call: an earlier grant flips the denied
// rows to allow, and a revoked grant flips them back. The engine never
// consumes a grant itself, since it cannot observe the external execution
// the grant was for.
func (e *Engine) Evaluate(raw string) (Decision, error) {
	v, err := command.Validate(raw, e.policy.Program)
	if err != nil {
		return Decision{}, err
	}

	classification := e.classifier.Classify(v)
	decision := Decision{Classification: classification}

	switch classification {
	case ClassificationSafe:
		decision.Allowed = true

	case ClassificationDestructive:
		if e.ledger.IsGranted(raw) {
			decision.Allowed = true
			break
		}
		decision.RequiresConfirmation = true
		if e.classifier.DryRunCapable(v.Subcommand) {
			decision.RequiresDryRun = true
			decision.DryRunCommand = v.DryRun()
			decision.Reason = ReasonDryRunConfirmation
		} else {
			decision.Reason = ReasonConfirmation
		}

	case ClassificationNeedsConfirmation:
		if e.ledger.IsGranted(raw) {
			decision.Allowed = true
			break
		}
		decision.RequiresConfirmation = true
		decision.Reason = ReasonConfirmation
	}

	return decision, nil
}

package policy

import (
	"strings"

	"github.com/valet-app/molegate/internal/command"
)

// Classifier maps a validated command to a risk class using the policy's
// prefix lists. Pure; safe for concurrent use.
type Classifier struct {
	policy *Policy
}

func NewClassifier(p *Policy) *Classifier {
	return &Classifier{policy: p}
}

// Classify derives the risk class of one validated command. A destructive
// subcommand carrying a standalone dry-run flag is safe when — and only
// when — the subcommand actually supports a preview mode.
func (c *Classifier) Classify(v *command.Validated) Classification {
	switch {
	case matchPrefix(v.Subcommand, c.policy.SafePrefixes):
		return ClassificationSafe
	case matchPrefix(v.Subcommand, c.policy.DestructivePrefixes):
		if command.IsDryRun(v.Args) && c.DryRunCapable(v.Subcommand) {
			return ClassificationSafe
		}
		return ClassificationDestructive
	default:
		return ClassificationNeedsConfirmation
	}
}

// DryRunCapable reports whether the subcommand supports a preview mode.
func (c *Classifier) DryRunCapable(subcommand string) bool {
	return matchPrefix(subcommand, c.policy.DryRunCapable)
}

func matchPrefix(subcommand string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(subcommand, p) {
			return true
		}
	}
	return false
}

package agent

import (
	"fmt"
	"time"

	"github.com/valet-app/molegate/internal/policy"
)

// TimeoutError reports that an interaction exceeded its deadline. It is
// deliberately distinct from security violations so callers can show a
// "took too long" message and discard partial output.
type TimeoutError struct {
	Deadline time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("interaction exceeded its %s deadline", e.Deadline)
}

// ConfirmationRequiredError carries a denied-pending-confirmation decision
// across the gateway boundary. It is control flow rather than failure: the
// caller surfaces the decision — including any dry-run preview command — to
// a human, and re-runs once consent is granted. It must never be swallowed.
type ConfirmationRequiredError struct {
	Command  string
	Decision policy.Decision
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("command %q %s", e.Command, e.Decision.Reason)
}

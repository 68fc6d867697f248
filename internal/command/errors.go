package command

import "fmt"

// ValidationError reports a command that failed the gateway grammar. It is a
// user mistake, not an attack: the command named the allowed program but was
// not shaped like a single well-formed invocation.
type ValidationError struct {
	Command string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid command %q: %s", e.Command, e.Reason)
}

// SecurityViolationError reports a command rejected on security grounds: a
// program outside the whitelist, or shell operators that could chain,
// redirect, or substitute their way out of a single-invocation semantic.
// Callers surface these as security events, not as format mistakes.
type SecurityViolationError struct {
	Command string
	Reason  string
}

func (e *SecurityViolationError) Error() string {
	return fmt.Sprintf("security violation in %q: %s", e.Command, e.Reason)
}

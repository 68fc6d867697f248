package command

import "strings"

// Normalize returns the ledger-key form of a command: trimmed, case-folded,
// with internal whitespace collapsed to single spaces. Normalization exists
// only for approval lookups; the original string is what executes once a
// command is approved.
func Normalize(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

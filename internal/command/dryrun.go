package command

import "strings"

const (
	// DryRunFlag is the standalone long-form preview flag.
	DryRunFlag = "--dry-run"
	// dryRunShort is the standalone short-form preview flag.
	dryRunShort = "-n"
	// dryRunMalformed prefixes --dry-run=<value> tokens, which never count
	// as dry-run regardless of value and are stripped when rewriting.
	dryRunMalformed = "--dry-run="
)

// IsDryRun reports whether args carry a recognized dry-run flag in
// standalone form. A --dry-run=<value> token is ill-formed and does not
// count, whatever the value says.
func IsDryRun(args []string) bool {
	for _, a := range args {
		if a == DryRunFlag || a == dryRunShort {
			return true
		}
	}
	return false
}

// DryRun returns the preview variant of the command: malformed
// --dry-run=<value> tokens are stripped and a standalone --dry-run is
// inserted immediately after the subcommand, all other arguments kept
// verbatim. A command already in dry-run form comes back unchanged, which
// makes the rewrite idempotent.
func (v *Validated) DryRun() string {
	if IsDryRun(v.Args) {
		return v.Raw
	}
	parts := make([]string, 0, len(v.Args)+3)
	parts = append(parts, v.Program, v.Subcommand, DryRunFlag)
	for _, a := range v.Args {
		if strings.HasPrefix(a, dryRunMalformed) {
			continue
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

package policy

// Classification is the risk class of one validated command. It is derived
// on every evaluation, never stored.
type Classification string

const (
	// ClassificationSafe marks commands that run without confirmation,
	// including genuine dry-run previews of destructive subcommands.
	ClassificationSafe Classification = "safe"
	// ClassificationDestructive marks state-changing commands that need an
	// explicit one-time approval before they run.
	ClassificationDestructive Classification = "destructive"
	// ClassificationNeedsConfirmation marks unknown subcommands, which are
	// conservatively gated rather than silently allowed.
	ClassificationNeedsConfirmation Classification = "requires-confirmation"
)

// Reason strings carried on denied decisions. Callers show these verbatim
// together with the offending command, never a generic failure message.
const (
	ReasonDryRunConfirmation = "requires dry-run preview and confirmation"
	ReasonConfirmation       = "requires user confirmation"
)

// Decision is the outcome of one evaluation: classification plus the
// control-flow signals the caller needs to resolve it. Transient; returned
// to the caller and never stored.
type Decision struct {
	Allowed              bool           `json:"allowed"`
	Classification       Classification `json:"classification"`
	RequiresConfirmation bool           `json:"requiresConfirmation"`
	RequiresDryRun       bool           `json:"requiresDryRun"`
	DryRunCommand        string         `json:"dryRunCommand,omitempty"`
	Reason               string         `json:"reason,omitempty"`
}

// Policy is the static configuration of the gateway: the single whitelisted
// program and the subcommand prefix lists that drive classification.
// Read-only after construction; hot reload is out of scope.
type Policy struct {
	Version string `yaml:"version"`
	// Program is the whitelisted program token, the only executable the
	// gateway will ever let through.
	Program string `yaml:"program"`
	// SafePrefixes match subcommands that are read-only or otherwise
	// harmless.
	SafePrefixes []string `yaml:"safe_prefixes"`
	// DestructivePrefixes match subcommands that change state on the
	// machine.
	DestructivePrefixes []string `yaml:"destructive_prefixes"`
	// DryRunCapable lists the destructive subcommands that support a
	// non-destructive preview mode. Capability belongs to the subcommand;
	// a dry-run-shaped flag on an incapable subcommand changes nothing.
	DryRunCapable []string `yaml:"dry_run_capable"`
	// DeadlineSeconds is the overall time budget for one assistant
	// interaction.
	DeadlineSeconds int `yaml:"deadline_seconds"`
}

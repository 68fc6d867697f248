package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/valet-app/molegate/internal/audit"
)

// hookInput is the JSON payload the Valet frontend pipes in before letting
// the assistant execute a tool call.
type hookInput struct {
	Command   string `json:"command"`
	Cwd       string `json:"cwd"`
	SessionID string `json:"sessionId"`
}

// hookOutput is the decision handed back to the frontend. On allow=false
// with requiresConfirmation the frontend owns presenting the dry-run
// preview and collecting consent.
type hookOutput struct {
	Allow                bool   `json:"allow"`
	Classification       string `json:"classification,omitempty"`
	RequiresConfirmation bool   `json:"requiresConfirmation,omitempty"`
	RequiresDryRun       bool   `json:"requiresDryRun,omitempty"`
	DryRunCommand        string `json:"dryRunCommand,omitempty"`
	Reason               string `json:"reason,omitempty"`
	SecurityViolation    bool   `json:"securityViolation,omitempty"`
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Pre-execution hook for the Valet frontend",
	Long: `Reads a {"command": "..."} JSON payload from stdin, evaluates it against
the gateway policy, and responds with a JSON decision on stdout.

Security violations additionally exit with code 2 so the frontend can
surface them as security events rather than user mistakes.`,
	RunE: hookCommand,
}

func init() {
	rootCmd.AddCommand(hookCmd)
}

func hookCommand(cmd *cobra.Command, args []string) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	var input hookInput
	if err := json.Unmarshal(data, &input); err != nil || input.Command == "" {
		// A gateway fails closed: an unreadable request is not consent.
		return respond(hookOutput{Allow: false, Reason: "unreadable hook payload"}, 1)
	}

	cfg, engine, err := newEngine()
	if err != nil {
		return err
	}

	sink, err := audit.NewFileSink(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer sink.Close()

	decision, err := engine.Evaluate(input.Command)
	if err != nil {
		reason, security := rejectReason(err)
		emit(sink, audit.NewEvent(audit.EventRejected, input.Command, reason))
		out := hookOutput{Allow: false, Reason: reason, SecurityViolation: security}
		if security {
			return respond(out, 2)
		}
		return respond(out, 1)
	}

	if decision.Allowed {
		emit(sink, audit.NewEvent(audit.EventApproved, input.Command, ""))
	}

	return respond(hookOutput{
		Allow:                decision.Allowed,
		Classification:       string(decision.Classification),
		RequiresConfirmation: decision.RequiresConfirmation,
		RequiresDryRun:       decision.RequiresDryRun,
		DryRunCommand:        decision.DryRunCommand,
		Reason:               decision.Reason,
	}, 0)
}

func respond(out hookOutput, exitCode int) error {
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}

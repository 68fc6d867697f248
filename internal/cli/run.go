package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valet-app/molegate/internal/audit"
	"github.com/valet-app/molegate/internal/command"
	"github.com/valet-app/molegate/internal/policy"
	"github.com/valet-app/molegate/internal/prompt"
)

var runSkipPreview bool

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <command> [args...]",
	Short: "Run a mo command through the gateway",
	Long: `Run a mo command through molegate's policy enforcement layer.
The command and its arguments should be provided after --.

Safe commands run immediately. Destructive commands are previewed with
--dry-run where the subcommand supports it, then require explicit approval.
The approval covers exactly one execution and is revoked afterwards.

Example:
  molegate run -- mo status
  molegate run -- mo clean`,
	RunE: runCommand,
}

func init() {
	runCmd.Flags().BoolVar(&runSkipPreview, "no-preview", false, "Skip the dry-run preview before asking for approval")
	rootCmd.AddCommand(runCmd)
}

func runCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command provided. Usage: molegate run -- mo <subcommand> [args...]")
	}

	cmdStr := strings.Join(args, " ")

	cfg, engine, err := newEngine()
	if err != nil {
		return err
	}

	sink, err := audit.NewFileSink(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer sink.Close()

	decision, err := engine.Evaluate(cmdStr)
	if err != nil {
		reason, security := rejectReason(err)
		fmt.Fprintln(os.Stderr, "\n🛑 BLOCKED by molegate")
		fmt.Fprintf(os.Stderr, "Command: %s\n", cmdStr)
		fmt.Fprintf(os.Stderr, "Reason:  %s\n", reason)
		emit(sink, audit.NewEvent(audit.EventRejected, cmdStr, reason))
		if security {
			os.Exit(2)
		}
		os.Exit(1)
	}

	if !decision.Allowed {
		if decision.RequiresDryRun && !runSkipPreview {
			fmt.Fprintf(os.Stderr, "\n🔍 Previewing first: %s\n\n", decision.DryRunCommand)
			if code, err := execute(engine.Policy(), decision.DryRunCommand); err != nil || code != 0 {
				fmt.Fprintf(os.Stderr, "\n⚠️  Preview exited with code %d\n", code)
			}
		}

		result := prompt.Ask(prompt.Request{
			Command:       cmdStr,
			Reason:        decision.Reason,
			DryRunCommand: decision.DryRunCommand,
		})
		if !result.Approved {
			fmt.Fprintln(os.Stderr, "\n❌ Command denied by user")
			emit(sink, audit.NewEvent(audit.EventRejected, cmdStr, "denied by user ("+result.UserAction+")"))
			os.Exit(1)
		}

		engine.Ledger().Grant(cmdStr, nil)
		decision, err = engine.Evaluate(cmdStr)
		if err != nil || !decision.Allowed {
			return fmt.Errorf("command still denied after approval: %s", cmdStr)
		}
	}

	emit(sink, audit.NewEvent(audit.EventApproved, cmdStr, ""))

	exitCode, execErr := execute(engine.Policy(), cmdStr)

	// The grant covered exactly this one execution.
	engine.Ledger().Revoke(cmdStr)

	executed := audit.NewEvent(audit.EventExecuted, cmdStr, "")
	executed.ExitCode = &exitCode
	emit(sink, executed)

	if execErr != nil {
		if _, ok := execErr.(*exec.ExitError); ok {
			os.Exit(exitCode)
		}
		return execErr
	}
	return nil
}

// execute runs a previously evaluated command, wiring the user's stdio
// through to the tool.
func execute(pol *policy.Policy, cmdStr string) (int, error) {
	v, err := command.Validate(cmdStr, pol.Program)
	if err != nil {
		return -1, err
	}

	argv := v.Argv()
	execCmd := exec.Command(argv[0], argv[1:]...)
	execCmd.Stdin = os.Stdin
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr

	execErr := execCmd.Run()
	if execErr != nil {
		if exitErr, ok := execErr.(*exec.ExitError); ok {
			return exitErr.ExitCode(), execErr
		}
		return -1, execErr
	}
	return 0, nil
}

// emit writes an audit event best-effort; a failing log never blocks the
// governed command.
func emit(sink audit.Sink, event audit.Event) {
	if err := sink.Emit(event); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write audit log: %v\n", err)
	}
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valet-app/molegate/internal/command"
	"github.com/valet-app/molegate/internal/config"
	"github.com/valet-app/molegate/internal/ledger"
	"github.com/valet-app/molegate/internal/policy"
)

var (
	policyPath string
	logPath    string
)

var rootCmd = &cobra.Command{
	Use:   "molegate",
	Short: "Molegate - command safety gateway for the mo CLI",
	Long: `Molegate sits between the Valet assistant and the mo maintenance CLI,
enforcing a single-program whitelist, previewing state-changing commands,
and requiring explicit one-time consent before anything destructive runs.
Every decision lands in a local audit log.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "Path to policy YAML file (default: ~/.molegate/policy.yaml)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Path to audit log file (default: ~/.molegate/audit.jsonl)")
}

func Execute() error {
	return rootCmd.Execute()
}

// newEngine loads config and policy and wires a fresh per-process ledger.
// Approvals are in-memory by design; every CLI invocation starts unconsented.
func newEngine() (*config.Config, *policy.Engine, error) {
	cfg, err := config.Load(policyPath, logPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	pol, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load policy: %w", err)
	}
	return cfg, policy.NewEngine(pol, ledger.New()), nil
}

// rejectReason pulls the specific validator reason out of an evaluation
// error so messages always name it, never a generic failure.
func rejectReason(err error) (reason string, security bool) {
	var sec *command.SecurityViolationError
	if errors.As(err, &sec) {
		return sec.Reason, true
	}
	var val *command.ValidationError
	if errors.As(err, &val) {
		return val.Reason, false
	}
	return err.Error(), false
}

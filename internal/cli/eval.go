package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var evalApproved bool

var evalCmd = &cobra.Command{
	Use:   "eval -- <command>",
	Short: "Evaluate a command against the gateway policy",
	Long: `Evaluate a command and print the resulting decision as JSON without
executing anything.

Examples:
  molegate eval -- mo status
  molegate eval -- mo clean
  molegate eval --approved -- mo clean`,
	RunE: evalCommand,
}

func init() {
	evalCmd.Flags().BoolVar(&evalApproved, "approved", false, "Evaluate as if the user had already granted this command")
	rootCmd.AddCommand(evalCmd)
}

func evalCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command provided. Usage: molegate eval -- mo <subcommand> [args...]")
	}

	cmdStr := strings.Join(args, " ")

	_, engine, err := newEngine()
	if err != nil {
		return err
	}
	if evalApproved {
		engine.Ledger().Grant(cmdStr, nil)
	}

	decision, err := engine.Evaluate(cmdStr)
	if err != nil {
		reason, security := rejectReason(err)
		fmt.Fprintln(os.Stderr, "🛑 REJECTED by molegate")
		fmt.Fprintf(os.Stderr, "Command: %s\n", cmdStr)
		fmt.Fprintf(os.Stderr, "Reason:  %s\n", reason)
		if security {
			os.Exit(2)
		}
		os.Exit(1)
	}

	data, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valet-app/molegate/internal/audit"
	"github.com/valet-app/molegate/internal/config"
)

var (
	logFilterType string
	logLast       int
	logSummary    bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View and filter the audit log",
	Long: `View the molegate audit log with filtering and summary options.

Examples:
  molegate log                     # Show all entries
  molegate log --last 20           # Show last 20 entries
  molegate log --type rejected     # Show only rejected commands
  molegate log --summary           # Show summary statistics
  molegate log clear               # Clear the audit log`,
	RunE: logCommand,
}

var logClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(policyPath, logPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := audit.ClearLog(cfg.LogPath); err != nil {
			return fmt.Errorf("failed to clear audit log: %w", err)
		}
		fmt.Println("Audit log cleared.")
		return nil
	},
}

func init() {
	logCmd.Flags().StringVar(&logFilterType, "type", "", "Filter by event type (approved, rejected, executed)")
	logCmd.Flags().IntVar(&logLast, "last", 0, "Show last N entries")
	logCmd.Flags().BoolVar(&logSummary, "summary", false, "Show summary statistics")
	logCmd.AddCommand(logClearCmd)
	rootCmd.AddCommand(logCmd)
}

func logCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(policyPath, logPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	events, err := audit.ReadEvents(cfg.LogPath, 0)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	if len(events) == 0 {
		fmt.Println("No audit log entries found.")
		return nil
	}

	filtered := filterEvents(events)
	if logLast > 0 && logLast < len(filtered) {
		filtered = filtered[len(filtered)-logLast:]
	}

	if logSummary {
		printSummary(events)
		return nil
	}

	printEvents(filtered)
	return nil
}

func filterEvents(events []audit.Event) []audit.Event {
	if logFilterType == "" {
		return events
	}
	var filtered []audit.Event
	for _, e := range events {
		if strings.EqualFold(string(e.Type), logFilterType) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func printEvents(events []audit.Event) {
	for _, e := range events {
		fmt.Printf("%s %s %s\n", eventIcon(e.Type), formatTimestamp(e.Timestamp), e.Command)
		if e.Reason != "" {
			fmt.Printf("     Reason: %s\n", e.Reason)
		}
		if e.ExitCode != nil {
			fmt.Printf("     Exit code: %d\n", *e.ExitCode)
		}
		if e.RunID != "" {
			fmt.Printf("     Run: %s\n", e.RunID)
		}
		fmt.Println()
	}
}

func printSummary(all []audit.Event) {
	counts := map[audit.EventType]int{}
	for _, e := range all {
		counts[e.Type]++
	}

	fmt.Println("═══════════════════════════════════════════")
	fmt.Println("  Molegate Audit Summary")
	fmt.Println("═══════════════════════════════════════════")
	fmt.Printf("  Total events: %d\n", len(all))
	fmt.Printf("  Approved:     %d\n", counts[audit.EventApproved])
	fmt.Printf("  Rejected:     %d\n", counts[audit.EventRejected])
	fmt.Printf("  Executed:     %d\n", counts[audit.EventExecuted])
	fmt.Println("═══════════════════════════════════════════")

	if len(all) > 0 {
		fmt.Printf("  First event:  %s\n", formatTimestamp(all[0].Timestamp))
		fmt.Printf("  Last event:   %s\n", formatTimestamp(all[len(all)-1].Timestamp))
	}

	var rejected []audit.Event
	for _, e := range all {
		if e.Type == audit.EventRejected {
			rejected = append(rejected, e)
		}
	}
	if len(rejected) > 0 {
		fmt.Println()
		fmt.Println("  Rejected commands:")
		limit := len(rejected)
		if limit > 10 {
			limit = 10
		}
		for _, e := range rejected[len(rejected)-limit:] {
			fmt.Printf("    %s %s\n", formatTimestamp(e.Timestamp), e.Command)
		}
	}

	fmt.Println()
}

func eventIcon(t audit.EventType) string {
	switch t {
	case audit.EventApproved:
		return "✅"
	case audit.EventRejected:
		return "🛑"
	case audit.EventExecuted:
		return "🔧"
	default:
		return "❓"
	}
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

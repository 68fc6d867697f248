package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/valet-app/molegate/internal/agent"
	"github.com/valet-app/molegate/internal/audit"
)

var (
	simulateDeadline time.Duration
	simulateHang     bool
)

// transcriptLine is one line of a simulated interaction transcript.
// {"text": "..."} is an opaque assistant message; {"tool": "mo clean"} is a
// tool invocation to be gated.
type transcriptLine struct {
	Text string `json:"text,omitempty"`
	Tool string `json:"tool,omitempty"`
}

var simulateCmd = &cobra.Command{
	Use:   "simulate [transcript.jsonl]",
	Short: "Replay an assistant transcript through the bounded gateway",
	Long: `Replay a recorded assistant transcript through the bounded execution
wrapper, gating every tool call exactly as a live interaction would.

Transcript lines are JSON, one event per line:
  {"text": "Cleaning up caches now."}
  {"tool": "mo clean --dry-run"}

Reads from stdin when no file is given.

Examples:
  molegate simulate session.jsonl
  molegate simulate --deadline 5s --hang session.jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: simulateCommand,
}

func init() {
	simulateCmd.Flags().DurationVar(&simulateDeadline, "deadline", 0, "Overall interaction deadline (default: from policy)")
	simulateCmd.Flags().BoolVar(&simulateHang, "hang", false, "Keep the stream open after the transcript to exercise the deadline")
	rootCmd.AddCommand(simulateCmd)
}

func simulateCommand(cmd *cobra.Command, args []string) error {
	cfg, engine, err := newEngine()
	if err != nil {
		return err
	}

	events, err := readTranscript(args)
	if err != nil {
		return err
	}

	sink, err := audit.NewFileSink(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer sink.Close()

	deadline := simulateDeadline
	if deadline <= 0 {
		deadline = time.Duration(engine.Policy().DeadlineSeconds) * time.Second
	}

	script := &agent.Script{Events: events, Hang: simulateHang}
	supervisor := agent.NewSupervisor(script, engine.Evaluate, sink, deadline)

	runErr := supervisor.RunBounded(context.Background(), agent.Request{}, func(ev agent.Event) {
		if ev.ToolCall != nil {
			fmt.Printf("🔧 approved: %s\n", ev.ToolCall.Command)
			return
		}
		if text, ok := ev.Payload.(string); ok {
			fmt.Println(text)
		}
	})

	return reportRunError(runErr)
}

func readTranscript(args []string) ([]agent.Event, error) {
	var reader io.Reader = os.Stdin
	if len(args) == 1 {
		file, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open transcript: %w", err)
		}
		defer file.Close()
		reader = file
	}

	var events []agent.Event
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var entry transcriptLine
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("malformed transcript line %q: %w", line, err)
		}
		if entry.Tool != "" {
			events = append(events, agent.Event{ToolCall: &agent.ToolCall{Command: entry.Tool}})
		} else {
			events = append(events, agent.Event{Payload: entry.Text})
		}
	}
	return events, scanner.Err()
}

func reportRunError(runErr error) error {
	if runErr == nil {
		fmt.Println("✅ interaction completed")
		return nil
	}

	var timeout *agent.TimeoutError
	if errors.As(runErr, &timeout) {
		fmt.Fprintf(os.Stderr, "⏱️  interaction timed out after %s\n", timeout.Deadline)
		os.Exit(124)
	}

	var confirm *agent.ConfirmationRequiredError
	if errors.As(runErr, &confirm) {
		fmt.Fprintln(os.Stderr, "\n⚠️  CONFIRMATION REQUIRED")
		fmt.Fprintf(os.Stderr, "Command: %s\n", confirm.Command)
		fmt.Fprintf(os.Stderr, "Reason:  %s\n", confirm.Decision.Reason)
		if confirm.Decision.DryRunCommand != "" {
			fmt.Fprintf(os.Stderr, "Preview: %s\n", confirm.Decision.DryRunCommand)
		}
		os.Exit(3)
	}

	if reason, security := rejectReason(runErr); security {
		fmt.Fprintln(os.Stderr, "\n🛑 SECURITY VIOLATION")
		fmt.Fprintf(os.Stderr, "Reason: %s\n", reason)
		os.Exit(2)
	}

	return runErr
}

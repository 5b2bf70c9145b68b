package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rorical/smartagent/internal/config"
	"github.com/Rorical/smartagent/internal/core"
	"github.com/Rorical/smartagent/internal/device"
	"github.com/Rorical/smartagent/internal/models"
	"github.com/Rorical/smartagent/internal/observability"
	"github.com/Rorical/smartagent/internal/policy"
	"github.com/Rorical/smartagent/internal/stream"
	"github.com/Rorical/smartagent/internal/telemetry"
)

var replayMessage string

var replayCmd = &cobra.Command{
	Use:   "replay [stream-file]",
	Short: "Reduce a recorded event stream and print a summary",
	Long: `Feed a recorded response body (data: lines) through the reducer without
contacting the backend, then print the resulting conversation state.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open stream file: %w", err)
		}
		defer f.Close()

		endpoint := endpointFlag
		if endpoint == "" {
			endpoint = config.Endpoint()
		}
		metrics := telemetry.NewService(observability.For(observability.CategoryTelemetry))
		client, err := stream.NewClient(endpoint, nil, observability.For(observability.CategoryStream), metrics)
		if err != nil {
			return err
		}

		service, err := core.NewAgentService(core.Options{
			Stream:    client,
			Policy:    policy.NewEngine(policy.Config{NonInteractive: true}),
			Telemetry: metrics,
		})
		if err != nil {
			return err
		}
		defer service.Stop()

		replayErr := service.ReplayFrom(f, replayMessage)
		printSummary(service.Snapshot())

		var agentErr *core.AgentError
		if errors.As(replayErr, &agentErr) {
			// Already part of the summary
			return nil
		}
		return replayErr
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayMessage, "message", "m", "", "user message the stream answered")
	rootCmd.AddCommand(replayCmd)
}

func printSummary(snap models.Snapshot) {
	fmt.Printf("trace %s  prompt %s\n\n", orDash(snap.TraceID), orDash(snap.PromptID))

	for _, msg := range snap.Messages {
		fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
	}

	if len(snap.Executions) > 0 {
		fmt.Println("\nTools:")
		for _, exec := range snap.Executions {
			line := fmt.Sprintf("  %-14s %-9s %s", exec.ToolName, exec.Status, exec.Duration)
			if exec.Error != "" {
				line += "  " + exec.Error
			}
			fmt.Println(line)
		}
	}

	if len(snap.Todos) > 0 {
		fmt.Println("\nTodos:")
		for _, todo := range snap.Todos {
			fmt.Printf("  [%s] %s\n", todo.Status, todo.Content)
		}
	}

	if len(snap.Reasoning) > 0 {
		fmt.Println("\nReasoning:")
		for _, phase := range snap.Reasoning {
			fmt.Printf("  %-6s %-10s %s\n", phase.Name, phase.Status, phase.Duration)
		}
	}

	state := device.Project(device.Initial(), snap.Executions)
	fmt.Printf("\nDevice mode: %s\n", state.Mode())
	fmt.Printf("Steps: %d  Safety: %s\n", len(snap.Steps), snap.SafetyStatus)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

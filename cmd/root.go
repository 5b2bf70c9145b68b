package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Rorical/smartagent/internal/app"
	"github.com/Rorical/smartagent/internal/config"
	"github.com/Rorical/smartagent/internal/observability"
)

var (
	endpointFlag       string
	conversationFlag   string
	nonInteractiveFlag bool
	logFileFlag        string
	debugFlag          bool
)

var rootCmd = &cobra.Command{
	Use:   "smartagent",
	Short: "Terminal client for the smart glasses agent",
	Long: `smartagent streams a conversation with the smart glasses agent, showing
its reasoning, tool calls, todos and the projected device state.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		observability.SetLogger(observability.NewLogger(os.Stderr, logLevel(), false))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "agent endpoint (default $SMARTAGENT_ENDPOINT or "+config.DefaultEndpoint+")")

	addChatFlags(rootCmd)

	rootCmd.AddCommand(configCmd)
}

// addChatFlags registers the flags of every command that opens the chat
func addChatFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&conversationFlag, "conversation", "", "conversation id to continue")
	cmd.Flags().BoolVar(&nonInteractiveFlag, "non-interactive", false, "deny tool calls that need confirmation instead of asking")
	cmd.Flags().StringVar(&logFileFlag, "log-file", "", "log file for the chat session (default ~/.smartagent/agent.log)")
}

func logLevel() slog.Level {
	if debugFlag {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// runChat starts the TUI. The terminal belongs to the TUI, so logs go to
// a file for the session.
func runChat() error {
	logFile, err := openLogFile(logFileFlag)
	if err != nil {
		return err
	}
	defer logFile.Close()
	observability.SetLogger(observability.NewLogger(logFile, logLevel(), true))

	application, err := app.NewApplication(app.Options{
		Endpoint:       endpointFlag,
		ConversationID: conversationFlag,
		NonInteractive: nonInteractiveFlag,
		Debug:          debugFlag,
	})
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Stop()

	if err := application.Start(); err != nil {
		return fmt.Errorf("application error: %w", err)
	}
	return nil
}

func openLogFile(path string) (io.WriteCloser, error) {
	if path == "" {
		dir, err := config.HomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve log directory: %w", err)
		}
		path = filepath.Join(dir, "agent.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func newStorage() (*config.Storage, error) {
	store, err := config.DefaultFileStore()
	if err != nil {
		return nil, err
	}
	return config.NewStorage(store, observability.For(observability.CategoryConfig)), nil
}

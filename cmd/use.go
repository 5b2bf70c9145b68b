package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rorical/smartagent/internal/config"
)

var useCmd = &cobra.Command{
	Use:   "use [model-name]",
	Short: "Switch to a model and start the chat app",
	Long:  `Save the model name to the config and immediately start the chat application.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modelName := strings.TrimSpace(args[0])
		if modelName == "" {
			return fmt.Errorf("model name is required")
		}

		storage, err := newStorage()
		if err != nil {
			return err
		}

		cfg := config.Default()
		if saved := storage.Load(); saved != nil {
			cfg = *saved
		}
		cfg.ModelName = modelName
		if err := storage.Save(cfg); err != nil {
			return err
		}

		fmt.Printf("Using model '%s'\n", modelName)
		return runChat()
	},
}

func init() {
	addChatFlags(useCmd)
	rootCmd.AddCommand(useCmd)
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rorical/smartagent/internal/config"
	"github.com/Rorical/smartagent/internal/observability"
	"github.com/Rorical/smartagent/internal/provider"
	"github.com/Rorical/smartagent/internal/stream"
)

var doctorTimeout time.Duration

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the configuration and the model provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, err := newStorage()
		if err != nil {
			return err
		}
		cfg := storage.Get()

		endpoint := endpointFlag
		if endpoint == "" {
			endpoint = config.Endpoint()
		}
		if _, err := stream.NewClient(endpoint, nil, nil, nil); err != nil {
			fmt.Printf("✗ endpoint %s: %v\n", endpoint, err)
		} else {
			fmt.Printf("✓ endpoint %s\n", endpoint)
		}

		fmt.Printf("  model    %s\n", cfg.ModelName)
		fmt.Printf("  base url %s\n", cfg.BaseURL)
		if !cfg.IsValid() {
			fmt.Println("✗ API key is not set, run `smartagent config set`")
			return provider.ErrNoAPIKey
		}
		fmt.Println("✓ API key is set")

		ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
		defer cancel()

		result, err := provider.Check(ctx, cfg, observability.For(observability.CategoryConfig))
		if err != nil {
			fmt.Printf("✗ provider %s: %v\n", result.BaseURL, err)
			return err
		}
		fmt.Printf("✓ provider %s lists %d models\n", result.BaseURL, len(result.Models))
		if !result.ModelFound {
			fmt.Printf("! model %s is not in the provider's list\n", cfg.ModelName)
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 10*time.Second, "provider check timeout")
	rootCmd.AddCommand(doctorCmd)
}

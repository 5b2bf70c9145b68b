package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Rorical/smartagent/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the LLM configuration",
	Long:  `Show, edit or clear the LLM configuration sent with every agent request.`,
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, err := newStorage()
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(storage.Get().Masked())
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		if storage.Load() == nil {
			fmt.Println("# no saved config, showing defaults")
		}
		fmt.Print(string(out))
		return nil
	},
}

var setConfigCmd = &cobra.Command{
	Use:   "set",
	Short: "Edit the configuration interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, err := newStorage()
		if err != nil {
			return err
		}
		cfg := storage.Get()

		apiKeyPrompt := promptui.Prompt{
			Label:   "API Key",
			Default: cfg.APIKey,
			Mask:    '*',
		}
		if cfg.APIKey, err = apiKeyPrompt.Run(); err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}

		baseURLPrompt := promptui.Prompt{
			Label:   "Base URL",
			Default: cfg.BaseURL,
		}
		if cfg.BaseURL, err = baseURLPrompt.Run(); err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}

		modelPrompt := promptui.Prompt{
			Label:   "Model",
			Default: cfg.ModelName,
		}
		if cfg.ModelName, err = modelPrompt.Run(); err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}

		temperaturePrompt := promptui.Prompt{
			Label:    "Temperature (optional)",
			Default:  formatOptionalFloat(cfg.Temperature),
			Validate: validateOptionalFloat,
		}
		temperature, err := temperaturePrompt.Run()
		if err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}
		cfg.Temperature = parseOptionalFloat(temperature)

		maxTokensPrompt := promptui.Prompt{
			Label:    "Max tokens (optional)",
			Default:  formatOptionalInt(cfg.MaxTokens),
			Validate: validateOptionalInt,
		}
		maxTokens, err := maxTokensPrompt.Run()
		if err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}
		cfg.MaxTokens = parseOptionalInt(maxTokens)

		if err := storage.Save(cfg); err != nil {
			return err
		}
		fmt.Println("Config saved successfully!")
		return nil
	},
}

var clearConfigCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the saved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, err := newStorage()
		if err != nil {
			return err
		}

		confirmPrompt := promptui.Prompt{
			Label:     "Clear the saved config? (y/N)",
			IsConfirm: true,
		}
		if _, err := confirmPrompt.Run(); err != nil {
			fmt.Println("Clear cancelled")
			return nil
		}

		if err := storage.Clear(); err != nil {
			return err
		}
		fmt.Println("Config cleared")
		return nil
	},
}

var pathConfigCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the storage file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.DefaultFileStore()
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, store.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(setConfigCmd)
	configCmd.AddCommand(clearConfigCmd)
	configCmd.AddCommand(pathConfigCmd)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func validateOptionalFloat(input string) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(input), 64); err != nil {
		return fmt.Errorf("not a number")
	}
	return nil
}

func validateOptionalInt(input string) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	if _, err := strconv.Atoi(strings.TrimSpace(input)); err != nil {
		return fmt.Errorf("not an integer")
	}
	return nil
}

func parseOptionalFloat(input string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseOptionalInt(input string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return nil
	}
	return &v
}

package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/sashabaranov/go-openai"

	"github.com/Rorical/smartagent/internal/config"
)

var ErrNoAPIKey = errors.New("API key is not set")

// CheckResult describes what the provider reported for the configured key
type CheckResult struct {
	BaseURL    string
	Models     []string
	ModelFound bool
}

// Check lists the provider's models with the configured key. The agent
// backend uses the same key and base URL, so a failing check explains
// failing turns before any is sent.
func Check(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (CheckResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.IsValid() {
		return CheckResult{}, ErrNoAPIKey
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	list, err := client.ListModels(ctx)
	if err != nil {
		logger.Error("Model listing failed", "baseUrl", clientConfig.BaseURL, "error", err)
		return CheckResult{BaseURL: clientConfig.BaseURL}, fmt.Errorf("list models: %w", err)
	}

	result := CheckResult{BaseURL: clientConfig.BaseURL}
	for _, m := range list.Models {
		result.Models = append(result.Models, m.ID)
	}
	slices.Sort(result.Models)
	result.ModelFound = slices.Contains(result.Models, cfg.ModelName)

	logger.Info("Provider reachable", "baseUrl", result.BaseURL, "models", len(result.Models), "modelFound", result.ModelFound)
	return result, nil
}

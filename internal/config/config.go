package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// StorageKey is the key the LLM config lives under
	StorageKey = "smart_agent_llm_config"

	DefaultBaseURL   = "https://api.moonshot.cn/v1"
	DefaultModelName = "kimi-k2-thinking"

	// DefaultEndpoint is the agent route the chat client streams from
	DefaultEndpoint = "http://localhost:3000/api/agent"
)

// LLMConfig is sent with every agent request and persisted locally
type LLMConfig struct {
	APIKey      string   `json:"apiKey" yaml:"apiKey"`
	BaseURL     string   `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	ModelName   string   `json:"modelName" yaml:"modelName"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   *int     `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
}

func (c LLMConfig) IsValid() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Masked returns a copy safe to print
func (c LLMConfig) Masked() LLMConfig {
	if c.APIKey != "" {
		c.APIKey = "Set (hidden for security)"
	} else {
		c.APIKey = "Not set"
	}
	return c
}

func Default() LLMConfig {
	return LLMConfig{
		APIKey:    "",
		BaseURL:   DefaultBaseURL,
		ModelName: DefaultModelName,
	}
}

// Storage persists the LLM config in a KVStore
type Storage struct {
	store  KVStore
	logger *slog.Logger
}

func NewStorage(store KVStore, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Storage{store: store, logger: logger}
}

func (s *Storage) Save(cfg LLMConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := s.store.Set(StorageKey, string(data)); err != nil {
		s.logger.Error("Failed to save config", "error", err)
		return fmt.Errorf("save config: %w", err)
	}
	s.logger.Info("Config saved")
	return nil
}

// Load returns the saved config, or nil when nothing is saved or the
// stored value cannot be decoded.
func (s *Storage) Load() *LLMConfig {
	raw, ok, err := s.store.Get(StorageKey)
	if err != nil {
		s.logger.Error("Failed to load config", "error", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var cfg LLMConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		s.logger.Error("Failed to load config", "error", err)
		return nil
	}
	s.logger.Debug("Config loaded")
	return &cfg
}

func (s *Storage) Clear() error {
	if err := s.store.Remove(StorageKey); err != nil {
		s.logger.Error("Failed to clear config", "error", err)
		return fmt.Errorf("clear config: %w", err)
	}
	s.logger.Info("Config cleared")
	return nil
}

// Get merges the saved config over the defaults. Empty saved fields fall
// back to the default value.
func (s *Storage) Get() LLMConfig {
	cfg := Default()
	if saved := s.Load(); saved != nil {
		if saved.APIKey != "" {
			cfg.APIKey = saved.APIKey
		}
		if saved.BaseURL != "" {
			cfg.BaseURL = saved.BaseURL
		}
		if saved.ModelName != "" {
			cfg.ModelName = saved.ModelName
		}
		cfg.Temperature = saved.Temperature
		cfg.MaxTokens = saved.MaxTokens
	}

	if !cfg.IsValid() {
		s.logger.Warn("API Key is empty, API calls will fail. Please configure it with `smartagent config set`.")
	}
	return cfg
}

// HomeDir is $SMARTAGENT_HOME/.smartagent, or ~/.smartagent
func HomeDir() (string, error) {
	var base string

	if home := os.Getenv("SMARTAGENT_HOME"); home != "" {
		base = home
	} else {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = userHome
	}

	return filepath.Join(base, ".smartagent"), nil
}

// Endpoint resolves the agent endpoint, SMARTAGENT_ENDPOINT overriding the
// built-in default
func Endpoint() string {
	if endpoint := strings.TrimSpace(os.Getenv("SMARTAGENT_ENDPOINT")); endpoint != "" {
		return endpoint
	}
	return DefaultEndpoint
}

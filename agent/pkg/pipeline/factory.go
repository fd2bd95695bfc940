package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
)

// Provider identifies a text-generation backend.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

// LLMConfig selects and configures a text-generation backend.
type LLMConfig struct {
	Provider  Provider
	APIKey    string
	Model     string
	MaxTokens int64
}

// NewLLMClient creates the LLMClient for the configured provider.
func NewLLMClient(log *slog.Logger, cfg LLMConfig) (LLMClient, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	switch cfg.Provider {
	case ProviderGemini, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini API key is required")
		}
		return NewGeminiLLMClient(log, cfg.APIKey, cfg.Model, int32(cfg.MaxTokens)), nil
	case ProviderAnthropic:
		model := anthropic.Model(cfg.Model)
		if model == "" {
			model = anthropic.ModelClaudeSonnet4_5
		}
		return NewAnthropicLLMClient(log, cfg.APIKey, model, cfg.MaxTokens), nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q (expected %q or %q)", cfg.Provider, ProviderGemini, ProviderAnthropic)
}

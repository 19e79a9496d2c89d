package sentiment

import (
	"context"
	"fmt"
	"strings"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type ProviderConfig struct {
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
}

// NewClient builds the language model client for the configured provider.
// It returns a nil Client when the provider has no API key, which the Scorer
// treats as always-neutral.
func NewClient(ctx context.Context, cfg ProviderConfig) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, nil
		}
		client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		client, err := NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported sentiment provider %q", cfg.Provider)
	}
}

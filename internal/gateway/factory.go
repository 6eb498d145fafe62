package gateway

import (
	"fmt"
	"strings"

	"lingocache/internal/config"
)

var defaultModels = map[string]string{
	"gemini": "gemini-2.0-flash",
	"openai": "gpt-4o-mini",
	"ollama": "llama3.1",
	"claude": "claude-3-5-haiku-latest",
}

// NewEvaluator builds the provider named in cfg. A known remote provider
// without credentials falls back to the mock evaluator.
func NewEvaluator(cfg config.GatewayConfig) (Evaluator, error) {
	provider := strings.ToLower(cfg.Provider)
	cfg.Provider = provider
	if provider == "mock" {
		return &MockEvaluator{}, nil
	}
	if _, ok := defaultModels[provider]; !ok {
		return nil, fmt.Errorf("unsupported evaluator provider: %s", provider)
	}
	if !cfg.IsEnabled() {
		return &MockEvaluator{}, nil
	}
	if cfg.Model == "" {
		cfg.Model = defaultModels[provider]
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	switch provider {
	case "gemini":
		return NewGeminiEvaluator(cfg), nil

	case "openai":
		return NewOpenAIEvaluator("openai", cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens), nil

	case "ollama":
		// OpenAI-compatible API; the key is ignored but required by the client
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIEvaluator("ollama", apiKey, cfg.Model, baseURL, cfg.MaxTokens), nil

	default:
		return NewClaudeEvaluator(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens), nil
	}
}

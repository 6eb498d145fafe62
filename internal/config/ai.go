package config

import "time"

// GatewayConfig selects and tunes the external evaluator
type GatewayConfig struct {
	Provider  string `toml:"provider" json:"provider"` // gemini | openai | ollama | claude | mock
	APIKey    string `toml:"api_key" json:"-"`         // Never serialize
	BaseURL   string `toml:"base_url" json:"baseUrl"`
	Model     string `toml:"model" json:"model"`
	MaxTokens int    `toml:"max_tokens" json:"maxTokens"`

	SoftTimeoutMS    int `toml:"soft_timeout_ms" json:"softTimeoutMs"`
	HardTimeoutMS    int `toml:"hard_timeout_ms" json:"hardTimeoutMs"`
	MinRetryBudgetMS int `toml:"min_retry_budget_ms" json:"minRetryBudgetMs"`
}

// BudgetConfig caps spend on the external evaluator, in cost units
type BudgetConfig struct {
	UnitsPerSecond float64 `toml:"units_per_second" json:"unitsPerSecond"` // 0 disables the budget
	Burst          int     `toml:"burst" json:"burst"`
}

func defaultGateway() GatewayConfig {
	return GatewayConfig{
		Provider:         "gemini",
		MaxTokens:        1024,
		SoftTimeoutMS:    3000,
		HardTimeoutMS:    8000,
		MinRetryBudgetMS: 1500,
	}
}

// IsEnabled returns true if a remote provider is configured
func (c GatewayConfig) IsEnabled() bool {
	switch c.Provider {
	case "mock":
		return false
	case "ollama":
		return c.BaseURL != ""
	}
	return c.APIKey != ""
}

// GeminiBaseURL is used when no base URL is configured for gemini
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// ModelEndpoint returns the Gemini generateContent endpoint for a model
func (c GatewayConfig) ModelEndpoint(model string) string {
	base := c.BaseURL
	if base == "" {
		base = GeminiBaseURL
	}
	return base + "/" + model + ":generateContent"
}

func (c GatewayConfig) SoftTimeout() time.Duration {
	return time.Duration(c.SoftTimeoutMS) * time.Millisecond
}

func (c GatewayConfig) HardTimeout() time.Duration {
	return time.Duration(c.HardTimeoutMS) * time.Millisecond
}

func (c GatewayConfig) MinRetryBudget() time.Duration {
	return time.Duration(c.MinRetryBudgetMS) * time.Millisecond
}

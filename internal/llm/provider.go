package llm

import (
	"context"
)

// ProviderType identifies a supported LLM backend.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
	ProviderMock      ProviderType = "mock"
)

// ProviderConfig holds the settings needed to construct a provider.
type ProviderConfig struct {
	Type        ProviderType `mapstructure:"type" yaml:"type" validate:"required"`
	Model       string       `mapstructure:"model" yaml:"model"`
	APIKey      string       `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string       `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Temperature float64      `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int          `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
}

// CompletionRequest is a single prompt exchange. System primes the model's
// role; Prompt carries the task. Zero Temperature and MaxTokens defer to
// the provider's configured defaults.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Content string
	Model   string
}

// Provider is the interface every LLM backend implements.
type Provider interface {
	// Name returns the provider's identifier.
	Name() string

	// Complete sends one completion request and returns the reply.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

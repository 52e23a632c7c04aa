package llm

import (
	"fmt"

	"github.com/draftflow-ai/draftflow/internal/types"
)

// NewProvider creates a provider from its configuration.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Type {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg)

	case ProviderAnthropic:
		return NewAnthropicProvider(cfg)

	case ProviderOllama:
		return NewOllamaProvider(cfg)

	case ProviderMock:
		return NewMockProvider("ACCEPT"), nil

	default:
		return nil, types.NewError(types.LLM_PROVIDER_UNKNOWN,
			fmt.Sprintf("unknown provider type: %s", cfg.Type))
	}
}

package llm

import (
	"context"
	"os"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/draftflow-ai/draftflow/internal/types"
)

// OpenAIProvider implements Provider for OpenAI's GPT models.
type OpenAIProvider struct {
	client *openai.LLM
	config ProviderConfig
}

// NewOpenAIProvider creates a new OpenAI provider. The API key falls back
// to the OPENAI_API_KEY environment variable.
func NewOpenAIProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, types.NewError(types.LLM_AUTH_FAILED, "openai API key is not set")
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, translateError("openai", err)
	}

	return &OpenAIProvider{client: client, config: cfg}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Complete sends a completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp, err := p.client.GenerateContent(ctx, toMessages(req), buildCallOptions(p.config, req)...)
	if err != nil {
		return nil, translateError("openai", err)
	}
	return fromResponse("openai", resp, p.config.Model)
}

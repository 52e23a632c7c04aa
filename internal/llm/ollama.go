package llm

import (
	"context"

	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaProvider implements Provider for locally hosted Ollama models.
type OllamaProvider struct {
	client *ollama.LLM
	config ProviderConfig
}

// NewOllamaProvider creates a new Ollama provider. No API key is required;
// BaseURL defaults to the local Ollama daemon.
func NewOllamaProvider(cfg ProviderConfig) (*OllamaProvider, error) {
	var opts []ollama.Option
	if cfg.Model != "" {
		opts = append(opts, ollama.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}

	client, err := ollama.New(opts...)
	if err != nil {
		return nil, translateError("ollama", err)
	}

	return &OllamaProvider{client: client, config: cfg}, nil
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Complete sends a completion request.
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp, err := p.client.GenerateContent(ctx, toMessages(req), buildCallOptions(p.config, req)...)
	if err != nil {
		return nil, translateError("ollama", err)
	}
	return fromResponse("ollama", resp, p.config.Model)
}

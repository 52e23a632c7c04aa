package llm

import (
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/draftflow-ai/draftflow/internal/types"
)

// toMessages converts a completion request into langchaingo message
// content.
func toMessages(req CompletionRequest) []llms.MessageContent {
	var messages []llms.MessageContent
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))
	return messages
}

// buildCallOptions converts request overrides into langchaingo call
// options, falling back to the provider configuration.
func buildCallOptions(cfg ProviderConfig, req CompletionRequest) []llms.CallOption {
	var opts []llms.CallOption

	temperature := cfg.Temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	if temperature > 0 {
		opts = append(opts, llms.WithTemperature(temperature))
	}

	maxTokens := cfg.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}

	return opts
}

// fromResponse extracts the first choice's content.
func fromResponse(provider string, resp *llms.ContentResponse, model string) (*CompletionResponse, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, types.NewRetryableError(types.LLM_COMPLETION_FAILED,
			provider+" returned no choices")
	}
	return &CompletionResponse{
		Content: strings.TrimSpace(resp.Choices[0].Content),
		Model:   model,
	}, nil
}

// translateError wraps a backend error with the LLM error taxonomy.
// Authentication problems are terminal; everything else is assumed
// transient and marked retryable.
func translateError(provider string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "api key") || strings.Contains(msg, "authentication") {
		return types.WrapError(types.LLM_AUTH_FAILED, provider+" authentication failed", err)
	}
	wrapped := types.WrapError(types.LLM_COMPLETION_FAILED, provider+" completion failed", err)
	wrapped.Retryable = true
	return wrapped
}

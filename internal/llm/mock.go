package llm

import (
	"context"
	"sync"

	"github.com/draftflow-ai/draftflow/internal/types"
)

// MockProvider implements Provider for testing. It cycles through a fixed
// list of responses and records every request it receives.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	index     int
	calls     []CompletionRequest
	err       error
}

// NewMockProvider creates a mock that cycles through the given responses.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

// FailWith makes every subsequent Complete call return err.
func (p *MockProvider) FailWith(err error) *MockProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return "mock"
}

// Complete records the request and returns the next scripted response.
func (p *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, req)

	if p.err != nil {
		return nil, p.err
	}
	if len(p.responses) == 0 {
		return nil, types.NewError(types.LLM_COMPLETION_FAILED, "mock has no responses configured")
	}

	response := p.responses[p.index%len(p.responses)]
	p.index++

	return &CompletionResponse{Content: response, Model: "mock-model"}, nil
}

// Calls returns a copy of every request received so far.
func (p *MockProvider) Calls() []CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]CompletionRequest, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallCount returns the number of requests received so far.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

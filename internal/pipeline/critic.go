package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/draftflow-ai/draftflow/internal/graph"
	"github.com/draftflow-ai/draftflow/internal/llm"
)

// maxReportChars caps how much of the draft is sent to the reviewer.
const maxReportChars = 4000

// criticSystem primes the model as a one-word reviewer.
const criticSystem = "You are a strict quality reviewer of analytical reports."

// criticPromptFormat demands exactly one label. The raw reply is still
// normalized afterwards; models do not reliably obey.
const criticPromptFormat = `Read the following Markdown report and answer with ONE WORD ONLY from this set:
ACCEPT, REJECT, RERUN, AMBIGUOUS

Guidelines:
- ACCEPT: structure is complete and content is coherent.
- REJECT: report is clearly broken (missing major sections or images referenced but missing).
- RERUN: report seems mostly fine but results/plots likely need to be regenerated or verified.
- AMBIGUOUS: cannot determine from the provided text.

Return ONLY the label (no punctuation, no extra text).

Report:
%s

Answer:`

// Critic reviews a branch's draft report through an LLM and records the
// normalized verdict for the router. An unreviewable reply is recorded as
// uncertain; only an explicit acceptance lets the branch proceed.
type Critic struct {
	provider llm.Provider
	prefix   string
	logger   *slog.Logger
}

// NewCritic creates the review stage. prefix namespaces its state keys for
// the parallel topology.
func NewCritic(provider llm.Provider, prefix string, logger *slog.Logger) *Critic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Critic{provider: provider, prefix: prefix, logger: logger}
}

// Run implements graph.Handler.
func (c *Critic) Run(ctx context.Context, state *graph.State) (graph.Partial, error) {
	markdown := state.GetString(c.prefix + KeyReportMarkdown)
	if markdown == "" {
		return nil, fmt.Errorf("no report draft to review under %q", c.prefix+KeyReportMarkdown)
	}
	if len(markdown) > maxReportChars {
		markdown = markdown[:maxReportChars]
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		System:      criticSystem,
		Prompt:      fmt.Sprintf(criticPromptFormat, markdown),
		Temperature: 0,
		MaxTokens:   8,
	})
	if err != nil {
		return nil, err
	}

	verdict := graph.NormalizeVerdict(resp.Content)
	c.logger.InfoContext(ctx, "review verdict",
		"branch", c.prefix,
		"raw", resp.Content,
		"verdict", verdict,
	)

	notes := resp.Content
	if notes == "" {
		notes = "No details."
	}

	return graph.Partial{
		c.prefix + KeyCriticRaw:      resp.Content,
		c.prefix + KeyCriticDecision: verdict.String(),
		c.prefix + KeyCriticNotes:    notes,
	}, nil
}

// ReviewRouter routes on the critic's normalized verdict stored under
// prefix: anything but an explicit proceed asks for rework.
func ReviewRouter(prefix string) graph.Router {
	return func(state *graph.State) string {
		verdict := graph.Verdict(state.GetString(prefix + KeyCriticDecision))
		if verdict.NeedsRework() {
			return "retry"
		}
		return "proceed"
	}
}

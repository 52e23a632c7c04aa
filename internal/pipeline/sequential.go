package pipeline

import (
	"log/slog"

	"github.com/draftflow-ai/draftflow/internal/graph"
	"github.com/draftflow-ai/draftflow/internal/llm"
)

// NewSequential builds the single-branch pipeline:
//
//	analyze -> visualize -> draft -> review -> finalize
//
// A negative review cycles back to draft until the cycle budget runs out,
// at which point the branch is forced into finalize and the run is marked
// degraded.
func NewSequential(opts Options, provider llm.Provider, logger *slog.Logger) (*graph.Graph, error) {
	opts = opts.withDefaults()

	return graph.NewGraph("sequential").
		AddStage("analyze", NewAnalyst(opts, logger)).
		AddStage("visualize", NewVisualizer(opts, "", logger)).
		AddStage("draft", NewReporter(opts, "", logger)).
		AddStage("review", NewCritic(provider, "", logger)).
		AddStage("finalize", NewFinalizer(opts, logger)).
		AddEdge("analyze", "visualize").
		AddEdge("visualize", "draft").
		AddEdge("draft", "review").
		AddConditionalEdge("review", ReviewRouter(""),
			map[string]string{
				"retry":   "draft",
				"proceed": "finalize",
			},
			&graph.CyclePolicy{
				MaxCycles:  opts.MaxCycles,
				CounterKey: KeyCycles,
				Fallback:   "finalize",
			}).
		AddEdge("finalize", graph.End).
		SetEntry("analyze").
		MarkAppend(KeyPlots).
		Build()
}

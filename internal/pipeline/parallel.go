package pipeline

import (
	"log/slog"

	"github.com/draftflow-ai/draftflow/internal/graph"
	"github.com/draftflow-ai/draftflow/internal/llm"
)

// NewParallel builds the two-branch pipeline:
//
//	analyze -> { visualize -> vis_review }  \
//	        -> { draft     -> rep_review }  -> assemble
//
// Each branch reviews its own draft and cycles back independently under
// its own budget and counter; the assembly join waits for both branches
// before merging their drafts into the final report.
func NewParallel(opts Options, provider llm.Provider, logger *slog.Logger) (*graph.Graph, error) {
	opts = opts.withDefaults()

	return graph.NewGraph("parallel").
		AddStage("analyze", NewAnalyst(opts, logger)).
		AddStage("visualize", NewVisualizer(opts, BranchVis, logger)).
		AddStage("vis_review", NewCritic(provider, BranchVis, logger)).
		AddStage("draft", NewReporter(opts, BranchRep, logger)).
		AddStage("rep_review", NewCritic(provider, BranchRep, logger)).
		AddStage("assemble", NewAssembler(opts, provider, logger)).
		AddEdge("analyze", "visualize").
		AddEdge("analyze", "draft").
		AddEdge("visualize", "vis_review").
		AddEdge("draft", "rep_review").
		AddConditionalEdge("vis_review", ReviewRouter(BranchVis),
			map[string]string{
				"retry":   "visualize",
				"proceed": "assemble",
			},
			&graph.CyclePolicy{
				MaxCycles:  opts.MaxCycles,
				CounterKey: BranchVis + KeyCycles,
				Fallback:   "assemble",
			}).
		AddConditionalEdge("rep_review", ReviewRouter(BranchRep),
			map[string]string{
				"retry":   "draft",
				"proceed": "assemble",
			},
			&graph.CyclePolicy{
				MaxCycles:  opts.MaxCycles,
				CounterKey: BranchRep + KeyCycles,
				Fallback:   "assemble",
			}).
		AddEdge("assemble", graph.End).
		SetEntry("analyze").
		MarkAppend(KeyPlots).
		Build()
}

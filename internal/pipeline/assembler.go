package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/draftflow-ai/draftflow/internal/graph"
	"github.com/draftflow-ai/draftflow/internal/llm"
	"github.com/draftflow-ai/draftflow/internal/types"
)

// assemblerPromptFormat asks the model to merge the two branch drafts into
// curated JSON. The reply is parsed strictly; a malformed reply falls back
// to deterministic assembly.
const assemblerPromptFormat = `You are an expert senior data reporter. Synthesize a final, stakeholder-ready markdown report by combining two draft documents and the available analysis and plots.

INPUTS:
- Reporter draft (overview and conclusion):
%s

- Visualizer draft (analysis sections):
%s

- Raw analysis text:
%s

- Available plot files:
%v

Respond with JSON only, using exactly this structure:
{
  "title": "A professional title",
  "overview": "The executive summary...",
  "sections": [
    {"heading": "Insight heading", "plot_path": "path/to/plot.json", "content": "Analysis of this plot..."}
  ],
  "conclusion": "Final summary and recommendations..."
}`

// curatedReport is the JSON shape the assembler expects back from the
// model.
type curatedReport struct {
	Title      string           `json:"title"`
	Overview   string           `json:"overview"`
	Sections   []curatedSection `json:"sections"`
	Conclusion string           `json:"conclusion"`
}

type curatedSection struct {
	Heading  string `json:"heading"`
	PlotPath string `json:"plot_path"`
	Content  string `json:"content"`
}

const finalTemplate = `# {{ .Title }}

_Generated: {{ .GeneratedAt }}_

## Overview

{{ .Overview }}
{{ range .Sections }}
## {{ .Heading }}
{{ if .PlotPath }}
![{{ .Heading }}]({{ .PlotPath }})
{{ end }}
{{ .Content }}
{{ end }}
## Conclusion

{{ .Conclusion }}
{{ if .ChangeLog }}
## Change Log

{{ .ChangeLog }}
{{ end }}{{ if .Decisions }}
_Review decisions: {{ .Decisions }}_
{{ end }}`

// finalPayload is the template context for the assembled report.
type finalPayload struct {
	Title       string
	GeneratedAt string
	Overview    string
	Sections    []curatedSection
	Conclusion  string
	ChangeLog   string
	Decisions   string
}

// Assembler is the convergence stage of the parallel pipeline. It waits
// (via the graph's join barrier) for both branches, merges their drafts
// into the final report, and records each branch's review trail in the
// change log. Curation goes through the LLM when one is available and
// falls back to a deterministic merge when the model fails or returns
// unparseable output.
type Assembler struct {
	opts     Options
	provider llm.Provider
	logger   *slog.Logger
	tmpl     *template.Template
}

// NewAssembler creates the assembly stage. provider may be nil to force
// deterministic assembly.
func NewAssembler(opts Options, provider llm.Provider, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		opts:     opts.withDefaults(),
		provider: provider,
		logger:   logger,
		tmpl:     template.Must(template.New("final").Parse(finalTemplate)),
	}
}

// Run implements graph.Handler.
func (a *Assembler) Run(ctx context.Context, state *graph.State) (graph.Partial, error) {
	repDraft := state.GetString(BranchRep + KeyReportMarkdown)
	visDraft := state.GetString(BranchVis + KeyReportMarkdown)
	plots := state.GetStrings(KeyPlots)

	curated := a.curate(ctx, repDraft, visDraft, state.GetString(KeyAnalysis), plots)

	payload := finalPayload{
		Title:       curated.Title,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Overview:    orDefault(curated.Overview, "Combined overview."),
		Sections:    curated.Sections,
		Conclusion:  orDefault(curated.Conclusion, "See the analysis sections above for details."),
		ChangeLog:   a.changeLog(state),
		Decisions:   a.decisions(state),
	}

	var b strings.Builder
	if err := a.tmpl.Execute(&b, payload); err != nil {
		return nil, types.WrapError(types.DATA_WRITE_FAILED, "rendering final report template", err)
	}
	markdown := b.String()

	path := filepath.Join(a.opts.OutputDir, "report.md")
	if err := os.MkdirAll(a.opts.OutputDir, 0o755); err != nil {
		return nil, types.WrapError(types.DATA_WRITE_FAILED,
			fmt.Sprintf("creating output directory %s", a.opts.OutputDir), err)
	}
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return nil, types.WrapError(types.DATA_WRITE_FAILED,
			fmt.Sprintf("writing final report %s", path), err)
	}

	a.logger.InfoContext(ctx, "assembled final report", "path", path)

	return graph.Partial{
		KeyFinalReportPath:     path,
		KeyFinalReportMarkdown: markdown,
		// The sequential consumers read report_path; point it at the final.
		KeyReportPath: path,
	}, nil
}

// curate asks the LLM to merge the drafts, falling back to a deterministic
// merge on any failure.
func (a *Assembler) curate(ctx context.Context, repDraft, visDraft, analysis string, plots []string) curatedReport {
	if a.provider != nil {
		resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
			Prompt: fmt.Sprintf(assemblerPromptFormat, repDraft, visDraft, analysis, plots),
		})
		if err == nil {
			if curated, parseErr := parseCurated(resp.Content); parseErr == nil {
				return curated
			} else {
				a.logger.Warn("curation reply unparseable, using deterministic assembly",
					"error", parseErr)
			}
		} else {
			a.logger.Warn("curation failed, using deterministic assembly", "error", err)
		}
	}
	return fallbackCurated(a.opts.Title, repDraft, plots)
}

// parseCurated decodes the model's JSON reply, tolerating markdown code
// fences around it.
func parseCurated(content string) (curatedReport, error) {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var curated curatedReport
	if err := json.Unmarshal([]byte(cleaned), &curated); err != nil {
		return curatedReport{}, err
	}
	if curated.Title == "" && len(curated.Sections) == 0 {
		return curatedReport{}, fmt.Errorf("curated reply has no content")
	}
	return curated, nil
}

// fallbackCurated builds the deterministic merge: the first three plots
// become sections and the reporter draft's first line becomes the
// overview.
func fallbackCurated(title, repDraft string, plots []string) curatedReport {
	overview := "Combined overview."
	if lines := strings.Split(strings.TrimSpace(repDraft), "\n"); len(lines) > 0 && lines[0] != "" {
		overview = lines[0]
	}

	capped := plots
	if len(capped) > 3 {
		capped = capped[:3]
	}
	sections := make([]curatedSection, 0, len(capped))
	for _, plot := range capped {
		sections = append(sections, curatedSection{
			Heading:  "Analysis",
			PlotPath: plot,
			Content:  "See attached plot and reporter draft for details.",
		})
	}

	return curatedReport{
		Title:      title,
		Overview:   overview,
		Sections:   sections,
		Conclusion: "See reporter and visualizer drafts for details.",
	}
}

// changeLog collects non-trivial reviewer notes from both branches.
func (a *Assembler) changeLog(state *graph.State) string {
	var parts []string
	if notes := state.GetString(BranchVis + KeyCriticNotes); len(notes) > 5 {
		parts = append(parts, "#### Visualizer Branch Feedback\n"+notes)
	}
	if notes := state.GetString(BranchRep + KeyCriticNotes); len(notes) > 5 {
		parts = append(parts, "#### Reporter Branch Feedback\n"+notes)
	}
	return strings.Join(parts, "\n\n")
}

// decisions joins both branches' review decisions.
func (a *Assembler) decisions(state *graph.State) string {
	var decisions []string
	for _, prefix := range []string{BranchVis, BranchRep} {
		if d := state.GetString(prefix + KeyCriticDecision); d != "" {
			decisions = append(decisions, d)
		}
	}
	return strings.Join(decisions, "; ")
}

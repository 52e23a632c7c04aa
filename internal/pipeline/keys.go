package pipeline

// State record keys shared across stages. Parallel branches prefix their
// keys with BranchVis or BranchRep so the two branches never write the
// same field.
const (
	KeyDataPath = "data_path"
	KeyAnalysis = "analysis"
	KeyVizPlan  = "viz_plan"
	KeyPlots    = "plots"

	KeyReportPath     = "report_path"
	KeyReportMarkdown = "report_markdown"

	KeyCriticDecision = "critic_decision"
	KeyCriticRaw      = "critic_raw"
	KeyCriticNotes    = "critic_notes"

	KeyFinalReportPath     = "final_report_path"
	KeyFinalReportMarkdown = "final_report_markdown"

	KeyCycles = "cycles"
)

// Branch prefixes for the parallel topology.
const (
	BranchVis = "vis_"
	BranchRep = "rep_"
)

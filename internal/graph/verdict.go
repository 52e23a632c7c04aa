package graph

import (
	"strings"
)

// Verdict is the closed set of canonical review outcomes the routing layer
// understands. Decision stages in the surrounding system produce free-form
// labels; NormalizeVerdict collapses them onto this set before any router
// consults them.
type Verdict string

const (
	// VerdictProceed accepts the reviewed output and moves the branch
	// forward.
	VerdictProceed Verdict = "proceed"

	// VerdictRetry requests that an earlier stage be revisited, subject to
	// the branch's cycle budget.
	VerdictRetry Verdict = "retry"

	// VerdictAbort rejects the output outright. For routing purposes it
	// behaves like retry: the branch revisits the producing stage while
	// budget remains, then is forced forward.
	VerdictAbort Verdict = "abort"

	// VerdictUncertain is the conservative default for labels the
	// normalizer does not recognize. It is never treated as proceed.
	VerdictUncertain Verdict = "uncertain"
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	return string(v)
}

// NeedsRework reports whether the verdict asks for the reviewed output to
// be produced again. Everything except an explicit proceed needs rework.
func (v Verdict) NeedsRework() bool {
	return v != VerdictProceed
}

// verdictAliases maps upstream reviewer vocabulary onto canonical verdicts.
// Matching is done on the first token of the upper-cased input.
var verdictAliases = map[string]Verdict{
	"PROCEED":    VerdictProceed,
	"ACCEPT":     VerdictProceed,
	"ACCEPTED":   VerdictProceed,
	"APPROVE":    VerdictProceed,
	"APPROVED":   VerdictProceed,
	"OK":         VerdictProceed,
	"YES":        VerdictProceed,
	"RETRY":      VerdictRetry,
	"RERUN":      VerdictRetry,
	"RE":         VerdictRetry, // "RE-RUN" tokenizes to "RE"
	"REGENERATE": VerdictRetry,
	"REVISE":     VerdictRetry,
	"REDO":       VerdictRetry,
	"ABORT":      VerdictAbort,
	"REJECT":     VerdictAbort,
	"REJECTED":   VerdictAbort,
	"FAIL":       VerdictAbort,
	"FAILED":     VerdictAbort,
	"NO":         VerdictAbort,
	"UNCERTAIN":  VerdictUncertain,
	"AMBIGUOUS":  VerdictUncertain,
	"UNCLEAR":    VerdictUncertain,
	"UNKNOWN":    VerdictUncertain,
}

// NormalizeVerdict maps an arbitrary upstream decision label onto the
// closed verdict set. The input is upper-cased and reduced to its first
// alphabetic token, so "Accept.", "accept\n" and "ACCEPT, looks good"
// normalize identically. Unrecognized input yields VerdictUncertain rather
// than an error.
func NormalizeVerdict(raw string) Verdict {
	token := firstToken(strings.ToUpper(strings.TrimSpace(raw)))
	if token == "" {
		return VerdictUncertain
	}
	if verdict, ok := verdictAliases[token]; ok {
		return verdict
	}
	return VerdictUncertain
}

// firstToken returns the leading run of A-Z characters.
func firstToken(s string) string {
	end := 0
	for end < len(s) && s[end] >= 'A' && s[end] <= 'Z' {
		end++
	}
	return s[:end]
}

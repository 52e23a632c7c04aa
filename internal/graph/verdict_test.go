package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizeVerdict tests the alias table and first-token parsing.
func TestNormalizeVerdict(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Verdict
	}{
		{"accept upper", "ACCEPT", VerdictProceed},
		{"accept lower", "accept", VerdictProceed},
		{"accept trailing period", "Accept.", VerdictProceed},
		{"accept trailing newline", "accept\n", VerdictProceed},
		{"accept with commentary", "ACCEPT, the report covers every plot", VerdictProceed},
		{"ok", "OK", VerdictProceed},
		{"yes", "yes", VerdictProceed},
		{"approved", "Approved", VerdictProceed},
		{"proceed", "proceed", VerdictProceed},

		{"rerun", "RERUN", VerdictRetry},
		{"re-run hyphenated", "RE-RUN", VerdictRetry},
		{"regenerate", "regenerate", VerdictRetry},
		{"retry", "Retry", VerdictRetry},
		{"revise", "REVISE", VerdictRetry},

		{"reject", "REJECT", VerdictAbort},
		{"rejected", "rejected", VerdictAbort},
		{"no", "NO", VerdictAbort},
		{"abort", "abort", VerdictAbort},
		{"failed", "FAILED", VerdictAbort},

		{"ambiguous", "AMBIGUOUS", VerdictUncertain},
		{"unclear", "unclear", VerdictUncertain},
		{"unknown word", "MAYBE", VerdictUncertain},
		{"sentence with no verdict", "The report looks fine to me", VerdictUncertain},
		{"empty", "", VerdictUncertain},
		{"whitespace only", "   \n\t", VerdictUncertain},
		{"punctuation only", "???", VerdictUncertain},
		{"digits", "42", VerdictUncertain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeVerdict(tt.raw))
		})
	}
}

// TestVerdictNeedsRework tests that only an explicit proceed passes review.
func TestVerdictNeedsRework(t *testing.T) {
	assert.False(t, VerdictProceed.NeedsRework())
	assert.True(t, VerdictRetry.NeedsRework())
	assert.True(t, VerdictAbort.NeedsRework())
	assert.True(t, VerdictUncertain.NeedsRework())
}

// TestVerdictString tests the string representation.
func TestVerdictString(t *testing.T) {
	assert.Equal(t, "proceed", VerdictProceed.String())
	assert.Equal(t, "uncertain", VerdictUncertain.String())
}

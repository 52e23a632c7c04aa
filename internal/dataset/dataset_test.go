package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftflow-ai/draftflow/internal/types"
)

// writeTempFile writes content to a file under t.TempDir and returns its
// path.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadCSV tests loading a plain comma-separated file.
func TestLoadCSV(t *testing.T) {
	path := writeTempFile(t, "wine.csv",
		"fixed acidity,volatile acidity,quality\n7.4,0.70,5\n7.8,0.88,5\n")

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"fixed acidity", "volatile acidity", "quality"}, table.Headers)
	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, "7.8", table.Rows[1][0])
}

// TestLoadSniffsDelimiter tests that semicolon and tab delimited files load
// without configuration.
func TestLoadSniffsDelimiter(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"semicolon", "wine.csv", "a;b;c\n1;2;3\n"},
		{"tab", "wine.txt", "a\tb\tc\n1\t2\t3\n"},
		{"pipe", "wine.txt", "a|b|c\n1|2|3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Load(writeTempFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, table.Headers)
			require.Equal(t, 1, table.NumRows())
			assert.Equal(t, []string{"1", "2", "3"}, table.Rows[0])
		})
	}
}

// TestLoadRaggedRows tests that short rows are padded and long rows
// truncated to the header width.
func TestLoadRaggedRows(t *testing.T) {
	path := writeTempFile(t, "ragged.csv", "a,b,c\n1,2\n1,2,3,4\n")

	table, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, table.NumRows())
	assert.Equal(t, []string{"1", "2", ""}, table.Rows[0])
	assert.Equal(t, []string{"1", "2", "3"}, table.Rows[1])
}

// TestLoadErrors tests the dataset error taxonomy.
func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
		var dfErr *types.DraftflowError
		require.ErrorAs(t, err, &dfErr)
		assert.Equal(t, types.DATA_NOT_FOUND, dfErr.Code)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Load(writeTempFile(t, "data.parquet", "binary"))
		require.Error(t, err)
		var dfErr *types.DraftflowError
		require.ErrorAs(t, err, &dfErr)
		assert.Equal(t, types.DATA_PARSE_FAILED, dfErr.Code)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := Load(writeTempFile(t, "empty.csv", ""))
		require.Error(t, err)
		var dfErr *types.DraftflowError
		require.ErrorAs(t, err, &dfErr)
		assert.Equal(t, types.DATA_EMPTY, dfErr.Code)
	})

	t.Run("headers only", func(t *testing.T) {
		_, err := Load(writeTempFile(t, "headers.csv", "a,b,c\n"))
		require.Error(t, err)
		var dfErr *types.DraftflowError
		require.ErrorAs(t, err, &dfErr)
		assert.Equal(t, types.DATA_EMPTY, dfErr.Code)
	})
}

// TestCleanNormalizesHeaders tests header canonicalization.
func TestCleanNormalizesHeaders(t *testing.T) {
	table := &Table{
		Headers: []string{` "Fixed Acidity" `, "'pH'", "QUALITY Score"},
		Rows:    [][]string{{"7.4", "3.1", "5"}},
	}

	report := Clean(table)
	assert.Equal(t, []string{"fixed_acidity", "ph", "quality_score"}, report.Table.Headers)
}

// TestCleanDropsDuplicateRows tests exact-duplicate removal.
func TestCleanDropsDuplicateRows(t *testing.T) {
	table := &Table{
		Headers: []string{"a", "b"},
		Rows: [][]string{
			{"1", "2"},
			{"1", "2"},
			{"3", "4"},
			{"1", "2"},
		},
	}

	report := Clean(table)
	assert.Equal(t, 4, report.RawRows)
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 2, report.RowsRemoved)
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, report.Table.Rows)
}

// TestCleanDropsEmptyColumns tests removal of columns with no values.
func TestCleanDropsEmptyColumns(t *testing.T) {
	table := &Table{
		Headers: []string{"a", "empty", "b"},
		Rows: [][]string{
			{"1", "", "x"},
			{"2", "NA", "y"},
			{"3", "null", "z"},
		},
	}

	report := Clean(table)
	assert.Equal(t, []string{"a", "b"}, report.Table.Headers)
	assert.Equal(t, []string{"empty"}, report.ColumnsDropped)
	assert.Equal(t, []string{"2", "y"}, report.Table.Rows[1])
}

// TestCleanImputesMissing tests median imputation for numeric columns and
// mode imputation for categorical ones.
func TestCleanImputesMissing(t *testing.T) {
	table := &Table{
		Headers: []string{"score", "grade"},
		Rows: [][]string{
			{"1", "red"},
			{"3", ""},
			{"", "red"},
			{"100", "white"},
		},
	}

	report := Clean(table)
	assert.Equal(t, 2, report.MissingBefore)
	assert.Equal(t, 0, report.MissingAfter)

	// Median of 1, 3, 100 is 3; mode of red, red, white is red.
	assert.Equal(t, "3", report.Table.Rows[2][0])
	assert.Equal(t, "red", report.Table.Rows[1][1])
}

// TestMedian tests odd, even, and empty inputs.
func TestMedian(t *testing.T) {
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{1, 2, 3, 4}))
	assert.Equal(t, 0.0, Median(nil))
}

// TestMode tests frequency counting with first-seen tie breaking.
func TestMode(t *testing.T) {
	assert.Equal(t, "b", Mode([]string{"a", "b", "b"}))
	assert.Equal(t, "a", Mode([]string{"a", "b"}))
	assert.Equal(t, "unknown", Mode([]string{"", "NA", "null"}))
}

// TestVariance tests sample variance.
func TestVariance(t *testing.T) {
	assert.InDelta(t, 2.5, Variance([]float64{1, 2, 3, 4, 5}), 1e-9)
	assert.Equal(t, 0.0, Variance([]float64{42}))
}

// TestPearson tests correlation on perfectly correlated, anticorrelated,
// and degenerate series.
func TestPearson(t *testing.T) {
	assert.InDelta(t, 1.0, Pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	assert.InDelta(t, -1.0, Pearson([]float64{1, 2, 3}, []float64{6, 4, 2}), 1e-9)
	assert.True(t, math.IsNaN(Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})))
	assert.True(t, math.IsNaN(Pearson([]float64{1}, []float64{1})))
	assert.True(t, math.IsNaN(Pearson([]float64{1, 2}, []float64{1})))
}

// TestBuildPlan tests histogram ranking, pair selection, and the heatmap
// cutoff.
func TestBuildPlan(t *testing.T) {
	table := &Table{
		Headers: []string{"low_var", "high_var", "tracks_high", "label"},
		Rows: [][]string{
			{"1.0", "10", "20", "red"},
			{"1.1", "50", "100", "white"},
			{"0.9", "90", "180", "red"},
			{"1.0", "130", "260", "red"},
		},
	}

	plan := BuildPlan(table, DefaultPlanOptions())

	// Highest variance first; the categorical column never appears.
	assert.Equal(t, []string{"tracks_high", "high_var", "low_var"}, plan.Histograms)
	assert.Contains(t, plan.Pairs, Pair{A: "high_var", B: "tracks_high"})
	assert.True(t, plan.Heatmap)

	described := plan.Describe()
	assert.Contains(t, described, "histograms=")
	assert.Contains(t, described, "heatmap=yes")
}

// TestBuildPlanFewNumericColumns tests that two numeric columns disable
// the heatmap and one disables pairs.
func TestBuildPlanFewNumericColumns(t *testing.T) {
	table := &Table{
		Headers: []string{"a", "b"},
		Rows: [][]string{
			{"1", "2"},
			{"2", "4"},
			{"3", "6"},
		},
	}

	plan := BuildPlan(table, DefaultPlanOptions())
	assert.False(t, plan.Heatmap)
	assert.Equal(t, []Pair{{A: "a", B: "b"}}, plan.Pairs)

	single := BuildPlan(&Table{Headers: []string{"a"}, Rows: [][]string{{"1"}, {"2"}}},
		DefaultPlanOptions())
	assert.Empty(t, single.Pairs)
	assert.False(t, single.Heatmap)
}

// TestBuildPlanHonorsLimits tests the histogram and pair caps.
func TestBuildPlanHonorsLimits(t *testing.T) {
	table := &Table{
		Headers: []string{"a", "b", "c"},
		Rows: [][]string{
			{"1", "2", "3"},
			{"2", "4", "6"},
			{"3", "6", "9"},
		},
	}

	plan := BuildPlan(table, PlanOptions{MaxHistograms: 2, MaxPairs: 1, CorrThreshold: 0.6})
	assert.Len(t, plan.Histograms, 2)
	assert.Len(t, plan.Pairs, 1)
}

// TestWriteCSVRoundTrip tests writing and reloading a cleaned table.
func TestWriteCSVRoundTrip(t *testing.T) {
	table := &Table{
		Headers: []string{"a", "b"},
		Rows:    [][]string{{"1", "x"}, {"2", "y"}},
	}

	path := filepath.Join(t.TempDir(), "out", "cleaned.csv")
	require.NoError(t, WriteCSV(table, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, table.Headers, loaded.Headers)
	assert.Equal(t, table.Rows, loaded.Rows)
}

package dataset

import (
	"strconv"
	"strings"
)

// CleanReport describes what cleaning did to a table. The cleaned table is
// a new value; the input is never mutated.
type CleanReport struct {
	Table          *Table
	RawRows        int
	Rows           int
	RowsRemoved    int
	ColumnsDropped []string
	MissingBefore  int
	MissingAfter   int
}

// Clean normalizes and repairs a loaded table:
//
//  1. Header names are trimmed, stripped of surrounding quotes, lowercased,
//     and spaces become underscores.
//  2. Exact duplicate rows are dropped, keeping the first occurrence.
//  3. Columns whose every value is missing are dropped.
//  4. Remaining missing cells are imputed: numeric columns take the column
//     median, categorical columns take the most frequent value (or
//     "unknown" when the column has no values at all after a tie).
func Clean(t *Table) *CleanReport {
	report := &CleanReport{
		RawRows:       t.NumRows(),
		MissingBefore: t.CountMissing(),
	}

	headers := make([]string, len(t.Headers))
	for i, header := range t.Headers {
		headers[i] = normalizeHeader(header)
	}

	rows := dedupeRows(t.Rows)
	report.RowsRemoved = report.RawRows - len(rows)

	cleaned := &Table{Headers: headers, Rows: rows}
	cleaned, dropped := dropEmptyColumns(cleaned)
	report.ColumnsDropped = dropped

	imputeMissing(cleaned)

	report.Table = cleaned
	report.Rows = cleaned.NumRows()
	report.MissingAfter = cleaned.CountMissing()
	return report
}

// normalizeHeader canonicalizes one column name.
func normalizeHeader(header string) string {
	name := strings.TrimSpace(header)
	name = strings.Trim(name, `"'`)
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

// dedupeRows drops exact duplicates, preserving first-seen order.
func dedupeRows(rows [][]string) [][]string {
	seen := make(map[string]bool, len(rows))
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}

// dropEmptyColumns removes columns with no non-missing values, returning
// the reduced table and the dropped column names.
func dropEmptyColumns(t *Table) (*Table, []string) {
	keep := make([]int, 0, len(t.Headers))
	var dropped []string

	for i, header := range t.Headers {
		empty := true
		for _, row := range t.Rows {
			if !isMissing(row[i]) {
				empty = false
				break
			}
		}
		if empty {
			dropped = append(dropped, header)
			continue
		}
		keep = append(keep, i)
	}

	if len(dropped) == 0 {
		return t, nil
	}

	headers := make([]string, len(keep))
	for n, i := range keep {
		headers[n] = t.Headers[i]
	}
	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		reduced := make([]string, len(keep))
		for n, i := range keep {
			reduced[n] = row[i]
		}
		rows[r] = reduced
	}
	return &Table{Headers: headers, Rows: rows}, dropped
}

// imputeMissing fills missing cells in place: medians for numeric columns,
// modes for categorical ones.
func imputeMissing(t *Table) {
	for i := range t.Headers {
		hasMissing := false
		for _, row := range t.Rows {
			if isMissing(row[i]) {
				hasMissing = true
				break
			}
		}
		if !hasMissing {
			continue
		}

		var fill string
		if t.IsNumericColumn(i) {
			fill = strconv.FormatFloat(Median(t.NumericValues(i)), 'g', -1, 64)
		} else {
			fill = Mode(t.Column(i))
		}

		for _, row := range t.Rows {
			if isMissing(row[i]) {
				row[i] = fill
			}
		}
	}
}

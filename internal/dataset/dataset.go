package dataset

import (
	"strconv"
	"strings"
)

// Table is an in-memory tabular dataset. Values are kept as strings as
// read from disk; numeric interpretation happens on demand so a column
// with a single stray token degrades to categorical instead of failing.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.Headers)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, header := range t.Headers {
		if header == name {
			return i
		}
	}
	return -1
}

// Column returns all values of the column at the given index.
func (t *Table) Column(idx int) []string {
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values
}

// IsNumericColumn reports whether every non-missing value in the column
// parses as a float. A column with no non-missing values is not numeric.
func (t *Table) IsNumericColumn(idx int) bool {
	seen := false
	for _, row := range t.Rows {
		value := row[idx]
		if isMissing(value) {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

// NumericColumns returns the names of all numeric columns in header order.
func (t *Table) NumericColumns() []string {
	var names []string
	for i, header := range t.Headers {
		if t.IsNumericColumn(i) {
			names = append(names, header)
		}
	}
	return names
}

// NumericValues returns the parsed non-missing values of a numeric column.
func (t *Table) NumericValues(idx int) []float64 {
	values := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if isMissing(row[idx]) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values
}

// CountMissing returns the total number of missing cells in the table.
func (t *Table) CountMissing() int {
	missing := 0
	for _, row := range t.Rows {
		for _, value := range row {
			if isMissing(value) {
				missing++
			}
		}
	}
	return missing
}

// missingTokens are the cell values treated as absent, compared
// case-insensitively after trimming.
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
}

// isMissing reports whether a cell value represents an absent measurement.
func isMissing(value string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(value))]
}

package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/draftflow-ai/draftflow/internal/types"
)

// delimiterCandidates are tried when sniffing a delimited file, in
// preference order for ties.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// Load reads a delimited text file into a Table. The delimiter is sniffed
// from the first line; .csv, .tsv, and .txt extensions are accepted. Rows
// shorter than the header are padded with missing cells, longer rows are
// truncated, so a ragged file loads instead of failing.
func Load(path string) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, types.NewError(types.DATA_NOT_FOUND,
			fmt.Sprintf("data file not found: %s", path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".tsv", ".txt":
	default:
		return nil, types.NewError(types.DATA_PARSE_FAILED,
			fmt.Sprintf("unsupported file extension %q", ext))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, types.WrapError(types.DATA_NOT_FOUND,
			fmt.Sprintf("opening %s", path), err)
	}
	defer file.Close()

	buffered := bufio.NewReader(file)
	firstLine, err := buffered.ReadString('\n')
	if err != nil && firstLine == "" {
		return nil, types.NewError(types.DATA_EMPTY,
			fmt.Sprintf("data file is empty: %s", path))
	}

	delimiter := sniffDelimiter(firstLine)

	// Re-read from the top with the sniffed delimiter.
	if _, err := file.Seek(0, 0); err != nil {
		return nil, types.WrapError(types.DATA_PARSE_FAILED,
			fmt.Sprintf("rewinding %s", path), err)
	}

	reader := csv.NewReader(file)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, types.WrapError(types.DATA_PARSE_FAILED,
			fmt.Sprintf("parsing %s", path), err)
	}
	if len(records) == 0 {
		return nil, types.NewError(types.DATA_EMPTY,
			fmt.Sprintf("data file is empty: %s", path))
	}

	headers := records[0]
	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]string, len(headers))
		copy(row, record)
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, types.NewError(types.DATA_EMPTY,
			fmt.Sprintf("data file has headers but no rows: %s", path))
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

// sniffDelimiter picks the candidate occurring most often in the header
// line, defaulting to comma.
func sniffDelimiter(line string) rune {
	best := ','
	bestCount := 0
	for _, candidate := range delimiterCandidates {
		count := strings.Count(line, string(candidate))
		if count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	return best
}

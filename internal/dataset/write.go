package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/draftflow-ai/draftflow/internal/types"
)

// WriteCSV writes the table to path as comma-separated values, creating
// parent directories as needed.
func WriteCSV(t *Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.WrapError(types.DATA_WRITE_FAILED,
			fmt.Sprintf("creating output directory for %s", path), err)
	}

	file, err := os.Create(path)
	if err != nil {
		return types.WrapError(types.DATA_WRITE_FAILED,
			fmt.Sprintf("creating %s", path), err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(t.Headers); err != nil {
		return types.WrapError(types.DATA_WRITE_FAILED,
			fmt.Sprintf("writing headers to %s", path), err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return types.WrapError(types.DATA_WRITE_FAILED,
			fmt.Sprintf("writing rows to %s", path), err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return types.WrapError(types.DATA_WRITE_FAILED,
			fmt.Sprintf("flushing %s", path), err)
	}
	return nil
}

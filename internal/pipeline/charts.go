package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/draftflow-ai/draftflow/internal/dataset"
	"github.com/draftflow-ai/draftflow/internal/types"
)

// histogramBins is the fixed bin count for histogram descriptors.
const histogramBins = 20

// Chart is a renderer-agnostic chart descriptor written to disk as JSON.
// Downstream tooling turns descriptors into images; the pipeline itself
// only decides what to plot and computes the plotted values.
type Chart struct {
	Type    string       `json:"type"`
	Title   string       `json:"title"`
	Column  string       `json:"column,omitempty"`
	X       string       `json:"x,omitempty"`
	Y       string       `json:"y,omitempty"`
	Bins    []Bin        `json:"bins,omitempty"`
	Points  [][2]float64 `json:"points,omitempty"`
	Columns []string     `json:"columns,omitempty"`
	Matrix  [][]float64  `json:"matrix,omitempty"`
}

// Bin is one histogram bucket.
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// histogramChart buckets one numeric column into fixed-width bins.
func histogramChart(t *dataset.Table, column string) Chart {
	values := t.NumericValues(t.ColumnIndex(column))
	chart := Chart{
		Type:   "histogram",
		Title:  fmt.Sprintf("Histogram of %s", column),
		Column: column,
	}
	if len(values) == 0 {
		return chart
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	width := (hi - lo) / histogramBins
	if width == 0 {
		chart.Bins = []Bin{{Low: lo, High: hi, Count: len(values)}}
		return chart
	}

	counts := make([]int, histogramBins)
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= histogramBins {
			idx = histogramBins - 1
		}
		counts[idx]++
	}
	for i, count := range counts {
		chart.Bins = append(chart.Bins, Bin{
			Low:   lo + float64(i)*width,
			High:  lo + float64(i+1)*width,
			Count: count,
		})
	}
	return chart
}

// scatterChart pairs two numeric columns row by row.
func scatterChart(t *dataset.Table, a, b string) Chart {
	xs, ys := alignedPair(t, a, b)
	points := make([][2]float64, len(xs))
	for i := range xs {
		points[i] = [2]float64{xs[i], ys[i]}
	}
	return Chart{
		Type:   "scatter",
		Title:  fmt.Sprintf("%s vs %s", a, b),
		X:      a,
		Y:      b,
		Points: points,
	}
}

// heatmapChart computes the full pairwise correlation matrix.
func heatmapChart(t *dataset.Table, columns []string) Chart {
	matrix := make([][]float64, len(columns))
	for i := range columns {
		matrix[i] = make([]float64, len(columns))
		for j := range columns {
			if i == j {
				matrix[i][j] = 1
				continue
			}
			xs, ys := alignedPair(t, columns[i], columns[j])
			r := dataset.Pearson(xs, ys)
			if math.IsNaN(r) {
				r = 0
			}
			matrix[i][j] = r
		}
	}
	return Chart{
		Type:    "heatmap",
		Title:   "Correlation heatmap",
		Columns: columns,
		Matrix:  matrix,
	}
}

// alignedPair returns the row-aligned numeric values of two columns,
// keeping only rows where both cells parse.
func alignedPair(t *dataset.Table, a, b string) ([]float64, []float64) {
	ia, ib := t.ColumnIndex(a), t.ColumnIndex(b)
	xs := make([]float64, 0, t.NumRows())
	ys := make([]float64, 0, t.NumRows())
	for _, row := range t.Rows {
		va, errA := strconv.ParseFloat(strings.TrimSpace(row[ia]), 64)
		vb, errB := strconv.ParseFloat(strings.TrimSpace(row[ib]), 64)
		if errA != nil || errB != nil {
			continue
		}
		xs = append(xs, va)
		ys = append(ys, vb)
	}
	return xs, ys
}

// writeChart writes one descriptor to disk and returns its path.
func writeChart(dir, name string, chart Chart) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", types.WrapError(types.DATA_WRITE_FAILED,
			fmt.Sprintf("creating chart directory %s", dir), err)
	}
	path := filepath.Join(dir, name)
	data, err := json.MarshalIndent(chart, "", "  ")
	if err != nil {
		return "", types.WrapError(types.DATA_WRITE_FAILED,
			fmt.Sprintf("encoding chart %s", name), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", types.WrapError(types.DATA_WRITE_FAILED,
			fmt.Sprintf("writing chart %s", path), err)
	}
	return path, nil
}

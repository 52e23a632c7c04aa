package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// PlanOptions bound the size of a visualization plan.
type PlanOptions struct {
	MaxHistograms int
	MaxPairs      int
	CorrThreshold float64
}

// DefaultPlanOptions returns the standard plan bounds.
func DefaultPlanOptions() PlanOptions {
	return PlanOptions{
		MaxHistograms: 10,
		MaxPairs:      10,
		CorrThreshold: 0.6,
	}
}

// Pair names two columns whose correlation earned them a scatter plot.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// VizPlan is the data-driven visualization plan for a cleaned table:
// histograms for the highest-variance numeric columns, scatter plots for
// strongly correlated pairs, and a correlation heatmap when the table has
// enough numeric columns to make one readable.
type VizPlan struct {
	Histograms []string `json:"hists"`
	Pairs      []Pair   `json:"pairs"`
	Heatmap    bool     `json:"heatmap"`
}

// BuildPlan derives a visualization plan from a cleaned table.
func BuildPlan(t *Table, opts PlanOptions) VizPlan {
	numeric := t.NumericColumns()

	histograms := rankByVariance(t, numeric)
	if len(histograms) > opts.MaxHistograms {
		histograms = histograms[:opts.MaxHistograms]
	}

	var pairs []Pair
	if len(numeric) >= 2 {
		for i := 0; i < len(numeric) && len(pairs) < opts.MaxPairs; i++ {
			for j := i + 1; j < len(numeric) && len(pairs) < opts.MaxPairs; j++ {
				a, b := alignedValues(t, numeric[i], numeric[j])
				r := Pearson(a, b)
				if !math.IsNaN(r) && math.Abs(r) >= opts.CorrThreshold {
					pairs = append(pairs, Pair{A: numeric[i], B: numeric[j]})
				}
			}
		}
	}

	return VizPlan{
		Histograms: histograms,
		Pairs:      pairs,
		Heatmap:    len(numeric) >= 3,
	}
}

// Describe renders the plan as a single summary line.
func (p VizPlan) Describe() string {
	parts := []string{fmt.Sprintf("histograms=%v", p.Histograms)}
	if len(p.Pairs) > 0 {
		pairNames := make([]string, len(p.Pairs))
		for i, pair := range p.Pairs {
			pairNames[i] = fmt.Sprintf("(%s, %s)", pair.A, pair.B)
		}
		parts = append(parts, fmt.Sprintf("pairs=[%s]", strings.Join(pairNames, " ")))
	}
	heatmap := "no"
	if p.Heatmap {
		heatmap = "yes"
	}
	parts = append(parts, "heatmap="+heatmap)
	return strings.Join(parts, "; ")
}

// rankByVariance orders numeric column names by descending sample
// variance, breaking ties by header order.
func rankByVariance(t *Table, numeric []string) []string {
	type ranked struct {
		name     string
		variance float64
		order    int
	}
	cols := make([]ranked, 0, len(numeric))
	for order, name := range numeric {
		idx := t.ColumnIndex(name)
		cols = append(cols, ranked{
			name:     name,
			variance: Variance(t.NumericValues(idx)),
			order:    order,
		})
	}
	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].variance != cols[j].variance {
			return cols[i].variance > cols[j].variance
		}
		return cols[i].order < cols[j].order
	})

	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.name
	}
	return names
}

// alignedValues returns the row-aligned numeric values of two columns,
// keeping only rows where both cells parse.
func alignedValues(t *Table, colA, colB string) ([]float64, []float64) {
	ia, ib := t.ColumnIndex(colA), t.ColumnIndex(colB)
	a := make([]float64, 0, len(t.Rows))
	b := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		va, errA := strconv.ParseFloat(strings.TrimSpace(row[ia]), 64)
		vb, errB := strconv.ParseFloat(strings.TrimSpace(row[ib]), 64)
		if errA != nil || errB != nil {
			continue
		}
		a = append(a, va)
		b = append(b, vb)
	}
	return a, b
}

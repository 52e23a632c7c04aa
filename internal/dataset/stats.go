package dataset

import (
	"math"
	"sort"
	"strings"
)

// Median returns the middle value of the data (mean of the two middle
// values for even lengths). An empty slice yields 0.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Mode returns the most frequent non-missing value, breaking ties by first
// occurrence. A column with no usable values yields "unknown".
func Mode(values []string) string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, raw := range values {
		if isMissing(raw) {
			continue
		}
		value := strings.TrimSpace(raw)
		if counts[value] == 0 {
			order = append(order, value)
		}
		counts[value]++
	}

	best := "unknown"
	bestCount := 0
	for _, value := range order {
		if counts[value] > bestCount {
			best = value
			bestCount = counts[value]
		}
	}
	return best
}

// Variance returns the sample variance (n-1 denominator). Fewer than two
// values yield 0.
func Variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	sum := 0.0
	for _, v := range values {
		diff := v - mean
		sum += diff * diff
	}
	return sum / float64(len(values)-1)
}

// Pearson returns the Pearson correlation coefficient of two equal-length
// series. Degenerate inputs (length mismatch, fewer than two points, zero
// variance) yield NaN.
func Pearson(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return math.NaN()
	}

	meanA, meanB := 0.0, 0.0
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	n := float64(len(a))
	meanA /= n
	meanB /= n

	cov, varA, varB := 0.0, 0.0, 0.0
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varA*varB)
}

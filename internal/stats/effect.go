package stats

import (
	"fmt"
	"math"
	"sort"
)

// CliffsDelta returns P(x > y) - P(x < y) over all pairs.
func CliffsDelta(x, y []float64) (float64, error) {
	if len(x) == 0 || len(y) == 0 {
		return 0, fmt.Errorf("%w: sizes %d and %d", ErrEmptySample, len(x), len(y))
	}
	sorted := append([]float64(nil), y...)
	sort.Float64s(sorted)

	dominance := 0
	for _, v := range x {
		below := sort.SearchFloat64s(sorted, v)
		above := len(sorted) - sort.Search(len(sorted), func(i int) bool { return sorted[i] > v })
		dominance += below - above
	}
	return float64(dominance) / float64(len(x)*len(y)), nil
}

// Magnitude bands for Cliff's delta.
const (
	Negligible = "negligible"
	Small      = "small"
	Medium     = "medium"
	Large      = "large"
)

// CliffsMagnitude labels |d| as negligible (<0.147), small (<0.33),
// medium (<0.474) or large.
func CliffsMagnitude(d float64) string {
	switch a := math.Abs(d); {
	case a < 0.147:
		return Negligible
	case a < 0.33:
		return Small
	case a < 0.474:
		return Medium
	default:
		return Large
	}
}

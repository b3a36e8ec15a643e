package stats

import (
	"math"
	"sort"
)

// BenjaminiHochberg returns false-discovery-rate adjusted p-values in the
// input order. NaN entries stay NaN and do not count towards the number of
// tests.
func BenjaminiHochberg(p []float64) []float64 {
	out := make([]float64, len(p))
	idx := make([]int, 0, len(p))
	for i, v := range p {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		idx = append(idx, i)
	}
	m := len(idx)
	if m == 0 {
		return out
	}

	sort.SliceStable(idx, func(a, b int) bool { return p[idx[a]] < p[idx[b]] })

	running := 1.0
	for k := m - 1; k >= 0; k-- {
		i := idx[k]
		adj := p[i] * float64(m) / float64(k+1)
		if adj < running {
			running = adj
		}
		out[i] = running
	}
	return out
}

// NegLog10 returns -log10(p), +Inf for p == 0.
func NegLog10(p float64) float64 {
	if p <= 0 {
		return math.Inf(1)
	}
	return -math.Log10(p)
}

package stats

import (
	"fmt"
	"math"
	"sort"

	"closedcat/internal/table"
)

// FleissKappa computes Fleiss' kappa from an items x categories count
// matrix. Every item must carry the same number of ratings (at least 2).
// Perfect observed agreement yields 1 even when every rating falls in one
// category.
func FleissKappa(counts [][]float64) (float64, error) {
	if len(counts) == 0 || len(counts[0]) == 0 {
		return 0, fmt.Errorf("%w: no items", ErrDegenerateTable)
	}

	nCat := len(counts[0])
	raters := -1.0
	catTotals := make([]float64, nCat)
	for i, row := range counts {
		if len(row) != nCat {
			return 0, fmt.Errorf("%w: item %d has %d categories, want %d", ErrDegenerateTable, i, len(row), nCat)
		}
		sum := 0.0
		for j, v := range row {
			sum += v
			catTotals[j] += v
		}
		if raters < 0 {
			raters = sum
		} else if sum != raters {
			return 0, fmt.Errorf("%w: item %d has %v ratings, want %v", ErrUnevenRaters, i, sum, raters)
		}
	}
	if raters < 2 {
		return 0, fmt.Errorf("%w: need at least 2 ratings per item, got %v", ErrDegenerateTable, raters)
	}

	items := float64(len(counts))
	total := items * raters

	pExpected := 0.0
	for _, t := range catTotals {
		p := t / total
		pExpected += p * p
	}

	pMean := 0.0
	for _, row := range counts {
		sq := 0.0
		for _, v := range row {
			sq += v * v
		}
		pMean += (sq - raters) / (raters * (raters - 1))
	}
	pMean /= items

	if pMean == 1 {
		return 1, nil
	}
	if pExpected == 1 {
		return math.NaN(), nil
	}
	return (pMean - pExpected) / (1 - pExpected), nil
}

// RatingMatrix is an items x labels count matrix built from annotator columns.
type RatingMatrix struct {
	Labels []string    // sorted label classes
	Counts [][]float64 // one row per item
}

// NewRatingMatrix encodes ratings (one slice of labels per item). Empty
// labels are skipped.
func NewRatingMatrix(ratings [][]string) *RatingMatrix {
	seen := make(map[string]bool)
	for _, item := range ratings {
		for _, l := range item {
			if l != "" {
				seen[l] = true
			}
		}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	m := &RatingMatrix{Labels: labels, Counts: make([][]float64, len(ratings))}
	for i, item := range ratings {
		row := make([]float64, len(labels))
		for _, l := range item {
			if l != "" {
				row[index[l]]++
			}
		}
		m.Counts[i] = row
	}
	return m
}

// Raters returns the number of ratings of item i.
func (m *RatingMatrix) Raters(i int) int {
	n := 0.0
	for _, v := range m.Counts[i] {
		n += v
	}
	return int(n)
}

// DropIncomplete returns a matrix without the items rated by fewer
// annotators than the best-covered item, and the number of dropped items.
func (m *RatingMatrix) DropIncomplete() (*RatingMatrix, int) {
	most := 0
	for i := range m.Counts {
		if n := m.Raters(i); n > most {
			most = n
		}
	}
	out := &RatingMatrix{Labels: m.Labels}
	for i, row := range m.Counts {
		if m.Raters(i) == most {
			out.Counts = append(out.Counts, row)
		}
	}
	return out, len(m.Counts) - len(out.Counts)
}

// Kappa is FleissKappa over the matrix counts.
func (m *RatingMatrix) Kappa() (float64, error) {
	return FleissKappa(m.Counts)
}

// SingleAxisMatrix builds a rating matrix from one label column per annotator.
func SingleAxisMatrix(records []table.Record, annotatorCols []string) *RatingMatrix {
	ratings := make([][]string, len(records))
	for i, r := range records {
		item := make([]string, 0, len(annotatorCols))
		for _, c := range annotatorCols {
			item = append(item, r.Get(c))
		}
		ratings[i] = item
	}
	return NewRatingMatrix(ratings)
}

// AxisPair names the role and meaning columns of one dual-axis annotator.
type AxisPair struct {
	Role    string
	Meaning string
}

// DualAxisPairs returns the "<name> Axial Code Role/Meaning" columns of
// each annotator.
func DualAxisPairs(annotators []string) []AxisPair {
	pairs := make([]AxisPair, len(annotators))
	for i, a := range annotators {
		pairs[i] = AxisPair{
			Role:    a + " Axial Code Role",
			Meaning: a + " Axial Code Meaning",
		}
	}
	return pairs
}

// CompositeLabel joins role and meaning as "role::meaning". It returns ""
// when both are empty.
func CompositeLabel(role, meaning string) string {
	if role == "" && meaning == "" {
		return ""
	}
	return role + "::" + meaning
}

// CompositeMatrix builds a rating matrix over composite role::meaning labels.
func CompositeMatrix(records []table.Record, pairs []AxisPair) *RatingMatrix {
	ratings := make([][]string, len(records))
	for i, r := range records {
		item := make([]string, 0, len(pairs))
		for _, p := range pairs {
			item = append(item, CompositeLabel(r.Get(p.Role), r.Get(p.Meaning)))
		}
		ratings[i] = item
	}
	return NewRatingMatrix(ratings)
}

// Package stats implements the significance tests and effect sizes used by
// the closed-category analyses: Pearson's chi-square with adjusted residuals,
// Fleiss' kappa, the Mann-Whitney U test, Cliff's delta and
// Benjamini-Hochberg correction. Every function is pure.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrDegenerateTable is returned for contingency tables that cannot be tested.
	ErrDegenerateTable = errors.New("degenerate contingency table")
	// ErrUnevenRaters is returned when items carry different numbers of ratings.
	ErrUnevenRaters = errors.New("items have different numbers of ratings")
	// ErrEmptySample is returned when a sample has no observations.
	ErrEmptySample = errors.New("empty sample")
)

// ChiSquareOptions tunes ChiSquare.
type ChiSquareOptions struct {
	// Alpha is the significance level of the reported critical value.
	Alpha float64
	// Yates applies the continuity correction to 2x2 tables.
	Yates bool
}

// ChiSquareResult is the outcome of Pearson's test of independence.
type ChiSquareResult struct {
	Statistic float64
	PValue    float64
	DoF       int
	Alpha     float64
	Critical  float64 // chi-square quantile at 1-Alpha
	Corrected bool    // Yates correction applied

	Expected      [][]float64
	Contributions [][]float64 // (O-E)^2/E per cell
	RowSums       []float64   // contributions summed per row
	ColSums       []float64   // contributions summed per column
}

// Significant reports whether the statistic exceeds the critical value.
func (r *ChiSquareResult) Significant() bool {
	return r.Statistic > r.Critical
}

// margins holds the totals of a validated contingency table.
type margins struct {
	rows, cols []float64
	total      float64
	expected   [][]float64
}

func computeMargins(observed [][]float64) (*margins, error) {
	if len(observed) < 2 || len(observed[0]) < 2 {
		return nil, fmt.Errorf("%w: need at least 2x2, got %dx%d", ErrDegenerateTable, len(observed), width(observed))
	}
	nc := len(observed[0])
	m := &margins{rows: make([]float64, len(observed)), cols: make([]float64, nc)}
	for i, row := range observed {
		if len(row) != nc {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrDegenerateTable, i, len(row), nc)
		}
		for j, v := range row {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: invalid count %v at (%d,%d)", ErrDegenerateTable, v, i, j)
			}
			m.rows[i] += v
			m.cols[j] += v
			m.total += v
		}
	}
	if m.total == 0 {
		return nil, fmt.Errorf("%w: table is empty", ErrDegenerateTable)
	}

	m.expected = make([][]float64, len(observed))
	for i := range observed {
		m.expected[i] = make([]float64, nc)
		for j := range observed[i] {
			e := m.rows[i] * m.cols[j] / m.total
			if e == 0 {
				return nil, fmt.Errorf("%w: zero expected frequency at (%d,%d)", ErrDegenerateTable, i, j)
			}
			m.expected[i][j] = e
		}
	}
	return m, nil
}

func width(t [][]float64) int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// ChiSquare runs Pearson's chi-square test of independence on observed.
func ChiSquare(observed [][]float64, opts ChiSquareOptions) (*ChiSquareResult, error) {
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		opts.Alpha = 0.05
	}
	m, err := computeMargins(observed)
	if err != nil {
		return nil, err
	}

	dof := (len(m.rows) - 1) * (len(m.cols) - 1)
	res := &ChiSquareResult{
		DoF:           dof,
		Alpha:         opts.Alpha,
		Expected:      m.expected,
		Contributions: make([][]float64, len(observed)),
		RowSums:       make([]float64, len(m.rows)),
		ColSums:       make([]float64, len(m.cols)),
		Corrected:     opts.Yates && dof == 1,
	}

	for i, row := range observed {
		res.Contributions[i] = make([]float64, len(row))
		for j, o := range row {
			e := m.expected[i][j]
			d := o - e
			c := d * d / e
			res.Contributions[i][j] = c
			res.RowSums[i] += c
			res.ColSums[j] += c

			if res.Corrected {
				d = math.Abs(d) - 0.5
				if d < 0 {
					d = 0
				}
				res.Statistic += d * d / e
			} else {
				res.Statistic += c
			}
		}
	}

	dist := distuv.ChiSquared{K: float64(dof)}
	res.PValue = dist.Survival(res.Statistic)
	res.Critical = dist.Quantile(1 - opts.Alpha)
	return res, nil
}

// ResidualResult holds adjusted standardized residuals with a Bonferroni
// corrected significance threshold.
type ResidualResult struct {
	Residuals     [][]float64
	Significant   [][]bool
	Alpha         float64
	Cells         int
	AdjustedAlpha float64 // Alpha / Cells
	Critical      float64 // two-sided z at AdjustedAlpha
}

// AdjustedResiduals computes (O-E)/sqrt(E(1-r/n)(1-c/n)) for every cell.
// A cell is significant when |residual| >= the Bonferroni critical z.
// Cells with a zero standard error get NaN and are never significant.
func AdjustedResiduals(observed [][]float64, alpha float64) (*ResidualResult, error) {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}
	m, err := computeMargins(observed)
	if err != nil {
		return nil, err
	}

	cells := len(m.rows) * len(m.cols)
	res := &ResidualResult{
		Residuals:     make([][]float64, len(observed)),
		Significant:   make([][]bool, len(observed)),
		Alpha:         alpha,
		Cells:         cells,
		AdjustedAlpha: alpha / float64(cells),
		Critical:      distuv.UnitNormal.Quantile(1 - alpha/(2*float64(cells))),
	}

	for i, row := range observed {
		res.Residuals[i] = make([]float64, len(row))
		res.Significant[i] = make([]bool, len(row))
		for j, o := range row {
			e := m.expected[i][j]
			se := math.Sqrt(e * (1 - m.rows[i]/m.total) * (1 - m.cols[j]/m.total))
			if se == 0 || math.IsNaN(se) {
				res.Residuals[i][j] = math.NaN()
				continue
			}
			r := (o - e) / se
			res.Residuals[i][j] = r
			res.Significant[i][j] = math.Abs(r) >= res.Critical
		}
	}
	return res, nil
}

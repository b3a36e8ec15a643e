package report

import (
	"fmt"
	"path/filepath"

	"closedcat/internal/stats"
)

// Labels of the marginal rows and column added to the contribution table.
const (
	RowSumLabel    = "Chi-square per row"
	ColSumLabel    = "Chi-square per column"
	StatisticLabel = "Chi-square Sum"
)

// ChiSquareReport pairs a labelled contingency table with its test results.
type ChiSquareReport struct {
	Prefix    string // e.g. "tag_language"
	Rows      []string
	Cols      []string
	Result    *stats.ChiSquareResult
	Residuals *stats.ResidualResult
}

// Contributions returns the per-cell contributions with a per-row sum
// column, a per-column sum row and a row repeating the statistic.
func (r *ChiSquareReport) Contributions() *Frame {
	res := r.Result
	f := &Frame{
		Index:   append(append([]string(nil), r.Rows...), ColSumLabel, StatisticLabel),
		Columns: append(append([]string(nil), r.Cols...), RowSumLabel),
	}
	total := 0.0
	for i, row := range res.Contributions {
		f.Values = append(f.Values, append(append([]float64(nil), row...), res.RowSums[i]))
		total += res.RowSums[i]
	}
	f.Values = append(f.Values, append(append([]float64(nil), res.ColSums...), total))

	stat := make([]float64, len(f.Columns))
	for i := range stat {
		stat[i] = res.Statistic
	}
	f.Values = append(f.Values, stat)
	return f
}

// ResidualCells formats residuals rounded to six places; significant cells
// are suffixed with " *".
func (r *ChiSquareReport) ResidualCells() [][]string {
	out := make([][]string, len(r.Residuals.Residuals))
	for i, row := range r.Residuals.Residuals {
		out[i] = make([]string, len(row))
		for j, v := range row {
			s := FormatFloat(Round(v, 6))
			if r.Residuals.Significant[i][j] {
				s += " *"
			}
			out[i][j] = s
		}
	}
	return out
}

// ChiSquareHeader explains the test parameters above the contribution table.
func (r *ChiSquareReport) ChiSquareHeader() string {
	return fmt.Sprintf("Results of Pearson’s Chi Squared Test. df = %d, α = %s, critical value = %.3f, test statistic = %.3f\n\n",
		r.Result.DoF, FormatFloat(r.Result.Alpha), r.Result.Critical, r.Result.Statistic)
}

// ResidualHeader explains the Bonferroni threshold above the residual table.
func (r *ChiSquareReport) ResidualHeader() string {
	res := r.Residuals
	return fmt.Sprintf("Adjusted Pearson’s Residuals Results. With Bonferroni Correction, a significant result is α = %.2f/%d = %.4f, which translates to a ± %.2f critical value.\n\n",
		res.Alpha, res.Cells, res.AdjustedAlpha, res.Critical)
}

// Markdown renders both tables with their explanatory headers.
func (r *ChiSquareReport) Markdown() string {
	contrib := r.Contributions()
	for i, row := range contrib.Values {
		for j, v := range row {
			contrib.Values[i][j] = Round(v, 6)
		}
	}
	caption := Caption(r.Prefix)
	return r.ChiSquareHeader() +
		contrib.Markdown("Chi-Square Contributions: "+caption, true) +
		"\n" +
		r.ResidualHeader() +
		MarkdownTable("Adjusted Pearson Residuals: "+caption, r.Cols, r.Rows, r.ResidualCells())
}

// ChiSquareFiles names the outputs of one chi-square report.
func ChiSquareFiles(dir, prefix string) (contrib, residuals, markdown string) {
	return filepath.Join(dir, "chi2_"+prefix+".csv"),
		filepath.Join(dir, "adjusted_residuals_"+prefix+".csv"),
		filepath.Join(dir, "markdown_"+prefix+".md")
}

// WriteChiSquare writes chi2_<prefix>.csv, adjusted_residuals_<prefix>.csv
// and markdown_<prefix>.md to dir and returns their paths.
func WriteChiSquare(dir string, r *ChiSquareReport) ([]string, error) {
	contribPath, residPath, mdPath := ChiSquareFiles(dir, r.Prefix)

	contrib := r.Contributions()
	if err := WriteIndexedCSV(contribPath, contrib.Columns, contrib.Index, contrib.Cells()); err != nil {
		return nil, err
	}
	if err := WriteIndexedCSV(residPath, r.Cols, r.Rows, r.ResidualCells()); err != nil {
		return nil, err
	}
	if err := WriteText(mdPath, r.Markdown()); err != nil {
		return nil, err
	}
	return []string{contribPath, residPath, mdPath}, nil
}

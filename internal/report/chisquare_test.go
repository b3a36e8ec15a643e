package report

import (
	"os"
	"path/filepath"
	"testing"

	"closedcat/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagonalReport(t *testing.T) *ChiSquareReport {
	t.Helper()
	observed := [][]float64{{10, 0}, {0, 10}}
	res, err := stats.ChiSquare(observed, stats.ChiSquareOptions{Alpha: 0.05})
	require.NoError(t, err)
	resid, err := stats.AdjustedResiduals(observed, 0.05)
	require.NoError(t, err)
	return &ChiSquareReport{
		Prefix:    "tag_toy",
		Rows:      []string{"CJ", "DT"},
		Cols:      []string{"C", "Java"},
		Result:    res,
		Residuals: resid,
	}
}

func TestChiSquareContributions(t *testing.T) {
	f := diagonalReport(t).Contributions()

	assert.Equal(t, []string{"CJ", "DT", ColSumLabel, StatisticLabel}, f.Index)
	assert.Equal(t, []string{"C", "Java", RowSumLabel}, f.Columns)
	assert.Equal(t, [][]float64{
		{5, 5, 10},
		{5, 5, 10},
		{10, 10, 20},
		{20, 20, 20},
	}, f.Values)
}

func TestChiSquareMarkdown(t *testing.T) {
	md := diagonalReport(t).Markdown()

	assert.Contains(t, md, "Results of Pearson’s Chi Squared Test. df = 1, α = 0.05, critical value = 3.841, test statistic = 20.000\n\n")
	assert.Contains(t, md, "### Chi-Square Contributions: Tag Toy\n\n")
	assert.Contains(t, md, "CJ | 5.000000 | 5.000000 | **10.000000**\n")
	assert.Contains(t, md, "Chi-square Sum | **20.000000** | **20.000000** | **20.000000**\n")
	assert.Contains(t, md, "a significant result is α = 0.05/4 = 0.0125, which translates to a ± 2.50 critical value.\n\n")
	assert.Contains(t, md, "### Adjusted Pearson Residuals: Tag Toy\n\n")
	assert.Contains(t, md, "CJ | 4.472136 * | -4.472136 *\n")
}

func TestWriteChiSquare(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteChiSquare(dir, diagonalReport(t))
	require.NoError(t, err)
	require.Len(t, paths, 3)

	contrib, resid, md := ChiSquareFiles(dir, "tag_toy")
	assert.Equal(t, []string{contrib, resid, md}, paths)
	assert.Equal(t, filepath.Join(dir, "chi2_tag_toy.csv"), contrib)

	data, err := os.ReadFile(contrib)
	require.NoError(t, err)
	assert.Equal(t, ",C,Java,Chi-square per row\n"+
		"CJ,5.0,5.0,10.0\n"+
		"DT,5.0,5.0,10.0\n"+
		"Chi-square per column,10.0,10.0,20.0\n"+
		"Chi-square Sum,20.0,20.0,20.0\n", string(data))

	data, err = os.ReadFile(resid)
	require.NoError(t, err)
	assert.Equal(t, ",C,Java\n"+
		"CJ,4.472136 *,-4.472136 *\n"+
		"DT,-4.472136 *,4.472136 *\n", string(data))

	assert.FileExists(t, md)
}

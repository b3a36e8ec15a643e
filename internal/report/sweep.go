package report

import (
	"path/filepath"
	"strconv"

	"closedcat/internal/usage"
)

// Sweep output file names.
const (
	GlobalSweepFile      = "threshold_mannwhitney_summary_fdr.csv"
	PerCategorySweepFile = "per_category_mannwhitney_summary_fdr.csv"
)

var globalSweepHeader = []string{
	"threshold", "domain_count", "general_count",
	"domain_mean", "general_mean", "domain_median", "general_median",
	"statistic", "p_value", "fdr_corrected_p", "neg_log10_p", "method",
}

var categorySweepHeader = []string{
	"threshold", "category", "domain_count", "general_count",
	"domain_mean", "general_mean", "domain_median", "general_median",
	"statistic", "p_value", "cliffs_delta", "low_sample_warning",
	"fdr_corrected_p", "neg_log10_p", "method", "cliffs_magnitude",
}

func titleBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// GlobalSweepRecords converts global comparisons into CSV records.
func GlobalSweepRecords(cs []usage.Comparison) [][]string {
	out := [][]string{globalSweepHeader}
	for _, c := range cs {
		out = append(out, []string{
			FormatFloat(c.Threshold),
			strconv.Itoa(c.DomainCount), strconv.Itoa(c.GeneralCount),
			FormatFloat(c.DomainMean), FormatFloat(c.GeneralMean),
			FormatFloat(c.DomainMedian), FormatFloat(c.GeneralMedian),
			FormatFloat(c.Statistic), FormatFloat(c.PValue),
			FormatFloat(c.FDR), FormatFloat(c.NegLog10P),
			c.Method,
		})
	}
	return out
}

// CategorySweepRecords converts per-category comparisons into CSV records.
func CategorySweepRecords(cs []usage.Comparison) [][]string {
	out := [][]string{categorySweepHeader}
	for _, c := range cs {
		out = append(out, []string{
			FormatFloat(c.Threshold), c.Category,
			strconv.Itoa(c.DomainCount), strconv.Itoa(c.GeneralCount),
			FormatFloat(c.DomainMean), FormatFloat(c.GeneralMean),
			FormatFloat(c.DomainMedian), FormatFloat(c.GeneralMedian),
			FormatFloat(c.Statistic), FormatFloat(c.PValue),
			FormatFloat(c.CliffsDelta), titleBool(c.LowSample),
			FormatFloat(c.FDR), FormatFloat(c.NegLog10P),
			c.Method, c.Magnitude,
		})
	}
	return out
}

// WriteSweep writes the global and per-category CSVs to dir, plus Parquet
// copies when parquet is set. It returns the written paths.
func WriteSweep(dir string, res *usage.Result, parquet bool) ([]string, error) {
	globalPath := filepath.Join(dir, GlobalSweepFile)
	categoryPath := filepath.Join(dir, PerCategorySweepFile)
	if err := WriteCSV(globalPath, GlobalSweepRecords(res.Global)); err != nil {
		return nil, err
	}
	if err := WriteCSV(categoryPath, CategorySweepRecords(res.PerCategory)); err != nil {
		return nil, err
	}
	paths := []string{globalPath, categoryPath}
	if !parquet {
		return paths, nil
	}

	all := append(append([]usage.Comparison(nil), res.Global...), res.PerCategory...)
	pq := filepath.Join(dir, "mannwhitney_summary_fdr.parquet")
	if err := WriteSweepParquet(pq, all); err != nil {
		return nil, err
	}
	return append(paths, pq), nil
}

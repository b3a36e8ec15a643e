package main

import (
	"errors"
	"fmt"

	"closedcat/internal/logging"
	"closedcat/internal/report"
	"closedcat/internal/stats"
	"closedcat/internal/store"
	"closedcat/internal/table"
	"closedcat/internal/tags"
	"closedcat/internal/tally"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	languageTablePath string
	contextTablePath  string
	stackedTablePath  string
)

// chiSquareCmd tests tag association with language and with context
var chiSquareCmd = &cobra.Command{
	Use:   "chisquare",
	Short: "Chi-square tests of closed-category tags by language and by context",
	Long: `Builds the tag x language and tag x context contingency tables, runs
Pearson's chi-square test on each and computes Bonferroni-corrected adjusted
residuals.

Tables are tallied from the full open-coding dataset (each identifier counts
once per category present in its grammar pattern) unless precomputed CSV
matrices are supplied, either one file per table or a single stacked file
with the language block first and the context block second.

Writes chi2_<table>.csv, adjusted_residuals_<table>.csv and
markdown_<table>.md for tag_language and tag_context.`,
	RunE: runChiSquare,
}

func init() {
	chiSquareCmd.Flags().StringVar(&languageTablePath, "language-table", "", "Precomputed tag x language matrix CSV")
	chiSquareCmd.Flags().StringVar(&contextTablePath, "context-table", "", "Precomputed tag x context matrix CSV")
	chiSquareCmd.Flags().StringVar(&stackedTablePath, "table", "", "Stacked CSV holding both precomputed matrices as blocks")
}

// contingency is a labelled table ready for testing.
type contingency struct {
	Prefix string
	Source string
	Rows   []string
	Cols   []string
	Values [][]float64
}

func runChiSquare(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	tables, err := contingencyTables()
	if err != nil {
		return err
	}

	summary := report.NewTable("Chi-square tests", "Table", "df", "Statistic", "Critical", "p-value", "Significant cells")
	for _, ct := range tables {
		var rep *report.ChiSquareReport
		err := track(ctx, "chisquare:"+ct.Prefix, []string{ct.Source}, func(run *store.Run) error {
			var err error
			rep, err = testContingency(ct)
			if err != nil {
				return err
			}
			run.SetResult(rep.Result.Statistic, rep.Result.PValue)
			run.Outputs, err = report.WriteChiSquare(cfg.Output.Dir, rep)
			return err
		})
		if errors.Is(err, stats.ErrDegenerateTable) {
			logging.StatsWarn("skipping %s: %v", ct.Prefix, err)
			continue
		}
		if err != nil {
			return err
		}

		logger.Info("chi-square test",
			zap.String("table", ct.Prefix),
			zap.Float64("statistic", rep.Result.Statistic),
			zap.Float64("p", rep.Result.PValue),
			zap.Int("df", rep.Result.DoF))
		summary.AddRow(ct.Prefix,
			fmt.Sprint(rep.Result.DoF),
			fmt.Sprintf("%.3f", rep.Result.Statistic),
			fmt.Sprintf("%.3f", rep.Result.Critical),
			fmt.Sprintf("%.3g", rep.Result.PValue),
			fmt.Sprint(countSignificant(rep.Residuals)))
		if render {
			if err := showMarkdown(cmd.OutOrStdout(), rep.Markdown()); err != nil {
				return err
			}
		}
	}
	return summary.Fprint(cmd.OutOrStdout(), consoleStyles())
}

// testContingency runs the chi-square test and residual analysis.
func testContingency(ct contingency) (*report.ChiSquareReport, error) {
	alpha := cfg.ChiSquare.Alpha
	res, err := stats.ChiSquare(ct.Values, stats.ChiSquareOptions{Alpha: alpha, Yates: cfg.ChiSquare.Yates})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ct.Prefix, err)
	}
	resid, err := stats.AdjustedResiduals(ct.Values, alpha)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ct.Prefix, err)
	}
	return &report.ChiSquareReport{
		Prefix:    ct.Prefix,
		Rows:      ct.Rows,
		Cols:      ct.Cols,
		Result:    res,
		Residuals: resid,
	}, nil
}

// matrixSource locates a precomputed table: a block of a matrix CSV.
type matrixSource struct {
	path  string
	block int
}

// matrixSourceFor prefers a per-table file over the stacked file. Flags win
// over configuration.
func matrixSourceFor(tablePath, configured string, block int) matrixSource {
	if p := firstNonEmpty(tablePath, cfg.DataPath(configured)); p != "" {
		return matrixSource{path: p}
	}
	if p := firstNonEmpty(stackedTablePath, cfg.DataPath(cfg.ChiSquare.Table)); p != "" {
		return matrixSource{path: p, block: block}
	}
	return matrixSource{}
}

// contingencyTables returns the tag_language and tag_context tables, read
// from matrix files when configured, tallied from the dataset otherwise.
func contingencyTables() ([]contingency, error) {
	langSrc := matrixSourceFor(languageTablePath, cfg.ChiSquare.LanguageTable, cfg.ChiSquare.LanguageBlock)
	ctxSrc := matrixSourceFor(contextTablePath, cfg.ChiSquare.ContextTable, cfg.ChiSquare.ContextBlock)

	var records []table.Record
	full := cfg.DataPath(cfg.Data.Full)
	if langSrc.path == "" || ctxSrc.path == "" {
		t, err := table.Load(full, table.TSV(table.ColLanguage, table.ColContext, table.ColPattern))
		if err != nil {
			return nil, err
		}
		records = t.Records
	}

	categories := make([]string, len(cfg.ChiSquare.Tags))
	for i, tag := range cfg.ChiSquare.Tags {
		c, ok := tags.Classify(tag)
		if !ok {
			return nil, fmt.Errorf("chisquare.tags: %q is not a closed-category tag", tag)
		}
		categories[i] = string(c)
	}

	build := func(prefix string, src matrixSource, column string, cols []string) (contingency, error) {
		if src.path != "" {
			m, err := table.ReadMatrixBlock(src.path, src.block)
			if err != nil {
				return contingency{}, err
			}
			return contingency{Prefix: prefix, Source: src.path, Rows: m.Rows, Cols: m.Cols, Values: m.Values}, nil
		}
		x := tally.CategoryBy(records, column)
		return contingency{
			Prefix: prefix,
			Source: full,
			Rows:   cfg.ChiSquare.Tags,
			Cols:   cols,
			Values: x.Matrix(categories, cols),
		}, nil
	}

	byLanguage, err := build("tag_language", langSrc, table.ColLanguage, cfg.ChiSquare.Languages)
	if err != nil {
		return nil, err
	}
	byContext, err := build("tag_context", ctxSrc, table.ColContext, cfg.ChiSquare.Contexts)
	if err != nil {
		return nil, err
	}
	return []contingency{byLanguage, byContext}, nil
}

func countSignificant(r *stats.ResidualResult) int {
	n := 0
	for _, row := range r.Significant {
		for _, sig := range row {
			if sig {
				n++
			}
		}
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

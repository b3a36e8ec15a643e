package main

import (
	"fmt"
	"strings"

	"closedcat/internal/report"
	"closedcat/internal/stats"
	"closedcat/internal/store"
	"closedcat/internal/usage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	sweepParquet     bool
	sweepAlternative string
)

// sweepCmd compares domain and general word usage across coverage thresholds
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mann-Whitney sweep of domain vs general word usage",
	Long: `Compares normalized per-system usage of words between the domain and
general corpora at every coverage threshold.

Outliers beyond mean ± k·sd are removed once, then for each threshold words
present in fewer than threshold × systems are dropped and counts are
log-scaled. Each threshold runs a global Mann-Whitney U test and one test per
closed category (with Cliff's delta). P-values are FDR-corrected separately
for the global and per-category families.`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepParquet, "parquet", false, "Also write the results as Parquet")
	sweepCmd.Flags().StringVar(&sweepAlternative, "alternative", "", "Alternative hypothesis: greater, less or two-sided")
}

func sweepOptions() (usage.Options, error) {
	alt, err := stats.ParseAlternative(firstNonEmpty(sweepAlternative, cfg.Sweep.Alternative))
	if err != nil {
		return usage.Options{}, err
	}
	return usage.Options{
		Thresholds:        cfg.Thresholds(),
		OutlierSD:         cfg.Sweep.OutlierSD,
		Categories:        cfg.Sweep.Categories,
		Alternative:       alt,
		LowSampleSize:     cfg.Sweep.LowSampleSize,
		ExcludeDigitWords: cfg.Sweep.ExcludeDigitWord,
	}, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	opts, err := sweepOptions()
	if err != nil {
		return err
	}
	domainPath := cfg.DataPath(cfg.Data.UsageDomain)
	generalPath := cfg.DataPath(cfg.Data.UsageGeneral)

	return track(ctx, "sweep", []string{domainPath, generalPath}, func(run *store.Run) error {
		domain, err := usage.Load(domainPath)
		if err != nil {
			return err
		}
		general, err := usage.Load(generalPath)
		if err != nil {
			return err
		}
		logger.Debug("usage rows loaded", zap.Int("domain", len(domain)), zap.Int("general", len(general)))

		res, err := usage.Sweep(ctx, domain, general, opts)
		if err != nil {
			return err
		}
		run.Outputs, err = report.WriteSweep(cfg.Output.Dir, res, sweepParquet || cfg.Output.Parquet)
		if err != nil {
			return err
		}
		run.Note = fmt.Sprintf("%d global, %d per-category comparisons, %d thresholds skipped",
			len(res.Global), len(res.PerCategory), len(res.Skipped))
		if len(res.Global) > 0 {
			first := res.Global[0]
			run.SetResult(first.Statistic, first.PValue)
		}
		return printSweep(cmd, res)
	})
}

func printSweep(cmd *cobra.Command, res *usage.Result) error {
	out := cmd.OutOrStdout()
	t := report.NewTable("Global comparisons", "Threshold", "Domain", "General", "U", "p", "FDR", "Method")
	for _, c := range res.Global {
		t.AddRow(fmt.Sprintf("%.1f", c.Threshold), fmt.Sprint(c.DomainCount), fmt.Sprint(c.GeneralCount),
			fmt.Sprintf("%.1f", c.Statistic), fmt.Sprintf("%.3g", c.PValue), fmt.Sprintf("%.3g", c.FDR), c.Method)
	}
	if err := t.Fprint(out, consoleStyles()); err != nil {
		return err
	}

	pc := report.NewTable("Per-category comparisons", "Threshold", "Category", "Domain", "General", "p", "FDR", "Cliff's delta", "Magnitude")
	for _, c := range res.PerCategory {
		n := fmt.Sprint(c.DomainCount)
		if c.LowSample {
			n += " (low)"
		}
		pc.AddRow(fmt.Sprintf("%.1f", c.Threshold), c.Category, n, fmt.Sprint(c.GeneralCount),
			fmt.Sprintf("%.3g", c.PValue), fmt.Sprintf("%.3g", c.FDR), fmt.Sprintf("%.3f", c.CliffsDelta), c.Magnitude)
	}
	if err := pc.Fprint(out, consoleStyles()); err != nil {
		return err
	}

	if len(res.Skipped) > 0 {
		skipped := make([]string, len(res.Skipped))
		for i, s := range res.Skipped {
			skipped[i] = fmt.Sprintf("%.1f", s)
		}
		_, err := fmt.Fprintf(out, "Skipped thresholds (empty after filtering): %s\n", strings.Join(skipped, ", "))
		return err
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"closedcat/internal/logging"
	"closedcat/internal/report"
	"closedcat/internal/store"
	"closedcat/internal/table"
	"closedcat/internal/tally"

	"github.com/spf13/cobra"
)

// categoryOrder is the order of the per-category reports.
var categoryOrder = []string{"Determiner", "Digit", "Preposition", "Conjunction"}

// summaryCmd prints the descriptive profile of the dataset
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Descriptive statistics of the full dataset and each category file",
	Long: `Prints language counts, PoS-tag totals and breakdowns by language and
context, top grammar patterns, identifier counts and top words per closed
category: first for the full open-coding dataset, then for each category's
annotation file.`,
	RunE: runSummary,
}

// patternsCmd is the grammar pattern sanity check
var patternsCmd = &cobra.Command{
	Use:   "patterns <file>",
	Short: "Count grammar patterns in one annotation file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatterns,
}

// languagesCmd counts identifiers per language in every category file
var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "Identifier counts per language for each category file",
	Long: `Counts identifiers per target language in each category annotation
file. Missing files are reported and counted as zero.`,
	RunE: runLanguages,
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	files := cfg.CategoryFiles()
	full := cfg.DataPath(cfg.Data.Full)
	paths := []string{full}
	for _, name := range categoryOrder {
		paths = append(paths, files[name])
	}

	return track(ctx, "summary", paths, func(run *store.Run) error {
		tables, err := table.LoadAll(ctx, paths, table.TSV())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if err := report.WriteString(out, "\n=== GLOBAL REPORT ==="); err != nil {
			return err
		}
		global := tally.Summarize("Global", tables[0].Records, cfg.Data.Languages, tally.Alignment(cfg.Data.Alignment))
		if err := report.WriteString(out, report.SummaryText(global, true)); err != nil {
			return err
		}

		if err := report.WriteString(out, "\n=== PER-CLOSED-CATEGORY REPORTS ===\n"); err != nil {
			return err
		}
		for i, name := range categoryOrder {
			s := tally.Summarize(name, tables[i+1].Records, cfg.Data.Languages, tally.Alignment(cfg.Data.Alignment))
			text := fmt.Sprintf("\n--- %s REPORT ---", strings.ToUpper(name)) + report.SummaryText(s, false)
			if err := report.WriteString(out, text); err != nil {
				return err
			}
		}
		run.Note = fmt.Sprintf("%d identifiers in the full dataset", global.Identifiers)
		return nil
	})
}

func runPatterns(cmd *cobra.Command, args []string) error {
	path := args[0]
	t, err := table.Load(path, table.TSV(table.ColPattern))
	if err != nil {
		return err
	}
	return report.WriteString(cmd.OutOrStdout(), report.PatternText(tally.PatternFrequencies(t.Records)))
}

func runLanguages(cmd *cobra.Command, args []string) error {
	files := cfg.CategoryFiles()
	order := []string{"Digit", "Conjunction", "Preposition", "Determiner"}

	counts := make(map[string]*tally.Counter, len(order))
	for _, name := range order {
		t, err := table.Load(files[name], table.TSV())
		if errors.Is(err, fs.ErrNotExist) {
			logging.Get(logging.CategoryLoader).Warn("file not found: %s", files[name])
			fmt.Fprintf(cmd.OutOrStdout(), "Warning: File not found: %s\n", files[name])
			continue
		}
		if err != nil {
			return err
		}
		counts[name] = tally.LanguageCounts(t.Records, cfg.Data.Languages)
	}
	return report.LanguageTable(order, counts, cfg.Data.Languages).Fprint(cmd.OutOrStdout(), consoleStyles())
}

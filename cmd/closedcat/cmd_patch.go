package main

import (
	"fmt"

	"closedcat/internal/report"
	"closedcat/internal/store"
	"closedcat/internal/table"
	"closedcat/internal/tally"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// patchCmd refreshes the selective-code Markdown summaries
var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Update selective-code Markdown summaries with current counts",
	Long: `For every configured target, tallies contexts, grammar patterns and
languages per axial code and rewrites the "**Grammar patterns:**" and
"**Language:**" lines of the matching "# <code> (N items)" sections.
Language shares are relative to the combined counts of all target files.
Each result is written to <name>_UPDATED.md in the output directory.`,
	RunE: runPatch,
}

func runPatch(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	targets := cfg.Patch.Targets
	if len(targets) == 0 {
		return fmt.Errorf("no patch targets configured")
	}

	dataPaths := make([]string, len(targets))
	inputs := make([]string, 0, 2*len(targets))
	for i, target := range targets {
		dataPaths[i] = cfg.DataPath(target.Data)
		inputs = append(inputs, dataPaths[i], cfg.DataPath(target.Markdown))
	}

	return track(ctx, "patch", inputs, func(run *store.Run) error {
		tables, err := table.LoadAll(ctx, dataPaths, table.TSV(table.ColLanguage, table.ColContext, table.ColPattern))
		if err != nil {
			return err
		}
		totals := tally.CombinedLanguageCounts(table.Concat(tables...))

		summary := report.NewTable("Patched summaries", "Target", "Codes", "Sections", "Output")
		for i, target := range targets {
			if err := tables[i].Require(target.KeyCols...); err != nil {
				return err
			}
			codes := tally.SummarizeCodes(tables[i].Records, tally.KeyColumns(target.KeyCols...))
			path, n, err := report.PatchFile(cfg.DataPath(target.Markdown), cfg.Output.Dir, target.Name, codes, totals)
			if err != nil {
				return err
			}
			run.Outputs = append(run.Outputs, path)
			logger.Info("patched summary", zap.String("target", target.Name), zap.Int("sections", n))
			summary.AddRowf(target.Name, len(codes.Keys()), n, path)
		}
		return summary.Fprint(cmd.OutOrStdout(), consoleStyles())
	})
}

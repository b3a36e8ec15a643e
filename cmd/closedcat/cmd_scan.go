package main

import (
	"fmt"
	"path/filepath"

	"closedcat/internal/report"
	"closedcat/internal/scan"
	"closedcat/internal/store"
	"closedcat/internal/tags"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scanCmd finds closed-category words in raw identifier dumps
var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Find closed-category identifiers in raw identifier dumps",
	Long: `Scans every file of <dir> as space-delimited identifier rows (name in
column 2, file path in column 6). Test code and repeated identifiers are
skipped. Identifiers whose split words include a conjunction, determiner,
preposition or digit are appended to the matching file of the results
directory, with per-file counts appended to "counts".`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	dir := args[0]
	resultsDir := cfg.Scan.ResultsDir

	return track(ctx, "scan", []string{dir}, func(run *store.Run) error {
		res, err := scan.Dir(ctx, dir)
		if err != nil {
			return err
		}
		if err := scan.WriteResults(resultsDir, res); err != nil {
			return err
		}
		run.Outputs = []string{resultsDir}
		run.Note = fmt.Sprintf("%d identifiers, %d unique, %d malformed", res.Identifiers, res.Unique, res.Malformed)
		logger.Info("scan complete",
			zap.String("dir", dir),
			zap.Int("files", len(res.Files)),
			zap.Int("unique", res.Unique))

		headers := []string{"File"}
		for _, c := range tags.All {
			headers = append(headers, string(c))
		}
		t := report.NewTable("Closed-category identifiers", headers...)
		for _, fc := range res.Files {
			row := []string{filepath.Base(fc.File)}
			for _, c := range tags.All {
				row = append(row, fmt.Sprint(fc.Counts[c]))
			}
			t.AddRow(row...)
		}
		if err := t.Fprint(cmd.OutOrStdout(), consoleStyles()); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", run.Note)
		return err
	})
}

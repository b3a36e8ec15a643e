package main

import (
	"fmt"
	"strings"
	"time"

	"closedcat/internal/report"
	"closedcat/internal/store"

	"github.com/spf13/cobra"
)

var runsLimit int

// runsCmd lists the run ledger
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded analysis runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of runs to show (0 for all)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	ledger, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer ledger.Close()

	runs, err := ledger.Recent(commandContext(cmd), runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return err
	}

	t := report.NewTable("Runs", "Started", "Analysis", "Status", "Duration", "Statistic", "p-value", "Outputs", "Note")
	for _, r := range runs {
		t.AddRow(
			r.StartedAt.Local().Format(time.DateTime),
			r.Analysis,
			r.Status,
			r.Duration().Round(time.Millisecond).String(),
			optionalFloat(r.Statistic, "%.3f"),
			optionalFloat(r.PValue, "%.3g"),
			fmt.Sprint(len(r.Outputs)),
			strings.TrimSpace(r.Note),
		)
	}
	return t.Fprint(cmd.OutOrStdout(), consoleStyles())
}

func optionalFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

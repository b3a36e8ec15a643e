package main

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"closedcat/internal/logging"
	"closedcat/internal/report"
	"closedcat/internal/stats"
	"closedcat/internal/store"
	"closedcat/internal/table"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// KappaFile is the agreement summary written by the kappa command.
const KappaFile = "fleiss_kappa.csv"

// kappaCmd measures inter-annotator agreement per category file
var kappaCmd = &cobra.Command{
	Use:   "kappa",
	Short: "Fleiss' kappa for the axial-code annotation files",
	Long: `Computes Fleiss' kappa for each closed-category annotation file.

The digit file is dual-axis: every annotator gives a role and a meaning,
combined into one "role::meaning" label. The other files are single-axis,
with one label column per annotator (columns containing "Axial Code").`,
	RunE: runKappa,
}

// kappaJob is one annotation file to score.
type kappaJob struct {
	Category string
	Path     string
	Dual     bool
}

// kappaResult is the agreement of one file.
type kappaResult struct {
	kappaJob
	Items   int
	Dropped int
	Labels  int
	Kappa   float64
}

func kappaJobs() []kappaJob {
	return []kappaJob{
		{Category: "Digit", Path: cfg.DataPath(cfg.Data.Digit), Dual: true},
		{Category: "Determiner", Path: cfg.DataPath(cfg.Data.Determiner)},
		{Category: "Preposition", Path: cfg.DataPath(cfg.Data.Preposition)},
		{Category: "Conjunction", Path: cfg.DataPath(cfg.Data.Conjunction)},
	}
}

func runKappa(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	jobs := kappaJobs()
	paths := make([]string, len(jobs))
	for i, j := range jobs {
		paths[i] = j.Path
	}

	return track(ctx, "kappa", paths, func(run *store.Run) error {
		tables, err := table.LoadAll(ctx, paths, table.TSV())
		if err != nil {
			return err
		}

		var results []kappaResult
		for i, job := range jobs {
			res, err := scoreAgreement(job, tables[i])
			if errors.Is(err, stats.ErrDegenerateTable) || errors.Is(err, stats.ErrUnevenRaters) {
				logging.StatsWarn("skipping %s: %v", job.Category, err)
				continue
			}
			if err != nil {
				return err
			}
			logger.Info("fleiss kappa",
				zap.String("category", job.Category),
				zap.Float64("kappa", res.Kappa),
				zap.Int("items", res.Items))
			results = append(results, res)
		}

		out := filepath.Join(cfg.Output.Dir, KappaFile)
		if err := report.WriteCSV(out, kappaRecords(results)); err != nil {
			return err
		}
		run.Outputs = []string{out}
		run.Note = fmt.Sprintf("%d of %d files scored", len(results), len(jobs))

		t := report.NewTable("Fleiss' kappa", "Category", "Axis", "Items", "Dropped", "Labels", "Kappa")
		for _, r := range results {
			t.AddRowf(r.Category, axisName(r.Dual), r.Items, r.Dropped, r.Labels, report.FormatFloat(r.Kappa))
		}
		return t.Fprint(cmd.OutOrStdout(), consoleStyles())
	})
}

// scoreAgreement builds the rating matrix of one file and computes kappa.
func scoreAgreement(job kappaJob, t *table.Table) (kappaResult, error) {
	var m *stats.RatingMatrix
	if job.Dual {
		pairs := stats.DualAxisPairs(cfg.Kappa.DualAxisAnnotators)
		for _, p := range pairs {
			if err := t.Require(p.Role, p.Meaning); err != nil {
				return kappaResult{}, err
			}
		}
		m = stats.CompositeMatrix(t.Records, pairs)
	} else {
		cols := t.ColumnsContaining(cfg.Kappa.AnnotatorMarker)
		if len(cols) < 2 {
			return kappaResult{}, fmt.Errorf("%s: %w: need at least 2 annotator columns containing %q, found %d",
				t.Path, stats.ErrDegenerateTable, cfg.Kappa.AnnotatorMarker, len(cols))
		}
		m = stats.SingleAxisMatrix(t.Records, cols)
	}

	res := kappaResult{kappaJob: job}
	if cfg.Kappa.DropIncomplete {
		m, res.Dropped = m.DropIncomplete()
		if res.Dropped > 0 {
			logging.StatsWarn("%s: dropped %d items with missing annotations", job.Category, res.Dropped)
		}
	}
	k, err := m.Kappa()
	if err != nil {
		return kappaResult{}, fmt.Errorf("%s: %w", job.Category, err)
	}
	res.Items = len(m.Counts)
	res.Labels = len(m.Labels)
	res.Kappa = k
	logging.Stats("%s: kappa=%.4f over %d items, %d labels", job.Category, k, res.Items, res.Labels)
	return res, nil
}

func kappaRecords(results []kappaResult) [][]string {
	records := [][]string{{"category", "axis", "items", "dropped", "labels", "kappa"}}
	for _, r := range results {
		k := ""
		if !math.IsNaN(r.Kappa) {
			k = report.FormatFloat(r.Kappa)
		}
		records = append(records, []string{
			r.Category, axisName(r.Dual), fmt.Sprint(r.Items), fmt.Sprint(r.Dropped), fmt.Sprint(r.Labels), k,
		})
	}
	return records
}

func axisName(dual bool) string {
	if dual {
		return "dual"
	}
	return "single"
}

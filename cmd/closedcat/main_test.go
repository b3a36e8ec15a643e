package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"closedcat/internal/config"
	"closedcat/internal/logging"
	"closedcat/internal/report"
	"closedcat/internal/store"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTest points the global configuration at a fresh temp workspace.
func setupTest(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	c := config.DefaultConfig()
	c.Data.Dir = filepath.Join(root, "data")
	c.Output.Dir = filepath.Join(root, "out")
	c.Store.Path = filepath.Join(root, "runs.db")
	c.Scan.ResultsDir = filepath.Join(root, "results")
	require.NoError(t, os.MkdirAll(c.Data.Dir, 0755))

	cfg = c
	logger = zap.NewNop()
	logging.UseLogger(zap.NewNop())
	render, alignment = false, ""
	languageTablePath, contextTablePath, stackedTablePath = "", "", ""
	sweepParquet, sweepAlternative = false, ""
	runsLimit = 20
	return root
}

func writeData(t *testing.T, name, content string) string {
	t.Helper()
	path := cfg.DataPath(name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	return cmd, &buf
}

func recentRuns(t *testing.T) []store.Run {
	t.Helper()
	ledger, err := store.Open(cfg.Store.Path)
	require.NoError(t, err)
	defer ledger.Close()
	runs, err := ledger.Recent(context.Background(), 0)
	require.NoError(t, err)
	return runs
}

const fullDataset = "language\tcontext\tgrammar pattern\tsplit\n" +
	"C++\tATTRIBUTE\tDT N\tthe value\n" +
	"Java\tFUNCTION\tV P N\tcopy to buffer\n" +
	"C\tPARAMETER\tCJ D N\tor 2 items\n" +
	"Java\tCLASS\tDT NM P N\tthe main of list\n"

func TestContingencyTablesFromRecords(t *testing.T) {
	setupTest(t)
	writeData(t, cfg.Data.Full, fullDataset)

	tables, err := contingencyTables()
	require.NoError(t, err)
	require.Len(t, tables, 2)

	lang := tables[0]
	assert.Equal(t, "tag_language", lang.Prefix)
	assert.Equal(t, []string{"CJ", "DT", "D", "P"}, lang.Rows)
	assert.Equal(t, []string{"C++", "Java", "C"}, lang.Cols)
	assert.Equal(t, [][]float64{{0, 0, 1}, {1, 1, 0}, {0, 0, 1}, {0, 2, 0}}, lang.Values)

	ctx := tables[1]
	assert.Equal(t, [][]float64{
		{0, 0, 1, 0, 0},
		{1, 0, 0, 0, 1},
		{0, 0, 1, 0, 0},
		{0, 0, 0, 1, 1},
	}, ctx.Values)
}

func TestChiSquareSkipsDegenerateTable(t *testing.T) {
	setupTest(t)
	writeData(t, cfg.Data.Full, fullDataset)

	cmd, out := testCommand()
	require.NoError(t, runChiSquare(cmd, nil))
	assert.Contains(t, out.String(), "tag_language")
	assert.NotContains(t, out.String(), "tag_context", "the DECLARATION column is empty")

	contrib, resid, md := report.ChiSquareFiles(cfg.Output.Dir, "tag_language")
	for _, p := range []string{contrib, resid, md} {
		assert.FileExists(t, p)
	}
	_, _, ctxMD := report.ChiSquareFiles(cfg.Output.Dir, "tag_context")
	assert.NoFileExists(t, ctxMD)

	status := map[string]string{}
	for _, r := range recentRuns(t) {
		status[r.Analysis] = r.Status
	}
	assert.Equal(t, store.StatusOK, status["chisquare:tag_language"])
	assert.Equal(t, store.StatusFailed, status["chisquare:tag_context"])
}

func TestChiSquareFromMatrices(t *testing.T) {
	setupTest(t)
	cfg.Store.Enabled = false
	matrix := ",A,B\nx,10,0\ny,0,10\n"
	languageTablePath = writeData(t, "lang.csv", matrix)
	contextTablePath = writeData(t, "ctx.csv", matrix)

	cmd, out := testCommand()
	require.NoError(t, runChiSquare(cmd, nil))
	assert.Contains(t, out.String(), "20.000")
	assert.Contains(t, out.String(), "3.841")

	_, _, md := report.ChiSquareFiles(cfg.Output.Dir, "tag_context")
	data, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(data), "df = 1")
	assert.NoFileExists(t, cfg.Store.Path)
}

func TestChiSquareFromStackedTable(t *testing.T) {
	setupTest(t)
	cfg.Store.Enabled = false
	cfg.ChiSquare.Table = "closed_category_language_context.csv"
	writeData(t, cfg.ChiSquare.Table,
		",C++,Java,C,,\n"+
			"CJ,12,30,4,,\n"+
			"DT,50,61,9,,\n"+
			"D,70,40,22,,\n"+
			"P,81,95,17,,\n"+
			",,,,,\n"+
			"Context,ATTRIBUTE,DECLARATION,PARAMETER,FUNCTION,CLASS\n"+
			"CJ,10,5,3,25,3\n"+
			"DT,20,15,10,60,15\n"+
			"D,40,30,12,40,10\n"+
			"P,30,35,20,90,18\n")

	tables, err := contingencyTables()
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, []string{"C++", "Java", "C"}, tables[0].Cols)
	assert.Equal(t, []string{"ATTRIBUTE", "DECLARATION", "PARAMETER", "FUNCTION", "CLASS"}, tables[1].Cols)
	assert.Equal(t, []float64{20, 15, 10, 60, 15}, tables[1].Values[1])

	cmd, out := testCommand()
	require.NoError(t, runChiSquare(cmd, nil))
	assert.Contains(t, out.String(), "tag_context")

	_, _, md := report.ChiSquareFiles(cfg.Output.Dir, "tag_context")
	data, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(data), "df = 12")
}

func TestChiSquarePerTableFileOverridesStacked(t *testing.T) {
	setupTest(t)
	stackedTablePath = writeData(t, "stacked.csv", ",A,B\nx,1,2\ny,3,4\n\nContext,C,D\nx,5,6\ny,7,8\n")
	contextTablePath = writeData(t, "ctx.csv", ",E,F\nx,10,0\ny,0,10\n")

	tables, err := contingencyTables()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tables[0].Cols)
	assert.Equal(t, []string{"E", "F"}, tables[1].Cols)
}

func TestChiSquareMissingDataset(t *testing.T) {
	setupTest(t)
	cmd, _ := testCommand()
	assert.Error(t, runChiSquare(cmd, nil))
}

func TestKappaCommand(t *testing.T) {
	setupTest(t)
	writeData(t, cfg.Data.Digit,
		"id\tChristian Axial Code Role\tChristian Axial Code Meaning\t"+
			"Syreen Axial Code Role\tSyreen Axial Code Meaning\t"+
			"Anthony Axial Code Role\tAnthony Axial Code Meaning\n"+
			"1\tIndex\tOrdinal\tIndex\tOrdinal\tIndex\tOrdinal\n"+
			"2\tVersion\tLabel\tVersion\tLabel\tVersion\tLabel\n")
	writeData(t, cfg.Data.Determiner,
		"id\tChristian Axial Code\tSyreen Axial Code\tAnthony Axial Code\n"+
			"1\tSpatial\tSpatial\tSpatial\n"+
			"2\tTemporal\tTemporal\tTemporal\n")
	writeData(t, cfg.Data.Preposition,
		"id\tChristian Axial Code\tSyreen Axial Code\tAnthony Axial Code\n"+
			"1\tA\tA\tB\n"+
			"2\tB\tB\tB\n"+
			"3\tA\tA\tA\n")
	writeData(t, cfg.Data.Conjunction,
		"id\tChristian Axial Code\tfinal_axial_code\n"+
			"1\tPair\tPair\n")

	cmd, out := testCommand()
	require.NoError(t, runKappa(cmd, nil))
	assert.Contains(t, out.String(), "Fleiss' kappa")

	data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, KappaFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4, "conjunction has a single annotator and is skipped")
	assert.Equal(t, "category,axis,items,dropped,labels,kappa", lines[0])
	assert.Equal(t, "Digit,dual,2,0,2,1.0", lines[1])
	assert.Equal(t, "Determiner,single,2,0,2,1.0", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "Preposition,single,3,0,2,"), lines[3])

	runs := recentRuns(t)
	require.Len(t, runs, 1)
	assert.Equal(t, "kappa", runs[0].Analysis)
	assert.Equal(t, "3 of 4 files scored", runs[0].Note)
}

func TestTopTermsCommand(t *testing.T) {
	setupTest(t)
	files := map[string]string{
		"DT": "split\tgrammar pattern\nget the value\tV DT N\nthe name\tDT N\n",
		"CJ": "split\tgrammar pattern\nread and write\tV CJ V\n",
		"D":  "split\tgrammar pattern\nbuffer 2\tN D\nbuffer size\tN D N\n",
		"P":  "split\tgrammar pattern\nsize of list\tN P N\n",
	}
	for tag, content := range files {
		writeData(t, cfg.Data.TagFiles[tag], content)
	}

	cmd, out := testCommand()
	require.NoError(t, runTopTerms(cmd, nil))
	md := out.String()
	assert.True(t, strings.HasPrefix(md, "| Rank | DT | CJ | D | P |"), md)
	assert.Contains(t, md, "| 1 | the (2, 100.00%) | and (1, 100.00%) | 2 (1, 100.00%) | of (1, 100.00%) |")
	assert.Contains(t, md, "| 2 | - | - | - | - |", "misaligned rows are skipped")

	written, err := os.ReadFile(filepath.Join(cfg.Output.Dir, TopTermsFile))
	require.NoError(t, err)
	assert.Equal(t, md, string(written))
}

func TestTopTermsTruncatesMisaligned(t *testing.T) {
	setupTest(t)
	cfg.Data.Alignment = "truncate"
	for _, tag := range cfg.TopTerms.Tags {
		writeData(t, cfg.Data.TagFiles[tag], "split\tgrammar pattern\nbuffer 2\tN D\nbuffer size\tN D N\n")
	}

	cmd, out := testCommand()
	require.NoError(t, runTopTerms(cmd, nil))
	assert.Contains(t, out.String(), "size (1, 50.00%)")
}

func TestTopTermsMissingTagFile(t *testing.T) {
	setupTest(t)
	delete(cfg.Data.TagFiles, "P")
	cmd, _ := testCommand()
	assert.ErrorContains(t, runTopTerms(cmd, nil), `data.tag_files has no file for tag "P"`)
}

func TestTopTermsRejectsOpenTag(t *testing.T) {
	setupTest(t)
	cfg.TopTerms.Tags = []string{"DT", "N"}
	cmd, _ := testCommand()
	assert.ErrorContains(t, runTopTerms(cmd, nil), `"N" is not a closed-category tag`)
}

func TestPatternsCommand(t *testing.T) {
	setupTest(t)
	path := writeData(t, "full.tsv", fullDataset+"Java\tFUNCTION\tDT N\tthe key\n")

	cmd, out := testCommand()
	require.NoError(t, runPatterns(cmd, []string{path}))
	assert.Equal(t, "Grammar Pattern Frequencies:\n"+
		"DT N: 2\n"+
		"V P N: 1\n"+
		"CJ D N: 1\n"+
		"DT NM P N: 1\n", out.String())
}

func TestLanguagesMissingFile(t *testing.T) {
	setupTest(t)
	writeData(t, cfg.Data.Digit, "language\tsplit\nJava\tbuffer 2\nC\tx 1\nJava\ty 3\n")

	cmd, out := testCommand()
	require.NoError(t, runLanguages(cmd, nil))
	text := out.String()
	assert.Contains(t, text, "Warning: File not found: "+cfg.DataPath(cfg.Data.Conjunction))
	assert.Contains(t, text, "TOTAL")
	assert.Contains(t, text, "Digit")
}

func TestSummaryCommand(t *testing.T) {
	setupTest(t)
	cfg.Store.Enabled = false
	writeData(t, cfg.Data.Full, fullDataset)
	for _, name := range []string{cfg.Data.Determiner, cfg.Data.Digit, cfg.Data.Preposition, cfg.Data.Conjunction} {
		writeData(t, name, fullDataset)
	}

	cmd, out := testCommand()
	require.NoError(t, runSummary(cmd, nil))
	text := out.String()
	assert.Contains(t, text, "=== GLOBAL REPORT ===")
	assert.Contains(t, text, "Global — Closed Category Breakdown by Context:")
	assert.Contains(t, text, "--- DIGIT REPORT ---")
	assert.NotContains(t, text, "Digit — Closed Category Breakdown by Context:")
}

const (
	domainUsage = "word,system,normalized_system_count,categories\n" +
		"the,s1,5,determiner\nthe,s2,6,determiner\nthe,s3,7,determiner\nthe,s4,8,determiner\n" +
		"of,s1,3,preposition\nof,s2,3,preposition\nand,s1,1,conjunction\n"
	generalUsage = "word,system,normalized_system_count,categories\n" +
		"the,g1,1,determiner\nthe,g2,1.5,determiner\n" +
		"of,g1,0.5,preposition\nof,g3,0.7,preposition\n2,g2,0.2,digit\n"
)

func TestSweepCommand(t *testing.T) {
	setupTest(t)
	cfg.Sweep.Step = 0.5
	sweepParquet = true
	writeData(t, cfg.Data.UsageDomain, domainUsage)
	writeData(t, cfg.Data.UsageGeneral, generalUsage)

	cmd, out := testCommand()
	require.NoError(t, runSweep(cmd, nil))
	text := out.String()
	assert.Contains(t, text, "Global comparisons")
	assert.Contains(t, text, "determiner")
	assert.Contains(t, text, "Skipped thresholds (empty after filtering): 1.0")

	for _, name := range []string{report.GlobalSweepFile, report.PerCategorySweepFile, "mannwhitney_summary_fdr.parquet"} {
		assert.FileExists(t, filepath.Join(cfg.Output.Dir, name))
	}

	runs := recentRuns(t)
	require.Len(t, runs, 1)
	assert.Equal(t, "2 global, 4 per-category comparisons, 1 thresholds skipped", runs[0].Note)
	assert.Len(t, runs[0].Outputs, 3)
	require.NotNil(t, runs[0].PValue)
}

func TestSweepRejectsAlternative(t *testing.T) {
	setupTest(t)
	sweepAlternative = "sideways"
	cmd, _ := testCommand()
	assert.Error(t, runSweep(cmd, nil))
}

func TestPatchCommand(t *testing.T) {
	setupTest(t)
	writeData(t, "prep.tsv", "language\tcontext\tgrammar pattern\tsplit\tfinal_axial_code\n"+
		"Java\tFUNCTION\tV DT N\tget The name\tDefinite\n"+
		"Java\tATTRIBUTE\tN P N\tsize of buffer\tSpatial\n"+
		"C++\tFUNCTION\tV P DT N\tcopy to the list\tSpatial\n")
	writeData(t, "prep.md", "# Preposition codes\n\n"+
		"## Spatial (2 items)\n"+
		"**Contexts:** old\n"+
		"**Grammar patterns:** old\n"+
		"**Language:** old\n")
	cfg.Patch.Targets = []config.PatchTarget{{
		Name:     "Preposition_Selective_Code_Summary",
		Data:     "prep.tsv",
		Markdown: "prep.md",
		KeyCols:  []string{"final_axial_code"},
	}}

	cmd, out := testCommand()
	require.NoError(t, runPatch(cmd, nil))
	assert.Contains(t, out.String(), "Preposition_Selective_Code_Summary")

	data, err := os.ReadFile(report.UpdatedPath(cfg.Output.Dir, "Preposition_Selective_Code_Summary"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "**Grammar patterns:** N P N (1), V P Dt N (1)\n")
	assert.Contains(t, string(data), "**Language:** JAVA (1, 50%), C++ (1, 100%)\n")
	assert.Contains(t, string(data), "**Contexts:** old\n")
}

func TestPatchMissingKeyColumn(t *testing.T) {
	setupTest(t)
	writeData(t, "prep.tsv", "language\tcontext\tgrammar pattern\nJava\tFUNCTION\tN P N\n")
	cfg.Patch.Targets = []config.PatchTarget{{Name: "p", Data: "prep.tsv", Markdown: "prep.md", KeyCols: []string{"final_axial_code"}}}

	cmd, _ := testCommand()
	assert.Error(t, runPatch(cmd, nil))
}

func TestScanCommand(t *testing.T) {
	root := setupTest(t)
	dumps := filepath.Join(root, "dumps")
	require.NoError(t, os.MkdirAll(dumps, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dumps, "a.txt"), []byte(
		"f getAllItems int 10 20 src/list.c\n"+
			"f forEach void 8 9 src/loop.c\n"+
			"f testHelper int 1 1 src/list.c\n"), 0644))

	cmd, out := testCommand()
	require.NoError(t, runScan(cmd, []string{dumps}))
	assert.Contains(t, out.String(), "3 identifiers, 2 unique, 0 malformed")
	assert.FileExists(t, filepath.Join(cfg.Scan.ResultsDir, "counts"))
}

func TestRunsCommand(t *testing.T) {
	setupTest(t)

	cmd, out := testCommand()
	require.NoError(t, runRuns(cmd, nil))
	assert.Contains(t, out.String(), "No runs recorded.")

	require.NoError(t, track(context.Background(), "kappa", nil, func(run *store.Run) error {
		run.SetResult(0.5, 0.01)
		return nil
	}))

	cmd, out = testCommand()
	require.NoError(t, runRuns(cmd, nil))
	assert.Contains(t, out.String(), "kappa")
	assert.Contains(t, out.String(), "0.500")
}

func TestTrackWithoutLedger(t *testing.T) {
	setupTest(t)
	cfg.Store.Enabled = false

	called := false
	require.NoError(t, track(context.Background(), "x", []string{"in"}, func(run *store.Run) error {
		called = true
		assert.Equal(t, "x", run.Analysis)
		return nil
	}))
	assert.True(t, called)
	assert.NoFileExists(t, cfg.Store.Path)
}

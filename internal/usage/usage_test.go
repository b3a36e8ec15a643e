package usage

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"closedcat/internal/stats"
	"closedcat/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func domainRows() []Row {
	return []Row{
		{"the", "s1", 5, "determiner"},
		{"the", "s2", 6, "determiner"},
		{"the", "s3", 7, "determiner"},
		{"the", "s4", 8, "determiner"},
		{"of", "s1", 3, "preposition"},
		{"of", "s2", 3, "preposition"},
		{"and", "s1", 1, "conjunction"},
	}
}

func generalRows() []Row {
	return []Row{
		{"the", "g1", 1, "determiner"},
		{"the", "g2", 1.5, "determiner"},
		{"of", "g1", 0.5, "preposition"},
		{"of", "g3", 0.7, "preposition"},
		{"2", "g2", 0.2, "digit"},
	}
}

func words(rows []Row) map[string]bool {
	out := make(map[string]bool)
	for _, r := range rows {
		out[r.Word] = true
	}
	return out
}

func TestFilterByCoverage(t *testing.T) {
	rows := domainRows()

	assert.Len(t, FilterByCoverage(rows, 0), len(rows))
	assert.Equal(t, map[string]bool{"the": true, "of": true}, words(FilterByCoverage(rows, 0.5)))
	assert.Equal(t, map[string]bool{"the": true}, words(FilterByCoverage(rows, 1)))
	assert.Empty(t, FilterByCoverage(nil, 0.5))
}

func TestFilterByCoverageMonotone(t *testing.T) {
	rows := append(domainRows(), generalRows()...)
	thresholds := DefaultOptions().Thresholds

	prev := words(FilterByCoverage(rows, thresholds[0]))
	for _, th := range thresholds[1:] {
		cur := words(FilterByCoverage(rows, th))
		for w := range cur {
			assert.True(t, prev[w], "word %q appeared when raising threshold to %.1f", w, th)
		}
		prev = cur
	}
}

func TestRemoveOutliers(t *testing.T) {
	var rows []Row
	for i := 0; i < 30; i++ {
		rows = append(rows, Row{Word: "w", System: "s", Count: 1})
	}
	rows = append(rows, Row{Word: "spike", System: "s", Count: 500})

	kept := RemoveOutliers(rows, 3)
	assert.Len(t, kept, 30)
	assert.False(t, words(kept)["spike"])
}

func TestLogScale(t *testing.T) {
	got := LogScale([]Row{{Count: 0}, {Count: 99.99999999}})
	assert.InDelta(t, -8.0, got[0], 1e-12)
	assert.InDelta(t, 2.0, got[1], 1e-9)
}

func TestExcludeDigitWords(t *testing.T) {
	kept := ExcludeDigitWords(generalRows())
	assert.Len(t, kept, 4)
	assert.False(t, words(kept)["2"])
}

func TestSweep(t *testing.T) {
	opts := DefaultOptions()
	opts.Thresholds = []float64{0, 0.5, 1}

	res, err := Sweep(context.Background(), domainRows(), generalRows(), opts)
	require.NoError(t, err)

	assert.Equal(t, []float64{1}, res.Skipped, "no general word covers every system")
	require.Len(t, res.Global, 2)
	assert.Equal(t, 0.0, res.Global[0].Threshold)
	assert.Equal(t, 7, res.Global[0].DomainCount)
	assert.Equal(t, 5, res.Global[0].GeneralCount)
	assert.Equal(t, 6, res.Global[1].DomainCount)
	assert.Equal(t, 4, res.Global[1].GeneralCount)

	require.Len(t, res.PerCategory, 4)
	var cats []string
	for _, c := range res.PerCategory {
		cats = append(cats, c.Category)
	}
	assert.Equal(t, []string{"preposition", "determiner", "preposition", "determiner"}, cats)

	det := res.PerCategory[1]
	assert.Equal(t, 4, det.DomainCount)
	assert.Equal(t, 2, det.GeneralCount)
	assert.Equal(t, stats.MethodExact, det.Method)
	assert.Equal(t, 8.0, det.Statistic)
	assert.InDelta(t, 1.0/15, det.PValue, 1e-12)
	assert.Equal(t, 1.0, det.CliffsDelta)
	assert.Equal(t, stats.Large, det.Magnitude)
	assert.True(t, det.LowSample)
	assert.InDelta(t, math.Log10(15), det.NegLog10P, 1e-9)

	for _, c := range append(res.Global, res.PerCategory...) {
		assert.GreaterOrEqual(t, c.FDR, c.PValue)
		assert.LessOrEqual(t, c.FDR, 1.0)
	}
}

func TestSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Sweep(ctx, domainRows(), generalRows(), DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "usage.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"word,system,normalized_system_count,categories\n"+
			"the,s1,0.25,determiner\n"+
			"of,s2,,preposition\n"+
			"for,s2,0.5,\"preposition,conjunction\"\n"), 0644))

	rows, err := Load(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"the", "s1", 0.25, "determiner"}, rows[0])
	assert.True(t, rows[1].HasCategory("conjunction"))

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("word,system,normalized_system_count\nthe,s1,lots\n"), 0644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, table.ErrNotNumeric)

	missing := filepath.Join(dir, "missing.csv")
	require.NoError(t, os.WriteFile(missing, []byte("word,count\nthe,1\n"), 0644))
	_, err = Load(missing)
	assert.ErrorIs(t, err, table.ErrMissingColumn)
}

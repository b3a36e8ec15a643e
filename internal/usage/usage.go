// Package usage compares how often closed-category words are used across
// software systems in two corpora (domain-specific versus general) and
// sweeps a system-coverage threshold over that comparison.
package usage

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"closedcat/internal/logging"
	"closedcat/internal/stats"
	"closedcat/internal/table"
	"closedcat/internal/tags"
)

// Columns of the word/system usage files.
const (
	ColWord       = "word"
	ColSystem     = "system"
	ColCount      = "normalized_system_count"
	ColCategories = "categories"
)

// Row is the usage of one word in one system.
type Row struct {
	Word       string
	System     string
	Count      float64 // normalized per-system count
	Categories string  // closed categories of the word, free text
}

// HasCategory reports whether the row's categories mention name.
func (r Row) HasCategory(name string) bool {
	return strings.Contains(r.Categories, name)
}

// Load reads a usage CSV. Rows with an empty count are dropped.
func Load(path string) ([]Row, error) {
	tbl, err := table.Load(path, table.CSV(ColWord, ColSystem, ColCount))
	if err != nil {
		return nil, err
	}
	return FromRecords(tbl.Records)
}

// FromRecords converts loaded records into rows.
func FromRecords(records []table.Record) ([]Row, error) {
	rows := make([]Row, 0, len(records))
	missing := 0
	for i, r := range records {
		raw := r.Get(ColCount)
		if raw == "" {
			missing++
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %s %q: %w", i+1, ColCount, raw, table.ErrNotNumeric)
		}
		rows = append(rows, Row{
			Word:       r.Get(ColWord),
			System:     r.Get(ColSystem),
			Count:      v,
			Categories: r.Get(ColCategories),
		})
	}
	if missing > 0 {
		logging.LoaderDebug("dropped %d usage rows without %s", missing, ColCount)
	}
	return rows, nil
}

// Counts returns the Count of every row.
func Counts(rows []Row) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Count
	}
	return out
}

// RemoveOutliers keeps rows whose count lies within mean ± k·sd.
func RemoveOutliers(rows []Row, k float64) []Row {
	keep := stats.OutlierMask(Counts(rows), k)
	out := make([]Row, 0, len(rows))
	for i, r := range rows {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out
}

// FilterByCoverage keeps rows of words that appear in at least
// threshold × (distinct systems) distinct systems.
func FilterByCoverage(rows []Row, threshold float64) []Row {
	systems := make(map[string]bool)
	wordSystems := make(map[string]map[string]bool)
	for _, r := range rows {
		systems[r.System] = true
		ws, ok := wordSystems[r.Word]
		if !ok {
			ws = make(map[string]bool)
			wordSystems[r.Word] = ws
		}
		ws[r.System] = true
	}

	need := float64(len(systems)) * threshold
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if float64(len(wordSystems[r.Word])) >= need {
			out = append(out, r)
		}
	}
	return out
}

// logFloor keeps zero counts finite under the log transform.
const logFloor = 1e-8

// LogScale returns log10(count + 1e-8) for every row.
func LogScale(rows []Row) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = math.Log10(r.Count + logFloor)
	}
	return out
}

// ExcludeDigitWords drops rows whose word is all digits.
func ExcludeDigitWords(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !tags.IsDigitWord(r.Word) {
			out = append(out, r)
		}
	}
	return out
}

package report

import (
	"fmt"
	"strconv"
	"strings"

	"closedcat/internal/tally"
)

// TopTerms holds the most frequent closed-category terms per tag.
type TopTerms struct {
	Tags   []string // column order
	Limit  int
	Terms  map[string][]tally.Entry
	Totals map[string]int
}

// NewTopTerms takes the Limit most common entries of every counter.
func NewTopTerms(tags []string, limit int, counters map[string]*tally.Counter) *TopTerms {
	t := &TopTerms{
		Tags:   tags,
		Limit:  limit,
		Terms:  make(map[string][]tally.Entry, len(tags)),
		Totals: make(map[string]int, len(tags)),
	}
	for _, tag := range tags {
		c, ok := counters[tag]
		if !ok {
			continue
		}
		t.Terms[tag] = c.MostCommon(limit)
		t.Totals[tag] = c.Total()
	}
	return t
}

// Cell formats rank i (0-based) of tag as "term (freq, pct%)", or "-".
func (t *TopTerms) Cell(tag string, i int) string {
	entries := t.Terms[tag]
	if i >= len(entries) {
		return "-"
	}
	e := entries[i]
	return fmt.Sprintf("%s (%d, %.2f%%)", e.Key, e.Count, tally.Percent(e.Count, t.Totals[tag]))
}

// Markdown renders the ranked table with one column per tag.
func (t *TopTerms) Markdown() string {
	lines := []string{
		"| Rank | " + strings.Join(t.Tags, " | ") + " |",
		"|------" + strings.Repeat("|------", len(t.Tags)) + "|",
	}
	for i := 0; i < t.Limit; i++ {
		row := []string{strconv.Itoa(i + 1)}
		for _, tag := range t.Tags {
			row = append(row, t.Cell(tag, i))
		}
		lines = append(lines, "| "+strings.Join(row, " | ")+" |")
	}
	return strings.Join(lines, "\n")
}

package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"closedcat/internal/tally"
)

// Limits of the ranked lists in a dataset summary.
const (
	summaryPatterns = 15
	summaryWords    = 10
)

// SummaryText renders a dataset summary. The per-context category breakdown
// is included only when contexts is true.
func SummaryText(s *tally.Summary, contexts bool) string {
	var b strings.Builder
	name := s.Name

	fmt.Fprintf(&b, "\n%s — Language Counts\n", name)
	for _, lang := range s.Languages {
		fmt.Fprintf(&b, "  %s: %d\n", lang, s.LanguageCounts.Get(lang))
	}

	fmt.Fprintf(&b, "\n%s — Totals\n", name)
	fmt.Fprintf(&b, "  Total PoS-tagged terms: %d\n", s.TotalTerms)
	b.WriteString("  Total identifiers with PoS tags per language:\n")
	for _, lang := range s.Languages {
		fmt.Fprintf(&b, "    %s: %d\n", lang, s.IdentifiersWithTags.Get(lang))
	}
	b.WriteString("  Total PoS-tagged terms per language:\n")
	for _, lang := range s.Languages {
		fmt.Fprintf(&b, "    %s: %d\n", lang, s.TermsPerLanguage.Get(lang))
	}

	fmt.Fprintf(&b, "\n%s — Per-PoS breakdown by language:\n", name)
	for _, lang := range s.Languages {
		total := s.TermsPerLanguage.Get(lang)
		fmt.Fprintf(&b, "  %s:\n", lang)
		if !s.PoSByLanguage.Has(lang) {
			continue
		}
		row := s.PoSByLanguage.Row(lang)
		for _, tag := range row.SortedKeys() {
			n := row.Get(tag)
			fmt.Fprintf(&b, "    %s: %d (%.2f%%) out of %d\n", tag, n, tally.Percent(n, total), total)
		}
	}

	fmt.Fprintf(&b, "\n%s — PoS totals across all languages:\n", name)
	for _, e := range s.PoSTotals.MostCommon(0) {
		fmt.Fprintf(&b, "  %s: %d (%.2f%%)\n", e.Key, e.Count, tally.Percent(e.Count, s.TotalTerms))
	}

	fmt.Fprintf(&b, "\n%s — PoS breakdown by context (all languages):\n", name)
	for _, ctx := range s.PoSByContext.SortedRowKeys() {
		total := s.TermsPerContext.Get(ctx)
		fmt.Fprintf(&b, "  Context: %s\n", ctx)
		for _, e := range s.PoSByContext.Row(ctx).MostCommon(0) {
			fmt.Fprintf(&b, "    %s: %d (%.2f%%) out of %d\n", e.Key, e.Count, tally.Percent(e.Count, total), total)
		}
	}

	fmt.Fprintf(&b, "\n%s — Identifier counts by context (all languages):\n", name)
	contextTotal := s.IdentifiersByContext.Total()
	for _, e := range s.IdentifiersByContext.MostCommon(0) {
		fmt.Fprintf(&b, "  %s: %d (%.2f%%)\n", e.Key, e.Count, tally.Percent(e.Count, contextTotal))
	}

	fmt.Fprintf(&b, "\n%s — Most common grammar patterns per closed-category:\n", name)
	for _, cat := range s.PatternsByCategory.SortedRowKeys() {
		row := s.PatternsByCategory.Row(cat)
		fmt.Fprintf(&b, "  %s:\n", cat)
		for _, e := range row.MostCommon(summaryPatterns) {
			fmt.Fprintf(&b, "    %s: %d (%.2f%%)\n", e.Key, e.Count, tally.Percent(e.Count, row.Total()))
		}
	}

	fmt.Fprintf(&b, "\n%s — Identifier Counts by Closed Category:\n", name)
	fmt.Fprintf(&b, "  Total identifiers: %d\n", s.Identifiers)
	for _, e := range s.IdentifiersByCategory.Entries() {
		fmt.Fprintf(&b, "  %s: %d (%.2f%%)\n", e.Key, e.Count, tally.Percent(e.Count, s.Identifiers))
	}

	if contexts {
		fmt.Fprintf(&b, "\n%s — Closed Category Breakdown by Context:\n", name)
		for _, cat := range s.CategoryByContext.SortedRowKeys() {
			catTotal := s.CategoryTotals.Get(cat)
			fmt.Fprintf(&b, "  %s:\n", cat)
			for _, e := range s.CategoryByContext.Row(cat).MostCommon(0) {
				ctxTotal := s.ContextTotals.Get(e.Key)
				fmt.Fprintf(&b, "    %s: %d (%.2f%% of context out of %d, %.2f%% of %s out of %d)\n",
					e.Key, e.Count, tally.Percent(e.Count, ctxTotal), ctxTotal,
					tally.Percent(e.Count, catTotal), cat, catTotal)
			}
		}
	}

	fmt.Fprintf(&b, "\n%s — Top Closed Category Words:\n", name)
	for _, cat := range s.WordsByCategory.SortedRowKeys() {
		row := s.WordsByCategory.Row(cat)
		fmt.Fprintf(&b, "  %s:\n", cat)
		for _, e := range row.MostCommon(summaryWords) {
			fmt.Fprintf(&b, "    %s: %d (%.2f%%)\n", e.Key, e.Count, tally.Percent(e.Count, row.Total()))
		}
	}
	return b.String()
}

// PatternText lists grammar patterns by descending frequency.
func PatternText(c *tally.Counter) string {
	var b strings.Builder
	b.WriteString("Grammar Pattern Frequencies:\n")
	for _, e := range c.MostCommon(0) {
		fmt.Fprintf(&b, "%s: %d\n", e.Key, e.Count)
	}
	return b.String()
}

// LanguageTable builds the per-file language count table with a TOTAL row.
// Files are listed in the given order; languages are sorted.
func LanguageTable(files []string, counts map[string]*tally.Counter, languages []string) *Table {
	langs := append([]string(nil), languages...)
	sort.Strings(langs)

	t := NewTable("Language counts", append([]string{"File"}, langs...)...)
	totals := tally.NewCounter()
	for _, f := range files {
		c, ok := counts[f]
		if !ok {
			c = tally.NewCounter()
		}
		totals.Update(c)
		row := []string{f}
		for _, l := range langs {
			row = append(row, fmt.Sprint(c.Get(l)))
		}
		t.AddRow(row...)
	}
	total := []string{"TOTAL"}
	for _, l := range langs {
		total = append(total, fmt.Sprint(totals.Get(l)))
	}
	t.AddRow(total...)
	return t
}

// WriteString writes s to w.
func WriteString(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}

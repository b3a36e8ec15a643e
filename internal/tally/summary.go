package tally

import (
	"sort"

	"closedcat/internal/table"
	"closedcat/internal/tags"
)

// Summary is the descriptive profile of one annotation file.
type Summary struct {
	Name      string
	Languages []string // target languages, sorted

	Identifiers    int      // all records
	LanguageCounts *Counter // records per target language

	// Grammar-pattern tags
	TotalTerms          int
	IdentifiersWithTags *Counter  // language -> records with a non-empty pattern
	TermsPerLanguage    *Counter  // language -> tags
	PoSByLanguage       *Crosstab // language -> tag -> count
	PoSTotals           *Counter  // tag -> count
	PoSByContext        *Crosstab // context -> tag -> count
	TermsPerContext     *Counter  // context -> tags

	IdentifiersByContext *Counter // non-empty context -> records

	// Closed categories
	PatternsByCategory    *Crosstab // category -> grammar pattern -> records
	IdentifiersByCategory *Counter  // category -> records
	CategoryByContext     *Crosstab // category -> context -> records
	ContextTotals         *Counter  // context -> (record, category) pairs
	CategoryTotals        *Counter  // category -> records
	WordsByCategory       *Crosstab // category -> lower-cased word -> count
}

// Summarize builds a Summary in one pass over records. align applies to the
// word counts per category.
func Summarize(name string, records []table.Record, languages []string, align Alignment) *Summary {
	langs := append([]string(nil), languages...)
	sort.Strings(langs)

	s := &Summary{
		Name:                  name,
		Languages:             langs,
		Identifiers:           len(records),
		LanguageCounts:        LanguageCounts(records, langs),
		IdentifiersWithTags:   NewCounter(),
		TermsPerLanguage:      NewCounter(),
		PoSByLanguage:         NewCrosstab(),
		PoSTotals:             NewCounter(),
		PoSByContext:          NewCrosstab(),
		TermsPerContext:       NewCounter(),
		IdentifiersByContext:  NewCounter(),
		PatternsByCategory:    NewCrosstab(),
		IdentifiersByCategory: NewCounter(),
		CategoryByContext:     NewCrosstab(),
		ContextTotals:         NewCounter(),
		CategoryTotals:        NewCounter(),
		WordsByCategory:       WordsByCategory(records, true, align),
	}

	for _, r := range records {
		lang := r.Get(table.ColLanguage)
		ctx := r.Get(table.ColContext)
		pattern := r.Fields(table.ColPattern)

		if ctx != "" {
			s.IdentifiersByContext.Inc(ctx)
		}
		for _, tag := range pattern {
			s.PoSByContext.Inc(ctx, tag)
			s.TermsPerContext.Inc(ctx)
		}
		if len(pattern) == 0 {
			continue
		}

		s.IdentifiersWithTags.Inc(lang)
		for _, tag := range pattern {
			s.TermsPerLanguage.Inc(lang)
			s.PoSByLanguage.Inc(lang, tag)
			s.PoSTotals.Inc(tag)
			s.TotalTerms++
		}

		joined := r.Get(table.ColPattern)
		for _, c := range tags.CategoriesIn(pattern) {
			cat := string(c)
			s.PatternsByCategory.Inc(cat, joined)
			s.IdentifiersByCategory.Inc(cat)
			s.CategoryByContext.Inc(cat, ctx)
			s.ContextTotals.Inc(ctx)
			s.CategoryTotals.Inc(cat)
		}
	}
	return s
}

// Percent returns part/whole*100, or 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

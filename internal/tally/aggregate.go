package tally

import (
	"strings"

	"closedcat/internal/logging"
	"closedcat/internal/table"
	"closedcat/internal/tags"
)

// CategoryBy counts, for every record, each distinct closed category in its
// grammar pattern once against the record's value of column.
// Rows are category names, columns are column values.
func CategoryBy(records []table.Record, column string) *Crosstab {
	x := NewCrosstab()
	for _, r := range records {
		value := r.Get(column)
		for _, c := range tags.CategoriesIn(r.Fields(table.ColPattern)) {
			x.Inc(string(c), value)
		}
	}
	return x
}

// Alignment decides how split words pair with grammar-pattern tags when a
// row has a different number of each.
type Alignment string

const (
	// AlignStrict skips the row.
	AlignStrict Alignment = "strict"
	// AlignTruncate pairs by position up to the shorter of the two.
	AlignTruncate Alignment = "truncate"
)

// WordsByCategory pairs split words with grammar-pattern tags by position and
// counts closed-category words per category. Rows whose word and tag counts
// differ are handled according to align.
func WordsByCategory(records []table.Record, lower bool, align Alignment) *Crosstab {
	x := NewCrosstab()
	skipped := 0
	for _, r := range records {
		words, pattern, ok := aligned(r, align)
		if !ok {
			skipped++
			continue
		}
		for i, tag := range pattern {
			c, ok := tags.Classify(tag)
			if !ok {
				continue
			}
			w := words[i]
			if lower {
				w = strings.ToLower(w)
			}
			x.Inc(string(c), w)
		}
	}
	if skipped > 0 {
		logging.AggregateDebug("skipped %d rows with mismatched split/pattern lengths", skipped)
	}
	return x
}

// TermsForTags counts the words tagged with any of wanted, pairing words and
// tags as WordsByCategory does.
func TermsForTags(records []table.Record, align Alignment, wanted ...string) *Counter {
	set := make(map[string]bool, len(wanted))
	for _, t := range wanted {
		set[t] = true
	}
	c := NewCounter()
	for _, r := range records {
		words, pattern, ok := aligned(r, align)
		if !ok {
			continue
		}
		for i, tag := range pattern {
			if set[tag] {
				c.Inc(words[i])
			}
		}
	}
	return c
}

func aligned(r table.Record, align Alignment) (words, pattern []string, ok bool) {
	words = r.Fields(table.ColSplit)
	pattern = r.Fields(table.ColPattern)
	if len(words) == len(pattern) {
		return words, pattern, true
	}
	if align != AlignTruncate {
		return nil, nil, false
	}
	n := min(len(words), len(pattern))
	return words[:n], pattern[:n], true
}

// PatternFrequencies counts whole grammar patterns; empty patterns are ignored.
func PatternFrequencies(records []table.Record) *Counter {
	c := NewCounter()
	for _, r := range records {
		if p := r.Get(table.ColPattern); p != "" {
			c.Inc(p)
		}
	}
	return c
}

// LanguageCounts counts records whose language is one of languages.
// Every language is present in the result, possibly with zero.
func LanguageCounts(records []table.Record, languages []string) *Counter {
	c := NewCounter()
	valid := make(map[string]bool, len(languages))
	for _, l := range languages {
		valid[l] = true
		c.Add(l, 0)
	}
	for _, r := range records {
		if l := r.Get(table.ColLanguage); valid[l] {
			c.Inc(l)
		}
	}
	return c
}

// CombinedLanguageCounts counts upper-cased languages across record sets.
func CombinedLanguageCounts(sets ...[]table.Record) *Counter {
	c := NewCounter()
	for _, records := range sets {
		for _, r := range records {
			if l := r.Get(table.ColLanguage); l != "" {
				c.Inc(strings.ToUpper(l))
			}
		}
	}
	return c
}

// CodeSummary holds the tallies of one axial code.
type CodeSummary struct {
	Contexts  *Counter
	Patterns  *Counter
	Languages *Counter
}

// CodeSummaries groups records by code key.
type CodeSummaries struct {
	byKey map[string]*CodeSummary
	order []string
}

// Get returns the summary of key.
func (s *CodeSummaries) Get(key string) (*CodeSummary, bool) {
	cs, ok := s.byKey[key]
	return cs, ok
}

// Keys returns code keys in first-seen order.
func (s *CodeSummaries) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// KeyColumns builds a code key from columns joined with " x ".
func KeyColumns(cols ...string) func(table.Record) string {
	return func(r table.Record) string {
		parts := make([]string, len(cols))
		for i, c := range cols {
			parts[i] = r.Get(c)
		}
		return strings.Join(parts, " x ")
	}
}

// SummarizeCodes tallies contexts, grammar patterns and languages per code key.
func SummarizeCodes(records []table.Record, key func(table.Record) string) *CodeSummaries {
	s := &CodeSummaries{byKey: make(map[string]*CodeSummary)}
	for _, r := range records {
		k := key(r)
		cs, ok := s.byKey[k]
		if !ok {
			cs = &CodeSummary{Contexts: NewCounter(), Patterns: NewCounter(), Languages: NewCounter()}
			s.byKey[k] = cs
			s.order = append(s.order, k)
		}
		cs.Contexts.Inc(r.Get(table.ColContext))
		cs.Patterns.Inc(r.Get(table.ColPattern))
		cs.Languages.Inc(r.Get(table.ColLanguage))
	}
	return s
}

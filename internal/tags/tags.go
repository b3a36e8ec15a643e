// Package tags maps grammar-pattern tags to closed-category parts of speech.
package tags

import (
	"strings"
)

// Category is a closed-category part of speech.
type Category string

const (
	Determiner  Category = "Determiner"
	Digit       Category = "Digit"
	Preposition Category = "Preposition"
	Conjunction Category = "Conjunction"
)

// All lists the closed categories in report order.
var All = []Category{Determiner, Digit, Preposition, Conjunction}

// tagToCategory is the fixed tag lookup. Never mutated.
var tagToCategory = map[string]Category{
	"DT": Determiner,
	"D":  Digit,
	"P":  Preposition,
	"CJ": Conjunction,
}

// Classify maps a grammar-pattern token to its closed category.
// Tokens outside the closed vocabulary return false.
func Classify(tag string) (Category, bool) {
	c, ok := tagToCategory[tag]
	return c, ok
}

// IsClosed reports whether tag names a closed category.
func IsClosed(tag string) bool {
	_, ok := tagToCategory[tag]
	return ok
}

// CategoriesIn returns the distinct categories present in a grammar pattern,
// in order of first appearance.
func CategoriesIn(pattern []string) []Category {
	var out []Category
	seen := make(map[Category]bool, len(tagToCategory))
	for _, tag := range pattern {
		c, ok := tagToCategory[tag]
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// ParseCategory accepts a tag ("DT") or a category name in any case ("determiner").
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if c, ok := tagToCategory[strings.ToUpper(s)]; ok {
		return c, true
	}
	for _, c := range All {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

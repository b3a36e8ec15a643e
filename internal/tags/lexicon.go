package tags

import (
	"strings"
	"unicode"
)

// Word lists used when scanning raw identifiers for closed-category words.
// Multi-word entries are kept; they can only match when the caller joins
// adjacent split words.
var (
	// https://7esl.com/conjunctions-list/
	conjunctions = wordSet(
		"for", "and", "nor", "but", "or", "yet", "so", "although", "after", "before", "because", "how",
		"if", "once", "since", "until", "unless", "when", "as", "that", "though", "till", "while", "where",
		"as if", "as long as", "as much as", "as soon as", "as far as", "as though", "by the time",
		"in as much as", "in as much", "in order to", "in order that", "in case", "lest", "now that", "now since",
		"now when", "now", "even if", "even", "even though", "provided", "provided that", "else", "if then", "if when", "if only",
		"just as", "wherever", "whereas", "where if", "whether", "whose", "whoever",
		"why", "so that", "than", "whenever", "supposing",
		"or not", "what", "also", "otherwise", "neither nor", "not only but also", "whether or",
		"such that", "as well as", "still", "too", "only", "however", "no less than",
		"which", "who", "either or", "nevertheless", "no sooner than",
	)

	// https://en.wikipedia.org/wiki/List_of_English_determiners, numerals removed
	determiners = wordSet(
		"a", "a few", "a little", "all", "an", "another", "any", "anybody", "anyone", "anything", "anywhere", "both", "certain", "each",
		"either", "enough", "every", "everybody", "everyone", "everything", "everywhere", "few", "fewer", "fewest", "last", "least", "less",
		"little", "many", "many a", "more", "most", "much", "neither", "next", "no", "no one", "nobody", "none", "nothing", "nowhere", "once",
		"said", "several", "some", "somebody", "something", "somewhere", "sufficient", "that", "the", "these", "this", "those", "us",
		"various", "we", "what", "whatever", "which", "whichever", "you",
	)

	prepositions = wordSet(
		"aboard", "about", "above", "across", "after", "against", "along", "amid", "among", "anti", "around", "as", "at", "before", "behind",
		"below", "beneath", "beside", "besides", "between", "beyond", "but", "by", "concerning", "considering", "despite", "down", "during",
		"except", "excepting", "excluding", "following", "for", "from", "in", "inside", "into", "like", "minus", "near", "of", "off", "on",
		"onto", "opposite", "outside", "over", "past", "per", "plus", "regarding", "round", "save", "since", "than", "through", "to", "toward",
		"towards", "under", "underneath", "unlike", "until", "up", "upon", "versus", "via", "with", "within", "without", "out", "till",
	)
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsConjunction reports whether word is in the conjunction list.
func IsConjunction(word string) bool {
	_, ok := conjunctions[strings.ToLower(word)]
	return ok
}

// IsDeterminer reports whether word is in the determiner list.
func IsDeterminer(word string) bool {
	_, ok := determiners[strings.ToLower(word)]
	return ok
}

// IsPreposition reports whether word is in the preposition list.
func IsPreposition(word string) bool {
	_, ok := prepositions[strings.ToLower(word)]
	return ok
}

// IsDigitWord reports whether word is a non-empty run of decimal digits.
func IsDigitWord(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// LexicalCategories returns every closed category any of words belongs to,
// in the order of All.
func LexicalCategories(words []string) []Category {
	var has [4]bool
	for _, w := range words {
		has[0] = has[0] || IsDeterminer(w)
		has[1] = has[1] || IsDigitWord(w)
		has[2] = has[2] || IsPreposition(w)
		has[3] = has[3] || IsConjunction(w)
	}
	var out []Category
	for i, c := range All {
		if has[i] {
			out = append(out, c)
		}
	}
	return out
}

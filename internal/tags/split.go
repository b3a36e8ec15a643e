package tags

import (
	"unicode"
)

// SplitIdentifier splits a source-code identifier into words. Boundaries are
// non-alphanumeric runes, lower-to-upper case changes ("getName"), the end
// of an acronym ("HTTPServer" -> "HTTP", "Server") and letter/digit changes
// ("utf8" -> "utf", "8"). Case is preserved.
func SplitIdentifier(name string) []string {
	runes := []rune(name)
	var words []string
	start := -1

	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsDigit(r) != unicode.IsDigit(prev):
			flush(i)
			start = i
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush(i)
			start = i
		case unicode.IsUpper(prev) && unicode.IsUpper(r) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}

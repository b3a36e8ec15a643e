// Package scan searches raw identifier dumps for words from the
// closed-category lexicons.
//
// A dump is a space-delimited file with one identifier per line; the second
// field is the identifier and the sixth the path of the file declaring it.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"closedcat/internal/logging"
	"closedcat/internal/table"
	"closedcat/internal/tags"
)

const (
	fieldName = 1
	fieldPath = 5
)

// testWord matches a word that names a test (test, tests, unittest, test_util).
var testWord = regexp.MustCompile(`\b[a-z_]*test[a-z_]*\b`)

// FileCounts holds the number of identifiers per category found in one file.
type FileCounts struct {
	File   string
	Counts map[tags.Category]int
}

// Result is the outcome of a directory scan.
type Result struct {
	Identifiers int // lines read
	Unique      int // distinct identifiers, case-insensitive
	Malformed   int // lines with fewer than six fields
	Files       []FileCounts
	Rows        map[tags.Category][]string // matching lines, comma-joined, split appended
}

// Dir scans every regular file of dir in name order. Identifiers that look
// like test code, and identifiers already seen in any file, are skipped.
func Dir(ctx context.Context, dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	res := &Result{Rows: make(map[tags.Category][]string)}
	seen := make(map[string]bool)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		rows, err := table.ReadSpaceDelimited(path)
		if err != nil {
			return nil, err
		}
		fc := scanRows(rows, seen, res)
		fc.File = path
		res.Files = append(res.Files, fc)
		logging.Loader("scanned %s: %d rows", path, len(rows))
		logging.ClassifyDebug("%s: %v", path, fc.Counts)
	}
	res.Unique = len(seen)
	return res, nil
}

func scanRows(rows [][]string, seen map[string]bool, res *Result) FileCounts {
	fc := FileCounts{Counts: make(map[tags.Category]int)}
	for _, row := range rows {
		res.Identifiers++
		if len(row) <= fieldPath {
			res.Malformed++
			continue
		}
		name := row[fieldName]
		words := tags.SplitIdentifier(name)
		key := strings.ToLower(name)
		if seen[key] || looksLikeTest(strings.Split(row[fieldPath], "/")) || looksLikeTest(words) {
			continue
		}

		line := strings.Join(append(append([]string(nil), row...), strings.Join(words, " ")), ",")
		for _, c := range tags.LexicalCategories(words) {
			fc.Counts[c]++
			res.Rows[c] = append(res.Rows[c], line)
		}
		seen[key] = true
	}
	return fc
}

func looksLikeTest(parts []string) bool {
	for _, p := range parts {
		if testWord.MatchString(strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// resultFiles names the per-category output files.
var resultFiles = map[tags.Category]string{
	tags.Conjunction: "conjunctions",
	tags.Determiner:  "determiners",
	tags.Digit:       "digits",
	tags.Preposition: "prepositions",
}

// WriteResults appends the matching rows to one file per category and the
// per-file counts to "counts" in dir.
func WriteResults(dir string, res *Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, c := range tags.All {
		if err := appendLines(filepath.Join(dir, resultFiles[c]), res.Rows[c]); err != nil {
			return err
		}
	}

	var counts []string
	for _, fc := range res.Files {
		counts = append(counts, fmt.Sprintf(
			"%s: determiners=%d conjunctions=%d digits=%d prepositions=%d",
			fc.File, fc.Counts[tags.Determiner], fc.Counts[tags.Conjunction], fc.Counts[tags.Digit], fc.Counts[tags.Preposition]))
	}
	counts = append(counts, fmt.Sprintf("identifiers=%d unique=%d malformed=%d", res.Identifiers, res.Unique, res.Malformed))
	return appendLines(filepath.Join(dir, "counts"), counts)
}

func appendLines(path string, lines []string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(f, l); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return f.Close()
}

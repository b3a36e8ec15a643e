package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"closedcat/internal/logging"
	"closedcat/internal/tally"
)

var (
	sectionHeader = regexp.MustCompile(`(?m)^#+\s(.+?)\s\((\d+) items\)`)
	grammarLine   = regexp.MustCompile(`\*\*Grammar patterns:\*\*.*?\n`)
	languageLine  = regexp.MustCompile(`\*\*Language:\*\*.*?\n`)
)

// SummaryBlock is the three summary lines written under an axial code.
type SummaryBlock struct {
	Contexts string
	Grammar  string
	Language string
}

// FormatSummary renders the summary lines of one code. Languages are shown
// with their share of the combined per-language totals when known.
func FormatSummary(cs *tally.CodeSummary, languageTotals *tally.Counter) SummaryBlock {
	return SummaryBlock{
		Contexts: formatCounter("Contexts", cs.Contexts),
		Grammar:  formatCounter("Grammar patterns", cs.Patterns),
		Language: formatLanguages(cs.Languages, languageTotals),
	}
}

func formatCounter(label string, c *tally.Counter) string {
	parts := make([]string, 0, c.Len())
	for _, e := range c.Entries() {
		parts = append(parts, fmt.Sprintf("%s (%d)", TitleCase(e.Key), e.Count))
	}
	return fmt.Sprintf("**%s:** %s", label, strings.Join(parts, ", "))
}

func formatLanguages(c *tally.Counter, totals *tally.Counter) string {
	parts := make([]string, 0, c.Len())
	for _, e := range c.Entries() {
		lang := strings.ToUpper(e.Key)
		total := 0
		if totals != nil {
			total = totals.Get(lang)
		}
		if total > 0 {
			// two-decimal share, halves to even
			share := math.RoundToEven(float64(e.Count)/float64(total)*100) / 100
			parts = append(parts, fmt.Sprintf("%s (%d, %.0f%%)", lang, e.Count, share*100))
		} else {
			parts = append(parts, fmt.Sprintf("%s (%d)", lang, e.Count))
		}
	}
	return "**Language:** " + strings.Join(parts, ", ")
}

// Patch replaces the "**Grammar patterns:**" and "**Language:**" lines of
// every section whose "# Title (N items)" header names a known code. A
// section runs to the next header. It returns the patched text and the
// number of sections touched.
func Patch(md string, codes *tally.CodeSummaries, languageTotals *tally.Counter) (string, int) {
	matches := sectionHeader.FindAllStringSubmatchIndex(md, -1)
	if len(matches) == 0 {
		return md, 0
	}

	var b strings.Builder
	b.WriteString(md[:matches[0][0]])
	patched := 0
	for i, m := range matches {
		headerEnd := m[1]
		sectionEnd := len(md)
		if i+1 < len(matches) {
			sectionEnd = matches[i+1][0]
		}
		title := strings.TrimSpace(md[m[2]:m[3]])
		section := md[headerEnd:sectionEnd]

		if cs, ok := codes.Get(title); ok {
			block := FormatSummary(cs, languageTotals)
			section = grammarLine.ReplaceAllLiteralString(section, block.Grammar+"\n")
			section = languageLine.ReplaceAllLiteralString(section, block.Language+"\n")
			patched++
		} else {
			logging.ReportDebug("no annotations for section %q", title)
		}

		b.WriteString(md[m[0]:headerEnd])
		b.WriteString(section)
	}
	return b.String(), patched
}

// UpdatedPath returns <dir>/<name>_UPDATED.md.
func UpdatedPath(dir, name string) string {
	return filepath.Join(dir, name+"_UPDATED.md")
}

// PatchFile patches the Markdown at src and writes <name>_UPDATED.md to dir.
func PatchFile(src, dir, name string, codes *tally.CodeSummaries, languageTotals *tally.Counter) (string, int, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", src, err)
	}
	out, n := Patch(string(data), codes, languageTotals)
	path := UpdatedPath(dir, name)
	if err := WriteText(path, out); err != nil {
		return "", 0, err
	}
	logging.Report("patched %d sections of %s into %s", n, src, path)
	return path, n, nil
}

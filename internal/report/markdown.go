// Package report renders analysis results as CSV, Markdown, Parquet and
// console text, and patches existing Markdown summaries with fresh counts.
package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"closedcat/internal/logging"
)

// FormatFloat renders v with the shortest round-trip
// digits, always with a decimal point, exponent form outside [1e-4, 1e16).
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}
	if a := math.Abs(v); a < 1e-4 || a >= 1e16 {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Round rounds v to places decimal places.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func fixed6(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// TitleCase capitalises the first letter of every run of letters and
// lower-cases the rest, so "V DT N" becomes "V Dt N".
func TitleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// Caption turns an output prefix such as "tag_language" into "Tag Language".
func Caption(prefix string) string {
	return TitleCase(strings.ReplaceAll(prefix, "_", " "))
}

// Frame is a labelled numeric table.
type Frame struct {
	Index   []string
	Columns []string
	Values  [][]float64
}

// Markdown renders the frame under a "### caption" heading. With
// boldLargest every cell is printed with six decimals and the row maximum
// is bolded; otherwise cells use FormatFloat.
func (f *Frame) Markdown(caption string, boldLargest bool) string {
	cells := make([][]string, len(f.Values))
	for i, row := range f.Values {
		cells[i] = make([]string, len(row))
		top := math.Inf(-1)
		for _, v := range row {
			if v > top {
				top = v
			}
		}
		for j, v := range row {
			switch {
			case !boldLargest:
				cells[i][j] = FormatFloat(v)
			case v == top:
				cells[i][j] = "**" + fixed6(v) + "**"
			default:
				cells[i][j] = fixed6(v)
			}
		}
	}
	return MarkdownTable(caption, f.Columns, f.Index, cells)
}

// Cells formats every value with FormatFloat.
func (f *Frame) Cells() [][]string {
	out := make([][]string, len(f.Values))
	for i, row := range f.Values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = FormatFloat(v)
		}
	}
	return out
}

// MarkdownTable renders an index-labelled table:
//
//	### caption
//
//	 | col1 | col2
//	| --- | --- | ---
//	row1 | a | b
func MarkdownTable(caption string, columns, index []string, cells [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", caption)
	b.WriteString(strings.Join(append([]string{""}, columns...), " | "))
	b.WriteString("\n")

	sep := make([]string, len(columns)+1)
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + "\n")

	for i, row := range cells {
		label := ""
		if i < len(index) {
			label = index[i]
		}
		b.WriteString(label + " | " + strings.Join(row, " | ") + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// WriteIndexedCSV writes an index-labelled table with an empty corner cell.
func WriteIndexedCSV(path string, columns, index []string, cells [][]string) error {
	records := make([][]string, 0, len(cells)+1)
	records = append(records, append([]string{""}, columns...))
	for i, row := range cells {
		records = append(records, append([]string{index[i]}, row...))
	}
	return WriteCSV(path, records)
}

// WriteCSV writes records to path, creating the parent directory.
func WriteCSV(path string, records [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logging.ReportDebug("wrote %d CSV rows to %s", len(records), path)
	return nil
}

// WriteText writes s to path, creating the parent directory.
func WriteText(path, s string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(s), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logging.ReportDebug("wrote %s (%d bytes)", path, len(s))
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

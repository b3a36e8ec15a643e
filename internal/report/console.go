package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the console styles used by Table.
type Styles struct {
	Title lipgloss.Style
	Bold  lipgloss.Style
	Body  lipgloss.Style
	Muted lipgloss.Style
}

// DefaultStyles returns the console palette.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		Bold:  lipgloss.NewStyle().Bold(true),
		Body:  lipgloss.NewStyle(),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7685")),
	}
}

// PlainStyles renders without colours or attributes.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Title: s, Bold: s, Body: s, Muted: s}
}

// Table is a static console table.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given title and headers.
func NewTable(title string, headers ...string) *Table {
	return &Table{Title: title, Headers: headers}
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// AddRowf appends a row of values formatted with %v.
func (t *Table) AddRowf(values ...interface{}) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = fmt.Sprint(v)
	}
	t.AddRow(cells...)
}

// View renders the table. An empty table renders as "".
func (t *Table) View(styles Styles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				if w := lipgloss.Width(cell); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	// room for the one-cell padding on each side
	for i := range widths {
		widths[i] += 2
	}

	header := styles.Bold.Padding(0, 1)
	body := styles.Body.Padding(0, 1)

	for i, h := range t.Headers {
		sb.WriteString(header.Width(widths[i]).Render(h))
		if i < len(t.Headers)-1 {
			sb.WriteString(styles.Muted.Render("|"))
		}
	}
	sb.WriteString("\n")

	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)) + "\n")

	for _, row := range t.Rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			sb.WriteString(body.Width(widths[i]).Render(cell))
			if i < len(row)-1 && i < len(widths)-1 {
				sb.WriteString(styles.Muted.Render("|"))
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

// Fprint writes the rendered table to w.
func (t *Table) Fprint(w io.Writer, styles Styles) error {
	_, err := io.WriteString(w, t.View(styles))
	return err
}

// Package table loads the delimited annotation files into field-keyed records.
package table

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"closedcat/internal/logging"

	"golang.org/x/sync/errgroup"
)

// Column names shared by the annotation files.
const (
	ColLanguage = "language"
	ColContext  = "context"
	ColPattern  = "grammar pattern"
	ColSplit    = "split"
)

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing column")
	// ErrNotNumeric is returned when a matrix cell cannot be parsed.
	ErrNotNumeric = errors.New("not numeric")
)

// Record is one annotated row. Fields are addressed by column name.
type Record struct {
	index  map[string]int
	values []string
}

// Get returns the trimmed value of column, or "" when absent.
func (r Record) Get(column string) string {
	return strings.TrimSpace(r.Raw(column))
}

// Raw returns the untrimmed value of column, or "" when absent.
func (r Record) Raw(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// Has reports whether the row carries a non-empty value for column.
func (r Record) Has(column string) bool {
	return r.Get(column) != ""
}

// Fields splits a column on whitespace.
func (r Record) Fields(column string) []string {
	return strings.Fields(r.Raw(column))
}

// Table is a loaded delimited file.
type Table struct {
	Path    string
	Header  []string
	Records []Record
	index   map[string]int
}

// HasColumn reports whether the header names column.
func (t *Table) HasColumn(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Require fails with ErrMissingColumn for the first absent column.
func (t *Table) Require(columns ...string) error {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return fmt.Errorf("%s: %w %q", t.Path, ErrMissingColumn, c)
		}
	}
	return nil
}

// ColumnsContaining returns header names containing substr, in header order.
func (t *Table) ColumnsContaining(substr string) []string {
	var out []string
	for _, h := range t.Header {
		if strings.Contains(h, substr) {
			out = append(out, h)
		}
	}
	return out
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Options controls how a file is parsed.
type Options struct {
	// Delimiter between fields. If 0, auto-detects among '\t', ',', ';'.
	Delimiter rune
	// Required columns checked after the header is read.
	Required []string
}

// TSV returns options for tab-separated files with required columns.
func TSV(required ...string) Options {
	return Options{Delimiter: '\t', Required: required}
}

// CSV returns options for comma-separated files with required columns.
func CSV(required ...string) Options {
	return Options{Delimiter: ',', Required: required}
}

// Load reads a delimited file into a Table.
func Load(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	t.Path = path
	if err := t.Require(opts.Required...); err != nil {
		return nil, err
	}
	logging.Loader("loaded %d records from %s", t.Len(), path)
	return t, nil
}

// Parse reads delimited data from r. The first row is the header.
func Parse(r io.Reader, opts Options) (*Table, error) {
	br := bufio.NewReader(r)
	delim := opts.Delimiter
	if delim == 0 {
		head, err := br.Peek(4096)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return nil, err
		}
		delim = detectDelimiter(string(head))
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return &Table{index: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		header[i] = h
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	t := &Table{Header: header, index: index}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(t.Records)+2, err)
		}
		if isBlank(row) {
			continue
		}
		t.Records = append(t.Records, Record{index: index, values: row})
	}
	return t, nil
}

// LoadAll loads several files concurrently. Results keep the order of paths.
func LoadAll(ctx context.Context, paths []string, opts Options) ([]*Table, error) {
	tables := make([]*Table, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := Load(p, opts)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// Concat returns the records of all tables in order.
func Concat(tables ...*Table) []Record {
	var n int
	for _, t := range tables {
		n += t.Len()
	}
	out := make([]Record, 0, n)
	for _, t := range tables {
		out = append(out, t.Records...)
	}
	return out
}

func detectDelimiter(head string) rune {
	line := head
	if i := strings.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	best, bestCount := '\t', 0
	for _, d := range []rune{'\t', ',', ';'} {
		if c := strings.Count(line, string(d)); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

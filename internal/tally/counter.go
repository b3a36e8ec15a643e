// Package tally accumulates frequency tables over annotated records.
package tally

import (
	"sort"
)

// Counter counts string keys and remembers the order keys were first seen.
type Counter struct {
	counts map[string]int
	order  []string
}

// NewCounter returns an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add increments key by n.
func (c *Counter) Add(key string, n int) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += n
}

// Inc increments key by one.
func (c *Counter) Inc(key string) {
	c.Add(key, 1)
}

// Get returns the count of key (0 when unseen).
func (c *Counter) Get(key string) int {
	return c.counts[key]
}

// Len returns the number of distinct keys.
func (c *Counter) Len() int {
	return len(c.order)
}

// Total returns the sum of all counts.
func (c *Counter) Total() int {
	total := 0
	for _, v := range c.counts {
		total += v
	}
	return total
}

// Keys returns keys in first-seen order.
func (c *Counter) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// SortedKeys returns keys in lexical order.
func (c *Counter) SortedKeys() []string {
	out := c.Keys()
	sort.Strings(out)
	return out
}

// Entry is a key with its count.
type Entry struct {
	Key   string
	Count int
}

// Entries returns all entries in first-seen order.
func (c *Counter) Entries() []Entry {
	out := make([]Entry, len(c.order))
	for i, k := range c.order {
		out[i] = Entry{Key: k, Count: c.counts[k]}
	}
	return out
}

// MostCommon returns the n largest entries, count descending with ties in
// first-seen order. n <= 0 returns all entries.
func (c *Counter) MostCommon(n int) []Entry {
	out := c.Entries()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Update adds every count of other.
func (c *Counter) Update(other *Counter) {
	for _, k := range other.order {
		c.Add(k, other.counts[k])
	}
}

// Crosstab is a two-level counter: row key -> column counter.
type Crosstab struct {
	rows  map[string]*Counter
	order []string
}

// NewCrosstab returns an empty cross tabulation.
func NewCrosstab() *Crosstab {
	return &Crosstab{rows: make(map[string]*Counter)}
}

// Inc increments the (row, col) cell.
func (x *Crosstab) Inc(row, col string) {
	x.Row(row).Inc(col)
}

// Row returns the counter of row, creating it when absent.
func (x *Crosstab) Row(row string) *Counter {
	c, ok := x.rows[row]
	if !ok {
		c = NewCounter()
		x.rows[row] = c
		x.order = append(x.order, row)
	}
	return c
}

// Get returns the (row, col) count.
func (x *Crosstab) Get(row, col string) int {
	if c, ok := x.rows[row]; ok {
		return c.Get(col)
	}
	return 0
}

// Has reports whether row has been seen.
func (x *Crosstab) Has(row string) bool {
	_, ok := x.rows[row]
	return ok
}

// RowKeys returns row keys in first-seen order.
func (x *Crosstab) RowKeys() []string {
	out := make([]string, len(x.order))
	copy(out, x.order)
	return out
}

// SortedRowKeys returns row keys in lexical order.
func (x *Crosstab) SortedRowKeys() []string {
	out := x.RowKeys()
	sort.Strings(out)
	return out
}

// Matrix returns counts for the given row and column orders. Unseen cells are 0.
func (x *Crosstab) Matrix(rows, cols []string) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = make([]float64, len(cols))
		for j, c := range cols {
			out[i][j] = float64(x.Get(r, c))
		}
	}
	return out
}

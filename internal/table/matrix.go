package table

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Matrix is a labelled numeric table, e.g. a precomputed contingency table.
type Matrix struct {
	Label  string // header cell above the row labels, often empty
	Rows   []string
	Cols   []string
	Values [][]float64
}

// ReadMatrix reads a CSV whose header is an empty cell followed by column
// labels and whose first column holds row labels. Only the first block of a
// stacked file is returned.
func ReadMatrix(path string) (*Matrix, error) {
	return ReadMatrixBlock(path, 0)
}

// ReadMatrixBlock returns block index of a stacked matrix file.
func ReadMatrixBlock(path string, index int) (*Matrix, error) {
	blocks, err := ReadMatrixBlocks(path)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(blocks) {
		return nil, fmt.Errorf("%s: block %d out of range, file has %d", path, index, len(blocks))
	}
	return blocks[index], nil
}

// ReadMatrixBlocks reads a CSV holding one or more labelled matrices stacked
// vertically. A block starts at the first row of the file, after a row of
// empty cells, or at a header row whose value cells are all non-numeric
// labels. The first row of a block names its columns; trailing empty header
// cells are dropped and data cells beyond the last column are ignored.
func ReadMatrixBlocks(path string) ([]*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(bufio.NewReader(f))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var blocks []*Matrix
	var cur *Matrix
	for i, row := range rows {
		line := i + 1
		switch {
		case isBlank(row):
			cur = nil
			continue
		case cur == nil || isHeaderRow(row):
			cur = &Matrix{Label: strings.TrimSpace(row[0]), Cols: headerCols(row)}
			if len(cur.Cols) == 0 {
				return nil, fmt.Errorf("%s: line %d: matrix header has no column labels", path, line)
			}
			blocks = append(blocks, cur)
			continue
		}

		label := strings.TrimSpace(row[0])
		if label == "" {
			continue
		}
		vals := make([]float64, len(cur.Cols))
		for j := range cur.Cols {
			cell := ""
			if j+1 < len(row) {
				cell = strings.TrimSpace(row[j+1])
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: line %d column %q: %w %q", path, line, cur.Cols[j], ErrNotNumeric, cell)
			}
			vals[j] = v
		}
		cur.Rows = append(cur.Rows, label)
		cur.Values = append(cur.Values, vals)
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("%s: matrix needs a header and at least one labelled row", path)
	}
	for n, b := range blocks {
		if len(b.Rows) == 0 {
			return nil, fmt.Errorf("%s: block %d has no labelled rows", path, n)
		}
	}
	return blocks, nil
}

func headerCols(row []string) []string {
	var cols []string
	for _, c := range row[1:] {
		cols = append(cols, strings.TrimSpace(c))
	}
	for len(cols) > 0 && cols[len(cols)-1] == "" {
		cols = cols[:len(cols)-1]
	}
	return cols
}

// isHeaderRow reports whether every non-empty value cell is a non-numeric
// label and at least one is present.
func isHeaderRow(row []string) bool {
	labels := 0
	for _, c := range row[1:] {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, err := strconv.ParseFloat(c, 64); err == nil {
			return false
		}
		labels++
	}
	return labels > 0
}

// ReadSpaceDelimited reads rows split on single spaces without a header.
// Empty lines are skipped.
func ReadSpaceDelimited(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var rows [][]string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, strings.Split(line, " "))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return rows, nil
}

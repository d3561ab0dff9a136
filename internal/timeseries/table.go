// Package timeseries holds the common tabular schema every adapter produces:
// a strictly increasing timestamp index with named float columns.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Table is a time-indexed set of named columns, stored column-major.
type Table struct {
	Index   []time.Time
	Columns []string
	// Data[c][r] is the value of column c at Index[r].
	Data [][]float64

	colIdx map[string]int
}

// NewTable builds a zero-filled table.
func NewTable(index []time.Time, columns []string) *Table {
	data := make([][]float64, len(columns))
	for c := range data {
		data[c] = make([]float64, len(index))
	}
	t := &Table{Index: index, Columns: columns, Data: data}
	t.buildIndex()
	return t
}

// FromColumns builds a table from existing column slices (not copied).
func FromColumns(index []time.Time, columns []string, data [][]float64) (*Table, error) {
	if len(columns) != len(data) {
		return nil, fmt.Errorf("got %d column names for %d columns", len(columns), len(data))
	}
	for c, col := range data {
		if len(col) != len(index) {
			return nil, fmt.Errorf("column %q has %d rows, index has %d", columns[c], len(col), len(index))
		}
	}
	t := &Table{Index: index, Columns: columns, Data: data}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the index is strictly increasing and column names are unique.
func (t *Table) Validate() error {
	if t == nil {
		return errors.New("table is nil")
	}
	for i := 1; i < len(t.Index); i++ {
		if !t.Index[i].After(t.Index[i-1]) {
			return fmt.Errorf("index not strictly increasing at row %d (%s)", i, t.Index[i].Format(time.RFC3339))
		}
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seen[c] {
			return fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = true
	}
	t.buildIndex()
	return nil
}

func (t *Table) buildIndex() {
	t.colIdx = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.colIdx[c] = i
	}
}

// Len is the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Index)
}

// Width is the number of columns.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	if t.colIdx == nil {
		t.buildIndex()
	}
	i, ok := t.colIdx[name]
	if !ok {
		return nil, false
	}
	return t.Data[i], true
}

// Select returns a table restricted to names, in the order given. Names
// absent from the table are skipped and returned as missing. Column slices
// are shared with t.
func (t *Table) Select(names []string) (*Table, []string) {
	var (
		cols    []string
		data    [][]float64
		missing []string
	)
	for _, n := range names {
		col, ok := t.Column(n)
		if !ok {
			missing = append(missing, n)
			continue
		}
		cols = append(cols, n)
		data = append(data, col)
	}
	out := &Table{Index: t.Index, Columns: cols, Data: data}
	out.buildIndex()
	return out, missing
}

// RowSums returns the sum across columns for every row. NaN cells are
// skipped, so a row with no value sums to 0.
func (t *Table) RowSums() []float64 {
	out := make([]float64, t.Len())
	for _, col := range t.Data {
		for r, v := range col {
			if math.IsNaN(v) {
				continue
			}
			out[r] += v
		}
	}
	return out
}

// Aligned reports whether both tables share the exact same index.
func (t *Table) Aligned(o *Table) bool {
	if t.Len() != o.Len() {
		return false
	}
	for i := range t.Index {
		if !t.Index[i].Equal(o.Index[i]) {
			return false
		}
	}
	return true
}

// Step returns the spacing of the first two rows (0 for fewer than two rows).
func (t *Table) Step() time.Duration {
	if t.Len() < 2 {
		return 0
	}
	return t.Index[1].Sub(t.Index[0])
}

// Rows returns a table restricted to the given row positions (ascending).
func (t *Table) Rows(rows []int) *Table {
	index := make([]time.Time, len(rows))
	for i, r := range rows {
		index[i] = t.Index[r]
	}
	data := make([][]float64, len(t.Columns))
	for c, col := range t.Data {
		out := make([]float64, len(rows))
		for i, r := range rows {
			out[i] = col[r]
		}
		data[c] = out
	}
	out := &Table{Index: index, Columns: t.Columns, Data: data}
	out.buildIndex()
	return out
}

// WithColumn returns a single-column table named name sharing t's index.
func (t *Table) WithColumn(name string, values []float64) *Table {
	out := &Table{Index: t.Index, Columns: []string{name}, Data: [][]float64{values}}
	out.buildIndex()
	return out
}

// Series is one named column over an index.
type Series struct {
	Name   string
	Index  []time.Time
	Values []float64
}

// Len is the number of points.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// Table wraps the series as a one-column table.
func (s *Series) Table() *Table {
	out := &Table{Index: s.Index, Columns: []string{s.Name}, Data: [][]float64{s.Values}}
	out.buildIndex()
	return out
}

// Sum collapses every column into a single series named name.
func (t *Table) Sum(name string) *Series {
	return &Series{Name: name, Index: t.Index, Values: t.RowSums()}
}

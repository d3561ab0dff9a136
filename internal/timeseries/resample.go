package timeseries

import (
	"fmt"
	"math"
	"time"
)

// Resample averages rows into bins of width step, keyed by the bin start
// (timestamps truncated to step). Missing (NaN) samples are left out of the
// mean; a bin with no sample is NaN. Empty bins are not emitted.
func (t *Table) Resample(step time.Duration) (*Table, error) {
	if step <= 0 {
		return nil, fmt.Errorf("resample step must be > 0, got %s", step)
	}
	if t.Len() == 0 || t.Step() == step && aligned(t.Index, step) {
		return t, nil
	}

	var (
		index  []time.Time
		groups [][]int
	)
	for r, ts := range t.Index {
		bin := ts.Truncate(step)
		if n := len(index); n > 0 && index[n-1].Equal(bin) {
			groups[n-1] = append(groups[n-1], r)
			continue
		}
		index = append(index, bin)
		groups = append(groups, []int{r})
	}

	out := NewTable(index, t.Columns)
	for c, col := range t.Data {
		for g, rows := range groups {
			sum, n := 0.0, 0
			for _, r := range rows {
				if math.IsNaN(col[r]) {
					continue
				}
				sum += col[r]
				n++
			}
			if n == 0 {
				out.Data[c][g] = math.NaN()
				continue
			}
			out.Data[c][g] = sum / float64(n)
		}
	}
	return out, nil
}

func aligned(index []time.Time, step time.Duration) bool {
	for _, ts := range index {
		if !ts.Truncate(step).Equal(ts) {
			return false
		}
	}
	return true
}

// Intersect restricts every non-nil table to the timestamps present in all
// of them. It fails when the common index is empty.
func Intersect(tables ...*Table) ([]*Table, error) {
	var counts map[int64]int
	n := 0
	for _, t := range tables {
		if t == nil {
			continue
		}
		n++
		if counts == nil {
			counts = make(map[int64]int, t.Len())
		}
		for _, ts := range t.Index {
			counts[ts.UnixNano()]++
		}
	}
	out := make([]*Table, len(tables))
	if n == 0 {
		return out, nil
	}

	common := 0
	for _, c := range counts {
		if c == n {
			common++
		}
	}
	if common == 0 {
		return nil, fmt.Errorf("tables share no timestamp")
	}

	for i, t := range tables {
		if t == nil {
			continue
		}
		rows := make([]int, 0, common)
		for r, ts := range t.Index {
			if counts[ts.UnixNano()] == n {
				rows = append(rows, r)
			}
		}
		if len(rows) == t.Len() {
			out[i] = t
			continue
		}
		out[i] = t.Rows(rows)
	}
	return out, nil
}

// RestampYear moves every timestamp into year, keeping month, day and time
// of day. Rows that do not exist in the target year (29 February) and rows
// that would collide with an earlier one are dropped.
func (t *Table) RestampYear(year int) *Table {
	var (
		rows  []int
		index []time.Time
	)
	for r, ts := range t.Index {
		moved := time.Date(year, ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), ts.Location())
		if moved.Month() != ts.Month() {
			continue
		}
		if n := len(index); n > 0 && !moved.After(index[n-1]) {
			continue
		}
		rows = append(rows, r)
		index = append(index, moved)
	}
	out := t.Rows(rows)
	out.Index = index
	return out
}

// Scale returns a copy of values multiplied by k.
func Scale(values []float64, k float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * k
	}
	return out
}


package kpi

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Undefined marks a KPI value that cannot be computed: zero-variance
// correlation, empty quantile group, zero denominator. It encodes as JSON
// null.
var Undefined = math.NaN()

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v float64) bool { return math.IsNaN(v) }

// Frame is a labelled 2D table of KPI values. Values[r][c] is at row
// Rows[r] and column Cols[c]. It encodes as {col: {row: value}}, keeping
// label order.
type Frame struct {
	Rows   []string
	Cols   []string
	Values [][]float64
}

// NewFrame returns a zero-filled frame.
func NewFrame(rows, cols []string) Frame {
	values := make([][]float64, len(rows))
	for r := range values {
		values[r] = make([]float64, len(cols))
	}
	return Frame{Rows: rows, Cols: cols, Values: values}
}

// At returns the value at (row, col).
func (f Frame) At(row, col string) (float64, bool) {
	r, c := indexOf(f.Rows, row), indexOf(f.Cols, col)
	if r < 0 || c < 0 {
		return Undefined, false
	}
	return f.Values[r][c], true
}

// Column returns the values of col in row order.
func (f Frame) Column(col string) []float64 {
	c := indexOf(f.Cols, col)
	if c < 0 {
		return nil
	}
	out := make([]float64, len(f.Rows))
	for r := range f.Rows {
		out[r] = f.Values[r][c]
	}
	return out
}

// RowSums sums every row, skipping undefined values.
func (f Frame) RowSums() Values {
	out := Values{Keys: f.Rows, Vals: make([]float64, len(f.Rows))}
	for r, row := range f.Values {
		for _, v := range row {
			if !IsUndefined(v) {
				out.Vals[r] += v
			}
		}
	}
	return out
}

// ColMeans averages every column, skipping undefined values. A column with
// no defined value gives Undefined.
func (f Frame) ColMeans() Values {
	out := Values{Keys: f.Cols, Vals: make([]float64, len(f.Cols))}
	for c := range f.Cols {
		sum, n := 0.0, 0
		for r := range f.Rows {
			if v := f.Values[r][c]; !IsUndefined(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			out.Vals[c] = Undefined
			continue
		}
		out.Vals[c] = sum / float64(n)
	}
	return out
}

func (f Frame) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for c, col := range f.Cols {
		if c > 0 {
			buf.WriteByte(',')
		}
		writeKey(&buf, col)
		buf.WriteByte('{')
		for r, row := range f.Rows {
			if r > 0 {
				buf.WriteByte(',')
			}
			writeKey(&buf, row)
			writeFloat(&buf, f.Values[r][c])
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Values is an ordered label to value mapping (one value per unit, month
// or carrier). It encodes as a JSON object keeping key order.
type Values struct {
	Keys []string
	Vals []float64
}

// Get returns the value stored under key.
func (v Values) Get(key string) (float64, bool) {
	i := indexOf(v.Keys, key)
	if i < 0 {
		return Undefined, false
	}
	return v.Vals[i], true
}

// Len is the number of entries.
func (v Values) Len() int { return len(v.Keys) }

func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range v.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeKey(&buf, k)
		writeFloat(&buf, v.Vals[i])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, k string) {
	raw, _ := json.Marshal(k)
	buf.Write(raw)
	buf.WriteByte(':')
}

func writeFloat(buf *bytes.Buffer, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		buf.WriteString("null")
		return
	}
	buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
}

func indexOf(list []string, s string) int {
	for i, x := range list {
		if x == s {
			return i
		}
	}
	return -1
}

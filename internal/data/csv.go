package data

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"chronics-kpi/internal/timeseries"
)

// Matrix is a headered numeric CSV body stored column-major.
type Matrix struct {
	Header []string
	Data   [][]float64
	Rows   int
}

// ReadMatrix reads a numeric CSV file (plain or compressed). The separator
// is detected from the header line (';' wins over ','). Empty cells are NaN.
func ReadMatrix(path string) (*Matrix, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	m, err := readMatrix(rc, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return m, nil
}

// ReadTimeTable reads a CSV file whose first column is a timestamp (header
// "time", "datetime" or "date", any case) followed by numeric columns.
func ReadTimeTable(path string) (*timeseries.Table, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var index []time.Time
	m, err := readMatrix(rc, func(header string, cell string) error {
		if index == nil && !isTimeHeader(header) {
			return fmt.Errorf("first column must be a timestamp, got %q", header)
		}
		ts, err := ParseTimestamp(cell)
		if err != nil {
			return err
		}
		index = append(index, ts)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	t, err := timeseries.FromColumns(index, m.Header, m.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid table %s: %w", path, err)
	}
	return t, nil
}

func isTimeHeader(h string) bool {
	switch strings.ToLower(strings.TrimSpace(h)) {
	case "time", "datetime", "date", "timestamp":
		return true
	}
	return false
}

// readMatrix parses the CSV body. When key is non-nil the first column is
// handed to it instead of being parsed as a number.
func readMatrix(r io.Reader, key func(header, cell string) error) (*Matrix, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	cr := csv.NewReader(br)
	cr.Comma = detectComma(first)
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	rec, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, err
	}
	header := make([]string, len(rec))
	for i, h := range rec {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	offset := 0
	if key != nil {
		if len(header) == 0 {
			return nil, errors.New("missing key column")
		}
		offset = 1
	}

	m := &Matrix{Header: header[offset:], Data: make([][]float64, len(header)-offset)}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if key != nil {
			if err := key(header[0], strings.TrimSpace(rec[0])); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		for c := offset; c < len(rec); c++ {
			v, err := parseCell(rec[c])
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, header[c], err)
			}
			m.Data[c-offset] = append(m.Data[c-offset], v)
		}
		m.Rows++
	}
	return m, nil
}

func detectComma(head []byte) rune {
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.Count(line, ";") > 0 && strings.Count(line, ";") >= strings.Count(line, ",") {
		return ';'
	}
	return ','
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp layouts found in benchmark files.
// Values without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

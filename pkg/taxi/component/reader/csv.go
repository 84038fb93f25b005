package reader

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/table"
)

// DecodeCSV reads a CSV document with a header row. Empty cells are missing
// values. A column whose non-empty cells all parse as numbers becomes a float
// column; one whose cells all parse as timestamps becomes a time column; any
// other column is kept as strings.
func DecodeCSV(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return table.Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	cells := make([][]string, len(names))
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		for i := range names {
			cells[i] = append(cells[i], strings.TrimSpace(rec[i]))
		}
	}

	cols := make([]*table.Column, len(names))
	for i, name := range names {
		cols[i] = inferColumn(name, cells[i])
	}
	return table.New(cols...)
}

func inferColumn(name string, values []string) *table.Column {
	if floats, ok := parseFloats(values); ok {
		return table.NewFloat(name, floats)
	}
	if times, ok := parseTimes(values); ok {
		return table.NewTime(name, times)
	}
	return table.NewString(name, append([]string(nil), values...))
}

func parseFloats(values []string) ([]float64, bool) {
	out := make([]float64, len(values))
	for i, s := range values {
		if s == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func parseTimes(values []string) ([]time.Time, bool) {
	out := make([]time.Time, len(values))
	for i, s := range values {
		if s == "" {
			continue
		}
		t, err := table.ParseTime(s)
		if err != nil {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}

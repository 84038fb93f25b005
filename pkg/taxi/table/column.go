// Package table holds the in-memory columnar batch the pipeline operates on.
//
// A Table is an ordered set of equally long, typed, named columns. Missing values
// follow the dataframe conventions of the upstream cleaning job: NaN in float
// columns, the zero time.Time in time columns and "" in string columns.
//
// Tables are never modified in place. Operations that change shape or content
// return a new Table; unchanged columns are shared between the two, so callers
// must treat column slices as read-only.
package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Type is the physical type of a column.
type Type int

const (
	Float Type = iota
	Time
	String
)

func (t Type) String() string {
	switch t {
	case Float:
		return "float"
	case Time:
		return "time"
	case String:
		return "string"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Column is a named, typed vector. Exactly one of Floats, Times and Strings is used,
// according to Type.
type Column struct {
	Name    string
	Type    Type
	Floats  []float64
	Times   []time.Time
	Strings []string
}

// NewFloat returns a float column. NaN marks a missing value.
func NewFloat(name string, values []float64) *Column {
	return &Column{Name: name, Type: Float, Floats: values}
}

// NewTime returns a time column. The zero time marks a missing value.
func NewTime(name string, values []time.Time) *Column {
	return &Column{Name: name, Type: Time, Times: values}
}

// NewString returns a string column. The empty string marks a missing value.
func NewString(name string, values []string) *Column {
	return &Column{Name: name, Type: String, Strings: values}
}

// Len returns the number of rows.
func (c *Column) Len() int {
	switch c.Type {
	case Float:
		return len(c.Floats)
	case Time:
		return len(c.Times)
	default:
		return len(c.Strings)
	}
}

// IsNull reports whether row i is missing.
func (c *Column) IsNull(i int) bool {
	switch c.Type {
	case Float:
		return math.IsNaN(c.Floats[i])
	case Time:
		return c.Times[i].IsZero()
	default:
		return c.Strings[i] == ""
	}
}

// NullCount returns the number of missing rows.
func (c *Column) NullCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// renamed returns a shallow copy of c under a new name.
func (c *Column) renamed(name string) *Column {
	cp := *c
	cp.Name = name
	return &cp
}

// take gathers rows by index into a new column.
func (c *Column) take(idx []int) *Column {
	out := &Column{Name: c.Name, Type: c.Type}
	switch c.Type {
	case Float:
		out.Floats = make([]float64, len(idx))
		for i, j := range idx {
			out.Floats[i] = c.Floats[j]
		}
	case Time:
		out.Times = make([]time.Time, len(idx))
		for i, j := range idx {
			out.Times[i] = c.Times[j]
		}
	default:
		out.Strings = make([]string, len(idx))
		for i, j := range idx {
			out.Strings[i] = c.Strings[j]
		}
	}
	return out
}

// nulls returns a column of n missing values of type t.
func nulls(name string, t Type, n int) *Column {
	switch t {
	case Float:
		v := make([]float64, n)
		for i := range v {
			v[i] = math.NaN()
		}
		return NewFloat(name, v)
	case Time:
		return NewTime(name, make([]time.Time, n))
	default:
		return NewString(name, make([]string, n))
	}
}

// AsFloat returns the column as float64 values. String columns are parsed;
// missing strings become NaN. Time columns cannot be converted.
func (c *Column) AsFloat() ([]float64, error) {
	switch c.Type {
	case Float:
		return c.Floats, nil
	case String:
		out := make([]float64, len(c.Strings))
		for i, s := range c.Strings {
			if s == "" {
				out[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", c.Name, i, err)
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("column %s has type %s, not convertible to float", c.Name, c.Type)
	}
}

// timeLayouts are tried in order when a string column is read as timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime parses a timestamp in one of the accepted layouts. Values without a
// zone are read as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// AsTime returns the column as timestamps. String columns are parsed; float
// columns are rejected.
func (c *Column) AsTime() ([]time.Time, error) {
	switch c.Type {
	case Time:
		return c.Times, nil
	case String:
		out := make([]time.Time, len(c.Strings))
		for i, s := range c.Strings {
			if s == "" {
				continue
			}
			t, err := ParseTime(s)
			if err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", c.Name, i, err)
			}
			out[i] = t
		}
		return out, nil
	default:
		return nil, fmt.Errorf("column %s has type %s, not convertible to time", c.Name, c.Type)
	}
}

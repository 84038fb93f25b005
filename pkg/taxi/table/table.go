package table

import (
	"fmt"
	"strings"
)

// Table is an immutable, ordered collection of equally long columns.
type Table struct {
	cols  []*Column
	index map[string]int
	nrows int
}

// New builds a table from columns. Names must be unique and lengths equal.
func New(cols ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("table: column %d is nil", i)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c.Name)
		}
		if i == 0 {
			t.nrows = c.Len()
		} else if c.Len() != t.nrows {
			return nil, fmt.Errorf("table: column %q has %d rows, expected %d", c.Name, c.Len(), t.nrows)
		}
		t.index[c.Name] = i
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.cols...)
}

// Missing returns the names, in argument order, that the table lacks.
func (t *Table) Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if !t.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// Select returns a table with exactly the given columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	if missing := t.Missing(names...); len(missing) > 0 {
		return nil, fmt.Errorf("table: missing columns %s", strings.Join(missing, ", "))
	}
	cols := make([]*Column, len(names))
	for i, n := range names {
		cols[i] = t.cols[t.index[n]]
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.nrows = t.nrows
	return out, nil
}

// Keep returns a table with the given columns that exist, in table order.
func (t *Table) Keep(names ...string) *Table {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	out := &Table{index: map[string]int{}, nrows: t.nrows}
	for _, c := range t.cols {
		if _, ok := want[c.Name]; ok {
			out.index[c.Name] = len(out.cols)
			out.cols = append(out.cols, c)
		}
	}
	return out
}

// With returns a table with cols appended, or replacing existing columns of the
// same name in place. The receiver is unchanged.
func (t *Table) With(cols ...*Column) (*Table, error) {
	out := &Table{
		cols:  append([]*Column(nil), t.cols...),
		index: make(map[string]int, len(t.cols)+len(cols)),
		nrows: t.nrows,
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	for _, c := range cols {
		if len(out.cols) == 0 {
			out.nrows = c.Len()
		} else if c.Len() != out.nrows {
			return nil, fmt.Errorf("table: column %q has %d rows, expected %d", c.Name, c.Len(), out.nrows)
		}
		if i, ok := out.index[c.Name]; ok {
			out.cols[i] = c
			continue
		}
		out.index[c.Name] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	return out, nil
}

// Rename returns a table whose columns are renamed by mapping. Names absent from
// mapping are kept. A rename onto an existing column name is an error.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		if to, ok := mapping[c.Name]; ok && to != c.Name {
			cols[i] = c.renamed(to)
			continue
		}
		cols[i] = c
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.nrows = t.nrows
	return out, nil
}

// Take returns the rows at idx, in idx order.
func (t *Table) Take(idx []int) *Table {
	out := &Table{index: make(map[string]int, len(t.cols)), nrows: len(idx)}
	for i, c := range t.cols {
		out.cols = append(out.cols, c.take(idx))
		out.index[c.Name] = i
	}
	return out
}

// Head returns the first n rows (or all rows when n exceeds the row count).
func (t *Table) Head(n int) *Table {
	if n > t.nrows {
		n = t.nrows
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.Take(idx)
}

// Concat stacks tables vertically. The result has the union of all columns in
// order of first appearance; rows from a table lacking a column are missing
// values. A column must have the same type in every table that has it.
func Concat(tables ...*Table) (*Table, error) {
	var (
		order []string
		types = map[string]Type{}
		total int
	)
	for _, t := range tables {
		for _, c := range t.cols {
			prev, seen := types[c.Name]
			if !seen {
				types[c.Name] = c.Type
				order = append(order, c.Name)
				continue
			}
			if prev != c.Type {
				return nil, fmt.Errorf("table: column %q is %s in one batch and %s in another", c.Name, prev, c.Type)
			}
		}
		total += t.nrows
	}

	cols := make([]*Column, 0, len(order))
	for _, name := range order {
		out := &Column{Name: name, Type: types[name]}
		for _, t := range tables {
			c, ok := t.Column(name)
			if !ok {
				c = nulls(name, types[name], t.nrows)
			}
			switch out.Type {
			case Float:
				out.Floats = append(out.Floats, c.Floats...)
			case Time:
				out.Times = append(out.Times, c.Times...)
			default:
				out.Strings = append(out.Strings, c.Strings...)
			}
		}
		cols = append(cols, out)
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.nrows = total
	return out, nil
}

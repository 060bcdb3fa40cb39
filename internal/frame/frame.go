// Package frame provides the in-memory table passed between the CSV parser,
// the transformers and the storage backends.
//
// A Frame is an ordered list of column names plus rows of cells. Cells are
// one of nil, int64, float64 or string; every backend and transformer in the
// module agrees on that set so values survive a staging round trip unchanged.
package frame

import (
	"errors"
	"fmt"
)

// ErrColumnNotFound is returned (wrapped) when an operation names a column the
// frame does not have.
var ErrColumnNotFound = errors.New("column not found")

// Frame is a column-ordered table. Rows are aligned to Columns; len(row)
// always equals len(Columns).
type Frame struct {
	Columns []string
	Rows    [][]any
}

// New returns a frame over the given columns and rows. The slices are used as
// given, not copied.
func New(columns []string, rows [][]any) *Frame {
	return &Frame{Columns: columns, Rows: rows}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Index returns the position of column name, or -1.
func (f *Frame) Index(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Lookup is Index with an error for absent columns.
func (f *Frame) Lookup(name string) (int, error) {
	i := f.Index(name)
	if i < 0 {
		return -1, fmt.Errorf("%w: %q (have %v)", ErrColumnNotFound, name, f.Columns)
	}
	return i, nil
}

// Column returns a copy of the named column's cells.
func (f *Frame) Column(name string) ([]any, error) {
	i, err := f.Lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(f.Rows))
	for r, row := range f.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Clone returns a deep copy of the frame structure. Cell values are immutable
// scalars so they are shared.
func (f *Frame) Clone() *Frame {
	cols := append([]string(nil), f.Columns...)
	rows := make([][]any, len(f.Rows))
	for i, row := range f.Rows {
		rows[i] = append([]any(nil), row...)
	}
	return &Frame{Columns: cols, Rows: rows}
}

// RenameColumns renames columns in place according to m (old -> new). Names
// not present in the frame are ignored.
func (f *Frame) RenameColumns(m map[string]string) {
	for i, c := range f.Columns {
		if to, ok := m[c]; ok && to != "" {
			f.Columns[i] = to
		}
	}
}

// AddColumn appends a column computed from each row. If the column already
// exists its values are overwritten in place.
func (f *Frame) AddColumn(name string, fn func(row []any) (any, error)) error {
	at := f.Index(name)
	if at < 0 {
		f.Columns = append(f.Columns, name)
	}
	for r, row := range f.Rows {
		v, err := fn(row)
		if err != nil {
			return fmt.Errorf("column %q row %d: %w", name, r, err)
		}
		if at < 0 {
			f.Rows[r] = append(row, v)
		} else {
			row[at] = v
		}
	}
	return nil
}

// Select returns a new frame holding only cols, in that order.
func (f *Frame) Select(cols ...string) (*Frame, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		j, err := f.Lookup(c)
		if err != nil {
			return nil, err
		}
		idx[i] = j
	}
	rows := make([][]any, len(f.Rows))
	for r, row := range f.Rows {
		out := make([]any, len(idx))
		for i, j := range idx {
			out[i] = row[j]
		}
		rows[r] = out
	}
	return &Frame{Columns: append([]string(nil), cols...), Rows: rows}, nil
}

// Head returns a frame sharing the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n < 0 || n > len(f.Rows) {
		n = len(f.Rows)
	}
	return &Frame{Columns: f.Columns, Rows: f.Rows[:n]}
}

// Concat stacks frames row-wise in argument order. All frames must have the
// same columns in the same order.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return &Frame{}, nil
	}
	cols := frames[0].Columns
	total := 0
	for i, f := range frames {
		if !sameColumns(cols, f.Columns) {
			return nil, fmt.Errorf("concat: frame %d columns %v != %v", i, f.Columns, cols)
		}
		total += len(f.Rows)
	}
	rows := make([][]any, 0, total)
	for _, f := range frames {
		rows = append(rows, f.Rows...)
	}
	return &Frame{Columns: append([]string(nil), cols...), Rows: rows}, nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

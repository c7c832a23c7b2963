// Package frame provides the in-memory tabular model the pipeline
// transforms operate on. A Frame is one staged table: named columns of
// raw string cells, where the empty string is null. Inputs are read in
// full per run; batch sizes are thousands to tens of thousands of rows.
package frame

import "fmt"

// Frame is a staged table of raw string cells.
type Frame struct {
	Name string

	cols  []string
	index map[string]int
	rows  [][]string
}

// New creates an empty frame with the given columns.
func New(name string, cols []string) *Frame {
	f := &Frame{Name: name, cols: append([]string(nil), cols...)}
	f.reindex()
	return f
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.cols))
	for i, c := range f.cols {
		f.index[c] = i
	}
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.cols...)
}

// HasColumn reports whether the frame has the named column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// NumRows returns the row count.
func (f *Frame) NumRows() int {
	return len(f.rows)
}

// Append adds one row. Short rows are padded with nulls; long rows are
// an error from the caller's reader, not silently truncated.
func (f *Frame) Append(row []string) error {
	if len(row) > len(f.cols) {
		return fmt.Errorf("frame %s: row has %d cells, frame has %d columns", f.Name, len(row), len(f.cols))
	}
	padded := make([]string, len(f.cols))
	copy(padded, row)
	f.rows = append(f.rows, padded)
	return nil
}

// Value returns the cell at (row, col). Missing column reads as null,
// matching the original pipeline's tolerance for absent export columns.
func (f *Frame) Value(row int, col string) string {
	i, ok := f.index[col]
	if !ok {
		return ""
	}
	return f.rows[row][i]
}

// SetValue writes the cell at (row, col). The column must exist.
func (f *Frame) SetValue(row int, col, v string) error {
	i, ok := f.index[col]
	if !ok {
		return fmt.Errorf("frame %s: no column %q", f.Name, col)
	}
	f.rows[row][i] = v
	return nil
}

// Column returns all values of the named column. A missing column
// yields all nulls.
func (f *Frame) Column(name string) []string {
	out := make([]string, len(f.rows))
	i, ok := f.index[name]
	if !ok {
		return out
	}
	for r, row := range f.rows {
		out[r] = row[i]
	}
	return out
}

// AddColumn appends a column with the given values. len(values) must
// equal NumRows; a nil slice adds an all-null column.
func (f *Frame) AddColumn(name string, values []string) error {
	if f.HasColumn(name) {
		return fmt.Errorf("frame %s: column %q already exists", f.Name, name)
	}
	if values != nil && len(values) != len(f.rows) {
		return fmt.Errorf("frame %s: column %q has %d values, frame has %d rows",
			f.Name, name, len(values), len(f.rows))
	}
	f.cols = append(f.cols, name)
	f.index[name] = len(f.cols) - 1
	for r := range f.rows {
		v := ""
		if values != nil {
			v = values[r]
		}
		f.rows[r] = append(f.rows[r], v)
	}
	return nil
}

// DropColumns removes the named columns, ignoring ones that are absent.
func (f *Frame) DropColumns(names ...string) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	var keepIdx []int
	var keepCols []string
	for i, c := range f.cols {
		if _, gone := drop[c]; !gone {
			keepIdx = append(keepIdx, i)
			keepCols = append(keepCols, c)
		}
	}
	for r, row := range f.rows {
		newRow := make([]string, len(keepIdx))
		for j, i := range keepIdx {
			newRow[j] = row[i]
		}
		f.rows[r] = newRow
	}
	f.cols = keepCols
	f.reindex()
}

// Filter returns a new frame holding only the rows for which keep
// returns true. The receiver is unchanged.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	out := New(f.Name, f.cols)
	for r := range f.rows {
		if keep(r) {
			out.rows = append(out.rows, append([]string(nil), f.rows[r]...))
		}
	}
	return out
}

// Concat unions frames row-wise. Columns are the union in first-seen
// order; cells absent from a source frame are null. This mirrors the
// diagonal concat the source exports need, since legacy and current
// exports carry different column sets.
func Concat(name string, frames ...*Frame) *Frame {
	var cols []string
	seen := make(map[string]struct{})
	for _, fr := range frames {
		for _, c := range fr.cols {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				cols = append(cols, c)
			}
		}
	}
	out := New(name, cols)
	for _, fr := range frames {
		for r := 0; r < fr.NumRows(); r++ {
			row := make([]string, len(cols))
			for i, c := range cols {
				row[i] = fr.Value(r, c)
			}
			out.rows = append(out.rows, row)
		}
	}
	return out
}

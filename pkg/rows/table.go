package rows

import "fmt"

// Table is an ordered, mutable collection of rows indexed by position.
// It is not safe for concurrent use.
type Table struct {
	rows []*Row
}

// NewTable creates a table holding the given rows.
func NewTable(rs ...*Row) *Table {
	return &Table{rows: rs}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Append adds a row at the end of the table.
func (t *Table) Append(r *Row) {
	t.rows = append(t.rows, r)
}

// At returns the row at position i.
func (t *Table) At(i int) *Row {
	return t.rows[i]
}

// Get returns field f of row i.
func (t *Table) Get(i int, f Field) string {
	return t.rows[i].Get(f)
}

// Set assigns field f of row i.
func (t *Table) Set(i int, f Field, v string) {
	t.rows[i].Set(f, v)
}

// Remove deletes the row at position i.
func (t *Table) Remove(i int) {
	t.RemoveRange(i, i+1)
}

// RemoveRange deletes rows [start, end).
func (t *Table) RemoveRange(start, end int) {
	if start < 0 || end > len(t.rows) || start > end {
		panic(fmt.Sprintf("rows: invalid range [%d, %d) for table of %d rows", start, end, len(t.rows)))
	}
	t.rows = append(t.rows[:start], t.rows[end:]...)
}

// Iterate walks the table front to back. fn receives the current position
// and row; returning true removes that row before moving on.
func (t *Table) Iterate(fn func(i int, r *Row) (remove bool)) {
	i := 0
	for i < len(t.rows) {
		if fn(i, t.rows[i]) {
			t.Remove(i)
			continue
		}
		i++
	}
}

// Rows returns a copy of the row slice.
func (t *Table) Rows() []*Row {
	out := make([]*Row, len(t.rows))
	copy(out, t.rows)
	return out
}

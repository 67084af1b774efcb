// Package dataset holds the in-memory columnar table model shared by the
// loader, classifier, predicate engine and exporters. A Table is immutable
// once built: every selection or projection returns a new Table that shares
// the underlying column storage of the surviving rows.
package dataset

import (
	"fmt"
	"strconv"
	"time"
)

// Kind is the physical value type of a column.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindTime
	KindOpaque
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "opaque"
	}
}

// Column is a homogeneous, row-aligned sequence of values. Exactly one of
// the typed slices is populated according to Kind. Valid marks non-missing
// cells; a false entry means the cell is missing regardless of the value
// stored in the typed slice.
type Column struct {
	Name    string
	Kind    Kind
	Strings []string  // KindString and KindOpaque
	Numbers []float64 // KindNumber
	Times   []int64   // KindTime, epoch milliseconds UTC
	Valid   []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	return len(c.Valid)
}

// CellString renders the cell at row i as a string. Missing cells render
// as the empty string; timestamps render as RFC 3339 UTC.
func (c *Column) CellString(i int) string {
	if !c.Valid[i] {
		return ""
	}
	switch c.Kind {
	case KindNumber:
		return strconv.FormatFloat(c.Numbers[i], 'g', -1, 64)
	case KindTime:
		return time.UnixMilli(c.Times[i]).UTC().Format(time.RFC3339)
	default:
		return c.Strings[i]
	}
}

// Table is an ordered collection of equally sized columns.
type Table struct {
	columns []*Column
	byName  map[string]int
}

// New builds a Table from the given columns. All columns must share the
// same row count and names must be unique.
func New(columns []*Column) (*Table, error) {
	byName := make(map[string]int, len(columns))
	rows := -1
	for i, col := range columns {
		if _, dup := byName[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		byName[col.Name] = i
		if rows == -1 {
			rows = col.Len()
		} else if col.Len() != rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), rows)
		}
	}
	return &Table{columns: columns, byName: byName}, nil
}

// NumRows returns the row count of the table.
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// NumCols returns the column count of the table.
func (t *Table) NumCols() int {
	return len(t.columns)
}

// Columns returns the columns in table order. Callers must not mutate the
// returned slice or the column storage.
func (t *Table) Columns() []*Column {
	return t.columns
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Select returns a new table containing only the rows where mask is true.
// The mask length must equal the row count; row order is preserved.
func (t *Table) Select(mask []bool) (*Table, error) {
	if len(mask) != t.NumRows() {
		return nil, fmt.Errorf("mask length %d does not match row count %d", len(mask), t.NumRows())
	}
	keep := 0
	for _, m := range mask {
		if m {
			keep++
		}
	}
	out := make([]*Column, len(t.columns))
	for ci, col := range t.columns {
		nc := &Column{
			Name:  col.Name,
			Kind:  col.Kind,
			Valid: make([]bool, 0, keep),
		}
		switch col.Kind {
		case KindNumber:
			nc.Numbers = make([]float64, 0, keep)
		case KindTime:
			nc.Times = make([]int64, 0, keep)
		default:
			nc.Strings = make([]string, 0, keep)
		}
		for ri, m := range mask {
			if !m {
				continue
			}
			nc.Valid = append(nc.Valid, col.Valid[ri])
			switch col.Kind {
			case KindNumber:
				nc.Numbers = append(nc.Numbers, col.Numbers[ri])
			case KindTime:
				nc.Times = append(nc.Times, col.Times[ri])
			default:
				nc.Strings = append(nc.Strings, col.Strings[ri])
			}
		}
		out[ci] = nc
	}
	return New(out)
}

// Project returns a new table containing the named columns in the given
// order. Column storage is shared with the receiver, which is safe because
// tables are never mutated after construction.
func (t *Table) Project(names []string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		col, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		cols = append(cols, col)
	}
	return New(cols)
}

// Slice returns a new table with rows in [start, end). Column storage is
// re-sliced, not copied.
func (t *Table) Slice(start, end int) (*Table, error) {
	if start < 0 || end < start || end > t.NumRows() {
		return nil, fmt.Errorf("invalid slice bounds [%d, %d) for %d rows", start, end, t.NumRows())
	}
	out := make([]*Column, len(t.columns))
	for i, col := range t.columns {
		nc := &Column{Name: col.Name, Kind: col.Kind, Valid: col.Valid[start:end]}
		switch col.Kind {
		case KindNumber:
			nc.Numbers = col.Numbers[start:end]
		case KindTime:
			nc.Times = col.Times[start:end]
		default:
			nc.Strings = col.Strings[start:end]
		}
		out[i] = nc
	}
	return New(out)
}

// Row renders row i of the table as strings, one per column.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.columns))
	for ci, col := range t.columns {
		out[ci] = col.CellString(i)
	}
	return out
}

// Package dataset provides the immutable in-memory table used for player statistics.
//
// A Dataset is an ordered sequence of records sharing one column set. Columns carry a
// Kind inferred from their cells when the dataset is built from raw text. Datasets are
// never mutated after construction; filtering produces a new Dataset that shares the
// underlying rows with its parent, so snapshots can be read concurrently without locks.
package dataset

import (
	"fmt"
	"math"
)

// Column describes one dataset column
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Record is one row of a Dataset, in column order
type Record []Value

// Dataset is an immutable table of records
type Dataset struct {
	name    string
	columns []Column
	index   map[string]int
	rows    []Record
}

// New builds a Dataset from a header row and raw text rows, inferring column kinds.
// Every row must have exactly as many cells as the header.
func New(name string, header []string, rows [][]string) (*Dataset, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("dataset %s: header row is empty", name)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; dup {
			return nil, fmt.Errorf("dataset %s: duplicate column %q", name, h)
		}
		index[h] = i
	}

	for r, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("dataset %s: row %d has %d fields, expected %d", name, r+1, len(row), len(header))
		}
	}

	columns := make([]Column, len(header))
	cells := make([]string, len(rows))
	for c, h := range header {
		for r, row := range rows {
			cells[r] = row[c]
		}
		columns[c] = Column{Name: h, Kind: InferKind(cells)}
	}

	records := make([]Record, len(rows))
	for r, row := range rows {
		rec := make(Record, len(header))
		for c := range header {
			rec[c] = ParseCell(row[c], columns[c].Kind)
		}
		records[r] = rec
	}

	return &Dataset{name: name, columns: columns, index: index, rows: records}, nil
}

// FromColumns builds a Dataset from already typed columns and records
func FromColumns(name string, columns []Column, rows []Record) (*Dataset, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c.Name]; dup {
			return nil, fmt.Errorf("dataset %s: duplicate column %q", name, c.Name)
		}
		index[c.Name] = i
	}
	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("dataset %s: row %d has %d fields, expected %d", name, r+1, len(row), len(columns))
		}
	}

	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &Dataset{name: name, columns: cols, index: index, rows: rows}, nil
}

// Empty returns a dataset with no columns and no rows
func Empty(name string) *Dataset {
	return &Dataset{name: name, index: map[string]int{}}
}

// Name returns the dataset name
func (d *Dataset) Name() string { return d.name }

// Len returns the number of records
func (d *Dataset) Len() int { return len(d.rows) }

// IsEmpty reports whether the dataset has no records
func (d *Dataset) IsEmpty() bool { return len(d.rows) == 0 }

// Columns returns a copy of the column descriptors in header order
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// ColumnNames returns the column names in header order
func (d *Dataset) ColumnNames() []string {
	out := make([]string, len(d.columns))
	for i, c := range d.columns {
		out[i] = c.Name
	}
	return out
}

// NumericColumns returns the names of Int and Float columns in header order
func (d *Dataset) NumericColumns() []string {
	out := make([]string, 0, len(d.columns))
	for _, c := range d.columns {
		if c.Kind.IsNumeric() {
			out = append(out, c.Name)
		}
	}
	return out
}

// HasColumn reports whether the named column exists
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column returns the descriptor of the named column
func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.columns[i], true
}

// Row returns the i-th record. The returned slice must not be modified.
func (d *Dataset) Row(i int) Record { return d.rows[i] }

// Value returns the cell at row i in the named column
func (d *Dataset) Value(i int, column string) (Value, bool) {
	c, ok := d.index[column]
	if !ok {
		return Null(), false
	}
	return d.rows[i][c], true
}

// Subset returns a dataset holding the rows at the given indices, in the given order.
// Rows are shared with the receiver.
func (d *Dataset) Subset(indices []int) *Dataset {
	rows := make([]Record, len(indices))
	for i, idx := range indices {
		rows[i] = d.rows[idx]
	}
	return &Dataset{name: d.name, columns: d.columns, index: d.index, rows: rows}
}

// Filter returns the subsequence of records for which keep returns true
func (d *Dataset) Filter(keep func(i int) bool) *Dataset {
	indices := make([]int, 0, len(d.rows))
	for i := range d.rows {
		if keep(i) {
			indices = append(indices, i)
		}
	}
	return d.Subset(indices)
}

// Max returns the largest numeric value in the column. It reports false when the
// column is missing or holds no numeric values.
func (d *Dataset) Max(column string) (float64, bool) {
	c, ok := d.index[column]
	if !ok {
		return 0, false
	}
	best := math.Inf(-1)
	found := false
	for _, row := range d.rows {
		if f, ok := row[c].Float64(); ok && f > best {
			best = f
			found = true
		}
	}
	return best, found
}

// Unique returns the distinct non-empty text values of a column in first-occurrence order
func (d *Dataset) Unique(column string) []string {
	c, ok := d.index[column]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, row := range d.rows {
		v := row[c]
		if v.IsNull() {
			continue
		}
		s := v.String()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Records returns every record as a column-name keyed map
func (d *Dataset) Records() []map[string]Value {
	out := make([]map[string]Value, len(d.rows))
	for r, row := range d.rows {
		m := make(map[string]Value, len(d.columns))
		for c, col := range d.columns {
			m[col.Name] = row[c]
		}
		out[r] = m
	}
	return out
}

// Table is the JSON shape of a dataset: header plus row-major cells
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Rows    []Record `json:"rows"`
}

// Table returns the dataset as a serializable table
func (d *Dataset) Table() Table {
	rows := d.rows
	if rows == nil {
		rows = []Record{}
	}
	return Table{Name: d.name, Columns: d.Columns(), Rows: rows}
}

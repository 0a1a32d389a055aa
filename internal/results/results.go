// Package results merges per-module result columns into shared per-entity tables.
package results

import (
	"fmt"
	"maps"
	"slices"
)

// Standard result tables.
const (
	ProjectPeriod       = "project_period"
	ProjectTimepoint    = "project_timepoint"
	TransmissionPeriod  = "transmission_period"
	TransmissionFlow    = "transmission_timepoint"
	ProjectNewBuild     = "project_new_build"
	SystemLoadBalance   = "system_load_balance"
	ReserveProvision    = "reserve_provision"
	defaultEntityColumn = "entity"
)

// Key identifies a row: an entity plus a period or timepoint.
type Key struct {
	Entity string
	Index  int
}

func (k Key) String() string {
	return fmt.Sprintf("%s,%d", k.Entity, k.Index)
}

// Value is a nullable numeric cell. The zero value is the null marker.
type Value struct {
	Float float64
	Valid bool
}

// Float returns a non-null value.
func Float(f float64) Value {
	return Value{Float: f, Valid: true}
}

// Null returns the missing-value marker.
func Null() Value {
	return Value{}
}

// Row is one keyed row of a table.
type Row struct {
	Key    Key
	Values map[string]Value
}

// Table is a keyed result table whose row set is fixed at creation.
type Table struct {
	Name         string
	EntityColumn string
	IndexColumn  string

	columns []string
	rows    []Row
	index   map[Key]int
}

// NewTable creates a table with one row per key and no value columns.
// Duplicate keys are ignored.
func NewTable(name, entityColumn, indexColumn string, keys []Key) *Table {
	if entityColumn == "" {
		entityColumn = defaultEntityColumn
	}
	t := &Table{
		Name:         name,
		EntityColumn: entityColumn,
		IndexColumn:  indexColumn,
		index:        make(map[Key]int, len(keys)),
	}
	for _, k := range keys {
		if _, ok := t.index[k]; ok {
			continue
		}
		t.index[k] = len(t.rows)
		t.rows = append(t.rows, Row{Key: k, Values: make(map[string]Value)})
	}
	return t
}

// Columns returns the value columns in the order they were added.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// HasColumn reports whether col is a value column.
func (t *Table) HasColumn(col string) bool {
	return slices.Contains(t.columns, col)
}

// AddColumn adds a value column filled with the null marker. Adding an existing
// column is a no-op.
func (t *Table) AddColumn(col string) {
	if t.HasColumn(col) {
		return
	}
	t.columns = append(t.columns, col)
	for i := range t.rows {
		t.rows[i].Values[col] = Null()
	}
}

// Keys returns the row keys in order.
func (t *Table) Keys() []Key {
	out := make([]Key, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Key
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns a deep copy of the rows.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = Row{Key: r.Key, Values: maps.Clone(r.Values)}
	}
	return out
}

// Get returns the cell at key/col.
func (t *Table) Get(key Key, col string) (Value, bool) {
	i, ok := t.index[key]
	if !ok {
		return Value{}, false
	}
	v, ok := t.rows[i].Values[col]
	return v, ok
}

// Set writes a cell. The key and column must exist.
func (t *Table) Set(key Key, col string, v Value) error {
	i, ok := t.index[key]
	if !ok {
		return &UnknownKeyError{Table: t.Name, Key: key}
	}
	if !t.HasColumn(col) {
		return fmt.Errorf("table %s has no column %q", t.Name, col)
	}
	t.rows[i].Values[col] = v
	return nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:         t.Name,
		EntityColumn: t.EntityColumn,
		IndexColumn:  t.IndexColumn,
		columns:      slices.Clone(t.columns),
		rows:         t.Rows(),
		index:        maps.Clone(t.index),
	}
	return out
}

// Contribution is one module's partial result: its own columns for the rows of
// the entities it models.
type Contribution struct {
	Table   string
	Module  string
	Columns []string
	Rows    []Row
}

// UnknownKeyError reports a contributed row whose key is not in the base table.
type UnknownKeyError struct {
	Table  string
	Module string
	Key    Key
}

func (e *UnknownKeyError) Error() string {
	if e.Module != "" {
		return fmt.Sprintf("module %s contributed row %s not present in table %s", e.Module, e.Key, e.Table)
	}
	return fmt.Sprintf("row %s not present in table %s", e.Key, e.Table)
}

// MergeResults left-joins module outputs onto base. New columns are first filled
// with the null marker for every row, then each contribution overwrites only the
// rows it carries. Contributions addressed to another table are skipped. base is
// not modified, and merging the same outputs again yields the same table.
func MergeResults(base *Table, outputs []Contribution) (*Table, error) {
	merged := base.Clone()

	for _, out := range outputs {
		if out.Table != "" && out.Table != base.Name {
			continue
		}
		for _, col := range out.Columns {
			merged.AddColumn(col)
		}
	}

	for _, out := range outputs {
		if out.Table != "" && out.Table != base.Name {
			continue
		}
		for _, row := range out.Rows {
			i, ok := merged.index[row.Key]
			if !ok {
				return nil, &UnknownKeyError{Table: base.Name, Module: out.Module, Key: row.Key}
			}
			for col, v := range row.Values {
				if !slices.Contains(out.Columns, col) {
					return nil, fmt.Errorf("module %s wrote undeclared column %q to table %s", out.Module, col, base.Name)
				}
				merged.rows[i].Values[col] = v
			}
		}
	}

	return merged, nil
}

// ForTable filters contributions addressed to name.
func ForTable(outputs []Contribution, name string) []Contribution {
	var out []Contribution
	for _, c := range outputs {
		if c.Table == name {
			out = append(out, c)
		}
	}
	return out
}

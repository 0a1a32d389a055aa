// Package inputs reads and writes the tab-delimited per-scenario input files the
// model build consumes. A missing optional column means "use the default"; a
// "." cell means no value for that row.
package inputs

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/gridforge/gridforge/internal/errors"
)

// Missing is the cell marker for "no value".
const Missing = "."

// Table is an in-memory tab file: a header plus string rows.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string

	cols map[string]int
}

// NewTable creates an empty table with the given columns.
func NewTable(name string, header ...string) *Table {
	t := &Table{Name: name, Header: slices.Clone(header)}
	t.index()
	return t
}

func (t *Table) index() {
	t.cols = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		t.cols[h] = i
	}
}

// Has reports whether the table has column col.
func (t *Table) Has(col string) bool {
	_, ok := t.cols[col]
	return ok
}

// Append adds a row. Values are formatted with Format.
func (t *Table) Append(values ...any) error {
	if len(values) != len(t.Header) {
		return fmt.Errorf("%s: row has %d values, header has %d", t.Name, len(values), len(t.Header))
	}
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = Format(v)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Records returns row accessors.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.Rows))
	for i := range t.Rows {
		out[i] = Record{table: t, line: i + 2, values: t.Rows[i]}
	}
	return out
}

// Format renders a cell value. Nil pointers render as Missing.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return Missing
	case string:
		if x == "" {
			return Missing
		}
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case *float64:
		if x == nil {
			return Missing
		}
		return strconv.FormatFloat(*x, 'g', -1, 64)
	case *string:
		if x == nil || *x == "" {
			return Missing
		}
		return *x
	case *int:
		if x == nil {
			return Missing
		}
		return strconv.Itoa(*x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(x)
	}
}

// Record is one data row.
type Record struct {
	table  *Table
	line   int
	values []string
}

// Line returns the 1-based file line of the record.
func (r Record) Line() int {
	return r.line
}

func (r Record) raw(col string) (string, bool) {
	i, ok := r.table.cols[col]
	if !ok || i >= len(r.values) {
		return "", false
	}
	return r.values[i], true
}

// String returns a required text cell.
func (r Record) String(col string) (string, error) {
	v, ok := r.raw(col)
	if !ok {
		return "", r.missingColumn(col)
	}
	return v, nil
}

// OptString returns a text cell, false when the column is absent or the cell is Missing.
func (r Record) OptString(col string) (string, bool) {
	v, ok := r.raw(col)
	if !ok || v == Missing || v == "" {
		return "", false
	}
	return v, true
}

// Float returns a required numeric cell.
func (r Record) Float(col string) (float64, error) {
	v, ok := r.raw(col)
	if !ok {
		return 0, r.missingColumn(col)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, r.badValue(col, v)
	}
	return f, nil
}

// OptFloat returns a numeric cell, false when the column is absent or the cell is Missing.
func (r Record) OptFloat(col string) (float64, bool, error) {
	v, ok := r.raw(col)
	if !ok || v == Missing || v == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, r.badValue(col, v)
	}
	return f, true, nil
}

// Int returns a required integer cell.
func (r Record) Int(col string) (int, error) {
	v, ok := r.raw(col)
	if !ok {
		return 0, r.missingColumn(col)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, r.badValue(col, v)
	}
	return i, nil
}

func (r Record) missingColumn(col string) error {
	return errors.Newf("%s: missing column %q", r.table.Name, col).
		Component("inputs").
		Category(errors.CategoryFileParsing).
		Context("columns", r.table.Header).
		Build()
}

func (r Record) badValue(col, v string) error {
	return errors.Newf("%s line %d: invalid %s %q", r.table.Name, r.line, col, v).
		Component("inputs").
		Category(errors.CategoryFileParsing).
		Build()
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = 0
	cr.LazyQuotes = true
	return cr
}

// Read parses a tab file.
func Read(r io.Reader, name string) (*Table, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.Newf("%s: empty file", name).
				Component("inputs").
				Category(errors.CategoryFileParsing).
				Build()
		}
		return nil, errors.New(err).Component("inputs").Category(errors.CategoryFileParsing).Context("file", name).Build()
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.New(err).Component("inputs").Category(errors.CategoryFileParsing).Context("file", name).Build()
	}
	t := &Table{Name: name, Header: header, Rows: rows}
	t.index()
	return t, nil
}

// ReadFile reads dir/name.
func ReadFile(dir, name string) (*Table, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path) //nolint:gosec // inputs directory is derived from settings
	if err != nil {
		return nil, errors.FileError(err, path)
	}
	defer func() { _ = f.Close() }()
	return Read(f, name)
}

// ReadOptional reads dir/name, returning nil without error when the file does not exist.
func ReadOptional(dir, name string) (*Table, error) {
	t, err := ReadFile(dir, name)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return t, err
}

// Exists reports whether dir/name exists.
func Exists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

// Write writes the table as tab-delimited text.
func Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile writes the table to dir/t.Name, creating dir if needed.
func WriteFile(dir string, t *Table) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.FileError(err, dir)
	}
	path := filepath.Join(dir, t.Name)
	f, err := os.Create(path) //nolint:gosec // inputs directory is derived from settings
	if err != nil {
		return errors.FileError(err, path)
	}
	if err := Write(f, t); err != nil {
		_ = f.Close()
		return errors.FileError(err, path)
	}
	if err := f.Close(); err != nil {
		return errors.FileError(err, path)
	}
	return nil
}

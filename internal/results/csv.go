package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WriteCSV writes the table with a header row. Null cells are written empty.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	header := append([]string{t.EntityColumn, t.IndexColumn}, t.columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, row := range t.rows {
		record[0] = row.Key.Entity
		record[1] = strconv.Itoa(row.Key.Index)
		for i, col := range t.columns {
			v := row.Values[col]
			if !v.Valid {
				record[i+2] = ""
				continue
			}
			record[i+2] = strconv.FormatFloat(v.Float, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", name, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("results file %s: need entity and index columns, got %v", name, header)
	}

	var (
		keys   []Key
		values [][]string
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		idx, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("results file %s: invalid %s %q", name, header[1], record[1])
		}
		keys = append(keys, Key{Entity: record[0], Index: idx})
		values = append(values, record[2:])
	}

	t := NewTable(name, header[0], header[1], keys)
	for _, col := range header[2:] {
		t.AddColumn(col)
	}
	for i, key := range keys {
		for j, raw := range values[i] {
			if raw == "" {
				continue
			}
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("results file %s: row %s column %s: %w", name, key, header[j+2], err)
			}
			if err := t.Set(key, header[j+2], Float(f)); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// WriteCSVFile writes t to dir/<name>.csv, creating dir if needed.
func WriteCSVFile(dir string, t *Table) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, t.Name+".csv")) //nolint:gosec // results directory is derived from settings
	if err != nil {
		return err
	}
	if err := WriteCSV(f, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadCSVFile reads a table written by WriteCSVFile. The table is named after
// the file.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // results directory is derived from settings
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f, strings.TrimSuffix(filepath.Base(path), ".csv"))
}

package datastore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gridforge/gridforge/internal/errors"
)

// CSVStructureFile is the file at the CSV location that maps subscenarios to
// directories.
const CSVStructureFile = "csv_structure.csv"

// CSVEntry is one row of csv_structure.csv.
type CSVEntry struct {
	Subscenario  string
	Directory    string
	ProjectInput bool
}

// CSVStructure maps subscenario name to its entry.
type CSVStructure map[string]CSVEntry

// ReadCSVStructure parses csv_structure.csv at csvLocation. Malformed rows are
// configuration errors.
func ReadCSVStructure(csvLocation string) (CSVStructure, error) {
	path := filepath.Join(csvLocation, CSVStructureFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.FileError(fmt.Errorf("failed to open csv structure: %w", err), path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, structureError(path, 1, "missing header: %v", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"subscenario", "directory", "project_input"} {
		if _, ok := cols[required]; !ok {
			return nil, structureError(path, 1, "missing column %q", required)
		}
	}

	structure := make(CSVStructure)
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, structureError(path, line, "%v", err)
		}

		entry := CSVEntry{
			Subscenario: strings.TrimSpace(record[cols["subscenario"]]),
			Directory:   strings.TrimSpace(record[cols["directory"]]),
		}
		if entry.Subscenario == "" || entry.Directory == "" {
			return nil, structureError(path, line, "subscenario and directory are required")
		}
		projectInput, err := strconv.ParseBool(strings.TrimSpace(record[cols["project_input"]]))
		if err != nil {
			return nil, structureError(path, line, "invalid project_input %q", record[cols["project_input"]])
		}
		entry.ProjectInput = projectInput

		sub, err := LookupSubscenario(entry.Subscenario)
		if err != nil {
			return nil, structureError(path, line, "unknown subscenario %q", entry.Subscenario)
		}
		if sub.ProjectLevel != entry.ProjectInput {
			return nil, structureError(path, line, "subscenario %q project_input must be %t", entry.Subscenario, sub.ProjectLevel)
		}
		if _, dup := structure[entry.Subscenario]; dup {
			return nil, structureError(path, line, "duplicate subscenario %q", entry.Subscenario)
		}
		structure[entry.Subscenario] = entry
	}
	return structure, nil
}

func structureError(path string, line int, format string, args ...any) error {
	return errors.Newf("%s line %d: "+format, append([]any{CSVStructureFile, line}, args...)...).
		Component("datastore").
		Category(errors.CategoryConfiguration).
		FileContext(path).
		Context("line", line).
		Build()
}

// TableData is the rows destined for one input table.
type TableData struct {
	Table  string
	Source string
	Rows   []map[string]any
}

// Dataset is a parsed subscenario ready to import.
type Dataset struct {
	Subscenario Subscenario
	ID          uint
	Project     string
	Name        string
	Tables      []TableData
}

// RowCount returns the total number of input rows.
func (d *Dataset) RowCount() int {
	n := 0
	for _, t := range d.Tables {
		n += len(t.Rows)
	}
	return n
}

// LoadCSVDataset reads the CSV files of one subscenario id. Files are named
// <id>_<name>.csv, or <project>-<id>_<name>.csv for project-level subscenarios.
func LoadCSVDataset(csvLocation string, structure CSVStructure, sub Subscenario, id uint, project string) (*Dataset, error) {
	entry, ok := structure[sub.Name]
	if !ok {
		return nil, errors.Newf("subscenario %q is not listed in %s", sub.Name, CSVStructureFile).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Context("subscenario", sub.Name).
			Build()
	}

	prefix := fmt.Sprintf("%d_", id)
	if sub.ProjectLevel {
		prefix = fmt.Sprintf("%s-%d_", project, id)
	}

	ds := &Dataset{Subscenario: sub, ID: id, Project: project}
	for _, input := range sub.Inputs {
		dir := filepath.Join(csvLocation, entry.Directory, input.Dir)
		path, name, err := findSubscenarioFile(dir, prefix)
		if err != nil {
			return nil, err
		}
		if ds.Name == "" {
			ds.Name = name
		}

		rows, err := readCSVRows(path)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			row[sub.IDColumn] = id
			if sub.ProjectLevel {
				row["project"] = project
			}
		}
		ds.Tables = append(ds.Tables, TableData{Table: input.Table, Source: path, Rows: rows})
	}
	return ds, nil
}

// findSubscenarioFile returns the single CSV file in dir starting with prefix
// and the name encoded after the prefix.
func findSubscenarioFile(dir, prefix string) (path, name string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", errors.FileError(fmt.Errorf("failed to list csv directory: %w", err), dir)
	}

	var matches []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || filepath.Ext(e.Name()) != ".csv" {
			continue
		}
		matches = append(matches, e.Name())
	}

	switch len(matches) {
	case 0:
		return "", "", errors.Newf("no %s*.csv file in %s", prefix, dir).
			Component("datastore").
			Category(errors.CategoryNotFound).
			FileContext(dir).
			Build()
	case 1:
		file := matches[0]
		return filepath.Join(dir, file), strings.TrimSuffix(strings.TrimPrefix(file, prefix), ".csv"), nil
	default:
		return "", "", errors.Newf("multiple %s*.csv files in %s: %s", prefix, dir, strings.Join(matches, ", ")).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			FileContext(dir).
			Build()
	}
}

// readCSVRows reads a CSV with a header into column maps. Empty cells are NULL.
func readCSVRows(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.FileError(err, path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, errors.New(fmt.Errorf("%s: missing header: %w", filepath.Base(path), err)).
			Component("datastore").
			Category(errors.CategoryFileParsing).
			FileContext(path).
			Build()
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]any
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(fmt.Errorf("%s: %w", filepath.Base(path), err)).
				Component("datastore").
				Category(errors.CategoryFileParsing).
				FileContext(path).
				Build()
		}
		row := make(map[string]any, len(header)+2)
		for i, col := range header {
			v := strings.TrimSpace(record[i])
			if v == "" {
				row[col] = nil
				continue
			}
			row[col] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

package core

import (
	"github.com/gridforge/gridforge/internal/inputs"
)

// RecordsOfType returns the rows of dir/file whose column equals name. Subtype
// modules use it to pick their own entities out of projects.tab and
// transmission_lines.tab.
func RecordsOfType(dir, file, column, name string) ([]inputs.Record, error) {
	t, err := inputs.ReadFile(dir, file)
	if err != nil {
		return nil, err
	}
	var out []inputs.Record
	for _, r := range t.Records() {
		v, err := r.String(column)
		if err != nil {
			return nil, err
		}
		if v == name {
			out = append(out, r)
		}
	}
	return out, nil
}

// EntitiesOfType is RecordsOfType reduced to the entity column.
func EntitiesOfType(dir, file, entityColumn, column, name string) ([]string, error) {
	recs, err := RecordsOfType(dir, file, column, name)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		e, err := r.String(entityColumn)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

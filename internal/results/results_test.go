package results

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseTable() *Table {
	return NewTable(ProjectPeriod, "project", "period", []Key{
		{"gen_a", 2025}, {"gen_a", 2030},
		{"gen_b", 2025}, {"gen_b", 2030},
		{"stor_c", 2025}, {"stor_c", 2030},
	})
}

func moduleOutputs() []Contribution {
	return []Contribution{
		{
			Table:   ProjectPeriod,
			Module:  "gen_new_lin",
			Columns: []string{"new_build_mw"},
			Rows: []Row{
				{Key: Key{"gen_b", 2025}, Values: map[string]Value{"new_build_mw": Float(50)}},
				{Key: Key{"gen_b", 2030}, Values: map[string]Value{"new_build_mw": Float(0)}},
			},
		},
		{
			Table:   ProjectPeriod,
			Module:  "stor_spec",
			Columns: []string{"capacity_mwh"},
			Rows: []Row{
				{Key: Key{"stor_c", 2025}, Values: map[string]Value{"capacity_mwh": Float(400)}},
			},
		},
		{
			Table:   ProjectTimepoint,
			Module:  "gen_var",
			Columns: []string{"curtailment_mw"},
		},
	}
}

func TestMergeResults_LeftJoinAndUpdate(t *testing.T) {
	t.Parallel()

	base := baseTable()
	merged, err := MergeResults(base, moduleOutputs())
	require.NoError(t, err)

	assert.Equal(t, []string{"new_build_mw", "capacity_mwh"}, merged.Columns())
	assert.Equal(t, 6, merged.Len(), "row set fixed by base")

	v, ok := merged.Get(Key{"gen_b", 2025}, "new_build_mw")
	require.True(t, ok)
	assert.Equal(t, Float(50), v)

	v, ok = merged.Get(Key{"gen_b", 2030}, "new_build_mw")
	require.True(t, ok)
	assert.Equal(t, Float(0), v, "explicit zero is not null")

	v, ok = merged.Get(Key{"gen_a", 2025}, "new_build_mw")
	require.True(t, ok)
	assert.False(t, v.Valid, "other entities keep the null marker")

	v, ok = merged.Get(Key{"stor_c", 2030}, "capacity_mwh")
	require.True(t, ok)
	assert.False(t, v.Valid)

	assert.False(t, merged.HasColumn("curtailment_mw"), "other tables' contributions are skipped")
	assert.Empty(t, base.Columns(), "base left untouched")
}

func TestMergeResults_Idempotent(t *testing.T) {
	t.Parallel()

	once, err := MergeResults(baseTable(), moduleOutputs())
	require.NoError(t, err)
	twice, err := MergeResults(once, moduleOutputs())
	require.NoError(t, err)

	assert.Equal(t, once.Columns(), twice.Columns())
	assert.Equal(t, once.Rows(), twice.Rows())
}

func TestMergeResults_UnknownKey(t *testing.T) {
	t.Parallel()

	_, err := MergeResults(baseTable(), []Contribution{{
		Table:   ProjectPeriod,
		Module:  "gen_spec",
		Columns: []string{"capacity_mw"},
		Rows:    []Row{{Key: Key{"gen_z", 2025}, Values: map[string]Value{"capacity_mw": Float(1)}}},
	}})

	var keyErr *UnknownKeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "gen_spec", keyErr.Module)
}

func TestMergeResults_UndeclaredColumn(t *testing.T) {
	t.Parallel()

	_, err := MergeResults(baseTable(), []Contribution{{
		Table:   ProjectPeriod,
		Module:  "gen_spec",
		Columns: []string{"capacity_mw"},
		Rows:    []Row{{Key: Key{"gen_a", 2025}, Values: map[string]Value{"other": Float(1)}}},
	}})
	require.Error(t, err)
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	merged, err := MergeResults(baseTable(), moduleOutputs())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, merged))
	assert.Contains(t, buf.String(), "project,period,new_build_mw,capacity_mwh\n")
	assert.Contains(t, buf.String(), "gen_a,2025,,\n")

	read, err := ReadCSV(&buf, ProjectPeriod)
	require.NoError(t, err)
	assert.Equal(t, merged.Rows(), read.Rows())
	assert.Equal(t, "project", read.EntityColumn)
}

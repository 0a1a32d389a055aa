package inputs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/gridforge/internal/errors"
)

func TestRead_OptionalColumns(t *testing.T) {
	t.Parallel()

	in := "project\tcapacity_type\tregulation_up\n" +
		"gen_a\tgen_spec\tba_1\n" +
		"gen_b\tgen_new_lin\t.\n"
	tbl, err := Read(strings.NewReader(in), "projects.tab")
	require.NoError(t, err)
	require.Len(t, tbl.Records(), 2)
	assert.True(t, tbl.Has("regulation_up"))
	assert.False(t, tbl.Has("regulation_down"))

	recs := tbl.Records()
	ba, ok := recs[0].OptString("regulation_up")
	assert.True(t, ok)
	assert.Equal(t, "ba_1", ba)

	_, ok = recs[1].OptString("regulation_up")
	assert.False(t, ok, "missing marker")

	_, ok = recs[0].OptString("regulation_down")
	assert.False(t, ok, "absent column")

	_, err = recs[0].String("operational_type")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestRecord_Numbers(t *testing.T) {
	t.Parallel()

	in := "period\tdiscount_factor\tderate\n2025\t0.95\t.\n2030\tabc\t0.9\n"
	tbl, err := Read(strings.NewReader(in), "periods.tab")
	require.NoError(t, err)
	recs := tbl.Records()

	p, err := recs[0].Int("period")
	require.NoError(t, err)
	assert.Equal(t, 2025, p)

	df, err := recs[0].Float("discount_factor")
	require.NoError(t, err)
	assert.InDelta(t, 0.95, df, 0)

	_, ok, err := recs[0].OptFloat("derate")
	require.NoError(t, err)
	assert.False(t, ok)

	d, ok, err := recs[1].OptFloat("derate")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 0.9, d, 0)

	_, err = recs[1].Float("discount_factor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestWriteRead_RoundTrip(t *testing.T) {
	t.Parallel()

	lifetime := 30.0
	tbl := NewTable("new_build.tab", "project", "vintage", "lifetime_yrs", "max_mw")
	require.NoError(t, tbl.Append("gen_b", 2025, &lifetime, (*float64)(nil)))
	require.Error(t, tbl.Append("gen_b"))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tbl))
	assert.Equal(t, "project\tvintage\tlifetime_yrs\tmax_mw\ngen_b\t2025\t30\t.\n", buf.String())

	back, err := Read(&buf, "new_build.tab")
	require.NoError(t, err)
	assert.Equal(t, tbl.Header, back.Header)
	assert.Equal(t, tbl.Rows, back.Rows)
}

func TestFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tbl := NewTable("load_zones.tab", "load_zone", "unserved_energy_penalty_per_mwh")
	require.NoError(t, tbl.Append("zone_1", 10000.0))
	require.NoError(t, WriteFile(dir, tbl))
	assert.True(t, Exists(dir, "load_zones.tab"))

	back, err := ReadFile(dir, "load_zones.tab")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"zone_1", "10000"}}, back.Rows)

	missing, err := ReadOptional(dir, "nope.tab")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = ReadFile(dir, "nope.tab")
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestRead_Empty(t *testing.T) {
	t.Parallel()

	_, err := Read(strings.NewReader(""), "empty.tab")
	require.Error(t, err)
}

package reserves

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/results"
	"github.com/gridforge/gridforge/internal/subtype"
)

func writeTab(t *testing.T, dir, name string, rows ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = strings.Join(strings.Fields(r), "\t")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o600))
}

// setup writes two timepoints and three projects: a and b enrolled in
// regulation_up in ba1 (a derated to half) and c enrolled nowhere.
func setup(t *testing.T) (*model.Model, *dynamic.Components, subtype.BuildInfo) {
	t.Helper()
	b := subtype.BuildInfo{ScenarioDirectory: t.TempDir()}
	dir := b.InputsDir()
	writeTab(t, dir, core.PeriodsFile, "period start_year end_year", "2025 2025 2029")
	writeTab(t, dir, core.TimepointsFile, "timepoint period", "1 2025", "2 2025")
	writeTab(t, dir, core.ProjectsFile,
		"project capacity_type operational_type load_zone regulation_up regulation_up_derate regulation_down",
		"a gen_spec gen_simple z ba1 0.5 ba1",
		"b gen_spec gen_simple z ba1 . .",
		"c gen_spec gen_simple z . . .")

	m := model.New("reserves")
	require.NoError(t, core.LoadTemporal(m, dir))
	tmps := model.NewSet[model.EntityTimepoint](core.SetProjectOperationalTimepoints)
	for _, prj := range []string{"a", "b", "c"} {
		for _, tmp := range []int{1, 2} {
			tmps.Add(model.EntityTimepoint{Entity: prj, Timepoint: tmp})
		}
	}
	require.NoError(t, model.AddSet(m, tmps))
	return m, dynamic.New(), b
}

func build(t *testing.T, r *reserve, m *model.Model, d *dynamic.Components, b subtype.BuildInfo) {
	t.Helper()
	require.NoError(t, r.LoadModelData(m, d, b))
	require.NoError(t, r.AddModelComponents(m, d, b))
}

func TestRegister(t *testing.T) {
	t.Parallel()

	c := subtype.NewCatalog()
	Register(c)
	assert.Equal(t, []string{RegulationDown, RegulationUp, SpinningReserves}, c.Names(subtype.Reserve))
}

func TestReserve_Names(t *testing.T) {
	t.Parallel()

	r := newReserve(SpinningReserves, true)
	assert.Equal(t, "Provide_Spinning_Reserves_MW", r.provisionVar())
	assert.Equal(t, "spinning_reserves_requirement.tab", r.requirementFile())
	assert.Equal(t, "SPINNING_RESERVES", r.upper())
}

func TestRegulationUp(t *testing.T) {
	t.Parallel()

	m, d, b := setup(t)
	writeTab(t, b.InputsDir(), "regulation_up_requirement.tab",
		"ba timepoint requirement_mw",
		"ba1 1 30")
	r := newReserve(RegulationUp, true)
	build(t, r, m, d, b)

	assert.Equal(t, []string{"a", "b"}, model.MustSet[string](m, "REGULATION_UP_PRJS").Items())
	assert.Len(t, m.VarsInFamily("Provide_Regulation_Up_MW"), 4)
	assert.Equal(t, []string{"Provide_Regulation_Up_MW"}, d.HeadroomVariables.Get("a"))
	assert.Empty(t, d.HeadroomVariables.Get("c"))
	assert.Empty(t, d.FootroomVariables.Get("a"))
	param, ok := d.ReserveDerateParamByVariable.Get("Provide_Regulation_Up_MW")
	require.True(t, ok)
	assert.Equal(t, "regulation_up_derate", param)

	a1, _ := m.VarRef("Provide_Regulation_Up_MW", model.EntityTimepoint{Entity: "a", Timepoint: 1})
	b1, _ := m.VarRef("Provide_Regulation_Up_MW", model.EntityTimepoint{Entity: "b", Timepoint: 1})
	req, ok := m.Constraint("Meet_regulation_up_requirement", model.ZoneTimepoint{Zone: "ba1", Timepoint: 1})
	require.True(t, ok)
	assert.Equal(t, model.GreaterEqual, req.Sense)
	assert.InDelta(t, 30.0, req.RHS, 1e-9)
	assert.InDelta(t, 0.5, req.Expr.Coefficient(a1), 1e-9)
	assert.InDelta(t, 1.0, req.Expr.Coefficient(b1), 1e-9)

	// no requirement row for timepoint 2
	_, ok = m.Constraint("Meet_regulation_up_requirement", model.ZoneTimepoint{Zone: "ba1", Timepoint: 2})
	assert.False(t, ok)

	sol := &model.Solution{Values: map[model.VarID]float64{a1: 12}}
	out, err := r.ExportResults(m, d, sol)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, results.ReserveProvision, out[0].Table)
	assert.Equal(t, []string{"provide_regulation_up_mw"}, out[0].Columns)
	assert.InDelta(t, 12.0, out[0].Rows[0].Values["provide_regulation_up_mw"].Float, 1e-9)
}

func TestRegulationDown_WithoutRequirementFile(t *testing.T) {
	t.Parallel()

	m, d, b := setup(t)
	r := newReserve(RegulationDown, false)
	build(t, r, m, d, b)

	assert.Equal(t, []string{"a"}, model.MustSet[string](m, "REGULATION_DOWN_PRJS").Items())
	assert.Equal(t, []string{"Provide_Regulation_Down_MW"}, d.FootroomVariables.Get("a"))
	assert.Empty(t, d.HeadroomVariables.Get("a"))
	assert.Zero(t, model.MustSet[string](m, "REGULATION_DOWN_BAS").Len())
	for _, c := range m.Constraints() {
		assert.NotEqual(t, "Meet_regulation_down_requirement", c.Family)
	}
}

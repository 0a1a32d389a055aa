package operations

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/model"
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

// setup writes one period with timepoints 1..3 and the given projects.tab
// rows, and declares what the project capacity aggregation would: every
// project operates in every timepoint with 100 MW and 400 MWh.
func setup(t *testing.T, projects ...string) (*model.Model, *dynamic.Components, subtype.BuildInfo) {
	t.Helper()
	b := subtype.BuildInfo{ScenarioDirectory: t.TempDir()}
	dir := b.InputsDir()
	writeTab(t, dir, core.PeriodsFile, "period start_year end_year", "2025 2025 2029")
	writeTab(t, dir, core.TimepointsFile, "timepoint period", "1 2025", "2 2025", "3 2025")
	writeTab(t, dir, core.ProjectsFile, append([]string{
		"project capacity_type operational_type load_zone variable_om_cost_per_mwh min_stable_level_fraction charging_efficiency discharging_efficiency",
	}, projects...)...)

	m := model.New("operations")
	require.NoError(t, core.LoadTemporal(m, dir))
	tmps := model.NewSet[model.EntityTimepoint](core.SetProjectOperationalTimepoints)
	for _, row := range projects {
		prj := strings.Fields(row)[0]
		k := model.EntityPeriod{Entity: prj, Period: 2025}
		m.SetExpression(core.ExprCapacity, k, model.Const(100))
		m.SetExpression(core.ExprEnergyCapacity, k, model.Const(400))
		for _, tmp := range []int{1, 2, 3} {
			tmps.Add(model.EntityTimepoint{Entity: prj, Timepoint: tmp})
		}
	}
	require.NoError(t, model.AddSet(m, tmps))
	return m, dynamic.New(), b
}

func module(t *testing.T, name string) subtype.Module {
	t.Helper()
	c := subtype.NewCatalog()
	Register(c)
	mods, err := subtype.LoadSubtypeModules(c, []string{name}, subtype.OperationalType, nil)
	require.NoError(t, err)
	return mods[name]
}

func addComponents(t *testing.T, mod subtype.Module, m *model.Model, d *dynamic.Components, b subtype.BuildInfo) error {
	t.Helper()
	require.NoError(t, mod.(subtype.DataLoader).LoadModelData(m, d, b))
	return mod.AddModelComponents(m, d, b)
}

func TestGenSimple(t *testing.T) {
	t.Parallel()

	m, d, b := setup(t,
		"g gen_spec gen_simple z 3 0.4 . .",
		"s gen_spec stor z . . . .")
	key := model.EntityTimepoint{Entity: "g", Timepoint: 2}
	up, err := m.AddVar("Provide_Up_MW", key, model.NonNegative())
	require.NoError(t, err)
	require.NoError(t, d.HeadroomVariables.Append("g", "Provide_Up_MW"))

	mod := module(t, GenSimple)
	require.NoError(t, addComponents(t, mod, m, d, b))

	assert.Equal(t, []model.EntityTimepoint{{Entity: "g", Timepoint: 1}, {Entity: "g", Timepoint: 2}, {Entity: "g", Timepoint: 3}},
		model.MustSet[model.EntityTimepoint](m, "GEN_SIMPLE_OPR_TMPS").Items())

	power, ok := m.VarRef(genSimplePower, key)
	require.True(t, ok)
	maxPower, ok := m.Constraint("GenSimple_Max_Power_Constraint", key)
	require.True(t, ok)
	assert.InDelta(t, 1.0, maxPower.Expr.Coefficient(up), 1e-9)
	assert.InDelta(t, 100.0, maxPower.RHS, 1e-9)

	minPower, ok := m.Constraint("GenSimple_Min_Power_Constraint", key)
	require.True(t, ok)
	assert.InDelta(t, 40.0, minPower.RHS, 1e-9)

	ruler := mod.(subtype.VariableCostRuler)
	assert.InDelta(t, 3.0, ruler.VariableCostRule(m, "g", 2).Coefficient(power), 1e-9)
}

func TestGenMustRun(t *testing.T) {
	t.Parallel()

	m, d, b := setup(t, "n gen_spec gen_must_run z 1 . . .")
	mod := module(t, GenMustRun)
	require.NoError(t, addComponents(t, mod, m, d, b))

	provision := mod.(subtype.PowerProvisionRuler).PowerProvisionRule(m, "n", 1)
	assert.True(t, provision.IsConstant())
	assert.InDelta(t, 100.0, provision.Constant, 1e-9)
	assert.Empty(t, m.VarsInFamily(genSimplePower))
}

func TestGenMustRun_RejectsReserves(t *testing.T) {
	t.Parallel()

	m, d, b := setup(t, "n gen_spec gen_must_run z 1 . . .")
	require.NoError(t, d.FootroomVariables.Append("n", "Provide_Down_MW"))

	err := addComponents(t, module(t, GenMustRun), m, d, b)
	var notSupported *ReserveNotSupportedError
	require.ErrorAs(t, err, &notSupported)
	assert.Equal(t, "n", notSupported.Project)
	assert.True(t, errors.IsConfiguration(err))
}

func TestGenVar(t *testing.T) {
	t.Parallel()

	m, d, b := setup(t, "w gen_new_lin gen_var z . . . .")
	writeTab(t, b.InputsDir(), genVarProfileFile,
		"project timepoint cap_factor",
		"w 1 0.5", "w 2 0.25", "w 3 0", "other 1 1")

	mod := module(t, GenVar)
	require.NoError(t, addComponents(t, mod, m, d, b))

	maxPower, ok := m.Constraint("GenVar_Max_Power_Constraint", model.EntityTimepoint{Entity: "w", Timepoint: 2})
	require.True(t, ok)
	assert.InDelta(t, 25.0, maxPower.RHS, 1e-9)

	power, _ := m.VarRef(genVarPower, model.EntityTimepoint{Entity: "w", Timepoint: 1})
	sol := &model.Solution{Values: map[model.VarID]float64{power: 30}}
	out, err := mod.(subtype.ResultsExporter).ExportResults(m, d, sol)
	require.NoError(t, err)
	require.Len(t, out, 1)
	first := out[0].Rows[0]
	assert.InDelta(t, 20.0, first.Values["scheduled_curtailment_mw"].Float, 1e-9)
}

func TestGenVar_MissingProfile(t *testing.T) {
	t.Parallel()

	m, d, b := setup(t, "w gen_new_lin gen_var z . . . .")
	writeTab(t, b.InputsDir(), genVarProfileFile,
		"project timepoint cap_factor",
		"w 1 0.5", "w 2 0.25")

	err := addComponents(t, module(t, GenVar), m, d, b)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryModelBuild))
	assert.Contains(t, err.Error(), "timepoint 3")
}

func TestStor(t *testing.T) {
	t.Parallel()

	m, d, b := setup(t, "bat stor_spec stor z 0.5 . 0.9 0.8")
	mod := module(t, Stor)
	require.NoError(t, addComponents(t, mod, m, d, b))

	last := model.EntityTimepoint{Entity: "bat", Timepoint: 3}
	first := model.EntityTimepoint{Entity: "bat", Timepoint: 1}
	soc1, _ := m.VarRef(storEnergy, first)
	soc3, _ := m.VarRef(storEnergy, last)
	charge3, _ := m.VarRef(storCharge, last)
	discharge3, _ := m.VarRef(storDischarge, last)

	// the last timepoint of the period wraps to the first
	tracking, ok := m.Constraint("Stor_Energy_Tracking_Constraint", last)
	require.True(t, ok)
	assert.Equal(t, model.Equal, tracking.Sense)
	assert.InDelta(t, 1.0, tracking.Expr.Coefficient(soc1), 1e-9)
	assert.InDelta(t, -1.0, tracking.Expr.Coefficient(soc3), 1e-9)
	assert.InDelta(t, -0.9, tracking.Expr.Coefficient(charge3), 1e-9)
	assert.InDelta(t, 1.25, tracking.Expr.Coefficient(discharge3), 1e-9)

	maxEnergy, ok := m.Constraint("Stor_Max_Energy_Constraint", last)
	require.True(t, ok)
	assert.InDelta(t, 400.0, maxEnergy.RHS, 1e-9)

	provision := mod.(subtype.PowerProvisionRuler).PowerProvisionRule(m, "bat", 3)
	assert.InDelta(t, 1.0, provision.Coefficient(discharge3), 1e-9)
	assert.InDelta(t, -1.0, provision.Coefficient(charge3), 1e-9)
}

func TestStor_BadEfficiency(t *testing.T) {
	t.Parallel()

	m, d, b := setup(t, "bat stor_spec stor z . . 1.2 .")
	err := addComponents(t, module(t, Stor), m, d, b)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "charging_efficiency")
}

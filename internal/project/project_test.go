package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/dispatch"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/subtype"
)

func writeTab(t *testing.T, dir, name string, rows ...string) {
	t.Helper()
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = strings.Join(strings.Fields(r), "\t")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o600))
}

// constCapacity operates its projects in every period with a fixed capacity
// and pays for them in every period too.
type constCapacity struct {
	set string
	mw  float64
}

func (c constCapacity) Name() string { return c.set }

func (c constCapacity) AddModelComponents(m *model.Model, d *dynamic.Components, _ subtype.BuildInfo) error {
	set := model.NewSet[model.EntityPeriod](c.set)
	for _, prj := range model.MustSet[string](m, core.SetProjects).Items() {
		for _, prd := range model.MustSet[int](m, core.SetPeriods).Items() {
			set.Add(model.EntityPeriod{Entity: prj, Period: prd})
		}
	}
	if err := model.AddSet(m, set); err != nil {
		return err
	}
	if err := d.OperationalPeriodSets.Append(c.set); err != nil {
		return err
	}
	return d.FinancialPeriodSets.Append(c.set)
}

func (c constCapacity) CapacityRule(*model.Model, string, int) model.LinExpr {
	return model.Const(c.mw)
}

func (c constCapacity) FixedCostRule(*model.Model, string, int) model.LinExpr { return model.Const(3) }

func (c constCapacity) CapacityCostRule(*model.Model, string, int) model.LinExpr {
	return model.Const(7)
}

// dispatchable provides power through one variable per project timepoint at a
// variable cost of 2 per MWh.
type dispatchable struct{}

func (dispatchable) Name() string { return "dispatchable" }

func (dispatchable) AddModelComponents(m *model.Model, _ *dynamic.Components, _ subtype.BuildInfo) error {
	for _, k := range model.MustSet[model.EntityTimepoint](m, core.SetProjectOperationalTimepoints).Items() {
		if _, err := m.AddVar("Power", k, model.NonNegative()); err != nil {
			return err
		}
	}
	return nil
}

func (dispatchable) PowerProvisionRule(m *model.Model, prj string, tmp int) model.LinExpr {
	return m.VarTerm("Power", model.EntityTimepoint{Entity: prj, Timepoint: tmp}, 1)
}

func (d dispatchable) VariableCostRule(m *model.Model, prj string, tmp int) model.LinExpr {
	return d.PowerProvisionRule(m, prj, tmp).Scale(2)
}

func portfolioDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTab(t, dir, core.PeriodsFile,
		"period start_year end_year",
		"2025 2025 2029",
		"2030 2030 2034")
	writeTab(t, dir, core.TimepointsFile,
		"timepoint period",
		"1 2025",
		"2 2030")
	writeTab(t, dir, core.LoadZonesFile, "load_zone", "north", "south")
	writeTab(t, dir, core.LoadFile,
		"load_zone timepoint load_mw",
		"north 1 10", "north 2 10", "south 1 10", "south 2 10")
	writeTab(t, dir, core.ProjectsFile,
		"project capacity_type operational_type load_zone",
		"a flat dispatchable north",
		"b flat dispatchable north",
		"c flat dispatchable south")
	return dir
}

func loadPortfolio(t *testing.T, dir string) (*model.Model, *Portfolio) {
	t.Helper()
	m := model.New("project")
	require.NoError(t, core.LoadTemporal(m, dir))
	require.NoError(t, core.LoadZones(m, dir))
	p, err := LoadPortfolio(m, dir)
	require.NoError(t, err)
	return m, p
}

func TestReadPortfolio(t *testing.T) {
	t.Parallel()

	p, err := ReadPortfolio(portfolioDir(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, p.Projects)
	assert.Equal(t, "flat", p.Capacity["b"])
	assert.Equal(t, "dispatchable", p.Operational["c"])
	assert.Equal(t, []string{"a", "b"}, p.InZone("north"))
	assert.Empty(t, p.InZone("east"))
}

func TestReadPortfolio_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rows []string
		want string
	}{
		{
			name: "duplicate project",
			rows: []string{"project capacity_type operational_type load_zone", "a flat x north", "a flat x north"},
			want: "duplicate project a",
		},
		{
			name: "missing operational type",
			rows: []string{"project capacity_type operational_type load_zone", "a flat . north"},
			want: "project a has no operational_type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeTab(t, dir, core.ProjectsFile, tt.rows...)
			_, err := ReadPortfolio(dir)
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAddCapacityComponents(t *testing.T) {
	t.Parallel()

	dir := portfolioDir(t)
	m, p := loadPortfolio(t, dir)
	d := dynamic.New()
	mod := constCapacity{set: "flat", mw: 50}
	b := subtype.BuildInfo{ScenarioDirectory: dir, AssertDisjointSets: true}
	require.NoError(t, mod.AddModelComponents(m, d, b))
	disp, err := dispatch.New(subtype.CapacityType, p.Capacity, subtype.Modules{"flat": mod})
	require.NoError(t, err)

	require.NoError(t, AddCapacityComponents(m, d, b, disp))

	assert.Equal(t, 6, model.MustSet[model.EntityPeriod](m, core.SetProjectOperationalPeriods).Len())
	assert.Equal(t, 6, model.MustSet[model.EntityTimepoint](m, core.SetProjectOperationalTimepoints).Len())
	assert.Zero(t, model.MustSet[model.EntityPeriod](m, core.SetNewBuildVintages).Len())

	capMW, ok := m.Expression(core.ExprCapacity, model.EntityPeriod{Entity: "c", Period: 2030})
	require.True(t, ok)
	assert.InDelta(t, 50.0, capMW.Constant, 1e-9)

	// a capability the module lacks dispatches to zero
	newMW, ok := m.Expression(core.ExprNewCapacity, model.EntityPeriod{Entity: "c", Period: 2030})
	require.True(t, ok)
	assert.True(t, newMW.IsZero())

	fixed, _ := m.Expression(core.ExprFixedCostPeriod, model.Int(2025))
	assert.InDelta(t, 9.0, fixed.Constant, 1e-9)
	capital, _ := m.Expression(core.ExprCapacityCostPeriod, model.Int(2030))
	assert.InDelta(t, 21.0, capital.Constant, 1e-9)

	assert.Equal(t, []string{core.ExprCapacityCostPeriod, core.ExprFixedCostPeriod}, d.PeriodCostComponents.Values())
	assert.True(t, d.OperationalPeriodSets.Frozen())
}

func TestAddCapacityComponents_OverlappingTypes(t *testing.T) {
	t.Parallel()

	dir := portfolioDir(t)
	m, p := loadPortfolio(t, dir)
	d := dynamic.New()
	b := subtype.BuildInfo{ScenarioDirectory: dir, AssertDisjointSets: true}
	first := constCapacity{set: "flat", mw: 50}
	second := constCapacity{set: "flat_again", mw: 10}
	require.NoError(t, first.AddModelComponents(m, d, b))
	require.NoError(t, second.AddModelComponents(m, d, b))
	disp, err := dispatch.New(subtype.CapacityType, p.Capacity, subtype.Modules{"flat": first})
	require.NoError(t, err)

	err = AddCapacityComponents(m, d, b, disp)
	var overlap *dynamic.OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, core.SetProjectOperationalPeriods, overlap.Union)
}

func TestAddOperationsComponents(t *testing.T) {
	t.Parallel()

	dir := portfolioDir(t)
	m, p := loadPortfolio(t, dir)
	d := dynamic.New()
	b := subtype.BuildInfo{ScenarioDirectory: dir}
	capMod := constCapacity{set: "flat", mw: 50}
	require.NoError(t, capMod.AddModelComponents(m, d, b))
	capDisp, err := dispatch.New(subtype.CapacityType, p.Capacity, subtype.Modules{"flat": capMod})
	require.NoError(t, err)
	require.NoError(t, AddCapacityComponents(m, d, b, capDisp))

	opr := dispatchable{}
	require.NoError(t, opr.AddModelComponents(m, d, b))
	oprDisp, err := dispatch.New(subtype.OperationalType, p.Operational, subtype.Modules{"dispatchable": opr})
	require.NoError(t, err)
	require.NoError(t, AddOperationsComponents(m, d, p, oprDisp))

	a1, _ := m.VarRef("Power", model.EntityTimepoint{Entity: "a", Timepoint: 1})
	b1, _ := m.VarRef("Power", model.EntityTimepoint{Entity: "b", Timepoint: 1})
	c1, _ := m.VarRef("Power", model.EntityTimepoint{Entity: "c", Timepoint: 1})

	north, ok := m.Expression(core.ExprZonePower, model.ZoneTimepoint{Zone: "north", Timepoint: 1})
	require.True(t, ok)
	assert.InDelta(t, 1.0, north.Coefficient(a1), 1e-9)
	assert.InDelta(t, 1.0, north.Coefficient(b1), 1e-9)
	assert.Zero(t, north.Coefficient(c1))

	vc, ok := m.Expression(core.ExprVariableCostTotal, model.Int(1))
	require.True(t, ok)
	assert.InDelta(t, 2.0, vc.Coefficient(c1), 1e-9)

	assert.Equal(t, []string{core.ExprZonePower}, d.LoadBalanceProductionComponents.Values())
	assert.Empty(t, d.LoadBalanceConsumptionComponents.Values())
}

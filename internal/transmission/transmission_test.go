package transmission

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
	"github.com/gridforge/gridforge/internal/results"
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

// flatLine is a line type with a constant capacity in every period. With
// withMin set it also bounds reverse flow at zero.
type flatLine struct {
	capacity float64
	withMin  bool
}

func (flatLine) Name() string { return "flat" }

func (f flatLine) AddModelComponents(m *model.Model, d *dynamic.Components, _ subtype.BuildInfo) error {
	set := model.NewSet[model.EntityPeriod]("FLAT_OPR_PRDS")
	for _, line := range model.MustSet[string](m, core.SetTxLines).Items() {
		for _, prd := range model.MustSet[int](m, core.SetPeriods).Items() {
			set.Add(model.EntityPeriod{Entity: line, Period: prd})
		}
	}
	if err := model.AddSet(m, set); err != nil {
		return err
	}
	return d.TxOperationalPeriodSets.Append(set.Name())
}

func (f flatLine) CapacityRule(*model.Model, string, int) model.LinExpr {
	return model.Const(f.capacity)
}

func (f flatLine) CapacityCostRule(*model.Model, string, int) model.LinExpr {
	return model.Const(2 * f.capacity)
}

// flatMinLine adds a zero minimum flow to flatLine.
type flatMinLine struct{ flatLine }

func (flatMinLine) MinCapacityRule(*model.Model, string, int) model.LinExpr {
	return model.Const(0)
}

// freeFlow provides power through one free variable per line and timepoint.
type freeFlow struct{}

func (freeFlow) Name() string { return "free" }

func (freeFlow) AddModelComponents(m *model.Model, _ *dynamic.Components, _ subtype.BuildInfo) error {
	for _, k := range model.MustSet[model.EntityTimepoint](m, core.SetTxOperationalTimepoints).Items() {
		if _, err := m.AddVar("Flow", k, model.Bounds{Lower: -100, Upper: 100}); err != nil {
			return err
		}
	}
	return nil
}

func (freeFlow) PowerProvisionRule(m *model.Model, line string, tmp int) model.LinExpr {
	return m.VarTerm("Flow", model.EntityTimepoint{Entity: line, Timepoint: tmp}, 1)
}

func networkDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTab(t, dir, core.PeriodsFile,
		"period start_year end_year",
		"2025 2025 2029")
	writeTab(t, dir, core.TimepointsFile,
		"timepoint period",
		"1 2025")
	writeTab(t, dir, core.LoadZonesFile, "load_zone", "north", "south", "east")
	writeTab(t, dir, core.LoadFile,
		"load_zone timepoint load_mw",
		"north 1 10",
		"south 1 10",
		"east 1 10")
	writeTab(t, dir, core.TxLinesFile,
		"transmission_line capacity_type operational_type load_zone_from load_zone_to",
		"n_s flat free north south",
		"s_e flat free south east")
	return dir
}

func buildNetwork(t *testing.T, dir string, capMod subtype.Module) (*model.Model, *dynamic.Components, *Network) {
	t.Helper()
	m := model.New("tx")
	require.NoError(t, core.LoadTemporal(m, dir))
	require.NoError(t, core.LoadZones(m, dir))
	n, err := LoadNetwork(m, dir)
	require.NoError(t, err)

	d := dynamic.New()
	b := subtype.BuildInfo{ScenarioDirectory: dir, AssertDisjointSets: true}
	require.NoError(t, capMod.AddModelComponents(m, d, b))
	capDisp, err := dispatch.New(subtype.TransmissionCapacityType, n.Capacity, subtype.Modules{"flat": capMod})
	require.NoError(t, err)
	require.NoError(t, AddCapacityComponents(m, d, b, capDisp))

	opr := freeFlow{}
	require.NoError(t, opr.AddModelComponents(m, d, b))
	oprDisp, err := dispatch.New(subtype.TransmissionOperationalType, n.Operational, subtype.Modules{"free": opr})
	require.NoError(t, err)
	require.NoError(t, AddOperationsComponents(m, d, n, oprDisp))
	return m, d, n
}

func TestReadNetwork(t *testing.T) {
	t.Parallel()

	n, err := ReadNetwork(networkDir(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"n_s", "s_e"}, n.Lines)
	assert.Equal(t, "flat", n.Capacity["n_s"])
	assert.Equal(t, "free", n.Operational["s_e"])
	assert.Equal(t, "south", n.From["s_e"])
	assert.Equal(t, "east", n.To["s_e"])
}

func TestReadNetwork_DuplicateLine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTab(t, dir, core.TxLinesFile,
		"transmission_line capacity_type operational_type load_zone_from load_zone_to",
		"n_s flat free north south",
		"n_s flat free south north")

	_, err := ReadNetwork(dir)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "duplicate transmission line n_s")
}

func TestLoadNetwork_UnknownZone(t *testing.T) {
	t.Parallel()

	dir := networkDir(t)
	writeTab(t, dir, core.TxLinesFile,
		"transmission_line capacity_type operational_type load_zone_from load_zone_to",
		"n_w flat free north west")

	m := model.New("tx")
	require.NoError(t, core.LoadTemporal(m, dir))
	require.NoError(t, core.LoadZones(m, dir))
	_, err := LoadNetwork(m, dir)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.False(t, m.HasSet(core.SetTxLines))
}

func TestAddCapacityComponents_DefaultMinIsNegatedMax(t *testing.T) {
	t.Parallel()

	m, d, _ := buildNetwork(t, networkDir(t), flatLine{capacity: 50})

	k := model.EntityPeriod{Entity: "n_s", Period: 2025}
	hi, ok := m.Expression(core.ExprTxMaxCapacity, k)
	require.True(t, ok)
	assert.InDelta(t, 50.0, hi.Constant, 1e-9)
	lo, ok := m.Expression(core.ExprTxMinCapacity, k)
	require.True(t, ok)
	assert.InDelta(t, -50.0, lo.Constant, 1e-9)

	total, ok := m.Expression(core.ExprTxCapacityCostTotal, model.Int(2025))
	require.True(t, ok)
	assert.InDelta(t, 200.0, total.Constant, 1e-9, "two lines at 100 each")
	assert.Contains(t, d.PeriodCostComponents.Values(), core.ExprTxCapacityCostTotal)
	assert.Len(t, model.MustSet[model.EntityTimepoint](m, core.SetTxOperationalTimepoints).Items(), 2)
}

func TestAddCapacityComponents_ModuleMinOverridesDefault(t *testing.T) {
	t.Parallel()

	m, _, _ := buildNetwork(t, networkDir(t), flatMinLine{flatLine{capacity: 50}})

	lo, ok := m.Expression(core.ExprTxMinCapacity, model.EntityPeriod{Entity: "s_e", Period: 2025})
	require.True(t, ok)
	assert.InDelta(t, 0.0, lo.Constant, 1e-9)
}

func TestAddOperationsComponents_NetImportSigns(t *testing.T) {
	t.Parallel()

	m, d, _ := buildNetwork(t, networkDir(t), flatLine{capacity: 50})

	ns, ok := m.VarRef("Flow", model.EntityTimepoint{Entity: "n_s", Timepoint: 1})
	require.True(t, ok)
	se, ok := m.VarRef("Flow", model.EntityTimepoint{Entity: "s_e", Timepoint: 1})
	require.True(t, ok)

	north, ok := m.Expression(core.ExprZoneTransmission, model.ZoneTimepoint{Zone: "north", Timepoint: 1})
	require.True(t, ok)
	assert.InDelta(t, -1.0, north.Coefficient(ns), 1e-9)
	assert.Zero(t, north.Coefficient(se))

	south, ok := m.Expression(core.ExprZoneTransmission, model.ZoneTimepoint{Zone: "south", Timepoint: 1})
	require.True(t, ok)
	assert.InDelta(t, 1.0, south.Coefficient(ns), 1e-9)
	assert.InDelta(t, -1.0, south.Coefficient(se), 1e-9)

	east, ok := m.Expression(core.ExprZoneTransmission, model.ZoneTimepoint{Zone: "east", Timepoint: 1})
	require.True(t, ok)
	assert.InDelta(t, 1.0, east.Coefficient(se), 1e-9)

	assert.Equal(t, []string{core.ExprZoneTransmission}, d.LoadBalanceProductionComponents.Values())
}

func TestResults(t *testing.T) {
	t.Parallel()

	m, _, _ := buildNetwork(t, networkDir(t), flatLine{capacity: 50})
	ns, _ := m.VarRef("Flow", model.EntityTimepoint{Entity: "n_s", Timepoint: 1})
	sol := &model.Solution{Status: model.StatusOptimal, Values: map[model.VarID]float64{ns: -30}}

	periods, contrib := PeriodResults(m, sol)
	assert.Len(t, periods.Keys(), 2)
	assert.Equal(t, "transmission", contrib.Module)

	flows, _ := FlowResults(m, sol)
	assert.Len(t, flows.Keys(), 2)
	row := contribValue(t, FlowResults, m, sol, "n_s", 1, "transmit_power_mw")
	assert.InDelta(t, -30.0, row, 1e-9)
}

func contribValue(t *testing.T, f func(*model.Model, *model.Solution) (*results.Table, results.Contribution),
	m *model.Model, sol *model.Solution, entity string, index int, col string) float64 {
	t.Helper()
	_, c := f(m, sol)
	for _, r := range c.Rows {
		if r.Key.Entity == entity && r.Key.Index == index {
			v, ok := r.Values[col]
			require.True(t, ok)
			require.True(t, v.Valid)
			return v.Float
		}
	}
	t.Fatalf("no row %s/%d", entity, index)
	return 0
}

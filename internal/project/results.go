package project

import (
	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/results"
)

const coreModule = "project"

func periodKey(k model.EntityPeriod) results.Key {
	return results.Key{Entity: k.Entity, Index: k.Period}
}

// PeriodResults returns the project_period base table, keyed by every
// operational or financial (project, period), and the aggregate columns.
func PeriodResults(m *model.Model, sol *model.Solution) (*results.Table, results.Contribution) {
	opr := model.MustSet[model.EntityPeriod](m, core.SetProjectOperationalPeriods)
	fin := model.MustSet[model.EntityPeriod](m, core.SetProjectFinancialPeriods)

	var keys []results.Key
	for _, k := range opr.Items() {
		keys = append(keys, periodKey(k))
	}
	for _, k := range fin.Items() {
		if !opr.Contains(k) {
			keys = append(keys, periodKey(k))
		}
	}
	base := results.NewTable(results.ProjectPeriod, "project", "period", keys)

	out := results.Contribution{
		Table:   results.ProjectPeriod,
		Module:  coreModule,
		Columns: []string{"capacity_mw", "energy_capacity_mwh", "new_capacity_mw", "fixed_cost", "capacity_cost"},
	}
	rows := make(map[results.Key]map[string]results.Value)
	row := func(k results.Key) map[string]results.Value {
		if r, ok := rows[k]; ok {
			return r
		}
		r := make(map[string]results.Value)
		rows[k] = r
		return r
	}
	eval := func(fam string, k model.EntityPeriod) results.Value {
		e, ok := m.Expression(fam, k)
		if !ok {
			return results.Null()
		}
		return results.Float(sol.Evaluate(e))
	}
	for _, k := range opr.Items() {
		r := row(periodKey(k))
		r["capacity_mw"] = eval(core.ExprCapacity, k)
		r["energy_capacity_mwh"] = eval(core.ExprEnergyCapacity, k)
		r["new_capacity_mw"] = eval(core.ExprNewCapacity, k)
		r["fixed_cost"] = eval(core.ExprFixedCost, k)
	}
	for _, k := range fin.Items() {
		row(periodKey(k))["capacity_cost"] = eval(core.ExprCapacityCost, k)
	}
	for _, k := range keys {
		out.Rows = append(out.Rows, results.Row{Key: k, Values: rows[k]})
	}
	return base, out
}

// TimepointResults returns the project_timepoint base table and the power and
// variable cost columns.
func TimepointResults(m *model.Model, sol *model.Solution) (*results.Table, results.Contribution) {
	tmps := model.MustSet[model.EntityTimepoint](m, core.SetProjectOperationalTimepoints)

	keys := make([]results.Key, 0, tmps.Len())
	out := results.Contribution{
		Table:   results.ProjectTimepoint,
		Module:  coreModule,
		Columns: []string{"power_mw", "variable_cost"},
	}
	for _, k := range tmps.Items() {
		key := results.Key{Entity: k.Entity, Index: k.Timepoint}
		keys = append(keys, key)
		power, _ := m.Expression(core.ExprPowerProvision, k)
		cost, _ := m.Expression(core.ExprVariableCost, k)
		out.Rows = append(out.Rows, results.Row{Key: key, Values: map[string]results.Value{
			"power_mw":      results.Float(sol.Evaluate(power)),
			"variable_cost": results.Float(sol.Evaluate(cost)),
		}})
	}
	return results.NewTable(results.ProjectTimepoint, "project", "timepoint", keys), out
}

// NewBuildTable returns the empty project_new_build base table keyed by every
// buildable vintage. New-build capacity types fill its columns.
func NewBuildTable(m *model.Model) *results.Table {
	vnts := model.MustSet[model.EntityPeriod](m, core.SetNewBuildVintages)
	keys := make([]results.Key, 0, vnts.Len())
	for _, k := range vnts.Items() {
		keys = append(keys, periodKey(k))
	}
	return results.NewTable(results.ProjectNewBuild, "project", "vintage", keys)
}

// ReserveTable returns the empty reserve_provision base table keyed by
// project and operational timepoint. Reserve types fill its columns.
func ReserveTable(m *model.Model) *results.Table {
	tmps := model.MustSet[model.EntityTimepoint](m, core.SetProjectOperationalTimepoints)
	keys := make([]results.Key, 0, tmps.Len())
	for _, k := range tmps.Items() {
		keys = append(keys, results.Key{Entity: k.Entity, Index: k.Timepoint})
	}
	return results.NewTable(results.ReserveProvision, "project", "timepoint", keys)
}

package core

import (
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/results"
)

// Load-balance variables and constraint
const (
	VarUnservedEnergy  = "Unserved_Energy_MW"
	VarOvergeneration  = "Overgeneration_MW"
	ConstraintMeetLoad = "Meet_Load_Constraint"
)

// AddLoadBalance constrains, for each zone and timepoint, the production
// components plus unserved energy minus the consumption components minus
// overgeneration to equal load. It consumes both load-balance lists; a listed
// family without an expression for a (zone, timepoint) contributes zero there.
func AddLoadBalance(m *model.Model, d *dynamic.Components) error {
	zones := model.MustSet[string](m, SetLoadZones)
	tmps := model.MustSet[int](m, SetTimepoints)
	load := model.MustParam[model.ZoneTimepoint](m, ParamLoad)
	unservedPrice := model.MustParam[model.Name](m, ParamUnservedEnergyPrice)
	overgenPrice := model.MustParam[model.Name](m, ParamOvergenerationPrice)

	production := d.LoadBalanceProductionComponents.Consume()
	consumption := d.LoadBalanceConsumptionComponents.Consume()

	penalty := make(map[int]model.LinExpr, tmps.Len())
	for _, z := range zones.Items() {
		for _, tmp := range tmps.Items() {
			key := model.ZoneTimepoint{Zone: z, Timepoint: tmp}
			unserved, err := m.AddVar(VarUnservedEnergy, key, model.NonNegative())
			if err != nil {
				return err
			}
			overgen, err := m.AddVar(VarOvergeneration, key, model.NonNegative())
			if err != nil {
				return err
			}

			lhs := model.Term(unserved, 1)
			lhs.AddTerm(overgen, -1)
			for _, fam := range production {
				if e, ok := m.Expression(fam, key); ok {
					lhs.Add(e)
				}
			}
			for _, fam := range consumption {
				if e, ok := m.Expression(fam, key); ok {
					lhs.Add(e.Scale(-1))
				}
			}
			if err := m.AddConstraint(ConstraintMeetLoad, key, lhs, model.Equal, load.Get(key)); err != nil {
				return err
			}

			cost := penalty[tmp]
			cost.AddTerm(unserved, unservedPrice.Get(model.Name(z)))
			cost.AddTerm(overgen, overgenPrice.Get(model.Name(z)))
			penalty[tmp] = cost
		}
	}

	for _, tmp := range tmps.Items() {
		m.SetExpression(ExprPenaltyCosts, model.Int(tmp), penalty[tmp])
	}
	return d.TimepointCostComponents.Append(ExprPenaltyCosts)
}

// AddObjective freezes the accumulator and minimizes the discounted, period
// weighted sum of every period cost family plus every timepoint cost family
// weighted by the timepoint's hours.
func AddObjective(m *model.Model, d *dynamic.Components) error {
	d.Freeze()

	periods, err := Periods(m)
	if err != nil {
		return err
	}
	timepoints, err := Timepoints(m)
	if err != nil {
		return err
	}
	periodWeight := make(map[int]float64, len(periods))
	for _, p := range periods {
		periodWeight[p.ID] = p.DiscountFactor * p.YearsRepresented
	}

	var obj model.LinExpr
	for _, fam := range d.PeriodCostComponents.Consume() {
		for _, p := range periods {
			if e, ok := m.Expression(fam, model.Int(p.ID)); ok {
				obj.Add(e.Scale(periodWeight[p.ID]))
			}
		}
	}
	for _, fam := range d.TimepointCostComponents.Consume() {
		for _, t := range timepoints {
			if e, ok := m.Expression(fam, model.Int(t.ID)); ok {
				obj.Add(e.Scale(periodWeight[t.Period] * t.Weight))
			}
		}
	}
	m.SetObjective(obj)
	return nil
}

// LoadBalanceResults is the system_load_balance table: one row per zone and
// timepoint with load, unserved energy and overgeneration.
func LoadBalanceResults(m *model.Model, sol *model.Solution) (*results.Table, error) {
	zones := model.MustSet[string](m, SetLoadZones)
	tmps := model.MustSet[int](m, SetTimepoints)
	load := model.MustParam[model.ZoneTimepoint](m, ParamLoad)

	var keys []results.Key
	for _, z := range zones.Items() {
		for _, tmp := range tmps.Items() {
			keys = append(keys, results.Key{Entity: z, Index: tmp})
		}
	}
	t := results.NewTable(results.SystemLoadBalance, "load_zone", "timepoint", keys)
	for _, col := range []string{"load_mw", "unserved_energy_mw", "overgeneration_mw"} {
		t.AddColumn(col)
	}
	for _, k := range keys {
		zt := model.ZoneTimepoint{Zone: k.Entity, Timepoint: k.Index}
		if err := t.Set(k, "load_mw", results.Float(load.Get(zt))); err != nil {
			return nil, err
		}
		if err := t.Set(k, "unserved_energy_mw", results.Float(sol.Evaluate(m.VarTerm(VarUnservedEnergy, zt, 1)))); err != nil {
			return nil, err
		}
		if err := t.Set(k, "overgeneration_mw", results.Float(sol.Evaluate(m.VarTerm(VarOvergeneration, zt, 1)))); err != nil {
			return nil, err
		}
	}
	return t, nil
}

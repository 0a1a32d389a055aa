package operations

import (
	"context"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/results"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/validation"
)

// stor charges and discharges within its power capacity and tracks state of
// charge within its energy capacity. Each timepoint is one hour; the first
// timepoint of a period follows the last one.
type stor struct {
	base
}

const (
	storCharge    = "Stor_Charge_MW"
	storDischarge = "Stor_Discharge_MW"
	storEnergy    = "Stor_Starting_Energy_MWh"
)

func (s *stor) AddModelComponents(m *model.Model, d *dynamic.Components, _ subtype.BuildInfo) error {
	tmps, err := s.operationalTimepoints(m)
	if err != nil {
		return err
	}
	for _, k := range tmps {
		for _, fam := range []string{storCharge, storDischarge, storEnergy} {
			if _, err := m.AddVar(fam, k, model.NonNegative()); err != nil {
				return err
			}
		}
	}

	for _, prj := range model.MustSet[string](m, s.projectSet()).Items() {
		for _, col := range []string{"charging_efficiency", "discharging_efficiency"} {
			if v := s.value(m, col, prj); v <= 0 || v > 1 {
				return errors.Newf("project %s: %s %g outside (0, 1]", prj, col, v).
					Component("operations").
					Category(errors.CategoryConfiguration).
					Build()
			}
		}
	}

	for _, k := range tmps {
		capMW := capacity(m, core.ExprCapacity, k)
		capMWh := capacity(m, core.ExprEnergyCapacity, k)

		discharge := m.VarTerm(storDischarge, k, 1).Plus(reserves(m, d.HeadroomVariables, k))
		discharge.Add(capMW.Scale(-1))
		if err := m.AddConstraint("Stor_Max_Discharge_Constraint", k, discharge, model.LessEqual, 0); err != nil {
			return err
		}

		charge := m.VarTerm(storCharge, k, 1).Plus(reserves(m, d.FootroomVariables, k))
		charge.Add(capMW.Scale(-1))
		if err := m.AddConstraint("Stor_Max_Charge_Constraint", k, charge, model.LessEqual, 0); err != nil {
			return err
		}

		energy := m.VarTerm(storEnergy, k, 1).Plus(capMWh.Scale(-1))
		if err := m.AddConstraint("Stor_Max_Energy_Constraint", k, energy, model.LessEqual, 0); err != nil {
			return err
		}

		next := model.EntityTimepoint{Entity: k.Entity, Timepoint: s.next(m, k.Timepoint)}
		balance := m.VarTerm(storEnergy, next, 1)
		balance.Add(m.VarTerm(storEnergy, k, -1))
		balance.Add(m.VarTerm(storCharge, k, -s.value(m, "charging_efficiency", k.Entity)))
		balance.Add(m.VarTerm(storDischarge, k, 1/s.value(m, "discharging_efficiency", k.Entity)))
		if err := m.AddConstraint("Stor_Energy_Tracking_Constraint", k, balance, model.Equal, 0); err != nil {
			return err
		}
	}
	return nil
}

// next returns the timepoint after tmp in its period, wrapping around.
func (s *stor) next(m *model.Model, tmp int) int {
	tmps := core.TimepointsInPeriod(m, core.PeriodOf(m, tmp))
	for i, t := range tmps {
		if t == tmp {
			return tmps[(i+1)%len(tmps)]
		}
	}
	return tmp
}

func (s *stor) PowerProvisionRule(m *model.Model, prj string, tmp int) model.LinExpr {
	k := model.EntityTimepoint{Entity: prj, Timepoint: tmp}
	return m.VarTerm(storDischarge, k, 1).Plus(m.VarTerm(storCharge, k, -1))
}

func (s *stor) VariableCostRule(m *model.Model, prj string, tmp int) model.LinExpr {
	k := model.EntityTimepoint{Entity: prj, Timepoint: tmp}
	return m.VarTerm(storDischarge, k, s.value(m, "variable_om_cost_per_mwh", prj))
}

func (s *stor) ExportResults(m *model.Model, _ *dynamic.Components, sol *model.Solution) ([]results.Contribution, error) {
	out := results.Contribution{
		Table:   results.ProjectTimepoint,
		Module:  s.name,
		Columns: []string{"charge_mw", "discharge_mw", "starting_energy_mwh"},
	}
	for _, k := range model.MustSet[model.EntityTimepoint](m, s.tmpSet()).Items() {
		out.Rows = append(out.Rows, results.Row{
			Key: results.Key{Entity: k.Entity, Index: k.Timepoint},
			Values: map[string]results.Value{
				"charge_mw":           results.Float(sol.Evaluate(m.VarTerm(storCharge, k, 1))),
				"discharge_mw":        results.Float(sol.Evaluate(m.VarTerm(storDischarge, k, 1))),
				"starting_energy_mwh": results.Float(sol.Evaluate(m.VarTerm(storEnergy, k, 1))),
			},
		})
	}
	return []results.Contribution{out}, nil
}

func (s *stor) ValidateInputs(ctx context.Context, q subtype.Query, c *validation.Collector) error {
	rows, err := s.chars(ctx, q)
	if err != nil {
		return err
	}
	for _, r := range rows {
		for _, eff := range []struct {
			col string
			v   *float64
		}{
			{"charging_efficiency", r.ChargingEfficiency},
			{"discharging_efficiency", r.DischargingEfficiency},
		} {
			col, v := eff.col, eff.v
			switch {
			case v == nil:
				c.Addf(s.name, charsTable, validation.Low, "project %s: no %s, assuming 1", r.Project, col)
			case *v <= 0 || *v > 1:
				c.Addf(s.name, charsTable, validation.High, "project %s: %s %g outside (0, 1]", r.Project, col, *v)
			}
		}
	}
	return nil
}

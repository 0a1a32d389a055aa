package operations

import (
	"context"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/validation"
)

// genSimple is a dispatchable generator between its min stable level and its
// capacity, net of reserves.
type genSimple struct {
	base
}

const genSimplePower = "GenSimple_Provide_Power_MW"

func (g *genSimple) AddModelComponents(m *model.Model, d *dynamic.Components, _ subtype.BuildInfo) error {
	tmps, err := g.operationalTimepoints(m)
	if err != nil {
		return err
	}
	for _, k := range tmps {
		power, err := m.AddVar(genSimplePower, k, model.NonNegative())
		if err != nil {
			return err
		}
		capMW := capacity(m, core.ExprCapacity, k)

		upper := model.Term(power, 1).Plus(reserves(m, d.HeadroomVariables, k))
		upper.Add(capMW.Scale(-1))
		if err := m.AddConstraint("GenSimple_Max_Power_Constraint", k, upper, model.LessEqual, 0); err != nil {
			return err
		}

		lower := model.Term(power, 1).Plus(reserves(m, d.FootroomVariables, k).Scale(-1))
		lower.Add(capMW.Scale(-g.value(m, "min_stable_level_fraction", k.Entity)))
		if err := m.AddConstraint("GenSimple_Min_Power_Constraint", k, lower, model.GreaterEqual, 0); err != nil {
			return err
		}
	}
	return nil
}

func (g *genSimple) PowerProvisionRule(m *model.Model, prj string, tmp int) model.LinExpr {
	return m.VarTerm(genSimplePower, model.EntityTimepoint{Entity: prj, Timepoint: tmp}, 1)
}

func (g *genSimple) VariableCostRule(m *model.Model, prj string, tmp int) model.LinExpr {
	return g.PowerProvisionRule(m, prj, tmp).Scale(g.value(m, "variable_om_cost_per_mwh", prj))
}

func (g *genSimple) ValidateInputs(ctx context.Context, q subtype.Query, c *validation.Collector) error {
	rows, err := g.chars(ctx, q)
	if err != nil {
		return err
	}
	g.validateCommon(rows, c)
	for _, r := range rows {
		if r.VariableOMCostPerMWh == nil {
			c.Addf(g.name, charsTable, validation.Low, "project %s: no variable O&M cost, assuming 0", r.Project)
		}
	}
	return nil
}

// genMustRun always produces at full capacity and cannot provide reserves.
type genMustRun struct {
	base
}

func (g *genMustRun) AddModelComponents(m *model.Model, d *dynamic.Components, _ subtype.BuildInfo) error {
	for _, prj := range model.MustSet[string](m, g.projectSet()).Items() {
		if len(d.HeadroomVariables.Get(prj)) > 0 || len(d.FootroomVariables.Get(prj)) > 0 {
			return &ReserveNotSupportedError{OperationalType: g.name, Project: prj}
		}
	}
	_, err := g.operationalTimepoints(m)
	return err
}

func (g *genMustRun) PowerProvisionRule(m *model.Model, prj string, tmp int) model.LinExpr {
	return capacity(m, core.ExprCapacity, model.EntityTimepoint{Entity: prj, Timepoint: tmp})
}

func (g *genMustRun) VariableCostRule(m *model.Model, prj string, tmp int) model.LinExpr {
	return g.PowerProvisionRule(m, prj, tmp).Scale(g.value(m, "variable_om_cost_per_mwh", prj))
}

func (g *genMustRun) ValidateInputs(ctx context.Context, q subtype.Query, c *validation.Collector) error {
	rows, err := g.chars(ctx, q)
	if err != nil {
		return err
	}
	g.validateCommon(rows, c)
	return nil
}

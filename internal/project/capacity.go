package project

import (
	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/dispatch"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/subtype"
)

var periodRules = []struct {
	family     string
	capability subtype.Capability
}{
	{core.ExprCapacity, subtype.CapacityRule},
	{core.ExprEnergyCapacity, subtype.EnergyCapacityRule},
	{core.ExprNewCapacity, subtype.NewCapacityRule},
	{core.ExprFixedCost, subtype.FixedCostRule},
}

// AddCapacityComponents joins the period sets the capacity types contributed
// and defines, per project and period, the capacity, new capacity, capacity
// cost and fixed cost expressions by dispatching to each project's capacity
// type. Project capacity and fixed costs go to the objective per period.
func AddCapacityComponents(m *model.Model, d *dynamic.Components, b subtype.BuildInfo, disp *dispatch.Dispatcher) error {
	opts := dynamic.JoinOptions{AssertDisjoint: b.AssertDisjointSets}

	opr, err := dynamic.JoinSets[model.EntityPeriod](m, d.OperationalPeriodSets, core.SetProjectOperationalPeriods, opts)
	if err != nil {
		return err
	}
	fin, err := dynamic.JoinSets[model.EntityPeriod](m, d.FinancialPeriodSets, core.SetProjectFinancialPeriods, opts)
	if err != nil {
		return err
	}
	vnts, err := dynamic.JoinSets[model.EntityPeriod](m, d.NewBuildVintageSets, core.SetNewBuildVintages, opts)
	if err != nil {
		return err
	}
	tmps := model.NewSet(core.SetProjectOperationalTimepoints, core.OperationalTimepoints(m, opr.Items())...)
	for _, add := range []func() error{
		func() error { return model.AddSet(m, opr) },
		func() error { return model.AddSet(m, fin) },
		func() error { return model.AddSet(m, vnts) },
		func() error { return model.AddSet(m, tmps) },
	} {
		if err := add(); err != nil {
			return err
		}
	}

	fixed := make(map[int]model.LinExpr)
	for _, k := range opr.Items() {
		for _, r := range periodRules {
			e, err := disp.Expr(m, k.Entity, k.Period, r.capability)
			if err != nil {
				return err
			}
			m.SetExpression(r.family, k, e)
		}
		e, _ := m.Expression(core.ExprFixedCost, k)
		total := fixed[k.Period]
		total.Add(e)
		fixed[k.Period] = total
	}

	capital := make(map[int]model.LinExpr)
	for _, k := range fin.Items() {
		e, err := disp.Expr(m, k.Entity, k.Period, subtype.CapacityCostRule)
		if err != nil {
			return err
		}
		m.SetExpression(core.ExprCapacityCost, k, e)
		total := capital[k.Period]
		total.Add(e)
		capital[k.Period] = total
	}

	projects := model.MustSet[string](m, core.SetProjects).Items()
	for _, prd := range model.MustSet[int](m, core.SetPeriods).Items() {
		built, err := disp.Sum(m, projects, prd, subtype.NewCapacityRule)
		if err != nil {
			return err
		}
		m.SetExpression(core.ExprTotalNewCapacity, model.Int(prd), built)
		m.SetExpression(core.ExprCapacityCostPeriod, model.Int(prd), capital[prd])
		m.SetExpression(core.ExprFixedCostPeriod, model.Int(prd), fixed[prd])
	}

	if err := d.PeriodCostComponents.Append(core.ExprCapacityCostPeriod); err != nil {
		return err
	}
	if err := d.PeriodCostComponents.Append(core.ExprFixedCostPeriod); err != nil {
		return err
	}

	GetLogger().Debug("project capacity aggregated",
		logger.Int("operational_periods", opr.Len()),
		logger.Int("financial_periods", fin.Len()),
		logger.Int("vintages", vnts.Len()))
	return nil
}

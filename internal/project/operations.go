package project

import (
	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/dispatch"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/subtype"
)

// AddOperationsComponents defines power provision and variable cost per
// project and operational timepoint by dispatching to each project's
// operational type, then sums provision by zone for the load balance and
// variable cost by timepoint for the objective.
func AddOperationsComponents(m *model.Model, d *dynamic.Components, p *Portfolio, disp *dispatch.Dispatcher) error {
	zonePower := make(map[model.ZoneTimepoint]model.LinExpr)
	variable := make(map[int]model.LinExpr)

	for _, k := range model.MustSet[model.EntityTimepoint](m, core.SetProjectOperationalTimepoints).Items() {
		power, err := disp.Expr(m, k.Entity, k.Timepoint, subtype.PowerProvisionRule)
		if err != nil {
			return err
		}
		cost, err := disp.Expr(m, k.Entity, k.Timepoint, subtype.VariableCostRule)
		if err != nil {
			return err
		}
		m.SetExpression(core.ExprPowerProvision, k, power)
		m.SetExpression(core.ExprVariableCost, k, cost)

		zt := model.ZoneTimepoint{Zone: p.LoadZone[k.Entity], Timepoint: k.Timepoint}
		zp := zonePower[zt]
		zp.Add(power)
		zonePower[zt] = zp

		vc := variable[k.Timepoint]
		vc.Add(cost)
		variable[k.Timepoint] = vc
	}

	for _, z := range model.MustSet[string](m, core.SetLoadZones).Items() {
		for _, tmp := range model.MustSet[int](m, core.SetTimepoints).Items() {
			zt := model.ZoneTimepoint{Zone: z, Timepoint: tmp}
			m.SetExpression(core.ExprZonePower, zt, zonePower[zt])
		}
	}
	for _, tmp := range model.MustSet[int](m, core.SetTimepoints).Items() {
		m.SetExpression(core.ExprVariableCostTotal, model.Int(tmp), variable[tmp])
	}

	if err := d.LoadBalanceProductionComponents.Append(core.ExprZonePower); err != nil {
		return err
	}
	return d.TimepointCostComponents.Append(core.ExprVariableCostTotal)
}

// Package transmission declares the transmission network shared by every line
// subtype: the line list, the capacity aggregation over the line capacity
// types and the net imports each zone receives.
package transmission

import (
	"context"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/dispatch"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/results"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/validation"
)

// Network is the line list with each line's subtypes and end zones.
type Network struct {
	Lines       []string
	Capacity    dispatch.Assignments
	Operational dispatch.Assignments
	From        map[string]string
	To          map[string]string
}

// ReadNetwork reads transmission_lines.tab.
func ReadNetwork(dir string) (*Network, error) {
	t, err := inputs.ReadFile(dir, core.TxLinesFile)
	if err != nil {
		return nil, err
	}
	n := &Network{
		Capacity:    make(dispatch.Assignments),
		Operational: make(dispatch.Assignments),
		From:        make(map[string]string),
		To:          make(map[string]string),
	}
	for _, r := range t.Records() {
		var line, capType, oprType, from, to string
		for col, dst := range map[string]*string{
			"transmission_line": &line,
			"capacity_type":     &capType,
			"operational_type":  &oprType,
			"load_zone_from":    &from,
			"load_zone_to":      &to,
		} {
			if *dst, err = r.String(col); err != nil {
				return nil, err
			}
		}
		if _, dup := n.Capacity[line]; dup {
			return nil, errors.Newf("%s line %d: duplicate transmission line %s", core.TxLinesFile, r.Line(), line).
				Component("transmission").
				Category(errors.CategoryConfiguration).
				Build()
		}
		n.Lines = append(n.Lines, line)
		n.Capacity[line] = capType
		n.Operational[line] = oprType
		n.From[line] = from
		n.To[line] = to
	}
	return n, nil
}

// LoadNetwork reads the lines and declares TX_LINES. Both ends of a line must
// be declared load zones.
func LoadNetwork(m *model.Model, dir string) (*Network, error) {
	n, err := ReadNetwork(dir)
	if err != nil {
		return nil, err
	}
	zones := model.MustSet[string](m, core.SetLoadZones)
	for _, line := range n.Lines {
		for _, z := range []string{n.From[line], n.To[line]} {
			if !zones.Contains(z) {
				return nil, errors.Newf("transmission line %s connects unknown load zone %s", line, z).
					Component("transmission").
					Category(errors.CategoryConfiguration).
					Build()
			}
		}
	}
	return n, model.AddSet(m, model.NewSet(core.SetTxLines, n.Lines...))
}

// AddCapacityComponents joins the line operational periods and defines flow
// limits and capacity cost per line and period. A capacity type without a
// minimum rule allows the full capacity in both directions.
func AddCapacityComponents(m *model.Model, d *dynamic.Components, b subtype.BuildInfo, disp *dispatch.Dispatcher) error {
	opr, err := dynamic.JoinSets[model.EntityPeriod](m, d.TxOperationalPeriodSets, core.SetTxOperationalPeriods,
		dynamic.JoinOptions{AssertDisjoint: b.AssertDisjointSets})
	if err != nil {
		return err
	}
	if err := model.AddSet(m, opr); err != nil {
		return err
	}
	if err := model.AddSet(m, model.NewSet(core.SetTxOperationalTimepoints, core.OperationalTimepoints(m, opr.Items())...)); err != nil {
		return err
	}

	disp.SetDefault(subtype.MinCapacityRule, func(m *model.Model, line string, prd int) model.LinExpr {
		hi, _ := m.Expression(core.ExprTxMaxCapacity, model.EntityPeriod{Entity: line, Period: prd})
		return hi.Scale(-1)
	})

	costs := make(map[int]model.LinExpr)
	for _, k := range opr.Items() {
		hi, err := disp.Expr(m, k.Entity, k.Period, subtype.CapacityRule)
		if err != nil {
			return err
		}
		m.SetExpression(core.ExprTxMaxCapacity, k, hi)
		lo, err := disp.Expr(m, k.Entity, k.Period, subtype.MinCapacityRule)
		if err != nil {
			return err
		}
		m.SetExpression(core.ExprTxMinCapacity, k, lo)
		cost, err := disp.Expr(m, k.Entity, k.Period, subtype.CapacityCostRule)
		if err != nil {
			return err
		}
		m.SetExpression(core.ExprTxCapacityCost, k, cost)
		total := costs[k.Period]
		total.Add(cost)
		costs[k.Period] = total
	}
	for _, prd := range model.MustSet[int](m, core.SetPeriods).Items() {
		m.SetExpression(core.ExprTxCapacityCostTotal, model.Int(prd), costs[prd])
	}
	return d.PeriodCostComponents.Append(core.ExprTxCapacityCostTotal)
}

// AddOperationsComponents defines the flow of each line in its operational
// timepoints and each zone's net import, which enters the load balance.
func AddOperationsComponents(m *model.Model, d *dynamic.Components, n *Network, disp *dispatch.Dispatcher) error {
	imports := make(map[model.ZoneTimepoint]model.LinExpr)
	for _, k := range model.MustSet[model.EntityTimepoint](m, core.SetTxOperationalTimepoints).Items() {
		flow, err := disp.Expr(m, k.Entity, k.Timepoint, subtype.PowerProvisionRule)
		if err != nil {
			return err
		}
		m.SetExpression(core.ExprTransmitPower, k, flow)

		to := model.ZoneTimepoint{Zone: n.To[k.Entity], Timepoint: k.Timepoint}
		in := imports[to]
		in.Add(flow)
		imports[to] = in

		from := model.ZoneTimepoint{Zone: n.From[k.Entity], Timepoint: k.Timepoint}
		out := imports[from]
		out.Add(flow.Scale(-1))
		imports[from] = out
	}
	for zt, e := range imports {
		m.SetExpression(core.ExprZoneTransmission, zt, e)
	}
	return d.LoadBalanceProductionComponents.Append(core.ExprZoneTransmission)
}

// PeriodResults returns the transmission_period table with flow limits and
// capacity cost.
func PeriodResults(m *model.Model, sol *model.Solution) (*results.Table, results.Contribution) {
	opr := model.MustSet[model.EntityPeriod](m, core.SetTxOperationalPeriods)
	keys := make([]results.Key, 0, opr.Len())
	out := results.Contribution{
		Table:   results.TransmissionPeriod,
		Module:  "transmission",
		Columns: []string{"min_mw", "max_mw", "capacity_cost"},
	}
	for _, k := range opr.Items() {
		key := results.Key{Entity: k.Entity, Index: k.Period}
		keys = append(keys, key)
		values := make(map[string]results.Value, 3)
		for col, fam := range map[string]string{
			"min_mw":        core.ExprTxMinCapacity,
			"max_mw":        core.ExprTxMaxCapacity,
			"capacity_cost": core.ExprTxCapacityCost,
		} {
			e, _ := m.Expression(fam, k)
			values[col] = results.Float(sol.Evaluate(e))
		}
		out.Rows = append(out.Rows, results.Row{Key: key, Values: values})
	}
	return results.NewTable(results.TransmissionPeriod, "transmission_line", "period", keys), out
}

// FlowResults returns the transmission_timepoint table with each line's flow.
func FlowResults(m *model.Model, sol *model.Solution) (*results.Table, results.Contribution) {
	tmps := model.MustSet[model.EntityTimepoint](m, core.SetTxOperationalTimepoints)
	keys := make([]results.Key, 0, tmps.Len())
	out := results.Contribution{
		Table:   results.TransmissionFlow,
		Module:  "transmission",
		Columns: []string{"transmit_power_mw"},
	}
	for _, k := range tmps.Items() {
		key := results.Key{Entity: k.Entity, Index: k.Timepoint}
		keys = append(keys, key)
		e, _ := m.Expression(core.ExprTransmitPower, k)
		out.Rows = append(out.Rows, results.Row{Key: key, Values: map[string]results.Value{
			"transmit_power_mw": results.Float(sol.Evaluate(e)),
		}})
	}
	return results.NewTable(results.TransmissionFlow, "transmission_line", "timepoint", keys), out
}

func queryLines(ctx context.Context, q subtype.Query) ([]entities.InputsTransmissionPortfolio, error) {
	var rows []entities.InputsTransmissionPortfolio
	if err := q.DB.WithContext(ctx).
		Where("transmission_portfolio_scenario_id = ?", q.Scenario.IDs.TransmissionPortfolio).
		Order("transmission_line").
		Find(&rows).Error; err != nil {
		return nil, errors.New(err).
			Component("transmission").
			Category(errors.CategoryDatabase).
			Context("table", "inputs_transmission_portfolios").
			Build()
	}
	return rows, nil
}

// WriteInputs writes transmission_lines.tab for the scenario.
func WriteInputs(ctx context.Context, q subtype.Query) error {
	rows, err := queryLines(ctx, q)
	if err != nil {
		return err
	}
	t := inputs.NewTable(core.TxLinesFile, "transmission_line", "capacity_type", "operational_type", "load_zone_from", "load_zone_to")
	for _, r := range rows {
		if err := t.Append(r.TransmissionLine, r.CapacityType, r.OperationalType, r.LoadZoneFrom, r.LoadZoneTo); err != nil {
			return err
		}
	}
	return inputs.WriteFile(q.Build.InputsDir(), t)
}

// Validate flags lines with unknown subtypes, unknown zones or identical ends.
func Validate(ctx context.Context, q subtype.Query, catalog *subtype.Catalog, c *validation.Collector) error {
	rows, err := queryLines(ctx, q)
	if err != nil {
		return err
	}
	var zones []string
	if err := q.DB.WithContext(ctx).Model(&entities.InputsLoadZone{}).
		Where("load_scenario_id = ?", q.Scenario.IDs.Load).
		Pluck("load_zone", &zones).Error; err != nil {
		return errors.New(err).Component("transmission").Category(errors.CategoryDatabase).Build()
	}
	known := make(map[string]bool, len(zones))
	for _, z := range zones {
		known[z] = true
	}
	capTypes := make(map[string]bool)
	for _, name := range catalog.Names(subtype.TransmissionCapacityType) {
		capTypes[name] = true
	}
	oprTypes := make(map[string]bool)
	for _, name := range catalog.Names(subtype.TransmissionOperationalType) {
		oprTypes[name] = true
	}

	const table = "inputs_transmission_portfolios"
	if len(rows) == 0 {
		c.Add("transmission", table, validation.Mid, "transmission is enabled but the portfolio has no lines")
	}
	for _, r := range rows {
		if !capTypes[r.CapacityType] {
			c.Addf("transmission", table, validation.High, "line %s: unknown capacity type %q", r.TransmissionLine, r.CapacityType)
		}
		if !oprTypes[r.OperationalType] {
			c.Addf("transmission", table, validation.High, "line %s: unknown operational type %q", r.TransmissionLine, r.OperationalType)
		}
		if r.LoadZoneFrom == r.LoadZoneTo {
			c.Addf("transmission", table, validation.Mid, "line %s connects zone %s to itself", r.TransmissionLine, r.LoadZoneFrom)
		}
		for _, z := range []string{r.LoadZoneFrom, r.LoadZoneTo} {
			if !known[z] {
				c.Addf("transmission", table, validation.High, "line %s: load zone %s is not in the load subscenario", r.TransmissionLine, z)
			}
		}
	}
	return nil
}

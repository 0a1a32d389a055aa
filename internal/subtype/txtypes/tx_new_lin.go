package txtypes

import (
	"context"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/temporal"
	"github.com/gridforge/gridforge/internal/validation"
)

// txNewLin builds line capacity linearly per vintage. Capacity is usable in
// both directions and paid for while the vintage operates.
type txNewLin struct {
	vintages []temporal.Vintage
	byKey    map[temporal.Vintage]model.EntityPeriod
	relevant map[temporal.Vintage][]int
}

const (
	txNewLinFile  = "new_build_transmission_vintage_costs.tab"
	txNewLinBuild = "TxNewLin_Build_MW"
	txNewLinCost  = "tx_new_lin_annualized_real_cost_per_mw_yr"
)

func (*txNewLin) Name() string { return TxNewLin }

func (n *txNewLin) LoadModelData(m *model.Model, _ *dynamic.Components, b subtype.BuildInfo) error {
	lines, err := linesOfType(b, "capacity_type", TxNewLin)
	if err != nil {
		return err
	}
	periods, err := core.Periods(m)
	if err != nil {
		return err
	}
	t, err := inputs.ReadFile(b.InputsDir(), txNewLinFile)
	if err != nil {
		return err
	}

	vnts := model.NewSet[model.EntityPeriod](setName(TxNewLin, "VNTS"))
	cost := model.NewParamWithDefault[model.EntityPeriod](txNewLinCost, 0)
	life := make(map[temporal.Vintage]float64)
	n.byKey = make(map[temporal.Vintage]model.EntityPeriod)
	for _, r := range t.Records() {
		line, err := r.String("transmission_line")
		if err != nil {
			return err
		}
		if !lines[line] {
			continue
		}
		vintage, err := r.Int("vintage")
		if err != nil {
			return err
		}
		p, ok := temporal.PeriodByID(periods, vintage)
		if !ok {
			return errors.Newf("%s line %d: vintage %d of %s is not a modeled period", txNewLinFile, r.Line(), vintage, line).
				Component("transmission").
				Category(errors.CategoryConfiguration).
				Build()
		}
		k := model.EntityPeriod{Entity: line, Period: vintage}
		v := temporal.Vintage{Entity: line, Year: p.StartYear}
		if !vnts.Add(k) {
			continue
		}
		n.vintages = append(n.vintages, v)
		n.byKey[v] = k
		if life[v], err = r.Float("lifetime_yrs"); err != nil {
			return err
		}
		c, err := r.Float("annualized_real_cost_per_mw_yr")
		if err != nil {
			return err
		}
		cost.Set(k, c)
	}

	if n.relevant, err = temporal.RelevantPeriodsByVintage(periods, n.vintages, func(v temporal.Vintage) float64 { return life[v] }); err != nil {
		return err
	}
	opr := model.NewSet[model.EntityPeriod](setName(TxNewLin, "OPR_PRDS"))
	for _, v := range n.vintages {
		for _, prd := range n.relevant[v] {
			opr.Add(model.EntityPeriod{Entity: v.Entity, Period: prd})
		}
	}
	if err := model.AddSet(m, vnts); err != nil {
		return err
	}
	if err := model.AddSet(m, opr); err != nil {
		return err
	}
	return model.AddParam(m, cost)
}

func (n *txNewLin) AddModelComponents(m *model.Model, d *dynamic.Components, _ subtype.BuildInfo) error {
	for _, k := range model.MustSet[model.EntityPeriod](m, setName(TxNewLin, "VNTS")).Items() {
		if _, err := m.AddVar(txNewLinBuild, k, model.NonNegative()); err != nil {
			return err
		}
	}
	return d.TxOperationalPeriodSets.Append(setName(TxNewLin, "OPR_PRDS"))
}

func (n *txNewLin) operating(line string, prd int) []model.EntityPeriod {
	var out []model.EntityPeriod
	for _, v := range temporal.VintagesRelevantInPeriod(n.vintages, n.relevant, prd) {
		if v.Entity == line {
			out = append(out, n.byKey[v])
		}
	}
	return out
}

func (n *txNewLin) CapacityRule(m *model.Model, line string, prd int) model.LinExpr {
	var e model.LinExpr
	for _, k := range n.operating(line, prd) {
		e.Add(m.VarTerm(txNewLinBuild, k, 1))
	}
	return e
}

func (n *txNewLin) NewCapacityRule(m *model.Model, line string, prd int) model.LinExpr {
	return m.VarTerm(txNewLinBuild, model.EntityPeriod{Entity: line, Period: prd}, 1)
}

func (n *txNewLin) CapacityCostRule(m *model.Model, line string, prd int) model.LinExpr {
	cost := model.MustParam[model.EntityPeriod](m, txNewLinCost)
	var e model.LinExpr
	for _, k := range n.operating(line, prd) {
		e.Add(m.VarTerm(txNewLinBuild, k, cost.Get(k)))
	}
	return e
}

func (n *txNewLin) GetModelInputsFromDatabase(ctx context.Context, q subtype.Query) ([]*inputs.Table, error) {
	rows, err := capacities(ctx, q, TxNewLin)
	if err != nil {
		return nil, err
	}
	t := inputs.NewTable(txNewLinFile, "transmission_line", "vintage", "lifetime_yrs", "annualized_real_cost_per_mw_yr")
	for _, r := range rows {
		if err := t.Append(r.TransmissionLine, r.Period, r.LifetimeYrs, r.AnnualizedRealCostPerMWYr); err != nil {
			return nil, err
		}
	}
	return []*inputs.Table{t}, nil
}

func (n *txNewLin) WriteModelInputs(ctx context.Context, q subtype.Query) error {
	return writeTables(ctx, q, n)
}

func (n *txNewLin) ValidateInputs(ctx context.Context, q subtype.Query, c *validation.Collector) error {
	rows, err := capacities(ctx, q, TxNewLin)
	if err != nil {
		return err
	}
	const table = "inputs_transmission_capacities"
	for _, r := range rows {
		if r.LifetimeYrs == nil || *r.LifetimeYrs < 0 {
			c.Addf(TxNewLin, table, validation.High, "line %s vintage %d: missing or negative lifetime", r.TransmissionLine, r.Period)
		}
		if r.AnnualizedRealCostPerMWYr == nil {
			c.Addf(TxNewLin, table, validation.High, "line %s vintage %d: no annualized cost", r.TransmissionLine, r.Period)
		}
	}
	return nil
}

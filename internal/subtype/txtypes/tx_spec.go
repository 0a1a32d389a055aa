package txtypes

import (
	"context"

	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/validation"
)

// txSpec is a line with exogenous flow limits per period. A negative min_mw
// allows flow against the line's direction.
type txSpec struct{}

const txSpecFile = "transmission_specified_capacities.tab"

func (txSpec) Name() string { return TxSpec }

func (txSpec) LoadModelData(m *model.Model, _ *dynamic.Components, b subtype.BuildInfo) error {
	lines, err := linesOfType(b, "capacity_type", TxSpec)
	if err != nil {
		return err
	}
	t, err := inputs.ReadFile(b.InputsDir(), txSpecFile)
	if err != nil {
		return err
	}
	set := model.NewSet[model.EntityPeriod](setName(TxSpec, "OPR_PRDS"))
	minMW := model.NewParam[model.EntityPeriod]("tx_spec_min_mw")
	maxMW := model.NewParam[model.EntityPeriod]("tx_spec_max_mw")
	for _, r := range t.Records() {
		line, err := r.String("transmission_line")
		if err != nil {
			return err
		}
		if !lines[line] {
			continue
		}
		prd, err := r.Int("period")
		if err != nil {
			return err
		}
		hi, err := r.Float("max_mw")
		if err != nil {
			return err
		}
		lo := -hi
		if v, ok, err := r.OptFloat("min_mw"); err != nil {
			return err
		} else if ok {
			lo = v
		}
		k := model.EntityPeriod{Entity: line, Period: prd}
		set.Add(k)
		minMW.Set(k, lo)
		maxMW.Set(k, hi)
	}
	if err := model.AddSet(m, set); err != nil {
		return err
	}
	if err := model.AddParam(m, minMW); err != nil {
		return err
	}
	return model.AddParam(m, maxMW)
}

func (txSpec) AddModelComponents(_ *model.Model, d *dynamic.Components, _ subtype.BuildInfo) error {
	return d.TxOperationalPeriodSets.Append(setName(TxSpec, "OPR_PRDS"))
}

func (txSpec) CapacityRule(m *model.Model, line string, prd int) model.LinExpr {
	return model.Const(model.MustParam[model.EntityPeriod](m, "tx_spec_max_mw").Get(model.EntityPeriod{Entity: line, Period: prd}))
}

func (txSpec) MinCapacityRule(m *model.Model, line string, prd int) model.LinExpr {
	return model.Const(model.MustParam[model.EntityPeriod](m, "tx_spec_min_mw").Get(model.EntityPeriod{Entity: line, Period: prd}))
}

func (s txSpec) GetModelInputsFromDatabase(ctx context.Context, q subtype.Query) ([]*inputs.Table, error) {
	rows, err := capacities(ctx, q, TxSpec)
	if err != nil {
		return nil, err
	}
	t := inputs.NewTable(txSpecFile, "transmission_line", "period", "min_mw", "max_mw")
	for _, r := range rows {
		if err := t.Append(r.TransmissionLine, r.Period, r.MinMW, r.MaxMW); err != nil {
			return nil, err
		}
	}
	return []*inputs.Table{t}, nil
}

func (s txSpec) WriteModelInputs(ctx context.Context, q subtype.Query) error {
	return writeTables(ctx, q, s)
}

func (txSpec) ValidateInputs(ctx context.Context, q subtype.Query, c *validation.Collector) error {
	rows, err := capacities(ctx, q, TxSpec)
	if err != nil {
		return err
	}
	const table = "inputs_transmission_capacities"
	for _, r := range rows {
		switch {
		case r.MaxMW == nil:
			c.Addf(TxSpec, table, validation.High, "line %s period %d: no max_mw", r.TransmissionLine, r.Period)
		case r.MinMW != nil && *r.MinMW > *r.MaxMW:
			c.Addf(TxSpec, table, validation.High, "line %s period %d: min_mw %g exceeds max_mw %g",
				r.TransmissionLine, r.Period, *r.MinMW, *r.MaxMW)
		}
	}
	return nil
}

package txtypes

import (
	"math"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/subtype"
)

// txSimple is a lossless transport flow between the line's capacity limits.
type txSimple struct{}

const txSimpleFlow = "TxSimple_Transmit_Power_MW"

func (txSimple) Name() string { return TxSimple }

func (txSimple) AddModelComponents(m *model.Model, _ *dynamic.Components, b subtype.BuildInfo) error {
	lines, err := linesOfType(b, "operational_type", TxSimple)
	if err != nil {
		return err
	}
	all, err := model.SetOf[model.EntityTimepoint](m, core.SetTxOperationalTimepoints)
	if err != nil {
		return err
	}
	free := model.Bounds{Lower: math.Inf(-1), Upper: math.Inf(1)}
	for _, k := range all.Filter(func(k model.EntityTimepoint) bool { return lines[k.Entity] }) {
		flow, err := m.AddVar(txSimpleFlow, k, free)
		if err != nil {
			return err
		}
		prd := model.EntityPeriod{Entity: k.Entity, Period: core.PeriodOf(m, k.Timepoint)}
		hi, _ := m.Expression(core.ExprTxMaxCapacity, prd)
		lo, _ := m.Expression(core.ExprTxMinCapacity, prd)
		if err := m.AddConstraint("TxSimple_Max_Flow_Constraint", k, model.Term(flow, 1).Plus(hi.Scale(-1)), model.LessEqual, 0); err != nil {
			return err
		}
		if err := m.AddConstraint("TxSimple_Min_Flow_Constraint", k, model.Term(flow, 1).Plus(lo.Scale(-1)), model.GreaterEqual, 0); err != nil {
			return err
		}
	}
	return nil
}

// PowerProvisionRule is the flow from the line's origin to its destination.
func (txSimple) PowerProvisionRule(m *model.Model, line string, tmp int) model.LinExpr {
	return m.VarTerm(txSimpleFlow, model.EntityTimepoint{Entity: line, Timepoint: tmp}, 1)
}

package capacity

import (
	"context"
	"strings"

	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/validation"
)

// specified is exogenous capacity per (project, period). Its operational and
// financial periods are the periods with data.
type specified struct {
	name    string
	file    string
	storage bool
}

func (s *specified) Name() string { return s.name }

func (s *specified) setName() string { return strings.ToUpper(s.name) + "_OPR_PRDS" }

func (s *specified) param(col string) string { return s.name + "_" + col }

func (s *specified) columns() []string {
	if s.storage {
		return []string{"project", "period", "specified_capacity_mw", "specified_capacity_mwh", "fixed_cost_per_mw_yr", "fixed_cost_per_mwh_yr"}
	}
	return []string{"project", "period", "specified_capacity_mw", "fixed_cost_per_mw_yr"}
}

func (s *specified) LoadModelData(m *model.Model, _ *dynamic.Components, b subtype.BuildInfo) error {
	projects, err := projectsOfType(b, s.name)
	if err != nil {
		return err
	}
	t, err := inputs.ReadFile(b.InputsDir(), s.file)
	if err != nil {
		return err
	}

	set := model.NewSet[model.EntityPeriod](s.setName())
	params := map[string]*model.Param[model.EntityPeriod]{}
	for _, col := range s.columns()[2:] {
		params[col] = model.NewParamWithDefault[model.EntityPeriod](s.param(col), 0)
	}
	for _, r := range t.Records() {
		prj, err := r.String("project")
		if err != nil {
			return err
		}
		if !projects[prj] {
			continue
		}
		prd, err := r.Int("period")
		if err != nil {
			return err
		}
		k := model.EntityPeriod{Entity: prj, Period: prd}
		set.Add(k)
		mw, err := r.Float("specified_capacity_mw")
		if err != nil {
			return err
		}
		params["specified_capacity_mw"].Set(k, mw)
		for _, col := range s.columns()[3:] {
			if v, ok, err := r.OptFloat(col); err != nil {
				return err
			} else if ok {
				params[col].Set(k, v)
			}
		}
	}

	if err := model.AddSet(m, set); err != nil {
		return err
	}
	for _, col := range s.columns()[2:] {
		if err := model.AddParam(m, params[col]); err != nil {
			return err
		}
	}
	return nil
}

func (s *specified) AddModelComponents(_ *model.Model, d *dynamic.Components, _ subtype.BuildInfo) error {
	if err := d.OperationalPeriodSets.Append(s.setName()); err != nil {
		return err
	}
	return d.FinancialPeriodSets.Append(s.setName())
}

func (s *specified) value(m *model.Model, col, prj string, prd int) float64 {
	return model.MustParam[model.EntityPeriod](m, s.param(col)).Get(model.EntityPeriod{Entity: prj, Period: prd})
}

func (s *specified) CapacityRule(m *model.Model, prj string, prd int) model.LinExpr {
	return model.Const(s.value(m, "specified_capacity_mw", prj, prd))
}

func (s *specified) FixedCostRule(m *model.Model, prj string, prd int) model.LinExpr {
	cost := s.value(m, "specified_capacity_mw", prj, prd) * s.value(m, "fixed_cost_per_mw_yr", prj, prd)
	if s.storage {
		cost += s.value(m, "specified_capacity_mwh", prj, prd) * s.value(m, "fixed_cost_per_mwh_yr", prj, prd)
	}
	return model.Const(cost)
}

func (s *specified) query(ctx context.Context, q subtype.Query) ([]entities.InputsProjectSpecifiedCapacity, error) {
	var rows []entities.InputsProjectSpecifiedCapacity
	err := q.DB.WithContext(ctx).
		Table("inputs_project_specified_capacity AS c").
		Select("c.*").
		Joins("JOIN inputs_project_portfolios AS p ON p.project = c.project AND p.project_portfolio_scenario_id = ?",
			q.Scenario.IDs.ProjectPortfolio).
		Where("c.project_specified_capacity_scenario_id = ? AND p.capacity_type = ?",
			q.Scenario.IDs.ProjectSpecifiedCapacity, s.name).
		Order("c.project, c.period").
		Find(&rows).Error
	if err != nil {
		return nil, dbError(err, s.name, "inputs_project_specified_capacity")
	}
	return rows, nil
}

func (s *specified) GetModelInputsFromDatabase(ctx context.Context, q subtype.Query) ([]*inputs.Table, error) {
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	t := inputs.NewTable(s.file, s.columns()...)
	for _, r := range rows {
		values := []any{r.Project, r.Period, r.SpecifiedCapacityMW}
		if s.storage {
			values = append(values, r.SpecifiedCapacityMWh, r.FixedCostPerMWYr, r.FixedCostPerMWhYr)
		} else {
			values = append(values, r.FixedCostPerMWYr)
		}
		if err := t.Append(values...); err != nil {
			return nil, err
		}
	}
	return []*inputs.Table{t}, nil
}

func (s *specified) WriteModelInputs(ctx context.Context, q subtype.Query) error {
	return writeTables(ctx, q, s)
}

func (s *specified) ValidateInputs(ctx context.Context, q subtype.Query, c *validation.Collector) error {
	rows, err := s.query(ctx, q)
	if err != nil {
		return err
	}
	prjs, err := portfolioOfType(ctx, q, s.name)
	if err != nil {
		return err
	}

	const table = "inputs_project_specified_capacity"
	seen := make(map[string]bool)
	for _, r := range rows {
		seen[r.Project] = true
		if r.SpecifiedCapacityMW < 0 {
			c.Addf(s.name, table, validation.High, "project %s period %d: negative capacity %g", r.Project, r.Period, r.SpecifiedCapacityMW)
		}
		if s.storage && r.SpecifiedCapacityMWh == nil {
			c.Addf(s.name, table, validation.High, "project %s period %d: storage needs specified_capacity_mwh", r.Project, r.Period)
		}
		if r.FixedCostPerMWYr == nil {
			c.Addf(s.name, table, validation.Low, "project %s period %d: no fixed cost, assuming 0", r.Project, r.Period)
		}
	}
	for _, p := range prjs {
		if !seen[p] {
			c.Addf(s.name, table, validation.Mid, "project %s has no specified capacity in any period", p)
		}
	}
	return nil
}

// storSpec adds the energy capacity rule to specified storage.
type storSpec struct {
	*specified
}

func (s storSpec) EnergyCapacityRule(m *model.Model, prj string, prd int) model.LinExpr {
	return model.Const(s.value(m, "specified_capacity_mwh", prj, prd))
}

func newGenSpec() subtype.Module {
	return &specified{name: GenSpec, file: "specified_generation_period_params.tab"}
}

func newStorSpec() subtype.Module {
	return storSpec{&specified{name: StorSpec, file: "storage_specified_capacities.tab", storage: true}}
}

// writeTables writes what the module's database getter returns.
func writeTables(ctx context.Context, q subtype.Query, g subtype.InputsGetter) error {
	tables, err := g.GetModelInputsFromDatabase(ctx, q)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if err := inputs.WriteFile(q.Build.InputsDir(), t); err != nil {
			return err
		}
	}
	return nil
}

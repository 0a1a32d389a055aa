// Package reserves implements the reserve products. All of them share one
// implementation parameterized by direction: an upward product takes
// headroom from the providing projects, a downward product takes footroom.
package reserves

import (
	"context"
	"strings"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/results"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/validation"
)

// Reserve product names
const (
	RegulationUp     = "regulation_up"
	RegulationDown   = "regulation_down"
	SpinningReserves = "spinning_reserves"
)

// Register adds every reserve product to c.
func Register(c *subtype.Catalog) {
	c.MustRegister(subtype.Reserve, RegulationUp, func() subtype.Module { return newReserve(RegulationUp, true) })
	c.MustRegister(subtype.Reserve, RegulationDown, func() subtype.Module { return newReserve(RegulationDown, false) })
	c.MustRegister(subtype.Reserve, SpinningReserves, func() subtype.Module { return newReserve(SpinningReserves, true) })
}

// GetLogger returns the reserves package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("reserves")
}

type reserve struct {
	name string
	up   bool

	// balancing area by enrolled project
	ba map[string]string
}

func newReserve(name string, up bool) *reserve {
	return &reserve{name: name, up: up}
}

func (r *reserve) Name() string { return r.name }

func (r *reserve) upper() string { return strings.ToUpper(r.name) }

// provisionVar is the provision variable family, e.g. Provide_Regulation_Up_MW.
func (r *reserve) provisionVar() string {
	parts := strings.Split(r.name, "_")
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return "Provide_" + strings.Join(parts, "_") + "_MW"
}

func (r *reserve) derateParam() string { return r.name + "_derate" }

func (r *reserve) requirementParam() string { return r.name + "_requirement_mw" }

func (r *reserve) requirementFile() string { return r.name + "_requirement.tab" }

// LoadModelData reads the enrolled projects from the product's projects.tab
// column and the requirement per balancing area and timepoint. Without a
// derate column provision counts in full.
func (r *reserve) LoadModelData(m *model.Model, _ *dynamic.Components, b subtype.BuildInfo) error {
	pt, err := inputs.ReadFile(b.InputsDir(), core.ProjectsFile)
	if err != nil {
		return err
	}
	prjs := model.NewSet[string](r.upper() + "_PRJS")
	derate := model.NewParamWithDefault[model.Name](r.derateParam(), 1)
	r.ba = make(map[string]string)
	for _, rec := range pt.Records() {
		area, ok := rec.OptString(r.name)
		if !ok {
			continue
		}
		prj, err := rec.String("project")
		if err != nil {
			return err
		}
		prjs.Add(prj)
		r.ba[prj] = area
		if v, ok, err := rec.OptFloat(r.derateParam()); err != nil {
			return err
		} else if ok {
			derate.Set(model.Name(prj), v)
		}
	}

	bas := model.NewSet[string](r.upper() + "_BAS")
	req := model.NewParam[model.ZoneTimepoint](r.requirementParam())
	rt, err := inputs.ReadOptional(b.InputsDir(), r.requirementFile())
	if err != nil {
		return err
	}
	if rt != nil {
		for _, rec := range rt.Records() {
			area, err := rec.String("ba")
			if err != nil {
				return err
			}
			tmp, err := rec.Int("timepoint")
			if err != nil {
				return err
			}
			mw, err := rec.Float("requirement_mw")
			if err != nil {
				return err
			}
			bas.Add(area)
			req.Set(model.ZoneTimepoint{Zone: area, Timepoint: tmp}, mw)
		}
	}

	if err := model.AddSet(m, prjs); err != nil {
		return err
	}
	if err := model.AddSet(m, bas); err != nil {
		return err
	}
	if err := model.AddParam(m, derate); err != nil {
		return err
	}
	return model.AddParam(m, req)
}

// AddModelComponents declares provision per enrolled project and operational
// timepoint, registers it as headroom or footroom, and requires derated
// provision in each balancing area to cover the requirement.
func (r *reserve) AddModelComponents(m *model.Model, d *dynamic.Components, _ subtype.BuildInfo) error {
	prjs := model.MustSet[string](m, r.upper()+"_PRJS")
	all, err := model.SetOf[model.EntityTimepoint](m, core.SetProjectOperationalTimepoints)
	if err != nil {
		return err
	}
	tmps := model.NewSet(r.upper()+"_PRJ_OPR_TMPS", all.Filter(func(k model.EntityTimepoint) bool {
		return prjs.Contains(k.Entity)
	})...)
	if err := model.AddSet(m, tmps); err != nil {
		return err
	}

	fam := r.provisionVar()
	for _, k := range tmps.Items() {
		if _, err := m.AddVar(fam, k, model.NonNegative()); err != nil {
			return err
		}
	}
	room := d.FootroomVariables
	if r.up {
		room = d.HeadroomVariables
	}
	for _, prj := range prjs.Items() {
		if err := room.Append(prj, fam); err != nil {
			return err
		}
	}
	if err := d.ReserveDerateParamByVariable.Set(fam, r.derateParam()); err != nil {
		return err
	}

	return r.addRequirement(m, d, tmps.Items())
}

func (r *reserve) addRequirement(m *model.Model, d *dynamic.Components, tmps []model.EntityTimepoint) error {
	param, ok := d.ReserveDerateParamByVariable.Get(r.provisionVar())
	if !ok {
		return errors.Newf("no derate registered for %s", r.provisionVar()).
			Component("reserves").
			Category(errors.CategoryModelBuild).
			Build()
	}
	derate := model.MustParam[model.Name](m, param)

	provision := make(map[model.ZoneTimepoint]model.LinExpr)
	for _, k := range tmps {
		key := model.ZoneTimepoint{Zone: r.ba[k.Entity], Timepoint: k.Timepoint}
		e := provision[key]
		e.Add(m.VarTerm(r.provisionVar(), k, derate.Get(model.Name(k.Entity))))
		provision[key] = e
	}

	req := model.MustParam[model.ZoneTimepoint](m, r.requirementParam())
	for _, area := range model.MustSet[string](m, r.upper()+"_BAS").Items() {
		for _, tmp := range model.MustSet[int](m, core.SetTimepoints).Items() {
			key := model.ZoneTimepoint{Zone: area, Timepoint: tmp}
			mw, ok := req.Lookup(key)
			if !ok {
				continue
			}
			if err := m.AddConstraint("Meet_"+r.name+"_requirement", key, provision[key], model.GreaterEqual, mw); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExportResults reports the provision of each enrolled project.
func (r *reserve) ExportResults(m *model.Model, _ *dynamic.Components, sol *model.Solution) ([]results.Contribution, error) {
	col := strings.ToLower(r.provisionVar())
	out := results.Contribution{Table: results.ReserveProvision, Module: r.name, Columns: []string{col}}
	for _, k := range model.MustSet[model.EntityTimepoint](m, r.upper()+"_PRJ_OPR_TMPS").Items() {
		out.Rows = append(out.Rows, results.Row{
			Key:    results.Key{Entity: k.Entity, Index: k.Timepoint},
			Values: map[string]results.Value{col: results.Float(sol.Evaluate(m.VarTerm(r.provisionVar(), k, 1)))},
		})
	}
	return []results.Contribution{out}, nil
}

func (r *reserve) requirements(ctx context.Context, q subtype.Query) ([]entities.InputsReserveRequirement, error) {
	var rows []entities.InputsReserveRequirement
	if err := q.DB.WithContext(ctx).
		Where("reserve_scenario_id = ? AND reserve_type = ?", q.Scenario.IDs.Reserve, r.name).
		Order("ba, timepoint").
		Find(&rows).Error; err != nil {
		return nil, dbError(err, r.name, "inputs_reserve_requirements")
	}
	return rows, nil
}

func (r *reserve) GetModelInputsFromDatabase(ctx context.Context, q subtype.Query) ([]*inputs.Table, error) {
	rows, err := r.requirements(ctx, q)
	if err != nil {
		return nil, err
	}
	t := inputs.NewTable(r.requirementFile(), "ba", "timepoint", "requirement_mw")
	for _, row := range rows {
		if err := t.Append(row.BalancingArea, row.Timepoint, row.RequirementMW); err != nil {
			return nil, err
		}
	}
	return []*inputs.Table{t}, nil
}

func (r *reserve) WriteModelInputs(ctx context.Context, q subtype.Query) error {
	tables, err := r.GetModelInputsFromDatabase(ctx, q)
	if err != nil {
		return err
	}
	return inputs.WriteFile(q.Build.InputsDir(), tables[0])
}

// ValidateInputs flags derates outside (0, 1], negative requirements, enrolled
// projects missing from the portfolio and areas with a requirement but no
// providers.
func (r *reserve) ValidateInputs(ctx context.Context, q subtype.Query, c *validation.Collector) error {
	var enrolled []entities.InputsReserveProject
	if err := q.DB.WithContext(ctx).
		Where("reserve_scenario_id = ? AND reserve_type = ?", q.Scenario.IDs.Reserve, r.name).
		Order("project").
		Find(&enrolled).Error; err != nil {
		return dbError(err, r.name, "inputs_reserve_projects")
	}
	var portfolio []string
	if err := q.DB.WithContext(ctx).Model(&entities.InputsProjectPortfolio{}).
		Where("project_portfolio_scenario_id = ?", q.Scenario.IDs.ProjectPortfolio).
		Pluck("project", &portfolio).Error; err != nil {
		return dbError(err, r.name, "inputs_project_portfolios")
	}
	inPortfolio := make(map[string]bool, len(portfolio))
	for _, p := range portfolio {
		inPortfolio[p] = true
	}

	providers := make(map[string]bool)
	for _, e := range enrolled {
		providers[e.BalancingArea] = true
		if !inPortfolio[e.Project] {
			c.Addf(r.name, "inputs_reserve_projects", validation.High, "project %s is not in the project portfolio", e.Project)
		}
		if e.Derate != nil && (*e.Derate <= 0 || *e.Derate > 1) {
			c.Addf(r.name, "inputs_reserve_projects", validation.Mid, "project %s: derate %g outside (0, 1]", e.Project, *e.Derate)
		}
	}

	reqs, err := r.requirements(ctx, q)
	if err != nil {
		return err
	}
	flagged := make(map[string]bool)
	for _, req := range reqs {
		if req.RequirementMW < 0 {
			c.Addf(r.name, "inputs_reserve_requirements", validation.Mid,
				"ba %s timepoint %d: negative requirement %g", req.BalancingArea, req.Timepoint, req.RequirementMW)
		}
		if req.RequirementMW > 0 && !providers[req.BalancingArea] && !flagged[req.BalancingArea] {
			flagged[req.BalancingArea] = true
			c.Addf(r.name, "inputs_reserve_requirements", validation.High,
				"ba %s has a requirement but no enrolled projects", req.BalancingArea)
		}
	}
	return nil
}

func dbError(err error, reserve, table string) error {
	return errors.New(err).
		Component("reserves").
		Category(errors.CategoryDatabase).
		Context("reserve", reserve).
		Context("table", table).
		Build()
}

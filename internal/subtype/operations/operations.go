// Package operations implements the project operational types: how a project
// turns its installed capacity into power in each timepoint.
//
// Every type reads its projects from projects.tab and declares its variables
// over the project's operational timepoints, so it must be added after the
// project capacity aggregation. Reserve provision variables registered by the
// reserve types are subtracted from headroom and footroom.
package operations

import (
	"context"
	"strings"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/validation"
)

// Operational type names
const (
	GenSimple  = "gen_simple"
	GenMustRun = "gen_must_run"
	GenVar     = "gen_var"
	Stor       = "stor"
)

// Register adds every operational type to c.
func Register(c *subtype.Catalog) {
	c.MustRegister(subtype.OperationalType, GenSimple, func() subtype.Module { return &genSimple{base{name: GenSimple}} })
	c.MustRegister(subtype.OperationalType, GenMustRun, func() subtype.Module { return &genMustRun{base{name: GenMustRun}} })
	c.MustRegister(subtype.OperationalType, GenVar, func() subtype.Module { return &genVar{base: base{name: GenVar}} })
	c.MustRegister(subtype.OperationalType, Stor, func() subtype.Module { return &stor{base{name: Stor}} })
}

// GetLogger returns the operations package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("operations")
}

// optional projects.tab columns read into per-project params
var projectParams = []struct {
	column string
	def    float64
}{
	{"variable_om_cost_per_mwh", 0},
	{"min_stable_level_fraction", 0},
	{"charging_efficiency", 1},
	{"discharging_efficiency", 1},
}

// base carries what every operational type shares: its project set and the
// per-project params from projects.tab.
type base struct {
	name string
}

func (b *base) Name() string { return b.name }

func (b *base) projectSet() string { return strings.ToUpper(b.name) + "_PRJS" }

func (b *base) tmpSet() string { return strings.ToUpper(b.name) + "_OPR_TMPS" }

func (b *base) param(col string) string { return b.name + "_" + col }

// LoadModelData declares the type's projects and their params.
func (b *base) LoadModelData(m *model.Model, _ *dynamic.Components, info subtype.BuildInfo) error {
	recs, err := core.RecordsOfType(info.InputsDir(), core.ProjectsFile, "operational_type", b.name)
	if err != nil {
		return err
	}
	prjs := model.NewSet[string](b.projectSet())
	params := make([]*model.Param[model.Name], len(projectParams))
	for i, p := range projectParams {
		params[i] = model.NewParamWithDefault[model.Name](b.param(p.column), p.def)
	}
	for _, r := range recs {
		prj, err := r.String("project")
		if err != nil {
			return err
		}
		prjs.Add(prj)
		for i, p := range projectParams {
			if v, ok, err := r.OptFloat(p.column); err != nil {
				return err
			} else if ok {
				params[i].Set(model.Name(prj), v)
			}
		}
	}
	if err := model.AddSet(m, prjs); err != nil {
		return err
	}
	for _, p := range params {
		if err := model.AddParam(m, p); err != nil {
			return err
		}
	}
	return nil
}

// operationalTimepoints declares and returns the type's share of the project
// operational timepoints.
func (b *base) operationalTimepoints(m *model.Model) ([]model.EntityTimepoint, error) {
	prjs := model.MustSet[string](m, b.projectSet())
	all, err := model.SetOf[model.EntityTimepoint](m, core.SetProjectOperationalTimepoints)
	if err != nil {
		return nil, err
	}
	own := model.NewSet(b.tmpSet(), all.Filter(func(k model.EntityTimepoint) bool { return prjs.Contains(k.Entity) })...)
	if err := model.AddSet(m, own); err != nil {
		return nil, err
	}
	return own.Items(), nil
}

func (b *base) value(m *model.Model, col, prj string) float64 {
	return model.MustParam[model.Name](m, b.param(col)).Get(model.Name(prj))
}

// capacity is the project's installed capacity in the timepoint's period.
func capacity(m *model.Model, family string, k model.EntityTimepoint) model.LinExpr {
	e, _ := m.Expression(family, model.EntityPeriod{Entity: k.Entity, Period: core.PeriodOf(m, k.Timepoint)})
	return e
}

// reserves sums the provision variables of the families registered for the
// project in x.
func reserves(m *model.Model, x *dynamic.Index, k model.EntityTimepoint) model.LinExpr {
	var e model.LinExpr
	for _, fam := range x.Get(k.Entity) {
		e.Add(m.VarTerm(fam, k, 1))
	}
	return e
}

func (b *base) chars(ctx context.Context, q subtype.Query) ([]entities.InputsProjectOperationalChars, error) {
	var rows []entities.InputsProjectOperationalChars
	err := q.DB.WithContext(ctx).
		Table("inputs_project_operational_chars AS o").
		Select("o.*").
		Joins("JOIN inputs_project_portfolios AS p ON p.project = o.project AND p.project_portfolio_scenario_id = ?",
			q.Scenario.IDs.ProjectPortfolio).
		Where("o.project_operational_chars_scenario_id = ? AND o.operational_type = ?",
			q.Scenario.IDs.ProjectOperationalChars, b.name).
		Order("o.project").
		Find(&rows).Error
	if err != nil {
		return nil, errors.New(err).
			Component("operations").
			Category(errors.CategoryDatabase).
			Context("operational_type", b.name).
			Build()
	}
	return rows, nil
}

const charsTable = "inputs_project_operational_chars"

func (b *base) validateCommon(rows []entities.InputsProjectOperationalChars, c *validation.Collector) {
	for _, r := range rows {
		if v := r.MinStableLevelFraction; v != nil && (*v < 0 || *v > 1) {
			c.Addf(b.name, charsTable, validation.High, "project %s: min stable level %g outside [0, 1]", r.Project, *v)
		}
	}
}

package operations

import (
	"context"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/results"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/validation"
)

// genVar is a variable generator whose output is capped by a capacity factor
// profile. Output below the cap is curtailment.
type genVar struct {
	base
}

const (
	genVarPower       = "GenVar_Provide_Power_MW"
	genVarProfileFile = "variable_generator_profiles.tab"
	genVarCapFactor   = "gen_var_cap_factor"
)

// LoadModelData adds the capacity factor profile to the common project data.
// Every operational timepoint of a gen_var project needs a profile value,
// which AddModelComponents checks.
func (g *genVar) LoadModelData(m *model.Model, d *dynamic.Components, info subtype.BuildInfo) error {
	if err := g.base.LoadModelData(m, d, info); err != nil {
		return err
	}
	prjs := model.MustSet[string](m, g.projectSet())
	cf := model.NewParam[model.EntityTimepoint](genVarCapFactor)
	if prjs.Len() > 0 {
		t, err := inputs.ReadFile(info.InputsDir(), genVarProfileFile)
		if err != nil {
			return err
		}
		for _, r := range t.Records() {
			prj, err := r.String("project")
			if err != nil {
				return err
			}
			if !prjs.Contains(prj) {
				continue
			}
			tmp, err := r.Int("timepoint")
			if err != nil {
				return err
			}
			v, err := r.Float("cap_factor")
			if err != nil {
				return err
			}
			cf.Set(model.EntityTimepoint{Entity: prj, Timepoint: tmp}, v)
		}
	}
	return model.AddParam(m, cf)
}

func (g *genVar) AddModelComponents(m *model.Model, d *dynamic.Components, _ subtype.BuildInfo) error {
	tmps, err := g.operationalTimepoints(m)
	if err != nil {
		return err
	}
	cf := model.MustParam[model.EntityTimepoint](m, genVarCapFactor)
	for _, k := range tmps {
		if !cf.Has(k) {
			return errors.Newf("%s: no capacity factor for %s in timepoint %d", genVarProfileFile, k.Entity, k.Timepoint).
				Component("operations").
				Category(errors.CategoryModelBuild).
				Build()
		}
		power, err := m.AddVar(genVarPower, k, model.NonNegative())
		if err != nil {
			return err
		}
		upper := model.Term(power, 1).Plus(reserves(m, d.HeadroomVariables, k))
		upper.Add(capacity(m, core.ExprCapacity, k).Scale(-cf.Get(k)))
		if err := m.AddConstraint("GenVar_Max_Power_Constraint", k, upper, model.LessEqual, 0); err != nil {
			return err
		}
		lower := model.Term(power, 1).Plus(reserves(m, d.FootroomVariables, k).Scale(-1))
		if err := m.AddConstraint("GenVar_Min_Power_Constraint", k, lower, model.GreaterEqual, 0); err != nil {
			return err
		}
	}
	return nil
}

func (g *genVar) PowerProvisionRule(m *model.Model, prj string, tmp int) model.LinExpr {
	return m.VarTerm(genVarPower, model.EntityTimepoint{Entity: prj, Timepoint: tmp}, 1)
}

func (g *genVar) VariableCostRule(m *model.Model, prj string, tmp int) model.LinExpr {
	return g.PowerProvisionRule(m, prj, tmp).Scale(g.value(m, "variable_om_cost_per_mwh", prj))
}

// ExportResults reports the capacity factor and the curtailed output.
func (g *genVar) ExportResults(m *model.Model, _ *dynamic.Components, sol *model.Solution) ([]results.Contribution, error) {
	cf := model.MustParam[model.EntityTimepoint](m, genVarCapFactor)
	out := results.Contribution{
		Table:   results.ProjectTimepoint,
		Module:  g.name,
		Columns: []string{"cap_factor", "scheduled_curtailment_mw"},
	}
	for _, k := range model.MustSet[model.EntityTimepoint](m, g.tmpSet()).Items() {
		available := sol.Evaluate(capacity(m, core.ExprCapacity, k)) * cf.Get(k)
		produced := sol.Evaluate(g.PowerProvisionRule(m, k.Entity, k.Timepoint))
		out.Rows = append(out.Rows, results.Row{
			Key: results.Key{Entity: k.Entity, Index: k.Timepoint},
			Values: map[string]results.Value{
				"cap_factor":               results.Float(cf.Get(k)),
				"scheduled_curtailment_mw": results.Float(available - produced),
			},
		})
	}
	return []results.Contribution{out}, nil
}

func (g *genVar) profiles(ctx context.Context, q subtype.Query) ([]entities.InputsProjectVariableProfile, []entities.InputsProjectOperationalChars, error) {
	chars, err := g.chars(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	var out []entities.InputsProjectVariableProfile
	for _, c := range chars {
		if c.VariableProfileScenarioID == nil {
			continue
		}
		var rows []entities.InputsProjectVariableProfile
		if err := q.DB.WithContext(ctx).
			Where("project = ? AND variable_profile_scenario_id = ?", c.Project, *c.VariableProfileScenarioID).
			Order("timepoint").
			Find(&rows).Error; err != nil {
			return nil, nil, errors.New(err).
				Component("operations").
				Category(errors.CategoryDatabase).
				Context("project", c.Project).
				Build()
		}
		out = append(out, rows...)
	}
	return out, chars, nil
}

func (g *genVar) GetModelInputsFromDatabase(ctx context.Context, q subtype.Query) ([]*inputs.Table, error) {
	rows, _, err := g.profiles(ctx, q)
	if err != nil {
		return nil, err
	}
	t := inputs.NewTable(genVarProfileFile, "project", "timepoint", "cap_factor")
	for _, r := range rows {
		if err := t.Append(r.Project, r.Timepoint, r.CapFactor); err != nil {
			return nil, err
		}
	}
	return []*inputs.Table{t}, nil
}

func (g *genVar) WriteModelInputs(ctx context.Context, q subtype.Query) error {
	tables, err := g.GetModelInputsFromDatabase(ctx, q)
	if err != nil {
		return err
	}
	return inputs.WriteFile(q.Build.InputsDir(), tables[0])
}

// ValidateInputs flags projects without a profile and capacity factors
// outside [0, 1].
func (g *genVar) ValidateInputs(ctx context.Context, q subtype.Query, c *validation.Collector) error {
	rows, chars, err := g.profiles(ctx, q)
	if err != nil {
		return err
	}
	g.validateCommon(chars, c)

	const table = "inputs_project_variable_profiles"
	count := make(map[string]int)
	for _, r := range rows {
		count[r.Project]++
		if r.CapFactor < 0 || r.CapFactor > 1 {
			c.Addf(g.name, table, validation.Mid, "project %s timepoint %d: capacity factor %g outside [0, 1]",
				r.Project, r.Timepoint, r.CapFactor)
		}
	}
	for _, ch := range chars {
		switch {
		case ch.VariableProfileScenarioID == nil:
			c.Addf(g.name, charsTable, validation.High, "project %s has no variable_profile_scenario_id", ch.Project)
		case count[ch.Project] == 0:
			c.Addf(g.name, table, validation.High, "project %s: profile %d has no timepoints",
				ch.Project, *ch.VariableProfileScenarioID)
		}
	}
	return nil
}

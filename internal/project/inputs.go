package project

import (
	"context"
	"slices"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/validation"
)

// DerateColumn is the projects.tab column holding a reserve's derate.
func DerateColumn(reserve string) string {
	return reserve + "_derate"
}

type projectRow struct {
	portfolio entities.InputsProjectPortfolio
	chars     *entities.InputsProjectOperationalChars
}

func queryProjects(ctx context.Context, q subtype.Query) ([]projectRow, error) {
	db := q.DB.WithContext(ctx)

	var portfolio []entities.InputsProjectPortfolio
	if err := db.Where("project_portfolio_scenario_id = ?", q.Scenario.IDs.ProjectPortfolio).
		Order("project").Find(&portfolio).Error; err != nil {
		return nil, errors.New(err).Component("project").Category(errors.CategoryDatabase).
			Context("table", "inputs_project_portfolios").Build()
	}
	var chars []entities.InputsProjectOperationalChars
	if err := db.Where("project_operational_chars_scenario_id = ?", q.Scenario.IDs.ProjectOperationalChars).
		Find(&chars).Error; err != nil {
		return nil, errors.New(err).Component("project").Category(errors.CategoryDatabase).
			Context("table", "inputs_project_operational_chars").Build()
	}
	byProject := make(map[string]*entities.InputsProjectOperationalChars, len(chars))
	for i := range chars {
		byProject[chars[i].Project] = &chars[i]
	}

	out := make([]projectRow, 0, len(portfolio))
	for _, p := range portfolio {
		out = append(out, projectRow{portfolio: p, chars: byProject[p.Project]})
	}
	return out, nil
}

func queryReserveProjects(ctx context.Context, q subtype.Query) ([]entities.InputsReserveProject, error) {
	if !q.Scenario.Features.Reserves || q.Scenario.IDs.Reserve == 0 {
		return nil, nil
	}
	var rows []entities.InputsReserveProject
	if err := q.DB.WithContext(ctx).Where("reserve_scenario_id = ?", q.Scenario.IDs.Reserve).
		Order("reserve_type, project").Find(&rows).Error; err != nil {
		return nil, errors.New(err).Component("project").Category(errors.CategoryDatabase).
			Context("table", "inputs_reserve_projects").Build()
	}
	return rows, nil
}

// WriteProjectInputs writes projects.tab: the portfolio joined with the
// operational characteristics and, when the scenario models reserves, one
// balancing-area column and one derate column per reserve type.
func WriteProjectInputs(ctx context.Context, q subtype.Query) error {
	projects, err := queryProjects(ctx, q)
	if err != nil {
		return err
	}
	enrolled, err := queryReserveProjects(ctx, q)
	if err != nil {
		return err
	}

	var reserves []string
	ba := make(map[string]map[string]string)
	derate := make(map[string]map[string]*float64)
	for _, r := range enrolled {
		if !slices.Contains(reserves, r.ReserveType) {
			reserves = append(reserves, r.ReserveType)
			ba[r.ReserveType] = make(map[string]string)
			derate[r.ReserveType] = make(map[string]*float64)
		}
		ba[r.ReserveType][r.Project] = r.BalancingArea
		derate[r.ReserveType][r.Project] = r.Derate
	}

	header := []string{
		"project", "capacity_type", "operational_type", "load_zone",
		"variable_om_cost_per_mwh", "min_stable_level_fraction",
		"charging_efficiency", "discharging_efficiency", "variable_profile_scenario_id",
	}
	for _, rt := range reserves {
		header = append(header, rt, DerateColumn(rt))
	}
	t := inputs.NewTable(core.ProjectsFile, header...)

	for _, p := range projects {
		row := []any{p.portfolio.Project, p.portfolio.CapacityType}
		if c := p.chars; c != nil {
			var profile any
			if c.VariableProfileScenarioID != nil {
				profile = *c.VariableProfileScenarioID
			}
			row = append(row, c.OperationalType, c.LoadZone, c.VariableOMCostPerMWh, c.MinStableLevelFraction,
				c.ChargingEfficiency, c.DischargingEfficiency, profile)
		} else {
			row = append(row, nil, nil, nil, nil, nil, nil, nil)
		}
		for _, rt := range reserves {
			row = append(row, ba[rt][p.portfolio.Project], derate[rt][p.portfolio.Project])
		}
		if err := t.Append(row...); err != nil {
			return err
		}
	}
	return inputs.WriteFile(q.Build.InputsDir(), t)
}

// ValidateProjects checks that every project has operational characteristics,
// known subtypes and a load zone of the scenario.
func ValidateProjects(ctx context.Context, q subtype.Query, catalog *subtype.Catalog, c *validation.Collector) error {
	projects, err := queryProjects(ctx, q)
	if err != nil {
		return err
	}
	var zones []entities.InputsLoadZone
	if err := q.DB.WithContext(ctx).Where("load_scenario_id = ?", q.Scenario.IDs.Load).Find(&zones).Error; err != nil {
		return errors.New(err).Component("project").Category(errors.CategoryDatabase).Build()
	}
	zoneSet := make(map[string]bool, len(zones))
	for _, z := range zones {
		zoneSet[z.LoadZone] = true
	}

	capTypes := catalog.Names(subtype.CapacityType)
	oprTypes := catalog.Names(subtype.OperationalType)
	const table = "inputs_project_operational_chars"
	for _, p := range projects {
		prj := p.portfolio.Project
		if !slices.Contains(capTypes, p.portfolio.CapacityType) {
			c.Addf("project", "inputs_project_portfolios", validation.High,
				"project %s: unknown capacity type %q", prj, p.portfolio.CapacityType)
		}
		if p.chars == nil {
			c.Addf("project", table, validation.High, "project %s has no operational characteristics", prj)
			continue
		}
		if !slices.Contains(oprTypes, p.chars.OperationalType) {
			c.Addf("project", table, validation.High,
				"project %s: unknown operational type %q", prj, p.chars.OperationalType)
		}
		if !zoneSet[p.chars.LoadZone] {
			c.Addf("project", table, validation.High,
				"project %s: load zone %s is not in the load subscenario", prj, p.chars.LoadZone)
		}
		if v := p.chars.VariableOMCostPerMWh; v != nil && *v < 0 {
			c.Addf("project", table, validation.Mid, "project %s: negative variable O&M cost %g", prj, *v)
		}
	}
	return nil
}

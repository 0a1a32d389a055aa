package datastore

import (
	"sort"

	"github.com/gridforge/gridforge/internal/errors"
)

// Subscenario names.
const (
	SubscenarioTemporal                 = "temporal"
	SubscenarioLoad                     = "load"
	SubscenarioProjectPortfolio         = "project_portfolio"
	SubscenarioProjectOperationalChars  = "project_operational_chars"
	SubscenarioProjectSpecifiedCapacity = "project_specified_capacity"
	SubscenarioProjectNewCost           = "project_new_cost"
	SubscenarioTransmissionPortfolio    = "transmission_portfolio"
	SubscenarioTransmissionCapacity     = "transmission_capacity"
	SubscenarioReserve                  = "reserve"
	SubscenarioProjectVariableProfile   = "project_variable_profile"
)

// InputTable is one inputs_<name> table of a subscenario. Dir is the
// subdirectory holding its CSV files when a subscenario has more than one
// table; it is empty for single-table subscenarios.
type InputTable struct {
	Table string
	Dir   string
}

// Subscenario describes how a subscenario is stored.
type Subscenario struct {
	Name string
	// Column is the scenarios column referencing the subscenario. Empty for
	// project-level subscenarios, which scenarios do not reference.
	Column string
	// Table is the subscenarios_<name> table.
	Table string
	// IDColumn is the id column in Table and in every input table.
	IDColumn string
	// ProjectLevel subscenarios are keyed by (project, id).
	ProjectLevel bool
	Inputs       []InputTable
}

var subscenarioRegistry = map[string]Subscenario{
	SubscenarioTemporal: {
		Name:     SubscenarioTemporal,
		Column:   "temporal_scenario_id",
		Table:    "subscenarios_temporal",
		IDColumn: "temporal_scenario_id",
		Inputs: []InputTable{
			{Table: "inputs_temporal_periods", Dir: "periods"},
			{Table: "inputs_temporal_timepoints", Dir: "timepoints"},
		},
	},
	SubscenarioLoad: {
		Name:     SubscenarioLoad,
		Column:   "load_scenario_id",
		Table:    "subscenarios_load",
		IDColumn: "load_scenario_id",
		Inputs: []InputTable{
			{Table: "inputs_load_zones", Dir: "load_zones"},
			{Table: "inputs_load", Dir: "load"},
		},
	},
	SubscenarioProjectPortfolio: {
		Name:     SubscenarioProjectPortfolio,
		Column:   "project_portfolio_scenario_id",
		Table:    "subscenarios_project_portfolios",
		IDColumn: "project_portfolio_scenario_id",
		Inputs:   []InputTable{{Table: "inputs_project_portfolios"}},
	},
	SubscenarioProjectOperationalChars: {
		Name:     SubscenarioProjectOperationalChars,
		Column:   "project_operational_chars_scenario_id",
		Table:    "subscenarios_project_operational_chars",
		IDColumn: "project_operational_chars_scenario_id",
		Inputs:   []InputTable{{Table: "inputs_project_operational_chars"}},
	},
	SubscenarioProjectSpecifiedCapacity: {
		Name:     SubscenarioProjectSpecifiedCapacity,
		Column:   "project_specified_capacity_scenario_id",
		Table:    "subscenarios_project_specified_capacity",
		IDColumn: "project_specified_capacity_scenario_id",
		Inputs:   []InputTable{{Table: "inputs_project_specified_capacity"}},
	},
	SubscenarioProjectNewCost: {
		Name:     SubscenarioProjectNewCost,
		Column:   "project_new_cost_scenario_id",
		Table:    "subscenarios_project_new_cost",
		IDColumn: "project_new_cost_scenario_id",
		Inputs:   []InputTable{{Table: "inputs_project_new_cost"}},
	},
	SubscenarioTransmissionPortfolio: {
		Name:     SubscenarioTransmissionPortfolio,
		Column:   "transmission_portfolio_scenario_id",
		Table:    "subscenarios_transmission_portfolios",
		IDColumn: "transmission_portfolio_scenario_id",
		Inputs:   []InputTable{{Table: "inputs_transmission_portfolios"}},
	},
	SubscenarioTransmissionCapacity: {
		Name:     SubscenarioTransmissionCapacity,
		Column:   "transmission_capacity_scenario_id",
		Table:    "subscenarios_transmission_capacities",
		IDColumn: "transmission_capacity_scenario_id",
		Inputs:   []InputTable{{Table: "inputs_transmission_capacities"}},
	},
	SubscenarioReserve: {
		Name:     SubscenarioReserve,
		Column:   "reserve_scenario_id",
		Table:    "subscenarios_reserves",
		IDColumn: "reserve_scenario_id",
		Inputs: []InputTable{
			{Table: "inputs_reserve_projects", Dir: "projects"},
			{Table: "inputs_reserve_requirements", Dir: "requirements"},
		},
	},
	SubscenarioProjectVariableProfile: {
		Name:         SubscenarioProjectVariableProfile,
		Table:        "subscenarios_project_variable_profiles",
		IDColumn:     "variable_profile_scenario_id",
		ProjectLevel: true,
		Inputs:       []InputTable{{Table: "inputs_project_variable_profiles"}},
	},
}

// LookupSubscenario returns the storage description of a subscenario.
func LookupSubscenario(name string) (Subscenario, error) {
	s, ok := subscenarioRegistry[name]
	if !ok {
		return Subscenario{}, errors.Newf("unknown subscenario %q", name).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Context("subscenario", name).
			Build()
	}
	return s, nil
}

// SubscenarioNames returns all subscenario names, sorted.
func SubscenarioNames() []string {
	names := make([]string, 0, len(subscenarioRegistry))
	for name := range subscenarioRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Referenced reports whether scenarios reference this subscenario directly.
func (s Subscenario) Referenced() bool {
	return s.Column != ""
}

// key returns the where clause selecting rows of one subscenario id.
func (s Subscenario) key(id uint, project string) (string, []any) {
	if s.ProjectLevel {
		return "project = ? AND " + s.IDColumn + " = ?", []any{project, id}
	}
	return s.IDColumn + " = ?", []any{id}
}

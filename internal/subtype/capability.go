package subtype

import (
	"slices"

	"github.com/gridforge/gridforge/internal/model"
)

// Capability names an optional module hook.
type Capability string

const (
	AddModelComponents         Capability = "add_model_components"
	LoadModelData              Capability = "load_model_data"
	CapacityRule               Capability = "capacity_rule"
	MinCapacityRule            Capability = "min_capacity_rule"
	EnergyCapacityRule         Capability = "energy_capacity_rule"
	NewCapacityRule            Capability = "new_capacity_rule"
	CapacityCostRule           Capability = "capacity_cost_rule"
	FixedCostRule              Capability = "fixed_cost_rule"
	PowerProvisionRule         Capability = "power_provision_rule"
	VariableCostRule           Capability = "variable_cost_rule"
	ExportResults              Capability = "export_results"
	ImportResults              Capability = "import_results"
	ValidateInputs             Capability = "validate_inputs"
	GetModelInputsFromDatabase Capability = "get_model_inputs_from_database"
	WriteModelInputs           Capability = "write_model_inputs"
)

// AllCapabilities lists every capability in a stable order.
func AllCapabilities() []Capability {
	return []Capability{
		AddModelComponents, LoadModelData,
		CapacityRule, MinCapacityRule, EnergyCapacityRule, NewCapacityRule, CapacityCostRule, FixedCostRule,
		PowerProvisionRule, VariableCostRule,
		ExportResults, ImportResults,
		ValidateInputs, GetModelInputsFromDatabase, WriteModelInputs,
	}
}

// Has reports whether mod implements capability c.
func Has(mod Module, c Capability) bool {
	switch c {
	case AddModelComponents:
		return mod != nil
	case LoadModelData:
		_, ok := mod.(DataLoader)
		return ok
	case ExportResults:
		_, ok := mod.(ResultsExporter)
		return ok
	case ImportResults:
		_, ok := mod.(ResultsImporter)
		return ok
	case ValidateInputs:
		_, ok := mod.(InputsValidator)
		return ok
	case GetModelInputsFromDatabase:
		_, ok := mod.(InputsGetter)
		return ok
	case WriteModelInputs:
		_, ok := mod.(InputsWriter)
		return ok
	default:
		_, ok := RuleFor(mod, c)
		return ok
	}
}

// Capabilities lists the capabilities mod implements.
func Capabilities(mod Module) []Capability {
	var out []Capability
	for _, c := range AllCapabilities() {
		if Has(mod, c) {
			out = append(out, c)
		}
	}
	return out
}

// IsRule reports whether c names a per-entity rule.
func IsRule(c Capability) bool {
	return slices.Contains([]Capability{
		CapacityRule, MinCapacityRule, EnergyCapacityRule, NewCapacityRule, CapacityCostRule,
		FixedCostRule, PowerProvisionRule, VariableCostRule,
	}, c)
}

// RuleFor returns mod's implementation of rule capability c.
func RuleFor(mod Module, c Capability) (Rule, bool) {
	switch c {
	case CapacityRule:
		if r, ok := mod.(CapacityRuler); ok {
			return r.CapacityRule, true
		}
	case MinCapacityRule:
		if r, ok := mod.(MinCapacityRuler); ok {
			return r.MinCapacityRule, true
		}
	case EnergyCapacityRule:
		if r, ok := mod.(EnergyCapacityRuler); ok {
			return r.EnergyCapacityRule, true
		}
	case NewCapacityRule:
		if r, ok := mod.(NewCapacityRuler); ok {
			return r.NewCapacityRule, true
		}
	case CapacityCostRule:
		if r, ok := mod.(CapacityCostRuler); ok {
			return r.CapacityCostRule, true
		}
	case FixedCostRule:
		if r, ok := mod.(FixedCostRuler); ok {
			return r.FixedCostRule, true
		}
	case PowerProvisionRule:
		if r, ok := mod.(PowerProvisionRuler); ok {
			return r.PowerProvisionRule, true
		}
	case VariableCostRule:
		if r, ok := mod.(VariableCostRuler); ok {
			return r.VariableCostRule, true
		}
	}
	return nil, false
}

// ZeroRule is the default for every rule capability: the entity contributes nothing.
func ZeroRule(*model.Model, string, int) model.LinExpr {
	return model.Zero()
}

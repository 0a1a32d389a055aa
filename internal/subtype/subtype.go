// Package subtype defines the contract between the model build and the
// interchangeable capacity, operational, transmission and reserve modules, and
// resolves the modules a scenario needs from a catalog.
//
// Every module implements Module. Everything else is an optional capability
// expressed as a separate interface; a module that does not implement one gets
// the documented default (a zero expression for rules, a no-op for hooks).
package subtype

import (
	"context"
	"path/filepath"
	"strconv"

	"gorm.io/gorm"

	"github.com/gridforge/gridforge/internal/datastore"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/results"
	"github.com/gridforge/gridforge/internal/validation"
)

// Namespace groups interchangeable modules of one kind.
type Namespace string

const (
	CapacityType                Namespace = "capacity_type"
	OperationalType             Namespace = "operational_type"
	TransmissionCapacityType    Namespace = "transmission_capacity_type"
	TransmissionOperationalType Namespace = "transmission_operational_type"
	Reserve                     Namespace = "reserve"
)

// Namespaces lists every namespace in build order.
func Namespaces() []Namespace {
	return []Namespace{CapacityType, Reserve, OperationalType, TransmissionCapacityType, TransmissionOperationalType}
}

// BuildInfo locates the files of one scenario build.
type BuildInfo struct {
	ScenarioDirectory string
	Subproblem        int
	Stage             int
	// AssertDisjointSets rejects an (entity, period) contributed by two modules.
	AssertDisjointSets bool
}

func (b BuildInfo) stageDir() string {
	if b.Subproblem <= 1 && b.Stage <= 1 {
		return b.ScenarioDirectory
	}
	return filepath.Join(b.ScenarioDirectory, strconv.Itoa(max(b.Subproblem, 1)), strconv.Itoa(max(b.Stage, 1)))
}

// InputsDir is where tab-delimited model inputs are written and read.
func (b BuildInfo) InputsDir() string {
	return filepath.Join(b.stageDir(), "inputs")
}

// ResultsDir is where exported results are written.
func (b BuildInfo) ResultsDir() string {
	return filepath.Join(b.stageDir(), "results")
}

// Query is what database hooks receive: a connection plus the resolved scenario.
type Query struct {
	DB       *gorm.DB
	Scenario datastore.ResolvedScenario
	Build    BuildInfo
	// RunID tags result rows written by this build.
	RunID string
}

// Module is the one required capability: declaring model components.
type Module interface {
	Name() string
	AddModelComponents(m *model.Model, d *dynamic.Components, b BuildInfo) error
}

// DataLoader reads the module's input files into model sets and params. It runs
// before AddModelComponents.
type DataLoader interface {
	LoadModelData(m *model.Model, d *dynamic.Components, b BuildInfo) error
}

// Rule computes a per-entity expression for a period or timepoint. Rules must be
// pure and only read components the module declared itself.
type Rule func(m *model.Model, entity string, index int) model.LinExpr

// CapacityRuler returns installed power capacity in a period.
type CapacityRuler interface {
	CapacityRule(m *model.Model, entity string, period int) model.LinExpr
}

// MinCapacityRuler returns the lower flow bound of a line in a period. Lines
// without it are bounded by the negated capacity.
type MinCapacityRuler interface {
	MinCapacityRule(m *model.Model, entity string, period int) model.LinExpr
}

// EnergyCapacityRuler returns installed energy capacity in a period.
type EnergyCapacityRuler interface {
	EnergyCapacityRule(m *model.Model, entity string, period int) model.LinExpr
}

// NewCapacityRuler returns capacity built in a period.
type NewCapacityRuler interface {
	NewCapacityRule(m *model.Model, entity string, period int) model.LinExpr
}

// CapacityCostRuler returns annualized capital cost incurred in a period.
type CapacityCostRuler interface {
	CapacityCostRule(m *model.Model, entity string, period int) model.LinExpr
}

// FixedCostRuler returns annual fixed O&M cost in a period.
type FixedCostRuler interface {
	FixedCostRule(m *model.Model, entity string, period int) model.LinExpr
}

// PowerProvisionRuler returns net power injected in a timepoint.
type PowerProvisionRuler interface {
	PowerProvisionRule(m *model.Model, entity string, timepoint int) model.LinExpr
}

// VariableCostRuler returns variable cost per hour in a timepoint.
type VariableCostRuler interface {
	VariableCostRule(m *model.Model, entity string, timepoint int) model.LinExpr
}

// ResultsExporter returns the module's result columns after a solve.
type ResultsExporter interface {
	ExportResults(m *model.Model, d *dynamic.Components, sol *model.Solution) ([]results.Contribution, error)
}

// ResultsImporter loads module-specific result files into the database.
type ResultsImporter interface {
	ImportResults(ctx context.Context, q Query) error
}

// InputsValidator checks the module's database inputs.
type InputsValidator interface {
	ValidateInputs(ctx context.Context, q Query, c *validation.Collector) error
}

// InputsGetter reads the module's inputs for a scenario from the database.
type InputsGetter interface {
	GetModelInputsFromDatabase(ctx context.Context, q Query) ([]*inputs.Table, error)
}

// InputsWriter writes the module's input files for a scenario.
type InputsWriter interface {
	WriteModelInputs(ctx context.Context, q Query) error
}

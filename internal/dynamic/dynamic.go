// Package dynamic holds the build-scoped registry that subtype modules contribute
// cross-cutting names to while a model is assembled.
//
// A Components value is created once per build. Modules append set names,
// variable names and parameter names to its typed lists while they register.
// A list is frozen the first time it is consumed (joined or read for
// constraint building); appending to a frozen list is an error. Freeze closes
// every list once registration is over.
package dynamic

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// List is an append-only list of names owned by a Components value.
type List struct {
	name   string
	owner  *Components
	values []string
	frozen bool
}

// Name returns the list name.
func (l *List) Name() string {
	return l.name
}

// Append adds a value. Duplicates are kept; each module is responsible for
// contributing its own names exactly once.
func (l *List) Append(value string) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()

	if l.frozen {
		return &FrozenError{List: l.name, Value: value}
	}
	l.values = append(l.values, value)
	return nil
}

// Values returns a copy of the list contents.
func (l *List) Values() []string {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()
	return slices.Clone(l.values)
}

// Consume freezes the list and returns its contents.
func (l *List) Consume() []string {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()
	l.frozen = true
	return slices.Clone(l.values)
}

// Frozen reports whether the list has been consumed.
func (l *List) Frozen() bool {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()
	return l.frozen
}

// Index maps a key (usually a project) to an append-only list of names.
type Index struct {
	name   string
	owner  *Components
	values map[string][]string
	frozen bool
}

// Name returns the index name.
func (x *Index) Name() string {
	return x.name
}

// Append adds value under key.
func (x *Index) Append(key, value string) error {
	x.owner.mu.Lock()
	defer x.owner.mu.Unlock()

	if x.frozen {
		return &FrozenError{List: x.name, Value: key + ":" + value}
	}
	x.values[key] = append(x.values[key], value)
	return nil
}

// Get returns the names registered under key.
func (x *Index) Get(key string) []string {
	x.owner.mu.Lock()
	defer x.owner.mu.Unlock()
	return slices.Clone(x.values[key])
}

// Keys returns the keys in sorted order.
func (x *Index) Keys() []string {
	x.owner.mu.Lock()
	defer x.owner.mu.Unlock()
	return slices.Sorted(maps.Keys(x.values))
}

// Mapping is a single-valued name mapping, such as variable name to derate param.
type Mapping struct {
	name   string
	owner  *Components
	values map[string]string
	frozen bool
}

// Name returns the mapping name.
func (m *Mapping) Name() string {
	return m.name
}

// Set records key -> value. Re-setting a key to a different value is an error.
func (m *Mapping) Set(key, value string) error {
	m.owner.mu.Lock()
	defer m.owner.mu.Unlock()

	if m.frozen {
		return &FrozenError{List: m.name, Value: key}
	}
	if prev, ok := m.values[key]; ok && prev != value {
		return fmt.Errorf("%s: %q already mapped to %q, cannot map to %q", m.name, key, prev, value)
	}
	m.values[key] = value
	return nil
}

// Get returns the value mapped to key.
func (m *Mapping) Get(key string) (string, bool) {
	m.owner.mu.Lock()
	defer m.owner.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// FrozenError reports an append after the target list was consumed.
type FrozenError struct {
	List  string
	Value string
}

func (e *FrozenError) Error() string {
	return fmt.Sprintf("cannot add %q to %s: list already consumed", e.Value, e.List)
}

// Components is the per-build registry of dynamic components.
type Components struct {
	mu sync.Mutex

	// Set names contributed by capacity types, joined into the project
	// operational-period and financial-period sets.
	OperationalPeriodSets *List
	FinancialPeriodSets   *List

	// Set names of buildable (project, vintage) pairs, joined into the
	// new-build results index.
	NewBuildVintageSets *List

	// Set names contributed by transmission capacity types.
	TxOperationalPeriodSets *List

	// Subtypes required by the scenario, filled from the inputs before any
	// module is loaded.
	RequiredCapacityModules      *List
	RequiredOperationalModules   *List
	RequiredTxCapacityModules    *List
	RequiredTxOperationalModules *List
	RequiredReserveModules       *List

	// Variable families providing upward and downward reserves, by project.
	HeadroomVariables *Index
	FootroomVariables *Index

	// Derate parameter name by reserve provision variable family.
	ReserveDerateParamByVariable *Mapping

	// Cost expression families added to the objective, per period and per timepoint.
	PeriodCostComponents    *List
	TimepointCostComponents *List

	// Power injection expression families added to the load balance, by zone and timepoint.
	LoadBalanceProductionComponents  *List
	LoadBalanceConsumptionComponents *List
}

// New returns an empty registry.
func New() *Components {
	c := &Components{}
	list := func(name string) *List { return &List{name: name, owner: c} }
	index := func(name string) *Index { return &Index{name: name, owner: c, values: make(map[string][]string)} }

	c.OperationalPeriodSets = list("operational_period_set_names")
	c.FinancialPeriodSets = list("financial_period_set_names")
	c.NewBuildVintageSets = list("new_build_vintage_set_names")
	c.TxOperationalPeriodSets = list("tx_operational_period_set_names")
	c.RequiredCapacityModules = list("required_capacity_modules")
	c.RequiredOperationalModules = list("required_operational_modules")
	c.RequiredTxCapacityModules = list("required_tx_capacity_modules")
	c.RequiredTxOperationalModules = list("required_tx_operational_modules")
	c.RequiredReserveModules = list("required_reserve_modules")
	c.HeadroomVariables = index("headroom_variables")
	c.FootroomVariables = index("footroom_variables")
	c.ReserveDerateParamByVariable = &Mapping{name: "reserve_derate_param_by_variable", owner: c, values: make(map[string]string)}
	c.PeriodCostComponents = list("period_cost_components")
	c.TimepointCostComponents = list("timepoint_cost_components")
	c.LoadBalanceProductionComponents = list("load_balance_production_components")
	c.LoadBalanceConsumptionComponents = list("load_balance_consumption_components")
	return c
}

// Lists returns every list in declaration order.
func (c *Components) Lists() []*List {
	return []*List{
		c.OperationalPeriodSets,
		c.FinancialPeriodSets,
		c.NewBuildVintageSets,
		c.TxOperationalPeriodSets,
		c.RequiredCapacityModules,
		c.RequiredOperationalModules,
		c.RequiredTxCapacityModules,
		c.RequiredTxOperationalModules,
		c.RequiredReserveModules,
		c.PeriodCostComponents,
		c.TimepointCostComponents,
		c.LoadBalanceProductionComponents,
		c.LoadBalanceConsumptionComponents,
	}
}

// Freeze closes every list; later appends fail.
func (c *Components) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range c.Lists() {
		l.frozen = true
	}
	c.HeadroomVariables.frozen = true
	c.FootroomVariables.frozen = true
	c.ReserveDerateParamByVariable.frozen = true
}

// AppendUnique adds value to l unless it is already present. Used for module
// requirement lists, which are filled per entity.
func AppendUnique(l *List, value string) error {
	if slices.Contains(l.Values(), value) {
		return nil
	}
	return l.Append(value)
}

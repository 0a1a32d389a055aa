// Package dispatch routes per-entity rules to the subtype module assigned to
// each entity, falling back to a default when the module lacks the rule.
package dispatch

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/subtype"
)

// Assignments maps entity name to subtype tag.
type Assignments map[string]string

// Entities returns the assigned entities, sorted.
func (a Assignments) Entities() []string {
	out := make([]string, 0, len(a))
	for e := range a {
		out = append(out, e)
	}
	slices.Sort(out)
	return out
}

// WithSubtype returns the entities assigned to tag, sorted.
func (a Assignments) WithSubtype(tag string) []string {
	var out []string
	for _, e := range a.Entities() {
		if a[e] == tag {
			out = append(out, e)
		}
	}
	return out
}

// Tags returns the distinct subtype tags in use, sorted.
func (a Assignments) Tags() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tag := range a {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// UnknownSubtypeError reports an entity whose subtype has no loaded module.
type UnknownSubtypeError struct {
	Namespace subtype.Namespace
	Entity    string
	Subtype   string
}

func (e *UnknownSubtypeError) Error() string {
	if e.Subtype == "" {
		return fmt.Sprintf("%s has no %s assigned", e.Entity, e.Namespace)
	}
	return fmt.Sprintf("%s has %s %q but no such module is loaded", e.Entity, e.Namespace, e.Subtype)
}

// ErrorCategory marks unknown subtypes as configuration problems.
func (e *UnknownSubtypeError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryConfiguration
}

// ValidateAssignments checks that every entity's subtype has a loaded module.
// Builds call it before constructing any expression so a bad tag surfaces with
// the entity name instead of deep inside an aggregation.
func ValidateAssignments(ns subtype.Namespace, table Assignments, modules subtype.Modules) error {
	var errs []error
	for _, entity := range table.Entities() {
		tag := table[entity]
		if _, ok := modules[tag]; !ok {
			errs = append(errs, &UnknownSubtypeError{Namespace: ns, Entity: entity, Subtype: tag})
		}
	}
	if len(errs) == 0 {
		return nil
	}

	names := make([]string, 0, len(errs))
	for _, err := range errs {
		names = append(names, err.(*UnknownSubtypeError).Entity)
	}
	return errors.New(errors.Join(errs...)).
		Component("dispatch").
		Category(errors.CategoryConfiguration).
		Context("namespace", string(ns)).
		Context("entities", strings.Join(names, ",")).
		Build()
}

// Dispatch evaluates capability for entity at index. If the entity's module
// implements the rule it is called, otherwise def is. A nil def means zero.
func Dispatch(
	m *model.Model,
	entity string,
	index int,
	capability subtype.Capability,
	table Assignments,
	modules subtype.Modules,
	def subtype.Rule,
) (model.LinExpr, error) {
	tag, ok := table[entity]
	if !ok {
		return model.LinExpr{}, &UnknownSubtypeError{Entity: entity}
	}
	mod, ok := modules[tag]
	if !ok {
		return model.LinExpr{}, &UnknownSubtypeError{Entity: entity, Subtype: tag}
	}
	if rule, ok := subtype.RuleFor(mod, capability); ok {
		return rule(m, entity, index), nil
	}
	if def == nil {
		def = subtype.ZeroRule
	}
	return def(m, entity, index), nil
}

// Dispatcher binds one namespace's assignments and modules so aggregations can
// dispatch without repeating them.
type Dispatcher struct {
	Namespace subtype.Namespace
	Table     Assignments
	Modules   subtype.Modules
	defaults  map[subtype.Capability]subtype.Rule
}

// New validates the assignments and returns a Dispatcher.
func New(ns subtype.Namespace, table Assignments, modules subtype.Modules) (*Dispatcher, error) {
	if err := ValidateAssignments(ns, table, modules); err != nil {
		return nil, err
	}
	return &Dispatcher{
		Namespace: ns,
		Table:     table,
		Modules:   modules,
		defaults:  make(map[subtype.Capability]subtype.Rule),
	}, nil
}

// SetDefault overrides the fallback for capability.
func (d *Dispatcher) SetDefault(capability subtype.Capability, def subtype.Rule) {
	d.defaults[capability] = def
}

// Expr evaluates capability for entity at index.
func (d *Dispatcher) Expr(m *model.Model, entity string, index int, capability subtype.Capability) (model.LinExpr, error) {
	return Dispatch(m, entity, index, capability, d.Table, d.Modules, d.defaults[capability])
}

// Sum adds capability over entities at index.
func (d *Dispatcher) Sum(m *model.Model, entities []string, index int, capability subtype.Capability) (model.LinExpr, error) {
	var total model.LinExpr
	for _, e := range entities {
		expr, err := d.Expr(m, e, index, capability)
		if err != nil {
			return model.LinExpr{}, err
		}
		total.Add(expr)
	}
	return total, nil
}

// Implements reports whether entity's module implements capability.
func (d *Dispatcher) Implements(entity string, capability subtype.Capability) bool {
	mod, ok := d.Modules[d.Table[entity]]
	return ok && subtype.Has(mod, capability)
}

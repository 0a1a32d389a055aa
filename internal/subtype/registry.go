package subtype

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/logger"
)

// Factory creates a fresh module instance.
type Factory func() Module

// Catalog maps subtype names to factories, per namespace. It is populated once
// at startup; loading from it never caches module instances.
type Catalog struct {
	mu        sync.RWMutex
	factories map[Namespace]map[string]Factory
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[Namespace]map[string]Factory)}
}

// Register adds a factory. Registering a name twice in one namespace is an error.
func (c *Catalog) Register(ns Namespace, name string, f Factory) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	byName, ok := c.factories[ns]
	if !ok {
		byName = make(map[string]Factory)
		c.factories[ns] = byName
	}
	if _, dup := byName[name]; dup {
		return fmt.Errorf("subtype %s/%s already registered", ns, name)
	}
	byName[name] = f
	return nil
}

// MustRegister is Register for init-time catalogs; it panics on duplicates.
func (c *Catalog) MustRegister(ns Namespace, name string, f Factory) {
	if err := c.Register(ns, name, f); err != nil {
		panic(err)
	}
}

// Names returns the registered names in ns, sorted.
func (c *Catalog) Names(ns Namespace) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.factories[ns]))
}

func (c *Catalog) factory(ns Namespace, name string) (Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.factories[ns][name]
	return f, ok
}

// ModuleNotFoundError reports a subtype name with no module in the namespace.
type ModuleNotFoundError struct {
	Namespace Namespace
	Name      string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("no %s module named %q", e.Namespace, e.Name)
}

// ErrorCategory marks unknown modules as configuration problems.
func (e *ModuleNotFoundError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryConfiguration
}

// MissingCapabilityError reports a loaded module lacking a required capability.
type MissingCapabilityError struct {
	Namespace  Namespace
	Subtype    string
	Capability Capability
}

func (e *MissingCapabilityError) Error() string {
	return fmt.Sprintf("%s module %q does not implement required capability %s", e.Namespace, e.Subtype, e.Capability)
}

// ErrorCategory marks missing capabilities as configuration problems.
func (e *MissingCapabilityError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryConfiguration
}

// Modules maps subtype name to a loaded module.
type Modules map[string]Module

// Names returns the loaded subtype names, sorted.
func (m Modules) Names() []string {
	return slices.Sorted(maps.Keys(m))
}

// Sorted returns the modules ordered by name.
func (m Modules) Sorted() []Module {
	out := make([]Module, 0, len(m))
	for _, name := range m.Names() {
		out = append(out, m[name])
	}
	return out
}

// LoadSubtypeModules creates one fresh instance per name from catalog and checks
// that each implements every required capability. Duplicate names load once.
// Nothing is returned unless every module resolves and validates.
func LoadSubtypeModules(catalog *Catalog, names []string, ns Namespace, required []Capability) (Modules, error) {
	log := GetLogger()
	loaded := make(Modules, len(names))

	for _, name := range names {
		if _, ok := loaded[name]; ok {
			continue
		}
		f, ok := catalog.factory(ns, name)
		if !ok {
			return nil, errors.New(&ModuleNotFoundError{Namespace: ns, Name: name}).
				Component("subtype").
				Context("namespace", string(ns)).
				Context("available", catalog.Names(ns)).
				Build()
		}
		loaded[name] = f()
	}

	for _, name := range loaded.Names() {
		for _, c := range required {
			if !Has(loaded[name], c) {
				return nil, errors.New(&MissingCapabilityError{Namespace: ns, Subtype: name, Capability: c}).
					Component("subtype").
					Build()
			}
		}
	}

	log.Debug("loaded subtype modules",
		logger.String("namespace", string(ns)),
		logger.Int("count", len(loaded)),
		logger.Any("modules", loaded.Names()))
	return loaded, nil
}

// Package scenario builds the model of one scenario: it discovers which
// subtypes the inputs use, loads them, and runs every component in build
// order. It also drives the database side of a run: writing inputs, validating
// them and importing results.
package scenario

import (
	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/datastore"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/project"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/transmission"
)

// GetLogger returns the scenario package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("scenario")
}

// required capabilities checked when each namespace's modules load
var requiredCapabilities = map[subtype.Namespace][]subtype.Capability{
	subtype.CapacityType:                {subtype.CapacityRule},
	subtype.OperationalType:             {subtype.PowerProvisionRule},
	subtype.TransmissionCapacityType:    {subtype.CapacityRule},
	subtype.TransmissionOperationalType: {subtype.PowerProvisionRule},
	subtype.Reserve:                     nil,
}

// Modules are the loaded subtype modules of a build, by namespace.
type Modules map[subtype.Namespace]subtype.Modules

// All returns every module in build order: namespaces in subtype.Namespaces
// order, modules by name within each.
func (m Modules) All() []subtype.Module {
	var out []subtype.Module
	for _, ns := range subtype.Namespaces() {
		out = append(out, m[ns].Sorted()...)
	}
	return out
}

// DetermineDynamicComponents fills the required-module lists from the input
// files: capacity and operational types from projects.tab, reserve types
// from the reserve columns of projects.tab when reserves are on, and line
// types from transmission_lines.tab when transmission is on. reserveTypes
// are the reserve names to look for.
func DetermineDynamicComponents(d *dynamic.Components, inputsDir string, features datastore.Features, reserveTypes []string) error {
	p, err := project.ReadPortfolio(inputsDir)
	if err != nil {
		return err
	}
	for _, prj := range p.Projects {
		if err := dynamic.AppendUnique(d.RequiredCapacityModules, p.Capacity[prj]); err != nil {
			return err
		}
		if err := dynamic.AppendUnique(d.RequiredOperationalModules, p.Operational[prj]); err != nil {
			return err
		}
	}

	if features.Reserves {
		t, err := inputs.ReadFile(inputsDir, core.ProjectsFile)
		if err != nil {
			return err
		}
		for _, name := range reserveTypes {
			if !t.Has(name) {
				continue
			}
			for _, r := range t.Records() {
				if _, ok := r.OptString(name); ok {
					if err := dynamic.AppendUnique(d.RequiredReserveModules, name); err != nil {
						return err
					}
					break
				}
			}
		}
	}

	if features.Transmission {
		n, err := transmission.ReadNetwork(inputsDir)
		if err != nil {
			return err
		}
		for _, line := range n.Lines {
			if err := dynamic.AppendUnique(d.RequiredTxCapacityModules, n.Capacity[line]); err != nil {
				return err
			}
			if err := dynamic.AppendUnique(d.RequiredTxOperationalModules, n.Operational[line]); err != nil {
				return err
			}
		}
	}
	return nil
}

// requiredModules maps each namespace to its required-module list.
func requiredModules(d *dynamic.Components) map[subtype.Namespace]*dynamic.List {
	return map[subtype.Namespace]*dynamic.List{
		subtype.CapacityType:                d.RequiredCapacityModules,
		subtype.OperationalType:             d.RequiredOperationalModules,
		subtype.TransmissionCapacityType:    d.RequiredTxCapacityModules,
		subtype.TransmissionOperationalType: d.RequiredTxOperationalModules,
		subtype.Reserve:                     d.RequiredReserveModules,
	}
}

// LoadModules consumes the required-module lists and loads each namespace's
// modules from catalog. Nothing is returned unless every namespace loads.
func LoadModules(catalog *subtype.Catalog, d *dynamic.Components) (Modules, error) {
	lists := requiredModules(d)
	out := make(Modules, len(lists))
	for _, ns := range subtype.Namespaces() {
		mods, err := subtype.LoadSubtypeModules(catalog, lists[ns].Consume(), ns, requiredCapabilities[ns])
		if err != nil {
			return nil, err
		}
		out[ns] = mods
	}
	return out, nil
}

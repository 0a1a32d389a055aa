// Package capacity implements the project capacity types. Specified types
// (gen_spec, stor_spec) carry exogenous capacity per period; new-build types
// (gen_new_lin, gen_new_bin, stor_new_lin) declare build variables per vintage
// and use operational and financial lifetimes to decide where a vintage counts.
package capacity

import (
	"context"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/subtype"
)

// Capacity type names
const (
	GenSpec    = "gen_spec"
	GenNewLin  = "gen_new_lin"
	GenNewBin  = "gen_new_bin"
	StorSpec   = "stor_spec"
	StorNewLin = "stor_new_lin"
)

// Register adds every capacity type to c.
func Register(c *subtype.Catalog) {
	c.MustRegister(subtype.CapacityType, GenSpec, func() subtype.Module { return newGenSpec() })
	c.MustRegister(subtype.CapacityType, StorSpec, func() subtype.Module { return newStorSpec() })
	c.MustRegister(subtype.CapacityType, GenNewLin, func() subtype.Module { return newGenNewLin() })
	c.MustRegister(subtype.CapacityType, GenNewBin, func() subtype.Module { return newGenNewBin() })
	c.MustRegister(subtype.CapacityType, StorNewLin, func() subtype.Module { return newStorNewLin() })
}

// GetLogger returns the capacity package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("capacity")
}

// projectsOfType reads the capacity type's projects from projects.tab.
func projectsOfType(b subtype.BuildInfo, name string) (map[string]bool, error) {
	prjs, err := core.EntitiesOfType(b.InputsDir(), core.ProjectsFile, "project", "capacity_type", name)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(prjs))
	for _, p := range prjs {
		out[p] = true
	}
	return out, nil
}

// portfolioOfType returns the scenario's projects with capacity type name.
func portfolioOfType(ctx context.Context, q subtype.Query, name string) ([]string, error) {
	var prjs []string
	err := q.DB.WithContext(ctx).Model(&entities.InputsProjectPortfolio{}).
		Where("project_portfolio_scenario_id = ? AND capacity_type = ?", q.Scenario.IDs.ProjectPortfolio, name).
		Order("project").
		Pluck("project", &prjs).Error
	if err != nil {
		return nil, dbError(err, name, "inputs_project_portfolios")
	}
	return prjs, nil
}

func dbError(err error, module, table string) error {
	return errors.New(err).
		Component("capacity").
		Category(errors.CategoryDatabase).
		Context("capacity_type", module).
		Context("table", table).
		Build()
}

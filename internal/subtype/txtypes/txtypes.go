// Package txtypes implements the transmission capacity types (tx_spec,
// tx_new_lin) and the transmission operational type (tx_simple).
package txtypes

import (
	"context"
	"strings"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/subtype"
)

// Transmission subtype names
const (
	TxSpec   = "tx_spec"
	TxNewLin = "tx_new_lin"
	TxSimple = "tx_simple"
)

// Register adds the transmission capacity and operational types to c.
func Register(c *subtype.Catalog) {
	c.MustRegister(subtype.TransmissionCapacityType, TxSpec, func() subtype.Module { return &txSpec{} })
	c.MustRegister(subtype.TransmissionCapacityType, TxNewLin, func() subtype.Module { return &txNewLin{} })
	c.MustRegister(subtype.TransmissionOperationalType, TxSimple, func() subtype.Module { return &txSimple{} })
}

func linesOfType(b subtype.BuildInfo, column, name string) (map[string]bool, error) {
	lines, err := core.EntitiesOfType(b.InputsDir(), core.TxLinesFile, "transmission_line", column, name)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(lines))
	for _, l := range lines {
		out[l] = true
	}
	return out, nil
}

func setName(name, suffix string) string {
	return strings.ToUpper(name) + "_" + suffix
}

// capacities returns the scenario's capacity rows for lines of capacity type name.
func capacities(ctx context.Context, q subtype.Query, name string) ([]entities.InputsTransmissionCapacity, error) {
	var rows []entities.InputsTransmissionCapacity
	err := q.DB.WithContext(ctx).
		Table("inputs_transmission_capacities AS c").
		Select("c.*").
		Joins("JOIN inputs_transmission_portfolios AS p ON p.transmission_line = c.transmission_line AND p.transmission_portfolio_scenario_id = ?",
			q.Scenario.IDs.TransmissionPortfolio).
		Where("c.transmission_capacity_scenario_id = ? AND p.capacity_type = ?", q.Scenario.IDs.TransmissionCapacity, name).
		Order("c.transmission_line, c.period").
		Find(&rows).Error
	if err != nil {
		return nil, errors.New(err).
			Component("transmission").
			Category(errors.CategoryDatabase).
			Context("transmission_capacity_type", name).
			Build()
	}
	return rows, nil
}

func writeTables(ctx context.Context, q subtype.Query, g subtype.InputsGetter) error {
	tables, err := g.GetModelInputsFromDatabase(ctx, q)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if err := inputs.WriteFile(q.Build.InputsDir(), t); err != nil {
			return err
		}
	}
	return nil
}

package datastore

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/results"
)

// ResultsBatch is one results table of a scenario run to persist.
type ResultsBatch struct {
	ScenarioID uint
	RunID      string
	Table      *results.Table
	// Subtypes maps entity to its capacity or operational type, stored next
	// to the values.
	Subtypes map[string]string
	// Only, when set, narrows the batch to entities of that subtype: other
	// rows are skipped and only the subtype's previous rows are replaced.
	Only string
}

// subtypeColumn is the column Only filters on.
var subtypeColumn = map[string]string{
	results.ProjectPeriod:    "capacity_type",
	results.ProjectTimepoint: "operational_type",
	results.ProjectNewBuild:  "capacity_type",
}

// coreResultColumns are stored in dedicated columns; all other columns of a
// table go to the Extra JSON column.
var coreResultColumns = map[string]map[string]bool{
	results.ProjectPeriod:      {"capacity_mw": true, "new_capacity_mw": true, "capacity_cost": true, "fixed_cost": true},
	results.ProjectTimepoint:   {"power_mw": true, "variable_cost": true},
	results.TransmissionPeriod: {"min_mw": true, "max_mw": true, "capacity_cost": true},
	results.ProjectNewBuild:    {"new_build_mw": true, "new_build_mwh": true},
}

// PersistsResults reports whether the named results table has a database table.
func PersistsResults(table string) bool {
	_, ok := coreResultColumns[table]
	return ok
}

// SaveResults replaces the scenario's rows of one results table.
func SaveResults(ctx context.Context, db *gorm.DB, batch ResultsBatch) error {
	t := batch.Table
	core, ok := coreResultColumns[t.Name]
	if !ok {
		return errors.Newf("results table %q is not persisted", t.Name).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Build()
	}

	if batch.Only != "" {
		if _, ok := subtypeColumn[t.Name]; !ok {
			return errors.Newf("results table %q has no subtype column", t.Name).
				Component("datastore").
				Category(errors.CategoryConfiguration).
				Build()
		}
		t = onlySubtype(t, batch.Subtypes, batch.Only)
		batch.Table = t
	}

	var model any
	var rows any
	switch t.Name {
	case results.ProjectPeriod:
		rs := projectPeriodRows(batch, core)
		model, rows = &entities.ResultsProjectPeriod{}, &rs
	case results.ProjectTimepoint:
		rs := projectTimepointRows(batch, core)
		model, rows = &entities.ResultsProjectTimepoint{}, &rs
	case results.TransmissionPeriod:
		rs := transmissionPeriodRows(batch, core)
		model, rows = &entities.ResultsTransmissionPeriod{}, &rs
	case results.ProjectNewBuild:
		rs := projectNewBuildRows(batch)
		model, rows = &entities.ResultsProjectNewBuild{}, &rs
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("scenario_id = ?", batch.ScenarioID)
		if batch.Only != "" {
			del = del.Where(subtypeColumn[t.Name]+" = ?", batch.Only)
		}
		if err := del.Delete(model).Error; err != nil {
			return err
		}
		if t.Len() == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
	if err != nil {
		return dbError(err, "save_results", errors.PriorityHigh, "table", t.Name, "scenario_id", batch.ScenarioID)
	}

	GetLogger().Debug("results saved",
		logger.String("table", t.Name),
		logger.Int("rows", t.Len()),
		logger.String("run_id", batch.RunID))
	return nil
}

// onlySubtype copies the rows of t whose entity has the given subtype.
func onlySubtype(t *results.Table, subtypes map[string]string, only string) *results.Table {
	var keys []results.Key
	for _, k := range t.Keys() {
		if subtypes[k.Entity] == only {
			keys = append(keys, k)
		}
	}
	out := results.NewTable(t.Name, t.EntityColumn, t.IndexColumn, keys)
	for _, col := range t.Columns() {
		out.AddColumn(col)
	}
	for _, k := range keys {
		for _, col := range t.Columns() {
			if v, ok := t.Get(k, col); ok {
				_ = out.Set(k, col, v)
			}
		}
	}
	return out
}

func ptr(v results.Value) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float
	return &f
}

// extra collects non-core columns. Nulls are omitted.
func extra(row results.Row, columns []string, core map[string]bool) datatypes.JSONMap {
	var m datatypes.JSONMap
	for _, col := range columns {
		if core[col] {
			continue
		}
		v := row.Values[col]
		if !v.Valid {
			continue
		}
		if m == nil {
			m = datatypes.JSONMap{}
		}
		m[col] = v.Float
	}
	return m
}

func projectPeriodRows(b ResultsBatch, core map[string]bool) []entities.ResultsProjectPeriod {
	cols := b.Table.Columns()
	out := make([]entities.ResultsProjectPeriod, 0, b.Table.Len())
	for _, row := range b.Table.Rows() {
		out = append(out, entities.ResultsProjectPeriod{
			ScenarioID:    b.ScenarioID,
			Project:       row.Key.Entity,
			Period:        row.Key.Index,
			RunID:         b.RunID,
			CapacityType:  b.Subtypes[row.Key.Entity],
			CapacityMW:    ptr(row.Values["capacity_mw"]),
			NewCapacityMW: ptr(row.Values["new_capacity_mw"]),
			CapacityCost:  ptr(row.Values["capacity_cost"]),
			FixedCost:     ptr(row.Values["fixed_cost"]),
			Extra:         extra(row, cols, core),
		})
	}
	return out
}

func projectTimepointRows(b ResultsBatch, core map[string]bool) []entities.ResultsProjectTimepoint {
	cols := b.Table.Columns()
	out := make([]entities.ResultsProjectTimepoint, 0, b.Table.Len())
	for _, row := range b.Table.Rows() {
		out = append(out, entities.ResultsProjectTimepoint{
			ScenarioID:      b.ScenarioID,
			Project:         row.Key.Entity,
			Timepoint:       row.Key.Index,
			RunID:           b.RunID,
			OperationalType: b.Subtypes[row.Key.Entity],
			PowerMW:         ptr(row.Values["power_mw"]),
			VariableCost:    ptr(row.Values["variable_cost"]),
			Extra:           extra(row, cols, core),
		})
	}
	return out
}

func transmissionPeriodRows(b ResultsBatch, core map[string]bool) []entities.ResultsTransmissionPeriod {
	cols := b.Table.Columns()
	out := make([]entities.ResultsTransmissionPeriod, 0, b.Table.Len())
	for _, row := range b.Table.Rows() {
		out = append(out, entities.ResultsTransmissionPeriod{
			ScenarioID:       b.ScenarioID,
			TransmissionLine: row.Key.Entity,
			Period:           row.Key.Index,
			RunID:            b.RunID,
			MinMW:            ptr(row.Values["min_mw"]),
			MaxMW:            ptr(row.Values["max_mw"]),
			CapacityCost:     ptr(row.Values["capacity_cost"]),
			Extra:            extra(row, cols, core),
		})
	}
	return out
}

func projectNewBuildRows(b ResultsBatch) []entities.ResultsProjectNewBuild {
	out := make([]entities.ResultsProjectNewBuild, 0, b.Table.Len())
	for _, row := range b.Table.Rows() {
		out = append(out, entities.ResultsProjectNewBuild{
			ScenarioID:   b.ScenarioID,
			Project:      row.Key.Entity,
			Vintage:      row.Key.Index,
			RunID:        b.RunID,
			CapacityType: b.Subtypes[row.Key.Entity],
			NewBuildMW:   ptr(row.Values["new_build_mw"]),
			NewBuildMWh:  ptr(row.Values["new_build_mwh"]),
		})
	}
	return out
}

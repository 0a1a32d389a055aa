package datastore

import (
	"context"

	"gorm.io/gorm"

	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/validation"
)

// ValidationRun identifies where validation errors were found.
type ValidationRun struct {
	ScenarioID uint
	RunID      string
	Subproblem int
	Stage      int
}

// SaveValidation replaces the persisted validation status of a scenario
// subproblem/stage with errs.
func SaveValidation(ctx context.Context, db *gorm.DB, run ValidationRun, errs []validation.Error) error {
	subproblem, stage := max(run.Subproblem, 1), max(run.Stage, 1)

	rows := make([]entities.StatusValidation, 0, len(errs))
	for _, e := range errs {
		rows = append(rows, entities.StatusValidation{
			ScenarioID:  run.ScenarioID,
			RunID:       run.RunID,
			Subproblem:  subproblem,
			Stage:       stage,
			Component:   e.Component,
			InputTable:  e.Table,
			Severity:    string(e.Severity),
			Description: e.Description,
			Timestamp:   e.Timestamp,
		})
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scenario_id = ? AND subproblem = ? AND stage = ?", run.ScenarioID, subproblem, stage).
			Delete(&entities.StatusValidation{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, insertBatchSize).Error
	})
	return dbError(err, "save_validation", errors.PriorityMedium, "scenario_id", run.ScenarioID)
}

// LoadValidation returns the persisted validation errors of a scenario.
func LoadValidation(ctx context.Context, db *gorm.DB, scenarioID uint) ([]validation.Error, error) {
	var rows []entities.StatusValidation
	if err := db.WithContext(ctx).Where("scenario_id = ?", scenarioID).Order("id").Find(&rows).Error; err != nil {
		return nil, dbError(err, "load_validation", errors.PriorityLow, "scenario_id", scenarioID)
	}
	out := make([]validation.Error, 0, len(rows))
	for _, r := range rows {
		out = append(out, validation.Error{
			Component:   r.Component,
			Table:       r.InputTable,
			Severity:    validation.Severity(r.Severity),
			Description: r.Description,
			Timestamp:   r.Timestamp,
		})
	}
	return out, nil
}

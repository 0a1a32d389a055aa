package datastore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/errors"
)

// validTransitions lists the allowed next states of each rebuild state.
var validTransitions = map[entities.RebuildState][]entities.RebuildState{
	entities.RebuildStateIdle:                {entities.RebuildStateResolving},
	entities.RebuildStateResolving:           {entities.RebuildStateConfirmingOverwrite, entities.RebuildStateNullifying, entities.RebuildStateDeleting, entities.RebuildStateIdle, entities.RebuildStateFailed},
	entities.RebuildStateConfirmingOverwrite: {entities.RebuildStateNullifying, entities.RebuildStateDeleting, entities.RebuildStateIdle, entities.RebuildStateFailed},
	entities.RebuildStateNullifying:          {entities.RebuildStateDeleting, entities.RebuildStateRestoring, entities.RebuildStateFailed},
	entities.RebuildStateDeleting:            {entities.RebuildStateImporting, entities.RebuildStateRestoring, entities.RebuildStateFailed},
	entities.RebuildStateImporting:           {entities.RebuildStateRestoring, entities.RebuildStateIdle, entities.RebuildStateFailed},
	entities.RebuildStateRestoring:           {entities.RebuildStateIdle, entities.RebuildStateFailed},
	entities.RebuildStateFailed:              {entities.RebuildStateRestoring},
}

// canTransition reports whether from -> to is allowed.
func canTransition(from, to entities.RebuildState) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// journal tracks one rebuild run in the rebuild_journal table.
type journal struct {
	runID   string
	state   entities.RebuildState
	metrics MetricsRecorder
}

// openJournal inserts an idle journal row for the target, refusing when
// another run is active or awaiting recovery for the same target.
func openJournal(ctx context.Context, db *gorm.DB, runID, strategy string, sub Subscenario, id uint, project string) (*journal, error) {
	var blocking []entities.RebuildJournal
	err := db.WithContext(ctx).
		Where("subscenario = ? AND subscenario_id = ? AND project = ? AND state <> ?",
			sub.Name, id, project, entities.RebuildStateIdle).
		Find(&blocking).Error
	if err != nil {
		return nil, dbError(err, "check_rebuild_journal", errors.PriorityHigh)
	}
	for i := range blocking {
		j := &blocking[i]
		if j.IsActive() || j.NeedsRecovery() {
			return nil, errors.Newf("subscenario %s id %d is held by rebuild run %s in state %s", sub.Name, id, j.RunID, j.State).
				Component("datastore").
				Category(errors.CategoryConflict).
				Context("run_id", j.RunID).
				Context("state", string(j.State)).
				Build()
		}
	}

	row := entities.RebuildJournal{
		RunID:         runID,
		Subscenario:   sub.Name,
		SubscenarioID: id,
		Project:       project,
		State:         entities.RebuildStateIdle,
		Strategy:      strategy,
		Column:        sub.Column,
		StartedAt:     time.Now(),
	}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, dbError(err, "open_rebuild_journal", errors.PriorityHigh, "run_id", runID)
	}
	return &journal{runID: runID, state: entities.RebuildStateIdle}, nil
}

// loadJournal reads an existing run for recovery.
func loadJournal(ctx context.Context, db *gorm.DB, runID string) (*entities.RebuildJournal, error) {
	var row entities.RebuildJournal
	result := db.WithContext(ctx).Where("run_id = ?", runID).Limit(1).Find(&row)
	if result.Error != nil {
		return nil, dbError(result.Error, "load_rebuild_journal", errors.PriorityHigh, "run_id", runID)
	}
	if result.RowsAffected == 0 {
		return nil, errors.Newf("rebuild run %s not found", runID).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Context("run_id", runID).
			Build()
	}
	return &row, nil
}

// transition moves the run to a new state using a guarded update: the row
// only changes if it is still in the state this process last wrote.
func (j *journal) transition(db *gorm.DB, to entities.RebuildState, extra map[string]any) error {
	if err := transitionRun(db, j.runID, j.state, to, extra); err != nil {
		if j.metrics != nil {
			j.metrics.RecordError("rebuild_transition", string(to))
		}
		return err
	}
	if j.metrics != nil {
		j.metrics.RecordOperation("rebuild_transition", string(to))
	}
	j.state = to
	return nil
}

func transitionRun(db *gorm.DB, runID string, from, to entities.RebuildState, extra map[string]any) error {
	if !canTransition(from, to) {
		return errors.Newf("invalid rebuild transition from %s to %s", from, to).
			Component("datastore").
			Category(errors.CategoryState).
			Context("run_id", runID).
			Build()
	}

	updates := map[string]any{"state": to}
	for k, v := range extra {
		updates[k] = v
	}

	result := db.Model(&entities.RebuildJournal{}).
		Where("run_id = ? AND state = ?", runID, from).
		Updates(updates)
	if result.Error != nil {
		return dbError(result.Error, "transition_rebuild_state", errors.PriorityHigh, "run_id", runID)
	}

	if result.RowsAffected == 0 {
		var current entities.RebuildJournal
		if err := db.Select("state").Where("run_id = ?", runID).First(&current).Error; err != nil {
			return dbError(err, "transition_rebuild_state", errors.PriorityHigh, "run_id", runID)
		}
		return errors.Newf("cannot transition to %s: current state is %s, expected %s", to, current.State, from).
			Component("datastore").
			Category(errors.CategoryState).
			Context("run_id", runID).
			Build()
	}
	return nil
}

// encodeRefs stores scenario id -> subscenario id for restore.
func encodeRefs(refs []scenarioRef, id uint) datatypes.JSONMap {
	m := make(datatypes.JSONMap, len(refs))
	for _, ref := range refs {
		m[strconv.FormatUint(uint64(ref.ID), 10)] = id
	}
	return m
}

// decodeRefs reverses encodeRefs. JSON numbers decode as float64.
func decodeRefs(m datatypes.JSONMap) (map[uint]uint, error) {
	out := make(map[uint]uint, len(m))
	for k, v := range m {
		scenarioID, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid scenario id %q in rebuild journal: %w", k, err)
		}
		var ref uint
		switch n := v.(type) {
		case float64:
			ref = uint(n)
		case uint:
			ref = n
		case int:
			ref = uint(n)
		default:
			return nil, fmt.Errorf("invalid reference %v for scenario %s in rebuild journal", v, k)
		}
		out[uint(scenarioID)] = ref
	}
	return out, nil
}

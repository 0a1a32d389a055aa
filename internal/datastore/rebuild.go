package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/logger"
)

// Strategy selects how a referenced subscenario is replaced.
type Strategy string

const (
	// StrategyNullify nulls referencing scenario columns, replaces the data
	// and restores the references, each step committed separately.
	StrategyNullify Strategy = "nullify"
	// StrategyDefer replaces the data in one transaction with foreign key
	// checks deferred to commit. SQLite only; MySQL falls back to nullify.
	StrategyDefer Strategy = "defer"
)

// ParseStrategy parses a strategy name. Empty means nullify.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyNullify:
		return StrategyNullify, nil
	case StrategyDefer:
		return StrategyDefer, nil
	default:
		return "", errors.Newf("unknown rebuild strategy %q", s).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// insertBatchSize bounds rows per INSERT statement.
const insertBatchSize = 500

// ErrOverwriteDeclined is returned when the confirmation hook declines.
var ErrOverwriteDeclined = errors.NewStd("overwrite declined")

// ConfirmFunc is asked before replacing data referenced by scenarios.
type ConfirmFunc func(ctx context.Context, subscenario string, id uint, scenarios []string) (bool, error)

// MetricsRecorder receives rebuild pipeline metrics.
type MetricsRecorder interface {
	RecordOperation(operation, status string)
	RecordDuration(operation string, seconds float64)
	RecordError(operation, errorType string)
}

// RebuildRequest identifies the subscenario id to (re)import.
type RebuildRequest struct {
	CSVLocation   string
	Subscenario   string
	SubscenarioID uint
	// Project is required for project-level subscenarios and rejected otherwise.
	Project string
	// Replace allows deleting existing data for the id before importing.
	Replace   bool
	AssumeYes bool
	Strategy  Strategy
	Confirm   ConfirmFunc
}

// RebuildReport summarizes a finished run.
type RebuildReport struct {
	RunID     string
	Strategy  Strategy
	Replaced  bool
	Rows      int
	Scenarios []string
	Duration  time.Duration
}

// Rebuilder runs the subscenario rebuild pipeline.
type Rebuilder struct {
	db        *gorm.DB
	mysql     bool
	scenarios *ScenarioStore
	metrics   MetricsRecorder
	log       logger.Logger
	newRunID  func() string
}

// RebuilderOption configures a Rebuilder.
type RebuilderOption func(*Rebuilder)

// WithMetrics records pipeline transitions and outcomes.
func WithMetrics(m MetricsRecorder) RebuilderOption {
	return func(r *Rebuilder) { r.metrics = m }
}

// WithScenarioStore invalidates the store's cache after each run.
func WithScenarioStore(s *ScenarioStore) RebuilderOption {
	return func(r *Rebuilder) { r.scenarios = s }
}

// NewRebuilder creates a pipeline on the manager's database.
func NewRebuilder(m Manager, opts ...RebuilderOption) *Rebuilder {
	r := &Rebuilder{
		db:       m.DB(),
		mysql:    m.IsMySQL(),
		log:      GetLogger(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rebuild imports a subscenario id from CSV, replacing existing data when
// req.Replace is set, without ever leaving a scenario pointing at a missing
// subscenario.
func (r *Rebuilder) Rebuild(ctx context.Context, req RebuildRequest) (*RebuildReport, error) {
	start := time.Now()

	sub, err := LookupSubscenario(req.Subscenario)
	if err != nil {
		return nil, err
	}
	if sub.ProjectLevel != (req.Project != "") {
		return nil, errors.Newf("subscenario %s: project must be set if and only if the subscenario is project-level", sub.Name).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Context("project", req.Project).
			Build()
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = StrategyNullify
	}
	if strategy == StrategyDefer && r.mysql {
		r.log.Warn("deferred foreign keys are not available on MySQL, using nullify",
			logger.String("subscenario", sub.Name))
		strategy = StrategyNullify
	}

	runID := r.newRunID()
	ctx = logger.WithRunID(ctx, runID)
	log := r.log.WithContext(ctx).With(
		logger.String("run_id", runID),
		logger.String("subscenario", sub.Name),
		logger.Int64("subscenario_id", int64(req.SubscenarioID)))

	j, err := openJournal(ctx, r.db, runID, string(strategy), sub, req.SubscenarioID, req.Project)
	if err != nil {
		return nil, err
	}
	j.metrics = r.metrics

	report := &RebuildReport{RunID: runID, Strategy: strategy}
	err = r.run(ctx, log, j, req, sub, strategy, report)
	report.Duration = time.Since(start)

	if r.scenarios != nil {
		r.scenarios.Invalidate()
	}
	r.record(err, report.Duration)

	if err != nil {
		log.Error("rebuild failed", logger.Error(err), logger.String("state", string(j.state)))
		return report, err
	}
	log.Info("rebuild completed",
		logger.Int("rows", report.Rows),
		logger.Bool("replaced", report.Replaced),
		logger.Duration("duration", report.Duration))
	return report, nil
}

func (r *Rebuilder) run(ctx context.Context, log logger.Logger, j *journal, req RebuildRequest, sub Subscenario, strategy Strategy, report *RebuildReport) error {
	db := r.db.WithContext(ctx)
	// Journal failures and the restore of nulled references must land even
	// after ctx is cancelled.
	keep := r.db.WithContext(context.WithoutCancel(ctx))

	if err := j.transition(db, entities.RebuildStateResolving, nil); err != nil {
		return err
	}

	structure, err := ReadCSVStructure(req.CSVLocation)
	if err != nil {
		return r.fail(keep, j, err)
	}
	ds, err := LoadCSVDataset(req.CSVLocation, structure, sub, req.SubscenarioID, req.Project)
	if err != nil {
		return r.fail(keep, j, err)
	}
	report.Rows = ds.RowCount()

	exists, err := subscenarioExists(db, sub, req.SubscenarioID, req.Project)
	if err != nil {
		return r.fail(keep, j, err)
	}
	if exists && !req.Replace {
		return r.fail(keep, j, errors.Newf("subscenario %s id %d already exists; use replace to overwrite it", sub.Name, req.SubscenarioID).
			Component("datastore").
			Category(errors.CategoryConflict).
			Build())
	}
	report.Replaced = exists

	var refs []scenarioRef
	if exists {
		if refs, err = referencingScenarios(db, sub, req.SubscenarioID); err != nil {
			return r.fail(keep, j, err)
		}
	}
	for _, ref := range refs {
		report.Scenarios = append(report.Scenarios, ref.Name)
	}

	if len(refs) > 0 {
		if err := j.transition(db, entities.RebuildStateConfirmingOverwrite, nil); err != nil {
			return r.fail(keep, j, err)
		}
		if !req.AssumeYes {
			ok, err := confirm(ctx, req, report.Scenarios)
			if err != nil {
				return r.fail(keep, j, err)
			}
			if !ok {
				if err := j.transition(keep, entities.RebuildStateIdle, map[string]any{
					"error_message": ErrOverwriteDeclined.Error(),
					"completed_at":  time.Now(),
				}); err != nil {
					return err
				}
				return errors.New(ErrOverwriteDeclined).
					Component("datastore").
					Category(errors.CategoryCancellation).
					Build()
			}
		}
		log.Info("replacing subscenario referenced by scenarios",
			logger.Any("scenarios", report.Scenarios),
			logger.String("strategy", string(strategy)))
	}

	if strategy == StrategyDefer && len(refs) > 0 {
		return r.replaceDeferred(db, keep, j, ds, exists)
	}
	return r.replaceNullify(db, keep, log, j, sub, ds, exists, refs)
}

func confirm(ctx context.Context, req RebuildRequest, scenarios []string) (bool, error) {
	if req.Confirm == nil {
		return false, errors.Newf("subscenario %s id %d is used by scenarios %v; confirmation required", req.Subscenario, req.SubscenarioID, scenarios).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return req.Confirm(ctx, req.Subscenario, req.SubscenarioID, scenarios)
}

// replaceNullify runs Nullifying, then Deleting and Importing in one
// transaction, then Restoring. Restoring is attempted even when the import
// fails or is cancelled, and runs on keep.
func (r *Rebuilder) replaceNullify(db, keep *gorm.DB, log logger.Logger, j *journal, sub Subscenario, ds *Dataset, exists bool, refs []scenarioRef) error {
	if len(refs) > 0 {
		prev := j.state
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := j.transition(tx, entities.RebuildStateNullifying, map[string]any{
				"original_refs": encodeRefs(refs, ds.ID),
			}); err != nil {
				return err
			}
			return nullifyReferences(tx, sub, ds.ID)
		})
		if err != nil {
			j.state = prev
			return r.fail(keep, j, err)
		}
		log.Debug("scenario references nulled", logger.Int("scenarios", len(refs)))
	}

	importErr := r.replaceData(db, j, ds, exists)
	if importErr != nil {
		log.Warn("import failed", logger.Error(importErr))
	}

	if len(refs) > 0 {
		original := make(map[uint]uint, len(refs))
		for _, ref := range refs {
			original[ref.ID] = ds.ID
		}
		if err := restoreReferences(keep, j, sub.Column, original); err != nil {
			restoreErr := errors.New(fmt.Errorf("failed to restore scenario references, recover with run id %s: %w", j.runID, err)).
				Component("datastore").
				Category(errors.CategoryIntegrity).
				Priority(errors.PriorityCritical).
				Context("run_id", j.runID).
				Build()
			return r.fail(keep, j, errors.Join(importErr, restoreErr))
		}
	}

	if importErr != nil {
		return r.fail(keep, j, importErr)
	}
	return j.transition(keep, entities.RebuildStateIdle, map[string]any{"completed_at": time.Now()})
}

// replaceData deletes prior rows and imports the dataset in one transaction.
// On failure the delete is rolled back with the import.
func (r *Rebuilder) replaceData(db *gorm.DB, j *journal, ds *Dataset, exists bool) error {
	prev := j.state
	err := db.Transaction(func(tx *gorm.DB) error {
		return r.deleteAndImport(tx, j, ds, exists)
	})
	if err != nil {
		j.state = prev
	}
	return err
}

// replaceDeferred replaces referenced data without touching scenarios: the
// transaction defers foreign key checks to commit, when the rows exist again.
func (r *Rebuilder) replaceDeferred(db, keep *gorm.DB, j *journal, ds *Dataset, exists bool) error {
	prev := j.state
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("PRAGMA defer_foreign_keys = ON").Error; err != nil {
			return dbError(err, "defer_foreign_keys", errors.PriorityHigh)
		}
		if err := r.deleteAndImport(tx, j, ds, exists); err != nil {
			return err
		}
		return j.transition(tx, entities.RebuildStateIdle, map[string]any{"completed_at": time.Now()})
	})
	if err != nil {
		j.state = prev
		return r.fail(keep, j, err)
	}
	return nil
}

func (r *Rebuilder) deleteAndImport(tx *gorm.DB, j *journal, ds *Dataset, exists bool) error {
	if err := j.transition(tx, entities.RebuildStateDeleting, nil); err != nil {
		return err
	}
	if exists {
		if err := deleteSubscenario(tx, ds.Subscenario, ds.ID, ds.Project); err != nil {
			return err
		}
	}
	if err := j.transition(tx, entities.RebuildStateImporting, nil); err != nil {
		return err
	}
	return importDataset(tx, ds)
}

// fail records err on the journal and returns it. A transition error is
// logged, not returned, so the caller sees the cause.
func (r *Rebuilder) fail(db *gorm.DB, j *journal, err error) error {
	if canTransition(j.state, entities.RebuildStateFailed) {
		if terr := j.transition(db, entities.RebuildStateFailed, map[string]any{
			"error_message": err.Error(),
			"completed_at":  time.Now(),
		}); terr != nil {
			r.log.Error("failed to record rebuild failure", logger.Error(terr), logger.String("run_id", j.runID))
		}
	}
	return err
}

func (r *Rebuilder) record(err error, d time.Duration) {
	if r.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
		var ee *errors.EnhancedError
		errType := string(errors.CategoryGeneric)
		if errors.As(err, &ee) {
			errType = string(ee.Category)
		}
		r.metrics.RecordError("rebuild", errType)
	}
	r.metrics.RecordOperation("rebuild", status)
	r.metrics.RecordDuration("rebuild", d.Seconds())
}

// Recover restores scenario references left nulled by a run that could not
// restore them. A run that died without nulling anything is released: it
// moves to Failed, or to Idle if it had already restored, so the subscenario
// id can be rebuilt again.
func (r *Rebuilder) Recover(ctx context.Context, runID string) error {
	db := r.db.WithContext(ctx)
	row, err := loadJournal(ctx, db, runID)
	if err != nil {
		return err
	}
	if !row.NeedsRecovery() {
		if row.IsActive() {
			return r.release(db, row)
		}
		r.log.Info("rebuild run needs no recovery", logger.String("run_id", runID), logger.String("state", string(row.State)))
		return nil
	}

	original, err := decodeRefs(row.OriginalRefs)
	if err != nil {
		return errors.New(err).Component("datastore").Category(errors.CategoryState).Context("run_id", runID).Build()
	}

	j := &journal{runID: runID, state: row.State, metrics: r.metrics}
	if err := restoreReferences(db, j, row.Column, original); err != nil {
		return errors.New(fmt.Errorf("recovery of run %s failed: %w", runID, err)).
			Component("datastore").
			Category(errors.CategoryIntegrity).
			Priority(errors.PriorityCritical).
			Context("run_id", runID).
			Build()
	}
	if err := j.transition(db, entities.RebuildStateIdle, map[string]any{"completed_at": time.Now()}); err != nil {
		return err
	}
	if r.scenarios != nil {
		r.scenarios.Invalidate()
	}
	r.log.Info("scenario references recovered", logger.String("run_id", runID), logger.Int("scenarios", len(original)))
	return nil
}

// release ends an abandoned run that holds no nulled references. Deleting
// and Importing only commit with the data, so such a run changed nothing.
func (r *Rebuilder) release(db *gorm.DB, row *entities.RebuildJournal) error {
	j := &journal{runID: row.RunID, state: row.State, metrics: r.metrics}
	to := entities.RebuildStateFailed
	extra := map[string]any{
		"error_message": fmt.Sprintf("run abandoned in state %s, released by recover", row.State),
		"completed_at":  time.Now(),
	}
	if row.State == entities.RebuildStateRestoring && row.Restored {
		to = entities.RebuildStateIdle
		extra = map[string]any{"completed_at": time.Now()}
	}
	if err := j.transition(db, to, extra); err != nil {
		return err
	}
	r.log.Warn("released abandoned rebuild run",
		logger.String("run_id", row.RunID),
		logger.String("state", string(row.State)),
		logger.String("now", string(to)))
	return nil
}

func subscenarioExists(db *gorm.DB, sub Subscenario, id uint, project string) (bool, error) {
	where, args := sub.key(id, project)
	var count int64
	if err := db.Table(sub.Table).Where(where, args...).Count(&count).Error; err != nil {
		return false, dbError(err, "check_subscenario", errors.PriorityHigh, "subscenario", sub.Name)
	}
	return count > 0, nil
}

func nullifyReferences(tx *gorm.DB, sub Subscenario, id uint) error {
	err := tx.Model(&entities.Scenario{}).
		Where(sub.Column+" = ?", id).
		Update(sub.Column, gorm.Expr("NULL")).Error
	return dbError(err, "nullify_references", errors.PriorityHigh, "column", sub.Column)
}

// restoreReferences writes the original values back and marks the journal
// restored, in one transaction.
func restoreReferences(db *gorm.DB, j *journal, column string, original map[uint]uint) error {
	prev := j.state
	err := db.Transaction(func(tx *gorm.DB) error {
		if prev != entities.RebuildStateRestoring {
			if err := j.transition(tx, entities.RebuildStateRestoring, nil); err != nil {
				return err
			}
		}
		for scenarioID, ref := range original {
			if err := tx.Model(&entities.Scenario{}).
				Where("id = ?", scenarioID).
				Update(column, ref).Error; err != nil {
				return dbError(err, "restore_references", errors.PriorityCritical, "scenario_id", scenarioID)
			}
		}
		return tx.Model(&entities.RebuildJournal{}).
			Where("run_id = ?", j.runID).
			Update("restored", true).Error
	})
	if err != nil {
		j.state = prev
	}
	return err
}

// deleteSubscenario removes input rows before the subscenario row they reference.
func deleteSubscenario(tx *gorm.DB, sub Subscenario, id uint, project string) error {
	where, args := sub.key(id, project)
	for i := len(sub.Inputs) - 1; i >= 0; i-- {
		table := sub.Inputs[i].Table
		if err := tx.Exec("DELETE FROM "+table+" WHERE "+where, args...).Error; err != nil {
			return dbError(err, "delete_inputs", errors.PriorityHigh, "table", table)
		}
	}
	if err := tx.Exec("DELETE FROM "+sub.Table+" WHERE "+where, args...).Error; err != nil {
		return dbError(err, "delete_subscenario", errors.PriorityHigh, "table", sub.Table)
	}
	return nil
}

func importDataset(tx *gorm.DB, ds *Dataset) error {
	sub := ds.Subscenario
	header := map[string]any{
		sub.IDColumn:  ds.ID,
		"name":        ds.Name,
		"description": "",
	}
	if sub.ProjectLevel {
		header["project"] = ds.Project
	}
	if err := tx.Table(sub.Table).Create(header).Error; err != nil {
		return dbError(err, "import_subscenario", errors.PriorityHigh, "table", sub.Table)
	}

	for _, t := range ds.Tables {
		for start := 0; start < len(t.Rows); start += insertBatchSize {
			end := min(start+insertBatchSize, len(t.Rows))
			if err := tx.Table(t.Table).Create(t.Rows[start:end]).Error; err != nil {
				return dbError(err, "import_inputs", errors.PriorityHigh, "table", t.Table, "source", t.Source)
			}
		}
	}
	return nil
}

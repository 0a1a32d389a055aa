// Package app wires settings, the scenario database and the model pipeline
// together for the command line.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gridforge/gridforge/internal/catalog"
	"github.com/gridforge/gridforge/internal/conf"
	"github.com/gridforge/gridforge/internal/datastore"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/observability"
	"github.com/gridforge/gridforge/internal/observability/metrics"
	"github.com/gridforge/gridforge/internal/scenario"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/validation"
)

// GetLogger returns the app package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("app")
}

// App holds what every command needs: settings, an open database, the subtype
// catalog and the metrics registry.
type App struct {
	Settings  *conf.Settings
	DB        datastore.Manager
	Catalog   *subtype.Catalog
	Metrics   *observability.Metrics
	Scenarios *datastore.ScenarioStore

	// In and Out are used for confirmation prompts.
	In  io.Reader
	Out io.Writer
}

// Open connects to the configured database. The schema is not created; see
// CreateDatabase.
func Open(settings *conf.Settings) (*App, error) {
	db, err := openManager(settings)
	if err != nil {
		return nil, err
	}
	m, err := observability.NewMetrics()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &App{
		Settings:  settings,
		DB:        db,
		Catalog:   catalog.Default(),
		Metrics:   m,
		Scenarios: datastore.NewScenarioStore(db.DB()),
		In:        os.Stdin,
		Out:       os.Stdout,
	}, nil
}

// With opens an App, runs fn and closes the App again.
func With(settings *conf.Settings, fn func(*App) error) (err error) {
	a, err := Open(settings)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(a)
}

func openManager(settings *conf.Settings) (datastore.Manager, error) {
	switch settings.Database.Driver {
	case conf.DriverSQLite:
		return datastore.NewSQLiteManager(datastore.Config{
			Path:  settings.Database.SQLite.Path,
			Debug: settings.Debug,
		})
	case conf.DriverMySQL:
		my := settings.Database.MySQL
		return datastore.NewMySQLManager(&datastore.MySQLConfig{
			Host:     my.Host,
			Port:     my.Port,
			Username: my.Username,
			Password: my.Password,
			Database: my.Database,
			Debug:    settings.Debug,
		})
	default:
		return nil, errors.Newf("unsupported database driver %q", settings.Database.Driver).
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// Close writes the metrics textfile, if configured, and closes the database.
func (a *App) Close() error {
	var errs []error
	if err := a.Metrics.WriteTextfile(a.Settings.Metrics.Textfile); err != nil {
		errs = append(errs, err)
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CreateDatabase creates the schema. With overwrite an existing database is
// removed first; without it an existing schema is migrated in place.
func (a *App) CreateDatabase(overwrite bool) error {
	if overwrite && a.DB.Exists() {
		GetLogger().Warn("removing existing database", logger.String("location", a.DB.Path()))
		if err := a.DB.Delete(); err != nil {
			return err
		}
		// SQLite closes the connection along with the file.
		if !a.DB.IsMySQL() {
			db, err := openManager(a.Settings)
			if err != nil {
				return err
			}
			a.DB = db
			a.Scenarios = datastore.NewScenarioStore(db.DB())
		}
	}
	if err := a.DB.Initialize(); err != nil {
		return errors.New(err).
			Component("app").
			Category(errors.CategoryDatabase).
			Context("location", a.DB.Path()).
			Build()
	}
	GetLogger().Info("database ready", logger.String("location", a.DB.Path()))
	return nil
}

// Query resolves a scenario and locates its files for the configured
// subproblem and stage.
func (a *App) Query(ctx context.Context, name string) (subtype.Query, error) {
	resolved, err := a.Scenarios.Resolve(ctx, name)
	if err != nil {
		return subtype.Query{}, err
	}
	return subtype.Query{
		DB:       a.DB.DB(),
		Scenario: resolved,
		Build:    a.buildInfo(name),
		RunID:    uuid.NewString(),
	}, nil
}

func (a *App) buildInfo(name string) subtype.BuildInfo {
	return subtype.BuildInfo{
		ScenarioDirectory:  a.Settings.ScenarioDirectory(name),
		Subproblem:         a.Settings.Build.Subproblem,
		Stage:              a.Settings.Build.Stage,
		AssertDisjointSets: a.Settings.Build.AssertDisjointSets,
	}
}

// ImportRequest selects a subscenario id to import from the CSV tree.
type ImportRequest struct {
	Subscenario string
	ID          uint
	Project     string
	Replace     bool
}

// Import loads a subscenario id from CSV. Replacing data that scenarios use
// asks for confirmation unless rebuild.assume_yes is set.
func (a *App) Import(ctx context.Context, req ImportRequest) (*datastore.RebuildReport, error) {
	strategy, err := datastore.ParseStrategy(a.Settings.Rebuild.Strategy)
	if err != nil {
		return nil, err
	}
	r := datastore.NewRebuilder(a.DB,
		datastore.WithMetrics(a.Metrics.Pipeline),
		datastore.WithScenarioStore(a.Scenarios))
	return r.Rebuild(ctx, datastore.RebuildRequest{
		CSVLocation:   a.Settings.CSV.Location,
		Subscenario:   req.Subscenario,
		SubscenarioID: req.ID,
		Project:       req.Project,
		Replace:       req.Replace,
		AssumeYes:     a.Settings.Rebuild.AssumeYes,
		Strategy:      strategy,
		Confirm:       a.confirm,
	})
}

// Recover restores the scenario references of an interrupted import.
func (a *App) Recover(ctx context.Context, runID string) error {
	r := datastore.NewRebuilder(a.DB,
		datastore.WithMetrics(a.Metrics.Pipeline),
		datastore.WithScenarioStore(a.Scenarios))
	return r.Recover(ctx, runID)
}

func (a *App) confirm(_ context.Context, subscenario string, id uint, scenarios []string) (bool, error) {
	_, _ = fmt.Fprintf(a.Out, "%s id %d is used by scenarios %s. Replace it? [y/N] ",
		subscenario, id, strings.Join(scenarios, ", "))
	line, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// WriteInputs writes the scenario's tab-delimited input files.
func (a *App) WriteInputs(ctx context.Context, name string) error {
	q, err := a.Query(ctx, name)
	if err != nil {
		return err
	}
	return a.writeInputs(ctx, q)
}

func (a *App) writeInputs(ctx context.Context, q subtype.Query) error {
	return a.timed("inputs_write", func() error {
		return scenario.WriteInputs(ctx, a.Catalog, q)
	})
}

// Validate checks the scenario's inputs and fails when a finding reaches
// build.fail_on.
func (a *App) Validate(ctx context.Context, name string) (*validation.Collector, error) {
	q, err := a.Query(ctx, name)
	if err != nil {
		return nil, err
	}
	return a.validate(ctx, q)
}

func (a *App) validate(ctx context.Context, q subtype.Query) (*validation.Collector, error) {
	threshold, blocking, err := validation.ParseSeverity(a.Settings.Build.FailOn)
	if err != nil {
		return nil, errors.New(err).Component("app").Category(errors.CategoryConfiguration).Build()
	}

	var c *validation.Collector
	err = a.timed(metrics.PipelineValidate, func() error {
		var verr error
		c, verr = scenario.Validate(ctx, a.Catalog, q)
		return verr
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for sev, n := range c.CountBySeverity() {
		counts[string(sev)] = n
	}
	a.Metrics.Model.SetFindings(q.Scenario.Name, counts, []string{string(validation.High), string(validation.Mid), string(validation.Low)})

	if blocking {
		return c, c.Check(threshold)
	}
	return c, nil
}

// RunResult reports what Run produced.
type RunResult struct {
	RunID   string
	LPPath  string
	Stats   model.Stats
	Solved  bool
	Status  string
	Tables  int
	Elapsed time.Duration
}

// Run writes the scenario's inputs, builds its model and writes the LP file.
// With a solution file it also reads the solution back and writes and imports
// the results.
func (a *App) Run(ctx context.Context, name, solutionPath string) (*RunResult, error) {
	start := time.Now()
	q, err := a.Query(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, err := a.validate(ctx, q); err != nil {
		return nil, err
	}
	if err := a.writeInputs(ctx, q); err != nil {
		return nil, err
	}

	bd, err := scenario.NewBuilder(a.Catalog, name, q.Build,
		scenario.WithMetrics(a.Metrics.Pipeline),
		scenario.WithFeatures(q.Scenario.Features),
		scenario.WithRunID(q.RunID)).Build(ctx)
	if err != nil {
		return nil, err
	}

	stats := bd.Model.Stats()
	a.Metrics.Model.SetModelSize(name, metrics.ModelSize{
		Sets:        stats.Sets,
		Params:      stats.Params,
		Vars:        stats.Vars,
		Integers:    stats.Integers,
		Constraints: stats.Constraints,
	})
	out := &RunResult{RunID: q.RunID, LPPath: bd.LPPath(), Stats: stats}

	sol, err := model.FileSolver{LPPath: bd.LPPath(), SolutionPath: solutionPath}.Solve(ctx, bd.Model)
	switch {
	case errors.Is(err, model.ErrNoSolution):
		out.Elapsed = time.Since(start)
		return out, nil
	case err != nil:
		return nil, err
	}
	out.Solved, out.Status = true, sol.Status

	err = a.timed("results_import", func() error {
		tables, err := bd.Results(sol)
		if err != nil {
			return err
		}
		if err := bd.WriteResults(tables); err != nil {
			return err
		}
		out.Tables = len(tables)
		return bd.ImportResults(ctx, q, tables)
	})
	if err != nil {
		return nil, err
	}
	out.Elapsed = time.Since(start)
	return out, nil
}

// timed records a pipeline step in the metrics registry.
func (a *App) timed(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		var ee *errors.EnhancedError
		errType := string(errors.CategoryGeneric)
		if errors.As(err, &ee) {
			errType = string(ee.Category)
		}
		a.Metrics.Pipeline.RecordError(operation, errType)
	}
	a.Metrics.Pipeline.RecordOperation(operation, status)
	a.Metrics.Pipeline.RecordDuration(operation, time.Since(start).Seconds())
	return err
}

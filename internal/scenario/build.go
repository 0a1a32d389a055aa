package scenario

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/datastore"
	"github.com/gridforge/gridforge/internal/dispatch"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/project"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/transmission"
)

// LPFile is the model file written into the scenario's stage directory.
const LPFile = "model.lp"

// Builder assembles scenario models.
type Builder struct {
	catalog  *subtype.Catalog
	info     subtype.BuildInfo
	features datastore.Features
	name     string
	metrics  datastore.MetricsRecorder
	newRunID func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithMetrics records each build phase.
func WithMetrics(m datastore.MetricsRecorder) Option {
	return func(b *Builder) { b.metrics = m }
}

// WithFeatures turns on optional feature groups.
func WithFeatures(f datastore.Features) Option {
	return func(b *Builder) { b.features = f }
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(b *Builder) { b.newRunID = func() string { return id } }
}

// NewBuilder creates a builder for the scenario called name whose input files
// are located by info.
func NewBuilder(catalog *subtype.Catalog, name string, info subtype.BuildInfo, opts ...Option) *Builder {
	b := &Builder{
		catalog:  catalog,
		info:     info,
		name:     name,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build is an assembled model with everything needed to export its results.
type Build struct {
	RunID      string
	Info       subtype.BuildInfo
	Features   datastore.Features
	Model      *model.Model
	Components *dynamic.Components
	Modules    Modules
	Portfolio  *project.Portfolio
	// Network is nil without transmission.
	Network *transmission.Network
}

// Build runs every component in order. The returned model has its objective
// set and the accumulator frozen.
func (b *Builder) Build(ctx context.Context) (*Build, error) {
	start := time.Now()
	out := &Build{
		RunID:      b.newRunID(),
		Info:       b.info,
		Features:   b.features,
		Model:      model.New(b.name),
		Components: dynamic.New(),
	}
	ctx = logger.WithRunID(ctx, out.RunID)
	log := GetLogger().WithContext(ctx).With(
		logger.String("scenario", b.name),
		logger.String("run_id", out.RunID))

	dir := b.info.InputsDir()
	m, d := out.Model, out.Components
	var capDisp, oprDisp, txCapDisp, txOprDisp *dispatch.Dispatcher

	phases := []struct {
		name string
		run  func() error
	}{
		{"modules", func() error {
			err := DetermineDynamicComponents(d, dir, b.features, b.catalog.Names(subtype.Reserve))
			if err != nil {
				return err
			}
			out.Modules, err = LoadModules(b.catalog, d)
			return err
		}},
		{"core", func() error {
			if err := core.LoadTemporal(m, dir); err != nil {
				return err
			}
			return core.LoadZones(m, dir)
		}},
		{"portfolio", func() error {
			var err error
			if out.Portfolio, err = project.LoadPortfolio(m, dir); err != nil {
				return err
			}
			if capDisp, err = dispatch.New(subtype.CapacityType, out.Portfolio.Capacity, out.Modules[subtype.CapacityType]); err != nil {
				return err
			}
			if oprDisp, err = dispatch.New(subtype.OperationalType, out.Portfolio.Operational, out.Modules[subtype.OperationalType]); err != nil {
				return err
			}
			if !b.features.Transmission {
				return nil
			}
			if out.Network, err = transmission.LoadNetwork(m, dir); err != nil {
				return err
			}
			if txCapDisp, err = dispatch.New(subtype.TransmissionCapacityType, out.Network.Capacity, out.Modules[subtype.TransmissionCapacityType]); err != nil {
				return err
			}
			txOprDisp, err = dispatch.New(subtype.TransmissionOperationalType, out.Network.Operational, out.Modules[subtype.TransmissionOperationalType])
			return err
		}},
		{"load_data", func() error {
			for _, mod := range out.Modules.All() {
				if dl, ok := mod.(subtype.DataLoader); ok {
					if err := dl.LoadModelData(m, d, b.info); err != nil {
						return moduleError(err, mod, "load_model_data")
					}
				}
			}
			return nil
		}},
		{"capacity", func() error {
			if err := addComponents(m, d, b.info, out.Modules[subtype.CapacityType]); err != nil {
				return err
			}
			return project.AddCapacityComponents(m, d, b.info, capDisp)
		}},
		{"operations", func() error {
			if err := addComponents(m, d, b.info, out.Modules[subtype.Reserve]); err != nil {
				return err
			}
			if err := addComponents(m, d, b.info, out.Modules[subtype.OperationalType]); err != nil {
				return err
			}
			return project.AddOperationsComponents(m, d, out.Portfolio, oprDisp)
		}},
		{"transmission", func() error {
			if !b.features.Transmission {
				return nil
			}
			if err := addComponents(m, d, b.info, out.Modules[subtype.TransmissionCapacityType]); err != nil {
				return err
			}
			if err := transmission.AddCapacityComponents(m, d, b.info, txCapDisp); err != nil {
				return err
			}
			if err := addComponents(m, d, b.info, out.Modules[subtype.TransmissionOperationalType]); err != nil {
				return err
			}
			return transmission.AddOperationsComponents(m, d, out.Network, txOprDisp)
		}},
		{"objective", func() error {
			if err := core.AddLoadBalance(m, d); err != nil {
				return err
			}
			return core.AddObjective(m, d)
		}},
	}

	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return nil, errors.New(err).
				Component("scenario").
				Category(errors.CategoryCancellation).
				Context("phase", p.name).
				Build()
		}
		phaseStart := time.Now()
		err := p.run()
		b.record("build_"+p.name, err, time.Since(phaseStart))
		if err != nil {
			log.Error("model build failed", logger.String("phase", p.name), logger.Error(err))
			return nil, err
		}
		log.Debug("build phase completed",
			logger.String("phase", p.name),
			logger.Duration("duration", time.Since(phaseStart)))
	}

	stats := m.Stats()
	log.Info("model built",
		logger.Int("variables", stats.Vars),
		logger.Int("integer_variables", stats.Integers),
		logger.Int("constraints", stats.Constraints),
		logger.Duration("duration", time.Since(start)))
	return out, nil
}

func addComponents(m *model.Model, d *dynamic.Components, info subtype.BuildInfo, mods subtype.Modules) error {
	for _, mod := range mods.Sorted() {
		if err := mod.AddModelComponents(m, d, info); err != nil {
			return moduleError(err, mod, "add_model_components")
		}
	}
	return nil
}

// moduleError tags err with the failing module. Errors without a category
// count as model-build errors.
func moduleError(err error, mod subtype.Module, hook string) error {
	eb := errors.New(err).
		Component("scenario").
		Context("module", mod.Name()).
		Context("hook", hook)
	var ee *errors.EnhancedError
	var ce errors.CategorizedError
	if !errors.As(err, &ee) && !errors.As(err, &ce) {
		eb = eb.Category(errors.CategoryModelBuild)
	}
	return eb.Build()
}

func (b *Builder) record(operation string, err error, d time.Duration) {
	if b.metrics == nil {
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
		b.metrics.RecordError(operation, errType)
	}
	b.metrics.RecordOperation(operation, status)
	b.metrics.RecordDuration(operation, d.Seconds())
}

// LPPath is where WriteLP puts the model file.
func (bd *Build) LPPath() string {
	return filepath.Join(filepath.Dir(bd.Info.InputsDir()), LPFile)
}

// WriteLP writes the model to the stage directory and returns the file path.
func (bd *Build) WriteLP() (string, error) {
	path := bd.LPPath()
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", errors.FileError(err, dir)
		}
	}
	f, err := os.Create(path) //nolint:gosec // path from scenario directory
	if err != nil {
		return "", errors.FileError(err, path)
	}
	if err := model.WriteLP(f, bd.Model); err != nil {
		_ = f.Close()
		return "", errors.FileError(err, path)
	}
	if err := f.Close(); err != nil {
		return "", errors.FileError(err, path)
	}
	return path, nil
}

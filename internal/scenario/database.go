package scenario

import (
	"context"
	"time"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/datastore"
	"github.com/gridforge/gridforge/internal/dynamic"
	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/project"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/transmission"
	"github.com/gridforge/gridforge/internal/validation"
)

// WriteInputs writes the scenario's input files from the database: the core
// files first, then the files of every subtype the written portfolio uses.
func WriteInputs(ctx context.Context, catalog *subtype.Catalog, q subtype.Query) error {
	start := time.Now()
	log := GetLogger().WithContext(ctx).With(
		logger.String("scenario", q.Scenario.Name),
		logger.String("directory", q.Build.InputsDir()))

	writers := []func(context.Context, subtype.Query) error{
		core.WriteTemporalInputs,
		core.WriteLoadInputs,
		project.WriteProjectInputs,
	}
	if q.Scenario.Features.Transmission {
		writers = append(writers, transmission.WriteInputs)
	}
	for _, w := range writers {
		if err := w(ctx, q); err != nil {
			return err
		}
	}

	d := dynamic.New()
	if err := DetermineDynamicComponents(d, q.Build.InputsDir(), q.Scenario.Features, catalog.Names(subtype.Reserve)); err != nil {
		return err
	}
	mods, err := LoadModules(catalog, d)
	if err != nil {
		return err
	}
	written := 0
	for _, mod := range mods.All() {
		w, ok := mod.(subtype.InputsWriter)
		if !ok {
			continue
		}
		if err := w.WriteModelInputs(ctx, q); err != nil {
			return moduleError(err, mod, "write_model_inputs")
		}
		written++
	}

	log.Info("inputs written",
		logger.Int("modules", written),
		logger.Duration("duration", time.Since(start)))
	return nil
}

// Validate checks the scenario's database inputs and persists what it finds.
// Every registered subtype of an enabled namespace validates its own rows;
// subtypes the scenario does not use find none.
func Validate(ctx context.Context, catalog *subtype.Catalog, q subtype.Query) (*validation.Collector, error) {
	c := validation.NewCollector()

	checks := []func(context.Context, subtype.Query, *validation.Collector) error{
		core.ValidateTemporal,
		core.ValidateLoad,
		func(ctx context.Context, q subtype.Query, c *validation.Collector) error {
			return project.ValidateProjects(ctx, q, catalog, c)
		},
	}
	if q.Scenario.Features.Transmission {
		checks = append(checks, func(ctx context.Context, q subtype.Query, c *validation.Collector) error {
			return transmission.Validate(ctx, q, catalog, c)
		})
	}
	for _, check := range checks {
		if err := check(ctx, q, c); err != nil {
			return nil, err
		}
	}

	for _, ns := range enabledNamespaces(q.Scenario.Features) {
		mods, err := subtype.LoadSubtypeModules(catalog, catalog.Names(ns), ns, nil)
		if err != nil {
			return nil, err
		}
		for _, mod := range mods.Sorted() {
			v, ok := mod.(subtype.InputsValidator)
			if !ok {
				continue
			}
			if err := v.ValidateInputs(ctx, q, c); err != nil {
				return nil, moduleError(err, mod, "validate_inputs")
			}
		}
	}

	if err := datastore.SaveValidation(ctx, q.DB, datastore.ValidationRun{
		ScenarioID: q.Scenario.ID,
		RunID:      q.RunID,
		Subproblem: q.Build.Subproblem,
		Stage:      q.Build.Stage,
	}, c.Errors()); err != nil {
		return nil, err
	}

	counts := c.CountBySeverity()
	GetLogger().WithContext(ctx).Info("validation completed",
		logger.String("scenario", q.Scenario.Name),
		logger.Int("high", counts[validation.High]),
		logger.Int("mid", counts[validation.Mid]),
		logger.Int("low", counts[validation.Low]))
	return c, nil
}

func enabledNamespaces(f datastore.Features) []subtype.Namespace {
	var out []subtype.Namespace
	for _, ns := range subtype.Namespaces() {
		switch ns {
		case subtype.Reserve:
			if !f.Reserves {
				continue
			}
		case subtype.TransmissionCapacityType, subtype.TransmissionOperationalType:
			if !f.Transmission {
				continue
			}
		}
		out = append(out, ns)
	}
	return out
}

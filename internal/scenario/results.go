package scenario

import (
	"context"

	"github.com/gridforge/gridforge/internal/core"
	"github.com/gridforge/gridforge/internal/datastore"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/project"
	"github.com/gridforge/gridforge/internal/results"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/transmission"
)

// Results merges every module's result columns into the build's result
// tables. Core columns come first, then module columns in build order.
func (bd *Build) Results(sol *model.Solution) ([]*results.Table, error) {
	m, d := bd.Model, bd.Components

	var contribs []results.Contribution
	for _, mod := range bd.Modules.All() {
		ex, ok := mod.(subtype.ResultsExporter)
		if !ok {
			continue
		}
		out, err := ex.ExportResults(m, d, sol)
		if err != nil {
			return nil, moduleError(err, mod, "export_results")
		}
		contribs = append(contribs, out...)
	}

	type base struct {
		table *results.Table
		core  []results.Contribution
	}
	var bases []base
	add := func(t *results.Table, c ...results.Contribution) {
		bases = append(bases, base{table: t, core: c})
	}

	t, c := project.PeriodResults(m, sol)
	add(t, c)
	t, c = project.TimepointResults(m, sol)
	add(t, c)
	add(project.NewBuildTable(m))
	if bd.Features.Reserves {
		add(project.ReserveTable(m))
	}
	if bd.Features.Transmission {
		t, c = transmission.PeriodResults(m, sol)
		add(t, c)
		t, c = transmission.FlowResults(m, sol)
		add(t, c)
	}
	balance, err := core.LoadBalanceResults(m, sol)
	if err != nil {
		return nil, err
	}
	add(balance)

	known := make(map[string]bool, len(bases))
	for _, b := range bases {
		known[b.table.Name] = true
	}
	for _, c := range contribs {
		if !known[c.Table] {
			return nil, errors.Newf("module %s contributed to unknown results table %q", c.Module, c.Table).
				Component("scenario").
				Category(errors.CategoryModelBuild).
				Build()
		}
	}

	out := make([]*results.Table, 0, len(bases))
	for _, b := range bases {
		merged, err := results.MergeResults(b.table, append(b.core, results.ForTable(contribs, b.table.Name)...))
		if err != nil {
			return nil, errors.New(err).
				Component("scenario").
				Category(errors.CategoryModelBuild).
				Context("table", b.table.Name).
				Build()
		}
		out = append(out, merged)
	}
	return out, nil
}

// WriteResults writes each table as <name>.csv into the results directory.
func (bd *Build) WriteResults(tables []*results.Table) error {
	dir := bd.Info.ResultsDir()
	for _, t := range tables {
		if err := results.WriteCSVFile(dir, t); err != nil {
			return err
		}
	}
	GetLogger().Info("results written",
		logger.String("directory", dir),
		logger.Int("tables", len(tables)),
		logger.String("run_id", bd.RunID))
	return nil
}

// ImportResults persists the core result tables, then lets each module import
// its own result files. WriteResults must have run first.
func (bd *Build) ImportResults(ctx context.Context, q subtype.Query, tables []*results.Table) error {
	subtypes := map[string]map[string]string{
		results.ProjectPeriod:    bd.Portfolio.Capacity,
		results.ProjectTimepoint: bd.Portfolio.Operational,
	}
	if bd.Network != nil {
		subtypes[results.TransmissionPeriod] = bd.Network.Capacity
	}

	for _, t := range tables {
		st, ok := subtypes[t.Name]
		if !ok || !datastore.PersistsResults(t.Name) {
			continue
		}
		if err := datastore.SaveResults(ctx, q.DB, datastore.ResultsBatch{
			ScenarioID: q.Scenario.ID,
			RunID:      q.RunID,
			Table:      t,
			Subtypes:   st,
		}); err != nil {
			return err
		}
	}

	for _, mod := range bd.Modules.All() {
		im, ok := mod.(subtype.ResultsImporter)
		if !ok {
			continue
		}
		if err := im.ImportResults(ctx, q); err != nil {
			return moduleError(err, mod, "import_results")
		}
	}
	return nil
}

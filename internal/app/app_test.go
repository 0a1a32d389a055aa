package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/gridforge/internal/conf"
	"github.com/gridforge/gridforge/internal/datastore"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/subtype"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	dir := t.TempDir()
	return &conf.Settings{
		Database: conf.DatabaseSettings{
			Driver: conf.DriverSQLite,
			SQLite: conf.SQLiteSettings{Path: filepath.Join(dir, "db", "io.db")},
		},
		Scenarios: conf.ScenarioSettings{Directory: filepath.Join(dir, "scenarios")},
		CSV:       conf.CSVSettings{Location: filepath.Join(dir, "csvs")},
		Build:     conf.BuildSettings{Subproblem: 1, Stage: 1, AssertDisjointSets: true, FailOn: "none"},
		Rebuild:   conf.RebuildSettings{Strategy: conf.StrategyNullify},
		Metrics:   conf.MetricsSettings{Textfile: filepath.Join(dir, "gridforge.prom")},
	}
}

func openApp(t *testing.T, s *conf.Settings) *App {
	t.Helper()
	a, err := Open(s)
	require.NoError(t, err)
	require.NoError(t, a.CreateDatabase(false))
	return a
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	s.Database.Driver = "postgres"
	_, err := Open(s)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestCreateDatabase_Overwrite(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	a := openApp(t, s)
	ctx := context.Background()

	_, err := a.Scenarios.Create(ctx, datastore.ScenarioSpec{Name: "base"})
	require.NoError(t, err)
	names, err := a.Scenarios.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"base"}, names)

	require.NoError(t, a.CreateDatabase(true))
	assert.True(t, a.DB.Exists())
	names, err = a.Scenarios.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
	require.NoError(t, a.Close())
}

func TestQuery_UnknownScenario(t *testing.T) {
	t.Parallel()

	a := openApp(t, testSettings(t))
	t.Cleanup(func() { _ = a.Close() })

	_, err := a.Query(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestBuildInfo_FollowsSettings(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	s.Build.Subproblem, s.Build.Stage = 2, 3
	a := &App{Settings: s}

	b := a.buildInfo("base")
	assert.Equal(t, filepath.Join(s.Scenarios.Directory, "base", "2", "3", "inputs"), b.InputsDir())
	assert.True(t, b.AssertDisjointSets)
}

func TestValidate_InvalidThreshold(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	s.Build.FailOn = "sometimes"
	a := openApp(t, s)
	t.Cleanup(func() { _ = a.Close() })

	_, err := a.validate(context.Background(), a.queryFor(t))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		a := &App{In: strings.NewReader(tt.input), Out: &out}
		ok, err := a.confirm(context.Background(), "load", 3, []string{"base", "high_load"})
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "input %q", tt.input)
		assert.Contains(t, out.String(), "load id 3 is used by scenarios base, high_load")
	}
}

func TestImport_MissingCSVTreeFails(t *testing.T) {
	t.Parallel()

	a := openApp(t, testSettings(t))
	t.Cleanup(func() { _ = a.Close() })

	_, err := a.Import(context.Background(), ImportRequest{Subscenario: datastore.SubscenarioLoad, ID: 1})
	require.Error(t, err)

	assert.InDelta(t, 1, countOperations(t, a, "rebuild", "error"), 0)
}

func TestClose_WritesTextfile(t *testing.T) {
	t.Parallel()

	s := testSettings(t)
	a := openApp(t, s)
	require.NoError(t, a.timed("inputs_write", func() error { return nil }))
	require.NoError(t, a.Close())

	data, err := os.ReadFile(s.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `gridforge_pipeline_operations_total{pipeline="inputs",stage="write",status="success"} 1`)
}

func (a *App) queryFor(t *testing.T) subtype.Query {
	t.Helper()
	return subtype.Query{
		DB:       a.DB.DB(),
		Scenario: datastore.ResolvedScenario{Name: "base"},
		Build:    a.buildInfo("base"),
	}
}

func countOperations(t *testing.T, a *App, pipeline, status string) float64 {
	t.Helper()
	families, err := a.Metrics.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "gridforge_pipeline_operations_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := make(map[string]string)
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["pipeline"] == pipeline && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

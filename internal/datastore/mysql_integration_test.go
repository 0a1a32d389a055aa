//go:build integration

package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
)

// setupMySQL starts a MySQL container and returns a migrated manager.
func setupMySQL(t *testing.T) *MySQLManager {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcmysql.Run(ctx, "mysql:8.4",
		tcmysql.WithDatabase("gridforge"),
		tcmysql.WithUsername("gridforge"),
		tcmysql.WithPassword("gridforge"),
	)
	require.NoError(t, err)
	testcontainers.CleanupContainer(t, ctr)

	dsn, err := ctr.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err)

	mgr, err := NewMySQLManagerFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, mgr.Initialize())
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestMySQL_RebuildReferenced(t *testing.T) {
	mgr := setupMySQL(t)
	root := setupCSVs(t)
	ctx := context.Background()

	r := NewRebuilder(mgr)
	importCore(t, r, root)

	scenarioID, err := NewScenarioStore(mgr.DB()).Create(ctx, ScenarioSpec{
		Name: "base",
		IDs:  SubscenarioIDs{Temporal: 1, Load: 1, ProjectPortfolio: 1, ProjectOperationalChars: 1},
	})
	require.NoError(t, err)

	writeFile(t, root, "project/portfolios/1_base.csv", "project,capacity_type\ngen_b,gen_new_lin\n")
	report, err := r.Rebuild(ctx, RebuildRequest{
		CSVLocation:   root,
		Subscenario:   SubscenarioProjectPortfolio,
		SubscenarioID: 1,
		Replace:       true,
		AssumeYes:     true,
		Strategy:      StrategyDefer,
	})
	require.NoError(t, err)
	assert.Equal(t, StrategyNullify, report.Strategy, "MySQL falls back to nullify")

	s := scenarioRow(t, mgr, scenarioID)
	require.NotNil(t, s.ProjectPortfolioScenarioID)
	assert.Equal(t, uint(1), *s.ProjectPortfolioScenarioID)
	assert.Equal(t, []portfolioRow{{"gen_b", "gen_new_lin"}}, portfolioRows(t, mgr, 1))

	writeFile(t, root, "project/portfolios/1_base.csv", "project,capacity_type,bogus\ngen_z,gen_spec,1\n")
	_, err = r.Rebuild(ctx, RebuildRequest{
		CSVLocation:   root,
		Subscenario:   SubscenarioProjectPortfolio,
		SubscenarioID: 1,
		Replace:       true,
		AssumeYes:     true,
	})
	require.Error(t, err)

	s = scenarioRow(t, mgr, scenarioID)
	require.NotNil(t, s.ProjectPortfolioScenarioID)
	assert.Equal(t, uint(1), *s.ProjectPortfolioScenarioID)
	assert.Equal(t, []portfolioRow{{"gen_b", "gen_new_lin"}}, portfolioRows(t, mgr, 1))
}

func TestMySQL_Delete(t *testing.T) {
	mgr := setupMySQL(t)
	require.True(t, mgr.Exists())
	require.NoError(t, mgr.Delete())
	assert.False(t, mgr.Exists())
}

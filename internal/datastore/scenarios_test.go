package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/gridforge/internal/errors"
)

func TestScenarioStore_Resolve(t *testing.T) {
	mgr, r, root, scenarioID := setupReferenced(t)
	ctx := context.Background()
	store := NewScenarioStore(mgr.DB())

	resolved, err := store.Resolve(ctx, "base")
	require.NoError(t, err)
	assert.Equal(t, scenarioID, resolved.ID)
	assert.Equal(t, uint(1), resolved.IDs.ProjectPortfolio)
	assert.Zero(t, resolved.IDs.ProjectNewCost)
	assert.False(t, resolved.Features.Transmission)

	_, err = store.Resolve(ctx, "nope")
	assert.True(t, errors.IsNotFound(err))

	// Cached until a rebuild through a rebuilder that knows the store.
	require.NoError(t, mgr.DB().Exec("UPDATE scenarios SET project_portfolio_scenario_id = NULL WHERE id = ?", scenarioID).Error)
	resolved, err = store.Resolve(ctx, "base")
	require.NoError(t, err)
	assert.Equal(t, uint(1), resolved.IDs.ProjectPortfolio)

	r = NewRebuilder(mgr, WithScenarioStore(store))
	writeFile(t, root, "project/portfolios/2_alt.csv", "project,capacity_type\ngen_a,gen_spec\n")
	_, err = r.Rebuild(ctx, RebuildRequest{CSVLocation: root, Subscenario: SubscenarioProjectPortfolio, SubscenarioID: 2})
	require.NoError(t, err)

	_, err = store.Resolve(ctx, "base")
	assert.True(t, errors.IsCategory(err, errors.CategoryState), "nulled reference is visible after invalidation")
}

func TestScenarioStore_ResolveMissingRequired(t *testing.T) {
	mgr, _, _, _ := setupReferenced(t)
	ctx := context.Background()
	store := NewScenarioStore(mgr.DB())

	_, err := store.Create(ctx, ScenarioSpec{
		Name:     "with_tx",
		IDs:      SubscenarioIDs{Temporal: 1, Load: 1, ProjectPortfolio: 1, ProjectOperationalChars: 1},
		Features: Features{Transmission: true},
	})
	require.NoError(t, err)

	_, err = store.Resolve(ctx, "with_tx")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
	assert.Contains(t, err.Error(), "transmission_portfolio")
}

func TestScenarioStore_CreateRejectsDanglingReference(t *testing.T) {
	mgr := setupManager(t)
	store := NewScenarioStore(mgr.DB())

	_, err := store.Create(context.Background(), ScenarioSpec{Name: "dangling", IDs: SubscenarioIDs{Temporal: 42}})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryIntegrity))
}

func TestScenarioStore_List(t *testing.T) {
	mgr, _, _, _ := setupReferenced(t)
	names, err := NewScenarioStore(mgr.DB()).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"base"}, names)
}

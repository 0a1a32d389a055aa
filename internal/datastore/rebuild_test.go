package datastore

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/errors"
)

type portfolioRow struct {
	Project      string
	CapacityType string
}

func portfolioRows(t *testing.T, mgr Manager, id uint) []portfolioRow {
	t.Helper()
	var rows []portfolioRow
	require.NoError(t, mgr.DB().Table("inputs_project_portfolios").
		Select("project", "capacity_type").
		Where("project_portfolio_scenario_id = ?", id).
		Order("project").
		Scan(&rows).Error)
	return rows
}

func scenarioRow(t *testing.T, mgr Manager, id uint) entities.Scenario {
	t.Helper()
	var s entities.Scenario
	require.NoError(t, mgr.DB().First(&s, id).Error)
	return s
}

func journalRow(t *testing.T, mgr Manager, runID string) entities.RebuildJournal {
	t.Helper()
	var j entities.RebuildJournal
	require.NoError(t, mgr.DB().Where("run_id = ?", runID).First(&j).Error)
	return j
}

// setupReferenced imports the core subscenarios and creates a scenario that
// references all of them.
func setupReferenced(t *testing.T) (mgr *SQLiteManager, r *Rebuilder, root string, scenarioID uint) {
	t.Helper()
	mgr = setupManager(t)
	root = setupCSVs(t)
	r = NewRebuilder(mgr)
	importCore(t, r, root)

	store := NewScenarioStore(mgr.DB())
	id, err := store.Create(context.Background(), ScenarioSpec{
		Name: "base",
		IDs: SubscenarioIDs{
			Temporal:                1,
			Load:                    1,
			ProjectPortfolio:        1,
			ProjectOperationalChars: 1,
		},
	})
	require.NoError(t, err)
	return mgr, r, root, id
}

func TestRebuild_NewID(t *testing.T) {
	mgr := setupManager(t)
	root := setupCSVs(t)
	r := NewRebuilder(mgr)

	report, err := r.Rebuild(context.Background(), RebuildRequest{
		CSVLocation:   root,
		Subscenario:   SubscenarioProjectPortfolio,
		SubscenarioID: 1,
	})
	require.NoError(t, err)
	assert.False(t, report.Replaced)
	assert.Equal(t, 2, report.Rows)
	assert.Empty(t, report.Scenarios)

	assert.Equal(t, []portfolioRow{{"gen_a", "gen_spec"}, {"gen_b", "gen_new_lin"}}, portfolioRows(t, mgr, 1))

	j := journalRow(t, mgr, report.RunID)
	assert.Equal(t, entities.RebuildStateIdle, j.State)
	assert.Empty(t, j.OriginalRefs)
	assert.NotNil(t, j.CompletedAt)
}

func TestRebuild_ExistingIDRequiresReplace(t *testing.T) {
	mgr, r, root, _ := setupReferenced(t)

	report, err := r.Rebuild(context.Background(), RebuildRequest{
		CSVLocation:   root,
		Subscenario:   SubscenarioProjectPortfolio,
		SubscenarioID: 1,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))
	assert.Equal(t, entities.RebuildStateFailed, journalRow(t, mgr, report.RunID).State)
}

func TestRebuild_ReplaceReferenced(t *testing.T) {
	for _, strategy := range []Strategy{StrategyNullify, StrategyDefer} {
		t.Run(string(strategy), func(t *testing.T) {
			mgr, r, root, scenarioID := setupReferenced(t)
			writeFile(t, root, "project/portfolios/1_base.csv",
				"project,capacity_type\ngen_b,gen_new_lin\ngen_c,gen_new_bin\n")

			report, err := r.Rebuild(context.Background(), RebuildRequest{
				CSVLocation:   root,
				Subscenario:   SubscenarioProjectPortfolio,
				SubscenarioID: 1,
				Replace:       true,
				AssumeYes:     true,
				Strategy:      strategy,
			})
			require.NoError(t, err)
			assert.True(t, report.Replaced)
			assert.Equal(t, []string{"base"}, report.Scenarios)

			s := scenarioRow(t, mgr, scenarioID)
			require.NotNil(t, s.ProjectPortfolioScenarioID)
			assert.Equal(t, uint(1), *s.ProjectPortfolioScenarioID)

			assert.Equal(t, []portfolioRow{{"gen_b", "gen_new_lin"}, {"gen_c", "gen_new_bin"}}, portfolioRows(t, mgr, 1))

			j := journalRow(t, mgr, report.RunID)
			assert.Equal(t, entities.RebuildStateIdle, j.State)
			assert.Equal(t, string(strategy), j.Strategy)
			if strategy == StrategyNullify {
				assert.True(t, j.Restored)
				assert.Len(t, j.OriginalRefs, 1)
			} else {
				assert.Empty(t, j.OriginalRefs)
			}
		})
	}
}

func TestRebuild_ImportFailureRestoresReferences(t *testing.T) {
	mgr, r, root, scenarioID := setupReferenced(t)
	// Unknown column: the insert fails after the delete.
	writeFile(t, root, "project/portfolios/1_base.csv",
		"project,capacity_type,bogus\ngen_z,gen_spec,1\n")

	report, err := r.Rebuild(context.Background(), RebuildRequest{
		CSVLocation:   root,
		Subscenario:   SubscenarioProjectPortfolio,
		SubscenarioID: 1,
		Replace:       true,
		AssumeYes:     true,
	})
	require.Error(t, err)

	s := scenarioRow(t, mgr, scenarioID)
	require.NotNil(t, s.ProjectPortfolioScenarioID, "reference must be restored")
	assert.Equal(t, uint(1), *s.ProjectPortfolioScenarioID)

	// The delete rolled back with the failed import.
	assert.Equal(t, []portfolioRow{{"gen_a", "gen_spec"}, {"gen_b", "gen_new_lin"}}, portfolioRows(t, mgr, 1))

	j := journalRow(t, mgr, report.RunID)
	assert.Equal(t, entities.RebuildStateFailed, j.State)
	assert.True(t, j.Restored)
	assert.False(t, j.NeedsRecovery())
	assert.NotEmpty(t, j.ErrorMessage)
}

func TestRebuild_DeferredImportFailureLeavesDataIntact(t *testing.T) {
	mgr, r, root, scenarioID := setupReferenced(t)
	writeFile(t, root, "project/portfolios/1_base.csv",
		"project,capacity_type,bogus\ngen_z,gen_spec,1\n")

	_, err := r.Rebuild(context.Background(), RebuildRequest{
		CSVLocation:   root,
		Subscenario:   SubscenarioProjectPortfolio,
		SubscenarioID: 1,
		Replace:       true,
		AssumeYes:     true,
		Strategy:      StrategyDefer,
	})
	require.Error(t, err)

	s := scenarioRow(t, mgr, scenarioID)
	require.NotNil(t, s.ProjectPortfolioScenarioID)
	assert.Equal(t, uint(1), *s.ProjectPortfolioScenarioID)
	assert.Len(t, portfolioRows(t, mgr, 1), 2)
}

// cancelOnInsert cancels when gorm is about to insert into table.
func cancelOnInsert(t *testing.T, db *gorm.DB, table string, cancel context.CancelFunc) {
	t.Helper()
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:cancel_on_insert", func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			cancel()
		}
	}))
}

func TestRebuild_CancelledImportRestoresReferences(t *testing.T) {
	mgr, r, root, scenarioID := setupReferenced(t)
	writeFile(t, root, "project/portfolios/1_base.csv", "project,capacity_type\ngen_q,gen_spec\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cancelOnInsert(t, mgr.DB(), "inputs_project_portfolios", cancel)

	report, err := r.Rebuild(ctx, RebuildRequest{
		CSVLocation:   root,
		Subscenario:   SubscenarioProjectPortfolio,
		SubscenarioID: 1,
		Replace:       true,
		AssumeYes:     true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	s := scenarioRow(t, mgr, scenarioID)
	require.NotNil(t, s.ProjectPortfolioScenarioID, "reference must be restored after cancellation")
	assert.Equal(t, uint(1), *s.ProjectPortfolioScenarioID)
	assert.Equal(t, []portfolioRow{{"gen_a", "gen_spec"}, {"gen_b", "gen_new_lin"}}, portfolioRows(t, mgr, 1))

	j := journalRow(t, mgr, report.RunID)
	assert.Equal(t, entities.RebuildStateFailed, j.State)
	assert.True(t, j.Restored)
	assert.False(t, j.NeedsRecovery())
	assert.Contains(t, j.ErrorMessage, "context canceled")
}

func TestRebuild_CancelledAtConfirmationIsRecorded(t *testing.T) {
	mgr, r, root, _ := setupReferenced(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	report, err := r.Rebuild(ctx, RebuildRequest{
		CSVLocation:   root,
		Subscenario:   SubscenarioProjectPortfolio,
		SubscenarioID: 1,
		Replace:       true,
		Confirm: func(ctx context.Context, _ string, _ uint, _ []string) (bool, error) {
			cancel()
			return false, ctx.Err()
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, entities.RebuildStateFailed, journalRow(t, mgr, report.RunID).State)

	// The failed run does not hold the id.
	_, err = r.Rebuild(context.Background(), RebuildRequest{
		CSVLocation:   root,
		Subscenario:   SubscenarioProjectPortfolio,
		SubscenarioID: 1,
		Replace:       true,
		AssumeYes:     true,
	})
	require.NoError(t, err)
}

func TestRebuild_Confirmation(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		mgr, r, root, _ := setupReferenced(t)
		writeFile(t, root, "project/portfolios/1_base.csv", "project,capacity_type\ngen_q,gen_spec\n")

		var asked []string
		report, err := r.Rebuild(context.Background(), RebuildRequest{
			CSVLocation:   root,
			Subscenario:   SubscenarioProjectPortfolio,
			SubscenarioID: 1,
			Replace:       true,
			Confirm: func(_ context.Context, sub string, id uint, scenarios []string) (bool, error) {
				asked = scenarios
				return false, nil
			},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrOverwriteDeclined)
		assert.Equal(t, []string{"base"}, asked)
		assert.Len(t, portfolioRows(t, mgr, 1), 2)
		assert.Equal(t, entities.RebuildStateIdle, journalRow(t, mgr, report.RunID).State)
	})

	t.Run("no hook", func(t *testing.T) {
		_, r, root, _ := setupReferenced(t)

		_, err := r.Rebuild(context.Background(), RebuildRequest{
			CSVLocation:   root,
			Subscenario:   SubscenarioProjectPortfolio,
			SubscenarioID: 1,
			Replace:       true,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "confirmation required")
	})

	t.Run("accepted", func(t *testing.T) {
		mgr, r, root, _ := setupReferenced(t)
		writeFile(t, root, "project/portfolios/1_base.csv", "project,capacity_type\ngen_q,gen_spec\n")

		_, err := r.Rebuild(context.Background(), RebuildRequest{
			CSVLocation:   root,
			Subscenario:   SubscenarioProjectPortfolio,
			SubscenarioID: 1,
			Replace:       true,
			Confirm: func(context.Context, string, uint, []string) (bool, error) {
				return true, nil
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []portfolioRow{{"gen_q", "gen_spec"}}, portfolioRows(t, mgr, 1))
	})
}

func TestRebuild_ProjectLevel(t *testing.T) {
	mgr := setupManager(t)
	root := setupCSVs(t)
	r := NewRebuilder(mgr)
	ctx := context.Background()

	_, err := r.Rebuild(ctx, RebuildRequest{
		CSVLocation:   root,
		Subscenario:   SubscenarioProjectVariableProfile,
		SubscenarioID: 1,
	})
	require.Error(t, err, "project is required")
	assert.True(t, errors.IsConfiguration(err))

	_, err = r.Rebuild(ctx, RebuildRequest{
		CSVLocation:   root,
		Subscenario:   SubscenarioProjectVariableProfile,
		SubscenarioID: 1,
		Project:       "gen_c",
	})
	require.NoError(t, err)

	writeFile(t, root, "project/variable_profiles/gen_c-1_flat.csv", "timepoint,cap_factor\n1,0.9\n")
	_, err = r.Rebuild(ctx, RebuildRequest{
		CSVLocation:   root,
		Subscenario:   SubscenarioProjectVariableProfile,
		SubscenarioID: 1,
		Project:       "gen_c",
		Replace:       true,
	})
	require.NoError(t, err)

	var factors []float64
	require.NoError(t, mgr.DB().Table("inputs_project_variable_profiles").
		Where("project = ? AND variable_profile_scenario_id = ?", "gen_c", 1).
		Order("timepoint").
		Pluck("cap_factor", &factors).Error)
	assert.Equal(t, []float64{0.9}, factors)
}

func TestRebuild_ActiveRunConflicts(t *testing.T) {
	mgr, r, root, _ := setupReferenced(t)

	require.NoError(t, mgr.DB().Create(&entities.RebuildJournal{
		RunID:         "stuck",
		Subscenario:   SubscenarioProjectPortfolio,
		SubscenarioID: 1,
		State:         entities.RebuildStateImporting,
	}).Error)

	_, err := r.Rebuild(context.Background(), RebuildRequest{
		CSVLocation:   root,
		Subscenario:   SubscenarioProjectPortfolio,
		SubscenarioID: 1,
		Replace:       true,
		AssumeYes:     true,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))
	assert.Contains(t, err.Error(), "stuck")
}

func TestRecover(t *testing.T) {
	mgr, r, _, scenarioID := setupReferenced(t)
	ctx := context.Background()

	// Simulate a run that nulled the reference and could not restore it.
	require.NoError(t, mgr.DB().Model(&entities.Scenario{}).
		Where("id = ?", scenarioID).
		Update("project_portfolio_scenario_id", nil).Error)
	require.NoError(t, mgr.DB().Create(&entities.RebuildJournal{
		RunID:         "crashed",
		Subscenario:   SubscenarioProjectPortfolio,
		SubscenarioID: 1,
		State:         entities.RebuildStateFailed,
		Column:        "project_portfolio_scenario_id",
		OriginalRefs:  datatypes.JSONMap{strconv.FormatUint(uint64(scenarioID), 10): 1},
	}).Error)

	require.NoError(t, r.Recover(ctx, "crashed"))

	s := scenarioRow(t, mgr, scenarioID)
	require.NotNil(t, s.ProjectPortfolioScenarioID)
	assert.Equal(t, uint(1), *s.ProjectPortfolioScenarioID)

	j := journalRow(t, mgr, "crashed")
	assert.True(t, j.Restored)
	assert.Equal(t, entities.RebuildStateIdle, j.State)

	// A second recovery is a no-op.
	require.NoError(t, r.Recover(ctx, "crashed"))

	err := r.Recover(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestRecover_ReleasesAbandonedRun(t *testing.T) {
	tests := []struct {
		name     string
		state    entities.RebuildState
		restored bool
		want     entities.RebuildState
	}{
		{"died resolving", entities.RebuildStateResolving, false, entities.RebuildStateFailed},
		{"died at prompt", entities.RebuildStateConfirmingOverwrite, false, entities.RebuildStateFailed},
		{"died deleting", entities.RebuildStateDeleting, false, entities.RebuildStateFailed},
		{"died after restore", entities.RebuildStateRestoring, true, entities.RebuildStateIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, r, root, _ := setupReferenced(t)
			ctx := context.Background()
			require.NoError(t, mgr.DB().Create(&entities.RebuildJournal{
				RunID:         "dead-run",
				Subscenario:   SubscenarioProjectPortfolio,
				SubscenarioID: 1,
				State:         tt.state,
				Restored:      tt.restored,
			}).Error)

			req := RebuildRequest{
				CSVLocation:   root,
				Subscenario:   SubscenarioProjectPortfolio,
				SubscenarioID: 1,
				Replace:       true,
				AssumeYes:     true,
			}
			_, err := r.Rebuild(ctx, req)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryConflict))

			require.NoError(t, r.Recover(ctx, "dead-run"))
			j := journalRow(t, mgr, "dead-run")
			assert.Equal(t, tt.want, j.State)
			assert.NotNil(t, j.CompletedAt)
			if tt.want == entities.RebuildStateFailed {
				assert.Contains(t, j.ErrorMessage, "abandoned")
			}

			_, err = r.Rebuild(ctx, req)
			require.NoError(t, err)
		})
	}
}

func TestTransitionRun_Guarded(t *testing.T) {
	mgr := setupManager(t)
	db := mgr.DB()
	require.NoError(t, db.Create(&entities.RebuildJournal{RunID: "r1", Subscenario: "load", SubscenarioID: 1, State: entities.RebuildStateIdle}).Error)

	require.NoError(t, transitionRun(db, "r1", entities.RebuildStateIdle, entities.RebuildStateResolving, nil))

	err := transitionRun(db, "r1", entities.RebuildStateIdle, entities.RebuildStateResolving, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "current state is resolving, expected idle")

	err = transitionRun(db, "r1", entities.RebuildStateResolving, entities.RebuildStateRestoring, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyNullify, s)

	s, err = ParseStrategy("defer")
	require.NoError(t, err)
	assert.Equal(t, StrategyDefer, s)

	_, err = ParseStrategy("yolo")
	assert.True(t, errors.IsConfiguration(err))
}

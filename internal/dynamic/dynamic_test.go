package dynamic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/gridforge/internal/model"
)

func TestList_AppendAndConsume(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.OperationalPeriodSets.Append("GEN_SPEC_OPR_PRDS"))
	require.NoError(t, c.OperationalPeriodSets.Append("GEN_NEW_LIN_OPR_PRDS"))
	assert.False(t, c.OperationalPeriodSets.Frozen())

	got := c.OperationalPeriodSets.Consume()
	assert.Equal(t, []string{"GEN_SPEC_OPR_PRDS", "GEN_NEW_LIN_OPR_PRDS"}, got)

	err := c.OperationalPeriodSets.Append("LATE_OPR_PRDS")
	var frozen *FrozenError
	require.ErrorAs(t, err, &frozen)
	assert.Equal(t, "operational_period_set_names", frozen.List)

	// other lists unaffected
	require.NoError(t, c.FinancialPeriodSets.Append("GEN_SPEC_FIN_PRDS"))
}

func TestAppendUnique(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, AppendUnique(c.RequiredCapacityModules, "gen_spec"))
	require.NoError(t, AppendUnique(c.RequiredCapacityModules, "gen_new_lin"))
	require.NoError(t, AppendUnique(c.RequiredCapacityModules, "gen_spec"))
	assert.Equal(t, []string{"gen_spec", "gen_new_lin"}, c.RequiredCapacityModules.Values())
}

func TestFreeze(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.HeadroomVariables.Append("gen_a", "Provide_Regulation_Up_MW"))
	require.NoError(t, c.ReserveDerateParamByVariable.Set("Provide_Regulation_Up_MW", "regulation_up_derate"))
	c.Freeze()

	require.Error(t, c.HeadroomVariables.Append("gen_b", "Provide_Regulation_Up_MW"))
	require.Error(t, c.ReserveDerateParamByVariable.Set("x", "y"))
	require.Error(t, c.RequiredReserveModules.Append("regulation_up"))

	assert.Equal(t, []string{"Provide_Regulation_Up_MW"}, c.HeadroomVariables.Get("gen_a"))
	param, ok := c.ReserveDerateParamByVariable.Get("Provide_Regulation_Up_MW")
	require.True(t, ok)
	assert.Equal(t, "regulation_up_derate", param)
}

func TestMapping_Conflict(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.ReserveDerateParamByVariable.Set("v", "p"))
	require.NoError(t, c.ReserveDerateParamByVariable.Set("v", "p"))
	require.Error(t, c.ReserveDerateParamByVariable.Set("v", "q"))
}

func modelWithSets(t *testing.T, sets map[string][]model.EntityPeriod) *model.Model {
	t.Helper()
	m := model.New("join")
	for name, items := range sets {
		require.NoError(t, model.AddSet(m, model.NewSet(name, items...)))
	}
	return m
}

func TestJoinSets_Union(t *testing.T) {
	t.Parallel()

	m := modelWithSets(t, map[string][]model.EntityPeriod{
		"GEN_SPEC_OPR_PRDS":    {{Entity: "gen_a", Period: 2025}, {Entity: "gen_a", Period: 2030}},
		"GEN_NEW_LIN_OPR_PRDS": {{Entity: "gen_b", Period: 2025}, {Entity: "gen_b", Period: 2030}},
	})

	c := New()
	require.NoError(t, c.OperationalPeriodSets.Append("GEN_SPEC_OPR_PRDS"))
	require.NoError(t, c.OperationalPeriodSets.Append("GEN_NEW_LIN_OPR_PRDS"))

	union, err := JoinSets[model.EntityPeriod](m, c.OperationalPeriodSets, "PRJ_OPR_PRDS", JoinOptions{AssertDisjoint: true})
	require.NoError(t, err)
	assert.Equal(t, "PRJ_OPR_PRDS", union.Name())
	assert.Equal(t, []model.EntityPeriod{
		{Entity: "gen_a", Period: 2025}, {Entity: "gen_a", Period: 2030}, {Entity: "gen_b", Period: 2025}, {Entity: "gen_b", Period: 2030},
	}, union.Items())
	assert.True(t, c.OperationalPeriodSets.Frozen())
}

func TestJoinSets_OrderIndependentMembership(t *testing.T) {
	t.Parallel()

	sets := map[string][]model.EntityPeriod{
		"A": {{Entity: "gen_a", Period: 2025}},
		"B": {{Entity: "gen_b", Period: 2025}, {Entity: "gen_b", Period: 2030}},
	}

	c1 := New()
	require.NoError(t, c1.OperationalPeriodSets.Append("A"))
	require.NoError(t, c1.OperationalPeriodSets.Append("B"))
	u1, err := JoinSets[model.EntityPeriod](modelWithSets(t, sets), c1.OperationalPeriodSets, "U", JoinOptions{})
	require.NoError(t, err)

	c2 := New()
	require.NoError(t, c2.OperationalPeriodSets.Append("B"))
	require.NoError(t, c2.OperationalPeriodSets.Append("A"))
	u2, err := JoinSets[model.EntityPeriod](modelWithSets(t, sets), c2.OperationalPeriodSets, "U", JoinOptions{})
	require.NoError(t, err)

	assert.ElementsMatch(t, u1.Items(), u2.Items())
}

func TestJoinSets_Overlap(t *testing.T) {
	t.Parallel()

	sets := map[string][]model.EntityPeriod{
		"GEN_SPEC_OPR_PRDS":    {{Entity: "gen_a", Period: 2025}},
		"GEN_NEW_LIN_OPR_PRDS": {{Entity: "gen_a", Period: 2025}, {Entity: "gen_b", Period: 2025}},
	}

	c := New()
	require.NoError(t, c.OperationalPeriodSets.Append("GEN_SPEC_OPR_PRDS"))
	require.NoError(t, c.OperationalPeriodSets.Append("GEN_NEW_LIN_OPR_PRDS"))
	_, err := JoinSets[model.EntityPeriod](modelWithSets(t, sets), c.OperationalPeriodSets, "PRJ_OPR_PRDS", JoinOptions{AssertDisjoint: true})

	var overlap *OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, "gen_a,2025", overlap.Member)
	assert.Equal(t, "GEN_SPEC_OPR_PRDS", overlap.First)

	// without the assertion the duplicate collapses
	c2 := New()
	require.NoError(t, c2.OperationalPeriodSets.Append("GEN_SPEC_OPR_PRDS"))
	require.NoError(t, c2.OperationalPeriodSets.Append("GEN_NEW_LIN_OPR_PRDS"))
	union, err := JoinSets[model.EntityPeriod](modelWithSets(t, sets), c2.OperationalPeriodSets, "PRJ_OPR_PRDS", JoinOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, union.Len())
}

func TestJoinSets_UnknownSet(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.OperationalPeriodSets.Append("MISSING"))
	_, err := JoinSets[model.EntityPeriod](model.New("x"), c.OperationalPeriodSets, "U", JoinOptions{})

	var notFound *model.ComponentNotFoundError
	require.ErrorAs(t, err, &notFound)
}

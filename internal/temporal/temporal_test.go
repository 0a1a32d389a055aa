package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/gridforge/internal/errors"
)

func decades(startYears ...int) []Period {
	out := make([]Period, len(startYears))
	for i, y := range startYears {
		out[i] = Period{ID: y, StartYear: y, EndYear: y + 9}
	}
	return out
}

func TestRelevantPeriods(t *testing.T) {
	t.Parallel()

	periods := decades(2020, 2030, 2040, 2050)

	tests := []struct {
		name     string
		vintage  int
		lifetime float64
		want     []int
	}{
		{"exclusive upper bound", 2020, 20, []int{2020, 2030}},
		{"zero lifetime", 2020, 0, nil},
		{"vintage equals start year", 2030, 1, []int{2030}},
		{"vintage after all periods", 2060, 40, nil},
		{"fractional lifetime", 2020, 20.5, []int{2020, 2030, 2040}},
		{"vintage between starts", 2025, 20, []int{2030, 2040}},
		{"long lifetime", 2020, 100, []int{2020, 2030, 2040, 2050}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := RelevantPeriodIDs(periods, tt.vintage, tt.lifetime)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelevantPeriods_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	periods := []Period{{ID: 3, StartYear: 2040}, {ID: 1, StartYear: 2020}, {ID: 2, StartYear: 2030}}
	got, err := RelevantPeriodIDs(periods, 2020, 30)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, got)
}

func TestRelevantPeriods_NegativeLifetime(t *testing.T) {
	t.Parallel()

	_, err := RelevantPeriods(decades(2020), 2020, -1)
	require.Error(t, err)

	var lifetimeErr *InvalidLifetimeError
	require.ErrorAs(t, err, &lifetimeErr)
	assert.InDelta(t, -1.0, lifetimeErr.Lifetime, 0)
	assert.True(t, errors.IsConfiguration(err))
}

func TestVintagesRelevantInPeriod_RoundTrip(t *testing.T) {
	t.Parallel()

	periodLists := [][]Period{
		decades(2020, 2030, 2040, 2050),
		decades(2025, 2030),
		{{ID: 1, StartYear: 2021}, {ID: 2, StartYear: 2023}, {ID: 3, StartYear: 2031}},
	}
	lifetimes := []float64{0, 1, 5, 10, 10.5, 20, 35}

	for _, periods := range periodLists {
		for _, lifetime := range lifetimes {
			var vintages []Vintage
			for _, p := range periods {
				vintages = append(vintages, Vintage{Entity: "gen", Year: p.StartYear})
			}
			vintages = append(vintages, Vintage{Entity: "gen", Year: periods[0].StartYear - 3})

			relevant, err := RelevantPeriodsByVintage(periods, vintages, func(Vintage) float64 { return lifetime })
			require.NoError(t, err)

			for _, p := range periods {
				live := VintagesRelevantInPeriod(vintages, relevant, p.ID)
				for _, v := range vintages {
					ids, err := RelevantPeriodIDs(periods, v.Year, lifetime)
					require.NoError(t, err)
					assert.Equal(t, contains(ids, p.ID), containsVintage(live, v),
						"period %d vintage %d lifetime %v", p.ID, v.Year, lifetime)
				}
			}
		}
	}
}

func TestRelevantPeriodsByVintage_AnnotatesEntity(t *testing.T) {
	t.Parallel()

	_, err := RelevantPeriodsByVintage(decades(2020), []Vintage{{Entity: "gen_b", Year: 2020}},
		func(Vintage) float64 { return -5 })
	require.Error(t, err)

	var ee *errors.EnhancedError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "gen_b", ee.GetContext()["entity"])
	assert.Equal(t, errors.CategoryConfiguration, ee.Category)
}

func TestValidatePeriods(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidatePeriods(decades(2020, 2030)))
	require.Error(t, ValidatePeriods(decades(2030, 2020)))
	require.Error(t, ValidatePeriods([]Period{{ID: 1, StartYear: 2030, EndYear: 2029}}))
}

func contains(ids []int, id int) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func containsVintage(vs []Vintage, v Vintage) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}

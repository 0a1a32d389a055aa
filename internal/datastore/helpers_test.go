package datastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testStructure = `subscenario,directory,project_input
temporal,temporal,0
load,system/load,0
project_portfolio,project/portfolios,0
project_operational_chars,project/opchars,0
project_variable_profile,project/variable_profiles,1
`

// setupManager creates a migrated SQLite database in a temp directory.
func setupManager(t *testing.T) *SQLiteManager {
	t.Helper()

	mgr, err := NewSQLiteManager(Config{Path: filepath.Join(t.TempDir(), "io.db")})
	require.NoError(t, err)
	require.NoError(t, mgr.Initialize())
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

// writeFile writes content below root, creating directories.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// setupCSVs writes a small CSV location with one id of each core subscenario.
func setupCSVs(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, CSVStructureFile, testStructure)
	writeFile(t, root, "temporal/periods/1_two_periods.csv",
		"period,start_year,end_year,discount_factor,years_represented\n2025,2025,2029,1,5\n2030,2030,2034,0.8,5\n")
	writeFile(t, root, "temporal/timepoints/1_two_periods.csv",
		"timepoint,period,weight\n1,2025,8760\n2,2030,8760\n")
	writeFile(t, root, "system/load/load_zones/1_single_zone.csv",
		"load_zone,unserved_energy_penalty_per_mwh\nzone1,10000\n")
	writeFile(t, root, "system/load/load/1_single_zone.csv",
		"load_zone,timepoint,load_mw\nzone1,1,100\nzone1,2,120\n")
	writeFile(t, root, "project/portfolios/1_base.csv",
		"project,capacity_type\ngen_a,gen_spec\ngen_b,gen_new_lin\n")
	writeFile(t, root, "project/opchars/1_base.csv",
		"project,operational_type,load_zone,variable_om_cost_per_mwh,min_stable_level_fraction,charging_efficiency,discharging_efficiency,variable_profile_scenario_id\n"+
			"gen_a,gen_simple,zone1,5,,,,\ngen_b,gen_simple,zone1,3,,,,\n")
	writeFile(t, root, "project/variable_profiles/gen_c-1_flat.csv",
		"timepoint,cap_factor\n1,0.5\n2,0.4\n")
	return root
}

// importCore imports id 1 of the core subscenarios.
func importCore(t *testing.T, r *Rebuilder, csvLocation string) {
	t.Helper()
	for _, name := range []string{SubscenarioTemporal, SubscenarioLoad, SubscenarioProjectPortfolio, SubscenarioProjectOperationalChars} {
		_, err := r.Rebuild(context.Background(), RebuildRequest{
			CSVLocation:   csvLocation,
			Subscenario:   name,
			SubscenarioID: 1,
		})
		require.NoError(t, err, name)
	}
}

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/gridforge/internal/errors"
)

func TestCollector_OrdersBySeverity(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.Add("project", "projects.tab", Low, "unused column")
	c.Addf("gen_new_lin", "new_build_generator_vintage_costs.tab", High, "missing cost for %s", "gen_b")
	c.Add("gen_var", "variable_generator_profiles.tab", Mid, "cap factor above 1")

	errs := c.Errors()
	require.Len(t, errs, 3)
	assert.Equal(t, High, errs[0].Severity)
	assert.Equal(t, Mid, errs[1].Severity)
	assert.Equal(t, Low, errs[2].Severity)
	assert.Contains(t, errs[0].Description, "gen_b")

	assert.Equal(t, map[Severity]int{High: 1, Mid: 1, Low: 1}, c.CountBySeverity())
}

func TestCollector_Check(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.Add("project", "projects.tab", Mid, "x")
	require.NoError(t, c.Check(High))

	err := c.Check(Mid)
	var blocking *BlockingError
	require.ErrorAs(t, err, &blocking)
	assert.Len(t, blocking.Errors, 1)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Severity
		enabled bool
		wantErr bool
	}{
		{"", "", false, false},
		{"none", "", false, false},
		{"High", High, true, false},
		{"mid", Mid, true, false},
		{"low", Low, true, false},
		{"critical", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, enabled, err := ParseSeverity(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.enabled, enabled)
		})
	}
}

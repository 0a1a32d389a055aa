package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Recorder = (*PipelineMetrics)(nil)
	_ Recorder = NoOpRecorder{}
)

func TestParseStage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		operation string
		pipeline  string
		stage     string
	}{
		{"build_load_data", "build", "load_data"},
		{"build_capacity", "build", "capacity"},
		{"rebuild", "rebuild", "all"},
		{"rebuild_transition", "rebuild", "transition"},
		{"validate_", "validate", "all"},
	}
	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			t.Parallel()
			p, s := parseStage(tt.operation)
			assert.Equal(t, tt.pipeline, p)
			assert.Equal(t, tt.stage, s)
		})
	}
}

func TestPipelineMetrics_Record(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewPipelineMetrics(registry)
	require.NoError(t, err)

	m.RecordOperation("build_core", StatusSuccess)
	m.RecordOperation("build_core", StatusSuccess)
	m.RecordOperation("build_core", StatusError)
	m.RecordError("build_core", "configuration")
	m.RecordDuration("build_core", 0.25)
	m.RecordOperation("rebuild", StatusSuccess)

	assert.InDelta(t, 2, testutil.ToFloat64(m.operationsTotal.WithLabelValues("build", "core", StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.operationsTotal.WithLabelValues("build", "core", StatusError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.errorsTotal.WithLabelValues("build", "core", "configuration")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.operationsTotal.WithLabelValues("rebuild", "all", StatusSuccess)), 0)

	families, err := registry.Gather()
	require.NoError(t, err)
	hist := findFamily(families, "gridforge_pipeline_operation_duration_seconds")
	require.NotNil(t, hist)
	require.Len(t, hist.GetMetric(), 1)
	assert.Equal(t, uint64(1), hist.GetMetric()[0].GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.25, hist.GetMetric()[0].GetHistogram().GetSampleSum(), 1e-9)
}

func TestPipelineMetrics_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewPipelineMetrics(registry)
	require.NoError(t, err)
	_, err = NewPipelineMetrics(registry)
	assert.Error(t, err)
}

func TestPipelineMetrics_Concurrent(t *testing.T) {
	t.Parallel()

	m, err := NewPipelineMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			m.RecordOperation("validate", StatusSuccess)
			m.RecordDuration("validate", 0.01)
		})
	}
	wg.Wait()

	assert.InDelta(t, workers, testutil.ToFloat64(m.operationsTotal.WithLabelValues("validate", "all", StatusSuccess)), 0)
}

func TestModelMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewModelMetrics(registry)
	require.NoError(t, err)

	m.SetModelSize("base", ModelSize{Sets: 12, Params: 30, Vars: 400, Integers: 4, Constraints: 350})
	assert.InDelta(t, 400, testutil.ToFloat64(m.components.WithLabelValues("base", "vars")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.components.WithLabelValues("base", "integers")), 0)

	m.SetFindings("base", map[string]int{"high": 2}, []string{"low", "mid", "high"})
	assert.InDelta(t, 2, testutil.ToFloat64(m.findings.WithLabelValues("base", "high")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.findings.WithLabelValues("base", "low")), 0)

	assert.Equal(t, 8, testutil.CollectAndCount(m))
}

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

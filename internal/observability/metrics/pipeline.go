package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics counts and times the stages of the build, rebuild, import
// and validate pipelines. It implements Recorder.
type PipelineMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewPipelineMetrics creates and registers pipeline metrics.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridforge_pipeline_operations_total",
			Help: "Total number of pipeline stage executions",
		},
		[]string{"pipeline", "stage", "status"},
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gridforge_pipeline_operation_duration_seconds",
			Help:    "Time taken by pipeline stages",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount20),
		},
		[]string{"pipeline", "stage"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridforge_pipeline_errors_total",
			Help: "Total number of pipeline stage errors by category",
		},
		[]string{"pipeline", "stage", "error_type"},
	)

	m.collectors = []prometheus.Collector{m.operationsTotal, m.operationDuration, m.errorsTotal}
}

// Describe implements the Collector interface
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordOperation implements Recorder.
func (m *PipelineMetrics) RecordOperation(operation, status string) {
	pipeline, stage := parseStage(operation)
	m.operationsTotal.WithLabelValues(pipeline, stage, status).Inc()
}

// RecordDuration implements Recorder.
func (m *PipelineMetrics) RecordDuration(operation string, seconds float64) {
	pipeline, stage := parseStage(operation)
	m.operationDuration.WithLabelValues(pipeline, stage).Observe(seconds)
}

// RecordError implements Recorder.
func (m *PipelineMetrics) RecordError(operation, errorType string) {
	pipeline, stage := parseStage(operation)
	m.errorsTotal.WithLabelValues(pipeline, stage, errorType).Inc()
}

// parseStage splits "build_load_data" into ("build", "load_data"). A bare
// pipeline name has the stage "all".
func parseStage(operation string) (pipeline, stage string) {
	parts := strings.SplitN(operation, "_", SplitPartsCount)
	if len(parts) == SplitPartsCount && parts[1] != "" {
		return parts[0], parts[1]
	}
	return parts[0], "all"
}

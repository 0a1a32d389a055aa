// Package observability owns the metrics registry of a gridforge run and
// exports it in the Prometheus text format.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Pipeline *metrics.PipelineMetrics
	Model    *metrics.ModelMetrics
}

// NewMetrics creates a new instance of Metrics on a private registry.
// It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	pipelineMetrics, err := metrics.NewPipelineMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	modelMetrics, err := metrics.NewModelMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create model metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Pipeline: pipelineMetrics,
		Model:    modelMetrics,
	}, nil
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the Prometheus text format,
// for pickup by a node exporter textfile collector. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	log.Debug("metrics textfile written", logger.String("path", path))
	return nil
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ModelMetrics exposes the size of the last built model and the validation
// findings of the last validate run, per scenario.
type ModelMetrics struct {
	components *prometheus.GaugeVec
	findings   *prometheus.GaugeVec

	collectors []prometheus.Collector
}

// ModelSize is the component count of one build.
type ModelSize struct {
	Sets        int
	Params      int
	Vars        int
	Integers    int
	Constraints int
}

// NewModelMetrics creates and registers model metrics.
func NewModelMetrics(registry *prometheus.Registry) (*ModelMetrics, error) {
	m := &ModelMetrics{
		components: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gridforge_model_components",
				Help: "Number of components in the last built model",
			},
			[]string{"scenario", "kind"},
		),
		findings: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gridforge_validation_findings",
				Help: "Validation findings of the last validate run by severity",
			},
			[]string{"scenario", "severity"},
		),
	}
	m.collectors = []prometheus.Collector{m.components, m.findings}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *ModelMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *ModelMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// SetModelSize records the component counts of a build.
func (m *ModelMetrics) SetModelSize(scenario string, s ModelSize) {
	for kind, n := range map[string]int{
		"sets":        s.Sets,
		"params":      s.Params,
		"vars":        s.Vars,
		"integers":    s.Integers,
		"constraints": s.Constraints,
	} {
		m.components.WithLabelValues(scenario, kind).Set(float64(n))
	}
}

// SetFindings records validation finding counts keyed by severity name.
// Severities absent from counts are reset to zero.
func (m *ModelMetrics) SetFindings(scenario string, counts map[string]int, severities []string) {
	for _, sev := range severities {
		m.findings.WithLabelValues(scenario, sev).Set(float64(counts[sev]))
	}
}

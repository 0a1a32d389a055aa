// Package metrics provides the Prometheus collectors for gridforge pipelines.
package metrics

// Recorder defines a minimal interface for recording metrics.
// Pipelines depend on it rather than on a concrete collector so tests can
// substitute a recorder that captures calls.
type Recorder interface {
	// RecordOperation records an operation with its status.
	// The operation is "<pipeline>_<stage>" (e.g. "build_capacity") or a bare
	// pipeline name (e.g. "rebuild").
	RecordOperation(operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError records an error occurrence with its category.
	RecordError(operation, errorType string)
}

// NoOpRecorder is a Recorder that discards everything.
type NoOpRecorder struct{}

// RecordOperation does nothing.
func (NoOpRecorder) RecordOperation(string, string) {}

// RecordDuration does nothing.
func (NoOpRecorder) RecordDuration(string, float64) {}

// RecordError does nothing.
func (NoOpRecorder) RecordError(string, string) {}

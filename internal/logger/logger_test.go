package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelInfo, time.UTC)

	log.Debug("hidden")
	log.Info("build started", String("scenario", "base"), Int("periods", 2))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "build started")
	assert.Contains(t, out, "scenario=base")
	assert.Contains(t, out, "periods=2")
	assert.NotContains(t, out, "time=")
}

func TestSlogLogger_TraceLevelName(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelTrace, time.UTC)
	log.Trace("sql query")

	assert.Contains(t, buf.String(), "level=TRACE")
}

func TestModuleLogger_ModuleNesting(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelDebug, time.UTC).Module("scenario").Module("capacity")
	log.Info("loaded")

	assert.Contains(t, buf.String(), "module=scenario.capacity")
}

func TestModuleLogger_WithIsImmutable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := NewSlogLogger(&buf, LogLevelDebug, time.UTC).Module("datastore")
	child := base.With(String("subscenario", "temporal"))

	base.Info("parent")
	child.Info("child")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "subscenario")
	assert.Contains(t, lines[1], "subscenario=temporal")
}

func TestModuleLogger_WithContextRunID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelInfo, time.UTC)
	ctx := WithRunID(WithTraceID(context.Background(), "t-1"), "run-7")

	log.WithContext(ctx).Info("solve handed off")

	assert.Contains(t, buf.String(), "trace_id=t-1")
	assert.Contains(t, buf.String(), "run_id=run-7")
}

func TestCentralLogger_FileOutputIsJSON(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "logs", "gridforge.log")
	cl, err := NewCentralLogger(&LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: false},
		FileOutput:   &FileOutput{Enabled: true, Path: logPath, Level: "debug"},
	})
	require.NoError(t, err)

	cl.Module("results").Info("merged", Float64("objective", 12.34567))
	require.NoError(t, cl.Close())

	content, err := os.ReadFile(logPath) //nolint:gosec // test path
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &entry))
	assert.Equal(t, "merged", entry["msg"])
	assert.Equal(t, "results", entry["module"])
	assert.InDelta(t, 12.346, entry["objective"], 1e-9)
	assert.Equal(t, "INFO", entry["level"])
}

func TestCentralLogger_ModuleLevels(t *testing.T) {
	t.Parallel()

	cl, err := NewCentralLogger(&LoggingConfig{
		DefaultLevel: "warn",
		Console:      &ConsoleOutput{Enabled: false},
		ModuleLevels: map[string]string{"datastore": "trace"},
	})
	require.NoError(t, err)
	defer func() { _ = cl.Close() }()

	ds, ok := cl.Module("datastore").(*moduleLogger)
	require.True(t, ok)
	other, ok := cl.Module("dispatch").(*moduleLogger)
	require.True(t, ok)

	assert.Equal(t, traceLevelValue, ds.level)
	assert.Equal(t, parseLogLevel("warn"), other.level)
}

func TestNewCentralLogger_InvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := NewCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)
}

func TestFieldToAttr_Duration(t *testing.T) {
	t.Parallel()

	attr := fieldToAttr(Field{Key: "elapsed", Value: 1500 * time.Microsecond})
	assert.Equal(t, "2ms", attr.Value.String())
}

package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBufferedFileWriter_WriteAndFlush(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "build.log")
	writer, err := NewBufferedFileWriter(logPath, WithFlushInterval(0))
	require.NoError(t, err)
	defer func() { _ = writer.Close() }()

	line := "capacity modules loaded\n"
	n, err := writer.Write([]byte(line))
	require.NoError(t, err)
	assert.Equal(t, len(line), n)
	assert.Positive(t, writer.Buffered())

	require.NoError(t, writer.Flush())
	assert.Equal(t, 0, writer.Buffered())

	content, err := os.ReadFile(logPath) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Equal(t, line, string(content))
}

func TestBufferedFileWriter_AutoFlush(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "auto.log")
	writer, err := NewBufferedFileWriter(logPath, WithFlushInterval(20*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = writer.Close() }()

	_, err = writer.Write([]byte("pending\n"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return writer.Buffered() == 0 }, time.Second, 10*time.Millisecond)
}

func TestBufferedFileWriter_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "close.log")
	writer, err := NewBufferedFileWriter(logPath)
	require.NoError(t, err)

	_, err = writer.Write([]byte("last line\n"))
	require.NoError(t, err)

	require.NoError(t, writer.Close())
	require.NoError(t, writer.Close())

	_, err = writer.Write([]byte("after close"))
	require.Error(t, err)

	content, err := os.ReadFile(logPath) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Equal(t, "last line\n", string(content))
}

func TestBufferedFileWriter_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "concurrent.log")
	writer, err := NewBufferedFileWriter(logPath, WithBufferSize(256))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				_, _ = writer.Write([]byte("x\n"))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, writer.Close())

	content, err := os.ReadFile(logPath) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Equal(t, 400, strings.Count(string(content), "\n"))
}

func TestNewBufferedFileWriter_InvalidPath(t *testing.T) {
	t.Parallel()

	_, err := NewBufferedFileWriter(filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	require.Error(t, err)
}

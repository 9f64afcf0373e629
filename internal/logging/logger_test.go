package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, TRACE, ParseLevel("trace"))
	assert.Equal(t, DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLevel("warn"))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestWriterLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("compiler", &buf, WARN)

	l.Info("скрыто")
	l.Warn("ячейка %d", 7)

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[WARN] [compiler] ячейка 7")

	l.SetLevels(TRACE, TRACE)
	l.Trace("видно")
	assert.Contains(t, buf.String(), "[TRACE] [compiler] видно")
	assert.NoError(t, l.Close())
}

func TestDefaultLoggerHelpers(t *testing.T) {
	prev := defaultLogger
	defer func() { defaultLogger = prev }()

	var buf bytes.Buffer
	SetDefaultLogger(NewWriterLogger("test", &buf, INFO))
	SetDefaultLogger(nil)

	Debug("не видно")
	SetDefaultLevel(TRACE)
	LogCellPlacement("block", 1, 2, 3, 10, 20, 30)
	LogAssetRequest("tail1", true)

	out := buf.String()
	assert.NotContains(t, out, "не видно")
	assert.Contains(t, out, "Cell (1,2,3) block -> (10.00,20.00,30.00)")
	assert.Contains(t, out, "Asset request tail1 (cached=true)")
}

func TestManagerCachesComponentLoggers(t *testing.T) {
	prevDir := LogDir
	LogDir = t.TempDir()
	defer func() { LogDir = prevDir }()

	lm := &LoggerManager{loggers: make(map[string]*Logger)}
	a, err := lm.GetLogger("compiler")
	require.NoError(t, err)
	b, err := lm.GetLogger("compiler")
	require.NoError(t, err)
	assert.Same(t, a, b)

	require.NoError(t, lm.SetLogLevel("compiler", ERROR, DEBUG))
	assert.Error(t, lm.SetLogLevel("viewer", ERROR, DEBUG))

	a.Debug("в файл")
	require.NoError(t, lm.CloseAll())

	files, err := filepath.Glob(filepath.Join(LogDir, "compiler_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] [compiler] в файл")
}

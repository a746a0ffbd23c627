package debug

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saveAndRestoreState snapshots package state and returns the restore func
func saveAndRestoreState(t *testing.T) func() {
	t.Setenv("PURITY_DEBUG", "")
	t.Setenv("DEBUG", "")
	originalDebug := EnableDebug
	originalMode := MCPMode
	originalOutput := output
	originalFile := logFile
	return func() {
		EnableDebug = originalDebug
		MCPMode = originalMode
		output = originalOutput
		logFile = originalFile
	}
}

func TestIsDebugEnabled(t *testing.T) {
	defer saveAndRestoreState(t)()

	EnableDebug = "false"
	assert.False(t, IsDebugEnabled())

	EnableDebug = "true"
	assert.True(t, IsDebugEnabled())

	MCPMode = true
	assert.False(t, IsDebugEnabled(), "MCP mode suppresses debug output")

	MCPMode = false
	EnableDebug = "false"
	t.Setenv("PURITY_DEBUG", "1")
	assert.True(t, IsDebugEnabled())
}

func TestComponentLoggers(t *testing.T) {
	defer saveAndRestoreState(t)()
	EnableDebug = "true"

	tests := []struct {
		name   string
		log    func(string, ...interface{})
		prefix string
	}{
		{"analysis", LogAnalysis, "[DEBUG:ANALYSIS]"},
		{"bind", LogBind, "[DEBUG:BIND]"},
		{"known", LogKnown, "[DEBUG:KNOWN]"},
		{"cache", LogCache, "[DEBUG:CACHE]"},
		{"watch", LogWatch, "[DEBUG:WATCH]"},
		{"mcp", LogMCP, "[DEBUG:MCP]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetDebugOutput(&buf)
			tt.log("unit %s\n", "Demo.C.M")
			assert.Contains(t, buf.String(), tt.prefix)
			assert.Contains(t, buf.String(), "unit Demo.C.M")
		})
	}
}

func TestLogSilentInMCPMode(t *testing.T) {
	defer saveAndRestoreState(t)()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	MCPMode = true
	Log("TEST", "hidden")
	LogAnalysis("hidden")
	Timed("TEST", "op")()

	assert.Empty(t, buf.String())
}

func TestFatal(t *testing.T) {
	defer saveAndRestoreState(t)()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	err := Fatal("cannot load %s", "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fatal error: cannot load config")
	assert.Contains(t, buf.String(), "[FATAL]")

	buf.Reset()
	MCPMode = true
	assert.Error(t, Fatal("quiet"))
	assert.Empty(t, buf.String())
}

func TestTimed(t *testing.T) {
	defer saveAndRestoreState(t)()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	Timed("ANALYSIS", "classify")()
	assert.Contains(t, buf.String(), "classify took")
}

func TestConcurrentLogging(t *testing.T) {
	defer saveAndRestoreState(t)()

	var buf bytes.Buffer
	SetDebugOutput(&lockedWriter{w: &buf})
	EnableDebug = "true"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			LogAnalysis("unit %d\n", id)
		}(i)
	}
	wg.Wait()
	assert.Contains(t, buf.String(), "[DEBUG:ANALYSIS]")
}

type lockedWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func TestInitDebugLogFile(t *testing.T) {
	defer saveAndRestoreState(t)()

	path, err := InitDebugLogFile()
	require.NoError(t, err)
	defer os.Remove(path)

	EnableDebug = "true"
	Printf("written to file\n")
	require.NoError(t, CloseDebugLog())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "written to file")
	assert.NoError(t, CloseDebugLog(), "closing twice is a no-op")
}

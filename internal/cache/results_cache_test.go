package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/standardbeagle/purity/internal/diagnostics"
	"github.com/standardbeagle/purity/internal/types"
)

func sampleDiagnostics() []diagnostics.Diagnostic {
	return []diagnostics.Diagnostic{
		{
			ID:       diagnostics.PurityAnalyzer,
			Severity: diagnostics.SevError,
			Location: types.Location{File: "/work/Counter.cs", Line: 11, Column: 9, EndLine: 11, EndColumn: 16},
			Message:  "count++",
			Unit:     "Counter.Next",
		},
		{
			ID:       diagnostics.PurityParser,
			Severity: diagnostics.SevWarning,
			Location: types.Location{File: "/work/Broken.cs", Line: 3, Column: 1},
			Message:  "syntax error",
		},
	}
}

func TestResultsCache_PutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)

	_, ok := c.Get(42)
	assert.False(t, ok)

	items := sampleDiagnostics()
	require.NoError(t, c.Put(42, NewEntry(items, 7)))

	e, ok := c.Get(42)
	require.True(t, ok)
	assert.Equal(t, 7, e.Types)
	assert.Equal(t, items, e.Items())

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Writes)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestResultsCache_OverwriteLeavesNoTempFiles(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Put(1, NewEntry(sampleDiagnostics(), 1)))
	require.NoError(t, c.Put(1, NewEntry(nil, 2)))

	e, ok := c.Get(1)
	require.True(t, ok)
	assert.Empty(t, e.Items())

	entries, err := os.ReadDir(filepath.Join(c.Dir(), "results"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestResultsCache_OutdatedSchemaIsAMiss(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)

	stale := NewEntry(sampleDiagnostics(), 1)
	stale.Schema = SchemaVersion + 1
	data, err := msgpack.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(c.pathFor(9)), 0o755))
	require.NoError(t, os.WriteFile(c.pathFor(9), data, 0o644))

	_, ok := c.Get(9)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(c.pathFor(10), []byte("not msgpack"), 0o644))
	_, ok = c.Get(10)
	assert.False(t, ok)
}

func TestResultsCache_Clear(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, c.Put(5, NewEntry(nil, 0)))
	require.NoError(t, c.Clear())

	_, ok := c.Get(5)
	assert.False(t, ok)
}

func TestResultsCache_NilIsDisabled(t *testing.T) {
	var c *ResultsCache
	assert.NoError(t, c.Put(1, NewEntry(nil, 0)))
	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Equal(t, Stats{}, c.GetStats())
	assert.Equal(t, "", c.Dir())
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", AppName), dir)

	home := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", home)
	dir, err = DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache", AppName), dir)
}

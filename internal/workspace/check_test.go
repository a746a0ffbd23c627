package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/purity/internal/cache"
	"github.com/standardbeagle/purity/internal/diagnostics"
	"github.com/standardbeagle/purity/testhelpers"
)

const counterSource = `using System;

public static class Counter
{
    static int count;

    [IsPure]
    public static int Next()
    {
        count++;
        return 0;
    }

    [IsPure]
    public static int Twice(int x) => x * 2;
}
`

func TestCheck_ReportsAndCaches(t *testing.T) {
	root := t.TempDir()
	testhelpers.WriteFiles(t, root, map[string]string{"src/Counter.cs": counterSource})
	cfg := projectConfig(root)
	rc, err := cache.Open(t.TempDir())
	require.NoError(t, err)

	first, err := Check(context.Background(), cfg, rc, "test")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.True(t, first.HasErrors())
	assert.Equal(t, 1, first.Sources)
	assert.Equal(t, 1, first.Types)
	require.Len(t, first.Diagnostics, 1)
	assert.Equal(t, diagnostics.PurityAnalyzer, first.Diagnostics[0].ID)
	assert.Equal(t, "Counter.Next", first.Diagnostics[0].Unit)

	second, err := Check(context.Background(), cfg, rc, "test")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Diagnostics, second.Diagnostics)

	// an edit invalidates the entry
	fixed := `public static class Counter { [IsPure] public static int Next() => 1; }`
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Counter.cs"), []byte(fixed), 0o644))
	third, err := Check(context.Background(), cfg, rc, "test")
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.False(t, third.HasErrors())
}

func TestCheck_WithoutCache(t *testing.T) {
	root := t.TempDir()
	testhelpers.WriteFiles(t, root, map[string]string{"Counter.cs": counterSource})

	rep, err := Check(context.Background(), projectConfig(root), nil, "test")
	require.NoError(t, err)
	assert.False(t, rep.Cached)
	assert.Len(t, rep.Diagnostics, 1)
}

func TestCheck_MissingListFileIsAWarning(t *testing.T) {
	root := t.TempDir()
	testhelpers.WriteFiles(t, root, map[string]string{"Counter.cs": counterSource})
	cfg := projectConfig(root)
	cfg.Known.PureMethods = []string{"lists/missing.txt"}
	rc, err := cache.Open(t.TempDir())
	require.NoError(t, err)

	rep, err := Check(context.Background(), cfg, rc, "test")
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Warnings)

	again, err := Check(context.Background(), cfg, rc, "test")
	require.NoError(t, err)
	assert.False(t, again.Cached, "degraded runs are not cached")
}

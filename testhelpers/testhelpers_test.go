package testhelpers

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/purity/internal/config"
)

func TestWriteProject(t *testing.T) {
	root := WriteProject(t, map[string]string{
		"src/Counter.cs": ImpureCounter,
		"Geometry.cs":    PureGeometry,
	})

	data, err := os.ReadFile(filepath.Join(root, "src", "Counter.cs"))
	require.NoError(t, err)
	assert.Equal(t, ImpureCounter, string(data))
	assert.FileExists(t, filepath.Join(root, "Geometry.cs"))
}

func TestTestConfigBuilder(t *testing.T) {
	root := t.TempDir()
	cfg := NewTestConfigBuilder(root).
		WithExclusions("**/Generated/**").
		WithReferences("stubs/**/*.cs").
		WithPureMethods("lists/pure.txt").
		WithPureLambda("Demo.Pipeline", "Map", 0).
		Build()

	require.NoError(t, config.ValidateConfig(cfg))
	assert.Equal(t, root, cfg.Project.Root)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Watch.RespectGitignore)
	assert.Contains(t, cfg.Exclude, "**/Generated/**")
	assert.Equal(t, []string{"stubs/**/*.cs"}, cfg.References)
	assert.Equal(t, []string{"lists/pure.txt"}, cfg.Known.PureMethods)
	assert.Equal(t, []config.PureLambda{{Type: "Demo.Pipeline", Method: "Map", Arg: 0}}, cfg.PureLambdas)

	cached := NewTestConfigBuilder(root).WithCache(t.TempDir()).WithGitignore().Build()
	assert.True(t, cached.Cache.Enabled)
	assert.True(t, cached.Watch.RespectGitignore)
}

func TestWaitFor(t *testing.T) {
	var flag atomic.Bool
	go func() {
		time.Sleep(20 * time.Millisecond)
		flag.Store(true)
	}()
	WaitFor(t, flag.Load, time.Second)
	assert.True(t, flag.Load())
}

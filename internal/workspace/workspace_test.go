package workspace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/purity/internal/config"
	"github.com/standardbeagle/purity/internal/frontend/csharp"
	"github.com/standardbeagle/purity/internal/knownsymbols"
	"github.com/standardbeagle/purity/testhelpers"
)

func paths(root string, files []csharp.SourceFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, _ := filepath.Rel(root, f.Path)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func projectConfig(root string) *config.Config {
	cfg := config.Default(root)
	cfg.References = []string{"stubs/**/*.cs"}
	return cfg
}

func TestScanner_SortsSourcesAndReferences(t *testing.T) {
	root := t.TempDir()
	testhelpers.WriteFiles(t, root, map[string]string{
		"src/App/Program.cs":         "class Program {}",
		"src/App/Models/User.cs":     "class User {}",
		"src/App/Models/User.g.cs":   "partial class User {}",
		"src/App/bin/Debug/Stale.cs": "class Stale {}",
		"src/App/obj/Temp.cs":        "class Temp {}",
		"stubs/System.Linq.cs":       "static class Enumerable {}",
		"README.md":                  "# demo",
	})

	files, err := NewScanner(projectConfig(root)).Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"src/App/Models/User.cs", "src/App/Program.cs"}, paths(root, files.Sources))
	assert.Equal(t, []string{"stubs/System.Linq.cs"}, paths(root, files.References))
	assert.Equal(t, []byte("class User {}"), files.Sources[0].Content)
}

func TestScanner_ExplicitPaths(t *testing.T) {
	root := t.TempDir()
	testhelpers.WriteFiles(t, root, map[string]string{
		"src/A.cs":        "class A {}",
		"src/Nested/B.cs": "class B {}",
		"other/C.cs":      "class C {}",
		"notes/Draft.txt": "class Draft {}",
		"stubs/Lib.cs":    "class Lib {}",
	})
	s := NewScanner(projectConfig(root))

	files, err := s.Scan(context.Background(), filepath.Join(root, "src"), filepath.Join(root, "notes", "Draft.txt"))
	require.NoError(t, err)

	assert.Equal(t, []string{"notes/Draft.txt", "src/A.cs", "src/Nested/B.cs"}, paths(root, files.Sources))
	assert.Equal(t, []string{"stubs/Lib.cs"}, paths(root, files.References), "references come from the whole project")
}

func TestScanner_MissingPath(t *testing.T) {
	s := NewScanner(projectConfig(t.TempDir()))
	_, err := s.Scan(context.Background(), filepath.Join(s.Root(), "missing"))
	assert.Error(t, err)
}

func TestScanner_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	testhelpers.WriteFiles(t, root, map[string]string{
		".gitignore":         "Generated/\n",
		"Generated/Api.cs":   "class Api {}",
		"Services/Orders.cs": "class Orders {}",
	})
	cfg := projectConfig(root)

	cfg.Watch.RespectGitignore = true
	files, err := NewScanner(cfg).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Services/Orders.cs"}, paths(root, files.Sources))

	cfg.Watch.RespectGitignore = false
	files, err = NewScanner(cfg).Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, files.Sources, 2)
}

func TestScanner_Cancelled(t *testing.T) {
	root := t.TempDir()
	testhelpers.WriteFiles(t, root, map[string]string{"A.cs": "class A {}"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanner(projectConfig(root)).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanner_Classify(t *testing.T) {
	s := NewScanner(projectConfig("/work/demo"))
	tests := []struct {
		rel  string
		want Kind
	}{
		{"src/Program.cs", Source},
		{"stubs/Linq.cs", Reference},
		{"src/bin/Program.cs", Ignored},
		{"src/View.designer.cs", Ignored},
		{"src/Program.txt", Ignored},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Classify(tt.rel), tt.rel)
	}
	assert.Equal(t, "src/Program.cs", s.Rel("/work/demo/src/Program.cs"))
}

func TestInput_ResolvesListsAgainstRoot(t *testing.T) {
	cfg := config.Default("/work/demo")
	cfg.Known.PureMethods = []string{"lists/pure.txt"}
	cfg.Known.Bundles = []string{"/etc/purity/known.toml"}
	cfg.PureLambdas = []config.PureLambda{{Type: "Demo.Pipeline", Method: "Map", Arg: 1}}
	cfg.Performance.Workers = 3

	in := Input(cfg, &Files{Sources: []csharp.SourceFile{{Path: "a.cs"}}})

	assert.True(t, in.Known.Defaults)
	assert.Equal(t, []string{filepath.Join("/work/demo", "lists/pure.txt")}, in.Known.Lists[knownsymbols.PureMethods])
	assert.Empty(t, in.Known.Lists[knownsymbols.PureTypes])
	assert.Equal(t, []string{"/etc/purity/known.toml"}, in.Known.Bundles)
	assert.Equal(t, 3, in.Options.Workers)
	require.Len(t, in.Options.PureLambdas, 1)
	assert.Equal(t, "Demo.Pipeline.Map:1", in.Options.PureLambdas[0].String())
	assert.Len(t, in.Sources, 1)
}

func TestDigest(t *testing.T) {
	root := t.TempDir()
	testhelpers.WriteFiles(t, root, map[string]string{"lists/pure.txt": "Demo.Math.Square\n"})
	cfg := config.Default(root)
	cfg.Known.PureMethods = []string{"lists/pure.txt"}
	files := &Files{Sources: []csharp.SourceFile{{Path: "a.cs", Content: []byte("class A {}")}}}

	base := Digest("1.0.0", cfg, files)
	assert.Equal(t, base, Digest("1.0.0", cfg, files), "digest is stable")
	assert.NotEqual(t, base, Digest("1.0.1", cfg, files), "salt")

	edited := &Files{Sources: []csharp.SourceFile{{Path: "a.cs", Content: []byte("class A { }")}}}
	assert.NotEqual(t, base, Digest("1.0.0", cfg, edited), "source content")

	moved := &Files{References: files.Sources}
	assert.NotEqual(t, base, Digest("1.0.0", cfg, moved), "source turned reference")

	testhelpers.WriteFiles(t, root, map[string]string{"lists/pure.txt": "Demo.Math.Cube\n"})
	assert.NotEqual(t, base, Digest("1.0.0", cfg, files), "list file content")
}

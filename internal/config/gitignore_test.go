package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitignoreParser_ShouldIgnore(t *testing.T) {
	gp := NewGitignoreParser()
	for _, line := range []string{
		"# build output",
		"",
		"bin/",
		"*.g.cs",
		"/Generated",
		"docs/*.cs",
		"!Keep.g.cs",
	} {
		gp.AddPattern(line)
	}

	tests := []struct {
		path   string
		isDir  bool
		ignore bool
	}{
		{"bin", true, true},
		{"src/App/bin", true, true},
		{"src/App/bin/Debug/App.cs", false, true},
		{"Models/User.g.cs", false, true},
		{"Models/Keep.g.cs", false, false},
		{"Generated/Api.cs", false, true},
		{"src/Generated/Api.cs", false, false},
		{"docs/Sample.cs", false, true},
		{"src/docs/Sample.cs", false, false},
		{"src/App/Program.cs", false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ignore, gp.ShouldIgnore(tt.path, tt.isDir), tt.path)
	}
}

func TestGitignoreParser_GetExclusionPatterns(t *testing.T) {
	gp := NewGitignoreParser()
	gp.AddPattern("obj/")
	gp.AddPattern("*.user")
	gp.AddPattern("!important.user")

	assert.Equal(t, []string{"**/obj/**", "**/*.user", "**/*.user/**"}, gp.GetExclusionPatterns())
}

func TestGitignoreParser_LoadGitignore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("bin/\nobj/\n"), 0o644))

	gp := NewGitignoreParser()
	require.NoError(t, gp.LoadGitignore(dir))
	assert.True(t, gp.ShouldIgnore("obj/project.assets.json", false))

	empty := NewGitignoreParser()
	require.NoError(t, empty.LoadGitignore(t.TempDir()))
	assert.False(t, empty.ShouldIgnore("obj", true))
}

package pathutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToRelative(t *testing.T) {
	root := filepath.FromSlash("/home/user/app")
	tests := []struct {
		name     string
		absPath  string
		rootDir  string
		expected string
	}{
		{"simple relative path", filepath.FromSlash("/home/user/app/Counter.cs"), root, "Counter.cs"},
		{"nested path uses slashes", filepath.FromSlash("/home/user/app/src/Core/Counter.cs"), root, "src/Core/Counter.cs"},
		{"same directory", root, root, "."},
		{"already relative", "src/Counter.cs", root, "src/Counter.cs"},
		{"outside root", filepath.FromSlash("/other/Lib.cs"), root, filepath.FromSlash("/other/Lib.cs")},
		{"sibling with common prefix", filepath.FromSlash("/home/user/app2/Lib.cs"), root, filepath.FromSlash("/home/user/app2/Lib.cs")},
		{"dot-dot prefixed name inside root", filepath.FromSlash("/home/user/app/..hidden/A.cs"), root, "..hidden/A.cs"},
		{"empty root", filepath.FromSlash("/home/user/app/A.cs"), "", filepath.FromSlash("/home/user/app/A.cs")},
		{"empty path", "", root, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !filepath.IsAbs(root) && tt.rootDir != "" {
				t.Skip("absolute unix-style paths are not absolute on this platform")
			}
			assert.Equal(t, tt.expected, ToRelative(tt.absPath, tt.rootDir))
		})
	}
}

func TestWithin(t *testing.T) {
	root := t.TempDir()
	assert.True(t, Within(root, root))
	assert.True(t, Within(filepath.Join(root, "src", "A.cs"), root))
	assert.False(t, Within(filepath.Dir(root), root))
	assert.False(t, Within(root+"-other", root))
}

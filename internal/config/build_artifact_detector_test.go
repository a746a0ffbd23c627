package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customOutputProject = `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
    <OutputPath>artifacts\$(Configuration)</OutputPath>
    <BaseIntermediateOutputPath>./intermediate/</BaseIntermediateOutputPath>
    <PublishDir>../shared/publish</PublishDir>
  </PropertyGroup>
</Project>
`

func writeProjectFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBuildArtifactDetector_ReadsOutputProperties(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/App/App.csproj", customOutputProject)
	writeProjectFile(t, root, "Directory.Build.props", `<Project><PropertyGroup><OutputPath>artifacts/bin</OutputPath></PropertyGroup></Project>`)
	// project files under bin/ are build output themselves
	writeProjectFile(t, root, "bin/Copy.csproj", `<Project><PropertyGroup><OutputPath>ignored</OutputPath></PropertyGroup></Project>`)

	got := NewBuildArtifactDetector(root).DetectOutputDirectories()
	assert.ElementsMatch(t, []string{"**/artifacts/**", "**/intermediate/**"}, got)
}

func TestBuildArtifactDetector_MalformedProject(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "Broken.csproj", "<Project><PropertyGroup><Output")

	assert.Empty(t, NewBuildArtifactDetector(root).DetectOutputDirectories())
}

func TestOutputDirectory(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{`artifacts\bin`, "artifacts"},
		{"./out/", "out"},
		{"  build  ", "build"},
		{"$(SolutionDir)out", ""},
		{"../elsewhere", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, outputDirectory(tt.value))
		})
	}
}

func TestEnrichExclusionsWithBuildArtifacts(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "App.csproj", customOutputProject)

	cfg := Default(root)
	before := len(cfg.Exclude)
	cfg.EnrichExclusionsWithBuildArtifacts()
	cfg.EnrichExclusionsWithBuildArtifacts()

	assert.Contains(t, cfg.Exclude, "**/artifacts/**")
	assert.Len(t, cfg.Exclude, before+2)
}

func TestDeduplicatePatterns(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, DeduplicatePatterns([]string{"a", "b", "a"}))
	assert.Empty(t, DeduplicatePatterns(nil))
}

// Build artifact detection from MSBuild project files.
// Parses *.csproj and Directory.Build.props to find custom output directories.
package config

import (
	"bytes"
	"encoding/xml"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxProjectDepth limits how deep the detector looks for project files
const maxProjectDepth = 4

// outputProperties are the MSBuild properties that move build output
var outputProperties = map[string]bool{
	"OutputPath":                 true,
	"BaseOutputPath":             true,
	"IntermediateOutputPath":     true,
	"BaseIntermediateOutputPath": true,
	"PublishDir":                 true,
}

// BuildArtifactDetector finds build output directories of .NET projects
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a new build artifact detector
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories scans project files and returns exclusion globs
// for their output directories (e.g. "**/artifacts/**")
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var patterns []string
	for _, path := range bad.projectFiles() {
		patterns = append(patterns, bad.detectMSBuildOutputs(path)...)
	}
	return DeduplicatePatterns(patterns)
}

func (bad *BuildArtifactDetector) projectFiles() []string {
	var files []string
	_ = filepath.WalkDir(bad.projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(bad.projectRoot, path)
		if d.IsDir() {
			name := d.Name()
			if path != bad.projectRoot && (strings.HasPrefix(name, ".") || name == "bin" || name == "obj" || name == "node_modules") {
				return filepath.SkipDir
			}
			if strings.Count(rel, string(filepath.Separator)) >= maxProjectDepth {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, ".csproj") || name == "Directory.Build.props" {
			files = append(files, path)
		}
		return nil
	})
	return files
}

// detectMSBuildOutputs reads the output properties of one project file.
// Values are reduced to their first literal path segment; MSBuild
// expressions such as $(Configuration) end the segment.
func (bad *BuildArtifactDetector) detectMSBuildOutputs(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	dec := xml.NewDecoder(bytes.NewReader(data))
	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
		case xml.EndElement:
			current = ""
		case xml.CharData:
			if !outputProperties[current] {
				continue
			}
			if dir := outputDirectory(string(t)); dir != "" {
				patterns = append(patterns, "**/"+dir+"/**")
			}
		}
	}
	return patterns
}

func outputDirectory(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "\\", "/"))
	value = strings.TrimPrefix(value, "./")
	if i := strings.Index(value, "$("); i >= 0 {
		value = value[:i]
	}
	first, _, _ := strings.Cut(value, "/")
	if first == "" || first == ".." || first == "." {
		return ""
	}
	return first
}

// DeduplicatePatterns removes duplicate exclusion patterns
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}

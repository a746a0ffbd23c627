// Package pathutil converts the absolute paths used during analysis into the
// root-relative, slash-separated paths shown in reports.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to a slash-separated path relative to
// rootDir. Paths outside rootDir, relative paths and empty inputs are
// returned unchanged.
//
// Examples:
//   - ToRelative("/home/user/app/src/Counter.cs", "/home/user/app") → "src/Counter.cs"
//   - ToRelative("/other/Lib.cs", "/home/user/app") → "/other/Lib.cs"
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" || !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rel, err := filepath.Rel(filepath.Clean(rootDir), absPath)
	if err != nil {
		// different volumes on Windows
		return absPath
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return absPath
	}
	return filepath.ToSlash(rel)
}

// Within reports whether path lies inside rootDir (or is rootDir itself)
func Within(path, rootDir string) bool {
	rel, err := filepath.Rel(filepath.Clean(rootDir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

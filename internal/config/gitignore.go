package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignoreParser turns .gitignore rules into doublestar globs
type GitignoreParser struct {
	patterns []GitignorePattern
}

type GitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool
	Absolute  bool
	// glob matches the pattern itself; under matches everything below it
	glob  string
	under string
}

// NewGitignoreParser creates a new gitignore parser
func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadGitignore loads patterns from rootPath/.gitignore. A missing file is
// not an error.
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	file, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if err != nil {
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		gp.AddPattern(scanner.Text())
	}
	return scanner.Err()
}

// AddPattern adds one .gitignore line. Blank lines and comments are ignored.
func (gp *GitignoreParser) AddPattern(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	p := GitignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	// a slash anywhere but the end anchors the pattern to the root
	if strings.HasPrefix(line, "/") || strings.Contains(line, "/") {
		p.Absolute = true
		line = strings.TrimPrefix(line, "/")
	}
	if line == "" {
		return
	}
	p.Pattern = line
	p.glob = line
	if !p.Absolute {
		p.glob = "**/" + line
	}
	p.under = p.glob + "/**"
	gp.patterns = append(gp.patterns, p)
}

// ShouldIgnore reports whether a slash-separated path relative to the root
// is ignored. The last matching rule wins, as in git.
func (gp *GitignoreParser) ShouldIgnore(path string, isDir bool) bool {
	path = filepath.ToSlash(path)
	ignored := false
	for _, p := range gp.patterns {
		if gp.matches(p, path, isDir) {
			ignored = !p.Negate
		}
	}
	return ignored
}

func (gp *GitignoreParser) matches(p GitignorePattern, path string, isDir bool) bool {
	if ok, _ := doublestar.Match(p.under, path); ok {
		return true
	}
	if p.Directory && !isDir {
		return false
	}
	ok, _ := doublestar.Match(p.glob, path)
	return ok
}

// GetExclusionPatterns returns the non-negated rules as exclusion globs
func (gp *GitignoreParser) GetExclusionPatterns() []string {
	var exclusions []string
	for _, p := range gp.patterns {
		if p.Negate {
			continue
		}
		if p.Directory {
			exclusions = append(exclusions, p.under)
			continue
		}
		exclusions = append(exclusions, p.glob, p.under)
	}
	return exclusions
}

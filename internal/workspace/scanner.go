// Package workspace finds the C# files of a project and turns a
// configuration into an analysis input.
package workspace

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/purity/internal/config"
	"github.com/standardbeagle/purity/internal/debug"
	perrors "github.com/standardbeagle/purity/internal/errors"
	"github.com/standardbeagle/purity/internal/frontend/csharp"
)

// Scanner walks a project tree and sorts files into sources and references
type Scanner struct {
	root       string
	exclusions []string
	inclusions []string
	references []string
	gitignore  *config.GitignoreParser
}

// NewScanner prepares the globs of cfg. The project .gitignore is honored
// when cfg.Watch.RespectGitignore is set.
func NewScanner(cfg *config.Config) *Scanner {
	root, err := filepath.Abs(cfg.Project.Root)
	if err != nil {
		root = cfg.Project.Root
	}
	s := &Scanner{
		root:       root,
		exclusions: append([]string(nil), cfg.Exclude...),
		inclusions: append([]string(nil), cfg.Include...),
		references: append([]string(nil), cfg.References...),
	}
	if len(s.inclusions) == 0 {
		s.inclusions = []string{config.DefaultInclude}
	}
	if cfg.Watch.RespectGitignore {
		gp := config.NewGitignoreParser()
		if err := gp.LoadGitignore(s.root); err != nil {
			debug.Log("SCAN", "ignoring unreadable .gitignore: %v\n", err)
		} else {
			s.gitignore = gp
		}
	}
	return s
}

// Root is the directory relative paths are measured from
func (s *Scanner) Root() string { return s.root }

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}

// Excluded reports whether a slash-separated root-relative path is skipped
func (s *Scanner) Excluded(rel string, isDir bool) bool {
	if matchAny(s.exclusions, rel) {
		return true
	}
	if isDir && matchAny(s.exclusions, rel+"/") {
		return true
	}
	return s.gitignore != nil && s.gitignore.ShouldIgnore(rel, isDir)
}

// Kind tells how a file takes part in a run
type Kind uint8

const (
	Ignored Kind = iota
	Source
	Reference
)

// Classify sorts a root-relative file path. Reference globs win over
// include globs.
func (s *Scanner) Classify(rel string) Kind {
	rel = filepath.ToSlash(rel)
	if s.Excluded(rel, false) {
		return Ignored
	}
	if matchAny(s.references, rel) {
		return Reference
	}
	if matchAny(s.inclusions, rel) {
		return Source
	}
	return Ignored
}

// Rel converts an absolute or working-directory path to a root-relative,
// slash-separated one
func (s *Scanner) Rel(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Files is the content of one run
type Files struct {
	Sources    []csharp.SourceFile
	References []csharp.SourceFile
}

// Scan reads the files under paths, or under the project root when none
// are given. A path naming a file is taken as a source even when no
// include glob matches it.
func (s *Scanner) Scan(ctx context.Context, paths ...string) (*Files, error) {
	defer debug.Timed("SCAN", "scan")()

	if len(paths) == 0 {
		paths = []string{s.root}
	}
	files := &Files{}
	seen := make(map[string]bool)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, perrors.NewFileError("stat", p, err)
		}
		if !info.IsDir() {
			kind := s.Classify(s.Rel(p))
			if kind == Ignored {
				kind = Source
			}
			if err := files.add(p, kind, seen); err != nil {
				return nil, err
			}
			continue
		}
		if err := s.walk(ctx, p, files, seen); err != nil {
			return nil, err
		}
	}
	// references always come from the whole project
	if len(s.references) > 0 && !containsRoot(paths, s.root) {
		if err := s.walkReferences(ctx, files, seen); err != nil {
			return nil, err
		}
	}
	files.sort()
	debug.Log("SCAN", "%d sources, %d references\n", len(files.Sources), len(files.References))
	return files, nil
}

func containsRoot(paths []string, root string) bool {
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil && abs == root {
			return true
		}
	}
	return false
}

func (s *Scanner) walk(ctx context.Context, dir string, files *Files, seen map[string]bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			debug.Log("SCAN", "scanner error for %s: %v\n", path, err)
			return nil
		}
		rel := s.Rel(path)
		if d.IsDir() {
			if path != dir && s.Excluded(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		return files.add(path, s.Classify(rel), seen)
	})
}

func (s *Scanner) walkReferences(ctx context.Context, files *Files, seen map[string]bool) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return nil
		}
		rel := s.Rel(path)
		if d.IsDir() {
			if path != s.root && s.Excluded(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.Classify(rel) != Reference {
			return nil
		}
		return files.add(path, Reference, seen)
	})
}

func (f *Files) add(path string, kind Kind, seen map[string]bool) error {
	if kind == Ignored || seen[path] {
		return nil
	}
	seen[path] = true
	content, err := os.ReadFile(path)
	if err != nil {
		return perrors.NewFileError("read", path, err)
	}
	sf := csharp.SourceFile{Path: path, Content: content}
	if kind == Reference {
		f.References = append(f.References, sf)
	} else {
		f.Sources = append(f.Sources, sf)
	}
	return nil
}

func (f *Files) sort() {
	byPath := func(list []csharp.SourceFile) {
		sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	}
	byPath(f.Sources)
	byPath(f.References)
}

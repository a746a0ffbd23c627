// Package cache stores analysis results on disk, keyed by a digest of
// everything that went into the run.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/standardbeagle/purity/internal/debug"
	"github.com/standardbeagle/purity/internal/diagnostics"
	"github.com/standardbeagle/purity/internal/types"
)

// SchemaVersion is bumped whenever Entry changes shape. Entries written
// with another version read as misses.
const SchemaVersion uint16 = 1

// AppName names the directory under the user cache dir
const AppName = "purity"

// Entry is one cached run
type Entry struct {
	Schema      uint16            `msgpack:"schema"`
	CreatedAt   int64             `msgpack:"created_at"`
	Types       int               `msgpack:"types"`
	Diagnostics []entryDiagnostic `msgpack:"diagnostics"`
}

type entryDiagnostic struct {
	ID        string `msgpack:"id"`
	Severity  uint8  `msgpack:"sev"`
	File      string `msgpack:"file"`
	Line      int    `msgpack:"line"`
	Column    int    `msgpack:"col"`
	EndLine   int    `msgpack:"end_line,omitempty"`
	EndColumn int    `msgpack:"end_col,omitempty"`
	Message   string `msgpack:"msg"`
	Unit      string `msgpack:"unit,omitempty"`
}

// NewEntry captures the diagnostics of a run
func NewEntry(items []diagnostics.Diagnostic, typeCount int) *Entry {
	e := &Entry{
		Schema:      SchemaVersion,
		CreatedAt:   time.Now().UnixNano(),
		Types:       typeCount,
		Diagnostics: make([]entryDiagnostic, 0, len(items)),
	}
	for _, d := range items {
		e.Diagnostics = append(e.Diagnostics, entryDiagnostic{
			ID:        string(d.ID),
			Severity:  uint8(d.Severity),
			File:      d.Location.File,
			Line:      d.Location.Line,
			Column:    d.Location.Column,
			EndLine:   d.Location.EndLine,
			EndColumn: d.Location.EndColumn,
			Message:   d.Message,
			Unit:      d.Unit,
		})
	}
	return e
}

// Items restores the cached diagnostics
func (e *Entry) Items() []diagnostics.Diagnostic {
	out := make([]diagnostics.Diagnostic, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		out = append(out, diagnostics.Diagnostic{
			ID:       diagnostics.ID(d.ID),
			Severity: diagnostics.Severity(d.Severity),
			Location: types.Location{
				File:      d.File,
				Line:      d.Line,
				Column:    d.Column,
				EndLine:   d.EndLine,
				EndColumn: d.EndColumn,
			},
			Message: d.Message,
			Unit:    d.Unit,
		})
	}
	return out
}

// ResultsCache is a directory of msgpack entries. A nil *ResultsCache is a
// valid cache that never hits. Safe for concurrent use.
type ResultsCache struct {
	mu  sync.RWMutex
	dir string

	hits   int64
	misses int64
	writes int64
}

// DefaultDir is $XDG_CACHE_HOME/purity, falling back to ~/.cache/purity
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, AppName), nil
}

// Open returns a cache rooted at dir, or at DefaultDir when dir is empty
func Open(dir string) (*ResultsCache, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("cannot locate cache directory: %w", err)
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &ResultsCache{dir: dir}, nil
}

// Dir is the cache directory
func (c *ResultsCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *ResultsCache) pathFor(key uint64) string {
	hexKey := strconv.FormatUint(key, 16)
	return filepath.Join(c.dir, "results", hexKey+".mp")
}

// Get looks up key. A missing, unreadable or outdated entry is a miss.
func (c *ResultsCache) Get(key uint64) (*Entry, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			debug.LogCache("read %x: %v\n", key, err)
		}
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	var e Entry
	if err := msgpack.Unmarshal(data, &e); err != nil || e.Schema != SchemaVersion {
		debug.LogCache("discarding entry %x (schema %d, err %v)\n", key, e.Schema, err)
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&c.hits, 1)
	debug.LogCache("hit %x: %d diagnostics\n", key, len(e.Diagnostics))
	return &e, true
}

// Put stores e under key. The file is written to a temporary name and
// renamed into place so readers never see a partial entry.
func (c *ResultsCache) Put(key uint64, e *Entry) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := msgpack.Marshal(e)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return err
	}
	atomic.AddInt64(&c.writes, 1)
	debug.LogCache("stored %x: %d diagnostics\n", key, len(e.Diagnostics))
	return nil
}

// Clear removes every entry
func (c *ResultsCache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "results"))
}

// Stats is a snapshot of the cache counters
type Stats struct {
	Hits    int64
	Misses  int64
	Writes  int64
	HitRate float64
}

// GetStats returns the counters since Open
func (c *ResultsCache) GetStats() Stats {
	if c == nil {
		return Stats{}
	}
	s := Stats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
		Writes: atomic.LoadInt64(&c.writes),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

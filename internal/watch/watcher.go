// Package watch reports batches of changed C# files so a project can be
// re-analyzed as it is edited.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/purity/internal/debug"
	"github.com/standardbeagle/purity/internal/workspace"
)

// EventType is the kind of change recorded for a path
type EventType int

const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	}
	return "unknown"
}

// Batch is the set of paths that changed within one debounce window.
// Each path is listed once, under its latest event.
type Batch struct {
	Created []string
	Changed []string
	Removed []string
}

// Len is the number of paths in the batch
func (b Batch) Len() int {
	return len(b.Created) + len(b.Changed) + len(b.Removed)
}

// Handler receives each batch on the watcher's goroutine. A slow handler
// delays the next batch; events keep accumulating meanwhile.
type Handler func(ctx context.Context, b Batch)

// Watcher monitors a project tree for changes to source and reference files
type Watcher struct {
	fs       *fsnotify.Watcher
	scanner  *workspace.Scanner
	debounce time.Duration
	handler  Handler

	pending   map[string]EventType
	ready     chan struct{}
	readyOnce sync.Once

	statsMu         sync.RWMutex
	eventsProcessed int64
	batches         int64
	errorCount      int64
	lastEventTime   time.Time
}

// New creates a watcher over scanner's project root. Nothing is watched
// until Run.
func New(scanner *workspace.Scanner, debounce time.Duration, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 50 * time.Millisecond
	}
	return &Watcher{
		fs:       fsw,
		scanner:  scanner,
		debounce: debounce,
		handler:  handler,
		pending:  make(map[string]EventType),
		ready:    make(chan struct{}),
	}, nil
}

// Run watches until ctx is done and always closes the underlying watcher.
// Events still pending at shutdown are dropped.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	defer w.markReady()

	root := w.scanner.Root()
	debug.LogWatch("starting file watcher for directory: %s\n", root)
	if err := w.addWatches(root); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", root, err)
	}
	w.markReady()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			debug.LogWatch("file watcher stopped\n")
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.incrementStats(0, 0, 1)
			log.Printf("File watcher error: %v", err)

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// Ready is closed once every directory is watched, or when Run returns
// without getting that far.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

func (w *Watcher) markReady() {
	w.readyOnce.Do(func() { close(w.ready) })
}

// addWatches adds every directory under root that is not excluded
func (w *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		// symlink cycles
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return filepath.SkipDir
		}
		if visited[resolved] {
			return filepath.SkipDir
		}
		visited[resolved] = true

		if path != root && w.scanner.Excluded(w.scanner.Rel(path), true) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			log.Printf("Warning: failed to add watch for %s: %v", path, err)
		}
		return nil
	})
}

// handleEvent records one fsnotify event and reports whether it was kept
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	path := event.Name
	debug.LogWatch("received event %v for path %s\n", event.Op, path)

	info, err := os.Stat(path)
	if err != nil {
		if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && w.relevant(path) {
			w.pending[path] = EventRemove
			return true
		}
		return false
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !w.scanner.Excluded(w.scanner.Rel(path), true) {
			// files created together with the directory have no events of their own
			kept := false
			_ = w.addWatches(path)
			_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
				if err == nil && !d.IsDir() && w.relevant(p) {
					w.pending[p] = EventCreate
					kept = true
				}
				return nil
			})
			return kept
		}
		return false
	}

	if !w.relevant(path) {
		return false
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = EventCreate
	case event.Op&fsnotify.Write != 0:
		eventType = EventWrite
	case event.Op&fsnotify.Remove != 0:
		eventType = EventRemove
	case event.Op&fsnotify.Rename != 0:
		eventType = EventRename
	default:
		return false
	}
	// a write right after a create is still a create
	if prev, ok := w.pending[path]; ok && prev == EventCreate && eventType == EventWrite {
		eventType = EventCreate
	}
	w.pending[path] = eventType
	return true
}

func (w *Watcher) relevant(path string) bool {
	return w.scanner.Classify(w.scanner.Rel(path)) != workspace.Ignored
}

func (w *Watcher) flush(ctx context.Context) {
	if len(w.pending) == 0 {
		return
	}
	events := w.pending
	w.pending = make(map[string]EventType)

	var b Batch
	for path, eventType := range events {
		switch eventType {
		case EventCreate:
			b.Created = append(b.Created, path)
		case EventRemove:
			b.Removed = append(b.Removed, path)
		case EventWrite, EventRename:
			b.Changed = append(b.Changed, path)
		}
	}
	sort.Strings(b.Created)
	sort.Strings(b.Changed)
	sort.Strings(b.Removed)

	debug.LogWatch("processing %d debounced file events\n", b.Len())
	w.incrementStats(int64(b.Len()), 1, 0)
	if w.handler != nil {
		w.handler(ctx, b)
	}
}

// incrementStats updates watch statistics
func (w *Watcher) incrementStats(events, batches, errs int64) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()

	w.eventsProcessed += events
	w.batches += batches
	w.errorCount += errs
	if events > 0 {
		w.lastEventTime = time.Now()
	}
}

// Stats contains statistics about file watching
type Stats struct {
	EventsProcessed int64
	Batches         int64
	ErrorCount      int64
	LastEventTime   time.Time
}

// GetStats returns current watch statistics
func (w *Watcher) GetStats() Stats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()

	return Stats{
		EventsProcessed: w.eventsProcessed,
		Batches:         w.batches,
		ErrorCount:      w.errorCount,
		LastEventTime:   w.lastEventTime,
	}
}

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/purity/internal/config"
	"github.com/standardbeagle/purity/internal/workspace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	root    string
	w       *Watcher
	batches chan Batch
	cancel  context.CancelFunc
	done    chan error
}

func startWatcher(t *testing.T, setup func(root string)) *harness {
	t.Helper()
	root := t.TempDir()
	if setup != nil {
		setup(root)
	}
	cfg := config.Default(root)
	cfg.Watch.RespectGitignore = false

	h := &harness{root: root, batches: make(chan Batch, 16), done: make(chan error, 1)}
	w, err := New(workspace.NewScanner(cfg), 50*time.Millisecond, func(_ context.Context, b Batch) {
		h.batches <- b
	})
	require.NoError(t, err)
	h.w = w

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- w.Run(ctx) }()
	t.Cleanup(h.stop)

	select {
	case <-w.Ready():
	case err := <-h.done:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never became ready")
	}
	return h
}

func (h *harness) stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
	h.cancel = nil
}

func (h *harness) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(h.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (h *harness) next(t *testing.T) Batch {
	t.Helper()
	select {
	case b := <-h.batches:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered")
		return Batch{}
	}
}

func TestWatcher_ReportsNewSourceFile(t *testing.T) {
	h := startWatcher(t, nil)

	path := h.write(t, "Counter.cs", "class Counter {}")
	b := h.next(t)

	assert.Equal(t, []string{path}, b.Created)
	assert.Empty(t, b.Removed)
}

func TestWatcher_ReportsEditsAndRemovals(t *testing.T) {
	var path string
	h := startWatcher(t, func(root string) {
		path = filepath.Join(root, "Counter.cs")
		require.NoError(t, os.WriteFile(path, []byte("class Counter {}"), 0o644))
	})

	require.NoError(t, os.WriteFile(path, []byte("class Counter { int n; }"), 0o644))
	b := h.next(t)
	assert.Equal(t, []string{path}, b.Changed)

	require.NoError(t, os.Remove(path))
	b = h.next(t)
	assert.Equal(t, []string{path}, b.Removed)
}

func TestWatcher_IgnoresExcludedAndForeignFiles(t *testing.T) {
	h := startWatcher(t, func(root string) {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))
	})

	h.write(t, "bin/Stale.cs", "class Stale {}")
	h.write(t, "notes.txt", "not code")
	h.write(t, "View.designer.cs", "partial class View {}")
	path := h.write(t, "Real.cs", "class Real {}")

	b := h.next(t)
	assert.Equal(t, []string{path}, b.Created)
	assert.Empty(t, b.Changed)
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	h := startWatcher(t, nil)

	first := h.write(t, "Models/User.cs", "class User {}")
	b := h.next(t)
	assert.Contains(t, b.Created, first)

	second := h.write(t, "Models/Order.cs", "class Order {}")
	b = h.next(t)
	assert.Contains(t, append(b.Created, b.Changed...), second)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	h := startWatcher(t, nil)

	var paths []string
	for _, name := range []string{"A.cs", "B.cs", "C.cs"} {
		paths = append(paths, h.write(t, name, "class X {}"))
	}
	seen := make(map[string]bool)
	for len(seen) < len(paths) {
		b := h.next(t)
		for _, p := range append(b.Created, b.Changed...) {
			seen[p] = true
		}
	}
	for _, p := range paths {
		assert.True(t, seen[p], p)
	}

	stats := h.w.GetStats()
	assert.GreaterOrEqual(t, stats.EventsProcessed, int64(3))
	assert.GreaterOrEqual(t, stats.Batches, int64(1))
}

func TestWatcher_MissingRoot(t *testing.T) {
	cfg := config.Default(filepath.Join(t.TempDir(), "missing"))
	w, err := New(workspace.NewScanner(cfg), 0, nil)
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background()))

	select {
	case <-w.Ready():
	default:
		t.Fatal("Ready must be closed after a failed start")
	}
}

func TestBatchLen(t *testing.T) {
	b := Batch{Created: []string{"a"}, Changed: []string{"b", "c"}}
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, "remove", EventRemove.String())
}

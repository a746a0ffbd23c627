package workspace

import (
	"context"

	"github.com/standardbeagle/purity/internal/analyzer"
	"github.com/standardbeagle/purity/internal/cache"
	"github.com/standardbeagle/purity/internal/config"
	"github.com/standardbeagle/purity/internal/debug"
	"github.com/standardbeagle/purity/internal/diagnostics"
)

// Report is the outcome of Check
type Report struct {
	Diagnostics []diagnostics.Diagnostic
	Warnings    []error
	Types       int
	Sources     int
	References  int
	// Cached is set when the diagnostics came from the results cache
	Cached bool
}

// HasErrors reports whether any diagnostic is an error
func (r *Report) HasErrors() bool {
	return diagnostics.HasErrors(r.Diagnostics)
}

// Check scans paths (the project root when empty), analyzes them and
// consults rc first. rc may be nil. salt invalidates entries written by
// other builds.
func Check(ctx context.Context, cfg *config.Config, rc *cache.ResultsCache, salt string, paths ...string) (*Report, error) {
	files, err := NewScanner(cfg).Scan(ctx, paths...)
	if err != nil {
		return nil, err
	}
	return CheckFiles(ctx, cfg, rc, salt, files)
}

// CheckFiles is Check for an already scanned file set
func CheckFiles(ctx context.Context, cfg *config.Config, rc *cache.ResultsCache, salt string, files *Files) (*Report, error) {
	rep := &Report{Sources: len(files.Sources), References: len(files.References)}

	var key uint64
	if rc != nil {
		key = Digest(salt, cfg, files)
		if e, ok := rc.Get(key); ok {
			rep.Diagnostics = e.Items()
			rep.Types = e.Types
			rep.Cached = true
			return rep, nil
		}
	}

	res, err := analyzer.Analyze(ctx, Input(cfg, files))
	if err != nil {
		return nil, err
	}
	rep.Diagnostics = res.Diagnostics
	rep.Warnings = res.Warnings
	rep.Types = res.Types

	// degraded runs are not cached so the warnings show up again
	if rc != nil && len(res.Warnings) == 0 {
		if err := rc.Put(key, cache.NewEntry(res.Diagnostics, res.Types)); err != nil {
			debug.LogCache("write failed: %v\n", err)
		}
	}
	return rep, nil
}

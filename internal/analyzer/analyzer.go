// Package analyzer runs every purity check of a compilation: it plans one
// task per annotated member, type parameter and pure-lambda call site, runs
// the tasks in parallel and reports their findings as diagnostics.
package analyzer

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/purity/internal/debug"
	"github.com/standardbeagle/purity/internal/diagnostics"
	perrors "github.com/standardbeagle/purity/internal/errors"
	"github.com/standardbeagle/purity/internal/freshness"
	"github.com/standardbeagle/purity/internal/generics"
	"github.com/standardbeagle/purity/internal/knownsymbols"
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/purity"
	"github.com/standardbeagle/purity/internal/types"
)

// Options configures an Analyzer
type Options struct {
	// Workers bounds the tasks run at once; 0 means one per CPU
	Workers     int
	PureLambdas []purity.PureLambda
}

// Analyzer checks one compilation against one registry
type Analyzer struct {
	comp   *model.Compilation
	known  *knownsymbols.Registry
	engine *purity.Engine
	opts   Options
}

// New creates an analyzer. A nil registry means no known symbols.
func New(comp *model.Compilation, known *knownsymbols.Registry, opts Options) *Analyzer {
	if known == nil {
		known = knownsymbols.Empty()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Analyzer{
		comp:   comp,
		known:  known,
		engine: purity.NewEngine(known, purity.WithPureLambdas(opts.PureLambdas...)),
		opts:   opts,
	}
}

// Engine returns the purity engine the analyzer classifies with
func (a *Analyzer) Engine() *purity.Engine {
	return a.engine
}

// Run plans and runs every task, reporting to r. Tasks that fail are
// returned as warnings and do not stop the others. Run stops starting
// tasks once ctx is cancelled and returns the context's error; diagnostics
// of the tasks already finished stay reported.
func (a *Analyzer) Run(ctx context.Context, r diagnostics.Reporter) ([]error, error) {
	defer debug.Timed("analysis", "run")()
	tasks := a.Plan(r)
	debug.LogAnalysis("planned %d tasks with %d workers", len(tasks), a.opts.Workers)

	var (
		mu       sync.Mutex
		failures []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for _, t := range tasks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := a.RunTask(t, r); err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return failures, err
	}
	return failures, ctx.Err()
}

// RunTask runs one task. A panic inside a check is returned as a
// recoverable AnalysisError naming the task instead of crashing the run.
func (a *Analyzer) RunTask(t Task, r diagnostics.Reporter) (err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = perrors.NewAnalysisError(t.Kind.String(), fmt.Errorf("panic: %v", p)).
				WithUnit(t.Name()).
				WithRecoverable(true)
		}
		debug.LogAnalysis("%s done in %v", t, time.Since(start))
	}()

	unit := t.Name()
	switch t.Kind {
	case TaskPurity:
		for _, imp := range purity.Collect(a.engine.Classify(t.Unit, nil)) {
			r.Report(diagnostics.FromImpurity(diagnostics.PurityAnalyzer, unit, imp))
		}
	case TaskFreshness:
		for imp := range freshness.CheckFreshness(t.Member, a.known) {
			r.Report(diagnostics.FromImpurity(diagnostics.ReturnsNewObjectAnalyzer, unit, imp))
		}
	case TaskObjectUsage:
		for _, loc := range generics.FindObjectUsages(t.Scope, t.TypeParameter, a.known) {
			imp := types.NewImpurity(loc, types.ImpurityObjectUsage, "%s is used as object", t.TypeParameter.Name)
			r.Report(diagnostics.FromImpurity(diagnostics.ReturnsNewObjectAnalyzer, unit, imp))
		}
	case TaskLambda:
		for _, imp := range purity.Collect(a.engine.ClassifyLambda(t.Site)) {
			id := diagnostics.PurityAnalyzer
			if imp.Kind == types.ImpurityNotLambda {
				id = diagnostics.PureLambdaAnalyzer
			}
			r.Report(diagnostics.FromImpurity(id, unit, imp))
		}
	}
	return nil
}

package analyzer

import (
	"context"
	"errors"

	"github.com/standardbeagle/purity/internal/debug"
	"github.com/standardbeagle/purity/internal/diagnostics"
	perrors "github.com/standardbeagle/purity/internal/errors"
	"github.com/standardbeagle/purity/internal/frontend/csharp"
	"github.com/standardbeagle/purity/internal/knownsymbols"
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/purity"
	"github.com/standardbeagle/purity/internal/types"
)

// KnownSymbols selects the registry sources of a run
type KnownSymbols struct {
	// Defaults adds the built-in framework knowledge
	Defaults bool
	// Lists maps a category to the plain list files loaded into it
	Lists map[knownsymbols.Category][]string
	// Bundles are TOML files carrying several categories
	Bundles []string
}

// BuildRegistry assembles the registry of a run. Unusable list files are
// returned as warnings; their categories stay as they were.
// Purity attributes on the compiled references of comp are added too.
func (k KnownSymbols) BuildRegistry(comp *model.Compilation) (*knownsymbols.Registry, []error) {
	b := knownsymbols.NewBuilder()
	if k.Defaults {
		b.AddDefaults()
	}
	for _, c := range knownsymbols.Categories() {
		for _, path := range k.Lists[c] {
			b.LoadList(c, path)
		}
	}
	for _, path := range k.Bundles {
		b.LoadBundle(path)
	}
	if comp != nil {
		b.ScanReferences(comp)
	}
	return b.Build(), b.Warnings()
}

// Input is everything one run analyzes
type Input struct {
	Sources    []csharp.SourceFile
	References []csharp.SourceFile
	Known      KnownSymbols
	Options    Options
}

// Result is the outcome of a run
type Result struct {
	Diagnostics []diagnostics.Diagnostic
	// Warnings are problems that degraded the run without stopping it:
	// unreadable list files and failed tasks.
	Warnings []error
	Types    int
}

// HasErrors reports whether any diagnostic is an error
func (r *Result) HasErrors() bool {
	return diagnostics.HasErrors(r.Diagnostics)
}

// Analyze loads the sources, builds the registry and runs every check.
// Syntax errors become PurityParser warnings; the returned error is only
// set when ctx was cancelled.
func Analyze(ctx context.Context, in Input) (*Result, error) {
	defer debug.Timed("analysis", "analyze")()

	comp, loadWarnings := csharp.Load(in.Sources, in.References)
	bag := diagnostics.NewBag()
	res := &Result{Types: len(comp.SourceTypes())}
	for _, w := range loadWarnings {
		var pe *perrors.ParseError
		if errors.As(w, &pe) {
			bag.Report(diagnostics.Diagnostic{
				ID:       diagnostics.PurityParser,
				Severity: diagnostics.SevWarning,
				Location: types.Location{File: pe.FilePath, Line: pe.Line, Column: pe.Column},
				Message:  pe.Underlying.Error(),
			})
			continue
		}
		res.Warnings = append(res.Warnings, w)
	}

	known, knownWarnings := in.Known.BuildRegistry(comp)
	res.Warnings = append(res.Warnings, knownWarnings...)

	a := New(comp, known, in.Options)
	failures, err := a.Run(ctx, bag)
	res.Warnings = append(res.Warnings, failures...)
	res.Diagnostics = bag.Finish()
	debug.LogAnalysis("%d types, %d diagnostics, %d warnings", res.Types, len(res.Diagnostics), len(res.Warnings))
	return res, err
}

// ParsePureLambdas reads "Type.Method:Arg" entries
func ParsePureLambdas(specs []string) ([]purity.PureLambda, error) {
	out := make([]purity.PureLambda, 0, len(specs))
	for _, s := range specs {
		p, err := purity.ParsePureLambda(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

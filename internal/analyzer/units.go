package analyzer

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/purity/internal/diagnostics"
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/purity"
	"github.com/standardbeagle/purity/internal/types"
)

// TaskKind says which check a task runs
type TaskKind uint8

const (
	// TaskPurity classifies a body against a strictness level
	TaskPurity TaskKind = iota
	// TaskFreshness checks the returns of a ReturnsNewObject member
	TaskFreshness
	// TaskObjectUsage searches a scope for object usage of a type parameter
	TaskObjectUsage
	// TaskLambda classifies the lambda passed at a pure-lambda call site
	TaskLambda
)

func (k TaskKind) String() string {
	switch k {
	case TaskPurity:
		return "purity"
	case TaskFreshness:
		return "freshness"
	case TaskObjectUsage:
		return "object-usage"
	case TaskLambda:
		return "lambda"
	}
	return "unknown"
}

// Task is one independent unit of analysis
type Task struct {
	Kind TaskKind
	// Member is the declaration the task reports for
	Member *model.Symbol
	// Unit is set for TaskPurity
	Unit purity.Unit
	// Scope and TypeParameter are set for TaskObjectUsage
	Scope         *model.Symbol
	TypeParameter *model.Symbol
	// Site is set for TaskLambda
	Site purity.LambdaSite
}

// Name is the qualified name diagnostics of the task are attributed to
func (t Task) Name() string {
	if t.Member == nil {
		return ""
	}
	return t.Member.QualifiedName
}

func (t Task) String() string {
	return t.Kind.String() + " " + t.Name()
}

// planner enumerates tasks and reports attribute misuse found on the way
type planner struct {
	engine   *purity.Engine
	reporter diagnostics.Reporter
	tasks    []Task
}

// Plan lists every task for the source types of comp. Attribute misuse is
// reported to r while planning; misapplied attributes produce no task.
func (a *Analyzer) Plan(r diagnostics.Reporter) []Task {
	p := &planner{engine: a.engine, reporter: r}
	for _, t := range a.comp.SourceTypes() {
		p.typeTasks(t)
	}
	return p.tasks
}

func (p *planner) add(t Task) {
	p.tasks = append(p.tasks, t)
}

func (p *planner) misuse(id diagnostics.ID, attr model.Attribute, format string, args ...interface{}) {
	p.reporter.Report(diagnostics.Diagnostic{
		ID:       id,
		Severity: diagnostics.SevError,
		Location: attr.Location,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (p *planner) typeTasks(t *model.Symbol) {
	suggest(p.reporter, t)
	typePure := t.Annotations.Has(types.AnnotationPure)

	for _, tp := range t.TypeParameters {
		suggest(p.reporter, tp)
		if tp.Annotations.Has(types.AnnotationNotUsedAsObject) {
			p.add(Task{Kind: TaskObjectUsage, Member: t, Scope: t, TypeParameter: tp})
		}
	}

	for _, m := range t.Members {
		if m.IsType() {
			continue
		}
		suggest(p.reporter, m)
		for _, level := range p.levels(m, typePure) {
			p.purityTasks(m, level)
		}
		p.freshnessTask(m)
		p.usageTasks(t, m)
		p.lambdaTasks(m)
	}
}

// levels returns the strictness levels m is checked under. Relaxed levels
// on static members are rejected with a diagnostic.
func (p *planner) levels(m *model.Symbol, typePure bool) []types.Strictness {
	var out []types.Strictness
	for _, relaxed := range []struct {
		annotation types.Annotation
		level      types.Strictness
	}{
		{types.AnnotationPureExceptLocally, types.PureExceptLocally},
		{types.AnnotationPureExceptReadLocally, types.PureExceptReadLocally},
	} {
		attr, ok := m.Attribute(relaxed.annotation)
		if !ok {
			continue
		}
		if m.Static {
			what := "methods"
			if m.Kind == types.SymbolKindProperty || m.Kind == types.SymbolKindIndexer {
				what = "properties"
			}
			p.misuse(diagnostics.PurityAnalyzer, attr, "%s cannot be applied on static %s", relaxed.annotation.AttributeName(), what)
			continue
		}
		out = append(out, relaxed.level)
	}
	if typePure || m.Annotations.Has(types.AnnotationPure) {
		return []types.Strictness{types.Pure}
	}
	return out
}

func (p *planner) purityTasks(m *model.Symbol, level types.Strictness) {
	switch m.Kind {
	case types.SymbolKindMethod, types.SymbolKindConstructor, types.SymbolKindOperator:
		if m.HasBody() {
			p.add(Task{Kind: TaskPurity, Member: m, Unit: purity.UnitFor(m, level)})
		}
	case types.SymbolKindProperty, types.SymbolKindIndexer:
		for _, acc := range m.Callables() {
			if acc.HasBody() {
				p.add(Task{Kind: TaskPurity, Member: m, Unit: purity.UnitFor(acc, level)})
			}
		}
		if m.Initializer != nil {
			p.add(Task{Kind: TaskPurity, Member: m, Unit: purity.InitializerUnit(m, level)})
		}
	case types.SymbolKindField:
		if m.Initializer != nil {
			p.add(Task{Kind: TaskPurity, Member: m, Unit: purity.InitializerUnit(m, level)})
		}
	}
}

func (p *planner) freshnessTask(m *model.Symbol) {
	attr, ok := m.Attribute(types.AnnotationReturnsNewObject)
	if !ok {
		return
	}
	switch m.Kind {
	case types.SymbolKindMethod, types.SymbolKindOperator, types.SymbolKindProperty, types.SymbolKindIndexer:
	default:
		return
	}
	if m.Type.IsValueType() {
		p.misuse(diagnostics.ReturnsNewObjectAnalyzer, attr, "ReturnsNewObjectAttribute cannot be applied on methods that return value types")
		return
	}
	p.add(Task{Kind: TaskFreshness, Member: m})
}

func (p *planner) usageTasks(t, m *model.Symbol) {
	for _, tp := range m.TypeParameters {
		suggest(p.reporter, tp)
		if tp.Annotations.Has(types.AnnotationNotUsedAsObject) {
			p.add(Task{Kind: TaskObjectUsage, Member: m, Scope: m, TypeParameter: tp})
		}
	}
	for _, attr := range m.Attributes {
		if attr.Annotation != types.AnnotationDoesNotUseClassTypeParameterAsObject {
			continue
		}
		if len(attr.Args) == 0 {
			p.misuse(diagnostics.ReturnsNewObjectAnalyzer, attr, "DoesNotUseClassTypeParameterAsObjectAttribute requires a type parameter name")
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(attr.Args[0], "nameof("), ")")
		tp := classTypeParameter(t, name)
		if tp == nil {
			p.misuse(diagnostics.ReturnsNewObjectAnalyzer, attr, "%s does not declare a type parameter named %s", t.Name, name)
			continue
		}
		p.add(Task{Kind: TaskObjectUsage, Member: m, Scope: m, TypeParameter: tp})
	}
}

// classTypeParameter finds a type parameter of t or an enclosing type
func classTypeParameter(t *model.Symbol, name string) *model.Symbol {
	for c := t; c != nil; c = c.Container {
		if !c.IsType() {
			continue
		}
		for _, tp := range c.TypeParameters {
			if tp.Name == name {
				return tp
			}
		}
	}
	return nil
}

func (p *planner) lambdaTasks(m *model.Symbol) {
	for _, owner := range m.Callables() {
		if !owner.HasBody() {
			continue
		}
		for _, site := range p.engine.LambdaSites(owner) {
			p.add(Task{Kind: TaskLambda, Member: m, Site: site})
		}
	}
}

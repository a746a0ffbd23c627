package purity

import (
	"strings"

	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

func (w *walker) creation(c *model.ObjectCreation) {
	w.args(c.Args)
	for _, in := range c.Initializers {
		w.expr(in.Value)
		m := in.Member
		if m != nil && m.Setter != nil && !m.AutoProperty && !m.Compiled {
			w.report(in.Location, w.judgeMember(m.Setter, types.ReceiverFresh, w.receiverSubst(c.Type, m.Setter)))
		}
	}
	for _, e := range c.Elements {
		w.expr(e)
	}
	if w.stopped {
		return
	}
	w.upcasts(c.Args)
	w.report(c.Location, w.judgeCreation(c))
	if len(c.Elements) > 0 {
		w.report(c.Location, w.judgeCollectionAdd(c))
	}
}

func (w *walker) judgeCreation(c *model.ObjectCreation) verdict {
	t := w.unit.Subst.Apply(c.Type)
	switch {
	case t == nil:
		return impureVerdict(types.ImpurityUnknownCall, "creates an object of unknown type")
	case t.IsTypeParameter():
		// new T() runs a constructor of the type argument, which is not tracked
		return verdict{}
	}

	if ts := t.TypeSymbol(); ts != nil {
		if ts.AssumedPure() || ts.Flavor == model.FlavorDelegate {
			return verdict{}
		}
		if !ts.Compiled {
			return w.judgeConstruction(ts, c.Constructor, model.NewSubstitution(ts.TypeParameters, t.Args))
		}
		if ctor := c.Constructor; ctor != nil && (ctor.AssumedPure() || ctor.Annotated(types.AnnotationPure)) {
			return verdict{}
		}
	}

	names := t.QualifiedNames()
	if w.e.known.IsPureType(names...) || w.e.known.IsPureMethod(constructorNames(names)...) {
		return verdict{}
	}
	if t.IsValueType() && len(c.Args) == 0 {
		return verdict{}
	}
	return impureVerdict(types.ImpurityUnknownCall, "calls constructor of %s which is not known to be pure", t.Display())
}

// constructorNames maps type names to the registry keys of their
// constructors: <Type>.<TypeName>.
func constructorNames(typeNames []string) []string {
	out := make([]string, len(typeNames))
	for i, n := range typeNames {
		simple := n
		if j := strings.LastIndexByte(n, '.'); j >= 0 {
			simple = n[j+1:]
		}
		out[i] = n + "." + simple
	}
	return out
}

// judgeCollectionAdd classifies the Add calls of a collection initializer,
// made on the object being created.
func (w *walker) judgeCollectionAdd(c *model.ObjectCreation) verdict {
	t := w.unit.Subst.Apply(c.Type)
	if ts := t.TypeSymbol(); ts != nil && !ts.Compiled {
		add := ts.LookupMethod("Add", -1)
		if add == nil {
			return verdict{}
		}
		return w.judgeMember(add, types.ReceiverFresh, w.receiverSubst(t, add))
	}
	names := t.QualifiedNames()
	adds := make([]string, len(names))
	for i, n := range names {
		adds[i] = n + ".Add"
	}
	if _, ok := w.e.known.MethodStrictness(adds...); ok || w.e.known.IsPureType(names...) {
		return verdict{}
	}
	return impureVerdict(types.ImpurityUnknownCall, "calls %s.Add which is not known to be pure", t.Display())
}

// judgeConstruction classifies running a constructor of a source type on a
// fresh object. A nil ctor is the implicit one.
func (w *walker) judgeConstruction(ts, ctor *model.Symbol, subst model.Substitution) verdict {
	if ts == nil || ts.Compiled {
		return verdict{}
	}
	if ctor == nil {
		return w.judgeImplicitConstruction(ts, subst)
	}
	if ctor.AssumedPure() || ctor.Annotated(types.AnnotationPure) {
		return verdict{}
	}
	if !ctor.HasBody() {
		return impureVerdict(types.ImpurityUnknownCall, "calls constructor %s which has no body", ctor.Display())
	}
	u := Unit{
		Symbol:      ctor,
		Body:        ctor.Body,
		Strictness:  w.unit.Strictness,
		Receiver:    types.ReceiverFresh,
		Subst:       subst,
		Combination: types.CombinationInstance,
		LocalOwner:  ctor,
	}
	if w.e.subImpure(w, u) {
		return impureVerdict(types.ImpurityImpureCall, "calls impure constructor %s", ctor.Display())
	}
	return verdict{}
}

// judgeImplicitConstruction checks what an implicit constructor runs: the
// instance initializers and the base class constructor.
func (w *walker) judgeImplicitConstruction(ts *model.Symbol, subst model.Substitution) verdict {
	if fields, props := w.initializersImpure(ts, types.CombinationInstance, subst); fields || props {
		return impureVerdict(types.ImpurityInitializer, "constructing %s runs impure initializers", ts.Name)
	}
	base := ts.BaseClass()
	if base == nil || base.Compiled {
		return verdict{}
	}
	return w.judgeConstruction(base, base.LookupConstructor(0), baseSubst(ts, base, subst))
}

func (w *walker) initializersImpure(t *model.Symbol, comb types.InstanceStaticCombination, subst model.Substitution) (fields, props bool) {
	fs, ps := t.Initialized(comb)
	for _, f := range fs {
		if w.initializerImpure(f, subst) {
			fields = true
			break
		}
	}
	for _, p := range ps {
		if w.initializerImpure(p, subst) {
			props = true
			break
		}
	}
	return fields, props
}

func (w *walker) initializerImpure(member *model.Symbol, subst model.Substitution) bool {
	u := InitializerUnit(member, w.unit.Strictness)
	u.Subst = subst.Restrict(member)
	return w.e.subImpure(w, u)
}

// baseSubst binds the base class's type parameters from the derived
// type's base list.
func baseSubst(derived, base *model.Symbol, subst model.Substitution) model.Substitution {
	for _, b := range derived.Bases {
		if b.TypeSymbol() != base {
			continue
		}
		args := make([]*model.TypeRef, len(b.Args))
		for i, a := range b.Args {
			args[i] = subst.Apply(a)
		}
		return model.NewSubstitution(base.TypeParameters, args)
	}
	return model.Substitution{}
}

// constructorEffects adds what runs with a constructor body besides the
// body itself.
func (w *walker) constructorEffects() {
	ctor := w.unit.Symbol
	t := ctor.DeclaringType()
	if t == nil || w.stopped {
		return
	}
	fields, props := w.initializersImpure(t, w.unit.Combination, w.unit.Subst)
	if fields {
		w.emit(ctor.Location, types.ImpurityInitializer, "There are impure field initializers")
	}
	if props {
		w.emit(ctor.Location, types.ImpurityInitializer, "There are impure property initializers")
	}
	if ctor.Static || chainsConstructor(ctor.Body) {
		return
	}
	base := t.BaseClass()
	if base == nil || base.Compiled {
		return
	}
	v := w.judgeConstruction(base, base.LookupConstructor(0), baseSubst(t, base, w.unit.Subst))
	w.report(ctor.Location, v)
}

// chainsConstructor reports whether the body starts with an explicit
// this(...) or base(...) call.
func chainsConstructor(body model.Node) bool {
	b, ok := body.(*model.Block)
	if !ok || b == nil {
		return false
	}
	for _, s := range b.Stmts {
		es, ok := s.(*model.ExprStmt)
		if !ok {
			continue
		}
		if inv, ok := es.X.(*model.Invocation); ok && inv.Method != nil &&
			inv.Method.Kind == types.SymbolKindConstructor {
			return true
		}
	}
	return false
}

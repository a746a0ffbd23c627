// Package freshness verifies members annotated ReturnsNewObject: every value
// they return must be an object allocated by the call, never one reachable
// from parameters, fields or static state.
package freshness

import (
	"iter"

	"github.com/standardbeagle/purity/internal/knownsymbols"
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

// Message is the reason attached to every aliased return
const Message = "non-new object return"

// CheckFreshness yields one finding per return of member whose value may be
// aliased. Value-typed members are rejected at attribute validation and are
// never checked here.
func CheckFreshness(member *model.Symbol, known *knownsymbols.Registry) iter.Seq[types.Impurity] {
	if known == nil {
		known = knownsymbols.Empty()
	}
	return func(yield func(types.Impurity) bool) {
		body := member.Body
		if member.Kind == types.SymbolKindProperty || member.Kind == types.SymbolKindIndexer {
			if member.AutoProperty {
				// a stored value is never fresh
				yield(types.NewImpurity(member.Location, types.ImpurityAliasedReturn, Message))
				return
			}
			if member.Getter == nil {
				return
			}
			body = member.Getter.Body
		}
		if body == nil {
			return
		}
		c := &checker{known: known, active: map[*model.Symbol]bool{member: true}}
		locals := c.freshLocals(body)
		for _, r := range model.Returns(body) {
			if r.Value == nil || c.fresh(r.Value, locals) {
				continue
			}
			if !yield(types.NewImpurity(r.Location, types.ImpurityAliasedReturn, Message)) {
				return
			}
		}
	}
}

// Classify returns the freshness of a single expression evaluated in body.
func Classify(x model.Expr, body model.Node, known *knownsymbols.Registry) types.Freshness {
	if known == nil {
		known = knownsymbols.Empty()
	}
	c := &checker{known: known, active: make(map[*model.Symbol]bool)}
	if c.fresh(x, c.freshLocals(body)) {
		return types.FreshlyAllocated
	}
	return types.PossiblyAliased
}

type checker struct {
	known *knownsymbols.Registry
	// active holds the members whose returns are being classified on the
	// current path; re-entering one closes the cycle as fresh.
	active map[*model.Symbol]bool
}

func (c *checker) fresh(x model.Expr, locals map[*model.Symbol]bool) bool {
	switch x := x.(type) {
	case *model.ObjectCreation:
		for _, a := range x.Args {
			if !c.component(a.Value, locals) {
				return false
			}
		}
		for _, in := range x.Initializers {
			if !c.component(in.Value, locals) {
				return false
			}
		}
		for _, e := range x.Elements {
			if !c.component(e, locals) {
				return false
			}
		}
		return true
	case *model.ArrayCreation:
		for _, e := range x.Elements {
			if !c.component(e, locals) {
				return false
			}
		}
		// spread elements are shared with the source collection
		if len(x.Spreads) == 0 {
			return true
		}
		var elem *model.TypeRef
		if x.Type != nil {
			elem = x.Type.Elem
		}
		return elem.IsValueType() || c.known.IsPureType(elem.QualifiedNames()...)
	case *model.Ident:
		return x.Symbol != nil && locals[x.Symbol]
	case *model.Invocation:
		return c.returnsFresh(x)
	case *model.Conditional:
		return c.fresh(x.Then, locals) && c.fresh(x.Else, locals)
	case *model.SwitchExpr:
		for _, arm := range x.Arms {
			if !c.fresh(arm.Value, locals) {
				return false
			}
		}
		return len(x.Arms) > 0
	}
	return false
}

// component reports whether a constructor argument or initializer value
// keeps the new object unaliased: fresh itself, a value, or immutable.
func (c *checker) component(x model.Expr, locals map[*model.Symbol]bool) bool {
	if x == nil || c.fresh(x, locals) {
		return true
	}
	switch x.(type) {
	case *model.Literal, *model.Lambda, *model.Default:
		return true
	}
	t := x.StaticType()
	return t.IsValueType() || c.known.IsPureType(t.QualifiedNames()...)
}

func (c *checker) returnsFresh(inv *model.Invocation) bool {
	m := inv.Method
	if m == nil {
		return c.known.ReturnsNewObject(c.known.CallCandidates(inv.Candidates, inv.Namespaces, inv.Name, inv.Receiver != nil)...)
	}
	if m.Annotated(types.AnnotationReturnsNewObject) || c.known.ReturnsNewObject(m.QualifiedCandidates()...) {
		return true
	}
	if !m.HasBody() {
		return false
	}
	if c.active[m] {
		return true
	}
	c.active[m] = true
	defer delete(c.active, m)

	locals := c.freshLocals(m.Body)
	returns := model.Returns(m.Body)
	for _, r := range returns {
		if r.Value == nil || !c.fresh(r.Value, locals) {
			return false
		}
	}
	return len(returns) > 0
}

// freshLocals finds the locals every assignment of which is fresh
func (c *checker) freshLocals(body model.Node) map[*model.Symbol]bool {
	assigned := make(map[*model.Symbol][]model.Expr)
	spoiled := make(map[*model.Symbol]bool)
	local := func(x model.Expr) *model.Symbol {
		if id, ok := x.(*model.Ident); ok && id.Symbol != nil && id.Symbol.Kind == types.SymbolKindLocal {
			return id.Symbol
		}
		return nil
	}
	spoilArgs := func(args []model.Argument) {
		for _, a := range args {
			if a.RefKind == model.RefRef || a.RefKind == model.RefOut {
				if sym := local(a.Value); sym != nil {
					spoiled[sym] = true
				}
			}
		}
	}
	model.Inspect(body, true, func(n model.Node) bool {
		switch n := n.(type) {
		case *model.LocalDecl:
			if n.Local != nil && n.Init != nil {
				assigned[n.Local] = append(assigned[n.Local], n.Init)
			}
		case *model.Assign:
			if sym := local(n.Target); sym != nil {
				if n.Op == "=" {
					assigned[sym] = append(assigned[sym], n.Value)
				} else {
					spoiled[sym] = true
				}
			}
		case *model.IncDec:
			if sym := local(n.Target); sym != nil {
				spoiled[sym] = true
			}
		case *model.Invocation:
			spoilArgs(n.Args)
		case *model.ObjectCreation:
			spoilArgs(n.Args)
		case *model.DelegateInvoke:
			spoilArgs(n.Args)
		}
		return true
	})

	locals := make(map[*model.Symbol]bool)
	for sym, values := range assigned {
		if len(values) > 0 && !spoiled[sym] {
			locals[sym] = true
		}
	}
	for changed := true; changed; {
		changed = false
		for sym := range locals {
			for _, v := range assigned[sym] {
				if !c.fresh(v, locals) {
					delete(locals, sym)
					changed = true
					break
				}
			}
		}
	}
	return locals
}

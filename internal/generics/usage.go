// Package generics finds where a type parameter is used as an object:
// where values of the parameter have System.Object members dispatched on
// them, directly or inside the generic members they are handed to.
package generics

import (
	"github.com/standardbeagle/purity/internal/knownsymbols"
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

var objectMemberNames = map[string]bool{
	"ToString":    true,
	"Equals":      true,
	"GetHashCode": true,
}

// FindObjectUsages returns the locations inside scope where tp is used as
// an object. scope is the method declaring tp, or the type for class type
// parameters. An empty result proves tp is never used as an object.
func FindObjectUsages(scope, tp *model.Symbol, known *knownsymbols.Registry) []types.Location {
	f := &finder{known: known, active: make(map[*model.Symbol]bool)}
	return f.find(scope, tp)
}

type finder struct {
	known *knownsymbols.Registry
	// active holds the type parameters being searched on the current path;
	// a cycle through generic calls adds no usage.
	active map[*model.Symbol]bool
}

func (f *finder) find(scope, tp *model.Symbol) []types.Location {
	if f.active[tp] {
		return nil
	}
	f.active[tp] = true
	defer delete(f.active, tp)

	var out []types.Location
	seen := make(map[types.Location]bool)
	for _, body := range bodies(scope) {
		model.Inspect(body, true, func(n model.Node) bool {
			if loc, ok := f.usage(n, tp); ok && !seen[loc] {
				seen[loc] = true
				out = append(out, loc)
			}
			return true
		})
	}
	types.SortLocations(out)
	return out
}

// bodies lists every body and initializer in scope, including nested types
func bodies(scope *model.Symbol) []model.Node {
	if scope.Kind != types.SymbolKindType {
		if scope.Body == nil {
			return nil
		}
		return []model.Node{scope.Body}
	}
	var out []model.Node
	for _, m := range scope.Members {
		if m.Kind == types.SymbolKindType {
			out = append(out, bodies(m)...)
			continue
		}
		if m.Initializer != nil {
			out = append(out, m.Initializer)
		}
		for _, c := range m.Callables() {
			if c.Body != nil {
				out = append(out, c.Body)
			}
		}
	}
	return out
}

func (f *finder) usage(n model.Node, tp *model.Symbol) (types.Location, bool) {
	switch n := n.(type) {
	case *model.Invocation:
		return n.Location, f.invocationUses(n, tp)
	case *model.ObjectCreation:
		t := n.Type.TypeSymbol()
		if t == nil || t.Compiled {
			return n.Location, false
		}
		return n.Location, f.forwards(t, t.TypeParameters, n.Type.Args, tp)
	case *model.Binary:
		if n.Op == "+" && n.Operator == nil {
			lt, rt := n.Left.StaticType(), n.Right.StaticType()
			return n.Location, (lt.IsString() && is(rt, tp)) || (rt.IsString() && is(lt, tp))
		}
	case *model.Interpolation:
		for _, p := range n.Parts {
			if is(p.StaticType(), tp) {
				return p.Loc(), true
			}
		}
	case *model.Cast:
		// boxing to object or an interface
		return n.Location, is(n.Operand.StaticType(), tp) && asObject(n.Type)
	case *model.LocalDecl:
		if n.Init != nil && n.Local != nil && n.Local.Type != nil {
			return n.Location, is(n.Init.StaticType(), tp) && asObject(n.Local.Type)
		}
	case *model.Assign:
		if t := n.Target.StaticType(); t != nil && n.Op == "=" {
			return n.Location, is(n.Value.StaticType(), tp) && asObject(t)
		}
	}
	return types.Location{}, false
}

func (f *finder) invocationUses(inv *model.Invocation, tp *model.Symbol) bool {
	m := inv.Method
	if inv.Receiver != nil && is(inv.Receiver.StaticType(), tp) {
		name := inv.Name
		if m != nil {
			name = m.Name
		}
		if objectMemberNames[name] {
			return true
		}
	}

	for _, a := range inv.Args {
		if !is(a.Value.StaticType(), tp) {
			continue
		}
		switch {
		case m == nil || a.Param == nil:
			// handed to code that cannot be inspected
			return true
		case asObject(a.Param.Type):
			return true
		}
	}

	if m == nil {
		for _, ta := range inv.TypeArgs {
			if mentions(ta, tp) {
				return true
			}
		}
		return false
	}
	if f.forwards(m, m.TypeParameters, inv.TypeArgs, tp) {
		return true
	}
	// members of a generic type instantiated with tp
	recv := inv.ReceiverType
	if recv == nil && inv.Receiver != nil {
		recv = inv.Receiver.StaticType()
	}
	if decl := m.DeclaringType(); decl != nil && recv.TypeSymbol() == decl && !inv.Extension {
		return f.forwardsMember(m, decl.TypeParameters, recv.Args, tp)
	}
	return false
}

// forwards reports whether tp flows into a type parameter of target that
// target uses as an object.
func (f *finder) forwards(target *model.Symbol, params []*model.Symbol, args []*model.TypeRef, tp *model.Symbol) bool {
	for i, arg := range args {
		if i >= len(params) || !mentions(arg, tp) {
			continue
		}
		if f.usedAsObject(target, params[i]) {
			return true
		}
	}
	return false
}

// forwardsMember is forwards for a class type parameter seen through one
// member: only that member's body matters.
func (f *finder) forwardsMember(m *model.Symbol, params []*model.Symbol, args []*model.TypeRef, tp *model.Symbol) bool {
	for i, arg := range args {
		if i >= len(params) || !mentions(arg, tp) {
			continue
		}
		p := params[i]
		if f.declaredUnused(m, p) {
			continue
		}
		if !m.HasBody() {
			if m.Compiled {
				return true
			}
			continue
		}
		if len(f.find(m, p)) > 0 {
			return true
		}
	}
	return false
}

func (f *finder) usedAsObject(scope, p *model.Symbol) bool {
	if f.declaredUnused(scope, p) {
		return false
	}
	if scope.Compiled {
		return true
	}
	return len(f.find(scope, p)) > 0
}

func (f *finder) declaredUnused(m, p *model.Symbol) bool {
	if p.Annotations.Has(types.AnnotationNotUsedAsObject) || f.known.IsNotUsedAsObject(p.QualifiedName) {
		return true
	}
	if attr, ok := m.Attribute(types.AnnotationDoesNotUseClassTypeParameterAsObject); ok {
		for _, a := range attr.Args {
			if a == p.Name {
				return true
			}
		}
	}
	return false
}

func is(t *model.TypeRef, tp *model.Symbol) bool {
	return t != nil && t.Symbol == tp
}

func mentions(t *model.TypeRef, tp *model.Symbol) bool {
	if t == nil {
		return false
	}
	if t.Symbol == tp || mentions(t.Elem, tp) {
		return true
	}
	for _, a := range t.Args {
		if mentions(a, tp) {
			return true
		}
	}
	return false
}

// asObject reports whether converting to t boxes or erases the static type
func asObject(t *model.TypeRef) bool {
	if t == nil || t.IsObject() {
		return true
	}
	if ts := t.TypeSymbol(); ts != nil {
		return ts.IsInterface()
	}
	return false
}

package model

import (
	"sort"
	"strings"

	"github.com/standardbeagle/purity/internal/types"
)

// Substitution maps type parameters to the type arguments of one generic
// instantiation. The zero value is the empty substitution; values are never
// mutated after construction.
type Substitution struct {
	m map[*Symbol]*TypeRef
}

// NewSubstitution pairs params with args by position. Missing arguments
// leave the parameter unresolved.
func NewSubstitution(params []*Symbol, args []*TypeRef) Substitution {
	var s Substitution
	for i, p := range params {
		if i >= len(args) || args[i] == nil {
			continue
		}
		s = s.Extend(p, args[i])
	}
	return s
}

// IsEmpty reports whether nothing is substituted
func (s Substitution) IsEmpty() bool {
	return len(s.m) == 0
}

// Lookup returns the argument bound to the type parameter
func (s Substitution) Lookup(tp *Symbol) (*TypeRef, bool) {
	t, ok := s.m[tp]
	return t, ok
}

// Extend returns a copy with one more binding
func (s Substitution) Extend(tp *Symbol, arg *TypeRef) Substitution {
	m := make(map[*Symbol]*TypeRef, len(s.m)+1)
	for k, v := range s.m {
		m[k] = v
	}
	m[tp] = arg
	return Substitution{m: m}
}

// Compose applies s to every argument of inner and merges the bindings, so
// that type parameters of a caller flow into the callee's instantiation.
func (s Substitution) Compose(inner Substitution) Substitution {
	if s.IsEmpty() {
		return inner
	}
	out := s
	for k, v := range inner.m {
		out = out.Extend(k, s.Apply(v))
	}
	return out
}

// Apply replaces bound type parameters inside t
func (s Substitution) Apply(t *TypeRef) *TypeRef {
	if t == nil || s.IsEmpty() {
		return t
	}
	if t.IsTypeParameter() {
		if arg, ok := s.m[t.Symbol]; ok {
			return arg
		}
		return t
	}
	if t.Elem == nil && len(t.Args) == 0 {
		return t
	}
	cp := *t
	if t.Elem != nil {
		cp.Elem = s.Apply(t.Elem)
	}
	if len(t.Args) > 0 {
		cp.Args = make([]*TypeRef, len(t.Args))
		for i, a := range t.Args {
			cp.Args[i] = s.Apply(a)
		}
	}
	return &cp
}

// Signature renders the bindings canonically. The empty substitution has an
// empty signature.
func (s Substitution) Signature() string {
	if s.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, len(s.m))
	for k, v := range s.m {
		parts = append(parts, k.QualifiedName+"="+v.Signature())
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// Restrict keeps only the bindings of type parameters visible from sym
// (its own and those of enclosing types).
func (s Substitution) Restrict(sym *Symbol) Substitution {
	if s.IsEmpty() || sym == nil {
		return Substitution{}
	}
	var out Substitution
	for _, tp := range sym.AllTypeParameters() {
		if arg, ok := s.m[tp]; ok {
			out = out.Extend(tp, arg)
		}
	}
	return out
}

// TypeArguments returns the type parameters bound to concrete (non type
// parameter) arguments, in declaration order of sym.
func (s Substitution) TypeArguments(sym *Symbol) []TypeBinding {
	var out []TypeBinding
	for _, tp := range sym.AllTypeParameters() {
		if arg, ok := s.m[tp]; ok {
			out = append(out, TypeBinding{Parameter: tp, Argument: arg})
		}
	}
	return out
}

// TypeBinding is one type parameter and its argument
type TypeBinding struct {
	Parameter *Symbol
	Argument  *TypeRef
}

// Resolve follows a type parameter through the substitution, returning the
// bound argument or the parameter's own reference when unbound.
func (s Substitution) Resolve(t *TypeRef) *TypeRef {
	for i := 0; i < 8 && t.IsTypeParameter(); i++ {
		arg, ok := s.m[t.Symbol]
		if !ok || arg == t {
			break
		}
		t = arg
	}
	return t
}

// ownerKind is used by callers that need to know whether a type parameter
// belongs to a method or a type.
func ownerKind(tp *Symbol) types.SymbolKind {
	if tp.Container == nil {
		return types.SymbolKindUnknown
	}
	return tp.Container.Kind
}

// IsMethodTypeParameter reports whether tp is declared by a method
func IsMethodTypeParameter(tp *Symbol) bool {
	k := ownerKind(tp)
	return k == types.SymbolKindMethod || k == types.SymbolKindLocalFunction
}

package csharp

import (
	"strings"

	"github.com/standardbeagle/purity/internal/model"
)

// typeContext is what a type name is resolved against: the namespace
// scope, the enclosing type and the enclosing callable (for method type
// parameters).
type typeContext struct {
	scope  *nsScope
	typ    *model.Symbol
	method *model.Symbol
	file   *File
}

func join(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "." + name
}

// resolveType maps a type syntax node to a reference. It returns nil for
// var and for nodes that are not types.
func (l *Loader) resolveType(n *node, ctx typeContext) *model.TypeRef {
	if n == nil {
		return nil
	}
	src := ctx.file.Src
	switch n.Kind() {
	case "predefined_type":
		return model.Predefined(text(n, src))
	case "implicit_type":
		return nil
	case "identifier", "type_identifier":
		name := text(n, src)
		if model.IsPredefinedKeyword(name) {
			return model.Predefined(name)
		}
		t := l.namedType(name, nil, ctx)
		if name == "var" && t.Symbol == nil {
			return nil
		}
		return t
	case "generic_name":
		name, args := l.genericParts(n, ctx)
		return l.namedType(name, args, ctx)
	case "qualified_name":
		return l.qualifiedType(n, ctx)
	case "alias_qualified_name":
		return l.resolveType(field(n, "name"), ctx)
	case "nullable_type":
		inner := l.resolveType(firstType(n), ctx)
		if inner == nil || !inner.IsValueType() || inner.Nullable {
			return inner
		}
		cp := *inner
		cp.Nullable = true
		return &cp
	case "array_type":
		elem := l.resolveType(field(n, "type"), ctx)
		if elem == nil {
			elem = l.resolveType(firstType(n), ctx)
		}
		return model.ArrayOf(elem)
	case "tuple_type":
		var args []*model.TypeRef
		for _, el := range childrenOf(n, "tuple_element") {
			args = append(args, l.resolveType(firstType(el), ctx))
		}
		return &model.TypeRef{Name: "ValueTuple", Tuple: true, Candidates: []string{"System.ValueTuple"}, Args: args}
	case "pointer_type", "function_pointer_type":
		return model.External("pointer", nil)
	case "ref_type", "scoped_type":
		return l.resolveType(firstType(n), ctx)
	}
	return nil
}

// firstType returns the "type" field or the first child that looks like a type
func firstType(n *node) *node {
	if t := field(n, "type"); t != nil {
		return t
	}
	for _, c := range named(n) {
		if isTypeNode(c.Kind()) {
			return c
		}
	}
	return nil
}

func (l *Loader) genericParts(n *node, ctx typeContext) (string, []*model.TypeRef) {
	name, _ := declName(n, ctx.file.Src)
	var args []*model.TypeRef
	if list := child(n, "type_argument_list"); list != nil {
		for _, a := range named(list) {
			args = append(args, l.resolveType(a, ctx))
		}
	}
	return name, args
}

func (l *Loader) namedType(name string, args []*model.TypeRef, ctx typeContext) *model.TypeRef {
	if sym := l.lookupType(name, len(args), ctx); sym != nil {
		return model.Named(sym, args...)
	}
	if target, ok := ctx.scope.alias(name); ok && len(args) == 0 {
		return l.dottedType(target, ctx)
	}
	return model.External(name, l.candidates(name, ctx), args...)
}

func (l *Loader) qualifiedType(n *node, ctx typeContext) *model.TypeRef {
	src := ctx.file.Src
	qualifier, right := field(n, "qualifier"), field(n, "name")
	if right == nil {
		parts := named(n)
		if len(parts) < 2 {
			return nil
		}
		qualifier, right = parts[0], parts[len(parts)-1]
	}
	var (
		name string
		args []*model.TypeRef
	)
	if right.Kind() == "generic_name" {
		name, args = l.genericParts(right, ctx)
	} else {
		name = text(right, src)
	}
	left := strings.TrimPrefix(text(qualifier, src), "global::")
	if target, ok := ctx.scope.alias(left); ok {
		left = target
	}
	full := left + "." + name
	if sym := l.comp.LookupGeneric(full, len(args)); sym != nil {
		return model.Named(sym, args...)
	}
	if outer := l.resolveType(qualifier, ctx).TypeSymbol(); outer != nil {
		if nested := nestedType(outer, name, len(args)); nested != nil {
			return model.Named(nested, args...)
		}
	}
	return model.External(name, l.qualifiedCandidates(full, ctx), args...)
}

// dottedType resolves a name written as text, as in an alias target. Type
// arguments in the text are dropped.
func (l *Loader) dottedType(dotted string, ctx typeContext) *model.TypeRef {
	if i := strings.IndexByte(dotted, '<'); i >= 0 {
		dotted = dotted[:i]
	}
	if sym := l.comp.LookupType(dotted); sym != nil {
		return model.Named(sym)
	}
	name := dotted
	if i := strings.LastIndexByte(dotted, '.'); i >= 0 {
		name = dotted[i+1:]
	}
	if !strings.Contains(dotted, ".") {
		if sym := l.lookupType(name, 0, ctx); sym != nil {
			return model.Named(sym)
		}
	}
	return model.External(name, l.qualifiedCandidates(dotted, ctx))
}

// lookupType finds a source or reference type by simple name as seen
// from ctx: type parameters, nested types of the enclosing types, the
// enclosing namespaces, then the imported ones.
func (l *Loader) lookupType(name string, arity int, ctx typeContext) *model.Symbol {
	if arity == 0 {
		for _, owner := range []*model.Symbol{ctx.method, ctx.typ} {
			if owner == nil {
				continue
			}
			for _, tp := range owner.AllTypeParameters() {
				if tp.Name == name {
					return tp
				}
			}
		}
	}
	for t := ctx.typ; t != nil; t = t.DeclaringType() {
		if nested := nestedType(t, name, arity); nested != nil {
			return nested
		}
	}
	for _, ns := range ctx.scope.enclosing() {
		if t := l.comp.LookupGeneric(join(ns, name), arity); t != nil {
			return t
		}
	}
	for _, ns := range ctx.scope.imported(l.globalUsings) {
		if t := l.comp.LookupGeneric(ns+"."+name, arity); t != nil {
			return t
		}
	}
	return nil
}

func nestedType(t *model.Symbol, name string, arity int) *model.Symbol {
	seen := make(map[*model.Symbol]bool)
	for c := t; c != nil && !seen[c]; c = c.BaseClass() {
		seen[c] = true
		for _, m := range c.Members {
			if m.IsType() && m.Name == name && m.Arity() == arity {
				return m
			}
		}
	}
	return nil
}

// candidates lists the qualified names an unresolved simple type name may
// denote: the global namespace first, then every imported and enclosing
// namespace.
func (l *Loader) candidates(name string, ctx typeContext) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(name)
	for _, ns := range ctx.scope.imported(l.globalUsings) {
		add(ns + "." + name)
	}
	for _, ns := range ctx.scope.enclosing() {
		add(join(ns, name))
	}
	return out
}

// qualifiedCandidates is candidates for a name written with a namespace
// prefix, which may itself be relative to an imported namespace.
func (l *Loader) qualifiedCandidates(full string, ctx typeContext) []string {
	out := []string{full}
	for _, ns := range ctx.scope.enclosing() {
		if ns != "" {
			out = append(out, ns+"."+full)
		}
	}
	return out
}

package csharp

import (
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

// operatorNames maps overloadable operator tokens to their metadata names
var operatorNames = map[string]string{
	"+": "op_Addition", "-": "op_Subtraction", "*": "op_Multiply", "/": "op_Division",
	"%": "op_Modulus", "==": "op_Equality", "!=": "op_Inequality", "<": "op_LessThan",
	">": "op_GreaterThan", "<=": "op_LessThanOrEqual", ">=": "op_GreaterThanOrEqual",
	"!": "op_LogicalNot", "~": "op_OnesComplement", "++": "op_Increment", "--": "op_Decrement",
	"&": "op_BitwiseAnd", "|": "op_BitwiseOr", "^": "op_ExclusiveOr", "<<": "op_LeftShift",
	">>": "op_RightShift", ">>>": "op_UnsignedRightShift", "true": "op_True", "false": "op_False",
}

func (l *Loader) declareType(n *node, f *File, scope *nsScope, outer *model.Symbol, flavor model.TypeFlavor, compiled bool) {
	name, id := declName(n, f.Src)
	if name == "" {
		return
	}
	if n.Kind() == "record_declaration" && hasToken(n, "struct") {
		flavor = model.FlavorStruct
	}
	qn := join(scope.innermost(), name)
	if outer != nil {
		qn = outer.QualifiedName + "." + name
	}
	mods := modifiers(n, f.Src)
	sym := &model.Symbol{
		Kind:          types.SymbolKindType,
		Name:          name,
		QualifiedName: qn,
		Namespace:     scope.innermost(),
		Container:     outer,
		Location:      location(id, f.Path),
		Flavor:        flavor,
		Static:        mods["static"],
		Abstract:      mods["abstract"] || flavor == model.FlavorInterface,
		Compiled:      compiled,
	}
	l.attributes(n, f, sym)
	l.declareTypeParameters(n, f, sym)
	sym.ID = model.NewSymbolID("type", qn, itoa(sym.Arity()))

	merged := l.comp.AddType(sym)
	if merged == sym && outer != nil {
		outer.Members = append(outer.Members, sym)
	}
	l.decls = append(l.decls, &typeDecl{sym: merged, node: n, scope: scope, file: f, compiled: compiled})

	if body := field(n, "body"); body != nil {
		l.collect(body, f, scope, merged, compiled)
	} else if body := child(n, "declaration_list"); body != nil {
		l.collect(body, f, scope, merged, compiled)
	}
}

// attributes records the attribute applications written on a declaration,
// in its own attribute lists or as preceding siblings.
func (l *Loader) attributes(n *node, f *File, sym *model.Symbol) {
	lists := childrenOf(n, "attribute_list")
	for _, list := range lists {
		if target := child(list, "attribute_target_specifier"); target != nil && text(target, f.Src) == "return:" {
			continue
		}
		for _, a := range childrenOf(list, "attribute") {
			name := text(field(a, "name"), f.Src)
			if name == "" {
				if nameNode := child(a, "identifier", "qualified_name", "generic_name"); nameNode != nil {
					name = text(nameNode, f.Src)
				}
			}
			attr := model.Attribute{Name: name, Location: location(a, f.Path)}
			if args := child(a, "attribute_argument_list"); args != nil {
				for _, arg := range childrenOf(args, "attribute_argument") {
					value := arg
					if parts := named(arg); len(parts) > 0 {
						value = parts[len(parts)-1]
					}
					attr.Args = append(attr.Args, unquote(text(value, f.Src)))
				}
			}
			if ann, ok := types.AnnotationFromAttribute(name); ok {
				attr.Annotation = ann
				sym.Annotations |= ann
			}
			sym.Attributes = append(sym.Attributes, attr)
		}
	}
}

func (l *Loader) declareTypeParameters(n *node, f *File, owner *model.Symbol) {
	list := field(n, "type_parameters")
	if list == nil {
		list = child(n, "type_parameter_list")
	}
	for i, tpNode := range childrenOf(list, "type_parameter") {
		name, id := declName(tpNode, f.Src)
		tp := &model.Symbol{
			Kind:          types.SymbolKindTypeParameter,
			Name:          name,
			QualifiedName: owner.QualifiedName + "." + name,
			Container:     owner,
			Location:      location(id, f.Path),
			Ordinal:       i,
			Compiled:      owner.Compiled,
		}
		l.attributes(tpNode, f, tp)
		tp.ID = model.NewSymbolID("type-parameter", tp.QualifiedName)
		owner.TypeParameters = append(owner.TypeParameters, tp)
	}
}

// resolveHeader binds what a type declaration says about other types:
// base list, constraints and, for delegates, the invoke signature.
func (l *Loader) resolveHeader(d *typeDecl) {
	ctx := typeContext{scope: d.scope, typ: d.sym, file: d.file}
	if d.sym.Flavor != model.FlavorEnum {
		if list := child(d.node, "base_list"); list != nil {
			for _, b := range named(list) {
				t := b
				if b.Kind() == "primary_constructor_base_type" {
					t = firstType(b)
				}
				if ref := l.resolveType(t, ctx); ref != nil && !hasBase(d.sym, ref) {
					d.sym.Bases = append(d.sym.Bases, ref)
				}
			}
		}
	}
	l.constraints(d.node, d.sym, ctx)

	if d.sym.Flavor == model.FlavorDelegate {
		d.sym.Type = l.resolveType(field(d.node, "type", "returns"), ctx)
		d.sym.Parameters = l.declareParameters(d.node, d.file, d.sym)
		for i, p := range d.sym.Parameters {
			p.Type = l.resolveType(firstType(parameterNodes(d.node)[i]), ctx)
		}
	}
}

func hasBase(t *model.Symbol, ref *model.TypeRef) bool {
	for _, b := range t.Bases {
		if model.SameType(b, ref) {
			return true
		}
	}
	return false
}

// constraints binds the where clauses of a declaration to the type
// parameters it declares.
func (l *Loader) constraints(n *node, owner *model.Symbol, ctx typeContext) {
	src := ctx.file.Src
	for _, clause := range childrenOf(n, "type_parameter_constraints_clause") {
		target := field(clause, "target")
		if target == nil {
			target = child(clause, "identifier")
		}
		tp := owner.TypeParameter(text(target, src))
		if tp == nil {
			continue
		}
		for _, c := range childrenOf(clause, "type_parameter_constraint") {
			switch t := text(c, src); t {
			case "class", "class?":
				tp.ClassConstraint = true
			case "struct", "unmanaged":
				tp.StructConstraint = true
			case "notnull", "new()", "default":
			default:
				if ref := l.resolveType(firstType(c), ctx); ref != nil {
					tp.Constraints = append(tp.Constraints, ref)
				}
			}
		}
	}
}

// parameterNodes returns the parameter syntax of a callable declaration
func parameterNodes(n *node) []*node {
	list := field(n, "parameters")
	if list == nil {
		list = child(n, "parameter_list", "bracketed_parameter_list")
	}
	return childrenOf(list, "parameter")
}

// declareParameters creates the parameter symbols of a callable; types are
// resolved by the caller.
func (l *Loader) declareParameters(n *node, f *File, owner *model.Symbol) []*model.Symbol {
	var out []*model.Symbol
	for i, pn := range parameterNodes(n) {
		name, id := declName(pn, f.Src)
		p := &model.Symbol{
			Kind:          types.SymbolKindParameter,
			Name:          name,
			QualifiedName: owner.QualifiedName + "." + name,
			Container:     owner,
			Owner:         owner,
			Location:      location(id, f.Path),
			Ordinal:       i,
			Compiled:      owner.Compiled,
		}
		for _, c := range children(pn) {
			switch text(c, f.Src) {
			case "ref":
				p.RefKind = model.RefRef
			case "out":
				p.RefKind = model.RefOut
			case "in":
				p.RefKind = model.RefIn
			case "this":
				if i == 0 {
					owner.Extension = true
				}
			}
		}
		if def := defaultValue(pn); def != nil {
			p.Initializer = &model.Literal{Span: model.Span{Location: location(def, f.Path)}, Text: text(def, f.Src)}
		}
		if hasToken(pn, "params") || modifiers(pn, f.Src)["params"] {
			// params arrays accept zero arguments
			p.Initializer = &model.ArrayCreation{Span: model.Span{Location: p.Location}}
		}
		p.ID = model.NewSymbolID("parameter", p.QualifiedName, itoa(i), p.Location.File, itoa(p.Location.Offset))
		out = append(out, p)
	}
	return out
}

// defaultValue returns the expression after "=" in a parameter
func defaultValue(pn *node) *node {
	seenEq := false
	for _, c := range children(pn) {
		if !c.IsNamed() && c.Kind() == "=" {
			seenEq = true
			continue
		}
		if seenEq && c.IsNamed() {
			return c
		}
		if c.Kind() == "equals_value_clause" {
			if parts := named(c); len(parts) > 0 {
				return parts[0]
			}
		}
	}
	return nil
}

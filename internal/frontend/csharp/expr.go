package csharp

import (
	"strings"

	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

func (b *binder) expr(n *node) model.Expr {
	return b.exprWant(n, nil)
}

// must lowers n and never returns nil, for operands the walker reads the
// type of unconditionally.
func (b *binder) must(n *node, want *model.TypeRef) model.Expr {
	if x := b.exprWant(n, want); x != nil {
		return x
	}
	return &model.Opaque{Span: b.span(n), What: "missing"}
}

// exprWant lowers an expression. want is the type the context expects; it
// types target-typed new() and lambda parameters and may be nil.
func (b *binder) exprWant(n *node, want *model.TypeRef) model.Expr {
	if n == nil {
		return nil
	}
	span := b.span(n)
	switch n.Kind() {
	case "parenthesized_expression", "checked_expression", "ref_expression":
		return b.exprWant(firstNamed(n), want)
	case "identifier":
		return b.identifier(n)
	case "generic_name":
		return b.genericName(n)
	case "this_expression", "this":
		return &model.This{Span: span, Type: b.thisType()}
	case "base_expression", "base":
		return &model.This{Span: span, Type: b.baseType(), Base: true}
	case "predefined_type", "qualified_name", "alias_qualified_name", "nullable_type", "array_type":
		return &model.TypeExpr{Span: span, Type: b.typeOf(n)}
	case "integer_literal", "real_literal", "string_literal", "verbatim_string_literal", "raw_string_literal",
		"character_literal", "boolean_literal", "null_literal", "utf8_string_literal":
		return b.literal(n)
	case "interpolated_string_expression":
		return b.interpolation(n)
	case "member_access_expression":
		return b.memberAccess(n)
	case "invocation_expression":
		return b.invocation(n)
	case "element_access_expression":
		list := field(n, "subscript")
		if list == nil {
			list = child(n, "bracketed_argument_list")
		}
		return b.elementOf(b.expr(field(n, "expression")), list, span)
	case "conditional_access_expression":
		return b.conditionalAccess(n)
	case "member_binding_expression":
		name, typeArgs := b.simpleName(field(n, "name"))
		return b.memberOf(b.condRecv, name, typeArgs, span)
	case "element_binding_expression":
		return b.elementOf(b.condRecv, child(n, "bracketed_argument_list"), span)
	case "assignment_expression":
		return b.assignment(n)
	case "binary_expression":
		return b.binary(n, want)
	case "prefix_unary_expression", "pointer_indirection_expression":
		return b.prefixUnary(n)
	case "postfix_unary_expression":
		return b.postfixUnary(n)
	case "conditional_expression":
		then := b.exprWant(field(n, "consequence"), want)
		els := b.exprWant(field(n, "alternative"), want)
		return &model.Conditional{
			Span: span,
			Cond: b.expr(field(n, "condition")),
			Then: then,
			Else: els,
			Type: firstKnown(typeOfExpr(then), typeOfExpr(els), want),
		}
	case "cast_expression":
		t := b.typeOf(field(n, "type"))
		return &model.Cast{Span: span, Type: t, Operand: b.must(field(n, "value"), t)}
	case "as_expression":
		parts := named(n)
		left, right := field(n, "left"), field(n, "right")
		if left == nil && len(parts) == 2 {
			left, right = parts[0], parts[1]
		}
		return &model.Cast{Span: span, Type: b.typeOf(right), Operand: b.must(left, nil), As: true}
	case "is_expression":
		return &model.Opaque{Span: span, What: "is", Children: nonNil(b.expr(firstNamed(n))), Type: model.BoolType}
	case "is_pattern_expression":
		subject := b.expr(field(n, "expression"))
		parts := append([]model.Node{subject}, b.pattern(field(n, "pattern"), typeOfExpr(subject))...)
		return &model.Opaque{Span: span, What: "is", Children: nonNil(parts...), Type: model.BoolType}
	case "object_creation_expression", "implicit_object_creation_expression":
		return b.objectCreation(n, want)
	case "anonymous_object_creation_expression":
		var parts []model.Node
		for _, c := range named(n) {
			if c.Kind() == "name_equals" {
				continue
			}
			parts = append(parts, b.expr(c))
		}
		return &model.Opaque{Span: span, What: "anonymous object", Children: nonNil(parts...)}
	case "array_creation_expression", "implicit_array_creation_expression", "stackalloc_expression",
		"implicit_stackalloc_expression", "collection_expression", "initializer_expression":
		return b.arrayCreation(n, want)
	case "lambda_expression", "anonymous_method_expression":
		return b.lambda(n, want)
	case "switch_expression":
		return b.switchExpression(n, want)
	case "tuple_expression":
		var parts []model.Node
		var args []*model.TypeRef
		for _, a := range childrenOf(n, "argument") {
			v := b.expr(argValue(a))
			parts = append(parts, v)
			args = append(args, typeOfExpr(v))
		}
		return &model.Opaque{Span: span, What: "tuple", Children: nonNil(parts...),
			Type: &model.TypeRef{Name: "ValueTuple", Tuple: true, Candidates: []string{"System.ValueTuple"}, Args: args}}
	case "declaration_expression":
		return b.declarationExpression(n, want)
	case "default_expression":
		t := b.typeOf(firstType(n))
		if t == nil {
			t = want
		}
		return &model.Default{Span: span, Type: t}
	case "typeof_expression":
		return &model.Literal{Span: span, Text: b.text(n), Type: model.External("Type", []string{"System.Type"})}
	case "sizeof_expression":
		return &model.Literal{Span: span, Text: b.text(n), Type: model.Predefined("int")}
	case "throw_expression":
		return &model.Opaque{Span: span, What: "throw", Children: nonNil(b.expr(firstNamed(n))), Type: want}
	case "await_expression":
		x := b.expr(firstNamed(n))
		return &model.Opaque{Span: span, What: "await", Children: nonNil(x), Type: awaitedType(typeOfExpr(x))}
	case "with_expression":
		return b.with(n)
	case "query_expression":
		return b.query(n)
	case "range_expression":
		var parts []model.Node
		for _, c := range named(n) {
			parts = append(parts, b.expr(c))
		}
		return &model.Opaque{Span: span, What: "range", Children: nonNil(parts...), Type: model.External("Range", []string{"System.Range"})}
	}
	var parts []model.Node
	for _, c := range named(n) {
		if isStatement(c.Kind()) {
			parts = append(parts, b.stmt(c))
		} else {
			parts = append(parts, b.expr(c))
		}
	}
	return &model.Opaque{Span: span, What: n.Kind(), Children: nonNil(parts...)}
}

func (b *binder) literal(n *node) model.Expr {
	span := b.span(n)
	t := b.text(n)
	lit := &model.Literal{Span: span, Text: t}
	switch n.Kind() {
	case "null_literal":
		lit.Null = true
	case "boolean_literal":
		lit.Type = model.BoolType
	case "character_literal":
		lit.Type = model.Predefined("char")
	case "integer_literal":
		s := strings.ToLower(t)
		switch {
		case strings.HasSuffix(s, "ul") || strings.HasSuffix(s, "lu"):
			lit.Type = model.Predefined("ulong")
		case strings.HasSuffix(s, "u") && !strings.HasPrefix(s, "0x"):
			lit.Type = model.Predefined("uint")
		case strings.HasSuffix(s, "l"):
			lit.Type = model.Predefined("long")
		default:
			lit.Type = model.Predefined("int")
		}
	case "real_literal":
		s := strings.ToLower(t)
		switch {
		case strings.HasSuffix(s, "f"):
			lit.Type = model.Predefined("float")
		case strings.HasSuffix(s, "m"):
			lit.Type = model.Predefined("decimal")
		default:
			lit.Type = model.Predefined("double")
		}
	default:
		lit.Type = model.StringType
	}
	return lit
}

func (b *binder) interpolation(n *node) model.Expr {
	out := &model.Interpolation{Span: b.span(n)}
	for _, part := range childrenOf(n, "interpolation") {
		for _, c := range named(part) {
			switch c.Kind() {
			case "interpolation_alignment_clause", "interpolation_format_clause", "interpolation_brace":
				continue
			}
			if x := b.expr(c); x != nil {
				out.Parts = append(out.Parts, x)
			}
			break
		}
	}
	return out
}

// identifier resolves a simple name: locals and parameters, members of
// the enclosing types, types, then members inherited from a compiled base.
func (b *binder) identifier(n *node) model.Expr {
	name := b.text(n)
	span := b.span(n)
	if sym := b.locals.lookup(name); sym != nil {
		if sym.Kind == types.SymbolKindLocalFunction {
			return &model.MethodGroup{Span: span, Method: sym, Name: name}
		}
		return &model.Ident{Span: span, Symbol: sym, Name: name}
	}
	if x := b.implicitMember(name, span); x != nil {
		return x
	}
	if t := b.l.lookupType(name, 0, b.ctx); t != nil {
		return &model.TypeExpr{Span: span, Type: model.Named(t)}
	}
	if base := b.externalBase(); base != nil && !b.static {
		return &model.MemberAccess{Span: span, Receiver: b.implicitThis(span), Name: name,
			Candidates: suffixed(typeNames(base), name)}
	}
	return &model.Ident{Span: span, Name: name}
}

// implicitMember finds a field, property or method of the enclosing types
func (b *binder) implicitMember(name string, span model.Span) model.Expr {
	for t := b.decl.sym; t != nil; t = t.DeclaringType() {
		self := t == b.decl.sym
		if m := t.LookupMember(name); m != nil {
			var recv model.Expr
			recvType := model.Named(t)
			if !m.Static && self {
				recv = b.implicitThis(span)
				recvType = b.thisType()
			}
			return &model.MemberAccess{Span: span, Receiver: recv, Member: m, Name: name, Type: memberType(recvType, m)}
		}
		if m := t.LookupMethod(name, -1); m != nil {
			var recv model.Expr
			if !m.Static && self {
				recv = b.implicitThis(span)
			}
			return &model.MethodGroup{Span: span, Method: m, Receiver: recv, Name: name}
		}
	}
	return nil
}

func (b *binder) implicitThis(span model.Span) *model.This {
	return &model.This{Span: span, Type: b.thisType(), Implicit: true}
}

// baseType is the type "base" refers to
func (b *binder) baseType() *model.TypeRef {
	for _, base := range b.decl.sym.Bases {
		if ts := base.TypeSymbol(); ts != nil && !ts.IsInterface() {
			return base
		}
		if base.Symbol == nil && !looksLikeInterface(base.Name) {
			return base
		}
	}
	return model.ObjectType
}

// externalBase returns the first compiled class the enclosing type derives
// from, directly or through source bases. Unresolved simple names may be
// members inherited from it.
func (b *binder) externalBase() *model.TypeRef {
	seen := make(map[*model.Symbol]bool)
	for t := b.decl.sym; t != nil && !seen[t]; t = t.BaseClass() {
		seen[t] = true
		for _, base := range t.Bases {
			if base.Symbol == nil && !looksLikeInterface(base.Name) {
				return base
			}
		}
	}
	return nil
}

func (b *binder) simpleName(n *node) (string, []*model.TypeRef) {
	if n == nil {
		return "", nil
	}
	if n.Kind() == "generic_name" {
		return b.l.genericParts(n, b.ctx)
	}
	return b.text(n), nil
}

// genericName is M<T> used as a value: a generic type or a method group
func (b *binder) genericName(n *node) model.Expr {
	span := b.span(n)
	name, args := b.simpleName(n)
	if t := b.l.lookupType(name, len(args), b.ctx); t != nil {
		return &model.TypeExpr{Span: span, Type: model.Named(t, args...)}
	}
	if g, ok := b.implicitMember(name, span).(*model.MethodGroup); ok {
		return g
	}
	return &model.TypeExpr{Span: span, Type: model.External(name, b.l.candidates(name, b.ctx), args...)}
}

func (b *binder) memberAccess(n *node) model.Expr {
	span := b.span(n)
	recvNode := field(n, "expression")
	name, typeArgs := b.simpleName(field(n, "name"))
	if hasToken(n, "->") {
		return &model.Effect{Span: span, What: "pointer member access", Children: nonNil(b.expr(recvNode))}
	}
	recv, path := b.receiver(recvNode)
	if path != "" {
		return b.pathType(path+"."+name, name, typeArgs, span)
	}
	return b.memberOf(recv, name, typeArgs, span)
}

// pathType resolves a dotted name whose prefix is a namespace
func (b *binder) pathType(full, name string, typeArgs []*model.TypeRef, span model.Span) *model.TypeExpr {
	if t := b.l.comp.LookupGeneric(full, len(typeArgs)); t != nil {
		return &model.TypeExpr{Span: span, Type: model.Named(t, typeArgs...)}
	}
	return &model.TypeExpr{Span: span, Type: model.External(name, b.l.qualifiedCandidates(full, b.ctx), typeArgs...)}
}

// receiver lowers the left side of a member access. When the left side
// names a namespace, path holds it and the expression is nil.
func (b *binder) receiver(n *node) (x model.Expr, path string) {
	if n == nil {
		return nil, ""
	}
	span := b.span(n)
	switch n.Kind() {
	case "identifier":
		name := b.text(n)
		if b.locals.lookup(name) != nil {
			return b.identifier(n), ""
		}
		if x := b.implicitMember(name, span); x != nil {
			return x, ""
		}
		if t := b.l.lookupType(name, 0, b.ctx); t != nil {
			return &model.TypeExpr{Span: span, Type: model.Named(t)}, ""
		}
		if target, ok := b.ctx.scope.alias(name); ok {
			if b.l.namespaces[target] {
				return nil, target
			}
			return &model.TypeExpr{Span: span, Type: b.l.dottedType(target, b.ctx)}, ""
		}
		if b.l.namespaces[name] {
			return nil, name
		}
		if startsUpper(name) {
			return &model.TypeExpr{Span: span, Type: model.External(name, b.l.candidates(name, b.ctx))}, ""
		}
		return b.identifier(n), ""
	case "member_access_expression":
		if hasToken(n, "->") {
			break
		}
		name, typeArgs := b.simpleName(field(n, "name"))
		inner, innerPath := b.receiver(field(n, "expression"))
		if innerPath != "" {
			full := innerPath + "." + name
			if len(typeArgs) == 0 && b.l.comp.LookupType(full) == nil && b.l.namespaces[full] {
				return nil, full
			}
			return b.pathType(full, name, typeArgs, span), ""
		}
		if te, ok := inner.(*model.TypeExpr); ok {
			if ts := te.Type.TypeSymbol(); ts != nil {
				if nested := nestedType(ts, name, len(typeArgs)); nested != nil {
					return &model.TypeExpr{Span: span, Type: model.Named(nested, typeArgs...)}, ""
				}
			}
		}
		return b.memberOf(inner, name, typeArgs, span), ""
	case "generic_name":
		return b.genericName(n), ""
	case "alias_qualified_name":
		return b.receiver(field(n, "name"))
	}
	return b.expr(n), ""
}

// memberOf lowers recv.name where recv is a value or a type
func (b *binder) memberOf(recv model.Expr, name string, typeArgs []*model.TypeRef, span model.Span) model.Expr {
	if te, ok := recv.(*model.TypeExpr); ok {
		t := te.Type
		if ts := t.TypeSymbol(); ts != nil {
			if nested := nestedType(ts, name, len(typeArgs)); nested != nil {
				return &model.TypeExpr{Span: span, Type: model.Named(nested, typeArgs...)}
			}
			if m := ts.LookupMember(name); m != nil {
				return &model.MemberAccess{Span: span, Member: m, Name: name, Type: memberType(t, m), StaticAccess: true}
			}
			if m := ts.LookupMethod(name, -1); m != nil {
				return &model.MethodGroup{Span: span, Method: m, Name: name}
			}
		}
		return &model.MemberAccess{Span: span, Name: name, Candidates: suffixed(typeNames(t), name),
			Type: knownMemberType(t, name), StaticAccess: true}
	}
	recvType := typeOfExpr(recv)
	if m := memberOn(recvType, name); m != nil {
		return &model.MemberAccess{Span: span, Receiver: recv, Member: m, Name: name, Type: memberType(recvType, m)}
	}
	if m := methodOn(recvType, name, -1); m != nil {
		return &model.MethodGroup{Span: span, Method: m, Receiver: recv, Name: name}
	}
	return &model.MemberAccess{Span: span, Receiver: recv, Name: name, Candidates: suffixed(typeNames(recvType), name),
		Type: knownMemberType(recvType, name)}
}

func (b *binder) elementOf(recv model.Expr, list *node, span model.Span) model.Expr {
	argNodes := argumentNodes(list)
	recvType := typeOfExpr(recv)
	ea := &model.ElementAccess{Span: span, Receiver: recv}
	var params []*model.Symbol
	var subst model.Substitution
	for _, ts := range lookupTargets(recvType) {
		if ix := ts.LookupIndexer(len(argNodes)); ix != nil {
			ea.Indexer = ix
			params = ix.Parameters
			subst = memberSubst(recvType, ix.DeclaringType())
			ea.Type = subst.Apply(ix.Type)
			break
		}
	}
	ea.Args = b.arguments(argNodes, params, 0, subst)
	if ea.Type == nil {
		ea.Type = indexedType(recvType)
	}
	return ea
}

// conditionalAccess lowers a?.b: the binding part reads the receiver
// through condRecv.
func (b *binder) conditionalAccess(n *node) model.Expr {
	cond := field(n, "condition")
	parts := named(n)
	if cond == nil && len(parts) > 0 {
		cond = parts[0]
	}
	if len(parts) < 2 {
		return b.expr(cond)
	}
	saved := b.condRecv
	b.condRecv = b.expr(cond)
	defer func() { b.condRecv = saved }()
	return b.expr(parts[len(parts)-1])
}

func (b *binder) assignment(n *node) model.Expr {
	left := b.must(field(n, "left"), nil)
	op := operatorText(n, b.file.Src)
	lt := typeOfExpr(left)
	right := b.must(field(n, "right"), lt)
	a := &model.Assign{Span: b.span(n), Target: left, Value: right, Op: op}
	if op != "=" && op != "??=" {
		a.Operator = userOperator(strings.TrimSuffix(op, "="), lt, typeOfExpr(right), 2)
	}
	return a
}

// operatorText returns the operator token of an operator expression
func operatorText(n *node, src []byte) string {
	if op := field(n, "operator"); op != nil {
		return text(op, src)
	}
	for _, c := range children(n) {
		if !c.IsNamed() {
			return c.Kind()
		}
	}
	return ""
}

func (b *binder) binary(n *node, want *model.TypeRef) model.Expr {
	span := b.span(n)
	op := operatorText(n, b.file.Src)
	leftNode, rightNode := field(n, "left"), field(n, "right")
	switch op {
	case "as":
		return &model.Cast{Span: span, Type: b.typeOf(rightNode), Operand: b.must(leftNode, nil), As: true}
	case "is":
		return &model.Opaque{Span: span, What: "is", Children: nonNil(b.expr(leftNode)), Type: model.BoolType}
	case "??":
		l := b.must(leftNode, want)
		r := b.must(rightNode, firstKnown(typeOfExpr(l), want))
		return &model.Conditional{Span: span, Then: l, Else: r, Type: firstKnown(typeOfExpr(l), typeOfExpr(r))}
	}
	l, r := b.must(leftNode, nil), b.must(rightNode, nil)
	lt, rt := typeOfExpr(l), typeOfExpr(r)
	bin := &model.Binary{Span: span, Op: op, Left: l, Right: r, Operator: userOperator(op, lt, rt, 2)}
	switch {
	case bin.Operator != nil:
		bin.Type = bin.Operator.Type
	case isComparison(op):
		bin.Type = model.BoolType
	case op == "+" && (lt.IsString() || rt.IsString()):
		bin.Type = model.StringType
	default:
		bin.Type = firstKnown(lt, rt)
	}
	return bin
}

func isComparison(op string) bool {
	switch op {
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
		return true
	}
	return false
}

func (b *binder) prefixUnary(n *node) model.Expr {
	span := b.span(n)
	op := operatorText(n, b.file.Src)
	operand := field(n, "operand")
	if operand == nil {
		operand = firstNamed(n)
	}
	if n.Kind() == "pointer_indirection_expression" {
		op = "*"
	}
	switch op {
	case "++", "--":
		target := b.must(operand, nil)
		return &model.IncDec{Span: span, Target: target, Op: op, Operator: userOperator(op, typeOfExpr(target), nil, 1)}
	case "*":
		return &model.Effect{Span: span, What: "pointer indirection", Children: nonNil(b.expr(operand))}
	case "&":
		return &model.Effect{Span: span, What: "address-of operator", Children: nonNil(b.expr(operand))}
	case "^":
		return &model.Opaque{Span: span, What: "index", Children: nonNil(b.expr(operand)),
			Type: model.External("Index", []string{"System.Index"})}
	}
	x := b.must(operand, nil)
	u := &model.Unary{Span: span, Op: op, Operand: x, Operator: userOperator(op, typeOfExpr(x), nil, 1)}
	switch {
	case u.Operator != nil:
		u.Type = u.Operator.Type
	case op == "!":
		u.Type = model.BoolType
	default:
		u.Type = typeOfExpr(x)
	}
	return u
}

func (b *binder) postfixUnary(n *node) model.Expr {
	operand := field(n, "operand")
	if operand == nil {
		operand = firstNamed(n)
	}
	op := ""
	for _, c := range children(n) {
		if !c.IsNamed() {
			op = c.Kind()
		}
	}
	switch op {
	case "++", "--":
		target := b.must(operand, nil)
		return &model.IncDec{Span: b.span(n), Target: target, Op: op, Operator: userOperator(op, typeOfExpr(target), nil, 1)}
	}
	// x! only silences nullability
	return b.expr(operand)
}

func userOperator(op string, lt, rt *model.TypeRef, argc int) *model.Symbol {
	for _, t := range []*model.TypeRef{lt, rt} {
		if ts := t.TypeSymbol(); ts != nil {
			if m := ts.LookupOperator(op, argc); m != nil {
				return m
			}
		}
	}
	return nil
}

func (b *binder) objectCreation(n *node, want *model.TypeRef) model.Expr {
	span := b.span(n)
	var t *model.TypeRef
	if n.Kind() == "implicit_object_creation_expression" {
		t = want
	} else {
		t = b.typeOf(firstType(n))
	}
	argList := field(n, "arguments")
	if argList == nil {
		argList = child(n, "argument_list")
	}
	argNodes := argumentNodes(argList)
	// new Func<int>(M) is the method group or lambda itself
	if isDelegate(t) && len(argNodes) == 1 {
		return b.must(argValue(argNodes[0]), t)
	}
	oc := &model.ObjectCreation{Span: span, Type: t}
	var params []*model.Symbol
	var subst model.Substitution
	ts := t.TypeSymbol()
	if ts != nil {
		subst = model.NewSubstitution(ts.TypeParameters, t.Args)
		if !ts.IsInterface() {
			if oc.Constructor = ts.LookupConstructor(len(argNodes)); oc.Constructor != nil {
				params = oc.Constructor.Parameters
			}
		}
	}
	oc.Args = b.arguments(argNodes, params, 0, subst)
	init := field(n, "initializer")
	if init == nil {
		init = child(n, "initializer_expression")
	}
	if init != nil {
		b.initializers(oc, init, ts, subst)
	}
	return oc
}

func (b *binder) initializers(oc *model.ObjectCreation, init *node, ts *model.Symbol, subst model.Substitution) {
	for _, e := range named(init) {
		switch e.Kind() {
		case "assignment_expression":
			left, right := field(e, "left"), field(e, "right")
			if left != nil && left.Kind() == "identifier" {
				name := b.text(left)
				var member *model.Symbol
				var want *model.TypeRef
				if ts != nil {
					if member = ts.LookupMember(name); member != nil {
						want = subst.Apply(member.Type)
					}
				}
				oc.Initializers = append(oc.Initializers, model.Initializer{
					Location: b.loc(e),
					Member:   member,
					Name:     name,
					Value:    b.must(right, want),
				})
				continue
			}
			// [key] = value
			var parts []model.Node
			list := child(left, "bracketed_argument_list")
			if list == nil && left != nil && left.Kind() == "bracketed_argument_list" {
				list = left
			}
			for _, a := range argumentNodes(list) {
				parts = append(parts, b.expr(argValue(a)))
			}
			parts = append(parts, b.expr(right))
			oc.Elements = append(oc.Elements, &model.Opaque{Span: b.span(e), What: "index initializer", Children: nonNil(parts...)})
		case "initializer_expression":
			var parts []model.Node
			for _, c := range named(e) {
				parts = append(parts, b.expr(c))
			}
			oc.Elements = append(oc.Elements, &model.Opaque{Span: b.span(e), What: "element", Children: nonNil(parts...)})
		default:
			oc.Elements = append(oc.Elements, b.must(e, elementType(oc.Type)))
		}
	}
}

func (b *binder) arrayCreation(n *node, want *model.TypeRef) model.Expr {
	ac := &model.ArrayCreation{Span: b.span(n)}
	init := field(n, "initializer")
	if init == nil {
		init = child(n, "initializer_expression")
	}
	switch n.Kind() {
	case "array_creation_expression", "stackalloc_expression":
		tn := firstType(n)
		ac.Type = b.typeOf(tn)
		if tn != nil && tn.Kind() == "array_type" {
			rank := field(tn, "rank")
			if rank == nil {
				rank = child(tn, "array_rank_specifier")
			}
			for _, size := range named(rank) {
				if x := b.expr(size); x != nil {
					ac.Sizes = append(ac.Sizes, x)
				}
			}
		}
	case "initializer_expression", "collection_expression":
		ac.Type = want
		init = n
	default:
		ac.Type = want
	}
	elem := elementType(ac.Type)
	for _, e := range named(init) {
		if e.Kind() == "spread_element" {
			if x := b.expr(firstNamed(e)); x != nil {
				ac.Spreads = append(ac.Spreads, x)
			}
			continue
		}
		if x := b.exprWant(e, elem); x != nil {
			ac.Elements = append(ac.Elements, x)
		}
	}
	if ac.Type == nil && len(ac.Elements) > 0 {
		ac.Type = model.ArrayOf(typeOfExpr(ac.Elements[0]))
	}
	return ac
}

func (b *binder) lambda(n *node, want *model.TypeRef) model.Expr {
	span := b.span(n)
	loc := span.Location
	sym := &model.Symbol{
		Kind:          types.SymbolKindLambda,
		Name:          "lambda",
		QualifiedName: b.owner.QualifiedName + ".lambda@" + itoa(loc.Offset),
		Container:     b.owner,
		Owner:         b.owner,
		Location:      loc,
		Static:        modifiers(n, b.file.Src)["static"],
		Type:          want,
	}
	sym.ID = model.MemberID(types.SymbolKindLambda, sym.QualifiedName, 0, 0, loc)
	nb := b.nested(sym)

	paramTypes := lambdaParamTypes(want)
	var pnodes []*node
	if params := field(n, "parameters"); params != nil {
		if params.Kind() == "identifier" {
			pnodes = []*node{params}
		} else {
			pnodes = childrenOf(params, "parameter", "implicit_parameter", "identifier")
		}
	} else if list := child(n, "parameter_list", "implicit_parameter_list"); list != nil {
		pnodes = childrenOf(list, "parameter", "implicit_parameter", "identifier")
	}
	for i, pn := range pnodes {
		name, id := b.text(pn), pn
		var t *model.TypeRef
		if pn.Kind() != "identifier" {
			name, id = declName(pn, b.file.Src)
			t = b.typeOf(field(pn, "type"))
		}
		if t == nil && i < len(paramTypes) {
			t = paramTypes[i]
		}
		p := &model.Symbol{
			Kind:          types.SymbolKindParameter,
			Name:          name,
			QualifiedName: sym.QualifiedName + "." + name,
			Container:     sym,
			Owner:         sym,
			Location:      b.loc(id),
			Ordinal:       i,
			Type:          t,
		}
		for _, c := range children(pn) {
			switch c.Kind() {
			case "ref":
				p.RefKind = model.RefRef
			case "out":
				p.RefKind = model.RefOut
			case "in":
				p.RefKind = model.RefIn
			}
		}
		p.ID = model.NewSymbolID("parameter", p.QualifiedName, itoa(i), p.Location.File, itoa(p.Location.Offset))
		sym.Parameters = append(sym.Parameters, p)
		nb.declare(p)
	}

	body := field(n, "body")
	if body == nil {
		if parts := named(n); len(parts) > 0 {
			body = parts[len(parts)-1]
		}
	}
	switch {
	case body == nil:
		sym.Body = &model.Block{Span: span}
	case body.Kind() == "block":
		sym.Body = nb.block(body)
	default:
		x := nb.exprWant(body, lambdaReturnType(want))
		ret := &model.Return{Span: nb.span(body), Value: x}
		sym.Body = &model.Block{Span: nb.span(body), Stmts: []model.Node{ret}}
	}
	return &model.Lambda{Span: span, Symbol: sym}
}

func (b *binder) switchExpression(n *node, want *model.TypeRef) model.Expr {
	subjectNode := field(n, "value")
	if subjectNode == nil {
		subjectNode = firstNamed(n)
	}
	subject := b.expr(subjectNode)
	se := &model.SwitchExpr{Span: b.span(n), Subject: subject}
	for _, arm := range childrenOf(n, "switch_expression_arm") {
		b.push()
		parts := named(arm)
		var guard, value model.Expr
		var matched []model.Node
		for i, p := range parts {
			switch {
			case i == len(parts)-1:
				value = b.exprWant(p, want)
			case p.Kind() == "when_clause":
				guard = b.expr(firstNamed(p))
			default:
				matched = append(matched, b.pattern(p, typeOfExpr(subject))...)
			}
		}
		if len(matched) > 0 {
			guard = &model.Opaque{Span: b.span(arm), What: "pattern", Children: nonNil(append(matched, guard)...)}
		}
		se.Arms = append(se.Arms, model.SwitchArm{Guard: guard, Value: value})
		if se.Type == nil {
			se.Type = typeOfExpr(value)
		}
		b.pop()
	}
	if se.Type == nil {
		se.Type = want
	}
	return se
}

func (b *binder) with(n *node) model.Expr {
	parts := named(n)
	if len(parts) == 0 {
		return nil
	}
	x := b.must(parts[0], nil)
	children := []model.Node{x}
	var visit func(c *node)
	visit = func(c *node) {
		switch c.Kind() {
		case "with_initializer", "assignment_expression":
			values := named(c)
			if len(values) > 0 {
				children = append(children, b.expr(values[len(values)-1]))
			}
		default:
			for _, cc := range named(c) {
				visit(cc)
			}
		}
	}
	for _, c := range parts[1:] {
		visit(c)
	}
	return &model.Opaque{Span: b.span(n), What: "with", Children: nonNil(children...), Type: typeOfExpr(x)}
}

// pattern declares the variables a pattern introduces and returns the
// expressions it evaluates.
func (b *binder) pattern(p *node, subject *model.TypeRef) []model.Node {
	if p == nil {
		return nil
	}
	switch p.Kind() {
	case "declaration_pattern":
		b.designations(designationOf(p), b.typeOf(firstType(p)))
		return nil
	case "var_pattern":
		b.designations(designationOf(p), subject)
		return nil
	case "recursive_pattern":
		t := b.typeOf(field(p, "type"))
		if t == nil {
			t = subject
		}
		var out []model.Node
		for _, c := range named(p) {
			switch c.Kind() {
			case "property_pattern_clause", "positional_pattern_clause":
				out = append(out, b.subpatterns(c, t)...)
			case "single_variable_designation", "parenthesized_variable_designation", "discard":
				b.designations(c, t)
			}
		}
		return out
	case "constant_pattern", "relational_pattern":
		parts := named(p)
		if len(parts) == 0 {
			return nil
		}
		return nonNil(b.expr(parts[len(parts)-1]))
	case "type_pattern", "discard":
		return nil
	case "and_pattern", "or_pattern", "negated_pattern", "parenthesized_pattern":
		var out []model.Node
		for _, c := range named(p) {
			out = append(out, b.pattern(c, subject)...)
		}
		return out
	case "list_pattern", "slice_pattern":
		var out []model.Node
		for _, c := range named(p) {
			out = append(out, b.pattern(c, elementType(subject))...)
		}
		return out
	case "property_pattern_clause", "positional_pattern_clause":
		return b.subpatterns(p, subject)
	}
	return nonNil(b.expr(p))
}

func designationOf(p *node) *node {
	if d := field(p, "designation", "name"); d != nil {
		return d
	}
	return child(p, "single_variable_designation", "parenthesized_variable_designation", "discard", "identifier")
}

func (b *binder) subpatterns(clause *node, t *model.TypeRef) []model.Node {
	var out []model.Node
	for _, sp := range childrenOf(clause, "subpattern") {
		parts := named(sp)
		if len(parts) == 0 {
			continue
		}
		var subject *model.TypeRef
		if len(parts) > 1 {
			name := strings.TrimSuffix(strings.TrimSpace(b.text(parts[0])), ":")
			if i := strings.LastIndexByte(name, '.'); i >= 0 {
				name = name[i+1:]
			}
			if m := memberOn(t, strings.TrimSpace(name)); m != nil {
				subject = memberType(t, m)
			}
		}
		out = append(out, b.pattern(parts[len(parts)-1], subject)...)
	}
	for _, c := range named(clause) {
		if c.Kind() != "subpattern" && c.Kind() != "identifier" {
			out = append(out, b.pattern(c, nil)...)
		}
	}
	return out
}

// designations declares the variables of a designation or deconstruction
func (b *binder) designations(n *node, t *model.TypeRef) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "identifier":
		b.newLocal(b.text(n), n, t)
	case "single_variable_designation":
		id := child(n, "identifier")
		if id == nil {
			id = n
		}
		b.newLocal(b.text(id), id, t)
	case "declaration_expression":
		b.declarationExpression(n, t)
	case "discard":
	default:
		for _, c := range named(n) {
			b.designations(c, nil)
		}
	}
}

// declarationExpression declares "out var x" or "var (a, b)"
func (b *binder) declarationExpression(n *node, want *model.TypeRef) model.Expr {
	span := b.span(n)
	t := b.typeOf(firstType(n))
	if t == nil {
		t = want
	}
	nameNode := field(n, "name")
	if nameNode == nil {
		if parts := named(n); len(parts) > 0 {
			nameNode = parts[len(parts)-1]
		}
	}
	switch {
	case nameNode == nil:
		return &model.Opaque{Span: span, What: "declaration"}
	case nameNode.Kind() == "identifier" || nameNode.Kind() == "single_variable_designation":
		id := nameNode
		if c := child(nameNode, "identifier"); c != nil {
			id = c
		}
		local := b.newLocal(b.text(id), id, t)
		return &model.Ident{Span: span, Symbol: local, Name: local.Name}
	}
	var parts []model.Node
	for _, c := range named(nameNode) {
		if c.Kind() == "single_variable_designation" || c.Kind() == "identifier" {
			id := c
			if cc := child(c, "identifier"); cc != nil {
				id = cc
			}
			local := b.newLocal(b.text(id), id, nil)
			parts = append(parts, &model.Ident{Span: b.span(id), Symbol: local, Name: local.Name})
		} else {
			b.designations(c, nil)
		}
	}
	return &model.Opaque{Span: span, What: "tuple", Children: parts}
}

// query lowers a LINQ query expression. Range variables become locals of
// the enclosing callable; the clauses are kept for their expressions.
func (b *binder) query(n *node) model.Expr {
	b.push()
	defer b.pop()
	var parts []model.Node
	var visit func(c *node)
	visit = func(c *node) {
		switch c.Kind() {
		case "from_clause", "join_clause":
			var name *node
			declared := false
			seenIn := false
			for _, cc := range children(c) {
				switch {
				case !cc.IsNamed() && cc.Kind() == "in":
					seenIn = true
				case !cc.IsNamed():
				case !seenIn && cc.Kind() == "identifier":
					name = cc
				case !seenIn:
				case !declared:
					src := b.expr(cc)
					parts = append(parts, src)
					if name != nil {
						b.newLocal(b.text(name), name, elementType(typeOfExpr(src)))
					}
					declared = true
				case cc.Kind() == "join_into_clause":
					if id := child(cc, "identifier"); id != nil {
						b.newLocal(b.text(id), id, nil)
					}
				default:
					parts = append(parts, b.expr(cc))
				}
			}
		case "let_clause":
			id := child(c, "identifier")
			values := named(c)
			var x model.Expr
			if len(values) > 1 {
				x = b.expr(values[len(values)-1])
				parts = append(parts, x)
			}
			if id != nil {
				b.newLocal(b.text(id), id, typeOfExpr(x))
			}
		case "query_continuation":
			for _, cc := range named(c) {
				if cc.Kind() == "identifier" {
					b.newLocal(b.text(cc), cc, nil)
					continue
				}
				visit(cc)
			}
		case "query_body", "orderby_clause", "ordering", "where_clause", "select_clause", "group_clause":
			for _, cc := range named(c) {
				visit(cc)
			}
		default:
			parts = append(parts, b.expr(c))
		}
	}
	for _, c := range named(n) {
		visit(c)
	}
	return &model.Opaque{Span: b.span(n), What: "query", Children: nonNil(parts...),
		Type: model.External("IEnumerable", []string{"System.Collections.Generic.IEnumerable"})}
}

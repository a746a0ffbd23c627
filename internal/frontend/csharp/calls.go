package csharp

import (
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

func (b *binder) invocation(n *node) model.Expr {
	span := b.span(n)
	fn := field(n, "function")
	if fn == nil {
		fn = firstNamed(n)
	}
	argList := field(n, "arguments")
	if argList == nil {
		argList = child(n, "argument_list")
	}
	argNodes := argumentNodes(argList)
	if fn == nil {
		return &model.Opaque{Span: span, What: "invocation"}
	}
	switch fn.Kind() {
	case "identifier", "generic_name":
		return b.simpleCall(fn, argNodes, span)
	case "member_access_expression":
		if hasToken(fn, "->") {
			break
		}
		name, typeArgs := b.simpleName(field(fn, "name"))
		recvNode := field(fn, "expression")
		recv, path := b.receiver(recvNode)
		if path != "" {
			recv = &model.TypeExpr{Span: b.span(recvNode), Type: model.External(lastSegment(path), b.l.qualifiedCandidates(path, b.ctx))}
		}
		return b.call(recv, name, typeArgs, argNodes, span)
	case "member_binding_expression":
		name, typeArgs := b.simpleName(field(fn, "name"))
		return b.call(b.condRecv, name, typeArgs, argNodes, span)
	case "conditional_access_expression":
		// a?.M(...) where the call wraps the whole access
		parts := named(fn)
		if len(parts) == 2 && parts[1].Kind() == "member_binding_expression" {
			recv := b.expr(parts[0])
			name, typeArgs := b.simpleName(field(parts[1], "name"))
			return b.call(recv, name, typeArgs, argNodes, span)
		}
	}
	return b.delegateCall(b.must(fn, nil), argNodes, span)
}

// simpleCall resolves M(...) written without a receiver
func (b *binder) simpleCall(fn *node, argNodes []*node, span model.Span) model.Expr {
	name, typeArgs := b.simpleName(fn)
	argc := len(argNodes)
	if sym := b.locals.lookup(name); sym != nil {
		if sym.Kind == types.SymbolKindLocalFunction {
			return b.resolvedCall(sym, nil, nil, typeArgs, argNodes, span, false)
		}
		return b.delegateCall(&model.Ident{Span: b.span(fn), Symbol: sym, Name: name}, argNodes, span)
	}
	for t := b.decl.sym; t != nil; t = t.DeclaringType() {
		self := t == b.decl.sym
		if m := t.LookupMethod(name, argc); m != nil {
			var recv model.Expr
			recvType := model.Named(t)
			if !m.Static && self {
				recv = b.implicitThis(b.span(fn))
				recvType = b.thisType()
			}
			return b.resolvedCall(m, recv, recvType, typeArgs, argNodes, span, false)
		}
		if f := t.LookupMember(name); f != nil && isDelegate(f.Type) {
			var recv model.Expr
			if !f.Static && self {
				recv = b.implicitThis(b.span(fn))
			}
			target := &model.MemberAccess{Span: b.span(fn), Receiver: recv, Member: f, Name: name, Type: f.Type}
			return b.delegateCall(target, argNodes, span)
		}
	}
	statics := b.ctx.scope.staticImports()
	for _, target := range statics {
		if ts := b.l.comp.LookupType(target); ts != nil {
			if m := ts.LookupMethod(name, argc); m != nil && m.Static {
				return b.resolvedCall(m, nil, model.Named(ts), typeArgs, argNodes, span, false)
			}
		}
	}
	if name == "nameof" && argc == 1 {
		return &model.Literal{Span: span, Text: b.text(argValue(argNodes[0])), Type: model.StringType}
	}

	inv := &model.Invocation{Span: span, Name: name, TypeArgs: typeArgs, Namespaces: b.namespaces()}
	if base := b.externalBase(); base != nil && !b.static {
		inv.Receiver = b.implicitThis(b.span(fn))
		inv.ReceiverType = base
		inv.Candidates = suffixed(typeNames(base), name)
	} else {
		inv.Candidates = []string{name}
	}
	for _, target := range statics {
		inv.Candidates = append(inv.Candidates, target+"."+name)
	}
	inv.Args = b.bindArgs(argNodes, nil, 0, model.Substitution{}, nil, nil)
	inv.Type = knownCallType(nil, name)
	return inv
}

// call resolves recv.M(...). recv is a TypeExpr for static calls.
func (b *binder) call(recv model.Expr, name string, typeArgs []*model.TypeRef, argNodes []*node, span model.Span) model.Expr {
	argc := len(argNodes)
	if te, ok := recv.(*model.TypeExpr); ok {
		t := te.Type
		if ts := t.TypeSymbol(); ts != nil {
			if m := ts.LookupMethod(name, argc); m != nil {
				return b.resolvedCall(m, nil, t, typeArgs, argNodes, span, false)
			}
			if f := ts.LookupMember(name); f != nil && isDelegate(f.Type) {
				target := &model.MemberAccess{Span: span, Member: f, Name: name, Type: f.Type, StaticAccess: true}
				return b.delegateCall(target, argNodes, span)
			}
		}
		inv := &model.Invocation{Span: span, Name: name, ReceiverType: t, TypeArgs: typeArgs,
			Candidates: suffixed(typeNames(t), name)}
		inv.Args = b.bindArgs(argNodes, nil, 0, model.Substitution{}, nil, nil)
		inv.Type = knownStaticCallType(t, name, inv.Args)
		return inv
	}

	recvType := typeOfExpr(recv)
	if m := methodOn(recvType, name, argc); m != nil {
		return b.resolvedCall(m, recv, recvType, typeArgs, argNodes, span, false)
	}
	if f := memberOn(recvType, name); f != nil && isDelegate(f.Type) {
		target := &model.MemberAccess{Span: span, Receiver: recv, Member: f, Name: name, Type: memberType(recvType, f)}
		return b.delegateCall(target, argNodes, span)
	}
	if ext := b.extension(recvType, name, argc); ext != nil {
		return b.resolvedCall(ext, recv, recvType, typeArgs, argNodes, span, true)
	}
	if name == "Invoke" && isDelegate(recvType) {
		return b.delegateCall(recv, argNodes, span)
	}
	inv := &model.Invocation{
		Span:       span,
		Receiver:   recv,
		Name:       name,
		TypeArgs:   typeArgs,
		Candidates: suffixed(typeNames(recvType), name),
		Namespaces: b.namespaces(),
	}
	var lambdaWant *model.TypeRef
	if elem := elementType(recvType); elem != nil {
		lambdaWant = funcOf(elem)
	}
	inv.Args = b.bindArgs(argNodes, nil, 0, model.Substitution{}, nil, lambdaWant)
	inv.Type = knownCallType(recvType, name)
	return inv
}

// resolvedCall builds a call to a declared method, inferring method type
// arguments from the arguments when none are written.
func (b *binder) resolvedCall(m *model.Symbol, recv model.Expr, recvType *model.TypeRef, typeArgs []*model.TypeRef,
	argNodes []*node, span model.Span, extension bool) model.Expr {
	inv := &model.Invocation{
		Span:         span,
		Method:       m,
		Receiver:     recv,
		ReceiverType: recvType,
		Name:         m.Name,
		Extension:    extension,
	}
	if extension {
		inv.ReceiverType = nil
	}
	base := memberSubst(recvType, m.DeclaringType())
	offset := 0
	if extension {
		offset = 1
	}
	infer := func(args []model.Argument) model.Substitution {
		s := base
		if len(m.TypeParameters) == 0 {
			return s
		}
		if len(typeArgs) > 0 {
			for i, tp := range m.TypeParameters {
				if i < len(typeArgs) && typeArgs[i] != nil {
					s = s.Extend(tp, typeArgs[i])
				}
			}
			return s
		}
		bindings := make(map[*model.Symbol]*model.TypeRef)
		if extension && len(m.Parameters) > 0 {
			unify(m.Parameters[0].Type, recvType, bindings)
		}
		for _, a := range args {
			if a.Param != nil && a.Value != nil {
				unify(a.Param.Type, typeOfExpr(a.Value), bindings)
			}
		}
		for _, tp := range m.TypeParameters {
			if t, ok := bindings[tp]; ok {
				s = s.Extend(tp, t)
			}
		}
		return s
	}
	inv.Args = b.bindArgs(argNodes, m.Parameters, offset, base, infer, nil)
	s := infer(inv.Args)
	if len(m.TypeParameters) > 0 {
		inv.TypeArgs = make([]*model.TypeRef, len(m.TypeParameters))
		for i, tp := range m.TypeParameters {
			if t, ok := s.Lookup(tp); ok {
				inv.TypeArgs[i] = t
			}
		}
	}
	inv.Type = s.Apply(m.Type)
	return inv
}

func (b *binder) delegateCall(target model.Expr, argNodes []*node, span model.Span) model.Expr {
	params, subst, ret := delegateSignature(typeOfExpr(target))
	return &model.DelegateInvoke{
		Span:   span,
		Target: target,
		Args:   b.arguments(argNodes, params, 0, subst),
		Type:   ret,
	}
}

func argumentNodes(list *node) []*node {
	return childrenOf(list, "argument")
}

// argValue is the expression of an argument, after any name: and ref kind
func argValue(a *node) *node {
	if v := field(a, "expression"); v != nil {
		return v
	}
	parts := named(a)
	if len(parts) == 0 {
		return nil
	}
	return parts[len(parts)-1]
}

func argName(a *node, src []byte) string {
	if name := field(a, "name"); name != nil {
		return text(name, src)
	}
	if nc := child(a, "name_colon"); nc != nil {
		return text(child(nc, "identifier"), src)
	}
	return ""
}

func argRefKind(a *node) model.RefKind {
	for _, c := range children(a) {
		if c.IsNamed() {
			continue
		}
		switch c.Kind() {
		case "ref":
			return model.RefRef
		case "out":
			return model.RefOut
		case "in":
			return model.RefIn
		}
	}
	return model.RefNone
}

func isLambdaNode(n *node) bool {
	for n != nil && n.Kind() == "parenthesized_expression" {
		n = firstNamed(n)
	}
	return n != nil && (n.Kind() == "lambda_expression" || n.Kind() == "anonymous_method_expression")
}

// paramFor matches an argument to its parameter by name or position. Extra
// arguments bind to a trailing params array.
func paramFor(name string, pos int, params []*model.Symbol) *model.Symbol {
	if name != "" {
		for _, p := range params {
			if p.Name == name {
				return p
			}
		}
		return nil
	}
	if pos < len(params) {
		return params[pos]
	}
	if n := len(params); n > 0 {
		if _, ok := params[n-1].Initializer.(*model.ArrayCreation); ok {
			return params[n-1]
		}
	}
	return nil
}

func (b *binder) arguments(argNodes []*node, params []*model.Symbol, offset int, subst model.Substitution) []model.Argument {
	return b.bindArgs(argNodes, params, offset, subst, nil, nil)
}

// bindArgs lowers arguments in two passes: lambdas last, so that type
// arguments inferred from the other arguments type their parameters.
// lambdaWant types lambdas that bind to no parameter.
func (b *binder) bindArgs(argNodes []*node, params []*model.Symbol, offset int, base model.Substitution,
	infer func([]model.Argument) model.Substitution, lambdaWant *model.TypeRef) []model.Argument {
	out := make([]model.Argument, len(argNodes))
	var lambdas []int
	for i, an := range argNodes {
		a := model.Argument{RefKind: argRefKind(an), Param: paramFor(argName(an, b.file.Src), i+offset, params)}
		value := argValue(an)
		if isLambdaNode(value) {
			out[i] = a
			lambdas = append(lambdas, i)
			continue
		}
		var want *model.TypeRef
		if a.Param != nil {
			want = base.Apply(a.Param.Type)
			if want.IsTypeParameter() {
				want = nil
			}
		}
		a.Value = b.must(value, want)
		if id, ok := a.Value.(*model.Ident); ok && id.Symbol != nil && id.Symbol.Type == nil && want != nil &&
			value.Kind() == "declaration_expression" {
			id.Symbol.Type = want
		}
		out[i] = a
	}
	if len(lambdas) == 0 {
		return out
	}
	s := base
	if infer != nil {
		s = infer(out)
	}
	for _, i := range lambdas {
		want := lambdaWant
		if p := out[i].Param; p != nil {
			want = s.Apply(p.Type)
		}
		out[i].Value = b.must(argValue(argNodes[i]), want)
	}
	return out
}

// extension finds a source extension method callable on a receiver of
// type t from the current scope.
func (b *binder) extension(t *model.TypeRef, name string, argc int) *model.Symbol {
	if len(b.l.extensions) == 0 {
		return nil
	}
	visible := make(map[string]bool)
	for _, ns := range b.namespaces() {
		visible[ns] = true
	}
	for _, ext := range b.l.extensions {
		decl := ext.DeclaringType()
		if ext.Name != name || decl == nil || !visible[decl.Namespace] || len(ext.Parameters) == 0 {
			continue
		}
		if !acceptsArgCount(ext.Parameters[1:], argc) {
			continue
		}
		if receiverFits(ext.Parameters[0].Type, t) {
			return ext
		}
	}
	return nil
}

func acceptsArgCount(params []*model.Symbol, argc int) bool {
	if argc == len(params) {
		return true
	}
	if argc > len(params) {
		if n := len(params); n > 0 {
			_, ok := params[n-1].Initializer.(*model.ArrayCreation)
			return ok
		}
		return false
	}
	for _, p := range params[argc:] {
		if p.Initializer == nil {
			return false
		}
	}
	return true
}

// receiverFits reports whether a receiver of type t may bind to an
// extension's first parameter of type p.
func receiverFits(p, t *model.TypeRef) bool {
	if p == nil || t == nil || p.IsTypeParameter() || p.IsObject() {
		return true
	}
	if pts := p.TypeSymbol(); pts != nil {
		for _, ts := range lookupTargets(t) {
			if ts.Implements(pts) {
				return true
			}
		}
		return false
	}
	names := make(map[string]bool)
	for _, n := range typeNames(t) {
		names[n] = true
	}
	for _, n := range p.QualifiedNames() {
		if names[n] {
			return true
		}
	}
	// IEnumerable<T> and friends accept arrays and generic collections
	return len(p.Args) == 1 && (t.IsArray() || len(t.Args) > 0) && looksLikeInterface(p.Name)
}

// namespaces lists the namespaces in scope: enclosing, then imported
func (b *binder) namespaces() []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{b.ctx.scope.enclosing(), b.ctx.scope.imported(b.l.globalUsings)} {
		for _, ns := range list {
			if !seen[ns] {
				seen[ns] = true
				out = append(out, ns)
			}
		}
	}
	return out
}

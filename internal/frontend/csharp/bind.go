package csharp

import (
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

// scope is one block of local names
type scope struct {
	parent *scope
	names  map[string]*model.Symbol
}

func (s *scope) lookup(name string) *model.Symbol {
	for c := s; c != nil; c = c.parent {
		if sym, ok := c.names[name]; ok {
			return sym
		}
	}
	return nil
}

// binder lowers one member's bodies to the model. A nested binder is made
// for every lambda and local function; it shares the enclosing scope chain.
type binder struct {
	l    *Loader
	file *File
	decl *typeDecl
	ctx  typeContext
	// owner is the innermost callable: locals and lambdas declared while
	// binding belong to it.
	owner  *model.Symbol
	static bool
	locals *scope
	// condRecv is the receiver of the enclosing ?. access
	condRecv model.Expr
}

func (l *Loader) newBinder(m *memberDecl, owner *model.Symbol) *binder {
	d := m.decl
	b := &binder{
		l:      l,
		file:   d.file,
		decl:   d,
		ctx:    typeContext{scope: d.scope, typ: d.sym, method: owner, file: d.file},
		owner:  owner,
		static: m.sym.Static,
		locals: &scope{names: make(map[string]*model.Symbol)},
	}
	if owner.Kind == types.SymbolKindAccessor {
		b.ctx.method = m.sym
	}
	if ctor := l.primary[d.sym]; ctor != nil && !m.sym.Static {
		for _, p := range ctor.Parameters {
			b.declare(p)
		}
	}
	b.push()
	for _, p := range m.sym.Parameters {
		b.declare(p)
	}
	return b
}

// nested returns a binder for a lambda or local function body
func (b *binder) nested(owner *model.Symbol) *binder {
	nb := *b
	nb.owner = owner
	nb.ctx.method = owner
	if owner.Static {
		nb.static = true
	}
	nb.locals = &scope{parent: b.locals, names: make(map[string]*model.Symbol)}
	return &nb
}

func (b *binder) push() {
	b.locals = &scope{parent: b.locals, names: make(map[string]*model.Symbol)}
}

func (b *binder) pop() {
	if b.locals.parent != nil {
		b.locals = b.locals.parent
	}
}

func (b *binder) declare(sym *model.Symbol) {
	if sym != nil && sym.Name != "" && sym.Name != "_" {
		b.locals.names[sym.Name] = sym
	}
}

func (b *binder) loc(n *node) types.Location {
	return location(n, b.file.Path)
}

func (b *binder) span(n *node) model.Span {
	return model.Span{Location: b.loc(n)}
}

func (b *binder) text(n *node) string {
	return text(n, b.file.Src)
}

func (b *binder) typeOf(n *node) *model.TypeRef {
	return b.l.resolveType(n, b.ctx)
}

// newLocal declares a local variable of the current callable
func (b *binder) newLocal(name string, at *node, t *model.TypeRef) *model.Symbol {
	loc := b.loc(at)
	sym := &model.Symbol{
		Kind:          types.SymbolKindLocal,
		Name:          name,
		QualifiedName: name,
		Container:     b.owner,
		Owner:         b.owner,
		Location:      loc,
		Type:          t,
	}
	sym.ID = model.NewSymbolID("local", b.owner.QualifiedName, name, loc.File, itoa(loc.Offset))
	b.declare(sym)
	return sym
}

// bindMember lowers the initializer and bodies of one member
func (l *Loader) bindMember(m *memberDecl) {
	sym := m.sym
	if m.init != nil {
		b := l.newBinder(m, sym)
		init := m.init
		if init.Kind() == "equals_value_clause" {
			init = firstNamed(init)
		}
		sym.Initializer = b.exprWant(init, sym.Type)
	}
	for owner, body := range m.bodies {
		b := l.newBinder(m, owner)
		if owner.Kind == types.SymbolKindAccessor {
			if owner.Name == "set" || owner.Name == "init" {
				value := &model.Symbol{
					Kind:          types.SymbolKindParameter,
					Name:          "value",
					QualifiedName: owner.QualifiedName + ".value",
					Container:     owner,
					Owner:         owner,
					Type:          sym.Type,
					Location:      owner.Location,
				}
				value.ID = model.NewSymbolID("parameter", value.QualifiedName, value.Location.File, itoa(value.Location.Offset))
				b.declare(value)
			}
		}
		block := b.body(body, owner)
		if m.chain != nil && owner == sym {
			if chain := b.constructorChain(m.chain); chain != nil {
				block.Stmts = append([]model.Node{chain}, block.Stmts...)
			}
		}
		owner.Body = block
	}
	if sym.Kind == types.SymbolKindConstructor && sym.Body == nil && m.chain != nil {
		// extern or partial constructors still chain
		b := l.newBinder(m, sym)
		block := &model.Block{Span: model.Span{Location: sym.Location}}
		if chain := b.constructorChain(m.chain); chain != nil {
			block.Stmts = append(block.Stmts, chain)
		}
		sym.Body = block
	}
}

func firstNamed(n *node) *node {
	if parts := named(n); len(parts) > 0 {
		return parts[0]
	}
	return nil
}

// body lowers a block or an expression body. Expression bodies of
// callables returning a value become a single return.
func (b *binder) body(n *node, owner *model.Symbol) *model.Block {
	if n.Kind() == "block" {
		return b.block(n)
	}
	expr := n
	if n.Kind() == "arrow_expression_clause" {
		expr = firstNamed(n)
	}
	out := &model.Block{Span: b.span(n)}
	if expr == nil {
		return out
	}
	if owner.Type == nil || owner.Type.IsVoid() || owner.Kind == types.SymbolKindConstructor {
		x := b.exprWant(expr, nil)
		if x != nil {
			out.Stmts = append(out.Stmts, &model.ExprStmt{Span: b.span(expr), X: x})
		}
		return out
	}
	out.Stmts = append(out.Stmts, &model.Return{Span: b.span(expr), Value: b.exprWant(expr, owner.Type)})
	return out
}

func (b *binder) block(n *node) *model.Block {
	out := &model.Block{Span: b.span(n)}
	b.push()
	defer b.pop()
	stmts := named(n)
	for _, s := range stmts {
		if s.Kind() == "local_function_statement" {
			b.declareLocalFunction(s)
		}
	}
	for _, s := range stmts {
		if st := b.stmt(s); st != nil {
			out.Stmts = append(out.Stmts, st)
		}
	}
	return out
}

// stmt lowers a statement; nil means the statement has nothing to analyze
func (b *binder) stmt(n *node) model.Node {
	if n == nil {
		return nil
	}
	span := b.span(n)
	switch n.Kind() {
	case "block":
		return b.block(n)
	case "local_declaration_statement":
		return b.declaration(child(n, "variable_declaration"), span)
	case "expression_statement":
		x := b.expr(firstNamed(n))
		if x == nil {
			return nil
		}
		return &model.ExprStmt{Span: span, X: x}
	case "return_statement":
		ret := &model.Return{Span: span}
		if v := firstNamed(n); v != nil {
			ret.Value = b.exprWant(v, b.returnType())
		}
		return ret
	case "if_statement":
		return b.opaque(span, "if",
			b.expr(field(n, "condition")),
			b.scoped(field(n, "consequence")),
			b.scoped(field(n, "alternative")))
	case "while_statement":
		return b.opaque(span, "while", b.expr(field(n, "condition")), b.scoped(field(n, "body")))
	case "do_statement":
		return b.opaque(span, "do", b.scoped(field(n, "body")), b.expr(field(n, "condition")))
	case "for_statement":
		return b.forStatement(n, span)
	case "foreach_statement":
		return b.foreachStatement(n, span)
	case "switch_statement":
		return b.switchStatement(n, span)
	case "try_statement":
		return b.tryStatement(n, span)
	case "throw_statement":
		return b.opaque(span, "throw", b.expr(firstNamed(n)))
	case "using_statement":
		b.push()
		defer b.pop()
		var parts []model.Node
		for _, c := range named(n) {
			switch {
			case c.Kind() == "variable_declaration":
				parts = append(parts, b.declaration(c, b.span(c)))
			case isStatement(c.Kind()):
				parts = append(parts, b.stmt(c))
			default:
				parts = append(parts, b.expr(c))
			}
		}
		return b.opaque(span, "using", parts...)
	case "lock_statement":
		return &model.Effect{Span: span, What: "lock statement", Children: nonNil(b.expr(firstNamed(n)), b.scoped(field(n, "body")))}
	case "unsafe_statement":
		return &model.Effect{Span: span, What: "unsafe code", Children: nonNil(b.stmt(child(n, "block")))}
	case "fixed_statement":
		b.push()
		defer b.pop()
		var parts []model.Node
		for _, c := range named(n) {
			if c.Kind() == "variable_declaration" {
				parts = append(parts, b.declaration(c, b.span(c)))
			} else {
				parts = append(parts, b.stmt(c))
			}
		}
		return &model.Effect{Span: span, What: "fixed statement", Children: nonNil(parts...)}
	case "checked_statement":
		return b.stmt(child(n, "block"))
	case "yield_statement":
		return b.opaque(span, "yield", b.exprWant(firstNamed(n), nil))
	case "local_function_statement":
		return b.localFunction(n)
	case "labeled_statement":
		parts := named(n)
		if len(parts) == 0 {
			return nil
		}
		return b.stmt(parts[len(parts)-1])
	case "break_statement", "continue_statement", "goto_statement", "empty_statement":
		return nil
	}
	if isStatement(n.Kind()) {
		var parts []model.Node
		for _, c := range named(n) {
			parts = append(parts, b.stmt(c))
		}
		return b.opaque(span, n.Kind(), parts...)
	}
	return b.expr(n)
}

func isStatement(kind string) bool {
	return kind == "block" || len(kind) > len("_statement") && kind[len(kind)-len("_statement"):] == "_statement"
}

// scoped lowers a statement in its own scope
func (b *binder) scoped(n *node) model.Node {
	if n == nil {
		return nil
	}
	b.push()
	defer b.pop()
	return b.stmt(n)
}

func (b *binder) returnType() *model.TypeRef {
	if b.owner == nil {
		return nil
	}
	return b.owner.Type
}

// opaque builds an Opaque node over the non-nil parts
func (b *binder) opaque(span model.Span, what string, parts ...model.Node) model.Node {
	return &model.Opaque{Span: span, What: what, Children: nonNil(parts...)}
}

// nonNil drops nil parts
func nonNil(parts ...model.Node) []model.Node {
	out := make([]model.Node, 0, len(parts))
	for _, p := range parts {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// declaration lowers "T a = x, b = y"
func (b *binder) declaration(n *node, span model.Span) model.Node {
	if n == nil {
		return nil
	}
	declared := b.typeOf(firstType(n))
	var decls []model.Node
	for _, v := range childrenOf(n, "variable_declarator") {
		name, id := declName(v, b.file.Src)
		var init model.Expr
		if value := defaultValue(v); value != nil {
			init = b.exprWant(value, declared)
		}
		t := declared
		if t == nil && init != nil {
			t = init.StaticType()
		}
		local := b.newLocal(name, id, t)
		decls = append(decls, &model.LocalDecl{Span: b.span(v), Local: local, Init: init})
	}
	if len(decls) == 1 {
		return decls[0]
	}
	return &model.Block{Span: span, Stmts: decls}
}

func (b *binder) forStatement(n *node, span model.Span) model.Node {
	b.push()
	defer b.pop()
	var parts []model.Node
	for _, c := range named(n) {
		switch {
		case c.Kind() == "variable_declaration":
			parts = append(parts, b.declaration(c, b.span(c)))
		case same(c, field(n, "body")):
			parts = append(parts, b.scoped(c))
		case isStatement(c.Kind()):
			parts = append(parts, b.scoped(c))
		default:
			parts = append(parts, b.expr(c))
		}
	}
	return b.opaque(span, "for", parts...)
}

func (b *binder) foreachStatement(n *node, span model.Span) model.Node {
	b.push()
	defer b.pop()
	rightNode := field(n, "right")
	leftNode := field(n, "left")
	body := field(n, "body")
	if rightNode == nil || body == nil {
		return b.opaque(span, "foreach")
	}
	right := b.expr(rightNode)
	elem := elementType(right.StaticType())
	if declared := b.typeOf(field(n, "type")); declared != nil {
		elem = declared
	}
	source := &model.Opaque{Span: b.span(rightNode), What: "foreach", Children: nonNil(right), Type: elem}

	var decl model.Node
	switch {
	case leftNode == nil:
	case leftNode.Kind() == "identifier":
		local := b.newLocal(b.text(leftNode), leftNode, elem)
		decl = &model.LocalDecl{Span: b.span(leftNode), Local: local, Init: source}
	default:
		b.designations(leftNode, nil)
		decl = source
	}
	return b.opaque(span, "foreach", decl, b.scoped(body))
}

func (b *binder) switchStatement(n *node, span model.Span) model.Node {
	subject := b.expr(field(n, "value"))
	parts := []model.Node{subject}
	var subjectType *model.TypeRef
	if subject != nil {
		subjectType = subject.StaticType()
	}
	body := field(n, "body")
	if body == nil {
		body = child(n, "switch_body")
	}
	for _, section := range childrenOf(body, "switch_section") {
		b.push()
		for _, c := range named(section) {
			switch {
			case isStatement(c.Kind()):
				parts = append(parts, b.stmt(c))
			case c.Kind() == "when_clause":
				parts = append(parts, b.expr(firstNamed(c)))
			case c.Kind() == "case_switch_label" || c.Kind() == "case_pattern_switch_label":
				for _, p := range named(c) {
					parts = append(parts, b.pattern(p, subjectType)...)
				}
			case c.Kind() == "default_switch_label":
			default:
				parts = append(parts, b.pattern(c, subjectType)...)
			}
		}
		b.pop()
	}
	return b.opaque(span, "switch", parts...)
}

func (b *binder) tryStatement(n *node, span model.Span) model.Node {
	var parts []model.Node
	for _, c := range named(n) {
		switch c.Kind() {
		case "block":
			parts = append(parts, b.block(c))
		case "catch_clause":
			b.push()
			for _, cc := range named(c) {
				switch cc.Kind() {
				case "catch_declaration":
					if id := field(cc, "name"); id != nil {
						b.newLocal(b.text(id), id, b.typeOf(firstType(cc)))
					}
				case "catch_filter_clause":
					parts = append(parts, b.expr(firstNamed(cc)))
				case "block":
					parts = append(parts, b.block(cc))
				}
			}
			b.pop()
		case "finally_clause":
			parts = append(parts, b.stmt(child(c, "block")))
		}
	}
	return b.opaque(span, "try", parts...)
}

// declareLocalFunction creates the symbol of a local function so that
// calls before its declaration resolve.
func (b *binder) declareLocalFunction(n *node) *model.Symbol {
	name, id := declName(n, b.file.Src)
	if existing := b.locals.names[name]; existing != nil && existing.Kind == types.SymbolKindLocalFunction &&
		existing.Location.Offset == b.loc(id).Offset {
		return existing
	}
	loc := b.loc(id)
	sym := &model.Symbol{
		Kind:          types.SymbolKindLocalFunction,
		Name:          name,
		QualifiedName: b.owner.QualifiedName + "." + name,
		Container:     b.owner,
		Owner:         b.owner,
		Location:      loc,
		Static:        modifiers(n, b.file.Src)["static"],
	}
	b.l.attributes(n, b.file, sym)
	b.l.declareTypeParameters(n, b.file, sym)
	sym.Parameters = b.l.declareParameters(n, b.file, sym)
	ctx := b.ctx
	ctx.method = sym
	sym.Type = b.l.resolveType(field(n, "type", "returns"), ctx)
	b.l.constraints(n, sym, ctx)
	for i, pn := range parameterNodes(n) {
		if i < len(sym.Parameters) {
			sym.Parameters[i].Type = b.l.resolveType(firstType(pn), ctx)
		}
	}
	sym.ID = model.MemberID(types.SymbolKindLocalFunction, sym.QualifiedName, sym.Arity(), len(sym.Parameters), loc)
	b.declare(sym)
	return sym
}

func (b *binder) localFunction(n *node) model.Node {
	name, _ := declName(n, b.file.Src)
	sym := b.locals.lookup(name)
	if sym == nil || sym.Kind != types.SymbolKindLocalFunction {
		sym = b.declareLocalFunction(n)
	}
	nb := b.nested(sym)
	for _, p := range sym.Parameters {
		nb.declare(p)
	}
	body := field(n, "body")
	if body == nil {
		body = child(n, "block", "arrow_expression_clause")
	}
	if body != nil {
		sym.Body = nb.body(body, sym)
	}
	return &model.LocalFunctionDecl{Span: b.span(n), Symbol: sym}
}

// constructorChain lowers ": base(...)" or ": this(...)". A chain to a
// declared constructor becomes a call; a chain into a compiled base is kept
// only for its arguments.
func (b *binder) constructorChain(n *node) model.Node {
	span := b.span(n)
	isBase := hasToken(n, "base") || child(n, "base_expression", "base") != nil
	target := b.decl.sym
	var targetType *model.TypeRef
	if isBase {
		for _, base := range target.Bases {
			if ts := base.TypeSymbol(); ts != nil && !ts.IsInterface() {
				targetType = base
				break
			}
		}
		target = targetType.TypeSymbol()
	} else {
		targetType = b.thisType()
	}
	argNodes := argumentNodes(child(n, "argument_list"))
	if target == nil {
		args := b.arguments(argNodes, nil, 0, model.Substitution{})
		parts := make([]model.Node, 0, len(args))
		for _, a := range args {
			parts = append(parts, a.Value)
		}
		return &model.ExprStmt{Span: span, X: &model.Opaque{Span: span, What: "base constructor", Children: nonNil(parts...)}}
	}
	ctor := target.LookupConstructor(len(argNodes))
	if ctor == nil {
		return nil
	}
	subst := model.NewSubstitution(target.TypeParameters, targetType.Args)
	inv := &model.Invocation{
		Span:         span,
		Method:       ctor,
		Receiver:     &model.This{Span: span, Type: targetType, Base: isBase},
		ReceiverType: targetType,
		Name:         ctor.Name,
		Args:         b.arguments(argNodes, ctor.Parameters, 0, subst),
	}
	return &model.ExprStmt{Span: span, X: inv}
}

// thisType is the type of this inside the current type declaration
func (b *binder) thisType() *model.TypeRef {
	t := b.decl.sym
	args := make([]*model.TypeRef, len(t.TypeParameters))
	for i, tp := range t.TypeParameters {
		args[i] = model.Named(tp)
	}
	return model.Named(t, args...)
}

package csharp

import (
	"strings"

	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

// declareMembers creates the member symbols of one type declaration part.
// Types are resolved later, once every member of every type exists.
func (l *Loader) declareMembers(d *typeDecl) {
	body := field(d.node, "body")
	if body == nil {
		body = child(d.node, "declaration_list", "enum_member_declaration_list")
	}
	if plist := child(d.node, "parameter_list"); plist != nil && d.sym.Flavor != model.FlavorDelegate {
		l.declarePrimaryConstructor(d, plist)
	}
	for _, n := range named(body) {
		switch n.Kind() {
		case "field_declaration", "event_field_declaration":
			l.declareFields(d, n)
		case "property_declaration":
			l.declareProperty(d, n, types.SymbolKindProperty)
		case "indexer_declaration":
			l.declareProperty(d, n, types.SymbolKindIndexer)
		case "method_declaration":
			l.declareCallable(d, n, types.SymbolKindMethod)
		case "constructor_declaration":
			l.declareCallable(d, n, types.SymbolKindConstructor)
		case "operator_declaration", "conversion_operator_declaration":
			l.declareCallable(d, n, types.SymbolKindOperator)
		case "enum_member_declaration":
			l.declareEnumMember(d, n)
		}
	}
}

func (l *Loader) newMember(d *typeDecl, n, id *node, kind types.SymbolKind, name string) *memberDecl {
	loc := location(id, d.file.Path)
	if id == nil {
		loc = location(n, d.file.Path)
	}
	sym := &model.Symbol{
		Kind:          kind,
		Name:          name,
		QualifiedName: d.sym.QualifiedName + "." + name,
		Namespace:     d.sym.Namespace,
		Container:     d.sym,
		Location:      loc,
		Compiled:      d.compiled,
	}
	mods := modifiers(n, d.file.Src)
	sym.Static = mods["static"] || mods["const"]
	sym.ReadOnly = mods["readonly"]
	sym.Const = mods["const"]
	sym.Abstract = mods["abstract"]
	l.attributes(n, d.file, sym)
	d.sym.Members = append(d.sym.Members, sym)

	md := &memberDecl{sym: sym, node: n, decl: d, bodies: make(map[*model.Symbol]*node)}
	l.members = append(l.members, md)
	return md
}

func (l *Loader) declareFields(d *typeDecl, n *node) {
	decl := child(n, "variable_declaration")
	if decl == nil {
		return
	}
	typeNode := firstType(decl)
	for _, v := range childrenOf(decl, "variable_declarator") {
		name, id := declName(v, d.file.Src)
		md := l.newMember(d, n, id, types.SymbolKindField, name)
		md.typeNode = typeNode
		md.init = defaultValue(v)
		md.sym.ID = model.MemberID(types.SymbolKindField, md.sym.QualifiedName, 0, 0, md.sym.Location)
	}
}

func (l *Loader) declareEnumMember(d *typeDecl, n *node) {
	name, id := declName(n, d.file.Src)
	md := l.newMember(d, n, id, types.SymbolKindField, name)
	md.sym.Static, md.sym.Const, md.sym.ReadOnly = true, true, true
	md.init = field(n, "value")
	md.sym.ID = model.MemberID(types.SymbolKindField, md.sym.QualifiedName, 0, 0, md.sym.Location)
}

func (l *Loader) declareProperty(d *typeDecl, n *node, kind types.SymbolKind) {
	src := d.file.Src
	name, id := declName(n, src)
	if kind == types.SymbolKindIndexer {
		name, id = "this[]", nil
	}
	md := l.newMember(d, n, id, kind, name)
	sym := md.sym
	md.typeNode = field(n, "type")
	if md.typeNode == nil {
		md.typeNode = firstType(n)
	}
	iface := d.sym.Flavor == model.FlavorInterface
	if iface && !sym.Static {
		sym.Abstract = true
	}
	if kind == types.SymbolKindIndexer {
		sym.Parameters = l.declareParameters(n, d.file, sym)
		md.params = parameterNodes(n)
	}

	value := field(n, "value")
	accessors := field(n, "accessors")
	if accessors == nil {
		accessors = child(n, "accessor_list")
	}
	if accessors == nil {
		// expression-bodied: a getter only
		arrow := value
		if arrow == nil {
			arrow = child(n, "arrow_expression_clause")
		}
		get := l.accessor(md, n, "get")
		sym.Getter = get
		md.bodies[get] = arrow
	} else {
		bodiless := true
		for _, a := range childrenOf(accessors, "accessor_declaration") {
			kw := accessorKeyword(a, src)
			acc := l.accessor(md, a, kw)
			l.attributes(a, d.file, acc)
			if body := accessorBody(a); body != nil {
				bodiless = false
				md.bodies[acc] = body
			}
			switch kw {
			case "get":
				sym.Getter = acc
			case "set":
				sym.Setter = acc
			case "init":
				sym.Setter = acc
				sym.InitOnly = true
			}
		}
		mods := modifiers(n, src)
		sym.AutoProperty = bodiless && kind == types.SymbolKindProperty && !sym.Abstract && !iface && !mods["extern"]
		if value != nil && value.Kind() != "arrow_expression_clause" {
			md.init = value
		} else if eq := child(n, "equals_value_clause"); eq != nil {
			md.init = eq
		}
	}
	sym.ID = model.MemberID(kind, sym.QualifiedName, 0, len(sym.Parameters), sym.Location)
}

func (l *Loader) accessor(md *memberDecl, n *node, kw string) *model.Symbol {
	prop := md.sym
	acc := &model.Symbol{
		Kind:          types.SymbolKindAccessor,
		Name:          kw,
		QualifiedName: prop.QualifiedName + "." + kw,
		Namespace:     prop.Namespace,
		Container:     prop,
		Location:      location(n, md.decl.file.Path),
		Static:        prop.Static,
		Abstract:      prop.Abstract,
		Compiled:      prop.Compiled,
	}
	acc.ID = model.MemberID(types.SymbolKindAccessor, acc.QualifiedName, 0, 0, acc.Location)
	return acc
}

func accessorKeyword(a *node, src []byte) string {
	if name := field(a, "name"); name != nil {
		return text(name, src)
	}
	for _, c := range children(a) {
		switch kw := text(c, src); kw {
		case "get", "set", "init", "add", "remove":
			return kw
		}
	}
	return ""
}

func accessorBody(a *node) *node {
	if body := field(a, "body"); body != nil {
		return body
	}
	return child(a, "block", "arrow_expression_clause")
}

func (l *Loader) declareCallable(d *typeDecl, n *node, kind types.SymbolKind) {
	src := d.file.Src
	var name string
	var id *node
	op := ""
	switch n.Kind() {
	case "constructor_declaration":
		_, id = declName(n, src)
		name = d.sym.Name
	case "operator_declaration":
		opNode := field(n, "operator")
		op = strings.TrimSpace(text(opNode, src))
		id = opNode
		name = operatorNames[op]
		if len(parameterNodes(n)) == 1 {
			switch op {
			case "-":
				name = "op_UnaryNegation"
			case "+":
				name = "op_UnaryPlus"
			}
		}
	case "conversion_operator_declaration":
		op = "explicit"
		if hasToken(n, "implicit") {
			op = "implicit"
		}
		name = "op_" + strings.ToUpper(op[:1]) + op[1:]
	default:
		name, id = declName(n, src)
	}
	if name == "" {
		return
	}
	md := l.newMember(d, n, id, kind, name)
	sym := md.sym
	sym.Operator = op
	if kind == types.SymbolKindOperator {
		sym.Static = true
	}
	l.declareTypeParameters(n, d.file, sym)
	sym.Parameters = l.declareParameters(n, d.file, sym)
	md.params = parameterNodes(n)
	md.typeNode = field(n, "returns", "type")

	body := field(n, "body")
	if body == nil {
		body = child(n, "block", "arrow_expression_clause")
	}
	if body != nil {
		md.bodies[sym] = body
	} else if d.sym.Flavor == model.FlavorInterface && !sym.Static {
		sym.Abstract = true
	}
	md.chain = child(n, "constructor_initializer")
	sym.ID = model.MemberID(kind, sym.QualifiedName, sym.Arity(), len(sym.Parameters), sym.Location)
	if sym.Extension {
		l.extensions = append(l.extensions, sym)
	}
}

// declarePrimaryConstructor handles "record R(int X)" and C# 12 primary
// constructors. Record parameters also become init-only auto properties.
func (l *Loader) declarePrimaryConstructor(d *typeDecl, plist *node) {
	md := l.newMember(d, plist, nil, types.SymbolKindConstructor, d.sym.Name)
	ctor := md.sym
	ctor.Static, ctor.ReadOnly, ctor.Const, ctor.Abstract = false, false, false, false
	ctor.Attributes, ctor.Annotations = nil, types.AnnotationNone
	ctor.Parameters = l.declareParameters(d.node, d.file, ctor)
	md.params = parameterNodes(d.node)
	ctor.Body = &model.Block{Span: model.Span{Location: ctor.Location}}
	ctor.ID = model.MemberID(types.SymbolKindConstructor, ctor.QualifiedName, 0, len(ctor.Parameters), ctor.Location)

	if !strings.HasPrefix(d.node.Kind(), "record") {
		l.primary[d.sym] = ctor
		return
	}
	for _, pn := range md.params {
		name, id := declName(pn, d.file.Src)
		pm := l.newMember(d, pn, id, types.SymbolKindProperty, name)
		prop := pm.sym
		prop.Static, prop.ReadOnly, prop.Const, prop.Abstract = false, false, false, false
		prop.AutoProperty = true
		prop.InitOnly = true
		prop.Getter = l.accessor(pm, pn, "get")
		prop.Setter = l.accessor(pm, pn, "init")
		pm.typeNode = firstType(pn)
		prop.ID = model.MemberID(types.SymbolKindProperty, prop.QualifiedName, 0, 0, prop.Location)
	}
}

// resolveSignature binds the declared types of a member
func (l *Loader) resolveSignature(m *memberDecl) {
	d := m.decl
	sym := m.sym
	ctx := typeContext{scope: d.scope, typ: d.sym, method: sym, file: d.file}
	switch sym.Kind {
	case types.SymbolKindField:
		if m.typeNode != nil {
			sym.Type = l.resolveType(m.typeNode, ctx)
		} else if d.sym.Flavor == model.FlavorEnum {
			sym.Type = model.Named(d.sym)
		}
	case types.SymbolKindProperty, types.SymbolKindIndexer:
		sym.Type = l.resolveType(m.typeNode, ctx)
		if sym.Getter != nil {
			sym.Getter.Type = sym.Type
		}
		if sym.Setter != nil {
			sym.Setter.Type = model.Predefined("void")
		}
	case types.SymbolKindConstructor:
		sym.Type = model.Predefined("void")
	default:
		sym.Type = l.resolveType(m.typeNode, ctx)
		l.constraints(m.node, sym, ctx)
	}
	for i, p := range sym.Parameters {
		if i < len(m.params) {
			p.Type = l.resolveType(firstType(m.params[i]), ctx)
		}
	}
}

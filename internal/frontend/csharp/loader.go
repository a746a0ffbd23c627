package csharp

import (
	"strings"

	"github.com/standardbeagle/purity/internal/debug"
	"github.com/standardbeagle/purity/internal/model"
)

// implicitUsings are the namespaces the .NET SDK imports into every file
var implicitUsings = []string{
	"System",
	"System.Collections.Generic",
	"System.IO",
	"System.Linq",
	"System.Threading",
	"System.Threading.Tasks",
}

// frameworkNamespaces are namespaces of the base class library that code
// commonly names without a using directive for them.
var frameworkNamespaces = []string{
	"System.Text", "System.Collections", "System.Collections.Concurrent",
	"System.Collections.Immutable", "System.Diagnostics", "System.Globalization",
	"System.Reflection", "System.Runtime", "System.Runtime.CompilerServices",
	"System.Runtime.InteropServices", "System.Numerics", "System.Text.RegularExpressions",
	"System.Text.Json", "System.Net", "System.Net.Http", "System.Security",
	"System.Security.Cryptography", "System.Buffers", "Microsoft",
}

// nsScope is one namespace body (or the compilation unit) with the using
// directives written in it.
type nsScope struct {
	parent  *nsScope
	name    string
	usings  []string
	aliases map[string]string
	statics []string
}

func (s *nsScope) child(name string) *nsScope {
	full := name
	if s.name != "" {
		full = s.name + "." + name
	}
	return &nsScope{parent: s, name: full, aliases: make(map[string]string)}
}

// enclosing lists the namespace being declared and each of its parents,
// innermost first, ending with the global namespace ("").
func (s *nsScope) enclosing() []string {
	var out []string
	for ns := s.innermost(); ns != ""; {
		out = append(out, ns)
		i := strings.LastIndexByte(ns, '.')
		if i < 0 {
			break
		}
		ns = ns[:i]
	}
	return append(out, "")
}

func (s *nsScope) innermost() string {
	for c := s; c != nil; c = c.parent {
		if c.name != "" {
			return c.name
		}
	}
	return ""
}

// imported lists every namespace brought in by using directives visible
// from this scope, innermost first.
func (s *nsScope) imported(global []string) []string {
	var out []string
	for c := s; c != nil; c = c.parent {
		out = append(out, c.usings...)
	}
	out = append(out, global...)
	return append(out, implicitUsings...)
}

// staticImports lists the types named by "using static" directives
func (s *nsScope) staticImports() []string {
	var out []string
	for c := s; c != nil; c = c.parent {
		out = append(out, c.statics...)
	}
	return out
}

func (s *nsScope) alias(name string) (string, bool) {
	for c := s; c != nil; c = c.parent {
		if target, ok := c.aliases[name]; ok {
			return target, true
		}
	}
	return "", false
}

// typeDecl ties a declared type to the syntax and scope it came from. A
// partial type has one typeDecl per part.
type typeDecl struct {
	sym      *model.Symbol
	node     *node
	scope    *nsScope
	file     *File
	compiled bool
}

// memberDecl ties a member symbol to its declaration syntax
type memberDecl struct {
	sym  *model.Symbol
	node *node
	decl *typeDecl
	// typeNode is the declared type (field, property, return type)
	typeNode *node
	// params holds the parameter syntax aligned with sym.Parameters
	params []*node
	// init is the initializer or expression body, bodies the accessor or
	// method bodies keyed by the symbol they belong to
	init   *node
	bodies map[*model.Symbol]*node
	// chain is a constructor's this(...) or base(...) initializer
	chain *node
}

// Loader builds one compilation from parsed files
type Loader struct {
	comp         *model.Compilation
	files        []*File
	decls        []*typeDecl
	members      []*memberDecl
	globalUsings []string
	extensions   []*model.Symbol
	// primary maps a class or struct to its primary constructor, whose
	// parameters are in scope in every instance member
	primary map[*model.Symbol]*model.Symbol
	// namespaces holds every namespace known to exist, so that a dotted
	// name can be told apart from a member access
	namespaces    map[string]bool
	warnings      []error
	lambdaCounter int
}

// Load parses sources and references and binds them into one
// compilation. Reference files contribute declarations only; their members
// never expose bodies. The returned errors are warnings: syntax errors in
// recovered trees and unreadable constructs.
func Load(sources, references []SourceFile) (*model.Compilation, []error) {
	defer debug.Timed("bind", "load")()

	l := &Loader{
		comp:       model.NewCompilation(),
		primary:    make(map[*model.Symbol]*model.Symbol),
		namespaces: make(map[string]bool),
	}
	defer l.close()
	for _, ns := range implicitUsings {
		l.addNamespace(ns)
	}
	for _, ns := range frameworkNamespaces {
		l.addNamespace(ns)
	}

	for _, f := range references {
		l.parse(f, true)
	}
	for _, f := range sources {
		l.parse(f, false)
	}
	for _, d := range l.decls {
		l.resolveHeader(d)
	}
	for _, d := range l.decls {
		l.declareMembers(d)
	}
	for _, m := range l.members {
		l.resolveSignature(m)
	}
	for _, m := range l.members {
		if !m.decl.compiled {
			l.bindMember(m)
		}
	}
	debug.LogBind("loaded %d types, %d members", len(l.comp.Types()), len(l.members))
	return l.comp, l.warnings
}

// addNamespace records ns and each of its parents
func (l *Loader) addNamespace(ns string) {
	for ns != "" && !l.namespaces[ns] {
		l.namespaces[ns] = true
		i := strings.LastIndexByte(ns, '.')
		if i < 0 {
			return
		}
		ns = ns[:i]
	}
}

func (l *Loader) close() {
	for _, f := range l.files {
		f.Close()
	}
}

func (l *Loader) parse(sf SourceFile, compiled bool) {
	f, warnings := Parse(sf.Path, sf.Content)
	l.warnings = append(l.warnings, warnings...)
	if f == nil {
		return
	}
	l.files = append(l.files, f)
	root := f.Root()
	if root == nil {
		return
	}
	scope := &nsScope{aliases: make(map[string]string)}
	l.collect(root, f, scope, nil, compiled)
}

// collect walks namespace bodies and declaration lists, registering types.
// A file-scoped namespace applies to every declaration after it.
func (l *Loader) collect(n *node, f *File, scope *nsScope, outer *model.Symbol, compiled bool) {
	for _, c := range named(n) {
		switch c.Kind() {
		case "using_directive":
			l.using(c, f, scope)
		case "namespace_declaration":
			inner := scope
			for _, part := range strings.Split(text(field(c, "name"), f.Src), ".") {
				inner = inner.child(strings.TrimSpace(part))
			}
			body := field(c, "body")
			if body == nil {
				body = child(c, "declaration_list")
			}
			l.addNamespace(inner.name)
			l.collect(body, f, inner, nil, compiled)
		case "file_scoped_namespace_declaration":
			inner := scope
			for _, part := range strings.Split(text(field(c, "name"), f.Src), ".") {
				inner = inner.child(strings.TrimSpace(part))
			}
			scope = inner
			l.addNamespace(inner.name)
			// older grammars nest the declarations inside the node
			l.collect(c, f, scope, nil, compiled)
		case "declaration_list":
			l.collect(c, f, scope, outer, compiled)
		default:
			if flavor, ok := typeFlavor(c.Kind()); ok {
				l.declareType(c, f, scope, outer, flavor, compiled)
			}
		}
	}
}

func (l *Loader) using(n *node, f *File, scope *nsScope) {
	global := hasToken(n, "global")
	static := hasToken(n, "static")
	var names []*node
	for _, c := range named(n) {
		switch c.Kind() {
		case "identifier", "qualified_name", "generic_name", "alias_qualified_name":
			names = append(names, c)
		case "name_equals":
			if id := child(c, "identifier"); id != nil {
				names = append([]*node{id}, names...)
			}
		}
	}
	if len(names) == 0 {
		return
	}
	target := strings.TrimPrefix(text(names[len(names)-1], f.Src), "global::")
	switch {
	case len(names) > 1 || hasToken(n, "="):
		scope.aliases[text(names[0], f.Src)] = target
	case static:
		l.addNamespace(parentOf(target))
		scope.statics = append(scope.statics, target)
	case global:
		l.addNamespace(target)
		l.globalUsings = append(l.globalUsings, target)
	default:
		l.addNamespace(target)
		scope.usings = append(scope.usings, target)
	}
}

func parentOf(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[:i]
	}
	return ""
}

func typeFlavor(kind string) (model.TypeFlavor, bool) {
	switch kind {
	case "class_declaration", "record_declaration":
		return model.FlavorClass, true
	case "struct_declaration", "record_struct_declaration":
		return model.FlavorStruct, true
	case "interface_declaration":
		return model.FlavorInterface, true
	case "enum_declaration":
		return model.FlavorEnum, true
	case "delegate_declaration":
		return model.FlavorDelegate, true
	}
	return model.FlavorNone, false
}

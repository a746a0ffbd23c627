package csharp

import (
	"strings"
	"unicode"

	"github.com/standardbeagle/purity/internal/model"
)

func typeOfExpr(x model.Expr) *model.TypeRef {
	if x == nil {
		return nil
	}
	return x.StaticType()
}

func firstKnown(ts ...*model.TypeRef) *model.TypeRef {
	for _, t := range ts {
		if t != nil {
			return t
		}
	}
	return nil
}

// lookupTargets returns the declarations whose members a value of type t
// exposes: the type itself, or a type parameter's constraints.
func lookupTargets(t *model.TypeRef) []*model.Symbol {
	if ts := t.TypeSymbol(); ts != nil {
		return []*model.Symbol{ts}
	}
	if !t.IsTypeParameter() {
		return nil
	}
	var out []*model.Symbol
	seen := map[*model.Symbol]bool{t.Symbol: true}
	pending := t.Symbol.Constraints
	for len(pending) > 0 {
		c := pending[0]
		pending = pending[1:]
		switch {
		case c.TypeSymbol() != nil:
			out = append(out, c.TypeSymbol())
		case c.IsTypeParameter() && !seen[c.Symbol]:
			seen[c.Symbol] = true
			pending = append(pending, c.Symbol.Constraints...)
		}
	}
	return out
}

func memberOn(t *model.TypeRef, name string) *model.Symbol {
	for _, ts := range lookupTargets(t) {
		if m := ts.LookupMember(name); m != nil {
			return m
		}
	}
	return nil
}

func methodOn(t *model.TypeRef, name string, argc int) *model.Symbol {
	for _, ts := range lookupTargets(t) {
		if m := ts.LookupMethod(name, argc); m != nil {
			return m
		}
	}
	return nil
}

// memberSubst binds the type parameters of decl as seen through a value of
// type recv, following generic base types from recv up to decl.
func memberSubst(recv *model.TypeRef, decl *model.Symbol) model.Substitution {
	if decl == nil {
		return model.Substitution{}
	}
	for _, ts := range lookupTargets(recv) {
		if !ts.Implements(decl) {
			continue
		}
		args := recv.Args
		if recv.IsTypeParameter() {
			for _, c := range recv.Symbol.Constraints {
				if c.TypeSymbol() == ts {
					args = c.Args
				}
			}
		}
		s := model.NewSubstitution(ts.TypeParameters, args)
		seen := make(map[*model.Symbol]bool)
		for ts != decl && !seen[ts] {
			seen[ts] = true
			var next *model.TypeRef
			for _, base := range ts.Bases {
				if bt := base.TypeSymbol(); bt != nil && bt.Implements(decl) {
					next = base
					break
				}
			}
			if next == nil {
				break
			}
			s = model.NewSubstitution(next.TypeSymbol().TypeParameters, applyAll(s, next.Args))
			ts = next.TypeSymbol()
		}
		return s
	}
	return model.Substitution{}
}

func applyAll(s model.Substitution, ts []*model.TypeRef) []*model.TypeRef {
	out := make([]*model.TypeRef, len(ts))
	for i, t := range ts {
		out[i] = s.Apply(t)
	}
	return out
}

// memberType is the type of member m read through a value of type recv
func memberType(recv *model.TypeRef, m *model.Symbol) *model.TypeRef {
	if m.Type == nil {
		return nil
	}
	return memberSubst(recv, m.DeclaringType()).Apply(m.Type)
}

var dictionaryTypes = map[string]bool{
	"Dictionary": true, "IDictionary": true, "IReadOnlyDictionary": true, "SortedDictionary": true,
	"ConcurrentDictionary": true, "ImmutableDictionary": true, "SortedList": true, "FrozenDictionary": true,
}

// elementType is the type a foreach over t produces
func elementType(t *model.TypeRef) *model.TypeRef {
	switch {
	case t == nil:
		return nil
	case t.IsArray():
		return t.Elem
	case t.IsString():
		return model.Predefined("char")
	}
	if ts := t.TypeSymbol(); ts != nil {
		s := model.NewSubstitution(ts.TypeParameters, t.Args)
		seen := make(map[*model.Symbol]bool)
		var visit func(sym *model.Symbol, s model.Substitution) *model.TypeRef
		visit = func(sym *model.Symbol, s model.Substitution) *model.TypeRef {
			if seen[sym] {
				return nil
			}
			seen[sym] = true
			for _, base := range sym.Bases {
				if bt := base.TypeSymbol(); bt != nil {
					if e := visit(bt, model.NewSubstitution(bt.TypeParameters, applyAll(s, base.Args))); e != nil {
						return e
					}
					continue
				}
				if e := elementType(s.Apply(base)); e != nil {
					return e
				}
			}
			return nil
		}
		return visit(ts, s)
	}
	if t.Symbol != nil {
		return nil
	}
	switch {
	case dictionaryTypes[t.Name] && len(t.Args) == 2:
		return model.External("KeyValuePair", []string{"System.Collections.Generic.KeyValuePair"}, t.Args[0], t.Args[1])
	case len(t.Args) == 1:
		return t.Args[0]
	}
	return nil
}

// indexedType is the type of t[i] for arrays and common collections
func indexedType(t *model.TypeRef) *model.TypeRef {
	switch {
	case t == nil:
		return nil
	case t.IsArray():
		return t.Elem
	case t.IsString():
		return model.Predefined("char")
	case t.Symbol != nil:
		return nil
	case dictionaryTypes[t.Name] && len(t.Args) == 2:
		return t.Args[1]
	case len(t.Args) == 1:
		return t.Args[0]
	}
	return nil
}

var delegateNames = map[string]bool{
	"Func": true, "Action": true, "Predicate": true, "Comparison": true, "Converter": true,
	"EventHandler": true, "Delegate": true, "MulticastDelegate": true,
}

func isDelegate(t *model.TypeRef) bool {
	if t == nil || t.IsArray() {
		return false
	}
	if ts := t.TypeSymbol(); ts != nil {
		return ts.Flavor == model.FlavorDelegate
	}
	return t.Symbol == nil && delegateNames[t.Name]
}

// delegateSignature returns the parameters, their instantiation and the
// return type of a delegate type.
func delegateSignature(t *model.TypeRef) ([]*model.Symbol, model.Substitution, *model.TypeRef) {
	if ts := t.TypeSymbol(); ts != nil && ts.Flavor == model.FlavorDelegate {
		s := model.NewSubstitution(ts.TypeParameters, t.Args)
		return ts.Parameters, s, s.Apply(ts.Type)
	}
	if t != nil && t.Name == "Func" && len(t.Args) > 0 {
		return nil, model.Substitution{}, t.Args[len(t.Args)-1]
	}
	return nil, model.Substitution{}, nil
}

// lambdaParamTypes returns the parameter types a lambda converted to
// want receives.
func lambdaParamTypes(want *model.TypeRef) []*model.TypeRef {
	if want == nil {
		return nil
	}
	if ts := want.TypeSymbol(); ts != nil && ts.Flavor == model.FlavorDelegate {
		s := model.NewSubstitution(ts.TypeParameters, want.Args)
		out := make([]*model.TypeRef, len(ts.Parameters))
		for i, p := range ts.Parameters {
			out[i] = s.Apply(p.Type)
		}
		return out
	}
	switch want.Name {
	case "Func":
		if len(want.Args) > 0 {
			return want.Args[:len(want.Args)-1]
		}
	case "Action", "Predicate":
		return want.Args
	case "Comparison":
		if len(want.Args) == 1 {
			return []*model.TypeRef{want.Args[0], want.Args[0]}
		}
	case "Expression":
		if len(want.Args) == 1 {
			return lambdaParamTypes(want.Args[0])
		}
	}
	return nil
}

func lambdaReturnType(want *model.TypeRef) *model.TypeRef {
	_, _, ret := delegateSignature(want)
	return ret
}

// funcOf is Func<elem, ?>, the shape LINQ operators take
func funcOf(elem *model.TypeRef) *model.TypeRef {
	return model.External("Func", []string{"System.Func"}, elem, nil)
}

// unify binds type parameters in p from the corresponding parts of a. The
// first binding wins.
func unify(p, a *model.TypeRef, bindings map[*model.Symbol]*model.TypeRef) {
	if p == nil || a == nil {
		return
	}
	if p.IsTypeParameter() {
		if _, ok := bindings[p.Symbol]; !ok {
			bindings[p.Symbol] = a
		}
		return
	}
	if p.IsArray() {
		if a.IsArray() {
			unify(p.Elem, a.Elem, bindings)
		}
		return
	}
	if len(p.Args) == 0 {
		return
	}
	if len(p.Args) == len(a.Args) && p.Name == a.Name {
		for i := range p.Args {
			unify(p.Args[i], a.Args[i], bindings)
		}
		return
	}
	// IEnumerable<T> from an array or another collection
	if len(p.Args) == 1 {
		if e := elementType(a); e != nil {
			unify(p.Args[0], e, bindings)
		}
	}
}

// typeNames lists the qualified names registry lookups should try for
// members of t, including compiled bases of source types.
func typeNames(t *model.TypeRef) []string {
	if t == nil {
		return nil
	}
	if t.IsArray() {
		return []string{"System.Array"}
	}
	seen := make(map[string]bool)
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(t.QualifiedNames())
	visited := make(map[*model.Symbol]bool)
	var visit func(sym *model.Symbol)
	visit = func(sym *model.Symbol) {
		if sym == nil || visited[sym] {
			return
		}
		visited[sym] = true
		if sym.IsType() {
			add([]string{sym.QualifiedName})
		}
		refs := sym.Bases
		if !sym.IsType() {
			refs = sym.Constraints
		}
		for _, base := range refs {
			if base.Symbol != nil {
				visit(base.Symbol)
				continue
			}
			add(base.QualifiedNames())
		}
	}
	visit(t.Symbol)
	return out
}

func suffixed(names []string, member string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n + "." + member
	}
	return out
}

// knownMemberType types a few members of compiled types that analyses
// care about: counts and key/value pairs.
func knownMemberType(t *model.TypeRef, name string) *model.TypeRef {
	switch name {
	case "Length", "Count":
		return model.Predefined("int")
	case "LongLength":
		return model.Predefined("long")
	case "Empty":
		if t.IsString() {
			return model.StringType
		}
	case "Key", "Value":
		if t != nil && t.Name == "KeyValuePair" && len(t.Args) == 2 {
			if name == "Key" {
				return t.Args[0]
			}
			return t.Args[1]
		}
	}
	return nil
}

var stringMethods = map[string]bool{
	"Trim": true, "TrimStart": true, "TrimEnd": true, "ToUpper": true, "ToLower": true,
	"ToUpperInvariant": true, "ToLowerInvariant": true, "Substring": true, "Replace": true,
	"PadLeft": true, "PadRight": true, "Insert": true, "Remove": true, "Normalize": true,
}

// knownCallType types the result of instance calls into compiled types
func knownCallType(recv *model.TypeRef, name string) *model.TypeRef {
	switch name {
	case "ToString":
		return model.StringType
	case "Equals", "Contains", "Any", "All", "StartsWith", "EndsWith", "ContainsKey", "TryGetValue", "SequenceEqual":
		return model.BoolType
	case "GetHashCode", "IndexOf", "LastIndexOf", "CompareTo", "Count":
		return model.Predefined("int")
	}
	if recv.IsString() && stringMethods[name] {
		return model.StringType
	}
	elem := elementType(recv)
	if elem == nil {
		return nil
	}
	switch name {
	case "ToList":
		return model.External("List", []string{"System.Collections.Generic.List"}, elem)
	case "ToArray":
		return model.ArrayOf(elem)
	case "ToHashSet":
		return model.External("HashSet", []string{"System.Collections.Generic.HashSet"}, elem)
	case "First", "FirstOrDefault", "Last", "LastOrDefault", "Single", "SingleOrDefault", "ElementAt", "Min", "Max":
		return elem
	case "Where", "Skip", "Take", "OrderBy", "OrderByDescending", "ThenBy", "Reverse", "Distinct",
		"Concat", "Union", "Intersect", "Except", "AsEnumerable", "SkipWhile", "TakeWhile":
		return model.External("IEnumerable", []string{"System.Collections.Generic.IEnumerable"}, elem)
	}
	return nil
}

// knownStaticCallType types the result of static calls into compiled types
func knownStaticCallType(t *model.TypeRef, name string, args []model.Argument) *model.TypeRef {
	if t.IsString() {
		switch name {
		case "Format", "Join", "Concat":
			return model.StringType
		case "IsNullOrEmpty", "IsNullOrWhiteSpace", "Equals":
			return model.BoolType
		}
	}
	switch name {
	case "Max", "Min", "Abs":
		if len(args) > 0 {
			return typeOfExpr(args[0].Value)
		}
	}
	return nil
}

// awaitedType unwraps Task<T> and ValueTask<T>
func awaitedType(t *model.TypeRef) *model.TypeRef {
	if t != nil && (t.Name == "Task" || t.Name == "ValueTask") && len(t.Args) == 1 {
		return t.Args[0]
	}
	return nil
}

// looksLikeInterface applies the IName convention to compiled types
func looksLikeInterface(name string) bool {
	r := []rune(name)
	return len(r) > 1 && r[0] == 'I' && unicode.IsUpper(r[1])
}

func startsUpper(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

func lastSegment(dotted string) string {
	if i := strings.LastIndexByte(dotted, '.'); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}

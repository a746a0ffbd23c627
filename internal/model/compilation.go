package model

import (
	"sort"
	"strconv"

	"github.com/standardbeagle/purity/internal/types"
)

// Compilation is the set of types produced by the front end for one run:
// source types with bodies and compiled (reference-only) types.
type Compilation struct {
	types  []*Symbol
	byName map[string]*Symbol
}

// NewCompilation creates an empty compilation
func NewCompilation() *Compilation {
	return &Compilation{byName: make(map[string]*Symbol)}
}

// AddType registers a type. A later type with the same qualified name and
// arity (a partial declaration) is merged into the first.
func (c *Compilation) AddType(t *Symbol) *Symbol {
	key := typeKey(t.QualifiedName, t.Arity())
	if existing, ok := c.byName[key]; ok && existing != t {
		existing.Members = append(existing.Members, t.Members...)
		existing.Bases = append(existing.Bases, t.Bases...)
		existing.Attributes = append(existing.Attributes, t.Attributes...)
		existing.Annotations |= t.Annotations
		for _, m := range t.Members {
			m.Container = existing
		}
		return existing
	}
	c.types = append(c.types, t)
	c.byName[key] = t
	return t
}

func typeKey(qualifiedName string, arity int) string {
	if arity == 0 {
		return qualifiedName
	}
	return qualifiedName + "`" + strconv.Itoa(arity)
}

// LookupType finds a non-generic type by fully-qualified name, or a generic
// one written with its arity suffix (Ns.Box`1).
func (c *Compilation) LookupType(qualifiedName string) *Symbol {
	return c.byName[qualifiedName]
}

// LookupGeneric finds a type by qualified name and type parameter count
func (c *Compilation) LookupGeneric(qualifiedName string, arity int) *Symbol {
	return c.byName[typeKey(qualifiedName, arity)]
}

// Types returns all types in registration order
func (c *Compilation) Types() []*Symbol {
	return c.types
}

// SourceTypes returns types declared in analyzed sources, ordered by location
func (c *Compilation) SourceTypes() []*Symbol {
	var out []*Symbol
	for _, t := range c.types {
		if !t.Compiled {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return types.CompareLocations(out[i].Location, out[j].Location) < 0
	})
	return out
}

// CompiledTypes returns types loaded from references
func (c *Compilation) CompiledTypes() []*Symbol {
	var out []*Symbol
	for _, t := range c.types {
		if t.Compiled {
			out = append(out, t)
		}
	}
	return out
}

// BaseClass returns the first base that resolves to a class in the compilation.
func (s *Symbol) BaseClass() *Symbol {
	for _, b := range s.Bases {
		if t := b.TypeSymbol(); t != nil && t.Flavor == FlavorClass {
			return t
		}
	}
	return nil
}

// Interfaces returns the interfaces the type implements directly or through
// its bases and base interfaces.
func (s *Symbol) Interfaces() []*Symbol {
	seen := make(map[*Symbol]bool)
	var out []*Symbol
	var visit func(t *Symbol)
	visit = func(t *Symbol) {
		for _, b := range t.Bases {
			bt := b.TypeSymbol()
			if bt == nil || seen[bt] {
				continue
			}
			seen[bt] = true
			if bt.Flavor == FlavorInterface {
				out = append(out, bt)
			}
			visit(bt)
		}
	}
	visit(s)
	return out
}

// Implements reports whether the type implements or derives from target
func (s *Symbol) Implements(target *Symbol) bool {
	if s == target {
		return true
	}
	for _, b := range s.Bases {
		if bt := b.TypeSymbol(); bt != nil && bt.Implements(target) {
			return true
		}
	}
	return false
}

// LookupMember finds a field, property or indexer by name along the base chain.
func (s *Symbol) LookupMember(name string) *Symbol {
	for t := s; t != nil; t = t.BaseClass() {
		for _, m := range t.Members {
			if m.Name != name {
				continue
			}
			switch m.Kind {
			case types.SymbolKindField, types.SymbolKindProperty:
				return m
			}
		}
		if t.Flavor == FlavorInterface {
			for _, iface := range t.Interfaces() {
				if m := iface.LookupMember(name); m != nil {
					return m
				}
			}
		}
	}
	return nil
}

// LookupMethod finds the best method by name and argument count along the
// base chain, then through interfaces. An exact parameter-count match wins
// over a name-only match.
func (s *Symbol) LookupMethod(name string, argc int) *Symbol {
	var fallback *Symbol
	for t := s; t != nil; t = t.BaseClass() {
		if m, exact := pickMethod(t.Members, name, argc); m != nil {
			if exact {
				return m
			}
			if fallback == nil {
				fallback = m
			}
		}
	}
	if fallback != nil {
		return fallback
	}
	for _, iface := range s.Interfaces() {
		if m, _ := pickMethod(iface.Members, name, argc); m != nil {
			return m
		}
	}
	return nil
}

func pickMethod(members []*Symbol, name string, argc int) (*Symbol, bool) {
	var fallback *Symbol
	for _, m := range members {
		if m.Kind != types.SymbolKindMethod || m.Name != name {
			continue
		}
		if argc < 0 || len(m.Parameters) == argc || acceptsArgs(m, argc) {
			return m, true
		}
		if fallback == nil {
			fallback = m
		}
	}
	return fallback, false
}

// acceptsArgs allows optional trailing parameters
func acceptsArgs(m *Symbol, argc int) bool {
	if argc > len(m.Parameters) {
		return false
	}
	for _, p := range m.Parameters[argc:] {
		if p.Initializer == nil {
			return false
		}
	}
	return true
}

// LookupOperator finds a user-defined operator declared on the type
func (s *Symbol) LookupOperator(op string, argc int) *Symbol {
	for t := s; t != nil; t = t.BaseClass() {
		for _, m := range t.Members {
			if m.Kind == types.SymbolKindOperator && m.Operator == op && len(m.Parameters) == argc {
				return m
			}
		}
	}
	return nil
}

// LookupIndexer finds an indexer taking argc arguments
func (s *Symbol) LookupIndexer(argc int) *Symbol {
	for t := s; t != nil; t = t.BaseClass() {
		for _, m := range t.Members {
			if m.Kind == types.SymbolKindIndexer && len(m.Parameters) == argc {
				return m
			}
		}
	}
	return nil
}

// Constructors returns the declared constructors with the given staticness
func (s *Symbol) Constructors(static bool) []*Symbol {
	var out []*Symbol
	for _, m := range s.Members {
		if m.Kind == types.SymbolKindConstructor && m.Static == static {
			out = append(out, m)
		}
	}
	return out
}

// LookupConstructor picks the instance constructor for argc arguments, nil
// when the type only has the implicit one.
func (s *Symbol) LookupConstructor(argc int) *Symbol {
	ctors := s.Constructors(false)
	for _, c := range ctors {
		if len(c.Parameters) == argc || acceptsArgs(c, argc) {
			return c
		}
	}
	if len(ctors) > 0 {
		return ctors[0]
	}
	return nil
}

// Initialized returns the fields and properties with initializers selected
// by the combination, in declaration order.
func (s *Symbol) Initialized(comb types.InstanceStaticCombination) (fields, properties []*Symbol) {
	for _, m := range s.Members {
		if m.Initializer == nil || !comb.Includes(m.Static) {
			continue
		}
		switch m.Kind {
		case types.SymbolKindField:
			fields = append(fields, m)
		case types.SymbolKindProperty:
			properties = append(properties, m)
		}
	}
	return fields, properties
}

// Implementation finds the member of a concrete type that implements an
// interface member, matched by name and parameter count.
func (s *Symbol) Implementation(ifaceMember *Symbol) *Symbol {
	switch ifaceMember.Kind {
	case types.SymbolKindMethod:
		m := s.LookupMethod(ifaceMember.Name, len(ifaceMember.Parameters))
		if m != nil && m.Container != ifaceMember.Container {
			return m
		}
	case types.SymbolKindProperty:
		m := s.LookupMember(ifaceMember.Name)
		if m != nil && m.Container != ifaceMember.Container {
			return m
		}
	case types.SymbolKindIndexer:
		m := s.LookupIndexer(len(ifaceMember.Parameters))
		if m != nil && m.Container != ifaceMember.Container {
			return m
		}
	}
	return nil
}

// Callables returns every analyzable body a member owns: the member itself
// for methods, or each accessor for properties and indexers.
func (s *Symbol) Callables() []*Symbol {
	switch s.Kind {
	case types.SymbolKindProperty, types.SymbolKindIndexer:
		var out []*Symbol
		if s.Getter != nil {
			out = append(out, s.Getter)
		}
		if s.Setter != nil {
			out = append(out, s.Setter)
		}
		return out
	case types.SymbolKindMethod, types.SymbolKindConstructor, types.SymbolKindOperator:
		return []*Symbol{s}
	}
	return nil
}

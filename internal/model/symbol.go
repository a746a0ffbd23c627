package model

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/purity/internal/types"
)

// SymbolID is a stable identity for a declaration within one analysis run.
type SymbolID uint64

// NewSymbolID hashes the identifying parts of a declaration.
func NewSymbolID(parts ...string) SymbolID {
	return SymbolID(xxhash.Sum64String(strings.Join(parts, "\x00")))
}

// TypeFlavor distinguishes the kinds of type declarations.
type TypeFlavor uint8

const (
	FlavorNone TypeFlavor = iota
	FlavorClass
	FlavorStruct
	FlavorInterface
	FlavorEnum
	FlavorDelegate
)

func (f TypeFlavor) String() string {
	switch f {
	case FlavorClass:
		return "class"
	case FlavorStruct:
		return "struct"
	case FlavorInterface:
		return "interface"
	case FlavorEnum:
		return "enum"
	case FlavorDelegate:
		return "delegate"
	default:
		return "none"
	}
}

// RefKind is the passing mode of a parameter or argument.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefRef
	RefOut
	RefIn
)

// Attribute is an attribute application as written on a declaration.
type Attribute struct {
	Name       string
	Annotation types.Annotation
	Args       []string
	Location   types.Location
}

// Symbol is an identity-comparable handle to a declaration. Two symbols are
// the same declaration exactly when the pointers are equal.
type Symbol struct {
	ID            SymbolID
	Kind          types.SymbolKind
	Name          string
	QualifiedName string
	Namespace     string
	Container     *Symbol
	Location      types.Location

	Static   bool
	ReadOnly bool
	Const    bool
	Abstract bool
	Compiled bool

	Annotations types.Annotation
	Attributes  []Attribute

	// Types
	Flavor         TypeFlavor
	Bases          []*TypeRef
	Members        []*Symbol
	TypeParameters []*Symbol

	// Type parameters
	Constraints      []*TypeRef
	ClassConstraint  bool
	StructConstraint bool
	Ordinal          int

	// Callables, fields, properties, parameters and locals
	Parameters []*Symbol
	Type       *TypeRef
	Body       Node
	RefKind    RefKind
	Operator   string
	Extension  bool

	// Properties and indexers
	Getter       *Symbol
	Setter       *Symbol
	InitOnly     bool
	AutoProperty bool
	Initializer  Expr

	// Locals and parameters: the callable that declares them.
	Owner *Symbol
}

// Display returns a short name for messages: Type.Member for members.
func (s *Symbol) Display() string {
	if s == nil {
		return "<unknown>"
	}
	switch s.Kind {
	case types.SymbolKindAccessor:
		if s.Container != nil {
			return s.Container.Display() + "." + s.Name
		}
	case types.SymbolKindMethod, types.SymbolKindConstructor, types.SymbolKindOperator,
		types.SymbolKindProperty, types.SymbolKindIndexer, types.SymbolKindField:
		if s.Container != nil {
			return s.Container.Name + "." + s.Name
		}
	}
	return s.Name
}

func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.Kind.String() + " " + s.QualifiedName
}

// HasBody reports whether the declaration exposes a body to analyze.
func (s *Symbol) HasBody() bool {
	return s != nil && !s.Compiled && s.Body != nil
}

// IsType reports whether the symbol is a type declaration
func (s *Symbol) IsType() bool {
	return s != nil && s.Kind == types.SymbolKindType
}

// IsInterface reports whether the symbol is an interface type
func (s *Symbol) IsInterface() bool {
	return s.IsType() && s.Flavor == FlavorInterface
}

// IsValueType reports whether values of this type are copied on assignment.
func (s *Symbol) IsValueType() bool {
	if s == nil {
		return false
	}
	switch s.Kind {
	case types.SymbolKindType:
		return s.Flavor == FlavorStruct || s.Flavor == FlavorEnum
	case types.SymbolKindTypeParameter:
		return s.StructConstraint
	}
	return false
}

// IsMutableState reports whether a field or auto-property can change after construction.
func (s *Symbol) IsMutableState() bool {
	switch s.Kind {
	case types.SymbolKindField:
		return !s.ReadOnly && !s.Const
	case types.SymbolKindProperty, types.SymbolKindIndexer:
		return s.AutoProperty && s.Setter != nil && !s.InitOnly
	}
	return false
}

// DeclaringType returns the nearest enclosing type symbol.
func (s *Symbol) DeclaringType() *Symbol {
	for c := s.Container; c != nil; c = c.Container {
		if c.Kind == types.SymbolKindType {
			return c
		}
	}
	return nil
}

// Annotated reports whether the symbol, or for members its declaring type,
// carries the marker.
func (s *Symbol) Annotated(a types.Annotation) bool {
	if s == nil {
		return false
	}
	if s.Annotations.Has(a) {
		return true
	}
	if s.Kind == types.SymbolKindAccessor && s.Container != nil && s.Container.Annotations.Has(a) {
		return true
	}
	return false
}

// AssumedPure reports whether the member or any enclosing type carries AssumeIsPure.
func (s *Symbol) AssumedPure() bool {
	for c := s; c != nil; c = c.Container {
		if c.Annotations.Has(types.AnnotationAssumeIsPure) {
			return true
		}
	}
	return false
}

// Attribute returns the first attribute application carrying the marker.
func (s *Symbol) Attribute(a types.Annotation) (Attribute, bool) {
	for _, attr := range s.Attributes {
		if attr.Annotation == a {
			return attr, true
		}
	}
	return Attribute{}, false
}

// Arity returns the number of type parameters declared by the symbol.
func (s *Symbol) Arity() int {
	return len(s.TypeParameters)
}

// AllTypeParameters returns the method's own type parameters followed by
// those of every enclosing type.
func (s *Symbol) AllTypeParameters() []*Symbol {
	var out []*Symbol
	for c := s; c != nil; c = c.Container {
		out = append(out, c.TypeParameters...)
	}
	return out
}

// TypeParameter finds a type parameter declared directly on the symbol.
func (s *Symbol) TypeParameter(name string) *Symbol {
	for _, tp := range s.TypeParameters {
		if tp.Name == name {
			return tp
		}
	}
	return nil
}

// QualifiedCandidates returns the fully-qualified names a registry lookup
// should try for this member.
func (s *Symbol) QualifiedCandidates() []string {
	if s == nil {
		return nil
	}
	if s.Container != nil && s.Container.Kind == types.SymbolKindType && s.Kind != types.SymbolKindType {
		owners := s.Container.QualifiedCandidates()
		out := make([]string, len(owners))
		for i, o := range owners {
			out[i] = o + "." + s.Name
		}
		return out
	}
	return []string{s.QualifiedName}
}

// MemberID builds the identity of a member from its container and shape.
func MemberID(kind types.SymbolKind, qualifiedName string, arity, params int, loc types.Location) SymbolID {
	return NewSymbolID(kind.String(), qualifiedName, strconv.Itoa(arity), strconv.Itoa(params),
		loc.File, strconv.Itoa(loc.Offset))
}

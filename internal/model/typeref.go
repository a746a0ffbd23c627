package model

import (
	"strings"

	"github.com/standardbeagle/purity/internal/types"
)

// predefinedTypes maps C# keywords to their framework type names
var predefinedTypes = map[string]string{
	"bool":    "System.Boolean",
	"byte":    "System.Byte",
	"sbyte":   "System.SByte",
	"char":    "System.Char",
	"decimal": "System.Decimal",
	"double":  "System.Double",
	"float":   "System.Single",
	"int":     "System.Int32",
	"uint":    "System.UInt32",
	"nint":    "System.IntPtr",
	"nuint":   "System.UIntPtr",
	"long":    "System.Int64",
	"ulong":   "System.UInt64",
	"short":   "System.Int16",
	"ushort":  "System.UInt16",
	"object":  "System.Object",
	"string":  "System.String",
	"dynamic": "System.Object",
	"void":    "System.Void",
}

// compiledValueTypes lists framework structs the front end cannot see
var compiledValueTypes = map[string]bool{
	"System.Boolean":        true,
	"System.Byte":           true,
	"System.SByte":          true,
	"System.Char":           true,
	"System.Decimal":        true,
	"System.Double":         true,
	"System.Single":         true,
	"System.Int32":          true,
	"System.UInt32":         true,
	"System.IntPtr":         true,
	"System.UIntPtr":        true,
	"System.Int64":          true,
	"System.UInt64":         true,
	"System.Int16":          true,
	"System.UInt16":         true,
	"System.DateTime":       true,
	"System.DateTimeOffset": true,
	"System.TimeSpan":       true,
	"System.Guid":           true,
	"System.Nullable":       true,
	"System.ValueTuple":     true,
	"System.Span":           true,
	"System.ReadOnlySpan":   true,

	"System.Collections.Generic.KeyValuePair": true,
}

// TypeRef is a reference to a type as used by an expression or declaration.
// A nil *TypeRef means the static type is unknown.
type TypeRef struct {
	// Name is the name as written, without type arguments.
	Name string
	// Symbol is the resolved type or type parameter, nil for compiled types
	// outside the compilation.
	Symbol *Symbol
	// Candidates holds fully-qualified names for unresolved compiled types,
	// one per namespace in scope.
	Candidates []string
	Args       []*TypeRef
	Elem       *TypeRef
	Nullable   bool
	Tuple      bool
	// Keyword is the C# keyword for predefined types ("int", "string").
	Keyword string
}

// ObjectType is System.Object
var ObjectType = Predefined("object")

// StringType is System.String
var StringType = Predefined("string")

// BoolType is System.Boolean
var BoolType = Predefined("bool")

// Predefined returns the reference for a C# keyword type, or nil when the
// keyword is not a predefined type.
func Predefined(keyword string) *TypeRef {
	name, ok := predefinedTypes[keyword]
	if !ok {
		return nil
	}
	return &TypeRef{Name: name, Candidates: []string{name}, Keyword: keyword}
}

// IsPredefinedKeyword reports whether the word names a predefined type
func IsPredefinedKeyword(word string) bool {
	_, ok := predefinedTypes[word]
	return ok
}

// Named returns a reference to a resolved type or type parameter
func Named(sym *Symbol, args ...*TypeRef) *TypeRef {
	return &TypeRef{Name: sym.Name, Symbol: sym, Args: args}
}

// External returns a reference to a compiled type identified by candidate names
func External(name string, candidates []string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Name: name, Candidates: candidates, Args: args}
}

// ArrayOf returns an array of elem
func ArrayOf(elem *TypeRef) *TypeRef {
	return &TypeRef{Name: "[]", Elem: elem}
}

// IsTypeParameter reports whether the reference names a type parameter
func (t *TypeRef) IsTypeParameter() bool {
	return t != nil && t.Symbol != nil && t.Symbol.Kind == types.SymbolKindTypeParameter
}

// TypeSymbol returns the resolved type declaration, nil for type parameters
// and compiled types.
func (t *TypeRef) TypeSymbol() *Symbol {
	if t == nil || t.Symbol == nil || t.Symbol.Kind != types.SymbolKindType {
		return nil
	}
	return t.Symbol
}

// IsArray reports whether the reference is an array type
func (t *TypeRef) IsArray() bool {
	return t != nil && t.Elem != nil
}

// IsValueType reports whether the type has value semantics.
func (t *TypeRef) IsValueType() bool {
	if t == nil {
		return false
	}
	if t.Tuple || t.Nullable {
		return true
	}
	if t.Elem != nil {
		return false
	}
	if t.Symbol != nil {
		return t.Symbol.IsValueType()
	}
	for _, c := range t.Candidates {
		if compiledValueTypes[c] {
			return true
		}
	}
	return false
}

// IsObject reports whether the reference is System.Object
func (t *TypeRef) IsObject() bool {
	return t.is("System.Object")
}

// IsString reports whether the reference is System.String
func (t *TypeRef) IsString() bool {
	return t.is("System.String")
}

// IsVoid reports whether the reference is System.Void
func (t *TypeRef) IsVoid() bool {
	return t.is("System.Void")
}

func (t *TypeRef) is(name string) bool {
	if t == nil || t.Symbol != nil || t.Elem != nil {
		return false
	}
	for _, c := range t.Candidates {
		if c == name {
			return true
		}
	}
	return false
}

// QualifiedNames returns the names a registry lookup should try.
func (t *TypeRef) QualifiedNames() []string {
	if t == nil {
		return nil
	}
	if t.Symbol != nil {
		if t.Symbol.Kind == types.SymbolKindType {
			return []string{t.Symbol.QualifiedName}
		}
		return nil
	}
	return t.Candidates
}

// Display renders the type for messages
func (t *TypeRef) Display() string {
	if t == nil {
		return "?"
	}
	var b strings.Builder
	switch {
	case t.Elem != nil:
		b.WriteString(t.Elem.Display())
		b.WriteString("[]")
		return b.String()
	case t.Keyword != "":
		b.WriteString(t.Keyword)
	case t.Symbol != nil:
		b.WriteString(t.Symbol.Name)
	default:
		b.WriteString(t.Name)
	}
	if len(t.Args) > 0 {
		b.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Display())
		}
		b.WriteByte('>')
	}
	if t.Nullable {
		b.WriteByte('?')
	}
	return b.String()
}

// Signature renders a canonical form for instantiation keys
func (t *TypeRef) Signature() string {
	if t == nil {
		return "?"
	}
	var b strings.Builder
	switch {
	case t.Elem != nil:
		return t.Elem.Signature() + "[]"
	case t.Symbol != nil && t.Symbol.Kind == types.SymbolKindTypeParameter:
		b.WriteString("!" + t.Symbol.QualifiedName)
	case t.Symbol != nil:
		b.WriteString(t.Symbol.QualifiedName)
	case len(t.Candidates) > 0:
		b.WriteString(t.Candidates[0])
	default:
		b.WriteString(t.Name)
	}
	if len(t.Args) > 0 {
		b.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(a.Signature())
		}
		b.WriteByte('>')
	}
	return b.String()
}

// SameType reports whether two references denote the same type.
func SameType(a, b *TypeRef) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Signature() == b.Signature()
}

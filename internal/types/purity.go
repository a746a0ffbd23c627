package types

import (
	"fmt"
	"strings"
)

// Purity Types
//
// A code unit is checked against one of three strictness levels. The levels
// form a chain, each permitting strictly more than the previous one:
//
//	Pure                   no externally observable mutation or mutable read
//	PureExceptReadLocally  may read state owned by the receiver instance
//	PureExceptLocally      may also write state owned by the receiver instance
//
// Declarations opt into checking through attributes. Attributes are resolved
// once per symbol into an Annotation bitset and never re-parsed afterwards.

// Strictness is the purity level a unit is checked against.
type Strictness uint8

const (
	Pure Strictness = iota
	PureExceptReadLocally
	PureExceptLocally
)

// String returns the attribute-style name of the strictness level
func (s Strictness) String() string {
	switch s {
	case Pure:
		return "Pure"
	case PureExceptReadLocally:
		return "PureExceptReadLocally"
	case PureExceptLocally:
		return "PureExceptLocally"
	default:
		return fmt.Sprintf("Strictness(%d)", uint8(s))
	}
}

// AllowsReceiverRead reports whether mutable receiver-owned state may be read.
func (s Strictness) AllowsReceiverRead() bool {
	return s >= PureExceptReadLocally
}

// AllowsReceiverWrite reports whether receiver-owned state may be written.
func (s Strictness) AllowsReceiverWrite() bool {
	return s >= PureExceptLocally
}

// Annotation is the closed set of purity markers a declaration can carry.
// Multiple markers combine with bitwise OR.
type Annotation uint16

const (
	AnnotationNone Annotation = 0

	AnnotationPure                                 Annotation = 1 << iota // [IsPure]
	AnnotationPureExceptLocally                                           // [IsPureExceptLocally]
	AnnotationPureExceptReadLocally                                       // [IsPureExceptReadLocally]
	AnnotationAssumeIsPure                                                // [AssumeIsPure]
	AnnotationReturnsNewObject                                            // [ReturnsNewObject]
	AnnotationNotUsedAsObject                                             // [NotUsedAsObject]
	AnnotationDoesNotUseClassTypeParameterAsObject                        // [DoesNotUseClassTypeParameterAsObject("T")]
)

var annotationNames = []struct {
	annotation Annotation
	name       string
}{
	{AnnotationPure, "IsPure"},
	{AnnotationPureExceptLocally, "IsPureExceptLocally"},
	{AnnotationPureExceptReadLocally, "IsPureExceptReadLocally"},
	{AnnotationAssumeIsPure, "AssumeIsPure"},
	{AnnotationReturnsNewObject, "ReturnsNewObject"},
	{AnnotationNotUsedAsObject, "NotUsedAsObject"},
	{AnnotationDoesNotUseClassTypeParameterAsObject, "DoesNotUseClassTypeParameterAsObject"},
}

// Has reports whether every marker in other is present.
func (a Annotation) Has(other Annotation) bool {
	return other != AnnotationNone && a&other == other
}

// String returns the markers joined with "|"
func (a Annotation) String() string {
	if a == AnnotationNone {
		return "none"
	}
	var parts []string
	for _, n := range annotationNames {
		if a&n.annotation != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// DeclaredStrictness returns the strictness level requested by the markers.
// IsPure takes precedence over the relaxed levels.
func (a Annotation) DeclaredStrictness() (Strictness, bool) {
	switch {
	case a&AnnotationPure != 0:
		return Pure, true
	case a&AnnotationPureExceptReadLocally != 0:
		return PureExceptReadLocally, true
	case a&AnnotationPureExceptLocally != 0:
		return PureExceptLocally, true
	}
	return Pure, false
}

// AttributeName returns the canonical attribute class name of a single marker.
func (a Annotation) AttributeName() string {
	for _, n := range annotationNames {
		if a == n.annotation {
			return n.name + "Attribute"
		}
	}
	return ""
}

// AnnotationNames lists the canonical short attribute names.
func AnnotationNames() []string {
	names := make([]string, len(annotationNames))
	for i, n := range annotationNames {
		names[i] = n.name
	}
	return names
}

// AnnotationFromAttribute maps an attribute name as written in source
// ("IsPure", "IsPureAttribute", "Purity.IsPure") to its marker.
func AnnotationFromAttribute(name string) (Annotation, bool) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "Attribute")
	for _, n := range annotationNames {
		if n.name == name {
			return n.annotation, true
		}
	}
	return AnnotationNone, false
}

// SymbolKind classifies declarations in the symbol model
type SymbolKind uint8

const (
	SymbolKindUnknown SymbolKind = iota
	SymbolKindType
	SymbolKindTypeParameter
	SymbolKindMethod
	SymbolKindConstructor
	SymbolKindOperator
	SymbolKindProperty
	SymbolKindIndexer
	SymbolKindAccessor
	SymbolKindField
	SymbolKindParameter
	SymbolKindLocal
	SymbolKindLocalFunction
	SymbolKindLambda
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolKindType:
		return "type"
	case SymbolKindTypeParameter:
		return "type parameter"
	case SymbolKindMethod:
		return "method"
	case SymbolKindConstructor:
		return "constructor"
	case SymbolKindOperator:
		return "operator"
	case SymbolKindProperty:
		return "property"
	case SymbolKindIndexer:
		return "indexer"
	case SymbolKindAccessor:
		return "accessor"
	case SymbolKindField:
		return "field"
	case SymbolKindParameter:
		return "parameter"
	case SymbolKindLocal:
		return "local"
	case SymbolKindLocalFunction:
		return "local function"
	case SymbolKindLambda:
		return "lambda"
	default:
		return "unknown"
	}
}

// IsCallable reports whether symbols of this kind own an analyzable body.
func (k SymbolKind) IsCallable() bool {
	switch k {
	case SymbolKindMethod, SymbolKindConstructor, SymbolKindOperator,
		SymbolKindAccessor, SymbolKindLocalFunction, SymbolKindLambda:
		return true
	}
	return false
}

// InstanceStaticCombination selects which initializers of a type are run
// together with a constructor.
type InstanceStaticCombination uint8

const (
	CombinationStatic InstanceStaticCombination = iota
	CombinationInstance
	CombinationInstanceAndStatic
)

func (c InstanceStaticCombination) String() string {
	switch c {
	case CombinationStatic:
		return "static"
	case CombinationInstance:
		return "instance"
	case CombinationInstanceAndStatic:
		return "instance+static"
	default:
		return "unknown"
	}
}

// Includes reports whether an initializer with the given staticness is selected.
func (c InstanceStaticCombination) Includes(static bool) bool {
	switch c {
	case CombinationStatic:
		return static
	case CombinationInstance:
		return !static
	default:
		return true
	}
}

// ReceiverMode describes whose instance state "this" refers to while a body
// is being classified.
type ReceiverMode uint8

const (
	// ReceiverStatic - no receiver (static members, field initializers of static fields)
	ReceiverStatic ReceiverMode = iota

	// ReceiverOwn - the receiver of the unit under analysis; governed by strictness
	ReceiverOwn

	// ReceiverForeign - an object reached through a parameter, local or field value
	ReceiverForeign

	// ReceiverFresh - an object allocated by the code under analysis
	ReceiverFresh
)

func (m ReceiverMode) String() string {
	switch m {
	case ReceiverStatic:
		return "static"
	case ReceiverOwn:
		return "own"
	case ReceiverForeign:
		return "foreign"
	case ReceiverFresh:
		return "fresh"
	default:
		return "unknown"
	}
}

// Freshness classifies a returned value for ReturnsNewObject checking.
type Freshness uint8

const (
	PossiblyAliased Freshness = iota
	FreshlyAllocated
)

func (f Freshness) String() string {
	if f == FreshlyAllocated {
		return "fresh"
	}
	return "possibly-aliased"
}

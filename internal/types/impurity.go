package types

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Location is a half-open source range. Lines and columns are 1-based.
type Location struct {
	File      string
	Line      int
	Column    int
	EndLine   int
	EndColumn int
	Offset    int
	EndOffset int
}

// String formats the start of the range as file:line:col
func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsZero reports whether the location was never set
func (l Location) IsZero() bool {
	return l == Location{}
}

// Contains reports whether other lies within l in the same file.
func (l Location) Contains(other Location) bool {
	return l.File == other.File && l.Offset <= other.Offset && other.EndOffset <= l.EndOffset
}

// CompareLocations orders by file, then start offset, then end offset.
func CompareLocations(a, b Location) int {
	if c := strings.Compare(a.File, b.File); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Offset, b.Offset); c != 0 {
		return c
	}
	return cmp.Compare(a.EndOffset, b.EndOffset)
}

// SortLocations orders locations in place
func SortLocations(locs []Location) {
	slices.SortFunc(locs, CompareLocations)
}

// ImpurityKind categorizes findings as a bitfield.
type ImpurityKind uint32

const (
	ImpurityNone ImpurityKind = 0

	// Reads
	ImpurityStaticRead   ImpurityKind = 1 << iota // Reads mutable static state
	ImpurityReceiverRead                          // Reads mutable receiver state under Pure

	// Writes
	ImpurityStaticWrite   // Writes static state
	ImpurityReceiverWrite // Writes receiver state without PureExceptLocally
	ImpurityForeignWrite  // Writes state of an object the unit does not own
	ImpurityCapturedWrite // Writes a variable captured from an enclosing scope
	ImpurityRefWrite      // Writes through a ref parameter

	// Calls
	ImpurityImpureCall    // Calls a member whose body is impure
	ImpurityUnknownCall   // Calls a compiled member not known to be pure
	ImpurityDelegateField // Invokes a delegate read from a field
	ImpurityObjectMethod  // Object member of a type argument is impure
	ImpurityUpcast        // Passes an object whose interface implementation is impure

	// Structural
	ImpurityInitializer // Impure field or property initializers of a constructed type
	ImpurityUnsafe      // lock, unsafe, fixed and pointer operations
	ImpurityNotLambda   // Pure-lambda position received something other than a lambda

	// Generic and freshness findings
	ImpurityAliasedReturn // ReturnsNewObject member may return an existing object
	ImpurityObjectUsage   // NotUsedAsObject type parameter used as an object
)

// String returns a human-readable representation of the kinds
func (k ImpurityKind) String() string {
	if k == ImpurityNone {
		return "none"
	}
	names := []struct {
		kind ImpurityKind
		name string
	}{
		{ImpurityStaticRead, "static-read"},
		{ImpurityReceiverRead, "receiver-read"},
		{ImpurityStaticWrite, "static-write"},
		{ImpurityReceiverWrite, "receiver-write"},
		{ImpurityForeignWrite, "foreign-write"},
		{ImpurityCapturedWrite, "captured-write"},
		{ImpurityRefWrite, "ref-write"},
		{ImpurityImpureCall, "impure-call"},
		{ImpurityUnknownCall, "unknown-call"},
		{ImpurityDelegateField, "delegate-field"},
		{ImpurityObjectMethod, "object-method"},
		{ImpurityUpcast, "upcast"},
		{ImpurityInitializer, "initializer"},
		{ImpurityUnsafe, "unsafe"},
		{ImpurityNotLambda, "not-lambda"},
		{ImpurityAliasedReturn, "aliased-return"},
		{ImpurityObjectUsage, "object-usage"},
	}
	var parts []string
	for _, n := range names {
		if k&n.kind != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}

// Impurity is a single finding: where, why, and what kind of effect.
type Impurity struct {
	Location Location
	Reason   string
	Kind     ImpurityKind
}

// NewImpurity creates a finding
func NewImpurity(loc Location, kind ImpurityKind, format string, args ...interface{}) Impurity {
	return Impurity{Location: loc, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func (i Impurity) String() string {
	return i.Location.String() + ": " + i.Reason
}

// SortImpurities orders findings by location, then reason, so repeated runs
// produce identical sequences.
func SortImpurities(items []Impurity) {
	slices.SortStableFunc(items, func(a, b Impurity) int {
		if c := CompareLocations(a.Location, b.Location); c != 0 {
			return c
		}
		return strings.Compare(a.Reason, b.Reason)
	})
}

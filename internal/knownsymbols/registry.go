// Package knownsymbols holds the allow-lists of compiled symbols the engine
// trusts without seeing their bodies.
package knownsymbols

import (
	"slices"
	"sort"
	"strings"

	"github.com/standardbeagle/purity/internal/types"
)

// Category is one of the registry's name sets
type Category uint8

const (
	PureMethods Category = iota
	PureExceptLocallyMethods
	PureExceptReadLocallyMethods
	ReturnsNewObjectMethods
	PureTypes
	NotUsedAsObject

	categoryCount
)

var categoryNames = [categoryCount]string{
	"pure-methods",
	"pure-except-locally-methods",
	"pure-except-read-locally-methods",
	"returns-new-object-methods",
	"pure-types",
	"not-used-as-object",
}

func (c Category) String() string {
	if c < categoryCount {
		return categoryNames[c]
	}
	return "unknown"
}

// Categories lists every category in declaration order
func Categories() []Category {
	out := make([]Category, categoryCount)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// ParseCategory maps a configuration key to its category
func ParseCategory(name string) (Category, bool) {
	name = strings.ReplaceAll(strings.ToLower(name), "_", "-")
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return 0, false
}

type nameSet map[string]struct{}

// Registry is the immutable result of a Builder. All lookups are safe for
// concurrent use.
type Registry struct {
	sets [categoryCount]nameSet
	// byMethodName indexes every method entry by its simple name for
	// extension method lookups.
	byMethodName map[string][]string
	// hosts are the static classes known to declare extension methods
	hosts nameSet
}

// Empty returns a registry with no entries
func Empty() *Registry {
	return NewBuilder().Build()
}

// Contains reports whether the exact name is in the category
func (r *Registry) Contains(c Category, name string) bool {
	_, ok := r.sets[c][Normalize(name)]
	return ok
}

func (r *Registry) any(c Category, names []string) bool {
	for _, n := range names {
		if _, ok := r.sets[c][n]; ok {
			return true
		}
	}
	return false
}

// IsPureMethod reports whether any candidate name is a known pure method, or
// a member of a known pure type.
func (r *Registry) IsPureMethod(candidates ...string) bool {
	if r.any(PureMethods, candidates) {
		return true
	}
	for _, c := range candidates {
		if i := strings.LastIndexByte(c, '.'); i > 0 && r.any(PureTypes, []string{c[:i]}) {
			return true
		}
	}
	return false
}

// MethodStrictness returns the strictness level a known method satisfies.
func (r *Registry) MethodStrictness(candidates ...string) (types.Strictness, bool) {
	switch {
	case r.IsPureMethod(candidates...):
		return types.Pure, true
	case r.any(PureExceptReadLocallyMethods, candidates):
		return types.PureExceptReadLocally, true
	case r.any(PureExceptLocallyMethods, candidates):
		return types.PureExceptLocally, true
	}
	return types.Pure, false
}

// IsPureType reports whether any candidate names a known pure type
func (r *Registry) IsPureType(candidates ...string) bool {
	return r.any(PureTypes, candidates)
}

// ReturnsNewObject reports whether a method is known to return fresh objects
func (r *Registry) ReturnsNewObject(candidates ...string) bool {
	return r.any(ReturnsNewObjectMethods, candidates)
}

// IsNotUsedAsObject reports whether the type parameter, named as
// "<declaring method or type>.<T>", is known not to be used as object.
func (r *Registry) IsNotUsedAsObject(candidates ...string) bool {
	return r.any(NotUsedAsObject, candidates)
}

// ExtensionCandidates returns the qualified names of known methods called
// name declared on an extension host directly inside one of the namespaces.
func (r *Registry) ExtensionCandidates(namespaces []string, name string) []string {
	var out []string
	for _, q := range r.byMethodName[name] {
		owner := q[:len(q)-len(name)-1]
		i := strings.LastIndexByte(owner, '.')
		if i < 0 {
			continue
		}
		if _, ok := r.hosts[owner]; ok && slices.Contains(namespaces, owner[:i]) {
			out = append(out, q)
		}
	}
	return out
}

// IsExtensionHost reports whether a type is known to declare extension methods
func (r *Registry) IsExtensionHost(name string) bool {
	_, ok := r.hosts[Normalize(name)]
	return ok
}

// CallCandidates returns the names an unbound call may resolve to. Extension
// methods are only considered when none of the instance candidates is a
// known method, since C# binds instance members first.
func (r *Registry) CallCandidates(instance, namespaces []string, name string, hasReceiver bool) []string {
	if !hasReceiver || r.knownMethod(instance) {
		return instance
	}
	ext := r.ExtensionCandidates(namespaces, name)
	if len(ext) == 0 {
		return instance
	}
	return append(slices.Clone(instance), ext...)
}

// knownMethod reports whether a name is listed as a method. Members covered
// only by a pure type do not count.
func (r *Registry) knownMethod(names []string) bool {
	for _, c := range []Category{PureMethods, PureExceptReadLocallyMethods, PureExceptLocallyMethods, ReturnsNewObjectMethods} {
		if r.any(c, names) {
			return true
		}
	}
	return false
}

// Lookup returns the categories containing the name
func (r *Registry) Lookup(name string) []Category {
	name = Normalize(name)
	var out []Category
	for _, c := range Categories() {
		if _, ok := r.sets[c][name]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Names returns the sorted entries of one category
func (r *Registry) Names(c Category) []string {
	out := make([]string, 0, len(r.sets[c]))
	for n := range r.sets[c] {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of entries in a category
func (r *Registry) Len(c Category) int {
	return len(r.sets[c])
}

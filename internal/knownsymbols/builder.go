package knownsymbols

import (
	"regexp"
	"sort"
	"strings"

	"github.com/standardbeagle/purity/internal/debug"
)

var (
	aritySuffix = regexp.MustCompile("`+[0-9]+")
	genericArgs = regexp.MustCompile(`<[^<>]*>`)
)

// Normalize reduces a name to the registry key form: fully qualified,
// without documentation-id prefix, generic arity, type arguments or
// parameter list.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > 2 && name[1] == ':' {
		name = name[2:]
	}
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	name = aritySuffix.ReplaceAllString(name, "")
	for genericArgs.MatchString(name) {
		name = genericArgs.ReplaceAllString(name, "")
	}
	return strings.TrimSpace(name)
}

// Builder accumulates registry entries before the run starts. It is not
// safe for concurrent use.
type Builder struct {
	sets     [categoryCount]nameSet
	hosts    nameSet
	warnings []error
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	b := &Builder{hosts: make(nameSet)}
	for i := range b.sets {
		b.sets[i] = make(nameSet)
	}
	return b
}

// Add inserts names into a category
func (b *Builder) Add(c Category, names ...string) *Builder {
	for _, n := range names {
		if n = Normalize(n); n != "" {
			b.sets[c][n] = struct{}{}
		}
	}
	return b
}

// AddExtensionHosts marks static classes whose listed methods may be
// called as extension methods
func (b *Builder) AddExtensionHosts(names ...string) *Builder {
	for _, n := range names {
		if n = Normalize(n); n != "" {
			b.hosts[n] = struct{}{}
		}
	}
	return b
}

// AddDefaults inserts the built-in framework knowledge
func (b *Builder) AddDefaults() *Builder {
	for c, names := range Defaults() {
		b.Add(c, names...)
	}
	return b.AddExtensionHosts(DefaultExtensionHosts()...)
}

// Warnings returns the loading problems seen so far. Each one degraded a
// category to fewer entries; none stops the run.
func (b *Builder) Warnings() []error {
	return b.warnings
}

func (b *Builder) warn(err error) {
	debug.LogKnown("%v\n", err)
	b.warnings = append(b.warnings, err)
}

func (b *Builder) log(format string, args ...interface{}) {
	debug.LogKnown(format, args...)
}

// Build freezes the entries. The three method strictness sets are made
// disjoint: a name keeps only its strictest category.
func (b *Builder) Build() *Registry {
	r := &Registry{byMethodName: make(map[string][]string), hosts: make(nameSet, len(b.hosts))}
	for n := range b.hosts {
		r.hosts[n] = struct{}{}
	}
	for i, s := range b.sets {
		cp := make(nameSet, len(s))
		for n := range s {
			cp[n] = struct{}{}
		}
		r.sets[i] = cp
	}

	for n := range r.sets[PureMethods] {
		delete(r.sets[PureExceptReadLocallyMethods], n)
		delete(r.sets[PureExceptLocallyMethods], n)
	}
	for n := range r.sets[PureExceptReadLocallyMethods] {
		delete(r.sets[PureExceptLocallyMethods], n)
	}

	for _, c := range []Category{PureMethods, PureExceptReadLocallyMethods, PureExceptLocallyMethods, ReturnsNewObjectMethods} {
		for n := range r.sets[c] {
			i := strings.LastIndexByte(n, '.')
			if i <= 0 {
				continue
			}
			simple := n[i+1:]
			r.byMethodName[simple] = appendUnique(r.byMethodName[simple], n)
		}
	}
	for _, list := range r.byMethodName {
		sort.Strings(list)
	}
	debug.LogKnown("registry built: %d pure methods, %d pure types\n",
		len(r.sets[PureMethods]), len(r.sets[PureTypes]))
	return r
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}

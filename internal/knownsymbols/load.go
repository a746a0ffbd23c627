package knownsymbols

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	perrors "github.com/standardbeagle/purity/internal/errors"
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

// Bundle is the TOML form of a set of registry entries:
//
//	pure_methods = ["Acme.Text.Slug.Make"]
//	pure_types = ["Acme.Money"]
type Bundle struct {
	PureMethods                  []string `toml:"pure_methods"`
	PureExceptLocallyMethods     []string `toml:"pure_except_locally_methods"`
	PureExceptReadLocallyMethods []string `toml:"pure_except_read_locally_methods"`
	ReturnsNewObjectMethods      []string `toml:"returns_new_object_methods"`
	PureTypes                    []string `toml:"pure_types"`
	NotUsedAsObject              []string `toml:"not_used_as_object"`
	ExtensionHosts               []string `toml:"extension_hosts"`
}

func (b *Bundle) entries() map[Category][]string {
	return map[Category][]string{
		PureMethods:                  b.PureMethods,
		PureExceptLocallyMethods:     b.PureExceptLocallyMethods,
		PureExceptReadLocallyMethods: b.PureExceptReadLocallyMethods,
		ReturnsNewObjectMethods:      b.ReturnsNewObjectMethods,
		PureTypes:                    b.PureTypes,
		NotUsedAsObject:              b.NotUsedAsObject,
	}
}

// ParseList reads one name per line. Blank lines and lines starting with
// '#' are skipped; trailing comments are stripped.
func ParseList(data []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names
}

// LoadList adds the names listed in a plain text file. A file that cannot
// be read leaves the category unchanged and records a warning.
func (b *Builder) LoadList(c Category, path string) *Builder {
	data, err := os.ReadFile(path)
	if err != nil {
		b.warn(perrors.NewKnownSymbolsError(c.String(), path, err))
		return b
	}
	names := ParseList(data)
	b.Add(c, names...)
	b.logLoaded(c.String(), path, len(names))
	return b
}

// LoadBundle adds the entries of a TOML bundle. A malformed bundle is
// ignored as a whole.
func (b *Builder) LoadBundle(path string) *Builder {
	data, err := os.ReadFile(path)
	if err != nil {
		b.warn(perrors.NewKnownSymbolsError("bundle", path, err))
		return b
	}
	var bundle Bundle
	if err := toml.Unmarshal(data, &bundle); err != nil {
		b.warn(perrors.NewKnownSymbolsError("bundle", path, fmt.Errorf("invalid TOML: %w", err)))
		return b
	}
	total := 0
	for c, names := range bundle.entries() {
		b.Add(c, names...)
		total += len(names)
	}
	b.AddExtensionHosts(bundle.ExtensionHosts...)
	total += len(bundle.ExtensionHosts)
	b.logLoaded("bundle", path, total)
	return b
}

func (b *Builder) logLoaded(what, path string, n int) {
	b.log("loaded %d %s entries from %s\n", n, what, path)
}

// ScanReferences adds the purity attributes found on compiled reference
// declarations.
func (b *Builder) ScanReferences(comp *model.Compilation) *Builder {
	count := 0
	for _, t := range comp.CompiledTypes() {
		count += b.scanType(t)
	}
	b.log("reference scan added %d entries\n", count)
	return b
}

func (b *Builder) scanType(t *model.Symbol) int {
	n := 0
	if t.Annotations.Has(types.AnnotationPure) || t.Annotations.Has(types.AnnotationAssumeIsPure) {
		b.Add(PureTypes, t.QualifiedName)
		n++
	}
	n += b.scanTypeParameters(t)
	for _, m := range t.Members {
		if m.Kind == types.SymbolKindType {
			n += b.scanType(m)
			continue
		}
		n += b.scanMember(m)
		n += b.scanTypeParameters(m)
		if m.Extension {
			b.AddExtensionHosts(t.QualifiedName)
		}
	}
	return n
}

func (b *Builder) scanMember(m *model.Symbol) int {
	n := 0
	a := m.Annotations
	switch {
	case a.Has(types.AnnotationPure), a.Has(types.AnnotationAssumeIsPure):
		b.Add(PureMethods, m.QualifiedName)
		n++
	case a.Has(types.AnnotationPureExceptReadLocally):
		b.Add(PureExceptReadLocallyMethods, m.QualifiedName)
		n++
	case a.Has(types.AnnotationPureExceptLocally):
		b.Add(PureExceptLocallyMethods, m.QualifiedName)
		n++
	}
	if a.Has(types.AnnotationReturnsNewObject) {
		b.Add(ReturnsNewObjectMethods, m.QualifiedName)
		n++
	}
	return n
}

func (b *Builder) scanTypeParameters(owner *model.Symbol) int {
	n := 0
	for _, tp := range owner.TypeParameters {
		if tp.Annotations.Has(types.AnnotationNotUsedAsObject) {
			b.Add(NotUsedAsObject, tp.QualifiedName)
			n++
		}
	}
	return n
}

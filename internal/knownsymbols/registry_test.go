package knownsymbols

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"System.Math.Abs", "System.Math.Abs"},
		{"  System.Math.Abs  ", "System.Math.Abs"},
		{"System.Collections.Generic.List`1.Add", "System.Collections.Generic.List.Add"},
		{"System.Linq.Enumerable.Select``2", "System.Linq.Enumerable.Select"},
		{"M:System.String.Concat(System.String,System.String)", "System.String.Concat"},
		{"System.Collections.Generic.Dictionary<TKey, List<TValue>>.Add", "System.Collections.Generic.Dictionary.Add"},
		{"T:System.String", "System.String"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestBuildMakesStrictnessSetsDisjoint(t *testing.T) {
	r := NewBuilder().
		Add(PureMethods, "Acme.A").
		Add(PureExceptReadLocallyMethods, "Acme.A", "Acme.B").
		Add(PureExceptLocallyMethods, "Acme.A", "Acme.B", "Acme.C").
		Build()

	assert.Equal(t, []string{"Acme.A"}, r.Names(PureMethods))
	assert.Equal(t, []string{"Acme.B"}, r.Names(PureExceptReadLocallyMethods))
	assert.Equal(t, []string{"Acme.C"}, r.Names(PureExceptLocallyMethods))

	level, ok := r.MethodStrictness("Acme.B")
	require.True(t, ok)
	assert.Equal(t, types.PureExceptReadLocally, level)

	_, ok = r.MethodStrictness("Acme.Unknown")
	assert.False(t, ok)
}

func TestPureTypeCoversMembers(t *testing.T) {
	r := NewBuilder().AddDefaults().Build()

	assert.True(t, r.IsPureMethod("System.Math.Abs"))
	assert.True(t, r.IsPureMethod("Demo.Math.Abs", "System.Math.Abs"), "any candidate may match")
	assert.True(t, r.IsPureMethod("System.Object.ToString"))
	assert.False(t, r.IsPureMethod("System.DateTime.Now"))
	assert.True(t, r.IsPureMethod("System.DateTime.AddDays"))
	assert.True(t, r.IsPureType("System.String"))

	level, ok := r.MethodStrictness("System.Collections.Generic.List.Add")
	require.True(t, ok)
	assert.Equal(t, types.PureExceptLocally, level)
	assert.True(t, r.ReturnsNewObject("System.Linq.Enumerable.ToList"))
}

func TestExtensionCandidates(t *testing.T) {
	r := NewBuilder().AddDefaults().
		Add(PureMethods, "Acme.Extensions.StringExt.Slug", "Acme.Extensions.Clock.Add").
		AddExtensionHosts("Acme.Extensions.StringExt").
		Build()

	got := r.ExtensionCandidates([]string{"System", "System.Linq"}, "Select")
	assert.Equal(t, []string{"System.Linq.Enumerable.Select"}, filterPrefix(got, "System.Linq"))
	assert.Empty(t, r.ExtensionCandidates([]string{"System"}, "Slug"))
	assert.Equal(t, []string{"Acme.Extensions.StringExt.Slug"},
		r.ExtensionCandidates([]string{"Acme.Extensions"}, "Slug"))

	// methods of ordinary types never stand in for extension methods
	assert.Empty(t, r.ExtensionCandidates([]string{"System", "System.Linq"}, "Add"))
	assert.Empty(t, r.ExtensionCandidates([]string{"Acme.Extensions"}, "Add"))
	assert.Empty(t, r.ExtensionCandidates([]string{"System"}, "Clone"))
	assert.True(t, r.IsExtensionHost("System.Linq.Enumerable"))
	assert.False(t, r.IsExtensionHost("System.DateTime"))
}

func TestCallCandidates(t *testing.T) {
	r := NewBuilder().AddDefaults().Build()
	ns := []string{"System", "System.Linq", "System.Collections.Generic", "System.Text"}

	tests := []struct {
		name       string
		instance   []string
		method     string
		receiver   bool
		wantLevel  types.Strictness
		wantKnown  bool
		extensions bool
	}{
		{"list add binds the instance method", []string{"System.Collections.Generic.List.Add"}, "Add", true,
			types.PureExceptLocally, true, false},
		{"list reverse wins over Enumerable.Reverse", []string{"System.Collections.Generic.List.Reverse"}, "Reverse", true,
			types.PureExceptLocally, true, false},
		{"string builder append wins over Enumerable.Append", []string{"System.Text.StringBuilder.Append"}, "Append", true,
			types.PureExceptLocally, true, false},
		{"unknown instance method falls back to LINQ", []string{"Acme.Bag.Select"}, "Select", true,
			types.Pure, true, true},
		{"static call never looks at extensions", []string{"Acme.Bag.Select"}, "Select", false,
			types.Pure, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names := r.CallCandidates(tt.instance, ns, tt.method, tt.receiver)
			assert.Equal(t, tt.extensions, len(names) > len(tt.instance))
			level, ok := r.MethodStrictness(names...)
			assert.Equal(t, tt.wantKnown, ok)
			if ok {
				assert.Equal(t, tt.wantLevel, level)
			}
		})
	}

	assert.False(t, r.ReturnsNewObject(r.CallCandidates([]string{"Acme.Shape.Clone"}, ns, "Clone", true)...))
}

func filterPrefix(names []string, prefix string) []string {
	var out []string
	for _, n := range names {
		if len(n) >= len(prefix) && n[:len(prefix)] == prefix {
			out = append(out, n)
		}
	}
	return out
}

func TestLoadListDegradesOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "pure.txt")
	require.NoError(t, os.WriteFile(good, []byte(`
# pure helpers
Acme.Text.Slug.Make
Acme.Text.Slug.Parse(System.String)  # parameter list is ignored

`), 0644))

	b := NewBuilder().
		LoadList(PureMethods, good).
		LoadList(PureTypes, filepath.Join(dir, "missing.txt"))
	r := b.Build()

	assert.Equal(t, []string{"Acme.Text.Slug.Make", "Acme.Text.Slug.Parse"}, r.Names(PureMethods))
	assert.Equal(t, 0, r.Len(PureTypes))
	require.Len(t, b.Warnings(), 1)
	assert.True(t, errors.Is(b.Warnings()[0], fs.ErrNotExist))
}

func TestLoadBundle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "known.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
pure_methods = ["Acme.Money.Add"]
pure_types = ["Acme.Currency"]
returns_new_object_methods = ["Acme.Money.Copy"]
not_used_as_object = ["Acme.Box.Wrap.T"]
extension_hosts = ["Acme.Money.Ext"]
`), 0644))

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("pure_methods = [unterminated"), 0644))

	b := NewBuilder().LoadBundle(path).LoadBundle(bad)
	r := b.Build()

	assert.True(t, r.IsPureMethod("Acme.Money.Add"))
	assert.True(t, r.IsPureMethod("Acme.Currency.Parse"))
	assert.True(t, r.ReturnsNewObject("Acme.Money.Copy"))
	assert.True(t, r.IsNotUsedAsObject("Acme.Box.Wrap.T"))
	assert.True(t, r.IsExtensionHost("Acme.Money.Ext"))
	assert.Len(t, b.Warnings(), 1)
	assert.ElementsMatch(t, []Category{PureMethods}, r.Lookup("Acme.Money.Add"))
}

func TestScanReferences(t *testing.T) {
	comp := model.NewCompilation()
	lib := &model.Symbol{
		Kind: types.SymbolKindType, Name: "Lib", QualifiedName: "Acme.Lib",
		Compiled: true, Flavor: model.FlavorClass,
	}
	pure := &model.Symbol{Kind: types.SymbolKindMethod, Name: "Pure", QualifiedName: "Acme.Lib.Pure",
		Annotations: types.AnnotationPure, Container: lib}
	pel := &model.Symbol{Kind: types.SymbolKindMethod, Name: "Fill", QualifiedName: "Acme.Lib.Fill",
		Annotations: types.AnnotationPureExceptLocally, Container: lib}
	fresh := &model.Symbol{Kind: types.SymbolKindMethod, Name: "Make", QualifiedName: "Acme.Lib.Make",
		Annotations: types.AnnotationReturnsNewObject, Container: lib}
	tp := &model.Symbol{Kind: types.SymbolKindTypeParameter, Name: "T", QualifiedName: "Acme.Lib.Make.T",
		Annotations: types.AnnotationNotUsedAsObject, Container: fresh}
	fresh.TypeParameters = []*model.Symbol{tp}
	lib.Members = []*model.Symbol{pure, pel, fresh}
	comp.AddType(lib)

	ext := &model.Symbol{Kind: types.SymbolKindType, Name: "TextExt", QualifiedName: "Acme.TextExt",
		Compiled: true, Flavor: model.FlavorClass, Static: true}
	ext.Members = []*model.Symbol{{Kind: types.SymbolKindMethod, Name: "Slug", QualifiedName: "Acme.TextExt.Slug",
		Annotations: types.AnnotationPure, Static: true, Extension: true, Container: ext}}
	comp.AddType(ext)

	source := &model.Symbol{Kind: types.SymbolKindType, Name: "Mine", QualifiedName: "Acme.Mine",
		Annotations: types.AnnotationPure}
	comp.AddType(source)

	r := NewBuilder().ScanReferences(comp).Build()
	assert.True(t, r.IsPureMethod("Acme.Lib.Pure"))
	assert.Equal(t, []string{"Acme.Lib.Fill"}, r.Names(PureExceptLocallyMethods))
	assert.True(t, r.ReturnsNewObject("Acme.Lib.Make"))
	assert.True(t, r.IsNotUsedAsObject("Acme.Lib.Make.T"))
	assert.False(t, r.IsPureType("Acme.Mine"), "source types are analyzed, not trusted")
	assert.True(t, r.IsExtensionHost("Acme.TextExt"))
	assert.False(t, r.IsExtensionHost("Acme.Lib"))
	assert.Equal(t, []string{"Acme.TextExt.Slug"}, r.ExtensionCandidates([]string{"Acme"}, "Slug"))
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, ok := ParseCategory(c.String())
		require.True(t, ok)
		assert.Equal(t, c, got)
	}
	c, ok := ParseCategory("pure_types")
	assert.True(t, ok)
	assert.Equal(t, PureTypes, c)
	_, ok = ParseCategory("nope")
	assert.False(t, ok)
}

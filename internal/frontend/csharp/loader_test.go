package csharp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/standardbeagle/purity/internal/errors"
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

const counterSource = `using System;

namespace Demo
{
    public class Counter
    {
        static int created;
        private readonly int start;

        public Counter(int start)
        {
            this.start = start;
        }

        public int Count { get; set; }

        [IsPure]
        public int Next() => start + Count;

        [IsPureExceptLocally]
        public void Reset()
        {
            Count = 0;
        }
    }
}
`

const boxSource = `namespace Demo.Generic;

public class Box<[NotUsedAsObject] T> where T : class
{
    public T Value { get; }

    public Box(T value) { Value = value; }
}
`

const librarySource = `namespace Vendor
{
    public static class Strings
    {
        [IsPure]
        public static string Shout(string s)
        {
            return s.ToUpper();
        }

        public static void Log(string s) { }
    }
}
`

func load(t *testing.T, sources []SourceFile, refs ...SourceFile) (*model.Compilation, []error) {
	t.Helper()
	comp, warnings := Load(sources, refs)
	require.NotNil(t, comp)
	return comp, warnings
}

func method(t *testing.T, typ *model.Symbol, name string) *model.Symbol {
	t.Helper()
	m := typ.LookupMethod(name, -1)
	require.NotNil(t, m, "method %s", name)
	return m
}

func TestLoad_Declarations(t *testing.T) {
	comp, warnings := load(t, []SourceFile{{Path: "Counter.cs", Content: []byte(counterSource)}})
	assert.Empty(t, warnings)

	counter := comp.LookupType("Demo.Counter")
	require.NotNil(t, counter)
	assert.Equal(t, model.FlavorClass, counter.Flavor)
	assert.False(t, counter.Compiled)
	assert.Equal(t, "Counter.cs", counter.Location.File)

	created := counter.LookupMember("created")
	require.NotNil(t, created)
	assert.Equal(t, types.SymbolKindField, created.Kind)
	assert.True(t, created.Static)

	start := counter.LookupMember("start")
	require.NotNil(t, start)
	assert.True(t, start.ReadOnly)

	count := counter.LookupMember("Count")
	require.NotNil(t, count)
	assert.Equal(t, types.SymbolKindProperty, count.Kind)
	assert.True(t, count.AutoProperty)

	next := method(t, counter, "Next")
	assert.True(t, next.Annotations.Has(types.AnnotationPure))
	assert.NotNil(t, next.Body)
	assert.Equal(t, 18, next.Location.Line)

	reset := method(t, counter, "Reset")
	level, ok := reset.Annotations.DeclaredStrictness()
	assert.True(t, ok)
	assert.Equal(t, types.PureExceptLocally, level)

	ctors := counter.Constructors(false)
	require.Len(t, ctors, 1)
	assert.Len(t, ctors[0].Parameters, 1)
	assert.NotNil(t, ctors[0].Body)
}

func TestLoad_GenericTypes(t *testing.T) {
	comp, _ := load(t, []SourceFile{{Path: "Box.cs", Content: []byte(boxSource)}})

	box := comp.LookupGeneric("Demo.Generic.Box", 1)
	require.NotNil(t, box)
	require.Len(t, box.TypeParameters, 1)

	tp := box.TypeParameters[0]
	assert.Equal(t, "T", tp.Name)
	assert.Equal(t, types.SymbolKindTypeParameter, tp.Kind)
	assert.True(t, tp.ClassConstraint)
	assert.True(t, tp.Annotations.Has(types.AnnotationNotUsedAsObject))
	assert.Nil(t, comp.LookupType("Demo.Generic.Box"), "generic types are keyed by arity")
}

func TestLoad_ReferencesHaveNoBodies(t *testing.T) {
	comp, warnings := load(t,
		[]SourceFile{{Path: "Counter.cs", Content: []byte(counterSource)}},
		SourceFile{Path: "stubs/Vendor.cs", Content: []byte(librarySource)})
	assert.Empty(t, warnings)

	strs := comp.LookupType("Vendor.Strings")
	require.NotNil(t, strs)
	assert.True(t, strs.Compiled)
	assert.True(t, strs.Static)

	shout := method(t, strs, "Shout")
	assert.Nil(t, shout.Body)
	assert.True(t, shout.Annotations.Has(types.AnnotationPure))
	assert.Nil(t, method(t, strs, "Log").Body)

	require.Len(t, comp.CompiledTypes(), 1)
	source := comp.SourceTypes()
	require.Len(t, source, 1)
	assert.Equal(t, "Demo.Counter", source[0].QualifiedName)
}

func TestLoad_SyntaxErrorsAreWarnings(t *testing.T) {
	broken := `namespace Demo { public class Broken { public int M() { int x = ; return x; } } }`
	_, warnings := load(t, []SourceFile{{Path: "Broken.cs", Content: []byte(broken)}})
	require.NotEmpty(t, warnings)

	var pe *perrors.ParseError
	require.True(t, errors.As(warnings[0], &pe))
	assert.Equal(t, "Broken.cs", pe.FilePath)
	assert.Equal(t, 1, pe.Line)
}

func TestParse_CapsSyntaxErrors(t *testing.T) {
	var src []byte
	for range 3 * maxSyntaxErrors {
		src = append(src, []byte("class { ; }\n")...)
	}
	f, warnings := Parse("Noise.cs", src)
	require.NotNil(t, f)
	defer f.Close()

	assert.NotEmpty(t, warnings)
	assert.LessOrEqual(t, len(warnings), maxSyntaxErrors)
	assert.NotNil(t, f.Root())
}

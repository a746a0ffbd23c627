package generics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/purity/internal/frontend/csharp"
	"github.com/standardbeagle/purity/internal/knownsymbols"
)

const utilSource = `using System;

public static class Util
{
    public static string Show<T>(T value) => value.ToString();
    public static T Same<T>(T value) => value;
    public static object Box<T>(T value) => (object)value;
    public static string Label<T>(T value) => "v=" + value;
    public static string Forward<T>(T value) => Show(value);
    public static T Keep<T>(T value) => Same(value);
    public static int Count<T>(T[] items) => items.Length;
    public static T Ping<T>(T value, int n) => n == 0 ? value : Pong(value, n - 1);
    public static T Pong<T>(T value, int n) => n == 0 ? value : Ping(value, n - 1);
    public static string Loop<T>(T value, int n) => n == 0 ? value.ToString() : Spin(value, n - 1);
    public static string Spin<T>(T value, int n) => Loop(value, n - 1);
}
`

func TestFindObjectUsages(t *testing.T) {
	comp, warnings := csharp.Load([]csharp.SourceFile{{Path: "Util.cs", Content: []byte(utilSource)}}, nil)
	require.Empty(t, warnings)
	util := comp.LookupType("Util")
	require.NotNil(t, util)
	known := knownsymbols.NewBuilder().AddDefaults().Build()

	tests := []struct {
		method string
		used   bool
	}{
		{"Show", true},
		{"Same", false},
		{"Box", true},
		{"Label", true},
		{"Forward", true},
		{"Keep", false},
		{"Count", false},
		{"Ping", false},
		{"Pong", false},
		{"Loop", true},
		{"Spin", true},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			m := util.LookupMethod(tt.method, -1)
			require.NotNil(t, m)
			require.Len(t, m.TypeParameters, 1)

			got := FindObjectUsages(m, m.TypeParameters[0], known)
			if !tt.used {
				assert.Empty(t, got)
				return
			}
			require.NotEmpty(t, got)
			assert.Equal(t, "Util.cs", got[0].File)
			assert.Equal(t, m.Location.Line, got[0].Line)
		})
	}
}

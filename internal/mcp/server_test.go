package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/purity/internal/config"
	"github.com/standardbeagle/purity/testhelpers"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	return NewServer(config.Default(root), nil), root
}

// callTool invokes a handler the way the SDK does
func callTool(t *testing.T, s *Server, name string, params map[string]any) *mcp.CallToolResult {
	t.Helper()
	args, err := json.Marshal(params)
	require.NoError(t, err)
	req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Name: name, Arguments: args}}

	var handler mcp.ToolHandler
	switch name {
	case toolCheckPurity:
		handler = s.withRecovery(name, s.handleCheckPurity)
	case toolKnownSymbol:
		handler = s.withRecovery(name, s.handleKnownSymbol)
	default:
		t.Fatalf("unknown tool %s", name)
	}
	res, err := handler(context.Background(), req)
	require.NoError(t, err, "tool errors belong in the result")
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult, i int) string {
	t.Helper()
	require.Greater(t, len(res.Content), i)
	tc, ok := res.Content[i].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestCheckPurity_InlineSource(t *testing.T) {
	s, _ := newTestServer(t)
	res := callTool(t, s, toolCheckPurity, map[string]any{"source": testhelpers.ImpureCounter, "file_name": "Counter.cs"})
	assert.False(t, res.IsError)

	var summary checkSummary
	require.NoError(t, json.Unmarshal([]byte(text(t, res, 0)), &summary))
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 1, summary.Types)
	assert.Contains(t, text(t, res, 1), "Counter.cs:10:")
	assert.Contains(t, text(t, res, 1), "PurityAnalyzer")
}

func TestCheckPurity_JSONFormat(t *testing.T) {
	s, _ := newTestServer(t)
	res := callTool(t, s, toolCheckPurity, map[string]any{"source": testhelpers.ImpureCounter, "format": "json"})
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, res, 0)), &out))
	assert.Contains(t, text(t, res, 0), "Counter.Next")
}

func TestCheckPurity_Path(t *testing.T) {
	s, root := newTestServer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Counter.cs"), []byte(testhelpers.ImpureCounter), 0o644))

	res := callTool(t, s, toolCheckPurity, map[string]any{"path": "src"})
	assert.False(t, res.IsError)

	var summary checkSummary
	require.NoError(t, json.Unmarshal([]byte(text(t, res, 0)), &summary))
	assert.Equal(t, 1, summary.Sources)
	assert.Equal(t, 1, summary.Errors)
	assert.Contains(t, text(t, res, 1), "src/Counter.cs:10:")
}

func TestCheckPurity_ReportsUnknownArguments(t *testing.T) {
	s, _ := newTestServer(t)
	res := callTool(t, s, toolCheckPurity, map[string]any{"source": "class A {}", "strict": true})

	var summary checkSummary
	require.NoError(t, json.Unmarshal([]byte(text(t, res, 0)), &summary))
	require.Len(t, summary.Unexpected, 1)
	assert.Equal(t, "strict", summary.Unexpected[0].Name)
}

func TestCheckPurity_Errors(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"neither source nor path", map[string]any{}, "exactly one"},
		{"both source and path", map[string]any{"source": "class A {}", "path": "src"}, "exactly one"},
		{"bad format", map[string]any{"source": "class A {}", "format": "xml"}, "unknown output format"},
		{"missing path", map[string]any{"path": "nowhere"}, "cannot analyze nowhere"},
		{"path outside root", map[string]any{"path": "../elsewhere"}, "outside the project root"},
		{"wrong type", map[string]any{"source": 42}, "invalid parameters"},
	}
	s, _ := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, s, toolCheckPurity, tt.params)
			assert.True(t, res.IsError)
			assert.Contains(t, text(t, res, 0), tt.want)
		})
	}
}

func TestKnownSymbol(t *testing.T) {
	s, _ := newTestServer(t)

	res := callTool(t, s, toolKnownSymbol, map[string]any{"name": "System.String"})
	require.False(t, res.IsError)
	var found knownSymbolResponse
	require.NoError(t, json.Unmarshal([]byte(text(t, res, 0)), &found))
	assert.True(t, found.Known)
	assert.Contains(t, found.Categories, "pure-types")

	res = callTool(t, s, toolKnownSymbol, map[string]any{"name": "Acme.Unknown.Thing"})
	var missing knownSymbolResponse
	require.NoError(t, json.Unmarshal([]byte(text(t, res, 0)), &missing))
	assert.False(t, missing.Known)

	res = callTool(t, s, toolKnownSymbol, map[string]any{"category": "pure-types", "max_results": 2})
	var listed knownSymbolResponse
	require.NoError(t, json.Unmarshal([]byte(text(t, res, 0)), &listed))
	assert.Len(t, listed.Names, 2)
	assert.True(t, listed.Truncated)
	assert.Greater(t, listed.Total, 2)

	res = callTool(t, s, toolKnownSymbol, map[string]any{"category": "impure-things"})
	assert.True(t, res.IsError)

	res = callTool(t, s, toolKnownSymbol, map[string]any{})
	assert.True(t, res.IsError)
}

func TestServerOverInMemoryTransport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, _ := newTestServer(t)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.Connect(ctx, serverTransport)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{toolCheckPurity, toolKnownSymbol}, names)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolCheckPurity,
		Arguments: map[string]any{"source": testhelpers.ImpureCounter},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 2)
}

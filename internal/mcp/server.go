// Package mcp serves purity checks to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/purity/internal/cache"
	"github.com/standardbeagle/purity/internal/config"
	pdebug "github.com/standardbeagle/purity/internal/debug"
	"github.com/standardbeagle/purity/internal/knownsymbols"
	"github.com/standardbeagle/purity/internal/version"
	"github.com/standardbeagle/purity/internal/workspace"
)

const (
	toolCheckPurity = "check_purity"
	toolKnownSymbol = "known_symbol"
)

// Server exposes the analyzer as MCP tools
type Server struct {
	cfg    *config.Config
	cache  *cache.ResultsCache
	server *mcp.Server

	registryOnce sync.Once
	registry     *knownsymbols.Registry
	registryErrs []error
}

// NewServer creates a server for the project described by cfg. rc may be
// nil to disable result caching.
func NewServer(cfg *config.Config, rc *cache.ResultsCache) *Server {
	s := &Server{cfg: cfg, cache: rc}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    version.Name,
		Version: version.Version,
	}, nil)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name: toolCheckPurity,
		Description: "Check C# members annotated with purity attributes ([IsPure], [IsPureExceptLocally], " +
			"[IsPureExceptReadLocally], [ReturnsNewObject], [NotUsedAsObject]). Pass inline 'source' or a project 'path'.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source": {
					Type:        "string",
					Description: "C# source text to analyze on its own",
				},
				"file_name": {
					Type:        "string",
					Description: "Name reported for inline source (default Snippet.cs)",
				},
				"path": {
					Type:        "string",
					Description: "File or directory to analyze, relative to the project root",
				},
				"format": {
					Type:        "string",
					Description: "Output format",
					Enum:        []any{"text", "json", "sarif"},
				},
			},
		},
	}, s.withRecovery(toolCheckPurity, s.handleCheckPurity))

	s.server.AddTool(&mcp.Tool{
		Name:        toolKnownSymbol,
		Description: "Report which known-symbol sets (pure-methods, pure-types, returns-new-object-methods, ...) contain a name, or list a set.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name": {
					Type:        "string",
					Description: "Fully qualified name, e.g. System.Math.Abs or System.String",
				},
				"category": {
					Type:        "string",
					Description: "Set to list when no name is given",
				},
				"max_results": {
					Type:        "integer",
					Description: "Maximum names listed (default 100)",
				},
			},
		},
	}, s.withRecovery(toolKnownSymbol, s.handleKnownSymbol))
}

// withRecovery turns a handler panic into an error result
func (s *Server) withRecovery(operation string, handler mcp.ToolHandler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				pdebug.LogMCP("PANIC RECOVERED in %s: %v\n%s\n", operation, r, debug.Stack())
				result, err = createErrorResponse(operation, fmt.Errorf("internal error: %v", r))
			}
		}()
		pdebug.LogMCP("call %s\n", operation)
		return handler(ctx, req)
	}
}

// knownRegistry builds the configured registry once per server
func (s *Server) knownRegistry() (*knownsymbols.Registry, []error) {
	s.registryOnce.Do(func() {
		s.registry, s.registryErrs = workspace.KnownSymbols(s.cfg).BuildRegistry(nil)
	})
	return s.registry, s.registryErrs
}

// Start serves over stdio until ctx is done or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	pdebug.SetMCPMode(true)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves one session over t
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/purity/internal/analyzer"
	"github.com/standardbeagle/purity/internal/diagnostics"
	"github.com/standardbeagle/purity/internal/frontend/csharp"
	"github.com/standardbeagle/purity/internal/knownsymbols"
	"github.com/standardbeagle/purity/internal/version"
	"github.com/standardbeagle/purity/internal/workspace"
	"github.com/standardbeagle/purity/pkg/pathutil"
)

const defaultSnippetName = "Snippet.cs"

// CheckParams are the arguments of check_purity
type CheckParams struct {
	Source   string `json:"source,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Path     string `json:"path,omitempty"`
	Format   string `json:"format,omitempty"`
}

var checkFields = map[string]struct{}{"source": {}, "file_name": {}, "path": {}, "format": {}}

// checkSummary precedes the formatted diagnostics of a text result
type checkSummary struct {
	Errors     int            `json:"errors"`
	Warnings   int            `json:"warnings"`
	Types      int            `json:"types"`
	Sources    int            `json:"sources"`
	Cached     bool           `json:"cached,omitempty"`
	Problems   []string       `json:"problems,omitempty"`
	Unexpected []UnknownField `json:"unknown_arguments,omitempty"`
}

func (s *Server) handleCheckPurity(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params CheckParams
	args := arguments(req)
	if err := json.Unmarshal(args, &params); err != nil {
		return createErrorResponse(toolCheckPurity, fmt.Errorf("invalid parameters: %w", err))
	}
	unknown, _ := collectUnknownFields(args, checkFields)

	format, err := diagnostics.ParseFormat(params.Format)
	if err != nil {
		return createErrorResponse(toolCheckPurity, err)
	}
	if (params.Source == "") == (params.Path == "") {
		return createErrorResponse(toolCheckPurity, errors.New("exactly one of 'source' or 'path' is required"))
	}

	var rep *workspace.Report
	if params.Source != "" {
		rep, err = s.checkSource(ctx, params)
	} else {
		rep, err = s.checkPath(ctx, params.Path)
	}
	if err != nil {
		return createErrorResponse(toolCheckPurity, err)
	}

	var buf bytes.Buffer
	opts := diagnostics.Options{
		Format:      format,
		BaseDir:     s.cfg.Project.Root,
		ToolVersion: version.Version,
	}
	if err := diagnostics.Write(&buf, rep.Diagnostics, opts); err != nil {
		return createErrorResponse(toolCheckPurity, err)
	}
	if format != diagnostics.FormatText {
		return createTextResponse(buf.String()), nil
	}

	errs, warns := diagnostics.Count(rep.Diagnostics)
	summary := checkSummary{
		Errors:     errs,
		Warnings:   warns,
		Types:      rep.Types,
		Sources:    rep.Sources,
		Cached:     rep.Cached,
		Unexpected: unknown,
	}
	for _, w := range rep.Warnings {
		summary.Problems = append(summary.Problems, w.Error())
	}
	head, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(head)},
			&mcp.TextContent{Text: buf.String()},
		},
	}, nil
}

func (s *Server) checkSource(ctx context.Context, params CheckParams) (*workspace.Report, error) {
	name := params.FileName
	if name == "" {
		name = defaultSnippetName
	}
	in := workspace.Input(s.cfg, &workspace.Files{
		Sources: []csharp.SourceFile{{Path: name, Content: []byte(params.Source)}},
	})
	res, err := analyzer.Analyze(ctx, in)
	if err != nil {
		return nil, err
	}
	return &workspace.Report{
		Diagnostics: res.Diagnostics,
		Warnings:    res.Warnings,
		Types:       res.Types,
		Sources:     1,
	}, nil
}

func (s *Server) checkPath(ctx context.Context, path string) (*workspace.Report, error) {
	full := s.cfg.Resolve(filepath.FromSlash(path))
	if !pathutil.Within(full, s.cfg.Project.Root) {
		return nil, fmt.Errorf("cannot analyze %s: outside the project root", path)
	}
	if _, err := os.Stat(full); err != nil {
		return nil, fmt.Errorf("cannot analyze %s: %w", path, err)
	}
	return workspace.Check(ctx, s.cfg, s.cache, version.BuildID(), full)
}

// KnownSymbolParams are the arguments of known_symbol
type KnownSymbolParams struct {
	Name       string `json:"name,omitempty"`
	Category   string `json:"category,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type knownSymbolResponse struct {
	Name       string   `json:"name,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Known      bool     `json:"known"`
	Category   string   `json:"category,omitempty"`
	Names      []string `json:"names,omitempty"`
	Total      int      `json:"total,omitempty"`
	Truncated  bool     `json:"truncated,omitempty"`
	Problems   []string `json:"problems,omitempty"`
}

func (s *Server) handleKnownSymbol(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params KnownSymbolParams
	if err := json.Unmarshal(arguments(req), &params); err != nil {
		return createErrorResponse(toolKnownSymbol, fmt.Errorf("invalid parameters: %w", err))
	}
	if params.MaxResults <= 0 {
		params.MaxResults = 100
	}

	reg, problems := s.knownRegistry()
	resp := knownSymbolResponse{}
	for _, p := range problems {
		resp.Problems = append(resp.Problems, p.Error())
	}

	switch {
	case params.Name != "":
		resp.Name = params.Name
		for _, c := range reg.Lookup(params.Name) {
			resp.Categories = append(resp.Categories, c.String())
		}
		resp.Known = len(resp.Categories) > 0
	case params.Category != "":
		c, ok := knownsymbols.ParseCategory(params.Category)
		if !ok {
			return createErrorResponse(toolKnownSymbol, fmt.Errorf("unknown category %q", params.Category))
		}
		names := reg.Names(c)
		resp.Category = c.String()
		resp.Total = len(names)
		resp.Known = len(names) > 0
		if len(names) > params.MaxResults {
			names = names[:params.MaxResults]
			resp.Truncated = true
		}
		resp.Names = names
	default:
		return createErrorResponse(toolKnownSymbol, errors.New("'name' or 'category' is required"))
	}
	return createJSONResponse(resp)
}

func arguments(req *mcp.CallToolRequest) json.RawMessage {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return json.RawMessage("{}")
	}
	return req.Params.Arguments
}

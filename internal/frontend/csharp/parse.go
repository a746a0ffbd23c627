// Package csharp is the C# front end: it parses sources with tree-sitter
// and binds declarations and member bodies into a model.Compilation.
package csharp

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	"github.com/standardbeagle/purity/internal/debug"
	purityerrors "github.com/standardbeagle/purity/internal/errors"
)

// maxSyntaxErrors caps the parse warnings reported per file
const maxSyntaxErrors = 10

// SourceFile is one input file
type SourceFile struct {
	Path    string
	Content []byte
}

// File is a parsed source file. The tree stays valid until Close.
type File struct {
	Path string
	Src  []byte
	Tree *tree_sitter.Tree
}

// Root returns the compilation_unit node
func (f *File) Root() *tree_sitter.Node {
	if f.Tree == nil {
		return nil
	}
	return f.Tree.RootNode()
}

// Close releases the syntax tree
func (f *File) Close() {
	if f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}

// Parse builds the syntax tree of one file. Syntax errors come back as
// ParseError warnings; the recovered tree is still usable.
func Parse(path string, src []byte) (*File, []error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	language := tree_sitter.NewLanguage(tree_sitter_csharp.Language())
	if err := parser.SetLanguage(language); err != nil {
		return nil, []error{purityerrors.NewParseError(path, 0, 0, "", fmt.Errorf("failed to set C# language: %w", err))}
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, []error{purityerrors.NewParseError(path, 0, 0, "", fmt.Errorf("parser returned no tree"))}
	}
	f := &File{Path: path, Src: src, Tree: tree}

	var warnings []error
	if root := tree.RootNode(); root != nil && root.HasError() {
		collectSyntaxErrors(root, f, &warnings)
	}
	debug.LogBind("parsed %s (%d bytes, %d syntax errors)", path, len(src), len(warnings))
	return f, warnings
}

func collectSyntaxErrors(n *node, f *File, out *[]error) {
	if len(*out) >= maxSyntaxErrors {
		return
	}
	if n.IsError() || n.IsMissing() {
		loc := location(n, f.Path)
		token := text(n, f.Src)
		if len(token) > 40 {
			token = token[:40]
		}
		reason := "unexpected syntax"
		if n.IsMissing() {
			reason = "missing " + n.Kind()
		}
		*out = append(*out, purityerrors.NewParseError(f.Path, loc.Line, loc.Column, token, fmt.Errorf("%s", reason)))
		return
	}
	if !n.HasError() {
		return
	}
	for _, c := range children(n) {
		collectSyntaxErrors(c, f, out)
	}
}

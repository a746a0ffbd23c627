package csharp

import (
	"strconv"
	"strings"

	"fortio.org/safecast"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/purity/internal/types"
)

type node = tree_sitter.Node

// text returns the source text covered by n
func text(n *node, src []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if start > uint(len(src)) || end > uint(len(src)) || start > end {
		return ""
	}
	return string(src[start:end])
}

// location converts a node's range to a Location. tree-sitter rows and
// columns are zero-based.
func location(n *node, path string) types.Location {
	if n == nil {
		return types.Location{File: path}
	}
	start, end := n.StartPosition(), n.EndPosition()
	return types.Location{
		File:      path,
		Line:      toInt(start.Row) + 1,
		Column:    toInt(start.Column) + 1,
		EndLine:   toInt(end.Row) + 1,
		EndColumn: toInt(end.Column) + 1,
		Offset:    toInt(n.StartByte()),
		EndOffset: toInt(n.EndByte()),
	}
}

func toInt(v uint) int {
	i, err := safecast.Conv[int](v)
	if err != nil {
		return 0
	}
	return i
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

// children returns every child of n, named or not
func children(n *node) []*node {
	if n == nil {
		return nil
	}
	out := make([]*node, 0, n.ChildCount())
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// named returns the named children of n, skipping comments
func named(n *node) []*node {
	if n == nil {
		return nil
	}
	out := make([]*node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// field returns the first child bound to any of the field names
func field(n *node, names ...string) *node {
	if n == nil {
		return nil
	}
	for _, name := range names {
		if c := n.ChildByFieldName(name); c != nil {
			return c
		}
	}
	return nil
}

// child returns the first named child of one of the kinds
func child(n *node, kinds ...string) *node {
	for _, c := range named(n) {
		for _, k := range kinds {
			if c.Kind() == k {
				return c
			}
		}
	}
	return nil
}

// childrenOf returns the named children of one of the kinds
func childrenOf(n *node, kinds ...string) []*node {
	var out []*node
	for _, c := range named(n) {
		for _, k := range kinds {
			if c.Kind() == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// hasToken reports whether n has an anonymous child with the given text
func hasToken(n *node, token string) bool {
	for _, c := range children(n) {
		if !c.IsNamed() && c.Kind() == token {
			return true
		}
	}
	return false
}

// same reports whether two handles denote the same syntax node
func same(a, b *node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

var modifierKeywords = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true,
	"static": true, "readonly": true, "const": true, "abstract": true,
	"virtual": true, "override": true, "sealed": true, "extern": true,
	"partial": true, "async": true, "unsafe": true, "volatile": true,
	"new": true, "ref": true, "required": true, "file": true, "fixed": true,
}

// modifiers collects the modifier keywords of a declaration
func modifiers(n *node, src []byte) map[string]bool {
	out := make(map[string]bool)
	for _, c := range children(n) {
		switch {
		case c.Kind() == "modifier":
			for _, w := range strings.Fields(text(c, src)) {
				out[w] = true
			}
		case !c.IsNamed() && modifierKeywords[c.Kind()]:
			out[c.Kind()] = true
		}
	}
	return out
}

// declName returns the declared identifier of a declaration node
func declName(n *node, src []byte) (string, *node) {
	id := field(n, "name")
	if id == nil {
		ids := childrenOf(n, "identifier")
		if len(ids) == 0 {
			return "", nil
		}
		// a leading identifier is the declared type
		id = ids[len(ids)-1]
	}
	return text(id, src), id
}

// isTypeNode reports whether a node kind denotes a type in declarations
func isTypeNode(kind string) bool {
	switch kind {
	case "predefined_type", "identifier", "generic_name", "qualified_name", "alias_qualified_name",
		"nullable_type", "array_type", "pointer_type", "tuple_type", "implicit_type",
		"ref_type", "scoped_type", "function_pointer_type":
		return true
	}
	return false
}

// unquote strips the quotes of a string literal as written in an attribute
func unquote(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "nameof(") && strings.HasSuffix(s, ")") {
		inner := s[len("nameof(") : len(s)-1]
		if i := strings.LastIndexByte(inner, '.'); i >= 0 {
			inner = inner[i+1:]
		}
		return strings.TrimSpace(inner)
	}
	return s
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"fmt"

	"github.com/open2b/mustatic/ast"
	"github.com/open2b/mustatic/lexer"
	"github.com/open2b/mustatic/parser"
)

// MaxPartialDepth is the default limit on partial/parent inclusion depth,
// used when a model does not configure its own.
const MaxPartialDepth = 64

// PathMapping redirects a partial or parent name to an inline template or
// an alternate resource path, keyed by the name as it appears in the
// template source.
type PathMapping map[string]Mapped

// Mapped is one entry of a PathMapping: exactly one of Inline or Path is
// set.
type Mapped struct {
	Inline string
	Path   string
}

// Source identifies how to obtain one template's text: an inline string
// takes precedence over Path, which is resolved against Reader; if
// neither is set, Path is synthesized by the caller (e.g.
// "<Model>.mustache") before Load is called.
type Source struct {
	Inline string
	Path   string
}

// DepthExceededError reports that partial or parent inclusion recursed
// past the configured limit, which protects against include cycles.
type DepthExceededError struct {
	Name  string
	Limit int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("partial/parent inclusion depth exceeded %d at %q (cycle?)", e.Limit, e.Name)
}

// Load resolves src to source bytes (inline text, or a Reader lookup
// against Path), tokenizes and parses it, then recursively resolves every
// partial and parent reference reachable from the result, honoring
// mapping for redirected names. depth is the maximum inclusion depth;
// pass MaxPartialDepth if the caller has no stricter configured value.
func Load(src Source, format ast.Format, reader Reader, mapping PathMapping, depth int) (*ast.Tree, error) {
	tree, err := parseSource(src, format, reader)
	if err != nil {
		return nil, err
	}
	if err := resolveIncludes(tree, tree.Nodes, reader, mapping, depth, map[string]bool{}); err != nil {
		return nil, err
	}
	return tree, nil
}

func parseSource(src Source, format ast.Format, reader Reader) (*ast.Tree, error) {
	text, path, err := read(src, reader)
	if err != nil {
		return nil, err
	}
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}
	return parser.Parse(tokens, path, format)
}

func read(src Source, reader Reader) ([]byte, string, error) {
	if src.Inline != "" {
		return []byte(src.Inline), "", nil
	}
	if reader == nil {
		return nil, src.Path, ioErrorf(src.Path, "no reader configured for path-based resource")
	}
	b, err := reader.Read(src.Path)
	return b, src.Path, err
}

// resolveIncludes walks nodes in place, replacing every Partial.Resolved
// and Parent.Resolved field, recursing into the newly loaded content.
// active tracks names currently being expanded on the current path, for a
// clearer cycle diagnostic than the depth counter alone gives.
func resolveIncludes(tree *ast.Tree, nodes []ast.Node, reader Reader, mapping PathMapping, depth int, active map[string]bool) error {
	for _, n := range nodes {
		switch node := n.(type) {
		case *ast.Section:
			if err := resolveIncludes(tree, node.Children, reader, mapping, depth, active); err != nil {
				return err
			}
		case *ast.Inverted:
			if err := resolveIncludes(tree, node.Children, reader, mapping, depth, active); err != nil {
				return err
			}
		case *ast.Block:
			if err := resolveIncludes(tree, node.Default, reader, mapping, depth, active); err != nil {
				return err
			}
		case *ast.Partial:
			if err := expandPartial(tree, node, reader, mapping, depth, active); err != nil {
				return err
			}
		case *ast.Parent:
			if err := expandParent(tree, node, reader, mapping, depth, active); err != nil {
				return err
			}
		}
	}
	return nil
}

func expandPartial(tree *ast.Tree, node *ast.Partial, reader Reader, mapping PathMapping, depth int, active map[string]bool) error {
	if depth <= 0 {
		return &DepthExceededError{Name: node.Name, Limit: MaxPartialDepth}
	}
	if active[node.Name] {
		return &DepthExceededError{Name: node.Name, Limit: MaxPartialDepth}
	}
	src := resolveSource(node.Name, mapping)
	sub, err := parseSource(src, tree.Format, reader)
	if err != nil {
		return err
	}
	tree.Warnings = append(tree.Warnings, sub.Warnings...)
	active[node.Name] = true
	err = resolveIncludes(tree, sub.Nodes, reader, mapping, depth-1, active)
	delete(active, node.Name)
	if err != nil {
		return err
	}
	node.Resolved = applyIndent(sub.Nodes, node.Indent)
	return nil
}

func expandParent(tree *ast.Tree, node *ast.Parent, reader Reader, mapping PathMapping, depth int, active map[string]bool) error {
	if depth <= 0 {
		return &DepthExceededError{Name: node.Name, Limit: MaxPartialDepth}
	}
	if active[node.Name] {
		return &DepthExceededError{Name: node.Name, Limit: MaxPartialDepth}
	}
	src := resolveSource(node.Name, mapping)
	parentTree, err := parseSource(src, tree.Format, reader)
	if err != nil {
		return err
	}
	tree.Warnings = append(tree.Warnings, parentTree.Warnings...)
	active[node.Name] = true
	err = resolveIncludes(tree, parentTree.Nodes, reader, mapping, depth-1, active)
	delete(active, node.Name)
	if err != nil {
		return err
	}
	node.Resolved = applyOverrides(parentTree.Nodes, node.Overrides)
	return nil
}

// applyOverrides replaces every Block node's content with the matching
// override, if one was supplied, recursing into other container nodes so
// that nested parents compose.
func applyOverrides(nodes []ast.Node, overrides map[string][]ast.Node) []ast.Node {
	out := make([]ast.Node, len(nodes))
	for i, n := range nodes {
		switch node := n.(type) {
		case *ast.Block:
			if replacement, ok := overrides[node.Name]; ok {
				out[i] = ast.NewBlock(node.Position, node.Name, replacement)
			} else {
				out[i] = ast.NewBlock(node.Position, node.Name, applyOverrides(node.Default, overrides))
			}
		case *ast.Parent:
			nested := *node
			nested.Resolved = applyOverrides(node.Resolved, overrides)
			out[i] = &nested
		case *ast.Section:
			out[i] = ast.NewSection(node.Position, node.Path, applyOverrides(node.Children, overrides))
		case *ast.Inverted:
			out[i] = ast.NewInverted(node.Position, node.Path, applyOverrides(node.Children, overrides))
		default:
			out[i] = n
		}
	}
	return out
}

// applyIndent prepends indent to the literal content of every line inside
// nodes except conceptually the last, per the Mustache partial
// indentation rule: indent is applied once per output line the partial
// produces, not once per Text node.
func applyIndent(nodes []ast.Node, indent string) []ast.Node {
	if indent == "" {
		return nodes
	}
	out := make([]ast.Node, len(nodes))
	first := true
	for i, n := range nodes {
		if t, ok := n.(*ast.Text); ok {
			out[i] = ast.NewText(t.Position, indentLines(t.Literal, indent, &first), ast.Cut{Left: t.Cut.Left, Right: t.Cut.Right})
			continue
		}
		out[i] = n
	}
	return out
}

// indentLines prepends indent after every "\n" in lit, and before lit's
// own first line only if first is true (meaning no content has appeared
// yet on the partial's opening line); first is updated to false once any
// byte has been emitted.
func indentLines(lit []byte, indent string, first *bool) []byte {
	var out []byte
	for i := 0; i < len(lit); i++ {
		if *first {
			out = append(out, indent...)
			*first = false
		}
		out = append(out, lit[i])
		if lit[i] == '\n' && i != len(lit)-1 {
			out = append(out, indent...)
		}
	}
	return out
}

func resolveSource(name string, mapping PathMapping) Source {
	if m, ok := mapping[name]; ok {
		if m.Inline != "" {
			return Source{Inline: m.Inline}
		}
		return Source{Path: m.Path}
	}
	return Source{Path: name}
}

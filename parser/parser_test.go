// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/open2b/mustatic/ast"
	"github.com/open2b/mustatic/lexer"
)

func parseString(t *testing.T, src string) *ast.Tree {
	t.Helper()
	toks, err := lexer.Tokenize([]byte(src))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	tree, err := Parse(toks, "t.mustache", ast.FormatHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return tree
}

func TestParseVar(t *testing.T) {
	tree := parseString(t, "hi {{name}}")
	if len(tree.Nodes) != 2 {
		t.Fatalf("got %d nodes", len(tree.Nodes))
	}
	v, ok := tree.Nodes[1].(*ast.Var)
	if !ok || v.Path.String() != "name" || !v.Escaped {
		t.Fatalf("got %+v", tree.Nodes[1])
	}
}

func TestParseSection(t *testing.T) {
	tree := parseString(t, "{{#people}}{{name}}{{/people}}")
	if len(tree.Nodes) != 1 {
		t.Fatalf("got %d nodes", len(tree.Nodes))
	}
	sec, ok := tree.Nodes[0].(*ast.Section)
	if !ok || sec.Path.String() != "people" {
		t.Fatalf("got %+v", tree.Nodes[0])
	}
	if len(sec.Children) != 1 {
		t.Fatalf("got %d children", len(sec.Children))
	}
}

func TestParseInverted(t *testing.T) {
	tree := parseString(t, "{{^people}}none{{/people}}")
	inv, ok := tree.Nodes[0].(*ast.Inverted)
	if !ok || inv.Path.String() != "people" {
		t.Fatalf("got %+v", tree.Nodes[0])
	}
}

func TestParseMismatchedClose(t *testing.T) {
	toks, err := lexer.Tokenize([]byte("{{#a}}{{/b}}"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Parse(toks, "t.mustache", ast.FormatHTML)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseUnclosed(t *testing.T) {
	toks, err := lexer.Tokenize([]byte("{{#a}}x"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Parse(toks, "t.mustache", ast.FormatHTML)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseStandaloneBlock(t *testing.T) {
	tree := parseString(t, "{{$title}}Default{{/title}}")
	b, ok := tree.Nodes[0].(*ast.Block)
	if !ok || b.Name != "title" {
		t.Fatalf("got %+v", tree.Nodes[0])
	}
	if len(b.Default) != 1 {
		t.Fatalf("got %d default nodes", len(b.Default))
	}
}

func TestParseParentWithOverride(t *testing.T) {
	tree := parseString(t, "{{<layout}}{{$title}}My Title{{/title}}{{/layout}}")
	p, ok := tree.Nodes[0].(*ast.Parent)
	if !ok || p.Name != "layout" {
		t.Fatalf("got %+v", tree.Nodes[0])
	}
	children, ok := p.Overrides["title"]
	if !ok {
		t.Fatalf("no override for title: %+v", p.Overrides)
	}
	text, ok := children[0].(*ast.Text)
	if !ok || text.String() != "My Title" {
		t.Fatalf("got %+v", children)
	}
}

func TestParseParentRejectsNonBlockChild(t *testing.T) {
	toks, err := lexer.Tokenize([]byte("{{<layout}}{{#people}}x{{/people}}{{/layout}}"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Parse(toks, "t.mustache", ast.FormatHTML)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseParentCloseNotRejectedByOverrideGuard(t *testing.T) {
	// The parent's own closing tag must not be mistaken for a stray
	// non-block child: it closes the kindParent frame, it is not a child
	// of it.
	tree := parseString(t, "{{<layout}}{{/layout}}")
	p, ok := tree.Nodes[0].(*ast.Parent)
	if !ok || p.Name != "layout" {
		t.Fatalf("got %+v", tree.Nodes[0])
	}
}

func TestParseDuplicateBlockInParent(t *testing.T) {
	toks, err := lexer.Tokenize([]byte(
		"{{<layout}}{{$title}}a{{/title}}{{$title}}b{{/title}}{{/layout}}"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Parse(toks, "t.mustache", ast.FormatHTML)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParsePartialIndent(t *testing.T) {
	tree := parseString(t, "<body>\n  {{>footer}}\n</body>\n")
	var part *ast.Partial
	ast.Walk(tree.Nodes, func(n ast.Node) {
		if p, ok := n.(*ast.Partial); ok {
			part = p
		}
	})
	if part == nil || part.Name != "footer" || part.Indent != "  " {
		t.Fatalf("got %+v", part)
	}
}

func TestParseDelimiterChangeEmitsLiteralTextAndWarning(t *testing.T) {
	tree := parseString(t, "a{{=<% %>=}}b")
	if len(tree.Nodes) != 3 {
		t.Fatalf("got %d nodes: %+v", len(tree.Nodes), tree.Nodes)
	}
	mid, ok := tree.Nodes[1].(*ast.Text)
	if !ok || mid.String() != "{{=<% %>=}}" {
		t.Fatalf("got %+v", tree.Nodes[1])
	}
	if len(tree.Warnings) != 1 {
		t.Fatalf("got %d warnings: %+v", len(tree.Warnings), tree.Warnings)
	}
}

func TestParseDottedPath(t *testing.T) {
	tree := parseString(t, "{{a.b.c}}")
	v := tree.Nodes[0].(*ast.Var)
	want := ast.NewPath("a", "b", "c")
	if diff := cmp.Diff(want, v.Path); diff != "" {
		t.Fatalf("Path mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCollectsPartials(t *testing.T) {
	tree := parseString(t, "{{#a}}{{>p1}}{{/a}}{{>p2}}")
	if len(tree.Partials) != 2 {
		t.Fatalf("got %v", tree.Partials)
	}
}

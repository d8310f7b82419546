// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolver

import (
	"reflect"
	"testing"

	"github.com/open2b/mustatic/ast"
	"github.com/open2b/mustatic/lexer"
	"github.com/open2b/mustatic/parser"
	"github.com/open2b/mustatic/runtime"
	"github.com/open2b/mustatic/types"
)

type person struct {
	Name    string
	Age     int
	Active  bool
	Manager *person
	Tags    map[string]string
	Friends []person
}

func (p person) Greeting() string { return "hi " + p.Name }

func (p person) Context() runtime.Context { return p.Name }

func parseAndResolve(t *testing.T, src string, model interface{}) *ast.Tree {
	t.Helper()
	toks, err := lexer.Tokenize([]byte(src))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	tree, err := parser.Parse(toks, "t.mustache", ast.FormatHTML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	catalog := types.NewCatalog()
	if err := Resolve(tree, reflect.TypeOf(model), catalog); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return tree
}

func TestResolveSimpleField(t *testing.T) {
	tree := parseAndResolve(t, "{{Name}}", person{})
	v := tree.Nodes[0].(*ast.Var)
	if v.Resolved == nil || v.Resolved.End != ast.EndValue {
		t.Fatalf("got %+v", v.Resolved)
	}
}

func TestResolveBoolField(t *testing.T) {
	tree := parseAndResolve(t, "{{Active}}", person{})
	v := tree.Nodes[0].(*ast.Var)
	if v.Resolved == nil || v.Resolved.End != ast.EndBool {
		t.Fatalf("got %+v", v.Resolved)
	}
}

func TestResolveMethod(t *testing.T) {
	tree := parseAndResolve(t, "{{Greeting}}", person{})
	v := tree.Nodes[0].(*ast.Var)
	if v.Resolved == nil || v.Resolved.End != ast.EndValue {
		t.Fatalf("got %+v", v.Resolved)
	}
}

func TestResolveRecordUsedAsVarFails(t *testing.T) {
	toks, err := lexer.Tokenize([]byte("{{Manager}}"))
	if err != nil {
		t.Fatal(err)
	}
	tree, err := parser.Parse(toks, "t.mustache", ast.FormatHTML)
	if err != nil {
		t.Fatal(err)
	}
	catalog := types.NewCatalog()
	err = Resolve(tree, reflect.TypeOf(person{}), catalog)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestResolveLoop(t *testing.T) {
	tree := parseAndResolve(t, "{{#Friends}}{{Name}} {{-index}} {{-first}} {{-last}}{{/Friends}}", person{})
	sec := tree.Nodes[0].(*ast.Section)
	if sec.Resolved.End != ast.EndIterable {
		t.Fatalf("got %+v", sec.Resolved)
	}
	var loopMeta int
	ast.Walk(sec.Children, func(n ast.Node) {
		if v, ok := n.(*ast.Var); ok && v.Resolved.End == ast.EndLoopMeta {
			loopMeta++
		}
	})
	if loopMeta != 3 {
		t.Fatalf("got %d loop-meta vars", loopMeta)
	}
}

func TestResolveNestedField(t *testing.T) {
	tree := parseAndResolve(t, "{{#Manager}}{{Name}}{{/Manager}}", person{})
	sec := tree.Nodes[0].(*ast.Section)
	if sec.Resolved.End != ast.EndNullable {
		t.Fatalf("got %+v", sec.Resolved)
	}
}

func TestResolveInvertedDoesNotPushFrame(t *testing.T) {
	tree := parseAndResolve(t, "{{^Active}}nope{{/Active}}", person{})
	inv := tree.Nodes[0].(*ast.Inverted)
	if inv.Resolved.End != ast.EndBool {
		t.Fatalf("got %+v", inv.Resolved)
	}

	// A non-inverted "{{#Manager}}" would push Manager's frame (index 1);
	// inside the inverted section "Name" must bind to the root frame.
	tree = parseAndResolve(t, "{{^Manager}}{{Name}}{{/Manager}}", person{})
	inv = tree.Nodes[0].(*ast.Inverted)
	v := inv.Children[0].(*ast.Var)
	if v.Resolved.FrameIndex != 0 {
		t.Fatalf("got frame %d, want 0", v.Resolved.FrameIndex)
	}
}

func TestResolveMapSection(t *testing.T) {
	tree := parseAndResolve(t, `{{#Tags}}x{{/Tags}}`, person{})
	sec := tree.Nodes[0].(*ast.Section)
	if sec.Resolved.End != ast.EndRecord {
		t.Fatalf("got %+v", sec.Resolved)
	}
}

func TestResolveContext(t *testing.T) {
	tree := parseAndResolve(t, "{{@context}}", person{})
	v := tree.Nodes[0].(*ast.Var)
	if v.Resolved.End != ast.EndContext {
		t.Fatalf("got %+v", v.Resolved)
	}
}

type noContext struct{ Name string }

func TestResolveContextRequiresProvider(t *testing.T) {
	toks, err := lexer.Tokenize([]byte("{{@context}}"))
	if err != nil {
		t.Fatal(err)
	}
	tree, err := parser.Parse(toks, "t.mustache", ast.FormatHTML)
	if err != nil {
		t.Fatal(err)
	}
	catalog := types.NewCatalog()
	err = Resolve(tree, reflect.TypeOf(noContext{}), catalog)
	if err == nil {
		t.Fatal("expected an error for a model that does not implement runtime.Provider")
	}
}

func TestResolveUnknownName(t *testing.T) {
	toks, err := lexer.Tokenize([]byte("{{nope}}"))
	if err != nil {
		t.Fatal(err)
	}
	tree, err := parser.Parse(toks, "t.mustache", ast.FormatHTML)
	if err != nil {
		t.Fatal(err)
	}
	catalog := types.NewCatalog()
	err = Resolve(tree, reflect.TypeOf(person{}), catalog)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestResolveHeadNoFallthrough(t *testing.T) {
	// "Friends" is only a member of person; once bound as the loop
	// element (type person again, recursively), "Friends" inside the
	// loop body must resolve against the element type fresh, not skip
	// back up to reuse the outer frame's binding.
	tree := parseAndResolve(t, "{{#Friends}}{{#Friends}}{{Name}}{{/Friends}}{{/Friends}}", person{})
	outer := tree.Nodes[0].(*ast.Section)
	inner := outer.Children[0].(*ast.Section)
	if inner.Resolved.End != ast.EndIterable {
		t.Fatalf("got %+v", inner.Resolved)
	}
	if inner.Resolved.FrameIndex != 1 {
		t.Fatalf("inner Friends bound to frame %d, want the loop element frame 1", inner.Resolved.FrameIndex)
	}
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ast declares the types used to represent a parsed Mustache
// template: positions, the token-level building blocks and the
// block-structured tree that the parser produces and the resolver
// annotates with type information.
//
// For example the template
//
//	{{#people}}{{name}}{{/people}}
//
// is represented by the tree
//
//	ast.NewTree("list.mustache", []ast.Node{
//		ast.NewSection(
//			&ast.Position{Line: 1, Column: 1, Start: 0, End: 29},
//			ast.NewPath("people"),
//			[]ast.Node{
//				ast.NewVar(&ast.Position{Line: 1, Column: 12, Start: 11, End: 18}, ast.NewPath("name"), true),
//			},
//		),
//	}, ast.FormatHTML)
package ast

import (
	"strconv"
	"strings"

	"github.com/open2b/mustatic/types"
)

// Format represents the content format declared for a template, which
// selects the default escaper used by interpolations.
type Format int

const (
	FormatHTML Format = iota
	FormatText
	FormatCSS
	FormatJS
	FormatJSON
	FormatMarkdown
)

// String returns the name of the format.
func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "HTML"
	case FormatText:
		return "text"
	case FormatCSS:
		return "CSS"
	case FormatJS:
		return "JavaScript"
	case FormatJSON:
		return "JSON"
	case FormatMarkdown:
		return "Markdown"
	}
	panic("ast: invalid format")
}

// Node is a node of the tree. Every node knows its position in the
// source that produced it.
type Node interface {
	Pos() *Position
}

// Position is the position of a node in the original template source.
type Position struct {
	Line   int // line, starting from 1
	Column int // column in characters, starting from 1
	Start  int // index of the first byte
	End    int // index of the last byte (inclusive)
}

// Pos returns p itself, so that *Position satisfies Node when embedded.
func (p *Position) Pos() *Position {
	return p
}

// String returns the position formatted as "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Path is a non-empty, ordered sequence of identifiers referenced by an
// interpolation or a section, e.g. "a.b.c". The special path "." denotes
// the current element and "@context" denotes the ambient per-request
// context; both are represented as a single-element Path.
type Path struct {
	Idents []string
}

// NewPath returns a new Path from the given dotted identifiers.
func NewPath(idents ...string) Path {
	return Path{Idents: idents}
}

// IsCurrent reports whether p is the special "." path.
func (p Path) IsCurrent() bool {
	return len(p.Idents) == 1 && p.Idents[0] == "."
}

// IsContext reports whether p is the special "@context" path.
func (p Path) IsContext() bool {
	return len(p.Idents) == 1 && p.Idents[0] == "@context"
}

// String returns the dotted string representation of p.
func (p Path) String() string {
	return strings.Join(p.Idents, ".")
}

// Cut indicates how many bytes String leaves out from the left and right
// of a Text node's literal. The parser always leaves it zero: the lexer
// removes standalone-line whitespace from the literal itself.
type Cut struct {
	Left  int
	Right int
}

// Text node represents a run of literal template text.
type Text struct {
	*Position
	Literal []byte
	Cut     Cut
}

// NewText returns a new Text node.
func NewText(pos *Position, literal []byte, cut Cut) *Text {
	return &Text{pos, literal, cut}
}

// String returns the literal text, honoring Cut.
func (n *Text) String() string {
	return string(n.Literal[n.Cut.Left : len(n.Literal)-n.Cut.Right])
}

// End classifies how a resolved expression's accessor chain terminates.
type End int

const (
	EndValue    End = iota // a formattable value (string/numeric/bool/nullable-of)
	EndIterable            // iterable-of(T) or array-of(T): the section is a loop
	EndLambda              // a lambda: Var formats its result, Section re-renders its raw body
	EndBool                // a bare boolean: the section is a truthiness gate
	EndNullable            // a pointer: the section is a presence gate
	EndRecord              // a record/map: the section pushes a new frame
	EndContext             // "@context": a dynamic, per-request ambient lookup
	EndLoopMeta            // "-first"/"-last"/"-index": loop iteration metadata
)

// Resolved is the output of the resolver for one Var/Section/Inverted
// node: a frame-relative accessor chain and how it terminates.
type Resolved struct {
	FrameIndex int            // index into the resolver's frame stack, 0 = model; -1 for "@context"
	Accessors  []types.Member // member chain, applied left to right
	End        End
	Elem       *types.Descriptor // descriptor of the terminal value (section: of the pushed frame/loop element)

	// LambdaTakesBody is set only when End is EndLambda: it distinguishes
	// a zero-argument lambda (called with no arguments) from one that
	// takes the section's raw body text as its sole string argument.
	LambdaTakesBody bool
}

// Var node represents an interpolation, "{{name}}" (Escaped true) or
// "{{{name}}}"/"{{&name}}" (Escaped false).
type Var struct {
	*Position
	Path    Path
	Escaped bool

	// Resolved is filled in by the resolver; nil until then.
	Resolved *Resolved
}

// NewVar returns a new Var node.
func NewVar(pos *Position, path Path, escaped bool) *Var {
	return &Var{Position: pos, Path: path, Escaped: escaped}
}

// String returns the string representation of n.
func (n *Var) String() string {
	if n.Escaped {
		return "{{" + n.Path.String() + "}}"
	}
	return "{{{" + n.Path.String() + "}}}"
}

// Section node represents "{{#path}}...{{/path}}".
type Section struct {
	*Position
	Path     Path
	Children []Node

	Resolved *Resolved
}

// NewSection returns a new Section node.
func NewSection(pos *Position, path Path, children []Node) *Section {
	if children == nil {
		children = []Node{}
	}
	return &Section{Position: pos, Path: path, Children: children}
}

// String returns the string representation of n.
func (n *Section) String() string {
	return "{{#" + n.Path.String() + "}}"
}

// Inverted node represents "{{^path}}...{{/path}}".
type Inverted struct {
	*Position
	Path     Path
	Children []Node

	Resolved *Resolved
}

// NewInverted returns a new Inverted node.
func NewInverted(pos *Position, path Path, children []Node) *Inverted {
	if children == nil {
		children = []Node{}
	}
	return &Inverted{Position: pos, Path: path, Children: children}
}

// String returns the string representation of n.
func (n *Inverted) String() string {
	return "{{^" + n.Path.String() + "}}"
}

// Comment node represents "{{! ... }}"; comments are never emitted.
type Comment struct {
	*Position
	Text string
}

// NewComment returns a new Comment node.
func NewComment(pos *Position, text string) *Comment {
	return &Comment{pos, text}
}

// Partial node represents "{{>name}}" once the named template has been
// located and parsed. Indent is the whitespace that preceded the partial
// tag on its line, applied to every line of the partial's expansion except
// the last per the Mustache indentation rule.
type Partial struct {
	*Position
	Name     string
	Indent   string
	Resolved []Node // the included template's nodes, already parsed (and, recursively, inlined)
}

// NewPartial returns a new Partial node.
func NewPartial(pos *Position, name, indent string) *Partial {
	return &Partial{Position: pos, Name: name, Indent: indent}
}

// String returns the string representation of n.
func (n *Partial) String() string {
	return "{{>" + n.Name + "}}"
}

// Block node represents a named hole, "{{$name}}...{{/name}}", that may
// appear directly inside a Parent and be overridden by an including
// template.
type Block struct {
	*Position
	Name    string
	Default []Node
}

// NewBlock returns a new Block node.
func NewBlock(pos *Position, name string, def []Node) *Block {
	if def == nil {
		def = []Node{}
	}
	return &Block{Position: pos, Name: name, Default: def}
}

// String returns the string representation of n.
func (n *Block) String() string {
	return "{{$" + n.Name + "}}"
}

// Parent node represents "{{<name}}...{{/name}}": an inclusion of a parent
// template whose Block holes are replaced by Overrides (keyed by block
// name) where provided, by Default otherwise.
type Parent struct {
	*Position
	Name      string
	Overrides map[string][]Node

	// Resolved is the fully inlined replacement for this node, built by
	// loader.Load; nil until then.
	Resolved []Node
}

// NewParent returns a new Parent node.
func NewParent(pos *Position, name string, overrides map[string][]Node) *Parent {
	if overrides == nil {
		overrides = map[string][]Node{}
	}
	return &Parent{Position: pos, Name: name, Overrides: overrides}
}

// String returns the string representation of n.
func (n *Parent) String() string {
	return "{{<" + n.Name + "}}"
}

// Warning is a non-fatal diagnostic produced while parsing or loading a
// tree: currently only emitted for a recognized-but-unsupported
// "{{=...=}}" delimiter change tag.
type Warning struct {
	Pos     Position
	Message string
}

// Tree is the parsed representation of one template source.
type Tree struct {
	*Position
	Path     string // resource identifier, or "" for an inline template
	Charset  string
	Nodes    []Node
	Format   Format
	Partials []string  // names of partials directly referenced by Nodes
	Warnings []Warning // non-fatal diagnostics collected while parsing Nodes and, after loader.Load, every expanded partial/parent
}

// NewTree returns a new Tree.
func NewTree(path string, nodes []Node, format Format) *Tree {
	if nodes == nil {
		nodes = []Node{}
	}
	return &Tree{
		Position: &Position{Line: 1, Column: 1},
		Path:     path,
		Nodes:    nodes,
		Format:   format,
	}
}

// Walk calls fn for every node in nodes and, for container nodes, for
// every node reachable from their children, in pre-order.
func Walk(nodes []Node, fn func(Node)) {
	for _, n := range nodes {
		fn(n)
		switch t := n.(type) {
		case *Section:
			Walk(t.Children, fn)
		case *Inverted:
			Walk(t.Children, fn)
		case *Block:
			Walk(t.Default, fn)
		case *Parent:
			if t.Resolved != nil {
				Walk(t.Resolved, fn)
			} else {
				for _, children := range t.Overrides {
					Walk(children, fn)
				}
			}
		case *Partial:
			Walk(t.Resolved, fn)
		}
	}
}

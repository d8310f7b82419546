// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parser turns a lexer token stream into a block-structured
// ast.Tree. It keeps an explicit stack of open section/inverted/parent/
// block frames, grounded on open2b/scriggo's
// internal/compiler/parser_template.go tag-stack approach, adapted to
// Mustache's smaller, flatter tag set.
package parser

import (
	"fmt"

	"github.com/open2b/mustatic/ast"
	"github.com/open2b/mustatic/lexer"
)

// StructureError is returned for any fatal structural error: mismatched
// section closes, a block appearing somewhere a parent does not allow, a
// duplicate block name within one parent, or an otherwise unrecognized
// nesting.
type StructureError struct {
	Pos ast.Position
	Msg string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos.String(), e.Msg)
}

func structureErrorf(pos ast.Position, format string, a ...interface{}) *StructureError {
	return &StructureError{Pos: pos, Msg: fmt.Sprintf(format, a...)}
}

// kind distinguishes the four frame shapes the parser can have open at
// once.
type kind int

const (
	kindSection kind = iota
	kindInverted
	kindParent
	kindBlock
)

// frame is one open construct on the parser's stack.
type frame struct {
	kind kind
	pos  ast.Position
	path ast.Path // kindSection, kindInverted
	name string   // kindParent, kindBlock

	children []ast.Node

	// kindParent only:
	overrides  map[string][]ast.Node
	seenBlocks map[string]bool
}

// parser holds the in-progress parse of one token stream.
type parser struct {
	tokens []lexer.Token
	pos    int

	root     []ast.Node
	stack    []*frame
	warnings []ast.Warning
}

// Parse consumes tokens (the output of lexer.Tokenize) and returns the
// resulting tree, or the first fatal StructureError encountered. format
// and path are copied onto the returned Tree verbatim.
func Parse(tokens []lexer.Token, path string, format ast.Format) (*ast.Tree, error) {
	p := &parser{tokens: tokens}
	if err := p.run(); err != nil {
		return nil, err
	}
	tree := ast.NewTree(path, p.root, format)
	tree.Partials = collectPartials(p.root)
	tree.Warnings = p.warnings
	return tree, nil
}

func (p *parser) run() error {
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++
		if err := p.step(tok); err != nil {
			return err
		}
	}
	if len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		return structureErrorf(top.pos, "unclosed %s", frameDescription(top))
	}
	return nil
}

func frameDescription(f *frame) string {
	switch f.kind {
	case kindSection:
		return fmt.Sprintf("section %q", f.path.String())
	case kindInverted:
		return fmt.Sprintf("inverted section %q", f.path.String())
	case kindParent:
		return fmt.Sprintf("parent %q", f.name)
	case kindBlock:
		return fmt.Sprintf("block %q", f.name)
	}
	return "construct"
}

// append adds a completed node to the currently innermost open frame, or
// to the tree root if the stack is empty.
func (p *parser) append(n ast.Node) {
	if len(p.stack) == 0 {
		p.root = append(p.root, n)
		return
	}
	top := p.stack[len(p.stack)-1]
	top.children = append(top.children, n)
}

// top returns the innermost open frame, or nil if the stack is empty.
func (p *parser) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *parser) step(tok lexer.Token) error {
	if top := p.top(); top != nil && top.kind == kindParent &&
		tok.Kind != lexer.BlockOpen && tok.Kind != lexer.SectionClose {
		if tok.Kind != lexer.Text || !isAllSpace(tok.Literal) {
			return structureErrorf(tok.Pos, "only block overrides (and whitespace) are allowed directly inside parent %q", top.name)
		}
	}

	switch tok.Kind {
	case lexer.Text:
		if tok.Literal == "" {
			return nil
		}
		pos := &ast.Position{Line: tok.Pos.Line, Column: tok.Pos.Column, Start: tok.Pos.Start, End: tok.Pos.End}
		p.append(ast.NewText(pos, []byte(tok.Literal), ast.Cut{}))
		return nil

	case lexer.Comment:
		pos := &ast.Position{Line: tok.Pos.Line, Column: tok.Pos.Column, Start: tok.Pos.Start, End: tok.Pos.End}
		p.append(ast.NewComment(pos, tok.Literal))
		return nil

	case lexer.DelimiterChange:
		pos := &ast.Position{Line: tok.Pos.Line, Column: tok.Pos.Column, Start: tok.Pos.Start, End: tok.Pos.End}
		p.warnings = append(p.warnings, ast.Warning{
			Pos:     *pos,
			Message: fmt.Sprintf("%q changes delimiters, which is not supported; emitted as literal text", tok.Literal),
		})
		p.append(ast.NewText(pos, []byte(tok.Literal), ast.Cut{}))
		return nil

	case lexer.Interpolation:
		pos := &ast.Position{Line: tok.Pos.Line, Column: tok.Pos.Column, Start: tok.Pos.Start, End: tok.Pos.End}
		path, err := parsePath(tok)
		if err != nil {
			return err
		}
		p.append(ast.NewVar(pos, path, tok.Escaped))
		return nil

	case lexer.SectionOpen:
		return p.pushSection(tok, kindSection)

	case lexer.InvertedOpen:
		return p.pushSection(tok, kindInverted)

	case lexer.SectionClose:
		return p.closeSection(tok)

	case lexer.ParentOpen:
		return p.pushParent(tok)

	case lexer.BlockOpen:
		return p.pushBlock(tok)

	case lexer.PartialInclude:
		pos := &ast.Position{Line: tok.Pos.Line, Column: tok.Pos.Column, Start: tok.Pos.Start, End: tok.Pos.End}
		p.append(ast.NewPartial(pos, tok.Name, tok.Indent))
		return nil

	default:
		return structureErrorf(tok.Pos, "unexpected token %v", tok.Kind)
	}
}

func parsePath(tok lexer.Token) (ast.Path, error) {
	if tok.Name == "" {
		return ast.Path{}, structureErrorf(tok.Pos, "empty identifier")
	}
	if tok.Name == "." || tok.Name == "@context" {
		return ast.NewPath(tok.Name), nil
	}
	idents, err := splitDotted(tok.Pos, tok.Name)
	if err != nil {
		return ast.Path{}, err
	}
	return ast.NewPath(idents...), nil
}

func splitDotted(pos ast.Position, name string) ([]string, error) {
	var idents []string
	start := 0
	for i := 0; i <= len(name); i++ {
		if i == len(name) || name[i] == '.' {
			if i == start {
				return nil, structureErrorf(pos, "invalid path %q: empty segment", name)
			}
			idents = append(idents, name[start:i])
			start = i + 1
		}
	}
	return idents, nil
}

func (p *parser) pushSection(tok lexer.Token, k kind) error {
	path, err := parsePath(tok)
	if err != nil {
		return err
	}
	if top := p.top(); top != nil && top.kind == kindParent {
		return structureErrorf(tok.Pos, "section %q not allowed directly inside parent %q: only block overrides are", path.String(), top.name)
	}
	p.stack = append(p.stack, &frame{kind: k, pos: tok.Pos, path: path})
	return nil
}

func (p *parser) closeSection(tok lexer.Token) error {
	top := p.top()
	if top == nil {
		return structureErrorf(tok.Pos, "unmatched closing tag %q", tok.Name)
	}
	switch top.kind {
	case kindSection, kindInverted:
		if top.path.String() != tok.Name {
			return structureErrorf(tok.Pos, "mismatched closing tag: expected %q, got %q", top.path.String(), tok.Name)
		}
		p.stack = p.stack[:len(p.stack)-1]
		pos := &ast.Position{Line: top.pos.Line, Column: top.pos.Column, Start: top.pos.Start, End: tok.Pos.End}
		if top.kind == kindSection {
			p.append(ast.NewSection(pos, top.path, top.children))
		} else {
			p.append(ast.NewInverted(pos, top.path, top.children))
		}
		return nil

	case kindBlock:
		if top.name != tok.Name {
			return structureErrorf(tok.Pos, "mismatched closing tag: expected %q, got %q", top.name, tok.Name)
		}
		p.stack = p.stack[:len(p.stack)-1]
		pos := &ast.Position{Line: top.pos.Line, Column: top.pos.Column, Start: top.pos.Start, End: tok.Pos.End}
		parent := p.top()
		if parent != nil && parent.kind == kindParent {
			parent.overrides[top.name] = top.children
		} else {
			p.append(ast.NewBlock(pos, top.name, top.children))
		}
		return nil

	case kindParent:
		if top.name != tok.Name {
			return structureErrorf(tok.Pos, "mismatched closing tag: expected %q, got %q", top.name, tok.Name)
		}
		p.stack = p.stack[:len(p.stack)-1]
		pos := &ast.Position{Line: top.pos.Line, Column: top.pos.Column, Start: top.pos.Start, End: tok.Pos.End}
		p.append(ast.NewParent(pos, top.name, top.overrides))
		return nil
	}
	return structureErrorf(tok.Pos, "unmatched closing tag %q", tok.Name)
}

func (p *parser) pushParent(tok lexer.Token) error {
	if tok.Name == "" {
		return structureErrorf(tok.Pos, "empty parent name")
	}
	p.stack = append(p.stack, &frame{
		kind:       kindParent,
		pos:        tok.Pos,
		name:       tok.Name,
		overrides:  map[string][]ast.Node{},
		seenBlocks: map[string]bool{},
	})
	return nil
}

func (p *parser) pushBlock(tok lexer.Token) error {
	if tok.Name == "" {
		return structureErrorf(tok.Pos, "empty block name")
	}
	if parent := p.top(); parent != nil && parent.kind == kindParent {
		if parent.seenBlocks[tok.Name] {
			return structureErrorf(tok.Pos, "duplicate block %q in parent %q", tok.Name, parent.name)
		}
		parent.seenBlocks[tok.Name] = true
	}
	p.stack = append(p.stack, &frame{kind: kindBlock, pos: tok.Pos, name: tok.Name})
	return nil
}

func isAllSpace(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

// collectPartials returns the names of every Partial node reachable from
// nodes, including those inside sections and inside Parent overrides
// (ast.Walk descends into Overrides while a Parent is unresolved).
// loader.Load does not use this list: it finds partials by walking the
// tree itself.
func collectPartials(nodes []ast.Node) []string {
	var names []string
	seen := map[string]bool{}
	ast.Walk(nodes, func(n ast.Node) {
		if part, ok := n.(*ast.Partial); ok && !seen[part.Name] {
			seen[part.Name] = true
			names = append(names, part.Name)
		}
	})
	return names
}

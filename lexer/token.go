// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lexer

import "github.com/open2b/mustatic/ast"

// Kind identifies the kind of a Token.
type Kind int

const (
	Text Kind = iota
	Interpolation
	SectionOpen
	InvertedOpen
	SectionClose
	PartialInclude
	ParentOpen
	BlockOpen
	Comment
	DelimiterChange
)

// SectionClose is used for every "{{/name}}" tag regardless of what it
// closes (section, inverted section, parent or block): Mustache's closing
// tag carries no sigil of its own, so the parser decides which construct
// is ending by matching name against the top of its open-construct stack.

// String returns the name of k, for diagnostics.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Interpolation:
		return "interpolation"
	case SectionOpen:
		return "section open"
	case InvertedOpen:
		return "inverted section open"
	case SectionClose:
		return "closing tag"
	case PartialInclude:
		return "partial"
	case ParentOpen:
		return "parent open"
	case BlockOpen:
		return "block open"
	case Comment:
		return "comment"
	case DelimiterChange:
		return "delimiter change"
	}
	return "invalid"
}

// Token is one lexical unit of a Mustache template, carrying its source
// span. Every token kind uses a subset of the fields below:
//
//   - Text:            Literal
//   - Interpolation:   Name, Escaped
//   - Section/InvertedOpen, SectionClose, PartialInclude, Parent/BlockOpen:
//     Name
//   - PartialInclude:   also Indent
//   - Comment:          Literal (the comment text)
//   - DelimiterChange:  Open, Close, Literal (the tag's own original source
//     bytes, e.g. "{{=<% %>=}}", reused by the parser as passthrough text)
type Token struct {
	Kind    Kind
	Pos     ast.Position
	Name    string
	Literal string
	Escaped bool
	Indent  string
	Open    string
	Close   string

	// Standalone reports whether this tag was alone on its line
	// (surrounded only by whitespace); set by the standalone-line pass.
	Standalone bool
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lexer tokenizes Mustache template source. It implements a
// single-pass scanner as an explicit state machine, unlike
// open2b/scriggo's goroutine-and-channel scanner
// (internal/compiler/lexer.go, copied as a seed and rewritten here): a
// template is tokenized synchronously by the same goroutine that asked
// for it, so no channel is needed at all.
package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/open2b/mustatic/ast"
)

// SyntaxError is returned for every fatal lexical error. It always carries
// the position at which the error was detected.
type SyntaxError struct {
	Pos ast.Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos.String(), e.Msg)
}

func syntaxErrorf(pos ast.Position, format string, a ...interface{}) *SyntaxError {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, a...)}
}

// state names the two states of the tokenizer: Outside copies literal
// text; Start is entered after an open delimiter and hands the whole tag
// to scanTag, which reads the sigil, the name and the closing delimiter
// procedurally rather than through further states.
type state int

const (
	stateOutside state = iota
	stateStart
)

const (
	defaultOpen  = "{{"
	defaultClose = "}}"
)

// lexer holds the scanner state for one template source.
type lexer struct {
	src    []byte
	pos    int // byte offset into src
	line   int
	column int

	open, close string // current delimiters, may change via {{=...=}}

	tokens []Token
	err    error
}

// Tokenize scans src and returns its token stream, or the first fatal
// SyntaxError encountered. One lexer is used per template compile; there
// is no shared or concurrent state.
func Tokenize(src []byte) ([]Token, error) {
	l := &lexer{src: src, line: 1, column: 1, open: defaultOpen, close: defaultClose}
	l.scan()
	if l.err != nil {
		return nil, l.err
	}
	markStandaloneLines(l.tokens)
	return l.tokens, nil
}

func (l *lexer) here() ast.Position {
	return ast.Position{Line: l.line, Column: l.column, Start: l.pos, End: l.pos}
}

func (l *lexer) errorf(format string, a ...interface{}) {
	if l.err == nil {
		l.err = syntaxErrorf(l.here(), format, a...)
	}
}

// advance consumes n bytes from src starting at pos, updating line/column.
func (l *lexer) advance(n int) {
	for i := 0; i < n; i++ {
		if l.src[l.pos+i] == '\n' {
			l.line++
			l.column = 1
		} else if l.src[l.pos+i]&0xC0 != 0x80 {
			// a UTF-8 continuation byte does not start a new character
			l.column++
		}
	}
	l.pos += n
}

func (l *lexer) hasPrefix(s string) bool {
	return l.pos+len(s) <= len(l.src) && string(l.src[l.pos:l.pos+len(s)]) == s
}

// scan runs the state machine to completion (EOF or fatal error). Outside
// state compares the input at pos against the current open delimiter on
// every byte, a single prefix test, since Mustache delimiters never need
// lookahead beyond a direct match; Start dispatches to scanTag, which
// consumes the rest of the tag.
func (l *lexer) scan() {
	var textStart int
	textPos := l.here()
	st := stateOutside

	for l.err == nil {
		if l.pos >= len(l.src) {
			if st == stateOutside {
				l.emitText(textPos, textStart, l.pos)
			} else {
				l.errorf("unclosed tag at end of file")
			}
			return
		}

		switch st {
		case stateOutside:
			if l.hasPrefix(l.open) {
				l.emitText(textPos, textStart, l.pos)
				l.advance(len(l.open))
				st = stateStart
				continue
			}
			l.advance(1)

		case stateStart:
			l.scanTag()
			if l.err != nil {
				return
			}
			textStart = l.pos
			textPos = l.here()
			st = stateOutside
		}
	}
}

// emitText appends a Text token for src[start:end], if non-empty.
func (l *lexer) emitText(pos ast.Position, start, end int) {
	if start >= end {
		return
	}
	p := pos
	p.End = end - 1
	l.tokens = append(l.tokens, Token{Kind: Text, Pos: p, Literal: string(l.src[start:end])})
}

// scanTag is entered immediately after the open delimiter has been
// consumed; it decides the sigil, reads the name and consumes up to and
// including the close delimiter, emitting exactly one token.
func (l *lexer) scanTag() {
	tagPos := l.here()
	tagPos.Column -= len(l.open)
	tagPos.Start -= len(l.open)

	if l.hasPrefix("=") {
		l.scanDelimiterChange(tagPos)
		return
	}

	var kind Kind
	escaped := true
	triple := false
	switch {
	case l.hasPrefix("{"):
		kind, escaped, triple = Interpolation, false, true
		l.advance(1)
	case l.hasPrefix("&"):
		kind, escaped = Interpolation, false
		l.advance(1)
	case l.hasPrefix("#"):
		kind = SectionOpen
		l.advance(1)
	case l.hasPrefix("^"):
		kind = InvertedOpen
		l.advance(1)
	case l.hasPrefix("/"):
		kind = SectionClose
		l.advance(1)
	case l.hasPrefix(">"):
		kind = PartialInclude
		l.advance(1)
	case l.hasPrefix("<"):
		kind = ParentOpen
		l.advance(1)
	case l.hasPrefix("$"):
		kind = BlockOpen
		l.advance(1)
	case l.hasPrefix("!"):
		l.advance(1)
		l.scanComment(tagPos)
		return
	default:
		kind = Interpolation
	}

	l.skipSpaces()
	nameStart := l.pos
	if !l.scanIdentifier() {
		l.errorf("empty identifier in tag")
		return
	}
	name := string(l.src[nameStart:l.pos])
	l.skipSpaces()

	if triple {
		if !l.hasPrefix("}}}") {
			l.errorf("expected '}}}' to close triple mustache tag %q", name)
			return
		}
		l.advance(3)
	} else {
		if !l.hasPrefix(l.close) {
			l.errorf("expected %q to close tag %q", l.close, name)
			return
		}
		l.advance(len(l.close))
	}
	tagPos.End = l.pos - 1

	switch kind {
	case Interpolation:
		l.tokens = append(l.tokens, Token{Kind: kind, Pos: tagPos, Name: name, Escaped: escaped})
	default:
		l.tokens = append(l.tokens, Token{Kind: kind, Pos: tagPos, Name: name})
	}
}

// scanComment consumes a "{{! ... }}" tag. Its body is opaque: the closing
// delimiter is recognized verbatim, with no nested-tag awareness, matching
// ordinary Mustache comment semantics.
func (l *lexer) scanComment(tagPos ast.Position) {
	start := l.pos
	for !l.hasPrefix(l.close) {
		if l.pos >= len(l.src) {
			l.errorf("unclosed comment")
			return
		}
		l.advance(1)
	}
	text := string(l.src[start:l.pos])
	l.advance(len(l.close))
	tagPos.End = l.pos - 1
	l.tokens = append(l.tokens, Token{Kind: Comment, Pos: tagPos, Literal: text})
}

// scanDelimiterChange consumes "{{=NEWOPEN NEWCLOSE=}}". The tag is
// recognized here so later text is scanned against the new delimiters, but
// the parser treats the tag itself as an unsupported construct: it warns
// and passes the captured Literal through as literal output rather than
// acting on the delimiter change semantically.
func (l *lexer) scanDelimiterChange(tagPos ast.Position) {
	l.advance(1) // consume '='
	start := l.pos
	for !l.hasPrefix("=") {
		if l.pos >= len(l.src) {
			l.errorf("unclosed delimiter change tag")
			return
		}
		l.advance(1)
	}
	spec := string(l.src[start:l.pos])
	l.advance(1) // consume '='
	if !l.hasPrefix(l.close) {
		l.errorf("expected %q to close delimiter change tag", l.close)
		return
	}
	l.advance(len(l.close))

	fields := splitFields(spec)
	if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
		l.errorf("invalid delimiter change %q: expected two delimiters", spec)
		return
	}
	tagPos.End = l.pos - 1
	literal := string(l.src[tagPos.Start : tagPos.End+1])
	l.tokens = append(l.tokens, Token{Kind: DelimiterChange, Pos: tagPos, Literal: literal, Open: fields[0], Close: fields[1]})
	l.open, l.close = fields[0], fields[1]
}

func splitFields(s string) []string {
	var fields []string
	var cur []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' {
			if len(cur) > 0 {
				fields = append(fields, string(cur))
				cur = nil
			}
			continue
		}
		cur = append(cur, c)
	}
	if len(cur) > 0 {
		fields = append(fields, string(cur))
	}
	return fields
}

func (l *lexer) skipSpaces() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.advance(1)
		default:
			return
		}
	}
}

// scanIdentifier consumes a dotted path (e.g. "a.b.c"), the special "."
// current-element path, or a leading-"@"/"-" name ("@context", "-first",
// "-last", "-index"), and reports whether at least one character was
// consumed.
func (l *lexer) scanIdentifier() bool {
	start := l.pos
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		next := l.pos + 1
		if next >= len(l.src) || !isIdentRune(decodeRune(l.src[next:])) {
			l.advance(1)
			return true
		}
	}
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRune(l.src[l.pos:])
		switch {
		case isIdentRune(r):
			l.advance(size)
		case r == '.' && l.pos > start:
			l.advance(size)
		case (r == '@' || r == '-') && l.pos == start:
			l.advance(size)
		default:
			return l.pos > start
		}
	}
	return l.pos > start
}

func decodeRune(b []byte) rune {
	r, _ := utf8.DecodeRune(b)
	return r
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

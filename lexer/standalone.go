// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lexer

// standaloneEligible reports whether tags of kind k are subject to the
// standalone-line whitespace-stripping rule. Every tag kind except
// Interpolation is; an eligible tag is stripped only when it is alone on
// its line.
func standaloneEligible(k Kind) bool {
	switch k {
	case SectionOpen, InvertedOpen, SectionClose, PartialInclude,
		ParentOpen, BlockOpen, Comment, DelimiterChange:
		return true
	}
	return false
}

// markStandaloneLines implements the Mustache standalone-line rule: a tag
// that is the only non-whitespace content on its line has the surrounding
// horizontal whitespace and the trailing newline absorbed, so it produces
// no blank line in the output. Partial tags instead capture the leading
// whitespace as their indentation (Token.Indent) rather than discarding
// it.
//
// This runs once, after the full token stream has been produced, because
// the rule needs to see whether a tag's neighbors are pure whitespace runs
// bounded by line breaks - not decidable while still scanning forward.
func markStandaloneLines(tokens []Token) {
	for i, tok := range tokens {
		if !standaloneEligible(tok.Kind) {
			continue
		}

		before, hasBefore := textToken(tokens, i-1)
		after, hasAfter := textToken(tokens, i+1)

		leftOK, leftTrim := trailingLineWhitespace(before, hasBefore, i == 0)
		atEnd := i == len(tokens)-1
		if hasAfter {
			atEnd = i+1 == len(tokens)-1
		}
		rightOK, rightTrim := leadingLineWhitespace(after, hasAfter, atEnd)
		if !leftOK || !rightOK {
			continue
		}

		tokens[i].Standalone = true
		if tok.Kind == PartialInclude {
			// The leading whitespace becomes Indent, applied to every
			// line of the partial's expansion instead of appearing
			// literally before the tag.
			tokens[i].Indent = leftTrim
		}
		if hasBefore {
			tokens[i-1].Literal = trimSuffixBytes(tokens[i-1].Literal, len(leftTrim))
		}
		if hasAfter {
			tokens[i+1].Literal = trimPrefixBytes(tokens[i+1].Literal, len(rightTrim))
		}
	}
}

func textToken(tokens []Token, i int) (Token, bool) {
	if i < 0 || i >= len(tokens) || tokens[i].Kind != Text {
		return Token{}, false
	}
	return tokens[i], true
}

// trailingLineWhitespace reports whether the text immediately preceding a
// tag, from the last newline (exclusive) to its end, is all spaces/tabs -
// the tag is then standalone on its left side - and returns that run. A
// missing predecessor (start of template) also qualifies.
func trailingLineWhitespace(t Token, has, atStart bool) (bool, string) {
	if !has {
		return atStart, ""
	}
	lit := t.Literal
	i := len(lit)
	for i > 0 && (lit[i-1] == ' ' || lit[i-1] == '\t') {
		i--
	}
	if i > 0 && lit[i-1] != '\n' {
		return false, ""
	}
	return true, lit[i:]
}

// leadingLineWhitespace reports whether the text immediately following a
// tag, up to and including the next newline, is all spaces/tabs then a
// newline - the tag is standalone on its right side - and returns the
// leading whitespace plus newline to strip. A missing successor, or a
// successor that is all spaces/tabs and the last token (end of template),
// also qualifies; atEnd reports whether that successor (or, when there is
// none, the tag itself) is the last token.
func leadingLineWhitespace(t Token, has, atEnd bool) (bool, string) {
	if !has {
		return atEnd, ""
	}
	lit := t.Literal
	i := 0
	for i < len(lit) && (lit[i] == ' ' || lit[i] == '\t') {
		i++
	}
	if i == len(lit) {
		return atEnd, lit[:i]
	}
	if lit[i] == '\n' {
		return true, lit[:i+1]
	}
	if i+1 < len(lit) && lit[i] == '\r' && lit[i+1] == '\n' {
		return true, lit[:i+2]
	}
	return false, ""
}

func trimSuffixBytes(s string, n int) string {
	return s[:len(s)-n]
}

func trimPrefixBytes(s string, n int) string {
	return s[n:]
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emitter

import (
	"io"

	"github.com/open2b/mustatic/ast"
)

// Escape writes s to w, escaped for format. Text format performs no
// escaping: Escape passes s to EscapeNone unchanged. An unescaped
// "{{{name}}}"/"{{&name}}" interpolation calls EscapeNone directly.
func Escape(format ast.Format, w io.Writer, s string) error {
	switch format {
	case ast.FormatHTML:
		return htmlEscape(w, s)
	case ast.FormatMarkdown:
		return markdownToHTML(w, s)
	case ast.FormatCSS:
		return cssStringEscape(w, s)
	case ast.FormatJS, ast.FormatJSON:
		return javaScriptStringEscape(w, s)
	case ast.FormatText:
		return EscapeNone(w, s)
	}
	return htmlEscape(w, s)
}

// EscapeNone writes s to w verbatim, for "{{{name}}}"/"{{&name}}"
// interpolations and for ast.FormatText.
func EscapeNone(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}

// htmlEscape escapes the string s, so it can be placed inside HTML, and
// writes it on w.
func htmlEscape(w io.Writer, s string) error {
	last := 0
	for i := 0; i < len(s); i++ {
		var esc string
		switch s[i] {
		case '"':
			esc = "&#34;"
		case '\'':
			esc = "&#39;"
		case '&':
			esc = "&amp;"
		case '<':
			esc = "&lt;"
		case '>':
			esc = "&gt;"
		default:
			continue
		}
		if last != i {
			if _, err := io.WriteString(w, s[last:i]); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, esc); err != nil {
			return err
		}
		last = i + 1
	}
	if last != len(s) {
		_, err := io.WriteString(w, s[last:])
		return err
	}
	return nil
}

// prefixWithSpace reports whether the byte c, in a CSS string, must be
// preceded by a space when an escape sequence precedes it.
func prefixWithSpace(c byte) bool {
	switch c {
	case '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

var cssStringEscapes = []string{
	0:    `\0`,
	1:    `\1`,
	2:    `\2`,
	3:    `\3`,
	4:    `\4`,
	5:    `\5`,
	6:    `\6`,
	7:    `\7`,
	8:    `\8`,
	'\t': `\9`,
	'\n': `\a`,
	11:   `\b`,
	'\f': `\c`,
	'\r': `\d`,
	14:   `\e`,
	15:   `\f`,
	16:   `\10`,
	17:   `\11`,
	18:   `\12`,
	19:   `\13`,
	20:   `\14`,
	21:   `\15`,
	22:   `\16`,
	23:   `\17`,
	24:   `\18`,
	25:   `\19`,
	26:   `\1a`,
	27:   `\1b`,
	28:   `\1c`,
	29:   `\1d`,
	30:   `\1e`,
	31:   `\1f`,
	'"':  `\22`,
	'&':  `\26`,
	'\'': `\27`,
	'(':  `\28`,
	')':  `\29`,
	'+':  `\2b`,
	'/':  `\2f`,
	':':  `\3a`,
	';':  `\3b`,
	'<':  `\3c`,
	'>':  `\3e`,
	'\\': `\\`,
	'{':  `\7b`,
	'}':  `\7d`,
}

// cssStringEscape escapes the string s, so it can be placed inside a CSS
// string with single or double quotes, and writes it to w.
func cssStringEscape(w io.Writer, s string) error {
	last := 0
	for i := 0; i < len(s); i++ {
		var esc string
		c := s[i]
		if int(c) < len(cssStringEscapes) {
			esc = cssStringEscapes[c]
		}
		if esc == "" {
			continue
		}
		if last != i {
			if _, err := io.WriteString(w, s[last:i]); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, esc); err != nil {
			return err
		}
		if c != '\\' && (i == len(s)-1 || prefixWithSpace(s[i+1])) {
			if _, err := io.WriteString(w, " "); err != nil {
				return err
			}
		}
		last = i + 1
	}
	if last != len(s) {
		_, err := io.WriteString(w, s[last:])
		return err
	}
	return nil
}

var javaScriptStringEscapes = []string{
	0:    `\x00`,
	1:    `\x01`,
	2:    `\x02`,
	3:    `\x03`,
	4:    `\x04`,
	5:    `\x05`,
	6:    `\x06`,
	7:    `\x07`,
	8:    `\x08`,
	'\t': `\t`,
	'\n': `\n`,
	11:   `\x0b`,
	'\f': `\x0c`,
	'\r': `\r`,
	14:   `\x0e`,
	15:   `\x0f`,
	16:   `\x10`,
	17:   `\x11`,
	18:   `\x12`,
	19:   `\x13`,
	20:   `\x14`,
	21:   `\x15`,
	22:   `\x16`,
	23:   `\x17`,
	24:   `\x18`,
	25:   `\x19`,
	26:   `\x1a`,
	27:   `\x1b`,
	28:   `\x1c`,
	29:   `\x1d`,
	30:   `\x1e`,
	31:   `\x1f`,
	'"':  `\"`,
	'&':  `\x26`,
	'\'': `\'`,
	'<':  `\x3c`,
	'>':  `\x3e`,
	'\\': `\\`,
}

// javaScriptStringEscape escapes the string s so it can be placed inside a
// JavaScript or JSON string, and writes it to w.
func javaScriptStringEscape(w io.Writer, s string) error {
	last := 0
	for i, c := range s {
		var esc string
		switch {
		case int(c) < len(javaScriptStringEscapes) && javaScriptStringEscapes[c] != "":
			esc = javaScriptStringEscapes[c]
		case c == '\u2028':
			esc = `\u2028`
		case c == '\u2029':
			esc = `\u2029`
		default:
			continue
		}
		if last != i {
			if _, err := io.WriteString(w, s[last:i]); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, esc); err != nil {
			return err
		}
		if c == '\u2028' || c == '\u2029' {
			last = i + 3
		} else {
			last = i + 1
		}
	}
	if last != len(s) {
		_, err := io.WriteString(w, s[last:])
		return err
	}
	return nil
}

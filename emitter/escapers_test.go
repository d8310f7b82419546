// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emitter

import (
	"strings"
	"testing"

	"github.com/open2b/mustatic/ast"
)

func escapeToString(t *testing.T, format ast.Format, s string) string {
	t.Helper()
	var b strings.Builder
	if err := Escape(format, &b, s); err != nil {
		t.Fatalf("Escape: %v", err)
	}
	return b.String()
}

func TestHTMLEscape(t *testing.T) {
	got := escapeToString(t, ast.FormatHTML, `<b>"it's" & </b>`)
	want := `&lt;b&gt;&#34;it&#39;s&#34; &amp; &lt;/b&gt;`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestHTMLEscapeNoOp(t *testing.T) {
	got := escapeToString(t, ast.FormatHTML, "plain text")
	if got != "plain text" {
		t.Fatalf("got %q", got)
	}
}

func TestCSSStringEscape(t *testing.T) {
	got := escapeToString(t, ast.FormatCSS, `a"b`)
	if !strings.Contains(got, `\22`) {
		t.Fatalf("got %q", got)
	}
}

func TestJSStringEscape(t *testing.T) {
	got := escapeToString(t, ast.FormatJS, "a\nb\"c")
	want := `a\nb\"c`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestJSStringEscapeLineSeparators(t *testing.T) {
	got := escapeToString(t, ast.FormatJS, "a b c")
	want := `a b c`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestJSONStringEscapeSharesJSEscaper(t *testing.T) {
	got := escapeToString(t, ast.FormatJSON, `"`)
	if got != `\"` {
		t.Fatalf("got %q", got)
	}
}

func TestTextFormatNoEscape(t *testing.T) {
	got := escapeToString(t, ast.FormatText, `<b>`)
	if got != "<b>" {
		t.Fatalf("got %q", got)
	}
}

func TestEscapeNone(t *testing.T) {
	var b strings.Builder
	if err := EscapeNone(&b, `<b>&"'`); err != nil {
		t.Fatalf("EscapeNone: %v", err)
	}
	if b.String() != `<b>&"'` {
		t.Fatalf("got %q", b.String())
	}
}

func TestMarkdownFormatRendersHTML(t *testing.T) {
	got := escapeToString(t, ast.FormatMarkdown, "# hi\n\n*there*")
	if !strings.Contains(got, "<h1>hi</h1>") {
		t.Fatalf("expected rendered markdown heading, got %q", got)
	}
	if !strings.Contains(got, "<em>there</em>") {
		t.Fatalf("expected rendered markdown emphasis, got %q", got)
	}
}

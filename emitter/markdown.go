// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emitter

import (
	"io"

	"github.com/yuin/goldmark"
)

// markdownToHTML converts s, interpreted as Markdown source, to HTML and
// writes the result to w. Used for ast.FormatMarkdown interpolations: the
// interpolated value is Markdown source text, not pre-rendered markup, so
// plain HTML-escaping it would be wrong (it would escape the Markdown
// syntax itself instead of rendering it). goldmark's default configuration
// disables raw HTML passthrough, so the conversion output is safe to write
// verbatim.
func markdownToHTML(w io.Writer, s string) error {
	return goldmark.Convert([]byte(s), w)
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

// HTML, CSS, JS, JSON and Markdown are pre-escaped string types, the
// result types of the Stringer interfaces below. The generated Renderer
// writes a member verbatim, bypassing the content-type escaper, when the
// member's static type has the method for the template's content type
// (HTML() for html and markdown, CSS(), JS(), JSON()). A member declared
// directly as one of these string types has no such method, so it is
// formatted and escaped like any other string.
type (
	HTML     string
	CSS      string
	JS       string
	JSON     string
	Markdown string
)

// HTMLStringer is implemented by a value that renders itself as pre-escaped
// HTML; the emitter calls HTML() instead of a plain formatter+escaper pass
// for any member whose static type implements it.
type HTMLStringer interface {
	HTML() HTML
}

// CSSStringer is the CSS analogue of HTMLStringer.
type CSSStringer interface {
	CSS() CSS
}

// JSStringer is the JavaScript analogue of HTMLStringer.
type JSStringer interface {
	JS() JS
}

// JSONStringer is the JSON analogue of HTMLStringer.
type JSONStringer interface {
	JSON() JSON
}

// MarkdownStringer is the Markdown analogue of HTMLStringer. The generated
// Renderer does not call Markdown(): under the markdown content type the
// bypass method is HTML(), and any other value is formatted and then
// converted to HTML by goldmark.
type MarkdownStringer interface {
	Markdown() Markdown
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package model is the annotation surface a host program uses to tell
// mustatic which Mustache template compiles against which Go struct.
// Registration happens in ordinary, compiled Go code (a go:generate-driven
// file, typically), not by scanning a source tree: that kind of discovery
// is an external collaborator left to the host program, per the package's
// own scope.
package model

import "reflect"

// Auto is the sentinel value for a Template field left to mustatic's
// default resolution: AdapterName derives from the model's own type name,
// ContentType defaults to HTML, Formatter to the null-rejecting default,
// Charset to "utf-8".
const Auto = ":auto"

// DefaultCharset is used when Template.Charset is Auto or empty.
const DefaultCharset = "utf-8"

// PartialSource is one entry of Template.Partials: exactly one of Inline
// or Path must be set.
type PartialSource struct {
	Inline string
	Path   string
}

// PathRule remaps a partial/parent name referenced by a template to an
// alternate source, overriding the loader's default resource lookup.
type PathRule struct {
	Name   string
	Inline string
	Path   string
}

// Template is the set of annotations a model type carries: where its
// template text comes from, how it should be escaped and formatted, and
// which partials/parents it may include.
type Template struct {
	// Path is the template's resource path, resolved through the driver's
	// configured loader.Reader. Ignored if Inline is non-empty.
	Path string

	// Inline is a template given directly as a string, taking precedence
	// over Path. If both are empty, the driver synthesizes
	// "<ModelName>.mustache" as the path.
	Inline string

	// AdapterName names the generated Renderer type; Auto derives it from
	// the model's own type name (e.g. "Order" -> "OrderRenderer").
	AdapterName string

	// ContentType selects the escaper: one of "html", "css", "js", "json",
	// "markdown", "text", or Auto (-> "html").
	ContentType string

	// Formatter names the value formatter. The driver does not consult
	// it: generated code always formats with emitter.DefaultFormatter,
	// the null-rejecting default that Auto stands for.
	Formatter string

	// Charset is the charset the generated Renderer.TemplateCharset
	// reports; Auto (or empty) -> DefaultCharset.
	Charset string

	// Partials maps a partial/parent name directly to source text or a
	// path, bypassing the configured loader.Reader for that name.
	Partials map[string]PartialSource

	// PathMapping additionally remaps names via an ordered rule list,
	// checked before Partials for a name; the first matching rule wins.
	PathMapping []PathRule

	// Interfaces lists extra types the generated Renderer.SupportsType
	// must also accept, beyond the model's own type and its pointer.
	Interfaces []reflect.Type
}

// ResolveContentType returns t's content type with Auto resolved to
// "html".
func (t Template) ResolveContentType() string {
	if t.ContentType == "" || t.ContentType == Auto {
		return "html"
	}
	return t.ContentType
}

// ResolveCharset returns t's charset with Auto/empty resolved to
// DefaultCharset.
func (t Template) ResolveCharset() string {
	if t.Charset == "" || t.Charset == Auto {
		return DefaultCharset
	}
	return t.Charset
}

// ResolveAdapterName returns t's adapter name, deriving one from modelType
// when AdapterName is Auto or empty.
func (t Template) ResolveAdapterName(modelType reflect.Type) string {
	if t.AdapterName == "" || t.AdapterName == Auto {
		name := modelType.Name()
		if modelType.Kind() == reflect.Ptr {
			name = modelType.Elem().Name()
		}
		return name + "Renderer"
	}
	return t.AdapterName
}

// Registration pairs a model's reflect.Type with the Template describing
// how to compile it.
type Registration struct {
	Type     reflect.Type
	Template Template
}

// Catalog is an in-process registry of model registrations, built by
// repeated calls to Register. A host program populates it explicitly,
// typically from blank-imported packages whose init functions call
// Register, rather than mustatic scanning a source tree for annotations.
type Catalog struct {
	entries []Registration
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Register adds a registration for the type of model (model itself is
// never retained, only its reflect.Type) with the given Template.
func (c *Catalog) Register(model interface{}, tmpl Template) {
	t := reflect.TypeOf(model)
	c.entries = append(c.entries, Registration{Type: t, Template: tmpl})
}

// Registrations returns every registration added so far, in registration
// order.
func (c *Catalog) Registrations() []Registration {
	out := make([]Registration, len(c.entries))
	copy(out, c.entries)
	return out
}

var defaultCatalog = NewCatalog()

// Register registers model against the default, package-level Catalog.
// Host programs that compile a single set of templates in one process
// typically only ever use this package-level Catalog; driver.Compile
// accepts any *Catalog, including one built independently of this
// function, for callers that need more than one.
func Register(model interface{}, tmpl Template) {
	defaultCatalog.Register(model, tmpl)
}

// DefaultCatalog returns the package-level Catalog populated by Register.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runtime provides the thin ambient-lookup carrier that generated
// Renderer code calls into for "{{@context}}" interpolations. It is
// deliberately minimal: a full dynamic, reflective fallback renderer able
// to address an arbitrary, statically-unknown object graph is an explicit
// external collaborator and is not implemented here.
package runtime

// Context is the per-request ambient value a "{{@context}}" interpolation
// or section resolves to. It is never walked as part of the model's own
// member stack: a model exposing it implements Provider, and every
// "{{@context}}" reference anywhere in the template, at any section/loop
// depth, resolves to the same call on the root model.
type Context = interface{}

// Provider is implemented by a model whose template uses "{{@context}}".
// The generated Renderer calls Context() once per "{{@context}}"
// interpolation, always against the root model value passed to
// Execute/Write, never against a pushed loop/record frame. A
// "{{#@context}}" section renders its body without calling Context().
type Provider interface {
	Context() Context
}

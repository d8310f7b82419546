// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolver is the context-stack type checker: it walks a parsed
// and loader-expanded ast.Tree in pre-order over a stack of frames, each
// backed by a types.Descriptor, and annotates every ast.Var, ast.Section
// and ast.Inverted node with an ast.Resolved accessor chain. Grounded on
// the general "stack of frames searched top-down for name resolution"
// shape of scriggo's internal/compiler/checker_scopes.go, the closest
// structural analogue scriggo has to Mustache's context stack (scriggo
// itself has no Mustache-style dotted-path resolution).
package resolver

import (
	"fmt"
	"reflect"

	"github.com/open2b/mustatic/ast"
	"github.com/open2b/mustatic/runtime"
	"github.com/open2b/mustatic/types"
)

var providerType = reflect.TypeOf((*runtime.Provider)(nil)).Elem()

// ResolveError is returned for any fatal name-resolution failure: an
// unknown name at the current stack, a non-formattable type used as a
// variable (a func member of an unsupported arity is one), or a type that
// cannot open a section. Unknown partials are reported by the loader.
type ResolveError struct {
	Pos ast.Position
	Msg string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos.String(), e.Msg)
}

func resolveErrorf(pos *ast.Position, format string, a ...interface{}) *ResolveError {
	return &ResolveError{Pos: *pos, Msg: fmt.Sprintf(format, a...)}
}

// frame is one entry of the resolver's context stack. loop is true only
// for frames pushed by an iterable section, making "-first"/"-last"/
// "-index" available to name resolution within its body.
type frame struct {
	descriptor *types.Descriptor
	loop       bool
}

// resolver holds the in-progress walk of one tree.
type resolver struct {
	catalog *types.Catalog
	stack   []frame
}

// Resolve annotates every ast.Var/ast.Section/ast.Inverted reachable from
// tree.Nodes with its ast.Resolved accessor chain, using catalog to build
// (and cache) type descriptors rooted at model. tree must already have
// had every ast.Partial/ast.Parent expanded by loader.Load.
func Resolve(tree *ast.Tree, model reflect.Type, catalog *types.Catalog) error {
	// A root model registered by pointer (e.g. model.Register(&Order{},
	// ...)) describes the same member set as the pointee: the generated
	// Renderer's "m" parameter may be typed either way since Go auto-
	// dereferences a selector on a pointer, but name resolution needs the
	// Record descriptor, not a Nullable wrapping one.
	if model.Kind() == reflect.Ptr {
		model = model.Elem()
	}
	r := &resolver{catalog: catalog}
	r.stack = []frame{{descriptor: catalog.Describe(model)}}
	return r.walk(tree.Nodes)
}

func (r *resolver) walk(nodes []ast.Node) error {
	for _, n := range nodes {
		if err := r.visit(n); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) visit(n ast.Node) error {
	switch node := n.(type) {
	case *ast.Var:
		return r.visitVar(node)
	case *ast.Section:
		return r.visitSection(node, false)
	case *ast.Inverted:
		return r.visitSection(node, true)
	case *ast.Block:
		return r.walk(node.Default)
	case *ast.Partial:
		return r.walk(node.Resolved)
	case *ast.Parent:
		return r.walk(node.Resolved)
	}
	return nil
}

func (r *resolver) visitVar(node *ast.Var) error {
	resolved, err := r.resolvePath(node.Position, node.Path)
	if err != nil {
		return err
	}
	switch resolved.End {
	case ast.EndBool, ast.EndLambda, ast.EndContext, ast.EndLoopMeta:
		node.Resolved = resolved
		return nil
	case ast.EndValue, ast.EndNullable:
		if resolved.Elem == nil || !resolved.Elem.Formattable() {
			return resolveErrorf(node.Position, "%q is not a formattable value", node.Path.String())
		}
		node.Resolved = resolved
		return nil
	}
	return resolveErrorf(node.Position, "%q is not a formattable value", node.Path.String())
}

func (r *resolver) visitSection(node ast.Node, inverted bool) error {
	var path ast.Path
	var children []ast.Node
	var pos *ast.Position
	switch n := node.(type) {
	case *ast.Section:
		path, children, pos = n.Path, n.Children, n.Position
	case *ast.Inverted:
		path, children, pos = n.Path, n.Children, n.Position
	}

	resolved, err := r.resolvePath(pos, path)
	if err != nil {
		return err
	}
	if s, ok := node.(*ast.Section); ok {
		s.Resolved = resolved
	} else {
		node.(*ast.Inverted).Resolved = resolved
	}

	if inverted {
		// Inverted sections never push a frame: the body renders in the
		// unchanged enclosing frame, guarded by negated truthiness.
		return r.walk(children)
	}

	switch resolved.End {
	case ast.EndIterable:
		r.stack = append(r.stack, frame{descriptor: resolved.Elem, loop: true})
		err = r.walk(children)
		r.stack = r.stack[:len(r.stack)-1]
		return err
	case ast.EndRecord:
		r.stack = append(r.stack, frame{descriptor: resolved.Elem})
		err = r.walk(children)
		r.stack = r.stack[:len(r.stack)-1]
		return err
	case ast.EndNullable:
		r.stack = append(r.stack, frame{descriptor: resolved.Elem})
		err = r.walk(children)
		r.stack = r.stack[:len(r.stack)-1]
		return err
	case ast.EndBool, ast.EndLambda, ast.EndContext:
		// Truthiness gate, lambda re-render, or ambient context: body
		// renders in the unchanged frame.
		return r.walk(children)
	}
	return resolveErrorf(pos, "%q cannot be used as a section", path.String())
}

// resolvePath implements a head-then-segment algorithm: the head is
// searched for top-down across the stack and, once found, every following
// segment resolves only against the current segment's result type.
func (r *resolver) resolvePath(pos *ast.Position, path ast.Path) (*ast.Resolved, error) {
	if path.IsContext() {
		root := r.stack[0].descriptor.GoType
		if root == nil || !root.Implements(providerType) {
			return nil, resolveErrorf(pos, "%q used but model type %s does not implement runtime.Provider", path.String(), root)
		}
		return &ast.Resolved{FrameIndex: -1, End: ast.EndContext}, nil
	}
	if path.IsCurrent() {
		idx := len(r.stack) - 1
		return r.classify(idx, nil, r.stack[idx].descriptor), nil
	}

	head := path.Idents[0]
	if idx, ok := r.loopFrameFor(head); ok {
		return &ast.Resolved{FrameIndex: idx, End: ast.EndLoopMeta}, nil
	}

	frameIdx := -1
	var accessors []types.Member
	var current *types.Descriptor
	for i := len(r.stack) - 1; i >= 0; i-- {
		if m, ok := r.stack[i].descriptor.Lookup(head); ok {
			frameIdx = i
			accessors = []types.Member{m}
			current = m.Result
			break
		}
	}
	if frameIdx < 0 {
		return nil, resolveErrorf(pos, "unknown name %q", head)
	}

	for _, seg := range path.Idents[1:] {
		m, ok := current.Lookup(seg)
		if !ok {
			return nil, resolveErrorf(pos, "unknown member %q of %q", seg, path.String())
		}
		accessors = append(accessors, m)
		current = m.Result
	}

	return r.classify(frameIdx, accessors, current), nil
}

// loopFrameFor reports whether head is one of the reserved loop-metadata
// names and, if so, the nearest enclosing loop frame's stack index.
func (r *resolver) loopFrameFor(head string) (int, bool) {
	switch head {
	case "-first", "-last", "-index":
	default:
		return 0, false
	}
	for i := len(r.stack) - 1; i >= 0; i-- {
		if r.stack[i].loop {
			return i, true
		}
	}
	return 0, false
}

// classify builds the Resolved value for a terminal descriptor, setting
// Elem to whatever a consuming Section would need to push as its own
// frame descriptor.
func (r *resolver) classify(frameIdx int, accessors []types.Member, d *types.Descriptor) *ast.Resolved {
	res := &ast.Resolved{FrameIndex: frameIdx, Accessors: accessors}
	switch d.Class {
	case types.IterableOf, types.ArrayOf:
		res.End = ast.EndIterable
		res.Elem = d.Elem
	case types.Bool:
		res.End = ast.EndBool
	case types.Nullable:
		res.End = ast.EndNullable
		res.Elem = d.Elem
	case types.Record, types.MapOf:
		res.End = ast.EndRecord
		res.Elem = d
	case types.Lambda, types.LambdaBody:
		res.End = ast.EndLambda
		res.Elem = d.Elem
		res.LambdaTakesBody = d.Class == types.LambdaBody
	default:
		res.End = ast.EndValue
		res.Elem = d
	}
	return res
}

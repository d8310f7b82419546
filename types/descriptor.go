// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package types builds and caches the statically-known type descriptors
// that the resolver resolves dotted names against. A descriptor is built
// once, from the reflect.Type of a registered model (see the model
// package's Register function for why reflect.Type, gathered at
// registration time in the running generator process, stands in for a
// go/types frontend here), and is then immutable and shared across every
// template compiled against that model in one driver run.
package types

import (
	"reflect"
	"sort"
)

// Class classifies a type for the purposes of Mustache name resolution.
type Class int

const (
	Invalid Class = iota
	Record        // struct or interface: has named members
	MapOf         // map[string]V: has named members, one per possible key
	IterableOf    // slice or chan of T: a section over it is a loop
	ArrayOf       // array of T; a loop like IterableOf, kept distinct for clarity at call sites
	Bool
	Numeric
	String
	Lambda     // func() T or func() (T, error) value
	LambdaBody // func(string) T or func(string) (T, error) value, taking the section's body text
	Nullable   // pointer to T, which may be nil
)

// String returns the name of the class, for diagnostics.
func (c Class) String() string {
	switch c {
	case Record:
		return "record"
	case MapOf:
		return "map"
	case IterableOf, ArrayOf:
		return "iterable"
	case Bool:
		return "boolean"
	case Numeric:
		return "numeric"
	case String:
		return "string"
	case Lambda:
		return "lambda"
	case LambdaBody:
		return "lambda(body)"
	case Nullable:
		return "nullable"
	}
	return "invalid"
}

// Member is a named, zero-argument accessor of a Record or MapOf type: a
// struct field, a zero-argument single-return method, or (for MapOf) a
// synthetic member representing the map's value type under any key.
type Member struct {
	Name   string
	Result *Descriptor

	// GoName is the literal Go selector the emitter writes into generated
	// source: the struct field name or method name. Empty for MapOf's
	// synthetic member, which the emitter instead addresses by map index
	// expression using Name as the (possibly dotted-path-supplied) key.
	GoName string

	// IsMethod reports whether GoName is called as a method rather than
	// read as a field.
	IsMethod bool

	// ReturnsError reports whether the method named by GoName returns a
	// trailing error the emitted code must check, in addition to its
	// result. Only meaningful when IsMethod is true.
	ReturnsError bool

	// Access reads the member's value out of v, which must hold (or point
	// to) a value of the owning Descriptor's Go type. Used by tests and by
	// any reflective fallback path; the generated Renderer's hot path
	// never calls it, emitting a literal Go selector via GoName instead.
	// For a MapOf's synthetic member, Access expects the map itself and
	// looks up Name as the key.
	Access func(v reflect.Value) reflect.Value
}

// Descriptor is an opaque, immutable summary of a Go type sufficient for
// Mustache name resolution: for Record/MapOf, a name -> Member map; for
// every class, an Elem descriptor where relevant (iterable element type,
// nullable wrapped type).
type Descriptor struct {
	GoType  reflect.Type
	Class   Class
	Members map[string]Member // Record, MapOf
	Elem    *Descriptor        // IterableOf/ArrayOf element, or Nullable wrapped type
	Lambda  *LambdaShape       // Lambda, LambdaBody
}

// LambdaShape describes a lambda member's signature: TakesBody reports
// whether it takes the section's body text. buildFunc sets only TakesBody;
// TakesElement and Call are left zero, and generated code calls the func
// value directly.
type LambdaShape struct {
	TakesBody    bool
	TakesElement bool
	Call         func(recv reflect.Value, body string, elem reflect.Value) (string, error)
}

// cache memoizes descriptors per reflect.Type so a struct referenced from
// many templates in one compilation is only reflected over once.
type cache struct {
	m map[reflect.Type]*Descriptor
}

func newCache() *cache {
	return &cache{m: map[reflect.Type]*Descriptor{}}
}

// Catalog is the store of descriptors built during one driver.Compile
// invocation: every descriptor is built once, up front, then treated as
// immutable and shared across the concurrent workers that compile each
// registered model's template.
type Catalog struct {
	c *cache
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{c: newCache()}
}

// Describe returns the Descriptor for t, building and caching it if this
// is the first time t is seen in this Catalog.
func (cat *Catalog) Describe(t reflect.Type) *Descriptor {
	if d, ok := cat.c.m[t]; ok {
		return d
	}
	d := &Descriptor{GoType: t}
	// Insert before recursing: struct fields may refer back to t (a
	// recursive data structure, e.g. a tree model), and recursion must
	// terminate at the cached, still-being-built descriptor rather than
	// looping forever.
	cat.c.m[t] = d
	cat.build(d, t)
	return d
}

func (cat *Catalog) build(d *Descriptor, t reflect.Type) {
	switch t.Kind() {
	case reflect.Ptr:
		d.Class = Nullable
		d.Elem = cat.Describe(t.Elem())
	case reflect.Interface:
		// An interface's statically-known member set is its own
		// zero-argument methods, exposed the same way struct methods are.
		// A nil interface value is handled at the Access call site, not by
		// the class: resolver treats a nil Record value as absent.
		d.Class = Record
		d.Members = cat.methodMembers(t)
	case reflect.Struct:
		d.Class = Record
		d.Members = cat.structMembers(t)
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			d.Class = Invalid
			return
		}
		d.Class = MapOf
		d.Elem = cat.Describe(t.Elem())
		d.Members = map[string]Member{}
	case reflect.Slice, reflect.Chan:
		d.Class = IterableOf
		d.Elem = cat.Describe(t.Elem())
	case reflect.Array:
		d.Class = ArrayOf
		d.Elem = cat.Describe(t.Elem())
	case reflect.Bool:
		d.Class = Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		d.Class = Numeric
	case reflect.String:
		d.Class = String
	case reflect.Func:
		cat.buildFunc(d, t)
	default:
		d.Class = Invalid
	}
}

// buildFunc classifies a func type used as a field value (a "lambda
// field"): func() T, func() (T, error), func(string) T or func(string)
// (T, error).
func (cat *Catalog) buildFunc(d *Descriptor, t reflect.Type) {
	if t.NumOut() < 1 || t.NumOut() > 2 {
		d.Class = Invalid
		return
	}
	switch t.NumIn() {
	case 0:
		d.Class = Lambda
		d.Elem = cat.Describe(t.Out(0))
		d.Lambda = &LambdaShape{}
	case 1:
		if t.In(0).Kind() != reflect.String {
			d.Class = Invalid
			return
		}
		d.Class = LambdaBody
		d.Elem = cat.Describe(t.Out(0))
		d.Lambda = &LambdaShape{TakesBody: true}
	default:
		d.Class = Invalid
	}
}

// structMembers reflects over t's exported fields and zero-argument,
// single-(or error-)return methods. Methods take precedence over a field
// of the same name, matching the usual Go struct-embedding promotion
// order when both exist.
func (cat *Catalog) structMembers(t reflect.Type) map[string]Member {
	members := map[string]Member{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("mustache"); ok && tag != "" && tag != "-" {
			name = tag
		} else if tag == "-" {
			continue
		}
		fieldIndex := i
		members[name] = Member{
			Name:   name,
			GoName: f.Name,
			Result: cat.Describe(f.Type),
			Access: func(v reflect.Value) reflect.Value {
				return indirect(v).Field(fieldIndex)
			},
		}
	}
	for name, m := range cat.methodMembers(t) {
		members[name] = m
	}
	if t.Kind() != reflect.Ptr {
		ptr := reflect.PtrTo(t)
		for name, m := range cat.methodMembers(ptr) {
			if _, exists := members[name]; !exists {
				members[name] = m
			}
		}
	}
	return members
}

// methodMembers reflects over t's zero-argument methods that return one
// value, or two values where the second is an error.
func (cat *Catalog) methodMembers(t reflect.Type) map[string]Member {
	members := map[string]Member{}
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		mt := m.Type
		// mt includes the receiver as In(0) for methods of a concrete type
		// obtained through reflect.Type (not through a Value); the methods
		// of an interface type carry no receiver.
		wantIn := 1
		if t.Kind() == reflect.Interface {
			wantIn = 0
		}
		if mt.NumIn() != wantIn {
			continue
		}
		var resultType reflect.Type
		switch mt.NumOut() {
		case 1:
			resultType = mt.Out(0)
		case 2:
			if !mt.Out(1).Implements(errorType) {
				continue
			}
			resultType = mt.Out(0)
		default:
			continue
		}
		methodIndex := m.Index
		returnsError := mt.NumOut() == 2
		members[m.Name] = Member{
			Name:         m.Name,
			GoName:       m.Name,
			IsMethod:     true,
			ReturnsError: returnsError,
			Result:       cat.Describe(resultType),
			Access: func(v reflect.Value) reflect.Value {
				out := v.Method(methodIndex).Call(nil)
				if returnsError && !out[1].IsNil() {
					panic(out[1].Interface())
				}
				return out[0]
			},
		}
	}
	return members
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// indirect dereferences v if it is a valid, non-nil pointer, for one
// level, leaving everything else unchanged.
func indirect(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Ptr && !v.IsNil() {
		return v.Elem()
	}
	return v
}

// Lookup returns the Member named name on d, and whether it was found.
// For MapOf descriptors every name is considered present; the returned
// Member's Access reads the corresponding map entry (absent keys yield the
// zero Value, which resolver treats as falsy/empty per the Nullable rules).
func (d *Descriptor) Lookup(name string) (Member, bool) {
	if d.Class == MapOf {
		elem := d.Elem
		return Member{
			Name:   name,
			Result: elem,
			Access: func(v reflect.Value) reflect.Value {
				v = indirect(v)
				mv := v.MapIndex(reflect.ValueOf(name))
				if !mv.IsValid() {
					return reflect.Zero(elem.GoType)
				}
				return mv
			},
		}, true
	}
	m, ok := d.Members[name]
	return m, ok
}

// MemberNames returns the sorted member names of d, for diagnostics and
// tests.
func (d *Descriptor) MemberNames() []string {
	names := make([]string, 0, len(d.Members))
	for name := range d.Members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Formattable reports whether d's class can be formatted directly by a
// Formatter: string, numeric, boolean, or nullable-of-formattable.
func (d *Descriptor) Formattable() bool {
	switch d.Class {
	case String, Numeric, Bool:
		return true
	case Nullable:
		return d.Elem != nil && d.Elem.Formattable()
	}
	return false
}

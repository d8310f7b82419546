// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"fmt"
	"sync"

	"github.com/open2b/mustatic/ast"
)

// Severity classifies a Diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one reported compilation event, formatted per
// "<severity>: <file>:<line>:<col>: <message>".
type Diagnostic struct {
	Severity Severity
	File     string
	Line     int
	Column   int
	Message  string
}

// String formats d as "<severity>: <file>:<line>:<col>: <message>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s:%d:%d: %s", d.Severity, d.File, d.Line, d.Column, d.Message)
}

// Diagnostics is a mutex-protected accumulator shared across the bounded
// worker pool that compiles every registered model: the only mutable state
// shared between goroutines in one Compile call, per the concurrency model.
type Diagnostics struct {
	mu      sync.Mutex
	entries []Diagnostic
}

// Add appends d, safe for concurrent use.
func (ds *Diagnostics) Add(d Diagnostic) {
	ds.mu.Lock()
	ds.entries = append(ds.entries, d)
	ds.mu.Unlock()
}

// Errorf records an error-severity diagnostic at pos and returns it.
func (ds *Diagnostics) Errorf(file string, pos *ast.Position, format string, a ...interface{}) Diagnostic {
	d := Diagnostic{Severity: SeverityError, File: file, Message: fmt.Sprintf(format, a...)}
	if pos != nil {
		d.Line, d.Column = pos.Line, pos.Column
	}
	ds.Add(d)
	return d
}

// Warnf records a warning-severity diagnostic at pos and returns it.
func (ds *Diagnostics) Warnf(file string, pos *ast.Position, format string, a ...interface{}) Diagnostic {
	d := Diagnostic{Severity: SeverityWarning, File: file, Message: fmt.Sprintf(format, a...)}
	if pos != nil {
		d.Line, d.Column = pos.Line, pos.Column
	}
	ds.Add(d)
	return d
}

// All returns every diagnostic recorded so far, in the order Add was
// called.
func (ds *Diagnostics) All() []Diagnostic {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	out := make([]Diagnostic, len(ds.entries))
	copy(out, ds.entries)
	return out
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (ds *Diagnostics) HasErrors() bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	for _, d := range ds.entries {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

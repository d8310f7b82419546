// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emitter

// ByteSink is the write target of a generated Renderer's Write method: an
// io.Writer that also exposes WriteString, so generated code never has to
// allocate a []byte copy of a literal string just to call Write.
type ByteSink interface {
	Write(p []byte) (int, error)
	WriteString(s string) (int, error)
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emitter

import (
	"errors"
	"testing"
)

func TestDefaultFormatterString(t *testing.T) {
	s, err := DefaultFormatter.Format("hi")
	if err != nil || s != "hi" {
		t.Fatalf("got %q, %v", s, err)
	}
}

func TestDefaultFormatterBool(t *testing.T) {
	s, err := DefaultFormatter.Format(true)
	if err != nil || s != "true" {
		t.Fatalf("got %q, %v", s, err)
	}
}

func TestDefaultFormatterInt(t *testing.T) {
	s, err := DefaultFormatter.Format(42)
	if err != nil || s != "42" {
		t.Fatalf("got %q, %v", s, err)
	}
}

func TestDefaultFormatterFloat(t *testing.T) {
	s, err := DefaultFormatter.Format(1.5)
	if err != nil || s != "1.5" {
		t.Fatalf("got %q, %v", s, err)
	}
}

func TestDefaultFormatterNilIsContractError(t *testing.T) {
	_, err := DefaultFormatter.Format(nil)
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want *ContractError", err)
	}
}

func TestNullableFormatterNil(t *testing.T) {
	f := NullableFormatter(DefaultFormatter)
	s, err := f.Format(nil)
	if err != nil || s != "" {
		t.Fatalf("got %q, %v", s, err)
	}
}

func TestNullableFormatterPresent(t *testing.T) {
	f := NullableFormatter(DefaultFormatter)
	s, err := f.Format("hi")
	if err != nil || s != "hi" {
		t.Fatalf("got %q, %v", s, err)
	}
}

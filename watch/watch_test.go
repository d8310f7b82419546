// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatchCallsBackOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "home.mustache")
	if err := os.WriteFile(file, []byte("hello"), 0o644); err != nil {
		t.Fatalf("writing template: %v", err)
	}

	calls := make(chan struct{}, 8)
	stop, err := Watch(dir, func() { calls <- struct{}{} }, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	if err := os.WriteFile(file, []byte("hello again"), 0o644); err != nil {
		t.Fatalf("rewriting template: %v", err)
	}

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the watch callback")
	}
}

func TestWatchIgnoresUnrelatedExtensions(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	calls := make(chan struct{}, 8)
	stop, err := Watch(dir, func() { calls <- struct{}{} }, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	if err := os.WriteFile(file, []byte("y"), 0o644); err != nil {
		t.Fatalf("rewriting file: %v", err)
	}

	select {
	case <-calls:
		t.Fatal("callback fired for a non-template, non-Go file change")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatchStopReleasesWatcher(t *testing.T) {
	dir := t.TempDir()
	stop, err := Watch(dir, func() {}, nil)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	stop()
}

func TestRelevantFiltersByExtension(t *testing.T) {
	// relevant is exercised indirectly above via real fsnotify events; this
	// only pins its extension allowlist against regressions.
	cases := map[string]bool{
		"a.mustache": true,
		"b.go":       true,
		"layouts":    true,
		"c.txt":      false,
		"d.png":      false,
	}
	for name, want := range cases {
		got := relevant(fsnotify.Event{Name: name, Op: fsnotify.Write})
		if got != want {
			t.Errorf("extension check for %q = %v, want %v", name, got, want)
		}
	}
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMainGenerateWritesFiles(t *testing.T) {
	TestEnvironment = true
	defer func() { TestEnvironment = false }()

	dir := t.TempDir()
	mustaticgen("mustaticgen", "generate", "-out", dir, "-config", filepath.Join(dir, "missing.yaml"))

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading out dir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected generate to write at least one file")
	}
}

func TestMainUnknownCommand(t *testing.T) {
	TestEnvironment = true
	defer func() { TestEnvironment = false }()

	mustaticgen("mustaticgen", "bogus")
}

func TestMainNoCommandShowsUsage(t *testing.T) {
	TestEnvironment = true
	defer func() { TestEnvironment = false }()

	mustaticgen("mustaticgen")
}

func TestUnderlyingErrUnwrapsToPathError(t *testing.T) {
	_, statErr := os.Stat(filepath.Join(t.TempDir(), "does-not-exist"))
	if !os.IsNotExist(underlyingErr(statErr)) {
		t.Fatalf("expected a not-exist error, got %v", statErr)
	}
}

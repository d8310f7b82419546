// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ModulePath returns the module path declared by the go.mod found in dir or
// one of its ancestors, the same lookup `go build` itself performs.
// cmd/mustaticgen calls this once at startup to report which module it is
// generating code for; driver.Compile itself has no need of it.
func ModulePath(dir string) (string, error) {
	path, err := findGoMod(dir)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("driver: reading %s: %w", path, err)
	}
	f, err := modfile.Parse(path, data, nil)
	if err != nil {
		return "", fmt.Errorf("driver: parsing %s: %w", path, err)
	}
	if f.Module == nil {
		return "", fmt.Errorf("driver: %s has no module directive", path)
	}
	return f.Module.Mod.Path, nil
}

// findGoMod walks up from dir looking for a go.mod file.
func findGoMod(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("driver: no go.mod found above %s", dir)
		}
		dir = parent
	}
}

// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/open2b/mustatic/loader"
	"github.com/open2b/mustatic/model"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mustatic.yaml")
	data := `
template-dir: templates
out-dir: generated
package: renderers
charset: utf-8
content-type: html
max-partial-depth: 8
parallelism: 4
path-mapping:
  header:
    path: partials/header.mustache
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TemplateDir != "templates" || cfg.OutDir != "generated" || cfg.PackageName != "renderers" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.MaxPartialDepth != 8 || cfg.Parallelism != 4 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	rule, ok := cfg.PathMapping["header"]
	if !ok || rule.Path != "partials/header.mustache" {
		t.Fatalf("unexpected path-mapping: %+v", cfg.PathMapping)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestConfigReaderNilWithoutTemplateDir(t *testing.T) {
	cfg := &Config{}
	if cfg.reader() != nil {
		t.Fatal("expected a nil reader when TemplateDir is unset")
	}
}

func TestConfigReaderWithTemplateDir(t *testing.T) {
	cfg := &Config{TemplateDir: "templates"}
	if cfg.reader() == nil {
		t.Fatal("expected a non-nil reader when TemplateDir is set")
	}
}

func TestConfigMaxPartialDepthDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.maxPartialDepth(); got != loader.MaxPartialDepth {
		t.Fatalf("got %d, want %d", got, loader.MaxPartialDepth)
	}
}

func TestConfigMaxPartialDepthOverride(t *testing.T) {
	cfg := &Config{MaxPartialDepth: 2}
	if got := cfg.maxPartialDepth(); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}

func TestConfigGlobalPathMapping(t *testing.T) {
	cfg := &Config{PathMapping: map[string]PathMapping{
		"footer": {Inline: "{{Text}}"},
	}}
	mapping := cfg.globalPathMapping()
	got, ok := mapping["footer"]
	if !ok || got.Inline != "{{Text}}" {
		t.Fatalf("unexpected mapping: %+v", mapping)
	}
}

func TestPackageNameFallbackChain(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{PackageName: "explicit"}, "explicit"},
		{Config{OutDir: "/tmp/generated"}, "generated"},
		{Config{}, "mustatic"},
	}
	for _, c := range cases {
		if got := c.cfg.packageName(); got != c.want {
			t.Fatalf("packageName() = %q, want %q (cfg=%+v)", got, c.want, c.cfg)
		}
	}
}

func TestCompileHonorsDefaultContentType(t *testing.T) {
	dir := t.TempDir()
	catalog := model.NewCatalog()
	catalog.Register(article{}, model.Template{Inline: "{{Title}}"})

	cfg := &Config{OutDir: dir, DefaultContentType: "markdown"}
	diags, err := Compile(catalog, cfg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
}

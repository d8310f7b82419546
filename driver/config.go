// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/open2b/mustatic/loader"
)

// Config is the on-disk "mustatic.yaml" configuration: everything a
// mustaticgen run needs beyond what a model.Template itself declares.
type Config struct {
	// TemplateDir is the directory path-based template/partial sources are
	// read from. Empty means only Inline-sourced templates are supported.
	TemplateDir string `yaml:"template-dir"`

	// OutDir is the directory generated "_mustatic.go" files are written
	// to.
	OutDir string `yaml:"out-dir"`

	// PackageName is the package clause generated files declare. Left
	// empty, driver.Compile uses OutDir's base name if that is a valid Go
	// identifier, and "mustatic" otherwise.
	PackageName string `yaml:"package"`

	// DefaultCharset is used for a model whose Template.Charset is Auto or
	// empty; overrides model.DefaultCharset when set.
	DefaultCharset string `yaml:"charset"`

	// DefaultContentType is used for a model whose Template.ContentType is
	// Auto or empty; overrides "html" when set.
	DefaultContentType string `yaml:"content-type"`

	// PathMapping redirects partial/parent names across every model
	// compiled by this Config, checked after a model's own
	// Template.PathMapping and Template.Partials.
	PathMapping map[string]PathMapping `yaml:"path-mapping"`

	// MaxPartialDepth limits partial/parent inclusion recursion; 0 means
	// loader.MaxPartialDepth.
	MaxPartialDepth int `yaml:"max-partial-depth"`

	// Parallelism bounds how many models compile concurrently; 0 means
	// runtime.NumCPU.
	Parallelism int `yaml:"parallelism"`

	// Logger receives one line per compiled model plus any diagnostic
	// Compile records, nil meaning a logger writing to os.Stderr with no
	// prefix, matching cmd/scriggo's own plain stdlib log/fmt.Fprintln
	// style rather than a structured logging library. Not a YAML field:
	// set by the caller (cmd/mustaticgen or a host program), never read
	// from mustatic.yaml.
	Logger *log.Logger `yaml:"-"`
}

// logger returns cfg.Logger, or a default writing to os.Stderr with no
// prefix if unset.
func (cfg *Config) logger() *log.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return log.New(os.Stderr, "", 0)
}

// PathMapping is one "path-mapping" entry in mustatic.yaml.
type PathMapping struct {
	Inline string `yaml:"inline"`
	Path   string `yaml:"path"`
}

// LoadConfig reads and parses a mustatic.yaml file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("driver: reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("driver: parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// reader returns the loader.Reader this Config's TemplateDir implies, or
// nil if it has none configured.
func (cfg *Config) reader() loader.Reader {
	if cfg.TemplateDir == "" {
		return nil
	}
	return loader.DirReader(cfg.TemplateDir)
}

// globalPathMapping converts cfg.PathMapping to a loader.PathMapping.
func (cfg *Config) globalPathMapping() loader.PathMapping {
	out := make(loader.PathMapping, len(cfg.PathMapping))
	for name, m := range cfg.PathMapping {
		out[name] = loader.Mapped{Inline: m.Inline, Path: m.Path}
	}
	return out
}

func (cfg *Config) maxPartialDepth() int {
	if cfg.MaxPartialDepth <= 0 {
		return loader.MaxPartialDepth
	}
	return cfg.MaxPartialDepth
}

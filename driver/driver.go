// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package driver orchestrates one compilation run: for every model
// registered in a model.Catalog, load its template (and any partials/
// parents it references), resolve it against the model's type, generate Go
// source for its Renderer, and write the result under Config.OutDir. The
// core (lexer/parser/loader/resolver/emitter) stays synchronous and
// side-effect-free per model, while driver is the one place running
// several models' compilations concurrently, against a type-descriptor
// cache built once and then treated as immutable, matching cmd/scriggo's
// own gen.go orchestration shape (read in place under _examples/, not
// copied: its target is a compiled Go interpreter/loader, not a Mustache
// Renderer).
package driver

import (
	"fmt"
	"go/token"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sync"

	"github.com/open2b/mustatic/ast"
	"github.com/open2b/mustatic/emitter"
	"github.com/open2b/mustatic/loader"
	"github.com/open2b/mustatic/model"
	"github.com/open2b/mustatic/resolver"
	"github.com/open2b/mustatic/types"
)

// Compile compiles every model registered in catalog per cfg, writing one
// generated "<Model>_mustatic.go" file per model under cfg.OutDir. It
// returns the accumulated Diagnostics regardless of outcome; the caller
// decides how to report them (diagnostics.HasErrors() reports whether any
// model failed).
func Compile(catalog *model.Catalog, cfg *Config) (*Diagnostics, error) {
	registrations := catalog.Registrations()
	diagnostics := &Diagnostics{}

	if cfg.OutDir != "" {
		if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
			return diagnostics, fmt.Errorf("driver: creating %s: %w", cfg.OutDir, err)
		}
	}

	// The type-descriptor Catalog's cache is a plain map, safe to read
	// concurrently only once fully populated: every registered model's
	// transitive member closure is described here, serially, before any
	// goroutine touches it, so the parallel pass below never writes to it.
	typeCatalog := types.NewCatalog()
	for _, reg := range registrations {
		typeCatalog.Describe(reg.Type)
	}

	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup
	logger := cfg.logger()

	for _, reg := range registrations {
		reg := reg
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					errf(diagnostics, logger, reg.Type.Name(), nil, "internal error: %v", r)
				}
			}()
			compileOne(reg, cfg, typeCatalog, diagnostics, logger)
		}()
	}
	wg.Wait()

	return diagnostics, nil
}

// errf records an error diagnostic and logs it immediately, rather than
// only at the end of the run: a long compile with dozens of registered
// models should surface each failure as it happens, the same as
// cmd/scriggo's goImports/exitError calls report a failing file the
// moment it fails rather than batching reports to the end.
func errf(diagnostics *Diagnostics, logger *log.Logger, file string, pos *ast.Position, format string, a ...interface{}) {
	logger.Print(diagnostics.Errorf(file, pos, format, a...).String())
}

// warnf records a warning diagnostic and logs it immediately, the same as
// errf does for errors.
func warnf(diagnostics *Diagnostics, logger *log.Logger, file string, pos *ast.Position, format string, a ...interface{}) {
	logger.Print(diagnostics.Warnf(file, pos, format, a...).String())
}

func compileOne(reg model.Registration, cfg *Config, typeCatalog *types.Catalog, diagnostics *Diagnostics, logger *log.Logger) {
	tmpl := reg.Template
	displayName := reg.Type.Name()

	contentType := tmpl.ContentType
	if contentType == "" || contentType == model.Auto {
		if cfg.DefaultContentType != "" {
			contentType = cfg.DefaultContentType
		}
	}
	format, err := formatForContentType(model.Template{ContentType: contentType}.ResolveContentType())
	if err != nil {
		errf(diagnostics, logger, displayName, nil, "%v", err)
		return
	}

	path := tmpl.Path
	if path == "" && tmpl.Inline == "" {
		path = displayName + ".mustache"
	}

	tree, err := loader.Load(
		loader.Source{Inline: tmpl.Inline, Path: path},
		format,
		cfg.reader(),
		mergedPathMapping(cfg, tmpl),
		cfg.maxPartialDepth(),
	)
	if err != nil {
		errf(diagnostics, logger, displayName, nil, "%v", err)
		return
	}
	for _, w := range tree.Warnings {
		pos := w.Pos
		warnf(diagnostics, logger, displayName, &pos, "%s", w.Message)
	}

	if err := resolver.Resolve(tree, reg.Type, typeCatalog); err != nil {
		pos := (*ast.Position)(nil)
		if re, ok := err.(*resolver.ResolveError); ok {
			pos = &re.Pos
		}
		errf(diagnostics, logger, displayName, pos, "%v", err)
		return
	}

	modelGoType, importPath := goTypeExpr(reg.Type)
	adapterName := tmpl.ResolveAdapterName(reg.Type)
	charset := tmpl.ResolveCharset()
	if (tmpl.Charset == "" || tmpl.Charset == model.Auto) && cfg.DefaultCharset != "" {
		charset = cfg.DefaultCharset
	}

	src, err := emitter.Generate(emitter.Input{
		PackageName:         cfg.packageName(),
		AdapterName:         adapterName,
		ModelGoType:         modelGoType,
		ModelImportPath:     importPath,
		Charset:             charset,
		Format:              format,
		Tree:                tree,
		ExtraSupportedTypes: extraTypeExprs(tmpl.Interfaces),
	})
	if err != nil {
		errf(diagnostics, logger, displayName, nil, "generating code: %v", err)
		return
	}

	if cfg.OutDir == "" {
		return
	}
	outPath := filepath.Join(cfg.OutDir, displayName+"_mustatic.go")
	if err := os.WriteFile(outPath, src, 0o644); err != nil {
		errf(diagnostics, logger, displayName, nil, "writing %s: %v", outPath, err)
		return
	}
	logger.Printf("compiled %s -> %s", displayName, outPath)
}

// formatForContentType maps a model.Template.ResolveContentType() value to
// the ast.Format selecting the generated Renderer's escaper.
func formatForContentType(contentType string) (ast.Format, error) {
	switch contentType {
	case "html":
		return ast.FormatHTML, nil
	case "text":
		return ast.FormatText, nil
	case "css":
		return ast.FormatCSS, nil
	case "js":
		return ast.FormatJS, nil
	case "json":
		return ast.FormatJSON, nil
	case "markdown":
		return ast.FormatMarkdown, nil
	}
	return 0, fmt.Errorf("unknown content type %q", contentType)
}

// mergedPathMapping combines cfg's global path-mapping with tmpl's own
// Partials and PathMapping, which take precedence over the global one for
// a name both define. tmpl.PathMapping in turn takes precedence over
// tmpl.Partials, and its first rule for a name wins.
func mergedPathMapping(cfg *Config, tmpl model.Template) loader.PathMapping {
	out := cfg.globalPathMapping()
	for name, src := range tmpl.Partials {
		out[name] = loader.Mapped{Inline: src.Inline, Path: src.Path}
	}
	seen := map[string]bool{}
	for _, rule := range tmpl.PathMapping {
		if seen[rule.Name] {
			continue
		}
		seen[rule.Name] = true
		out[rule.Name] = loader.Mapped{Inline: rule.Inline, Path: rule.Path}
	}
	return out
}

// packageName returns cfg's configured package name, deriving one from
// OutDir's base name if unset and that name is a valid Go identifier, or
// "mustatic" otherwise.
func (cfg *Config) packageName() string {
	if cfg.PackageName != "" {
		return cfg.PackageName
	}
	if cfg.OutDir != "" {
		if base := filepath.Base(cfg.OutDir); token.IsIdentifier(base) {
			return base
		}
	}
	return "mustatic"
}

// goTypeExpr returns the literal Go type expression for t and the import
// path that expression requires. A type with a package path is always
// qualified by the last element of that path, even when it is declared in
// the generated package itself; an unnamed or predeclared type is returned
// as t.String() with an empty import path.
func goTypeExpr(t reflect.Type) (expr string, importPath string) {
	if t.Kind() == reflect.Ptr {
		inner, path := goTypeExpr(t.Elem())
		return "*" + inner, path
	}
	if t.PkgPath() == "" {
		return t.String(), ""
	}
	name := t.Name()
	parts := splitPkgPath(t.PkgPath())
	pkg := parts[len(parts)-1]
	return pkg + "." + name, t.PkgPath()
}

func extraTypeExprs(ifaces []reflect.Type) []string {
	out := make([]string, 0, len(ifaces))
	for _, t := range ifaces {
		expr, _ := goTypeExpr(t)
		out = append(out, expr)
	}
	return out
}

func splitPkgPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	parts = append(parts, path[start:])
	return parts
}

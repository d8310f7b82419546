// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/open2b/mustatic/driver"
	"github.com/open2b/mustatic/model"
	"github.com/open2b/mustatic/watch"

	// Blank-imported so model.DefaultCatalog() has registrations to
	// compile out of the box; a host program instead blank-imports its
	// own model-registration package from its own small generator command,
	// the same two-phase "register, then compile" shape this tool
	// demonstrates (see examples/blog.go's doc comment).
	_ "github.com/open2b/mustatic/examples"
)

// loadConfig parses -config (default "mustatic.yaml" if present, an empty
// Config otherwise) and applies any CLI flag overrides, matching
// cmd/scriggo's own style of CLI flags layered on top of a parsed file.
func loadConfig(fs *flag.FlagSet) *driver.Config {
	configPath := fs.String("config", "mustatic.yaml", "path to the mustatic.yaml configuration file")
	outDir := fs.String("out", "", "override Config.OutDir")
	pkg := fs.String("package", "", "override Config.PackageName")
	fs.Parse(os.Args[1:])

	cfg, err := driver.LoadConfig(*configPath)
	if err != nil {
		if os.IsNotExist(underlyingErr(err)) {
			cfg = &driver.Config{}
		} else {
			exitError("%v", err)
			return nil
		}
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if *pkg != "" {
		cfg.PackageName = *pkg
	}
	cfg.Logger = log.New(os.Stderr, "", 0)
	return cfg
}

// underlyingErr unwraps driver.LoadConfig's "driver: reading %s: %w"
// wrapping so os.IsNotExist can see the original *os.PathError.
func underlyingErr(err error) error {
	type unwrapper interface{ Unwrap() error }
	for {
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}
		err = u.Unwrap()
	}
}

func runGenerate() {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	cfg := loadConfig(fs)
	diags, err := driver.Compile(model.DefaultCatalog(), cfg)
	if err != nil {
		exitError("%v", err)
		return
	}
	if diags.HasErrors() {
		exit(1)
	}
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfg := loadConfig(fs)

	compile := func() {
		diags, err := driver.Compile(model.DefaultCatalog(), cfg)
		if err != nil {
			cfg.Logger.Printf("error: %v", err)
			return
		}
		if diags.HasErrors() {
			cfg.Logger.Print("generate finished with errors")
		}
	}
	compile()

	dir := cfg.TemplateDir
	if dir == "" {
		dir = "."
	}
	stop, err := watch.Watch(dir, compile, func(err error) {
		cfg.Logger.Printf("watch error: %v", err)
	})
	if err != nil {
		exitError("%v", err)
		return
	}
	defer stop()

	cfg.Logger.Printf("watching %s for changes, press Ctrl+C to stop", dir)
	select {}
}

func runVersion() {
	path, err := driver.ModulePath(".")
	if err != nil {
		fmt.Println("mustaticgen (module path unknown: " + err.Error() + ")")
		return
	}
	fmt.Println("mustaticgen, generating code for module", path)
}

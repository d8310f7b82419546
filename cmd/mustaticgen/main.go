// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
)

func main() {
	mustaticgen(os.Args...)
}

// TestEnvironment is true when testing mustaticgen, false otherwise.
var TestEnvironment = false

// exit causes the current program to exit with the given status code. If
// running in a test environment, every exit call is a no-op.
func exit(status int) {
	if !TestEnvironment {
		os.Exit(status)
	}
}

// stderr prints lines on stderr.
func stderr(lines ...string) {
	for _, l := range lines {
		fmt.Fprint(os.Stderr, l+"\n")
	}
}

// exitError prints msg on stderr and exits with status code 1.
func exitError(format string, a ...interface{}) {
	stderr(fmt.Sprintf(format, a...), `exit status 1`)
	exit(1)
}

// mustaticgen runs command "mustaticgen" with the given args. The first
// argument must be the executable name, matching cmd/scriggo's own
// main(os.Args...) convention.
func mustaticgen(args ...string) {
	if len(args) == 1 {
		usage()
		exit(0)
		return
	}

	cmdArg := args[1]
	os.Args = append(args[:1], args[2:]...)

	cmd, ok := commands[cmdArg]
	if !ok {
		stderr(
			fmt.Sprintf("mustaticgen %s: unknown command", cmdArg),
			`Run 'mustaticgen help' for usage.`,
		)
		exit(1)
		return
	}
	cmd()
}

func usage() {
	stderr(
		`mustaticgen compiles registered Mustache templates into Go Renderer types`,
		``,
		`Usage:`,
		``,
		`	mustaticgen <command> [arguments]`,
		``,
		`The commands are:`,
		``,
		`	generate    compile every registered model once`,
		`	watch       recompile whenever a template or model source changes`,
		`	version     print the module path mustaticgen is generating for`,
		``,
		`Use "mustaticgen help <command>" for more information about a command.`,
	)
}

// commands maps a command name to a function that executes it.
var commands = map[string]func(){
	"generate": runGenerate,
	"watch":    runWatch,
	"version":  runVersion,
	"help": func() {
		if len(os.Args) == 1 {
			usage()
			exit(0)
			return
		}
		switch os.Args[1] {
		case "generate":
			stderr(
				`usage: mustaticgen generate [-config mustatic.yaml]`,
				`Generate compiles every model registered against model.DefaultCatalog`,
				`once, writing one "<Model>_mustatic.go" file per model.`,
			)
		case "watch":
			stderr(
				`usage: mustaticgen watch [-config mustatic.yaml]`,
				`Watch runs generate once, then recompiles whenever a ".mustache" or`,
				`".go" file under the configured template directory or working`,
				`directory changes.`,
			)
		default:
			stderr(fmt.Sprintf("mustaticgen help %s: unknown help topic. Run 'mustaticgen help'.", os.Args[1]))
			exit(1)
		}
	},
}

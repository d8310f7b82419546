// Copyright (c) 2019 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package watch is mustaticgen's dev-loop plumbing: it wraps
// github.com/fsnotify/fsnotify to recompile whenever a watched directory
// tree changes. Grounded on cmd/scriggo/serve.go's newTemplateFS, which
// wires the same library for its dev server's reload-on-write behavior
// (read in place under _examples/, not copied: that code watches files
// lazily as they are opened through an fs.FS, where watch.Watch here
// watches whole directory trees upfront for a batch recompile loop).
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is how long Watch waits after the last filesystem event in a
// burst before invoking its callback, coalescing the flurry of Write/Create
// events a single save can produce (a text editor's atomic-rename save, or
// an IDE writing several files from one "save all").
const Debounce = 150 * time.Millisecond

// Watch watches dir and every subdirectory beneath it for changes to files
// named "*.mustache" or "*.go", calling cb (debounced by Debounce) after
// each burst of changes. It returns as soon as the directory tree is being
// watched; events are handled on a background goroutine until the returned
// stop function is called. An error creating the watcher or adding the
// initial tree is returned. Errors fsnotify reports afterwards, and errors
// adding a newly created subdirectory, are sent to onError (if non-nil)
// instead of ending the watch, mirroring newTemplateFS's separate Errors
// channel.
func Watch(dir string, cb func(), onError func(error)) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	if err := addRecursive(watcher, dir); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go loop(watcher, cb, onError, done)

	stop = func() {
		close(done)
		watcher.Close()
	}
	return stop, nil
}

func loop(watcher *fsnotify.Watcher, cb func(), onError func(error), done chan struct{}) {
	var timer *time.Timer
	for {
		select {
		case <-done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() && event.Op&fsnotify.Create != 0 {
				if err := addRecursive(watcher, event.Name); err != nil && onError != nil {
					onError(err)
				}
			}
			if timer == nil {
				timer = time.AfterFunc(Debounce, cb)
			} else {
				timer.Reset(Debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

// relevant reports whether event touches a path watch.Watch cares about: a
// write, create, rename or remove of a ".mustache" or ".go" file, or of a
// path with no extension at all (which covers most directories, so newly
// created subdirectories get picked up).
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	switch ext := filepath.Ext(event.Name); ext {
	case ".mustache", ".go", "":
		return true
	}
	return false
}

// addRecursive adds dir and every subdirectory beneath it to watcher.
// fsnotify watches a single directory non-recursively, so a tree with
// nested partials/layouts needs one Add call per directory, the same
// approach cmd/scriggo/serve.go's newTemplateFS takes per-file instead of
// per-directory.
func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch: %s: %w", path, err)
		}
		return nil
	})
}

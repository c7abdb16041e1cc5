package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sambeau/kvazz/config"
)

// Watcher reruns a script when it, or one of the configured include paths,
// changes on disk
type Watcher struct {
	watcher  *fsnotify.Watcher
	script   string
	include  []string
	debounce time.Duration
	run      func()
	stdout   io.Writer
	stderr   io.Writer

	mu   sync.Mutex
	runs int
}

// NewWatcher creates a watcher for script. run is called after each burst
// of changes has been quiet for the configured debounce.
func NewWatcher(script string, cfg config.WatchConfig, stdout, stderr io.Writer, run func()) (*Watcher, error) {
	abs, err := filepath.Abs(script)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", script, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  fsWatcher,
		script:   abs,
		include:  cfg.Include,
		debounce: cfg.Debounce,
		run:      run,
		stdout:   stdout,
		stderr:   stderr,
	}, nil
}

// Start begins watching. Events are handled on a separate goroutine until
// ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	// Editors often replace files on save, so watch the directory rather
	// than the file itself
	scriptDir := filepath.Dir(w.script)
	if err := w.watcher.Add(scriptDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", scriptDir, err)
	}
	w.logInfo("watching %s", w.script)

	for _, path := range w.include {
		if err := w.watchPath(path); err != nil {
			w.logError("failed to watch %s: %v", path, err)
		} else {
			w.logInfo("watching %s", path)
		}
	}

	go w.eventLoop(ctx)
	return nil
}

// Close stops the underlying fsnotify watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Runs returns how many times the script has been rerun
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// watchPath adds a file's directory, or a directory and its subdirectories
func (w *Watcher) watchPath(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.watcher.Add(filepath.Dir(root))
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			// Skip hidden directories
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

// relevant reports whether a change to path should rerun the script
func (w *Watcher) relevant(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if abs == w.script {
		return true
	}
	for _, inc := range w.include {
		if abs == inc {
			return true
		}
		rel, err := filepath.Rel(inc, abs)
		if err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

// eventLoop processes file system events
func (w *Watcher) eventLoop(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time
	changed := ""

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only handle write and create events
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}

			// Restart the quiet period on every change
			changed = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logInfo("changed: %s", changed)
			w.mu.Lock()
			w.runs++
			w.mu.Unlock()
			w.run()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logError("watcher error: %v", err)
		}
	}
}

func (w *Watcher) logInfo(format string, args ...interface{}) {
	fmt.Fprintf(w.stdout, "[WATCH] "+format+"\n", args...)
}

func (w *Watcher) logError(format string, args ...interface{}) {
	fmt.Fprintf(w.stderr, "[WATCH ERROR] "+format+"\n", args...)
}

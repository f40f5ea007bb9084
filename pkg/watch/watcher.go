// Package watch reports batches of changed source files under a root.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	deierrors "github.com/panbanda/dei/pkg/errors"
)

// DefaultDebounce is how long the tree must be quiet before a batch fires.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors a directory tree and reports changed files in batches.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	root       string
	debounce   time.Duration
	ignoreDirs map[string]struct{}
	filter     func(path string) bool
	logger     *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnoreDirs skips directories whose base name is listed.
func WithIgnoreDirs(dirs []string) Option {
	return func(w *Watcher) {
		for _, d := range dirs {
			w.ignoreDirs[d] = struct{}{}
		}
	}
}

// WithFilter reports only files for which keep returns true.
func WithFilter(keep func(path string) bool) Option {
	return func(w *Watcher) {
		w.filter = keep
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher for the directory at root.
func New(root string, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, deierrors.PathNotFound(root)
		}
		return nil, deierrors.IO(root, err)
	}
	if !info.IsDir() {
		return nil, deierrors.Config("watch needs a directory, %s is a file", root)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, deierrors.IO(root, err)
	}

	w := &Watcher{
		fsWatcher:  fsWatcher,
		root:       root,
		debounce:   DefaultDebounce,
		ignoreDirs: make(map[string]struct{}),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is done, calling onChange with the sorted paths
// that changed once the tree has been quiet for the debounce period.
// onChange runs on the watching goroutine; events arriving meanwhile are
// batched for the next call.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.logger.Debug("watching", "root", w.root, "dirs", len(w.fsWatcher.WatchList()))

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			slices.Sort(changed)
			clear(pending)
			onChange(changed)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// relevant reports whether event touches a file worth re-analyzing. New
// directories are added to the watch as a side effect.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if w.ignored(event.Name) {
		return false
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watching new directory", "path", event.Name, "error", err)
			}
			return false
		}
	}

	return w.filter == nil || w.filter(event.Name)
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if _, ok := w.ignoreDirs[part]; ok {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root {
			if _, ok := w.ignoreDirs[d.Name()]; ok {
				return filepath.SkipDir
			}
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return deierrors.IO(path, err)
		}
		return nil
	})
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

// Watched returns the watched directories.
func (w *Watcher) Watched() []string {
	return w.fsWatcher.WatchList()
}

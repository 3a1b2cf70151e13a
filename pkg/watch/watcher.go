// Package watch reports batches of changed project files so an analysis can
// be rerun from scratch.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/Danoha/lexemite/internal/scanner"
	"github.com/Danoha/lexemite/pkg/config"
)

// DefaultDebounce is used when NewWatcher gets a non-positive debounce.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors the files selected by a files config.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	matcher   *scanner.Matcher
	dot       bool
	root      string
	debounce  time.Duration
	callback  func(changed []string)
	logger    *log.Logger
	mu        sync.Mutex
	pending   map[string]time.Time
}

// NewWatcher creates a watcher for the files below root that files selects.
func NewWatcher(root string, files config.FilesConfig, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	matcher, err := scanner.NewMatcher(files.Include, files.Exclude)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		matcher:   matcher,
		dot:       files.Dot,
		root:      root,
		debounce:  debounce,
		logger:    logger,
		pending:   make(map[string]time.Time),
	}, nil
}

// OnChange sets the function called with the sorted relative paths of the
// files that changed. Calls never overlap.
func (w *Watcher) OnChange(cb func(changed []string)) {
	w.callback = cb
}

// Start watches until ctx is done or the watcher is stopped.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch", "err", err)
		}
	}
}

// addTree watches dir and every directory below it that is not pruned.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.skipDir(w.rel(path)) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) skipDir(rel string) bool {
	if !w.dot && strings.HasPrefix(filepath.Base(rel), ".") {
		return true
	}
	return w.matcher.Prunes(rel)
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// handleEvent records a change of a selected file. New directories are
// watched as they appear.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel := w.rel(event.Name)
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipDir(rel) {
				if err := w.addTree(event.Name); err != nil {
					w.logger.Warn("watch directory", "path", rel, "err", err)
				}
			}
			return
		}
	}

	if !w.matcher.Match(rel) {
		return
	}

	w.mu.Lock()
	w.pending[rel] = time.Now()
	w.mu.Unlock()
}

// processDebounced flushes pending changes until ctx is done.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending hands the files that have been stable for the debounce
// period to the callback as one batch.
func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, lastMod := range w.pending {
		if now.Sub(lastMod) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	if len(ready) == 0 || w.callback == nil {
		return
	}
	slices.Sort(ready)
	w.callback(ready)
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the watched directories.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}

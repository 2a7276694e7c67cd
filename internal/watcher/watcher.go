// Package watcher re-imports a symbol export whenever the file changes on disk.
//
// The parent directory is watched rather than the file itself so that exports
// replaced by rename (write to temp, then move) are still picked up.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the file must stay quiet before a re-import
const DefaultDebounce = 500 * time.Millisecond

// ErrRelativePath is returned when the watched export path is not absolute
var ErrRelativePath = errors.New("export path must be absolute")

// ReimportFunc loads the export at path
type ReimportFunc func(ctx context.Context, path string) error

// Watcher triggers a debounced ReimportFunc on changes to one export file
type Watcher struct {
	path     string
	debounce time.Duration
	reimport ReimportFunc
	fsw      *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher for the export at path
func New(path string, debounce time.Duration, fn ReimportFunc) (*Watcher, error) {
	if !filepath.IsAbs(path) {
		return nil, ErrRelativePath
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	path = filepath.Clean(path)
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	return &Watcher{
		path:     path,
		debounce: debounce,
		reimport: fn,
		fsw:      fsw,
	}, nil
}

// Run handles file system events until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("Export watcher error: %v", err)
		}
	}
}

// handleEvent schedules a re-import, resetting any pending one
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		log.Printf("Export %s changed, re-importing", w.path)
		if err := w.reimport(ctx, w.path); err != nil {
			log.Printf("Re-import of %s failed: %v", w.path, err)
		}
	})
}

// Close stops watching; safe to call after Run has returned
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.fsw.Close()
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// internal/watch/watch.go

// Package watch reports changes to a fixed set of files, debounced per file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Handler is called with the path of a file that changed. Errors are logged.
type Handler func(ctx context.Context, path string) error

// Watcher watches the directories holding its files so that editors replacing a file
// by rename are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	paths    map[string]bool
	debounce time.Duration
	handler  Handler
}

// New watches paths and calls handler once a file has been quiet for debounce.
func New(paths []string, debounce time.Duration, handler Handler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:  fw,
		paths:    make(map[string]bool, len(paths)),
		debounce: debounce,
		handler:  handler,
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		log.Debug().Str("dir", dir).Msg("Watching directory")
	}
	return w, nil
}

// Run delivers changes until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	pending := make(map[string]time.Time)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if !w.paths[path] || !event.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
				continue
			}
			log.Debug().Str("path", path).Str("op", event.Op.String()).Msg("File event")
			pending[path] = time.Now().Add(w.debounce)
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")

		case <-timer.C:
			now := time.Now()
			var next time.Duration
			for path, due := range pending {
				if wait := due.Sub(now); wait > 0 {
					if next == 0 || wait < next {
						next = wait
					}
					continue
				}
				delete(pending, path)
				if err := w.handler(ctx, path); err != nil {
					log.Error().Err(err).Str("path", path).Msg("Reload failed")
				}
			}
			if next > 0 {
				timer.Reset(next)
			}
		}
	}
}

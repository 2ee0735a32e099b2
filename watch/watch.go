// Package watch keeps a memstore.Store in sync with a names file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ridge/multisearch/memstore"
	"github.com/ridge/multisearch/people"
	"github.com/ridge/multisearch/tlog"
	"go.uber.org/zap"
)

// Config is the configuration of Run
type Config struct {
	Path    string // names file
	Age     int    // age given to all loaded persons
	Backoff BackoffConfig

	// OnReload is called (optionally) after every successful load with a
	// snapshot of the new content
	OnReload func(ctx context.Context, snapshot *memstore.Snapshot[people.Person])
}

// Run loads the names file into the store, then reloads it every time the
// file is written or re-created, until the context is closed.
//
// Each reload replaces the content of the store atomically. If the file
// cannot be loaded (e.g. it is being written or is malformed), the previous
// content stays, and loading is retried with exponential backoff.
//
// Returns the context error when the context is closed, or an error if the
// file cannot be watched.
func Run(ctx context.Context, config Config, store *memstore.Store[people.Person]) error {
	path := filepath.Clean(config.Path)
	ctx = tlog.With(ctx, zap.String("file", path))
	logger := tlog.Get(ctx)

	// Watch the directory rather than the file: editors and atomic writers
	// replace the file, which would end a watch on it.
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	if err := reload(ctx, config, store); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-w.Errors:
			return fmt.Errorf("failed to watch %s: %w", path, err)
		case event := <-w.Events:
			if filepath.Clean(event.Name) != path {
				continue
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				drain(w, path)
				if err := reload(ctx, config, store); err != nil {
					return err
				}
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				logger.Warn("File is gone, keeping the last loaded content")
			}
		}
	}
}

// drain skips the events for the file that are already queued, so that a
// burst of writes causes a single reload
func drain(w *fsnotify.Watcher, path string) {
	for {
		select {
		case event := <-w.Events:
			if filepath.Clean(event.Name) != path {
				continue
			}
		default:
			return
		}
	}
}

func reload(ctx context.Context, config Config, store *memstore.Store[people.Person]) error {
	logger := tlog.Get(ctx)
	b := newBackoff(config.Backoff)
	for {
		started := time.Now()
		persons, err := people.LoadFile(ctx, config.Path, config.Age)
		if err == nil {
			if err := store.Replace(persons...); err != nil {
				return err
			}
			logger.Info("Reloaded", zap.Int("count", len(persons)), zap.Duration("duration", time.Since(started)))
			if config.OnReload != nil {
				config.OnReload(ctx, store.Snapshot())
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := b.next()
		logger.Warn("Failed to load, will retry", zap.Error(err), zap.Duration("delay", delay))
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

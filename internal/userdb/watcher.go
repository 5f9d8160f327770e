package userdb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"matbot/internal/logging"
)

// Watcher monitors the database file for external edits and reloads
// the store when the content actually changed. Writes made by the
// store itself are recognized by content hash and skipped.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	store     *Store
	onReload  func()
	logger    *logging.Logger
}

// NewWatcher creates a watcher for the store's database file. onReload,
// if non-nil, runs after each successful reload.
func NewWatcher(store *Store, onReload func(), logger *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.WithContext("error", err.Error()).Error("failed to create fsnotify watcher")
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		store:     store,
		onReload:  onReload,
		logger:    logger,
	}, nil
}

// Start watches the directory containing the database file and runs
// the event loop until ctx is cancelled. Watching the directory rather
// than the file survives the rename-over-save pattern editors use.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.store.Path())
	if err := w.fsWatcher.Add(dir); err != nil {
		w.logger.WithFields(map[string]interface{}{
			"dir":   dir,
			"error": err.Error(),
		}).Error("failed to watch database directory")
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go w.eventLoop(ctx)

	w.logger.WithContext("path", w.store.Path()).Debug("user database watcher started")
	return nil
}

// eventLoop processes filesystem events
func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.fsWatcher.Close()
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.WithContext("error", err.Error()).Error("watcher error")
		}
	}
}

// handleEvent reloads on write/create/rename events touching the
// database file
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.store.Path()) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.logger.WithFields(map[string]interface{}{
		"file_path":  event.Name,
		"event_type": event.Op.String(),
	}).Debug("database file changed")

	changed, err := w.store.Reload()
	if err != nil {
		w.logger.WithContext("error", err.Error()).Warn("reload after external change failed")
		return
	}
	if changed && w.onReload != nil {
		w.onReload()
	}
}

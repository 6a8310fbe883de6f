package task

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"veestributes/logger"
)

// Watcher observes a drop directory and reports finished writes to a
// handler. It lets operators bulk-ingest audio by copying files into
// the upload directory instead of going through the HTTP API.
type Watcher struct {
	dir     string
	handler func(path string)
}

// NewWatcher builds a watcher for dir. handler is called with the
// absolute path of every newly written file.
func NewWatcher(dir string, handler func(path string)) *Watcher {
	return &Watcher{dir: dir, handler: handler}
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	logger.Info("Watching upload directory", logger.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("Filesystem watcher error", logger.ErrorField(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// A single copy can fire Create plus several Writes; the handler
	// must be idempotent per path.
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
		return
	}
	logger.Debug("Upload directory event",
		logger.String("op", event.Op.String()),
		logger.String("path", event.Name))
	w.handler(event.Name)
}

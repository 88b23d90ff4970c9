// Package watch ingests files dropped into a watched folder, mirroring
// drag-and-drop into the browser.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/datascope/backend/internal/models"
	"github.com/datascope/backend/internal/parser"
	"github.com/datascope/backend/internal/storage"
)

// settleDelay is how long a file must stay quiet after its last write
// before it is ingested, so partially copied files are not picked up.
const settleDelay = 500 * time.Millisecond

// IngestFunc is called after a dropped file lands in storage.
type IngestFunc func(info *models.FileInfo)

// Watcher monitors a drop folder and copies new data files into storage.
type Watcher struct {
	watcher  *fsnotify.Watcher
	store    storage.Store
	logger   *zap.Logger
	onIngest IngestFunc

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over the given store.
func New(store storage.Store, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher: fw,
		store:   store,
		logger:  logger,
		pending: make(map[string]*time.Timer),
	}, nil
}

// SetIngestHandler installs the post-ingest notification hook.
func (w *Watcher) SetIngestHandler(fn IngestFunc) {
	w.onIngest = fn
}

// Watch starts monitoring dir until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !parser.IsSupportedExtension(event.Name) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				w.schedule(event.Name)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

// schedule (re)arms the settle timer for a path. Each event replaces the
// pending timer rather than resetting it: a reset can race with a timer that
// already fired, running the callback twice and ingesting the file twice.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		if w.pending[path] != timer {
			// A newer event superseded this timer; its callback ingests.
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingest(path)
	})
	w.pending[path] = timer
}

func (w *Watcher) ingest(path string) {
	f, err := os.Open(path)
	if err != nil {
		w.logger.Warn("cannot open dropped file", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()

	info, err := w.store.Save(filepath.Base(path), f)
	if err != nil {
		w.logger.Error("failed to ingest dropped file", zap.String("path", path), zap.Error(err))
		return
	}

	w.logger.Info("ingested dropped file",
		zap.String("file", info.Name), zap.Int64("size", info.Size))

	if w.onIngest != nil {
		w.onIngest(info)
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

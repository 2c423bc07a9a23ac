package ruleset

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the rule table into a Store whenever its file changes.
// A table that fails to load or has overlapping lists is rejected and the
// previous engine stays active.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	store    *Store
	logger   *zap.Logger
	debounce time.Duration
	onReload func(error)
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewWatcher creates a watcher for the rule table at path.
func NewWatcher(path string, store *Store, logger *zap.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  watcher,
		path:     filepath.Clean(path),
		store:    store,
		logger:   logger,
		debounce: 200 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// OnReload registers a callback invoked after every reload attempt with its
// outcome. It must be set before Start.
func (w *Watcher) OnReload(fn func(error)) {
	w.onReload = fn
}

// Start watches the directory holding the rule table so that replaced files
// are seen as well as rewritten ones.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.running = true

	w.logger.Info("Watching rule table", zap.String("path", w.path))
	go w.run(ctx)
	return nil
}

// Stop ends the watch and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("Failed to close rule table watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Rule table watcher error", zap.Error(err))

		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	engine, err := LoadEngine(w.path)
	if err != nil {
		w.logger.Error("Rejected rule table change, keeping previous rules",
			zap.String("path", w.path),
			zap.Error(err),
		)
	} else {
		w.store.Replace(engine)
		report := engine.CheckTable()
		w.logger.Info("Reloaded rule table",
			zap.String("path", w.path),
			zap.Int("problems", len(report.Problems)),
		)
		for _, p := range report.Problems {
			w.logger.Warn("Rule table problem",
				zap.String("tier", string(p.Tier)),
				zap.String("field_id", p.FieldID),
				zap.String("kind", p.Kind),
			)
		}
	}

	if w.onReload != nil {
		w.onReload(err)
	}
}

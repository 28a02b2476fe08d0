package kb

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"pakar/internal/engine"
)

// ReloadFunc receives the result of re-parsing the rule file after a
// change: the fresh rule set on success, or the parse error.
type ReloadFunc func(rs *engine.RuleSet, meta Metadata, err error)

// Watcher monitors a rule file and re-validates it after every settled
// change. Editors save in bursts, so events are debounced before the
// file is re-read.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	onReload    ReloadFunc
	logger      *zap.Logger
	debounceDur time.Duration
	pending     map[string]time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity.
type WatcherStats struct {
	Changes   int
	Reloads   int
	Failures  int
	LastEvent time.Time
}

// NewWatcher creates a watcher for the rule file at path. The logger is
// caller-owned; pass nil for silent operation.
func NewWatcher(path string, onReload ReloadFunc, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:     fsw,
		path:        path,
		onReload:    onReload,
		logger:      logger,
		debounceDur: 500 * time.Millisecond,
		pending:     make(map[string]time.Time),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. The directory is watched rather than the file
// itself so rename-style saves keep working. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.logger.Info("watching rule file", zap.String("path", w.path))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("closing watcher", zap.Error(err))
	}
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

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
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-ticker.C:
			w.processSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("rule file changed", zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.stats.Changes++
	w.stats.LastEvent = time.Now()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// processSettled reloads the file once the debounce window has elapsed
// since its last event.
func (w *Watcher) processSettled() {
	w.mu.Lock()
	now := time.Now()
	var due []string
	for name, last := range w.pending {
		if now.Sub(last) >= w.debounceDur {
			due = append(due, name)
		}
	}
	for _, name := range due {
		delete(w.pending, name)
	}
	w.mu.Unlock()

	for range due {
		rs, meta, err := Load(w.path)

		w.mu.Lock()
		if err != nil {
			w.stats.Failures++
		} else {
			w.stats.Reloads++
		}
		w.mu.Unlock()

		if err != nil {
			w.logger.Warn("rule file failed validation", zap.Error(err))
		} else {
			w.logger.Info("rule file reloaded", zap.Int("rules", rs.Len()))
		}
		if w.onReload != nil {
			w.onReload(rs, meta, err)
		}
	}
}

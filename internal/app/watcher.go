package app

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultDebounce     = 200 * time.Millisecond
	defaultPollInterval = 10 * time.Second
)

// Reloader is implemented by DocumentStore.
type Reloader interface {
	Reload() (bool, error)
}

// FileWatcher reloads the document when the data file changes on disk,
// e.g. when another process or an editor rewrites it.
type FileWatcher struct {
	path         string
	target       Reloader
	logger       *log.Logger
	debounce     time.Duration
	pollInterval time.Duration

	mu            sync.Mutex
	debounceTimer *time.Timer
	watcher       *fsnotify.Watcher
	reloadMu      sync.Mutex // serializes reloads from the debounce timer and the poll loop
	stopOnce      sync.Once
	stopCh        chan struct{}
	doneCh        chan struct{}
}

// WatcherOption configures the file watcher.
type WatcherOption func(*FileWatcher)

// WithDebounce sets how long to wait after the last file event before reloading (default 200ms).
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *FileWatcher) {
		w.debounce = d
	}
}

// WithWatchPollInterval sets the fallback poll interval (default 10s).
func WithWatchPollInterval(d time.Duration) WatcherOption {
	return func(w *FileWatcher) {
		w.pollInterval = d
	}
}

// NewFileWatcher creates a watcher for the data file at path.
func NewFileWatcher(path string, target Reloader, logger *log.Logger, opts ...WatcherOption) *FileWatcher {
	w := &FileWatcher{
		path:         path,
		target:       target,
		logger:       logger,
		debounce:     defaultDebounce,
		pollInterval: defaultPollInterval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Start watches the data file's directory and polls as a fallback. Returns when
// ctx is cancelled or Stop is called. If fsnotify cannot be set up, only polling runs.
func (w *FileWatcher) Start(ctx context.Context) {
	defer close(w.doneCh)

	dir := filepath.Dir(w.path)
	name := filepath.Base(w.path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logf("Watcher: fsnotify init failed (%v), using poll-only", err)
	} else if err := watcher.Add(dir); err != nil {
		w.logf("Watcher: fsnotify add %s failed (%v), using poll-only", dir, err)
		_ = watcher.Close()
	} else {
		w.watcher = watcher
		defer w.watcher.Close()
		go w.watchLoop(ctx, name)
	}

	w.pollLoop(ctx)
}

// Stop signals the watcher to stop and waits for Start to return.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()
}

// CheckOnce runs one reload cycle.
func (w *FileWatcher) CheckOnce() {
	w.reload()
}

func (w *FileWatcher) watchLoop(ctx context.Context, name string) {
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
			if filepath.Base(event.Name) != name {
				continue
			}
			// Atomic writers land as Create (rename over the target).
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.triggerDebounced()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logf("Watcher: %v", err)
		}
	}
}

func (w *FileWatcher) triggerDebounced() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, w.reload)
}

func (w *FileWatcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.reload()
		}
	}
}

func (w *FileWatcher) reload() {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	changed, err := w.target.Reload()
	if err != nil {
		w.logf("Watcher: %v (keeping current whiteboard)", err)
		return
	}
	if changed {
		w.logf("Reloaded whiteboard data from %s", w.path)
	}
}

func (w *FileWatcher) logf(format string, args ...any) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}

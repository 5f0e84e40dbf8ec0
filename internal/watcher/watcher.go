// Package watcher re-runs work when input files change, using fsnotify with debouncing.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches a set of files and invokes a callback after each one changes.
// The parent directory of every file is watched, so files that editors replace
// through a rename are still picked up.
type Watcher struct {
	files       map[string]bool
	onChange    func(path string)
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger // optional; when set, logs debug events
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output (file events, debounced runs).
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a file must stay quiet before onChange fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher for files. onChange is called with the cleaned
// absolute path of a file once writes to it have settled.
func NewWatcher(files []string, onChange func(path string), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		files:       make(map[string]bool, len(files)),
		onChange:    onChange,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		w.files[filepath.Clean(abs)] = true
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dirs := make(map[string]bool)
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.watcher = fw
	w.started = true
	if w.logger != nil {
		w.logger.Debug("watcher starting", zap.Strings("files", w.Files()), zap.Duration("debounce", w.debounce))
	}
	go w.run(ctx, fw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !w.files[path] {
		return
	}
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		w.debounceChange(path)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.cancelDebounce(path)
	}
}

func (w *Watcher) debounceChange(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	t := time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		logger := w.logger
		w.mu.Unlock()
		if logger != nil {
			logger.Debug("watcher file changed (debounced)", zap.String("path", path))
		}
		if w.onChange != nil {
			w.onChange(path)
		}
	})
	w.debounceMap[path] = t
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// Files returns the watched file paths in sorted order.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Stop stops the watcher and releases resources. Pending callbacks are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/platinummonkey/plugkit/pkg/observability"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long the watcher waits for changes to settle
const DefaultDebounce = 200 * time.Millisecond

// ReloadFunc receives the summaries of a freshly loaded context, or the
// error of a failed reload
type ReloadFunc func(summaries []Summary, err error)

// Watcher keeps a Context loaded with the current content of an image path.
// On change it loads a fresh context and, once that succeeds, tears down the
// previous one. A failed reload keeps the previous context.
type Watcher struct {
	path       string
	newContext func() *Context
	onReload   ReloadFunc
	debounce   time.Duration
	logger     *logrus.Logger

	mu      sync.Mutex
	current *Context
}

// NewWatcher creates a watcher for the image at path. newContext is called
// for every reload.
func NewWatcher(path string, newContext func() *Context, onReload ReloadFunc, logger *logrus.Logger) *Watcher {
	if newContext == nil {
		newContext = func() *Context { return New(WithLogger(logger)) }
	}
	if onReload == nil {
		onReload = func([]Summary, error) {}
	}
	return &Watcher{
		path:       path,
		newContext: newContext,
		onReload:   onReload,
		debounce:   DefaultDebounce,
		logger:     observability.OrDefault(logger),
	}
}

// SetDebounce changes the settle delay. Call it before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Current returns the context currently loaded, or nil
func (w *Watcher) Current() *Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Healthy reports an error unless a context is loaded
func (w *Watcher) Healthy(context.Context) error {
	current := w.Current()
	if current == nil {
		return errors.New("no image loaded")
	}
	if state := current.State(); state != Loaded {
		return fmt.Errorf("context is %s", state)
	}
	return nil
}

// Reload loads a fresh context now
func (w *Watcher) Reload(ctx context.Context) error {
	next := w.newContext()

	if _, err := next.Load(ctx, w.path); err != nil {
		_ = next.Teardown()
		w.onReload(nil, err)
		return err
	}

	summaries, err := next.Summaries()
	if err != nil {
		_ = next.Teardown()
		w.onReload(nil, err)
		return err
	}

	w.mu.Lock()
	previous := w.current
	w.current = next
	w.mu.Unlock()

	if previous != nil {
		if err := previous.Teardown(); err != nil {
			w.logger.WithError(err).Warn("Failed to tear down previous context")
		}
	}

	w.onReload(summaries, nil)
	return nil
}

// Run loads the image, then reloads on every settled change until ctx is
// done. The last context is torn down on return. A failing initial load is
// reported to the callback and retried on the next change.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	target, filter, err := w.watchTarget()
	if err != nil {
		return err
	}
	if err := fsw.Add(target); err != nil {
		return fmt.Errorf("failed to watch %s: %w", target, err)
	}

	defer func() {
		w.mu.Lock()
		current := w.current
		w.current = nil
		w.mu.Unlock()
		if current != nil {
			_ = current.Teardown()
		}
	}()

	if err := w.Reload(ctx); err != nil {
		w.logger.WithError(err).Warn("Initial load failed, waiting for changes")
	}

	w.logger.Infof("Watching %s for changes", w.path)

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 || !filter(event.Name) {
				continue
			}
			w.logger.Debugf("Modified file: %s", event.Name)
			settle = time.After(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watcher error")

		case <-settle:
			settle = nil
			if err := w.Reload(ctx); err != nil {
				w.logger.WithError(err).Warn("Reload failed, keeping previous context")
				continue
			}
			w.logger.Infof("Reloaded %s", w.path)
		}
	}
}

// watchTarget returns what to hand to fsnotify, and which event names
// concern the image
func (w *Watcher) watchTarget() (string, func(string) bool, error) {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", nil, err
	}

	if info.IsDir() {
		return abs, func(name string) bool {
			base := filepath.Base(name)
			return base == ManifestFile || filepath.Ext(base) == ".go"
		}, nil
	}

	// archives are often replaced by rename, so watch the parent
	return filepath.Dir(abs), func(name string) bool {
		return filepath.Clean(name) == abs
	}, nil
}

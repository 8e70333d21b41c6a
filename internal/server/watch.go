package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fieldpress/pressroom/internal/logfields"
)

// debounceDelay coalesces editor save bursts into one rebuild.
const debounceDelay = 300 * time.Millisecond

// Watcher observes source directories and requests a rebuild after changes
// settle. Rebuilds run one at a time; changes arriving mid-build queue
// exactly one follow-up run.
type Watcher struct {
	fsw      *fsnotify.Watcher
	requests chan struct{}
	trigger  func()
}

// NewWatcher watches the given directories recursively. Directories created
// later under a watched root are picked up as they appear.
func NewWatcher(dirs ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := addDirsRecursive(fsw, dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	w := &Watcher{fsw: fsw, requests: make(chan struct{}, 1)}
	w.trigger = newDebouncer(debounceDelay, w.requests)
	return w, nil
}

// Run processes file events until ctx is canceled, invoking rebuild for
// every settled batch of changes.
func (w *Watcher) Run(ctx context.Context, rebuild func(context.Context)) error {
	go w.rebuildWorker(ctx, rebuild)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	// New directories join the watch set so files created inside them keep
	// triggering rebuilds.
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w.fsw, ev.Name)
		}
	}
	slog.Debug("File change detected",
		logfields.Path(ev.Name),
		slog.String("op", ev.Op.String()))
	w.trigger()
}

// rebuildWorker drains rebuild requests sequentially. A request arriving
// while a rebuild runs sets pending so exactly one more run follows.
func (w *Watcher) rebuildWorker(ctx context.Context, rebuild func(context.Context)) {
	var mu sync.Mutex
	running := false
	pending := false

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-w.requests:
			if !ok {
				return
			}
			mu.Lock()
			if running {
				pending = true
				mu.Unlock()
				continue
			}
			running = true
			mu.Unlock()

			slog.Info("Change detected, rebuilding site")
			rebuild(ctx)

			mu.Lock()
			running = false
			if pending {
				pending = false
				mu.Unlock()
				select {
				case w.requests <- struct{}{}:
				default:
				}
			} else {
				mu.Unlock()
			}
		}
	}
}

// newDebouncer returns a trigger that forwards to requests only after delay
// has passed without further triggers.
func newDebouncer(delay time.Duration, requests chan<- struct{}) func() {
	var mu sync.Mutex
	var timer *time.Timer

	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case requests <- struct{}{}:
			default:
			}
		})
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent filters events that must not trigger rebuilds: hidden
// files and directories (.git internals included), editor swap and backup
// files, OS metadata files.
func shouldIgnoreEvent(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}

	base := filepath.Base(path)
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) {
		return true
	}
	return base == "Thumbs.db"
}

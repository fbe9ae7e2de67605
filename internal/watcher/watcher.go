// Package watcher reports debounced batches of Python source changes
// under a scan root.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mvp-joe/big-brother/internal/walk"
)

// DefaultDebounce is the quiet period before a batch of changes is delivered.
const DefaultDebounce = 500 * time.Millisecond

// Batch is one debounced set of changes. Paths are slash-separated,
// relative to the watched root and sorted. A path appears in exactly one
// list, according to its last event.
type Batch struct {
	Changed []string
	Removed []string
}

// Len returns the number of paths in the batch.
func (b Batch) Len() int {
	return len(b.Changed) + len(b.Removed)
}

// Options configures a Watcher.
type Options struct {
	// Filter selects the paths that count as changes. Nil keeps every .py file.
	Filter *walk.Filter

	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	Logger *zap.Logger
}

// Watcher watches every directory under a root.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	filter   *walk.Filter
	debounce time.Duration
	log      *zap.Logger

	mu      sync.Mutex // guards pending, paused, timer, cancel
	pending map[string]bool
	paused  bool
	timer   *time.Timer
	cancel  context.CancelFunc

	onBatch  func(Batch)
	fire     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Watcher for root and every directory below it that the
// filter does not skip.
func New(root string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		root:     root,
		filter:   opts.Filter,
		debounce: DefaultDebounce,
		log:      opts.Logger,
		pending:  make(map[string]bool),
		fire:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if opts.Debounce > 0 {
		w.debounce = opts.Debounce
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	if w.filter == nil {
		w.filter, _ = walk.NewFilter(nil, nil)
	}

	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start delivers batches to onBatch from a background goroutine until
// ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context, onBatch func(Batch)) error {
	if onBatch == nil {
		return errors.New("watcher: nil batch callback")
	}

	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return errors.New("watcher: already started")
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.onBatch = onBatch
	w.mu.Unlock()

	go w.run(ctx)
	return nil
}

// Stop ends watching and releases the underlying watches. It is safe to
// call more than once, and before Start.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.mu.Lock()
		cancel := w.cancel
		w.stopTimerLocked()
		w.mu.Unlock()

		if cancel != nil {
			cancel()
			<-w.done
		}
		err = w.fsw.Close()
	})
	return err
}

// Pause holds batches back; changes keep accumulating.
func (w *Watcher) Pause() {
	w.mu.Lock()
	w.paused = true
	w.mu.Unlock()
}

// Resume releases held batches. Changes that accumulated while paused
// are delivered without waiting for another debounce period.
func (w *Watcher) Resume() {
	w.mu.Lock()
	w.paused = false
	hasPending := len(w.pending) > 0
	w.mu.Unlock()

	if hasPending {
		w.signal()
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.stopTimerLocked()
			w.mu.Unlock()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)

		case <-w.fire:
			w.flush()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", zap.Error(err))
		}
	}
}

// handle records one filesystem event. New directories are watched too.
func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.filter.SkipDir(info.Name()) {
				if err := w.addTree(event.Name); err != nil {
					w.log.Warn("failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
				}
			}
			return
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if !w.filter.Keep(rel) {
		return
	}

	w.mu.Lock()
	w.pending[rel] = event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
	w.stopTimerLocked()
	w.timer = time.AfterFunc(w.debounce, w.signal)
	w.mu.Unlock()
}

func (w *Watcher) signal() {
	select {
	case w.fire <- struct{}{}:
	default:
	}
}

// flush hands the pending changes to the callback unless paused.
func (w *Watcher) flush() {
	w.mu.Lock()
	if w.paused || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	var batch Batch
	for rel, removed := range w.pending {
		if removed {
			batch.Removed = append(batch.Removed, rel)
		} else {
			batch.Changed = append(batch.Changed, rel)
		}
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	sort.Strings(batch.Changed)
	sort.Strings(batch.Removed)
	w.log.Debug("changes detected", zap.Int("changed", len(batch.Changed)), zap.Int("removed", len(batch.Removed)))
	w.onBatch(batch)
}

func (w *Watcher) stopTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// addTree watches dir and every directory below it that is not skipped.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.log.Warn("error accessing path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.filter.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("failed to watch directory", zap.String("dir", path), zap.Error(err))
		}
		return nil
	})
}

// Package watch reports batches of changed unit documents under a set of
// directories. Events are debounced so an editor saving several files yields
// one batch.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"dotgate/internal/trace"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 150 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// Roots are watched recursively; hidden directories are skipped.
	Roots []string
	// Debounce is the quiet period before a batch is emitted.
	Debounce time.Duration
	// Match filters the reported paths; nil reports everything.
	Match func(path string) bool
}

// Batch lists the paths that changed during one quiet period, sorted.
type Batch struct {
	Paths []string
}

// Watcher wraps fsnotify with recursive registration and debouncing.
type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	batches chan Batch
}

// New registers every directory below cfg.Roots.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, errors.New("watch: no directories")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{cfg: cfg, fsw: fsw, batches: make(chan Batch, 4)}
	for _, root := range cfg.Roots {
		if err := w.addRecursive(root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Batches is closed when Run returns.
func (w *Watcher) Batches() <-chan Batch {
	return w.batches
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.batches)

	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handle(ev, pending) {
				continue
			}
			timer.Reset(w.cfg.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			trace.Mark(ctx, trace.ScopeDriver, "watch-error", err.Error())

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := Batch{Paths: make([]string, 0, len(pending))}
			for p := range pending {
				batch.Paths = append(batch.Paths, p)
			}
			sort.Strings(batch.Paths)
			clear(pending)
			select {
			case w.batches <- batch:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// handle records ev; it reports whether the debounce timer should restart.
func (w *Watcher) handle(ev fsnotify.Event, pending map[string]struct{}) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	// новый каталог: подписываемся на него и на всё внутри
	if ev.Has(fsnotify.Create) {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			if err := w.addRecursive(ev.Name); err == nil {
				pending[filepath.Clean(ev.Name)] = struct{}{}
				return true
			}
			return false
		}
	}
	if w.cfg.Match != nil && !w.cfg.Match(ev.Name) {
		return false
	}
	pending[filepath.Clean(ev.Name)] = struct{}{}
	return true
}

package annotations

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchSettle is how long a fixture must stay quiet before a change is
// reported. Editors save in several writes.
const watchSettle = 100 * time.Millisecond

// Watcher reports changed YAML files in a set of directories.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher starts watching dirs.
func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher. Events and Errors are closed once the run loop
// exits.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Errors)
	defer close(w.Events)

	settled := make(chan settledChange)
	changes := newDebouncer(watchSettle)
	defer changes.stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isFixtureFile(event.Name) {
				continue
			}
			changes.touch(event.Name, func(c settledChange) {
				select {
				case settled <- c:
				case <-w.closeCh:
				}
			})
		case c := <-settled:
			if !changes.settle(c) {
				continue
			}
			select {
			case w.Events <- c.name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// settledChange is a file that stayed quiet for the settle period after its
// gen-th change.
type settledChange struct {
	name string
	gen  uint64
}

type pendingChange struct {
	timer *time.Timer
	gen   uint64
}

// debouncer keeps one pending change per file. A timer that already fired
// for an older change cannot be stopped, so each change carries a generation
// and only the newest one is reported.
type debouncer struct {
	wait    time.Duration
	gen     uint64
	pending map[string]pendingChange
}

func newDebouncer(wait time.Duration) *debouncer {
	return &debouncer{wait: wait, pending: make(map[string]pendingChange)}
}

// touch restarts the quiet period of name. fire runs on the timer goroutine.
func (d *debouncer) touch(name string, fire func(settledChange)) {
	if p, ok := d.pending[name]; ok {
		p.timer.Stop()
	}
	d.gen++
	c := settledChange{name: name, gen: d.gen}
	d.pending[name] = pendingChange{
		timer: time.AfterFunc(d.wait, func() { fire(c) }),
		gen:   c.gen,
	}
}

// settle reports whether c is the newest change of its file and forgets it.
func (d *debouncer) settle(c settledChange) bool {
	p, ok := d.pending[c.name]
	if !ok || p.gen != c.gen {
		return false
	}
	delete(d.pending, c.name)
	return true
}

func (d *debouncer) stop() {
	for _, p := range d.pending {
		p.timer.Stop()
	}
}

func isFixtureFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Watch reloads the store whenever the fixture at path changes, until ctx is
// done. A fixture that fails to parse leaves the store unchanged.
func (s *Store) Watch(ctx context.Context, path string) error {
	path = filepath.Clean(path)
	w, err := NewWatcher(filepath.Dir(path))
	if err != nil {
		return err
	}
	defer w.Close()

	for {
		select {
		case name, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(name) != path {
				continue
			}
			if err := s.Reload(path); err != nil {
				s.log.Warn("fixture reload failed", zap.String("path", path), zap.Error(err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("fixture watch error", zap.Error(err))
		case <-ctx.Done():
			return nil
		}
	}
}

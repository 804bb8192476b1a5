// Package watch turns filesystem activity on TP program files into change
// triggers for the analysis pipeline.
package watch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed indicates the watcher has been closed.
var ErrWatcherClosed = errors.New("watcher closed")

// DefaultExtensions are the file extensions tracked when none are
// configured.
var DefaultExtensions = []string{".ls", ".tp"}

// Watcher reports write and create events for tracked program files.
// Events carry the affected file path. The event channel is buffered;
// events are dropped, not blocked on, when the consumer falls behind.
type Watcher struct {
	mu     sync.Mutex
	fsw    *fsnotify.Watcher
	exts   map[string]bool
	events chan string
	errs   chan error

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithExtensions replaces the tracked file extensions.
func WithExtensions(exts []string) WatcherOption {
	return func(w *Watcher) {
		if len(exts) == 0 {
			return
		}
		w.exts = make(map[string]bool, len(exts))
		for _, e := range exts {
			w.exts[strings.ToLower(e)] = true
		}
	}
}

// New creates a watcher. Call Add to start watching directories.
func New(opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		exts:    make(map[string]bool, len(DefaultExtensions)),
		events:  make(chan string, 64),
		errs:    make(chan error, 16),
		closeCh: make(chan struct{}),
	}
	for _, e := range DefaultExtensions {
		w.exts[e] = true
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Add watches a directory and all its subdirectories.
func (w *Watcher) Add(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	return filepath.WalkDir(abs, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries, keep walking
		}
		if !d.IsDir() {
			return nil
		}
		if base := filepath.Base(p); len(base) > 1 && base[0] == '.' {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// Events returns the channel of changed file paths.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher and closes both channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	close(w.events)
	close(w.errs)
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return
	}

	// New directories join the watch so files created inside them are seen.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.fsw.Add(ev.Name)
			return
		}
	}

	if !w.Tracks(ev.Name) {
		return
	}

	select {
	case w.events <- ev.Name:
	default:
		// Consumer behind; the debounce downstream makes drops harmless.
	}
}

// Tracks reports whether path has a tracked extension. Hidden files are
// never tracked.
func (w *Watcher) Tracks(path string) bool {
	base := filepath.Base(path)
	if len(base) > 0 && base[0] == '.' {
		return false
	}
	return w.exts[strings.ToLower(filepath.Ext(path))]
}

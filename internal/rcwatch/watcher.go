// Package rcwatch watches `.denrc` for changes and re-sources it on
// write (den registers only the rc file itself; files it sources are
// not watched), so editing your rc file in
// another terminal takes effect in a running den session without a
// restart. Grounded on toba-jig's issue-directory watcher (debounced
// fsnotify events, directory-level Add so editors that save via
// rename-and-replace are still seen) and the teacher's
// internal/infrastructure/signal reload pattern for the manual
// SIGHUP-triggered path (see internal/signalctl.ReloadController,
// which calls the same callback this package does).
package rcwatch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 150 * time.Millisecond

// Watcher watches a set of files and invokes onChange(path) (debounced
// per file) whenever one is created or written.
type Watcher struct {
	onChange func(path string)

	fsw *fsnotify.Watcher

	mu       sync.Mutex
	watching bool
	done     chan struct{}
	files    map[string]bool
	dirs     map[string]bool
	timers   map[string]*time.Timer
}

// New builds a Watcher that invokes onChange when a watched file
// changes. onChange must not be nil.
func New(onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		onChange: onChange,
		fsw:      fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Watch adds path to the watch set. path need not exist yet (an rc
// file created after the shell starts is picked up once its parent
// directory reports the create event). Safe to call repeatedly with
// new paths while the loop is running.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.files[abs] = true
	dir := filepath.Dir(abs)
	if !w.dirs[dir] {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	return nil
}

// Start begins the event loop in a background goroutine. Idempotent.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return
	}
	w.watching = true
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.loop()
}

// Close stops the event loop and releases the underlying fsnotify
// watcher. Safe to call multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.watching {
		close(w.done)
		w.watching = false
	}
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal: the rc file simply won't
			// live-reload until the next successful event.
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.files[event.Name] {
		return
	}
	if _, err := os.Stat(event.Name); err != nil {
		return
	}

	if t, ok := w.timers[event.Name]; ok {
		t.Stop()
	}
	path := event.Name
	w.timers[path] = time.AfterFunc(debounceDelay, func() {
		w.onChange(path)
	})
}

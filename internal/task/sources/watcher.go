package sources

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned when watching through a closed watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// Event reports a change to a watched template file. Removed is set when
// the file was deleted or renamed away; the caller should drop the file's
// templates from the inventory instead of reloading.
type Event struct {
	Path    string
	Removed bool
}

// Watcher monitors individual template files for changes so callers can
// reload them into the inventory. It watches the file's directory rather
// than the file itself, which keeps working across the rename-and-replace
// saves editors do.
type Watcher struct {
	fsw    *fsnotify.Watcher
	events chan Event
	errs   chan error

	mu      sync.Mutex
	watched map[string]bool
	dirRefs map[string]int
	closed  bool

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWatcher creates a watcher. Callers must Close it when done.
func NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		events:  make(chan Event, 16),
		errs:    make(chan error, 16),
		watched: make(map[string]bool),
		dirRefs: make(map[string]int),
	}
	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Watch adds a template file to the watch set. The file does not need to
// exist yet; its creation is reported as a change.
func (w *Watcher) Watch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.watched[absPath] {
		return nil
	}
	dir := filepath.Dir(absPath)
	if w.dirRefs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.watched[absPath] = true
	w.dirRefs[dir]++
	return nil
}

// Unwatch removes a template file from the watch set. The underlying
// directory watch is dropped once no watched file remains in it.
func (w *Watcher) Unwatch(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.watched[absPath] {
		return
	}
	delete(w.watched, absPath)

	dir := filepath.Dir(absPath)
	w.dirRefs[dir]--
	if w.dirRefs[dir] > 0 {
		return
	}
	delete(w.dirRefs, dir)
	if !w.closed {
		w.fsw.Remove(dir)
	}
}

// Events returns the channel of template file changes. It is closed when
// the watcher is closed.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch errors. It is closed when the
// watcher is closed.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher and closes its channels.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()

		err = w.fsw.Close()
		w.wg.Wait()
		close(w.events)
		close(w.errs)
	})
	return err
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.deliverErr(err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	tracked := w.watched[path]
	w.mu.Unlock()
	if !tracked {
		return
	}

	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.deliver(Event{Path: path, Removed: true})
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.deliver(Event{Path: path})
	}
}

// deliver drops events when the consumer lags rather than blocking the
// notification loop.
func (w *Watcher) deliver(ev Event) {
	select {
	case w.events <- ev:
	default:
	}
}

func (w *Watcher) deliverErr(err error) {
	select {
	case w.errs <- err:
	default:
	}
}

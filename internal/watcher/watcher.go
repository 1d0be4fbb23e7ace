// Package watcher notices on-disk edits of the files a running program was loaded from.
package watcher

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType represents the kind of file that changed.
type EventType int

// Event types for file changes.
const (
	EventProgramChanged EventType = iota // the program config file
	EventEnvFileChanged                  // the env_file it references
	EventIconChanged                     // a custom tray icon
)

func (t EventType) String() string {
	switch t {
	case EventProgramChanged:
		return "program"
	case EventEnvFileChanged:
		return "env_file"
	case EventIconChanged:
		return "icon"
	default:
		return "unknown"
	}
}

const debounceDelay = 100 * time.Millisecond

// Event represents a debounced change of a watched file.
type Event struct {
	Type EventType
	Path string
}

// Watcher watches individual files by watching their directories, so editors
// that save through a temporary file and rename are noticed as well.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	eventsChan chan Event
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	files      map[string]EventType // absolute path -> type
	dirs       map[string]bool
	debounce   map[string]*time.Timer
	debounceMu sync.Mutex
}

// New creates a new file watcher.
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:  fsWatcher,
		eventsChan: make(chan Event, 16),
		done:       make(chan struct{}),
		files:      make(map[string]EventType),
		dirs:       make(map[string]bool),
		debounce:   make(map[string]*time.Timer),
	}, nil
}

// Events returns the channel for receiving events.
func (w *Watcher) Events() <-chan Event {
	return w.eventsChan
}

// Start starts processing file system events.
func (w *Watcher) Start() {
	go w.processEvents()
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsWatcher.Close()
	})
}

// WatchFile reports changes of path as events of type t.
func (w *Watcher) WatchFile(path string, t EventType) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(abs)
	if !w.dirs[dir] {
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	w.files[abs] = t

	log.Printf("[watcher] Watching %s %s", t, abs)
	return nil
}

// processEvents processes file system events.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] error: %v", err)
		}
	}
}

// handleEvent filters a raw event down to the watched files.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Rename matters: atomic saves (write tmp, rename onto target) show up as
	// Create or Rename on the target path.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.mu.RLock()
	t, ok := w.files[event.Name]
	w.mu.RUnlock()
	if !ok {
		return
	}

	w.debounceEvent(event.Name, func() {
		log.Printf("[watcher] %s changed: %s", t, event.Name)
		select {
		case w.eventsChan <- Event{Type: t, Path: event.Name}:
		case <-w.done:
		}
	})
}

// debounceEvent collapses bursts of events for the same path.
func (w *Watcher) debounceEvent(path string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}

	w.debounce[path] = time.AfterFunc(debounceDelay, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		fn()
	})
}

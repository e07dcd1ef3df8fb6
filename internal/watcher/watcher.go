// Package watcher reports changes to the directories being browsed. Watches
// are not recursive: only directories that were listed are watched, matching
// how the visitor lists one level at a time.
package watcher

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/CageChen/fileexplorer/internal/config"
	"github.com/CageChen/fileexplorer/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of file system event
type EventType int

// File system event types.
const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "update"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event represents a change inside a watched directory. Dir is relative to
// the browsed root, using forward slashes.
type Event struct {
	Type EventType
	Dir  string
	Name string
}

// Callback is a function called when file changes occur
type Callback func(Event)

// Watcher monitors the directories listed under a root.
type Watcher struct {
	watcher   *fsnotify.Watcher
	cfg       *config.Config
	log       *logger.Logger
	callbacks []Callback
	watched   map[string]bool
	mu        sync.RWMutex
	done      chan struct{}
}

// New creates a new file system watcher
func New(cfg *config.Config, log *logger.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher: w,
		cfg:     cfg,
		log:     log,
		watched: make(map[string]bool),
		done:    make(chan struct{}),
	}, nil
}

// OnChange registers a callback for file change events
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins delivering events.
func (w *Watcher) Start() {
	go w.eventLoop()
}

// Watch adds the directory at the root-relative path dir. Watching the same
// directory twice is a no-op.
func (w *Watcher) Watch(dir string) error {
	abs := filepath.Join(w.cfg.Root, filepath.FromSlash(dir))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[abs] {
		return nil
	}
	if err := w.watcher.Add(abs); err != nil {
		return err
	}
	w.watched[abs] = true
	w.log.Debugf("Watching %s", abs)
	return nil
}

// Watched reports how many directories are being watched.
func (w *Watcher) Watched() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.watched)
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Skip excluded paths
	if w.cfg.IsExcluded(event.Name) {
		return
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventWrite
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		eventType = EventRemove
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		eventType = EventRename
	default:
		return
	}

	if eventType == EventRemove || eventType == EventRename {
		w.forget(event.Name)
	}

	rel, err := filepath.Rel(w.cfg.Root, filepath.Dir(event.Name))
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		rel = ""
	}

	e := Event{
		Type: eventType,
		Dir:  rel,
		Name: filepath.Base(event.Name),
	}

	w.mu.RLock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

// forget drops a removed directory from the watched set; fsnotify removes
// the watch itself.
func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.watched, path)
}

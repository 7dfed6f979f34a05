// Package watcher observes the fragments directory and batches change events
// so the preview server can rescan and push recompiled output to clients.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/nucleator/internal/logging"
)

// FileWatcher watches for file changes with debouncing
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	filters   []FileFilter
	handlers  []ChangeHandler
	logger    logging.Logger
	mutex     sync.RWMutex
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter determines if a file should be watched
type FileFilter func(path string) bool

// ChangeHandler handles batched file change events
type ChangeHandler func(events []ChangeEvent) error

// Debouncer groups rapid file changes together
type Debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	mutex   sync.Mutex
}

// NewFileWatcher creates a new file watcher
func NewFileWatcher(debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = logging.NewLogger(nil)
	}

	return &FileWatcher{
		watcher: watcher,
		debouncer: &Debouncer{
			delay:   debounceDelay,
			events:  make(chan ChangeEvent, 100),
			output:  make(chan []ChangeEvent, 10),
			pending: make([]ChangeEvent, 0),
		},
		filters:  make([]FileFilter, 0),
		handlers: make([]ChangeHandler, 0),
		logger:   logger.WithComponent("watcher"),
	}, nil
}

// AddFilter adds a file filter
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler adds a change handler
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddRecursive adds a directory and all subdirectories to watch
func (fw *FileWatcher) AddRecursive(root string) error {
	cleanRoot, err := validatePath(root)
	if err != nil {
		return fmt.Errorf("invalid root path: %w", err)
	}

	return filepath.WalkDir(cleanRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.watcher.Add(path)
		}
		return nil
	})
}

// validatePath cleans a path and rejects directory traversal
func validatePath(path string) (string, error) {
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("path contains directory traversal: %s", path)
	}
	return cleanPath, nil
}

// Start starts the watcher goroutines; they exit when ctx is cancelled.
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.debouncer.start(ctx)
	go fw.processEvents(ctx)
	go fw.watchLoop(ctx)
}

// Stop stops the file watcher and cleans up resources
func (fw *FileWatcher) Stop() error {
	if fw.debouncer.timer != nil {
		fw.debouncer.timer.Stop()
	}
	return fw.watcher.Close()
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "watch error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	var modTime time.Time
	if info, err := os.Stat(event.Name); err == nil {
		modTime = info.ModTime()
	}

	var eventType EventType
	switch {
	case event.Op.Has(fsnotify.Create):
		eventType = EventTypeCreated
	case event.Op.Has(fsnotify.Write):
		eventType = EventTypeModified
	case event.Op.Has(fsnotify.Remove):
		eventType = EventTypeDeleted
	case event.Op.Has(fsnotify.Rename):
		eventType = EventTypeRenamed
	default:
		eventType = EventTypeModified
	}

	select {
	case fw.debouncer.events <- ChangeEvent{Type: eventType, Path: event.Name, ModTime: modTime}:
	default:
		// channel full, skip
	}
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-fw.debouncer.output:
			fw.mutex.RLock()
			handlers := fw.handlers
			fw.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(events); err != nil {
					fw.logger.Warn(ctx, err, "change handler failed")
				}
			}
		}
	}
}

func (d *Debouncer) start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			d.addEvent(event)
		}
	}
}

func (d *Debouncer) addEvent(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = append(d.pending, event)

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *Debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	// Deduplicate by path, keeping the latest event
	eventMap := make(map[string]ChangeEvent)
	for _, event := range d.pending {
		eventMap[event.Path] = event
	}

	events := make([]ChangeEvent, 0, len(eventMap))
	for _, event := range eventMap {
		events = append(events, event)
	}

	select {
	case d.output <- events:
	default:
	}

	d.pending = d.pending[:0]
}

// ExtensionFilter accepts only files with one of the given extensions.
func ExtensionFilter(extensions []string) FileFilter {
	return func(path string) bool {
		ext := filepath.Ext(path)
		for _, e := range extensions {
			if strings.EqualFold(e, ext) {
				return true
			}
		}
		return false
	}
}

// NoHiddenFilter rejects dotfiles and files inside dot directories.
func NoHiddenFilter(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return false
		}
	}
	return true
}

// PatternFilter rejects files whose base name matches any glob pattern.
func PatternFilter(patterns []string) FileFilter {
	return func(path string) bool {
		base := filepath.Base(path)
		for _, pat := range patterns {
			if ok, _ := filepath.Match(pat, base); ok {
				return false
			}
		}
		return true
	}
}

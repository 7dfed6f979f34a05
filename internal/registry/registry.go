// Package registry tracks the fragment files a preview session can reference
// by name: island sources, include partials and declared component bodies all
// resolve through the same lookup table.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/nucleator/internal/compiler"
)

// Fragment holds one discovered fragment file.
type Fragment struct {
	Ref     string
	Path    string
	Body    string
	LastMod time.Time
	Hash    string
}

// Event represents a change in the fragment registry
type Event struct {
	Type      EventType
	Fragment  *Fragment
	Timestamp time.Time
}

// EventType represents the type of fragment event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

// FragmentRegistry manages all discovered fragments
type FragmentRegistry struct {
	mu        sync.RWMutex
	fragments map[string]*Fragment
	watchers  []chan Event
}

// NewFragmentRegistry creates an empty registry.
func NewFragmentRegistry() *FragmentRegistry {
	return &FragmentRegistry{
		fragments: make(map[string]*Fragment),
		watchers:  make([]chan Event, 0),
	}
}

// Register adds or updates a fragment, notifying subscribers.
func (r *FragmentRegistry) Register(f *Fragment) {
	r.mu.Lock()

	eventType := EventTypeAdded
	if _, exists := r.fragments[f.Ref]; exists {
		eventType = EventTypeUpdated
	}
	r.fragments[f.Ref] = f

	event := Event{Type: eventType, Fragment: f, Timestamp: time.Now()}
	watchers := make([]chan Event, len(r.watchers))
	copy(watchers, r.watchers)
	r.mu.Unlock()

	for _, w := range watchers {
		select {
		case w <- event:
		default:
		}
	}
}

// Remove drops a fragment by ref, notifying subscribers.
func (r *FragmentRegistry) Remove(ref string) {
	r.mu.Lock()
	f, exists := r.fragments[ref]
	if !exists {
		r.mu.Unlock()
		return
	}
	delete(r.fragments, ref)

	event := Event{Type: EventTypeRemoved, Fragment: f, Timestamp: time.Now()}
	watchers := make([]chan Event, len(r.watchers))
	copy(watchers, r.watchers)
	r.mu.Unlock()

	for _, w := range watchers {
		select {
		case w <- event:
		default:
		}
	}
}

// Get returns the fragment registered under ref.
func (r *FragmentRegistry) Get(ref string) (*Fragment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fragments[ref]
	return f, ok
}

// Count returns the number of registered fragments.
func (r *FragmentRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fragments)
}

// Refs returns the registered refs in no particular order.
func (r *FragmentRegistry) Refs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs := make([]string, 0, len(r.fragments))
	for ref := range r.fragments {
		refs = append(refs, ref)
	}
	return refs
}

// Subscribe returns a channel receiving registry events. The channel is
// buffered; slow consumers drop events rather than block registration.
func (r *FragmentRegistry) Subscribe() <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan Event, 64)
	r.watchers = append(r.watchers, ch)
	return ch
}

// Lookup snapshots the registry into the table the compiler consumes.
// Each fragment is reachable both by its bare ref and by its file name.
func (r *FragmentRegistry) Lookup() compiler.Lookup {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table := make(compiler.Lookup, len(r.fragments)*2)
	for ref, f := range r.fragments {
		table[ref] = f.Body
		table[filepath.Base(f.Path)] = f.Body
	}
	return table
}

// Scan walks dir for fragment files with the given extensions, registering
// each under its path-relative ref (extension stripped, slash-separated).
// Fragments registered by an earlier scan whose files have since vanished
// are removed. Unreadable files are skipped and reported in the returned
// error list.
func (r *FragmentRegistry) Scan(dir string, extensions, excludePatterns []string) []error {
	var errs []error
	seen := make(map[string]bool)

	walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		for _, pat := range excludePatterns {
			if ok, _ := filepath.Match(pat, name); ok {
				return nil
			}
		}

		ext := filepath.Ext(name)
		if !hasExtension(ext, extensions) {
			return nil
		}

		body, readErr := os.ReadFile(path)
		if readErr != nil {
			errs = append(errs, fmt.Errorf("reading fragment %s: %w", path, readErr))
			return nil
		}

		info, statErr := d.Info()
		modTime := time.Now()
		if statErr == nil {
			modTime = info.ModTime()
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = name
		}
		ref := filepath.ToSlash(strings.TrimSuffix(rel, ext))

		sum := sha256.Sum256(body)
		seen[ref] = true
		r.Register(&Fragment{
			Ref:     ref,
			Path:    path,
			Body:    string(body),
			LastMod: modTime,
			Hash:    hex.EncodeToString(sum[:8]),
		})
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}

	for _, ref := range r.Refs() {
		if !seen[ref] {
			r.Remove(ref)
		}
	}

	return errs
}

func hasExtension(ext string, extensions []string) bool {
	for _, e := range extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

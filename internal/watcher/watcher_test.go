package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionFilter(t *testing.T) {
	filter := ExtensionFilter([]string{".ncl", ".nucleus"})

	assert.True(t, filter("fragments/nav.ncl"))
	assert.True(t, filter("page.NUCLEUS"))
	assert.False(t, filter("readme.md"))
	assert.False(t, filter("nav"))
}

func TestNoHiddenFilter(t *testing.T) {
	assert.True(t, NoHiddenFilter("fragments/nav.ncl"))
	assert.False(t, NoHiddenFilter("fragments/.nav.ncl.swp"))
	assert.False(t, NoHiddenFilter(".git/config"))
	assert.True(t, NoHiddenFilter("./fragments/nav.ncl"))
}

func TestPatternFilter(t *testing.T) {
	filter := PatternFilter([]string{"*.bak", "*~"})

	assert.True(t, filter("nav.ncl"))
	assert.False(t, filter("nav.ncl.bak"))
	assert.False(t, filter("nav.ncl~"))
}

func TestValidatePath(t *testing.T) {
	_, err := validatePath("../outside")
	assert.Error(t, err)

	clean, err := validatePath("./fragments/")
	require.NoError(t, err)
	assert.Equal(t, "fragments", clean)
}

func TestDebouncerBatchesAndDeduplicates(t *testing.T) {
	d := &Debouncer{
		delay:   20 * time.Millisecond,
		events:  make(chan ChangeEvent, 100),
		output:  make(chan []ChangeEvent, 10),
		pending: make([]ChangeEvent, 0),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.start(ctx)

	d.events <- ChangeEvent{Type: EventTypeModified, Path: "a.ncl"}
	d.events <- ChangeEvent{Type: EventTypeModified, Path: "a.ncl"}
	d.events <- ChangeEvent{Type: EventTypeCreated, Path: "b.ncl"}

	select {
	case batch := <-d.output:
		assert.Len(t, batch, 2)
	case <-time.After(time.Second):
		t.Fatal("debouncer never flushed")
	}
}

func TestWatcherDeliversChanges(t *testing.T) {
	dir := t.TempDir()

	fw, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	fw.AddFilter(ExtensionFilter([]string{".ncl"}))

	var mu sync.Mutex
	var seen []ChangeEvent
	done := make(chan struct{})
	fw.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, events...)
		select {
		case <-done:
		default:
			close(done)
		}
		return nil
	})

	require.NoError(t, fw.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fw.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "nav.ncl"), []byte("<nav/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.md"), []byte("x"), 0o644))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("no change events delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	for _, e := range seen {
		assert.Equal(t, ".ncl", filepath.Ext(e.Path))
	}
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "created", EventTypeCreated.String())
	assert.Equal(t, "modified", EventTypeModified.String())
	assert.Equal(t, "deleted", EventTypeDeleted.String())
	assert.Equal(t, "renamed", EventTypeRenamed.String())
	assert.Equal(t, "unknown", EventType(42).String())
}

package filekv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/todo/internal/core/kv"
)

func newTestWatcher(t *testing.T) (*Store, *Watcher) {
	t.Helper()
	s := newTestStore(t)
	w, err := NewWatcher(s.Dir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return s, w
}

func TestWatcher_Watch(t *testing.T) {
	t.Parallel()

	s, w := newTestWatcher(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := w.Watch(ctx, "todo-theme")
	require.NoError(t, err)

	// A second store on the same directory stands in for another process.
	other, err := New(s.Dir())
	require.NoError(t, err)
	require.NoError(t, other.Set(ctx, "todo-theme", "dark"))

	select {
	case event := <-events:
		assert.Equal(t, kv.Event{Key: "todo-theme", Value: "dark"}, event)
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
}

func TestWatcher_GlobPattern(t *testing.T) {
	t.Parallel()

	s, w := newTestWatcher(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := w.Watch(ctx, "todo-revamped::*")
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "todo-theme", "light"))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, s.Set(ctx, "todo-revamped::todos", "[]"))

	timeout := time.After(300 * time.Millisecond)
	var keys []string
	for {
		select {
		case event := <-events:
			keys = append(keys, event.Key)
		case <-timeout:
			assert.Equal(t, []string{"todo-revamped::todos"}, keys)
			return
		}
	}
}

func TestWatcher_Delete(t *testing.T) {
	t.Parallel()

	s, w := newTestWatcher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Set(ctx, "todo-theme", "dark"))
	time.Sleep(100 * time.Millisecond)

	events, err := w.Watch(ctx, "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "todo-theme"))

	select {
	case event := <-events:
		assert.Equal(t, "todo-theme", event.Key)
		assert.True(t, event.Deleted)
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
}

func TestWatcher_IgnoresForeignFiles(t *testing.T) {
	t.Parallel()

	s, w := newTestWatcher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := w.Watch(ctx, "")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), ".write-1.tmp"), []byte("x"), 0o644))

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, s.Set(ctx, "real", "v"))

	timeout := time.After(300 * time.Millisecond)
	var keys []string
	for {
		select {
		case event := <-events:
			keys = append(keys, event.Key)
		case <-timeout:
			assert.Equal(t, []string{"real"}, keys)
			return
		}
	}
}

func TestWatcher_Debounce(t *testing.T) {
	t.Parallel()

	s, w := newTestWatcher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := w.Watch(ctx, "")
	require.NoError(t, err)

	path := filepath.Join(s.Dir(), Filename("todo-theme"))
	for range 5 {
		require.NoError(t, os.WriteFile(path, []byte("dark"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	timeout := time.After(300 * time.Millisecond)
	count := 0
	for {
		select {
		case <-events:
			count++
		case <-timeout:
			assert.Equal(t, 1, count, "should receive exactly one debounced event")
			return
		}
	}
}

func TestWatcher_InvalidPattern(t *testing.T) {
	_, w := newTestWatcher(t)
	_, err := w.Watch(context.Background(), "todo-[")
	require.Error(t, err)
}

func TestWatcher_ContextCancellation(t *testing.T) {
	t.Parallel()

	_, w := newTestWatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := w.Watch(ctx, "")
	require.NoError(t, err)

	cancel()

	time.Sleep(100 * time.Millisecond)
	_, ok := <-events
	assert.False(t, ok, "channel should be closed after context cancellation")
}

func TestWatcher_Close(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	w, err := NewWatcher(s.Dir(), zerolog.Nop())
	require.NoError(t, err)

	events, err := w.Watch(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, w.Close())

	_, ok := <-events
	assert.False(t, ok, "channel should be closed after watcher close")
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"", "anything", true},
		{"*", "todo-theme", true},
		{"todo-*", "todo-theme", true},
		{"todo-revamped::*", "todo-revamped::todos", true},
		{"todo-revamped::*", "todo-theme", false},
		{"todo-theme", "todo-theme", true},
		{"todo-theme", "todo-theme-extra", false},
		{"{todo-theme,todo-revamped::todos}", "todo-revamped::todos", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesPattern(tt.pattern, tt.key))
		})
	}
}

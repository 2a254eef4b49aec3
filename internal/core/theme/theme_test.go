package theme

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/todo/internal/core/kv"
	"github.com/colonyops/todo/internal/core/kv/kvtest"
	"github.com/colonyops/todo/internal/store/memkv"
)

type applied struct {
	mu     sync.Mutex
	themes []Theme
}

func (a *applied) apply(t Theme) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.themes = append(a.themes, t)
}

func (a *applied) all() []Theme {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Theme(nil), a.themes...)
}

func systemDark(dark bool) Option {
	return WithSystemPreference(func() bool { return dark })
}

func TestParse(t *testing.T) {
	got, err := Parse("dark")
	require.NoError(t, err)
	assert.Equal(t, Dark, got)

	_, err = Parse("Dark")
	require.Error(t, err)
	_, err = Parse("")
	require.Error(t, err)

	assert.Equal(t, Light, Dark.Opposite())
	assert.Equal(t, Dark, Light.Opposite())
}

func TestManager_Load(t *testing.T) {
	tests := []struct {
		name   string
		stored map[string]string
		system bool
		want   Theme
	}{
		{"stored wins over system", map[string]string{StorageKey: "light"}, true, Light},
		{"stored dark", map[string]string{StorageKey: "dark"}, false, Dark},
		{"nothing stored uses system dark", nil, true, Dark},
		{"nothing stored uses system light", nil, false, Light},
		{"invalid stored value uses system", map[string]string{StorageKey: "purple"}, true, Dark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &applied{}
			m := New(memkv.NewWith(tt.stored), zerolog.Nop(), systemDark(tt.system), WithAppliers(rec.apply))

			assert.Equal(t, tt.want, m.Load(context.Background()))
			assert.Equal(t, tt.want, m.Current())
			assert.Equal(t, []Theme{tt.want}, rec.all(), "load applies once")
		})
	}
}

func TestManager_LoadReadFailure(t *testing.T) {
	storage := kvtest.NewFaulty(memkv.New())
	storage.FailGet(true)

	m := New(storage, zerolog.Nop(), systemDark(true))
	assert.Equal(t, Dark, m.Load(context.Background()))
	assert.Equal(t, 0, storage.Sets(), "load never writes")
}

func TestManager_SetAndToggle(t *testing.T) {
	ctx := context.Background()
	storage := memkv.New()
	rec := &applied{}
	m := New(storage, zerolog.Nop(), WithAppliers(rec.apply))
	m.Load(ctx)

	require.NoError(t, m.Set(ctx, Dark))
	got, err := storage.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "dark", got)

	assert.Equal(t, Light, m.Toggle(ctx))
	got, err = storage.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "light", got)

	require.Error(t, m.Set(ctx, Theme("sepia")))
	assert.Equal(t, []Theme{Light, Dark, Light}, rec.all())
}

func TestManager_SetWriteFailure(t *testing.T) {
	ctx := context.Background()
	storage := kvtest.NewFaulty(memkv.New())
	storage.FailSet(true)

	m := New(storage, zerolog.Nop())
	m.Load(ctx)

	require.NoError(t, m.Set(ctx, Dark))
	assert.Equal(t, Dark, m.Current())
}

func TestManager_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage := kvtest.NewFaulty(memkv.New())
	m := New(storage, zerolog.Nop())
	m.Load(ctx)

	changes := make(chan Theme, 4)
	m.Subscribe(func(t Theme) { changes <- t })

	events := make(chan kv.Event, 4)
	done := make(chan struct{})
	go func() {
		m.Watch(ctx, events)
		close(done)
	}()

	events <- kv.Event{Key: "todo-revamped::todos", Value: "[]"}
	events <- kv.Event{Key: StorageKey, Value: "dark"}

	select {
	case got := <-changes:
		assert.Equal(t, Dark, got)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for theme change")
	}
	assert.Equal(t, 0, storage.Sets(), "external changes are not written back")

	close(events)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not return after channel closed")
	}
}

func TestManager_HandleEvent(t *testing.T) {
	ctx := context.Background()
	m := New(memkv.New(), zerolog.Nop())
	m.Load(ctx)

	m.handleEvent(kv.Event{Key: StorageKey, Value: "dark"})
	assert.Equal(t, Dark, m.Current())

	m.handleEvent(kv.Event{Key: StorageKey, Value: "garbage"})
	assert.Equal(t, Light, m.Current(), "unknown values read as light")

	// A stored value blocks system changes until the key is deleted.
	m.SystemChanged(true)
	assert.Equal(t, Light, m.Current())

	m.handleEvent(kv.Event{Key: StorageKey, Deleted: true})
	assert.Equal(t, Light, m.Current())
	m.SystemChanged(true)
	assert.Equal(t, Dark, m.Current())
}

func TestManager_SystemChanged(t *testing.T) {
	ctx := context.Background()

	t.Run("follows system when nothing stored", func(t *testing.T) {
		m := New(memkv.New(), zerolog.Nop(), systemDark(false))
		m.Load(ctx)
		m.SystemChanged(true)
		assert.Equal(t, Dark, m.Current())
	})

	t.Run("ignored once a preference is stored", func(t *testing.T) {
		m := New(memkv.NewWith(map[string]string{StorageKey: "light"}), zerolog.Nop())
		m.Load(ctx)
		m.SystemChanged(true)
		assert.Equal(t, Light, m.Current())
	})

	t.Run("ignored after set", func(t *testing.T) {
		m := New(memkv.New(), zerolog.Nop())
		m.Load(ctx)
		require.NoError(t, m.Set(ctx, Light))
		m.SystemChanged(true)
		assert.Equal(t, Light, m.Current())
	})
}

func TestManager_SubscribeAndClose(t *testing.T) {
	ctx := context.Background()
	m := New(memkv.New(), zerolog.Nop())
	m.Load(ctx)

	var got []Theme
	unsubscribe := m.Subscribe(func(t Theme) { got = append(got, t) })

	m.Toggle(ctx)
	require.NoError(t, m.Set(ctx, Dark), "no change, no notification")
	unsubscribe()
	m.Toggle(ctx)
	assert.Equal(t, []Theme{Dark}, got)

	var afterClose []Theme
	m.Subscribe(func(t Theme) { afterClose = append(afterClose, t) })
	m.Close()
	m.Toggle(ctx)
	assert.Empty(t, afterClose)
}

func TestManager_Reset(t *testing.T) {
	ctx := context.Background()
	storage := memkv.NewWith(map[string]string{StorageKey: "light"})

	m := New(storage, zerolog.Nop(), systemDark(true))
	assert.Equal(t, Light, m.Load(ctx))
	assert.True(t, m.Stored())

	assert.Equal(t, Dark, m.Reset(ctx))
	assert.False(t, m.Stored())

	_, err := storage.Get(ctx, StorageKey)
	assert.True(t, kv.IsNotFound(err))

	m.SystemChanged(false)
	assert.Equal(t, Light, m.Current(), "system changes apply after reset")
}

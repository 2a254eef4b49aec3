package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/todo/internal/core/config"
	"github.com/colonyops/todo/internal/core/theme"
	"github.com/colonyops/todo/internal/core/todo"
	"github.com/colonyops/todo/internal/data/db"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Storage.Backend = backend
	if backend == config.BackendRedis {
		mr := miniredis.RunT(t)
		cfg.Storage.Redis.Addr = mr.Addr()
	}
	return &cfg
}

func openApp(t *testing.T, cfg *config.Config, opts Options) *App {
	t.Helper()
	a, err := Open(context.Background(), cfg, zerolog.Nop(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestOpen_Backends(t *testing.T) {
	tests := []struct {
		backend string
		durable bool
	}{
		{config.BackendFile, true},
		{config.BackendSQLite, true},
		{config.BackendRedis, true},
		{config.BackendMemory, false},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, tt.backend)

			first, err := Open(ctx, cfg, zerolog.Nop(), Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.backend, first.Backend)
			assert.Equal(t, todo.Seed(), first.Todos.Items())

			created := first.Todos.Create(ctx, todo.Input{Title: "Persist me", Priority: todo.PriorityHigh})
			require.NoError(t, first.Theme.Set(ctx, theme.Dark))
			require.NoError(t, first.Close())

			second := openApp(t, cfg, Options{})
			_, found := second.Todos.Get(created.ID)
			assert.Equal(t, tt.durable, found)
			if tt.durable {
				assert.Equal(t, theme.Dark, second.Theme.Current())
			}
		})
	}
}

func TestOpen_BackendOverride(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	a := openApp(t, cfg, Options{Backend: config.BackendMemory})
	assert.Equal(t, config.BackendMemory, a.Backend)
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := testConfig(t, "floppy")
	_, err := Open(context.Background(), cfg, zerolog.Nop(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestOpen_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t, config.BackendRedis)
	cfg.Storage.Redis.Addr = "127.0.0.1:1"
	_, err := Open(context.Background(), cfg, zerolog.Nop(), Options{})
	require.Error(t, err)
}

func TestOpen_SQLiteRecoversFromCorruption(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	garbage := bytes.Repeat([]byte("not a database "), 512)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, db.FileName), garbage, 0o644))

	a := openApp(t, cfg, Options{})
	assert.Equal(t, todo.Seed(), a.Todos.Items())

	backups, err := filepath.Glob(filepath.Join(cfg.DataDir, db.FileName+".corrupt.*"))
	require.NoError(t, err)
	assert.NotEmpty(t, backups, "damaged file kept")
}

func TestOpen_SeedDisabled(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	seed := false
	cfg.Seed = &seed

	a := openApp(t, cfg, Options{})
	assert.Equal(t, 0, a.Todos.Len())
}

func TestOpen_Theme(t *testing.T) {
	t.Run("system preference", func(t *testing.T) {
		cfg := testConfig(t, config.BackendMemory)
		var applied []theme.Theme
		a := openApp(t, cfg, Options{
			SystemDark:    func() bool { return true },
			ThemeAppliers: []func(theme.Theme){func(th theme.Theme) { applied = append(applied, th) }},
		})
		assert.Equal(t, theme.Dark, a.Theme.Current())
		assert.Equal(t, []theme.Theme{theme.Dark}, applied)
	})

	t.Run("config pins the fallback", func(t *testing.T) {
		cfg := testConfig(t, config.BackendMemory)
		cfg.Theme = string(theme.Light)
		a := openApp(t, cfg, Options{SystemDark: func() bool { return true }})
		assert.Equal(t, theme.Light, a.Theme.Current())
	})
}

func TestApp_NewFormUsesConfiguredDelays(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.Form.SubmitDelay = time.Millisecond
	cfg.Form.ResetDelay = time.Millisecond
	a := openApp(t, cfg, Options{})

	f := a.NewForm()
	t.Cleanup(f.Close)

	_, err := f.Submit(context.Background(), todo.Draft{Title: "Quick one", Priority: todo.PriorityLow})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok := f.LastCreated()
		return ok
	}, time.Second, time.Millisecond)
}

func TestApp_WatchUnsupported(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			a := openApp(t, testConfig(t, backend), Options{})
			ok, err := a.Watch(context.Background())
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestApp_WatchSeesOtherProcess(t *testing.T) {
	for _, backend := range []string{config.BackendFile, config.BackendRedis} {
		t.Run(backend, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			cfg := testConfig(t, backend)
			watching := openApp(t, cfg, Options{})
			other := openApp(t, cfg, Options{})

			ok, err := watching.Watch(ctx)
			require.NoError(t, err)
			require.True(t, ok)

			require.NoError(t, other.Theme.Set(ctx, theme.Dark))
			created := other.Todos.Create(ctx, todo.Input{Title: "From the other one", Priority: todo.PriorityLow})

			assert.Eventually(t, func() bool {
				_, found := watching.Todos.Get(created.ID)
				return found && watching.Theme.Current() == theme.Dark
			}, 3*time.Second, 10*time.Millisecond)
		})
	}
}

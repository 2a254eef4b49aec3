// Package app wires configuration, storage and the todo services together.
// Commands and the TUI consume App instead of cherry-picking raw
// dependencies.
package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/colonyops/todo/internal/core/config"
	"github.com/colonyops/todo/internal/core/kv"
	"github.com/colonyops/todo/internal/core/theme"
	"github.com/colonyops/todo/internal/dashboard"
)

// Options adjust how Open builds the App.
type Options struct {
	// Backend overrides cfg.Storage.Backend when set.
	Backend string
	// SystemDark reports the terminal's color scheme. Ignored when the
	// config pins a theme.
	SystemDark func() bool
	// ThemeAppliers mirror theme changes to presentation.
	ThemeAppliers []func(theme.Theme)
}

// App is the central entry point for todo operations.
type App struct {
	Config  *config.Config
	Backend string
	Storage kv.KV
	Todos   *dashboard.Collection
	View    *dashboard.View
	Theme   *theme.Manager

	log      zerolog.Logger
	watchers func(zerolog.Logger) (kv.Watcher, func() error, error)
	closers  []func() error
}

// Open connects the configured backend, restores the collection and
// resolves the theme.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts Options) (*App, error) {
	backend := cmp.Or(opts.Backend, cfg.Storage.Backend)

	b, err := openBackend(ctx, cfg, backend, log)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", backend, err)
	}

	var collOpts []dashboard.Option
	if !cfg.SeedEnabled() {
		collOpts = append(collOpts, dashboard.WithSeed(nil))
	}
	todos := dashboard.NewCollection(b.storage, log, collOpts...)
	todos.Load(ctx)

	themeOpts := []theme.Option{theme.WithAppliers(opts.ThemeAppliers...)}
	switch {
	case cfg.Theme != "":
		pinned := theme.Theme(cfg.Theme)
		themeOpts = append(themeOpts, theme.WithSystemPreference(func() bool { return pinned == theme.Dark }))
	case opts.SystemDark != nil:
		themeOpts = append(themeOpts, theme.WithSystemPreference(opts.SystemDark))
	}
	mgr := theme.New(b.storage, log, themeOpts...)
	mgr.Load(ctx)

	log.Debug().
		Str("backend", backend).
		Int("todos", todos.Len()).
		Str("theme", string(mgr.Current())).
		Msg("app ready")

	return &App{
		Config:   cfg,
		Backend:  backend,
		Storage:  b.storage,
		Todos:    todos,
		View:     dashboard.NewView(todos),
		Theme:    mgr,
		log:      log,
		watchers: b.watcher,
		closers:  b.closers,
	}, nil
}

// NewForm returns a form using the configured delays.
func (a *App) NewForm(opts ...dashboard.FormOption) *dashboard.Form {
	base := []dashboard.FormOption{
		dashboard.WithDelays(a.Config.Form.SubmitDelay, a.Config.Form.ResetDelay),
	}
	return dashboard.NewForm(a.Todos, a.log, append(base, opts...)...)
}

// Watch forwards changes made by other processes into the collection and
// the theme until ctx is done. It returns false when the backend cannot
// report external changes.
func (a *App) Watch(ctx context.Context) (bool, error) {
	if a.watchers == nil {
		return false, nil
	}

	w, closer, err := a.watchers(a.log)
	if err != nil {
		return false, fmt.Errorf("start watcher: %w", err)
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	todoEvents, err := w.Watch(ctx, a.Todos.Key())
	if err != nil {
		return false, fmt.Errorf("watch todos: %w", err)
	}
	themeEvents, err := w.Watch(ctx, theme.StorageKey)
	if err != nil {
		return false, fmt.Errorf("watch theme: %w", err)
	}

	go a.Todos.Watch(ctx, todoEvents)
	go a.Theme.Watch(ctx, themeEvents)
	return true, nil
}

// Close releases the backend in reverse order of acquisition.
func (a *App) Close() error {
	a.Theme.Close()

	var errs []error
	for _, closer := range slices.Backward(a.closers) {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Package theme holds the light/dark preference. A Manager is created at
// startup, injected into whatever renders, and closed at teardown.
package theme

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/todo/internal/core/kv"
)

// StorageKey is where the preference is persisted as a bare string.
const StorageKey = "todo-theme"

// Theme is the color scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Parse converts user input into a Theme.
func Parse(s string) (Theme, error) {
	t := Theme(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid theme %q: must be light or dark", s)
	}
	return t, nil
}

// IsValid reports whether t is light or dark.
func (t Theme) IsValid() bool {
	return t == Light || t == Dark
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// FromDark maps a dark-background hint to a theme.
func FromDark(dark bool) Theme {
	if dark {
		return Dark
	}
	return Light
}

// Option configures a Manager.
type Option func(*Manager)

// WithSystemPreference supplies the OS color-scheme hint consulted when
// nothing is stored.
func WithSystemPreference(prefersDark func() bool) Option {
	return func(m *Manager) {
		m.prefersDark = prefersDark
	}
}

// WithAppliers registers functions mirroring the theme to presentation,
// such as rebuilding styles. They run on every change and after Load.
func WithAppliers(fns ...func(Theme)) Option {
	return func(m *Manager) {
		m.appliers = append(m.appliers, fns...)
	}
}

// Manager owns the current theme. Persistence failures are logged and
// ignored; the in-memory theme stays authoritative.
type Manager struct {
	storage     kv.KV
	log         zerolog.Logger
	prefersDark func() bool
	appliers    []func(Theme)

	mu      sync.Mutex
	current Theme
	stored  bool
	closed  bool
	subs    map[int]func(Theme)
	nextSub int
}

// New creates a manager starting in the light theme until Load runs.
func New(storage kv.KV, log zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		storage:     storage,
		log:         log.With().Str("component", "theme").Logger(),
		prefersDark: func() bool { return false },
		current:     Light,
		subs:        make(map[int]func(Theme)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load resolves the initial theme: a valid stored value wins, otherwise the
// system preference. It never writes.
func (m *Manager) Load(ctx context.Context) Theme {
	next := FromDark(m.prefersDark())
	stored := false

	value, err := m.storage.Get(ctx, StorageKey)
	switch {
	case kv.IsNotFound(err):
	case err != nil:
		m.log.Warn().Err(err).Msg("read stored theme")
	default:
		if t, perr := Parse(value); perr == nil {
			next, stored = t, true
		} else {
			m.log.Debug().Str("value", value).Msg("ignoring invalid stored theme")
		}
	}

	m.mu.Lock()
	m.stored = stored
	m.mu.Unlock()

	m.adopt(next, true)
	return next
}

// Current returns the active theme.
func (m *Manager) Current() Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Set persists and applies t.
func (m *Manager) Set(ctx context.Context, t Theme) error {
	if !t.IsValid() {
		return fmt.Errorf("invalid theme %q", t)
	}

	m.mu.Lock()
	m.stored = true
	m.mu.Unlock()

	if err := m.storage.Set(ctx, StorageKey, string(t)); err != nil {
		m.log.Warn().Err(err).Msg("persist theme")
	}
	m.adopt(t, false)
	return nil
}

// Toggle switches to the opposite theme and returns it.
func (m *Manager) Toggle(ctx context.Context) Theme {
	next := m.Current().Opposite()
	_ = m.Set(ctx, next)
	return next
}

// Reset forgets the stored preference and follows the system preference
// again. It returns the resulting theme.
func (m *Manager) Reset(ctx context.Context) Theme {
	m.mu.Lock()
	m.stored = false
	m.mu.Unlock()

	if err := m.storage.Delete(ctx, StorageKey); err != nil {
		m.log.Warn().Err(err).Msg("delete stored theme")
	}

	next := FromDark(m.prefersDark())
	m.adopt(next, false)
	return next
}

// Stored reports whether an explicit preference is in effect.
func (m *Manager) Stored() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored
}

// Watch adopts theme changes written by other processes until ctx is done
// or events closes. Nothing is written back. A deleted key hands control
// back to the system preference without changing the current theme.
func (m *Manager) Watch(ctx context.Context, events <-chan kv.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			m.handleEvent(event)
		}
	}
}

func (m *Manager) handleEvent(event kv.Event) {
	if event.Key != StorageKey {
		return
	}

	if event.Deleted {
		m.mu.Lock()
		m.stored = false
		m.mu.Unlock()
		return
	}

	// Any value other than dark reads as light.
	next := Light
	if event.Value == string(Dark) {
		next = Dark
	}

	m.mu.Lock()
	m.stored = true
	m.mu.Unlock()

	m.log.Debug().Str("theme", string(next)).Msg("theme changed externally")
	m.adopt(next, false)
}

// SystemChanged reports a change of the OS color scheme. It only takes
// effect while no preference is stored.
func (m *Manager) SystemChanged(dark bool) {
	m.mu.Lock()
	stored := m.stored
	m.mu.Unlock()
	if stored {
		return
	}
	m.adopt(FromDark(dark), false)
}

// Subscribe registers fn for theme changes.
func (m *Manager) Subscribe(fn func(Theme)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Close detaches subscribers and appliers; later changes are not reported.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.subs = make(map[int]func(Theme))
}

// adopt makes t current and fans it out. force applies even when t is
// already current, which Load uses for the initial application.
func (m *Manager) adopt(t Theme, force bool) {
	m.mu.Lock()
	if m.closed || (!force && m.current == t) {
		m.mu.Unlock()
		return
	}
	m.current = t
	subs := make([]func(Theme), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, apply := range m.appliers {
		apply(t)
	}
	for _, fn := range subs {
		fn(t)
	}
}

package tui

import (
	"context"
	"errors"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/todo/internal/core/styles"
	"github.com/colonyops/todo/internal/core/theme"
)

// running is set while a dashboard owns the global styles.
var running atomic.Bool

// ApplyStyles rebuilds the global styles for t. It is a no-op while the
// dashboard runs, since the dashboard restyles from its own goroutine.
func ApplyStyles(t theme.Theme) {
	if running.Load() {
		return
	}
	styles.Apply(string(t))
}

// Run shows the dashboard until the user quits or ctx is done.
func Run(ctx context.Context, deps Deps, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, deps)
	defer m.Close()

	running.Store(true)
	defer running.Store(false)

	base := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	p := tea.NewProgram(m, append(base, opts...)...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

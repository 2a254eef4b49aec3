package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// signal is a coalescing wake-up channel. notify never blocks, so it is safe
// to call from subscriber callbacks that run under another component's lock.
// Any number of notifies between two waits collapse into one message.
type signal chan struct{}

func newSignal() signal {
	return make(signal, 1)
}

func (s signal) notify() {
	select {
	case s <- struct{}{}:
	default:
	}
}

// wait returns a command that blocks until the next notify and then yields
// msg. The command yields nil once ctx is done. Re-issue it after handling
// msg to keep listening.
func (s signal) wait(ctx context.Context, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// Wake-up messages. They carry no payload; handlers read fresh state from
// the services.
type (
	itemsChangedMsg struct{}
	themeChangedMsg struct{}
	formStatusMsg   struct{}
)

// Package tui implements the interactive todo dashboard.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/todo/internal/core/styles"
	"github.com/colonyops/todo/internal/core/theme"
	"github.com/colonyops/todo/internal/core/todo"
	"github.com/colonyops/todo/internal/dashboard"
)

// Deps are the services the dashboard drives.
type Deps struct {
	Todos *dashboard.Collection
	View  *dashboard.View
	Theme *theme.Manager
	// NewForm builds the submit cycle. The dashboard adds its own status
	// listener.
	NewForm func(...dashboard.FormOption) *dashboard.Form
	// DefaultSort is the sort of a cleared view. Empty means todo.DefaultSort.
	DefaultSort todo.SortKey
}

type mode int

const (
	modeList mode = iota
	modeSearch
	modeDueBefore
	modeCreate
	modeEdit
)

// bridge connects service callbacks to the program. Callbacks only notify
// signals; all state is read back inside Update.
type bridge struct {
	ctx    context.Context
	items  signal
	theme  signal
	status signal
	form   *dashboard.Form
	unsubs []func()
}

func (b *bridge) close() {
	for _, unsub := range b.unsubs {
		unsub()
	}
	b.form.Close()
}

// Model is the dashboard state.
type Model struct {
	deps     Deps
	bridge   *bridge
	keys     keyMap
	formKeys formKeyMap
	editKeys formKeyMap
	help     help.Model
	spinner  spinner.Model

	spec   todo.ViewSpec
	items  []todo.Item
	cursor int

	mode      mode
	search    textinput.Model
	dueBefore textinput.Model
	create    createForm
	edit      createForm
	// editing is the record the edit form was opened on
	editing todo.Item

	// notice is a one-shot status line message, cleared on the next key.
	notice    string
	noticeErr bool

	width  int
	height int
}

// New builds the model and subscribes it to deps. Call Close when the
// program exits.
func New(ctx context.Context, deps Deps) Model {
	if deps.DefaultSort == "" {
		deps.DefaultSort = todo.DefaultSort
	}

	b := &bridge{
		ctx:    ctx,
		items:  newSignal(),
		theme:  newSignal(),
		status: newSignal(),
	}
	b.form = deps.NewForm(dashboard.OnStatus(func(dashboard.Status) { b.status.notify() }))
	b.unsubs = append(b.unsubs,
		deps.Todos.Subscribe(func([]todo.Item) { b.items.notify() }),
		deps.Theme.Subscribe(func(theme.Theme) { b.theme.notify() }),
	)

	search := textinput.New()
	search.Prompt = styles.IconSearch
	search.Placeholder = "search title or description"

	due := textinput.New()
	due.Prompt = styles.IconCalendar + "due on or before "
	due.Placeholder = "YYYY-MM-DD"
	due.CharLimit = len(todo.DateLayout)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		deps:      deps,
		bridge:    b,
		keys:      defaultKeyMap(),
		formKeys:  defaultFormKeyMap(),
		editKeys:  editFormKeyMap(),
		help:      help.New(),
		spinner:   sp,
		spec:      todo.ViewSpec{Priority: todo.PriorityAll, Sort: deps.DefaultSort},
		search:    search,
		dueBefore: due,
		create:    newCreateForm(),
	}
	m.refresh()
	return m
}

// Close unsubscribes from the services and stops the submit cycle.
func (m Model) Close() {
	m.bridge.close()
}

// Init starts listening for service changes.
func (m Model) Init() tea.Cmd {
	ctx := m.bridge.ctx
	return tea.Batch(
		m.bridge.items.wait(ctx, itemsChangedMsg{}),
		m.bridge.theme.wait(ctx, themeChangedMsg{}),
		m.bridge.status.wait(ctx, formStatusMsg{}),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	// Service changes
	case itemsChangedMsg:
		return m.handleItemsChanged()
	case themeChangedMsg:
		return m.handleThemeChanged()
	case formStatusMsg:
		return m.handleFormStatus()

	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)

	// Input
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// refresh re-derives the visible rows and keeps the cursor in range.
func (m *Model) refresh() {
	m.items = m.deps.View.Derive(m.spec)
	switch {
	case len(m.items) == 0:
		m.cursor = 0
	case m.cursor >= len(m.items):
		m.cursor = len(m.items) - 1
	}
}

func (m Model) selected() (todo.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return todo.Item{}, false
	}
	return m.items[m.cursor], true
}

func (m *Model) setNotice(msg string, isErr bool) {
	m.notice = msg
	m.noticeErr = isErr
}

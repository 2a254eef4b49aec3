package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/todo/internal/core/styles"
	"github.com/colonyops/todo/internal/core/todo"
	"github.com/colonyops/todo/internal/dashboard"
)

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.help.Width = msg.Width
	return m, nil
}

func (m Model) handleItemsChanged() (tea.Model, tea.Cmd) {
	m.refresh()
	return m, m.bridge.items.wait(m.bridge.ctx, itemsChangedMsg{})
}

// handleThemeChanged rebuilds the global styles on the program goroutine so
// View never races a restyle.
func (m Model) handleThemeChanged() (tea.Model, tea.Cmd) {
	styles.Apply(string(m.deps.Theme.Current()))
	return m, m.bridge.theme.wait(m.bridge.ctx, themeChangedMsg{})
}

func (m Model) handleFormStatus() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.bridge.status.wait(m.bridge.ctx, formStatusMsg{})}
	if m.bridge.form.Status() == dashboard.StatusSubmitting {
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

// handleSpinnerTick keeps the spinner alive only while a submit is in
// flight.
func (m Model) handleSpinnerTick(msg spinner.TickMsg) (tea.Model, tea.Cmd) {
	if m.bridge.form.Status() != dashboard.StatusSubmitting {
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, forceQuit) {
		return m, tea.Quit
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeDueBefore:
		return m.handleDueBeforeKey(msg)
	case modeCreate:
		return m.handleCreateKey(msg)
	case modeEdit:
		return m.handleEditKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.setNotice("", false)
	ctx := m.bridge.ctx

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.New):
		m.mode = modeCreate
		cmd := m.create.focusCurrent()
		return m, cmd
	case key.Matches(msg, m.keys.Edit):
		if item, ok := m.selected(); ok {
			m.mode = modeEdit
			m.editing = item
			m.edit = newEditForm(todo.DraftFromItem(item))
			cmd := m.edit.focusCurrent()
			return m, cmd
		}
	case key.Matches(msg, m.keys.Delete):
		if item, ok := m.selected(); ok {
			m.deps.Todos.Delete(ctx, item.ID)
			m.refresh()
			m.setNotice(fmt.Sprintf("Deleted %q", item.Title), false)
		}
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.spec.Search)
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Priority):
		m.spec.Priority = nextPriorityFilter(m.spec.Priority)
		m.refresh()
	case key.Matches(msg, m.keys.DueBefore):
		m.mode = modeDueBefore
		m.dueBefore.SetValue(m.spec.DueBefore.String())
		m.dueBefore.CursorEnd()
		cmd := m.dueBefore.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Sort):
		m.spec.Sort = nextSort(m.spec.Sort)
		m.refresh()
	case key.Matches(msg, m.keys.Clear):
		// search has its own clear on esc
		m.spec.Priority = todo.PriorityAll
		m.spec.DueBefore = todo.Date{}
		m.spec.Sort = m.deps.DefaultSort
		m.refresh()
	case key.Matches(msg, m.keys.Theme):
		t := m.deps.Theme.Toggle(ctx)
		styles.Apply(string(t))
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// handleSearchKey filters live as the user types. Enter keeps the term, esc
// clears it.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeList
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.mode = modeList
		m.search.Blur()
		m.search.Reset()
		m.spec.Search = ""
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.spec.Search = m.search.Value()
	m.refresh()
	return m, cmd
}

// handleDueBeforeKey applies the bound on enter. An empty value removes it.
func (m Model) handleDueBeforeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeList
		m.dueBefore.Blur()
		m.setNotice("", false)
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.dueBefore.Value())
		if value == "" {
			m.spec.DueBefore = todo.Date{}
		} else {
			d, err := todo.ParseDate(value)
			if err != nil {
				m.setNotice("Use a YYYY-MM-DD date", true)
				return m, nil
			}
			m.spec.DueBefore = d
		}
		m.mode = modeList
		m.dueBefore.Blur()
		m.setNotice("", false)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.dueBefore, cmd = m.dueBefore.Update(msg)
	return m, cmd
}

func (m Model) handleCreateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKeys.Cancel):
		m.mode = modeList
		m.create.blur()
		return m, nil
	case key.Matches(msg, m.formKeys.Submit):
		return m.submit()
	}
	cmd := formFieldKey(m.formKeys, &m.create, msg)
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.editKeys.Cancel):
		m.mode = modeList
		m.edit.blur()
		return m, nil
	case key.Matches(msg, m.editKeys.Submit):
		return m.saveEdit()
	}
	cmd := formFieldKey(m.editKeys, &m.edit, msg)
	return m, cmd
}

// formFieldKey moves between fields, cycles the priority or types into the
// focused input.
func formFieldKey(keys formKeyMap, f *createForm, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Next):
		return f.next()
	case key.Matches(msg, keys.Prev):
		return f.prev()
	}

	if f.focus == fieldPriority {
		switch msg.String() {
		case "left":
			f.cyclePriority(-1)
		case "right", " ":
			f.cyclePriority(1)
		}
		return nil
	}
	return f.update(msg)
}

// saveEdit validates the edit form like a new todo and writes it back in
// place. A record removed meanwhile closes the form with a notice.
func (m Model) saveEdit() (tea.Model, tea.Cmd) {
	draft := m.edit.draft()
	if err := draft.Validate(time.Now()); err != nil {
		if msgs := todo.FieldMessages(err); msgs != nil {
			m.edit.errors = msgs
			return m, nil
		}
		m.setNotice(err.Error(), true)
		return m, nil
	}

	m.mode = modeList
	m.edit.blur()

	updated := draft.Apply(m.editing)
	if !m.deps.Todos.Update(m.bridge.ctx, updated) {
		m.refresh()
		m.setNotice(fmt.Sprintf("%q no longer exists", m.editing.Title), true)
		return m, nil
	}

	m.refresh()
	if i := slices.IndexFunc(m.items, func(it todo.Item) bool { return it.ID == updated.ID }); i >= 0 {
		m.cursor = i
	}
	m.setNotice(fmt.Sprintf("Saved %q", updated.Title), false)
	return m, nil
}

// submit hands the draft to the submit cycle. Field errors stay on the form;
// a successful submit clears it for the next entry.
func (m Model) submit() (tea.Model, tea.Cmd) {
	item, err := m.bridge.form.Submit(m.bridge.ctx, m.create.draft())
	switch {
	case errors.Is(err, dashboard.ErrSubmitting):
		m.setNotice("Still saving the last todo", true)
		return m, nil
	case err != nil:
		if msgs := todo.FieldMessages(err); msgs != nil {
			m.create.errors = msgs
			return m, nil
		}
		m.setNotice(err.Error(), true)
		return m, nil
	}

	m.refresh()
	if i := slices.IndexFunc(m.items, func(it todo.Item) bool { return it.ID == item.ID }); i >= 0 {
		m.cursor = i
	}
	cmd := m.create.reset()
	return m, cmd
}

func nextPriorityFilter(f todo.PriorityFilter) todo.PriorityFilter {
	order := []todo.PriorityFilter{todo.PriorityAll}
	for _, p := range slices.Backward(todo.Priorities()) {
		order = append(order, todo.PriorityFilter(p))
	}
	i := slices.Index(order, f)
	return order[(i+1)%len(order)]
}

func nextSort(k todo.SortKey) todo.SortKey {
	keys := todo.SortKeys()
	i := slices.Index(keys, k)
	return keys[(i+1)%len(keys)]
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/colonyops/todo/internal/core/styles"
	"github.com/colonyops/todo/internal/core/todo"
	"github.com/colonyops/todo/internal/dashboard"
)

// chrome is the number of lines the list shares the screen with.
const chrome = 9

// View renders the dashboard.
func (m Model) View() string {
	sections := []string{
		m.headerView(),
		m.filterView(),
	}

	switch m.mode {
	case modeSearch:
		sections = append(sections, m.search.View())
	case modeDueBefore:
		sections = append(sections, m.dueBefore.View())
	}

	sections = append(sections, m.listView())

	switch m.mode {
	case modeCreate:
		sections = append(sections, m.create.view(m.width))
	case modeEdit:
		sections = append(sections, m.edit.view(m.width))
	}

	if status := m.statusView(); status != "" {
		sections = append(sections, status)
	}

	switch m.mode {
	case modeCreate:
		sections = append(sections, styles.HelpStyle.Render(m.help.View(m.formKeys)))
	case modeEdit:
		sections = append(sections, styles.HelpStyle.Render(m.help.View(m.editKeys)))
	default:
		sections = append(sections, styles.HelpStyle.Render(m.help.View(m.keys)))
	}

	return styles.AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) headerView() string {
	title := styles.HeaderStyle.Render(styles.IconCheckList + "Todos")
	count := fmt.Sprintf("%d of %d", len(m.items), m.deps.Todos.Len())
	return title + "  " + styles.MutedStyle.Render(count)
}

// filterView shows one chip per view setting, highlighted when it differs
// from the cleared view.
func (m Model) filterView() string {
	chip := func(active bool, label string) string {
		if active {
			return styles.FilterActiveStyle.Render(label)
		}
		return styles.FilterNormalStyle.Render(label)
	}

	priority := "All"
	if m.spec.Priority != todo.PriorityAll {
		priority = todo.Priority(m.spec.Priority).Label()
	}
	due := "any"
	if !m.spec.DueBefore.IsZero() {
		due = "≤ " + m.spec.DueBefore.Format()
	}
	search := "—"
	if term := strings.TrimSpace(m.spec.Search); term != "" {
		search = fmt.Sprintf("%q", term)
	}

	return strings.Join([]string{
		chip(m.spec.Priority != todo.PriorityAll, styles.IconFilter+"Priority: "+priority),
		chip(!m.spec.DueBefore.IsZero(), styles.IconCalendar+"Due: "+due),
		chip(search != "—", styles.IconSearch+"Search: "+search),
		chip(m.spec.Sort != m.deps.DefaultSort, styles.IconSort+m.spec.Sort.Label()),
	}, " ")
}

func (m Model) listView() string {
	if len(m.items) == 0 {
		msg := "Nothing to do. Press n to add a todo."
		if m.deps.Todos.Len() > 0 {
			msg = "No todos match these filters. Press c to clear them."
		}
		return styles.EmptyStateStyle.Render(msg)
	}

	today := todo.Today(time.Now())
	start, end := visibleRange(m.cursor, len(m.items), m.listHeight())

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.rowView(m.items[i], i == m.cursor, today))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	if item, ok := m.selected(); ok && item.Description != "" && !m.formOpen() {
		b.WriteString("\n\n")
		b.WriteString(styles.MutedStyle.Render(truncate(firstLine(item.Description), m.width-6)))
	}
	return b.String()
}

func (m Model) rowView(item todo.Item, selected bool, today todo.Date) string {
	badge := styles.PriorityBadge(string(item.Priority), fmt.Sprintf("%-6s", item.Priority.Label()))

	due := ""
	if d, ok := item.Due(); ok {
		due = styles.IconCalendar + d.Format()
		if d.Before(today) {
			due = styles.OverdueStyle.Render(due + " overdue")
		} else {
			due = styles.MutedStyle.Render(due)
		}
	}

	title := truncate(item.Title, m.width-40)
	if selected {
		return "› " + badge + "  " + styles.SelectedRowStyle.Render(title) + "  " + due
	}
	return "  " + badge + "  " + styles.NormalRowStyle.Render(title) + "  " + due
}

func (m Model) statusView() string {
	var parts []string
	switch m.bridge.form.Status() {
	case dashboard.StatusSubmitting:
		parts = append(parts, styles.FormSubmittingText.Render(m.spinner.View()+"Saving…"))
	case dashboard.StatusSuccess:
		if item, ok := m.bridge.form.LastCreated(); ok {
			parts = append(parts, styles.SuccessStyle.Render(fmt.Sprintf("%sAdded %q", styles.IconSuccess, item.Title)))
		}
	}
	if m.notice != "" {
		if m.noticeErr {
			parts = append(parts, styles.ErrorStyle.Render(m.notice))
		} else {
			parts = append(parts, styles.MutedStyle.Render(m.notice))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return styles.StatusBarStyle.Render(strings.Join(parts, "  "))
}

// listHeight is the number of rows that fit. Unknown sizes show everything.
func (m Model) listHeight() int {
	if m.height == 0 {
		return 0
	}
	h := m.height - chrome
	if m.formOpen() {
		h -= 14
	}
	return max(h, 3)
}

func (m Model) formOpen() bool {
	return m.mode == modeCreate || m.mode == modeEdit
}

// visibleRange returns the window of n rows of the given height that keeps
// cursor in view. A height of 0 means unlimited.
func visibleRange(cursor, n, height int) (start, end int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start = max(cursor-height/2, 0)
	end = start + height
	if end > n {
		end = n
		start = n - height
	}
	return start, end
}

// truncate cuts s to width cells with an ellipsis. Non-positive widths
// leave s alone.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

package commands

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/colonyops/todo/internal/core/styles"
	"github.com/colonyops/todo/internal/core/todo"
)

const noDue = "-"

// dueCell formats the due date of item for display.
func dueCell(item todo.Item) string {
	if item.DueDate == "" {
		return noDue
	}
	if d, ok := item.Due(); ok {
		return d.Format()
	}
	return item.DueDate
}

func overdue(item todo.Item, today todo.Date) bool {
	d, ok := item.Due()
	return ok && d.Before(today)
}

func priorityStyle(p todo.Priority) lipgloss.Style {
	switch p {
	case todo.PriorityHigh:
		return styles.PriorityHighStyle
	case todo.PriorityMedium:
		return styles.PriorityMediumStyle
	case todo.PriorityLow:
		return styles.PriorityLowStyle
	}
	return styles.MutedStyle
}

// renderTable renders items as a themed table.
func renderTable(items []todo.Item, today todo.Date) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.ID, item.Title, item.Priority.Label(), dueCell(item)})
	}

	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.BorderStyle).
		Headers("ID", "TITLE", "PRIORITY", "DUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cell.Inherit(styles.HeaderStyle)
			}
			item := items[row]
			switch col {
			case 2:
				return cell.Inherit(priorityStyle(item.Priority))
			case 3:
				if overdue(item, today) {
					return cell.Inherit(styles.OverdueStyle)
				}
			}
			return cell
		})

	return t.Render()
}

// fieldErrors formats a validation error one field per line, in a stable
// order. Errors without field detail pass through unchanged.
func fieldErrors(err error) error {
	msgs := todo.FieldMessages(err)
	if msgs == nil {
		return err
	}

	fields := make([]string, 0, len(msgs))
	for field := range msgs {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	var b strings.Builder
	b.WriteString("invalid todo:")
	for _, field := range fields {
		fmt.Fprintf(&b, "\n  %s: %s", field, msgs[field])
	}
	return errors.New(b.String())
}

// notFound reports a missing id without failing the command.
func notFound(w io.Writer, id string) {
	_, _ = fmt.Fprintln(w, styles.MutedStyle.Render(fmt.Sprintf("todo %q not found", id)))
}

func today() todo.Date {
	return todo.Today(time.Now())
}

package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/todo/internal/core/styles"
	"github.com/colonyops/todo/internal/core/todo"
)

type formField int

const (
	fieldTitle formField = iota
	fieldDescription
	fieldDue
	fieldPriority
	fieldCount
)

// createForm holds the inputs of the new-todo and edit panels. Submission
// lives in dashboard.Form or Collection.Update; this is only the editing
// surface.
type createForm struct {
	heading     string
	title       textinput.Model
	description textinput.Model
	due         textinput.Model
	priority    todo.Priority
	focus       formField
	// errors maps field name to message from the last rejected submit.
	errors map[string]string
}

func newCreateForm() createForm {
	title := textinput.New()
	title.Prompt = ""
	title.Placeholder = "What needs doing?"
	title.CharLimit = 200

	description := textinput.New()
	description.Prompt = ""
	description.Placeholder = "Optional details"

	due := textinput.New()
	due.Prompt = ""
	due.Placeholder = "YYYY-MM-DD"
	due.CharLimit = len(todo.DateLayout)

	return createForm{
		heading:     "New todo",
		title:       title,
		description: description,
		due:         due,
		priority:    todo.NewDraft().Priority,
	}
}

// newEditForm returns a form holding d, focused on the title.
func newEditForm(d todo.Draft) createForm {
	f := newCreateForm()
	f.heading = "Edit todo"
	for _, field := range []struct {
		in    *textinput.Model
		value string
	}{
		{&f.title, d.Title},
		{&f.description, d.Description},
		{&f.due, d.DueDate},
	} {
		field.in.SetValue(field.value)
		field.in.CursorEnd()
	}
	if d.Priority.IsValid() {
		f.priority = d.Priority
	}
	return f
}

func (f createForm) draft() todo.Draft {
	return todo.Draft{
		Title:       f.title.Value(),
		Description: f.description.Value(),
		DueDate:     f.due.Value(),
		Priority:    f.priority,
	}
}

// reset clears every field and returns focus to the title.
func (f *createForm) reset() tea.Cmd {
	f.title.Reset()
	f.description.Reset()
	f.due.Reset()
	f.priority = todo.NewDraft().Priority
	f.errors = nil
	f.focus = fieldTitle
	return f.focusCurrent()
}

func (f *createForm) inputs() []*textinput.Model {
	return []*textinput.Model{&f.title, &f.description, &f.due}
}

func (f *createForm) focusCurrent() tea.Cmd {
	var cmd tea.Cmd
	for i, in := range f.inputs() {
		if formField(i) == f.focus {
			cmd = in.Focus()
			continue
		}
		in.Blur()
	}
	return cmd
}

func (f *createForm) blur() {
	for _, in := range f.inputs() {
		in.Blur()
	}
}

func (f *createForm) next() tea.Cmd {
	f.focus = (f.focus + 1) % fieldCount
	return f.focusCurrent()
}

func (f *createForm) prev() tea.Cmd {
	f.focus = (f.focus + fieldCount - 1) % fieldCount
	return f.focusCurrent()
}

// cyclePriority steps through priorities, wrapping at either end.
func (f *createForm) cyclePriority(step int) {
	priorities := todo.Priorities()
	i := slices.Index(priorities, f.priority)
	n := len(priorities)
	f.priority = priorities[((i+step)%n+n)%n]
}

// update routes msg to the focused text input.
func (f *createForm) update(msg tea.Msg) tea.Cmd {
	inputs := f.inputs()
	if int(f.focus) >= len(inputs) {
		return nil
	}
	in := inputs[f.focus]
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return cmd
}

func (f createForm) view(width int) string {
	var b strings.Builder
	b.WriteString(styles.FormTitleStyle.Render(styles.IconCheckList + f.heading))
	b.WriteString("\n\n")

	row := func(field formField, label, value, errKey string) {
		style := styles.FormFieldStyle
		if f.focus == field {
			style = styles.FormFieldFocused
		}
		content := styles.FormHelpStyle.Render(label) + "\n" + value
		if msg, ok := f.errors[errKey]; ok {
			content += "\n" + styles.FormErrorStyle.Render(msg)
		}
		if width > 4 {
			style = style.Width(width - 4)
		}
		b.WriteString(style.Render(content))
		b.WriteString("\n")
	}

	row(fieldTitle, "Title", f.title.View(), todo.FieldTitle)
	row(fieldDescription, "Description", f.description.View(), "")
	row(fieldDue, "Due date", f.due.View(), todo.FieldDueDate)
	row(fieldPriority, "Priority", "‹ "+styles.PriorityBadge(string(f.priority), f.priority.Label())+" ›", "")

	return b.String()
}

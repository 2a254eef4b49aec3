package commands

import (
	"errors"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/colonyops/todo/internal/core/todo"
)

// stdinIsTerminal reports whether prompts can be shown.
func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func priorityOptions() []huh.Option[todo.Priority] {
	priorities := todo.Priorities()
	opts := make([]huh.Option[todo.Priority], 0, len(priorities))
	// highest first reads better in a picker
	for i := len(priorities) - 1; i >= 0; i-- {
		p := priorities[i]
		opts = append(opts, huh.NewOption(p.Label(), p))
	}
	return opts
}

// draftForm prompts for every field of d. validateDue checks the due date
// field; callers pick create or edit semantics.
func draftForm(title string, d *todo.Draft, validateDue func(string) error) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description("At least 3 characters").
				Validate(todo.ValidateTitle).
				Value(&d.Title),
			huh.NewText().
				Title("Description").
				Description("Markdown, shown by 'todo show'").
				Value(&d.Description),
			huh.NewSelect[todo.Priority]().
				Title("Priority").
				Options(priorityOptions()...).
				Value(&d.Priority),
			huh.NewInput().
				Title("Due date").
				Description("Optional, YYYY-MM-DD").
				Placeholder(todo.Today(time.Now()).String()).
				Validate(validateDue).
				Value(&d.DueDate),
		),
	)
}

// runDraftForm runs the form, turning an abort into a friendly error.
func runDraftForm(f *huh.Form) error {
	if err := f.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errors.New("aborted")
		}
		return err
	}
	return nil
}

package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/todo/internal/core/todo"
	"github.com/colonyops/todo/pkg/iojson"
)

type AddCmd struct {
	flags *Flags
	svc   *Services

	// flags
	title       string
	description string
	priority    string
	due         string
	file        string
	interactive bool
}

// NewAddCmd creates a new add command
func NewAddCmd(flags *Flags, svc *Services) *AddCmd {
	return &AddCmd{flags: flags, svc: svc}
}

// Register adds the add command to the application
func (cmd *AddCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "add",
		Usage:     "Create a todo",
		UsageText: "todo add --title <title> [--description <text>] [--priority low|medium|high] [--due YYYY-MM-DD]",
		Description: `Creates a todo and prints it as JSON.

Titles need at least 3 characters and due dates cannot be in the past.
Without --title on a terminal, or with --interactive, a form is shown.

A markdown note can seed the todo with --file: front matter may set title,
priority and due, and the body becomes the description. Flags given on the
command line win over the note.

Examples:
  todo add --title "Plan next sprint" --priority high --due 2030-01-15
  todo add --file notes/launch.md
  todo add -i`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "title",
				Aliases:     []string{"t"},
				Usage:       "title of the todo",
				Destination: &cmd.title,
			},
			&cli.StringFlag{
				Name:        "description",
				Aliases:     []string{"d"},
				Usage:       "longer notes, markdown allowed",
				Destination: &cmd.description,
			},
			&cli.StringFlag{
				Name:        "priority",
				Aliases:     []string{"p"},
				Usage:       "low, medium or high",
				Value:       string(todo.PriorityMedium),
				Destination: &cmd.priority,
			},
			&cli.StringFlag{
				Name:        "due",
				Usage:       "due date as YYYY-MM-DD",
				Destination: &cmd.due,
			},
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "markdown note with optional front matter",
				TakesFile:   true,
				Destination: &cmd.file,
			},
			&cli.BoolFlag{
				Name:        "interactive",
				Aliases:     []string{"i"},
				Usage:       "fill the todo in with a form",
				Destination: &cmd.interactive,
			},
		},
		Before: cmd.svc.Before,
		Action: cmd.run,
	})

	return app
}

func (cmd *AddCmd) run(ctx context.Context, c *cli.Command) error {
	draft, err := cmd.draft(c)
	if err != nil {
		return err
	}

	if cmd.interactive || (draft.Title == "" && stdinIsTerminal()) {
		now := time.Now()
		form := draftForm("New todo", &draft, func(s string) error {
			return todo.ValidateDueDate(s, now)
		})
		if err := runDraftForm(form); err != nil {
			return err
		}
	}

	if err := draft.Validate(time.Now()); err != nil {
		return fieldErrors(err)
	}

	item := cmd.svc.Todos.Create(ctx, draft.Input())
	if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, item); err != nil {
		return fmt.Errorf("write todo: %w", err)
	}
	return nil
}

// draft merges the note given by --file with the flags. Flags set on the
// command line take precedence.
func (cmd *AddCmd) draft(c *cli.Command) (todo.Draft, error) {
	draft := todo.NewDraft()
	if cmd.file != "" {
		content, err := os.ReadFile(cmd.file)
		if err != nil {
			return todo.Draft{}, fmt.Errorf("read note: %w", err)
		}
		draft = todo.DraftFromDocument(string(content))
	}

	if c.IsSet("title") {
		draft.Title = cmd.title
	}
	if c.IsSet("description") {
		draft.Description = cmd.description
	}
	if c.IsSet("due") {
		draft.DueDate = cmd.due
	}
	if c.IsSet("priority") || cmd.file == "" {
		p, err := todo.ParsePriority(cmd.priority)
		if err != nil {
			return todo.Draft{}, err
		}
		draft.Priority = p
	}
	return draft, nil
}

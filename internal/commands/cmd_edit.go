package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/todo/internal/core/logging"
	"github.com/colonyops/todo/internal/core/todo"
	"github.com/colonyops/todo/pkg/iojson"
)

type EditCmd struct {
	flags *Flags
	svc   *Services

	// flags
	title       string
	description string
	priority    string
	due         string
	clearDue    bool
	interactive bool
}

// NewEditCmd creates a new edit command
func NewEditCmd(flags *Flags, svc *Services) *EditCmd {
	return &EditCmd{flags: flags, svc: svc}
}

// Register adds the edit command to the application
func (cmd *EditCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "edit",
		Usage:     "Edit a todo",
		UsageText: "todo edit <id> [--title <title>] [--description <text>] [--priority <p>] [--due <date> | --clear-due] [-i]",
		Description: `Changes the given fields of a todo and prints the result as JSON.

Fields that are not passed keep their value. Edits are validated like new
todos: a due date in the past must be replaced (--due) or removed
(--clear-due) before the todo can be saved.
An unknown id is reported and ignored.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "title",
				Aliases:     []string{"t"},
				Usage:       "new title",
				Destination: &cmd.title,
			},
			&cli.StringFlag{
				Name:        "description",
				Aliases:     []string{"d"},
				Usage:       "new description",
				Destination: &cmd.description,
			},
			&cli.StringFlag{
				Name:        "priority",
				Aliases:     []string{"p"},
				Usage:       "new priority (low, medium, high)",
				Destination: &cmd.priority,
			},
			&cli.StringFlag{
				Name:        "due",
				Usage:       "new due date (YYYY-MM-DD)",
				Destination: &cmd.due,
			},
			&cli.BoolFlag{
				Name:        "clear-due",
				Usage:       "remove the due date",
				Destination: &cmd.clearDue,
			},
			&cli.BoolFlag{
				Name:        "interactive",
				Aliases:     []string{"i"},
				Usage:       "edit the todo with a form",
				Destination: &cmd.interactive,
			},
		},
		ShellComplete: TodoIDCompleter(cmd.svc),
		Before:        cmd.svc.Before,
		Action:        cmd.run,
	})

	return app
}

func (cmd *EditCmd) run(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("missing todo id")
	}

	ctx = logging.WithTodoID(ctx, id)

	item, ok := cmd.svc.Todos.Get(id)
	if !ok {
		notFound(c.Root().ErrWriter, id)
		return nil
	}

	draft := todo.DraftFromItem(item)
	if c.IsSet("title") {
		draft.Title = cmd.title
	}
	if c.IsSet("description") {
		draft.Description = cmd.description
	}
	if c.IsSet("priority") {
		p, err := todo.ParsePriority(cmd.priority)
		if err != nil {
			return err
		}
		draft.Priority = p
	}
	if c.IsSet("due") {
		draft.DueDate = cmd.due
	}
	if cmd.clearDue {
		draft.DueDate = ""
	}

	if cmd.interactive {
		now := time.Now()
		form := draftForm("Edit todo", &draft, func(s string) error {
			return todo.ValidateDueDate(s, now)
		})
		if err := runDraftForm(form); err != nil {
			return err
		}
	}

	if err := draft.Validate(time.Now()); err != nil {
		return fieldErrors(err)
	}

	updated := draft.Apply(item)
	if !cmd.svc.Todos.Update(ctx, updated) {
		// removed by another process since Get
		notFound(c.Root().ErrWriter, id)
		return nil
	}

	if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, updated); err != nil {
		return fmt.Errorf("write todo: %w", err)
	}
	return nil
}

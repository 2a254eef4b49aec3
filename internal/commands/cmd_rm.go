package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/todo/internal/core/logging"
	"github.com/colonyops/todo/internal/core/styles"
)

type RmCmd struct {
	flags *Flags
	svc   *Services
}

// NewRmCmd creates a new rm command
func NewRmCmd(flags *Flags, svc *Services) *RmCmd {
	return &RmCmd{flags: flags, svc: svc}
}

// Register adds the rm command to the application
func (cmd *RmCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "rm",
		Aliases:   []string{"delete"},
		Usage:     "Delete todos",
		UsageText: "todo rm <id> [<id>...]",
		Description: `Deletes todos by id. Unknown ids are reported and skipped.`,
		ShellComplete: TodoIDCompleter(cmd.svc),
		Before:        cmd.svc.Before,
		Action:        cmd.run,
	})

	return app
}

func (cmd *RmCmd) run(ctx context.Context, c *cli.Command) error {
	ids := c.Args().Slice()
	if len(ids) == 0 {
		return errors.New("missing todo id")
	}

	for _, id := range ids {
		if !cmd.svc.Todos.Delete(logging.WithTodoID(ctx, id), id) {
			notFound(c.Root().ErrWriter, id)
			continue
		}
		_, _ = fmt.Fprintln(c.Root().Writer, styles.SuccessStyle.Render("deleted "+id))
	}
	return nil
}

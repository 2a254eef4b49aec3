package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/todo/internal/core/styles"
	"github.com/colonyops/todo/internal/core/todo"
	"github.com/colonyops/todo/pkg/iojson"
)

type ImportCmd struct {
	flags  *Flags
	svc    *Services
	reader iojson.FileReader[json.RawMessage]

	// flags
	replace bool
}

// NewImportCmd creates a new import command
func NewImportCmd(flags *Flags, svc *Services) *ImportCmd {
	return &ImportCmd{flags: flags, svc: svc}
}

// Register adds the import command to the application
func (cmd *ImportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "import",
		Usage:     "Add todos from a JSON array",
		UsageText: "todo import [-f todos.json] [--replace]",
		Description: `Reads todos in the format written by 'todo export'. Records that do not
match the todo schema are skipped and reported.

By default imported todos are added with fresh ids, keeping their order at
the top of the list. --replace swaps the whole collection and keeps ids.`,
		Flags: []cli.Flag{
			cmd.reader.Flag(),
			&cli.BoolFlag{
				Name:        "replace",
				Usage:       "replace the collection instead of adding to it",
				Destination: &cmd.replace,
			},
		},
		Before: cmd.svc.Before,
		Action: cmd.run,
	})

	return app
}

func (cmd *ImportCmd) run(ctx context.Context, c *cli.Command) error {
	raw, err := cmd.reader.Read()
	if err != nil {
		return err
	}

	errOut := c.Root().ErrWriter
	items, err := todo.ParseStored(raw, func(index int, err error) {
		_, _ = fmt.Fprintln(errOut, styles.MutedStyle.Render(fmt.Sprintf("skipping record %d: %v", index, err)))
	})
	if err != nil {
		return fmt.Errorf("read todos: %w", err)
	}

	if cmd.replace {
		cmd.svc.Todos.Replace(ctx, items)
	} else {
		// Create prepends, so walk backwards to keep the file's order.
		for _, item := range slices.Backward(items) {
			cmd.svc.Todos.Create(ctx, todo.Input{
				Title:       item.Title,
				Description: item.Description,
				Priority:    item.Priority,
				DueDate:     item.DueDate,
			})
		}
	}

	_, _ = fmt.Fprintln(c.Root().Writer, styles.SuccessStyle.Render(fmt.Sprintf("imported %d todo(s)", len(items))))
	return nil
}

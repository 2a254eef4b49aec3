package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/todo/pkg/iojson"
)

type ExportCmd struct {
	flags *Flags
	svc   *Services
}

// NewExportCmd creates a new export command
func NewExportCmd(flags *Flags, svc *Services) *ExportCmd {
	return &ExportCmd{flags: flags, svc: svc}
}

// Register adds the export command to the application
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "export",
		Usage:     "Print every todo as a JSON array",
		UsageText: "todo export > todos.json",
		Description: `Writes the whole collection in store order, in the same format it is
persisted in. The output can be read back with 'todo import'.`,
		Before: cmd.svc.Before,
		Action: cmd.run,
	})

	return app
}

func (cmd *ExportCmd) run(_ context.Context, c *cli.Command) error {
	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, cmd.svc.Todos.Items())
}

package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/todo/internal/tui"
	"github.com/colonyops/todo/pkg/utils"
)

type TuiCmd struct {
	flags *Flags
	svc   *Services

	// flags
	noWatch bool
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags, svc *Services) *TuiCmd {
	return &TuiCmd{flags: flags, svc: svc}
}

// Flags returns the dashboard flags. They are also registered on the root
// command, which runs the dashboard when no subcommand is given.
func (cmd *TuiCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "no-watch",
			Usage:       "do not pick up changes made by other todo processes",
			Sources:     cli.EnvVars("TODO_NO_WATCH"),
			Destination: &cmd.noWatch,
		},
	}
}

// Register adds the tui command to the application
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "tui",
		Usage: "Open the interactive dashboard",
		Description: `Shows the todo list with live filters, search, sorting and a form for
new todos. This is also what 'todo' runs without a subcommand.

With the file and redis backends the dashboard follows changes made by
other todo processes unless --no-watch is set.`,
		Flags:  cmd.Flags(),
		Before: cmd.svc.Before,
		Action: cmd.Run,
	})

	return app
}

// Run opens the dashboard. Watcher problems are reported after the
// dashboard exits so they are not drawn over by the alternate screen.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	if _, err := cmd.svc.Before(ctx, c); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var notices utils.DeferredWriter
	defer func() { _ = notices.Flush(c.Root().ErrWriter) }()

	if !cmd.noWatch {
		ok, err := cmd.svc.Watch(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("watch failed")
			notices.Printf("live updates disabled: %v", err)
		case !ok:
			log.Debug().Str("backend", cmd.svc.Backend).Msg("backend has no change notifications")
		}
	}

	err := tui.Run(ctx, tui.Deps{
		Todos:       cmd.svc.Todos,
		View:        cmd.svc.View,
		Theme:       cmd.svc.Theme,
		NewForm:     cmd.svc.NewForm,
		DefaultSort: cmd.flags.Config.DefaultSort(),
	})
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

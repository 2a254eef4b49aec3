package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/todo/internal/core/theme"
)

type ThemeCmd struct {
	flags *Flags
	svc   *Services
}

// NewThemeCmd creates a new theme command
func NewThemeCmd(flags *Flags, svc *Services) *ThemeCmd {
	return &ThemeCmd{flags: flags, svc: svc}
}

// Register adds the theme command to the application
func (cmd *ThemeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "theme",
		Usage: "Show or change the color theme",
		Description: `The theme is light or dark. An explicit choice is stored and shared
with other todo processes; without one the terminal background decides.

Examples:
  todo theme            # print the current theme
  todo theme set dark
  todo theme toggle
  todo theme reset      # follow the terminal again`,
		Before: cmd.svc.Before,
		Action: cmd.runGet,
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "Print the current theme",
				Action: cmd.runGet,
			},
			{
				Name:      "set",
				Usage:     "Store a theme",
				UsageText: "todo theme set <light|dark>",
				ShellComplete: func(_ context.Context, c *cli.Command) {
					for _, t := range []theme.Theme{theme.Light, theme.Dark} {
						_, _ = fmt.Fprintln(c.Root().Writer, t)
					}
				},
				Action: cmd.runSet,
			},
			{
				Name:   "toggle",
				Usage:  "Switch to the opposite theme and store it",
				Action: cmd.runToggle,
			},
			{
				Name:   "reset",
				Usage:  "Forget the stored theme",
				Action: cmd.runReset,
			},
		},
	})

	return app
}

func (cmd *ThemeCmd) print(c *cli.Command, t theme.Theme) {
	source := "terminal"
	if cmd.svc.Theme.Stored() {
		source = "stored"
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "%s (%s)\n", t, source)
}

func (cmd *ThemeCmd) runGet(_ context.Context, c *cli.Command) error {
	cmd.print(c, cmd.svc.Theme.Current())
	return nil
}

func (cmd *ThemeCmd) runSet(ctx context.Context, c *cli.Command) error {
	arg := c.Args().First()
	if arg == "" {
		return errors.New("missing theme: light or dark")
	}

	t, err := theme.Parse(arg)
	if err != nil {
		return err
	}
	if err := cmd.svc.Theme.Set(ctx, t); err != nil {
		return err
	}

	cmd.print(c, t)
	return nil
}

func (cmd *ThemeCmd) runToggle(ctx context.Context, c *cli.Command) error {
	cmd.print(c, cmd.svc.Theme.Toggle(ctx))
	return nil
}

func (cmd *ThemeCmd) runReset(ctx context.Context, c *cli.Command) error {
	cmd.print(c, cmd.svc.Theme.Reset(ctx))
	return nil
}

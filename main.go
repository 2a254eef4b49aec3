package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	todoapp "github.com/colonyops/todo/internal/app"
	"github.com/colonyops/todo/internal/commands"
	"github.com/colonyops/todo/internal/core/config"
	"github.com/colonyops/todo/internal/core/logging"
	"github.com/colonyops/todo/internal/core/theme"
	"github.com/colonyops/todo/internal/tui"
	"github.com/colonyops/todo/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	// Commands capture svc at registration; the App behind it is opened by
	// the first command that needs storage.
	svc := commands.NewServices(func(ctx context.Context) (*todoapp.App, error) {
		return todoapp.Open(ctx, flags.Config, logging.Component("app"), todoapp.Options{
			Backend:       flags.BackendOverride(),
			SystemDark:    lipgloss.HasDarkBackground,
			ThemeAppliers: []func(theme.Theme){tui.ApplyStyles},
		})
	})

	app := &cli.Command{
		Name:      "todo",
		Usage:     "Keep track of what needs doing",
		UsageText: "todo [global options] command [command options]",
		Description: `todo keeps a prioritized list of todos with optional due dates.

Run 'todo' with no arguments to open the interactive dashboard.
Run 'todo add "Title"' to add a todo from the shell.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TODO_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/todo.log)",
				Sources:     cli.EnvVars("TODO_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TODO_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TODO_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "backend",
				Usage:       "storage backend, overriding the config (file, sqlite, redis, memory)",
				Sources:     cli.EnvVars("TODO_BACKEND"),
				Destination: &flags.Backend,
			},
			&cli.BoolFlag{
				Name:        "ephemeral",
				Usage:       "keep everything in memory for this run",
				Sources:     cli.EnvVars("TODO_EPHEMERAL"),
				Destination: &flags.Ephemeral,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; the dashboard owns the terminal.
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "todo.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			ctx = logging.WithCommand(ctx, cmp.Or(c.Args().First(), "tui"))
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if err := svc.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close storage")
				return err
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, svc)

	app = commands.NewAddCmd(flags, svc).Register(app)
	app = commands.NewLsCmd(flags, svc).Register(app)
	app = commands.NewShowCmd(flags, svc).Register(app)
	app = commands.NewEditCmd(flags, svc).Register(app)
	app = commands.NewRmCmd(flags, svc).Register(app)
	app = commands.NewThemeCmd(flags, svc).Register(app)
	app = commands.NewImportCmd(flags, svc).Register(app)
	app = commands.NewExportCmd(flags, svc).Register(app)
	app = commands.NewConfigCmd(flags).Register(app)
	app = tuiCmd.Register(app)

	// Register TUI flags on root command
	app.Flags = append(app.Flags, tuiCmd.Flags()...)

	// Set TUI as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'todo --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}

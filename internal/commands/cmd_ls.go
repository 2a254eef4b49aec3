package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/todo/internal/core/styles"
	"github.com/colonyops/todo/internal/core/todo"
	"github.com/colonyops/todo/pkg/iojson"
)

type LsCmd struct {
	flags *Flags
	svc   *Services

	// flags
	priority   string
	dueBefore  string
	search     string
	sort       string
	jsonOutput bool
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, svc *Services) *LsCmd {
	return &LsCmd{flags: flags, svc: svc}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Aliases:   []string{"list"},
		Usage:     "List todos",
		UsageText: "todo ls [--priority <p>] [--due-before <date>] [--search <term>] [--sort <key>] [--json]",
		Description: `Displays the filtered and sorted todos as a table.

Filters combine: a todo is listed only when it passes every one.
Sort keys: created-desc, created-asc, priority-desc, priority-asc,
title-asc, title-desc, due-asc, due-desc.

Use --json for one JSON object per line.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "priority",
				Aliases:     []string{"p"},
				Usage:       "only this priority (all, low, medium, high)",
				Value:       string(todo.PriorityAll),
				Destination: &cmd.priority,
			},
			&cli.StringFlag{
				Name:        "due-before",
				Usage:       "only todos due on or before this date (YYYY-MM-DD)",
				Destination: &cmd.dueBefore,
			},
			&cli.StringFlag{
				Name:        "search",
				Aliases:     []string{"q"},
				Usage:       "case-insensitive match on title or description",
				Destination: &cmd.search,
			},
			&cli.StringFlag{
				Name:        "sort",
				Aliases:     []string{"s"},
				Usage:       "sort key (defaults to list.default_sort)",
				Destination: &cmd.sort,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Before: cmd.svc.Before,
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) spec() (todo.ViewSpec, error) {
	priority, err := todo.ParsePriorityFilter(cmd.priority)
	if err != nil {
		return todo.ViewSpec{}, err
	}

	var dueBefore todo.Date
	if cmd.dueBefore != "" {
		dueBefore, err = todo.ParseDate(cmd.dueBefore)
		if err != nil {
			return todo.ViewSpec{}, fmt.Errorf("invalid --due-before: %w", err)
		}
	}

	sort := cmd.flags.Config.DefaultSort()
	if cmd.sort != "" {
		sort, err = todo.ParseSortKey(cmd.sort)
		if err != nil {
			return todo.ViewSpec{}, err
		}
	}

	return todo.ViewSpec{
		Priority:  priority,
		DueBefore: dueBefore,
		Search:    cmd.search,
		Sort:      sort,
	}, nil
}

func (cmd *LsCmd) run(_ context.Context, c *cli.Command) error {
	spec, err := cmd.spec()
	if err != nil {
		return err
	}

	items := cmd.svc.View.Derive(spec)
	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, item := range items {
			if err := iojson.WriteLine(out, item); err != nil {
				return fmt.Errorf("encode todo: %w", err)
			}
		}
		return nil
	}

	if len(items) == 0 {
		msg := "No todos yet"
		if spec.Active() {
			msg = "No todos match the current filters"
		}
		_, _ = fmt.Fprintln(c.Root().ErrWriter, styles.EmptyStateStyle.Render(msg))
		return nil
	}

	_, _ = fmt.Fprintln(out, renderTable(items, today()))
	return nil
}

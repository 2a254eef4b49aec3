package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/todo/internal/core/styles"
	"github.com/colonyops/todo/internal/core/todo"
	"github.com/colonyops/todo/pkg/iojson"
)

const (
	defaultShowWidth = 80
	maxShowWidth     = 100
)

// updatedAter is implemented by backends that record write times.
type updatedAter interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}

type ShowCmd struct {
	flags *Flags
	svc   *Services

	// flags
	jsonOutput bool
}

// NewShowCmd creates a new show command
func NewShowCmd(flags *Flags, svc *Services) *ShowCmd {
	return &ShowCmd{flags: flags, svc: svc}
}

// Register adds the show command to the application
func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "show",
		Usage:     "Show a todo",
		UsageText: "todo show <id> [--json]",
		Description: `Renders a todo with its description formatted as markdown.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		ShellComplete: TodoIDCompleter(cmd.svc),
		Before:        cmd.svc.Before,
		Action:        cmd.run,
	})

	return app
}

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("missing todo id")
	}

	item, ok := cmd.svc.Todos.Get(id)
	if !ok {
		notFound(c.Root().ErrWriter, id)
		return nil
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.WriteWith(out, c.Root().ErrWriter, item)
	}

	doc := itemMarkdown(item, today(), cmd.savedAt(ctx))

	tty := out == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
	if !tty {
		_, _ = fmt.Fprint(out, doc)
		return nil
	}

	_, _ = fmt.Fprint(out, renderMarkdown(doc, terminalWidth()))
	return nil
}

// savedAt returns the last write time of the collection when the backend
// records one.
func (cmd *ShowCmd) savedAt(ctx context.Context) time.Time {
	ua, ok := cmd.svc.Storage.(updatedAter)
	if !ok {
		return time.Time{}
	}
	t, err := ua.UpdatedAt(ctx, cmd.svc.Todos.Key())
	if err != nil {
		log.Debug().Err(err).Msg("read collection update time")
		return time.Time{}
	}
	return t
}

// itemMarkdown builds the markdown document for item.
func itemMarkdown(item todo.Item, today todo.Date, savedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", item.Title)

	due := dueCell(item)
	if overdue(item, today) {
		due += " (overdue)"
	}
	b.WriteString("| Priority | Due |\n|---|---|\n")
	fmt.Fprintf(&b, "| %s | %s |\n\n", item.Priority.Label(), due)

	if desc := strings.TrimSpace(item.Description); desc != "" {
		b.WriteString(desc)
	} else {
		b.WriteString("_No description_")
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "`%s`", item.ID)
	if !savedAt.IsZero() {
		fmt.Fprintf(&b, " · saved %s", savedAt.Local().Format(time.DateTime))
	}
	b.WriteString("\n")

	return b.String()
}

// renderMarkdown renders doc with the active theme, falling back to the
// raw markdown when rendering fails.
func renderMarkdown(doc string, width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Debug().Err(err).Msg("failed to create markdown renderer, showing raw content")
		return doc
	}

	rendered, err := renderer.Render(doc)
	if err != nil {
		log.Debug().Err(err).Msg("failed to render markdown, showing raw content")
		return doc
	}
	return rendered
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultShowWidth
	}
	return min(w, maxShowWidth)
}

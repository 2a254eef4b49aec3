package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// TodoIDCompleter returns a ShellCompleteFunc that suggests todo ids as
// positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func TodoIDCompleter(svc *Services) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		// Delegate to default flag completion when typing a flag
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		// completion skips Before hooks, so open storage here
		if svc == nil {
			return
		}
		if _, err := svc.Before(ctx, cmd); err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, item := range svc.Todos.Items() {
			_, _ = fmt.Fprintln(w, item.ID)
		}
	}
}

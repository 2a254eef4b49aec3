package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/todo/internal/app"
	"github.com/colonyops/todo/internal/core/config"
	"github.com/colonyops/todo/internal/core/todo"
)

// harness runs commands against one in-memory App, like a single process
// would across the lifetime of a command.
type harness struct {
	flags  *Flags
	svc    *Services
	out    bytes.Buffer
	errOut bytes.Buffer
}

func newHarness(t *testing.T, seed bool) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Storage.Backend = config.BackendMemory
	cfg.Seed = &seed

	h := &harness{
		flags: &Flags{
			Config:     &cfg,
			ConfigPath: filepath.Join(cfg.DataDir, "config.yaml"),
		},
	}
	h.svc = NewServices(func(ctx context.Context) (*app.App, error) {
		return app.Open(ctx, h.flags.Config, zerolog.Nop(), app.Options{Backend: h.flags.BackendOverride()})
	})
	t.Cleanup(func() { _ = h.svc.Close() })
	return h
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	h.errOut.Reset()

	root := &cli.Command{
		Name:      "todo",
		Writer:    &h.out,
		ErrWriter: &h.errOut,

		EnableShellCompletion: true,
		// keep cli.Exit from ending the test binary
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	NewAddCmd(h.flags, h.svc).Register(root)
	NewLsCmd(h.flags, h.svc).Register(root)
	NewShowCmd(h.flags, h.svc).Register(root)
	NewEditCmd(h.flags, h.svc).Register(root)
	NewRmCmd(h.flags, h.svc).Register(root)
	NewThemeCmd(h.flags, h.svc).Register(root)
	NewImportCmd(h.flags, h.svc).Register(root)
	NewExportCmd(h.flags, h.svc).Register(root)
	NewConfigCmd(h.flags).Register(root)

	return root.Run(context.Background(), append([]string{"todo"}, args...))
}

func (h *harness) jsonLines(t *testing.T) []todo.Item {
	t.Helper()
	var items []todo.Item
	for line := range strings.Lines(h.out.String()) {
		var item todo.Item
		require.NoError(t, json.Unmarshal([]byte(line), &item))
		items = append(items, item)
	}
	return items
}

func itemIDs(items []todo.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestAdd(t *testing.T) {
	t.Run("creates and prints", func(t *testing.T) {
		h := newHarness(t, false)
		err := h.run("add", "--title", "Write the release notes", "-p", "high", "--due", "2099-01-31", "-d", "Cover the new backends")
		require.NoError(t, err)

		var item todo.Item
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &item))
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, "Write the release notes", item.Title)
		assert.Equal(t, todo.PriorityHigh, item.Priority)
		assert.Equal(t, "2099-01-31", item.DueDate)

		stored, ok := h.svc.Todos.Get(item.ID)
		require.True(t, ok)
		assert.Equal(t, item, stored)
	})

	t.Run("reports field errors", func(t *testing.T) {
		h := newHarness(t, false)
		err := h.run("add", "--title", "ab", "--due", "2000-01-01")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid todo:")
		assert.Contains(t, err.Error(), todo.FieldTitle+":")
		assert.Contains(t, err.Error(), todo.FieldDueDate+":")
		assert.Equal(t, 0, h.svc.Todos.Len())
	})

	t.Run("from note", func(t *testing.T) {
		note := filepath.Join(t.TempDir(), "launch.md")
		content := "---\ntitle: Ship the beta\npriority: high\n---\nAnnounce on the blog.\n"
		require.NoError(t, os.WriteFile(note, []byte(content), 0o644))

		h := newHarness(t, false)
		require.NoError(t, h.run("add", "-f", note, "--due", "2099-02-01"))

		var item todo.Item
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &item))
		assert.Equal(t, "Ship the beta", item.Title)
		assert.Equal(t, todo.PriorityHigh, item.Priority, "note priority kept when flag unset")
		assert.Equal(t, "Announce on the blog.", item.Description)
		assert.Equal(t, "2099-02-01", item.DueDate)
	})

	t.Run("missing note", func(t *testing.T) {
		h := newHarness(t, false)
		assert.Error(t, h.run("add", "-f", filepath.Join(t.TempDir(), "nope.md")))
	})

	t.Run("rejects unknown priority", func(t *testing.T) {
		h := newHarness(t, false)
		err := h.run("add", "--title", "Valid title", "--priority", "urgent")
		require.Error(t, err)
		assert.Equal(t, 0, h.svc.Todos.Len())
	})
}

func TestLs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"default sort is newest first", nil, []string{"3", "2", "1"}},
		{"priority filter", []string{"--priority", "high"}, []string{"1"}},
		{"sort", []string{"--sort", "created-asc"}, []string{"1", "2", "3"}},
		{"search", []string{"-q", "RETRO"}, []string{"3"}},
		{"due before drops undated", []string{"--due-before", "2025-12-31", "-s", "due-asc"}, []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, true)
			require.NoError(t, h.run(append([]string{"ls", "--json"}, tt.args...)...))
			assert.Equal(t, tt.want, itemIDs(h.jsonLines(t)))
		})
	}

	t.Run("table", func(t *testing.T) {
		h := newHarness(t, true)
		require.NoError(t, h.run("ls"))
		out := h.out.String()
		assert.Contains(t, out, "TITLE")
		assert.Contains(t, out, "Refresh knowledge base")
		assert.Contains(t, out, "2025-11-15")
	})

	t.Run("empty states", func(t *testing.T) {
		h := newHarness(t, false)
		require.NoError(t, h.run("ls"))
		assert.Contains(t, h.errOut.String(), "No todos yet")

		require.NoError(t, h.run("ls", "--priority", "low"))
		assert.Contains(t, h.errOut.String(), "No todos match")
		assert.Empty(t, h.out.String())
	})

	t.Run("configured default sort", func(t *testing.T) {
		h := newHarness(t, true)
		h.flags.Config.List.DefaultSort = string(todo.SortTitleAsc)
		require.NoError(t, h.run("ls", "--json"))
		assert.Equal(t, []string{"1", "2", "3"}, itemIDs(h.jsonLines(t)))
	})

	t.Run("bad input", func(t *testing.T) {
		h := newHarness(t, true)
		assert.Error(t, h.run("ls", "--sort", "random"))
		assert.Error(t, h.run("ls", "--priority", "urgent"))
		assert.Error(t, h.run("ls", "--due-before", "tomorrow"))
	})
}

func TestEdit(t *testing.T) {
	t.Run("changes only set fields", func(t *testing.T) {
		h := newHarness(t, true)
		require.NoError(t, h.run("edit", "3", "--title", "Refresh the wiki"))

		item, ok := h.svc.Todos.Get("3")
		require.True(t, ok)
		assert.Equal(t, "Refresh the wiki", item.Title)
		assert.Equal(t, todo.PriorityLow, item.Priority)
		assert.Equal(t, todo.Seed()[2].Description, item.Description)
	})

	t.Run("past due date must be replaced", func(t *testing.T) {
		h := newHarness(t, true)
		err := h.run("edit", "2", "--title", "Plan the sprint")
		require.Error(t, err)
		assert.Contains(t, err.Error(), todo.FieldDueDate+":")

		item, _ := h.svc.Todos.Get("2")
		assert.Equal(t, "Plan next sprint goals", item.Title, "rejected edit not applied")

		require.NoError(t, h.run("edit", "2", "--title", "Plan the sprint", "--due", "2099-06-01"))
		item, _ = h.svc.Todos.Get("2")
		assert.Equal(t, "Plan the sprint", item.Title)
		assert.Equal(t, "2099-06-01", item.DueDate)
	})

	t.Run("clear due", func(t *testing.T) {
		h := newHarness(t, true)
		require.NoError(t, h.run("edit", "1", "--clear-due"))
		item, _ := h.svc.Todos.Get("1")
		assert.Empty(t, item.DueDate)
	})

	t.Run("new due date must not be past", func(t *testing.T) {
		h := newHarness(t, true)
		err := h.run("edit", "3", "--due", "2000-01-01")
		require.Error(t, err)
		item, _ := h.svc.Todos.Get("3")
		assert.Empty(t, item.DueDate)
	})

	t.Run("unknown id", func(t *testing.T) {
		h := newHarness(t, true)
		require.NoError(t, h.run("edit", "nope", "--title", "Whatever"))
		assert.Contains(t, h.errOut.String(), `"nope" not found`)
	})

	t.Run("missing id", func(t *testing.T) {
		h := newHarness(t, true)
		assert.Error(t, h.run("edit"))
	})
}

func TestRm(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.run("rm", "1", "nope", "3"))

	assert.Contains(t, h.out.String(), "deleted 1")
	assert.Contains(t, h.out.String(), "deleted 3")
	assert.Contains(t, h.errOut.String(), `"nope" not found`)
	assert.Equal(t, []string{"2"}, itemIDs(h.svc.Todos.Items()))

	assert.Error(t, h.run("delete"), "alias without ids")
}

func TestShow(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		h := newHarness(t, true)
		require.NoError(t, h.run("show", "1"))
		out := h.out.String()
		assert.Contains(t, out, "# Draft the product launch outline")
		assert.Contains(t, out, "| High | 2025-10-12")
		assert.Contains(t, out, "`1`")
	})

	t.Run("no description", func(t *testing.T) {
		h := newHarness(t, false)
		require.NoError(t, h.run("add", "--title", "Bare todo"))
		var created todo.Item
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &created))

		require.NoError(t, h.run("show", created.ID))
		assert.Contains(t, h.out.String(), "_No description_")
	})

	t.Run("json", func(t *testing.T) {
		h := newHarness(t, true)
		require.NoError(t, h.run("show", "2", "--json"))
		var item todo.Item
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &item))
		assert.Equal(t, "Plan next sprint goals", item.Title)
	})

	t.Run("unknown id", func(t *testing.T) {
		h := newHarness(t, true)
		require.NoError(t, h.run("show", "nope"))
		assert.Contains(t, h.errOut.String(), "not found")
	})
}

func TestItemMarkdown_Overdue(t *testing.T) {
	item := todo.Item{ID: "x", Title: "Late", Priority: todo.PriorityLow, DueDate: "2025-01-01"}
	today, err := todo.ParseDate("2025-06-01")
	require.NoError(t, err)

	doc := itemMarkdown(item, today, time.Time{})
	assert.Contains(t, doc, "2025-01-01 (overdue)")
	assert.NotContains(t, doc, "saved")
}

func TestTheme(t *testing.T) {
	h := newHarness(t, true)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"theme"}, "light (terminal)"},
		{[]string{"theme", "set", "dark"}, "dark (stored)"},
		{[]string{"theme", "get"}, "dark (stored)"},
		{[]string{"theme", "toggle"}, "light (stored)"},
		{[]string{"theme", "reset"}, "light (terminal)"},
	}
	for _, step := range steps {
		require.NoError(t, h.run(step.args...), step.args)
		assert.Equal(t, step.want+"\n", h.out.String(), step.args)
	}

	assert.Error(t, h.run("theme", "set", "blue"))
	assert.Error(t, h.run("theme", "set"))
}

func TestExportImport(t *testing.T) {
	src := newHarness(t, true)
	require.NoError(t, src.run("export"))

	file := filepath.Join(t.TempDir(), "todos.json")
	require.NoError(t, os.WriteFile(file, src.out.Bytes(), 0o644))

	t.Run("append with fresh ids", func(t *testing.T) {
		h := newHarness(t, true)
		require.NoError(t, h.run("import", "-f", file))
		assert.Contains(t, h.out.String(), "imported 3 todo(s)")

		items := h.svc.Todos.Items()
		require.Len(t, items, 6)
		assert.Equal(t, "Draft the product launch outline", items[0].Title, "file order kept at the top")
		assert.Equal(t, "Refresh knowledge base", items[2].Title)
		assert.NotContains(t, []string{"1", "2", "3"}, items[0].ID)
	})

	t.Run("replace keeps ids", func(t *testing.T) {
		h := newHarness(t, false)
		require.NoError(t, h.run("add", "--title", "Goes away"))
		require.NoError(t, h.run("import", "-f", file, "--replace"))
		assert.Equal(t, todo.Seed(), h.svc.Todos.Items())
	})

	t.Run("skips bad records", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		payload := `[{"id":"a","title":"Good one","description":"","priority":"low"},{"id":"b","title":"Bad","priority":"urgent"}]`
		require.NoError(t, os.WriteFile(bad, []byte(payload), 0o644))

		h := newHarness(t, false)
		require.NoError(t, h.run("import", "-f", bad, "--replace"))
		assert.Contains(t, h.errOut.String(), "skipping record 1")
		assert.Equal(t, []string{"a"}, itemIDs(h.svc.Todos.Items()))
	})
}

func TestConfig(t *testing.T) {
	t.Run("show redacts password", func(t *testing.T) {
		h := newHarness(t, true)
		h.flags.Config.Storage.Redis.Password = "hunter2"
		require.NoError(t, h.run("config", "show"))
		assert.NotContains(t, h.out.String(), "hunter2")
		assert.Contains(t, h.out.String(), redacted)
		assert.Equal(t, "hunter2", h.flags.Config.Storage.Redis.Password, "config untouched")
	})

	t.Run("works without storage", func(t *testing.T) {
		h := newHarness(t, true)
		h.flags.Config.Storage.Backend = config.BackendRedis
		h.flags.Config.Storage.Redis.Addr = "127.0.0.1:1"
		require.NoError(t, h.run("config", "show"))
		assert.Nil(t, h.svc.App, "storage never opened")
	})

	t.Run("validate json", func(t *testing.T) {
		h := newHarness(t, true)
		require.NoError(t, h.run("config", "validate", "--format", "json"))

		var result validateOutput
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &result))
		assert.True(t, result.Valid)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "storage.backend", result.Warnings[0].Item)
	})

	t.Run("validate reports errors", func(t *testing.T) {
		h := newHarness(t, true)
		h.flags.Config.Storage.Backend = "floppy"
		require.Error(t, h.run("config", "validate"))
		assert.Contains(t, h.out.String(), "storage.backend")
		assert.Contains(t, h.out.String(), "1 error(s) found")
	})
}

func TestFlags_BackendOverride(t *testing.T) {
	assert.Empty(t, (&Flags{}).BackendOverride())
	assert.Equal(t, config.BackendSQLite, (&Flags{Backend: config.BackendSQLite}).BackendOverride())
	assert.Equal(t, config.BackendMemory, (&Flags{Backend: config.BackendSQLite, Ephemeral: true}).BackendOverride())
}

func TestTodoIDCompleter(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.run("rm", "2"))

	require.NoError(t, h.run("show", "--generate-shell-completion"))
	assert.Equal(t, "1\n3\n", h.out.String())
}

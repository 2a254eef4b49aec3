package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/todo/internal/app"
	"github.com/colonyops/todo/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
	Backend    string
	Ephemeral  bool

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// Services holds the App shared by commands. Commands capture a pointer to
// it at registration; the App is opened by Before on first use so commands
// that never touch storage, like config, work while a backend is down.
type Services struct {
	*app.App
	open func(ctx context.Context) (*app.App, error)
}

// NewServices returns Services that build the App with open.
func NewServices(open func(ctx context.Context) (*app.App, error)) *Services {
	return &Services{open: open}
}

// Before is a cli.BeforeFunc opening the App once.
func (s *Services) Before(ctx context.Context, _ *cli.Command) (context.Context, error) {
	if s.App != nil {
		return ctx, nil
	}
	a, err := s.open(ctx)
	if err != nil {
		return ctx, err
	}
	s.App = a
	return ctx, nil
}

// Close releases the App when it was opened.
func (s *Services) Close() error {
	if s.App == nil {
		return nil
	}
	return s.App.Close()
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "todo", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "todo")
}

// BackendOverride returns the backend selected on the command line, if any.
// --ephemeral wins over --backend.
func (f *Flags) BackendOverride() string {
	if f.Ephemeral {
		return config.BackendMemory
	}
	return f.Backend
}
